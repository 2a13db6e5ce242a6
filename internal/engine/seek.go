// ABOUTME: Seek control over the growing timeline
// ABOUTME: Rebuilds the scheduling plan from an arbitrary target time
package engine

// SeekTo repositions playback at target seconds. Valid only when the
// timeline is non-empty and the transport is not stopped. A paused
// transport resumes playing.
func (e *Engine) SeekTo(target float64) error {
	return e.do(func() error {
		e.mu.Lock()

		if e.transport.Current() == StateStopped || e.timeline.TotalDuration() == 0 {
			e.mu.Unlock()
			return ErrNotSeekable
		}

		wasPaused := e.transport.Current() == StatePaused

		if err := e.rescheduleLocked(target); err != nil {
			e.fatalLocked(err)
			e.mu.Unlock()
			return err
		}

		if wasPaused {
			e.transport.Transition(StatePlaying)
		}
		cursor := e.cursor
		e.mu.Unlock()

		if wasPaused {
			// Fade in after releasing the lock; the ramp blocks
			e.sink.SetGain(1, e.cfg.FadeRamp)
			if err := e.sessionPlay(); err != nil {
				return err
			}
		}

		e.logger.Info("seek", "target", cursor)
		return nil
	})
}

// rescheduleLocked is the shared seek/resume plan rebuild:
// clear every live unit, re-anchor the cursor origin at target, then
// schedule the located buffer from its intra-buffer offset and every
// later buffer back-to-back. A target at a buffer boundary starts the
// following buffer at offset zero; a target at the timeline end
// schedules nothing.
func (e *Engine) rescheduleLocked(target float64) error {
	if target < 0 {
		target = 0
	}
	if total := e.timeline.TotalDuration(); target > total {
		target = total
	}

	e.sched.ClearAll()
	e.sched.Rebase(target)
	e.cursor = target

	idx, offset := e.timeline.Locate(target)
	for i := idx; i < e.timeline.Len(); i++ {
		if _, err := e.sched.Schedule(e.timeline.At(i), offset); err != nil {
			return err
		}
		offset = 0
	}
	e.nextIndex = e.timeline.Len()
	return nil
}
