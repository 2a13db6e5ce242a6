// ABOUTME: Entry point for the Driftwave player
// ABOUTME: Wires discovery, session, engine, output, and TUI together
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Driftwave-Audio/driftwave-go/internal/discovery"
	"github.com/Driftwave-Audio/driftwave-go/internal/engine"
	"github.com/Driftwave-Audio/driftwave-go/internal/export"
	"github.com/Driftwave-Audio/driftwave-go/internal/output"
	"github.com/Driftwave-Audio/driftwave-go/internal/protocol"
	"github.com/Driftwave-Audio/driftwave-go/internal/session"
	"github.com/Driftwave-Audio/driftwave-go/internal/ui"
	"github.com/Driftwave-Audio/driftwave-go/internal/version"
	"github.com/Driftwave-Audio/driftwave-go/internal/viz"
	"github.com/Driftwave-Audio/driftwave-go/pkg/audio"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	statusInterval = 100 * time.Millisecond
	spectrumFrames = 1024
	spectrumBins   = 24
)

var rootCmd = &cobra.Command{
	Use:     "driftwave",
	Short:   "Streaming playout client for generative audio sessions",
	Version: version.Version,
	RunE:    run,
}

func init() {
	_ = godotenv.Load()

	flags := rootCmd.Flags()
	flags.String("server", "", "generator address (skip mDNS discovery)")
	flags.String("name", "", "player name reported in the handshake")
	flags.String("api-key", "", "generator API key")
	flags.String("prompt", "", "initial generation prompt")
	flags.Int("bpm", 0, "initial generation tempo")
	flags.Float64("lookahead", engine.DefaultLookahead, "look-ahead buffering window in seconds")
	flags.Int("fade-ms", 50, "pause/resume fade ramp in milliseconds")
	flags.Int("decode-workers", 4, "decode worker count")
	flags.Int("mdns-port", 9401, "port advertised over mDNS (0 disables)")
	flags.String("export-dir", "exports", "directory for exported sessions")
	flags.String("log-file", "driftwave.log", "log file path")
	flags.Bool("no-tui", false, "disable the TUI, stream logs to stdout")

	viper.SetEnvPrefix("DRIFTWAVE")
	viper.AutomaticEnv()
	_ = viper.BindPFlags(flags)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	useTUI := !viper.GetBool("no-tui")

	f, err := os.OpenFile(viper.GetString("log-file"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	logger := log.NewWithOptions(f, log.Options{ReportTimestamp: true})
	if !useTUI {
		logger = log.NewWithOptions(os.Stdout, log.Options{ReportTimestamp: true})
	}

	playerName := viper.GetString("name")
	if playerName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		playerName = fmt.Sprintf("%s-driftwave", hostname)
	}

	disc := discovery.NewManager(discovery.Config{}, logger)
	defer disc.Stop()

	if port := viper.GetInt("mdns-port"); port > 0 {
		if err := disc.Advertise(playerName, port); err != nil {
			logger.Warn("mdns advertisement failed", "err", err)
		}
	}

	serverAddr, err := resolveServer(disc, logger)
	if err != nil {
		return err
	}

	client := session.NewClient(session.Config{
		ServerAddr: serverAddr,
		Name:       playerName,
		Version:    1,
		APIKey:     viper.GetString("api-key"),
	}, logger)
	if err := client.Connect(); err != nil {
		return fmt.Errorf("failed to connect to generator: %w", err)
	}
	defer client.Close()

	clock := engine.NewSystemClock()
	sink := output.NewLazySink(clock, logger)
	eng := engine.New(engine.Config{
		Lookahead:     viper.GetFloat64("lookahead"),
		FadeRamp:      time.Duration(viper.GetInt("fade-ms")) * time.Millisecond,
		DecodeWorkers: viper.GetInt("decode-workers"),
	}, clock, sink, client, logger)
	eng.Start()
	defer eng.Close()

	if prompt := viper.GetString("prompt"); prompt != "" {
		if err := client.SetPrompt(prompt, 1.0); err != nil {
			logger.Warn("failed to send prompt", "err", err)
		}
	}
	if bpm := viper.GetInt("bpm"); bpm > 0 {
		if err := client.SetParams(protocol.GenerationParams{BPM: bpm}); err != nil {
			logger.Warn("failed to send params", "err", err)
		}
	}

	ctrl := ui.NewControl()
	var prog *tea.Program
	if useTUI {
		prog = ui.Run(ctrl)
		go func() {
			if _, err := prog.Run(); err != nil {
				logger.Error("tui failed", "err", err)
			}
		}()
	}

	if err := eng.Play(); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	appLoop(appDeps{
		logger:    logger,
		client:    client,
		eng:       eng,
		sink:      sink,
		ctrl:      ctrl,
		prog:      prog,
		generator: serverAddr,
		exportDir: viper.GetString("export-dir"),
	})

	logger.Info("player stopped")
	return nil
}

// resolveServer returns the configured generator address, falling back
// to mDNS discovery
func resolveServer(disc *discovery.Manager, logger *log.Logger) (string, error) {
	if addr := viper.GetString("server"); addr != "" {
		return addr, nil
	}

	logger.Info("browsing for generators")
	disc.Browse()

	select {
	case gen := <-disc.Generators():
		return gen.Addr(), nil
	case <-time.After(10 * time.Second):
		return "", fmt.Errorf("no generator found after 10 seconds")
	}
}

type appDeps struct {
	logger    *log.Logger
	client    *session.Client
	eng       *engine.Engine
	sink      *output.LazySink
	ctrl      *ui.Control
	prog      *tea.Program
	generator string
	exportDir string
}

// appLoop routes session messages into the engine and TUI commands out,
// until a quit command or OS signal arrives
func appLoop(d appDeps) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	analyzer := viz.NewAnalyzer(spectrumBins)
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	notice := ""

	for {
		select {
		case <-sigChan:
			d.logger.Info("shutdown signal received")
			if d.prog != nil {
				d.prog.Quit()
			}
			return

		case frame := <-d.client.Chunks:
			d.eng.HandleChunk(frame.Data)

		case start := <-d.client.StreamStart:
			format := audio.Format{
				Codec:      start.Codec,
				SampleRate: start.SampleRate,
				Channels:   start.Channels,
				BitDepth:   start.BitDepth,
			}
			if err := d.sink.Open(format); err != nil {
				d.logger.Error("failed to open output device", "err", err)
				d.eng.HandleSessionError(err)
				continue
			}
			d.eng.HandleStreamStart(format)

		case err := <-d.client.Errors:
			d.eng.HandleSessionError(err)

		case cmd := <-d.ctrl.Commands:
			switch cmd.Kind {
			case ui.CmdQuit:
				d.logger.Info("quit requested")
				return
			case ui.CmdTogglePlay:
				if d.eng.State() == engine.StatePlaying {
					if err := d.eng.Pause(); err != nil {
						d.logger.Warn("pause failed", "err", err)
					}
				} else {
					if err := d.eng.Play(); err != nil {
						d.logger.Warn("play failed", "err", err)
					}
				}
			case ui.CmdSeekBy:
				target := d.eng.CurrentTime() + cmd.Delta
				if err := d.eng.SeekTo(target); err != nil {
					d.logger.Warn("seek failed", "target", target, "err", err)
				}
			case ui.CmdReset:
				if err := d.eng.Reset(); err != nil {
					d.logger.Warn("reset failed", "err", err)
				}
				notice = "session reset"
			case ui.CmdExport:
				notice = exportSession(d)
			}

		case <-ticker.C:
			if d.prog == nil {
				continue
			}
			d.prog.Send(statusMsg(d, analyzer, notice))
		}
	}
}

// exportSession saves everything captured so far as a WAV file
func exportSession(d appDeps) string {
	format, ok := d.eng.Format()
	if !ok {
		return "nothing to export"
	}

	path, err := export.SaveWAV(d.exportDir, format, d.eng.SnapshotPCM())
	if err != nil {
		d.logger.Error("export failed", "err", err)
		return fmt.Sprintf("export failed: %v", err)
	}
	d.logger.Info("session exported", "path", path)
	return fmt.Sprintf("exported %s", path)
}

// statusMsg assembles one TUI refresh from engine and session state
func statusMsg(d appDeps, analyzer *viz.Analyzer, notice string) ui.StatusMsg {
	stats := d.eng.EngineStats()
	format, _ := d.eng.Format()

	errText := ""
	if err := d.eng.Err(); err != nil {
		errText = err.Error()
	}

	return ui.StatusMsg{
		Connected:      d.client.IsConnected(),
		Generator:      d.generator,
		State:          stats.State,
		Cursor:         d.eng.CurrentTime(),
		Total:          d.eng.TotalDuration(),
		Codec:          format.Codec,
		SampleRate:     format.SampleRate,
		Channels:       format.Channels,
		Spectrum:       analyzer.Spectrum(d.eng.AudibleWindow(spectrumFrames)),
		ChunksReceived: stats.ChunksReceived,
		DecodeFailures: stats.DecodeFailures,
		Gaps:           stats.Gaps,
		LiveUnits:      stats.LiveUnits,
		Notice:         notice,
		Err:            errText,
	}
}
