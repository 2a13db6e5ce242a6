// Package decode provides per-chunk audio decoders for the formats the
// generator can emit: raw PCM, MP3, and Opus.
package decode
