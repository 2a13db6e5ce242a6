// ABOUTME: File and clipboard export destinations
// ABOUTME: Saves captured sessions to disk or the system clipboard
package export

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Driftwave-Audio/driftwave-go/pkg/audio"
	"github.com/atotto/clipboard"
)

// SaveWAV writes the captured samples to a timestamped WAV file under
// dir and returns the file path
func SaveWAV(dir string, format audio.Format, samples []int16) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("session-%s.wav", time.Now().Format("20060102-150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := WriteWAV(f, format, samples); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// SaveMP3 encodes the captured samples with enc and writes them to a
// timestamped MP3 file under dir
func SaveMP3(dir string, enc FrameEncoder, format audio.Format, samples []int16) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("session-%s.mp3", time.Now().Format("20060102-150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := WriteMP3(f, enc, format, samples); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// CopyWAV places the captured samples on the system clipboard as a
// base64-encoded WAV
func CopyWAV(format audio.Format, samples []int16) error {
	encoded := base64.StdEncoding.EncodeToString(WAV(format, samples))
	if err := clipboard.WriteAll(encoded); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}
