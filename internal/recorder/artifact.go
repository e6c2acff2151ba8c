package recorder

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/wav"

	"micrec/internal/captureerr"
	"micrec/internal/platform"
)

// SessionInfo describes a running session.
type SessionInfo struct {
	ID        string
	Device    string
	Format    string
	TempPath  string
	StartedAt time.Time
}

// Artifact is the captured audio returned on a successful stop.
type Artifact struct {
	SessionID string
	Data      []byte
	MimeType  string
	Format    string
	Device    string
	// Duration is decoded from the WAV header for wav captures and falls back
	// to the wall-clock session length otherwise.
	Duration   time.Duration
	StartedAt  time.Time
	EndedAt    time.Time
	StopReason StopReason
}

// Size returns the payload length in bytes.
func (a Artifact) Size() int {
	return len(a.Data)
}

func readArtifact(path string, format platform.Format) ([]byte, time.Duration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, captureerr.Wrap(captureerr.ErrNoAudioCaptured, "read capture", "encoder produced no output file", nil)
		}
		return nil, 0, captureerr.Wrap(captureerr.ErrTempFileError, "read capture", path, err)
	}
	if len(data) == 0 {
		return nil, 0, captureerr.Wrap(captureerr.ErrNoAudioCaptured, "read capture", "output file is empty", nil)
	}
	if format.Name != "wav" {
		return data, 0, nil
	}
	return data, wavDuration(data), nil
}

// wavDuration returns zero when the header cannot be decoded, e.g. when the
// encoder was killed before it rewrote the chunk sizes.
func wavDuration(data []byte) time.Duration {
	duration, err := wav.NewDecoder(bytes.NewReader(data)).Duration()
	if err != nil {
		return 0
	}
	return duration
}

func tempFileName(dir, id string, format platform.Format) string {
	return filepath.Join(dir, fmt.Sprintf("micrec-%s.%s", id, format.Extension))
}
