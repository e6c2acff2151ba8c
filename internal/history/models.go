package history

import (
	"time"

	"micrec/internal/captureerr"
	"micrec/internal/recorder"
)

// Entry is one finished recording session.
type Entry struct {
	ID           string
	StartedAt    time.Time
	EndedAt      time.Time
	Device       string
	Format       string
	Bytes        int64
	Duration     time.Duration
	StopReason   string
	ErrorKind    string
	ErrorMessage string
	OutputPath   string
}

// Failed reports whether the session ended with an error.
func (e Entry) Failed() bool {
	return e.ErrorKind != ""
}

// Outcome summarizes the session for display.
func (e Entry) Outcome() string {
	if e.Failed() {
		return e.ErrorKind
	}
	if e.StopReason == "" {
		return "ok"
	}
	return e.StopReason
}

// FromArtifact builds the entry for a session that produced audio.
func FromArtifact(a recorder.Artifact, outputPath string) Entry {
	return Entry{
		ID:         a.SessionID,
		StartedAt:  a.StartedAt,
		EndedAt:    a.EndedAt,
		Device:     a.Device,
		Format:     a.Format,
		Bytes:      int64(a.Size()),
		Duration:   a.Duration,
		StopReason: string(a.StopReason),
		OutputPath: outputPath,
	}
}

// FromFailure builds the entry for a session that ended with err.
func FromFailure(info recorder.SessionInfo, endedAt time.Time, err error) Entry {
	return Entry{
		ID:           info.ID,
		StartedAt:    info.StartedAt,
		EndedAt:      endedAt,
		Device:       info.Device,
		Format:       info.Format,
		Duration:     endedAt.Sub(info.StartedAt),
		ErrorKind:    captureerr.KindName(err),
		ErrorMessage: errorText(err),
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
