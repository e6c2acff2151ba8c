package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		entry                                        Entry
		startedRaw, endedRaw                         string
		device, stopReason, errKind, errMsg, outPath sql.NullString
		durationMS                                   int64
	)
	err := scanner.Scan(
		&entry.ID,
		&startedRaw,
		&endedRaw,
		&device,
		&entry.Format,
		&entry.Bytes,
		&durationMS,
		&stopReason,
		&errKind,
		&errMsg,
		&outPath,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scan session: %w", err)
	}
	if t, err := parseTimeString(startedRaw); err == nil {
		entry.StartedAt = t
	}
	if t, err := parseTimeString(endedRaw); err == nil {
		entry.EndedAt = t
	}
	entry.Device = device.String
	entry.Duration = time.Duration(durationMS) * time.Millisecond
	entry.StopReason = stopReason.String
	entry.ErrorKind = errKind.String
	entry.ErrorMessage = errMsg.String
	entry.OutputPath = outPath.String
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(value time.Time) string {
	return value.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
