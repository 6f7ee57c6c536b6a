// Package logging provides the station's structured logger plus an
// optional CSV event log for transmitter sightings, mirroring the
// teacher's strftime-based timestamp formatting.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

// New builds the station's structured logger writing to w at level.
func New(w io.Writer, level log.Level) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
	logger.SetLevel(level)
	return logger
}

// EventLog appends CSV rows timestamped with a strftime-formatted
// prefix, matching the format string the teacher's command-line
// interface accepts for its receive timestamp option.
type EventLog struct {
	w               io.Writer
	timestampFormat string
}

// OpenEventLog opens (or creates) path for append. An empty
// timestampFormat disables the timestamp column, matching the
// teacher's default of no timestamp.
func OpenEventLog(path, timestampFormat string) (*EventLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open event log: %w", err)
	}
	return NewEventLog(f, timestampFormat), nil
}

// NewEventLog wraps an already-open writer, useful for tests.
func NewEventLog(w io.Writer, timestampFormat string) *EventLog {
	return &EventLog{w: w, timestampFormat: timestampFormat}
}

// Record writes one CSV row: protocol, id, hackable, recv_cnt, and any
// extra fields, optionally preceded by a formatted timestamp column.
func (e *EventLog) Record(protocol, idStr string, hackable, recvCnt int, extra ...string) error {
	row := make([]string, 0, 5+len(extra))
	if e.timestampFormat != "" {
		stamp, err := strftime.Format(e.timestampFormat, time.Now())
		if err != nil {
			return fmt.Errorf("logging: format timestamp: %w", err)
		}
		row = append(row, stamp)
	}
	row = append(row, protocol, idStr, fmt.Sprintf("%d", hackable), fmt.Sprintf("%d", recvCnt))
	row = append(row, extra...)

	line := ""
	for i, field := range row {
		if i > 0 {
			line += ","
		}
		line += field
	}
	line += "\n"
	_, err := io.WriteString(e.w, line)
	return err
}
