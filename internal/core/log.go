package core

import (
	"bytes"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// NewLogger creates a logger with timestamp formatting, writing to w through
// a redacting filter that keeps home directory paths out of the output.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func NewLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(Redacted(w), log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// Redacted wraps w so the user's home directory is printed as "~".
func Redacted(w io.Writer) io.Writer {
	home, err := os.UserHomeDir()
	if err != nil || home == "" || home == "/" {
		return w
	}
	return &redactWriter{w: w, home: []byte(home)}
}

type redactWriter struct {
	w    io.Writer
	home []byte
}

// Write reports the original length so wrapped writers never see a short
// write even though the redacted output may be shorter.
func (r *redactWriter) Write(p []byte) (int, error) {
	if _, err := r.w.Write(bytes.ReplaceAll(p, r.home, []byte("~"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
