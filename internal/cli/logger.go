package cli

import (
	"io"

	"github.com/charmbracelet/log"
	upload "github.com/goliatone/go-upload"
)

var _ upload.Logger = &Logger{}

// Logger adapts charmbracelet/log to upload.Logger.
type Logger struct {
	l *log.Logger
}

// NewLogger maps the -v count to a level: errors only by default, info
// with one -v and debug with two or more.
func NewLogger(w io.Writer, verbosity int) *Logger {
	return &Logger{
		l: log.NewWithOptions(w, log.Options{
			Level:           levelFor(verbosity),
			ReportTimestamp: verbosity > 1,
			TimeFormat:      "15:04:05",
			Prefix:          "upload",
		}),
	}
}

func levelFor(verbosity int) log.Level {
	switch {
	case verbosity <= 0:
		return log.ErrorLevel
	case verbosity == 1:
		return log.InfoLevel
	default:
		return log.DebugLevel
	}
}

func (l *Logger) Debug(msg string, args ...any) {
	l.l.Debug(msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.l.Info(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.l.Error(msg, args...)
}
