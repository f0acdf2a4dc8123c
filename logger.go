package upload

import "log"

// Logger interface allows for dependency injection of logging
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type DefaultLogger struct {
	Verbose bool
}

func (l *DefaultLogger) Debug(msg string, args ...any) {
	if l.Verbose {
		log.Println(append([]any{"[DEBUG] Upload |", msg}, args...)...)
	}
}

func (l *DefaultLogger) Info(msg string, args ...any) {
	log.Println(append([]any{" [INFO] Upload |", msg}, args...)...)
}

func (l *DefaultLogger) Error(msg string, args ...any) {
	log.Println(append([]any{"[ERROR] Upload |", msg}, args...)...)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
