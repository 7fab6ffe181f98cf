package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is a printf-style wrapper over logrus shared by all services.
type Logger struct {
	entry *logrus.Entry
}

func New() *Logger {
	return NewWithLevel("info")
}

func NewWithLevel(level string) *Logger {
	return newLogger(os.Stdout, level)
}

func newLogger(out io.Writer, level string) *Logger {
	base := logrus.New()
	base.Out = out
	base.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)

	return &Logger{entry: logrus.NewEntry(base)}
}

// With returns a child logger carrying an extra structured field.
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.entry.Debug(fmt.Sprintf(format, args...))
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.entry.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.entry.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.entry.Error(fmt.Sprintf(format, args...))
}
