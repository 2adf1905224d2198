// Package log contains leveled logging used across addrcache.
// Logger keeps the bark-like interface, implementation is backed by logrus.
package log

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Logger interface is subset of github.com/uber-common/bark.Logger methods.
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
	Panic(args ...interface{})
	Panicf(format string, args ...interface{})
	WithFields(keyValues LogFields) Logger
	Fields() Fields
}

type LogFields interface {
	Fields() map[string]interface{}
}

type Fields map[string]interface{}

func (f Fields) Fields() map[string]interface{} { return f }

type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

var levelNames = [...]string{
	DebugLevel: "debug",
	InfoLevel:  "info",
	WarnLevel:  "warn",
	ErrorLevel: "error",
	FatalLevel: "fatal",
}

func (l Level) String() string {
	if l < DebugLevel || l > FatalLevel {
		return "unknown"
	}
	return levelNames[l]
}

var ErrInvalidLevel = errors.New("invalid level")

// LevelFromString parses level name. Case is ignored.
func LevelFromString(s string) (Level, error) {
	name := strings.ToLower(s)
	for l, n := range levelNames {
		if n == name {
			return Level(l), nil
		}
	}
	return InfoLevel, errors.Wrapf(ErrInvalidLevel, "%q", s)
}

func (l Level) logrus() logrus.Level {
	switch l {
	case DebugLevel:
		return logrus.DebugLevel
	case InfoLevel:
		return logrus.InfoLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	}
	return logrus.FatalLevel
}

// NewLogger creates text logger writing to w messages with level l and higher.
func NewLogger(l Level, w io.Writer) Logger {
	std := logrus.New()
	std.SetOutput(w)
	std.SetLevel(l.logrus())
	std.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000000",
		DisableColors:   true,
	})
	return FromLogrus(std)
}

// FromLogrus wraps already configured logrus logger.
func FromLogrus(l logrus.FieldLogger) Logger {
	return &logger{l.WithFields(nil)}
}

// NewNop returns logger that drops everything.
func NewNop() Logger {
	std := logrus.New()
	std.SetOutput(io.Discard)
	std.SetLevel(logrus.PanicLevel)
	return FromLogrus(std)
}

type logger struct {
	entry *logrus.Entry
}

func (l *logger) Fields() Fields {
	res := make(Fields, len(l.entry.Data))
	for k, v := range l.entry.Data {
		res[k] = v
	}
	return res
}

func (l *logger) WithFields(keyValues LogFields) Logger {
	return &logger{l.entry.WithFields(logrus.Fields(keyValues.Fields()))}
}

func (l *logger) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *logger) Info(args ...interface{})                  { l.entry.Info(args...) }
func (l *logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *logger) Warn(args ...interface{})                  { l.entry.Warn(args...) }
func (l *logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *logger) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l *logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l *logger) Fatal(args ...interface{})                 { l.entry.Fatal(args...) }
func (l *logger) Fatalf(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }
func (l *logger) Panic(args ...interface{})                 { l.entry.Panic(args...) }
func (l *logger) Panicf(format string, args ...interface{}) { l.entry.Panicf(format, args...) }
