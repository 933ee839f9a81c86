package keyvisual

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"

	"github.com/gekko3d/keyvisual/simulation"
)

// Logger is what Effect writes to. It extends the simulation's logger, so
// one value serves both.
type Logger interface {
	simulation.Logger
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
	DebugEnabled() bool
	SetDebug(enabled bool)
}

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// DefaultLogger writes debug and info lines to one writer and warnings and
// errors to another. Debug lines are dropped unless enabled.
type DefaultLogger struct {
	prefix string
	debug  atomic.Bool
	out    *log.Logger
	errOut *log.Logger
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	return NewWriterLogger(prefix, debug, os.Stdout, os.Stderr)
}

func NewWriterLogger(prefix string, debug bool, out, errOut io.Writer) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	l := &DefaultLogger{
		prefix: prefix,
		out:    log.New(out, "", flags),
		errOut: log.New(errOut, "", flags),
	}
	l.debug.Store(debug)
	return l
}

func (l *DefaultLogger) DebugEnabled() bool    { return l.debug.Load() }
func (l *DefaultLogger) SetDebug(enabled bool) { l.debug.Store(enabled) }

func (l *DefaultLogger) logf(level Level, format string, args ...any) {
	if level == LevelDebug && !l.DebugEnabled() {
		return
	}
	dst := l.out
	if level >= LevelWarn {
		dst = l.errOut
	}
	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		dst.Printf("[%s] %s: %s", l.prefix, level, msg)
		return
	}
	dst.Printf("%s: %s", level, msg)
}

func (l *DefaultLogger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *DefaultLogger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *DefaultLogger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *DefaultLogger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

type nopLogger struct{}

func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) DebugEnabled() bool    { return false }
func (nopLogger) SetDebug(bool)         {}
func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
