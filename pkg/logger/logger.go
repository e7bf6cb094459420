package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Leveled logger shared by the API server and the reconcile job.
// Package-level functions log without a component; For(name) returns a
// Scoped logger that prefixes every line with the component name.

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var (
	mu     sync.RWMutex
	logger *log.Logger = log.New(os.Stdout, "", 0)
	level  Level       = LevelInfo

	exit = os.Exit
)

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Unknown values fall back to info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	level = parseLevel(l)
}

// SetOutput redirects all log output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = log.New(w, "", 0)
}

func parseLevel(l string) Level {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}
	return "info"
}

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	return level.String()
}

func output(l Level, component, format string, v ...interface{}) {
	mu.RLock()
	enabled := l >= level || l == LevelFatal
	out := logger
	mu.RUnlock()
	if !enabled {
		return
	}
	var b strings.Builder
	b.WriteString(time.Now().Format(time.RFC3339))
	b.WriteString(" [")
	b.WriteString(strings.ToUpper(l.String()))
	b.WriteString("] ")
	if component != "" {
		b.WriteString(component)
		b.WriteString(": ")
	}
	b.WriteString(fmt.Sprintf(format, v...))
	out.Print(b.String())
}

func Debugf(format string, v ...interface{}) { output(LevelDebug, "", format, v...) }
func Infof(format string, v ...interface{})  { output(LevelInfo, "", format, v...) }
func Warnf(format string, v ...interface{})  { output(LevelWarn, "", format, v...) }
func Errorf(format string, v ...interface{}) { output(LevelError, "", format, v...) }

func Fatalf(format string, v ...interface{}) {
	output(LevelFatal, "", format, v...)
	exit(1)
}

func Info(v string) { Infof("%s", v) }
func Warn(v string) { Warnf("%s", v) }

// Scoped tags every line with a component name, e.g. "relay" or "mail".
type Scoped struct {
	component string
}

// For returns a logger for the named component.
func For(component string) *Scoped {
	return &Scoped{component: component}
}

func (s *Scoped) Debugf(format string, v ...interface{}) {
	output(LevelDebug, s.component, format, v...)
}

func (s *Scoped) Infof(format string, v ...interface{}) {
	output(LevelInfo, s.component, format, v...)
}

func (s *Scoped) Warnf(format string, v ...interface{}) {
	output(LevelWarn, s.component, format, v...)
}

func (s *Scoped) Errorf(format string, v ...interface{}) {
	output(LevelError, s.component, format, v...)
}
