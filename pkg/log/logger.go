// Package log wraps go-logging with per-module leveled loggers shared by the
// renderer packages and the command line front end.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/op/go-logging"
)

// Level is the minimum severity a logger emits
type Level logging.Level

// The levels that can be passed to SetLevel, from most to least verbose.
const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

var format = logging.MustStringFormatter(
	`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
)

var (
	mu             sync.Mutex
	leveledBackend logging.LeveledBackend
	currentLevel   = Notice
)

// Logger is the subset of the go-logging API used by this module
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Noticef(format string, v ...interface{})
	Warningf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// New returns the logger for a module name such as "bvh" or "renderer"
func New(module string) Logger {
	return logging.MustGetLogger(module)
}

// SetSink redirects all module loggers to w, keeping the current level
func SetSink(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	backend := logging.NewBackendFormatter(logging.NewLogBackend(w, "", 0), format)
	leveledBackend = logging.AddModuleLevel(backend)
	leveledBackend.SetLevel(toLogging(currentLevel), "")
	logging.SetBackend(leveledBackend)
}

// SetLevel changes the verbosity of every module logger
func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()

	currentLevel = level
	leveledBackend.SetLevel(toLogging(level), "")
}

// Verbosity maps the -v / -vv command line switches to a level
func Verbosity(verbose, veryVerbose bool) Level {
	switch {
	case veryVerbose:
		return Debug
	case verbose:
		return Info
	default:
		return Notice
	}
}

// ParseLevel converts a level name such as "warning" into a Level
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return Debug, nil
	case "info":
		return Info, nil
	case "notice":
		return Notice, nil
	case "warning", "warn":
		return Warning, nil
	case "error":
		return Error, nil
	}
	return Notice, fmt.Errorf("unknown log level %q", name)
}

func toLogging(level Level) logging.Level {
	switch level {
	case Debug:
		return logging.DEBUG
	case Info:
		return logging.INFO
	case Warning:
		return logging.WARNING
	case Error:
		return logging.ERROR
	default:
		return logging.NOTICE
	}
}

func init() {
	SetSink(os.Stderr)
}
