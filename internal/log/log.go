package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"
)

var mu sync.Mutex
var wr io.Writer
var tty bool

// LogJSON sends every message to the zap logger instead of the plain writer.
var LogJSON = false
var logger *zap.SugaredLogger

// Level is the log level
// 0: silent  - do not log
// 1: normal  - show everything except debug and warn
// 2: verbose - show everything except debug
// 3: very verbose - show everything
var Level = 1

type tag struct {
	name  string
	color string
	level int
	zap   func(args ...interface{})
}

var (
	tagInfo  = tag{"INFO", "\x1b[36m", 1, func(a ...interface{}) { logger.Info(a...) }}
	tagHTTP  = tag{"HTTP", "\x1b[1m\x1b[30m", 1, func(a ...interface{}) { logger.Info(a...) }}
	tagError = tag{"ERRO", "\x1b[1m\x1b[31m", 1, func(a ...interface{}) { logger.Error(a...) }}
	tagWarn  = tag{"WARN", "\x1b[33m", 2, func(a ...interface{}) { logger.Warn(a...) }}
	tagDebug = tag{"DEBU", "\x1b[35m", 3, func(a ...interface{}) { logger.Debug(a...) }}
	tagFatal = tag{"FATA", "\x1b[31m", 0, func(a ...interface{}) { logger.Error(a...) }}
)

// SetOutput sets the output of the logger
func SetOutput(w io.Writer) {
	f, ok := w.(*os.File)
	mu.Lock()
	tty = ok && term.IsTerminal(int(f.Fd()))
	wr = w
	mu.Unlock()
}

// Output returns the output writer
func Output() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return wr
}

// Build a zap logger from the default production config, or from a zap
// json config.
func Build(c string) error {
	zcfg := zap.NewProductionConfig()
	if c != "" {
		zcfg = zap.Config{}
		if err := json.Unmarshal([]byte(c), &zcfg); err != nil {
			return err
		}
	}
	// filtering is done with our own levels
	zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	// the caller would always be this file
	zcfg.DisableCaller = true
	core, err := zcfg.Build()
	if err != nil {
		return err
	}
	logger = core.Sugar()
	return nil
}

// Set a zap logger
func Set(sl *zap.SugaredLogger) {
	logger = sl
}

// Get a zap logger
func Get() *zap.SugaredLogger {
	return logger
}

// Sync flushes the zap logger, if any.
func Sync() {
	if logger != nil {
		logger.Sync()
	}
}

func init() {
	SetOutput(os.Stderr)
}

func emit(t tag, formatted bool, format string, args ...interface{}) {
	if Level < t.level {
		return
	}
	var msg string
	if formatted {
		msg = fmt.Sprintf(format, args...)
	} else {
		msg = fmt.Sprint(args...)
	}
	if LogJSON && logger != nil {
		t.zap(msg)
		return
	}
	mu.Lock()
	defer mu.Unlock()
	s := []byte(time.Now().Format("2006/01/02 15:04:05"))
	s = append(s, ' ')
	if tty {
		s = append(s, t.color...)
	}
	s = append(s, '[')
	s = append(s, t.name...)
	s = append(s, ']')
	if tty {
		s = append(s, "\x1b[0m"...)
	}
	s = append(s, ' ')
	s = append(s, msg...)
	if len(s) == 0 || s[len(s)-1] != '\n' {
		s = append(s, '\n')
	}
	wr.Write(s)
}

var emptyFormat string

// Infof ...
func Infof(format string, args ...interface{}) {
	emit(tagInfo, true, format, args...)
}

// Info ...
func Info(args ...interface{}) {
	emit(tagInfo, false, emptyFormat, args...)
}

// HTTPf ...
func HTTPf(format string, args ...interface{}) {
	emit(tagHTTP, true, format, args...)
}

// HTTP ...
func HTTP(args ...interface{}) {
	emit(tagHTTP, false, emptyFormat, args...)
}

// Errorf ...
func Errorf(format string, args ...interface{}) {
	emit(tagError, true, format, args...)
}

// Error ..
func Error(args ...interface{}) {
	emit(tagError, false, emptyFormat, args...)
}

// Warnf ...
func Warnf(format string, args ...interface{}) {
	emit(tagWarn, true, format, args...)
}

// Warn ...
func Warn(args ...interface{}) {
	emit(tagWarn, false, emptyFormat, args...)
}

// Debugf ...
func Debugf(format string, args ...interface{}) {
	emit(tagDebug, true, format, args...)
}

// Debug ...
func Debug(args ...interface{}) {
	emit(tagDebug, false, emptyFormat, args...)
}

// Printf ...
func Printf(format string, args ...interface{}) {
	Infof(format, args...)
}

// Print ...
func Print(args ...interface{}) {
	Info(args...)
}

// Fatalf ...
func Fatalf(format string, args ...interface{}) {
	emit(tagFatal, true, format, args...)
	Sync()
	os.Exit(1)
}

// Fatal ...
func Fatal(args ...interface{}) {
	emit(tagFatal, false, emptyFormat, args...)
	Sync()
	os.Exit(1)
}
