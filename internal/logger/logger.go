// Package logger provides levelled console logging for searchlift.
// Debug, Info and Section output only appears with --verbose. Warnings and
// errors always print, so skipped items stay visible in quiet runs.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

var prefixes = [...]string{
	levelDebug: "[DEBUG] ",
	levelInfo:  "[INFO] ",
	levelWarn:  "[WARN] ",
	levelError: "[ERROR] ",
}

var state = struct {
	sync.Mutex
	verbose bool
	out     io.Writer
}{out: os.Stderr}

// SetVerbose turns Debug, Info and Section output on or off.
func SetVerbose(v bool) {
	state.Lock()
	state.verbose = v
	state.Unlock()
}

// IsVerbose reports whether verbose output is on.
func IsVerbose() bool {
	state.Lock()
	defer state.Unlock()
	return state.verbose
}

// SetOutput redirects log output. The default is os.Stderr.
func SetOutput(w io.Writer) {
	state.Lock()
	state.out = w
	state.Unlock()
}

// Section prints a "=== name ===" header.
func Section(name string) {
	state.Lock()
	defer state.Unlock()
	if state.verbose {
		fmt.Fprintf(state.out, "\n=== %s ===\n", name)
	}
}

// Debug and Info print only in verbose mode. Warn and Error always print.
func Debug(format string, args ...any) { logf(levelDebug, format, args...) }
func Info(format string, args ...any)  { logf(levelInfo, format, args...) }
func Warn(format string, args ...any)  { logf(levelWarn, format, args...) }
func Error(format string, args ...any) { logf(levelError, format, args...) }

func logf(l level, format string, args ...any) {
	state.Lock()
	defer state.Unlock()
	if l < levelWarn && !state.verbose {
		return
	}
	fmt.Fprintf(state.out, prefixes[l]+format+"\n", args...)
}
