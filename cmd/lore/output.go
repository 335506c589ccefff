package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// outputJSON writes v to stdout as indented JSON.
func outputJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		FatalError("encoding JSON: %v", err)
	}
}

// FatalError prints an error in the standard format and exits.
func FatalError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	exit(1)
}

// osExit is os.Exit; tests replace it.
var osExit = os.Exit

// exit closes the log file before terminating. os.Exit skips cobra's
// post-run hooks, so every early exit goes through here.
func exit(code int) {
	closeLog()
	osExit(code)
}

// closeLog closes the rotating log file if one is open.
func closeLog() {
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
}
