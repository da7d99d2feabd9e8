// Package term detects whether output goes to an interactive terminal.
package term

import "os"

// ColorEnabled reports whether ANSI colors should be written to f. The
// NO_COLOR convention (https://no-color.org) always wins.
func ColorEnabled(f *os.File) bool {
	if f == nil {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return IsTerminal(f.Fd())
}
