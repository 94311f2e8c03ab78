//go:build linux
// +build linux

package main

// defaultPlayerCommand uses ffplay without a video window; it exits when the file ends
func defaultPlayerCommand() []string {
	return []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"}
}
