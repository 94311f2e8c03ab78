//go:build darwin
// +build darwin

package main

// defaultPlayerCommand uses afplay, which ships with macOS
func defaultPlayerCommand() []string {
	return []string{"afplay"}
}
