package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbletea"
)

var (
	colorFlag         string
	noArtworkFlag     bool
	nameFlag          string
	knownDurationFlag string
	configFlag        string
)

func init() {
	flag.StringVar(&colorFlag, "color", defaultColor, "Set the desired color (name or hex)")
	flag.StringVar(&colorFlag, "c", defaultColor, "Set the desired color (shorthand)")
	flag.BoolVar(&noArtworkFlag, "no-artwork", false, "Disable cover artwork display")
	flag.StringVar(&nameFlag, "name", "", "Display name for the recording (defaults to the file name)")
	flag.StringVar(&knownDurationFlag, "known-duration", "", "Stored duration in seconds, shown if the file cannot be read")
	flag.StringVar(&configFlag, "config", "", "Path to a config file")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <audio-file>\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
	}
}

// parseKnownDuration returns nil for an empty flag
func parseKnownDuration(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid --known-duration %q: %w", s, err)
	}
	if d < 0 {
		return nil, fmt.Errorf("invalid --known-duration %q: must not be negative", s)
	}
	return &d, nil
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	initConfig(configFlag)
	cfg := config.Get()
	initLogging(cfg.Log.Level, cfg.Log.File)

	known, err := parseKnownDuration(knownDurationFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	rec, err := newRecording(flag.Arg(0), nameFlag, known)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	controller := NewController(
		NewPlaybackService(cfg.Player.Command),
		NewDurationProber(),
		time.Duration(cfg.Timing.RestartDelayMs)*time.Millisecond,
	)

	logger.Info().
		Str("name", rec.Name).
		Str("location", rec.Location).
		Msg("opening recording")

	initialModel := newModel(rec, controller, cfg.UI.Color, supportsKittyGraphics())

	_, runErr := tea.NewProgram(initialModel, tea.WithAltScreen()).Run()

	// Covers exits that bypass the quit key, e.g. a program error
	if err := controller.Deactivate(); err != nil {
		logger.Error().Err(err).Msg("failed to stop playback on exit")
	}

	if runErr != nil {
		fmt.Printf("Error: %v", runErr)
		os.Exit(1)
	}
}
