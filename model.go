package main

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbletea"
)

// model is the Bubble Tea model for the recording detail screen. It is the
// framework adapter around Controller: Init activates the screen and quitting
// deactivates it.
type model struct {
	recording  Recording
	audioPath  string // local path for artwork lookup, empty for non-file locations
	controller *Controller

	color     string
	width     int
	height    int
	lastError error

	// Album artwork support
	artworkEncoded string // Kitty protocol-encoded artwork for display
	supportsKitty  bool   // Whether terminal supports Kitty graphics

	// Text scrolling state
	scrollOffset int // Current scroll position for text animation
	scrollPause  int // Pause counter at start/end of scroll
	scrollTick   int // Tick counter for slowing scroll speed

	// UI state
	showHelp bool // Whether to show help text
}

func newModel(rec Recording, controller *Controller, color string, supportsKitty bool) model {
	path, _ := localPath(rec.Location)
	return model{
		recording:     rec,
		audioPath:     path,
		controller:    controller,
		color:         color,
		supportsKitty: supportsKitty,
		scrollPause:   30,
	}
}

// UI refresh tick - re-renders status and advances scrolling
type tickMsg time.Time

// Duration resolution finished for this activation
type durationMsg struct {
	seconds float64
}

// Result of loading the recording's cover art
type artworkMsg struct {
	color   string
	encoded string
	err     error
}

// Schedule next UI refresh tick
func tickCmd() tea.Cmd {
	cfg := config.Get()
	return tea.Tick(time.Duration(cfg.Timing.UIRefreshMs)*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// activateCmd resolves the duration off the UI loop. The controller drops the
// result itself if the screen was deactivated meanwhile.
func (m model) activateCmd() tea.Cmd {
	controller := m.controller
	rec := m.recording
	return func() tea.Msg {
		cfg := config.Get()
		ctx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Timing.ProbeTimeoutMs)*time.Millisecond)
		defer cancel()
		return durationMsg{seconds: controller.Activate(ctx, rec)}
	}
}

// Load artwork in background (doesn't block UI)
func (m model) loadArtworkCmd() tea.Cmd {
	path := m.audioPath
	encode := m.supportsKitty
	return func() tea.Msg {
		cfg := config.Get()
		if path == "" || (!cfg.Artwork.Enabled && cfg.UI.ColorMode != "auto") {
			return artworkMsg{}
		}

		var msg artworkMsg
		func() {
			defer func() {
				if r := recover(); r != nil {
					// Silently ignore artwork processing panics
					msg = artworkMsg{}
				}
			}()
			color, encoded, err := processArtwork(path, cfg.UI.ColorMode == "auto", encode && cfg.Artwork.Enabled, cfg)
			msg = artworkMsg{color: color, encoded: encoded, err: err}
		}()
		return msg
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.activateCmd(),
		m.loadArtworkCmd(),
		watchConfigCmd(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if err := m.controller.Deactivate(); err != nil {
				logger.Error().Err(err).Msg("failed to stop playback on close")
			}
			return m, tea.Quit
		// Playback commands run on the update loop so none can land after quit
		case " ", "p":
			m.lastError = m.controller.TogglePlayback(m.recording)
			return m, nil
		case "b":
			m.lastError = m.controller.SeekBackward(m.recording)
			return m, nil
		case "f":
			m.lastError = m.controller.SeekForward(m.recording)
			return m, nil
		case "a":
			// Toggle artwork on/off
			cfg := config.Get()
			cfg.Artwork.Enabled = !cfg.Artwork.Enabled
			config.Set(cfg)
			if !cfg.Artwork.Enabled {
				m.artworkEncoded = ""
				return m, nil
			}
			if m.supportsKitty {
				return m, m.loadArtworkCmd()
			}
			return m, nil
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case configReloadMsg:
		cfg := config.Get()
		if cfg.UI.ColorMode == "manual" {
			m.color = cfg.UI.Color
		}
		if !cfg.Artwork.Enabled {
			m.artworkEncoded = ""
		} else if m.artworkEncoded == "" && m.supportsKitty {
			return m, tea.Batch(watchConfigCmd(), m.loadArtworkCmd())
		}
		return m, watchConfigCmd()

	case tickMsg:
		m.advanceScroll()
		return m, tickCmd()

	case durationMsg:
		// View reads the controller directly; the message only forces a redraw
		return m, nil

	case artworkMsg:
		if msg.err != nil {
			logger.Debug().Err(msg.err).Str("path", m.audioPath).Msg("no artwork")
			return m, nil
		}
		cfg := config.Get()
		if cfg.UI.ColorMode == "auto" && msg.color != "" {
			m.color = msg.color
		}
		if msg.encoded != "" && cfg.Artwork.Enabled {
			m.artworkEncoded = msg.encoded
		}
		return m, nil
	}

	return m, nil
}

// advanceScroll moves the name marquee one step every third tick,
// pausing for 3 seconds each time it loops
func (m *model) advanceScroll() {
	m.scrollTick++
	if m.scrollPause > 0 {
		m.scrollPause--
		return
	}
	if m.scrollTick%3 != 0 {
		return
	}

	m.scrollOffset++
	longest := len([]rune(m.recording.Name))
	if longest > m.maxTextLength() {
		if m.scrollOffset >= longest+len([]rune(scrollSeparator)) {
			m.scrollOffset = 0
			m.scrollPause = 30
		}
	}
}

// maxTextLength is narrower when artwork takes up the left side
func (m model) maxTextLength() int {
	cfg := config.Get()
	if m.supportsKitty && cfg.Artwork.Enabled && m.artworkEncoded != "" {
		return cfg.Text.MaxLengthWithArt
	}
	return cfg.Text.MaxLengthNoArt
}
