package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m model) View() string {
	// Get config snapshot for rendering
	cfg := config.Get()

	// Use lipgloss.Color to validate the color input
	color := lipgloss.Color(m.color)
	highlight := lipgloss.NewStyle().Foreground(color)

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(1, 2)

	labelStyle := lipgloss.NewStyle().Foreground(color).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	var textContent strings.Builder
	textContent.WriteString(highlight.Render("󰍬 Recording") + "\n\n")

	addLine := func(label, value string) {
		if value != "" {
			textContent.WriteString(
				fmt.Sprintf("%s %s\n",
					labelStyle.Render(label),
					value,
				),
			)
		}
	}

	addLine("󰎈 ", scrollText(m.recording.Name, m.maxTextLength(), m.scrollOffset))
	addLine("󰃭 ", formatCreated(m.recording.CreatedAt, cfg.UI.DateFormat))

	// Duration stays as a placeholder until this activation has resolved it
	duration := mutedStyle.Render("--:--")
	if m.controller.Resolved() {
		duration = formatDuration(m.controller.Duration())
	}
	addLine("󰔛 ", duration)

	// Status always comes from the playback service, never from cached state
	if m.controller.IsPlaying() {
		addLine("󰐊 ", "Playing")
	} else {
		addLine("󰓛 ", "Stopped")
	}

	if m.lastError != nil {
		textContent.WriteString("\n" + errorStyle.Render("Error: "+m.lastError.Error()))
	}

	// Combine artwork and text content
	var mainContent string
	if m.artworkEncoded != "" && m.supportsKitty && cfg.Artwork.Enabled {
		// Add padding to the left of text to make room for the image
		paddedText := lipgloss.NewStyle().
			PaddingLeft(cfg.Artwork.Padding).
			Render(textContent.String())
		mainContent = m.artworkEncoded + paddedText
	} else if m.supportsKitty {
		// Clear any image left over from before artwork was disabled
		mainContent = kittyDeleteAll + textContent.String()
	} else {
		mainContent = textContent.String()
	}

	contentStr := borderStyle.
		Width(cfg.UI.MaxWidth).
		Render(mainContent)

	// Build help text - either full help or hint to press ?
	var helpText string
	if m.showHelp {
		helpText = lipgloss.NewStyle().
			Width(cfg.UI.MaxWidth).
			Align(lipgloss.Center).
			Render(lipgloss.JoinHorizontal(
				lipgloss.Center,
				"Play/Stop: "+highlight.Render("space"),
				"  Restart: "+highlight.Render("b"),
				"  Toggle Art: "+highlight.Render("a"),
				"  Quit: "+highlight.Render("q"),
				"  Hide: "+highlight.Render("?"),
			))
	} else {
		helpText = mutedStyle.Render("Press ? for help")
	}

	fullUI := lipgloss.JoinVertical(lipgloss.Center, contentStr, "\n"+helpText)

	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		fullUI,
	)
}
