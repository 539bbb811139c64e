package chat

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
)

const (
	colorPrimary   = "#7C3AED"
	colorSecondary = "#10B981"
	colorMuted     = "#6B7280"
)

var (
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorPrimary)).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorSecondary)).Bold(true)
	hintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted)).Italic(true)
)

// Renderer formats assistant replies for a terminal.
type Renderer func(text string) string

// PlainRenderer leaves replies untouched.
func PlainRenderer(text string) string { return text }

// MarkdownRenderer renders replies with glamour, falling back to plain text.
func MarkdownRenderer(width int) Renderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return PlainRenderer
	}
	return func(text string) string {
		out, err := r.Render(text)
		if err != nil {
			return text
		}
		return strings.Trim(out, "\n")
	}
}
