package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

// RenderMarkdown renders markdown for the terminal, wrapped at width.
func RenderMarkdown(content string, width int) (string, error) {
	if width <= 0 {
		width = DefaultWidth
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(markdownStyle(lipgloss.HasDarkBackground())),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	out, err := r.Render(content)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}

// markdownStyle starts from glamour's palette for the terminal background
// and paints headings, inline code and links with the configured accent.
func markdownStyle(dark bool) ansi.StyleConfig {
	style := styles.LightStyleConfig
	if dark {
		style = styles.DarkStyleConfig
	}
	margin := uint(2)
	style.Document.Margin = &margin

	color, ok := AccentColor()
	if !ok {
		return style
	}
	style.Heading.Color = &color
	style.H1.Color = &color
	style.H1.BackgroundColor = nil
	style.Code.Color = &color
	style.Link.Color = &color
	style.LinkText.Color = &color
	return style
}
