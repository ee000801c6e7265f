package console

import (
	"fmt"
	"strings"

	"pmo-bot/models"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("12")).Padding(0, 1)
	factKeyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	statStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	youStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	botStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// RenderCard draws a card as a bordered box.
func RenderCard(c *models.Card, width int) string {
	lines := []string{titleStyle.Render(c.Title)}

	if c.Stats != nil && c.Kind == models.CardDashboard {
		lines = append(lines, "", lipgloss.JoinHorizontal(lipgloss.Top,
			statBlock("📅 Active Reminders", c.Stats.ActiveReminders),
			"    ",
			statBlock("📚 Active Trainings", c.Stats.ActiveTrainings),
		))
	}

	if c.Headline != "" {
		lines = append(lines, "", lipgloss.NewStyle().Bold(true).Render(c.Headline))
	}

	for _, s := range c.Sections {
		lines = append(lines, "", headingStyle.Render(s.Heading))
		for _, l := range s.Lines {
			lines = append(lines, "• "+l)
		}
	}

	if len(c.Facts) > 0 {
		keyWidth := 0
		for _, f := range c.Facts {
			keyWidth = max(keyWidth, lipgloss.Width(f.Title))
		}
		lines = append(lines, "")
		for _, f := range c.Facts {
			key := factKeyStyle.Width(keyWidth + 2).Render(f.Title + ":")
			lines = append(lines, key+" "+f.Value)
		}
	}

	style := cardStyle
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render(strings.Join(lines, "\n"))
}

func statBlock(label string, value int) string {
	return lipgloss.JoinVertical(lipgloss.Left, label, statStyle.Render(fmt.Sprintf("%d", value)))
}

// RenderMarkdown renders bot text. It falls back to the raw text if glamour
// fails.
func RenderMarkdown(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle("dark")}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

// RenderResponse draws every message of an engine response.
func RenderResponse(resp models.Response, width int) string {
	parts := make([]string, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		if msg.Card != nil {
			parts = append(parts, RenderCard(msg.Card, width))
			continue
		}
		text := RenderMarkdown(msg.Text, width)
		if resp.ErrorCode != "" {
			text = errorStyle.Render(msg.Text)
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n")
}
