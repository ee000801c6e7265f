package handlers

import (
	"strconv"
	"strings"
	"time"

	"pmo-bot/models"
)

const adaptiveCardContentType = "application/vnd.microsoft.card.adaptive"

// RenderActivities turns an engine response into outbound message activities,
// one per message, addressed from the bot to the conversation.
func RenderActivities(resp models.Response, bot models.ChannelAccount, conversationID, replyTo string) []models.Activity {
	now := time.Now().UTC()
	out := make([]models.Activity, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		a := models.Activity{
			Type:         models.ActivityMessage,
			Timestamp:    &now,
			From:         bot,
			Conversation: models.ConversationAccount{ID: conversationID},
			ReplyToID:    replyTo,
		}
		if msg.Card != nil {
			a.Attachments = []models.Attachment{{
				ContentType: adaptiveCardContentType,
				Content:     AdaptiveCard(msg.Card),
			}}
		} else {
			a.Text = msg.Text
		}
		out = append(out, a)
	}
	return out
}

// AdaptiveCard renders a card as an Adaptive Card 1.3 document.
func AdaptiveCard(c *models.Card) map[string]any {
	var body []map[string]any

	switch c.Kind {
	case models.CardDashboard:
		body = append(body, textBlock(c.Title, "Large", "Accent"))
		if c.Stats != nil {
			body = append(body, map[string]any{
				"type": "ColumnSet",
				"columns": []map[string]any{
					statColumn("📅 Active Reminders", c.Stats.ActiveReminders, "Accent"),
					statColumn("📚 Active Trainings", c.Stats.ActiveTrainings, "Good"),
				},
			})
		}
	case models.CardTraining:
		body = append(body, textBlock(c.Title, "Medium", "Good"))
	case models.CardHelp:
		body = append(body, textBlock(c.Title, "Large", "Accent"))
	default:
		body = append(body, textBlock(c.Title, "Medium", "Accent"))
	}

	if c.Headline != "" {
		body = append(body, map[string]any{
			"type":   "TextBlock",
			"text":   c.Headline,
			"weight": "Bolder",
			"wrap":   true,
		})
	}

	for _, s := range c.Sections {
		body = append(body, map[string]any{
			"type":   "TextBlock",
			"text":   s.Heading,
			"weight": "Bolder",
			"size":   "Medium",
		})
		body = append(body, map[string]any{
			"type": "TextBlock",
			"text": bulletList(s.Lines),
			"wrap": true,
		})
	}

	if len(c.Facts) > 0 {
		facts := make([]map[string]string, 0, len(c.Facts))
		for _, f := range c.Facts {
			facts = append(facts, map[string]string{"title": f.Title, "value": f.Value})
		}
		body = append(body, map[string]any{"type": "FactSet", "facts": facts})
	}

	return map[string]any{
		"type":    "AdaptiveCard",
		"version": "1.3",
		"body":    body,
	}
}

// CardMarkdown renders a card as markdown, for transcripts and text-only
// clients.
func CardMarkdown(c *models.Card) string {
	var b strings.Builder
	b.WriteString("**" + c.Title + "**\n")
	if c.Headline != "" {
		b.WriteString("\n" + c.Headline + "\n")
	}
	if c.Kind == models.CardDashboard && c.Stats != nil {
		b.WriteString("\n📅 Active Reminders: " + strconv.Itoa(c.Stats.ActiveReminders))
		b.WriteString("\n📚 Active Trainings: " + strconv.Itoa(c.Stats.ActiveTrainings) + "\n")
	}
	for _, s := range c.Sections {
		b.WriteString("\n" + s.Heading + "\n" + bulletList(s.Lines) + "\n")
	}
	if len(c.Facts) > 0 {
		b.WriteString("\n")
		for _, f := range c.Facts {
			b.WriteString("- **" + f.Title + ":** " + f.Value + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func textBlock(text, size, color string) map[string]any {
	return map[string]any{
		"type":   "TextBlock",
		"text":   text,
		"weight": "Bolder",
		"size":   size,
		"color":  color,
	}
}

func statColumn(label string, value int, color string) map[string]any {
	return map[string]any{
		"type":  "Column",
		"width": "stretch",
		"items": []map[string]any{
			{"type": "TextBlock", "text": label, "weight": "Bolder", "size": "Medium"},
			{"type": "TextBlock", "text": strconv.Itoa(value), "size": "ExtraLarge", "color": color},
		},
	}
}

func bulletList(lines []string) string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = "• " + l
	}
	return strings.Join(out, "\n")
}
