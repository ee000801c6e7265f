package commands

// Replies is the text catalog the engine answers with. Templates go through
// Interpolate, so they may use {{user.name}}, {{verb}} and reply-specific
// values such as {{id}} or {{message}}.
type Replies struct {
	Generic []string

	Welcome        string
	ReminderHint   string
	TrainingHint   string
	UnknownCommand string
	Suggestion     string

	RemindUsage   string
	AckUsage      string
	TrainingUsage string
	InvalidTime   string

	ReminderCreated  string
	ReminderNotFound string
	Acknowledged     string
	TrainingAdded    string

	RecentRemindersHeader string
	RecentReminderLine    string

	Apology string
}

func DefaultReplies() Replies {
	return Replies{
		Generic: []string{
			"I'm here to help with PMO tasks! Type 'help' to see what I can do.",
			"Need assistance? I can help with reminders, training, and team management.",
			"Try '/status' to see your team dashboard or '/help' for commands.",
		},

		Welcome: "👋 Welcome to PMO Assistant!\n\nI can help you with:\n" +
			"• Setting up team reminders\n• Tracking acknowledgments\n" +
			"• Managing training schedules\n• Monitoring team status\n\n" +
			"Type 'help' to get started!",
		ReminderHint: "To create a reminder, use: `/remind [time] [message]`\n" +
			"Example: `/remind 1h Team meeting in conference room`",
		TrainingHint: "To add training, use: `/training [title] [category] [due-date]`\n" +
			"Example: `/training 'Compliance Training' mandatory 2024-07-15`",
		UnknownCommand: "Unknown command: {{verb}}. Type '/help' for available commands.",
		Suggestion:     "Did you mean {{suggestion}}?",

		RemindUsage:   "Usage: /remind [time] [message]\nExample: /remind 1h Submit weekly reports",
		AckUsage:      "Usage: /ack [reminder-id]",
		TrainingUsage: "Usage: /training [title] [category] [due-date]\nExample: /training \"Data Privacy\" compliance 2024-07-15",
		InvalidTime:   "Invalid time format. Use: 1h, 30m, 2d, etc.",

		ReminderCreated:  "✅ Reminder created! ID: {{id}}",
		ReminderNotFound: "❌ Reminder not found. Use /status to see active reminders.",
		Acknowledged:     "✅ {{user.name}} acknowledged: \"{{message}}\"",
		TrainingAdded:    "✅ Training added! ID: {{id}}",

		RecentRemindersHeader: "📋 **Recent Reminders:**",
		RecentReminderLine:    "• {{message}} (ID: {{id}}) - {{count}} acknowledged",

		Apology: "Sorry, I encountered an error. Please try again.",
	}
}
