package commands

import (
	"strconv"

	"pmo-bot/models"
)

const scheduledLayout = "Jan 2, 2006 3:04 PM MST"

func reminderCard(r models.Reminder) *models.Card {
	return &models.Card{
		Kind:     models.CardReminder,
		Title:    "📅 New Reminder",
		Headline: r.Message,
		Facts: []models.Fact{
			{Title: "Scheduled", Value: r.ScheduledAt.Format(scheduledLayout)},
			{Title: "Created by", Value: r.CreatedBy},
			{Title: "ID", Value: r.ID},
		},
	}
}

func trainingCard(t models.Training) *models.Card {
	return &models.Card{
		Kind:     models.CardTraining,
		Title:    "📚 Training Added",
		Headline: t.Title,
		Facts: []models.Fact{
			{Title: "Category", Value: t.Category},
			{Title: "Due Date", Value: t.DueDate},
			{Title: "Created by", Value: t.CreatedBy},
			{Title: "ID", Value: t.ID},
		},
	}
}

func dashboardCard(stats models.Stats) *models.Card {
	return &models.Card{
		Kind:  models.CardDashboard,
		Title: "📊 PMO Team Dashboard",
		Facts: []models.Fact{
			{Title: "Total Acknowledgments", Value: strconv.Itoa(stats.TotalAcknowledgments)},
			{Title: "Acknowledgments Recorded", Value: strconv.Itoa(stats.AcknowledgmentsRecorded)},
			{Title: "Pending Items", Value: strconv.Itoa(stats.PendingItems)},
			{Title: "Team Efficiency", Value: strconv.Itoa(stats.Efficiency) + "%"},
		},
		Stats: &stats,
	}
}

var helpSections = []models.Section{
	{
		Heading: "**Available Commands:**",
		Lines: []string{
			"`/remind [time] [message]` - Create reminder",
			"`/ack [id]` - Acknowledge reminder",
			"`/training [title] [category] [date]` - Add training",
			"`/status` - Show dashboard",
			"`/help` - Show this help",
		},
	},
	{
		Heading: "**Examples:**",
		Lines: []string{
			"`/remind 2h Submit weekly reports`",
			"`/ack abc123`",
			"`/training \"Data Security\" compliance 2024-07-15`",
			"`help` or `status` (natural language)",
		},
	},
}

func helpCard() *models.Card {
	sections := make([]models.Section, len(helpSections))
	for i, s := range helpSections {
		sections[i] = models.Section{Heading: s.Heading, Lines: append([]string(nil), s.Lines...)}
	}
	return &models.Card{
		Kind:     models.CardHelp,
		Title:    "🤖 PMO Assistant - Help Guide",
		Sections: sections,
	}
}
