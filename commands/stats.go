package commands

import (
	"math"

	"pmo-bot/models"
	"pmo-bot/store"
)

const recentReminderLimit = 3

// ComputeStats derives the dashboard metrics from a snapshot. It does not
// touch the store.
func ComputeStats(snap store.Snapshot) models.Stats {
	acks := 0
	for i := range snap.Reminders {
		acks += snap.Reminders[i].AckCount()
	}

	active := len(snap.Reminders)
	return models.Stats{
		ActiveReminders:         active,
		ActiveTrainings:         len(snap.Trainings),
		TotalAcknowledgments:    acks,
		AcknowledgmentsRecorded: snap.Counters.AcknowledgmentsRecorded,
		RemindersCreated:        snap.Counters.RemindersCreated,
		TrainingsCreated:        snap.Counters.TrainingsCreated,
		PendingItems:            active + len(snap.Trainings),
		Efficiency:              Efficiency(acks, active),
	}
}

// Efficiency is round(100 * acks / reminders), or 100 when there are no
// reminders. Halves round away from zero.
func Efficiency(acks, reminders int) int {
	if reminders <= 0 {
		return 100
	}
	return int(math.Round(float64(100*acks) / float64(reminders)))
}

// RecentReminders returns digests of the last n reminders, oldest first.
func RecentReminders(reminders []models.Reminder, n int) []models.ReminderDigest {
	if n <= 0 || len(reminders) == 0 {
		return nil
	}
	start := len(reminders) - n
	if start < 0 {
		start = 0
	}
	out := make([]models.ReminderDigest, 0, len(reminders)-start)
	for i := start; i < len(reminders); i++ {
		out = append(out, reminders[i].Digest())
	}
	return out
}
