package models

import "time"

type Reminder struct {
	ID           string    `json:"id"`
	Message      string    `json:"message"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	Acknowledged []string  `json:"acknowledged"`
}

// AckCount is the number of distinct participants who acknowledged the reminder.
func (r *Reminder) AckCount() int {
	return len(r.Acknowledged)
}

// HasAcknowledged reports whether name is already in the acknowledger list.
func (r *Reminder) HasAcknowledged(name string) bool {
	for _, n := range r.Acknowledged {
		if n == name {
			return true
		}
	}
	return false
}

// Digest is the short form used by the recent-reminders listing.
func (r *Reminder) Digest() ReminderDigest {
	return ReminderDigest{
		ID:           r.ID,
		Message:      r.Message,
		Acknowledged: r.AckCount(),
	}
}

type ReminderDigest struct {
	ID           string `json:"id"`
	Message      string `json:"message"`
	Acknowledged int    `json:"acknowledged"`
}

const (
	WSTypeReminderDue = "reminder_due"
)

type ReminderDuePayload struct {
	Reminder Reminder `json:"reminder"`
	Text     string   `json:"text"`
}
