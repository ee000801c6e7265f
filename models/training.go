package models

import "time"

// Training is a scheduled course or session. DueDate is kept exactly as typed
// and is never parsed as a calendar date.
type Training struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	DueDate   string    `json:"due_date"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	Completed []string  `json:"completed"`
}

func (t *Training) HasCompleted(name string) bool {
	for _, n := range t.Completed {
		if n == name {
			return true
		}
	}
	return false
}

// Counters are the cumulative totals kept by the entity store. They only grow.
type Counters struct {
	RemindersCreated        int `json:"reminders_created"`
	TrainingsCreated        int `json:"trainings_created"`
	AcknowledgmentsRecorded int `json:"acknowledgments_recorded"`
}
