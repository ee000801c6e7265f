package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"pmo-bot/commands"
	"pmo-bot/models"
	"pmo-bot/store"
)

// ReminderHandler serves read-only views of the entity store. All changes go
// through chat commands.
type ReminderHandler struct {
	entities *store.Entities
}

func NewReminderHandler(e *store.Entities) *ReminderHandler {
	return &ReminderHandler{entities: e}
}

func (h *ReminderHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.entities.Reminders())
}

func (h *ReminderHandler) ListTrainings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.entities.Trainings())
}

func (h *ReminderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, commands.ComputeStats(h.entities.Snapshot()))
}

// Announcer tells connected clients when a reminder's scheduled time has
// passed. Each reminder is announced once per process; the store is never
// modified.
type Announcer struct {
	entities *store.Entities
	hub      *Hub
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	announced map[string]bool
}

func NewAnnouncer(e *store.Entities, hub *Hub, interval time.Duration) *Announcer {
	return &Announcer{
		entities:  e,
		hub:       hub,
		interval:  interval,
		now:       time.Now,
		announced: make(map[string]bool),
	}
}

// Start runs the check loop until ctx is done.
func (a *Announcer) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()

		log.Printf("[REMINDERS] announcer started (interval %s)", a.interval)
		for {
			select {
			case <-ctx.Done():
				log.Printf("[REMINDERS] announcer stopped")
				return
			case <-ticker.C:
				a.CheckDue()
			}
		}
	}()
}

// CheckDue broadcasts every due reminder not announced yet and returns them.
func (a *Announcer) CheckDue() []models.Reminder {
	now := a.now()

	a.mu.Lock()
	var due []models.Reminder
	for _, r := range a.entities.Reminders() {
		if a.announced[r.ID] || r.ScheduledAt.After(now) {
			continue
		}
		a.announced[r.ID] = true
		due = append(due, r)
	}
	a.mu.Unlock()

	for _, r := range due {
		ok := a.hub.BroadcastAll(models.WSMessage{
			Type: models.WSTypeReminderDue,
			Payload: models.ReminderDuePayload{
				Reminder: r,
				Text:     "🔔 **Reminder:** " + r.Message,
			},
		})
		if !ok {
			log.Printf("[REMINDERS] hub stopped, reminder %s not announced", r.ID)
			continue
		}
		log.Printf("[REMINDERS] reminder %s due (%d acknowledged)", r.ID, r.AckCount())
	}
	return due
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[BOT] encode response: %v", err)
	}
}
