package store

import (
	"errors"
	"fmt"
	"pmo-bot/models"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("store: not found")
	ErrIDExhausted  = errors.New("store: could not allocate a unique id")
	ErrEmptyMessage = errors.New("store: reminder message is required")
	ErrEmptyTitle   = errors.New("store: training title is required")
)

const (
	defaultIDLength = 6
	maxIDLength     = 32
	idAttempts      = 16
)

// IDSource produces candidate identifiers of the requested length.
type IDSource func(length int) string

// RandomID takes the first length hex digits of a random UUID.
func RandomID(length int) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	if length > len(hex) {
		length = len(hex)
	}
	return hex[:length]
}

// Entities is the in-memory home of reminders and trainings. All access goes
// through one mutex. Sequences are append-only and counters only grow.
type Entities struct {
	mu        sync.RWMutex
	reminders []*models.Reminder
	trainings []*models.Training
	ids       map[string]struct{}
	counters  models.Counters
	newID     IDSource
}

type EntitiesOption func(*Entities)

// WithIDSource replaces the random id generator, mostly for tests.
func WithIDSource(src IDSource) EntitiesOption {
	return func(e *Entities) { e.newID = src }
}

func NewEntities(opts ...EntitiesOption) *Entities {
	e := &Entities{
		ids:   make(map[string]struct{}),
		newID: RandomID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// allocateID must be called with mu held.
func (e *Entities) allocateID() (string, error) {
	for length := defaultIDLength; length <= maxIDLength; length++ {
		for i := 0; i < idAttempts; i++ {
			id := strings.ToLower(e.newID(length))
			if id == "" {
				continue
			}
			if _, taken := e.ids[id]; taken {
				continue
			}
			e.ids[id] = struct{}{}
			return id, nil
		}
	}
	return "", ErrIDExhausted
}

func (e *Entities) AddReminder(message, createdBy string, scheduledAt, now time.Time) (models.Reminder, error) {
	if strings.TrimSpace(message) == "" {
		return models.Reminder{}, ErrEmptyMessage
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id, err := e.allocateID()
	if err != nil {
		return models.Reminder{}, fmt.Errorf("add reminder: %w", err)
	}
	r := &models.Reminder{
		ID:           id,
		Message:      message,
		ScheduledAt:  scheduledAt,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		Acknowledged: []string{},
	}
	e.reminders = append(e.reminders, r)
	e.counters.RemindersCreated++
	return copyReminder(r), nil
}

// Acknowledge records name against the reminder. The returned bool is false
// when name had already acknowledged it, in which case nothing changes.
func (e *Entities) Acknowledge(id, name string) (models.Reminder, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := e.findReminder(id)
	if r == nil {
		return models.Reminder{}, false, fmt.Errorf("reminder %q: %w", id, ErrNotFound)
	}
	if r.HasAcknowledged(name) {
		return copyReminder(r), false, nil
	}
	r.Acknowledged = append(r.Acknowledged, name)
	e.counters.AcknowledgmentsRecorded++
	return copyReminder(r), true, nil
}

func (e *Entities) AddTraining(title, category, dueDate, createdBy string, now time.Time) (models.Training, error) {
	if strings.TrimSpace(title) == "" {
		return models.Training{}, ErrEmptyTitle
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id, err := e.allocateID()
	if err != nil {
		return models.Training{}, fmt.Errorf("add training: %w", err)
	}
	t := &models.Training{
		ID:        id,
		Title:     title,
		Category:  category,
		DueDate:   dueDate,
		CreatedBy: createdBy,
		CreatedAt: now,
		Completed: []string{},
	}
	e.trainings = append(e.trainings, t)
	e.counters.TrainingsCreated++
	return copyTraining(t), nil
}

// CompleteTraining appends name to the training's completer list. No command
// reaches it yet.
func (e *Entities) CompleteTraining(id, name string) (models.Training, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, t := range e.trainings {
		if t.ID != id {
			continue
		}
		if t.HasCompleted(name) {
			return copyTraining(t), false, nil
		}
		t.Completed = append(t.Completed, name)
		return copyTraining(t), true, nil
	}
	return models.Training{}, false, fmt.Errorf("training %q: %w", id, ErrNotFound)
}

func (e *Entities) Reminder(id string) (models.Reminder, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	r := e.findReminder(id)
	if r == nil {
		return models.Reminder{}, fmt.Errorf("reminder %q: %w", id, ErrNotFound)
	}
	return copyReminder(r), nil
}

// Snapshot is a consistent copy of everything in the store.
type Snapshot struct {
	Reminders []models.Reminder
	Trainings []models.Training
	Counters  models.Counters
}

func (e *Entities) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := Snapshot{
		Reminders: make([]models.Reminder, 0, len(e.reminders)),
		Trainings: make([]models.Training, 0, len(e.trainings)),
		Counters:  e.counters,
	}
	for _, r := range e.reminders {
		snap.Reminders = append(snap.Reminders, copyReminder(r))
	}
	for _, t := range e.trainings {
		snap.Trainings = append(snap.Trainings, copyTraining(t))
	}
	return snap
}

func (e *Entities) Reminders() []models.Reminder {
	return e.Snapshot().Reminders
}

func (e *Entities) Trainings() []models.Training {
	return e.Snapshot().Trainings
}

func (e *Entities) Counters() models.Counters {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.counters
}

func (e *Entities) findReminder(id string) *models.Reminder {
	for _, r := range e.reminders {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func copyReminder(r *models.Reminder) models.Reminder {
	out := *r
	out.Acknowledged = append([]string{}, r.Acknowledged...)
	return out
}

func copyTraining(t *models.Training) models.Training {
	out := *t
	out.Completed = append([]string{}, t.Completed...)
	return out
}
