package commands

import (
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"pmo-bot/models"
	"pmo-bot/store"
)

// Engine turns chat text into responses. It owns no state of its own beyond
// the random source; reminders and trainings live in the injected store.
type Engine struct {
	entities *store.Entities
	replies  Replies
	now      func() time.Time

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRand sets the source used to pick generic replies.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

func WithReplies(r Replies) Option {
	return func(e *Engine) { e.replies = r }
}

// WithGenericReplies replaces only the generic fallback pool. An empty pool
// keeps the defaults.
func WithGenericReplies(pool []string) Option {
	return func(e *Engine) {
		if len(pool) > 0 {
			e.replies.Generic = append([]string(nil), pool...)
		}
	}
}

func NewEngine(entities *store.Entities, opts ...Option) *Engine {
	e := &Engine{
		entities: entities,
		replies:  DefaultReplies(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if len(e.replies.Generic) == 0 {
		e.replies.Generic = DefaultReplies().Generic
	}
	return e
}

type handlerFunc func(e *Engine, args []string, sender models.Identity) (models.Response, error)

var handlers = map[string]handlerFunc{
	verbRemind:   (*Engine).createReminder,
	verbAck:      (*Engine).acknowledge,
	verbTraining: (*Engine).addTraining,
	verbStatus:   func(e *Engine, _ []string, _ models.Identity) (models.Response, error) { return e.dashboard(), nil },
	verbHelp:     func(e *Engine, _ []string, _ models.Identity) (models.Response, error) { return e.help(), nil },
}

// HandleTurn classifies one inbound message and runs it. It always returns a
// response: user mistakes come back as error payloads, anything else as the
// apology.
func (e *Engine) HandleTurn(text string, sender models.Identity) models.Response {
	cmd := Classify(text)

	switch cmd.Intent {
	case IntentCommand:
		return e.runCommand(cmd, sender)
	case IntentHelp:
		return e.help()
	case IntentReminderHint:
		return textResponse(models.KindReminderHint, e.replies.ReminderHint)
	case IntentTrainingHint:
		return textResponse(models.KindTrainingHint, e.replies.TrainingHint)
	case IntentStatus:
		return e.dashboard()
	default:
		return textResponse(models.KindGeneric, e.pickGeneric())
	}
}

// HandleParticipantsJoined greets every identity that joined.
func (e *Engine) HandleParticipantsJoined(joined []models.Identity) models.Response {
	resp := models.Response{Kind: models.KindWelcome, Messages: []models.Message{}}
	for _, id := range joined {
		text := Interpolate(e.replies.Welcome, &InterpolationContext{
			UserID:   id.ID,
			UserName: id.DisplayName(),
			Now:      e.now(),
		})
		resp.Messages = append(resp.Messages, models.TextMessage(text))
	}
	return resp
}

// Apology is the reply for a turn that failed for reasons outside the user's
// control.
func (e *Engine) Apology() models.Response {
	return textResponse(models.KindApology, e.replies.Apology)
}

func (e *Engine) runCommand(cmd Command, sender models.Identity) models.Response {
	h, ok := handlers[cmd.Verb]
	if !ok {
		return e.errorResponse(e.unknownCommand(cmd.Verb))
	}

	resp, err := h(e, cmd.Args, sender)
	if err != nil {
		var ce *CommandError
		if errors.As(err, &ce) {
			return e.errorResponse(ce)
		}
		return e.Apology()
	}
	return resp
}

func (e *Engine) createReminder(args []string, sender models.Identity) (models.Response, error) {
	if len(args) < 2 {
		return models.Response{}, usageError(e.replies.RemindUsage)
	}

	now := e.now()
	at, err := ParseDurationAt(args[0], now)
	if err != nil {
		return models.Response{}, &CommandError{Code: ErrCodeInvalidFormat, Message: e.replies.InvalidTime}
	}

	message := strings.Join(args[1:], " ")
	r, err := e.entities.AddReminder(message, sender.DisplayName(), at, now)
	if errors.Is(err, store.ErrEmptyMessage) {
		return models.Response{}, usageError(e.replies.RemindUsage)
	}
	if err != nil {
		return models.Response{}, err
	}

	confirm := e.render(e.replies.ReminderCreated, sender, map[string]string{"id": r.ID, "message": r.Message})
	return models.Response{
		Kind: models.KindReminderCreated,
		Messages: []models.Message{
			models.CardMessage(reminderCard(r)),
			models.TextMessage(confirm),
		},
	}, nil
}

func (e *Engine) acknowledge(args []string, sender models.Identity) (models.Response, error) {
	if len(args) < 1 {
		return models.Response{}, usageError(e.replies.AckUsage)
	}

	r, _, err := e.entities.Acknowledge(strings.ToLower(args[0]), sender.DisplayName())
	if errors.Is(err, store.ErrNotFound) {
		return models.Response{}, &CommandError{Code: ErrCodeNotFound, Message: e.replies.ReminderNotFound}
	}
	if err != nil {
		return models.Response{}, err
	}

	text := e.render(e.replies.Acknowledged, sender, map[string]string{"id": r.ID, "message": r.Message})
	return textResponse(models.KindAcknowledged, text), nil
}

func (e *Engine) addTraining(args []string, sender models.Identity) (models.Response, error) {
	if len(args) < 3 {
		return models.Response{}, usageError(e.replies.TrainingUsage)
	}

	t, err := e.entities.AddTraining(stripQuotes(args[0]), args[1], args[2], sender.DisplayName(), e.now())
	if errors.Is(err, store.ErrEmptyTitle) {
		return models.Response{}, usageError(e.replies.TrainingUsage)
	}
	if err != nil {
		return models.Response{}, err
	}

	confirm := e.render(e.replies.TrainingAdded, sender, map[string]string{"id": t.ID, "title": t.Title})
	return models.Response{
		Kind: models.KindTrainingAdded,
		Messages: []models.Message{
			models.CardMessage(trainingCard(t)),
			models.TextMessage(confirm),
		},
	}, nil
}

func (e *Engine) dashboard() models.Response {
	snap := e.entities.Snapshot()
	stats := ComputeStats(snap)

	resp := models.Response{
		Kind:     models.KindDashboard,
		Messages: []models.Message{models.CardMessage(dashboardCard(stats))},
	}

	recent := RecentReminders(snap.Reminders, recentReminderLimit)
	if len(recent) == 0 {
		return resp
	}

	var b strings.Builder
	b.WriteString(e.replies.RecentRemindersHeader)
	for _, d := range recent {
		b.WriteString("\n")
		b.WriteString(Interpolate(e.replies.RecentReminderLine, &InterpolationContext{
			Values: map[string]string{
				"id":      d.ID,
				"message": d.Message,
				"count":   strconv.Itoa(d.Acknowledged),
			},
		}))
	}
	resp.Messages = append(resp.Messages, models.Message{
		Type:      models.MessageText,
		Text:      b.String(),
		Reminders: recent,
	})
	return resp
}

func (e *Engine) help() models.Response {
	return models.Response{
		Kind:     models.KindHelp,
		Messages: []models.Message{models.CardMessage(helpCard())},
	}
}

func (e *Engine) unknownCommand(verb string) *CommandError {
	values := map[string]string{}
	msg := e.replies.UnknownCommand
	if s := suggestVerb(verb); s != "" {
		values["suggestion"] = s
		msg += "\n" + e.replies.Suggestion
	}
	text := Interpolate(msg, &InterpolationContext{Verb: verb, Now: e.now(), Values: values})
	return &CommandError{Code: ErrCodeUnknownCommand, Message: text}
}

func (e *Engine) errorResponse(ce *CommandError) models.Response {
	resp := textResponse(ce.kind(), ce.Message)
	resp.ErrorCode = string(ce.Code)
	return resp
}

func (e *Engine) pickGeneric() string {
	e.mu.Lock()
	i := e.rng.Intn(len(e.replies.Generic))
	e.mu.Unlock()
	return e.replies.Generic[i]
}

func (e *Engine) render(tmpl string, sender models.Identity, values map[string]string) string {
	return Interpolate(tmpl, &InterpolationContext{
		UserID:   sender.ID,
		UserName: sender.DisplayName(),
		Now:      e.now(),
		Values:   values,
	})
}

func textResponse(kind models.ResponseKind, text string) models.Response {
	return models.Response{Kind: kind, Messages: []models.Message{models.TextMessage(text)}}
}
