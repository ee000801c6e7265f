package models

// ResponseKind tags what a Response is, independent of how it is rendered.
type ResponseKind string

const (
	KindHelp            ResponseKind = "help"
	KindReminderHint    ResponseKind = "reminder_hint"
	KindTrainingHint    ResponseKind = "training_hint"
	KindDashboard       ResponseKind = "dashboard"
	KindReminderCreated ResponseKind = "reminder_created"
	KindAcknowledged    ResponseKind = "acknowledged"
	KindTrainingAdded   ResponseKind = "training_added"
	KindUnknownCommand  ResponseKind = "unknown_command"
	KindUsageError      ResponseKind = "usage_error"
	KindInvalidFormat   ResponseKind = "invalid_format"
	KindNotFound        ResponseKind = "not_found"
	KindGeneric         ResponseKind = "generic"
	KindWelcome         ResponseKind = "welcome"
	KindApology         ResponseKind = "apology"
)

type MessageType string

const (
	MessageText MessageType = "text"
	MessageCard MessageType = "card"
)

type CardKind string

const (
	CardDashboard CardKind = "dashboard"
	CardReminder  CardKind = "reminder"
	CardTraining  CardKind = "training"
	CardHelp      CardKind = "help"
)

// Response is what the engine hands back for one turn. It holds one message,
// or two for the dashboard (card plus recent reminders). A welcome for several
// joined participants holds one message each.
type Response struct {
	Kind      ResponseKind `json:"kind"`
	Messages  []Message    `json:"messages"`
	ErrorCode string       `json:"error_code,omitempty"`
}

type Message struct {
	Type      MessageType      `json:"type"`
	Text      string           `json:"text,omitempty"`
	Card      *Card            `json:"card,omitempty"`
	Reminders []ReminderDigest `json:"reminders,omitempty"`
}

type Fact struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

type Section struct {
	Heading string   `json:"heading"`
	Lines   []string `json:"lines"`
}

type Card struct {
	Kind     CardKind  `json:"kind"`
	Title    string    `json:"title"`
	Headline string    `json:"headline,omitempty"`
	Sections []Section `json:"sections,omitempty"`
	Facts    []Fact    `json:"facts,omitempty"`
	Stats    *Stats    `json:"stats,omitempty"`
}

// Fact looks up a fact value by title.
func (c *Card) Fact(title string) (string, bool) {
	for _, f := range c.Facts {
		if f.Title == title {
			return f.Value, true
		}
	}
	return "", false
}

// Stats are the dashboard metrics. TotalAcknowledgments is recomputed from the
// current reminders; AcknowledgmentsRecorded is the store's cumulative counter.
// The two are reported separately and are allowed to differ.
type Stats struct {
	ActiveReminders         int `json:"active_reminders"`
	ActiveTrainings         int `json:"active_trainings"`
	TotalAcknowledgments    int `json:"total_acknowledgments"`
	AcknowledgmentsRecorded int `json:"acknowledgments_recorded"`
	RemindersCreated        int `json:"reminders_created"`
	TrainingsCreated        int `json:"trainings_created"`
	PendingItems            int `json:"pending_items"`
	Efficiency              int `json:"efficiency"`
}

func TextMessage(text string) Message {
	return Message{Type: MessageText, Text: text}
}

func CardMessage(card *Card) Message {
	return Message{Type: MessageCard, Card: card}
}

// Card returns the first card in the response, or nil.
func (r Response) Card() *Card {
	for _, m := range r.Messages {
		if m.Card != nil {
			return m.Card
		}
	}
	return nil
}
