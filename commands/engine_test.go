package commands

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"pmo-bot/models"
	"pmo-bot/store"
)

var (
	testNow = time.Date(2026, 2, 9, 9, 30, 0, 0, time.UTC)
	ana     = models.Identity{ID: "u-ana", Name: "Ana"}
	ben     = models.Identity{ID: "u-ben", Name: "Ben"}
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *store.Entities) {
	t.Helper()
	entities := store.NewEntities()
	opts = append([]Option{WithClock(func() time.Time { return testNow }), WithSeed(1)}, opts...)
	return NewEngine(entities, opts...), entities
}

func createReminder(t *testing.T, e *Engine, text string, sender models.Identity) string {
	t.Helper()
	resp := e.HandleTurn(text, sender)
	if resp.Kind != models.KindReminderCreated {
		t.Fatalf("%q: kind = %s, want reminder_created (%+v)", text, resp.Kind, resp)
	}
	id, ok := resp.Card().Fact("ID")
	if !ok || id == "" {
		t.Fatalf("%q: reminder card has no ID fact", text)
	}
	return id
}

func TestClassifyOrder(t *testing.T) {
	cases := []struct {
		in   string
		want Intent
	}{
		{"/status", IntentCommand},
		{"  /HELP  ", IntentCommand},
		{"please remind me", IntentReminderHint},
		{"need help with training", IntentHelp},
		{"HELP", IntentHelp},
		{"remind me about training", IntentReminderHint},
		{"any training today?", IntentTrainingHint},
		{"what's the status", IntentStatus},
		{"training status", IntentTrainingHint},
		{"good morning", IntentGeneric},
		{"", IntentGeneric},
	}
	for _, tc := range cases {
		if got := Classify(tc.in).Intent; got != tc.want {
			t.Fatalf("Classify(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestClassifyCommandKeepsArgumentCase(t *testing.T) {
	cmd := Classify("/REMIND 1H Submit Weekly Report")
	if cmd.Verb != "/remind" {
		t.Fatalf("verb = %q", cmd.Verb)
	}
	want := []string{"1H", "Submit", "Weekly", "Report"}
	if strings.Join(cmd.Args, "|") != strings.Join(want, "|") {
		t.Fatalf("args = %q, want %q", cmd.Args, want)
	}
}

func TestHandleTurnDispatch(t *testing.T) {
	e, _ := newTestEngine(t)
	cases := []struct {
		in   string
		want models.ResponseKind
	}{
		{"/status", models.KindDashboard},
		{"/help", models.KindHelp},
		{"please remind me", models.KindReminderHint},
		{"need help with training", models.KindHelp},
		{"we have training next week", models.KindTrainingHint},
		{"show me the status", models.KindDashboard},
		{"hello there", models.KindGeneric},
	}
	for _, tc := range cases {
		if got := e.HandleTurn(tc.in, ana).Kind; got != tc.want {
			t.Fatalf("HandleTurn(%q) kind = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestStatusKeywordShowsFullDashboard(t *testing.T) {
	e, _ := newTestEngine(t)
	createReminder(t, e, "/remind 1h Submit report", ana)

	resp := e.HandleTurn("status please", ana)
	card := resp.Card()
	if card == nil || card.Kind != models.CardDashboard || card.Stats == nil {
		t.Fatalf("expected dashboard card, got %+v", resp)
	}
	if card.Stats.ActiveReminders != 1 {
		t.Fatalf("active reminders = %d", card.Stats.ActiveReminders)
	}
}

func TestCreateReminder(t *testing.T) {
	e, entities := newTestEngine(t)

	resp := e.HandleTurn("/remind 1h Submit report", ana)
	if resp.Kind != models.KindReminderCreated || len(resp.Messages) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
	card := resp.Card()
	if card.Headline != "Submit report" {
		t.Fatalf("headline = %q", card.Headline)
	}
	if by, _ := card.Fact("Created by"); by != "Ana" {
		t.Fatalf("created by = %q", by)
	}
	id, _ := card.Fact("ID")
	if resp.Messages[1].Text != "✅ Reminder created! ID: "+id {
		t.Fatalf("confirmation = %q", resp.Messages[1].Text)
	}

	reminders := entities.Reminders()
	if len(reminders) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(reminders))
	}
	r := reminders[0]
	if r.ID != id || r.Message != "Submit report" || r.CreatedBy != "Ana" {
		t.Fatalf("stored reminder = %+v", r)
	}
	if !r.ScheduledAt.Equal(testNow.Add(time.Hour)) || !r.CreatedAt.Equal(testNow) {
		t.Fatalf("times = %v / %v", r.ScheduledAt, r.CreatedAt)
	}
	if len(r.Acknowledged) != 0 {
		t.Fatalf("expected no acknowledgers, got %v", r.Acknowledged)
	}
	if c := entities.Counters(); c.RemindersCreated != 1 {
		t.Fatalf("reminders created = %d", c.RemindersCreated)
	}
}

func TestCreateReminderIncrementsByOne(t *testing.T) {
	e, entities := newTestEngine(t)
	for i := 1; i <= 5; i++ {
		createReminder(t, e, fmt.Sprintf("/remind %dm Task %d", i, i), ana)
		if n := len(entities.Reminders()); n != i {
			t.Fatalf("after %d creates: active = %d", i, n)
		}
		if c := entities.Counters(); c.RemindersCreated != i {
			t.Fatalf("after %d creates: counter = %d", i, c.RemindersCreated)
		}
	}
}

func TestCreateReminderErrorsDoNotMutate(t *testing.T) {
	e, entities := newTestEngine(t)
	cases := []struct {
		in   string
		kind models.ResponseKind
		code ErrorCode
		text string
	}{
		{"/remind", models.KindUsageError, ErrCodeUsage, "Usage: /remind [time] [message]\nExample: /remind 1h Submit weekly reports"},
		{"/remind 1h", models.KindUsageError, ErrCodeUsage, "Usage: /remind [time] [message]\nExample: /remind 1h Submit weekly reports"},
		{"/remind soon Submit report", models.KindInvalidFormat, ErrCodeInvalidFormat, "Invalid time format. Use: 1h, 30m, 2d, etc."},
		{"/remind 0h Submit report", models.KindInvalidFormat, ErrCodeInvalidFormat, "Invalid time format. Use: 1h, 30m, 2d, etc."},
		{"/remind 5s Submit report", models.KindInvalidFormat, ErrCodeInvalidFormat, "Invalid time format. Use: 1h, 30m, 2d, etc."},
	}
	for _, tc := range cases {
		resp := e.HandleTurn(tc.in, ana)
		if resp.Kind != tc.kind || resp.ErrorCode != string(tc.code) {
			t.Fatalf("%q: got kind=%s code=%s", tc.in, resp.Kind, resp.ErrorCode)
		}
		if resp.Messages[0].Text != tc.text {
			t.Fatalf("%q: text = %q", tc.in, resp.Messages[0].Text)
		}
	}
	if n := len(entities.Reminders()); n != 0 {
		t.Fatalf("expected no reminders, got %d", n)
	}
	if c := entities.Counters(); c != (models.Counters{}) {
		t.Fatalf("expected zero counters, got %+v", c)
	}
}

func TestAcknowledgeIsIdempotentPerSender(t *testing.T) {
	e, entities := newTestEngine(t)
	id := createReminder(t, e, "/remind 1h Submit report", ana)

	for i := 0; i < 2; i++ {
		resp := e.HandleTurn("/ack "+id, ben)
		if resp.Kind != models.KindAcknowledged {
			t.Fatalf("ack %d: kind = %s", i, resp.Kind)
		}
		if resp.Messages[0].Text != `✅ Ben acknowledged: "Submit report"` {
			t.Fatalf("ack %d: text = %q", i, resp.Messages[0].Text)
		}
	}
	r, err := entities.Reminder(id)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(r.Acknowledged) != 1 {
		t.Fatalf("expected 1 acknowledger after repeat, got %v", r.Acknowledged)
	}

	e.HandleTurn("/ack "+id, ana)
	r, _ = entities.Reminder(id)
	if strings.Join(r.Acknowledged, ",") != "Ben,Ana" {
		t.Fatalf("acknowledgers = %v", r.Acknowledged)
	}
	if c := entities.Counters(); c.AcknowledgmentsRecorded != 2 {
		t.Fatalf("acknowledgments recorded = %d", c.AcknowledgmentsRecorded)
	}
}

func TestAcknowledgeIDIsCaseInsensitive(t *testing.T) {
	e, _ := newTestEngine(t)
	id := createReminder(t, e, "/remind 1h Submit report", ana)

	if resp := e.HandleTurn("/ACK "+strings.ToUpper(id), ben); resp.Kind != models.KindAcknowledged {
		t.Fatalf("kind = %s", resp.Kind)
	}
}

func TestAcknowledgeErrors(t *testing.T) {
	e, entities := newTestEngine(t)
	createReminder(t, e, "/remind 1h Submit report", ana)

	resp := e.HandleTurn("/ack", ben)
	if resp.Kind != models.KindUsageError || resp.Messages[0].Text != "Usage: /ack [reminder-id]" {
		t.Fatalf("unexpected usage response %+v", resp)
	}

	resp = e.HandleTurn("/ack nope00", ben)
	if resp.Kind != models.KindNotFound || resp.ErrorCode != string(ErrCodeNotFound) {
		t.Fatalf("unexpected not-found response %+v", resp)
	}
	if resp.Messages[0].Text != "❌ Reminder not found. Use /status to see active reminders." {
		t.Fatalf("text = %q", resp.Messages[0].Text)
	}
	if c := entities.Counters(); c.AcknowledgmentsRecorded != 0 {
		t.Fatalf("acknowledgments recorded = %d", c.AcknowledgmentsRecorded)
	}
}

func TestSenderNameFallsBackToID(t *testing.T) {
	e, entities := newTestEngine(t)
	createReminder(t, e, "/remind 1h Submit report", models.Identity{ID: "29:abc", Name: "  "})
	if by := entities.Reminders()[0].CreatedBy; by != "29:abc" {
		t.Fatalf("created by = %q", by)
	}
}

func TestAddTraining(t *testing.T) {
	e, entities := newTestEngine(t)

	resp := e.HandleTurn(`/training "Data Privacy" compliance 2024-07-15`, ana)
	if resp.Kind != models.KindTrainingAdded || len(resp.Messages) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
	trainings := entities.Trainings()
	if len(trainings) != 1 {
		t.Fatalf("expected 1 training, got %d", len(trainings))
	}
	tr := trainings[0]
	if tr.Title != "Data Privacy" || tr.Category != "compliance" || tr.DueDate != "2024-07-15" {
		t.Fatalf("training = %+v", tr)
	}
	if tr.CreatedBy != "Ana" || len(tr.Completed) != 0 {
		t.Fatalf("training = %+v", tr)
	}
	if resp.Messages[1].Text != "✅ Training added! ID: "+tr.ID {
		t.Fatalf("confirmation = %q", resp.Messages[1].Text)
	}
	card := resp.Card()
	if due, _ := card.Fact("Due Date"); due != "2024-07-15" {
		t.Fatalf("due date fact = %q", due)
	}
	if c := entities.Counters(); c.TrainingsCreated != 1 {
		t.Fatalf("trainings created = %d", c.TrainingsCreated)
	}
}

func TestAddTrainingVariants(t *testing.T) {
	cases := []struct {
		in    string
		title string
		cat   string
		due   string
	}{
		{`/training 'Compliance Training' mandatory 2024-07-15`, "Compliance Training", "mandatory", "2024-07-15"},
		{`/training Security onboarding next-friday`, "Security", "onboarding", "next-friday"},
		{`/training "GDPR" Legal Q3 extra tokens`, "GDPR", "Legal", "Q3"},
	}
	for _, tc := range cases {
		e, entities := newTestEngine(t)
		if resp := e.HandleTurn(tc.in, ana); resp.Kind != models.KindTrainingAdded {
			t.Fatalf("%q: kind = %s", tc.in, resp.Kind)
		}
		tr := entities.Trainings()[0]
		if tr.Title != tc.title || tr.Category != tc.cat || tr.DueDate != tc.due {
			t.Fatalf("%q: training = %+v", tc.in, tr)
		}
	}
}

func TestAddTrainingUsage(t *testing.T) {
	e, entities := newTestEngine(t)
	for _, in := range []string{"/training", `/training "Data Privacy" compliance`, `/training "" compliance 2024-07-15`} {
		resp := e.HandleTurn(in, ana)
		if resp.Kind != models.KindUsageError {
			t.Fatalf("%q: kind = %s", in, resp.Kind)
		}
	}
	if n := len(entities.Trainings()); n != 0 {
		t.Fatalf("expected no trainings, got %d", n)
	}
}

func TestUnknownCommandDoesNotMutate(t *testing.T) {
	e, entities := newTestEngine(t)
	createReminder(t, e, "/remind 1h Submit report", ana)
	before := entities.Snapshot()

	resp := e.HandleTurn("/foo bar", ana)
	if resp.Kind != models.KindUnknownCommand || resp.ErrorCode != string(ErrCodeUnknownCommand) {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Messages[0].Text != "Unknown command: /foo. Type '/help' for available commands." {
		t.Fatalf("text = %q", resp.Messages[0].Text)
	}

	after := entities.Snapshot()
	if len(after.Reminders) != len(before.Reminders) || len(after.Trainings) != len(before.Trainings) || after.Counters != before.Counters {
		t.Fatalf("state changed: before=%+v after=%+v", before, after)
	}
}

func TestUnknownCommandSuggestsCloseVerb(t *testing.T) {
	e, _ := newTestEngine(t)
	resp := e.HandleTurn("/remnd 1h x", ana)
	want := "Unknown command: /remnd. Type '/help' for available commands.\nDid you mean /remind?"
	if resp.Messages[0].Text != want {
		t.Fatalf("text = %q, want %q", resp.Messages[0].Text, want)
	}
}

func TestDashboardEfficiency(t *testing.T) {
	e, _ := newTestEngine(t)

	stats := e.HandleTurn("/status", ana).Card().Stats
	if stats.ActiveReminders != 0 || stats.Efficiency != 100 {
		t.Fatalf("empty dashboard stats = %+v", stats)
	}

	first := createReminder(t, e, "/remind 1h One", ana)
	e.HandleTurn("/ack "+first, ben)
	if eff := e.HandleTurn("/status", ana).Card().Stats.Efficiency; eff != 100 {
		t.Fatalf("1 reminder, 1 ack: efficiency = %d", eff)
	}

	createReminder(t, e, "/remind 2h Two", ana)
	if eff := e.HandleTurn("/status", ana).Card().Stats.Efficiency; eff != 50 {
		t.Fatalf("2 reminders, 1 ack: efficiency = %d", eff)
	}
}

func TestEndToEndReminderFlow(t *testing.T) {
	e, _ := newTestEngine(t)

	id := createReminder(t, e, "/remind 1h Submit report", ana)
	if resp := e.HandleTurn("/ack "+id, ana); resp.Kind != models.KindAcknowledged {
		t.Fatalf("ack kind = %s", resp.Kind)
	}

	resp := e.HandleTurn("/status", ana)
	if len(resp.Messages) != 2 {
		t.Fatalf("expected dashboard plus recent reminders, got %d messages", len(resp.Messages))
	}
	card := resp.Card()
	stats := card.Stats
	if stats.ActiveReminders != 1 || stats.TotalAcknowledgments != 1 || stats.Efficiency != 100 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.PendingItems != 1 || stats.AcknowledgmentsRecorded != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if v, _ := card.Fact("Team Efficiency"); v != "100%" {
		t.Fatalf("efficiency fact = %q", v)
	}

	recent := resp.Messages[1]
	want := "📋 **Recent Reminders:**\n• Submit report (ID: " + id + ") - 1 acknowledged"
	if recent.Text != want {
		t.Fatalf("recent = %q, want %q", recent.Text, want)
	}
	if len(recent.Reminders) != 1 || recent.Reminders[0].ID != id {
		t.Fatalf("recent digests = %+v", recent.Reminders)
	}
}

func TestDashboardListsLastThreeRemindersOldestFirst(t *testing.T) {
	e, _ := newTestEngine(t)
	for i := 1; i <= 5; i++ {
		createReminder(t, e, fmt.Sprintf("/remind 1h Task %d", i), ana)
	}
	e.HandleTurn("/training Onboarding hr 2026-03-01", ana)

	resp := e.HandleTurn("/status", ana)
	digests := resp.Messages[1].Reminders
	if len(digests) != 3 {
		t.Fatalf("expected 3 recent reminders, got %d", len(digests))
	}
	for i, d := range digests {
		if want := fmt.Sprintf("Task %d", i+3); d.Message != want {
			t.Fatalf("recent[%d] = %q, want %q", i, d.Message, want)
		}
	}
	stats := resp.Card().Stats
	if stats.ActiveTrainings != 1 || stats.PendingItems != 6 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestDashboardWithoutRemindersIsSingleMessage(t *testing.T) {
	e, _ := newTestEngine(t)
	e.HandleTurn("/training Onboarding hr 2026-03-01", ana)
	if resp := e.HandleTurn("/status", ana); len(resp.Messages) != 1 {
		t.Fatalf("expected only the dashboard card, got %d messages", len(resp.Messages))
	}
}

func TestHelpCard(t *testing.T) {
	e, entities := newTestEngine(t)
	card := e.HandleTurn("/help", ana).Card()
	if card == nil || card.Kind != models.CardHelp || card.Title != "🤖 PMO Assistant - Help Guide" {
		t.Fatalf("help card = %+v", card)
	}
	if len(card.Sections) != 2 || len(card.Sections[0].Lines) != 5 {
		t.Fatalf("help sections = %+v", card.Sections)
	}
	card.Sections[0].Lines[0] = "mutated"
	if e.HandleTurn("/help", ana).Card().Sections[0].Lines[0] == "mutated" {
		t.Fatal("help card shares state between calls")
	}
	if c := entities.Counters(); c != (models.Counters{}) {
		t.Fatalf("help touched counters: %+v", c)
	}
}

func TestGenericReplyIsDeterministicForSeed(t *testing.T) {
	replies := DefaultReplies()
	pick := func(seed int64) []string {
		e := NewEngine(store.NewEntities(), WithRand(rand.New(rand.NewSource(seed))))
		var out []string
		for i := 0; i < 10; i++ {
			resp := e.HandleTurn("good morning", ana)
			if resp.Kind != models.KindGeneric {
				t.Fatalf("kind = %s", resp.Kind)
			}
			out = append(out, resp.Messages[0].Text)
		}
		return out
	}

	a, b := pick(42), pick(42)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("seeded picks differ at %d: %q vs %q", i, a[i], b[i])
		}
		found := false
		for _, g := range replies.Generic {
			if a[i] == g {
				found = true
			}
		}
		if !found {
			t.Fatalf("reply %q is not one of the generic prompts", a[i])
		}
	}
}

func TestCustomGenericReplies(t *testing.T) {
	replies := DefaultReplies()
	replies.Generic = []string{"only one"}
	e, _ := newTestEngine(t, WithReplies(replies))
	if got := e.HandleTurn("hi", ana).Messages[0].Text; got != "only one" {
		t.Fatalf("got %q", got)
	}
}

func TestGenericPoolOption(t *testing.T) {
	e, _ := newTestEngine(t, WithGenericReplies([]string{"pool reply"}))
	if got := e.HandleTurn("hi", ana).Messages[0].Text; got != "pool reply" {
		t.Fatalf("got %q", got)
	}

	e, _ = newTestEngine(t, WithGenericReplies(nil))
	if got := e.HandleTurn("hi", ana).Kind; got != models.KindGeneric {
		t.Fatalf("expected generic reply, got %q", got)
	}
}

func TestHandleParticipantsJoined(t *testing.T) {
	e, _ := newTestEngine(t)

	resp := e.HandleParticipantsJoined([]models.Identity{ana, ben})
	if resp.Kind != models.KindWelcome || len(resp.Messages) != 2 {
		t.Fatalf("unexpected welcome %+v", resp)
	}
	if !strings.HasPrefix(resp.Messages[0].Text, "👋 Welcome to PMO Assistant!") {
		t.Fatalf("welcome text = %q", resp.Messages[0].Text)
	}

	if empty := e.HandleParticipantsJoined(nil); len(empty.Messages) != 0 {
		t.Fatalf("expected no messages, got %d", len(empty.Messages))
	}
}

func TestApology(t *testing.T) {
	e, _ := newTestEngine(t)
	resp := e.Apology()
	if resp.Kind != models.KindApology || resp.Messages[0].Text != "Sorry, I encountered an error. Please try again." {
		t.Fatalf("apology = %+v", resp)
	}
}

func TestStoreFailureBecomesApology(t *testing.T) {
	entities := store.NewEntities(store.WithIDSource(func(int) string { return "" }))
	e := NewEngine(entities, WithSeed(1))

	resp := e.HandleTurn("/remind 1h Submit report", ana)
	if resp.Kind != models.KindApology {
		t.Fatalf("kind = %s, want apology", resp.Kind)
	}
	if n := len(entities.Reminders()); n != 0 {
		t.Fatalf("expected no reminders, got %d", n)
	}
}

func TestConcurrentTurns(t *testing.T) {
	e, entities := newTestEngine(t)
	id := createReminder(t, e, "/remind 1h Shared", ana)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender := models.Identity{ID: fmt.Sprintf("u-%d", i%5), Name: fmt.Sprintf("User %d", i%5)}
			e.HandleTurn(fmt.Sprintf("/remind %dm Task %d", i+1, i), sender)
			e.HandleTurn("/ack "+id, sender)
			e.HandleTurn("/status", sender)
			e.HandleTurn("hello", sender)
		}(i)
	}
	wg.Wait()

	snap := entities.Snapshot()
	if len(snap.Reminders) != 21 || snap.Counters.RemindersCreated != 21 {
		t.Fatalf("reminders = %d, counter = %d", len(snap.Reminders), snap.Counters.RemindersCreated)
	}
	if snap.Reminders[0].AckCount() != 5 || snap.Counters.AcknowledgmentsRecorded != 5 {
		t.Fatalf("acks = %d, recorded = %d", snap.Reminders[0].AckCount(), snap.Counters.AcknowledgmentsRecorded)
	}
}
