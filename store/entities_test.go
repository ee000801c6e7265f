package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

func sequenceIDs(ids ...string) IDSource {
	i := 0
	return func(length int) string {
		if i >= len(ids) {
			return ""
		}
		id := ids[i]
		i++
		return id
	}
}

func TestAddReminderAppendsAndCounts(t *testing.T) {
	e := NewEntities(WithIDSource(sequenceIDs("abc123", "def456")))
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)

	r, err := e.AddReminder("Submit report", "Ana", now.Add(time.Hour), now)
	if err != nil {
		t.Fatalf("add reminder: %v", err)
	}
	if r.ID != "abc123" || r.Message != "Submit report" || r.CreatedBy != "Ana" {
		t.Fatalf("unexpected reminder: %#v", r)
	}
	if len(r.Acknowledged) != 0 || r.Acknowledged == nil {
		t.Fatalf("expected empty non-nil acknowledger list, got %#v", r.Acknowledged)
	}
	if _, err := e.AddReminder("Standup", "Ben", now, now); err != nil {
		t.Fatalf("add second reminder: %v", err)
	}

	snap := e.Snapshot()
	if len(snap.Reminders) != 2 || snap.Reminders[0].ID != "abc123" || snap.Reminders[1].ID != "def456" {
		t.Fatalf("reminders not in creation order: %#v", snap.Reminders)
	}
	if snap.Counters.RemindersCreated != 2 {
		t.Fatalf("reminders created = %d, want 2", snap.Counters.RemindersCreated)
	}
}

func TestAddReminderRejectsEmptyMessage(t *testing.T) {
	e := NewEntities()
	_, err := e.AddReminder("   ", "Ana", time.Now(), time.Now())
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if e.Counters().RemindersCreated != 0 {
		t.Fatal("counter moved on rejected reminder")
	}
}

func TestAcknowledgeIsIdempotentPerName(t *testing.T) {
	e := NewEntities(WithIDSource(sequenceIDs("rem001")))
	now := time.Now()
	if _, err := e.AddReminder("Team sync", "Ana", now, now); err != nil {
		t.Fatalf("add reminder: %v", err)
	}

	_, added, err := e.Acknowledge("rem001", "Ben")
	if err != nil || !added {
		t.Fatalf("first ack: added=%v err=%v", added, err)
	}
	got, added, err := e.Acknowledge("rem001", "Ben")
	if err != nil || added {
		t.Fatalf("repeat ack: added=%v err=%v", added, err)
	}
	if got.AckCount() != 1 {
		t.Fatalf("ack count after repeat = %d, want 1", got.AckCount())
	}
	got, _, _ = e.Acknowledge("rem001", "Cleo")
	if strings.Join(got.Acknowledged, ",") != "Ben,Cleo" {
		t.Fatalf("acknowledgers not in insertion order: %v", got.Acknowledged)
	}
	if e.Counters().AcknowledgmentsRecorded != 2 {
		t.Fatalf("acknowledgments recorded = %d, want 2", e.Counters().AcknowledgmentsRecorded)
	}
}

func TestAcknowledgeUnknownReminder(t *testing.T) {
	e := NewEntities()
	_, _, err := e.Acknowledge("nope", "Ben")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if e.Counters().AcknowledgmentsRecorded != 0 {
		t.Fatal("counter moved on missing reminder")
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	e := NewEntities(WithIDSource(sequenceIDs("rem001")))
	now := time.Now()
	if _, err := e.AddReminder("Team sync", "Ana", now, now); err != nil {
		t.Fatalf("add reminder: %v", err)
	}
	snap := e.Snapshot()
	snap.Reminders[0].Acknowledged = append(snap.Reminders[0].Acknowledged, "Mallory")
	snap.Reminders[0].Message = "changed"

	r, err := e.Reminder("rem001")
	if err != nil {
		t.Fatalf("get reminder: %v", err)
	}
	if r.Message != "Team sync" || r.AckCount() != 0 {
		t.Fatalf("snapshot mutation leaked into store: %#v", r)
	}
}

func TestIDCollisionIsRetried(t *testing.T) {
	e := NewEntities(WithIDSource(sequenceIDs("aaaaaa", "aaaaaa", "AAAAAA", "bbbbbb")))
	now := time.Now()
	first, err := e.AddReminder("one", "Ana", now, now)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := e.AddTraining("Security", "compliance", "2024-07-15", "Ana", now)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.ID != "aaaaaa" || second.ID != "bbbbbb" {
		t.Fatalf("ids = %q, %q; want aaaaaa, bbbbbb", first.ID, second.ID)
	}
}

func TestIDLengthGrowsAfterRepeatedCollisions(t *testing.T) {
	e := NewEntities(WithIDSource(func(length int) string {
		return strings.Repeat("x", length)
	}))
	now := time.Now()
	a, err := e.AddReminder("one", "Ana", now, now)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	b, err := e.AddReminder("two", "Ana", now, now)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if len(a.ID) != defaultIDLength || len(b.ID) != defaultIDLength+1 {
		t.Fatalf("id lengths = %d, %d", len(a.ID), len(b.ID))
	}
}

func TestIDExhaustion(t *testing.T) {
	e := NewEntities(WithIDSource(func(int) string { return "" }))
	_, err := e.AddTraining("Security", "compliance", "soon", "Ana", time.Now())
	if !errors.Is(err, ErrIDExhausted) {
		t.Fatalf("expected ErrIDExhausted, got %v", err)
	}
	if e.Counters().TrainingsCreated != 0 {
		t.Fatal("counter moved on failed allocation")
	}
}

func TestRandomIDShape(t *testing.T) {
	id := RandomID(defaultIDLength)
	if len(id) != defaultIDLength {
		t.Fatalf("len(%q) = %d", id, len(id))
	}
	for _, c := range id {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Fatalf("unexpected character %q in %q", c, id)
		}
	}
}

func TestCompleteTraining(t *testing.T) {
	e := NewEntities(WithIDSource(sequenceIDs("trn001")))
	if _, err := e.AddTraining("Data Privacy", "compliance", "2024-07-15", "Ana", time.Now()); err != nil {
		t.Fatalf("add training: %v", err)
	}
	got, added, err := e.CompleteTraining("trn001", "Ben")
	if err != nil || !added || len(got.Completed) != 1 {
		t.Fatalf("complete: %#v added=%v err=%v", got, added, err)
	}
	_, added, _ = e.CompleteTraining("trn001", "Ben")
	if added {
		t.Fatal("expected repeat completion to be a no-op")
	}
	if _, _, err := e.CompleteTraining("missing", "Ben"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentMutationKeepsInvariants(t *testing.T) {
	e := NewEntities()
	now := time.Now()
	r, err := e.AddReminder("All hands", "Ana", now, now)
	if err != nil {
		t.Fatalf("add reminder: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _, _ = e.Acknowledge(r.ID, fmt.Sprintf("user-%d", i%10))
		}(i)
		go func() {
			defer wg.Done()
			_, _ = e.AddTraining("Course", "general", "soon", "Ana", now)
		}()
	}
	wg.Wait()

	snap := e.Snapshot()
	if got := snap.Reminders[0].AckCount(); got != 10 {
		t.Fatalf("distinct acknowledgers = %d, want 10", got)
	}
	if snap.Counters.AcknowledgmentsRecorded != 10 {
		t.Fatalf("acknowledgments recorded = %d, want 10", snap.Counters.AcknowledgmentsRecorded)
	}
	seen := map[string]bool{r.ID: true}
	for _, tr := range snap.Trainings {
		if seen[tr.ID] {
			t.Fatalf("duplicate id %q", tr.ID)
		}
		seen[tr.ID] = true
	}
	if snap.Counters.TrainingsCreated != 50 {
		t.Fatalf("trainings created = %d, want 50", snap.Counters.TrainingsCreated)
	}
}
