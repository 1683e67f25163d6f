package engine

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/itbasis/go-clock"
	"github.com/pschwagler/beach-kings-sub003/model"
	"github.com/pschwagler/beach-kings-sub003/store"
	"github.com/pschwagler/beach-kings-sub003/testutils"
)

// harness wires a lifecycle against the fake store server, the way the app
// wires it against the real one.
type harness struct {
	fake  *testutils.FakeStoreServer
	store store.Client
	lc    *Lifecycle
	ctx   context.Context
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	fake := testutils.NewFakeStoreServer()
	t.Cleanup(fake.Close)
	fake.Clock.Set(time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC))

	st := store.NewForTest(fake.URL())

	appClock := clock.NewMock()
	appClock.Set(time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC))

	return &harness{
		fake:  fake,
		store: st,
		lc:    NewLifecycle(1, appClock, st),
		ctx:   context.Background(),
	}
}

func (h *harness) materialize(t *testing.T) []Group {
	t.Helper()

	matches, err := h.store.ListMatches(h.ctx, 1)
	if err != nil {
		t.Fatalf("error listing matches: %v", err)
	}

	sessions := h.lc.Snapshots()
	for _, m := range matches {
		if m.SessionID == 0 {
			continue
		}
		if _, ok := sessions[m.SessionID]; ok {
			continue
		}
		s, err := h.store.GetSession(h.ctx, m.SessionID)
		if err != nil {
			t.Fatalf("error loading session %d: %v", m.SessionID, err)
		}
		sessions[m.SessionID] = *s
	}

	return Materialize(matches, sessions, h.lc.Buffers())
}

// submittedSessionWithMatch logs one match (implicitly creating a session)
// and locks the session in.
func (h *harness) submittedSessionWithMatch(t *testing.T) *model.Session {
	t.Helper()

	m, err := h.lc.AddMatch(h.ctx, payload("Ana", "Bea", "Cam", "Dre", 21, 15))
	if err != nil {
		t.Fatalf("error adding match: %v", err)
	}
	if err := h.lc.LockIn(h.ctx, m.SessionID); err != nil {
		t.Fatalf("error locking in session: %v", err)
	}

	s, err := h.store.GetSession(h.ctx, m.SessionID)
	if err != nil {
		t.Fatalf("error loading session: %v", err)
	}
	return s
}

func TestFirstMatchCreatesSession(t *testing.T) {
	h := newHarness(t)

	m, err := h.lc.AddMatch(h.ctx, payload("Ana", "Bea", "Cam", "Dre", 21, 15))
	if err != nil {
		t.Fatalf("error adding match: %v", err)
	}

	if m.Winner != model.WinnerTeam1 {
		t.Errorf("expected Team 1 to win, got %s", m.Winner)
	}
	if m.SessionID == 0 {
		t.Fatalf("match was not attached to a session")
	}

	s, err := h.store.GetActiveSession(h.ctx, 1)
	if err != nil || s == nil {
		t.Fatalf("no active session after first add: %v", err)
	}
	if s.ID != m.SessionID || s.Status != model.StatusActive {
		t.Errorf("unexpected active session: %+v", s)
	}
	if s.Name != "Jun 1" {
		t.Errorf("session not dated today: %q", s.Name)
	}

	// A second add reuses the same session.
	m2, err := h.lc.AddMatch(h.ctx, payload("Eli", "Fin", "Gus", "Hal", 19, 21))
	if err != nil {
		t.Fatalf("error adding second match: %v", err)
	}
	if m2.SessionID != m.SessionID {
		t.Errorf("second match created a new session: %d vs %d", m2.SessionID, m.SessionID)
	}
}

func TestLockInSubmitsAndWritesDeltas(t *testing.T) {
	h := newHarness(t)
	s := h.submittedSessionWithMatch(t)

	if s.Status != model.StatusSubmitted {
		t.Errorf("expected SUBMITTED, got %s", s.Status)
	}

	matches, err := h.store.ListMatches(h.ctx, 1)
	if err != nil {
		t.Fatalf("error listing matches: %v", err)
	}
	if matches[0].Team1Delta <= 0 || matches[0].Team2Delta >= 0 {
		t.Errorf("deltas not recalculated on lock-in: %+v", matches[0])
	}

	// No active session remains.
	active, err := h.store.GetActiveSession(h.ctx, 1)
	if err != nil {
		t.Fatalf("error looking up active session: %v", err)
	}
	if active != nil {
		t.Errorf("session still active after lock-in: %+v", active)
	}
}

func TestEditCancelLeavesViewUnchanged(t *testing.T) {
	h := newHarness(t)
	s := h.submittedSessionWithMatch(t)

	before := h.materialize(t)

	if err := h.lc.EnterEditMode(h.ctx, s.ID, true); err != nil {
		t.Fatalf("error entering edit mode: %v", err)
	}
	p := payload("Eli", "Fin", "Gus", "Hal", 15, 21)
	p.SessionID = s.ID
	if _, err := h.lc.AddMatch(h.ctx, p); err != nil {
		t.Fatalf("error buffering match: %v", err)
	}
	if err := h.lc.CancelEdit(s.ID); err != nil {
		t.Fatalf("error canceling: %v", err)
	}

	after := h.materialize(t)
	if !reflect.DeepEqual(before, after) {
		t.Errorf("view changed across an edit/cancel cycle:\nbefore: %+v\nafter: %+v", before, after)
	}
}

func TestEditSaveCreatesMatchAndLocksIn(t *testing.T) {
	h := newHarness(t)
	s := h.submittedSessionWithMatch(t)
	h.fake.ResetCalls()

	if err := h.lc.EnterEditMode(h.ctx, s.ID, true); err != nil {
		t.Fatalf("error entering edit mode: %v", err)
	}
	p := payload("Eli", "Fin", "Gus", "Hal", 15, 21)
	p.SessionID = s.ID
	if _, err := h.lc.AddMatch(h.ctx, p); err != nil {
		t.Fatalf("error buffering match: %v", err)
	}
	if err := h.lc.SaveEdit(h.ctx, s.ID); err != nil {
		t.Fatalf("error saving: %v", err)
	}

	// Exactly one create followed by one lock-in.
	expected := []string{
		"POST /api/matches",
		fmt.Sprintf("POST /api/leagues/1/sessions/%d/lock", s.ID),
	}
	if calls := h.fake.Calls(); !reflect.DeepEqual(expected, calls) {
		t.Errorf("unexpected remote calls: %v", calls)
	}

	updated, err := h.store.GetSession(h.ctx, s.ID)
	if err != nil {
		t.Fatalf("error loading session: %v", err)
	}
	if updated.Status != model.StatusEdited {
		t.Errorf("expected EDITED after save, got %s", updated.Status)
	}
	if h.lc.Editing(s.ID) {
		t.Errorf("edit episode still open after a successful save")
	}
}

func TestReconcileOrdering(t *testing.T) {
	h := newHarness(t)

	// Seed a session with two persisted matches, then lock it.
	m1, err := h.lc.AddMatch(h.ctx, payload("Ana", "Bea", "Cam", "Dre", 21, 15))
	if err != nil {
		t.Fatalf("error adding match: %v", err)
	}
	m2, err := h.lc.AddMatch(h.ctx, payload("Eli", "Fin", "Gus", "Hal", 19, 21))
	if err != nil {
		t.Fatalf("error adding match: %v", err)
	}
	if err := h.lc.LockIn(h.ctx, m1.SessionID); err != nil {
		t.Fatalf("error locking in: %v", err)
	}

	// One deletion, one update, one addition with overlapping players.
	b := NewBuffer(m1.SessionID)
	b.DeleteMatch(model.Persisted(m1.ID))
	b.UpdateMatch(model.Persisted(m2.ID), payload("Eli", "Fin", "Gus", "Hal", 23, 21))
	b.AddMatch(payload("Ana", "Fin", "Cam", "Hal", 21, 18))

	h.fake.ResetCalls()
	applied, err := Reconcile(h.ctx, h.store, m1.SessionID, b)
	if err != nil {
		t.Fatalf("error reconciling: %v", err)
	}
	if applied != 3 {
		t.Errorf("expected 3 applied changes, got %d", applied)
	}

	calls := h.fake.Calls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 remote calls, got %v", calls)
	}
	// Deletions, then updates, then additions.
	if !strings.HasPrefix(calls[0], "DELETE /api/matches/") {
		t.Errorf("first call was not the delete: %v", calls)
	}
	if !strings.HasPrefix(calls[1], "PUT /api/matches/") {
		t.Errorf("second call was not the update: %v", calls)
	}
	if calls[2] != "POST /api/matches" {
		t.Errorf("third call was not the create: %v", calls)
	}
}

func TestReconcilePartialFailureStopsAtFirstError(t *testing.T) {
	h := newHarness(t)

	m1, err := h.lc.AddMatch(h.ctx, payload("Ana", "Bea", "Cam", "Dre", 21, 15))
	if err != nil {
		t.Fatalf("error adding match: %v", err)
	}
	if err := h.lc.LockIn(h.ctx, m1.SessionID); err != nil {
		t.Fatalf("error locking in: %v", err)
	}

	b := NewBuffer(m1.SessionID)
	b.DeleteMatch(model.Persisted(m1.ID))
	// This update targets a match that does not exist, so it fails after the
	// delete has already been applied.
	b.UpdateMatch(model.Persisted(9999), payload("Eli", "Fin", "Gus", "Hal", 23, 21))
	b.AddMatch(payload("Ana", "Fin", "Cam", "Hal", 21, 18))

	applied, err := Reconcile(h.ctx, h.store, m1.SessionID, b)
	if err == nil {
		t.Fatalf("expected reconciliation to fail")
	}
	if applied != 1 {
		t.Errorf("expected exactly the delete prefix applied, got %d", applied)
	}

	// The remaining steps were abandoned: no create happened.
	matches, err := h.store.ListMatches(h.ctx, 1)
	if err != nil {
		t.Fatalf("error listing matches: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("addition was applied after a failed step: %v", matches)
	}
}

func TestDeleteActiveSessionCascades(t *testing.T) {
	h := newHarness(t)

	m, err := h.lc.AddMatch(h.ctx, payload("Ana", "Bea", "Cam", "Dre", 21, 15))
	if err != nil {
		t.Fatalf("error adding match: %v", err)
	}

	if err := h.lc.DeleteSession(h.ctx, m.SessionID); err != nil {
		t.Fatalf("error deleting session: %v", err)
	}

	matches, err := h.store.ListMatches(h.ctx, 1)
	if err != nil {
		t.Fatalf("error listing matches: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("session delete did not cascade to matches: %v", matches)
	}

	// Deleting a locked session is rejected.
	s := h.submittedSessionWithMatch(t)
	if err := h.lc.DeleteSession(h.ctx, s.ID); err == nil {
		t.Errorf("expected deleting a locked session to fail")
	}
}
