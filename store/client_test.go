package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pschwagler/beach-kings-sub003/model"
	"github.com/pschwagler/beach-kings-sub003/testutils"
)

func newTestClient(t *testing.T) (Client, *testutils.FakeStoreServer) {
	t.Helper()
	fake := testutils.NewFakeStoreServer()
	t.Cleanup(fake.Close)
	fake.Clock.Set(time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC))
	return NewForTest(fake.URL()), fake
}

func validPayload(sessionID int32) *model.MatchPayload {
	return &model.MatchPayload{
		LeagueID:     1,
		SessionID:    sessionID,
		Date:         time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC),
		Team1Player1: "Ana", Team1Player2: "Bea",
		Team2Player1: "Cam", Team2Player2: "Dre",
		Team1Score: 21, Team2Score: 15,
	}
}

func TestMatchRoundTrip(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	s, err := c.CreateSession(ctx, 1, "Jun 1")
	if err != nil {
		t.Fatalf("error creating session: %v", err)
	}

	m, err := c.CreateMatch(ctx, validPayload(s.ID))
	if err != nil {
		t.Fatalf("error creating match: %v", err)
	}
	if m.ID == 0 || m.Winner != model.WinnerTeam1 {
		t.Errorf("unexpected match: %+v", m)
	}

	p := validPayload(s.ID)
	p.Team2Score = 23
	updated, err := c.UpdateMatch(ctx, m.ID, p)
	if err != nil {
		t.Fatalf("error updating match: %v", err)
	}
	if updated.Winner != model.WinnerTeam2 {
		t.Errorf("winner not re-derived on update: %+v", updated)
	}

	matches, err := c.ListMatches(ctx, 1)
	if err != nil {
		t.Fatalf("error listing matches: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != m.ID {
		t.Errorf("unexpected match list: %v", matches)
	}

	if err := c.DeleteMatch(ctx, m.ID); err != nil {
		t.Fatalf("error deleting match: %v", err)
	}
	// Deleting again is tolerated as a no-op.
	if err := c.DeleteMatch(ctx, m.ID); err != nil {
		t.Errorf("re-delete was not a no-op: %v", err)
	}
}

func TestGetActiveSessionWhenNoneExists(t *testing.T) {
	c, _ := newTestClient(t)

	s, err := c.GetActiveSession(context.Background(), 1)
	if err != nil {
		t.Fatalf("expected no error for a missing active session, got %v", err)
	}
	if s != nil {
		t.Errorf("expected nil session, got %+v", s)
	}
}

func TestStoreErrorCarriesDetail(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	p := validPayload(0)
	p.Team2Score = p.Team1Score // tie, rejected server-side too

	_, err := c.CreateMatch(ctx, p)
	if err == nil {
		t.Fatalf("expected an error for a tied score")
	}

	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected a StoreError, got %T: %v", err, err)
	}
	if se.StatusCode != 400 {
		t.Errorf("expected status 400, got %d", se.StatusCode)
	}
	if se.Detail == "" {
		t.Errorf("expected a detail message")
	}
}

func TestLockInAdvancesStatus(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	s, err := c.CreateSession(ctx, 1, "Jun 1")
	if err != nil {
		t.Fatalf("error creating session: %v", err)
	}
	if _, err := c.CreateMatch(ctx, validPayload(s.ID)); err != nil {
		t.Fatalf("error creating match: %v", err)
	}

	if err := c.LockInSession(ctx, 1, s.ID); err != nil {
		t.Fatalf("error locking in: %v", err)
	}

	locked, err := c.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("error loading session: %v", err)
	}
	if locked.Status != model.StatusSubmitted {
		t.Errorf("expected SUBMITTED, got %s", locked.Status)
	}
}

func TestListRoster(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	players := []model.Player{
		{FullName: "Ana Alvarez", Nickname: "Ana"},
		{FullName: "Beatriz Costa"},
	}
	for i := range players {
		if err := fake.DB.SavePlayer(ctx, 1, &players[i]); err != nil {
			t.Fatalf("error seeding player: %v", err)
		}
	}

	roster, err := c.ListRoster(ctx, 1)
	if err != nil {
		t.Fatalf("error listing roster: %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("expected 2 players, got %d", len(roster))
	}
	if roster[0].FullName != "Ana Alvarez" || roster[0].Nickname != "Ana" {
		t.Errorf("unexpected roster entry: %+v", roster[0])
	}
}
