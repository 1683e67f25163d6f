package engine

import (
	"reflect"
	"testing"
	"time"

	"github.com/pschwagler/beach-kings-sub003/model"
)

var ledgerEpoch = time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)

func authoritative() ([]model.Match, map[int32]model.Session) {
	matches := []model.Match{
		{ID: 1, LeagueID: 1, SessionID: 10, Date: ledgerEpoch,
			Team1Player1: "Ana", Team1Player2: "Bea", Team2Player1: "Cam", Team2Player2: "Dre",
			Team1Score: 21, Team2Score: 15, Winner: model.WinnerTeam1},
		{ID: 2, LeagueID: 1, SessionID: 10, Date: ledgerEpoch,
			Team1Player1: "Eli", Team1Player2: "Fin", Team2Player1: "Gus", Team2Player2: "Hal",
			Team1Score: 19, Team2Score: 21, Winner: model.WinnerTeam2},
		// A legacy match from before sessions existed.
		{ID: 3, LeagueID: 1, Date: ledgerEpoch.Add(-90 * 24 * time.Hour),
			Team1Player1: "Ana", Team2Player1: "Cam",
			Team1Score: 21, Team2Score: 12, Winner: model.WinnerTeam1},
	}
	sessions := map[int32]model.Session{
		10: {ID: 10, LeagueID: 1, Name: "Jun 1", Status: model.StatusSubmitted, Created: ledgerEpoch},
	}
	return matches, sessions
}

func TestMaterializeNoBuffers(t *testing.T) {
	matches, sessions := authoritative()

	groups := Materialize(matches, sessions, nil)

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	// Most recent group first.
	if groups[0].SessionID != 10 || groups[0].Name != "Jun 1" {
		t.Errorf("unexpected first group: %+v", groups[0])
	}
	if groups[1].SessionID != 0 {
		t.Errorf("expected the legacy date group second: %+v", groups[1])
	}

	// Within the session group, newest match first.
	if id, _ := groups[0].Rows[0].Ref.PersistedID(); id != 2 {
		t.Errorf("expected match 2 first, got %s", groups[0].Rows[0].Ref)
	}
}

func TestMaterializeIsPure(t *testing.T) {
	matches, sessions := authoritative()
	b := NewBuffer(10)
	b.AddMatch(payload("Ana", "Bea", "Cam", "Dre", 21, 18))
	b.DeleteMatch(model.Persisted(1))
	buffers := map[int32]*Buffer{10: b}

	first := Materialize(matches, sessions, buffers)
	second := Materialize(matches, sessions, buffers)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("two runs over identical inputs produced different views")
	}
}

func TestMaterializeAppliesBuffer(t *testing.T) {
	matches, sessions := authoritative()
	b := NewBuffer(10)
	b.DeleteMatch(model.Persisted(1))
	b.UpdateMatch(model.Persisted(2), payload("Eli", "Fin", "Gus", "Hal", 25, 23))
	b.AddMatch(payload("Ana", "Dre", "Bea", "Cam", 21, 10))

	groups := Materialize(matches, sessions, map[int32]*Buffer{10: b})

	g := groups[0]
	if g.SessionID != 10 || !g.Editing {
		t.Fatalf("unexpected group: %+v", g)
	}
	if len(g.Rows) != 2 {
		t.Fatalf("expected deleted match gone and addition present, got %d rows", len(g.Rows))
	}

	// Pending rows sort as newest.
	if !g.Rows[0].Ref.IsPending() {
		t.Errorf("expected the pending row first, got %s", g.Rows[0].Ref)
	}
	if g.Rows[0].Match.Winner != model.WinnerTeam1 {
		t.Errorf("pending row winner not derived: %s", g.Rows[0].Match.Winner)
	}
	if g.Rows[0].Match.SessionID != 10 {
		t.Errorf("pending row did not inherit the session id: %d", g.Rows[0].Match.SessionID)
	}

	// The update replaced scores and re-derived the winner but kept identity.
	updated := g.Rows[1]
	if id, _ := updated.Ref.PersistedID(); id != 2 {
		t.Fatalf("expected match 2, got %s", updated.Ref)
	}
	if updated.Match.Team1Score != 25 || updated.Match.Winner != model.WinnerTeam1 {
		t.Errorf("update not applied: %+v", updated.Match)
	}
	if updated.Match.ID != 2 || updated.Match.SessionID != 10 {
		t.Errorf("update clobbered identity or session metadata: %+v", updated.Match)
	}
}

func TestMaterializeDeletedPendingLeavesNoTrace(t *testing.T) {
	matches, sessions := authoritative()
	b := NewBuffer(10)
	ref := b.AddMatch(payload("Ana", "Dre", "Bea", "Cam", 21, 10))
	b.DeleteMatch(ref)

	groups := Materialize(matches, sessions, map[int32]*Buffer{10: b})

	for _, g := range groups {
		for _, row := range g.Rows {
			if row.Ref.IsPending() {
				t.Errorf("deleted pending match still visible in group %d: %s", g.SessionID, row.Ref)
			}
		}
	}
}

func TestMaterializeEmptyEditedGroupSurvives(t *testing.T) {
	matches, _ := authoritative()
	b := NewBuffer(10)
	b.DeleteMatch(model.Persisted(1))
	b.DeleteMatch(model.Persisted(2))

	// The snapshot captured at enterEditMode stands in for session metadata.
	snapshot := map[int32]model.Session{
		10: {ID: 10, LeagueID: 1, Name: "Jun 1", Status: model.StatusSubmitted, Created: ledgerEpoch},
	}

	groups := Materialize(matches, snapshot, map[int32]*Buffer{10: b})

	var found *Group
	for i := range groups {
		if groups[i].SessionID == 10 {
			found = &groups[i]
		}
	}
	if found == nil {
		t.Fatalf("session group vanished mid-edit")
	}
	if len(found.Rows) != 0 {
		t.Errorf("expected an empty group, got %d rows", len(found.Rows))
	}
	if found.Name != "Jun 1" || found.Status != model.StatusSubmitted || !found.Editing {
		t.Errorf("empty group lost its snapshot metadata: %+v", found)
	}
}

func TestMaterializePollDoesNotDropBufferedEdits(t *testing.T) {
	matches, sessions := authoritative()
	b := NewBuffer(10)
	b.AddMatch(payload("Ana", "Dre", "Bea", "Cam", 21, 10))
	buffers := map[int32]*Buffer{10: b}

	// A background poll delivers a fresh authoritative list with a new match.
	polled := append([]model.Match{}, matches...)
	polled = append(polled, model.Match{
		ID: 4, LeagueID: 1, SessionID: 10, Date: ledgerEpoch,
		Team1Player1: "Ivy", Team1Player2: "Jay", Team2Player1: "Kim", Team2Player2: "Lou",
		Team1Score: 21, Team2Score: 17, Winner: model.WinnerTeam1,
	})

	groups := Materialize(polled, sessions, buffers)

	g := groups[0]
	pending, persisted := 0, 0
	for _, row := range g.Rows {
		if row.Ref.IsPending() {
			pending++
		} else {
			persisted++
		}
	}
	if pending != 1 {
		t.Errorf("buffered addition lost across a poll tick: %d pending rows", pending)
	}
	if persisted != 3 {
		t.Errorf("expected 3 persisted rows after the poll, got %d", persisted)
	}
}
