package model

import (
	"fmt"
	"time"
)

type Winner string

const (
	WinnerTeam1 Winner = "Team 1"
	WinnerTeam2 Winner = "Team 2"
	WinnerTie   Winner = "Tie"
)

// MatchRef identifies a match either by its persisted id or, for a match
// that only exists inside an edit buffer, by its (session, buffer index)
// slot. The zero value is not a valid ref.
type MatchRef struct {
	kind      refKind
	id        int32
	sessionID int32
	index     int
}

type refKind int

const (
	refInvalid refKind = iota
	refPersisted
	refPending
)

func Persisted(id int32) MatchRef {
	return MatchRef{kind: refPersisted, id: id}
}

func Pending(sessionID int32, index int) MatchRef {
	return MatchRef{kind: refPending, sessionID: sessionID, index: index}
}

func (r MatchRef) IsValid() bool {
	return r.kind != refInvalid
}

func (r MatchRef) IsPending() bool {
	return r.kind == refPending
}

// PersistedID returns the remote store id and true when the ref points at a
// persisted match.
func (r MatchRef) PersistedID() (int32, bool) {
	if r.kind != refPersisted {
		return 0, false
	}
	return r.id, true
}

// PendingSlot returns the (sessionID, additions index) pair for a pending ref.
func (r MatchRef) PendingSlot() (int32, int, bool) {
	if r.kind != refPending {
		return 0, 0, false
	}
	return r.sessionID, r.index, true
}

// String is only meant for display keys and log lines. Pending refs keep the
// historical pending-{session}-{index} form so view keys stay stable.
func (r MatchRef) String() string {
	switch r.kind {
	case refPersisted:
		return fmt.Sprintf("%d", r.id)
	case refPending:
		return fmt.Sprintf("pending-%d-%d", r.sessionID, r.index)
	default:
		return "invalid"
	}
}

// Match is one completed game result as reported by the remote store.
// SessionID is 0 for legacy matches logged before sessions existed.
// Player2 slots are empty for singles matches.
type Match struct {
	ID           int32     `json:"id"`
	LeagueID     int32     `json:"leagueId"`
	SessionID    int32     `json:"sessionId,omitempty"`
	Date         time.Time `json:"date"`
	Team1Player1 string    `json:"team1Player1"`
	Team1Player2 string    `json:"team1Player2,omitempty"`
	Team2Player1 string    `json:"team2Player1"`
	Team2Player2 string    `json:"team2Player2,omitempty"`
	Team1Score   int32     `json:"team1Score"`
	Team2Score   int32     `json:"team2Score"`
	Winner       Winner    `json:"winner"`
	Team1Delta   float64   `json:"team1Delta"`
	Team2Delta   float64   `json:"team2Delta"`
	Created      time.Time `json:"created"`
}

// MatchPayload carries the mutable fields of a match for create and update
// calls. Identity, winner derivation and rating deltas stay server-side.
type MatchPayload struct {
	LeagueID     int32     `json:"leagueId"`
	SessionID    int32     `json:"sessionId,omitempty"`
	Date         time.Time `json:"date"`
	Team1Player1 string    `json:"team1Player1"`
	Team1Player2 string    `json:"team1Player2,omitempty"`
	Team2Player1 string    `json:"team2Player1"`
	Team2Player2 string    `json:"team2Player2,omitempty"`
	Team1Score   int32     `json:"team1Score"`
	Team2Score   int32     `json:"team2Score"`
}

// Slots returns the four player slots in a fixed order.
func (p *MatchPayload) Slots() [4]string {
	return [4]string{p.Team1Player1, p.Team1Player2, p.Team2Player1, p.Team2Player2}
}
