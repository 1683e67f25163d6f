package db

import (
	"context"
	"errors"

	"github.com/pschwagler/beach-kings-sub003/model"
)

var (
	ErrMatchNotFound       = errors.New("match not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrActiveSessionExists = errors.New("league already has an active session")
	ErrSessionNotActive    = errors.New("session is not active")
)

// DB is the store server's persistence. Matches are derived-on-write: the
// winner column is computed from the scores, never supplied by the caller.
type DB interface {
	ListMatches(ctx context.Context, leagueID int32) ([]model.Match, error)
	GetMatch(ctx context.Context, id int32) (*model.Match, error)
	InsertMatch(ctx context.Context, p *model.MatchPayload) (*model.Match, error)
	UpdateMatch(ctx context.Context, id int32, p *model.MatchPayload) (*model.Match, error)
	// DeleteMatch of an id that no longer exists returns nil. Reconciliation
	// retries depend on this being a no-op.
	DeleteMatch(ctx context.Context, id int32) error

	GetSession(ctx context.Context, id int32) (*model.Session, error)
	// GetActiveSession returns ErrSessionNotFound when the league has no
	// active session.
	GetActiveSession(ctx context.Context, leagueID int32) (*model.Session, error)
	CreateSession(ctx context.Context, leagueID int32, name, actor string) (*model.Session, error)
	// LockInSession advances the session's status (ACTIVE becomes SUBMITTED,
	// an edited save becomes EDITED), recalculates rating deltas for the
	// session's matches, and stamps the acting user.
	LockInSession(ctx context.Context, leagueID, sessionID int32, actor string) error
	// DeleteSession removes an active session and cascades to its matches.
	DeleteSession(ctx context.Context, id int32) error

	ListRoster(ctx context.Context, leagueID int32) ([]model.Player, error)
	SavePlayer(ctx context.Context, leagueID int32, p *model.Player) error
}
