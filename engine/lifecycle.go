package engine

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/itbasis/go-clock"
	"github.com/pschwagler/beach-kings-sub003/model"
	"github.com/pschwagler/beach-kings-sub003/store"
	"github.com/pschwagler/beach-kings-sub003/validate"
)

var (
	ErrNotAdmin       = errors.New("only a league admin can edit a locked session")
	ErrNotEditable    = errors.New("only a submitted session can be edited")
	ErrAlreadyEditing = errors.New("session is already being edited")
	ErrNotEditing     = errors.New("session is not in edit mode")
	ErrNotActive      = errors.New("session is not the active session")
	ErrNoSession      = errors.New("session not found")
)

const sessionNameFormat = "Jan 2"

// Lifecycle governs one league's sessions: which session is accepting
// matches, who may open a locked session for editing, and how buffered edits
// get saved back. All calls happen from the single writer that owns the
// league view; background polling only re-reads the store and feeds
// Materialize, it never touches the edit registry.
type Lifecycle struct {
	leagueID int32
	clock    clock.Clock
	store    store.Client

	edits map[int32]*editEpisode
}

type editEpisode struct {
	buffer   *Buffer
	snapshot model.Session
}

func NewLifecycle(leagueID int32, clock clock.Clock, store store.Client) *Lifecycle {
	return &Lifecycle{
		leagueID: leagueID,
		clock:    clock,
		store:    store,
		edits:    make(map[int32]*editEpisode),
	}
}

// CreateOrReuseActive returns the league's active session, creating one dated
// today when none exists. Adding the first match of a sitting is what
// normally lands here.
func (lc *Lifecycle) CreateOrReuseActive(ctx context.Context) (*model.Session, error) {
	s, err := lc.store.GetActiveSession(ctx, lc.leagueID)
	if err != nil {
		return nil, fmt.Errorf("error looking up active session: %w", err)
	}
	if s != nil {
		return s, nil
	}

	name := lc.clock.Now().Format(sessionNameFormat)
	s, err = lc.store.CreateSession(ctx, lc.leagueID, name)
	if err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}
	return s, nil
}

// AddMatch validates and logs a match. When the target session is in edit
// mode the match is only queued in its buffer and (nil, nil) is returned; the
// caller re-materializes the view to show it. Otherwise the match goes
// straight to the store against the active session.
func (lc *Lifecycle) AddMatch(ctx context.Context, p model.MatchPayload) (*model.Match, error) {
	if err := validate.Payload(&p); err != nil {
		return nil, err
	}
	p.LeagueID = lc.leagueID
	if p.Date.IsZero() {
		p.Date = lc.clock.Now()
	}

	if ep, ok := lc.edits[p.SessionID]; ok {
		ep.buffer.AddMatch(p)
		return nil, nil
	}

	s, err := lc.CreateOrReuseActive(ctx)
	if err != nil {
		return nil, err
	}

	p.SessionID = s.ID
	return lc.store.CreateMatch(ctx, &p)
}

// UpdateMatch validates and applies an edit, buffering it when the session is
// in edit mode.
func (lc *Lifecycle) UpdateMatch(ctx context.Context, ref model.MatchRef, p model.MatchPayload) (*model.Match, error) {
	if err := validate.Payload(&p); err != nil {
		return nil, err
	}
	p.LeagueID = lc.leagueID

	if ep, ok := lc.edits[p.SessionID]; ok {
		ep.buffer.UpdateMatch(ref, p)
		return nil, nil
	}

	id, ok := ref.PersistedID()
	if !ok {
		// A pending ref outside edit mode is a caller bug.
		return nil, fmt.Errorf("cannot update unpersisted match %s outside edit mode", ref)
	}
	return lc.store.UpdateMatch(ctx, id, &p)
}

// DeleteMatch removes a match, buffering the deletion when the session is in
// edit mode. Deleting a pending match never touches the store.
func (lc *Lifecycle) DeleteMatch(ctx context.Context, sessionID int32, ref model.MatchRef) error {
	if ep, ok := lc.edits[sessionID]; ok {
		ep.buffer.DeleteMatch(ref)
		return nil
	}

	id, ok := ref.PersistedID()
	if !ok {
		return fmt.Errorf("cannot delete unpersisted match %s outside edit mode", ref)
	}
	return lc.store.DeleteMatch(ctx, id)
}

// LockIn finalizes the active session, triggering rating recalculation on
// the store.
func (lc *Lifecycle) LockIn(ctx context.Context, sessionID int32) error {
	s, err := lc.store.GetActiveSession(ctx, lc.leagueID)
	if err != nil {
		return fmt.Errorf("error looking up active session: %w", err)
	}
	if s == nil || s.ID != sessionID {
		return ErrNotActive
	}
	return lc.store.LockInSession(ctx, lc.leagueID, sessionID)
}

// DeleteSession removes the active session and all of its matches.
func (lc *Lifecycle) DeleteSession(ctx context.Context, sessionID int32) error {
	s, err := lc.store.GetActiveSession(ctx, lc.leagueID)
	if err != nil {
		return fmt.Errorf("error looking up active session: %w", err)
	}
	if s == nil || s.ID != sessionID {
		return ErrNotActive
	}
	return lc.store.DeleteSession(ctx, sessionID)
}

// EnterEditMode opens an already-locked session for buffered editing. Only a
// league admin may edit, only SUBMITTED or EDITED sessions qualify, and a
// session can have at most one open episode. The session metadata is
// snapshotted so the view can keep showing the group even if every match in
// it gets deleted mid-edit.
func (lc *Lifecycle) EnterEditMode(ctx context.Context, sessionID int32, isAdmin bool) error {
	if !isAdmin {
		return ErrNotAdmin
	}
	if _, ok := lc.edits[sessionID]; ok {
		return ErrAlreadyEditing
	}

	s, err := lc.store.GetSession(ctx, sessionID)
	if err != nil {
		var se *store.StoreError
		if errors.As(err, &se) && se.StatusCode == 404 {
			return ErrNoSession
		}
		return fmt.Errorf("error looking up session: %w", err)
	}
	if s.Status != model.StatusSubmitted && s.Status != model.StatusEdited {
		return ErrNotEditable
	}

	lc.edits[sessionID] = &editEpisode{
		buffer:   NewBuffer(sessionID),
		snapshot: *s,
	}
	return nil
}

// CancelEdit discards the buffer and snapshot. No remote effect.
func (lc *Lifecycle) CancelEdit(sessionID int32) error {
	if _, ok := lc.edits[sessionID]; !ok {
		return ErrNotEditing
	}
	delete(lc.edits, sessionID)
	return nil
}

// SaveEdit reconciles the session's buffer against the store and then locks
// the session in, which triggers rating recalculation. The buffer is only
// cleared after lock-in succeeds; on any failure the episode stays open so
// the user can retry without re-entering the edits.
func (lc *Lifecycle) SaveEdit(ctx context.Context, sessionID int32) error {
	ep, ok := lc.edits[sessionID]
	if !ok {
		return ErrNotEditing
	}

	applied, err := Reconcile(ctx, lc.store, sessionID, ep.buffer)
	if err != nil {
		log.Printf("reconciliation of session %d stopped after %d applied changes: %v", sessionID, applied, err)
		return fmt.Errorf("error saving session: %w", err)
	}

	if err := lc.store.LockInSession(ctx, lc.leagueID, sessionID); err != nil {
		return fmt.Errorf("error locking in session: %w", err)
	}

	delete(lc.edits, sessionID)
	return nil
}

// Editing reports whether the session has an open edit episode.
func (lc *Lifecycle) Editing(sessionID int32) bool {
	_, ok := lc.edits[sessionID]
	return ok
}

// Buffers returns the open buffers keyed by session id, for Materialize.
func (lc *Lifecycle) Buffers() map[int32]*Buffer {
	out := make(map[int32]*Buffer, len(lc.edits))
	for sid, ep := range lc.edits {
		out[sid] = ep.buffer
	}
	return out
}

// Snapshots returns the session metadata captured when each open episode
// started, for Materialize's empty-group synthesis.
func (lc *Lifecycle) Snapshots() map[int32]model.Session {
	out := make(map[int32]model.Session, len(lc.edits))
	for sid, ep := range lc.edits {
		out[sid] = ep.snapshot
	}
	return out
}
