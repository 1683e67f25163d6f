package db

import (
	"context"
	"sort"
	"sync"

	"github.com/itbasis/go-clock"
	"github.com/pschwagler/beach-kings-sub003/model"
	"github.com/pschwagler/beach-kings-sub003/ratings"
	"github.com/pschwagler/beach-kings-sub003/validate"
)

// memoryDB is an in-memory DB with the same semantics as the postgres
// implementation. It backs the fake store server in tests and is handy for
// local development without a database.
type memoryDB struct {
	mu       sync.Mutex
	clock    clock.Clock
	recalc   ratings.Recalculator
	nextID   int32
	matches  map[int32]model.Match
	sessions map[int32]model.Session
	players  map[int32][]model.Player // leagueID -> roster
}

func NewMemory(clock clock.Clock, recalc ratings.Recalculator) DB {
	return &memoryDB{
		clock:    clock,
		recalc:   recalc,
		nextID:   1,
		matches:  make(map[int32]model.Match),
		sessions: make(map[int32]model.Session),
		players:  make(map[int32][]model.Player),
	}
}

func (d *memoryDB) id() int32 {
	id := d.nextID
	d.nextID++
	return id
}

func (d *memoryDB) ListMatches(ctx context.Context, leagueID int32) ([]model.Match, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]model.Match, 0, len(d.matches))
	for _, m := range d.matches {
		if m.LeagueID == leagueID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (d *memoryDB) GetMatch(ctx context.Context, id int32) (*model.Match, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	m, ok := d.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return &m, nil
}

func (d *memoryDB) InsertMatch(ctx context.Context, p *model.MatchPayload) (*model.Match, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	m := model.Match{
		ID:           d.id(),
		LeagueID:     p.LeagueID,
		SessionID:    p.SessionID,
		Date:         p.Date,
		Team1Player1: p.Team1Player1,
		Team1Player2: p.Team1Player2,
		Team2Player1: p.Team2Player1,
		Team2Player2: p.Team2Player2,
		Team1Score:   p.Team1Score,
		Team2Score:   p.Team2Score,
		Winner:       validate.DeriveWinner(p.Team1Score, p.Team2Score),
		Created:      d.clock.Now().UTC(),
	}
	d.matches[m.ID] = m
	return &m, nil
}

func (d *memoryDB) UpdateMatch(ctx context.Context, id int32, p *model.MatchPayload) (*model.Match, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	m, ok := d.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	m.Date = p.Date
	m.Team1Player1 = p.Team1Player1
	m.Team1Player2 = p.Team1Player2
	m.Team2Player1 = p.Team2Player1
	m.Team2Player2 = p.Team2Player2
	m.Team1Score = p.Team1Score
	m.Team2Score = p.Team2Score
	m.Winner = validate.DeriveWinner(p.Team1Score, p.Team2Score)
	d.matches[id] = m
	return &m, nil
}

func (d *memoryDB) DeleteMatch(ctx context.Context, id int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Deleting a missing match is a no-op, same as postgres.
	delete(d.matches, id)
	return nil
}

func (d *memoryDB) GetSession(ctx context.Context, id int32) (*model.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (d *memoryDB) GetActiveSession(ctx context.Context, leagueID int32) (*model.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, s := range d.sessions {
		if s.LeagueID == leagueID && s.Status == model.StatusActive {
			return &s, nil
		}
	}
	return nil, ErrSessionNotFound
}

func (d *memoryDB) CreateSession(ctx context.Context, leagueID int32, name, actor string) (*model.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, s := range d.sessions {
		if s.LeagueID == leagueID && s.Status == model.StatusActive {
			return nil, ErrActiveSessionExists
		}
	}

	now := d.clock.Now().UTC()
	s := model.Session{
		ID:        d.id(),
		LeagueID:  leagueID,
		Name:      name,
		Status:    model.StatusActive,
		CreatedBy: actor,
		UpdatedBy: actor,
		Created:   now,
		Updated:   now,
	}
	d.sessions[s.ID] = s
	return &s, nil
}

func (d *memoryDB) LockInSession(ctx context.Context, leagueID, sessionID int32, actor string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.sessions[sessionID]
	if !ok || s.LeagueID != leagueID {
		return ErrSessionNotFound
	}

	var sessionMatches []model.Match
	for _, m := range d.matches {
		if m.SessionID == sessionID {
			sessionMatches = append(sessionMatches, m)
		}
	}
	for id, deltas := range d.recalc.Deltas(sessionMatches) {
		m := d.matches[id]
		m.Team1Delta = deltas[0]
		m.Team2Delta = deltas[1]
		d.matches[id] = m
	}

	if s.Status == model.StatusActive {
		s.Status = model.StatusSubmitted
	} else {
		s.Status = model.StatusEdited
	}
	s.UpdatedBy = actor
	s.Updated = d.clock.Now().UTC()
	d.sessions[sessionID] = s
	return nil
}

func (d *memoryDB) DeleteSession(ctx context.Context, id int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if s.Status != model.StatusActive {
		return ErrSessionNotActive
	}

	for mid, m := range d.matches {
		if m.SessionID == id {
			delete(d.matches, mid)
		}
	}
	delete(d.sessions, id)
	return nil
}

func (d *memoryDB) ListRoster(ctx context.Context, leagueID int32) ([]model.Player, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]model.Player, len(d.players[leagueID]))
	copy(out, d.players[leagueID])
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (d *memoryDB) SavePlayer(ctx context.Context, leagueID int32, p *model.Player) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p.ID = d.id()
	d.players[leagueID] = append(d.players[leagueID], *p)
	return nil
}
