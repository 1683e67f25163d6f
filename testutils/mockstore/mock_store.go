package mockstore

import (
	"context"

	"github.com/pschwagler/beach-kings-sub003/model"
	"github.com/stretchr/testify/mock"
)

// Store is a testify mock of store.Client for lifecycle unit tests.
type Store struct {
	mock.Mock
}

func (s *Store) ListMatches(ctx context.Context, leagueID int32) ([]model.Match, error) {
	args := s.Called(ctx, leagueID)

	var m []model.Match
	if args.Get(0) != nil {
		m = args.Get(0).([]model.Match)
	}
	return m, args.Error(1)
}

func (s *Store) CreateMatch(ctx context.Context, p *model.MatchPayload) (*model.Match, error) {
	args := s.Called(ctx, p)

	var m *model.Match
	if args.Get(0) != nil {
		m = args.Get(0).(*model.Match)
	}
	return m, args.Error(1)
}

func (s *Store) UpdateMatch(ctx context.Context, id int32, p *model.MatchPayload) (*model.Match, error) {
	args := s.Called(ctx, id, p)

	var m *model.Match
	if args.Get(0) != nil {
		m = args.Get(0).(*model.Match)
	}
	return m, args.Error(1)
}

func (s *Store) DeleteMatch(ctx context.Context, id int32) error {
	args := s.Called(ctx, id)
	return args.Error(0)
}

func (s *Store) GetSession(ctx context.Context, id int32) (*model.Session, error) {
	args := s.Called(ctx, id)

	var sess *model.Session
	if args.Get(0) != nil {
		sess = args.Get(0).(*model.Session)
	}
	return sess, args.Error(1)
}

func (s *Store) GetActiveSession(ctx context.Context, leagueID int32) (*model.Session, error) {
	args := s.Called(ctx, leagueID)

	var sess *model.Session
	if args.Get(0) != nil {
		sess = args.Get(0).(*model.Session)
	}
	return sess, args.Error(1)
}

func (s *Store) CreateSession(ctx context.Context, leagueID int32, name string) (*model.Session, error) {
	args := s.Called(ctx, leagueID, name)

	var sess *model.Session
	if args.Get(0) != nil {
		sess = args.Get(0).(*model.Session)
	}
	return sess, args.Error(1)
}

func (s *Store) LockInSession(ctx context.Context, leagueID, sessionID int32) error {
	args := s.Called(ctx, leagueID, sessionID)
	return args.Error(0)
}

func (s *Store) DeleteSession(ctx context.Context, id int32) error {
	args := s.Called(ctx, id)
	return args.Error(0)
}

func (s *Store) ListRoster(ctx context.Context, leagueID int32) ([]model.Player, error) {
	args := s.Called(ctx, leagueID)

	var players []model.Player
	if args.Get(0) != nil {
		players = args.Get(0).([]model.Player)
	}
	return players, args.Error(1)
}
