package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/itbasis/go-clock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pschwagler/beach-kings-sub003/model"
	"github.com/pschwagler/beach-kings-sub003/ratings"
	"github.com/pschwagler/beach-kings-sub003/validate"
)

func New(ctx context.Context, connString string, clock clock.Clock, recalc ratings.Recalculator) (DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &postgresDB{pool: pool, clock: clock, recalc: recalc}, nil
}

type postgresDB struct {
	pool   *pgxpool.Pool
	clock  clock.Clock
	recalc ratings.Recalculator
}

const matchColumns = `id, league_id, session_id, match_date,
			team1_player1, team1_player2, team2_player1, team2_player2,
			team1_score, team2_score, winner, team1_delta, team2_delta, created`

func (db *postgresDB) ListMatches(ctx context.Context, leagueID int32) ([]model.Match, error) {
	query := fmt.Sprintf(`SELECT %s FROM matches WHERE league_id=@leagueID ORDER BY id DESC`, matchColumns)

	rows, err := db.pool.Query(ctx, query, pgx.NamedArgs{"leagueID": leagueID})
	if err != nil {
		return nil, fmt.Errorf("error listing matches: %w", err)
	}
	defer rows.Close()

	results := make([]model.Match, 0, 16)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *m)
	}
	return results, nil
}

func (db *postgresDB) GetMatch(ctx context.Context, id int32) (*model.Match, error) {
	query := fmt.Sprintf(`SELECT %s FROM matches WHERE id=@id`, matchColumns)

	rows, err := db.pool.Query(ctx, query, pgx.NamedArgs{"id": id})
	if err != nil {
		return nil, fmt.Errorf("error looking up match %d: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrMatchNotFound
	}
	return scanMatch(rows)
}

func (db *postgresDB) InsertMatch(ctx context.Context, p *model.MatchPayload) (*model.Match, error) {
	const query = `INSERT INTO matches
			(league_id, session_id, match_date,
			 team1_player1, team1_player2, team2_player1, team2_player2,
			 team1_score, team2_score, winner, created)
			VALUES (@leagueID, @sessionID, @date,
			 @t1p1, @t1p2, @t2p1, @t2p2,
			 @score1, @score2, @winner, @created)
			RETURNING id`

	args := matchArgs(p)
	args["created"] = db.clock.Now().UTC()

	var id int32
	if err := db.pool.QueryRow(ctx, query, args).Scan(&id); err != nil {
		return nil, fmt.Errorf("error inserting match: %w", err)
	}
	return db.GetMatch(ctx, id)
}

func (db *postgresDB) UpdateMatch(ctx context.Context, id int32, p *model.MatchPayload) (*model.Match, error) {
	const query = `UPDATE matches SET
			match_date=@date,
			team1_player1=@t1p1, team1_player2=@t1p2,
			team2_player1=@t2p1, team2_player2=@t2p2,
			team1_score=@score1, team2_score=@score2, winner=@winner
			WHERE id=@id`

	args := matchArgs(p)
	args["id"] = id

	tag, err := db.pool.Exec(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("error updating match %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrMatchNotFound
	}
	return db.GetMatch(ctx, id)
}

func (db *postgresDB) DeleteMatch(ctx context.Context, id int32) error {
	// Deleting a match that is already gone is deliberately not an error.
	_, err := db.pool.Exec(ctx, `DELETE FROM matches WHERE id=@id`, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("error deleting match %d: %w", id, err)
	}
	return nil
}

const sessionColumns = `id, league_id, name, status, created_by, updated_by, created, updated`

func (db *postgresDB) GetSession(ctx context.Context, id int32) (*model.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE id=@id`, sessionColumns)

	rows, err := db.pool.Query(ctx, query, pgx.NamedArgs{"id": id})
	if err != nil {
		return nil, fmt.Errorf("error looking up session %d: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrSessionNotFound
	}
	return scanSession(rows)
}

func (db *postgresDB) GetActiveSession(ctx context.Context, leagueID int32) (*model.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE league_id=@leagueID AND status=@status`, sessionColumns)

	rows, err := db.pool.Query(ctx, query, pgx.NamedArgs{"leagueID": leagueID, "status": string(model.StatusActive)})
	if err != nil {
		return nil, fmt.Errorf("error looking up active session: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrSessionNotFound
	}
	return scanSession(rows)
}

func (db *postgresDB) CreateSession(ctx context.Context, leagueID int32, name, actor string) (*model.Session, error) {
	if _, err := db.GetActiveSession(ctx, leagueID); err == nil {
		return nil, ErrActiveSessionExists
	} else if !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}

	const query = `INSERT INTO sessions (league_id, name, status, created_by, updated_by, created, updated)
			VALUES (@leagueID, @name, @status, @actor, @actor, @now, @now)
			RETURNING id`

	now := db.clock.Now().UTC()
	args := pgx.NamedArgs{
		"leagueID": leagueID,
		"name":     name,
		"status":   string(model.StatusActive),
		"actor":    actor,
		"now":      now,
	}

	var id int32
	if err := db.pool.QueryRow(ctx, query, args).Scan(&id); err != nil {
		return nil, fmt.Errorf("error inserting session: %w", err)
	}
	return db.GetSession(ctx, id)
}

func (db *postgresDB) LockInSession(ctx context.Context, leagueID, sessionID int32, actor string) error {
	s, err := db.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if s.LeagueID != leagueID {
		return ErrSessionNotFound
	}

	// First lock-in of an active session submits it; a later save from edit
	// mode marks it edited.
	next := model.StatusEdited
	if s.Status == model.StatusActive {
		next = model.StatusSubmitted
	}

	matches, err := db.sessionMatches(ctx, sessionID)
	if err != nil {
		return err
	}
	deltas := db.recalc.Deltas(matches)

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting lock-in transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for id, d := range deltas {
		_, err := tx.Exec(ctx, `UPDATE matches SET team1_delta=@d1, team2_delta=@d2 WHERE id=@id`,
			pgx.NamedArgs{"id": id, "d1": d[0], "d2": d[1]})
		if err != nil {
			return fmt.Errorf("error saving deltas for match %d: %w", id, err)
		}
	}

	_, err = tx.Exec(ctx, `UPDATE sessions SET status=@status, updated_by=@actor, updated=@now WHERE id=@id`,
		pgx.NamedArgs{
			"id":     sessionID,
			"status": string(next),
			"actor":  actor,
			"now":    db.clock.Now().UTC(),
		})
	if err != nil {
		return fmt.Errorf("error updating session %d: %w", sessionID, err)
	}

	return tx.Commit(ctx)
}

func (db *postgresDB) DeleteSession(ctx context.Context, id int32) error {
	s, err := db.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if s.Status != model.StatusActive {
		return ErrSessionNotActive
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting delete transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM matches WHERE session_id=@id`, pgx.NamedArgs{"id": id}); err != nil {
		return fmt.Errorf("error deleting matches for session %d: %w", id, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE id=@id`, pgx.NamedArgs{"id": id}); err != nil {
		return fmt.Errorf("error deleting session %d: %w", id, err)
	}

	return tx.Commit(ctx)
}

func (db *postgresDB) ListRoster(ctx context.Context, leagueID int32) ([]model.Player, error) {
	const query = `SELECT id, name_full, nickname FROM players WHERE league_id=@leagueID ORDER BY name_full`

	rows, err := db.pool.Query(ctx, query, pgx.NamedArgs{"leagueID": leagueID})
	if err != nil {
		return nil, fmt.Errorf("error listing roster: %w", err)
	}
	defer rows.Close()

	results := make([]model.Player, 0, 16)
	for rows.Next() {
		var p model.Player
		var nickname pgtype.Text
		if err := rows.Scan(&p.ID, &p.FullName, &nickname); err != nil {
			return nil, fmt.Errorf("error scanning player: %w", err)
		}
		p.Nickname = nickname.String
		results = append(results, p)
	}
	return results, nil
}

func (db *postgresDB) SavePlayer(ctx context.Context, leagueID int32, p *model.Player) error {
	const query = `INSERT INTO players (league_id, name_full, nickname)
			VALUES (@leagueID, @fullName, @nickname)
			RETURNING id`

	args := pgx.NamedArgs{
		"leagueID": leagueID,
		"fullName": p.FullName,
		"nickname": textOrNull(p.Nickname),
	}
	if err := db.pool.QueryRow(ctx, query, args).Scan(&p.ID); err != nil {
		return fmt.Errorf("error inserting player: %w", err)
	}
	return nil
}

func (db *postgresDB) sessionMatches(ctx context.Context, sessionID int32) ([]model.Match, error) {
	query := fmt.Sprintf(`SELECT %s FROM matches WHERE session_id=@sessionID ORDER BY id`, matchColumns)

	rows, err := db.pool.Query(ctx, query, pgx.NamedArgs{"sessionID": sessionID})
	if err != nil {
		return nil, fmt.Errorf("error listing session matches: %w", err)
	}
	defer rows.Close()

	results := make([]model.Match, 0, 16)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *m)
	}
	return results, nil
}

func matchArgs(p *model.MatchPayload) pgx.NamedArgs {
	return pgx.NamedArgs{
		"leagueID":  p.LeagueID,
		"sessionID": int4OrNull(p.SessionID),
		"date":      p.Date,
		"t1p1":      p.Team1Player1,
		"t1p2":      textOrNull(p.Team1Player2),
		"t2p1":      p.Team2Player1,
		"t2p2":      textOrNull(p.Team2Player2),
		"score1":    p.Team1Score,
		"score2":    p.Team2Score,
		"winner":    string(validate.DeriveWinner(p.Team1Score, p.Team2Score)),
	}
}

func scanMatch(row pgx.Row) (*model.Match, error) {
	var m model.Match
	var sessionID pgtype.Int4
	var t1p2, t2p2 pgtype.Text
	var winner string
	var d1, d2 pgtype.Float8

	err := row.Scan(&m.ID, &m.LeagueID, &sessionID, &m.Date,
		&m.Team1Player1, &t1p2, &m.Team2Player1, &t2p2,
		&m.Team1Score, &m.Team2Score, &winner, &d1, &d2, &m.Created)
	if err != nil {
		return nil, fmt.Errorf("error scanning match: %w", err)
	}

	m.SessionID = sessionID.Int32
	m.Team1Player2 = t1p2.String
	m.Team2Player2 = t2p2.String
	m.Winner = model.Winner(winner)
	m.Team1Delta = d1.Float64
	m.Team2Delta = d2.Float64
	return &m, nil
}

func scanSession(row pgx.Row) (*model.Session, error) {
	var s model.Session
	var status string
	var createdBy, updatedBy pgtype.Text

	err := row.Scan(&s.ID, &s.LeagueID, &s.Name, &status, &createdBy, &updatedBy, &s.Created, &s.Updated)
	if err != nil {
		return nil, fmt.Errorf("error scanning session: %w", err)
	}

	parsed, err := model.ParseSessionStatus(status)
	if err != nil {
		return nil, err
	}
	s.Status = parsed
	s.CreatedBy = createdBy.String
	s.UpdatedBy = updatedBy.String
	return &s, nil
}

func textOrNull(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func int4OrNull(i int32) pgtype.Int4 {
	return pgtype.Int4{Int32: i, Valid: i != 0}
}
