// Package ratings defines the recalculation hook that runs when a session is
// locked in. The real rating model lives outside this repo; the store only
// needs something that hands back per-team deltas for the session's matches.
package ratings

import "github.com/pschwagler/beach-kings-sub003/model"

// Recalculator produces the per-team rating deltas for a batch of matches.
// Implementations must be deterministic for a given input batch.
type Recalculator interface {
	// Deltas returns (team1 delta, team2 delta) keyed by match id.
	Deltas(matches []model.Match) map[int32][2]float64
}

// Margin is the default recalculator: a flat stake scaled by score margin.
// It is a stand-in so lock-in always produces deltas; swap in the real model
// via DI.
type Margin struct {
	Stake float64
}

func NewMargin() *Margin {
	return &Margin{Stake: 10}
}

func (r *Margin) Deltas(matches []model.Match) map[int32][2]float64 {
	out := make(map[int32][2]float64, len(matches))
	for i := range matches {
		m := &matches[i]
		diff := m.Team1Score - m.Team2Score
		if diff < 0 {
			diff = -diff
		}
		d := r.Stake * (1 + float64(diff)/21)
		switch m.Winner {
		case model.WinnerTeam1:
			out[m.ID] = [2]float64{d, -d}
		case model.WinnerTeam2:
			out[m.ID] = [2]float64{-d, d}
		default:
			out[m.ID] = [2]float64{0, 0}
		}
	}
	return out
}
