// Package validate holds the pure match validation and derivation rules.
// Both the inline form checks and the pre-submit gating go through here, so
// nothing in this package may touch the network or any session state.
package validate

import (
	"errors"
	"strings"

	"github.com/pschwagler/beach-kings-sub003/model"
)

var (
	ErrMissingPlayer   = errors.New("missing player")
	ErrDuplicatePlayer = errors.New("the same player cannot fill two slots")
	ErrTiedScore       = errors.New("scores cannot be tied - there must be a winner")
	ErrZeroScore       = errors.New("at least one team must score")
	ErrScoreOutOfRange = errors.New("scores must be between 0 and 99")
)

// FormatScore normalizes raw score input: non-digits are stripped, the result
// is truncated to two digits and left-padded with a zero. Empty input
// normalizes to "00". FormatScore is idempotent.
func FormatScore(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == 2 {
				break
			}
		}
	}
	switch b.Len() {
	case 0:
		return "00"
	case 1:
		return "0" + b.String()
	default:
		return b.String()
	}
}

func DeriveWinner(score1, score2 int32) model.Winner {
	switch {
	case score1 > score2:
		return model.WinnerTeam1
	case score2 > score1:
		return model.WinnerTeam2
	default:
		return model.WinnerTie
	}
}

// Roster checks the four player slots of a doubles match: all slots must be
// filled and, when filled, pairwise distinct.
func Roster(slots [4]string) error {
	for i, s := range slots {
		slots[i] = strings.TrimSpace(s)
		if slots[i] == "" {
			return ErrMissingPlayer
		}
	}
	for i := 0; i < len(slots); i++ {
		for j := i + 1; j < len(slots); j++ {
			if slots[i] == slots[j] {
				return ErrDuplicatePlayer
			}
		}
	}
	return nil
}

// Scores rejects tied scores and the double-zero result outright; a match
// always has a winner.
func Scores(score1, score2 int32) error {
	if score1 < 0 || score1 > 99 || score2 < 0 || score2 > 99 {
		return ErrScoreOutOfRange
	}
	if score1 == score2 {
		if score1 == 0 {
			return ErrZeroScore
		}
		return ErrTiedScore
	}
	return nil
}

// Payload runs the full pre-submit gate over a match payload.
func Payload(p *model.MatchPayload) error {
	if err := Roster(p.Slots()); err != nil {
		return err
	}
	return Scores(p.Team1Score, p.Team2Score)
}
