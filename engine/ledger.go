package engine

import (
	"sort"
	"time"

	"github.com/pschwagler/beach-kings-sub003/model"
	"github.com/pschwagler/beach-kings-sub003/validate"
)

// Row is one display line of the materialized view. Pending rows carry a
// zero Match.ID; the ref is the only identity they have.
type Row struct {
	Ref   model.MatchRef
	Match model.Match
}

// Group is one session bucket, or one date bucket for legacy matches logged
// before sessions existed.
type Group struct {
	SessionID int32 // 0 for date groups
	Name      string
	Status    model.SessionStatus
	Editing   bool
	SortTime  time.Time
	Rows      []Row
}

const legacyGroupNameFormat = "Jan 2, 2006"

// Materialize merges the authoritative match list with every open buffer and
// produces the grouped view the display layer renders. It is a pure function
// of its inputs: a background poll replaces the authoritative list without
// touching any buffer, so re-materializing never loses unsaved edits.
//
// sessions supplies the metadata for session groups. For a session in edit
// mode the caller passes the snapshot captured when edit mode was entered, so
// the group survives even when every one of its matches has been deleted -
// the user still needs to see the session to save or cancel.
func Materialize(matches []model.Match, sessions map[int32]model.Session, buffers map[int32]*Buffer) []Group {
	session := make(map[int32]*Group)
	legacy := make(map[time.Time]*Group)
	order := make([]*Group, 0, len(sessions)+1)

	groupFor := func(m *model.Match) *Group {
		if m.SessionID > 0 {
			if g, ok := session[m.SessionID]; ok {
				return g
			}
			g := newSessionGroup(m.SessionID, sessions, buffers)
			session[m.SessionID] = g
			order = append(order, g)
			return g
		}

		day := m.Date.Truncate(24 * time.Hour)
		if g, ok := legacy[day]; ok {
			return g
		}
		g := &Group{
			Name:     day.Format(legacyGroupNameFormat),
			SortTime: day,
		}
		legacy[day] = g
		order = append(order, g)
		return g
	}

	for i := range matches {
		m := matches[i]
		if b, ok := buffers[m.SessionID]; ok && m.SessionID > 0 {
			if b.IsDeleted(m.ID) {
				continue
			}
			if p, ok := b.Update(m.ID); ok {
				applyPayload(&m, &p)
			}
		}
		g := groupFor(&m)
		g.Rows = append(g.Rows, Row{Ref: model.Persisted(m.ID), Match: m})
	}

	// Queued additions, plus empty groups for sessions whose every match is
	// gone but which are still being edited. Buffers are visited in session
	// order so the output is deterministic.
	sids := make([]int32, 0, len(buffers))
	for sid := range buffers {
		sids = append(sids, sid)
	}
	sort.Slice(sids, func(i, j int) bool { return sids[i] < sids[j] })

	for _, sid := range sids {
		b := buffers[sid]
		g, ok := session[sid]
		if !ok {
			g = newSessionGroup(sid, sessions, buffers)
			session[sid] = g
			order = append(order, g)
		}
		for idx, p := range b.Additions() {
			g.Rows = append(g.Rows, Row{
				Ref:   model.Pending(sid, idx),
				Match: pendingMatch(sid, &p),
			})
		}
	}

	for _, g := range order {
		sortRows(g.Rows)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].SortTime.After(order[j].SortTime)
	})

	out := make([]Group, len(order))
	for i, g := range order {
		out[i] = *g
	}
	return out
}

func newSessionGroup(sid int32, sessions map[int32]model.Session, buffers map[int32]*Buffer) *Group {
	_, editing := buffers[sid]
	g := &Group{SessionID: sid, Editing: editing}
	if s, ok := sessions[sid]; ok {
		g.Name = s.Name
		g.Status = s.Status
		g.SortTime = s.Created
	}
	return g
}

// applyPayload replaces the mutable fields of a record with a queued update,
// leaving identity and session metadata intact.
func applyPayload(m *model.Match, p *model.MatchPayload) {
	m.Team1Player1 = p.Team1Player1
	m.Team1Player2 = p.Team1Player2
	m.Team2Player1 = p.Team2Player1
	m.Team2Player2 = p.Team2Player2
	m.Team1Score = p.Team1Score
	m.Team2Score = p.Team2Score
	m.Winner = validate.DeriveWinner(p.Team1Score, p.Team2Score)
}

// pendingMatch builds the display record for a queued addition. It inherits
// the session's metadata and derives the winner locally; rating deltas do not
// exist until the store has seen the match.
func pendingMatch(sid int32, p *model.MatchPayload) model.Match {
	return model.Match{
		LeagueID:     p.LeagueID,
		SessionID:    sid,
		Date:         p.Date,
		Team1Player1: p.Team1Player1,
		Team1Player2: p.Team1Player2,
		Team2Player1: p.Team2Player1,
		Team2Player2: p.Team2Player2,
		Team1Score:   p.Team1Score,
		Team2Score:   p.Team2Score,
		Winner:       validate.DeriveWinner(p.Team1Score, p.Team2Score),
	}
}

// sortRows orders a group newest-first: pending rows before persisted ones,
// later additions before earlier ones, then descending persisted id.
func sortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Ref, rows[j].Ref
		_, _, aPending := a.PendingSlot()
		_, _, bPending := b.PendingSlot()
		if aPending != bPending {
			return aPending
		}
		if aPending {
			_, ai, _ := a.PendingSlot()
			_, bi, _ := b.PendingSlot()
			return ai > bi
		}
		aid, _ := a.PersistedID()
		bid, _ := b.PersistedID()
		return aid > bid
	})
}
