// Package engine implements the session editing engine: the pending-change
// buffer accumulated during an edit-mode episode, the pure ledger that merges
// buffers over the authoritative match list, the session lifecycle state
// machine, and the reconciliation pass that replays a buffer against the
// remote store.
package engine

import (
	"sort"

	"github.com/pschwagler/beach-kings-sub003/model"
)

// Buffer collects the tentative edits of one edit-mode episode on one
// session. It lives entirely in memory, is never persisted, and is discarded
// wholesale on cancel. All methods are to be called from the single writer
// that owns the episode.
type Buffer struct {
	sessionID int32
	deletions map[int32]struct{}
	updates   map[int32]model.MatchPayload
	additions []model.MatchPayload
}

func NewBuffer(sessionID int32) *Buffer {
	return &Buffer{
		sessionID: sessionID,
		deletions: make(map[int32]struct{}),
		updates:   make(map[int32]model.MatchPayload),
	}
}

func (b *Buffer) SessionID() int32 {
	return b.sessionID
}

// AddMatch queues a brand-new match. It gains a pending ref
// (sessionID, index) until reconciliation creates it on the store.
func (b *Buffer) AddMatch(p model.MatchPayload) model.MatchRef {
	p.SessionID = b.sessionID
	b.additions = append(b.additions, p)
	return model.Pending(b.sessionID, len(b.additions)-1)
}

// UpdateMatch records an edit. Updating a pending ref rewrites the queued
// addition in place; a pending ref that no longer resolves degrades to a new
// addition rather than failing. Updating a persisted match overwrites any
// earlier update for the same id and cancels a pending delete of it - last
// writer wins.
func (b *Buffer) UpdateMatch(ref model.MatchRef, p model.MatchPayload) {
	p.SessionID = b.sessionID

	if sid, idx, ok := ref.PendingSlot(); ok {
		if sid == b.sessionID && idx >= 0 && idx < len(b.additions) {
			b.additions[idx] = p
		} else {
			b.additions = append(b.additions, p)
		}
		return
	}

	if id, ok := ref.PersistedID(); ok {
		b.updates[id] = p
		delete(b.deletions, id)
	}
}

// DeleteMatch queues a deletion. Deleting a pending ref just drops the
// queued addition; there is nothing on the server to delete. Deleting a
// persisted match discards any pending update for it. Re-deleting is a no-op.
func (b *Buffer) DeleteMatch(ref model.MatchRef) {
	if sid, idx, ok := ref.PendingSlot(); ok {
		if sid == b.sessionID && idx >= 0 && idx < len(b.additions) {
			b.additions = append(b.additions[:idx], b.additions[idx+1:]...)
		}
		return
	}

	if id, ok := ref.PersistedID(); ok {
		delete(b.updates, id)
		b.deletions[id] = struct{}{}
	}
}

// Empty reports whether the buffer holds no edits at all.
func (b *Buffer) Empty() bool {
	return len(b.deletions) == 0 && len(b.updates) == 0 && len(b.additions) == 0
}

// Len is the number of queued operations.
func (b *Buffer) Len() int {
	return len(b.deletions) + len(b.updates) + len(b.additions)
}

// Deletions returns the queued deletion ids in ascending order.
func (b *Buffer) Deletions() []int32 {
	ids := make([]int32, 0, len(b.deletions))
	for id := range b.deletions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IsDeleted reports whether a persisted match id has a queued deletion.
func (b *Buffer) IsDeleted(id int32) bool {
	_, ok := b.deletions[id]
	return ok
}

// Update returns the queued update payload for a persisted match id.
func (b *Buffer) Update(id int32) (model.MatchPayload, bool) {
	p, ok := b.updates[id]
	return p, ok
}

// UpdatedIDs returns the ids with queued updates in ascending order.
func (b *Buffer) UpdatedIDs() []int32 {
	ids := make([]int32, 0, len(b.updates))
	for id := range b.updates {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Additions returns a copy of the queued additions in insertion order.
func (b *Buffer) Additions() []model.MatchPayload {
	out := make([]model.MatchPayload, len(b.additions))
	copy(out, b.additions)
	return out
}
