package engine

import (
	"context"
	"fmt"

	"github.com/pschwagler/beach-kings-sub003/store"
)

// Reconcile replays a buffer against the remote store in a fixed order:
// deletions, then updates, then additions. Deletions go first so a replaced
// match never collides with the record it supersedes; additions go last so
// newly created ids exist before any subsequent read. Calls run one at a
// time, so a failure leaves a deterministic prefix of applied changes.
//
// Reconcile returns how many changes were applied. It does not roll back an
// applied prefix on failure; every step is idempotent on the store (updates
// by id, deletes of missing matches tolerated as no-ops), so the caller can
// simply retry with the same buffer.
func Reconcile(ctx context.Context, st store.Client, sessionID int32, b *Buffer) (int, error) {
	applied := 0

	for _, id := range b.Deletions() {
		if err := st.DeleteMatch(ctx, id); err != nil {
			return applied, fmt.Errorf("error deleting match %d: %w", id, err)
		}
		applied++
	}

	for _, id := range b.UpdatedIDs() {
		p, _ := b.Update(id)
		if _, err := st.UpdateMatch(ctx, id, &p); err != nil {
			return applied, fmt.Errorf("error updating match %d: %w", id, err)
		}
		applied++
	}

	for i, p := range b.Additions() {
		p.SessionID = sessionID
		if _, err := st.CreateMatch(ctx, &p); err != nil {
			return applied, fmt.Errorf("error creating match %d of %d: %w", i+1, len(b.Additions()), err)
		}
		applied++
	}

	return applied, nil
}
