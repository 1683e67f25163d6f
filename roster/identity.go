// Package roster builds the name<->id lookups used when editing matches.
// Match records store display names, so resolving them back to player ids has
// to survive nickname changes: a record written before a player picked a
// nickname still shows the full name.
package roster

import (
	"sort"

	"github.com/pschwagler/beach-kings-sub003/model"
)

// IdentityMap is an ephemeral bidirectional lookup over one league roster.
// Rebuild it whenever the roster data changes.
type IdentityMap struct {
	nameToID map[string]int32
	idToName map[int32]string
	names    []string
}

// NewIdentityMap indexes the roster by display name. The display name is the
// nickname when present, else the full name. When a nickname exists the full
// name is also offered as a selectable alias for the same id, so historical
// records that stored the full name resolve and can be re-picked.
func NewIdentityMap(players []model.Player) *IdentityMap {
	m := &IdentityMap{
		nameToID: make(map[string]int32, len(players)*2),
		idToName: make(map[int32]string, len(players)),
		names:    make([]string, 0, len(players)),
	}

	for i := range players {
		p := &players[i]
		display := p.DisplayName()
		m.nameToID[display] = p.ID
		m.idToName[p.ID] = display
		m.names = append(m.names, display)

		if display != p.FullName && p.FullName != "" {
			m.nameToID[p.FullName] = p.ID
			m.names = append(m.names, p.FullName)
		}
	}
	sort.Strings(m.names)

	return m
}

// ID resolves a display name or full-name alias to a player id. Unknown
// names return 0; callers treat that as an unmapped free-text placeholder,
// not an error.
func (m *IdentityMap) ID(name string) int32 {
	return m.nameToID[name]
}

// DisplayName returns the current display name for a player id, or "" when
// the id is not on the roster.
func (m *IdentityMap) DisplayName(id int32) string {
	return m.idToName[id]
}

// SelectableNames returns the sorted names offered by the player pickers:
// every display name plus the full-name alias of each nicknamed player.
func (m *IdentityMap) SelectableNames() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}
