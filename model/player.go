package model

import "strings"

// Player is one roster entry for a league. Nickname is optional; when set it
// is preferred as the display name everywhere in the product.
type Player struct {
	ID       int32  `json:"playerId"`
	FullName string `json:"fullName"`
	Nickname string `json:"nickname,omitempty"`
}

// DisplayName returns the nickname when present, else the full name.
func (p *Player) DisplayName() string {
	if n := strings.TrimSpace(p.Nickname); n != "" {
		return n
	}
	return p.FullName
}
