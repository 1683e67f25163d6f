package model

import (
	"fmt"
	"time"
)

type SessionStatus string

const (
	StatusActive    SessionStatus = "ACTIVE"
	StatusSubmitted SessionStatus = "SUBMITTED"
	StatusEdited    SessionStatus = "EDITED"
)

func ParseSessionStatus(s string) (SessionStatus, error) {
	switch SessionStatus(s) {
	case StatusActive, StatusSubmitted, StatusEdited:
		return SessionStatus(s), nil
	default:
		return "", fmt.Errorf("unknown session status: %s", s)
	}
}

// Session groups the matches logged in one sitting. At most one session per
// league is ACTIVE at a time; the status only advances through lock-in.
type Session struct {
	ID        int32         `json:"id"`
	LeagueID  int32         `json:"leagueId"`
	Name      string        `json:"name"`
	Status    SessionStatus `json:"status"`
	CreatedBy string        `json:"createdBy,omitempty"`
	UpdatedBy string        `json:"updatedBy,omitempty"`
	Created   time.Time     `json:"created"`
	Updated   time.Time     `json:"updated"`
}
