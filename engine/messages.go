package engine

import (
	"errors"

	"github.com/pschwagler/beach-kings-sub003/store"
)

// Messages shown when a remote operation fails and the store gave no detail.
const (
	MsgSubmitFailed        = "Failed to submit scores"
	MsgSaveSessionFailed   = "Failed to save session"
	MsgDeleteMatchFailed   = "Failed to delete match"
	MsgDeleteSessionFailed = "Failed to delete session"
)

// UserMessage turns an operation failure into the dismissible message the
// display layer shows. A detail string from the store wins over the fallback.
func UserMessage(err error, fallback string) string {
	var se *store.StoreError
	if errors.As(err, &se) && se.Detail != "" {
		return se.Detail
	}
	return fallback
}
