package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pschwagler/beach-kings-sub003/db"
	"github.com/pschwagler/beach-kings-sub003/model"
	"github.com/pschwagler/beach-kings-sub003/validate"
	"github.com/unrolled/render"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeError(render *render.Render, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, db.ErrMatchNotFound), errors.Is(err, db.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, db.ErrActiveSessionExists), errors.Is(err, db.ErrSessionNotActive):
		status = http.StatusConflict
	case isValidationError(err):
		status = http.StatusBadRequest
	}
	render.JSON(w, status, errorBody{Error: err.Error()})
}

func isValidationError(err error) bool {
	return errors.Is(err, validate.ErrMissingPlayer) ||
		errors.Is(err, validate.ErrDuplicatePlayer) ||
		errors.Is(err, validate.ErrTiedScore) ||
		errors.Is(err, validate.ErrZeroScore) ||
		errors.Is(err, validate.ErrScoreOutOfRange)
}

// actor is the acting user's name, supplied by the (out of scope) auth layer.
func actor(r *http.Request) string {
	if a := r.Header.Get("X-Actor"); a != "" {
		return a
	}
	return "system"
}

func urlID(r *http.Request, name string) (int32, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, err
	}
	return int32(id), nil
}

func listMatchesHandler(database db.DB, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leagueID, err := urlID(r, "leagueID")
		if err != nil {
			render.JSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}

		matches, err := database.ListMatches(r.Context(), leagueID)
		if err != nil {
			writeError(render, w, err)
			return
		}
		render.JSON(w, http.StatusOK, matches)
	}
}

func createMatchHandler(database db.DB, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p model.MatchPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			render.JSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		if err := validate.Payload(&p); err != nil {
			writeError(render, w, err)
			return
		}

		m, err := database.InsertMatch(r.Context(), &p)
		if err != nil {
			writeError(render, w, err)
			return
		}
		render.JSON(w, http.StatusCreated, m)
	}
}

func updateMatchHandler(database db.DB, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "matchID")
		if err != nil {
			render.JSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}

		var p model.MatchPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			render.JSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		if err := validate.Payload(&p); err != nil {
			writeError(render, w, err)
			return
		}

		m, err := database.UpdateMatch(r.Context(), id, &p)
		if err != nil {
			writeError(render, w, err)
			return
		}
		render.JSON(w, http.StatusOK, m)
	}
}

func deleteMatchHandler(database db.DB, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "matchID")
		if err != nil {
			render.JSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}

		if err := database.DeleteMatch(r.Context(), id); err != nil {
			writeError(render, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func getSessionHandler(database db.DB, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "sessionID")
		if err != nil {
			render.JSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}

		s, err := database.GetSession(r.Context(), id)
		if err != nil {
			writeError(render, w, err)
			return
		}
		render.JSON(w, http.StatusOK, s)
	}
}

func activeSessionHandler(database db.DB, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leagueID, err := urlID(r, "leagueID")
		if err != nil {
			render.JSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}

		s, err := database.GetActiveSession(r.Context(), leagueID)
		if err != nil {
			writeError(render, w, err)
			return
		}
		render.JSON(w, http.StatusOK, s)
	}
}

func createSessionHandler(database db.DB, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leagueID, err := urlID(r, "leagueID")
		if err != nil {
			render.JSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}

		var body struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			render.JSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}

		s, err := database.CreateSession(r.Context(), leagueID, body.Name, actor(r))
		if err != nil {
			writeError(render, w, err)
			return
		}
		render.JSON(w, http.StatusCreated, s)
	}
}

func lockSessionHandler(database db.DB, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leagueID, err := urlID(r, "leagueID")
		if err != nil {
			render.JSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		sessionID, err := urlID(r, "sessionID")
		if err != nil {
			render.JSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}

		if err := database.LockInSession(r.Context(), leagueID, sessionID, actor(r)); err != nil {
			writeError(render, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteSessionHandler(database db.DB, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "sessionID")
		if err != nil {
			render.JSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}

		if err := database.DeleteSession(r.Context(), id); err != nil {
			writeError(render, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listRosterHandler(database db.DB, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leagueID, err := urlID(r, "leagueID")
		if err != nil {
			render.JSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}

		players, err := database.ListRoster(r.Context(), leagueID)
		if err != nil {
			writeError(render, w, err)
			return
		}
		render.JSON(w, http.StatusOK, players)
	}
}
