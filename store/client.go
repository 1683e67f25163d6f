// Package store is the HTTP client for the remote match store. The engine
// only ever talks to the store through the Client interface so tests can
// substitute a mock or a fake server.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pschwagler/beach-kings-sub003/model"
)

const DefaultURL = "https://api.beachkings.app"

type Client interface {
	ListMatches(ctx context.Context, leagueID int32) ([]model.Match, error)
	CreateMatch(ctx context.Context, p *model.MatchPayload) (*model.Match, error)
	UpdateMatch(ctx context.Context, id int32, p *model.MatchPayload) (*model.Match, error)
	// DeleteMatch is a no-op on the server when the match no longer exists,
	// which keeps reconciliation retries idempotent.
	DeleteMatch(ctx context.Context, id int32) error

	GetSession(ctx context.Context, id int32) (*model.Session, error)
	// GetActiveSession returns (nil, nil) when the league has no active session.
	GetActiveSession(ctx context.Context, leagueID int32) (*model.Session, error)
	CreateSession(ctx context.Context, leagueID int32, name string) (*model.Session, error)
	// LockInSession finalizes a session and triggers rating recalculation.
	LockInSession(ctx context.Context, leagueID, sessionID int32) error
	DeleteSession(ctx context.Context, id int32) error

	ListRoster(ctx context.Context, leagueID int32) ([]model.Player, error)
}

// StoreError is a non-2xx response from the remote store. Detail, when
// present, is a human-readable message suitable to surface to the user.
type StoreError struct {
	StatusCode int
	Detail     string
}

func (e *StoreError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("remote store error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote store error: status %d: %s", e.StatusCode, e.Detail)
}

type client struct {
	url        string
	httpClient *http.Client
}

func New() Client {
	return &client{
		url: DefaultURL,
		httpClient: &http.Client{
			Timeout: 1 * time.Minute,
		},
	}
}

// NewForTest returns a client pointed at a test server.
func NewForTest(url string) Client {
	return &client{
		url:        url,
		httpClient: &http.Client{},
	}
}

func (c *client) ListMatches(ctx context.Context, leagueID int32) ([]model.Match, error) {
	var matches []model.Match
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/leagues/%d/matches", leagueID), nil, &matches)
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func (c *client) CreateMatch(ctx context.Context, p *model.MatchPayload) (*model.Match, error) {
	var m model.Match
	if err := c.do(ctx, http.MethodPost, "/api/matches", p, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *client) UpdateMatch(ctx context.Context, id int32, p *model.MatchPayload) (*model.Match, error) {
	var m model.Match
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/matches/%d", id), p, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *client) DeleteMatch(ctx context.Context, id int32) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/matches/%d", id), nil, nil)
}

func (c *client) GetSession(ctx context.Context, id int32) (*model.Session, error) {
	var s model.Session
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/sessions/%d", id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *client) GetActiveSession(ctx context.Context, leagueID int32) (*model.Session, error) {
	var s model.Session
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/leagues/%d/sessions/active", leagueID), nil, &s)
	if err != nil {
		if se, ok := err.(*StoreError); ok && se.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (c *client) CreateSession(ctx context.Context, leagueID int32, name string) (*model.Session, error) {
	body := struct {
		Name string `json:"name"`
	}{Name: name}

	var s model.Session
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/leagues/%d/sessions", leagueID), body, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *client) LockInSession(ctx context.Context, leagueID, sessionID int32) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/leagues/%d/sessions/%d/lock", leagueID, sessionID), nil, nil)
}

func (c *client) DeleteSession(ctx context.Context, id int32) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/sessions/%d", id), nil, nil)
}

func (c *client) ListRoster(ctx context.Context, leagueID int32) ([]model.Player, error) {
	var players []model.Player
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/leagues/%d/roster", leagueID), nil, &players)
	if err != nil {
		return nil, err
	}
	return players, nil
}

// do runs one JSON round trip. Non-2xx responses become a *StoreError with
// whatever detail message the server included.
func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url+path, reqBody)
	if err != nil {
		return fmt.Errorf("error creating http request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("error parsing response from store: %w", err)
		}
	}
	return nil
}

func readError(resp *http.Response) error {
	var parsed struct {
		Error string `json:"error"`
	}
	// A missing or unparsable body still yields a usable StoreError.
	json.NewDecoder(resp.Body).Decode(&parsed)

	return &StoreError{
		StatusCode: resp.StatusCode,
		Detail:     parsed.Error,
	}
}
