package testutils

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/itbasis/go-clock"
	"github.com/pschwagler/beach-kings-sub003/db"
	"github.com/pschwagler/beach-kings-sub003/ratings"
	"github.com/pschwagler/beach-kings-sub003/web"
)

// FakeStoreServer runs the real match-store routes over an in-memory DB and
// records every write call it sees, so tests can assert on the exact
// remote-call sequence.
type FakeStoreServer struct {
	DB    db.DB
	Clock *clock.Mock

	s  *httptest.Server
	mu sync.Mutex
	// calls like "DELETE /api/matches/5", in arrival order
	calls []string
}

func NewFakeStoreServer() *FakeStoreServer {
	mock := clock.NewMock()
	f := &FakeStoreServer{
		DB:    db.NewMemory(mock, ratings.NewMargin()),
		Clock: mock,
	}

	router := web.Router(f.DB)
	f.s = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			f.mu.Lock()
			f.calls = append(f.calls, fmt.Sprintf("%s %s", r.Method, r.URL.Path))
			f.mu.Unlock()
		}
		router.ServeHTTP(w, r)
	}))
	return f
}

func (f *FakeStoreServer) Close() {
	f.s.Close()
}

func (f *FakeStoreServer) URL() string {
	return f.s.URL
}

// Calls returns the non-GET requests seen so far, oldest first.
func (f *FakeStoreServer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// ResetCalls clears the recorded call log.
func (f *FakeStoreServer) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
