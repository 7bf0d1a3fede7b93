package taiga

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

// fakeTaiga is a minimal in-process Taiga API.
type fakeTaiga struct {
	t      *testing.T
	server *httptest.Server

	authCalls   atomic.Int32
	authDelay   time.Duration
	authStatus  int
	rejectToken atomic.Bool // respond 401 to the next authenticated request

	mu          sync.Mutex
	tokenSerial int
	lastPayload map[string]any
	requests    []string
}

func newFakeTaiga(t *testing.T) *fakeTaiga {
	t.Helper()
	f := &fakeTaiga{t: t}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", f.handleAuth)
	mux.HandleFunc("GET /projects/by_slug", f.authed(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("slug") != "team-board" {
			writeJSON(w, http.StatusNotFound, map[string]string{"_error_message": "No Project matches the given query."})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": 7, "name": "Team board", "slug": "team-board"})
	}))
	mux.HandleFunc("GET /userstories", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "ref": 1, "subject": "Fix login bug", "status": 3, "project": 7},
			{"id": 2, "ref": 2, "subject": "Billing export", "status": 3, "project": 7},
		})
	}))
	mux.HandleFunc("GET /tasks", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 10, "subject": "Write tests", "user_story": 1, "status": 5, "project": 7},
		})
	}))
	mux.HandleFunc("GET /userstory-statuses", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 3, "name": "New", "order": 1}, {"id": 4, "name": "Done", "order": 2}})
	}))
	mux.HandleFunc("GET /task-statuses", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{})
	}))
	mux.HandleFunc("GET /priorities", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "name": "Low", "order": 1}, {"id": 2, "name": "High", "order": 3}})
	}))
	mux.HandleFunc("POST /userstories", f.authed(f.handleCreate(100)))
	mux.HandleFunc("POST /tasks", f.authed(f.handleCreate(200)))
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeTaiga) client(mutate func(*Config)) *Client {
	f.t.Helper()
	cfg := Config{
		BaseURL:     f.server.URL,
		ProjectSlug: "team-board",
		Username:    "bot",
		Password:    "secret",
		Timeout:     2 * time.Second,
		HTTPClient:  f.server.Client(),
		Logger:      zaptest.NewLogger(f.t),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := NewClient(cfg)
	if err != nil {
		f.t.Fatalf("NewClient: %v", err)
	}
	return c
}

func (f *fakeTaiga) handleAuth(w http.ResponseWriter, r *http.Request) {
	f.authCalls.Add(1)
	if f.authDelay > 0 {
		time.Sleep(f.authDelay)
	}
	if f.authStatus != 0 {
		writeJSON(w, f.authStatus, map[string]string{"_error_message": "No active account found with the given credentials."})
		return
	}
	var body authRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Type != "normal" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"_error_message": "bad auth body"})
		return
	}
	f.mu.Lock()
	f.tokenSerial++
	token := "token-" + string(rune('0'+f.tokenSerial))
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"auth_token": token})
}

func (f *fakeTaiga) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.mu.Unlock()
		if r.Header.Get("Authorization") == "" || f.rejectToken.CompareAndSwap(true, false) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token"})
			return
		}
		next(w, r)
	}
}

func (f *fakeTaiga) handleCreate(id int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"_error_message": err.Error()})
			return
		}
		f.mu.Lock()
		f.lastPayload = payload
		f.mu.Unlock()
		payload["id"] = id
		writeJSON(w, http.StatusCreated, payload)
	}
}

func (f *fakeTaiga) payload() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPayload
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
