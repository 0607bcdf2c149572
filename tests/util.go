package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/edusync/portal/core"
	"github.com/edusync/portal/core/portal"
)

// CapturedRequest records one request the fake backend received.
type CapturedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
	Token  string // session cookie value, "" when absent
}

// Backend is a scripted stand-in for the school-management server. Each
// route returns a canned envelope; requests are captured for assertions.
// When RequireToken is set, routes other than login return 401 unless the
// session cookie matches.
type Backend struct {
	Server       *httptest.Server
	RequireToken string

	mu        sync.Mutex
	requests  []CapturedRequest
	responses map[string]portal.Envelope
	statuses  map[string]int
}

var backendRoutes = []struct{ method, path string }{
	{http.MethodPost, "/api/parent/login"},
	{http.MethodPost, "/api/parent/logout"},
	{http.MethodPost, "/api/parent/change-password"},
	{http.MethodGet, "/api/parent/children"},
	{http.MethodGet, "/api/parent/student/:id/dashboard"},
	{http.MethodGet, "/api/parent/student/:id/info"},
	{http.MethodGet, "/api/parent/student/:id/grades"},
	{http.MethodGet, "/api/parent/student/:id/attendance"},
	{http.MethodGet, "/api/parent/student/:id/timetable"},
	{http.MethodGet, "/api/parent/student/:id/fees"},
	{http.MethodGet, "/api/parent/student/:id/messages"},
	{http.MethodPost, "/api/parent/student/:id/messages"},
	{http.MethodGet, "/api/parent/student/:id/teachers"},
	{http.MethodGet, "/api/parent/student/:id/reports"},
	{http.MethodGet, "/api/parent/student/:id/reports/:report/download"},
	{http.MethodGet, "/api/parent/student/:id/periods"},
}

func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		responses: make(map[string]portal.Envelope),
		statuses:  make(map[string]int),
	}
	e := echo.New()
	e.HideBanner = true
	for _, r := range backendRoutes {
		e.Add(r.method, r.path, b.handler(r.method+" "+r.path))
	}
	b.Server = httptest.NewServer(e)
	t.Cleanup(b.Server.Close)
	return b
}

// Config returns client configuration pointing at the fake server.
func (b *Backend) Config() *core.Config {
	return &core.Config{
		AppName:        "EduSync Portal",
		Env:            "TEST",
		BaseURL:        b.Server.URL,
		SessionCookie:  "session_id",
		RequestTimeout: 5 * time.Second,
	}
}

// Respond scripts the envelope returned for a route, e.g.
// ("GET", "/api/parent/student/:id/grades", env).
func (b *Backend) Respond(method, route string, env portal.Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responses[method+" "+route] = env
}

// RespondStatus scripts a bare HTTP status for a route (e.g. 401).
func (b *Backend) RespondStatus(method, route string, code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statuses[method+" "+route] = code
}

// Requests returns a copy of all captured requests so far.
func (b *Backend) Requests() []CapturedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]CapturedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

// LastRequest returns the most recent captured request.
func (b *Backend) LastRequest(t *testing.T) CapturedRequest {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		t.Fatal("no requests captured")
	}
	return b.requests[len(b.requests)-1]
}

func (b *Backend) handler(key string) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		body, _ := io.ReadAll(req.Body)

		token := ""
		if ck, err := req.Cookie("session_id"); err == nil {
			token = ck.Value
		}

		b.mu.Lock()
		b.requests = append(b.requests, CapturedRequest{
			Method: req.Method,
			Path:   req.URL.Path,
			Query:  req.URL.Query(),
			Header: req.Header.Clone(),
			Body:   body,
			Token:  token,
		})
		env, ok := b.responses[key]
		code, forced := b.statuses[key]
		required := b.RequireToken
		b.mu.Unlock()

		if forced {
			return c.NoContent(code)
		}
		if required != "" && key != http.MethodPost+" /api/parent/login" && token != required {
			return c.NoContent(http.StatusUnauthorized)
		}
		if !ok {
			return c.JSON(http.StatusOK, portal.Envelope{
				Status:  portal.StatusError,
				Message: "not scripted: " + key,
			})
		}
		return c.JSON(http.StatusOK, env)
	}
}

// MemStore is an in-memory session store for tests.
type MemStore struct {
	mu      sync.Mutex
	token   string
	profile *portal.Profile
}

var _ portal.Store = (*MemStore)(nil)

func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *MemStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemStore) Profile() (portal.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return portal.Profile{}, false
	}
	return *s.profile, true
}

func (s *MemStore) SetProfile(prof portal.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = &prof
	return nil
}

func (s *MemStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.profile = nil
	return nil
}

// NopLogger discards everything.
type NopLogger struct{}

var _ core.Logger = (*NopLogger)(nil)

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}
