package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// ExportServer is a fake table export endpoint. It serves registered CSV
// bodies by the name query parameter, answers 404 for unknown names and
// records every request.
type ExportServer struct {
	server *httptest.Server

	mu       sync.Mutex
	tables   map[string]string
	statuses map[string]int
	hits     map[string]int
	requests []url.Values
}

// NewExportServer starts a fake export server that is closed with the test.
func NewExportServer(t *testing.T) *ExportServer {
	t.Helper()

	s := &ExportServer{
		tables:   make(map[string]string),
		statuses: make(map[string]int),
		hits:     make(map[string]int),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.server.Close)
	return s
}

// URL returns the export endpoint URL.
func (s *ExportServer) URL() string {
	return s.server.URL + "/api/export/"
}

// Client returns an HTTP client for the server.
func (s *ExportServer) Client() *http.Client {
	return s.server.Client()
}

// AddTable registers the CSV body served for name.
func (s *ExportServer) AddTable(name, csv string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = csv
}

// FailTable makes every request for name answer with status.
func (s *ExportServer) FailTable(name string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[name] = status
}

// Hits returns how many requests asked for name.
func (s *ExportServer) Hits(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[name]
}

// Requests returns the query parameters of every request in arrival order.
func (s *ExportServer) Requests() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.requests...)
}

func (s *ExportServer) handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("name")

	s.mu.Lock()
	s.hits[name]++
	s.requests = append(s.requests, q)
	status, failing := s.statuses[name]
	body, found := s.tables[name]
	s.mu.Unlock()

	switch {
	case failing:
		http.Error(w, http.StatusText(status), status)
	case !found:
		http.NotFound(w, r)
	default:
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(body))
	}
}
