// Package airtabletest runs an in-memory stand-in for the hosted
// record store, good enough for the filter subset the client actually
// sends. Tests drive the real transport against it over loopback HTTP.
package airtabletest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"moviecenter/proj/internal/storage/airtable"
)

const Token = "test-token"

type record struct {
	id          string
	createdTime time.Time
	fields      map[string]any
}

type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	seq      int
	tables   map[string][]record
	requests map[string]int
	failures map[string]int
}

func New(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		tables:   make(map[string][]record),
		requests: make(map[string]int),
		failures: make(map[string]int),
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *Server) URL() string {
	return s.srv.URL
}

// Client returns a real transport client pointed at the fake.
func (s *Server) Client(t *testing.T) *airtable.Client {
	t.Helper()
	c, err := airtable.New(slog.Default(), s.srv.URL, Token, 5*time.Second, nil)
	if err != nil {
		t.Fatalf("airtabletest: client: %v", err)
	}
	return c
}

// Seed inserts a record directly, bypassing HTTP, and returns its id.
func (s *Server) Seed(table string, fields map[string]any) string {
	return s.SeedAt(table, fields, time.Time{})
}

// SeedAt is Seed with an explicit creation timestamp, for tests that
// depend on creation order.
func (s *Server) SeedAt(table string, fields map[string]any, createdTime time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.insert(table, fields)
	if !createdTime.IsZero() {
		s.tables[table][len(s.tables[table])-1].createdTime = createdTime
		rec.createdTime = createdTime
	}
	return rec.id
}

// Requests reports how many HTTP requests hit the given table,
// regardless of method.
func (s *Server) Requests(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[table]
}

// Fields returns a copy of the stored column values for table/id, or
// nil when the record does not exist. Tests use it to check what a
// write actually persisted, including columns the typed models elide.
func (s *Server) Fields(table, id string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.tables[table] {
		if rec.id != id {
			continue
		}
		out := make(map[string]any, len(rec.fields))
		for k, v := range rec.fields {
			out[k] = v
		}
		return out
	}
	return nil
}

// Count reports how many records the table currently holds.
func (s *Server) Count(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables[table])
}

// FailTable makes every request against the table answer with status.
func (s *Server) FailTable(table string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[table] = status
}

// FailRecord makes single-record requests for table/id answer with
// status, leaving the rest of the table healthy.
func (s *Server) FailRecord(table, id string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[table+"/"+id] = status
}

func (s *Server) insert(table string, fields map[string]any) record {
	s.seq++
	rec := record{
		id:          fmt.Sprintf("rec%06d", s.seq),
		createdTime: time.Unix(1700000000, 0).UTC().Add(time.Duration(s.seq) * time.Second),
		fields:      fields,
	}
	s.tables[table] = append(s.tables[table], rec)
	return rec
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	table, id := splitPath(r.URL.Path)
	if table == "" {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[table]++

	if status := s.failures[table]; status != 0 {
		w.WriteHeader(status)
		return
	}
	if id != "" {
		if status := s.failures[table+"/"+id]; status != 0 {
			w.WriteHeader(status)
			return
		}
	}
	if r.Header.Get("Authorization") != "Bearer "+Token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch {
	case r.Method == http.MethodGet && id == "":
		s.list(w, r, table)
	case r.Method == http.MethodGet:
		s.get(w, table, id)
	case r.Method == http.MethodPost:
		s.create(w, r, table)
	case r.Method == http.MethodPatch:
		s.patch(w, r, table, id)
	case r.Method == http.MethodDelete:
		s.delete(w, table, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func splitPath(path string) (table, id string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch len(parts) {
	case 1:
		return parts[0], ""
	case 2:
		return parts[0], parts[1]
	default:
		return "", ""
	}
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, table string) {
	formula := r.URL.Query().Get("filterByFormula")
	max, _ := strconv.Atoi(r.URL.Query().Get("maxRecords"))
	matched := make([]map[string]any, 0)
	for _, rec := range s.tables[table] {
		if formula != "" && !matches(formula, rec.fields) {
			continue
		}
		matched = append(matched, encodeRecord(rec))
		if max > 0 && len(matched) == max {
			break
		}
	}
	writeJSON(w, map[string]any{"records": matched})
}

func (s *Server) get(w http.ResponseWriter, table, id string) {
	for _, rec := range s.tables[table] {
		if rec.id == id {
			writeJSON(w, encodeRecord(rec))
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, table string) {
	var body struct {
		Fields map[string]any `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}
	rec := s.insert(table, body.Fields)
	writeJSON(w, encodeRecord(rec))
}

func (s *Server) patch(w http.ResponseWriter, r *http.Request, table, id string) {
	var body struct {
		Fields map[string]any `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}
	for i, rec := range s.tables[table] {
		if rec.id != id {
			continue
		}
		for k, v := range body.Fields {
			s.tables[table][i].fields[k] = v
		}
		writeJSON(w, encodeRecord(s.tables[table][i]))
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (s *Server) delete(w http.ResponseWriter, table, id string) {
	for i, rec := range s.tables[table] {
		if rec.id == id {
			s.tables[table] = append(s.tables[table][:i], s.tables[table][i+1:]...)
			writeJSON(w, map[string]any{"deleted": true, "id": id})
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func encodeRecord(rec record) map[string]any {
	return map[string]any{
		"id":          rec.id,
		"createdTime": rec.createdTime.Format(time.RFC3339),
		"fields":      rec.fields,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// matches interprets the filter subset the client renders: field
// equality, LOWER-folded equality, and one level of AND.
func matches(formula string, fields map[string]any) bool {
	if inner, ok := strip(formula, "AND(", ")"); ok {
		for _, clause := range splitTop(inner) {
			if !matches(clause, fields) {
				return false
			}
		}
		return true
	}
	if inner, ok := strip(formula, "LOWER(", ")"); ok {
		// LOWER({field})=LOWER("value")
		left, right, found := strings.Cut(inner, "})=LOWER(\"")
		if !found {
			return false
		}
		field := strings.TrimPrefix(left, "{")
		value := strings.TrimSuffix(right, "\"")
		return strings.EqualFold(fieldString(fields[field]), value)
	}
	// {field}="value"
	left, right, found := strings.Cut(formula, "}=\"")
	if !found {
		return false
	}
	field := strings.TrimPrefix(left, "{")
	value := strings.TrimSuffix(right, "\"")
	return fieldContains(fields[field], value)
}

func strip(s, prefix, suffix string) (string, bool) {
	if strings.HasPrefix(s, prefix) && strings.HasSuffix(s, suffix) {
		return s[len(prefix) : len(s)-len(suffix)], true
	}
	return "", false
}

func splitTop(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func fieldString(v any) string {
	s, _ := v.(string)
	return s
}

// fieldContains treats list-valued fields the way linked-record columns
// behave upstream: equality holds when any element matches.
func fieldContains(v any, want string) bool {
	switch val := v.(type) {
	case string:
		return val == want
	case []any:
		for _, item := range val {
			if fieldString(item) == want {
				return true
			}
		}
	case []string:
		for _, item := range val {
			if item == want {
				return true
			}
		}
	}
	return false
}
