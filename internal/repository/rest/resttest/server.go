// Package resttest provides an in-memory stand-in for the remote data
// service with json-server semantics, for use in tests.
package resttest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// Record is a stored document.
type Record = map[string]interface{}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	data     map[string][]Record
	nextID   int
	hits     map[string]int
	failures map[string][]int
}

// NewServer starts a server that is closed when t finishes.
func NewServer(t testing.TB) *Server {
	s := &Server{
		data:     make(map[string][]Record),
		nextID:   1000,
		hits:     make(map[string]int),
		failures: make(map[string][]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Seed stores records in collection. Records are any JSON-encodable value.
func (s *Server) Seed(collection string, records ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.data[collection] = append(s.data[collection], toRecord(r))
	}
}

// Records returns a copy of collection's contents.
func (s *Server) Records(collection string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0, len(s.data[collection]))
	for _, r := range s.data[collection] {
		out = append(out, copyRecord(r))
	}
	return out
}

// Find returns the record with id in collection, or nil.
func (s *Server) Find(collection, id string) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(collection, id); i >= 0 {
		return copyRecord(s.data[collection][i])
	}
	return nil
}

// Hits counts requests by method and route. Collection routes are keyed by
// name ("doctors"), record routes by name and placeholder ("doctors/:id").
func (s *Server) Hits(method, route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+route]
}

// ResetHits zeroes all request counters.
func (s *Server) ResetHits() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = make(map[string]int)
}

// FailNext makes the next request to route fail with status. Routes are
// keyed as in Hits.
func (s *Server) FailNext(method, route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + route
	s.failures[key] = append(s.failures[key], status)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	collection := parts[0]
	id := ""
	if len(parts) > 1 {
		id = parts[1]
	}

	s.mu.Lock()
	key := r.Method + " " + collection
	if id != "" {
		key += "/:id"
	}
	s.hits[key]++
	if queue := s.failures[key]; len(queue) > 0 {
		status := queue[0]
		s.failures[key] = queue[1:]
		s.mu.Unlock()
		fail(w, status)
		return
	}
	defer s.mu.Unlock()

	if collection == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	switch {
	case r.Method == http.MethodGet && id == "":
		writeJSON(w, http.StatusOK, s.list(collection, r))
	case r.Method == http.MethodGet:
		s.withRecord(w, collection, id, func(i int) {
			writeJSON(w, http.StatusOK, s.data[collection][i])
		})
	case r.Method == http.MethodPost && id == "":
		rec, ok := decode(w, r)
		if !ok {
			return
		}
		if stringify(rec["id"]) == "" {
			s.nextID++
			rec["id"] = strconv.Itoa(s.nextID)
		}
		s.data[collection] = append(s.data[collection], rec)
		writeJSON(w, http.StatusCreated, rec)
	case r.Method == http.MethodPatch:
		s.withRecord(w, collection, id, func(i int) {
			patch, ok := decode(w, r)
			if !ok {
				return
			}
			stored := s.data[collection][i]
			for k, v := range patch {
				if k != "id" {
					stored[k] = v
				}
			}
			writeJSON(w, http.StatusOK, stored)
		})
	case r.Method == http.MethodPut:
		s.withRecord(w, collection, id, func(i int) {
			rec, ok := decode(w, r)
			if !ok {
				return
			}
			rec["id"] = s.data[collection][i]["id"]
			s.data[collection][i] = rec
			writeJSON(w, http.StatusOK, rec)
		})
	case r.Method == http.MethodDelete:
		s.withRecord(w, collection, id, func(i int) {
			recs := s.data[collection]
			s.data[collection] = append(recs[:i:i], recs[i+1:]...)
			writeJSON(w, http.StatusOK, Record{})
		})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) list(collection string, r *http.Request) []Record {
	out := []Record{}
	query := r.URL.Query()
	for _, rec := range s.data[collection] {
		if matches(rec, query) {
			out = append(out, rec)
		}
	}
	return out
}

func (s *Server) withRecord(w http.ResponseWriter, collection, id string, fn func(i int)) {
	i := s.index(collection, id)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, Record{})
		return
	}
	fn(i)
}

func (s *Server) index(collection, id string) int {
	for i, rec := range s.data[collection] {
		if stringify(rec["id"]) == id {
			return i
		}
	}
	return -1
}

func matches(rec Record, query map[string][]string) bool {
	for field, want := range query {
		if strings.HasPrefix(field, "_") || len(want) == 0 {
			continue
		}
		if stringify(rec[field]) != want[0] {
			return false
		}
	}
	return true
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func fail(w http.ResponseWriter, status int) {
	writeJSON(w, status, Record{"error": http.StatusText(status)})
}

func decode(w http.ResponseWriter, r *http.Request) (Record, bool) {
	rec := Record{}
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeJSON(w, http.StatusBadRequest, Record{"error": err.Error()})
		return nil, false
	}
	return rec, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func toRecord(v interface{}) Record {
	if rec, ok := v.(Record); ok {
		return copyRecord(rec)
	}
	buf, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("resttest: cannot encode seed record: %v", err))
	}
	rec := Record{}
	if err := json.Unmarshal(buf, &rec); err != nil {
		panic(fmt.Sprintf("resttest: seed record is not an object: %v", err))
	}
	return rec
}

// copyRecord round-trips through JSON so callers never share nested values.
func copyRecord(rec Record) Record {
	buf, _ := json.Marshal(rec)
	out := Record{}
	_ = json.Unmarshal(buf, &out)
	return out
}
