package memory

import (
	"context"
	"fmt"
	"sync"

	"aytam/internal/export"
	"aytam/internal/report"
)

// Store collects written documents in memory. Used in tests and when no
// spreadsheet is configured.
type Store struct {
	mu   sync.Mutex
	docs []Written
}

type Written struct {
	Title string
	Rows  [][]string
}

func New() *Store {
	return &Store{}
}

var _ export.Sink = (*Store)(nil)

// Write stores the document and returns a synthetic reference.
func (s *Store) Write(_ context.Context, doc report.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, Written{Title: doc.Title(), Rows: doc.Rows()})
	return fmt.Sprintf("mem:%d", len(s.docs)), nil
}

// Documents returns a copy of everything written so far.
func (s *Store) Documents() []Written {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Written, len(s.docs))
	copy(out, s.docs)
	return out
}
