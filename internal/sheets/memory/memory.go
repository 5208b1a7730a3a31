// Package memory provides an in-memory ReportWriter for tests.
package memory

import (
	"context"
	"sync"

	"homeledger/internal/report"
	ports "homeledger/internal/sheets"
)

// Store records every report written to it.
type Store struct {
	mu      sync.Mutex
	reports []report.Report
	err     error
}

var _ ports.ReportWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Fail makes subsequent writes return err.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Store) WriteReport(ctx context.Context, r report.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.reports = append(s.reports, r)
	return nil
}

// Reports returns the recorded reports in write order.
func (s *Store) Reports() []report.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]report.Report(nil), s.reports...)
}

// Last returns the most recent report, if any.
func (s *Store) Last() (report.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.reports) == 0 {
		return report.Report{}, false
	}
	return s.reports[len(s.reports)-1], true
}
