package http

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"homeledger/internal/backup"
	"homeledger/internal/report"
)

// handleReport renders the spreadsheet report for a date range. Rendered
// workbooks are cached per ledger revision, so repeated downloads of the
// same unchanged range are free.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r, s.now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Snapshot and revision must come from the same lock acquisition, or a
	// concurrent mutation could cache this workbook under the wrong key.
	snap, revision := s.ledger.SnapshotWithRevision()
	key := fmt.Sprintf("%d:%s:%s", revision, from.Format(dateLayout), to.Format(dateLayout))
	data, found := s.reportCache.Get(key)
	if !found {
		rep := report.Build(snap, from, to)
		var buf bytes.Buffer
		if err := report.WriteSpreadsheet(&buf, rep); err != nil {
			respondDomainError(w, r, err)
			return
		}
		data = buf.Bytes()
		s.reportCache.Set(key, data)
	} else {
		slog.DebugContext(r.Context(), "Report cache hit", "key", key)
	}

	w.Header().Set("Content-Type", "application/vnd.ms-excel")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(from, to)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleBackup downloads the full ledger as a JSON backup file.
func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	data, err := backup.Marshal(backup.Export(s.ledger.Snapshot(), now))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", backup.Filename(now)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleRestore replaces ledger state from an uploaded backup. Recognizable
// collections overwrite wholesale; unreadable fields are skipped.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRestoreBodySize))
	if err != nil {
		respondError(w, http.StatusBadRequest, "read backup body: "+err.Error())
		return
	}
	data, err := backup.Parse(body)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.ledger.Restore(data)
	slog.InfoContext(r.Context(), "Backup restored",
		"accounts", data.Accounts != nil,
		"loans", data.Loans != nil,
		"transactions", data.Transactions != nil)
	respondJSON(w, http.StatusOK, map[string]bool{"restored": true})
}
