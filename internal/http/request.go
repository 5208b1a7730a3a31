package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// maxBodySize bounds request bodies. Restores carry a full backup file and
// get a larger limit of their own.
const (
	maxBodySize        = 1 << 20  // 1 MiB
	maxRestoreBodySize = 32 << 20 // 32 MiB
)

const dateLayout = "2006-01-02"

var errBadDate = errors.New("invalid date, expected YYYY-MM-DD")

// decodeJSON reads a size-limited JSON body into dst, rejecting unknown
// fields so typos surface as 400s instead of silent zero values.
func decodeJSON(r *http.Request, dst any, limit int64) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// parseDate parses a YYYY-MM-DD value. Empty input returns the zero time so
// callers can substitute a default.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, errBadDate
	}
	return t, nil
}

// parseDateRange reads from/to query parameters. Missing values default to
// the start of the current month and today.
func parseDateRange(r *http.Request, now time.Time) (from, to time.Time, err error) {
	from, err = parseDate(r.URL.Query().Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err = parseDate(r.URL.Query().Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.IsZero() {
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	}
	if to.IsZero() {
		to = now
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("to date is before from date")
	}
	return from, to, nil
}

// endOfDay moves a date to the last instant of its day.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999000000, t.Location())
}

// sanitizeInput removes control characters and trims whitespace from
// user-supplied names and remarks.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
