// Package date parses the date strings found in library records.
package date

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kailas-cloud/bibq/internal/domain"
)

// SentinelYear denotes an absent or unparsable date.
const SentinelYear = 1900

// Sentinel is the instant used in place of absent or unparsable dates.
var Sentinel = time.Date(SentinelYear, time.January, 1, 0, 0, 0, 0, time.UTC)

var bareYear = regexp.MustCompile(`^\d{4}$`)

// layouts are tried in order after the bare year check.
var layouts = []string{
	"Jan 2006",
	"January 2006",
	time.RFC3339,
	"Jan 2 2006 at 3:04pm",
	"Jan 2 2006 at 3:04PM",
	"January 2, 2006, 15:04:05",
}

// Parse parses s against the accepted layouts.
// The empty string yields Sentinel without error.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Sentinel, nil
	}
	if bareYear.MatchString(s) {
		t, err := time.Parse("2006", s)
		if err == nil {
			return t, nil
		}
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return Sentinel, fmt.Errorf("%w: %q", domain.ErrBadDateFormat, s)
}

// IsSentinel reports whether t is the absent-date sentinel.
func IsSentinel(t time.Time) bool { return t.Year() == SentinelYear }
