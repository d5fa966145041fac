package utils

import (
	"errors"
	"strings"
	"time"

	"github.com/yukikurage/team-task-api/internal/constants"
)

// ErrInvalidDeadline is returned when a deadline matches none of the accepted layouts
var ErrInvalidDeadline = errors.New("deadline must be RFC3339 or YYYY-MM-DD")

// ParseDeadline parses a deadline in any accepted layout. Date-only values
// are read as midnight UTC.
func ParseDeadline(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range constants.DeadlineLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidDeadline
}

// NormalizeLinks splits multi-line entries, trims each link and drops blanks
func NormalizeLinks(links []string) []string {
	out := make([]string, 0, len(links))
	for _, entry := range links {
		for _, line := range strings.Split(entry, "\n") {
			if link := strings.TrimSpace(line); link != "" {
				out = append(out, link)
			}
		}
	}
	return out
}
