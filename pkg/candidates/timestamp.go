package candidates

import (
	"errors"
	"time"
)

// ReasonInvalidTimestamp is reported for values that are not a date or date-time.
const ReasonInvalidTimestamp = "Input should be a valid datetime or date"

var errInvalidTimestamp = errors.New(ReasonInvalidTimestamp)

// Accepted ISO-8601 forms, tried in order. Values without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 date or date-time and normalizes it to UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errInvalidTimestamp
}
