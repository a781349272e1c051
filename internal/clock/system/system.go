// Package system provides the clocks that stamp generated artifacts.
package system

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock reads the wall clock in UTC.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always reports the same instant. It makes repeated generations over
// the same input byte-identical.
type Fixed struct {
	at time.Time
}

// NewFixed returns a clock pinned to at.
func NewFixed(at time.Time) *Fixed {
	return &Fixed{at: at.UTC()}
}

// Now returns the pinned instant.
func (f *Fixed) Now() time.Time {
	return f.at
}

// ParseEpoch parses a SOURCE_DATE_EPOCH style value: decimal seconds since
// the Unix epoch, or an RFC 3339 timestamp.
func ParseEpoch(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse epoch %q: expected unix seconds or RFC 3339", value)
	}
	return ts.UTC(), nil
}
