// internal/core/domain/datetime.go
package domain

import (
	"bytes"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// DateTimeLayout is the wire layout for timestamps without a zone. The
// fraction is written only when non-zero, to microsecond precision.
const DateTimeLayout = "2006-01-02T15:04:05.999999"

var dateTimeLayouts = []string{
	DateTimeLayout,
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// DateTime is a nullable timestamp. Unlike every other optional field, a NULL
// DateTime is written as "" instead of null; existing clients depend on it.
type DateTime struct {
	Time  time.Time
	Valid bool
}

// NewDateTime returns a valid DateTime for t.
func NewDateTime(t time.Time) DateTime {
	return DateTime{Time: t, Valid: true}
}

// DateTimeFrom converts a nullable time into a DateTime.
func DateTimeFrom(t *time.Time) DateTime {
	if t == nil {
		return DateTime{}
	}
	return NewDateTime(*t)
}

// Ptr returns the time or nil when NULL. Used when binding query arguments.
func (d DateTime) Ptr() *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}

func (d DateTime) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(DateTimeLayout)
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = DateTime{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("datetime must be a string: %w", err)
	}
	if s == "" {
		*d = DateTime{}
		return nil
	}

	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*d = NewDateTime(t)
			return nil
		}
	}
	return fmt.Errorf("invalid datetime %q", s)
}

// Equal compares two DateTimes at microsecond precision, which is what the
// database stores.
func (d DateTime) Equal(o DateTime) bool {
	if d.Valid != o.Valid {
		return false
	}
	if !d.Valid {
		return true
	}
	return d.Time.Truncate(time.Microsecond).Equal(o.Time.Truncate(time.Microsecond))
}
