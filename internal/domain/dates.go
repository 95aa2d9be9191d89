package domain

import (
	"fmt"
	"time"
)

// ErrBadTimestamp reports a timestamp value outside the accepted contract.
var ErrBadTimestamp = fmt.Errorf("timestamp must be an RFC 3339 string or epoch milliseconds")

// ParseTimestamp is the single date-parsing boundary for values arriving
// from clients or store documents. It accepts an RFC 3339 string, a plain
// date (2006-01-02), or epoch milliseconds as a number. Anything else is a
// validation error; callers must not probe values for shape themselves.
func ParseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case string:
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts, nil
		}
		if ts, err := time.Parse("2006-01-02", t); err == nil {
			return ts, nil
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, t)
	case int64:
		return time.UnixMilli(t).UTC(), nil
	case int:
		return time.UnixMilli(int64(t)).UTC(), nil
	case float64:
		// JSON numbers decode as float64.
		return time.UnixMilli(int64(t)).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("%w: got %T", ErrBadTimestamp, v)
	}
}
