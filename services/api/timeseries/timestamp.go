package timeseries

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ErrInvalidTimestamp is returned for timestamps that cannot be normalized.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// RawTimestamp is a timestamp as received from a collaborator: either an
// epoch-millisecond number or a date string. It marshals back to the same form.
type RawTimestamp struct {
	text    string
	millis  float64
	numeric bool
	set     bool
}

// StringTimestamp wraps a textual timestamp.
func StringTimestamp(s string) RawTimestamp {
	return RawTimestamp{text: s, set: true}
}

// MillisTimestamp wraps an epoch-millisecond timestamp.
func MillisTimestamp(ms int64) RawTimestamp {
	return RawTimestamp{millis: float64(ms), numeric: true, set: true}
}

// IsZero reports whether no timestamp was supplied.
func (r RawTimestamp) IsZero() bool { return !r.set }

// IsNumeric reports whether the timestamp was received as a number.
func (r RawTimestamp) IsNumeric() bool { return r.numeric }

func (r RawTimestamp) String() string {
	switch {
	case !r.set:
		return ""
	case r.numeric:
		return strconv.FormatFloat(r.millis, 'f', -1, 64)
	default:
		return r.text
	}
}

func (r RawTimestamp) MarshalJSON() ([]byte, error) {
	switch {
	case !r.set:
		return []byte("null"), nil
	case r.numeric:
		if math.IsNaN(r.millis) || math.IsInf(r.millis, 0) {
			return []byte("null"), nil
		}
		return []byte(strconv.FormatFloat(r.millis, 'f', -1, 64)), nil
	default:
		return json.Marshal(r.text)
	}
}

func (r *RawTimestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = RawTimestamp{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = StringTimestamp(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("timestamp must be a string or a number: %w", err)
	}
	*r = RawTimestamp{millis: f, numeric: true, set: true}
	return nil
}

var zoneSuffix = regexp.MustCompile(`(?i)(z|[+-]\d{2}:?\d{2})$`)

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04Z0700",
}

// MaxTimestampMillis bounds accepted epoch values to ±100,000,000 days around
// 1970, the range a browser Date can hold.
const MaxTimestampMillis = 8.64e15

// NormalizeTimestamp converts a raw timestamp into UTC epoch milliseconds.
//
// Numbers within MaxTimestampMillis pass through unchanged. ISO strings with a zone are parsed zone-aware;
// ISO strings without a zone are read as UTC, matching the upstream APIs which
// emit UTC wall time without a designator. Other strings use generic parsing in UTC.
func NormalizeTimestamp(ts RawTimestamp) (int64, error) {
	if !ts.set {
		return 0, ErrInvalidTimestamp
	}
	if ts.numeric {
		if math.IsNaN(ts.millis) || math.IsInf(ts.millis, 0) ||
			ts.millis < -MaxTimestampMillis || ts.millis > MaxTimestampMillis {
			return 0, fmt.Errorf("%w: %v out of range", ErrInvalidTimestamp, ts.millis)
		}
		return int64(ts.millis), nil
	}
	return ParseTimestamp(ts.text)
}

// ParseTimestamp applies the string rules of NormalizeTimestamp.
func ParseTimestamp(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidTimestamp
	}

	if strings.Contains(s, "T") {
		candidate := s
		if !zoneSuffix.MatchString(s) {
			candidate = s + "Z"
		}
		for _, layout := range zonedLayouts {
			if t, err := time.Parse(layout, candidate); err == nil {
				return EpochMillis(t), nil
			}
		}
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}
	ms := EpochMillis(t)
	if ms < -MaxTimestampMillis || ms > MaxTimestampMillis {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidTimestamp, s)
	}
	return ms, nil
}

// EpochMillis converts a time to UTC epoch milliseconds.
func EpochMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts epoch milliseconds back to a UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
