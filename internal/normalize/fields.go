package normalize

import (
	"fmt"
	"strconv"
	"time"
)

// fields wraps a raw JSON payload and tracks which keys fed a canonical
// slot, so everything left over can be preserved in Extra.
type fields struct {
	raw  map[string]any
	used map[string]struct{}
}

func newFields(raw map[string]any) *fields {
	return &fields{raw: raw, used: make(map[string]struct{})}
}

// firstString returns the first non-empty string among the given keys.
// Numeric scalars are coerced to their string form (some sources report
// ids as numbers).
func (f *fields) firstString(keys ...string) string {
	for _, key := range keys {
		v, ok := f.raw[key]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				f.used[key] = struct{}{}
				return s
			}
		case float64:
			f.used[key] = struct{}{}
			return strconv.FormatFloat(s, 'f', -1, 64)
		case int:
			f.used[key] = struct{}{}
			return strconv.Itoa(s)
		}
	}
	return ""
}

// firstFloat returns a pointer to the first numeric value among the given
// keys, or an InvalidType error if a present value is non-numeric. Numeric
// strings are accepted (Polymarket reports volumes as strings).
func (f *fields) firstFloat(field string, exchange string, keys ...string) (*float64, error) {
	for _, key := range keys {
		v, ok := f.raw[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			f.used[key] = struct{}{}
			return &n, nil
		case int:
			f.used[key] = struct{}{}
			val := float64(n)
			return &val, nil
		case string:
			parsed, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil, &Error{Kind: InvalidType, Exchange: exchange, Field: field,
					Detail: fmt.Sprintf("key %q is not numeric: %q", key, n)}
			}
			f.used[key] = struct{}{}
			return &parsed, nil
		default:
			return nil, &Error{Kind: InvalidType, Exchange: exchange, Field: field,
				Detail: fmt.Sprintf("key %q has type %T", key, v)}
		}
	}
	return nil, nil
}

// firstStrings returns the first string-slice value among the given keys.
// Order and duplicates are preserved as reported by the source.
func (f *fields) firstStrings(field string, exchange string, keys ...string) ([]string, error) {
	for _, key := range keys {
		v, ok := f.raw[key]
		if !ok || v == nil {
			continue
		}
		items, ok := v.([]any)
		if !ok {
			// Already-typed slices appear in tests and re-submissions.
			if typed, ok := v.([]string); ok {
				f.used[key] = struct{}{}
				return append([]string(nil), typed...), nil
			}
			return nil, &Error{Kind: InvalidType, Exchange: exchange, Field: field,
				Detail: fmt.Sprintf("key %q has type %T", key, v)}
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, &Error{Kind: InvalidType, Exchange: exchange, Field: field,
					Detail: fmt.Sprintf("key %q contains non-string element %T", key, item)}
			}
			out = append(out, s)
		}
		f.used[key] = struct{}{}
		return out, nil
	}
	return nil, nil
}

// firstTimestamp parses the first timestamp-like value among the given
// keys into a resolution date and time-of-day. Strings are tried against
// common layouts; numbers are unix seconds. A string that is well-typed
// but unparseable is left alone so it surfaces in Extra instead.
func (f *fields) firstTimestamp(keys ...string) (time.Time, string) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}

	for _, key := range keys {
		v, ok := f.raw[key]
		if !ok || v == nil {
			continue
		}
		switch ts := v.(type) {
		case string:
			for _, layout := range layouts {
				t, err := time.Parse(layout, ts)
				if err != nil {
					continue
				}
				f.used[key] = struct{}{}
				return dateAndClock(t.UTC(), layout != "2006-01-02")
			}
		case float64:
			f.used[key] = struct{}{}
			return dateAndClock(time.Unix(int64(ts), 0).UTC(), true)
		}
	}
	return time.Time{}, ""
}

// dateAndClock splits a timestamp into a midnight-UTC date and an
// "HH:MM:SS" clock string. withClock is false for date-only layouts.
func dateAndClock(t time.Time, withClock bool) (time.Time, string) {
	date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if !withClock {
		return date, ""
	}
	return date, t.Format("15:04:05")
}

// extra returns a copy of every raw key that did not feed a canonical slot.
func (f *fields) extra() map[string]any {
	if len(f.raw) == len(f.used) {
		return nil
	}
	out := make(map[string]any, len(f.raw)-len(f.used))
	for key, v := range f.raw {
		if _, consumed := f.used[key]; consumed {
			continue
		}
		out[key] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
