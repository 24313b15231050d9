package record

import (
	"fmt"
	"strings"
	"time"
)

const timestampLayout = "2006-01-02T15:04:05Z"

// Timestamp is a second-precision UTC instant. Archived artifacts encode it
// as ISO-8601 with a literal "Z" suffix; decoding tolerates fractional
// seconds and a missing zone designator.
type Timestamp struct {
	time.Time
}

func Now() Timestamp {
	return Timestamp{time.Now().UTC().Truncate(time.Second)}
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Second)}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(timestampLayout) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	t.Time = parsed.Time
	return nil
}

// ParseTimestamp accepts "2006-01-02T15:04:05" with an optional trailing "Z"
// and optional fractional seconds, always interpreting the value as UTC.
func ParseTimestamp(raw string) (Timestamp, error) {
	value := strings.TrimSuffix(strings.TrimSpace(raw), "Z")
	for _, layout := range []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
	} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return Timestamp{parsed.UTC().Truncate(time.Second)}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("%w: invalid timestamp %q", ErrMalformed, raw)
}
