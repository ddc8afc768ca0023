package frontmatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// dateLayouts are the textual date forms found in source generator metadata.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// FormatDate renders t the way Jekyll front matter expects it: a bare date
// when the clock is zero, otherwise date, time and zone offset.
func FormatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05 -0700")
}

// ParseDate interprets a decoded front matter value as a point in time.
func ParseDate(v any) (time.Time, bool) {
	switch vv := v.(type) {
	case time.Time:
		return vv, true
	case toml.LocalDate:
		return vv.AsTime(time.UTC), true
	case toml.LocalDateTime:
		return vv.AsTime(time.UTC), true
	case string:
		s := strings.TrimSpace(vv)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	case fmt.Stringer:
		return ParseDate(vv.String())
	}
	return time.Time{}, false
}

// DateField returns the first key in keys holding a parseable date.
func DateField(fields map[string]any, keys ...string) (time.Time, string, bool) {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			if t, ok := ParseDate(v); ok {
				return t, k, true
			}
		}
	}
	return time.Time{}, "", false
}
