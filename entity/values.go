package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Row values arrive with driver-specific types: SQLite returns int64 and
// float64, Postgres may return int32 or []byte, fixtures return int.
// The helpers below accept all of them and never fail.

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case time.Time:
		return s.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

func asStringPtr(v any) *string {
	s := asString(v)
	if v == nil || s == "" {
		return nil
	}
	return &s
}

func asIntPtr(v any) *int {
	var n int
	switch x := v.(type) {
	case int64:
		n = int(x)
	case int32:
		n = int(x)
	case int:
		n = x
	case float64:
		n = int(x)
	case float32:
		n = int(x)
	case string, []byte:
		i, err := strconv.Atoi(strings.TrimSpace(asString(x)))
		if err != nil {
			return nil
		}
		n = i
	default:
		return nil
	}
	return &n
}

func asFloatPtr(v any) *float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case int:
		f = float64(x)
	case string, []byte:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(asString(x)), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}

func asBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int64:
		return x != 0
	case int:
		return x != 0
	case string, []byte:
		b, _ := strconv.ParseBool(asString(x))
		return b
	}
	return false
}

// timestamp layouts SQLite may hand back when a column is read as text
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func asTime(v any) time.Time {
	switch x := v.(type) {
	case time.Time:
		return x.UTC()
	case string, []byte:
		s := asString(x)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}

// nullable maps an explicit "" to SQL NULL for reference columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func splitTrim(s string, sep rune) []string {
	var out []string
	for _, part := range strings.Split(s, string(sep)) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
