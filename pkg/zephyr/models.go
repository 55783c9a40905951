package zephyr

import (
	"encoding/json"
	"time"
)

// The Zephyr API returns loosely-shaped JSON: fields come and go depending
// on the requested field set, and unknown fields appear between versions.
// Records are therefore built from untyped maps through these tolerant
// accessors; a missing or mistyped field yields the documented default
// instead of an error.

func getString(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func getStringPtr(data map[string]any, key string) *string {
	if s, ok := data[key].(string); ok {
		return &s
	}
	return nil
}

func getIntPtr(data map[string]any, key string) *int {
	switch v := data[key].(type) {
	case float64:
		n := int(v)
		return &n
	case int:
		n := v
		return &n
	case json.Number:
		if i, err := v.Int64(); err == nil {
			n := int(i)
			return &n
		}
	}
	return nil
}

func getStringSlice(data map[string]any, key string) []string {
	out := []string{}
	items, ok := data[key].([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func getMap(data map[string]any, key string) map[string]any {
	m, _ := data[key].(map[string]any)
	return m
}

func getMapOrEmpty(data map[string]any, key string) map[string]any {
	if m, ok := data[key].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func getMapSlice(data map[string]any, key string) []map[string]any {
	out := []map[string]any{}
	items, ok := data[key].([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// zephyrTimeLayouts are the timestamp shapes Zephyr Server is known to emit.
var zephyrTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// formatTimestamp normalizes a remote timestamp to UTC RFC3339. The mapping
// is deterministic: an empty input stays empty and an unparseable value
// passes through unchanged rather than being dropped.
func formatTimestamp(raw string) string {
	if raw == "" {
		return ""
	}
	for _, layout := range zephyrTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return raw
}

// putNonEmpty adds optional record fields to a simplified mapping. Absence
// is represented by omission, never by null.
func putNonEmpty(result map[string]any, key, value string) {
	if value != "" {
		result[key] = value
	}
}

func putNonEmptyTime(result map[string]any, key, value string) {
	if value != "" {
		result[key] = formatTimestamp(value)
	}
}

func putNonEmptyMap(result map[string]any, key string, value map[string]any) {
	if len(value) > 0 {
		result[key] = value
	}
}

func putNonEmptyStrings(result map[string]any, key string, value []string) {
	if len(value) > 0 {
		result[key] = value
	}
}

func putNonEmptyMaps(result map[string]any, key string, value []map[string]any) {
	if len(value) > 0 {
		result[key] = value
	}
}
