package zephyr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "rfc3339 utc stays utc",
			input:    "2024-03-01T10:30:00Z",
			expected: "2024-03-01T10:30:00Z",
		},
		{
			name:     "offset normalized to utc",
			input:    "2024-03-01T10:30:00+02:00",
			expected: "2024-03-01T08:30:00Z",
		},
		{
			name:     "millis with compact offset",
			input:    "2024-03-01T10:30:00.000+0200",
			expected: "2024-03-01T08:30:00Z",
		},
		{
			name:     "date only",
			input:    "2024-03-01",
			expected: "2024-03-01T00:00:00Z",
		},
		{
			name:     "empty stays empty",
			input:    "",
			expected: "",
		},
		{
			name:     "unparseable passes through",
			input:    "last tuesday",
			expected: "last tuesday",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatTimestamp(tt.input))
		})
	}
}

func TestTolerantAccessors(t *testing.T) {
	data := map[string]any{
		"name":   "login test",
		"count":  float64(42),
		"labels": []any{"smoke", 7, "regression"},
		"script": map[string]any{"type": "PLAIN_TEXT"},
	}

	assert.Equal(t, "login test", getString(data, "name"))
	assert.Equal(t, "", getString(data, "count"), "mistyped field yields default")
	assert.Nil(t, getStringPtr(data, "missing"))

	n := getIntPtr(data, "count")
	assert.NotNil(t, n)
	assert.Equal(t, 42, *n)
	assert.Nil(t, getIntPtr(data, "name"))

	assert.Equal(t, []string{"smoke", "regression"}, getStringSlice(data, "labels"))
	assert.Equal(t, []string{}, getStringSlice(data, "missing"))

	assert.Equal(t, "PLAIN_TEXT", getString(getMap(data, "script"), "type"))
	assert.Nil(t, getMap(data, "missing"))
	assert.NotNil(t, getMapOrEmpty(data, "missing"))
}
