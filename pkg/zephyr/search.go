package zephyr

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

const (
	// DefaultSearchLimit is the remote API's page size ceiling.
	DefaultSearchLimit = 200
)

// buildSearchQuery assembles the shared search parameters. The TQL query
// string is passed through verbatim; startAt is omitted at 0 and maxResults
// at the default, matching what the remote API expects.
func buildSearchQuery(query, fields string, startAt, maxResults int) url.Values {
	params := url.Values{}
	if query != "" {
		params.Set("query", query)
	}
	if fields != "" {
		params.Set("fields", fields)
	}
	if startAt > 0 {
		params.Set("startAt", strconv.Itoa(startAt))
	}
	if maxResults != DefaultSearchLimit && maxResults > 0 {
		params.Set("maxResults", strconv.Itoa(maxResults))
	}
	return params
}

// decodeObject parses a response body expected to hold a single JSON object.
func decodeObject(body []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}
	return raw, nil
}

// decodeResultList parses a search-style response body. The API returns a
// bare array on current servers and a {"results": [...]} wrapper on older
// ones; both are accepted.
func decodeResultList(body []byte) ([]any, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}
	switch v := raw.(type) {
	case []any:
		return v, nil
	case map[string]any:
		items, _ := v["results"].([]any)
		return items, nil
	default:
		return nil, fmt.Errorf("unexpected response shape %T", raw)
	}
}
