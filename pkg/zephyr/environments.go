package zephyr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// EnvironmentService lists and creates the execution environments a project
// can record results against. Environments are plain remote mappings; no
// local record type is needed beyond passthrough.
type EnvironmentService struct {
	client doer
}

// List fetches all environments defined for a project.
func (s *EnvironmentService) List(ctx context.Context, projectKey string) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("projectKey", projectKey)

	rs, err := s.client.Do(ctx, http.MethodGet, "/environments", nil, params)
	if err != nil {
		return nil, operationFailed("failed to get environments", err)
	}
	if rs.IsError() {
		return nil, operationFailed("failed to get environments",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}

	items, err := decodeResultList(rs.Bytes())
	if err != nil {
		return nil, operationFailed("failed to get environments", err)
	}

	environments := make([]map[string]any, 0, len(items))
	for _, item := range items {
		data, ok := item.(map[string]any)
		if !ok {
			slog.Warn("skipping malformed environment entry", "entry", item)
			continue
		}
		environments = append(environments, data)
	}
	return environments, nil
}

// Create adds an environment to a project and returns the assigned id.
// Environment names are unique per project on the remote side.
func (s *EnvironmentService) Create(ctx context.Context, data map[string]any) (int, error) {
	rs, err := s.client.Do(ctx, http.MethodPost, "/environments", data, nil)
	if err != nil {
		return 0, operationFailed("failed to create environment", err)
	}
	if rs.IsError() {
		return 0, operationFailed("failed to create environment",
			fmt.Errorf("unexpected status %d: %s", rs.StatusCode(), rs.String()))
	}

	raw, err := decodeObject(rs.Bytes())
	if err != nil {
		return 0, operationFailed("failed to create environment", err)
	}
	if id := getIntPtr(raw, "id"); id != nil {
		return *id, nil
	}
	return 0, nil
}
