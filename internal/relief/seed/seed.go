// Package seed loads YAML fixtures and creates them through the coordinator,
// so seeded rows get the same validation and identifiers as API writes.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"

	"relief/internal/relief/coordinator"
	"relief/internal/relief/entity"
)

// Service creates one entity per request.
type Service interface {
	Handle(ctx context.Context, req coordinator.Request) coordinator.Response
}

// Fixtures maps a public resource name to the rows to create for it.
type Fixtures map[string][]map[string]any

// Created records one seeded row.
type Created struct {
	Resource string
	Key      string
	ID       int64
}

// Load reads a fixture file.
func Load(path string) (Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture file: %w", err)
	}
	return Parse(data)
}

// Parse decodes fixtures and rejects unknown resource names.
func Parse(data []byte) (Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshalling YAML: %w", err)
	}
	for resource := range f {
		if _, ok := entity.ByResource(resource); !ok {
			return nil, fmt.Errorf("unknown resource %q", resource)
		}
	}
	return f, nil
}

// Apply creates every fixture row, parents before children, and stops at the
// first rejected row.
func Apply(ctx context.Context, svc Service, f Fixtures, logger *slog.Logger) ([]Created, error) {
	var created []Created
	for _, resource := range entity.Resources() {
		kind, _ := entity.ByResource(resource)
		for i, fields := range f[resource] {
			resp := svc.Handle(ctx, coordinator.Request{Kind: kind, Op: coordinator.OpCreate, Fields: fields})
			if resp.Status != http.StatusCreated {
				return created, fmt.Errorf("%s[%d]: %s", resource, i, resp.Envelope.Message)
			}
			created = append(created, Created{Resource: resource, Key: resp.Envelope.Key, ID: resp.Envelope.ID})
			if logger != nil {
				logger.InfoContext(ctx, "fixture created",
					"resource", resource,
					resp.Envelope.Key, resp.Envelope.ID,
				)
			}
		}
	}
	return created, nil
}
