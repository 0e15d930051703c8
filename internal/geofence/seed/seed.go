// Package seed loads geo-fence definitions from YAML and adds the ones that
// do not exist yet.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"smartourism/internal/geofence/geometry"
	"smartourism/internal/geofence/models"
)

// File is the YAML document layout:
//
//	fences:
//	  - name: Financial District
//	    risk_level: high
//	    coordinates: [[-74.006, 40.7128], [-74.005, 40.7128], ...]
type File struct {
	Fences []Fence `yaml:"fences"`
}

// Fence is one fence definition. Coordinates are [lon, lat] pairs.
type Fence struct {
	Name        string        `yaml:"name"`
	RiskLevel   string        `yaml:"risk_level"`
	Coordinates geometry.Ring `yaml:"coordinates"`
}

// Adder creates fences and lists the existing ones.
type Adder interface {
	Add(ctx context.Context, name string, level models.RiskLevel, polygon geometry.Ring) (*models.GeoFence, error)
	List(ctx context.Context) []*models.GeoFence
}

// Result counts what Apply did.
type Result struct {
	Added   int
	Skipped int
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	for i, fence := range f.Fences {
		if strings.TrimSpace(fence.Name) == "" {
			return nil, fmt.Errorf("fence %d: name is required", i)
		}
	}
	return &f, nil
}

// Apply adds every fence whose name is not already present. It stops at the
// first failure.
func Apply(ctx context.Context, adder Adder, f *File) (Result, error) {
	existing := make(map[string]bool)
	for _, fence := range adder.List(ctx) {
		existing[strings.ToLower(fence.Name)] = true
	}

	var res Result
	for _, def := range f.Fences {
		key := strings.ToLower(strings.TrimSpace(def.Name))
		if existing[key] {
			res.Skipped++
			continue
		}
		level, err := models.ParseRiskLevel(def.RiskLevel)
		if err != nil {
			return res, fmt.Errorf("fence %q: %w", def.Name, err)
		}
		if _, err := adder.Add(ctx, def.Name, level, def.Coordinates); err != nil {
			return res, fmt.Errorf("fence %q: %w", def.Name, err)
		}
		existing[key] = true
		res.Added++
	}
	return res, nil
}
