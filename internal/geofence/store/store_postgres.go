package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"smartourism/internal/geofence/geometry"
	"smartourism/internal/geofence/models"
	"smartourism/internal/platform/postgres"
	id "smartourism/pkg/domain"
)

// PostgresStore persists fences in a PostGIS polygon column. Geometry goes in
// as WKT and comes back as GeoJSON; containment itself is evaluated in Go.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, fence *models.GeoFence) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO geo_fences (id, name, risk_level, area, created_at)
		VALUES ($1, $2, $3, ST_GeomFromText($4, 4326), $5)`,
		uuid.UUID(fence.ID), fence.Name, string(fence.RiskLevel), fence.Polygon.WKT(), fence.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert geofence: %w", postgres.Classify(err))
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.GeoFence, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, risk_level, ST_AsGeoJSON(area), created_at
		FROM geo_fences
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list geofences: %w", postgres.Classify(err))
	}
	defer rows.Close()

	var fences []*models.GeoFence
	for rows.Next() {
		var (
			fenceID uuid.UUID
			level   string
			geoJSON string
			f       models.GeoFence
		)
		if err := rows.Scan(&fenceID, &f.Name, &level, &geoJSON, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan geofence: %w", err)
		}
		ring, err := geometry.RingFromGeoJSON([]byte(geoJSON))
		if err != nil {
			return nil, fmt.Errorf("geofence %s: %w", fenceID, err)
		}
		f.ID = id.FenceID(fenceID)
		f.RiskLevel = models.RiskLevel(level)
		f.Polygon = ring
		fences = append(fences, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate geofences: %w", postgres.Classify(err))
	}
	return fences, nil
}
