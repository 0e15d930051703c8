package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"smartourism/internal/location/models"
	"smartourism/internal/platform/postgres"
	id "smartourism/pkg/domain"
	"smartourism/pkg/platform/sentinel"
)

const pointColumns = `id, entity_id, lat, lon, risk_score, risk_label, recorded_at`

// PostgresStore persists points in the locations table, alongside a PostGIS
// point geometry for ad-hoc spatial queries.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts the point. The stored timestamp is clamped to the entity's
// latest timestamp so history never runs backwards; point.Timestamp is
// updated to the stored value.
func (s *PostgresStore) Append(ctx context.Context, point *models.LocationPoint) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO locations (id, entity_id, lat, lon, geom, risk_score, risk_label, recorded_at)
		VALUES (
			$1, $2, $3, $4,
			ST_SetSRID(ST_MakePoint($4, $3), 4326),
			$5, $6,
			GREATEST($7::timestamptz, COALESCE(
				(SELECT max(recorded_at) FROM locations WHERE entity_id = $2), $7::timestamptz))
		)
		RETURNING recorded_at`,
		uuid.UUID(point.ID), uuid.UUID(point.EntityID), point.Lat, point.Lon,
		nullFloat(point.RiskScore), nullString(point.RiskLabel), point.Timestamp,
	).Scan(&point.Timestamp)
	if err != nil {
		return fmt.Errorf("insert location: %w", postgres.Classify(err))
	}
	point.Timestamp = point.Timestamp.UTC()
	return nil
}

func (s *PostgresStore) RecentWindow(ctx context.Context, entityID id.EntityID, n int) ([]*models.LocationPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+pointColumns+`
		FROM locations
		WHERE entity_id = $1
		ORDER BY recorded_at DESC, seq DESC
		LIMIT $2`, uuid.UUID(entityID), n)
	if err != nil {
		return nil, fmt.Errorf("query recent window: %w", postgres.Classify(err))
	}
	return scanPoints(rows)
}

func (s *PostgresStore) Latest(ctx context.Context, entityID id.EntityID) (*models.LocationPoint, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+pointColumns+`
		FROM locations
		WHERE entity_id = $1
		ORDER BY recorded_at DESC, seq DESC
		LIMIT 1`, uuid.UUID(entityID))
	p, err := scanPoint(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("query latest location: %w", postgres.Classify(err))
	}
	return p, nil
}

func (s *PostgresStore) History(ctx context.Context, entityID id.EntityID) ([]*models.LocationPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+pointColumns+`
		FROM locations
		WHERE entity_id = $1
		ORDER BY recorded_at ASC, seq ASC`, uuid.UUID(entityID))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", postgres.Classify(err))
	}
	return scanPoints(rows)
}

func (s *PostgresStore) UpdateRisk(ctx context.Context, pointID id.PointID, score float64, label string) (*models.LocationPoint, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE locations
		SET risk_score = $2, risk_label = $3
		WHERE id = $1
		RETURNING `+pointColumns, uuid.UUID(pointID), score, label)
	p, err := scanPoint(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("update risk: %w", postgres.Classify(err))
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPoint(row scanner) (*models.LocationPoint, error) {
	var (
		pointID, entityID uuid.UUID
		score             sql.NullFloat64
		label             sql.NullString
		p                 models.LocationPoint
	)
	if err := row.Scan(&pointID, &entityID, &p.Lat, &p.Lon, &score, &label, &p.Timestamp); err != nil {
		return nil, err
	}
	p.ID = id.PointID(pointID)
	p.EntityID = id.EntityID(entityID)
	p.Timestamp = p.Timestamp.UTC()
	if score.Valid {
		p.RiskScore = &score.Float64
	}
	if label.Valid {
		p.RiskLabel = &label.String
	}
	return &p, nil
}

func scanPoints(rows *sql.Rows) ([]*models.LocationPoint, error) {
	defer rows.Close()
	var out []*models.LocationPoint
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", postgres.Classify(err))
	}
	return out, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
