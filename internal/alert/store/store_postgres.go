package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"smartourism/internal/alert/models"
	"smartourism/internal/platform/postgres"
	id "smartourism/pkg/domain"
	"smartourism/pkg/platform/sentinel"
	"smartourism/pkg/platform/tx"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var alertColumns = []string{"id", "entity_id", "type", "description", "status", "created_at", "updated_at"}

// PostgresStore persists alerts and responses in the alerts and
// alert_responses tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, alert *models.Alert) error {
	query, args, err := psql.Insert("alerts").
		Columns(alertColumns...).
		Values(uuid.UUID(alert.ID), uuid.UUID(alert.EntityID), string(alert.Type), alert.Description,
			string(alert.Status), alert.CreatedAt, alert.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert alert: %w", err)
	}
	if _, err := tx.Executor(ctx, s.db).ExecContext(ctx, query, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert alert: %w", postgres.Classify(err))
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, alertID id.AlertID) (*models.Alert, error) {
	return s.get(ctx, alertID, false)
}

func (s *PostgresStore) get(ctx context.Context, alertID id.AlertID, forUpdate bool) (*models.Alert, error) {
	b := psql.Select(alertColumns...).From("alerts").Where(sq.Eq{"id": uuid.UUID(alertID)})
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select alert: %w", err)
	}
	a, err := scanAlert(tx.Executor(ctx, s.db).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select alert: %w", postgres.Classify(err))
	}
	return a, nil
}

// List returns matching alerts newest first.
func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]*models.Alert, error) {
	b := psql.Select(alertColumns...).From("alerts").OrderBy("created_at DESC", "seq DESC")
	if filter.EntityID != nil {
		b = b.Where(sq.Eq{"entity_id": uuid.UUID(*filter.EntityID)})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		b = b.Where(sq.Expr("status = ANY(?)", pq.Array(statuses)))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list alerts: %w", err)
	}

	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", postgres.Classify(err))
	}
	defer rows.Close()

	var out []*models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", postgres.Classify(err))
	}
	return out, nil
}

// Resolve locks the row, applies the transition and writes it back in one
// transaction. It reports whether the status changed.
func (s *PostgresStore) Resolve(ctx context.Context, alertID id.AlertID, now time.Time) (*models.Alert, bool, error) {
	var (
		alert   *models.Alert
		changed bool
	)
	err := tx.Run(ctx, s.db, func(ctx context.Context) error {
		a, err := s.get(ctx, alertID, true)
		if err != nil {
			return err
		}
		alert = a
		if changed = a.Resolve(now); !changed {
			return nil
		}
		query, args, err := psql.Update("alerts").
			Set("status", string(a.Status)).
			Set("updated_at", a.UpdatedAt).
			Where(sq.Eq{"id": uuid.UUID(alertID)}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build resolve alert: %w", err)
		}
		if _, err := tx.Executor(ctx, s.db).ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("resolve alert: %w", postgres.Classify(err))
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, false, sentinel.ErrNotFound
		}
		return nil, false, postgres.Classify(err)
	}
	return alert, changed, nil
}

func (s *PostgresStore) AddResponse(ctx context.Context, response *models.AlertResponse) error {
	query, args, err := psql.Insert("alert_responses").
		Columns("id", "alert_id", "response", "mode", "created_at").
		Values(uuid.UUID(response.ID), uuid.UUID(response.AlertID), response.Response,
			string(response.Mode), response.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert response: %w", err)
	}
	if _, err := tx.Executor(ctx, s.db).ExecContext(ctx, query, args...); err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("insert response: %w", postgres.Classify(err))
	}
	return nil
}

// ListResponses returns an alert's responses oldest first.
func (s *PostgresStore) ListResponses(ctx context.Context, alertID id.AlertID) ([]*models.AlertResponse, error) {
	if _, err := s.Get(ctx, alertID); err != nil {
		return nil, err
	}
	query, args, err := psql.Select("id", "alert_id", "response", "mode", "created_at").
		From("alert_responses").
		Where(sq.Eq{"alert_id": uuid.UUID(alertID)}).
		OrderBy("created_at ASC", "seq ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list responses: %w", err)
	}

	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", postgres.Classify(err))
	}
	defer rows.Close()

	out := []*models.AlertResponse{}
	for rows.Next() {
		var (
			responseID, aID uuid.UUID
			mode            string
			r               models.AlertResponse
		)
		if err := rows.Scan(&responseID, &aID, &r.Response, &mode, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		r.ID = id.ResponseID(responseID)
		r.AlertID = id.AlertID(aID)
		r.Mode = models.ResponseMode(mode)
		r.CreatedAt = r.CreatedAt.UTC()
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate responses: %w", postgres.Classify(err))
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAlert(row scanner) (*models.Alert, error) {
	var (
		alertID, entityID uuid.UUID
		typ, status       string
		a                 models.Alert
	)
	if err := row.Scan(&alertID, &entityID, &typ, &a.Description, &status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.ID = id.AlertID(alertID)
	a.EntityID = id.EntityID(entityID)
	a.Type = models.Type(typ)
	a.Status = models.Status(status)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}
