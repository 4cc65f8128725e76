package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"vetgate/internal/check/models"
	"vetgate/pkg/domain"
	"vetgate/pkg/platform/sentinel"
)

// Postgres persists background checks in PostgreSQL. The timeline is stored as
// a JSONB column; a partial unique index on (application_id) WHERE status =
// 'pending' enforces the one-active-check rule at the database level, so the
// invariant holds even across service instances that do not share a lock.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema is the DDL for the checks table. Applied by migrations in production
// and directly by integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS background_checks (
	id                  UUID PRIMARY KEY,
	application_id      UUID        NOT NULL,
	package_id          TEXT        NOT NULL,
	provider_request_id TEXT        NOT NULL,
	provider_report_url TEXT        NOT NULL DEFAULT '',
	status              TEXT        NOT NULL,
	consent_affirmed_by TEXT        NOT NULL,
	consent_affirmed_at TIMESTAMPTZ NOT NULL,
	initiated_at        TIMESTAMPTZ NOT NULL,
	completed_at        TIMESTAMPTZ,
	timeline            JSONB       NOT NULL DEFAULT '[]',
	version             INTEGER     NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS background_checks_one_active
	ON background_checks (application_id)
	WHERE status = 'pending';

CREATE INDEX IF NOT EXISTS background_checks_by_application
	ON background_checks (application_id, initiated_at DESC);
`

const checkColumns = `id, application_id, package_id, provider_request_id, provider_report_url,
	status, consent_affirmed_by, consent_affirmed_at, initiated_at, completed_at, timeline, version`

func (s *Postgres) Create(ctx context.Context, check *models.BackgroundCheck) error {
	timeline, err := json.Marshal(check.Timeline)
	if err != nil {
		return fmt.Errorf("encode timeline: %w", err)
	}

	query := `
		INSERT INTO background_checks (` + checkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(ctx, query,
		check.ID.String(),
		check.ApplicationID.String(),
		check.PackageID,
		check.ProviderRequestID,
		check.ProviderReportURL,
		string(check.Status),
		check.ConsentAffirmedBy,
		check.ConsentAffirmedAt,
		check.InitiatedAt,
		check.CompletedAt,
		timeline,
		check.Version,
	)
	if err != nil {
		var pqErr *pq.Error
		// 23505: unique_violation, raised by the primary key or the partial
		// one-active index.
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert check: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.CheckID) (*models.BackgroundCheck, error) {
	query := `SELECT ` + checkColumns + ` FROM background_checks WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id.String()))
}

func (s *Postgres) FindByApplication(ctx context.Context, appID domain.ApplicationID) (*models.BackgroundCheck, error) {
	query := `
		SELECT ` + checkColumns + `
		FROM background_checks
		WHERE application_id = $1
		ORDER BY initiated_at DESC
		LIMIT 1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, appID.String()))
}

func (s *Postgres) FindActiveByApplication(ctx context.Context, appID domain.ApplicationID) (*models.BackgroundCheck, error) {
	query := `
		SELECT ` + checkColumns + `
		FROM background_checks
		WHERE application_id = $1 AND status = 'pending'
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, appID.String()))
}

func (s *Postgres) FindPending(ctx context.Context, limit int) ([]*models.BackgroundCheck, error) {
	query := `
		SELECT ` + checkColumns + `
		FROM background_checks
		WHERE status = 'pending'
		ORDER BY initiated_at ASC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending checks: %w", err)
	}
	defer rows.Close()

	var pending []*models.BackgroundCheck
	for rows.Next() {
		check, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		pending = append(pending, check)
	}
	return pending, rows.Err()
}

// Update writes the mutable fields guarded by the record version. A zero-row
// result means a concurrent writer advanced the version first.
func (s *Postgres) Update(ctx context.Context, check *models.BackgroundCheck) error {
	timeline, err := json.Marshal(check.Timeline)
	if err != nil {
		return fmt.Errorf("encode timeline: %w", err)
	}

	query := `
		UPDATE background_checks
		SET status = $1,
			provider_report_url = $2,
			completed_at = $3,
			timeline = $4,
			version = $5
		WHERE id = $6 AND version = $7
	`
	res, err := s.db.ExecContext(ctx, query,
		string(check.Status),
		check.ProviderReportURL,
		check.CompletedAt,
		timeline,
		check.Version,
		check.ID.String(),
		check.Version-1,
	)
	if err != nil {
		return fmt.Errorf("update check: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update check rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish a stale version from a missing row.
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM background_checks WHERE id = $1)`,
			check.ID.String()).Scan(&exists); err != nil {
			return fmt.Errorf("update check existence probe: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Postgres) scanOne(row *sql.Row) (*models.BackgroundCheck, error) {
	check, err := scanCheck(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return check, nil
}

func scanCheck(row rowScanner) (*models.BackgroundCheck, error) {
	var (
		check       models.BackgroundCheck
		id, appID   string
		status      string
		completedAt sql.NullTime
		timeline    []byte
	)
	err := row.Scan(
		&id,
		&appID,
		&check.PackageID,
		&check.ProviderRequestID,
		&check.ProviderReportURL,
		&status,
		&check.ConsentAffirmedBy,
		&check.ConsentAffirmedAt,
		&check.InitiatedAt,
		&completedAt,
		&timeline,
		&check.Version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan check: %w", err)
	}

	if check.ID, err = domain.ParseCheckID(id); err != nil {
		return nil, fmt.Errorf("stored check id invalid: %w", err)
	}
	if check.ApplicationID, err = domain.ParseApplicationID(appID); err != nil {
		return nil, fmt.Errorf("stored application id invalid: %w", err)
	}
	check.Status = models.Status(status)
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		check.CompletedAt = &t
	}
	if err := json.Unmarshal(timeline, &check.Timeline); err != nil {
		return nil, fmt.Errorf("decode timeline: %w", err)
	}
	normalizeTimes(&check)
	return &check, nil
}

// normalizeTimes forces UTC so round-tripped records compare cleanly.
func normalizeTimes(check *models.BackgroundCheck) {
	check.ConsentAffirmedAt = check.ConsentAffirmedAt.UTC()
	check.InitiatedAt = check.InitiatedAt.UTC()
	for i := range check.Timeline {
		check.Timeline[i].Timestamp = check.Timeline[i].Timestamp.UTC()
	}
}
