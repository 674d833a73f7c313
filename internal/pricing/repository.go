package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/richxcame/fare-engine/internal/fare"
	"github.com/richxcame/fare-engine/pkg/database"
	"github.com/richxcame/fare-engine/pkg/tracing"
)

const tracerName = "fare-engine/pricing"

// RepositoryInterface is the storage used by the pricing service
type RepositoryInterface interface {
	GetActiveVersion(ctx context.Context) (*ConfigVersion, error)
	GetVersion(ctx context.Context, id uuid.UUID) (*ConfigVersion, error)
	ListVersions(ctx context.Context, limit, offset int) ([]*ConfigVersion, int64, error)
	CreateVersion(ctx context.Context, doc *fare.PricingConfiguration, expectedActive *uuid.UUID, actor, reason string, patch json.RawMessage) (*ConfigVersion, error)
	ActivateVersion(ctx context.Context, id uuid.UUID, actor, reason string) (*ConfigVersion, *uuid.UUID, error)
	ListAudit(ctx context.Context, limit, offset int) ([]*AuditEntry, int64, error)
	EnsureSeed(ctx context.Context, doc *fare.PricingConfiguration, actor string) (*ConfigVersion, bool, error)
}

// DB is the subset of pgxpool.Pool the repository needs
type DB interface {
	database.Querier
	database.TxBeginner
}

// Repository handles database operations for pricing configuration versions
type Repository struct {
	db DB
}

// NewRepository creates a new pricing repository
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

const versionColumns = `id, version, document, is_active, created_by, reason, created_at, activated_at`

func scanVersion(row pgx.Row) (*ConfigVersion, error) {
	v := &ConfigVersion{}
	var document []byte
	if err := row.Scan(&v.ID, &v.Version, &document, &v.IsActive, &v.CreatedBy, &v.Reason, &v.CreatedAt, &v.ActivatedAt); err != nil {
		return nil, err
	}

	v.Document = &fare.PricingConfiguration{}
	if err := json.Unmarshal(document, v.Document); err != nil {
		return nil, fmt.Errorf("failed to decode pricing document v%d: %w", v.Version, err)
	}
	// The stored label is authoritative for what breakdowns report
	v.Document.Version = VersionLabel(v.Version)
	return v, nil
}

// GetActiveVersion returns the active configuration, or
// fare.ErrConfigurationMissing when nothing is active
func (r *Repository) GetActiveVersion(ctx context.Context) (*ConfigVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM pricing_config_versions WHERE is_active LIMIT 1`

	var version *ConfigVersion
	err := tracing.TraceDBQuery(ctx, tracerName, "select", "pricing_config_versions", func(ctx context.Context) error {
		var err error
		version, err = database.RetryableQueryRow(ctx, r.db, query, nil, scanVersion)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fare.ErrConfigurationMissing
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active pricing version: %w", err)
	}
	return version, nil
}

// GetVersion returns a single version by ID
func (r *Repository) GetVersion(ctx context.Context, id uuid.UUID) (*ConfigVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM pricing_config_versions WHERE id = $1`

	version, err := database.RetryableQueryRow(ctx, r.db, query, []any{id}, scanVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVersionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pricing version %s: %w", id, err)
	}
	return version, nil
}

// ListVersions returns version metadata, newest first. Documents are not loaded.
func (r *Repository) ListVersions(ctx context.Context, limit, offset int) ([]*ConfigVersion, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM pricing_config_versions`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count pricing versions: %w", err)
	}

	query := `
		SELECT id, version, is_active, created_by, reason, created_at, activated_at
		FROM pricing_config_versions
		ORDER BY version DESC
		LIMIT $1 OFFSET $2
	`

	versions, err := database.RetryableQuery(ctx, r.db, query, []any{limit, offset}, func(rows pgx.Rows) ([]*ConfigVersion, error) {
		versions := make([]*ConfigVersion, 0)
		for rows.Next() {
			v := &ConfigVersion{}
			if err := rows.Scan(&v.ID, &v.Version, &v.IsActive, &v.CreatedBy, &v.Reason, &v.CreatedAt, &v.ActivatedAt); err != nil {
				return nil, fmt.Errorf("failed to scan pricing version: %w", err)
			}
			versions = append(versions, v)
		}
		return versions, rows.Err()
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list pricing versions: %w", err)
	}
	return versions, total, nil
}

// CreateVersion stores doc as the next version and makes it active in one
// transaction. When expectedActive is set and another version became active
// in the meantime, ErrVersionConflict is returned and nothing is written.
func (r *Repository) CreateVersion(ctx context.Context, doc *fare.PricingConfiguration, expectedActive *uuid.UUID, actor, reason string, patch json.RawMessage) (*ConfigVersion, error) {
	var created *ConfigVersion

	err := tracing.TraceDBQuery(ctx, tracerName, "insert", "pricing_config_versions", func(ctx context.Context) error {
		return database.RetryableTransaction(ctx, r.db, func(tx pgx.Tx) error {
			previous, err := lockActiveID(ctx, tx)
			if err != nil {
				return err
			}
			if expectedActive != nil && (previous == nil || *previous != *expectedActive) {
				return ErrVersionConflict
			}

			var next int
			if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) + 1 FROM pricing_config_versions`).Scan(&next); err != nil {
				return fmt.Errorf("failed to allocate version number: %w", err)
			}

			stored := doc.Clone()
			stored.Version = VersionLabel(next)
			document, err := json.Marshal(stored)
			if err != nil {
				return fmt.Errorf("failed to encode pricing document: %w", err)
			}

			if _, err := tx.Exec(ctx, `UPDATE pricing_config_versions SET is_active = false WHERE is_active`); err != nil {
				return fmt.Errorf("failed to deactivate pricing version: %w", err)
			}

			created = &ConfigVersion{
				ID:        uuid.New(),
				Version:   next,
				Document:  stored,
				IsActive:  true,
				CreatedBy: actor,
				Reason:    reason,
			}
			insert := `
				INSERT INTO pricing_config_versions (id, version, document, is_active, created_by, reason, created_at, activated_at)
				VALUES ($1, $2, $3, true, $4, $5, NOW(), NOW())
				RETURNING created_at, activated_at
			`
			if err := tx.QueryRow(ctx, insert, created.ID, next, document, actor, reason).Scan(&created.CreatedAt, &created.ActivatedAt); err != nil {
				return fmt.Errorf("failed to insert pricing version: %w", err)
			}

			return insertAudit(ctx, tx, created.ID, AuditActionCreated, actor, reason, patch, previous)
		})
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrVersionConflict
		}
		return nil, err
	}
	return created, nil
}

// ActivateVersion makes an existing version active. Activating the version
// that is already active changes nothing and returns a nil previous ID.
func (r *Repository) ActivateVersion(ctx context.Context, id uuid.UUID, actor, reason string) (*ConfigVersion, *uuid.UUID, error) {
	var (
		activated *ConfigVersion
		previous  *uuid.UUID
	)

	err := database.RetryableTransaction(ctx, r.db, func(tx pgx.Tx) error {
		target, err := scanVersion(tx.QueryRow(ctx,
			`SELECT `+versionColumns+` FROM pricing_config_versions WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVersionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load pricing version %s: %w", id, err)
		}

		activated, previous = target, nil
		if target.IsActive {
			return nil
		}

		previous, err = lockActiveID(ctx, tx)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `UPDATE pricing_config_versions SET is_active = false WHERE is_active`); err != nil {
			return fmt.Errorf("failed to deactivate pricing version: %w", err)
		}

		var activatedAt time.Time
		if err := tx.QueryRow(ctx,
			`UPDATE pricing_config_versions SET is_active = true, activated_at = NOW() WHERE id = $1 RETURNING activated_at`,
			id,
		).Scan(&activatedAt); err != nil {
			return fmt.Errorf("failed to activate pricing version %s: %w", id, err)
		}
		target.IsActive = true
		target.ActivatedAt = &activatedAt

		return insertAudit(ctx, tx, id, AuditActionActivated, actor, reason, nil, previous)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, ErrVersionConflict
		}
		return nil, nil, err
	}
	return activated, previous, nil
}

// ListAudit returns the audit trail, newest first
func (r *Repository) ListAudit(ctx context.Context, limit, offset int) ([]*AuditEntry, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM pricing_config_audit`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count pricing audit entries: %w", err)
	}

	query := `
		SELECT a.id, a.version_id, v.version, a.action, a.actor, a.reason, a.patch, a.previous_version_id, a.created_at
		FROM pricing_config_audit a
		JOIN pricing_config_versions v ON v.id = a.version_id
		ORDER BY a.created_at DESC
		LIMIT $1 OFFSET $2
	`

	entries, err := database.RetryableQuery(ctx, r.db, query, []any{limit, offset}, func(rows pgx.Rows) ([]*AuditEntry, error) {
		entries := make([]*AuditEntry, 0)
		for rows.Next() {
			e := &AuditEntry{}
			var patch []byte
			if err := rows.Scan(&e.ID, &e.VersionID, &e.Version, &e.Action, &e.Actor, &e.Reason, &patch, &e.PreviousVersionID, &e.CreatedAt); err != nil {
				return nil, fmt.Errorf("failed to scan pricing audit entry: %w", err)
			}
			if len(patch) > 0 {
				e.Patch = json.RawMessage(patch)
			}
			entries = append(entries, e)
		}
		return entries, rows.Err()
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list pricing audit entries: %w", err)
	}
	return entries, total, nil
}

// EnsureSeed stores doc as version 1 when the table is empty. It reports
// whether a version was created.
func (r *Repository) EnsureSeed(ctx context.Context, doc *fare.PricingConfiguration, actor string) (*ConfigVersion, bool, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM pricing_config_versions`).Scan(&count); err != nil {
		return nil, false, fmt.Errorf("failed to count pricing versions: %w", err)
	}
	if count > 0 {
		return nil, false, nil
	}

	created, err := r.CreateVersion(ctx, doc, nil, actor, "initial configuration", nil)
	if errors.Is(err, ErrVersionConflict) {
		// another replica seeded first
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func lockActiveID(ctx context.Context, tx pgx.Tx) (*uuid.UUID, error) {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM pricing_config_versions WHERE is_active FOR UPDATE`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock active pricing version: %w", err)
	}
	return &id, nil
}

func insertAudit(ctx context.Context, tx pgx.Tx, versionID uuid.UUID, action, actor, reason string, patch json.RawMessage, previous *uuid.UUID) error {
	var patchArg any
	if len(patch) > 0 {
		patchArg = []byte(patch)
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO pricing_config_audit (id, version_id, action, actor, reason, patch, previous_version_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`, uuid.New(), versionID, action, actor, reason, patchArg, previous)
	if err != nil {
		return fmt.Errorf("failed to write pricing audit entry: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
