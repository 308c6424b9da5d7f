package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const tenantColumns = `id, name, onboarding_phase, onboarding_status,
	COALESCE(discovery_facts, '{}'::jsonb),
	COALESCE(build_status, ''), build_error, build_idempotency_key, build_started_at,
	COALESCE(build_section_results, '{}'::jsonb),
	build_retry_count, created_at, updated_at`

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	var factsJSON, resultsJSON []byte
	err := row.Scan(
		&t.ID, &t.Name, &t.OnboardingPhase, &t.OnboardingStatus,
		&factsJSON,
		&t.BuildStatus, &t.BuildError, &t.BuildIdempotencyKey, &t.BuildStartedAt,
		&resultsJSON,
		&t.BuildRetryCount, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan tenant: %w", err)
	}

	if err := json.Unmarshal(factsJSON, &t.DiscoveryFacts); err != nil {
		return nil, fmt.Errorf("failed to decode discovery facts: %w", err)
	}
	if err := json.Unmarshal(resultsJSON, &t.BuildSectionResults); err != nil {
		return nil, fmt.Errorf("failed to decode section results: %w", err)
	}
	return &t, nil
}

// CreateTenant inserts a new tenant record and returns its ID
func (db *DB) CreateTenant(ctx context.Context, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO tenants (name, onboarding_phase, onboarding_status)
		 VALUES ($1, 'NOT_STARTED', 'intake')
		 RETURNING id`,
		name,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create tenant: %w", err)
	}
	return id, nil
}

// GetTenant retrieves a tenant by ID. Returns nil, nil when not found.
func (db *DB) GetTenant(ctx context.Context, tenantID uuid.UUID) (*Tenant, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`,
		tenantID,
	)
	return scanTenant(row)
}

// MergeDiscoveryFacts merges the given facts into the tenant's fact map with
// JSON-merge semantics (new keys added, existing keys overwritten, nothing
// removed) and returns the updated map.
func (db *DB) MergeDiscoveryFacts(ctx context.Context, tenantID uuid.UUID, facts map[string]string) (map[string]string, error) {
	patch, err := json.Marshal(facts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal facts: %w", err)
	}

	var mergedJSON []byte
	err = db.pool.QueryRow(ctx,
		`UPDATE tenants
		 SET discovery_facts = COALESCE(discovery_facts, '{}'::jsonb) || $2::jsonb,
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING discovery_facts`,
		tenantID, patch,
	).Scan(&mergedJSON)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to merge discovery facts: %w", err)
	}

	var merged map[string]string
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return nil, fmt.Errorf("failed to decode merged facts: %w", err)
	}
	return merged, nil
}

// SetOnboardingPhase persists a new onboarding phase. The caller is
// responsible for only passing a phase that ranks above the stored one.
func (db *DB) SetOnboardingPhase(ctx context.Context, tenantID uuid.UUID, phase string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE tenants SET onboarding_phase = $2, updated_at = NOW() WHERE id = $1`,
		tenantID, phase,
	)
	if err != nil {
		return fmt.Errorf("failed to set onboarding phase: %w", err)
	}
	return nil
}

// SetOnboardingStatus advances the tenant's coarse onboarding status.
func (db *DB) SetOnboardingStatus(ctx context.Context, tenantID uuid.UUID, status string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE tenants SET onboarding_status = $2, updated_at = NOW() WHERE id = $1`,
		tenantID, status,
	)
	if err != nil {
		return fmt.Errorf("failed to set onboarding status: %w", err)
	}
	return nil
}

// ResetBuildState prepares a tenant for a fresh build run: status queued,
// error cleared, start time stamped, section results emptied, and the
// supplied idempotency key (possibly nil) recorded.
func (db *DB) ResetBuildState(ctx context.Context, tenantID uuid.UUID, idempotencyKey *string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE tenants
		 SET build_status = $2,
		     build_error = NULL,
		     build_idempotency_key = $3,
		     build_started_at = NOW(),
		     build_section_results = '{}'::jsonb,
		     updated_at = NOW()
		 WHERE id = $1`,
		tenantID, "queued", idempotencyKey,
	)
	if err != nil {
		return fmt.Errorf("failed to reset build state: %w", err)
	}
	return nil
}

// SetBuildStatus updates only the coarse build status.
func (db *DB) SetBuildStatus(ctx context.Context, tenantID uuid.UUID, status string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE tenants SET build_status = $2, updated_at = NOW() WHERE id = $1`,
		tenantID, status,
	)
	if err != nil {
		return fmt.Errorf("failed to set build status: %w", err)
	}
	return nil
}

// SetSectionResult records the outcome of one section attempt. Written
// immediately after each attempt so a concurrent status poll sees progress.
func (db *DB) SetSectionResult(ctx context.Context, tenantID uuid.UUID, section, outcome string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE tenants
		 SET build_section_results = COALESCE(build_section_results, '{}'::jsonb) || jsonb_build_object($2::text, $3::text),
		     updated_at = NOW()
		 WHERE id = $1`,
		tenantID, section, outcome,
	)
	if err != nil {
		return fmt.Errorf("failed to record section result: %w", err)
	}
	return nil
}

// FinishBuild sets a terminal build status with an optional user-facing
// message.
func (db *DB) FinishBuild(ctx context.Context, tenantID uuid.UUID, status string, message *string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE tenants SET build_status = $2, build_error = $3, updated_at = NOW() WHERE id = $1`,
		tenantID, status, message,
	)
	if err != nil {
		return fmt.Errorf("failed to finish build: %w", err)
	}
	return nil
}

// IncrementBuildRetry bumps the retry counter and returns the new value.
func (db *DB) IncrementBuildRetry(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`UPDATE tenants
		 SET build_retry_count = build_retry_count + 1, updated_at = NOW()
		 WHERE id = $1
		 RETURNING build_retry_count`,
		tenantID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to increment retry count: %w", err)
	}
	return count, nil
}
