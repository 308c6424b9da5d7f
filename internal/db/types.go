package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Tenant is the persisted record for one business on the platform. The
// onboarding subsystem owns the discovery-fact map and every build_* field;
// phases and build statuses are stored as plain strings so the schema stays
// decoupled from engine enums.
type Tenant struct {
	ID                  uuid.UUID         `json:"id"`
	Name                string            `json:"name"`
	OnboardingPhase     string            `json:"onboarding_phase"`
	OnboardingStatus    string            `json:"onboarding_status"`
	DiscoveryFacts      map[string]string `json:"discovery_facts"`
	BuildStatus         string            `json:"build_status"`
	BuildError          *string           `json:"build_error,omitempty"`
	BuildIdempotencyKey *string           `json:"build_idempotency_key,omitempty"`
	BuildStartedAt      *time.Time        `json:"build_started_at,omitempty"`
	BuildSectionResults map[string]string `json:"build_section_results"`
	BuildRetryCount     int               `json:"build_retry_count"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// SiteSection is one generated content block on a tenant's storefront page.
type SiteSection struct {
	ID          uuid.UUID       `json:"id"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	PageName    string          `json:"page_name"`
	SectionType string          `json:"section_type"`
	Content     json.RawMessage `json:"content"`
	Position    int             `json:"position"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
