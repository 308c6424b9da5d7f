// Package facts is the storage-facing entry point for discovery facts. It
// persists fact mutations, keeps the stored onboarding phase monotonic, and
// surfaces the engine's recommendation for each stored fact.
package facts

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mateo/storefront-builder/internal/cache"
	"github.com/mateo/storefront-builder/internal/db"
	"github.com/mateo/storefront-builder/internal/notify"
	"github.com/mateo/storefront-builder/internal/onboarding"
	"github.com/mateo/storefront-builder/internal/validation"
)

// Store is the subset of tenant persistence the fact service needs.
type Store interface {
	GetTenant(ctx context.Context, tenantID uuid.UUID) (*db.Tenant, error)
	MergeDiscoveryFacts(ctx context.Context, tenantID uuid.UUID, facts map[string]string) (map[string]string, error)
	SetOnboardingPhase(ctx context.Context, tenantID uuid.UUID, phase string) error
}

// TenantNotFoundError indicates the tenant record does not exist.
type TenantNotFoundError struct {
	TenantID uuid.UUID
}

func (e *TenantNotFoundError) Error() string {
	return fmt.Sprintf("tenant not found: %s", e.TenantID)
}

// StoreFactResult reports the state of onboarding after one stored fact.
type StoreFactResult struct {
	FactKeys       []onboarding.FactKey     `json:"factKeys"`
	Phase          onboarding.Phase         `json:"phase"`
	PhaseAdvanced  bool                     `json:"phaseAdvanced"`
	NextAction     onboarding.NextAction    `json:"nextAction"`
	ReadySections  []onboarding.SectionType `json:"readySections"`
	MissingForNext []onboarding.FactKey     `json:"missingForNext"`
	SlotMetrics    onboarding.SlotMetrics   `json:"slotMetrics"`
}

// Summary is the short-lived cached view other parts of the product read.
type Summary struct {
	TenantID      uuid.UUID                `json:"tenantId"`
	Phase         onboarding.Phase         `json:"phase"`
	Status        string                   `json:"status"`
	BuildStatus   string                   `json:"buildStatus"`
	FactCount     int                      `json:"factCount"`
	Utilization   int                      `json:"utilization"`
	ReadySections []onboarding.SectionType `json:"readySections"`
	ComputedAt    time.Time                `json:"computedAt"`
}

// Service owns fact reads and writes for all tenants.
type Service struct {
	store    Store
	notifier notify.Notifier
	summary  *cache.Cache
}

// NewService wires the fact service. The summary cache is owned by the
// caller and shared with anything else that mutates tenant state.
func NewService(store Store, notifier notify.Notifier, summary *cache.Cache) *Service {
	return &Service{store: store, notifier: notifier, summary: summary}
}

// StoreFact records one fact, recomputes the onboarding recommendation, and
// advances the persisted phase when the candidate phase ranks strictly above
// the stored one. Facts are only ever added or overwritten, never deleted.
func (s *Service) StoreFact(ctx context.Context, tenantID uuid.UUID, key, value string) (*StoreFactResult, error) {
	tenant, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, &TenantNotFoundError{TenantID: tenantID}
	}

	validation.WarnOnSuspiciousValue(key, value)

	merged, err := s.store.MergeDiscoveryFacts(ctx, tenantID, map[string]string{key: value})
	if err != nil {
		return nil, err
	}
	if merged == nil {
		return nil, &TenantNotFoundError{TenantID: tenantID}
	}
	s.summary.Invalidate(tenantID.String())

	keys := onboarding.CanonicalKeys(merged)
	previousPhase := onboarding.Phase(tenant.OnboardingPhase)
	researchTriggered := merged[onboarding.MetaResearchTriggered] == "true"

	rec := onboarding.ComputeNextAction(keys, previousPhase, researchTriggered)

	if rec.PhaseAdvanced {
		if err := s.store.SetOnboardingPhase(ctx, tenantID, string(rec.Phase)); err != nil {
			return nil, err
		}
	}

	if rec.NextAction == onboarding.ActionTriggerResearch {
		if _, err := s.store.MergeDiscoveryFacts(ctx, tenantID, map[string]string{
			onboarding.MetaResearchTriggered: "true",
		}); err != nil {
			// The recommendation stands; research may just fire twice.
			log.Printf("[Facts] failed to mark research triggered for %s: %v", tenantID, err)
		}
		go s.notifier.ResearchRequested(context.Background(), tenantID)
	}

	return &StoreFactResult{
		FactKeys:       keys,
		Phase:          rec.Phase,
		PhaseAdvanced:  rec.PhaseAdvanced,
		NextAction:     rec.NextAction,
		ReadySections:  rec.ReadySections,
		MissingForNext: rec.TopMissingFacts,
		SlotMetrics:    rec.SlotMetrics,
	}, nil
}

// GetDiscoveryFacts returns the tenant's facts with metadata keys stripped,
// plus the canonical fact count.
func (s *Service) GetDiscoveryFacts(ctx context.Context, tenantID uuid.UUID) (map[string]string, int, error) {
	tenant, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, 0, err
	}
	if tenant == nil {
		return nil, 0, &TenantNotFoundError{TenantID: tenantID}
	}

	filtered := onboarding.StripMetadata(tenant.DiscoveryFacts)
	return filtered, len(onboarding.CanonicalKeys(tenant.DiscoveryFacts)), nil
}

// GetSummary returns the cached bootstrap view of a tenant's onboarding
// state, recomputing it when the cache has no fresh entry.
func (s *Service) GetSummary(ctx context.Context, tenantID uuid.UUID) (*Summary, error) {
	if cached, ok := s.summary.Get(tenantID.String()); ok {
		if summary, ok := cached.(*Summary); ok {
			return summary, nil
		}
	}

	tenant, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, &TenantNotFoundError{TenantID: tenantID}
	}

	keys := onboarding.CanonicalKeys(tenant.DiscoveryFacts)
	rec := onboarding.ComputeNextAction(keys, onboarding.Phase(tenant.OnboardingPhase), true)

	summary := &Summary{
		TenantID:      tenant.ID,
		Phase:         onboarding.Phase(tenant.OnboardingPhase),
		Status:        tenant.OnboardingStatus,
		BuildStatus:   tenant.BuildStatus,
		FactCount:     len(keys),
		Utilization:   rec.SlotMetrics.Utilization,
		ReadySections: rec.ReadySections,
		ComputedAt:    time.Now(),
	}
	s.summary.Set(tenantID.String(), summary)
	return summary, nil
}
