package build

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Derived per-section statuses reported by GetStatus.
const (
	SectionPending    = "pending"
	SectionInProgress = "in_progress"
)

// Status is the polling view of a tenant's build run.
type Status struct {
	Status     string            `json:"status"`
	Error      *string           `json:"error,omitempty"`
	Sections   map[string]string `json:"sections"`
	RetryCount int               `json:"retryCount"`
	StartedAt  *time.Time        `json:"startedAt,omitempty"`
}

// isActive reports whether a status is non-terminal for a run that was
// actually started.
func isActive(status string) bool {
	return status != "" && status != StatusComplete && status != StatusFailed
}

// GetStatus returns the persisted build progress. A non-terminal run whose
// start time has aged past the stuck threshold is unilaterally failed here:
// this lazy check is the only mechanism that reclaims a run whose background
// execution died without updating status.
func (o *Orchestrator) GetStatus(ctx context.Context, tenantID uuid.UUID) (*Status, error) {
	tenant, err := o.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, &TenantNotFoundError{TenantID: tenantID}
	}

	status := tenant.BuildStatus
	message := tenant.BuildError

	if isActive(status) && tenant.BuildStartedAt != nil && time.Since(*tenant.BuildStartedAt) > o.cfg.StuckThreshold {
		log.Printf("[Build] tenant %s: run stuck in %s since %s, auto-failing", tenantID, status, tenant.BuildStartedAt)
		msg := msgTimedOut
		if err := o.store.FinishBuild(ctx, tenantID, StatusFailed, &msg); err != nil {
			return nil, err
		}
		o.summary.Invalidate(tenantID.String())
		status = StatusFailed
		message = &msg
	}

	return &Status{
		Status:     status,
		Error:      message,
		Sections:   deriveSectionStatuses(status, tenant.BuildSectionResults),
		RetryCount: tenant.BuildRetryCount,
		StartedAt:  tenant.BuildStartedAt,
	}, nil
}

// deriveSectionStatuses prefers the persisted per-section result map and
// falls back to inferring from the coarse overall status only for runs that
// predate the map.
func deriveSectionStatuses(overall string, results map[string]string) map[string]string {
	out := make(map[string]string, len(PipelineSections))

	if len(results) > 0 {
		for _, section := range PipelineSections {
			name := string(section)
			if outcome, ok := results[name]; ok {
				out[name] = outcome
			} else if overall == GeneratingStatus(section) {
				out[name] = SectionInProgress
			} else {
				out[name] = SectionPending
			}
		}
		return out
	}

	current := -1
	for i, section := range PipelineSections {
		if overall == GeneratingStatus(section) {
			current = i
			break
		}
	}

	for i, section := range PipelineSections {
		name := string(section)
		switch {
		case overall == StatusComplete:
			out[name] = OutcomeComplete
		case overall == StatusFailed:
			out[name] = OutcomeFailed
		case current >= 0 && i < current:
			out[name] = OutcomeComplete
		case current == i:
			out[name] = SectionInProgress
		default:
			out[name] = SectionPending
		}
	}
	return out
}

// Retry re-triggers a failed build, or a stuck one the status check would
// auto-fail anyway. The retry ceiling is enforced per tenant; a fresh run
// is forced by triggering without an idempotency key.
func (o *Orchestrator) Retry(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	tenant, err := o.store.GetTenant(ctx, tenantID)
	if err != nil {
		return false, err
	}
	if tenant == nil {
		return false, &TenantNotFoundError{TenantID: tenantID}
	}

	failed := tenant.BuildStatus == StatusFailed
	stuck := isActive(tenant.BuildStatus) &&
		tenant.BuildStartedAt != nil &&
		time.Since(*tenant.BuildStartedAt) > o.cfg.StuckThreshold
	if !failed && !stuck {
		return false, &NotRetryableError{Status: tenant.BuildStatus}
	}

	if tenant.BuildRetryCount >= o.cfg.MaxRetries {
		return false, &MaxRetriesError{Limit: o.cfg.MaxRetries}
	}
	if _, err := o.store.IncrementBuildRetry(ctx, tenantID); err != nil {
		return false, err
	}

	return o.Trigger(ctx, tenantID, "")
}
