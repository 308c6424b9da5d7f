// Package build runs the asynchronous content-build pipeline: it turns a
// tenant's discovery facts into generated website sections without blocking
// the request that triggered it.
package build

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/mateo/storefront-builder/internal/cache"
	"github.com/mateo/storefront-builder/internal/db"
	"github.com/mateo/storefront-builder/internal/llm"
	"github.com/mateo/storefront-builder/internal/notify"
	"github.com/mateo/storefront-builder/internal/onboarding"
)

// Overall build statuses. GENERATING statuses are visited in strict
// pipeline order; COMPLETE and FAILED are terminal.
const (
	StatusQueued             = "queued"
	StatusGeneratingHero     = "generating_hero"
	StatusGeneratingAbout    = "generating_about"
	StatusGeneratingServices = "generating_services"
	StatusComplete           = "complete"
	StatusFailed             = "failed"
)

// Per-section outcomes persisted in the section result map.
const (
	OutcomeComplete = "complete"
	OutcomeFailed   = "failed"
)

// PipelineSections is the fixed order in which sections are built.
var PipelineSections = []onboarding.SectionType{
	onboarding.SectionHero,
	onboarding.SectionAbout,
	onboarding.SectionServices,
}

// GeneratingStatus returns the overall status value for a section in flight.
func GeneratingStatus(section onboarding.SectionType) string {
	return "generating_" + string(section)
}

// User-facing messages. Diagnostic detail stays in server logs.
const (
	msgNoFacts        = "No business facts found yet. Complete the intake conversation first, then build."
	msgPartialSuccess = "Some sections could not be generated. You can refine them later."
	msgGenericFailure = "We couldn't build your site this time. Please try again."
	msgTimedOut       = "The build timed out. Please retry."
)

// TenantStore is the tenant persistence surface the orchestrator writes
// through. It is the only writer of build-status fields.
type TenantStore interface {
	GetTenant(ctx context.Context, tenantID uuid.UUID) (*db.Tenant, error)
	ResetBuildState(ctx context.Context, tenantID uuid.UUID, idempotencyKey *string) error
	SetBuildStatus(ctx context.Context, tenantID uuid.UUID, status string) error
	SetSectionResult(ctx context.Context, tenantID uuid.UUID, section, outcome string) error
	FinishBuild(ctx context.Context, tenantID uuid.UUID, status string, message *string) error
	IncrementBuildRetry(ctx context.Context, tenantID uuid.UUID) (int, error)
	SetOnboardingStatus(ctx context.Context, tenantID uuid.UUID, status string) error
	WithTenantLock(ctx context.Context, tenantID uuid.UUID, fn func(ctx context.Context) error) (bool, error)
}

// SectionWriter persists generated content. A write failure aborts only the
// section being written, never its siblings.
type SectionWriter interface {
	AddSection(ctx context.Context, tenantID uuid.UUID, pageName, sectionType string, content []byte, position int) error
}

// Config holds the orchestrator's budgets and limits.
type Config struct {
	PageName        string
	SectionTimeout  time.Duration
	PipelineTimeout time.Duration
	StuckThreshold  time.Duration
	MaxRetries      int
	MaxConcurrent   int64
}

// DefaultConfig returns production budgets: the per-section budget is well
// under the overall budget, and the stuck threshold is a small multiple of
// the overall budget.
func DefaultConfig() Config {
	return Config{
		PageName:        "home",
		SectionTimeout:  45 * time.Second,
		PipelineTimeout: 120 * time.Second,
		StuckThreshold:  6 * time.Minute,
		MaxRetries:      3,
		MaxConcurrent:   4,
	}
}

// Orchestrator schedules and executes build pipelines.
type Orchestrator struct {
	store    TenantStore
	writer   SectionWriter
	llm      llm.Client
	notifier notify.Notifier
	summary  *cache.Cache
	cfg      Config
	sem      *semaphore.Weighted
	wg       sync.WaitGroup
}

// New wires an orchestrator. The summary cache is shared with the fact
// service so build mutations invalidate the same view.
func New(store TenantStore, writer SectionWriter, client llm.Client, notifier notify.Notifier, summary *cache.Cache, cfg Config) *Orchestrator {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	return &Orchestrator{
		store:    store,
		writer:   writer,
		llm:      client,
		notifier: notifier,
		summary:  summary,
		cfg:      cfg,
		sem:      semaphore.NewWeighted(cfg.MaxConcurrent),
	}
}

// Trigger starts a build for the tenant and returns immediately. When the
// supplied idempotency key matches the stored one the call is a duplicate
// of a retried client request: nothing is reset and triggered=false is
// returned. The scheduled pipeline never propagates errors to the caller;
// its failures are logged and folded into the persisted build status.
//
// The mutual-exclusion lock is taken inside the pipeline body, so two
// overlapping triggers can both return triggered=true while only one run
// executes. Callers learn the true outcome from GetStatus polling.
func (o *Orchestrator) Trigger(ctx context.Context, tenantID uuid.UUID, idempotencyKey string) (bool, error) {
	tenant, err := o.store.GetTenant(ctx, tenantID)
	if err != nil {
		return false, err
	}
	if tenant == nil {
		return false, &TenantNotFoundError{TenantID: tenantID}
	}

	if idempotencyKey != "" && tenant.BuildIdempotencyKey != nil && *tenant.BuildIdempotencyKey == idempotencyKey {
		log.Printf("[Build] tenant %s: duplicate trigger suppressed (idempotency key match)", tenantID)
		return false, nil
	}

	var key *string
	if idempotencyKey != "" {
		key = &idempotencyKey
	}
	if err := o.store.ResetBuildState(ctx, tenantID, key); err != nil {
		return false, err
	}
	o.summary.Invalidate(tenantID.String())

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.run(tenantID)
	}()
	return true, nil
}

// run is the detached pipeline body. It shares no lifecycle with the
// triggering request.
func (o *Orchestrator) run(tenantID uuid.UUID) {
	ctx := context.Background()

	if err := o.sem.Acquire(ctx, 1); err != nil {
		log.Printf("[Build] tenant %s: failed to acquire pipeline slot: %v", tenantID, err)
		return
	}
	defer o.sem.Release(1)

	acquired, err := o.store.WithTenantLock(ctx, tenantID, func(ctx context.Context) error {
		return o.runPipeline(ctx, tenantID)
	})
	if err != nil {
		// Covers both pipeline errors and failures to take the lock at all
		// (a broken connection is not a held lock). Either way the run ends
		// terminal instead of lingering until the stuck threshold.
		log.Printf("[Build] tenant %s: pipeline error: %v", tenantID, err)
		msg := msgGenericFailure
		if ferr := o.store.FinishBuild(ctx, tenantID, StatusFailed, &msg); ferr != nil {
			log.Printf("[Build] tenant %s: failed to record pipeline failure: %v", tenantID, ferr)
		}
		o.summary.Invalidate(tenantID.String())
		return
	}
	if !acquired {
		// Another pipeline already holds the tenant lock. The trigger call
		// already returned; this skip is visible only through status polling.
		log.Printf("[Build] tenant %s: pipeline already running, skipping", tenantID)
		return
	}
	o.summary.Invalidate(tenantID.String())
}

// waitIdle blocks until all scheduled pipelines have finished. Test hook.
func (o *Orchestrator) waitIdle() {
	o.wg.Wait()
}
