// Package notify defines fire-and-forget notifications the onboarding
// subsystem sends to the rest of the product.
package notify

import (
	"context"
	"log"

	"github.com/google/uuid"
)

// Notifier receives onboarding lifecycle events. Implementations must not
// block the caller and no return value is consumed; failures are the
// implementation's problem to log.
type Notifier interface {
	// ResearchRequested fires when the engine first recommends market
	// research for a tenant.
	ResearchRequested(ctx context.Context, tenantID uuid.UUID)
	// BuildCompleted fires when a build pipeline reaches a terminal
	// COMPLETE status.
	BuildCompleted(ctx context.Context, tenantID uuid.UUID)
}

// LogNotifier is the default Notifier: it only logs. The production wiring
// replaces it with the research-agent client.
type LogNotifier struct{}

// ResearchRequested logs the research trigger.
func (LogNotifier) ResearchRequested(_ context.Context, tenantID uuid.UUID) {
	log.Printf("[Notify] research requested for tenant %s", tenantID)
}

// BuildCompleted logs the build completion.
func (LogNotifier) BuildCompleted(_ context.Context, tenantID uuid.UUID) {
	log.Printf("[Notify] build completed for tenant %s", tenantID)
}
