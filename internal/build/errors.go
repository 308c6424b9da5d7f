package build

import (
	"fmt"

	"github.com/google/uuid"
)

// TenantNotFoundError indicates the tenant record does not exist.
type TenantNotFoundError struct {
	TenantID uuid.UUID
}

func (e *TenantNotFoundError) Error() string {
	return fmt.Sprintf("tenant not found: %s", e.TenantID)
}

// NotRetryableError indicates retry was requested while the build is in a
// state that does not permit it.
type NotRetryableError struct {
	Status string
}

func (e *NotRetryableError) Error() string {
	if e.Status == "" {
		return "no build to retry yet"
	}
	return fmt.Sprintf("build is %s; only a failed or stuck build can be retried", e.Status)
}

// MaxRetriesError indicates the per-tenant retry ceiling was reached.
type MaxRetriesError struct {
	Limit int
}

func (e *MaxRetriesError) Error() string {
	return fmt.Sprintf("build retried %d times without success; please contact support", e.Limit)
}
