package build

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mateo/storefront-builder/internal/db"
	"github.com/mateo/storefront-builder/internal/onboarding"
	"github.com/mateo/storefront-builder/internal/prompts"
	"github.com/mateo/storefront-builder/internal/validation"
)

// sectionPositions fixes where each generated section lands on the page.
var sectionPositions = map[onboarding.SectionType]int{
	onboarding.SectionHero:     0,
	onboarding.SectionAbout:    1,
	onboarding.SectionServices: 2,
}

// runPipeline executes one build under the tenant lock. Normal failures
// (no facts, section errors, budget exhaustion) are folded into persisted
// state and return nil; a returned error means something unexpected broke
// and the caller converts it into a terminal FAILED status.
func (o *Orchestrator) runPipeline(ctx context.Context, tenantID uuid.UUID) error {
	start := time.Now()

	tenant, err := o.store.GetTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if tenant == nil {
		return fmt.Errorf("tenant vanished mid-build: %s", tenantID)
	}

	facts := onboarding.StripMetadata(tenant.DiscoveryFacts)
	if len(facts) == 0 {
		msg := msgNoFacts
		return o.store.FinishBuild(ctx, tenantID, StatusFailed, &msg)
	}

	succeeded := 0
	for _, section := range PipelineSections {
		if time.Since(start) > o.cfg.PipelineTimeout {
			log.Printf("[Build] tenant %s: overall budget exhausted, failing %s", tenantID, section)
			if err := o.store.SetSectionResult(ctx, tenantID, string(section), OutcomeFailed); err != nil {
				return err
			}
			continue
		}

		if err := o.store.SetBuildStatus(ctx, tenantID, GeneratingStatus(section)); err != nil {
			return err
		}
		o.summary.Invalidate(tenantID.String())

		outcome := OutcomeComplete
		if genErr := o.generateSection(ctx, tenant, section, facts); genErr != nil {
			outcome = OutcomeFailed
			log.Printf("[Build] tenant %s: section %s failed: %v", tenantID, section, genErr)
		} else {
			succeeded++
		}

		// Persisted immediately so a concurrent status poll sees real
		// progress, not just the coarse overall status.
		if err := o.store.SetSectionResult(ctx, tenantID, string(section), outcome); err != nil {
			return err
		}
		o.summary.Invalidate(tenantID.String())
	}

	switch {
	case succeeded == len(PipelineSections):
		if err := o.store.FinishBuild(ctx, tenantID, StatusComplete, nil); err != nil {
			return err
		}
		if err := o.store.SetOnboardingStatus(ctx, tenantID, "draft_ready"); err != nil {
			log.Printf("[Build] tenant %s: failed to advance onboarding status: %v", tenantID, err)
		}
		go o.notifier.BuildCompleted(context.Background(), tenantID)
	case succeeded > 0:
		// Partial success is a designed outcome: the tenant has a usable,
		// if incomplete, storefront.
		msg := msgPartialSuccess
		if err := o.store.FinishBuild(ctx, tenantID, StatusComplete, &msg); err != nil {
			return err
		}
		go o.notifier.BuildCompleted(context.Background(), tenantID)
	default:
		msg := msgGenericFailure
		if err := o.store.FinishBuild(ctx, tenantID, StatusFailed, &msg); err != nil {
			return err
		}
	}
	return nil
}

// generateSection builds and writes one section under the per-section
// budget. A timed-out or failed generation call fails the section; malformed
// model output is replaced by the deterministic fallback instead.
func (o *Orchestrator) generateSection(ctx context.Context, tenant *db.Tenant, section onboarding.SectionType, facts map[string]string) error {
	prompt, err := sectionPrompt(section, facts)
	if err != nil {
		return err
	}

	sctx, cancel := context.WithTimeout(ctx, o.cfg.SectionTimeout)
	defer cancel()

	content, err := o.generateContent(sctx, tenant.ID, section, prompt, facts)
	if err != nil {
		return err
	}

	data, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to encode %s content: %w", section, err)
	}

	if err := o.writer.AddSection(ctx, tenant.ID, o.cfg.PageName, string(section), data, sectionPositions[section]); err != nil {
		return fmt.Errorf("failed to write %s content: %w", section, err)
	}
	return nil
}

func (o *Orchestrator) generateContent(ctx context.Context, tenantID uuid.UUID, section onboarding.SectionType, prompt string, facts map[string]string) (any, error) {
	raw, err := o.llm.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generation call for %s failed: %w", section, err)
	}

	content, err := ParseSectionContent(section, raw)
	if err != nil {
		// Untrusted output is recovered locally, never surfaced to the user.
		log.Printf("[Build] tenant %s: discarding invalid %s output: %v", tenantID, section, err)
		return FallbackContent(section, facts), nil
	}
	return content, nil
}

// sectionPrompt renders the embedded template with a sanitized, quoted fact
// block. Fact values are attacker-controlled business-profile text and are
// always wrapped as data, never instructions.
func sectionPrompt(section onboarding.SectionType, facts map[string]string) (string, error) {
	template, err := prompts.Get("sections.json", string(section))
	if err != nil {
		return "", err
	}

	keys := make([]string, 0, len(facts))
	for k := range facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var lines []string
	for _, k := range keys {
		value := validation.SanitizeFactValue(facts[k])
		if value == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", k, value))
	}

	block := validation.QuoteFactBlock(strings.Join(lines, "\n"))
	return prompts.Format(template, map[string]string{"Facts": block}), nil
}
