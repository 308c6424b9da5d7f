package onboarding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeNextAction_EmptyFacts(t *testing.T) {
	rec := ComputeNextAction(nil, PhaseNotStarted, false)

	assert.Equal(t, ActionAsk, rec.NextAction)
	assert.Empty(t, rec.ReadySections)
	assert.Equal(t, PhaseNotStarted, rec.Phase)
	assert.False(t, rec.PhaseAdvanced)
	assert.Equal(t, 0, rec.SlotMetrics.Utilization)
}

func TestComputeNextAction_TriggerResearch(t *testing.T) {
	keys := []FactKey{FactBusinessType, FactLocation}

	rec := ComputeNextAction(keys, PhaseDiscovery, false)
	assert.Equal(t, ActionTriggerResearch, rec.NextAction)

	// Once research has run it is never recommended again.
	rec = ComputeNextAction(keys, PhaseDiscovery, true)
	assert.Equal(t, ActionAsk, rec.NextAction)
}

func TestComputeNextAction_BuildFirstDraftTakesPriority(t *testing.T) {
	// Research not yet triggered and refinement thresholds also in reach:
	// the build recommendation must still win.
	keys := []FactKey{FactBusinessType, FactLocation, FactUniqueValue}

	rec := ComputeNextAction(keys, PhaseNotStarted, false)
	assert.Equal(t, ActionBuildFirstDraft, rec.NextAction)
	assert.GreaterOrEqual(t, len(rec.ReadySections), 3)
}

func TestComputeNextAction_BuildRequiresOptionalFact(t *testing.T) {
	// Required facts alone are not enough; one of servicesOffered,
	// uniqueValue, dreamClient must also be known.
	keys := []FactKey{FactBusinessType, FactLocation}
	rec := ComputeNextAction(keys, PhaseNotStarted, true)
	assert.NotEqual(t, ActionBuildFirstDraft, rec.NextAction)

	keys = append(keys, FactDreamClient)
	rec = ComputeNextAction(keys, PhaseNotStarted, true)
	assert.Equal(t, ActionBuildFirstDraft, rec.NextAction)
}

func TestComputeNextAction_OfferRefinement(t *testing.T) {
	// 9 of 15 facts (60%) known, no build-qualifying optional fact missing...
	// use a set without location so BUILD_FIRST_DRAFT cannot fire, with
	// enough coverage that at least 5 sections are ready.
	keys := []FactKey{
		FactBusinessType, FactBusinessName, FactTargetMarket,
		FactPriceRange, FactServicesOffered, FactTestimonial,
		FactFAQ, FactContactInfo, FactYearsInBusiness,
	}

	rec := ComputeNextAction(keys, PhaseMarketing, true)
	assert.Equal(t, ActionOfferRefinement, rec.NextAction)
	assert.GreaterOrEqual(t, rec.SlotMetrics.Utilization, 60)
	assert.GreaterOrEqual(t, len(rec.ReadySections), 5)
}

func TestComputeNextAction_Utilization(t *testing.T) {
	tests := []struct {
		name string
		keys []FactKey
		want int
	}{
		{"zero facts", nil, 0},
		{"one fact rounds to 7", []FactKey{FactBusinessType}, 7},
		{"duplicates count once", []FactKey{FactBusinessType, FactBusinessType}, 7},
		{"two facts round to 13", []FactKey{FactBusinessType, FactLocation}, 13},
		{"unknown keys do not count", []FactKey{FactBusinessType, "nonsense"}, 7},
		{"all facts", CanonicalFactKeys, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ComputeNextAction(tt.keys, PhaseNotStarted, true)
			assert.Equal(t, tt.want, rec.SlotMetrics.Utilization)
			assert.Equal(t, 15, rec.SlotMetrics.Total)
		})
	}
}

func TestComputeNextAction_TopMissingFacts(t *testing.T) {
	// Highest-priority missing facts, never more than three, never a known key.
	rec := ComputeNextAction(nil, PhaseNotStarted, false)
	assert.Equal(t, []FactKey{FactBusinessType, FactLocation, FactServicesOffered}, rec.TopMissingFacts)

	rec = ComputeNextAction([]FactKey{FactBusinessType, FactServicesOffered}, PhaseNotStarted, false)
	assert.Equal(t, []FactKey{FactLocation, FactUniqueValue, FactPriceRange}, rec.TopMissingFacts)

	rec = ComputeNextAction(CanonicalFactKeys, PhaseNotStarted, false)
	assert.Empty(t, rec.TopMissingFacts)
}

func TestComputeNextAction_PhaseAdvanced(t *testing.T) {
	keys := []FactKey{FactBusinessType, FactLocation}

	rec := ComputeNextAction(keys, PhaseDiscovery, true)
	assert.Equal(t, PhaseMarketResearch, rec.Phase)
	assert.True(t, rec.PhaseAdvanced)

	rec = ComputeNextAction(keys, PhaseServices, true)
	assert.Equal(t, PhaseMarketResearch, rec.Phase)
	assert.False(t, rec.PhaseAdvanced, "candidate phase below stored phase must not advance")
}
