package onboarding

import "math"

// NextAction is the engine's recommendation for what the assistant should
// do next with this tenant.
type NextAction string

const (
	// ActionBuildFirstDraft recommends kicking off the first site build.
	ActionBuildFirstDraft NextAction = "BUILD_FIRST_DRAFT"
	// ActionTriggerResearch recommends starting market research.
	ActionTriggerResearch NextAction = "TRIGGER_RESEARCH"
	// ActionOfferRefinement recommends offering to polish existing sections.
	ActionOfferRefinement NextAction = "OFFER_REFINEMENT"
	// ActionAsk recommends asking for more facts.
	ActionAsk NextAction = "ASK"
)

// SlotMetrics summarizes how much of the canonical fact set is filled.
type SlotMetrics struct {
	Filled      int `json:"filled"`
	Total       int `json:"total"`
	Utilization int `json:"utilization"`
}

// Recommendation is the full output of ComputeNextAction.
type Recommendation struct {
	NextAction      NextAction    `json:"nextAction"`
	Phase           Phase         `json:"phase"`
	PhaseAdvanced   bool          `json:"phaseAdvanced"`
	ReadySections   []SectionType `json:"readySections"`
	TopMissingFacts []FactKey     `json:"topMissingFacts"`
	SlotMetrics     SlotMetrics   `json:"slotMetrics"`
}

// missingFactPriority fixes the order in which absent facts are suggested.
// High-leverage facts (ones that gate building and research) come first.
var missingFactPriority = []FactKey{
	FactBusinessType,
	FactLocation,
	FactServicesOffered,
	FactUniqueValue,
	FactPriceRange,
	FactTargetMarket,
	FactDreamClient,
	FactTestimonial,
	FactFAQ,
	FactContactInfo,
	FactBusinessName,
	FactYearsInBusiness,
	FactTeamSize,
	FactSpecialization,
	FactApproach,
}

const maxSuggestedFacts = 3

// Thresholds for the refinement offer.
const (
	refinementUtilization  = 60
	refinementReadyMinimum = 5
	buildReadyMinimum      = 3
)

// ComputeNextAction recommends the assistant's next move. Conditions are
// evaluated strictly in priority order and the first match wins, so a
// tenant that qualifies for a first draft gets that recommendation even
// when research or refinement conditions also hold.
func ComputeNextAction(knownFactKeys []FactKey, previousPhase Phase, researchAlreadyTriggered bool) Recommendation {
	set := factSet(knownFactKeys)
	has := func(k FactKey) bool {
		_, ok := set[k]
		return ok
	}

	readiness := ComputeReadiness(knownFactKeys)
	ready := make([]SectionType, 0, len(readiness))
	for _, sr := range readiness {
		if sr.Ready {
			ready = append(ready, sr.Section)
		}
	}

	filled := len(set)
	utilization := int(math.Round(float64(filled) / canonicalCount * 100))

	hasRequired := has(FactBusinessType) && has(FactLocation)
	hasOptional := has(FactServicesOffered) || has(FactUniqueValue) || has(FactDreamClient)

	var action NextAction
	switch {
	case hasRequired && hasOptional && len(ready) >= buildReadyMinimum:
		action = ActionBuildFirstDraft
	case hasRequired && !researchAlreadyTriggered:
		action = ActionTriggerResearch
	case utilization >= refinementUtilization && len(ready) >= refinementReadyMinimum:
		action = ActionOfferRefinement
	default:
		action = ActionAsk
	}

	missing := make([]FactKey, 0, maxSuggestedFacts)
	for _, key := range missingFactPriority {
		if len(missing) == maxSuggestedFacts {
			break
		}
		if !has(key) {
			missing = append(missing, key)
		}
	}

	phase := ComputePhase(knownFactKeys)
	return Recommendation{
		NextAction:      action,
		Phase:           phase,
		PhaseAdvanced:   phase.After(previousPhase),
		ReadySections:   ready,
		TopMissingFacts: missing,
		SlotMetrics: SlotMetrics{
			Filled:      filled,
			Total:       canonicalCount,
			Utilization: utilization,
		},
	}
}
