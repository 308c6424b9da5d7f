package onboarding

// Phase is a tenant's onboarding progress milestone. Phases are ordered;
// a persisted phase never decreases (callers only store a candidate phase
// that ranks strictly above the previous one).
type Phase string

// Onboarding phases in ascending order. Completed and Skipped rank equal:
// both mean onboarding is over.
const (
	PhaseNotStarted     Phase = "NOT_STARTED"
	PhaseDiscovery      Phase = "DISCOVERY"
	PhaseMarketResearch Phase = "MARKET_RESEARCH"
	PhaseServices       Phase = "SERVICES"
	PhaseMarketing      Phase = "MARKETING"
	PhaseCompleted      Phase = "COMPLETED"
	PhaseSkipped        Phase = "SKIPPED"
)

var phaseRank = map[Phase]int{
	PhaseNotStarted:     0,
	PhaseDiscovery:      1,
	PhaseMarketResearch: 2,
	PhaseServices:       3,
	PhaseMarketing:      4,
	PhaseCompleted:      5,
	PhaseSkipped:        5,
}

// Rank returns the ordinal position of the phase. Unknown values rank as
// NOT_STARTED so a corrupt stored phase can always be advanced past.
func (p Phase) Rank() int {
	return phaseRank[p]
}

// After reports whether p ranks strictly above other.
func (p Phase) After(other Phase) bool {
	return p.Rank() > other.Rank()
}

// phaseTrigger maps a phase to the facts that unlock it: knowing any one
// of the listed facts places the tenant at least at that phase.
type phaseTrigger struct {
	phase Phase
	anyOf []FactKey
}

// Triggers are evaluated highest phase first. Phase reflects information
// value, not volume: a single high-value fact (e.g. a testimonial) can skip
// a tenant past several phases, and facts with no trigger (e.g. business
// name) never move the phase at all.
var phaseTriggers = []phaseTrigger{
	{PhaseMarketing, []FactKey{FactUniqueValue, FactTestimonial}},
	{PhaseServices, []FactKey{FactServicesOffered, FactPriceRange}},
	{PhaseMarketResearch, []FactKey{FactLocation}},
	{PhaseDiscovery, []FactKey{FactBusinessType}},
}

// ComputePhase returns the highest phase whose trigger is satisfied by the
// known facts, or NOT_STARTED when none fires.
func ComputePhase(knownFactKeys []FactKey) Phase {
	set := factSet(knownFactKeys)
	for _, trigger := range phaseTriggers {
		for _, key := range trigger.anyOf {
			if _, ok := set[key]; ok {
				return trigger.phase
			}
		}
	}
	return PhaseNotStarted
}
