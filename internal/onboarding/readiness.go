package onboarding

// Quality grades how rich a ready section's content can be, based on how
// much of the section's relevant fact set is known.
type Quality string

const (
	QualityMinimal   Quality = "minimal"
	QualityGood      Quality = "good"
	QualityExcellent Quality = "excellent"
)

// SectionReadiness describes whether one section has enough facts to be
// generated, and which of its relevant facts are known or still missing.
type SectionReadiness struct {
	Section      SectionType `json:"section"`
	Ready        bool        `json:"ready"`
	KnownFacts   []FactKey   `json:"knownFacts"`
	MissingFacts []FactKey   `json:"missingFacts"`
	Quality      Quality     `json:"quality"`
}

// ComputeReadiness evaluates every section blueprint against the known
// facts. A section is ready when each AND-group in its blueprint has at
// least one known key. Quality is computed only for ready sections; a
// not-ready section is always minimal no matter which optional facts
// happen to be known.
func ComputeReadiness(knownFactKeys []FactKey) []SectionReadiness {
	set := factSet(knownFactKeys)
	out := make([]SectionReadiness, 0, len(AllSectionTypes))
	for _, section := range AllSectionTypes {
		bp := sectionBlueprints[section]
		ready := true
		for _, group := range bp.Requires {
			if !anyKnown(set, group) {
				ready = false
				break
			}
		}

		known := make([]FactKey, 0, len(bp.Relevant))
		missing := make([]FactKey, 0, len(bp.Relevant))
		for _, key := range bp.Relevant {
			if _, ok := set[key]; ok {
				known = append(known, key)
			} else {
				missing = append(missing, key)
			}
		}

		quality := QualityMinimal
		if ready {
			quality = qualityTier(len(known), len(bp.Relevant))
		}

		out = append(out, SectionReadiness{
			Section:      section,
			Ready:        ready,
			KnownFacts:   known,
			MissingFacts: missing,
			Quality:      quality,
		})
	}
	return out
}

func anyKnown(set map[FactKey]struct{}, group []FactKey) bool {
	for _, key := range group {
		if _, ok := set[key]; ok {
			return true
		}
	}
	return false
}

func qualityTier(known, relevant int) Quality {
	if relevant == 0 {
		return QualityMinimal
	}
	fraction := float64(known) / float64(relevant)
	switch {
	case fraction >= 0.8:
		return QualityExcellent
	case fraction >= 0.5:
		return QualityGood
	default:
		return QualityMinimal
	}
}
