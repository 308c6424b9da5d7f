// Package onboarding implements the discovery-fact progression engine: pure
// functions that compute the onboarding phase, section readiness, and the next
// recommended action from the set of facts known about a tenant's business.
package onboarding

import "strings"

// FactKey identifies a single discovery fact about a tenant's business.
type FactKey string

// The 15 canonical discovery facts collected during onboarding.
const (
	FactBusinessType    FactKey = "businessType"
	FactBusinessName    FactKey = "businessName"
	FactLocation        FactKey = "location"
	FactTargetMarket    FactKey = "targetMarket"
	FactPriceRange      FactKey = "priceRange"
	FactYearsInBusiness FactKey = "yearsInBusiness"
	FactTeamSize        FactKey = "teamSize"
	FactUniqueValue     FactKey = "uniqueValue"
	FactServicesOffered FactKey = "servicesOffered"
	FactSpecialization  FactKey = "specialization"
	FactApproach        FactKey = "approach"
	FactDreamClient     FactKey = "dreamClient"
	FactTestimonial     FactKey = "testimonial"
	FactFAQ             FactKey = "faq"
	FactContactInfo     FactKey = "contactInfo"
)

// MetadataPrefix marks internal bookkeeping keys stored alongside facts.
// Metadata keys never participate in phase, readiness, or count computations.
const MetadataPrefix = "_"

// MetaResearchTriggered records that market research was already kicked off
// for this tenant, so it is only recommended once.
const MetaResearchTriggered = MetadataPrefix + "researchTriggered"

// CanonicalFactKeys lists all canonical facts in declaration order.
var CanonicalFactKeys = []FactKey{
	FactBusinessType,
	FactBusinessName,
	FactLocation,
	FactTargetMarket,
	FactPriceRange,
	FactYearsInBusiness,
	FactTeamSize,
	FactUniqueValue,
	FactServicesOffered,
	FactSpecialization,
	FactApproach,
	FactDreamClient,
	FactTestimonial,
	FactFAQ,
	FactContactInfo,
}

// canonicalCount is the denominator for fact utilization.
const canonicalCount = 15

var canonicalLookup = func() map[FactKey]struct{} {
	m := make(map[FactKey]struct{}, len(CanonicalFactKeys))
	for _, k := range CanonicalFactKeys {
		m[k] = struct{}{}
	}
	return m
}()

// IsCanonical reports whether k is one of the 15 canonical fact keys.
func IsCanonical(k FactKey) bool {
	_, ok := canonicalLookup[k]
	return ok
}

// IsMetadata reports whether k is an internal metadata key.
func IsMetadata(k FactKey) bool {
	return strings.HasPrefix(string(k), MetadataPrefix)
}

// factSet deduplicates the input and drops metadata and unknown keys.
// Unknown keys are accepted without error; they simply never satisfy a
// requirement group, so filtering them here is equivalent. All engine
// computations, including utilization, work from this deduplicated set.
func factSet(keys []FactKey) map[FactKey]struct{} {
	set := make(map[FactKey]struct{}, len(keys))
	for _, k := range keys {
		if IsCanonical(k) {
			set[k] = struct{}{}
		}
	}
	return set
}

// CanonicalKeys extracts the deduplicated canonical fact keys from a raw
// fact map, such as the one persisted on the tenant record.
func CanonicalKeys(facts map[string]string) []FactKey {
	keys := make([]FactKey, 0, len(facts))
	for k := range facts {
		if IsCanonical(FactKey(k)) {
			keys = append(keys, FactKey(k))
		}
	}
	return keys
}

// StripMetadata returns a copy of facts with all metadata keys removed.
func StripMetadata(facts map[string]string) map[string]string {
	out := make(map[string]string, len(facts))
	for k, v := range facts {
		if !IsMetadata(FactKey(k)) {
			out[k] = v
		}
	}
	return out
}
