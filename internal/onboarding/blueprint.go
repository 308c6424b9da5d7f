package onboarding

// SectionType identifies a website section the builder can generate.
type SectionType string

// Canonical section types. Gallery sections are deliberately absent: they
// need uploaded media, not discovery facts.
const (
	SectionHero         SectionType = "hero"
	SectionAbout        SectionType = "about"
	SectionServices     SectionType = "services"
	SectionPricing      SectionType = "pricing"
	SectionFAQ          SectionType = "faq"
	SectionContact      SectionType = "contact"
	SectionCTA          SectionType = "cta"
	SectionTestimonials SectionType = "testimonials"
)

// AllSectionTypes lists every section type in a fixed presentation order.
var AllSectionTypes = []SectionType{
	SectionHero,
	SectionAbout,
	SectionServices,
	SectionPricing,
	SectionFAQ,
	SectionContact,
	SectionCTA,
	SectionTestimonials,
}

// Blueprint declares what a section needs before it can be generated.
// Requires is a conjunction of OR-groups: every group must have at least one
// known fact. Relevant is the full set of facts that enrich the section; the
// known fraction of it determines the quality tier once the section is ready.
type Blueprint struct {
	Requires [][]FactKey
	Relevant []FactKey
}

var sectionBlueprints = map[SectionType]Blueprint{
	SectionHero: {
		Requires: [][]FactKey{{FactBusinessType}},
		Relevant: []FactKey{FactBusinessType, FactBusinessName, FactLocation, FactTargetMarket, FactUniqueValue},
	},
	SectionAbout: {
		Requires: [][]FactKey{
			{FactBusinessType},
			{FactYearsInBusiness, FactApproach, FactUniqueValue, FactSpecialization},
		},
		Relevant: []FactKey{FactBusinessType, FactBusinessName, FactYearsInBusiness, FactTeamSize, FactApproach, FactUniqueValue, FactSpecialization},
	},
	SectionServices: {
		Requires: [][]FactKey{{FactServicesOffered, FactSpecialization}},
		Relevant: []FactKey{FactServicesOffered, FactSpecialization, FactPriceRange, FactTargetMarket, FactApproach},
	},
	SectionPricing: {
		Requires: [][]FactKey{{FactPriceRange}},
		Relevant: []FactKey{FactPriceRange, FactServicesOffered, FactTargetMarket},
	},
	SectionFAQ: {
		Requires: [][]FactKey{{FactFAQ}},
		Relevant: []FactKey{FactFAQ, FactServicesOffered, FactPriceRange, FactContactInfo},
	},
	SectionContact: {
		Requires: [][]FactKey{{FactBusinessType, FactContactInfo}},
		Relevant: []FactKey{FactContactInfo, FactBusinessType, FactBusinessName, FactLocation},
	},
	SectionCTA: {
		Requires: [][]FactKey{{FactBusinessType}},
		Relevant: []FactKey{FactBusinessType, FactUniqueValue, FactDreamClient, FactContactInfo},
	},
	SectionTestimonials: {
		Requires: [][]FactKey{{FactTestimonial}},
		Relevant: []FactKey{FactTestimonial, FactDreamClient, FactTargetMarket},
	},
}
