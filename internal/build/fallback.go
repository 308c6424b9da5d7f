package build

import (
	"fmt"
	"strings"

	"github.com/mateo/storefront-builder/internal/onboarding"
	"github.com/mateo/storefront-builder/internal/validation"
)

// FallbackContent synthesizes structurally valid section content directly
// from the raw facts, with no network dependency. It is deterministic: the
// same facts always produce the same content.
func FallbackContent(section onboarding.SectionType, facts map[string]string) any {
	fact := func(key onboarding.FactKey) string {
		return validation.SanitizeFactValue(facts[string(key)])
	}

	switch section {
	case onboarding.SectionHero:
		headline := fact(onboarding.FactBusinessName)
		if headline == "" {
			if businessType := fact(onboarding.FactBusinessType); businessType != "" {
				headline = clamp("Your local "+businessType, maxHeadlineLen)
			} else {
				headline = "Welcome"
			}
		}
		subheadline := fact(onboarding.FactUniqueValue)
		if subheadline == "" {
			if location := fact(onboarding.FactLocation); location != "" {
				subheadline = "Serving " + location
			}
		}
		return HeroContent{
			Headline:    clamp(headline, maxHeadlineLen),
			Subheadline: clamp(subheadline, maxSubheadlineLen),
			CTALabel:    "Get in touch",
		}

	case onboarding.SectionAbout:
		heading := "About us"
		if name := fact(onboarding.FactBusinessName); name != "" {
			heading = clamp("About "+name, maxHeadingLen)
		}
		var sentences []string
		if businessType := fact(onboarding.FactBusinessType); businessType != "" {
			sentences = append(sentences, fmt.Sprintf("We are a %s.", businessType))
		}
		if years := fact(onboarding.FactYearsInBusiness); years != "" {
			sentences = append(sentences, fmt.Sprintf("We have been at it for %s.", years))
		}
		if approach := fact(onboarding.FactApproach); approach != "" {
			sentences = append(sentences, approach+".")
		}
		body := strings.Join(sentences, " ")
		if body == "" {
			body = "We look forward to telling you more about what we do."
		}
		return AboutContent{
			Heading: heading,
			Body:    clamp(body, maxBodyLen),
		}

	case onboarding.SectionServices:
		var items []ServiceItem
		if offered := fact(onboarding.FactServicesOffered); offered != "" {
			for _, name := range splitServices(offered) {
				items = append(items, ServiceItem{
					Name:        clamp(name, maxItemNameLen),
					Description: "Get in touch for details.",
				})
				if len(items) == maxServiceItems {
					break
				}
			}
		}
		if len(items) == 0 {
			if specialization := fact(onboarding.FactSpecialization); specialization != "" {
				items = append(items, ServiceItem{
					Name:        clamp(specialization, maxItemNameLen),
					Description: "Get in touch for details.",
				})
			} else {
				items = append(items, ServiceItem{Name: "Our services", Description: "Get in touch for details."})
			}
		}
		return ServicesContent{Heading: "Services", Items: items}

	default:
		// Unreachable for pipeline sections; kept total for safety.
		return map[string]string{"section": string(section)}
	}
}

// splitServices breaks a free-text service list on common separators.
func splitServices(offered string) []string {
	parts := strings.FieldsFunc(offered, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
