package build

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mateo/storefront-builder/internal/llm"
	"github.com/mateo/storefront-builder/internal/onboarding"
)

// HeroContent is the validated shape of a hero section.
type HeroContent struct {
	Headline    string `json:"headline"`
	Subheadline string `json:"subheadline,omitempty"`
	CTALabel    string `json:"ctaLabel,omitempty"`
}

// AboutContent is the validated shape of an about section.
type AboutContent struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// ServiceItem is one offered service inside a services section.
type ServiceItem struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ServicesContent is the validated shape of a services section.
type ServicesContent struct {
	Heading string        `json:"heading"`
	Items   []ServiceItem `json:"items"`
}

// Display length limits, applied after schema validation.
const (
	maxHeadlineLen    = 120
	maxSubheadlineLen = 240
	maxCTALabelLen    = 40
	maxHeadingLen     = 120
	maxBodyLen        = 2000
	maxItemNameLen    = 80
	maxItemDescLen    = 400
	maxServiceItems   = 10
)

// Strict schemas for untrusted model output. additionalProperties=false
// rejects anything outside the declared shape, including dangerous keys
// like "__proto__"; the generous maxLength bounds reject runaway output
// before the display clamps tighten it further.
const (
	heroSchemaJSON = `{
		"type": "object",
		"additionalProperties": false,
		"required": ["headline"],
		"properties": {
			"headline": {"type": "string", "minLength": 1, "maxLength": 500},
			"subheadline": {"type": "string", "maxLength": 1000},
			"ctaLabel": {"type": "string", "maxLength": 200}
		}
	}`
	aboutSchemaJSON = `{
		"type": "object",
		"additionalProperties": false,
		"required": ["heading", "body"],
		"properties": {
			"heading": {"type": "string", "minLength": 1, "maxLength": 500},
			"body": {"type": "string", "minLength": 1, "maxLength": 8000}
		}
	}`
	servicesSchemaJSON = `{
		"type": "object",
		"additionalProperties": false,
		"required": ["heading", "items"],
		"properties": {
			"heading": {"type": "string", "minLength": 1, "maxLength": 500},
			"items": {
				"type": "array",
				"minItems": 1,
				"maxItems": 25,
				"items": {
					"type": "object",
					"additionalProperties": false,
					"required": ["name"],
					"properties": {
						"name": {"type": "string", "minLength": 1, "maxLength": 300},
						"description": {"type": "string", "maxLength": 1500}
					}
				}
			}
		}
	}`
)

var sectionSchemas = map[onboarding.SectionType]*gojsonschema.Schema{
	onboarding.SectionHero:     mustSchema(heroSchemaJSON),
	onboarding.SectionAbout:    mustSchema(aboutSchemaJSON),
	onboarding.SectionServices: mustSchema(servicesSchemaJSON),
}

func mustSchema(schemaJSON string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("invalid section schema: %v", err))
	}
	return schema
}

// ParseSectionContent extracts a JSON object from raw model output and
// validates it against the section's strict schema. Any parse or validation
// failure is an error; the caller substitutes the deterministic fallback.
func ParseSectionContent(section onboarding.SectionType, raw string) (any, error) {
	schema, ok := sectionSchemas[section]
	if !ok {
		return nil, fmt.Errorf("no content schema for section %s", section)
	}

	jsonText, err := llm.ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(jsonText))
	if err != nil {
		return nil, fmt.Errorf("content for %s is not valid JSON: %w", section, err)
	}
	if !result.Valid() {
		var reasons []string
		for _, desc := range result.Errors() {
			reasons = append(reasons, desc.String())
		}
		return nil, fmt.Errorf("content for %s failed schema validation: %s", section, strings.Join(reasons, "; "))
	}

	switch section {
	case onboarding.SectionHero:
		var content HeroContent
		if err := json.Unmarshal([]byte(jsonText), &content); err != nil {
			return nil, err
		}
		content.Headline = clamp(content.Headline, maxHeadlineLen)
		content.Subheadline = clamp(content.Subheadline, maxSubheadlineLen)
		content.CTALabel = clamp(content.CTALabel, maxCTALabelLen)
		return content, nil
	case onboarding.SectionAbout:
		var content AboutContent
		if err := json.Unmarshal([]byte(jsonText), &content); err != nil {
			return nil, err
		}
		content.Heading = clamp(content.Heading, maxHeadingLen)
		content.Body = clamp(content.Body, maxBodyLen)
		return content, nil
	case onboarding.SectionServices:
		var content ServicesContent
		if err := json.Unmarshal([]byte(jsonText), &content); err != nil {
			return nil, err
		}
		content.Heading = clamp(content.Heading, maxHeadingLen)
		if len(content.Items) > maxServiceItems {
			content.Items = content.Items[:maxServiceItems]
		}
		for i := range content.Items {
			content.Items[i].Name = clamp(content.Items[i].Name, maxItemNameLen)
			content.Items[i].Description = clamp(content.Items[i].Description, maxItemDescLen)
		}
		return content, nil
	default:
		return nil, fmt.Errorf("no content decoder for section %s", section)
	}
}

// clamp truncates to at most max bytes without splitting a rune.
func clamp(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
