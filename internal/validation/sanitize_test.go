package validation

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFactValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain value", "wedding photography", "wedding photography"},
		{"control characters stripped", "wed\x00ding\x1b[31m photos", "wedding[31m photos"},
		{"newlines collapse to spaces", "line one\nline two\r\nline three", "line one line two line three"},
		{"runs of whitespace collapse", "too    many\t\tspaces", "too many spaces"},
		{"leading and trailing trimmed", "  padded  ", "padded"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFactValue(tt.input))
		})
	}
}

func TestSanitizeFactValue_Truncates(t *testing.T) {
	long := strings.Repeat("a", MaxFactValueLength*2)
	got := SanitizeFactValue(long)
	assert.Len(t, got, MaxFactValueLength)
}

func TestSanitizeFactValue_TruncatesOnRuneBoundary(t *testing.T) {
	// The leading ASCII byte shifts every following three-byte rune off the
	// limit, so a plain byte-count cut would end mid-rune.
	long := "a" + strings.Repeat("店", MaxFactValueLength)
	got := SanitizeFactValue(long)

	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), MaxFactValueLength)
	assert.Equal(t, "a"+strings.Repeat("店", (MaxFactValueLength-1)/3), got)
}

func TestQuoteFactBlock(t *testing.T) {
	quoted := QuoteFactBlock("businessType: photographer")
	assert.True(t, strings.HasPrefix(quoted, "[BEGIN BUSINESS FACTS"))
	assert.True(t, strings.HasSuffix(quoted, "[END BUSINESS FACTS]"))
	assert.Contains(t, quoted, "businessType: photographer")
}
