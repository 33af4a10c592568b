// ABOUTME: This file decides which raw HTML candidate becomes the article body
// ABOUTME: A separate lead paragraph is synthesized only when it adds information
package selector

import (
	"regexp"
	"strings"

	"linkpress/domain"
	"linkpress/normalizer"
)

var blockTagRe = regexp.MustCompile(`(?i)<(p|div|ul|ol|li|h[1-6]|blockquote|pre|table|article|section|figure)\b`)

// Select picks the body HTML by candidate precedence and decides whether the
// description should be prepended as a standalone lead paragraph.
func Select(item *domain.NormalizedItem) domain.SelectionResult {
	type candidate struct {
		source domain.BodySource
		html   string
	}

	ordered := []candidate{
		{domain.SourceContentEncoded, item.Candidates.ContentEncoded},
		{domain.SourceContent, item.Candidates.Content},
		{domain.SourceDescription, item.Candidates.DescriptionOrSummary},
	}

	for _, c := range ordered {
		if !hasText(c.html) {
			continue
		}

		result := domain.SelectionResult{
			ChosenSource: c.source,
			BodyHTML:     c.html,
		}

		if c.source != domain.SourceDescription {
			if lead, ok := synthesizeLead(c.html, item.Candidates.DescriptionOrSummary); ok {
				result.LeadUsed = true
				result.LeadText = lead
			}
		}

		return result
	}

	return domain.SelectionResult{ChosenSource: domain.SourceEmpty, BodyHTML: ""}
}

// HasBlockTags reports whether the fragment carries block-level structure.
func HasBlockTags(html string) bool {
	return blockTagRe.MatchString(html)
}

func hasText(html string) bool {
	return normalizer.StripTags(html) != ""
}

// synthesizeLead decides whether the description deserves its own paragraph
// above the body. It must be meaningfully different from the body, shorter
// than it, and must not repeat the body's opening sentence.
func synthesizeLead(bodyHTML, description string) (string, bool) {
	if HasBlockTags(bodyHTML) {
		return "", false
	}

	lead := normalizer.StripTags(description)
	if lead == "" {
		return "", false
	}

	bodyText := normalizer.StripTags(bodyHTML)
	if bodyText == "" {
		return "", false
	}

	normLead := normalizeForComparison(lead)
	normBody := normalizeForComparison(bodyText)

	if len(normLead) >= len(normBody) {
		return "", false
	}

	if strings.HasPrefix(normBody, normLead) || strings.Contains(normBody, normLead) {
		return "", false
	}

	if opening := firstSentence(normBody); opening != "" && strings.HasPrefix(normLead, opening) {
		return "", false
	}

	return lead, true
}

func normalizeForComparison(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func firstSentence(s string) string {
	for _, sep := range []string{". ", "! ", "? "} {
		if idx := strings.Index(s, sep); idx > 0 {
			return s[:idx+1]
		}
	}
	return ""
}
