package intent

import (
	"regexp"
	"strings"
)

// TextNormalizer produces canonical forms of raw speech transcripts.
// Two strengths exist: the matching form feeds keyword comparison, the
// display form keeps the user's casing for echoing back.
type TextNormalizer struct {
	punct *regexp.Regexp
}

// NewTextNormalizer creates a new text normalizer
func NewTextNormalizer() *TextNormalizer {
	return &TextNormalizer{
		// Keep apostrophes and hyphens so phrases like "what's on this
		// page" survive for exact comparison.
		punct: regexp.MustCompile(`[^\w\s'-]`),
	}
}

// Normalize returns the matching form: lowercased, punctuation stripped
// except apostrophes and hyphens, whitespace runs collapsed to one
// space. Total and idempotent; empty input yields empty output.
func (n *TextNormalizer) Normalize(raw string) string {
	text := strings.ToLower(raw)
	text = n.punct.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// Display returns the display form: trimmed, internal whitespace runs
// collapsed, casing and punctuation untouched.
func (n *TextNormalizer) Display(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// Words splits a transcript into its normalized word sequence.
func (n *TextNormalizer) Words(raw string) []string {
	return strings.Fields(n.Normalize(raw))
}
