package intent

import (
	"strings"

	"github.com/themobileprof/voicepilot/pkg/models"
)

// Classifier assigns exactly one intent to a transcript by testing
// keyword sets in a fixed priority order. The first matching category
// wins and later ones are not evaluated. Pure: same transcript and
// configuration always yield the same intent.
type Classifier struct {
	matcher *Matcher
	sets    []KeywordSet
}

// NewClassifier creates a classifier over the bundled keyword sets.
func NewClassifier() *Classifier {
	return NewClassifierWithSets(DefaultKeywordSets())
}

// NewClassifierWithSets creates a classifier over custom keyword sets,
// tested in the order given.
func NewClassifierWithSets(sets []KeywordSet) *Classifier {
	return &Classifier{
		matcher: NewMatcher(),
		sets:    sets,
	}
}

// Sets exposes the configured categories so tests and diagnostics can
// enumerate them.
func (c *Classifier) Sets() []KeywordSet {
	return c.sets
}

// Classify returns the intent for a transcript.
func (c *Classifier) Classify(transcript string) models.Intent {
	result := c.ClassifyDetail(transcript)
	return result.Intent
}

// ClassifyDetail additionally reports the keyword that fired and the
// per-category trace, for journey logging.
func (c *Classifier) ClassifyDetail(transcript string) models.ClassificationResult {
	result := models.ClassificationResult{Intent: models.IntentUnknown}
	if strings.TrimSpace(transcript) == "" {
		return result
	}
	for _, set := range c.sets {
		kw, ok := c.matcher.Match(transcript, set)
		result.Layers = append(result.Layers, models.Layer{
			Category: set.Intent,
			Mode:     string(set.Mode),
			Matched:  ok,
			Keyword:  kw,
		})
		if ok {
			result.Intent = set.Intent
			result.Keyword = kw
			return result
		}
	}
	return result
}
