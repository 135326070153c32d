package intent

import (
	"fmt"
	"os"
	"strings"

	"github.com/themobileprof/voicepilot/pkg/models"
	"gopkg.in/yaml.v3"
)

// MatchMode selects how keyword phrases are compared with a transcript.
type MatchMode string

const (
	// MatchLoose treats each keyword as a raw case-insensitive
	// substring. Permissive: keyword lists must be ordered from most
	// specific to least specific phrase.
	MatchLoose MatchMode = "loose"
	// MatchStrict requires the keyword as a whole-word phrase, with an
	// order-insensitive all-words fallback for multi-word keywords.
	MatchStrict MatchMode = "strict"
)

// KeywordSet binds an ordered list of trigger phrases to one intent
// category. Sets are static configuration, not derived at runtime.
type KeywordSet struct {
	Intent   models.Intent `yaml:"intent"`
	Mode     MatchMode     `yaml:"mode"`
	Keywords []string      `yaml:"keywords"`
}

// Matcher decides whether a transcript triggers a keyword set.
type Matcher struct {
	normalizer *TextNormalizer
}

// NewMatcher creates a new keyword matcher
func NewMatcher() *Matcher {
	return &Matcher{normalizer: NewTextNormalizer()}
}

// Matches reports whether the transcript triggers any keyword under the
// given mode. An empty keyword list never matches.
func (m *Matcher) Matches(transcript string, keywords []string, mode MatchMode) bool {
	_, ok := m.Match(transcript, KeywordSet{Mode: mode, Keywords: keywords})
	return ok
}

// Match returns the first keyword the transcript triggers, so callers
// can record which phrase fired.
func (m *Matcher) Match(transcript string, set KeywordSet) (string, bool) {
	if len(set.Keywords) == 0 {
		return "", false
	}
	if set.Mode == MatchLoose {
		return m.matchLoose(transcript, set.Keywords)
	}
	return m.matchStrict(transcript, set.Keywords)
}

func (m *Matcher) matchLoose(transcript string, keywords []string) (string, bool) {
	lower := strings.ToLower(transcript)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}

func (m *Matcher) matchStrict(transcript string, keywords []string) (string, bool) {
	norm := m.normalizer.Normalize(transcript)
	words := strings.Fields(norm)
	for _, kw := range keywords {
		kwNorm := m.normalizer.Normalize(kw)
		if kwNorm == "" {
			continue
		}
		if norm == kwNorm {
			return kw, true
		}
		kwWords := strings.Fields(kwNorm)
		// Primary branch: the keyword occurs as a contiguous
		// word-boundary phrase.
		if containsPhrase(words, kwWords) {
			return kw, true
		}
		// Recall fallback for multi-word keywords: every constituent
		// word present somewhere, order ignored.
		if len(kwWords) > 1 && containsAllWords(words, kwWords) {
			return kw, true
		}
	}
	return "", false
}

// containsPhrase reports whether phrase occurs as consecutive words.
func containsPhrase(words, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(words) {
		return false
	}
	for i := 0; i+len(phrase) <= len(words); i++ {
		hit := true
		for j, pw := range phrase {
			if words[i+j] != pw {
				hit = false
				break
			}
		}
		if hit {
			return true
		}
	}
	return false
}

// containsAllWords reports whether every phrase word appears in words.
func containsAllWords(words, phrase []string) bool {
	have := make(map[string]bool, len(words))
	for _, w := range words {
		have[w] = true
	}
	for _, pw := range phrase {
		if !have[pw] {
			return false
		}
	}
	return true
}

// LoadKeywordSets reads keyword-set overrides from a YAML file. Sets
// without a mode default to strict.
func LoadKeywordSets(path string) ([]KeywordSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword file: %w", err)
	}
	var doc struct {
		Sets []KeywordSet `yaml:"sets"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse keyword YAML: %w", err)
	}
	for i := range doc.Sets {
		if doc.Sets[i].Mode == "" {
			doc.Sets[i].Mode = MatchStrict
		}
	}
	return doc.Sets, nil
}
