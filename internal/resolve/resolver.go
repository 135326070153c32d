package resolve

import (
	"fmt"
	"strings"

	"github.com/themobileprof/voicepilot/internal/dom"
	"github.com/themobileprof/voicepilot/internal/intent"
	"github.com/themobileprof/voicepilot/pkg/models"
)

const (
	// DefaultMinScore is the floor below which a match is reported as
	// not found.
	DefaultMinScore = 0.3

	// regionScore ranks catalog shortcuts above any scored candidate.
	regionScore = 0.95

	targetBase   = 0.6
	kindBase     = 0.3
	actionBonus  = 0.3
	overlapStep  = 0.15
	overlapLimit = 0.3
)

// Candidate kinds.
const (
	kindButton = "button"
	kindLink   = "link"
	kindField  = "field"
)

// Resolver maps a spoken query onto the best matching page element.
type Resolver struct {
	catalog    *Catalog
	normalizer *intent.TextNormalizer
	minScore   float64
	actions    []string
	targets    []string
	stopwords  map[string]bool
}

// NewResolver creates a new element resolver
func NewResolver(catalog *Catalog) *Resolver {
	if catalog == nil {
		catalog = NewCatalog()
	}
	return &Resolver{
		catalog:    catalog,
		normalizer: intent.NewTextNormalizer(),
		minScore:   DefaultMinScore,
		actions:    buildActionWords(),
		targets:    buildTargetNouns(),
		stopwords:  buildStopwords(),
	}
}

func buildActionWords() []string {
	return []string{"add", "create", "submit", "join", "click", "find", "show", "open", "press"}
}

func buildTargetNouns() []string {
	return []string{"module", "course", "button", "task", "assignment", "account", "tab", "card", "field", "email", "password", "link"}
}

func buildStopwords() map[string]bool {
	return map[string]bool{
		"the": true, "and": true, "for": true, "you": true,
		"what": true, "where": true, "how": true, "can": true,
		"should": true, "would": true, "please": true, "that": true,
		"this": true, "with": true,
	}
}

// SetMinScore overrides the match threshold.
func (r *Resolver) SetMinScore(score float64) {
	r.minScore = score
}

// ParseQuery extracts the action verb and target noun from an
// utterance. Either side may come back empty; partial queries are
// normal.
func (r *Resolver) ParseQuery(utterance string) models.ElementQuery {
	query := models.ElementQuery{RawUtterance: utterance}
	for _, word := range r.normalizer.Words(utterance) {
		if query.ActionWord == "" {
			for _, action := range r.actions {
				if word == action {
					query.ActionWord = action
					break
				}
			}
		}
		if query.TargetNoun == "" {
			for _, noun := range r.targets {
				if word == noun || word == noun+"s" {
					query.TargetNoun = noun
					break
				}
			}
		}
	}
	return query
}

// Resolve finds the page element an utterance refers to. Catalog
// regions for the document's route win outright; otherwise the
// interactive elements are scored and the best one above the
// threshold is returned. A miss is a normal outcome and carries a
// spoken suggestion.
func (r *Resolver) Resolve(utterance string, doc *dom.Document) (match models.ElementMatch) {
	defer func() {
		if rec := recover(); rec != nil {
			match = r.miss(utterance)
		}
	}()

	route := "/"
	if doc != nil {
		route = doc.Route()
	}

	if region, ok := r.catalog.Match(route, utterance); ok {
		return models.ElementMatch{
			Found:       true,
			Description: region.Description,
			Selector:    region.Selector,
			Score:       regionScore,
		}
	}

	if doc == nil {
		return r.miss(utterance)
	}

	query := r.ParseQuery(utterance)

	var best candidate
	bestScore := 0.0
	for _, cand := range r.candidates(doc) {
		score := r.score(query, cand)
		if score > bestScore {
			best = cand
			bestScore = score
		}
	}

	if bestScore < r.minScore {
		return r.miss(utterance)
	}

	return models.ElementMatch{
		Found:       true,
		Description: describe(best),
		Selector:    best.el.Selector(),
		Score:       bestScore,
	}
}

func (r *Resolver) miss(utterance string) models.ElementMatch {
	display := r.normalizer.Display(utterance)
	return models.ElementMatch{
		Found: false,
		Description: fmt.Sprintf(
			"I couldn't find anything matching '%s'. Try naming a button or link you can see on the page.",
			display,
		),
	}
}

type candidate struct {
	el    *dom.Element
	label string
	kind  string
}

// candidates collects the interactive elements worth scoring. Hidden
// and label-less elements are skipped, as is any element whose lookup
// fails.
func (r *Resolver) candidates(doc *dom.Document) []candidate {
	var out []candidate

	add := func(el *dom.Element, kind string, label func() string) {
		defer func() { recover() }()
		if el.Hidden() {
			return
		}
		text := strings.TrimSpace(label())
		if text == "" {
			return
		}
		out = append(out, candidate{el: el, label: text, kind: kind})
	}

	for _, el := range doc.ElementsByTag("button") {
		add(el, kindButton, func() string { return buttonText(el) })
	}
	for _, el := range doc.ElementsByTag("input") {
		switch el.Attr("type") {
		case "submit", "button":
			add(el, kindButton, func() string { return buttonText(el) })
		default:
			add(el, kindField, func() string { return fieldText(el) })
		}
	}
	for _, el := range doc.ElementsByTag("a") {
		if !el.HasAttr("href") {
			continue
		}
		add(el, kindLink, el.Text)
	}
	for _, el := range doc.ElementsByTag("textarea", "select") {
		add(el, kindField, func() string { return fieldText(el) })
	}

	return out
}

func buttonText(el *dom.Element) string {
	if text := el.Text(); text != "" {
		return text
	}
	if v := strings.TrimSpace(el.Attr("value")); v != "" {
		return v
	}
	return strings.TrimSpace(el.Attr("aria-label"))
}

func fieldText(el *dom.Element) string {
	for _, attr := range []string{"placeholder", "aria-label", "name", "id"} {
		if v := strings.TrimSpace(el.Attr(attr)); v != "" {
			return v
		}
	}
	return ""
}

// score rates how well a candidate answers the query. The target noun
// appearing in the label is the strongest signal; the action verb
// alongside it strengthens it further. A kind match (asking for a
// "button" scores button elements) and shared words fill the gaps.
func (r *Resolver) score(query models.ElementQuery, cand candidate) float64 {
	text := r.normalizer.Normalize(cand.label)
	score := 0.0

	if query.TargetNoun != "" {
		if strings.Contains(text, query.TargetNoun) {
			score += targetBase
			if query.ActionWord != "" && strings.Contains(text, query.ActionWord) {
				score += actionBonus
			}
		} else if query.TargetNoun == cand.kind {
			score += kindBase
		}
	}

	score += r.overlap(query, text)

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// overlap credits utterance words that show up in the label, beyond
// the already-counted action and target words.
func (r *Resolver) overlap(query models.ElementQuery, labelText string) float64 {
	labelWords := map[string]bool{}
	for _, w := range strings.Fields(labelText) {
		labelWords[w] = true
	}

	bonus := 0.0
	for _, word := range r.normalizer.Words(query.RawUtterance) {
		if len(word) < 3 || r.stopwords[word] {
			continue
		}
		if word == query.ActionWord || word == query.TargetNoun {
			continue
		}
		if labelWords[word] {
			bonus += overlapStep
			if bonus >= overlapLimit {
				return overlapLimit
			}
		}
	}
	return bonus
}

func describe(cand candidate) string {
	switch cand.kind {
	case kindLink:
		return fmt.Sprintf("the '%s' link", cand.label)
	case kindField:
		return fmt.Sprintf("the '%s' field", cand.label)
	default:
		return fmt.Sprintf("the '%s' button", cand.label)
	}
}
