package page

import (
	"fmt"
	"strings"

	"github.com/themobileprof/voicepilot/pkg/models"
)

// Complexity thresholds over the interactive element count.
const (
	complexThreshold  = 20
	moderateThreshold = 10
)

// maxPrimaryActions caps how many button labels an analysis surfaces.
const maxPrimaryActions = 5

// Analyzer classifies extracted structures into page-level insight.
type Analyzer struct {
	goals map[models.PageType][]string
}

// NewAnalyzer creates a new page analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{goals: buildGoals()}
}

func buildGoals() map[models.PageType][]string {
	return map[models.PageType][]string{
		models.PageLogin:     {"sign in to your account", "create a new account"},
		models.PageDashboard: {"create a course", "browse your courses"},
		models.PageCourse:    {"join this course", "view the tasks", "submit your work"},
		models.PageForm:      {"fill in the form", "submit the form"},
		models.PageContent:   {"read the page content", "follow a link"},
		models.PageUnknown:   {"explore this page"},
	}
}

// Analyze derives page type, suggested actions, likely goals, complexity
// and accessibility signals from a structure and the current path.
func (a *Analyzer) Analyze(s *models.PageStructure, currentPath string) *models.PageAnalysis {
	if s == nil {
		s = emptyStructure("")
	}

	pageType := a.classify(s, currentPath)

	return &models.PageAnalysis{
		PageType:       pageType,
		PrimaryActions: primaryActions(s),
		UserGoals:      a.goals[pageType],
		Complexity:     complexity(s),
		Accessibility: models.Accessibility{
			HasLabels:       hasLabels(s),
			HasHeadings:     len(s.Headings) > 0,
			NavigationClear: len(s.Buttons) > 0 || len(s.Links) > 0,
		},
	}
}

// classify walks an ordered decision list; the first rule that fires
// names the page.
func (a *Analyzer) classify(s *models.PageStructure, currentPath string) models.PageType {
	path := strings.ToLower(currentPath)
	text := strings.ToLower(s.Text)

	switch {
	case strings.Contains(path, "login") || strings.Contains(text, "sign in") || strings.Contains(text, "log in"):
		return models.PageLogin
	case path == "/" || strings.Contains(path, "dashboard") || strings.Contains(text, "dashboard"):
		return models.PageDashboard
	case strings.Contains(path, "course") || strings.Contains(text, "course") || strings.Contains(text, "module"):
		return models.PageCourse
	case len(s.Forms) > 0:
		return models.PageForm
	case len(s.Headings) > 3 && len(s.Text) > 500:
		return models.PageContent
	default:
		return models.PageUnknown
	}
}

// primaryActions surfaces the most actionable button labels, bounded.
// Labels carrying a strong verb are promoted ahead of the rest.
func primaryActions(s *models.PageStructure) []string {
	strong := []string{"sign", "create", "submit", "join", "start", "save"}

	isStrong := func(label string) bool {
		l := strings.ToLower(label)
		for _, verb := range strong {
			if strings.Contains(l, verb) {
				return true
			}
		}
		return false
	}

	actions := []string{}
	for _, label := range s.Buttons {
		if isStrong(label) {
			actions = append(actions, label)
		}
	}
	for _, label := range s.Buttons {
		if !isStrong(label) {
			actions = append(actions, label)
		}
	}
	if len(actions) > maxPrimaryActions {
		actions = actions[:maxPrimaryActions]
	}
	return actions
}

func complexity(s *models.PageStructure) models.Complexity {
	count := len(s.Buttons) + len(s.Links) + len(s.Forms)
	switch {
	case count > complexThreshold:
		return models.ComplexityComplex
	case count > moderateThreshold:
		return models.ComplexityModerate
	default:
		return models.ComplexitySimple
	}
}

// hasLabels reports whether at least one form field carries a real
// label rather than the unlabeled placeholder.
func hasLabels(s *models.PageStructure) bool {
	for _, form := range s.Forms {
		for _, field := range form.Fields {
			if field != unlabeledField {
				return true
			}
		}
	}
	return false
}

// Summarize renders a structure as a short spoken description. The
// summary always opens with the page title and names at most five
// headings.
func Summarize(s *models.PageStructure) string {
	if s == nil {
		return "There is no page to read."
	}

	var b strings.Builder
	b.WriteString(s.Title)
	b.WriteString(".")

	if len(s.Headings) > 0 {
		headings := s.Headings
		if len(headings) > 5 {
			headings = headings[:5]
		}
		fmt.Fprintf(&b, " This page has %s: %s.",
			plural(len(s.Headings), "section"), strings.Join(headings, ", "))
	}

	switch {
	case len(s.Buttons) == 1:
		fmt.Fprintf(&b, " There is 1 button: %s.", s.Buttons[0])
	case len(s.Buttons) > 1:
		preview := s.Buttons
		if len(preview) > 3 {
			preview = preview[:3]
		}
		fmt.Fprintf(&b, " There are %d buttons, including %s.",
			len(s.Buttons), strings.Join(preview, ", "))
	}

	if len(s.Forms) > 0 {
		fmt.Fprintf(&b, " There is a form with %s.", plural(len(s.Forms[0].Fields), "field"))
	}

	if b.Len() == len(s.Title)+1 && s.Text != "" {
		snippet := truncate(s.Text, 200)
		fmt.Fprintf(&b, " %s", snippet)
	}

	return b.String()
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
