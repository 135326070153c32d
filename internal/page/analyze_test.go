package page

import (
	"strings"
	"testing"

	"github.com/themobileprof/voicepilot/pkg/models"
)

func TestAnalyzePageType(t *testing.T) {
	analyzer := NewAnalyzer()

	tests := []struct {
		name      string
		structure *models.PageStructure
		path      string
		want      models.PageType
	}{
		{
			name:      "login path",
			structure: &models.PageStructure{},
			path:      "/login",
			want:      models.PageLogin,
		},
		{
			name:      "login text",
			structure: &models.PageStructure{Text: "Please sign in to continue"},
			path:      "/welcome",
			want:      models.PageLogin,
		},
		{
			name:      "root path is dashboard",
			structure: &models.PageStructure{},
			path:      "/",
			want:      models.PageDashboard,
		},
		{
			name:      "dashboard path",
			structure: &models.PageStructure{},
			path:      "/dashboard/main",
			want:      models.PageDashboard,
		},
		{
			name:      "course path",
			structure: &models.PageStructure{},
			path:      "/course/42",
			want:      models.PageCourse,
		},
		{
			name:      "module text",
			structure: &models.PageStructure{Text: "Module 3 covers energy"},
			path:      "/anything",
			want:      models.PageCourse,
		},
		{
			name: "form page",
			structure: &models.PageStructure{
				Forms: []models.FormInfo{{Fields: []string{"Email"}}},
			},
			path: "/settings",
			want: models.PageForm,
		},
		{
			name: "content page",
			structure: &models.PageStructure{
				Headings: []string{"a", "b", "c", "d"},
				Text:     strings.Repeat("reading material ", 40),
			},
			path: "/about",
			want: models.PageContent,
		},
		{
			name:      "unknown",
			structure: &models.PageStructure{},
			path:      "/misc",
			want:      models.PageUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analyzer.Analyze(tt.structure, tt.path)
			if got.PageType != tt.want {
				t.Errorf("Analyze(%q).PageType = %q, want %q", tt.path, got.PageType, tt.want)
			}
		})
	}
}

func TestAnalyzeLoginBeatsDashboard(t *testing.T) {
	analyzer := NewAnalyzer()
	s := &models.PageStructure{Text: "sign in to your dashboard"}
	got := analyzer.Analyze(s, "/dashboard")
	if got.PageType != models.PageLogin {
		t.Errorf("PageType = %q, want login to win over dashboard", got.PageType)
	}
}

func TestAnalyzeComplexity(t *testing.T) {
	analyzer := NewAnalyzer()

	many := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = "x"
		}
		return out
	}

	tests := []struct {
		name      string
		structure *models.PageStructure
		want      models.Complexity
	}{
		{"empty page", &models.PageStructure{}, models.ComplexitySimple},
		{"ten elements", &models.PageStructure{Buttons: many(10)}, models.ComplexitySimple},
		{"eleven elements", &models.PageStructure{Buttons: many(5), Links: many(6)}, models.ComplexityModerate},
		{"twenty elements", &models.PageStructure{Links: many(20)}, models.ComplexityModerate},
		{"twenty one elements", &models.PageStructure{Links: many(15), Buttons: many(6)}, models.ComplexityComplex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analyzer.Analyze(tt.structure, "/misc")
			if got.Complexity != tt.want {
				t.Errorf("Complexity = %q, want %q", got.Complexity, tt.want)
			}
		})
	}
}

func TestAnalyzeAccessibility(t *testing.T) {
	analyzer := NewAnalyzer()

	labeled := analyzer.Analyze(&models.PageStructure{
		Headings: []string{"Welcome"},
		Buttons:  []string{"Go"},
		Forms:    []models.FormInfo{{Fields: []string{"Email address"}}},
	}, "/misc")
	if !labeled.Accessibility.HasLabels {
		t.Error("HasLabels = false, want true for a labeled field")
	}
	if !labeled.Accessibility.HasHeadings {
		t.Error("HasHeadings = false, want true")
	}
	if !labeled.Accessibility.NavigationClear {
		t.Error("NavigationClear = false, want true with buttons present")
	}

	bare := analyzer.Analyze(&models.PageStructure{
		Forms: []models.FormInfo{{Fields: []string{"Unlabeled field", "Unlabeled field"}}},
	}, "/misc")
	if bare.Accessibility.HasLabels {
		t.Error("HasLabels = true, want false when every field is unlabeled")
	}
	if bare.Accessibility.HasHeadings {
		t.Error("HasHeadings = true, want false")
	}
	if bare.Accessibility.NavigationClear {
		t.Error("NavigationClear = true, want false without buttons or links")
	}
}

func TestAnalyzePrimaryActions(t *testing.T) {
	analyzer := NewAnalyzer()
	s := &models.PageStructure{
		Buttons: []string{"Menu", "Create course", "Close", "Submit answers", "More", "Sign up", "Extra"},
	}

	got := analyzer.Analyze(s, "/misc").PrimaryActions
	if len(got) != maxPrimaryActions {
		t.Fatalf("len(PrimaryActions) = %d, want %d", len(got), maxPrimaryActions)
	}
	want := []string{"Create course", "Submit answers", "Sign up", "Menu", "Close"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PrimaryActions[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestAnalyzeUserGoals(t *testing.T) {
	analyzer := NewAnalyzer()
	got := analyzer.Analyze(&models.PageStructure{}, "/login")
	if len(got.UserGoals) == 0 {
		t.Fatal("expected user goals for the login page")
	}
	if got.UserGoals[0] != "sign in to your account" {
		t.Errorf("UserGoals[0] = %q", got.UserGoals[0])
	}
}

func TestAnalyzeNilStructure(t *testing.T) {
	got := NewAnalyzer().Analyze(nil, "/misc")
	if got == nil {
		t.Fatal("expected an analysis for nil input")
	}
	if got.PageType != models.PageUnknown {
		t.Errorf("PageType = %q, want unknown", got.PageType)
	}
}

func TestSummarize(t *testing.T) {
	s := &models.PageStructure{
		Title:    "Course Hub",
		Headings: []string{"One", "Two", "Three", "Four", "Five", "Six", "Seven"},
		Buttons:  []string{"Create course", "Join", "Share", "Delete"},
		Forms:    []models.FormInfo{{Fields: []string{"Email", "Password"}}},
	}

	got := Summarize(s)

	if !strings.HasPrefix(got, "Course Hub.") {
		t.Errorf("summary should open with the title, got %q", got)
	}
	if !strings.Contains(got, "7 sections") {
		t.Errorf("summary should count all sections, got %q", got)
	}
	if strings.Contains(got, "Six") || strings.Contains(got, "Seven") {
		t.Errorf("summary should list at most five headings, got %q", got)
	}
	if !strings.Contains(got, "4 buttons") {
		t.Errorf("summary should count buttons, got %q", got)
	}
	if !strings.Contains(got, "form with 2 fields") {
		t.Errorf("summary should mention the form, got %q", got)
	}
}

func TestSummarizeBareText(t *testing.T) {
	s := &models.PageStructure{Title: "Note", Text: "Just a paragraph."}
	got := Summarize(s)
	if !strings.HasPrefix(got, "Note.") {
		t.Errorf("summary = %q", got)
	}
	if !strings.Contains(got, "Just a paragraph.") {
		t.Errorf("summary should fall back to the text snippet, got %q", got)
	}
}

func TestSummarizeNil(t *testing.T) {
	if got := Summarize(nil); got != "There is no page to read." {
		t.Errorf("Summarize(nil) = %q", got)
	}
}
