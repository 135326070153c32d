package resolve

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRouteKey(t *testing.T) {
	tests := []struct {
		route string
		want  string
	}{
		{"/", RouteHome},
		{"/home", RouteHome},
		{"", RouteHome},
		{"/signup", RouteSignup},
		{"/app/signup?next=/", RouteSignup},
		{"/login", RouteLogin},
		{"/LOGIN", RouteLogin},
		{"/course/42", RouteCourse},
		{"/course/42/tasks", RouteCourse},
		{"/school/admin", RouteAdmin},
		{"/school/admin/courses", RouteAdmin},
		{"/pricing", RouteUnknown},
	}

	for _, tt := range tests {
		if got := RouteKey(tt.route); got != tt.want {
			t.Errorf("RouteKey(%q) = %q, want %q", tt.route, got, tt.want)
		}
	}
}

func TestCatalogFind(t *testing.T) {
	catalog := NewCatalog()

	region, ok := catalog.Find("/", "teaching_tab")
	if !ok {
		t.Fatal("expected teaching_tab on the home route")
	}
	if region.Selector != "button:contains('Created by you')" {
		t.Errorf("selector = %q", region.Selector)
	}

	if _, ok := catalog.Find("/pricing", "teaching_tab"); ok {
		t.Error("unknown routes should have no regions")
	}
}

func TestCatalogMatch(t *testing.T) {
	catalog := NewCatalog()

	tests := []struct {
		name      string
		route     string
		utterance string
		region    string
		ok        bool
	}{
		{"create course on home", "/", "I want to create course now", "create_course_btn", true},
		{"email on signup", "/signup", "where is the email field", "email_field", true},
		{"password on signup", "/signup", "the password please", "password_field", true},
		{"confirm beats password", "/signup", "show me the confirm password box", "confirm_password", true},
		{"google on login", "/login", "create account", "google_signin", true},
		{"join on course", "/course/42", "press the join button", "join_button", true},
		{"students on admin", "/school/admin", "open the student list", "student_list", true},
		{"no region", "/", "tell me a story", "", false},
		{"empty utterance", "/", "   ", "", false},
		{"unknown route", "/pricing", "create course", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region, ok := catalog.Match(tt.route, tt.utterance)
			if ok != tt.ok {
				t.Fatalf("Match(%q, %q) ok = %v, want %v", tt.route, tt.utterance, ok, tt.ok)
			}
			if ok && region.Name != tt.region {
				t.Errorf("region = %q, want %q", region.Name, tt.region)
			}
		})
	}
}

func TestCatalogMatchWordBoundary(t *testing.T) {
	catalog := NewCatalog()

	// "emails" must not fire the "email" keyword through substring
	// containment.
	if region, ok := catalog.Match("/signup", "check my emails now"); ok {
		t.Errorf("unexpected region %q for partial word", region.Name)
	}
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	content := `routes:
  home:
    - name: hero_banner
      selector: "#hero"
      description: the hero banner
      keywords:
        - banner
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	regions := catalog.Regions("/")
	if len(regions) != 1 || regions[0].Name != "hero_banner" {
		t.Errorf("home regions = %+v, want the override only", regions)
	}

	// Routes absent from the file keep their defaults.
	if _, ok := catalog.Find("/signup", "email_field"); !ok {
		t.Error("signup defaults should survive a partial override")
	}
}

func TestLoadCatalogErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadCatalog(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("routes: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCatalog(bad); err == nil {
		t.Error("expected an error for invalid yaml")
	}

	nameless := filepath.Join(dir, "nameless.yaml")
	content := "routes:\n  home:\n    - selector: \"#x\"\n"
	if err := os.WriteFile(nameless, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCatalog(nameless); err == nil {
		t.Error("expected an error for a region without a name")
	}
}
