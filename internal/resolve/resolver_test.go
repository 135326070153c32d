package resolve

import (
	"strings"
	"testing"

	"github.com/themobileprof/voicepilot/internal/dom"
)

func parseDoc(t *testing.T, html, route string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(html)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	doc.SetRoute(route)
	return doc
}

func TestParseQuery(t *testing.T) {
	resolver := NewResolver(nil)

	tests := []struct {
		utterance string
		action    string
		target    string
	}{
		{"what should i click to add a module", "click", "module"},
		{"add a module", "add", "module"},
		{"submit my assignment", "submit", "assignment"},
		{"where is the email", "", "email"},
		{"click", "click", ""},
		{"show me the courses", "show", "course"},
		{"hello there", "", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			got := resolver.ParseQuery(tt.utterance)
			if got.ActionWord != tt.action {
				t.Errorf("ActionWord = %q, want %q", got.ActionWord, tt.action)
			}
			if got.TargetNoun != tt.target {
				t.Errorf("TargetNoun = %q, want %q", got.TargetNoun, tt.target)
			}
			if got.RawUtterance != tt.utterance {
				t.Errorf("RawUtterance = %q", got.RawUtterance)
			}
		})
	}
}

func TestResolveScoredMatch(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<button>Cancel</button>
		<button id="add-module">Add Module</button>
	</body></html>`, "/editor")

	match := NewResolver(nil).Resolve("what should i click to add a module", doc)

	if !match.Found {
		t.Fatalf("expected a match, got %q", match.Description)
	}
	if !strings.Contains(match.Description, "Add Module") {
		t.Errorf("description = %q, want a reference to the button", match.Description)
	}
	if match.Selector != "#add-module" {
		t.Errorf("selector = %q, want the id selector", match.Selector)
	}
	if match.Score < DefaultMinScore {
		t.Errorf("score = %v, want at least %v", match.Score, DefaultMinScore)
	}
}

func TestResolveKindFallback(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<button>Cancel</button>
		<button>Send answers</button>
	</body></html>`, "/editor")

	match := NewResolver(nil).Resolve("click the send button", doc)

	if !match.Found {
		t.Fatalf("expected a match, got %q", match.Description)
	}
	if !strings.Contains(match.Description, "Send answers") {
		t.Errorf("description = %q, want the send button to win", match.Description)
	}
}

func TestResolveRegionShortcut(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>sparse page</p></body></html>`, "/")

	match := NewResolver(nil).Resolve("where is the create course button", doc)

	if !match.Found {
		t.Fatalf("expected the catalog region, got %q", match.Description)
	}
	if match.Selector != "button:contains('Create course')" {
		t.Errorf("selector = %q", match.Selector)
	}
	if match.Score != regionScore {
		t.Errorf("score = %v, want %v", match.Score, regionScore)
	}
}

func TestResolveGoogleSigninOnLogin(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<div id="google-signin-button">Sign in with Google</div>
	</body></html>`, "/login")

	match := NewResolver(nil).Resolve("create account", doc)

	if !match.Found {
		t.Fatalf("expected the google sign-in region, got %q", match.Description)
	}
	if match.Selector != "#google-signin-button" {
		t.Errorf("selector = %q", match.Selector)
	}
}

func TestResolveFieldMatch(t *testing.T) {
	doc := parseDoc(t, `<html><body><form>
		<input type="text" placeholder="Course password">
		<input type="text" placeholder="Nickname">
	</form></body></html>`, "/editor")

	match := NewResolver(nil).Resolve("find the password field", doc)

	if !match.Found {
		t.Fatalf("expected a match, got %q", match.Description)
	}
	if !strings.Contains(match.Description, "Course password") {
		t.Errorf("description = %q", match.Description)
	}
	if !strings.Contains(match.Description, "field") {
		t.Errorf("description = %q, want a field phrase", match.Description)
	}
}

func TestResolveMiss(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<button>Cancel</button>
		<a href="/about">About</a>
	</body></html>`, "/editor")

	match := NewResolver(nil).Resolve("banana smoothie", doc)

	if match.Found {
		t.Fatalf("expected a miss, got %+v", match)
	}
	if match.Description == "" {
		t.Error("a miss must carry a suggestion")
	}
	if !strings.Contains(match.Description, "banana smoothie") {
		t.Errorf("description = %q, want the utterance echoed", match.Description)
	}
}

func TestResolveNilDocument(t *testing.T) {
	match := NewResolver(nil).Resolve("find the button", nil)
	if match.Found {
		t.Fatalf("expected a miss, got %+v", match)
	}
	if match.Description == "" {
		t.Error("a miss must carry a suggestion")
	}
}

func TestResolveEmptyDocument(t *testing.T) {
	doc := parseDoc(t, `<html><body></body></html>`, "/editor")
	match := NewResolver(nil).Resolve("find the button", doc)
	if match.Found {
		t.Fatalf("expected a miss on an empty page, got %+v", match)
	}
}

func TestResolveSkipsHidden(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<button style="display:none">Add Module</button>
		<button>Preferences</button>
	</body></html>`, "/editor")

	match := NewResolver(nil).Resolve("add a module", doc)

	if match.Found {
		t.Fatalf("hidden elements must not match, got %+v", match)
	}
}

func TestResolveMinScoreOverride(t *testing.T) {
	doc := parseDoc(t, `<html><body><button>Send answers</button></body></html>`, "/editor")

	resolver := NewResolver(nil)
	resolver.SetMinScore(0.99)

	if match := resolver.Resolve("click the send button", doc); match.Found {
		t.Errorf("raised threshold should reject the match, got %+v", match)
	}
}

func BenchmarkResolve(b *testing.B) {
	doc, err := dom.ParseString(`<html><body>
		<button>Create course</button>
		<button>Cancel</button>
		<a href="/c/1">Physics 101</a>
		<a href="/c/2">Chemistry basics</a>
		<form><input type="email" placeholder="Email address"></form>
	</body></html>`)
	if err != nil {
		b.Fatal(err)
	}
	doc.SetRoute("/editor")
	resolver := NewResolver(nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		resolver.Resolve("what should i click to add a course", doc)
	}
}
