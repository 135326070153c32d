//go:build integration
// +build integration

package integration

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/themobileprof/voicepilot/internal/agent"
	"github.com/themobileprof/voicepilot/internal/backend"
	"github.com/themobileprof/voicepilot/internal/db"
	"github.com/themobileprof/voicepilot/internal/dom"
	"github.com/themobileprof/voicepilot/internal/intent"
	"github.com/themobileprof/voicepilot/internal/journey"
	"github.com/themobileprof/voicepilot/internal/resolve"
	"github.com/themobileprof/voicepilot/pkg/models"
)

// spokenLog records everything the assistant says during a session.
type spokenLog struct {
	mu    sync.Mutex
	lines []string
}

func (s *spokenLog) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, text)
	return nil
}

func (s *spokenLog) Cancel() {}

func (s *spokenLog) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lines) == 0 {
		return ""
	}
	return s.lines[len(s.lines)-1]
}

// setupSession wires a machine from real components: the bundled
// keyword classifier, the built-in region catalog, the rule engine and
// a SQLite conversation log. No mocks anywhere.
func setupSession(t *testing.T) (*agent.Machine, *db.DB, *spokenLog) {
	t.Helper()

	store, err := db.New(filepath.Join(t.TempDir(), "voicepilot.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	classifier := intent.NewClassifier()
	catalog := resolve.NewCatalog()
	spoken := &spokenLog{}

	machine := agent.NewMachine("integration-session", agent.Deps{
		Classifier:  classifier,
		Resolver:    resolve.NewResolver(catalog),
		Synthesizer: spoken,
		Fallback:    backend.NewFallback(classifier, catalog),
		ConvLog:     store,
		Journey:     journey.NewLogger(filepath.Join(t.TempDir(), "journey.jsonl")),
		Logger:      zap.NewNop(),
	})
	machine.SetSettleDelay(0)
	machine.SetUserID("integration-user")
	return machine, store, spoken
}

func loadPage(t *testing.T, machine *agent.Machine, html, route string) {
	t.Helper()
	doc, err := dom.ParseString(html)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	doc.SetRoute(route)
	machine.SetDocument(doc)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

// TestStopInterruptsFromAnyStep verifies that a stop word deactivates
// the assistant no matter how deep into onboarding the session is.
func TestStopInterruptsFromAnyStep(t *testing.T) {
	machine, _, _ := setupSession(t)
	machine.SetMemory(&models.ConversationMemory{
		CurrentStep:        models.StepCourseSelection,
		OnboardingProgress: []models.OnboardingStep{models.StepWelcome},
	})

	turn, err := machine.ProcessUserInput(context.Background(), "please stop now")
	if err != nil {
		t.Fatalf("ProcessUserInput: %v", err)
	}
	if turn.Intent != models.IntentStop {
		t.Errorf("intent = %q, want %q", turn.Intent, models.IntentStop)
	}
	if turn.Response != backend.StoppedText {
		t.Errorf("response = %q", turn.Response)
	}
	if machine.Memory().CurrentStep != models.StepIdle {
		t.Errorf("step = %q, want %q", machine.Memory().CurrentStep, models.StepIdle)
	}
	if machine.Active() {
		t.Error("machine should be inactive after stop")
	}
}

func TestReadPageSpeaksTitleAndHeadings(t *testing.T) {
	machine, _, spoken := setupSession(t)
	loadPage(t, machine, `<html><head><title>Course Dashboard</title></head><body>
		<h1>Your courses</h1>
		<h2>Upcoming deadlines</h2>
	</body></html>`, "/dashboard")

	turn, err := machine.ProcessUserInput(context.Background(), "what does this page say")
	if err != nil {
		t.Fatalf("ProcessUserInput: %v", err)
	}
	if turn.Intent != models.IntentReadPage {
		t.Errorf("intent = %q, want %q", turn.Intent, models.IntentReadPage)
	}
	if !strings.HasPrefix(turn.Response, "Course Dashboard.") {
		t.Errorf("summary = %q, want title prefix", turn.Response)
	}
	if !strings.Contains(turn.Response, "Your courses") || !strings.Contains(turn.Response, "Upcoming deadlines") {
		t.Errorf("summary should name both headings: %q", turn.Response)
	}
	if spoken.last() != turn.Response {
		t.Errorf("spoken %q, want the summary", spoken.last())
	}
}

// TestFindElementHighlightsLabeledButton runs the resolver against a
// page with no catalog coverage, so scoring alone must pick the
// button whose label matches the request.
func TestFindElementHighlightsLabeledButton(t *testing.T) {
	machine, _, _ := setupSession(t)
	loadPage(t, machine, `<html><head><title>Modules</title></head><body>
		<button>Delete Module</button>
		<button>Add Module</button>
	</body></html>`, "/modules")

	turn, err := machine.ProcessUserInput(context.Background(), "what should i click to add a module")
	if err != nil {
		t.Fatalf("ProcessUserInput: %v", err)
	}
	if turn.Intent != models.IntentFindElement {
		t.Errorf("intent = %q, want %q", turn.Intent, models.IntentFindElement)
	}
	if turn.Match == nil || !turn.Match.Found {
		t.Fatalf("match = %+v, want a hit", turn.Match)
	}
	if !strings.Contains(turn.Match.Description, "Add Module") {
		t.Errorf("description = %q, want the Add Module button", turn.Match.Description)
	}
	if !strings.Contains(turn.Response, "I've highlighted it") {
		t.Errorf("response = %q", turn.Response)
	}

	active := machine.Highlighter().Active()
	if active == nil {
		t.Fatal("expected the matched element to carry the highlight marker")
	}
	if got := active.Text(); got != "Add Module" {
		t.Errorf("highlighted %q, want the Add Module button", got)
	}
}

func TestCreateAccountOnLoginHighlightsGoogleSignIn(t *testing.T) {
	machine, _, _ := setupSession(t)
	loadPage(t, machine, `<html><head><title>Log in</title></head><body>
		<button id="google-signin-button">Sign in with Google</button>
	</body></html>`, "/login")

	turn, err := machine.ProcessUserInput(context.Background(), "create account")
	if err != nil {
		t.Fatalf("ProcessUserInput: %v", err)
	}
	if turn.Intent != models.IntentSignup {
		t.Errorf("intent = %q, want %q", turn.Intent, models.IntentSignup)
	}
	if turn.Action == nil {
		t.Fatal("expected a highlight action")
	}
	if turn.Action.Type != models.ActionHighlight {
		t.Errorf("action type = %q, want highlight rather than navigation", turn.Action.Type)
	}
	if turn.Action.Target != "#google-signin-button" {
		t.Errorf("target = %q", turn.Action.Target)
	}
	if machine.Highlighter().Active() == nil {
		t.Error("expected the sign-in button to carry the highlight marker")
	}
}

func TestUnknownUtteranceNeverFails(t *testing.T) {
	machine, _, _ := setupSession(t)

	turn, err := machine.ProcessUserInput(context.Background(), "banana")
	if err != nil {
		t.Fatalf("ProcessUserInput: %v", err)
	}
	if turn.Intent != models.IntentUnknown {
		t.Errorf("intent = %q, want %q", turn.Intent, models.IntentUnknown)
	}
	if !strings.Contains(turn.Response, "banana") {
		t.Errorf("response should echo the utterance: %q", turn.Response)
	}
}

func TestAuthenticatedOnboardingSkipsSignup(t *testing.T) {
	machine, _, spoken := setupSession(t)
	machine.SetAuthenticated(true)

	phrase := machine.CompleteStep(context.Background())
	if phrase == "" {
		t.Fatal("expected a spoken transition phrase")
	}
	if spoken.last() != phrase {
		t.Errorf("spoken %q, want %q", spoken.last(), phrase)
	}

	memory := machine.Memory()
	if memory.CurrentStep != models.StepCourseSelection {
		t.Errorf("step = %q, want %q", memory.CurrentStep, models.StepCourseSelection)
	}
	for _, step := range memory.OnboardingProgress {
		if step == models.StepSignupPrompt {
			t.Error("authenticated onboarding should not pass through signup")
		}
	}
}

// TestBackendDownFallsBackToLocalRules points the remote resolver at a
// dead port and expects the turn to still resolve through the rules.
func TestBackendDownFallsBackToLocalRules(t *testing.T) {
	store, err := db.New(filepath.Join(t.TempDir(), "voicepilot.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	classifier := intent.NewClassifier()
	catalog := resolve.NewCatalog()
	machine := agent.NewMachine("integration-backend-down", agent.Deps{
		Classifier:  classifier,
		Resolver:    resolve.NewResolver(catalog),
		Synthesizer: &spokenLog{},
		Backend:     backend.NewClient("http://127.0.0.1:1", 100*time.Millisecond, zap.NewNop()),
		Fallback:    backend.NewFallback(classifier, catalog),
		ConvLog:     store,
		Journey:     journey.NewLogger(filepath.Join(t.TempDir(), "journey.jsonl")),
		Logger:      zap.NewNop(),
	})
	machine.SetSettleDelay(0)
	loadPage(t, machine, `<html><head><title>Log in</title></head><body>
		<button id="google-signin-button">Sign in with Google</button>
	</body></html>`, "/login")

	turn, err := machine.ProcessUserInput(context.Background(), "I want to sign up")
	if err != nil {
		t.Fatalf("ProcessUserInput: %v", err)
	}
	if turn.Intent != models.IntentSignup {
		t.Errorf("intent = %q, want signup from the local rules", turn.Intent)
	}
	if turn.Action == nil || turn.Action.Target != "#google-signin-button" {
		t.Errorf("action = %+v, want the sign-in highlight", turn.Action)
	}
}

func TestConversationIsPersisted(t *testing.T) {
	machine, store, _ := setupSession(t)
	ctx := context.Background()

	if _, err := machine.ProcessUserInput(ctx, "help"); err != nil {
		t.Fatalf("ProcessUserInput: %v", err)
	}
	if _, err := machine.ProcessUserInput(ctx, "banana"); err != nil {
		t.Fatalf("ProcessUserInput: %v", err)
	}

	// Turn logging is fire-and-forget, so wait for both rows.
	waitFor(t, 2*time.Second, func() bool {
		history, err := store.History(ctx, "integration-user", 10)
		return err == nil && len(history) == 2
	})

	history, err := store.History(ctx, "integration-user", 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	byMessage := map[string]models.Intent{}
	for _, in := range history {
		byMessage[in.UserMessage] = in.Intent
	}
	if byMessage["help"] != models.IntentHelp {
		t.Errorf("help turn logged as %q", byMessage["help"])
	}
	if byMessage["banana"] != models.IntentUnknown {
		t.Errorf("banana turn logged as %q", byMessage["banana"])
	}

	stats, err := store.SessionStats(ctx)
	if err != nil {
		t.Fatalf("SessionStats: %v", err)
	}
	if stats.Interactions != 2 {
		t.Errorf("interactions = %d, want 2", stats.Interactions)
	}
	if stats.Intents[string(models.IntentHelp)] != 1 {
		t.Errorf("intent breakdown = %v", stats.Intents)
	}
}
