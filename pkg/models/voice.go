package models

import "time"

// Intent is the classified purpose of a spoken utterance. Exactly one
// intent is assigned per transcript; IntentUnknown is the fallback.
type Intent string

const (
	IntentSignup           Intent = "signup"
	IntentJoinCourse       Intent = "join_course"
	IntentSubmitAssignment Intent = "submit_assignment"
	IntentHelp             Intent = "help"
	IntentRepeat           Intent = "repeat"
	IntentStop             Intent = "stop"
	IntentReadPage         Intent = "read_page"
	IntentFindElement      Intent = "find_element"
	IntentUnknown          Intent = "unknown"
)

// OnboardingStep is a position in the guided first-use flow.
type OnboardingStep string

const (
	StepWelcome         OnboardingStep = "welcome"
	StepSignupPrompt    OnboardingStep = "signup_prompt"
	StepSignupForm      OnboardingStep = "signup_form"
	StepCourseSelection OnboardingStep = "course_selection"
	StepFirstSubmission OnboardingStep = "first_submission"
	StepCompleted       OnboardingStep = "completed"
	StepIdle            OnboardingStep = "idle"
)

// PageStructure is a bounded snapshot of visible document content.
// Text is capped at 2000 characters with a trailing ellipsis when cut.
type PageStructure struct {
	Title    string      `json:"title"`
	Headings []string    `json:"headings"`
	Buttons  []string    `json:"buttons"`
	Links    []string    `json:"links"`
	Forms    []FormInfo  `json:"forms"`
	Images   []ImageInfo `json:"images"`
	Text     string      `json:"text"`
}

// FormInfo describes one form and the labels of its fields.
type FormInfo struct {
	Action string   `json:"action,omitempty"`
	Method string   `json:"method,omitempty"`
	Fields []string `json:"fields"`
}

// ImageInfo captures an image's source and alternative text.
type ImageInfo struct {
	Src string `json:"src,omitempty"`
	Alt string `json:"alt,omitempty"`
}

// PageType classifies what kind of page a structure represents.
type PageType string

const (
	PageLogin     PageType = "login"
	PageDashboard PageType = "dashboard"
	PageCourse    PageType = "course"
	PageForm      PageType = "form"
	PageContent   PageType = "content"
	PageUnknown   PageType = "unknown"
)

// Complexity grades how busy a page is for a voice-guided user.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// PageAnalysis is derived read-only from a PageStructure.
type PageAnalysis struct {
	PageType       PageType      `json:"pageType"`
	PrimaryActions []string      `json:"primaryActions"`
	UserGoals      []string      `json:"userGoals"`
	Complexity     Complexity    `json:"complexity"`
	Accessibility  Accessibility `json:"accessibility"`
}

// Accessibility holds coarse accessibility signals for a page.
type Accessibility struct {
	HasLabels       bool `json:"hasLabels"`
	HasHeadings     bool `json:"hasHeadings"`
	NavigationClear bool `json:"navigationClear"`
}

// ElementQuery is the action/target vocabulary extracted from an
// utterance. Either word may be empty; the raw utterance is kept for
// fallback scoring.
type ElementQuery struct {
	ActionWord   string `json:"actionWord,omitempty"`
	TargetNoun   string `json:"targetNoun,omitempty"`
	RawUtterance string `json:"rawUtterance"`
}

// ElementMatch is the outcome of resolving an utterance onto a page
// element. Found=false is a normal outcome, not an error; Description
// is always non-empty.
type ElementMatch struct {
	Found       bool    `json:"found"`
	Description string  `json:"description"`
	Selector    string  `json:"selector,omitempty"`
	Score       float64 `json:"score"`
}

// Region is a named interactive area with a known selector, so common
// targets resolve without scoring.
type Region struct {
	Name        string   `yaml:"name" json:"name"`
	Selector    string   `yaml:"selector" json:"selector"`
	Description string   `yaml:"description" json:"description"`
	Route       string   `yaml:"route,omitempty" json:"route,omitempty"`
	Keywords    []string `yaml:"keywords" json:"keywords"`
}

// ConversationMemory is the mutable per-session state carried between
// utterances. One writer per session; discarded at session end.
type ConversationMemory struct {
	CurrentStep        OnboardingStep    `json:"currentStep"`
	OnboardingProgress []OnboardingStep  `json:"onboardingProgress"`
	LastResponse       string            `json:"lastResponse"`
	LastPageRead       string            `json:"lastPageRead,omitempty"`
	LastElementQuery   string            `json:"lastElementQuery,omitempty"`
	LastInteraction    time.Time         `json:"lastInteraction,omitempty"`
	Extra              map[string]string `json:"extra,omitempty"`
}

// DefaultMemory returns the memory a brand-new session starts with.
func DefaultMemory() *ConversationMemory {
	return &ConversationMemory{
		CurrentStep:        StepWelcome,
		OnboardingProgress: []OnboardingStep{},
		LastResponse:       "Hi! I'm your VoicePilot assistant. I can help you create an account, join a course, or submit your first task.",
	}
}

// Clone returns a deep copy so snapshots can cross API boundaries
// without aliasing the live session state.
func (m *ConversationMemory) Clone() *ConversationMemory {
	if m == nil {
		return nil
	}
	out := *m
	out.OnboardingProgress = append([]OnboardingStep(nil), m.OnboardingProgress...)
	if m.Extra != nil {
		out.Extra = make(map[string]string, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = v
		}
	}
	return &out
}

// Transcript is a finalized speech recognition result. Interim
// results never reach the core.
type Transcript struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// ClassificationResult reports which category fired for a transcript.
type ClassificationResult struct {
	Intent  Intent  `json:"intent"`
	Keyword string  `json:"keyword,omitempty"`
	Layers  []Layer `json:"layers,omitempty"`
}

// Layer is one category test inside a classification pass.
type Layer struct {
	Category Intent `json:"category"`
	Mode     string `json:"mode"`
	Matched  bool   `json:"matched"`
	Keyword  string `json:"keyword,omitempty"`
}
