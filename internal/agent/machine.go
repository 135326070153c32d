// Package agent hosts the conversation machine that drives one voice
// session: it classifies transcripts, reads and resolves against the
// current page, consults the intent backend, and speaks the response.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/themobileprof/voicepilot/internal/backend"
	"github.com/themobileprof/voicepilot/internal/dom"
	"github.com/themobileprof/voicepilot/internal/highlight"
	"github.com/themobileprof/voicepilot/internal/intent"
	"github.com/themobileprof/voicepilot/internal/interfaces"
	"github.com/themobileprof/voicepilot/internal/journey"
	"github.com/themobileprof/voicepilot/internal/observability"
	"github.com/themobileprof/voicepilot/internal/page"
	"github.com/themobileprof/voicepilot/internal/resolve"
	"github.com/themobileprof/voicepilot/pkg/models"
)

// ErrSpeaking is returned when an utterance arrives while the
// assistant is still talking. Callers should retry after the current
// response finishes.
var ErrSpeaking = errors.New("assistant is speaking")

// DefaultSettleDelay is the pause between finishing speech and
// re-arming listening, so the microphone does not pick up the tail of
// the assistant's own voice.
const DefaultSettleDelay = 300 * time.Millisecond

const logTimeout = 2 * time.Second

// Turn is the outcome of one processed utterance.
type Turn struct {
	Intent               models.Intent
	Response             string
	Action               *models.VoiceAction
	Match                *models.ElementMatch
	RequiresConfirmation bool
}

// Deps wires the machine's collaborators. Nil fields fall back to
// local defaults, so tests inject only what they watch.
type Deps struct {
	Classifier  interfaces.IntentClassifier
	Extractor   interfaces.PageExtractor
	Resolver    interfaces.ElementResolver
	Synthesizer interfaces.Synthesizer
	Backend     interfaces.IntentResolver
	Fallback    interfaces.IntentResolver
	ConvLog     interfaces.ConversationLogger
	Journey     *journey.Logger
	Logger      *zap.Logger
}

// Machine drives one voice session. It owns the session's
// ConversationMemory and processes utterances strictly one at a time;
// all methods are meant to be called from the session's goroutine,
// except Stop which may interrupt from a control surface.
type Machine struct {
	classifier  interfaces.IntentClassifier
	extractor   interfaces.PageExtractor
	resolver    interfaces.ElementResolver
	synthesizer interfaces.Synthesizer
	backend     interfaces.IntentResolver
	fallback    interfaces.IntentResolver
	convlog     interfaces.ConversationLogger
	highlighter *highlight.Highlighter
	cache       *page.Cache
	trail       *journey.Logger
	logger      *zap.Logger

	sessionID   string
	userID      string
	memory      *models.ConversationMemory
	stepCtx     StepContext
	settleDelay time.Duration

	mu       sync.Mutex
	doc      *dom.Document
	speaking bool
	active   bool
	turns    int
}

// NewMachine creates a new machine for one session
func NewMachine(sessionID string, deps Deps) *Machine {
	if deps.Classifier == nil {
		deps.Classifier = intent.NewClassifier()
	}
	if deps.Extractor == nil {
		deps.Extractor = page.NewExtractor()
	}
	if deps.Resolver == nil {
		deps.Resolver = resolve.NewResolver(nil)
	}
	if deps.Synthesizer == nil {
		deps.Synthesizer = NopSynthesizer{}
	}
	if deps.Fallback == nil {
		deps.Fallback = backend.NewFallback(nil, nil)
	}
	if deps.Journey == nil {
		deps.Journey = journey.GetLogger()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &Machine{
		classifier:  deps.Classifier,
		extractor:   deps.Extractor,
		resolver:    deps.Resolver,
		synthesizer: deps.Synthesizer,
		backend:     deps.Backend,
		fallback:    deps.Fallback,
		convlog:     deps.ConvLog,
		highlighter: highlight.NewHighlighter(),
		cache:       page.NewCache(),
		trail:       deps.Journey,
		logger:      deps.Logger.With(zap.String("session_id", sessionID)),
		sessionID:   sessionID,
		memory:      models.DefaultMemory(),
		settleDelay: DefaultSettleDelay,
		active:      true,
	}
}

// SetUserID attributes logged interactions to a user
func (m *Machine) SetUserID(id string) {
	m.userID = id
}

// SetAuthenticated tells the onboarding mapping whether the user
// already has an account.
func (m *Machine) SetAuthenticated(v bool) {
	m.stepCtx.Authenticated = v
}

// SetSettleDelay overrides the post-speech listening pause.
func (m *Machine) SetSettleDelay(d time.Duration) {
	m.settleDelay = d
}

// SetMemory replaces the session memory, for sessions restored from a
// store. Nil resets to the defaults.
func (m *Machine) SetMemory(memory *models.ConversationMemory) {
	if memory == nil {
		memory = models.DefaultMemory()
	}
	m.memory = memory
}

// SetDocument swaps the page the machine is looking at. A route
// change drops the cached structure and clears any active highlight.
func (m *Machine) SetDocument(doc *dom.Document) {
	m.mu.Lock()
	old := m.doc
	m.doc = doc
	m.mu.Unlock()

	if routeOf(old) != routeOf(doc) {
		m.cache.Invalidate()
		m.highlighter.Clear()
	}
}

// Document returns the page the machine is currently looking at.
func (m *Machine) Document() *dom.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc
}

// Memory returns a snapshot of the session memory.
func (m *Machine) Memory() *models.ConversationMemory {
	return m.memory.Clone()
}

// SessionID returns the session this machine serves.
func (m *Machine) SessionID() string {
	return m.sessionID
}

// Highlighter exposes the highlight state for the presentation layer.
func (m *Machine) Highlighter() *highlight.Highlighter {
	return m.highlighter
}

// Active reports whether the assistant is listening for commands.
func (m *Machine) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Speaking reports whether a response is currently being rendered.
func (m *Machine) Speaking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speaking
}

// Turns returns how many utterances this session has processed.
func (m *Machine) Turns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turns
}

// ProcessUserInput runs one utterance through the pipeline and speaks
// the response. Utterances are handled strictly one at a time; a call
// made while the assistant is speaking returns ErrSpeaking.
func (m *Machine) ProcessUserInput(ctx context.Context, utterance string) (*Turn, error) {
	m.mu.Lock()
	if m.speaking {
		m.mu.Unlock()
		return nil, ErrSpeaking
	}
	m.active = true
	doc := m.doc
	m.mu.Unlock()

	m.trail.StartTurn(m.sessionID, utterance)

	start := time.Now()
	detected := m.classifier.Classify(utterance)
	m.trail.AddStep("classify", time.Since(start), string(detected))
	observability.IntentsClassified.WithLabelValues(string(detected)).Inc()

	turn := &Turn{Intent: detected}
	switch detected {
	case models.IntentHelp:
		turn.Response = Instructions(m.memory.CurrentStep)
	case models.IntentRepeat:
		turn.Response = m.memory.LastResponse
		if turn.Response == "" {
			turn.Response = backend.RepeatDefault
		}
	case models.IntentStop:
		m.Stop()
		turn.Response = backend.StoppedText
	case models.IntentReadPage:
		turn.Response = m.readPage(doc)
	case models.IntentFindElement:
		turn.Response = m.findElement(utterance, doc, turn)
	default:
		m.consult(ctx, utterance, doc, turn)
	}

	m.memory.LastResponse = turn.Response
	m.memory.LastInteraction = time.Now()

	m.mu.Lock()
	m.turns++
	m.mu.Unlock()

	if err := m.speak(ctx, turn.Response); err != nil {
		m.logger.Warn("speech output failed", zap.Error(err))
	}

	m.trail.EndTurn(turn.Intent, turn.Response)
	m.logTurn(utterance, turn)
	return turn, nil
}

// Stop deactivates the assistant: the highlight is cleared, in-flight
// speech is cancelled best effort, and the conversation rests at the
// idle step until the user re-engages.
func (m *Machine) Stop() {
	m.highlighter.Clear()
	m.synthesizer.Cancel()

	m.mu.Lock()
	m.speaking = false
	m.active = false
	m.mu.Unlock()

	m.memory.CurrentStep = models.StepIdle
}

// CompleteStep marks the current onboarding step done, speaks the next
// step's guidance and records a step_completed analytics event.
func (m *Machine) CompleteStep(ctx context.Context) string {
	done := m.memory.CurrentStep
	phrase := CompleteStep(m.memory, m.stepCtx)
	m.memory.LastResponse = phrase

	if m.convlog != nil {
		event := &models.AnalyticsEvent{
			SessionID: m.sessionID,
			UserID:    m.userID,
			Event:     "step_completed",
			Payload:   string(done),
		}
		go func() {
			lctx, cancel := context.WithTimeout(context.Background(), logTimeout)
			defer cancel()
			if err := m.convlog.LogEvent(lctx, event); err != nil {
				m.logger.Debug("analytics log failed", zap.Error(err))
			}
		}()
	}

	if err := m.speak(ctx, phrase); err != nil {
		m.logger.Warn("speech output failed", zap.Error(err))
	}
	return phrase
}

func (m *Machine) readPage(doc *dom.Document) string {
	summary := page.Summarize(m.structureFor(doc))
	m.memory.LastPageRead = summary
	return summary
}

func (m *Machine) findElement(utterance string, doc *dom.Document, turn *Turn) string {
	start := time.Now()
	match := m.resolver.Resolve(utterance, doc)
	m.trail.AddStep("resolve", time.Since(start), match.Selector)
	turn.Match = &match
	m.memory.LastElementQuery = utterance

	outcome := "miss"
	if match.Found {
		outcome = "found"
	}
	observability.ElementResolutions.WithLabelValues(outcome).Inc()

	if !match.Found {
		return match.Description
	}
	if doc != nil && match.Selector != "" {
		if el := doc.Query(match.Selector); el != nil {
			m.highlighter.Apply(el)
		}
	}
	return fmt.Sprintf("I found %s. I've highlighted it for you.", match.Description)
}

// consult hands the utterance to the intent backend, falling back to
// the local rule engine when the backend is absent or failing.
func (m *Machine) consult(ctx context.Context, utterance string, doc *dom.Document, turn *Turn) {
	req := &models.IntentRequest{
		UserID:       m.userID,
		Utterance:    utterance,
		Memory:       m.memory.Clone(),
		CurrentRoute: routeOf(doc),
		PageContext:  m.pageContext(doc),
	}

	var resp *models.IntentResponse
	var err error
	if m.backend != nil {
		start := time.Now()
		resp, err = m.backend.ResolveIntent(ctx, req)
		m.trail.AddStep("backend", time.Since(start), responseDetail(resp, err))
		if err != nil {
			m.logger.Warn("intent service unavailable, using local rules", zap.Error(err))
			observability.BackendFallbacks.Inc()
		}
	}
	if resp == nil || err != nil {
		start := time.Now()
		resp, err = m.fallback.ResolveIntent(ctx, req)
		m.trail.AddStep("fallback", time.Since(start), responseDetail(resp, err))
		if err != nil || resp == nil {
			resp = &models.IntentResponse{
				Intent:       models.IntentUnknown,
				ResponseText: backend.RepeatDefault,
			}
		}
	}

	turn.Intent = resp.Intent
	turn.Response = resp.ResponseText
	turn.Action = resp.Action
	turn.RequiresConfirmation = resp.RequiresConfirmation
	if resp.Memory != nil {
		m.memory = resp.Memory
	}
	m.applyAction(doc, resp.Action)
}

// applyAction performs the parts of a backend action the core owns:
// highlight markers and the cache/highlight reset that precedes a
// navigation. Click and form_fill are left to the presentation layer.
func (m *Machine) applyAction(doc *dom.Document, action *models.VoiceAction) {
	if action == nil {
		return
	}
	switch action.Type {
	case models.ActionHighlight:
		if doc == nil || action.Target == "" {
			return
		}
		if el := doc.Query(action.Target); el != nil {
			m.highlighter.Apply(el)
		}
	case models.ActionNavigate:
		m.highlighter.Clear()
		m.cache.Invalidate()
	}
}

// structureFor returns the page structure for doc, extracting and
// caching it per route on first use.
func (m *Machine) structureFor(doc *dom.Document) *models.PageStructure {
	route := routeOf(doc)
	if s, ok := m.cache.Get(route); ok {
		return s
	}

	start := time.Now()
	s := m.extractor.Extract(doc)
	m.trail.AddStep("extract", time.Since(start), route)
	observability.PageExtractions.Inc()

	m.cache.Put(route, s)
	return s
}

// pageContext summarises the live page state for the backend: which
// affordances exist and how far along any form is (0-100 percent of
// visible fields filled).
func (m *Machine) pageContext(doc *dom.Document) *models.PageContext {
	if doc == nil {
		return nil
	}
	pc := &models.PageContext{Structure: m.structureFor(doc)}

	fields, filled := 0, 0
	for _, el := range doc.ElementsByTag("input", "textarea", "select") {
		if el.Hidden() {
			continue
		}
		fields++
		if el.Attr("value") != "" {
			filled++
		}
	}
	if fields > 0 {
		pc.FormFilled = filled * 100 / fields
	}

	if s := pc.Structure; s != nil {
		var b strings.Builder
		for _, label := range s.Buttons {
			b.WriteString(strings.ToLower(label))
			b.WriteByte(' ')
		}
		for _, label := range s.Links {
			b.WriteString(strings.ToLower(label))
			b.WriteByte(' ')
		}
		joined := b.String()

		pc.HasCourses = strings.Contains(joined, "course")
		pc.HasTasks = strings.Contains(joined, "task") || strings.Contains(strings.ToLower(s.Text), "task")
		pc.HasTeaching = strings.Contains(joined, "created by you")
		pc.HasLearning = strings.Contains(joined, "enrolled")
		if resolve.RouteKey(doc.Route()) == resolve.RouteCourse {
			pc.IsEnrolled = !strings.Contains(joined, "join")
		}
	}
	return pc
}

// speak renders the response and holds the turn until the settle
// delay has passed, so the microphone does not hear the assistant.
func (m *Machine) speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	m.mu.Lock()
	m.speaking = true
	m.mu.Unlock()

	start := time.Now()
	err := m.synthesizer.Speak(ctx, text)
	m.trail.AddStep("speak", time.Since(start), "")

	if m.settleDelay > 0 {
		timer := time.NewTimer(m.settleDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	m.mu.Lock()
	m.speaking = false
	m.mu.Unlock()
	return err
}

// logTurn records the exchange fire-and-forget; failures are logged
// and swallowed so persistence trouble never blocks the conversation.
func (m *Machine) logTurn(utterance string, turn *Turn) {
	if m.convlog == nil {
		return
	}

	interaction := &models.Interaction{
		SessionID:     m.sessionID,
		UserID:        m.userID,
		UserMessage:   utterance,
		AgentResponse: turn.Response,
		Intent:        turn.Intent,
		Step:          m.memory.CurrentStep,
	}
	event := &models.AnalyticsEvent{
		SessionID: m.sessionID,
		UserID:    m.userID,
		Event:     "intent_recognized",
		Intent:    turn.Intent,
	}

	go func() {
		lctx, cancel := context.WithTimeout(context.Background(), logTimeout)
		defer cancel()
		if err := m.convlog.LogInteraction(lctx, interaction); err != nil {
			m.logger.Debug("interaction log failed", zap.Error(err))
		}
		if err := m.convlog.LogEvent(lctx, event); err != nil {
			m.logger.Debug("analytics log failed", zap.Error(err))
		}
	}()
}

func routeOf(doc *dom.Document) string {
	if doc == nil {
		return ""
	}
	return doc.Route()
}

func responseDetail(resp *models.IntentResponse, err error) string {
	if err != nil {
		return "error: " + err.Error()
	}
	if resp == nil {
		return ""
	}
	return string(resp.Intent)
}
