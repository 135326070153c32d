package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/themobileprof/voicepilot/internal/interfaces"
	"github.com/themobileprof/voicepilot/pkg/models"
)

// MockSynthesizer is a mock implementation of Synthesizer for testing
type MockSynthesizer struct {
	SpeakFunc  func(ctx context.Context, text string) error
	CancelFunc func()

	mu        sync.Mutex
	spoken    []string
	cancelled int
}

func (m *MockSynthesizer) Speak(ctx context.Context, text string) error {
	m.mu.Lock()
	m.spoken = append(m.spoken, text)
	m.mu.Unlock()
	if m.SpeakFunc != nil {
		return m.SpeakFunc(ctx, text)
	}
	return nil
}

func (m *MockSynthesizer) Cancel() {
	m.mu.Lock()
	m.cancelled++
	m.mu.Unlock()
	if m.CancelFunc != nil {
		m.CancelFunc()
	}
}

// Spoken returns everything spoken so far, in order
func (m *MockSynthesizer) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.spoken...)
}

// Cancelled returns how many times Cancel was called
func (m *MockSynthesizer) Cancelled() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelled
}

// Ensure MockSynthesizer implements Synthesizer interface
var _ interfaces.Synthesizer = (*MockSynthesizer)(nil)

// MockRecognizer is a mock implementation of Recognizer for testing
type MockRecognizer struct {
	RecognizeFunc func(ctx context.Context) (models.Transcript, error)

	mu    sync.Mutex
	queue []models.Transcript
}

// Push queues a transcript for the next Recognize call
func (m *MockRecognizer) Push(text string, confidence float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, models.Transcript{Text: text, Confidence: confidence})
}

func (m *MockRecognizer) Recognize(ctx context.Context) (models.Transcript, error) {
	if m.RecognizeFunc != nil {
		return m.RecognizeFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return models.Transcript{}, fmt.Errorf("no transcript queued")
	}
	next := m.queue[0]
	m.queue = m.queue[1:]
	return next, nil
}

// Ensure MockRecognizer implements Recognizer interface
var _ interfaces.Recognizer = (*MockRecognizer)(nil)

// MockIntentResolver is a mock implementation of IntentResolver for testing
type MockIntentResolver struct {
	ResolveIntentFunc func(ctx context.Context, req *models.IntentRequest) (*models.IntentResponse, error)

	mu       sync.Mutex
	requests []*models.IntentRequest
}

func (m *MockIntentResolver) ResolveIntent(ctx context.Context, req *models.IntentRequest) (*models.IntentResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.ResolveIntentFunc != nil {
		return m.ResolveIntentFunc(ctx, req)
	}
	return &models.IntentResponse{
		Intent:       models.IntentUnknown,
		ResponseText: "mock response",
		Memory:       req.Memory,
		Confidence:   0.5,
	}, nil
}

// Requests returns every request seen so far
func (m *MockIntentResolver) Requests() []*models.IntentRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.IntentRequest(nil), m.requests...)
}

// Ensure MockIntentResolver implements IntentResolver interface
var _ interfaces.IntentResolver = (*MockIntentResolver)(nil)

// MockConversationLogger is a mock implementation of ConversationLogger for testing
type MockConversationLogger struct {
	LogInteractionFunc func(ctx context.Context, interaction *models.Interaction) error
	LogEventFunc       func(ctx context.Context, event *models.AnalyticsEvent) error

	mu           sync.Mutex
	interactions []*models.Interaction
	events       []*models.AnalyticsEvent
}

func (m *MockConversationLogger) LogInteraction(ctx context.Context, interaction *models.Interaction) error {
	m.mu.Lock()
	m.interactions = append(m.interactions, interaction)
	m.mu.Unlock()
	if m.LogInteractionFunc != nil {
		return m.LogInteractionFunc(ctx, interaction)
	}
	return nil
}

func (m *MockConversationLogger) LogEvent(ctx context.Context, event *models.AnalyticsEvent) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.LogEventFunc != nil {
		return m.LogEventFunc(ctx, event)
	}
	return nil
}

// Interactions returns every logged interaction so far
func (m *MockConversationLogger) Interactions() []*models.Interaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.Interaction(nil), m.interactions...)
}

// Events returns every logged analytics event so far
func (m *MockConversationLogger) Events() []*models.AnalyticsEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.AnalyticsEvent(nil), m.events...)
}

// Ensure MockConversationLogger implements ConversationLogger interface
var _ interfaces.ConversationLogger = (*MockConversationLogger)(nil)

// MockMemoryStore is a mock implementation of MemoryStore for testing
type MockMemoryStore struct {
	GetMemoryFunc  func(ctx context.Context, sessionID string) (*models.ConversationMemory, error)
	SaveMemoryFunc func(ctx context.Context, sessionID string, memory *models.ConversationMemory) error

	mu       sync.Mutex
	memories map[string]*models.ConversationMemory
}

// NewMockMemoryStore creates a new mock memory store
func NewMockMemoryStore() *MockMemoryStore {
	return &MockMemoryStore{
		memories: make(map[string]*models.ConversationMemory),
	}
}

func (m *MockMemoryStore) GetMemory(ctx context.Context, sessionID string) (*models.ConversationMemory, error) {
	if m.GetMemoryFunc != nil {
		return m.GetMemoryFunc(ctx, sessionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if mem, ok := m.memories[sessionID]; ok {
		return mem.Clone(), nil
	}
	return models.DefaultMemory(), nil
}

func (m *MockMemoryStore) SaveMemory(ctx context.Context, sessionID string, memory *models.ConversationMemory) error {
	if m.SaveMemoryFunc != nil {
		return m.SaveMemoryFunc(ctx, sessionID, memory)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memories[sessionID] = memory.Clone()
	return nil
}

// Ensure MockMemoryStore implements MemoryStore interface
var _ interfaces.MemoryStore = (*MockMemoryStore)(nil)

// MockSessionStore is a mock implementation of SessionStore for testing
type MockSessionStore struct {
	CreateSessionFunc func(ctx context.Context, sessionID, userID string) error
	EndSessionFunc    func(ctx context.Context, sessionID string, completed bool) error
	HistoryFunc       func(ctx context.Context, userID string, limit int) ([]models.Interaction, error)

	mu       sync.Mutex
	sessions map[string]string
}

// NewMockSessionStore creates a new mock session store
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{
		sessions: make(map[string]string),
	}
}

func (m *MockSessionStore) CreateSession(ctx context.Context, sessionID, userID string) error {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, sessionID, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = userID
	return nil
}

func (m *MockSessionStore) EndSession(ctx context.Context, sessionID string, completed bool) error {
	if m.EndSessionFunc != nil {
		return m.EndSessionFunc(ctx, sessionID, completed)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *MockSessionStore) History(ctx context.Context, userID string, limit int) ([]models.Interaction, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, userID, limit)
	}
	return []models.Interaction{}, nil
}

// Ensure MockSessionStore implements SessionStore interface
var _ interfaces.SessionStore = (*MockSessionStore)(nil)
