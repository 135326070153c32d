package interfaces

import (
	"context"
	"database/sql"

	"github.com/themobileprof/voicepilot/internal/dom"
	"github.com/themobileprof/voicepilot/pkg/models"
)

// IntentClassifier detects user intent from a finalized transcript
type IntentClassifier interface {
	// Classify returns the single intent assigned to the transcript
	Classify(transcript string) models.Intent
	// ClassifyDetail returns the intent plus the per-category trace
	ClassifyDetail(transcript string) models.ClassificationResult
}

// PageExtractor produces bounded structure snapshots from documents
type PageExtractor interface {
	// Extract never fails; broken documents yield an empty structure
	Extract(doc *dom.Document) *models.PageStructure
}

// PageAnalyzer derives page-level insight from a structure
type PageAnalyzer interface {
	// Analyze is pure; identical inputs give identical analyses
	Analyze(structure *models.PageStructure, currentPath string) *models.PageAnalysis
}

// ElementResolver maps spoken queries onto page elements
type ElementResolver interface {
	// Resolve returns a match or a described miss, never an error
	Resolve(utterance string, doc *dom.Document) models.ElementMatch
	// ParseQuery extracts the action/target vocabulary from an utterance
	ParseQuery(utterance string) models.ElementQuery
}

// Recognizer supplies finalized transcripts from a speech source
type Recognizer interface {
	// Recognize blocks until the next finalized transcript arrives
	Recognize(ctx context.Context) (models.Transcript, error)
}

// Synthesizer renders assistant responses as speech
type Synthesizer interface {
	// Speak blocks until the utterance has finished playing
	Speak(ctx context.Context, text string) error
	// Cancel stops any in-flight speech, best effort
	Cancel()
}

// IntentResolver is the remote collaborator that interprets utterances
// the local classifier cannot act on alone
type IntentResolver interface {
	// ResolveIntent posts the utterance with its context and returns the
	// interpreted response
	ResolveIntent(ctx context.Context, req *models.IntentRequest) (*models.IntentResponse, error)
}

// ConversationLogger records interactions and analytics events
type ConversationLogger interface {
	// LogInteraction stores one user/agent exchange
	LogInteraction(ctx context.Context, interaction *models.Interaction) error
	// LogEvent stores an analytics event
	LogEvent(ctx context.Context, event *models.AnalyticsEvent) error
}

// MemoryStore persists conversation memory between turns
type MemoryStore interface {
	// GetMemory retrieves the memory for a session
	GetMemory(ctx context.Context, sessionID string) (*models.ConversationMemory, error)
	// SaveMemory stores the memory for a session
	SaveMemory(ctx context.Context, sessionID string, memory *models.ConversationMemory) error
}

// SessionStore manages voice session lifecycle and history
type SessionStore interface {
	// CreateSession opens a session for a user
	CreateSession(ctx context.Context, sessionID, userID string) error
	// EndSession closes a session and records its turn count
	EndSession(ctx context.Context, sessionID string, completed bool) error
	// History returns the most recent interactions for a user
	History(ctx context.Context, userID string, limit int) ([]models.Interaction, error)
}

// DatabaseConnection provides low-level database access
type DatabaseConnection interface {
	// Conn returns the underlying sql.DB connection
	Conn() *sql.DB
	// Close closes the database connection
	Close() error
	// Migrate runs database migrations
	Migrate() error
}
