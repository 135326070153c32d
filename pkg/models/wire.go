package models

import "time"

// ActionType enumerates the UI actions the backend can request.
type ActionType string

const (
	ActionNavigate  ActionType = "navigate"
	ActionHighlight ActionType = "highlight"
	ActionSpeak     ActionType = "speak"
	ActionClick     ActionType = "click"
	ActionFormFill  ActionType = "form_fill"
)

// VoiceAction is a UI action the presentation layer should perform.
type VoiceAction struct {
	Type    ActionType        `json:"type"`
	Target  string            `json:"target,omitempty"`
	Message string            `json:"message,omitempty"`
	Data    map[string]string `json:"data,omitempty"`
}

// IntentRequest is the payload sent to the intent-resolution backend.
type IntentRequest struct {
	UserID       string              `json:"userId,omitempty"`
	Utterance    string              `json:"utterance"`
	Memory       *ConversationMemory `json:"memory,omitempty"`
	CurrentRoute string              `json:"currentRoute,omitempty"`
	PageContext  *PageContext        `json:"pageContext,omitempty"`
}

// PageContext carries page state hints alongside an intent request.
type PageContext struct {
	HasCourses  bool           `json:"hasCourses,omitempty"`
	HasTeaching bool           `json:"hasTeaching,omitempty"`
	HasLearning bool           `json:"hasLearning,omitempty"`
	IsEnrolled  bool           `json:"isEnrolled,omitempty"`
	HasTasks    bool           `json:"hasTasks,omitempty"`
	FormFilled  int            `json:"formFilled,omitempty"`
	Structure   *PageStructure `json:"structure,omitempty"`
}

// IntentResponse is the backend's resolution of one utterance.
type IntentResponse struct {
	Intent               Intent              `json:"intent"`
	ResponseText         string              `json:"responseText"`
	Memory               *ConversationMemory `json:"memory,omitempty"`
	Action               *VoiceAction        `json:"action,omitempty"`
	RequiresConfirmation bool                `json:"requiresConfirmation"`
	Confidence           float64             `json:"confidence,omitempty"`
}

// CommandRequest is a control command (stop, repeat, retry).
type CommandRequest struct {
	UserID  string              `json:"userId,omitempty"`
	Command string              `json:"command"`
	Memory  *ConversationMemory `json:"memory,omitempty"`
}

// CommandResponse acknowledges a control command.
type CommandResponse struct {
	Command      string              `json:"command"`
	ResponseText string              `json:"responseText"`
	Memory       *ConversationMemory `json:"memory,omitempty"`
}

// AnalyzePageRequest asks the service to extract and analyze raw HTML.
type AnalyzePageRequest struct {
	HTML         string `json:"html"`
	CurrentRoute string `json:"currentRoute,omitempty"`
}

// AnalyzePageResponse returns the structure, its analysis, and a
// ready-to-speak summary.
type AnalyzePageResponse struct {
	Summary   string         `json:"summary"`
	Structure *PageStructure `json:"structure"`
	Analysis  *PageAnalysis  `json:"analysis"`
}

// Interaction is one logged conversation turn.
type Interaction struct {
	ID            int64          `json:"id"`
	SessionID     string         `json:"sessionId"`
	UserID        string         `json:"userId,omitempty"`
	UserMessage   string         `json:"userMessage"`
	AgentResponse string         `json:"agentResponse"`
	Intent        Intent         `json:"intent"`
	Step          OnboardingStep `json:"step,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// Session is a persisted voice session.
type Session struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId,omitempty"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	Turns     int        `json:"turns"`
	Completed bool       `json:"completed"`
}

// AnalyticsEvent is a coarse funnel event for session analytics.
type AnalyticsEvent struct {
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId,omitempty"`
	Event     string    `json:"event"` // session_start, intent_recognized, step_completed, session_completed
	Intent    Intent    `json:"intent,omitempty"`
	Payload   string    `json:"payload,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
