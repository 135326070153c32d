package journey

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/themobileprof/voicepilot/pkg/models"
)

// Journey represents one utterance turn
type Journey struct {
	Timestamp time.Time     `json:"timestamp"`
	SessionID string        `json:"session_id,omitempty"`
	Utterance string        `json:"utterance"`
	Steps     []Step        `json:"steps"`
	Intent    models.Intent `json:"intent,omitempty"`
	Response  string        `json:"response,omitempty"`
}

// Step represents a distinct processing phase (e.g., classify, resolve, backend)
type Step struct {
	Stage      string `json:"stage"`       // "classify", "region", "resolve", "backend", "fallback", "speak"
	DurationMs int64  `json:"duration_ms"` // time taken for this step
	Details    string `json:"details,omitempty"`
}

// Logger handles writing journeys to file
type Logger struct {
	mu          sync.Mutex
	current     *Journey
	logFilePath string
	disabled    bool
}

var instance *Logger
var once sync.Once

// GetLogger returns the singleton logger instance
func GetLogger() *Logger {
	once.Do(func() {
		home, _ := os.UserHomeDir()
		logPath := filepath.Join(home, ".voicepilot", "journey.jsonl")
		instance = &Logger{
			logFilePath: logPath,
		}
	})
	return instance
}

// NewLogger returns a logger writing to an explicit path, for tests
// and tools that must not touch the home directory.
func NewLogger(path string) *Logger {
	return &Logger{logFilePath: path}
}

// Disabled returns a logger that records nothing, for sessions with
// telemetry turned off.
func Disabled() *Logger {
	return &Logger{disabled: true}
}

// StartTurn begins logging a new utterance turn
func (l *Logger) StartTurn(sessionID, utterance string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.disabled {
		return
	}

	l.current = &Journey{
		Timestamp: time.Now(),
		SessionID: sessionID,
		Utterance: utterance,
		Steps:     make([]Step, 0),
	}
}

// AddStep records a processing step
func (l *Logger) AddStep(stage string, duration time.Duration, details string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}

	l.current.Steps = append(l.current.Steps, Step{
		Stage:      stage,
		DurationMs: duration.Milliseconds(),
		Details:    details,
	})
}

// EndTurn finalizes the log and writes to file (append mode)
func (l *Logger) EndTurn(intent models.Intent, response string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}

	l.current.Intent = intent
	l.current.Response = response

	// Append to file (JSONL format: one JSON object per line)
	if err := os.MkdirAll(filepath.Dir(l.logFilePath), 0755); err != nil {
		fmt.Printf("Warning: Failed to create journey log directory: %v\n", err)
		l.current = nil
		return
	}
	f, err := os.OpenFile(l.logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Printf("Warning: Failed to write journey log: %v\n", err)
		l.current = nil
		return
	}
	defer f.Close()

	data, _ := json.Marshal(l.current)
	f.Write(data)
	f.WriteString("\n")

	l.current = nil // Reset
}
