package db

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/themobileprof/voicepilot/internal/interfaces"
	"github.com/themobileprof/voicepilot/pkg/models"
)

//go:embed migration.sql
var migrationSQL string

// DB wraps the SQLite conversation store: sessions, interactions,
// analytics events and persisted conversation memory.
type DB struct {
	conn *sql.DB
	path string
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single connection
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	db := &DB{
		conn: conn,
		path: dbPath,
	}

	if err := db.Migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return db, nil
}

// Migrate runs database migrations
func (db *DB) Migrate() error {
	_, err := db.conn.Exec(migrationSQL)
	if err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Conn returns the underlying database connection for advanced operations
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// CreateSession opens a session record for a user.
func (db *DB) CreateSession(ctx context.Context, sessionID, userID string) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO voice_sessions (session_uuid, user_id) VALUES (?, ?)
	`, sessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to create session %s: %w", sessionID, err)
	}
	return nil
}

// EndSession closes a session, stamping its end time, final turn
// count and whether onboarding completed.
func (db *DB) EndSession(ctx context.Context, sessionID string, completed bool) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE voice_sessions
		SET completed = ?,
		    ended_at = CURRENT_TIMESTAMP,
		    turns = (SELECT COUNT(*) FROM voice_interactions WHERE session_uuid = ?)
		WHERE session_uuid = ?
	`, completed, sessionID, sessionID)
	if err != nil {
		return fmt.Errorf("failed to end session %s: %w", sessionID, err)
	}
	return nil
}

// Session returns one session record.
func (db *DB) Session(ctx context.Context, sessionID string) (*models.Session, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT session_uuid, user_id, turns, completed, started_at, ended_at
		FROM voice_sessions WHERE session_uuid = ?
	`, sessionID)

	var s models.Session
	var endedAt sql.NullTime
	if err := row.Scan(&s.ID, &s.UserID, &s.Turns, &s.Completed, &s.StartedAt, &endedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session %s not found", sessionID)
		}
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if endedAt.Valid {
		t := endedAt.Time
		s.EndedAt = &t
	}
	return &s, nil
}

// History returns a user's most recent interactions, newest first.
func (db *DB) History(ctx context.Context, userID string, limit int) ([]models.Interaction, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, session_uuid, user_id, user_message, agent_response, intent, step, created_at
		FROM voice_interactions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", userID, err)
	}
	defer rows.Close()

	history := []models.Interaction{}
	for rows.Next() {
		var in models.Interaction
		var intent, step string
		if err := rows.Scan(&in.ID, &in.SessionID, &in.UserID, &in.UserMessage,
			&in.AgentResponse, &intent, &step, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		in.Intent = models.Intent(intent)
		in.Step = models.OnboardingStep(step)
		history = append(history, in)
	}
	return history, rows.Err()
}

// LogInteraction stores one conversation turn and bumps the session's
// turn counter.
func (db *DB) LogInteraction(ctx context.Context, interaction *models.Interaction) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO voice_interactions (session_uuid, user_id, user_message, agent_response, intent, step)
		VALUES (?, ?, ?, ?, ?, ?)
	`, interaction.SessionID, interaction.UserID, interaction.UserMessage,
		interaction.AgentResponse, string(interaction.Intent), string(interaction.Step))
	if err != nil {
		return fmt.Errorf("failed to log interaction: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		UPDATE voice_sessions SET turns = turns + 1 WHERE session_uuid = ?
	`, interaction.SessionID)
	if err != nil {
		return fmt.Errorf("failed to update session turns: %w", err)
	}
	return nil
}

// LogEvent stores an analytics event.
func (db *DB) LogEvent(ctx context.Context, event *models.AnalyticsEvent) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO voice_analytics (session_uuid, user_id, event_type, intent, payload)
		VALUES (?, ?, ?, ?, ?)
	`, event.SessionID, event.UserID, event.Event, string(event.Intent), event.Payload)
	if err != nil {
		return fmt.Errorf("failed to log event: %w", err)
	}
	return nil
}

// GetMemory loads the persisted conversation memory for a session.
// Sessions with no stored memory start from the defaults.
func (db *DB) GetMemory(ctx context.Context, sessionID string) (*models.ConversationMemory, error) {
	var data string
	err := db.conn.QueryRowContext(ctx, `
		SELECT memory_data FROM voice_memory WHERE session_uuid = ?
	`, sessionID).Scan(&data)
	if err == sql.ErrNoRows {
		return models.DefaultMemory(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load memory for %s: %w", sessionID, err)
	}

	var memory models.ConversationMemory
	if err := json.Unmarshal([]byte(data), &memory); err != nil {
		return nil, fmt.Errorf("failed to decode memory for %s: %w", sessionID, err)
	}
	return &memory, nil
}

// SaveMemory stores the conversation memory for a session, replacing
// any previous snapshot.
func (db *DB) SaveMemory(ctx context.Context, sessionID string, memory *models.ConversationMemory) error {
	if memory == nil {
		memory = models.DefaultMemory()
	}
	data, err := json.Marshal(memory)
	if err != nil {
		return fmt.Errorf("failed to encode memory for %s: %w", sessionID, err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO voice_memory (session_uuid, memory_data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
	`, sessionID, string(data))
	if err != nil {
		return fmt.Errorf("failed to save memory for %s: %w", sessionID, err)
	}
	return nil
}

// Stats summarises stored sessions for the analytics endpoint.
type Stats struct {
	TotalSessions     int            `json:"totalSessions"`
	CompletedSessions int            `json:"completedSessions"`
	Interactions      int            `json:"interactions"`
	Intents           map[string]int `json:"intents"`
}

// SessionStats aggregates session counts and the intent breakdown.
func (db *DB) SessionStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Intents: map[string]int{}}

	row := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM voice_sessions`)
	if err := row.Scan(&stats.TotalSessions); err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	row = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM voice_sessions WHERE completed = TRUE`)
	if err := row.Scan(&stats.CompletedSessions); err != nil {
		return nil, fmt.Errorf("failed to count completed sessions: %w", err)
	}
	row = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM voice_interactions`)
	if err := row.Scan(&stats.Interactions); err != nil {
		return nil, fmt.Errorf("failed to count interactions: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT intent, COUNT(*) FROM voice_interactions GROUP BY intent ORDER BY COUNT(*) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate intents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var intent string
		var count int
		if err := rows.Scan(&intent, &count); err != nil {
			return nil, fmt.Errorf("failed to scan intent count: %w", err)
		}
		stats.Intents[intent] = count
	}
	return stats, rows.Err()
}

// PruneSessions removes sessions older than the retention window,
// along with their interactions, events and memory.
func (db *DB) PruneSessions(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC().Format("2006-01-02 15:04:05")

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin prune: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM voice_interactions WHERE session_uuid IN
			(SELECT session_uuid FROM voice_sessions WHERE started_at < ?)`,
		`DELETE FROM voice_analytics WHERE session_uuid IN
			(SELECT session_uuid FROM voice_sessions WHERE started_at < ?)`,
		`DELETE FROM voice_memory WHERE session_uuid IN
			(SELECT session_uuid FROM voice_sessions WHERE started_at < ?)`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, cutoff); err != nil {
			return 0, fmt.Errorf("failed to prune session data: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM voice_sessions WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	removed, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prune: %w", err)
	}
	return removed, nil
}

// Interface checks
var (
	_ interfaces.SessionStore       = (*DB)(nil)
	_ interfaces.MemoryStore        = (*DB)(nil)
	_ interfaces.ConversationLogger = (*DB)(nil)
	_ interfaces.DatabaseConnection = (*DB)(nil)
)
