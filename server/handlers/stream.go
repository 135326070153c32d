package handlers

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/themobileprof/voicepilot/internal/agent"
	"github.com/themobileprof/voicepilot/internal/backend"
	"github.com/themobileprof/voicepilot/internal/db"
	"github.com/themobileprof/voicepilot/internal/dom"
	"github.com/themobileprof/voicepilot/internal/interfaces"
	"github.com/themobileprof/voicepilot/internal/observability"
	"github.com/themobileprof/voicepilot/pkg/models"
)

const (
	// DefaultConfidenceFloor drops transcripts the recognizer itself
	// was unsure about.
	DefaultConfidenceFloor = 0.7

	writeWait      = 10 * time.Second
	sendBufferSize = 16
	teardownWait   = 2 * time.Second
)

// clientMessage is one frame from the browser
type clientMessage struct {
	Type          string  `json:"type"` // start, transcript, page, stop, ping
	UserID        string  `json:"userId,omitempty"`
	Authenticated bool    `json:"authenticated,omitempty"`
	Text          string  `json:"text,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"`
	HTML          string  `json:"html,omitempty"`
	Route         string  `json:"route,omitempty"`
}

// serverMessage is one frame to the browser
type serverMessage struct {
	Type        string              `json:"type"` // session, speak, action, highlight, error, pong
	SessionID   string              `json:"sessionId,omitempty"`
	Text        string              `json:"text,omitempty"`
	Intent      models.Intent       `json:"intent,omitempty"`
	Action      *models.VoiceAction `json:"action,omitempty"`
	Selector    string              `json:"selector,omitempty"`
	Description string              `json:"description,omitempty"`
	Code        string              `json:"code,omitempty"`
	Message     string              `json:"message,omitempty"`
}

// StreamHandler runs streaming voice sessions over WebSocket. Each
// connection owns one agent machine; frames in are transcripts and
// page snapshots, frames out are speech and UI actions.
type StreamHandler struct {
	store    *db.DB
	memory   interfaces.MemoryStore
	logger   *zap.Logger
	floor    float64
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*streamSession
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(store *db.DB, memory interfaces.MemoryStore, logger *zap.Logger, origins []string, floor float64) *StreamHandler {
	if floor <= 0 {
		floor = DefaultConfidenceFloor
	}
	return &StreamHandler{
		store:    store,
		memory:   memory,
		logger:   logger,
		floor:    floor,
		sessions: make(map[string]*streamSession),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(origins, r.Header.Get("Origin"))
			},
		},
	}
}

func originAllowed(origins []string, origin string) bool {
	// Non-browser clients send no Origin header
	if origin == "" {
		return true
	}
	for _, allowed := range origins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// ActiveCount returns the number of open sessions
func (h *StreamHandler) ActiveCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Serve handles GET /ws/voice
func (h *StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	// Sessions outlive the server's request deadlines
	conn.SetReadDeadline(time.Time{})

	s := &streamSession{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan serverMessage, sendBufferSize),
		done:   make(chan struct{}),
		logger: h.logger.With(zap.String("remote_addr", conn.RemoteAddr().String())),
	}

	go s.writeLoop()
	defer h.teardown(s)

	s.readLoop(r.Context(), h)
}

type streamSession struct {
	id      string
	userID  string
	conn    *websocket.Conn
	machine *agent.Machine
	started bool
	send    chan serverMessage
	done    chan struct{}
	logger  *zap.Logger
}

// push queues a frame for the writer goroutine. Frames are dropped
// once the writer has exited.
func (s *streamSession) push(msg serverMessage) {
	select {
	case s.send <- msg:
	case <-s.done:
	}
}

func (s *streamSession) pushError(code, message string) {
	s.push(serverMessage{Type: "error", Code: code, Message: message})
}

// writeLoop is the single writer for the connection. It owns the
// connection's lifetime: closing the send channel drains the queued
// frames to the client before the close handshake, so the last spoken
// response is never cut off.
func (s *streamSession) writeLoop() {
	defer close(s.done)
	defer s.conn.Close()

	for msg := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteJSON(msg); err != nil {
			return
		}
	}

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *streamSession) readLoop(ctx context.Context, h *StreamHandler) {
	for {
		var msg clientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case "ping":
			s.push(serverMessage{Type: "pong"})
		case "start":
			h.handleStart(ctx, s, &msg)
		case "transcript":
			h.handleTranscript(ctx, s, &msg)
		case "page":
			h.handlePage(s, &msg)
		case "stop":
			h.handleStop(s)
			return
		default:
			s.pushError("UNKNOWN_TYPE", "unknown message type: "+msg.Type)
		}
	}
}

func (h *StreamHandler) handleStart(ctx context.Context, s *streamSession, msg *clientMessage) {
	if s.started {
		s.pushError("ALREADY_STARTED", "session already started")
		return
	}

	machine := agent.NewMachine(s.id, agent.Deps{
		Synthesizer: &wsSynthesizer{session: s},
		ConvLog:     h.store,
		Logger:      h.logger,
	})
	machine.SetUserID(msg.UserID)
	machine.SetAuthenticated(msg.Authenticated)

	s.machine = machine
	s.started = true
	s.userID = msg.UserID
	s.logger = h.logger.With(zap.String("session_id", s.id))

	if err := h.store.CreateSession(ctx, s.id, msg.UserID); err != nil {
		s.logger.Warn("session create failed", zap.Error(err))
	}
	err := h.store.LogEvent(ctx, &models.AnalyticsEvent{
		SessionID: s.id,
		UserID:    msg.UserID,
		Event:     "session_start",
	})
	if err != nil {
		s.logger.Warn("event log failed", zap.Error(err))
	}

	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()
	observability.ActiveSessions.Inc()

	s.push(serverMessage{Type: "session", SessionID: s.id})
}

func (h *StreamHandler) handleTranscript(ctx context.Context, s *streamSession, msg *clientMessage) {
	if !s.started {
		s.pushError("NOT_STARTED", "send a start message first")
		return
	}
	if msg.Confidence < h.floor {
		s.logger.Debug("transcript below confidence floor",
			zap.Float64("confidence", msg.Confidence))
		return
	}

	turn, err := s.machine.ProcessUserInput(ctx, msg.Text)
	if err != nil {
		if err == agent.ErrSpeaking {
			s.pushError("SPEAKING", "the assistant is speaking, wait a moment")
		} else {
			s.logger.Error("turn failed", zap.Error(err))
			s.pushError("INTERNAL_ERROR", "could not process the transcript")
		}
		return
	}

	if turn.Action != nil {
		s.push(serverMessage{Type: "action", Intent: turn.Intent, Action: turn.Action})
	}
	if turn.Match != nil && turn.Match.Found {
		s.push(serverMessage{
			Type:        "highlight",
			Selector:    turn.Match.Selector,
			Description: turn.Match.Description,
		})
	}

	if err := h.memory.SaveMemory(ctx, s.id, s.machine.Memory()); err != nil {
		s.logger.Warn("memory save failed", zap.Error(err))
	}
}

func (h *StreamHandler) handlePage(s *streamSession, msg *clientMessage) {
	if !s.started {
		s.pushError("NOT_STARTED", "send a start message first")
		return
	}
	if strings.TrimSpace(msg.HTML) == "" {
		s.pushError("VALIDATION_ERROR", "page html is required")
		return
	}

	doc, err := dom.ParseString(msg.HTML)
	if err != nil {
		s.pushError("VALIDATION_ERROR", "page html could not be parsed")
		return
	}
	doc.SetRoute(msg.Route)
	s.machine.SetDocument(doc)
}

func (h *StreamHandler) handleStop(s *streamSession) {
	if !s.started {
		return
	}
	s.machine.Stop()
	s.push(serverMessage{Type: "speak", Text: backend.StoppedText})
}

// teardown runs when the read loop ends, however it ended
func (h *StreamHandler) teardown(s *streamSession) {
	if s.started {
		ctx, cancel := context.WithTimeout(context.Background(), teardownWait)
		defer cancel()

		memory := s.machine.Memory()
		if err := h.memory.SaveMemory(ctx, s.id, memory); err != nil {
			s.logger.Warn("final memory save failed", zap.Error(err))
		}

		completed := onboardingCompleted(memory)
		if err := h.store.EndSession(ctx, s.id, completed); err != nil {
			s.logger.Warn("session end failed", zap.Error(err))
		}
		err := h.store.LogEvent(ctx, &models.AnalyticsEvent{
			SessionID: s.id,
			UserID:    s.userID,
			Event:     "session_completed",
		})
		if err != nil {
			s.logger.Warn("event log failed", zap.Error(err))
		}

		h.mu.Lock()
		delete(h.sessions, s.id)
		h.mu.Unlock()
		observability.ActiveSessions.Dec()

		s.logger.Info("voice session ended",
			zap.Int("turns", s.machine.Turns()),
			zap.Bool("completed", completed))
	}

	// No pushes happen after the read loop returns, so the writer can
	// drain and hang up
	close(s.send)
}

func onboardingCompleted(memory *models.ConversationMemory) bool {
	if memory == nil {
		return false
	}
	if memory.CurrentStep == models.StepCompleted {
		return true
	}
	for _, step := range memory.OnboardingProgress {
		if step == models.StepCompleted {
			return true
		}
	}
	return false
}

// wsSynthesizer speaks by sending speak frames to the client, which
// owns the actual audio output.
type wsSynthesizer struct {
	session *streamSession
}

func (w *wsSynthesizer) Speak(ctx context.Context, text string) error {
	select {
	case w.session.send <- serverMessage{Type: "speak", Text: text}:
		return nil
	case <-w.session.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel is client-side: the stop acknowledgement frame tells the
// client to cut audio.
func (w *wsSynthesizer) Cancel() {}

var _ interfaces.Synthesizer = (*wsSynthesizer)(nil)
