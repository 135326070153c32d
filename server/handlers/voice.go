package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/themobileprof/voicepilot/internal/backend"
	"github.com/themobileprof/voicepilot/internal/db"
	"github.com/themobileprof/voicepilot/internal/dom"
	"github.com/themobileprof/voicepilot/internal/interfaces"
	"github.com/themobileprof/voicepilot/internal/observability"
	"github.com/themobileprof/voicepilot/internal/page"
	"github.com/themobileprof/voicepilot/pkg/httputil"
	"github.com/themobileprof/voicepilot/pkg/models"
)

// Control command responses
const (
	commandStoppedText = "Voice assistant stopped. You can restart anytime."
	commandRetryText   = "Let's try that again. What would you like to do?"
)

// VoiceHandler serves the REST voice endpoints. The rule engine runs
// in-process, so the service answers intents even when nothing else is
// configured.
type VoiceHandler struct {
	engine    *backend.Fallback
	extractor *page.Extractor
	analyzer  *page.Analyzer
	memory    interfaces.MemoryStore
	store     *db.DB
	logger    *zap.Logger
}

// NewVoiceHandler creates a new voice handler
func NewVoiceHandler(store *db.DB, memory interfaces.MemoryStore, logger *zap.Logger) *VoiceHandler {
	return &VoiceHandler{
		engine:    backend.NewFallback(nil, nil),
		extractor: page.NewExtractor(),
		analyzer:  page.NewAnalyzer(),
		memory:    memory,
		store:     store,
		logger:    logger,
	}
}

// Intent handles POST /api/voice/intent
func (h *VoiceHandler) Intent(w http.ResponseWriter, r *http.Request) {
	var req models.IntentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if strings.TrimSpace(req.Utterance) == "" {
		httputil.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "utterance is required")
		return
	}

	// Clients that do not track memory themselves get the stored copy
	if req.Memory == nil && req.UserID != "" {
		if memory, err := h.memory.GetMemory(r.Context(), req.UserID); err == nil {
			req.Memory = memory
		}
	}

	resp, _ := h.engine.ResolveIntent(r.Context(), &req)
	observability.IntentsClassified.WithLabelValues(string(resp.Intent)).Inc()

	h.persistTurn(r, &req, resp)

	httputil.JSON(w, http.StatusOK, resp)
}

func (h *VoiceHandler) persistTurn(r *http.Request, req *models.IntentRequest, resp *models.IntentResponse) {
	ctx := r.Context()

	if req.UserID != "" {
		if err := h.memory.SaveMemory(ctx, req.UserID, resp.Memory); err != nil {
			h.logger.Warn("memory save failed", zap.String("user_id", req.UserID), zap.Error(err))
		}
	}

	sessionKey := req.UserID
	if sessionKey == "" {
		sessionKey = "anonymous"
	}
	err := h.store.LogInteraction(ctx, &models.Interaction{
		SessionID:     sessionKey,
		UserID:        req.UserID,
		UserMessage:   req.Utterance,
		AgentResponse: resp.ResponseText,
		Intent:        resp.Intent,
		Step:          currentStep(resp.Memory),
	})
	if err != nil {
		h.logger.Warn("interaction log failed", zap.Error(err))
	}
	err = h.store.LogEvent(ctx, &models.AnalyticsEvent{
		SessionID: sessionKey,
		UserID:    req.UserID,
		Event:     "intent_recognized",
		Intent:    resp.Intent,
	})
	if err != nil {
		h.logger.Warn("event log failed", zap.Error(err))
	}
}

// Command handles POST /api/voice/command
func (h *VoiceHandler) Command(w http.ResponseWriter, r *http.Request) {
	var req models.CommandRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	memory := req.Memory
	if memory == nil && req.UserID != "" {
		if stored, err := h.memory.GetMemory(r.Context(), req.UserID); err == nil {
			memory = stored
		}
	}
	if memory == nil {
		memory = models.DefaultMemory()
	}

	var text string
	switch req.Command {
	case "stop":
		text = commandStoppedText
		memory.CurrentStep = models.StepIdle
	case "repeat":
		text = memory.LastResponse
		if text == "" {
			text = backend.RepeatDefault
		}
	case "retry":
		text = commandRetryText
		memory.CurrentStep = models.StepWelcome
	default:
		httputil.JSONError(w, http.StatusBadRequest, "INVALID_COMMAND",
			"command must be stop, repeat, or retry")
		return
	}

	memory.LastResponse = text
	memory.LastInteraction = time.Now()

	if req.UserID != "" {
		if err := h.memory.SaveMemory(r.Context(), req.UserID, memory); err != nil {
			h.logger.Warn("memory save failed", zap.String("user_id", req.UserID), zap.Error(err))
		}
	}

	httputil.JSON(w, http.StatusOK, models.CommandResponse{
		Command:      req.Command,
		ResponseText: text,
		Memory:       memory,
	})
}

// AnalyzePage handles POST /api/voice/analyze-page
func (h *VoiceHandler) AnalyzePage(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzePageRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if req.HTML == "" {
		httputil.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "html is required")
		return
	}

	doc, err := dom.ParseString(req.HTML)
	if err != nil {
		httputil.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "html could not be parsed")
		return
	}
	doc.SetRoute(req.CurrentRoute)

	structure := h.extractor.Extract(doc)
	observability.PageExtractions.Inc()

	httputil.JSON(w, http.StatusOK, models.AnalyzePageResponse{
		Summary:   page.Summarize(structure),
		Structure: structure,
		Analysis:  h.analyzer.Analyze(structure, req.CurrentRoute),
	})
}

// LogInteraction handles POST /api/voice/log-interaction. The sink is
// fire-and-forget: a parseable payload is always accepted.
func (h *VoiceHandler) LogInteraction(w http.ResponseWriter, r *http.Request) {
	var interaction models.Interaction
	if err := httputil.DecodeJSON(r, &interaction); err != nil {
		httputil.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if interaction.SessionID == "" {
		interaction.SessionID = "anonymous"
	}
	if err := h.store.LogInteraction(r.Context(), &interaction); err != nil {
		h.logger.Warn("interaction log failed", zap.Error(err))
	}

	w.WriteHeader(http.StatusNoContent)
}

// History handles GET /api/voice/history/{userID}
func (h *VoiceHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	limit := httputil.QueryInt(r, "limit", 20)

	history, err := h.store.History(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("history query failed", zap.String("user_id", userID), zap.Error(err))
		httputil.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "could not load history")
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, history, &httputil.Meta{
		Count: len(history),
		Limit: limit,
	})
}

// Stats handles GET /api/voice/stats
func (h *VoiceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.SessionStats(r.Context())
	if err != nil {
		h.logger.Error("stats query failed", zap.Error(err))
		httputil.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "could not load stats")
		return
	}

	httputil.JSON(w, http.StatusOK, stats)
}

// GetMemory handles GET /api/voice/sessions/{sessionID}/memory
func (h *VoiceHandler) GetMemory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	memory, err := h.memory.GetMemory(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("memory load failed", zap.String("session_id", sessionID), zap.Error(err))
		httputil.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "could not load memory")
		return
	}

	httputil.JSON(w, http.StatusOK, memory)
}

// PutMemory handles PUT /api/voice/sessions/{sessionID}/memory
func (h *VoiceHandler) PutMemory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var memory models.ConversationMemory
	if err := httputil.DecodeJSON(r, &memory); err != nil {
		httputil.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := h.memory.SaveMemory(r.Context(), sessionID, &memory); err != nil {
		h.logger.Error("memory save failed", zap.String("session_id", sessionID), zap.Error(err))
		httputil.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "could not save memory")
		return
	}

	httputil.JSON(w, http.StatusOK, &memory)
}

func currentStep(memory *models.ConversationMemory) models.OnboardingStep {
	if memory == nil {
		return ""
	}
	return memory.CurrentStep
}
