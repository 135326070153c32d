// Package backend talks to the remote intent service and carries the
// local rule engine used when that service is unreachable.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/themobileprof/voicepilot/internal/interfaces"
	"github.com/themobileprof/voicepilot/pkg/models"
)

// DefaultTimeout bounds a single intent round trip.
const DefaultTimeout = 5 * time.Second

// Client handles communication with the voice intent service
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new intent service client
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// ResolveIntent posts the utterance with its context and returns the
// service's interpretation. Any transport or protocol failure comes
// back as an error; callers degrade to the local fallback.
func (c *Client) ResolveIntent(ctx context.Context, req *models.IntentRequest) (*models.IntentResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode intent request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/voice/intent", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build intent request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach intent service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("intent service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read intent response: %w", err)
	}

	var envelope struct {
		Success bool                  `json:"success"`
		Data    models.IntentResponse `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse intent response: %w", err)
	}
	if !envelope.Success {
		msg := "unknown error"
		if envelope.Error != nil {
			msg = envelope.Error.Message
		}
		return nil, fmt.Errorf("intent service rejected request: %s", msg)
	}

	c.logger.Debug("intent resolved remotely",
		zap.String("intent", string(envelope.Data.Intent)),
		zap.Duration("elapsed", time.Since(start)))

	return &envelope.Data, nil
}

// Ensure Client implements IntentResolver interface
var _ interfaces.IntentResolver = (*Client)(nil)
