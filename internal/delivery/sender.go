// Package delivery sends reply messages to the messaging platform's send
// API on behalf of the configured phone number.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// SendRequest addresses one text reply.
type SendRequest struct {
	To   string
	Body string
}

// Config is the configuration for the delivery sender.
type Config struct {
	// Endpoint is the base URL of the messaging API.
	Endpoint string
	// PhoneNumberID is the sender identity on the platform.
	PhoneNumberID string
	// Token is the bearer credential.
	Token   string
	Timeout time.Duration
}

// Sender is the reply-delivery interface.
type Sender interface {
	// Send delivers the reply and returns the provider message id.
	// One attempt per call, no retry.
	Send(ctx context.Context, req SendRequest) (string, error)
}

type sendPayload struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *APIError `json:"error"`
}

type httpSender struct {
	cfg    Config
	client *http.Client
	log    *zap.Logger
}

// NewHTTP creates the HTTP delivery sender.
func NewHTTP(cfg Config, log *zap.Logger) Sender {
	return &httpSender{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

func (s *httpSender) Send(ctx context.Context, req SendRequest) (string, error) {
	b, err := json.Marshal(sendPayload{
		MessagingProduct: "whatsapp",
		To:               req.To,
		Type:             "text",
		Text:             textBody{Body: req.Body},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/messages", s.cfg.Endpoint, s.cfg.PhoneNumberID)

	rCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(rCtx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.cfg.Token)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send reply: %w", err)
	}
	defer resp.Body.Close()

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if out.Error != nil {
		s.log.Error("send reply: platform error",
			zap.Int("code", out.Error.Code),
			zap.String("type", out.Error.Type),
			zap.String("message", out.Error.Message))
		return "", out.Error.wrap()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("send reply: unexpected status %d", resp.StatusCode)
	}
	if len(out.Messages) == 0 || out.Messages[0].ID == "" {
		return "", errors.New("empty provider message id in response")
	}
	return out.Messages[0].ID, nil
}
