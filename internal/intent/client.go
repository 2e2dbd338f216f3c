// Package intent calls the external natural-language-understanding service
// and returns the generated reply (fulfillment text) for a user message.
package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Config is the configuration for the intent-detection client.
type Config struct {
	// Endpoint is the base URL of the NLU service.
	Endpoint string
	// Project is the NLU project/agent identifier.
	Project string
	// Language is the BCP-47 code sent with every query.
	Language string
	Timeout  time.Duration
}

// Client is the intent-detection interface.
type Client interface {
	// DetectIntent sends the text to the NLU service scoped to sessionID
	// and returns the fulfillment text. One attempt per call, no retry:
	// the remote side has no idempotency key, so a retry could trigger
	// duplicate downstream effects.
	DetectIntent(ctx context.Context, text, sessionID string) (string, error)
}

type detectRequest struct {
	QueryInput queryInput `json:"queryInput"`
}

type queryInput struct {
	Text textInput `json:"text"`
}

type textInput struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode"`
}

type detectResponse struct {
	QueryResult struct {
		FulfillmentText string `json:"fulfillmentText"`
		Intent          struct {
			DisplayName string `json:"displayName"`
		} `json:"intent"`
	} `json:"queryResult"`
}

type httpClient struct {
	cfg    Config
	client *http.Client
	log    *zap.Logger
}

// NewHTTP creates the HTTP intent-detection client.
func NewHTTP(cfg Config, log *zap.Logger) Client {
	return &httpClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

func (c *httpClient) DetectIntent(ctx context.Context, text, sessionID string) (string, error) {
	body, err := json.Marshal(detectRequest{
		QueryInput: queryInput{Text: textInput{Text: text, LanguageCode: c.cfg.Language}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/projects/%s/sessions/%s:detectIntent",
		c.cfg.Endpoint, url.PathEscape(c.cfg.Project), url.PathEscape(sessionID))

	rCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(rCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("detect intent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Error("detect intent: remote error",
			zap.Int("status", resp.StatusCode), zap.ByteString("body", detail))
		return "", fmt.Errorf("detect intent: status %d: %s", resp.StatusCode, detail)
	}

	var out detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.QueryResult.FulfillmentText == "" {
		return "", errors.New("empty fulfillment text in response")
	}
	c.log.Debug("detect intent: resolved",
		zap.String("intent", out.QueryResult.Intent.DisplayName),
		zap.String("session", sessionID))
	return out.QueryResult.FulfillmentText, nil
}
