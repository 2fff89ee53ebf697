// Package generator talks to the external text-generation service.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Generator produces raw text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// StopSequences end generation before the model starts chatting.
var StopSequences = []string{"\n\n", "Here", "here", "Suggest", "suggest"}

const (
	DefaultMaxTokens   = 15
	DefaultTemperature = 0.8
	DefaultTimeout     = 20 * time.Second
)

// Request is the JSON payload sent to the service.
type Request struct {
	Model         string   `json:"model"`
	Prompt        string   `json:"prompt"`
	MaxTokens     int      `json:"max_tokens"`
	Temperature   float64  `json:"temperature"`
	StopSequences []string `json:"stop_sequences"`
}

// Response is the subset of the service reply we read.
type Response struct {
	Generations []struct {
		Text string `json:"text"`
	} `json:"generations"`
}

// Options configures an HTTPClient.
type Options struct {
	Endpoint    string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// HTTPClient implements Generator over JSON/HTTP.
type HTTPClient struct {
	opts Options
	http *http.Client
	log  logrus.FieldLogger
}

// NewHTTPClient creates a client. A nil httpClient gets one with opts.Timeout.
func NewHTTPClient(opts Options, httpClient *http.Client, logger logrus.FieldLogger) *HTTPClient {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Temperature <= 0 {
		opts.Temperature = DefaultTemperature
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &HTTPClient{
		opts: opts,
		http: httpClient,
		log:  logger.WithField("component", "generator"),
	}
}

// Generate sends prompt to the service and returns the first generation's
// text. A reply without generations yields an empty string, not an error.
func (c *HTTPClient) Generate(ctx context.Context, prompt string) (string, error) {
	log := c.log.WithField("model", c.opts.Model)

	body, err := json.Marshal(Request{
		Model:         c.opts.Model,
		Prompt:        prompt,
		MaxTokens:     c.opts.MaxTokens,
		Temperature:   c.opts.Temperature,
		StopSequences: StopSequences,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", NewServiceError(ErrorUnavailable, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		category := ErrorUnavailable
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			category = ErrorTimeout
		}
		log.WithError(err).Error("Generation request failed")
		return "", NewServiceError(category, "request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", NewServiceError(ErrorUnavailable, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithFields(logrus.Fields{"status": resp.StatusCode}).Error("Generation service returned an error status")
		se := NewServiceError(ErrorUnavailable, "unexpected status", nil)
		se.StatusCode = resp.StatusCode
		return "", se
	}

	var decoded Response
	if err := json.Unmarshal(payload, &decoded); err != nil {
		log.WithError(err).Error("Failed to decode generation response")
		return "", NewServiceError(ErrorBadResponse, "malformed response", err)
	}

	log.WithFields(logrus.Fields{
		"generations": len(decoded.Generations),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Generation completed")

	if len(decoded.Generations) == 0 {
		return "", nil
	}
	return decoded.Generations[0].Text, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
