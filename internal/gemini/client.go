// Package gemini adapts the Google Gen AI SDK to the generateContent call
// used by pixelart.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	defaultBaseURL    = "https://generativelanguage.googleapis.com"
	defaultAPIVersion = "v1beta"
)

type Options struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	models *genai.Models
	logger *slog.Logger
}

func New(ctx context.Context, opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    baseURL + "/",
			APIVersion: apiVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{
		models: client.Models,
		logger: logger,
	}, nil
}

// GenerateContent performs exactly one generateContent request.
func (c *Client) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		c.logger.ErrorContext(ctx, "gemini request failed",
			"model", model, "dur_ms", time.Since(start).Milliseconds(), "err", err)
		return nil, fmt.Errorf("gemini %s: %w", model, err)
	}

	attrs := []any{"model", model, "dur_ms", time.Since(start).Milliseconds(), "candidates", len(resp.Candidates)}
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		attrs = append(attrs, "finish_reason", string(resp.Candidates[0].FinishReason))
	}
	c.logger.DebugContext(ctx, "gemini response", attrs...)

	return resp, nil
}
