package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phishguard/phishguard/internal/core"
	"go.uber.org/zap"
)

// Client is an HTTP client for the external detection API, implementing the
// core.DetectorClient interface. Non-2xx responses and malformed bodies are
// returned as errors indistinguishable from network failure; callers decide
// whether to surface or swallow them.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new detection API client.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type urlRequest struct {
	URL string `json:"url"`
}

type emailRequest struct {
	Content string `json:"content"`
}

type chatRequest struct {
	Message string             `json:"message"`
	History []core.ChatMessage `json:"history"`
	Context string             `json:"context"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// AnalyzeURL submits a URL for phishing analysis.
func (c *Client) AnalyzeURL(ctx context.Context, url string) (*core.AnalysisResult, error) {
	var result core.AnalysisResult
	if err := c.post(ctx, "/analyze/url", urlRequest{URL: url}, &result); err != nil {
		return nil, err
	}

	result.AnalyzedAt = time.Now()
	result.RequestID = uuid.NewString()
	return &result, nil
}

// AnalyzeEmail submits email content for phishing analysis.
func (c *Client) AnalyzeEmail(ctx context.Context, content string) (*core.AnalysisResult, error) {
	var result core.AnalysisResult
	if err := c.post(ctx, "/analyze/email", emailRequest{Content: content}, &result); err != nil {
		return nil, err
	}

	result.AnalyzedAt = time.Now()
	result.RequestID = uuid.NewString()
	return &result, nil
}

// Chat forwards an assistant message with rolling history and page context.
func (c *Client) Chat(ctx context.Context, message string, history []core.ChatMessage, pageContext string) (string, error) {
	if history == nil {
		history = []core.ChatMessage{}
	}

	var resp chatResponse
	if err := c.post(ctx, "/chat", chatRequest{Message: message, History: history, Context: pageContext}, &resp); err != nil {
		return "", err
	}

	return resp.Response, nil
}

// Ping probes the API root; any 2xx response means available.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("detection api unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("detection api returned status %d", resp.StatusCode)
	}

	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("detection api unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("detection api returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("Detection API call completed",
		zap.String("path", path),
		zap.Duration("duration", time.Since(start)))

	return nil
}
