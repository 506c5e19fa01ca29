package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Match is a detected NFT-collection influence on a prompt.
type Match struct {
	Collection  string
	StylePrompt string
}

// Matcher asks an external directory whether a prompt references a known NFT
// collection. A (nil, nil) return means no influence. Callers treat errors as
// "no influence detected" as well; this path must never fail a generation.
type Matcher interface {
	MatchCollection(ctx context.Context, prompt string) (*Match, error)
}

// Noop is the Matcher used when no influence service is configured.
type Noop struct{}

func (Noop) MatchCollection(context.Context, string) (*Match, error) {
	return nil, nil
}

// HTTPMatcher queries the collection-influence service.
type HTTPMatcher struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPMatcher creates a matcher backed by the service at baseURL.
func NewHTTPMatcher(baseURL string) *HTTPMatcher {
	return &HTTPMatcher{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type matchRequest struct {
	Prompt string `json:"prompt"`
}

type matchResponse struct {
	Matched     bool   `json:"matched"`
	Collection  string `json:"collection"`
	StylePrompt string `json:"stylePrompt"`
}

// MatchCollection posts the prompt to the influence service.
func (m *HTTPMatcher) MatchCollection(ctx context.Context, prompt string) (*Match, error) {
	reqBody, _ := json.Marshal(matchRequest{Prompt: prompt})
	httpReq, err := http.NewRequestWithContext(ctx, "POST", m.baseURL+"/match", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("influence service error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("influence service error (status %d): %s", resp.StatusCode, string(body))
	}

	var matchResp matchResponse
	if err := json.NewDecoder(resp.Body).Decode(&matchResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !matchResp.Matched {
		return nil, nil
	}
	return &Match{Collection: matchResp.Collection, StylePrompt: matchResp.StylePrompt}, nil
}
