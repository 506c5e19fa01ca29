package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GeminiProvider handles Google Gemini image and Veo video requests
type GeminiProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// geminiModelNames maps routable model ids to API model names.
var geminiModelNames = map[string]string{
	"gemini-2.0-flash-image": "gemini-2.0-flash-exp-image-generation",
	"veo-2":                  "veo-2.0-generate-001",
}

// GeminiRequest represents a generateContent request
type GeminiRequest struct {
	Contents         []GeminiContent         `json:"contents"`
	GenerationConfig *GeminiGenerationConfig `json:"generationConfig,omitempty"`
}

// GeminiContent represents content in Gemini format
type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart represents a part of the content
type GeminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *GeminiInlineData `json:"inlineData,omitempty"`
}

// GeminiInlineData carries base64 media in a response part
type GeminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// GeminiGenerationConfig represents generation parameters
type GeminiGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

// GeminiResponse represents a generateContent response
type GeminiResponse struct {
	Candidates []struct {
		Content GeminiContent `json:"content"`
	} `json:"candidates"`
}

// GeminiPredictRequest represents a Veo predict request
type GeminiPredictRequest struct {
	Instances []GeminiInstance `json:"instances"`
}

// GeminiInstance is one prompt instance in a predict request
type GeminiInstance struct {
	Prompt string `json:"prompt"`
}

// GeminiPredictResponse represents a Veo predict response
type GeminiPredictResponse struct {
	Predictions []struct {
		VideoURI string `json:"videoUri"`
	} `json:"predictions"`
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(apiKey string) *GeminiProvider {
	return &GeminiProvider{
		apiKey:  apiKey,
		baseURL: "https://generativelanguage.googleapis.com/v1beta",
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Generate makes an image or video generation request to Gemini
func (p *GeminiProvider) Generate(ctx context.Context, input GenerationInput) (*GenerationOutput, error) {
	apiModel, ok := geminiModelNames[input.Model]
	if !ok {
		return nil, fmt.Errorf("no Gemini API name for model %q", input.Model)
	}

	if input.Kind == KindVideo {
		return p.generateVideo(ctx, input, apiModel)
	}
	return p.generateImage(ctx, input, apiModel)
}

func (p *GeminiProvider) generateImage(ctx context.Context, input GenerationInput, apiModel string) (*GenerationOutput, error) {
	startTime := time.Now()

	geminiReq := GeminiRequest{
		Contents: []GeminiContent{
			{Role: "user", Parts: []GeminiPart{{Text: input.Prompt}}},
		},
		GenerationConfig: &GeminiGenerationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, apiModel, p.apiKey)

	var geminiResp GeminiResponse
	if err := p.post(ctx, url, geminiReq, &geminiResp); err != nil {
		return nil, err
	}

	for _, candidate := range geminiResp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				mime := part.InlineData.MimeType
				if mime == "" {
					mime = "image/png"
				}
				return &GenerationOutput{
					ResultURL: "data:" + mime + ";base64," + part.InlineData.Data,
					Model:     input.Model,
					LatencyMs: int(time.Since(startTime).Milliseconds()),
				}, nil
			}
		}
	}

	return nil, fmt.Errorf("Gemini API returned no image")
}

func (p *GeminiProvider) generateVideo(ctx context.Context, input GenerationInput, apiModel string) (*GenerationOutput, error) {
	startTime := time.Now()

	predictReq := GeminiPredictRequest{
		Instances: []GeminiInstance{{Prompt: input.Prompt}},
	}

	url := fmt.Sprintf("%s/models/%s:predict?key=%s", p.baseURL, apiModel, p.apiKey)

	var predictResp GeminiPredictResponse
	if err := p.post(ctx, url, predictReq, &predictResp); err != nil {
		return nil, err
	}

	if len(predictResp.Predictions) == 0 || predictResp.Predictions[0].VideoURI == "" {
		return nil, fmt.Errorf("Gemini API returned no video")
	}

	return &GenerationOutput{
		ResultURL: predictResp.Predictions[0].VideoURI,
		Model:     input.Model,
		LatencyMs: int(time.Since(startTime).Milliseconds()),
	}, nil
}

func (p *GeminiProvider) post(ctx context.Context, url string, payload, out interface{}) error {
	reqBody, _ := json.Marshal(payload)
	httpReq, _ := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBody))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("Gemini API error: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Gemini API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return ProviderGemini
}
