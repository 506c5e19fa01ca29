package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CloudflareProvider handles Workers AI text-to-image requests. The same
// client backs both the paid tier ("cloudflare-ai") and the free tier
// ("cloudflare-free"); only the registered name differs.
type CloudflareProvider struct {
	name       string
	accountID  string
	apiToken   string
	baseURL    string
	httpClient *http.Client
}

// cloudflareModelPaths maps routable model ids to Workers AI model paths.
var cloudflareModelPaths = map[string]string{
	"flux-1-schnell":           "@cf/black-forest-labs/flux-1-schnell",
	"stable-diffusion-xl-base": "@cf/stabilityai/stable-diffusion-xl-base-1.0",
	"dreamshaper-8":            "@cf/lykon/dreamshaper-8-lcm",
	"flux-1-schnell-free":      "@cf/black-forest-labs/flux-1-schnell",
}

// CloudflareRequest represents a Workers AI run request
type CloudflareRequest struct {
	Prompt   string `json:"prompt"`
	NumSteps int    `json:"num_steps,omitempty"`
}

// CloudflareResponse represents a JSON Workers AI run response
type CloudflareResponse struct {
	Result struct {
		Image string `json:"image"`
	} `json:"result"`
	Success bool `json:"success"`
	Errors  []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// NewCloudflareProvider creates the paid-tier Workers AI provider
func NewCloudflareProvider(accountID, apiToken string) *CloudflareProvider {
	return newCloudflare(ProviderCloudflare, accountID, apiToken)
}

// NewCloudflareFreeProvider creates the free-tier Workers AI provider
func NewCloudflareFreeProvider(accountID, apiToken string) *CloudflareProvider {
	return newCloudflare(ProviderCloudflareFree, accountID, apiToken)
}

func newCloudflare(name, accountID, apiToken string) *CloudflareProvider {
	return &CloudflareProvider{
		name:      name,
		accountID: accountID,
		apiToken:  apiToken,
		baseURL:   "https://api.cloudflare.com/client/v4",
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Generate makes a text-to-image request to Workers AI
func (p *CloudflareProvider) Generate(ctx context.Context, input GenerationInput) (*GenerationOutput, error) {
	if input.Kind == KindVideo {
		return nil, fmt.Errorf("Cloudflare provider does not serve video models")
	}

	modelPath, ok := cloudflareModelPaths[input.Model]
	if !ok {
		return nil, fmt.Errorf("no Workers AI path for model %q", input.Model)
	}

	startTime := time.Now()

	cfReq := CloudflareRequest{Prompt: input.Prompt}
	if input.Enhance {
		cfReq.Prompt = input.Prompt + ", highly detailed, sharp focus"
	}
	if input.Quality == "hd" {
		cfReq.NumSteps = 8
	}

	url := fmt.Sprintf("%s/accounts/%s/ai/run/%s", p.baseURL, p.accountID, modelPath)

	reqBody, _ := json.Marshal(cfReq)
	httpReq, _ := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBody))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiToken)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("Cloudflare API error: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, _ := io.ReadAll(httpResp.Body)

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Cloudflare API error (status %d): %s", httpResp.StatusCode, string(respBody))
	}

	// SDXL-era models answer with raw PNG bytes, newer ones with JSON
	// carrying a base64 image.
	var image string
	if strings.HasPrefix(httpResp.Header.Get("Content-Type"), "image/") {
		image = base64.StdEncoding.EncodeToString(respBody)
	} else {
		var cfResp CloudflareResponse
		if err := json.Unmarshal(respBody, &cfResp); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		if !cfResp.Success || cfResp.Result.Image == "" {
			if len(cfResp.Errors) > 0 {
				return nil, fmt.Errorf("Cloudflare API error: %s", cfResp.Errors[0].Message)
			}
			return nil, fmt.Errorf("Cloudflare API returned no image")
		}
		image = cfResp.Result.Image
	}

	return &GenerationOutput{
		ResultURL: "data:image/png;base64," + image,
		Model:     input.Model,
		LatencyMs: int(time.Since(startTime).Milliseconds()),
	}, nil
}

// Name returns the provider name
func (p *CloudflareProvider) Name() string {
	return p.name
}
