package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider handles OpenAI image generation requests
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
	}
}

// Generate makes an image generation request to OpenAI
func (p *OpenAIProvider) Generate(ctx context.Context, input GenerationInput) (*GenerationOutput, error) {
	if input.Kind == KindVideo {
		return nil, fmt.Errorf("OpenAI provider does not serve video models")
	}

	startTime := time.Now()

	openaiReq := openai.ImageRequest{
		Model:          input.Model,
		Prompt:         input.Prompt,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	}

	if input.Quality == "hd" {
		openaiReq.Quality = openai.CreateImageQualityHD
	}
	if input.Enhance {
		openaiReq.Style = openai.CreateImageStyleVivid
	}

	resp, err := p.client.CreateImage(ctx, openaiReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return nil, fmt.Errorf("OpenAI API returned no image")
	}

	return &GenerationOutput{
		ResultURL: resp.Data[0].URL,
		Model:     input.Model,
		LatencyMs: int(time.Since(startTime).Milliseconds()),
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return ProviderOpenAI
}
