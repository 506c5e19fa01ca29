package providers

import "context"

// Content kinds a generation request can ask for.
const (
	KindImage = "image"
	KindVideo = "video"
)

// GenerationInput is what a provider needs to produce one piece of media.
type GenerationInput struct {
	Prompt  string
	Model   string
	Kind    string
	Quality string
	Enhance bool
}

// GenerationOutput is the normalized provider result.
type GenerationOutput struct {
	ResultURL string
	Model     string
	LatencyMs int
}

// Provider is the interface all generation providers must implement
type Provider interface {
	Generate(ctx context.Context, input GenerationInput) (*GenerationOutput, error)
	Name() string
}
