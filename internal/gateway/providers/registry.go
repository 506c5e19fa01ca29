package providers

import (
	"sort"

	"github.com/flowgen-ai/gateway/internal/shared/models"
)

// Provider identifiers. This is the closed set; every routable model maps to
// exactly one of them.
const (
	ProviderOpenAI         = "openai"
	ProviderCloudflare     = "cloudflare-ai"
	ProviderGemini         = "gemini"
	ProviderCloudflareFree = "cloudflare-free"
)

type modelInfo struct {
	provider string
	kind     string
}

// modelTable is the static routing table. Unknown model ids are a
// classification error, never a silent default.
var modelTable = map[string]modelInfo{
	"dall-e-3":                 {provider: ProviderOpenAI, kind: KindImage},
	"gpt-image-1":              {provider: ProviderOpenAI, kind: KindImage},
	"flux-1-schnell":           {provider: ProviderCloudflare, kind: KindImage},
	"stable-diffusion-xl-base": {provider: ProviderCloudflare, kind: KindImage},
	"dreamshaper-8":            {provider: ProviderCloudflare, kind: KindImage},
	"gemini-2.0-flash-image":   {provider: ProviderGemini, kind: KindImage},
	"veo-2":                    {provider: ProviderGemini, kind: KindVideo},
	"flux-1-schnell-free":      {provider: ProviderCloudflareFree, kind: KindImage},
}

// Legacy defaults used when a request names no model.
const (
	DefaultImageModel = "flux-1-schnell"
	DefaultVideoModel = "veo-2"
)

// ResolveProvider returns the provider serving modelID, or false when the
// model is not in the routing table.
func ResolveProvider(modelID string) (string, bool) {
	info, ok := modelTable[modelID]
	if !ok {
		return "", false
	}
	return info.provider, true
}

// DefaultRoute returns the legacy default model and provider for a content
// kind. Anything other than video gets the image default.
func DefaultRoute(kind string) (model, provider string) {
	if kind == KindVideo {
		return DefaultVideoModel, ProviderGemini
	}
	return DefaultImageModel, ProviderCloudflare
}

// RoutingTable lists every known model with its provider and kind, sorted by
// model id, for client-side discovery.
func RoutingTable() []models.RouteEntry {
	entries := make([]models.RouteEntry, 0, len(modelTable))
	for id, info := range modelTable {
		entries = append(entries, models.RouteEntry{
			Model:    id,
			Provider: info.provider,
			Kind:     info.kind,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Model < entries[j].Model })
	return entries
}

// KnownEndpoints lists the downstream API hosts the gateway may call.
func KnownEndpoints() []string {
	return []string{
		"https://api.openai.com/v1",
		"https://api.cloudflare.com/client/v4",
		"https://generativelanguage.googleapis.com/v1beta",
		"https://open-api.openocean.finance/v4/sonic",
	}
}
