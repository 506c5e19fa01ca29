package dispatch

import (
	"fmt"

	"github.com/flowgen-ai/gateway/internal/gateway/providers"
)

// Entitlement descriptors a request can carry.
const (
	EntitlementStandard  = "standard"
	EntitlementNFTCredit = "nft-credit"
	EntitlementINFT      = "inft"
)

// Route variants.
const (
	RouteLegacy      = "legacy"
	RouteModelRouted = "model"
	RouteINFTPackage = "inft-package"
)

// Legacy credit costs.
const (
	imageCreditCost    = 1
	videoCreditCost    = 2
	influenceSurcharge = 1
)

// Route is the entitlement route selected for a request. Exactly one variant
// applies; selection is a pure function of the request's fields.
type Route struct {
	Kind       string
	Provider   string
	Model      string
	CreditCost int
	PackageID  string
}

// resolveRoute classifies a validated request. Precedence: an iNFT package
// outranks an explicit model, which outranks the legacy default.
func resolveRoute(req Request) (Route, *Error) {
	if req.PackageID != "" && req.Entitlement == EntitlementINFT {
		return Route{Kind: RouteINFTPackage, PackageID: req.PackageID}, nil
	}

	if req.Model != "" {
		provider, ok := providers.ResolveProvider(req.Model)
		if !ok {
			return Route{}, invalidRequest(fmt.Sprintf("unsupported model %q", req.Model))
		}
		return Route{
			Kind:       RouteModelRouted,
			Provider:   provider,
			Model:      req.Model,
			CreditCost: creditCost(req.Kind),
		}, nil
	}

	model, provider := providers.DefaultRoute(req.Kind)
	return Route{
		Kind:       RouteLegacy,
		Provider:   provider,
		Model:      model,
		CreditCost: creditCost(req.Kind),
	}, nil
}

func creditCost(kind string) int {
	if kind == providers.KindVideo {
		return videoCreditCost
	}
	return imageCreditCost
}
