package dispatch

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flowgen-ai/gateway/internal/gateway/enrich"
	"github.com/flowgen-ai/gateway/internal/gateway/providers"
	"github.com/flowgen-ai/gateway/internal/shared/models"
)

const enrichTimeout = 2 * time.Second

// Request is one incoming generation request. Immutable once received; lives
// for the duration of a single Dispatch call.
type Request struct {
	Prompt      string
	Kind        string
	Requester   string
	Entitlement string
	PackageID   string
	Model       string
	Quality     string
	Enhance     bool
}

// Result is the normalized outcome of a successful dispatch.
type Result struct {
	GenerationID string `json:"generationId"`
	ResultURL    string `json:"resultUrl"`
	Provider     string `json:"provider"`
	Model        string `json:"modelUsed"`
	CreditsUsed  int    `json:"creditsUsed"`
	Influenced   bool   `json:"influenced,omitempty"`
}

// PackageInfo is the on-chain state of an iNFT credit package.
type PackageInfo struct {
	RemainingUses int
	Model         string
}

// PackageContract is the entitlement contract collaborator for iNFT packages.
type PackageContract interface {
	PackageInfo(ctx context.Context, packageID string) (*PackageInfo, error)
	ConsumeUse(ctx context.Context, packageID string) error
}

// HistorySink receives completed (and failed) generations. Failures writing
// to it never fail a dispatch.
type HistorySink interface {
	RecordGeneration(ctx context.Context, rec *models.GenerationRecord) error
}

// Dispatcher validates generation requests, selects an entitlement route and
// executes the corresponding provider path.
type Dispatcher struct {
	manager  *providers.Manager
	matcher  enrich.Matcher
	contract PackageContract
	history  HistorySink

	now   func() time.Time
	newID func(now time.Time) string
}

// New creates a dispatcher. contract and history may be nil when the
// corresponding collaborator is not configured.
func New(manager *providers.Manager, matcher enrich.Matcher, contract PackageContract, history HistorySink) *Dispatcher {
	if matcher == nil {
		matcher = enrich.Noop{}
	}
	return &Dispatcher{
		manager:  manager,
		matcher:  matcher,
		contract: contract,
		history:  history,
		now:      time.Now,
		newID:    generationID,
	}
}

func generationID(now time.Time) string {
	return fmt.Sprintf("gen_%d_%s", now.UnixMilli(), uuid.NewString()[:8])
}

// Dispatch runs one request to completion. There are no retries and no
// backward transitions; credits count as used only once a result exists.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Result, *Error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, invalidRequest("prompt must not be empty")
	}

	if req.Kind == "" {
		req.Kind = providers.KindImage
	}
	if req.Kind != providers.KindImage && req.Kind != providers.KindVideo {
		return nil, invalidRequest(fmt.Sprintf("unsupported content kind %q", req.Kind))
	}

	route, derr := resolveRoute(req)
	if derr != nil {
		return nil, derr
	}

	var result *Result
	if route.Kind == RouteINFTPackage {
		result, derr = d.dispatchPackage(ctx, req, route)
	} else {
		result, derr = d.dispatchProvider(ctx, req, route)
	}

	if derr != nil {
		d.record(req, route, nil, derr)
		return nil, derr
	}

	d.record(req, route, result, nil)
	return result, nil
}

// dispatchProvider runs the legacy and model-routed paths.
func (d *Dispatcher) dispatchProvider(ctx context.Context, req Request, route Route) (*Result, *Error) {
	client, ok := d.manager.Provider(route.Provider)
	if !ok {
		return nil, upstreamUnavailable(fmt.Sprintf("provider %q is not configured", route.Provider))
	}

	prompt := req.Prompt
	creditCost := route.CreditCost
	influenced := false

	// Collection influence applies only to legacy NFT-credit dispatches.
	// The lookup is bounded and best-effort: a slow or broken influence
	// service means "no influence", never a failed generation.
	if route.Kind == RouteLegacy && req.Entitlement == EntitlementNFTCredit {
		if match := d.lookupInfluence(ctx, prompt); match != nil {
			prompt = match.StylePrompt + ", " + prompt
			creditCost += influenceSurcharge
			influenced = true
		}
	}

	output, err := client.Generate(ctx, providers.GenerationInput{
		Prompt:  prompt,
		Model:   route.Model,
		Kind:    req.Kind,
		Quality: req.Quality,
		Enhance: req.Enhance,
	})
	if err != nil {
		return nil, upstreamFailed(fmt.Sprintf("provider error: %v", err))
	}

	return &Result{
		GenerationID: d.newID(d.now()),
		ResultURL:    output.ResultURL,
		Provider:     route.Provider,
		Model:        route.Model,
		CreditsUsed:  creditCost,
		Influenced:   influenced,
	}, nil
}

// dispatchPackage runs the iNFT execution path.
func (d *Dispatcher) dispatchPackage(ctx context.Context, req Request, route Route) (*Result, *Error) {
	if d.contract == nil {
		return nil, upstreamUnavailable("package contract is not configured")
	}

	info, err := d.contract.PackageInfo(ctx, route.PackageID)
	if err != nil {
		return nil, upstreamFailed(fmt.Sprintf("package lookup failed: %v", err))
	}
	if info.RemainingUses <= 0 {
		return nil, invalidRequest(fmt.Sprintf("package %s has no remaining uses", route.PackageID))
	}

	provider, ok := providers.ResolveProvider(info.Model)
	if !ok {
		return nil, upstreamFailed(fmt.Sprintf("package %s references unknown model %q", route.PackageID, info.Model))
	}

	client, ok := d.manager.Provider(provider)
	if !ok {
		return nil, upstreamUnavailable(fmt.Sprintf("provider %q is not configured", provider))
	}

	output, err := client.Generate(ctx, providers.GenerationInput{
		Prompt:  req.Prompt,
		Model:   info.Model,
		Kind:    req.Kind,
		Quality: req.Quality,
		Enhance: req.Enhance,
	})
	if err != nil {
		return nil, upstreamFailed(fmt.Sprintf("provider error: %v", err))
	}

	// The use is consumed only now that a result exists. Consumption is
	// fire-and-forget; a failed consume cannot un-generate the media.
	go func(packageID string) {
		if err := d.contract.ConsumeUse(context.Background(), packageID); err != nil {
			log.Printf("dispatch: consume use for package %s: %v", packageID, err)
		}
	}(route.PackageID)

	return &Result{
		GenerationID: d.newID(d.now()),
		ResultURL:    output.ResultURL,
		Provider:     provider,
		Model:        info.Model,
		CreditsUsed:  1,
	}, nil
}

func (d *Dispatcher) lookupInfluence(ctx context.Context, prompt string) *enrich.Match {
	enrichCtx, cancel := context.WithTimeout(ctx, enrichTimeout)
	defer cancel()

	match, err := d.matcher.MatchCollection(enrichCtx, prompt)
	if err != nil {
		log.Printf("dispatch: influence lookup failed, continuing without: %v", err)
		return nil
	}
	return match
}

// record writes the dispatch outcome to the history sink, fire-and-forget.
func (d *Dispatcher) record(req Request, route Route, result *Result, derr *Error) {
	if d.history == nil {
		return
	}

	rec := &models.GenerationRecord{
		Requester:   req.Requester,
		Prompt:      req.Prompt,
		Kind:        req.Kind,
		Provider:    route.Provider,
		Model:       route.Model,
		Entitlement: req.Entitlement,
		PackageID:   route.PackageID,
		StatusCode:  200,
		CreatedAt:   d.now(),
	}

	if result != nil {
		rec.GenerationID = result.GenerationID
		rec.Provider = result.Provider
		rec.Model = result.Model
		rec.CreditsUsed = result.CreditsUsed
		rec.ResultURL = result.ResultURL
		rec.Influenced = result.Influenced
	}
	if derr != nil {
		rec.StatusCode = derr.Status
		msg := derr.Message
		rec.ErrorMessage = &msg
	}

	go func() {
		if err := d.history.RecordGeneration(context.Background(), rec); err != nil {
			log.Printf("dispatch: history write failed: %v", err)
		}
	}()
}
