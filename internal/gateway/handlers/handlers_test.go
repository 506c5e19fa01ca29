package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgen-ai/gateway/internal/gateway/cache"
	"github.com/flowgen-ai/gateway/internal/gateway/dispatch"
	"github.com/flowgen-ai/gateway/internal/gateway/pricing"
	"github.com/flowgen-ai/gateway/internal/gateway/providers"
	"github.com/flowgen-ai/gateway/internal/gateway/ratelimit"
	"github.com/flowgen-ai/gateway/internal/shared/config"
)

type fakeProvider struct {
	name string
}

func (p *fakeProvider) Generate(_ context.Context, input providers.GenerationInput) (*providers.GenerationOutput, error) {
	return &providers.GenerationOutput{
		ResultURL: "https://cdn.example.com/out.png",
		Model:     input.Model,
	}, nil
}

func (p *fakeProvider) Name() string { return p.name }

type fakeSource struct {
	price float64
	err   error
}

func (s *fakeSource) ReferenceTokenPriceUSD(context.Context) (float64, error) {
	return s.price, s.err
}

func testManager() *providers.Manager {
	m := providers.NewManager(&config.Config{})
	for _, name := range []string{
		providers.ProviderOpenAI,
		providers.ProviderCloudflare,
		providers.ProviderGemini,
		providers.ProviderCloudflareFree,
	} {
		m.Register(name, &fakeProvider{name: name})
	}
	return m
}

func TestClientKey(t *testing.T) {
	testCases := []struct {
		name       string
		forwarded  string
		remoteAddr string
		expected   string
	}{
		{name: "forwarded_first_value_wins", forwarded: "10.0.0.1, 10.0.0.2", remoteAddr: "192.168.1.1:1234", expected: "10.0.0.1"},
		{name: "forwarded_single_value", forwarded: "10.0.0.1", expected: "10.0.0.1"},
		{name: "remote_addr_fallback", remoteAddr: "192.168.1.1:1234", expected: "192.168.1.1"},
		{name: "remote_addr_without_port", remoteAddr: "192.168.1.1", expected: "192.168.1.1"},
		{name: "nothing_available", expected: "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			assert.Equal(t, tc.expected, clientKey(r))
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	m := NewMiddleware(ratelimit.NewMemory(30, time.Minute))
	handler := m.CORSMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run on preflight")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("OPTIONS", "/api/price/swap-amount", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitMiddleware(t *testing.T) {
	m := NewMiddleware(ratelimit.NewMemory(2, time.Minute))
	handler := m.RateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	call := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/price/swap-amount", nil)
		r.Header.Set("X-Forwarded-For", "10.0.0.1")
		handler.ServeHTTP(rec, r)
		return rec
	}

	assert.Equal(t, http.StatusOK, call().Code)
	assert.Equal(t, http.StatusOK, call().Code)

	rec := call()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "Rate limit exceeded")
}

func TestHandleSwapAmount(t *testing.T) {
	svc := pricing.New(&fakeSource{err: pricing.ErrUnavailable}, cache.NewMemory(), 3*time.Minute)
	h := NewPriceHandler(svc, false)

	rec := httptest.NewRecorder()
	h.HandleSwapAmount(rec, httptest.NewRequest("GET", "/api/price/swap-amount?network=testnet", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=180, s-maxage=180", rec.Header().Get("Cache-Control"))

	var quote pricing.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.Equal(t, "testnet", quote.Network)
	assert.Equal(t, pricing.SourceFallback, quote.Source)
	assert.Equal(t, 1.0, quote.Pricing.Image.USD)
	assert.Equal(t, 2.0, quote.Pricing.Video.USD)
	require.NotEmpty(t, quote.Pricing.Image.Options)
	for _, opt := range quote.Pricing.Image.Options {
		assert.Greater(t, opt.PricePerToken, 0.0)
	}
}

func TestHandleSwapAmountClampsOutOfRangePrices(t *testing.T) {
	svc := pricing.New(&fakeSource{price: 0.305}, cache.NewMemory(), 3*time.Minute)
	h := NewPriceHandler(svc, false)

	rec := httptest.NewRecorder()
	h.HandleSwapAmount(rec, httptest.NewRequest("GET", "/api/price/swap-amount?imagePrice=5000", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var quote pricing.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.Equal(t, 1.0, quote.Pricing.Image.USD)
}

func TestHandleSwapAmountStrictMode(t *testing.T) {
	svc := pricing.New(&fakeSource{price: 0.305}, cache.NewMemory(), 3*time.Minute)
	h := NewPriceHandler(svc, true)

	rec := httptest.NewRecorder()
	h.HandleSwapAmount(rec, httptest.NewRequest("GET", "/api/price/swap-amount?imagePrice=5000", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGenerateSuccess(t *testing.T) {
	manager := testManager()
	h := NewGenerateHandler(dispatch.New(manager, nil, nil, nil), manager)

	body := `{"prompt":"a cat","model":"dall-e-3","userAddress":"0xabc"}`
	rec := httptest.NewRecorder()
	h.HandleGenerate(rec, httptest.NewRequest("POST", "/generate", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, providers.ProviderOpenAI, rec.Header().Get("X-Provider"))

	var resp struct {
		Success      bool   `json:"success"`
		ResultURL    string `json:"resultUrl"`
		GenerationID string `json:"generationId"`
		CreditsUsed  int    `json:"creditsUsed"`
		Provider     string `json:"provider"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "https://cdn.example.com/out.png", resp.ResultURL)
	assert.NotEmpty(t, resp.GenerationID)
	assert.Equal(t, 1, resp.CreditsUsed)
	assert.Equal(t, providers.ProviderOpenAI, resp.Provider)
}

func TestHandleGenerateEmptyPrompt(t *testing.T) {
	manager := testManager()
	h := NewGenerateHandler(dispatch.New(manager, nil, nil, nil), manager)

	rec := httptest.NewRecorder()
	h.HandleGenerate(rec, httptest.NewRequest("POST", "/generate", strings.NewReader(`{"prompt":"  "}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
}

func TestHandleGenerateBadBody(t *testing.T) {
	manager := testManager()
	h := NewGenerateHandler(dispatch.New(manager, nil, nil, nil), manager)

	rec := httptest.NewRecorder()
	h.HandleGenerate(rec, httptest.NewRequest("POST", "/generate", strings.NewReader(`not json`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGenerateIsVideoAlias(t *testing.T) {
	manager := testManager()
	h := NewGenerateHandler(dispatch.New(manager, nil, nil, nil), manager)

	body := `{"prompt":"a storm","isVideo":true,"user":"user-1"}`
	rec := httptest.NewRecorder()
	h.HandleGenerate(rec, httptest.NewRequest("POST", "/generate", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Provider    string `json:"provider"`
		Model       string `json:"modelUsed"`
		CreditsUsed int    `json:"creditsUsed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, providers.ProviderGemini, resp.Provider)
	assert.Equal(t, providers.DefaultVideoModel, resp.Model)
	assert.Equal(t, 2, resp.CreditsUsed)
}

func TestHandleRoutes(t *testing.T) {
	manager := testManager()
	h := NewGenerateHandler(dispatch.New(manager, nil, nil, nil), manager)

	rec := httptest.NewRecorder()
	h.HandleRoutes(rec, httptest.NewRequest("GET", "/generate", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Models    []map[string]string `json:"models"`
		Providers []string            `json:"providers"`
		Endpoints []string            `json:"endpoints"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Models)
	assert.NotEmpty(t, resp.Providers)
	assert.NotEmpty(t, resp.Endpoints)
}
