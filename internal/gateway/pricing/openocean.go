package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"
)

// ErrUnavailable indicates the market source could not produce a price this
// attempt. Callers degrade to the fallback price; nothing retries.
var ErrUnavailable = errors.New("market price unavailable")

// MarketPriceSource looks up the current USD price of the reference token.
type MarketPriceSource interface {
	ReferenceTokenPriceUSD(ctx context.Context) (float64, error)
}

// Sonic token addresses for the reference pair.
const (
	wsTokenAddress   = "0x039e2fb66102314ce7b64ce5ce3e5183bc94ad38"
	usdcTokenAddress = "0x29219dd400f2bf60e5a23d13be72b486d4038894"

	usdcDecimals    = 6
	quoteNotionalWS = 1
)

// OpenOcean queries the OpenOcean aggregator for a wS -> USDC.e quote and
// derives a per-unit USD price from the output amount. Exactly one attempt
// per invocation; every failure mode collapses to ErrUnavailable.
type OpenOcean struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewOpenOcean creates an OpenOcean price source. apiKey may be empty.
func NewOpenOcean(apiKey string) *OpenOcean {
	return &OpenOcean{
		baseURL: "https://open-api.openocean.finance/v4/sonic",
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type openOceanQuote struct {
	Code int `json:"code"`
	Data struct {
		OutAmount string `json:"outAmount"`
	} `json:"data"`
}

// ReferenceTokenPriceUSD fetches the USD price of one wS.
func (o *OpenOcean) ReferenceTokenPriceUSD(ctx context.Context) (float64, error) {
	url := fmt.Sprintf("%s/quote?inTokenAddress=%s&outTokenAddress=%s&amount=%d&gasPrice=1",
		o.baseURL, wsTokenAddress, usdcTokenAddress, quoteNotionalWS)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if o.apiKey != "" {
		req.Header.Set("apikey", o.apiKey)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	var quote openOceanQuote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return 0, fmt.Errorf("%w: parse response: %v", ErrUnavailable, err)
	}
	if quote.Code != 200 || quote.Data.OutAmount == "" {
		return 0, fmt.Errorf("%w: unexpected payload (code %d)", ErrUnavailable, quote.Code)
	}

	outAmount, err := strconv.ParseFloat(quote.Data.OutAmount, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad outAmount %q", ErrUnavailable, quote.Data.OutAmount)
	}

	price := outAmount / math.Pow10(usdcDecimals) / quoteNotionalWS
	if price <= 0 {
		return 0, fmt.Errorf("%w: non-positive price %f", ErrUnavailable, price)
	}

	return price, nil
}
