package pricing

import (
	"fmt"
	"strconv"
	"strings"
)

// Quote provenance values, surfaced as the "source" field.
const (
	SourceLive     = "openocean"
	SourceFallback = "fallback"
)

const (
	defaultImageUSD = 1
	defaultVideoUSD = 2
	maxTargetUSD    = 1000
)

// Request is a normalized price-quote request. Build one with ParseRequest;
// a zero Request is not valid.
type Request struct {
	Network  string
	ImageUSD float64
	VideoUSD float64
}

// TokenOption is the amount of one payment token needed to cover a USD price.
type TokenOption struct {
	Token           string  `json:"token"`
	Amount          float64 `json:"amount"`
	AmountFormatted string  `json:"amountFormatted"`
	PricePerToken   float64 `json:"pricePerToken"`
	Summary         string  `json:"summary"`
}

// Tier groups the token options for one USD-denominated service price.
type Tier struct {
	USD     float64       `json:"usd"`
	Options []TokenOption `json:"options"`
}

// Pricing holds the image and video tiers of a quote.
type Pricing struct {
	Image Tier `json:"image"`
	Video Tier `json:"video"`
}

// Quote is a computed price quote. Source records whether the reference price
// came from a live market lookup or the fallback constant.
type Quote struct {
	Network   string  `json:"network"`
	Pricing   Pricing `json:"pricing"`
	Source    string  `json:"source"`
	Timestamp int64   `json:"timestamp"`
}

// ParseRequest normalizes raw query parameters into a Request. With strict
// false, malformed or out-of-range values are silently replaced by defaults
// (network "mainnet", image $1, video $2; prices must be in (0, 1000]). With
// strict true the same conditions return an error instead.
func ParseRequest(network, imagePrice, videoPrice string, strict bool) (Request, error) {
	req := Request{Network: "mainnet", ImageUSD: defaultImageUSD, VideoUSD: defaultVideoUSD}

	switch network {
	case "", "mainnet":
	case "testnet":
		req.Network = "testnet"
	default:
		if strict {
			return Request{}, fmt.Errorf("invalid network %q", network)
		}
	}

	var err error
	req.ImageUSD, err = parseTargetUSD(imagePrice, defaultImageUSD, strict)
	if err != nil {
		return Request{}, fmt.Errorf("invalid imagePrice: %w", err)
	}
	req.VideoUSD, err = parseTargetUSD(videoPrice, defaultVideoUSD, strict)
	if err != nil {
		return Request{}, fmt.Errorf("invalid videoPrice: %w", err)
	}

	return req, nil
}

func parseTargetUSD(raw string, fallback float64, strict bool) (float64, error) {
	if raw == "" {
		return fallback, nil
	}

	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || val <= 0 || val > maxTargetUSD {
		if strict {
			return 0, fmt.Errorf("%q must be a number in (0, %d]", raw, maxTargetUSD)
		}
		return fallback, nil
	}
	return val, nil
}

// CacheKey renders the request as a deterministic cache key.
func (r Request) CacheKey() string {
	return "quote:" + r.Network +
		":" + strconv.FormatFloat(r.ImageUSD, 'f', -1, 64) +
		":" + strconv.FormatFloat(r.VideoUSD, 'f', -1, 64)
}

// formatAmount renders a token amount with up to 6 decimal places, trimming
// trailing zeros.
func formatAmount(amount float64) string {
	s := strconv.FormatFloat(amount, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
