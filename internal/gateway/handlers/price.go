package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/flowgen-ai/gateway/internal/gateway/pricing"
)

type PriceHandler struct {
	service *pricing.Service
	strict  bool
}

// NewPriceHandler creates the pricing endpoint handler. With strict enabled,
// malformed query parameters are rejected with 400 instead of being silently
// replaced by defaults.
func NewPriceHandler(service *pricing.Service, strict bool) *PriceHandler {
	return &PriceHandler{
		service: service,
		strict:  strict,
	}
}

// HandleSwapAmount handles GET /api/price/swap-amount
func (h *PriceHandler) HandleSwapAmount(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req, err := pricing.ParseRequest(q.Get("network"), q.Get("imagePrice"), q.Get("videoPrice"), h.strict)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	quote := h.service.GetQuote(r.Context(), req)

	w.Header().Set("Content-Type", "application/json")
	// Downstream caches may hold the response exactly as long as the quote
	// itself stays fresh.
	w.Header().Set("Cache-Control", "public, max-age=180, s-maxage=180")
	json.NewEncoder(w).Encode(quote)
}
