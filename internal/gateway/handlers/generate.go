package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/flowgen-ai/gateway/internal/gateway/dispatch"
	"github.com/flowgen-ai/gateway/internal/gateway/providers"
)

type GenerateHandler struct {
	dispatcher *dispatch.Dispatcher
	manager    *providers.Manager
}

func NewGenerateHandler(dispatcher *dispatch.Dispatcher, manager *providers.Manager) *GenerateHandler {
	return &GenerateHandler{
		dispatcher: dispatcher,
		manager:    manager,
	}
}

// generateRequest is the wire shape of POST /generate. Both naming styles the
// dApp frontend has shipped are accepted (type/isVideo, userAddress/user,
// packageId/packageTokenId).
type generateRequest struct {
	Prompt         string `json:"prompt"`
	Type           string `json:"type"`
	IsVideo        bool   `json:"isVideo"`
	UserAddress    string `json:"userAddress"`
	User           string `json:"user"`
	CreditType     string `json:"creditType"`
	PackageID      string `json:"packageId"`
	PackageTokenID string `json:"packageTokenId"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
	Quality        string `json:"quality"`
	Enhance        bool   `json:"enhance"`
}

type generateResponse struct {
	Success bool `json:"success"`
	*dispatch.Result
}

// HandleGenerate handles POST /generate
func (h *GenerateHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, derr := h.dispatcher.Dispatch(r.Context(), toDispatchRequest(req))
	if derr != nil {
		writeError(w, derr.Status, derr.Message)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Provider", result.Provider)
	w.Header().Set("X-Latency-Ms", fmt.Sprintf("%d", time.Since(startTime).Milliseconds()))
	json.NewEncoder(w).Encode(generateResponse{Success: true, Result: result})
}

// HandleRoutes handles GET /generate: the static routing table and the known
// downstream endpoints, for client-side discovery.
func (h *GenerateHandler) HandleRoutes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"models":    providers.RoutingTable(),
		"providers": h.manager.Configured(),
		"endpoints": providers.KnownEndpoints(),
	})
}

func toDispatchRequest(req generateRequest) dispatch.Request {
	kind := req.Type
	if kind == "" {
		kind = providers.KindImage
		if req.IsVideo {
			kind = providers.KindVideo
		}
	}

	requester := req.UserAddress
	if requester == "" {
		requester = req.User
	}

	entitlement := req.CreditType
	if entitlement == "" {
		entitlement = dispatch.EntitlementStandard
	}

	packageID := req.PackageID
	if packageID == "" {
		packageID = req.PackageTokenID
	}

	return dispatch.Request{
		Prompt:      req.Prompt,
		Kind:        kind,
		Requester:   requester,
		Entitlement: entitlement,
		PackageID:   packageID,
		Model:       req.Model,
		Quality:     req.Quality,
		Enhance:     req.Enhance,
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
