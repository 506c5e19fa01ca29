package models

import "time"

// GenerationRecord is one completed (or failed) generation, as written to the
// history sink.
type GenerationRecord struct {
	ID           string
	GenerationID string
	Requester    string
	Prompt       string
	Kind         string
	Provider     string
	Model        string
	Entitlement  string
	PackageID    string
	CreditsUsed  int
	ResultURL    string
	Influenced   bool
	LatencyMs    int
	StatusCode   int
	ErrorMessage *string
	CreatedAt    time.Time
}

// RouteEntry is one row of the static model routing table, as exposed by
// GET /generate for client-side discovery.
type RouteEntry struct {
	Model    string `json:"model"`
	Provider string `json:"provider"`
	Kind     string `json:"kind"`
}
