package nlu

import (
	"time"

	"github.com/segovia241/ia-erp-universal/internal/entity"
)

// Action is one of the four CRUD verbs that scope endpoint selection.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionRead   Action = "READ"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// IntentResult is the outcome of classifying a single message.
type IntentResult struct {
	Module string  `json:"module"`
	Action Action  `json:"action"`
	Score  float64 `json:"score"`
}

// ResolvedAction is the terminal output of a completed resolution: a concrete,
// ready-to-dispatch API call.
type ResolvedAction struct {
	Module     string                 `json:"module"`
	Action     Action                 `json:"action"`
	Route      string                 `json:"endpoint_route"`
	HTTPMethod string                 `json:"http_method"`
	Payload    map[string]interface{} `json:"payload"`
	Confidence float64                `json:"confidence"`
}

// MissingParameter describes one required payload field the user has not
// supplied yet.
type MissingParameter struct {
	Name        string `json:"param"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Session tracks one in-flight multi-turn exchange that is still waiting for
// parameters. Owned by the orchestrator; TTL is measured from CreatedAt and is
// never refreshed by follow-ups.
type Session struct {
	ID        string             `json:"id"`
	Pending   ResolvedAction     `json:"pending"`
	Missing   []MissingParameter `json:"missing"`
	Endpoint  entity.Endpoint    `json:"endpoint"`
	ErpID     string             `json:"erp_id"`
	CreatedAt time.Time          `json:"created_at"`
}
