package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "ACTION_RESOLVED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Audit event types emitted by the resolver service.
const (
	TypeActionResolved  = "ACTION_RESOLVED"
	TypeActionRejected  = "ACTION_REJECTED"
	TypeSessionOpened   = "SESSION_OPENED"
	TypeFallbackInvoked = "FALLBACK_INVOKED"
)

func NewActionResolved(erpID, module, action, route string, confidence float64, source string) Event {
	return BaseEvent{
		Type: TypeActionResolved,
		Data: map[string]interface{}{
			"erp_id":     erpID,
			"module":     module,
			"action":     action,
			"route":      route,
			"confidence": confidence,
			"source":     source,
		},
		OccurredAt: time.Now(),
	}
}

func NewActionRejected(erpID, reason string, score float64) Event {
	return BaseEvent{
		Type: TypeActionRejected,
		Data: map[string]interface{}{
			"erp_id": erpID,
			"reason": reason,
			"score":  score,
		},
		OccurredAt: time.Now(),
	}
}

func NewSessionOpened(erpID, sessionID string, missing int) Event {
	return BaseEvent{
		Type: TypeSessionOpened,
		Data: map[string]interface{}{
			"erp_id":     erpID,
			"session_id": sessionID,
			"missing":    missing,
		},
		OccurredAt: time.Now(),
	}
}
