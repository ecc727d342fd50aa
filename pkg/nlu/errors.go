package nlu

import "fmt"

// ConfigValidationError is fatal: a required configuration section is missing.
// The engine must not start with partial configuration.
type ConfigValidationError struct {
	Section string
	Reason  string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("vocabulary config invalid: section %q: %s", e.Section, e.Reason)
}

// InsufficientConfidenceError means the combined module+action score fell below
// the acceptance gate. The caller may re-prompt or hand the message to a
// fallback interpreter.
type InsufficientConfidenceError struct {
	Score            float64
	AvailableModules []string
}

func (e *InsufficientConfidenceError) Error() string {
	return fmt.Sprintf("insufficient classification confidence: %.2f", e.Score)
}

// NoEndpointCandidateError means the catalog returned no endpoints for the
// classified (module, action) pair.
type NoEndpointCandidateError struct {
	Module string
	Action Action
}

func (e *NoEndpointCandidateError) Error() string {
	return fmt.Sprintf("no endpoint candidates for %s/%s", e.Module, e.Action)
}

// LowConfidenceMatchError means the best endpoint scored below the matcher
// threshold. The score is attached so the caller can decide what to do.
type LowConfidenceMatchError struct {
	Score            float64
	AvailableModules []string
}

func (e *LowConfidenceMatchError) Error() string {
	return fmt.Sprintf("endpoint match below threshold: %.2f", e.Score)
}

// ModuleNotPermittedError means the classified module is outside the caller's
// permission set. Never silently substituted.
type ModuleNotPermittedError struct {
	Module  string
	Allowed []string
}

func (e *ModuleNotPermittedError) Error() string {
	return fmt.Sprintf("module %q not permitted", e.Module)
}

// ActionNotPermittedError means the classified action is outside the caller's
// permission set.
type ActionNotPermittedError struct {
	Action  Action
	Allowed []string
}

func (e *ActionNotPermittedError) Error() string {
	return fmt.Sprintf("action %q not permitted", e.Action)
}
