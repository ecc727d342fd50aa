package dto

import "github.com/segovia241/ia-erp-universal/pkg/nlu"

// ResolveRequest is the transport shape of one resolution attempt.
type ResolveRequest struct {
	Message   string         `json:"message" validate:"required,min=1,max=2000"`
	SessionID string         `json:"session_id,omitempty" validate:"omitempty,uuid4"`
	Context   RequestContext `json:"context" validate:"required"`
}

type RequestContext struct {
	ErpID       string      `json:"erp_id" validate:"required"`
	Permissions Permissions `json:"permissions"`
}

type Permissions struct {
	Modules []string `json:"modules"`
	Actions []string `json:"actions"`
}

// ResolvedResponse is returned when the pipeline produced a complete,
// permission-checked action.
type ResolvedResponse struct {
	Module        string                 `json:"module"`
	Action        string                 `json:"action"`
	EndpointRoute string                 `json:"endpoint_route"`
	HTTPMethod    string                 `json:"http_method"`
	Payload       map[string]interface{} `json:"payload"`
	Confidence    float64                `json:"confidence"`
	Source        string                 `json:"source"` // "engine" or "fallback"
}

// NeedsParametersResponse is returned when required payload fields are still
// missing and a session was opened to collect them.
type NeedsParametersResponse struct {
	NeedsParameters []MissingParameterDTO `json:"needs_parameters"`
	Message         string                `json:"message"`
	SessionID       string                `json:"session_id"`
}

type MissingParameterDTO struct {
	Param       string `json:"param"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

func ToMissingParameterDTOs(missing []nlu.MissingParameter) []MissingParameterDTO {
	out := make([]MissingParameterDTO, len(missing))
	for i, m := range missing {
		out[i] = MissingParameterDTO{Param: m.Name, Type: m.Type, Description: m.Description}
	}
	return out
}
