package entity

// Endpoint describes one callable business operation of the configured ERP:
// its route, HTTP method, and declared payload shape. Descriptors are loaded
// by the catalog and treated as read-only.
type Endpoint struct {
	ID          string      `json:"id"`
	Module      string      `json:"module"`
	Action      string      `json:"action"`
	Route       string      `json:"route"`
	HTTPMethod  string      `json:"http_method"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
}

// Parameter is one declared payload field. Object parameters nest their
// sub-properties one level deep; deeper nesting does not occur in practice.
type Parameter struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // string | int | boolean | object
	Required    bool        `json:"required"`
	Description string      `json:"description"`
	Properties  []Parameter `json:"properties,omitempty"`
}

const (
	TypeString  = "string"
	TypeInt     = "int"
	TypeBoolean = "boolean"
	TypeObject  = "object"
)
