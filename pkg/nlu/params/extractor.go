// FILE: pkg/nlu/params/extractor.go
// PURPOSE: Fill an endpoint's declared payload shape from the raw message

package params

import (
	"strconv"
	"strings"

	"github.com/segovia241/ia-erp-universal/internal/entity"
	"github.com/segovia241/ia-erp-universal/pkg/nlu"
	"github.com/segovia241/ia-erp-universal/pkg/nlu/vocabulary"
)

// Extractor runs the vocabulary's ordered regex templates against the ORIGINAL
// message (pre-normalization, so proper names keep their casing) and fills
// every declared parameter, defaulting by type when nothing matches.
type Extractor struct {
	index *vocabulary.Index
}

func NewExtractor(index *vocabulary.Index) *Extractor {
	return &Extractor{index: index}
}

// BuildPayload produces one value per declared parameter, recursing one level
// into object parameters.
func (e *Extractor) BuildPayload(endpoint *entity.Endpoint, rawText string) map[string]interface{} {
	payload := make(map[string]interface{}, len(endpoint.Parameters))
	for _, p := range endpoint.Parameters {
		payload[p.Name] = e.extractValue(p, rawText, true)
	}
	return payload
}

// ExtractInto re-runs extraction for a restricted set of still-missing
// parameters against a follow-up message and merges any hits into payload.
// Returns the names that were actually filled.
func (e *Extractor) ExtractInto(payload map[string]interface{}, endpoint *entity.Endpoint, missing []nlu.MissingParameter, rawText string) []string {
	wanted := make(map[string]bool, len(missing))
	for _, m := range missing {
		wanted[m.Name] = true
	}

	var filled []string
	for _, p := range endpoint.Parameters {
		if p.Type == entity.TypeObject {
			// MissingRequired reports object sub-fields by their own name, so
			// follow-up hits have to land inside the nested map.
			nested, ok := payload[p.Name].(map[string]interface{})
			if !ok {
				nested = make(map[string]interface{}, len(p.Properties))
				payload[p.Name] = nested
			}
			for _, sub := range p.Properties {
				if !wanted[sub.Name] {
					continue
				}
				if value, ok := e.followUpValue(sub, rawText, len(missing)); ok {
					nested[sub.Name] = value
					filled = append(filled, sub.Name)
				}
			}
			continue
		}
		if !wanted[p.Name] {
			continue
		}
		if value, ok := e.followUpValue(p, rawText, len(missing)); ok {
			payload[p.Name] = value
			filled = append(filled, p.Name)
		}
	}
	return filled
}

// followUpValue runs the parameter's templates against the follow-up message.
// A bare follow-up ("ACME") answering a single pending question is taken
// verbatim for the one missing string parameter.
func (e *Extractor) followUpValue(p entity.Parameter, rawText string, missingCount int) (interface{}, bool) {
	if value, ok := e.match(p, rawText); ok {
		return value, true
	}
	if p.Type == entity.TypeString && missingCount == 1 && strings.TrimSpace(rawText) != "" {
		return e.finishString(p, strings.TrimSpace(rawText)), true
	}
	return nil, false
}

// MissingRequired recomputes the set of required payload fields whose value is
// still a type default. This is the only way the missing set is derived; it is
// never edited independently of the payload.
func MissingRequired(endpoint *entity.Endpoint, payload map[string]interface{}) []nlu.MissingParameter {
	var missing []nlu.MissingParameter
	for _, p := range endpoint.Parameters {
		if p.Type == entity.TypeObject {
			nested, _ := payload[p.Name].(map[string]interface{})
			for _, sub := range p.Properties {
				if sub.Required && isEmptyValue(sub, nested[sub.Name]) {
					missing = append(missing, nlu.MissingParameter{
						Name:        sub.Name,
						Type:        sub.Type,
						Description: describe(sub),
					})
				}
			}
			continue
		}
		if p.Required && isEmptyValue(p, payload[p.Name]) {
			missing = append(missing, nlu.MissingParameter{
				Name:        p.Name,
				Type:        p.Type,
				Description: describe(p),
			})
		}
	}
	return missing
}

func (e *Extractor) extractValue(p entity.Parameter, rawText string, recurse bool) interface{} {
	if p.Type == entity.TypeObject {
		if !recurse {
			return map[string]interface{}{}
		}
		nested := make(map[string]interface{}, len(p.Properties))
		for _, sub := range p.Properties {
			nested[sub.Name] = e.extractValue(sub, rawText, false)
		}
		return nested
	}

	if value, ok := e.match(p, rawText); ok {
		return value
	}
	return defaultFor(p.Type)
}

// match runs the parameter kind's ordered templates; the first template whose
// first capture group hits wins.
func (e *Extractor) match(p entity.Parameter, rawText string) (interface{}, bool) {
	for _, re := range e.index.ParameterPatterns[strings.ToLower(p.Name)] {
		groups := re.FindStringSubmatch(rawText)
		if len(groups) < 2 || groups[1] == "" {
			continue
		}
		captured := strings.TrimSpace(groups[1])
		switch p.Type {
		case entity.TypeInt:
			if n, err := strconv.Atoi(captured); err == nil {
				return n, true
			}
		case entity.TypeBoolean:
			return parseBool(captured), true
		default:
			return e.finishString(p, captured), true
		}
	}
	return nil, false
}

// finishString applies the catalog convention: free-text search filter fields
// are stored upper-cased, everything else keeps its captured casing.
func (e *Extractor) finishString(p entity.Parameter, captured string) string {
	if e.index.IsSearchFilterField(p.Name) {
		return strings.ToUpper(captured)
	}
	return captured
}

func defaultFor(paramType string) interface{} {
	switch paramType {
	case entity.TypeInt:
		return 0
	case entity.TypeBoolean:
		return false
	default:
		return ""
	}
}

// isEmptyValue treats type defaults as missing. A false boolean is a valid
// answer, so booleans are never reported missing.
func isEmptyValue(p entity.Parameter, v interface{}) bool {
	switch p.Type {
	case entity.TypeInt:
		n, ok := v.(int)
		return !ok || n == 0
	case entity.TypeBoolean:
		return false
	default:
		s, ok := v.(string)
		return !ok || strings.TrimSpace(s) == ""
	}
}

func describe(p entity.Parameter) string {
	if p.Description != "" {
		return p.Description
	}
	return p.Name
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "si", "sí", "true", "1", "yes", "verdadero", "activo":
		return true
	}
	return false
}
