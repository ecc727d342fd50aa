// FILE: pkg/interpreter/llm_interpreter.go
// PURPOSE: LLM-backed fallback for messages the local engine cannot place

package interpreter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/segovia241/ia-erp-universal/pkg/llm"
	"github.com/segovia241/ia-erp-universal/pkg/nlu"
)

// Interpreter is the network-bound alternative to the local engine. It shares
// the same (message, allowedModules, erp) -> ResolvedAction contract and is
// only invoked by the calling layer after the engine reports low confidence;
// the engine itself never depends on it.
type Interpreter struct {
	provider llm.LLMProvider
}

func New(provider llm.LLMProvider) *Interpreter {
	return &Interpreter{provider: provider}
}

// Interpret asks the model for a structured resolution. The ctx carries the
// caller-supplied timeout; this call is expected to be wrapped.
func (i *Interpreter) Interpret(ctx context.Context, message string, allowedModules []string, erpID string) (*nlu.ResolvedAction, error) {
	prompt := buildPrompt(message, allowedModules, erpID)

	response, err := i.provider.Generate(ctx, prompt, llm.WithTemperature(0.0), llm.WithMaxTokens(300))
	if err != nil {
		return nil, fmt.Errorf("fallback interpreter: %w", err)
	}

	action, err := parseResolution(response)
	if err != nil {
		return nil, fmt.Errorf("fallback interpreter: %w", err)
	}

	if len(allowedModules) > 0 && !contains(allowedModules, action.Module) {
		return nil, &nlu.ModuleNotPermittedError{Module: action.Module, Allowed: allowedModules}
	}
	return action, nil
}

func buildPrompt(message string, allowedModules []string, erpID string) string {
	var sb strings.Builder
	sb.WriteString("Eres un interprete de instrucciones para un ERP. ")
	sb.WriteString("Convierte el mensaje del usuario en una llamada API.\n\n")
	sb.WriteString(fmt.Sprintf("ERP: %s\n", erpID))
	if len(allowedModules) > 0 {
		sb.WriteString(fmt.Sprintf("Modulos permitidos: %s\n", strings.Join(allowedModules, ", ")))
	}
	sb.WriteString(fmt.Sprintf("Mensaje: %s\n\n", message))
	sb.WriteString("Responde SOLO con JSON valido:\n")
	sb.WriteString(`{"module":"...","action":"CREATE|READ|UPDATE|DELETE","endpoint_route":"...","http_method":"...","payload":{},"confidence":0.0}`)
	return sb.String()
}

// parseResolution extracts the JSON object from the model output, tolerating
// markdown fences and surrounding prose.
func parseResolution(response string) (*nlu.ResolvedAction, error) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var action nlu.ResolvedAction
	if err := json.Unmarshal([]byte(response[start:end+1]), &action); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}

	action.Action = nlu.Action(strings.ToUpper(string(action.Action)))
	switch action.Action {
	case nlu.ActionCreate, nlu.ActionRead, nlu.ActionUpdate, nlu.ActionDelete:
	default:
		return nil, fmt.Errorf("model returned unknown action %q", action.Action)
	}
	if action.Module == "" || action.Route == "" {
		return nil, fmt.Errorf("model response missing module or route")
	}
	if action.Payload == nil {
		action.Payload = map[string]interface{}{}
	}
	return &action, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}
