package recorder

import (
	"encoding/json"
	"strings"

	"agentguard-hq/agentguard/pkg/evidence"
)

// Provider names served by the proxy.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGroq      = "groq"
)

// Payload is a decoded provider JSON body. Accessors tolerate missing or
// mistyped fields and return zero values.
type Payload map[string]any

// ParsePayload decodes a JSON object body. It returns nil for anything that
// is not a JSON object.
func ParsePayload(body []byte) Payload {
	if len(body) == 0 {
		return nil
	}
	var p map[string]any
	if err := json.Unmarshal(body, &p); err != nil {
		return nil
	}
	return p
}

// Prompt joins the text of every chat message with spaces. Message content
// may be a string or a list of {"text": ...} parts. Falls back to the
// completion-style "prompt" field.
func (p Payload) Prompt() string {
	messages, _ := p["messages"].([]any)
	if len(messages) == 0 {
		s, _ := p["prompt"].(string)
		return s
	}

	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		msg, _ := m.(map[string]any)
		switch content := msg["content"].(type) {
		case string:
			parts = append(parts, content)
		case []any:
			parts = append(parts, joinText(content))
		default:
			parts = append(parts, "")
		}
	}
	return strings.Join(parts, " ")
}

// Response returns the first choice's message content (OpenAI shape) or the
// joined text blocks (Anthropic shape).
func (p Payload) Response() string {
	if choices, _ := p["choices"].([]any); len(choices) > 0 {
		choice, _ := choices[0].(map[string]any)
		msg, _ := choice["message"].(map[string]any)
		s, _ := msg["content"].(string)
		return s
	}
	if content, _ := p["content"].([]any); len(content) > 0 {
		return joinText(content)
	}
	return ""
}

func joinText(blocks []any) string {
	texts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		block, ok := b.(map[string]any)
		if !ok {
			continue
		}
		s, _ := block["text"].(string)
		texts = append(texts, s)
	}
	return strings.Join(texts, " ")
}

// Model returns the "model" field, or "unknown".
func (p Payload) Model() string {
	if s, _ := p["model"].(string); s != "" {
		return s
	}
	return "unknown"
}

// InputTokens returns usage.prompt_tokens, or Anthropic's usage.input_tokens.
func (p Payload) InputTokens() int {
	return p.usage("prompt_tokens", "input_tokens")
}

// OutputTokens returns usage.completion_tokens, or Anthropic's
// usage.output_tokens.
func (p Payload) OutputTokens() int {
	return p.usage("completion_tokens", "output_tokens")
}

func (p Payload) usage(keys ...string) int {
	usage, _ := p["usage"].(map[string]any)
	for _, k := range keys {
		if n, ok := usage[k].(float64); ok {
			return int(n)
		}
	}
	return 0
}

// ToolCalls collects choices[].message.tool_calls[] as name/id pairs.
func (p Payload) ToolCalls() []evidence.ToolCall {
	var calls []evidence.ToolCall
	choices, _ := p["choices"].([]any)
	for _, c := range choices {
		choice, _ := c.(map[string]any)
		msg, _ := choice["message"].(map[string]any)
		tcs, _ := msg["tool_calls"].([]any)
		for _, t := range tcs {
			tc, _ := t.(map[string]any)
			fn, _ := tc["function"].(map[string]any)
			name, _ := fn["name"].(string)
			id, _ := tc["id"].(string)
			calls = append(calls, evidence.ToolCall{Name: name, ID: id})
		}
	}
	return calls
}
