// Package payload normalizes heterogeneously-shaped backend responses. The
// inference side has drifted across several response formats (plain strings,
// {response: "..."}, {response: {response: "...", updates: [...]}}); these
// decoders give the conversation layer one stable view of all of them.
//
// Each decoder is an ordered fallback chain: the first field accessor that
// matches wins.
package payload

import (
	"encoding/json"
	"fmt"
)

// ExtractText returns renderable text for the conversation log from an
// arbitrary response payload. Order of precedence:
//
//  1. nil payload -> empty string
//  2. payload is a string -> the string itself
//  3. payload.response is a string -> that string
//  4. payload.response is an object -> recurse into it
//  5. fallback -> pretty-printed JSON of the whole payload
func ExtractText(payload any) string {
	if payload == nil {
		return ""
	}
	if s, ok := payload.(string); ok {
		return s
	}

	if obj, ok := payload.(map[string]any); ok {
		switch resp := obj["response"].(type) {
		case string:
			return resp
		case map[string]any:
			if inner := ExtractText(resp); inner != "" {
				return inner
			}
		}
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(data)
}

// ExtractUpdates returns the structural update directives carried by a
// response, whether they arrive at the root or nested under "response".
// Missing or malformed updates yield an empty slice.
func ExtractUpdates(payload any) []any {
	obj, ok := payload.(map[string]any)
	if !ok {
		return []any{}
	}
	if updates, ok := obj["updates"].([]any); ok {
		return updates
	}
	if resp, ok := obj["response"].(map[string]any); ok {
		if updates, ok := resp["updates"].([]any); ok {
			return updates
		}
	}
	return []any{}
}

// ExtractInstruction returns the semantic edit instruction carried by a
// response, at the root or nested under "response". Returns nil when absent.
func ExtractInstruction(payload any) map[string]any {
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil
	}
	if inst, ok := obj["instruction"].(map[string]any); ok {
		return inst
	}
	if resp, ok := obj["response"].(map[string]any); ok {
		if inst, ok := resp["instruction"].(map[string]any); ok {
			return inst
		}
	}
	return nil
}

// ExtractedContent returns the structured content of an OCR response. The
// extraction service has returned it under "result", under "data", and as
// the bare payload at different points; first present wins.
func ExtractedContent(payload any) any {
	obj, ok := payload.(map[string]any)
	if !ok {
		return payload
	}
	if result, ok := obj["result"]; ok && result != nil {
		return result
	}
	if data, ok := obj["data"]; ok && data != nil {
		return data
	}
	return obj
}

// DisplayText returns the human-readable text of an OCR response, trying
// "text", "result_text" and "result" in order. Non-string values fall back
// to pretty-printed JSON so the conversation log always gets a string.
func DisplayText(payload any) string {
	obj, ok := payload.(map[string]any)
	if !ok {
		return ""
	}
	for _, field := range []string{"text", "result_text", "result"} {
		v, present := obj[field]
		if !present || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			return s
		}
		if data, err := json.MarshalIndent(v, "", "  "); err == nil {
			return string(data)
		}
	}
	return ""
}
