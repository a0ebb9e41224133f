package aidecision

import (
	"encoding/json"
	"strings"
)

// extractOutcome is the three-way result of pulling a typed payload out of
// free-form model output.
type extractOutcome int

const (
	extractOK extractOutcome = iota
	// extractNoJSON: no balanced JSON object found, or the candidate did
	// not parse as JSON at all.
	extractNoJSON
	// extractBadShape: valid JSON, but not the shape the operation expects.
	extractBadShape
)

// extractPayload finds the first balanced {...} substring in raw (the model
// is not guaranteed to return only JSON), parses it, and unmarshals it into
// v. Pure function; the fallback-selection logic layered on top stays
// testable without any network involvement.
func extractPayload(raw string, v interface{}) extractOutcome {
	candidate := firstJSONObject(stripCodeFence(raw))
	if candidate == "" {
		return extractNoJSON
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &probe); err != nil {
		return extractNoJSON
	}

	if err := json.Unmarshal([]byte(candidate), v); err != nil {
		return extractBadShape
	}
	return extractOK
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// firstJSONObject returns the first brace-balanced object in text, honoring
// string literals and escapes, or "" when none closes.
func firstJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}
