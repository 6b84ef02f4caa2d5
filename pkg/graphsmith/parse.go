package graphsmith

import (
	"encoding/json"
	"strings"

	gserrors "github.com/randalmurphal/graphsmith/pkg/graphsmith/errors"
)

// extractJSON pulls the first JSON object out of collaborator output,
// tolerating surrounding prose and markdown code fences.
func extractJSON(content string) (string, error) {
	s := content

	// Prefer a fenced block when present.
	if idx := strings.Index(s, "```"); idx >= 0 {
		rest := s[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			s = rest[:end]
		}
	}

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", &gserrors.JSONParseError{Input: truncate(content, 200), Message: "no JSON object found"}
	}

	// Walk to the matching close brace, respecting strings and escapes.
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}

	return "", &gserrors.JSONParseError{Input: truncate(content, 200), Message: "unterminated JSON object"}
}

// parseJSON extracts and unmarshals the first JSON object in content.
func parseJSON[T any](content string) (T, error) {
	var out T

	raw, err := extractJSON(content)
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, &gserrors.JSONParseError{Input: truncate(raw, 200), Message: err.Error()}
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
