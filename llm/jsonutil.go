package llm

import (
	"strings"
)

// fence marks a markdown code fence, with or without a language tag.
const fence = "```"

// ExtractJSON pulls a JSON object out of a model response. Fenced code
// blocks are preferred over bare objects, and common model artifacts
// (line comments, trailing commas) are cleaned before the result is
// returned. Returns "" when no object is present.
func ExtractJSON(content string) string {
	return extract(content, '{', '}')
}

// ExtractJSONArray pulls a JSON array out of a model response.
func ExtractJSONArray(content string) string {
	return extract(content, '[', ']')
}

func extract(content string, open, closing byte) string {
	if block := fencedBlock(content); block != "" {
		if candidate := balancedSlice(block, open, closing); candidate != "" {
			return cleanJSON(candidate)
		}
	}
	if candidate := balancedSlice(content, open, closing); candidate != "" {
		return cleanJSON(candidate)
	}
	return ""
}

// fencedBlock returns the body of the first markdown code fence, or ""
// when the content has none.
func fencedBlock(content string) string {
	start := strings.Index(content, fence)
	if start < 0 {
		return ""
	}
	body := content[start+len(fence):]
	// Skip the language tag line ("json", "```json\n{...").
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[") {
		body = body[nl+1:]
	}
	end := strings.Index(body, fence)
	if end < 0 {
		return body
	}
	return body[:end]
}

// balancedSlice returns the first delimiter-balanced slice of s from
// open to its matching close, respecting JSON string literals. Returns
// "" when no balanced region exists.
func balancedSlice(s string, open, closing byte) string {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == open:
			depth++
		case ch == closing:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// cleanJSON makes near-JSON parseable in a single pass: line comments
// outside string literals are dropped, and a comma whose next
// non-whitespace byte is a closing delimiter is dropped too.
func cleanJSON(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	inString := false
	escaped := false
	for i := 0; i < len(raw); i++ {
		ch := raw[i]

		if escaped {
			b.WriteByte(ch)
			escaped = false
			continue
		}
		if inString {
			if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
			b.WriteByte(ch)
			continue
		}

		switch {
		case ch == '"':
			inString = true
			b.WriteByte(ch)
		case ch == '/' && i+1 < len(raw) && raw[i+1] == '/':
			for i < len(raw) && raw[i] != '\n' {
				i++
			}
			if i < len(raw) {
				b.WriteByte('\n')
			}
		case ch == ',' && closesNext(raw[i+1:]):
			// trailing comma
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// closesNext reports whether the next non-whitespace byte (skipping
// line comments) closes an object or array.
func closesNext(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
		case '/':
			if i+1 < len(s) && s[i+1] == '/' {
				for i < len(s) && s[i] != '\n' {
					i++
				}
				continue
			}
			return false
		case '}', ']':
			return true
		default:
			return false
		}
	}
	return false
}
