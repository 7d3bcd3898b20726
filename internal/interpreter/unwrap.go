package interpreter

import "strings"

// Unwrapper removes a known wrapper from around a JSON payload. Unwrappers run in order
// before decoding and must return the input unchanged when their wrapper is absent.
type Unwrapper func(text string) string

// DefaultUnwrappers only strips markdown code fences
var DefaultUnwrappers = []Unwrapper{StripCodeFence}

// LenientUnwrappers also cuts away prose around the object
var LenientUnwrappers = []Unwrapper{StripCodeFence, ExtractObject}

// StripCodeFence removes a leading ``` (optionally tagged json) and a trailing ```
func StripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		if len(trimmed) >= 4 && strings.EqualFold(trimmed[:4], "json") {
			trimmed = trimmed[4:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")

	return strings.TrimSpace(trimmed)
}

// ExtractObject keeps the text between the first '{' and the last '}'
func ExtractObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
