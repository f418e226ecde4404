package claude

import (
	"encoding/json"
	"regexp"
	"strings"
)

var codeBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// extractJSONFromResponse cleans the response text to extract valid JSON.
// This is necessary because Claude returns JSON wrapped in markdown code
// blocks or surrounded by prose even when instructed not to.
//
// The function uses heuristics to find JSON boundaries rather than a full
// parser. It handles braces inside string literals and escape sequences,
// which covers typical LLM-generated JSON responses.
func extractJSONFromResponse(text string) string {
	text = strings.TrimSpace(text)

	// Markdown code blocks first
	matches := codeBlockRegex.FindStringSubmatch(text)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	// Find the first JSON object or array boundary
	firstBrace := strings.Index(text, "{")
	firstBracket := strings.Index(text, "[")

	if firstBrace == -1 && firstBracket == -1 {
		return text // No JSON found, return original
	}

	var start int
	var expectedClosing rune
	if firstBracket == -1 || (firstBrace != -1 && firstBrace < firstBracket) {
		start = firstBrace
		expectedClosing = '}'
	} else {
		start = firstBracket
		expectedClosing = ']'
	}

	// Scan for the matching closing delimiter, tracking string literals so
	// that braces inside strings do not affect the depth count.
	depth := 0
	inString := false
	i := start

	for i < len(text) {
		char := rune(text[i])

		if inString {
			if char == '\\' {
				// Skip both the backslash and the escaped character
				i++
				if i < len(text) {
					i++
				}
				continue
			} else if char == '"' {
				inString = false
			}
		} else {
			switch char {
			case '"':
				inString = true
			case '{':
				if expectedClosing == '}' {
					depth++
				}
			case '}':
				if expectedClosing == '}' {
					depth--
					if depth == 0 {
						candidate := text[start : i+1]
						if isLikelyCompleteJSON(candidate) {
							return candidate
						}
					}
				}
			case '[':
				if expectedClosing == ']' {
					depth++
				}
			case ']':
				if expectedClosing == ']' {
					depth--
					if depth == 0 {
						candidate := text[start : i+1]
						if isLikelyCompleteJSON(candidate) {
							return candidate
						}
					}
				}
			}
		}
		i++
	}

	// Unbalanced delimiters or an unclosed string: the document is likely
	// truncated, so return the original text untouched.
	if depth > 0 || inString {
		return text
	}

	return text[start:]
}

// isLikelyCompleteJSON checks whether the extracted text is a complete JSON
// document.
func isLikelyCompleteJSON(text string) bool {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return false
	}

	if (text[0] == '{' && text[len(text)-1] == '}') ||
		(text[0] == '[' && text[len(text)-1] == ']') {
		var temp any
		return json.Unmarshal([]byte(text), &temp) == nil
	}

	return false
}
