package parser

import "strings"

// StripCodeFences removes markdown code-fence decoration that models wrap
// around JSON answers, such as ```json ... ```, and trims whitespace.
func StripCodeFences(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```JSON", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// Clean applies StripThinking then StripCodeFences.
func Clean(text string) string {
	return StripCodeFences(StripThinking(text))
}
