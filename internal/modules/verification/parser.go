package verification

import "strings"

// ExtractPayload strips an optional fenced code block (``` with an optional
// language tag) from model output and returns the inner payload verbatim.
// It is a tolerant pre-filter: it never fails, it does not validate that the
// payload is JSON, and unfenced input passes through trimmed. Structured
// decoding and its failure modes belong to the caller.
func ExtractPayload(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}

	start := strings.Index(s, "```")
	if start < 0 {
		return s
	}

	// Skip the opening marker and its language tag through end of line.
	body := s[start+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(body[:nl])
		if isLanguageTag(firstLine) {
			body = body[nl+1:]
		}
	} else {
		// Opening fence with no newline; nothing usable inside.
		return s
	}

	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// isLanguageTag accepts "json", "JSON", "" and similar single-word tags but
// rejects a line that already looks like payload (e.g. "{" on the fence
// line, which some models emit).
func isLanguageTag(line string) bool {
	if line == "" {
		return true
	}
	for _, r := range line {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}
