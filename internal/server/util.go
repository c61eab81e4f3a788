package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// RespondWithError sends a JSON error response in the standard envelope.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]any{"success": false, "error": message})
}

// RespondWithJSON sends a JSON response with the given status code and payload.
// If the payload is nil, no body is sent.
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			// Headers are already written; nothing useful to send.
			_ = err
		}
	}
}

// stripHTML extracts the text content of an HTML fragment and normalizes
// whitespace. Entities are decoded by the tokenizer.
func stripHTML(input string) string {
	if input == "" {
		return ""
	}

	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(input))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(tokenizer.Text())
			b.WriteByte(' ')
		}
	}
}

// truncateText truncates text to maxLength runes, avoiding word breaks where
// it reasonably can, and appends an ellipsis.
func truncateText(input string, maxLength int) string {
	if input == "" || maxLength <= 0 {
		return ""
	}
	runes := []rune(input)
	if len(runes) <= maxLength {
		return input
	}

	actualLength := maxLength - 3
	if actualLength <= 0 {
		return "..."
	}
	text := string(runes[:actualLength])
	if lastSpace := strings.LastIndexFunc(text, unicode.IsSpace); lastSpace > actualLength/2 {
		text = text[:lastSpace]
	}
	return text + "..."
}

// readingTime estimates minutes to read the given HTML content at roughly
// 200 words per minute, never reporting less than one minute.
func readingTime(content string) int {
	words := len(strings.Fields(stripHTML(content)))
	minutes := (words + 199) / 200
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
