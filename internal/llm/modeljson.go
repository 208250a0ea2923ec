package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNoJSON is returned when a model response carries no JSON object at all.
	ErrNoJSON = errors.New("model response contains no JSON object")
	// ErrMalformedJSON is returned when the extracted object does not decode.
	ErrMalformedJSON = errors.New("model response contains malformed JSON")
)

var (
	fencedJSON    = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(\\{.*?\\})\\s*```")
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// ParseModelJSON extracts the JSON object from free model text and decodes it into v.
// A fenced ```json block wins; otherwise the first balanced {...} block is used. Line and block
// comments and trailing commas are removed before decoding.
func ParseModelJSON(text string, v any) error {
	raw, err := ExtractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return nil
}

// ExtractJSON returns the cleaned JSON object text found in a model response.
func ExtractJSON(text string) (string, error) {
	var candidate string
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	} else {
		candidate = firstObject(text)
	}
	if candidate == "" {
		return "", ErrNoJSON
	}

	cleaned := stripComments(candidate)
	cleaned = trailingComma.ReplaceAllString(cleaned, "$1")
	return strings.TrimSpace(cleaned), nil
}

// firstObject scans for the first '{' and returns text up to its matching '}',
// ignoring braces inside string literals.
func firstObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
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
				return text[start : i+1]
			}
		}
	}
	return ""
}

func stripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
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

		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == '/' && i+1 < len(s) {
			switch s[i+1] {
			case '/':
				for i < len(s) && s[i] != '\n' {
					i++
				}
				if i < len(s) {
					b.WriteByte('\n')
				}
				continue
			case '*':
				end := strings.Index(s[i+2:], "*/")
				if end < 0 {
					return b.String()
				}
				i += end + 3
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
