// Package codefence removes a Markdown fenced-code-block wrapper from model output.
package codefence

import "strings"

const fence = "```"

// Strip returns the inner content when the whitespace-trimmed text is exactly
// one fenced block: an opening line of three backticks plus an optional
// language tag, the content, and a closing line of three backticks as the very
// last thing in the text. Anything else is returned unchanged, so Strip is
// idempotent on its own output.
func Strip(text string) string {
	inner, ok := Unwrap(text)
	if !ok {
		return text
	}
	return inner
}

// Unwrap is Strip with an explicit report of whether a wrapper was removed.
func Unwrap(text string) (string, bool) {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, fence) {
		return "", false
	}

	nl := strings.IndexByte(t, '\n')
	if nl < 0 {
		return "", false
	}
	if !validTag(strings.TrimSuffix(t[len(fence):nl], "\r")) {
		return "", false
	}

	// The closing fence must sit on its own line after the opening line.
	rest := t[nl+1:]
	if !strings.HasSuffix(rest, fence) {
		return "", false
	}
	body, ok := strings.CutSuffix(rest[:len(rest)-len(fence)], "\n")
	if !ok {
		return "", false
	}
	body = strings.TrimSuffix(body, "\r")

	// A second fence line inside means more than one block.
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, fence) {
			return "", false
		}
	}
	return body, true
}

func validTag(tag string) bool {
	for _, r := range tag {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '+', r == '-', r == '_', r == '#', r == '.':
		default:
			return false
		}
	}
	return true
}
