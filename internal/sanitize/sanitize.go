// Package sanitize cleans free text from learners and clients before it reaches a prompt.
package sanitize

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultMaxSize bounds short fields: topics, questions, answers, summaries.
	DefaultMaxSize = 4096
	// MaxContentSize bounds lesson content sent back for answer checking.
	MaxContentSize = 64 << 10
)

var (
	ErrTooLarge    = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8 = errors.New("input contains invalid UTF-8 sequences")
)

// Input enforces the size limit, validates UTF-8 and strips control
// characters other than newline, tab and carriage return.
// Oversized input is rejected, never truncated.
func Input(input string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxSize
	}
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	if strings.IndexFunc(input, unsafeControl) < 0 {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}
