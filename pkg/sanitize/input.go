package sanitize

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize is 4KB.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize overrides DefaultMaxInputSize.
	EnvMaxInputSize = "DEALREG_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Input guards a single free-text value typed by a user: it rejects oversized
// input and invalid UTF-8, and strips control characters except newline, tab and CR.
func Input(s string) (string, error) {
	limit := maxInputSize()
	if len(s) > limit {
		// Rejected, not truncated: a silently shortened value would be submitted as typed.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(s), limit)
	}
	if !utf8.ValidString(s) {
		return "", ErrInvalidUTF8
	}

	if strings.IndexFunc(s, isUnsafeControl) < 0 {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !isUnsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// Patch applies Input to every string value of a user patch and returns the cleaned copy.
// The first failing field is reported by name.
func Patch(patch map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(patch))
	for k, v := range patch {
		s, ok := v.(string)
		if !ok {
			out[k] = v
			continue
		}
		clean, err := Input(s)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = clean
	}
	return out, nil
}

func isUnsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

func maxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
