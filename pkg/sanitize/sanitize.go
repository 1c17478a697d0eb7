// Package sanitize cleans free text entering the studio from outer surfaces:
// generation prompts, project names and string values of action metadata.
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
	// DefaultMaxInputSize is 4KB (conservative default)
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize is the environment variable to override the default
	EnvMaxInputSize = "ATELIER_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Text enforces the size limit, validates UTF-8 and strips control
// characters other than newline, tab and carriage return.
// Oversized input is rejected rather than truncated.
func Text(input string) (string, error) {
	limit := maxInputSize()
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// Line is Text for single-line values: it also trims surrounding whitespace
// and turns inner line breaks into spaces.
func Line(input string) (string, error) {
	clean, err := Text(input)
	if err != nil {
		return "", err
	}
	clean = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(clean)
	return strings.TrimSpace(clean), nil
}

// Metadata returns a copy of m whose keys and string values have gone through Text.
// Nested maps and slices are walked.
func Metadata(m map[string]any) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		key, err := Line(k)
		if err != nil {
			return nil, fmt.Errorf("metadata key: %w", err)
		}
		val, err := value(v)
		if err != nil {
			return nil, fmt.Errorf("metadata %q: %w", key, err)
		}
		out[key] = val
	}
	return out, nil
}

func value(v any) (any, error) {
	switch tv := v.(type) {
	case string:
		return Text(tv)
	case map[string]any:
		return Metadata(tv)
	case []any:
		out := make([]any, len(tv))
		for i, item := range tv {
			clean, err := value(item)
			if err != nil {
				return nil, err
			}
			out[i] = clean
		}
		return out, nil
	}
	return v, nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func maxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
