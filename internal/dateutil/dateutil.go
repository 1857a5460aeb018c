// Package dateutil resolves the "auto" dates written into document
// metadata when a bundle is packed.
package dateutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidFormat indicates an invalid date pattern.
var ErrInvalidFormat = errors.New("invalid date format")

// MaxFormatLength limits pattern length.
const MaxFormatLength = 50

// DefaultFormat is used when "auto" is given without a pattern.
const DefaultFormat = "YYYY-MM-DD"

// Presets are named shortcuts for common patterns.
var Presets = map[string]string{
	"iso":      "YYYY-MM-DD",
	"european": "DD/MM/YYYY",
	"us":       "MM/DD/YYYY",
	"long":     "MMMM D, YYYY",
}

// tokens are matched longest first.
var tokens = []struct {
	token  string
	render func(time.Time) string
}{
	{"YYYY", func(t time.Time) string { return fmt.Sprintf("%04d", t.Year()) }},
	{"MMMM", func(t time.Time) string { return t.Month().String() }},
	{"MMM", func(t time.Time) string { return t.Month().String()[:3] }},
	{"YY", func(t time.Time) string { return fmt.Sprintf("%02d", t.Year()%100) }},
	{"MM", func(t time.Time) string { return fmt.Sprintf("%02d", int(t.Month())) }},
	{"DD", func(t time.Time) string { return fmt.Sprintf("%02d", t.Day()) }},
	{"M", func(t time.Time) string { return strconv.Itoa(int(t.Month())) }},
	{"D", func(t time.Time) string { return strconv.Itoa(t.Day()) }},
}

// Format renders t with a pattern of the tokens YYYY, YY, MMMM, MMM, MM,
// M, DD and D. Text in brackets is copied literally: "[Week of] D MMM".
// Other characters are kept as written.
func Format(t time.Time, pattern string) (string, error) {
	if pattern == "" {
		return "", fmt.Errorf("%w: pattern cannot be empty", ErrInvalidFormat)
	}
	if len(pattern) > MaxFormatLength {
		return "", fmt.Errorf("%w: pattern exceeds %d characters", ErrInvalidFormat, MaxFormatLength)
	}

	var b strings.Builder
	for i := 0; i < len(pattern); {
		if pattern[i] == '[' {
			end := strings.IndexByte(pattern[i+1:], ']')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidFormat, i)
			}
			b.WriteString(pattern[i+1 : i+1+end])
			i += end + 2
			continue
		}
		n := writeToken(&b, t, pattern[i:])
		if n == 0 {
			b.WriteByte(pattern[i])
			n = 1
		}
		i += n
	}
	return b.String(), nil
}

func writeToken(b *strings.Builder, t time.Time, rest string) int {
	for _, tok := range tokens {
		if strings.HasPrefix(rest, tok.token) {
			b.WriteString(tok.render(t))
			return len(tok.token)
		}
	}
	return 0
}

// Resolve expands date values of the form "auto" (DefaultFormat),
// "auto:PATTERN" or "auto:PRESET" against now. Any other value is
// returned unchanged.
func Resolve(value string, now time.Time) (string, error) {
	if !IsAuto(value) {
		return value, nil
	}
	v := strings.TrimSpace(value)
	if len(v) == len("auto") {
		return Format(now, DefaultFormat)
	}

	pattern := v[len("auto:"):]
	if preset, ok := Presets[strings.ToLower(pattern)]; ok {
		pattern = preset
	}
	return Format(now, pattern)
}

// IsAuto reports whether value asks for a resolved date.
func IsAuto(value string) bool {
	lower := strings.ToLower(strings.TrimSpace(value))
	return lower == "auto" || strings.HasPrefix(lower, "auto:")
}
