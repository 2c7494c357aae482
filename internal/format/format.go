// Package format implements the bidirectional format<->string codec:
// parsing named placeholders out of a literal-and-placeholder template
// and extracting their values from a matching input string.
package format

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrFormatMismatch is returned (wrapped) whenever an input string does
// not conform to a format string: a literal prefix disagreed, the input
// was exhausted before the format, or a trailing-literal residual
// disagreed with the remaining input.
var ErrFormatMismatch = errors.New("format: input does not match format")

// MismatchError carries the offending format/input pair for diagnostics.
type MismatchError struct {
	Format string
	Input  string
	Reason string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("format mismatch: %s (format=%q input=%q)", e.Reason, e.Format, e.Input)
}

func (e *MismatchError) Unwrap() error { return ErrFormatMismatch }

func mismatch(format, input, reason string) error {
	return &MismatchError{Format: format, Input: input, Reason: reason}
}

// Pair is a single extracted (name, value) binding, keeping insertion
// order significant the way the rest of this engine relies on.
type Pair struct {
	Name  string
	Value string
}

// Binding is an ordered mapping of placeholder name (with any "!start"/
// "!end" suffix preserved) to the substring extracted for it. Order of
// insertion matches the order placeholders appear in the format string.
type Binding struct {
	pairs []Pair
	index map[string]int
}

// NewBinding returns an empty, ready-to-use Binding.
func NewBinding() Binding {
	return Binding{index: make(map[string]int)}
}

// Set inserts or overwrites the value for name, preserving the position
// of the first insertion.
func (b *Binding) Set(name, value string) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	if i, ok := b.index[name]; ok {
		b.pairs[i].Value = value
		return
	}
	b.index[name] = len(b.pairs)
	b.pairs = append(b.pairs, Pair{Name: name, Value: value})
}

// Get returns the value bound to name and whether it was present.
func (b Binding) Get(name string) (string, bool) {
	i, ok := b.index[name]
	if !ok {
		return "", false
	}
	return b.pairs[i].Value, true
}

// Keys returns the bound names in insertion order.
func (b Binding) Keys() []string {
	keys := make([]string, len(b.pairs))
	for i, p := range b.pairs {
		keys[i] = p.Name
	}
	return keys
}

// Pairs returns the underlying (name, value) pairs in insertion order.
// The returned slice is owned by the caller.
func (b Binding) Pairs() []Pair {
	out := make([]Pair, len(b.pairs))
	copy(out, b.pairs)
	return out
}

// Len reports the number of bound names.
func (b Binding) Len() int { return len(b.pairs) }

// placeholder is a single parsed "{name}" or "{name:width}" slot.
type placeholder struct {
	name  string
	width int // 0 means unspecified (separator-delimited)
}

func parsePlaceholderBody(body string) placeholder {
	if idx := strings.IndexByte(body, ':'); idx >= 0 {
		width, err := strconv.Atoi(body[idx+1:])
		if err != nil {
			width = 0
		}
		return placeholder{name: body[:idx], width: width}
	}
	return placeholder{name: body}
}

// Extract parses format left-to-right, consuming the matching prefix of
// input at each literal run and placeholder, and returns the bindings
// for every non-"*" placeholder encountered.
//
// This reproduces the original Python extract_from_format behavior
// exactly, including its documented first-occurrence-wins limitation:
// a placeholder's value is taken up to the first occurrence of the
// following literal text, so a value that itself contains that literal
// is mis-parsed. That is accepted behavior, not a bug (spec §4.1).
func Extract(formatStr, input string) (Binding, error) {
	binding := NewBinding()

	for formatStr != "" {
		if !strings.Contains(formatStr, "{") {
			if formatStr != input {
				return binding, mismatch(formatStr, input, "trailing literal does not match remaining input")
			}
			break
		}

		argStart := strings.IndexByte(formatStr, '{')

		if len(input) < argStart || formatStr[:argStart] != input[:argStart] {
			return binding, mismatch(formatStr, input, "literal prefix does not match input")
		}

		formatStr = formatStr[argStart+1:]
		input = input[argStart:]

		argEnd := strings.IndexByte(formatStr, '}')
		if argEnd < 0 {
			return binding, mismatch(formatStr, input, "unterminated placeholder")
		}
		ph := parsePlaceholderBody(formatStr[:argEnd])
		formatStr = formatStr[argEnd+1:]

		var value string
		if formatStr != "" {
			var sepPos int
			if ph.width > 0 {
				sepPos = ph.width
			} else {
				sep := formatStr
				if idx := strings.IndexByte(formatStr, '{'); idx >= 0 {
					sep = formatStr[:idx]
				}
				sepPos = strings.Index(input, sep)
			}
			if sepPos < 0 || sepPos > len(input) {
				return binding, mismatch(formatStr, input, "separator not found in remaining input")
			}
			value = input[:sepPos]
			input = input[sepPos:]
		} else {
			value = input
			input = ""
		}

		if ph.name != "*" {
			binding.Set(ph.name, value)
		}
	}

	return binding, nil
}

// FormatWith substitutes each "{name}" or "{name:width}" placeholder in
// formatStr with values[name] and concatenates the surrounding literal
// text, the inverse of Extract. Width is not enforced on the supplied
// value (the caller is responsible for producing a matching string);
// an unbound "*" placeholder is rejected since it has no value to
// substitute.
func FormatWith(formatStr string, values map[string]string) (string, error) {
	var out strings.Builder
	for formatStr != "" {
		argStart := strings.IndexByte(formatStr, '{')
		if argStart < 0 {
			out.WriteString(formatStr)
			break
		}
		out.WriteString(formatStr[:argStart])
		rest := formatStr[argStart+1:]
		argEnd := strings.IndexByte(rest, '}')
		if argEnd < 0 {
			return "", mismatch(formatStr, "", "unterminated placeholder")
		}
		ph := parsePlaceholderBody(rest[:argEnd])
		formatStr = rest[argEnd+1:]

		if ph.name == "*" {
			return "", fmt.Errorf("format: cannot substitute ignore placeholder {*}")
		}
		value, ok := values[ph.name]
		if !ok {
			return "", fmt.Errorf("format: no value supplied for placeholder %q", ph.name)
		}
		out.WriteString(value)
	}
	return out.String(), nil
}
