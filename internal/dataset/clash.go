package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnresolvedClash is returned when priority resolution produces
// conflicting winners across the priority keys that differ between two
// candidates, or when a "default: error" rule is hit for a key whose
// value is not in its preference list.
var ErrUnresolvedClash = errors.New("dataset: unresolved clash")

// ErrInvalidRule is returned eagerly when a ClashRule names a Default
// other than "high", "low", or "error".
var ErrInvalidRule = errors.New("dataset: invalid clash rule")

// UnresolvedClashError carries the key that could not be resolved, so
// callers can attribute it in logging/metrics (internal/metrics's
// ClashesUnresolvedTotal is labeled by key) instead of only seeing the
// formatted message.
type UnresolvedClashError struct {
	Key                string
	OldPath, NewPath   string
	OldValue, NewValue string
}

func (e *UnresolvedClashError) Error() string {
	return fmt.Sprintf("dataset: unresolved clash on key %q between %q (%q) and %q (%q)", e.Key, e.OldPath, e.OldValue, e.NewPath, e.NewValue)
}

func (e *UnresolvedClashError) Unwrap() error { return ErrUnresolvedClash }

// ClashRule governs how two candidate files that differ only in one
// key are resolved to a single winner. Preferences establishes a total
// order (lower index wins); Default governs values absent from
// Preferences: "high" picks the lexicographically larger, "low" the
// smaller, "error" raises ErrUnresolvedClash.
type ClashRule struct {
	Preferences []string `mapstructure:"preferences" yaml:"preferences"`
	Default     string   `mapstructure:"default" yaml:"default"`
}

func (r ClashRule) validate() error {
	switch r.Default {
	case "", "high", "low", "error":
		return nil
	default:
		return fmt.Errorf("%w: unknown default %q", ErrInvalidRule, r.Default)
	}
}

func (r ClashRule) preferenceIndex(value string) (int, bool) {
	for i, p := range r.Preferences {
		if p == value {
			return i, true
		}
	}
	return -1, false
}

// winner reports which of old/new wins under this rule, for the given
// key and values. It returns true if new wins, false if old wins.
func (r ClashRule) winner(key, oldValue, newValue string) (newWins bool, err error) {
	if err := r.validate(); err != nil {
		return false, err
	}

	oldIdx, oldIn := r.preferenceIndex(oldValue)
	newIdx, newIn := r.preferenceIndex(newValue)

	switch {
	case oldIn && newIn:
		return newIdx < oldIdx, nil
	case oldIn && !newIn:
		return false, nil
	case !oldIn && newIn:
		return true, nil
	default:
		switch r.Default {
		case "high", "":
			return strings.Compare(newValue, oldValue) > 0, nil
		case "low":
			return strings.Compare(newValue, oldValue) < 0, nil
		case "error":
			return false, &UnresolvedClashError{Key: key, OldValue: oldValue, NewValue: newValue}
		default:
			return false, fmt.Errorf("%w: unknown default %q", ErrInvalidRule, r.Default)
		}
	}
}

// ClashNotice is an informational record describing one resolved clash.
// It is not part of GetFiles' return value: the Dataset records it, and
// callers read it back through Notices() to log it.
type ClashNotice struct {
	Key         string
	WinnerPath  string
	WinnerValue string
	LoserPath   string
	LoserValue  string
}
