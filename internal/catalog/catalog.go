// Package catalog loads named path-template entries from a YAML
// catalog file (spec §6's "configuration collaborator") and exposes
// them as ready-to-call dataset discovery functions.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"

	"github.com/AusClimateService/dataset-finder/internal/dataset"
)

// ErrConfigKeyMissing is returned when a requested catalog key is not
// present in the loaded YAML document.
var ErrConfigKeyMissing = errors.New("catalog: key not found")

// Entry is one named catalog entry:
//
//	<key>:
//	  format_dirs: <string> | [<string>, ...]
//	  format_file: <string> | [<string>, ...]
//	  unique:
//	    <coord>:
//	      preferences: [<v>, ...]
//	      default: high|low|error
type Entry struct {
	FormatDirs []string                     `mapstructure:"format_dirs"`
	FormatFile []string                     `mapstructure:"format_file"`
	Unique     map[string]dataset.ClashRule `mapstructure:"unique"`
}

// Loader reads catalog entries from a YAML file using viper, the way
// internal/config.LoadConfig in the teacher reads its application
// config.
type Loader struct {
	v *viper.Viper
}

// NewLoader constructs a Loader for the catalog file at path. If path
// is not absolute, it is resolved against the source directory of this
// package (see callerDir),
// mirroring the Python original's os.path.join(os.path.dirname(__file__), yaml_path).
func NewLoader(path string) (*Loader, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(callerDir(), path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("catalog: failed to read %s: %w", path, err)
	}
	return &Loader{v: v}, nil
}

// callerDir returns the directory containing this source file, used as
// the base for relative catalog-path resolution.
func callerDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Dir(file)
}

// Entry returns the named catalog entry.
func (l *Loader) Entry(key string) (Entry, error) {
	if !l.v.IsSet(key) {
		return Entry{}, fmt.Errorf("%w: %q", ErrConfigKeyMissing, key)
	}
	var entry Entry
	if err := l.v.UnmarshalKey(key, &entry); err != nil {
		return Entry{}, fmt.Errorf("catalog: failed to unmarshal %q: %w", key, err)
	}
	return entry, nil
}

// Paths returns a function that calls dataset.FilterAll with the
// format_dirs/format_file/unique arguments already bound for key (spec
// §6's "paths(key, yaml_path) -> callable").
func (l *Loader) Paths(key string) (func(exact bool, search map[string][]string) (*dataset.Collection, error), error) {
	entry, err := l.Entry(key)
	if err != nil {
		return nil, err
	}
	return func(exact bool, search map[string][]string) (*dataset.Collection, error) {
		return dataset.FilterAll(entry.FormatDirs, entry.FormatFile, entry.Unique, exact, search)
	}, nil
}

// GetDatasets is the one-shot equivalent of Paths(key)(exact, search)
// (spec §6's get_datasets). ctx is accepted for cancellation symmetry
// with the rest of this engine's outer collaborators even though
// FilterAll itself does not block on anything cancellable.
func (l *Loader) GetDatasets(ctx context.Context, key string, exact bool, search map[string][]string) (*dataset.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fn, err := l.Paths(key)
	if err != nil {
		return nil, err
	}
	return fn(exact, search)
}
