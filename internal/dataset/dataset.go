// Package dataset implements the DatasetAggregator: the top-level
// orchestrator that groups filesystem entries sharing identical
// directory-template coordinates into Datasets, enumerates each
// Dataset's files, and resolves clashes between candidates that differ
// only in a designated priority key.
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AusClimateService/dataset-finder/internal/filter"
	"github.com/AusClimateService/dataset-finder/internal/format"
	"github.com/AusClimateService/dataset-finder/internal/walk"
)

var sep = string(filepath.Separator)

// Dataset is a group of files sharing identical directory-template
// coordinates. See spec §3 for the invariants: Data's keys are exactly
// the placeholder names (with any "!" tag stripped) bound by the
// directory template; Roots is non-empty, deduplicated, and every entry
// ends with the path separator.
type Dataset struct {
	Data       map[string]string
	Roots      []string
	FormatFile []string // candidate file templates; generateInfo uses the first that was adopted
	Selected   map[string][]string
	Priority   map[string]ClashRule
	ExactMatch map[string]bool

	notices []ClashNotice
}

// NewDataset constructs a Dataset for one resolved directory coordinate.
func NewDataset(data map[string]string, root string, formatFile string) *Dataset {
	return &Dataset{
		Data:       copyStringMap(data),
		Roots:      []string{root},
		FormatFile: []string{formatFile},
		Selected:   map[string][]string{},
		Priority:   map[string]ClashRule{},
		ExactMatch: map[string]bool{},
	}
}

func copyStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func dedupeAppend(existing []string, additions ...string) []string {
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[e] = true
	}
	for _, a := range additions {
		if !seen[a] {
			existing = append(existing, a)
			seen[a] = true
		}
	}
	return existing
}

// dataEqual reports whether two coordinate maps have identical keys and
// values (spec §4.4 attempt_merge: "A.data == B.data").
func dataEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// attemptMerge merges other into d if they share identical coordinates,
// extending d.Roots with any of other's roots not already present.
// Reports whether the merge happened.
func (d *Dataset) attemptMerge(other *Dataset) bool {
	if !dataEqual(d.Data, other.Data) {
		return false
	}
	d.Roots = dedupeAppend(d.Roots, other.Roots...)
	return true
}

// Select adds or replaces entries in the active selection. Values may
// be a single string or []string; both are normalized into a fresh
// []string copy so later mutation by the caller cannot leak back in
// (spec §9, "Polymorphism").
func (d *Dataset) Select(exact bool, kv map[string]any) *Dataset {
	for key, raw := range kv {
		d.Selected[key] = toStringSlice(raw)
		d.ExactMatch[key] = exact
	}
	return d
}

// Deselect removes entries from the active selection.
func (d *Dataset) Deselect(keys ...string) *Dataset {
	for _, key := range keys {
		delete(d.Selected, key)
		delete(d.ExactMatch, key)
	}
	return d
}

// Prioritise registers or updates the clash-resolution rule for key.
// When both preferences is empty and defaultRule is "", the rule
// defaults to {Preferences: nil, Default: "error"}; subsequent calls
// replace Preferences unconditionally and Default only when non-empty.
// The rule is validated eagerly (spec §7: InvalidRule is "raised
// eagerly"): an unknown Default is rejected here rather than deferred
// until a clash on key is actually encountered.
func (d *Dataset) Prioritise(key string, preferences []string, defaultRule string) error {
	existing, ok := d.Priority[key]
	if !ok {
		rule := ClashRule{Preferences: append([]string(nil), preferences...), Default: defaultRule}
		if len(preferences) == 0 && defaultRule == "" {
			rule.Default = "error"
		}
		if err := rule.validate(); err != nil {
			return err
		}
		d.Priority[key] = rule
		return nil
	}
	existing.Preferences = append([]string(nil), preferences...)
	if defaultRule != "" {
		existing.Default = defaultRule
	}
	if err := existing.validate(); err != nil {
		return err
	}
	d.Priority[key] = existing
	return nil
}

func toStringSlice(raw any) []string {
	switch v := raw.(type) {
	case string:
		return []string{v}
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	default:
		return nil
	}
}

// Match reports whether every key in kv is present in Data and at
// least one of its values exact-equals (or substring-matches,
// case-folded) Data[key].
func (d *Dataset) Match(exact bool, kv map[string]any) bool {
	for key, raw := range kv {
		values := toStringSlice(raw)
		dataValue, ok := d.Data[key]
		if !ok {
			return false
		}
		matched := false
		for _, v := range values {
			if exact {
				if strings.EqualFold(v, dataValue) {
					matched = true
				}
			} else if strings.Contains(strings.ToLower(dataValue), strings.ToLower(v)) {
				matched = true
			}
			if matched {
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// Includes runs the same test as Match but against the collated,
// post-enumeration Info() values rather than the coordinate Data.
func (d *Dataset) Includes(exact bool, kv map[string]any) bool {
	info := d.Info()
	for key, raw := range kv {
		values := toStringSlice(raw)
		terms, ok := info[key]
		if !ok {
			return false
		}
		matched := false
		for _, v := range values {
			for _, term := range terms {
				if exact {
					if strings.EqualFold(v, term) {
						matched = true
					}
				} else if strings.Contains(strings.ToLower(term), strings.ToLower(v)) {
					matched = true
				}
				if matched {
					break
				}
			}
			if matched {
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// fileBinding is one surviving (bindings, absolutePath) pair produced
// by generateInfo, before clash resolution.
type fileBinding struct {
	bindings format.Binding
	path     string
}

// resolveFormatFile returns the file template this dataset should use:
// the first candidate in FormatFile that yields at least one matching
// entry, probed under the current selection.
func (d *Dataset) resolveFormatFile() (string, error) {
	if len(d.FormatFile) == 0 {
		return "", fmt.Errorf("dataset: no file template configured")
	}
	if len(d.FormatFile) == 1 {
		return d.FormatFile[0], nil
	}
	for _, candidate := range d.FormatFile {
		probe := &Dataset{Data: d.Data, Roots: d.Roots, FormatFile: []string{candidate}, Selected: d.Selected, Priority: d.Priority, ExactMatch: d.ExactMatch}
		found := false
		for range probe.generateInfo(true) {
			found = true
			break
		}
		if found {
			return candidate, nil
		}
	}
	return d.FormatFile[0], nil
}

// splitAtFirstPlaceholder mirrors the directory-template split used by
// the aggregator (spec §4.4 step 1): the literal prefix up to the last
// path separator before the first "{" becomes startPath, the remainder
// is residual. If s has no placeholder at all, startPath == s and
// residual == "".
func splitAtFirstPlaceholder(s string) (startPath, residual string) {
	argPos := strings.IndexByte(s, '{')
	if argPos < 0 {
		return s, ""
	}
	prefix := s[:argPos]
	sepIdx := strings.LastIndex(prefix, sep)
	return s[:sepIdx+1], s[sepIdx+1:]
}

// generateInfo enumerates the files (or, in folder mode, terminal
// directories) under every root, yielding the extracted bindings for
// each survivor of the current selection alongside its absolute path.
// Bindings for keys already present in d.Data are elided, since that
// coordinate is implicit at the dataset level.
func (d *Dataset) generateInfo(applyFilter bool) func(yield func(fileBinding, error) bool) {
	return func(yield func(fileBinding, error) bool) {
		if applyFilter {
			// A selection on a coordinate key filters the whole dataset: a
			// dataset whose coordinate does not match yields nothing.
			for key, values := range d.Selected {
				if _, isCoordinate := d.Data[key]; isCoordinate && !d.Match(d.ExactMatch[key], map[string]any{key: values}) {
					return
				}
			}
		}

		formatFile := d.FormatFile[0]
		if len(d.FormatFile) > 1 {
			if resolved, err := d.resolveFormatFile(); err == nil {
				formatFile = resolved
			}
		}

		folderMode := strings.HasSuffix(formatFile, sep)
		trimmed := strings.TrimSuffix(formatFile, sep)
		trimmed = strings.TrimPrefix(trimmed, sep)

		prefix, residual := splitAtFirstPlaceholder(trimmed)
		depth := strings.Count(residual, sep)

		for _, root := range d.Roots {
			startPath := root + prefix

			for entry, err := range walk.WalkDepth(startPath, depth) {
				if err != nil {
					continue // I/O error at this subtree: skipped silently; it is not returned to the caller
				}

				candidates := make([]string, 0, len(entry.Children))
				for _, name := range entry.Children {
					isDir := false
					if info, statErr := os.Stat(filepath.Join(startPath, entry.RelRoot, name)); statErr == nil {
						isDir = info.IsDir()
					}
					if isDir != folderMode {
						continue
					}
					var candidate string
					if entry.RelRoot == "" {
						candidate = name
					} else {
						candidate = entry.RelRoot + sep + name
					}
					candidates = append(candidates, candidate)
				}

				if applyFilter && len(d.Selected) > 0 {
					candidates = filter.MatchValues(candidates, residual, d.Selected, false, d.ExactMatch)
				}

				sort.Strings(candidates)
				for _, candidate := range candidates {
					bindings, err := format.Extract(residual, candidate)
					if err != nil {
						continue
					}
					elided := format.NewBinding()
					for _, p := range bindings.Pairs() {
						base, _ := splitTag(p.Name)
						if _, present := d.Data[base]; present {
							continue
						}
						elided.Set(p.Name, p.Value)
					}
					absPath := normalizeSeparators(startPath + sep + candidate)
					if !yield(fileBinding{bindings: elided, path: absPath}, nil) {
						return
					}
				}
			}
		}
	}
}

func splitTag(key string) (base, tag string) {
	if idx := strings.IndexByte(key, '!'); idx >= 0 {
		return key[:idx], key[idx+1:]
	}
	return key, ""
}

func normalizeSeparators(p string) string {
	doubled := sep + sep
	for strings.Contains(p, doubled) {
		p = strings.ReplaceAll(p, doubled, sep)
	}
	return p
}

// Info aggregates the per-file bindings into a map from key to the
// sorted, deduplicated list of observed values, expanding "!start"/
// "!end" pairs into the full integer range under the base name (spec
// §4.4 collate_info).
func (d *Dataset) Info() map[string][]string {
	info := map[string][]string{}

	add := func(key, value string) {
		if !contains(info[key], value) {
			info[key] = append(info[key], value)
			sort.Strings(info[key])
		}
	}

	for fb := range d.generateInfo(true) {
		ends := map[string]string{}
		for _, p := range fb.bindings.Pairs() {
			base, tag := splitTag(p.Name)
			if tag == "end" {
				ends[base] = p.Value
			}
		}
		for _, p := range fb.bindings.Pairs() {
			base, tag := splitTag(p.Name)
			switch tag {
			case "end":
				continue
			case "start":
				if endValue, ok := ends[base]; ok {
					years, err := filter.YearRange(p.Value, endValue)
					if err == nil {
						for _, y := range years {
							add(base, y)
						}
					}
				}
			default:
				add(p.Name, p.Value)
			}
		}
	}
	return info
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// GetFiles enumerates every candidate under this Dataset's current
// selection and resolves clashes per Priority, returning the winning,
// separator-normalized absolute paths in deterministic order.
func (d *Dataset) GetFiles() ([]string, error) {
	accepted, err := d.resolveClashes()
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(accepted))
	for i, fb := range accepted {
		paths[i] = fb.path
	}
	sort.Strings(paths)
	return paths, nil
}

// resolveClashes implements spec §4.4's get_files clash resolution:
// candidates are folded one at a time into an accepted set; two
// candidates whose bindings differ only in non-priority keys coexist,
// while a difference confined to priority keys is resolved via each
// key's ClashRule, requiring all differing priority keys to agree on
// the same winner.
func (d *Dataset) resolveClashes() ([]fileBinding, error) {
	var accepted []fileBinding
	d.notices = nil

	for fb, err := range d.generateInfo(true) {
		if err != nil {
			continue
		}

		duplicate := false
		nextAccepted := accepted[:0:0]

		for _, old := range accepted {
			unmatched := diffKeys(old.bindings, fb.bindings)
			if len(unmatched) == 0 {
				duplicate = true
				nextAccepted = append(nextAccepted, old)
				continue
			}

			allPriority := true
			for _, key := range unmatched {
				if _, ok := d.Priority[key]; !ok {
					allPriority = false
					break
				}
			}
			if !allPriority {
				nextAccepted = append(nextAccepted, old)
				continue
			}

			var newWinsConsensus *bool
			for _, key := range unmatched {
				oldValue, _ := old.bindings.Get(key)
				newValue, _ := fb.bindings.Get(key)
				rule := d.Priority[key]
				newWins, err := rule.winner(key, oldValue, newValue)
				if err != nil {
					var unresolved *UnresolvedClashError
					if errors.As(err, &unresolved) {
						unresolved.OldPath, unresolved.NewPath = old.path, fb.path
					}
					return nil, err
				}
				if newWinsConsensus == nil {
					newWinsConsensus = &newWins
				} else if *newWinsConsensus != newWins {
					return nil, &UnresolvedClashError{Key: key, OldPath: old.path, NewPath: fb.path, OldValue: oldValue, NewValue: newValue}
				}
			}

			if newWinsConsensus != nil && *newWinsConsensus {
				key := unmatched[0]
				oldValue, _ := old.bindings.Get(key)
				newValue, _ := fb.bindings.Get(key)
				d.notices = append(d.notices, ClashNotice{Key: key, WinnerPath: fb.path, WinnerValue: newValue, LoserPath: old.path, LoserValue: oldValue})
				// old is dropped: do not append to nextAccepted
			} else {
				key := unmatched[0]
				oldValue, _ := old.bindings.Get(key)
				newValue, _ := fb.bindings.Get(key)
				d.notices = append(d.notices, ClashNotice{Key: key, WinnerPath: old.path, WinnerValue: oldValue, LoserPath: fb.path, LoserValue: newValue})
				duplicate = true // new candidate is dropped
				nextAccepted = append(nextAccepted, old)
			}
		}

		accepted = nextAccepted
		if !duplicate {
			accepted = append(accepted, fb)
		}
	}

	return accepted, nil
}

// diffKeys returns the keys present in both bindings whose values
// differ, in sorted order.
func diffKeys(a, b format.Binding) []string {
	var out []string
	seen := map[string]bool{}
	for _, p := range a.Pairs() {
		bv, ok := b.Get(p.Name)
		if ok && bv != p.Value && !seen[p.Name] {
			out = append(out, p.Name)
			seen[p.Name] = true
		}
	}
	for _, p := range b.Pairs() {
		av, ok := a.Get(p.Name)
		if ok && av != p.Value && !seen[p.Name] {
			out = append(out, p.Name)
			seen[p.Name] = true
		}
	}
	sort.Strings(out)
	return out
}

// Notices returns the clash-resolution diagnostics recorded by the most
// recent GetFiles call, for logging by callers.
func (d *Dataset) Notices() []ClashNotice { return d.notices }
