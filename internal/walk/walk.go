// Package walk implements the pruning depth-first directory traversal
// used both to locate dataset-coordinate directories and, a second
// time, to enumerate the files within a resolved dataset.
package walk

import (
	"iter"
	"os"
	"path/filepath"
	"sort"

	"github.com/AusClimateService/dataset-finder/internal/filter"
)

// Entry is a single yielded terminal directory: relRoot is the path of
// that directory relative to startPath (not including a leading
// separator), and Children is its sorted list of direct child names
// (files or directories, whatever the caller asked it to look at).
type Entry struct {
	RelRoot  string
	Children []string
}

// Walk performs the pruning tree walk described by spec §4.3: starting
// at startPath, it descends depth-first following symlinks, sorting
// children at every level for determinism. At each depth d < len(columns)
// it filters the subdirectory list through filter.MatchValues using
// columns[d] as the format and search as the search terms, before
// descending only into the survivors. At depth d == len(columns) it
// yields (relRoot, children) for that directory and does not descend
// further.
//
// The result is a lazy iter.Seq2 so a consumer that stops early (the
// standard library range-over-func early-return protocol) skips
// walking the rest of the tree, matching spec §9's generator semantics.
func Walk(startPath string, columns []string, search map[string][]string, exact bool) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		walkDir(startPath, "", 0, columns, search, exact, yield)
	}
}

// walkDir returns false once the caller has asked to stop (yield
// returned false), so every recursive call site must propagate that.
func walkDir(absDir, relDir string, depth int, columns []string, search map[string][]string, exact bool, yield func(Entry, error) bool) bool {
	entries, err := os.ReadDir(absDir)
	if err != nil {
		return yield(Entry{}, err)
	}

	names := make([]string, 0, len(entries))
	dirByName := make(map[string]bool, len(entries))
	for _, e := range entries {
		isDir := e.IsDir()
		if !isDir && e.Type()&os.ModeSymlink != 0 {
			if info, statErr := os.Stat(filepath.Join(absDir, e.Name())); statErr == nil && info.IsDir() {
				isDir = true
			}
		}
		names = append(names, e.Name())
		dirByName[e.Name()] = isDir
	}
	sort.Strings(names)

	if depth >= len(columns) {
		return yield(Entry{RelRoot: relDir, Children: names}, nil)
	}

	subdirs := make([]string, 0, len(names))
	for _, n := range names {
		if dirByName[n] {
			subdirs = append(subdirs, n)
		}
	}
	subdirs = filter.MatchValues(subdirs, columns[depth], search, exact, nil)

	for _, n := range subdirs {
		childAbs := filepath.Join(absDir, n)
		var childRel string
		if relDir == "" {
			childRel = n
		} else {
			childRel = relDir + string(filepath.Separator) + n
		}
		if !walkDir(childAbs, childRel, depth+1, columns, search, exact, yield) {
			return false
		}
	}
	return true
}

// WalkDepth walks every subdirectory down to exactly targetDepth levels
// below startPath without applying any placeholder filtering along the
// way (unlike Walk, which prunes at every level), yielding (relRoot,
// children) once per directory reached at that depth. This is the shape
// the dataset aggregator's file-enumeration pass needs: the directory
// template was already resolved by Walk, and the file template's own
// intermediate path segments are not coordinate columns to filter on,
// only the terminal segment's children are matched.
func WalkDepth(startPath string, targetDepth int) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		walkDirDepth(startPath, "", 0, targetDepth, yield)
	}
}

func walkDirDepth(absDir, relDir string, depth, targetDepth int, yield func(Entry, error) bool) bool {
	entries, err := os.ReadDir(absDir)
	if err != nil {
		return yield(Entry{}, err)
	}

	names := make([]string, 0, len(entries))
	dirByName := make(map[string]bool, len(entries))
	for _, e := range entries {
		isDir := e.IsDir()
		if !isDir && e.Type()&os.ModeSymlink != 0 {
			if info, statErr := os.Stat(filepath.Join(absDir, e.Name())); statErr == nil && info.IsDir() {
				isDir = true
			}
		}
		names = append(names, e.Name())
		dirByName[e.Name()] = isDir
	}
	sort.Strings(names)

	if depth >= targetDepth {
		return yield(Entry{RelRoot: relDir, Children: names}, nil)
	}

	for _, n := range names {
		if !dirByName[n] {
			continue
		}
		childAbs := filepath.Join(absDir, n)
		var childRel string
		if relDir == "" {
			childRel = n
		} else {
			childRel = relDir + string(filepath.Separator) + n
		}
		if !walkDirDepth(childAbs, childRel, depth+1, targetDepth, yield) {
			return false
		}
	}
	return true
}
