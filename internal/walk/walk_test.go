package walk

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildClimateTree creates the layout root/{model}/{scenario}/{var}/{year}.nc
func buildClimateTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	models := []string{"ACCESS", "CSIRO"}
	scenarios := []string{"hist", "ssp245"}
	vars := []string{"tas", "pr"}
	years := []string{"1960", "1961", "1962"}

	for _, m := range models {
		for _, s := range scenarios {
			for _, v := range vars {
				dir := filepath.Join(root, m, s, v)
				require.NoError(t, os.MkdirAll(dir, 0o755))
				for _, y := range years {
					require.NoError(t, os.WriteFile(filepath.Join(dir, y+".nc"), []byte("x"), 0o644))
				}
			}
		}
	}
	return root
}

func collectRelRoots(t *testing.T, startPath string, columns []string, search map[string][]string, exact bool) []string {
	t.Helper()
	var got []string
	for entry, err := range Walk(startPath, columns, search, exact) {
		require.NoError(t, err)
		got = append(got, entry.RelRoot)
	}
	sort.Strings(got)
	return got
}

func TestWalk_YieldsAtColumnDepthWithoutPruning(t *testing.T) {
	root := buildClimateTree(t)
	got := collectRelRoots(t, root, []string{"{model}", "{scenario}"}, nil, false)

	want := []string{
		filepath.Join("ACCESS", "hist"),
		filepath.Join("ACCESS", "ssp245"),
		filepath.Join("CSIRO", "hist"),
		filepath.Join("CSIRO", "ssp245"),
	}
	sort.Strings(want)
	require.Equal(t, want, got)
}

func TestWalk_PrunesUsingSearchTerms(t *testing.T) {
	root := buildClimateTree(t)
	search := map[string][]string{"model": {"ACCESS"}}
	got := collectRelRoots(t, root, []string{"{model}", "{scenario}"}, search, false)

	want := []string{
		filepath.Join("ACCESS", "hist"),
		filepath.Join("ACCESS", "ssp245"),
	}
	sort.Strings(want)
	require.Equal(t, want, got)
}

func TestWalk_ZeroColumnsYieldsRootImmediately(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))

	var entries []Entry
	for e, err := range Walk(root, nil, nil, false) {
		require.NoError(t, err)
		entries = append(entries, e)
	}
	require.Len(t, entries, 1)
	require.Equal(t, "", entries[0].RelRoot)
	require.Contains(t, entries[0].Children, "a.txt")
}

func TestWalk_EarlyStopSkipsRemainder(t *testing.T) {
	root := buildClimateTree(t)
	visited := 0
	for range Walk(root, []string{"{model}", "{scenario}"}, nil, false) {
		visited++
		break
	}
	require.Equal(t, 1, visited)
}

func TestWalkDepth_YieldsFilesAtTargetDepth(t *testing.T) {
	root := buildClimateTree(t)
	start := filepath.Join(root, "ACCESS", "hist")

	var got []Entry
	for e, err := range WalkDepth(start, 1) {
		require.NoError(t, err)
		got = append(got, e)
	}
	sort.Slice(got, func(i, j int) bool { return got[i].RelRoot < got[j].RelRoot })
	require.Len(t, got, 2) // tas, pr subdirectories
	for _, e := range got {
		require.Len(t, e.Children, 3) // three years
	}
}
