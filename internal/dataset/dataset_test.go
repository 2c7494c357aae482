package dataset

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

// buildClimateTree lays out root/{model}/{scenario}/{var}/{year}.nc for
// models={ACCESS,CSIRO}, scenarios={hist,ssp245}, vars={tas,pr},
// years=1960..1962 (spec §8 scenario 1).
func buildClimateTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, m := range []string{"ACCESS", "CSIRO"} {
		for _, s := range []string{"hist", "ssp245"} {
			for _, v := range []string{"tas", "pr"} {
				for _, y := range []string{"1960", "1961", "1962"} {
					writeFile(t, filepath.Join(root, m, s, v, y+".nc"))
				}
			}
		}
	}
	return root
}

func dirTemplate(root string) string {
	return root + string(filepath.Separator) + "{model}" + string(filepath.Separator) + "{scenario}" + string(filepath.Separator)
}

func TestFilterAll_Scenario1_FourDatasetsWithYearInfo(t *testing.T) {
	root := buildClimateTree(t)
	fileTemplate := string(filepath.Separator) + "{var}" + string(filepath.Separator) + "{year}.nc"

	coll, err := FilterAll([]string{dirTemplate(root)}, []string{fileTemplate}, nil, false, nil)
	require.NoError(t, err)
	require.Equal(t, 4, coll.Len())

	for _, ds := range coll.All() {
		info := ds.Info()
		assert.Equal(t, []string{"1960", "1961", "1962"}, info["year"])
	}
}

func TestFilterAll_Scenario1_SelectFiltersByModel(t *testing.T) {
	root := buildClimateTree(t)
	fileTemplate := string(filepath.Separator) + "{var}" + string(filepath.Separator) + "{year}.nc"

	coll, err := FilterAll([]string{dirTemplate(root)}, []string{fileTemplate}, nil, false, nil)
	require.NoError(t, err)

	coll.Select(false, map[string]any{"model": "ACCESS"})
	files, err := coll.GetFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		assert.Contains(t, f, string(filepath.Separator)+"ACCESS"+string(filepath.Separator))
	}
}

func TestFilterAll_RejectsInvalidUniqueRuleEagerly(t *testing.T) {
	root := buildClimateTree(t)
	fileTemplate := string(filepath.Separator) + "{var}" + string(filepath.Separator) + "{year}.nc"

	_, err := FilterAll([]string{dirTemplate(root)}, []string{fileTemplate}, map[string]ClashRule{"year": {Default: "newest"}}, false, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRule)
}

func TestFilterAll_Scenario2_TwoRootsMergeIntoOneDataset(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	writeFile(t, filepath.Join(rootA, "ACCESS", "hist", "tas", "1960.nc"))
	writeFile(t, filepath.Join(rootB, "ACCESS", "hist", "tas", "1961.nc"))

	fileTemplate := string(filepath.Separator) + "{var}" + string(filepath.Separator) + "{year}.nc"
	coll, err := FilterAll([]string{dirTemplate(rootA), dirTemplate(rootB)}, []string{fileTemplate}, nil, false, nil)
	require.NoError(t, err)
	require.Equal(t, 1, coll.Len())

	ds := coll.At(0)
	assert.Len(t, ds.Roots, 2)

	files, err := ds.GetFiles()
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestGetFiles_Scenario3_ClashResolutionHighDefault(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "data_v20240101.nc"))
	writeFile(t, filepath.Join(root, "data_v20240301.nc"))

	ds := NewDataset(map[string]string{}, root+string(filepath.Separator), "data_v{date}.nc")
	ds.Priority["date"] = ClashRule{Default: "high"}

	files, err := ds.GetFiles()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0], "20240301")

	require.Len(t, ds.Notices(), 1)
	assert.Equal(t, "date", ds.Notices()[0].Key)
}

func TestExtract_Scenario4_FirstSeparatorWins(t *testing.T) {
	// Exercised directly in the format package, repeated here against
	// the dataset-facing extraction path (generateInfo file enumeration).
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "1_2_3"))

	ds := NewDataset(map[string]string{}, root+string(filepath.Separator), "{a}_{b}")
	found := false
	for fb := range ds.generateInfo(true) {
		found = true
		a, _ := fb.bindings.Get("a")
		b, _ := fb.bindings.Get("b")
		assert.Equal(t, "1", a)
		assert.Equal(t, "2_3", b)
	}
	assert.True(t, found)
}

func TestGenerateInfo_Scenario5_FolderMode(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "ACCESS"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "CSIRO"), 0o755))
	writeFile(t, filepath.Join(root, "not_a_model_dir.txt")) // should be ignored (folder mode)
	// make not_a_model_dir.txt a real file, already done by writeFile

	ds := NewDataset(map[string]string{}, root+string(filepath.Separator), string(filepath.Separator)+"{model}"+string(filepath.Separator))

	var found []string
	for fb := range ds.generateInfo(true) {
		model, _ := fb.bindings.Get("model")
		found = append(found, model)
	}
	sort.Strings(found)
	assert.Equal(t, []string{"ACCESS", "CSIRO"}, found)
}

func TestCollection_FindMissing_Scenario6(t *testing.T) {
	a := NewDataset(map[string]string{"model": "ACCESS", "scenario": "hist"}, "/a/", "{var}.nc")
	b := NewDataset(map[string]string{"model": "ACCESS", "scenario": "ssp245"}, "/b/", "{var}.nc")
	self := &Collection{items: []*Dataset{a, b}}

	c := NewDataset(map[string]string{"model": "ACCESS", "scenario": "hist"}, "/c/", "{var}.nc")
	other := &Collection{items: []*Dataset{c}}

	missing := self.FindMissing(other, []string{"model", "scenario"})
	require.Equal(t, 1, missing.Len())
	assert.Equal(t, "ssp245", missing.At(0).Data["scenario"])
}

func TestAttemptMerge_Idempotent(t *testing.T) {
	a := NewDataset(map[string]string{"model": "ACCESS"}, "/a/", "{var}.nc")
	clone := NewDataset(map[string]string{"model": "ACCESS"}, "/a/", "{var}.nc")

	ok := a.attemptMerge(clone)
	require.True(t, ok)
	assert.Equal(t, []string{"/a/"}, a.Roots)
}

func TestUnresolvedClash_DefaultError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "data_v1.nc"))
	writeFile(t, filepath.Join(root, "data_v2.nc"))

	ds := NewDataset(map[string]string{}, root+string(filepath.Separator), "data_v{n}.nc")
	ds.Priority["n"] = ClashRule{Default: "error"}

	_, err := ds.GetFiles()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvedClash)

	var unresolved *UnresolvedClashError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "n", unresolved.Key)
	assert.Contains(t, []string{unresolved.OldPath, unresolved.NewPath}, filepath.Join(root, "data_v1.nc"))
	assert.Contains(t, []string{unresolved.OldPath, unresolved.NewPath}, filepath.Join(root, "data_v2.nc"))
}

func TestPrioritise_DefaultsToError(t *testing.T) {
	ds := NewDataset(map[string]string{}, "/a/", "{x}.nc")
	require.NoError(t, ds.Prioritise("n", nil, ""))
	assert.Equal(t, "error", ds.Priority["n"].Default)
}

func TestPrioritise_RejectsUnknownDefaultEagerly(t *testing.T) {
	ds := NewDataset(map[string]string{}, "/a/", "{x}.nc")
	err := ds.Prioritise("n", nil, "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRule)
	_, ok := ds.Priority["n"]
	assert.False(t, ok, "an invalid rule must not be registered")
}

func TestMatch_CaseInsensitiveSubstring(t *testing.T) {
	ds := NewDataset(map[string]string{"model": "access-cm2"}, "/a/", "{x}.nc")
	assert.True(t, ds.Match(false, map[string]any{"model": "ACCESS"}))
	assert.False(t, ds.Match(true, map[string]any{"model": "ACCESS"}))
}
