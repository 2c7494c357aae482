package dataset

import (
	"fmt"
	"strings"

	"github.com/AusClimateService/dataset-finder/internal/format"
	"github.com/AusClimateService/dataset-finder/internal/walk"
)

// FilterAll is the DatasetAggregator's entry point (spec §4.4): for
// each directory template it drives the TreeWalker, extracts
// coordinates at every terminal directory, probes the candidate file
// templates to adopt the first that yields at least one file, and
// merges the result into a Collection of Datasets with unique
// coordinates. unique, when non-nil, is applied to every resulting
// Dataset's Priority map before returning.
func FilterAll(dirTemplates []string, fileTemplates []string, unique map[string]ClashRule, exact bool, search map[string][]string) (*Collection, error) {
	// Validate every clash rule eagerly (spec §7: InvalidRule is "raised
	// eagerly"), before any walking happens, rather than deferring to
	// winner() the first time two candidates actually clash on a key.
	for key, rule := range unique {
		if err := rule.validate(); err != nil {
			return nil, fmt.Errorf("dataset: invalid unique rule for %q: %w", key, err)
		}
	}

	collection := NewCollection()

	for _, dirTemplate := range dirTemplates {
		startPath, residual := splitAtFirstPlaceholder(dirTemplate)
		var columns []string
		if residual != "" {
			columns = strings.Split(residual, sep)
			if len(columns) > 0 && columns[len(columns)-1] == "" {
				columns = columns[:len(columns)-1]
			}
		}

		for entry, walkErr := range walk.Walk(startPath, columns, search, exact) {
			if walkErr != nil {
				continue
			}

			joinedColumns := strings.Join(columns, sep)
			info, err := format.Extract(joinedColumns, entry.RelRoot)
			if err != nil {
				continue
			}

			data := map[string]string{}
			for _, p := range info.Pairs() {
				base, _ := splitTag(p.Name)
				data[base] = p.Value
			}

			values := make(map[string]string, len(data))
			for k, v := range data {
				values[k] = v
			}
			root, err := format.FormatWith(dirTemplate, values)
			if err != nil {
				continue
			}
			if !strings.HasSuffix(root, sep) {
				root += sep
			}

			candidate, adoptedFile := adoptFileTemplate(data, root, fileTemplates, search)
			if candidate == nil {
				continue
			}
			propagateSearch(candidate, adoptedFile, search)
			for key := range candidate.Selected {
				candidate.ExactMatch[key] = exact
			}

			merged := false
			for _, existing := range collection.items {
				if existing.attemptMerge(candidate) {
					merged = true
					break
				}
			}
			if !merged {
				collection.Add(candidate)
			}
		}
	}

	if unique != nil {
		for _, ds := range collection.items {
			for key, rule := range unique {
				ds.Priority[key] = rule
			}
		}
	}

	return collection, nil
}

// adoptFileTemplate constructs a trial Dataset for each file template in
// order and returns the first one that yields at least one file under
// the current selection (none active at this stage beyond search-term
// propagation, which happens after adoption).
func adoptFileTemplate(data map[string]string, root string, fileTemplates []string, search map[string][]string) (*Dataset, string) {
	for _, ft := range fileTemplates {
		trial := NewDataset(data, root, ft)
		found := false
		for range trial.generateInfo(true) {
			found = true
			break
		}
		if found {
			return trial, ft
		}
	}
	return nil, ""
}

// propagateSearch copies search terms whose key is not a dataset
// coordinate but is a placeholder in the adopted file template into the
// dataset's active Selected filter (spec §4.4 step 2c).
func propagateSearch(ds *Dataset, fileTemplate string, search map[string][]string) {
	if len(search) == 0 {
		return
	}
	for key, values := range search {
		if _, isCoordinate := ds.Data[key]; isCoordinate {
			continue
		}
		if !strings.Contains(fileTemplate, "{"+key+"}") && !strings.Contains(fileTemplate, "{"+key+":") {
			continue
		}
		cp := make([]string, len(values))
		copy(cp, values)
		ds.Selected[key] = cp
	}
}
