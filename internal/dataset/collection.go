package dataset

// Collection is an ordered list of Datasets (spec §3
// DatasetCollection), supporting member-wise selection, set operations,
// value-set projection, and coordinate condensation.
type Collection struct {
	items []*Dataset
}

// NewCollection returns an empty Collection.
func NewCollection() *Collection { return &Collection{} }

// Add appends a Dataset to the collection.
func (c *Collection) Add(ds *Dataset) { c.items = append(c.items, ds) }

// Len reports the number of Datasets in the collection.
func (c *Collection) Len() int { return len(c.items) }

// At returns the Dataset at index i.
func (c *Collection) At(i int) *Dataset { return c.items[i] }

// All returns the underlying Datasets. The slice is owned by the
// collection; callers must not mutate it.
func (c *Collection) All() []*Dataset { return c.items }

// GetAll returns the deduplicated set of values bound to key across
// every Dataset's coordinates, in first-seen order.
func (c *Collection) GetAll(key string) []string {
	var out []string
	seen := map[string]bool{}
	for _, ds := range c.items {
		if v, ok := ds.Data[key]; ok && !seen[v] {
			out = append(out, v)
			seen[v] = true
		}
	}
	return out
}

// Select applies Dataset.Select to every member.
func (c *Collection) Select(exact bool, kv map[string]any) *Collection {
	for _, ds := range c.items {
		ds.Select(exact, kv)
	}
	return c
}

// SelectRemoveEmpty first filters to Datasets matching includes (exact,
// kv) via Includes, then applies Select to the survivors, and returns a
// new Collection containing only those survivors (spec §4.5: "remove_empty=true").
func (c *Collection) SelectRemoveEmpty(exact bool, kv map[string]any) *Collection {
	survivors := c.Includes(exact, kv)
	survivors.Select(exact, kv)
	return survivors
}

// Deselect applies Dataset.Deselect to every member.
func (c *Collection) Deselect(keys ...string) *Collection {
	for _, ds := range c.items {
		ds.Deselect(keys...)
	}
	return c
}

// Includes returns the subset of Datasets whose Includes(exact, kv)
// test passes.
func (c *Collection) Includes(exact bool, kv map[string]any) *Collection {
	out := NewCollection()
	for _, ds := range c.items {
		if ds.Includes(exact, kv) {
			out.Add(ds)
		}
	}
	return out
}

// Filter returns the subset of Datasets whose Match(exact, kv) test
// passes.
func (c *Collection) Filter(exact bool, kv map[string]any) *Collection {
	out := NewCollection()
	for _, ds := range c.items {
		if ds.Match(exact, kv) {
			out.Add(ds)
		}
	}
	return out
}

// GetFiles flattens every member Dataset's resolved files into a
// single list.
func (c *Collection) GetFiles() ([]string, error) {
	var out []string
	for _, ds := range c.items {
		files, err := ds.GetFiles()
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}

// commonKeys returns the intersection of a and b's coordinate key sets.
func commonKeys(a, b *Dataset) []string {
	var out []string
	for k := range a.Data {
		if _, ok := b.Data[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

func hasAllKeys(ds *Dataset, keys []string) bool {
	for _, k := range keys {
		if _, ok := ds.Data[k]; !ok {
			return false
		}
	}
	return true
}

func coordinatesEqual(a, b *Dataset, keys []string) bool {
	for _, k := range keys {
		if a.Data[k] != b.Data[k] {
			return false
		}
	}
	return true
}

// compareCollections partitions c's items into those with a coordinate
// match in other (on matchKeys, or on the two items' common keys when
// matchKeys is empty) and those without.
func (c *Collection) compareCollections(other *Collection, matchKeys []string) (matched, unmatched *Collection) {
	matched, unmatched = NewCollection(), NewCollection()

	for _, item := range c.items {
		success := false
		for _, check := range other.items {
			var keys []string
			if len(matchKeys) > 0 {
				keys = matchKeys
				if !hasAllKeys(item, keys) || !hasAllKeys(check, keys) {
					continue
				}
			} else {
				keys = commonKeys(item, check)
				if len(keys) == 0 {
					continue
				}
			}
			if coordinatesEqual(item, check, keys) {
				success = true
				break
			}
		}
		if success {
			matched.Add(item)
		} else {
			unmatched.Add(item)
		}
	}
	return matched, unmatched
}

// FindMatches returns the Datasets in c whose coordinates (on matchKeys,
// or all common keys if matchKeys is nil) appear in other.
func (c *Collection) FindMatches(other *Collection, matchKeys []string) *Collection {
	matched, _ := c.compareCollections(other, matchKeys)
	return matched
}

// FindMissing returns the Datasets in c whose coordinates do not appear
// in other.
func (c *Collection) FindMissing(other *Collection, matchKeys []string) *Collection {
	_, unmatched := c.compareCollections(other, matchKeys)
	return unmatched
}

// Condense removes column from every Dataset's coordinates, registering
// a default {Default: "error"} priority rule for it if none exists yet,
// and merges any Datasets that newly share identical coordinates as a
// result.
func (c *Collection) Condense(column string) error {
	condensed := NewCollection()

	for _, ds := range c.items {
		if _, ok := ds.Priority[column]; !ok {
			if err := ds.Prioritise(column, nil, "error"); err != nil {
				return err
			}
		}
		delete(ds.Data, column)

		merged := false
		for _, existing := range condensed.items {
			if existing.attemptMerge(ds) {
				for k, v := range ds.Priority {
					if _, ok := existing.Priority[k]; !ok {
						existing.Priority[k] = v
					}
				}
				merged = true
				break
			}
		}
		if !merged {
			condensed.Add(ds)
		}
	}

	c.items = condensed.items
	return nil
}
