// Command datasetctl runs a one-shot dataset discovery pass against a
// set of directory/file templates and prints the resulting datasets as
// a table.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/AusClimateService/dataset-finder/internal/dataset"
	"github.com/AusClimateService/dataset-finder/internal/logging"
	"github.com/AusClimateService/dataset-finder/internal/metrics"
)

// stringListFlag collects repeated occurrences of a -dir/-file flag
// into a slice, since flag does not support multi-value flags natively.
type stringListFlag []string

func (f *stringListFlag) String() string { return strings.Join(*f, ",") }

func (f *stringListFlag) Set(value string) error {
	*f = append(*f, value)
	return nil
}

// kvListFlag collects repeated key=value occurrences of -select into a
// map of key to candidate values.
type kvListFlag map[string][]string

func (f kvListFlag) String() string { return fmt.Sprintf("%v", map[string][]string(f)) }

func (f kvListFlag) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	if !ok {
		return fmt.Errorf("-select expects key=value, got %q", value)
	}
	f[key] = append(f[key], val)
	return nil
}

// uniqueListFlag collects repeated -unique key=pref1,pref2;default
// occurrences into a ClashRule map.
type uniqueListFlag map[string]dataset.ClashRule

func (f uniqueListFlag) String() string { return fmt.Sprintf("%v", map[string]dataset.ClashRule(f)) }

func (f uniqueListFlag) Set(value string) error {
	key, rest, ok := strings.Cut(value, "=")
	if !ok {
		return fmt.Errorf("-unique expects key=preferences;default, got %q", value)
	}
	prefPart, defaultPart, _ := strings.Cut(rest, ";")

	var prefs []string
	if prefPart != "" {
		prefs = strings.Split(prefPart, ",")
	}
	if defaultPart == "" {
		defaultPart = "error"
	}
	f[key] = dataset.ClashRule{Preferences: prefs, Default: defaultPart}
	return nil
}

func main() {
	var dirTemplates, fileTemplates stringListFlag
	search := kvListFlag{}
	unique := uniqueListFlag{}

	flag.Var(&dirTemplates, "dir", "directory template, e.g. /data/{model}/{scenario}/ (repeatable)")
	flag.Var(&fileTemplates, "file", "file template, e.g. {var}_{year}.nc (repeatable)")
	flag.Var(search, "select", "key=value search filter (repeatable)")
	flag.Var(unique, "unique", "key=pref1,pref2;default clash rule (repeatable)")
	exact := flag.Bool("exact", false, "require exact (non-substring) matches")
	showFiles := flag.Bool("files", false, "print resolved files instead of coordinates")
	flag.Parse()

	if len(dirTemplates) == 0 || len(fileTemplates) == 0 {
		fmt.Println("Usage: datasetctl -dir <template> [-dir <template> ...] -file <template> [-file <template> ...] [-select key=value] [-unique key=prefs;default] [-exact] [-files]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	collection, err := dataset.FilterAll(dirTemplates, fileTemplates, map[string]dataset.ClashRule(unique), *exact, map[string][]string(search))
	if err != nil {
		fmt.Printf("Error discovering datasets: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Datasets found: %d\n\n", collection.Len())

	logger := logging.NewLogger(logging.InfoLevel, os.Stderr)
	m := metrics.New()

	if *showFiles {
		printFiles(collection, logger, m)
		return
	}
	printCoordinates(collection)
}

func printCoordinates(collection *dataset.Collection) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	keys := map[string]bool{}
	for _, ds := range collection.All() {
		for k := range ds.Data {
			keys[k] = true
		}
	}
	var ordered []string
	for k := range keys {
		ordered = append(ordered, k)
	}

	fmt.Fprintln(w, strings.Join(append(ordered, "roots"), "\t"))
	for _, ds := range collection.All() {
		row := make([]string, 0, len(ordered)+1)
		for _, k := range ordered {
			row = append(row, ds.Data[k])
		}
		row = append(row, strings.Join(ds.Roots, ";"))
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
}

// printFiles resolves each Dataset's files one at a time (rather than
// via Collection.GetFiles, which returns only the flattened paths),
// logging and counting every clash resolution it surfaces along the way.
func printFiles(collection *dataset.Collection, logger *logging.Logger, m *metrics.Metrics) {
	for _, ds := range collection.All() {
		files, err := ds.GetFiles()
		if err != nil {
			var unresolved *dataset.UnresolvedClashError
			if errors.As(err, &unresolved) {
				m.RecordClashUnresolved(unresolved.Key)
			}
			fmt.Printf("Error resolving files: %v\n", err)
			os.Exit(1)
		}

		for _, notice := range ds.Notices() {
			logger.LogClashResolution(notice.Key, notice.WinnerPath, notice.WinnerValue, notice.LoserPath, notice.LoserValue)
			m.RecordClashResolved(notice.Key)
		}

		for _, f := range files {
			fmt.Println(f)
		}
	}
}
