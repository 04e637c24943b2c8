// Package source resolves raw input locations into the set of JSON files a
// run reads. The catalog lives in a nested directory tree (one record per
// file) and the event log is a flat directory of NDJSON files, so listing is
// always recursive.
package source

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// List returns every *.json file under root, recursively, in lexical order.
// A root with no JSON files is an error: an empty input family almost always
// means a misconfigured path, and silently producing five empty tables would
// mask it.
func List(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("source: walk %s: %w", root, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("source: no JSON files under %s", root)
	}
	sort.Strings(files)
	return files, nil
}

// Open opens a single input file. The context parameter keeps the signature
// uniform with remote sources should an object-store implementation land.
func Open(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", path, err)
	}
	return f, nil
}
