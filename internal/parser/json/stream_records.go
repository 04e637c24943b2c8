// Package jsonparser provides the streaming JSON record reader used by the
// pipeline for both raw input families (catalog files and the event log).
//
// Raw files come in three shapes, all of which must parse identically:
//
//   - a single object:        { ... }            (catalog files)
//   - a root array of objects: [ {...}, {...} ]
//   - NDJSON / JSONL:          one object per line (event log files)
//
// Records stream into a channel so that large inputs never materialize in
// memory; decoding is strict in the sense that any malformed value aborts the
// run rather than skipping the record.
package jsonparser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// StreamRecords decodes records of type T from r and sends them to out.
//
// The caller owns out and closes it after all sources are drained. A decode
// error is returned immediately; partially decoded records before the error
// have already been sent.
//
// The function is single-threaded by design: concurrency, if any, is layered
// above it by the pipeline (one reader per input file).
func StreamRecords[T any](ctx context.Context, r io.Reader, out chan<- T) error {
	dec := json.NewDecoder(r)

	emit := func(rec T) error {
		select {
		case out <- rec:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	// Decode the first top-level value as raw JSON to determine the shape.
	var root json.RawMessage
	if err := dec.Decode(&root); err != nil {
		if err == io.EOF {
			return nil // empty input
		}
		return fmt.Errorf("json: decode root: %w", err)
	}

	if err := emitValue(root, emit); err != nil {
		return err
	}

	// Any additional top-level values are NDJSON-style records.
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("json: decode subsequent value: %w", err)
		}
		if err := emitValue(raw, emit); err != nil {
			return err
		}
	}
}

// emitValue unmarshals a raw top-level value as either a single record or an
// array of records and forwards each to emit.
func emitValue[T any](raw json.RawMessage, emit func(T) error) error {
	if isArray(raw) {
		var recs []T
		if err := json.Unmarshal(raw, &recs); err != nil {
			return fmt.Errorf("json: decode array: %w", err)
		}
		for _, rec := range recs {
			if err := emit(rec); err != nil {
				return err
			}
		}
		return nil
	}

	var rec T
	if err := json.Unmarshal(raw, &rec); err != nil {
		return fmt.Errorf("json: decode record: %w", err)
	}
	return emit(rec)
}

// isArray reports whether the raw value's first non-space byte opens an array.
func isArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}
