// This file adds a lightweight linter for Pipeline values. It performs static
// checks over a decoded Pipeline and returns a list of issues (errors and
// warnings) that callers can surface in the CLI or in tests.
package config

import (
	"fmt"
	"strings"

	"github.com/jrwils/sparkify-datalake/internal/timeconv"
	"github.com/jrwils/sparkify-datalake/internal/transform"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates an issue that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates an issue that should be surfaced to users but
	// does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Pipeline. Path is a
// dotted path into the config (e.g. "storage.kind").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error where needed.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline performs static validation of a Pipeline without mutating
// it. Callers decide whether warnings are fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; metrics and logs will use a generic run name",
		})
	}

	if p.Input.SongData == "" {
		issues = append(issues, Issue{SeverityError, "input.song_data", "catalog input root is required"})
	}
	if p.Input.LogData == "" {
		issues = append(issues, Issue{SeverityError, "input.log_data", "event log input root is required"})
	}

	issues = append(issues, validateStorage(p.Storage)...)

	if _, err := timeconv.Location(p.Time.Zone); err != nil {
		issues = append(issues, Issue{SeverityError, "time.zone", err.Error()})
	}
	if _, err := transform.KeyGenerator(p.Keys.Mode); err != nil {
		issues = append(issues, Issue{SeverityError, "keys.mode", err.Error()})
	}
	if p.Runtime.WriteAttempts < 0 {
		issues = append(issues, Issue{SeverityError, "runtime.write_attempts", "must be >= 0"})
	}

	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue
	switch s.Kind {
	case "":
		issues = append(issues, Issue{SeverityError, "storage.kind", "storage kind is required"})
	case "parquet":
		if s.Parquet.Root == "" {
			issues = append(issues, Issue{SeverityError, "storage.parquet.root", "output root is required for the parquet backend"})
		}
	case "postgres":
		if s.DB.DSN == "" {
			issues = append(issues, Issue{SeverityError, "storage.db.dsn", "dsn is required for the postgres backend"})
		}
	default:
		// Unknown kinds are a warning here; storage.Open rejects them with
		// the authoritative list of registered backends.
		issues = append(issues, Issue{SeverityWarning, "storage.kind", fmt.Sprintf("unrecognized kind %q", s.Kind)})
	}
	return issues
}
