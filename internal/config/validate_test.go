package config

import (
	"strings"
	"testing"
)

func valid() Pipeline {
	return Pipeline{
		Job:     "sparkify",
		Input:   Input{SongData: "in/song_data", LogData: "in/log_data"},
		Storage: Storage{Kind: "parquet", Parquet: ParquetConfig{Root: "out"}},
		Time:    TimeConfig{Zone: "UTC"},
		Keys:    Keys{Mode: "random"},
	}
}

func errorsAt(issues []Issue, path string) bool {
	for _, i := range issues {
		if i.Severity == SeverityError && i.Path == path {
			return true
		}
	}
	return false
}

func TestValidatePipeline_CleanConfig(t *testing.T) {
	for _, i := range ValidatePipeline(valid()) {
		if i.Severity == SeverityError {
			t.Fatalf("unexpected error: %v", i)
		}
	}
}

func TestValidatePipeline_Errors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Pipeline)
		path   string
	}{
		{"missing song_data", func(p *Pipeline) { p.Input.SongData = "" }, "input.song_data"},
		{"missing log_data", func(p *Pipeline) { p.Input.LogData = "" }, "input.log_data"},
		{"missing storage kind", func(p *Pipeline) { p.Storage.Kind = "" }, "storage.kind"},
		{"parquet without root", func(p *Pipeline) { p.Storage.Parquet.Root = "" }, "storage.parquet.root"},
		{"postgres without dsn", func(p *Pipeline) { p.Storage.Kind = "postgres" }, "storage.db.dsn"},
		{"bad zone", func(p *Pipeline) { p.Time.Zone = "Mars/Olympus" }, "time.zone"},
		{"bad key mode", func(p *Pipeline) { p.Keys.Mode = "sequential" }, "keys.mode"},
		{"negative attempts", func(p *Pipeline) { p.Runtime.WriteAttempts = -1 }, "runtime.write_attempts"},
	}

	for _, c := range cases {
		p := valid()
		c.mutate(&p)
		if issues := ValidatePipeline(p); !errorsAt(issues, c.path) {
			t.Errorf("%s: no error at %s (issues: %v)", c.name, c.path, issues)
		}
	}
}

func TestValidatePipeline_Warnings(t *testing.T) {
	p := valid()
	p.Job = " "
	p.Storage.Kind = "duckdb"

	var warned []string
	for _, i := range ValidatePipeline(p) {
		if i.Severity == SeverityWarning {
			warned = append(warned, i.Path)
		}
	}
	got := strings.Join(warned, ",")
	if !strings.Contains(got, "job") || !strings.Contains(got, "storage.kind") {
		t.Fatalf("warnings: %v", warned)
	}
}

func TestIssue_Error(t *testing.T) {
	i := Issue{Severity: SeverityError, Path: "storage.kind", Message: "storage kind is required"}
	if got := i.Error(); got != "error at storage.kind: storage kind is required" {
		t.Fatalf("Error() = %q", got)
	}
}
