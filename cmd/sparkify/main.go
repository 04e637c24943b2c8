// Command sparkify runs the full song-play ETL: it reads the raw catalog and
// event-log JSON, derives the five star-schema tables, and persists them to
// the configured sink. Exit code 0 means all five tables were written; any
// failure exits non-zero and may leave a mix of fresh and stale tables.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jrwils/sparkify-datalake/internal/config"
	"github.com/jrwils/sparkify-datalake/internal/metrics"
	"github.com/jrwils/sparkify-datalake/internal/metrics/prompush"
	"github.com/jrwils/sparkify-datalake/internal/pipeline"
	"github.com/jrwils/sparkify-datalake/internal/storage"

	// register all storage backends with the factory; the config selects
	// which one a run uses.
	_ "github.com/jrwils/sparkify-datalake/internal/storage/all"
)

func main() {
	var (
		cfgPath        string
		validate       bool
		verbose        bool
		metricsBackend string
		pushGatewayURL string
	)

	flag.StringVar(&cfgPath, "config", "configs/pipeline.json", "pipeline config JSON path")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	flag.BoolVar(&verbose, "v", false, "enable verbose (development) logging")
	flag.StringVar(&metricsBackend, "metrics-backend", "", "metrics backend (pushgateway, none; defaults to METRICS_BACKEND)")
	flag.StringVar(&pushGatewayURL, "pushgateway-url", "", "Pushgateway base URL (defaults to PUSHGATEWAY_URL, then http://localhost:9091)")
	flag.Parse()

	log, err := newLogger(verbose)
	if err != nil {
		fatalf("init logger: %v", err)
	}
	defer log.Sync()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}

	issues := config.ValidatePipeline(cfg)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		fatalf("configuration is invalid: %s", cfgPath)
	}
	if validate {
		log.Info("configuration is valid", zap.String("path", cfgPath))
		return
	}

	setupMetrics(log, cfg.Job, metricsBackend, pushGatewayURL)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush", zap.Error(err))
		}
	}()

	// The credential pair is read once here and handed to the storage
	// bootstrap only; it is never logged.
	creds, err := storage.LoadCredentials()
	if err != nil {
		fatalf("%v", err)
	}

	ctx := context.Background()

	writer, err := storage.Open(ctx, storage.Config{
		Kind:        cfg.Storage.Kind,
		Root:        cfg.Storage.Parquet.Root,
		DSN:         cfg.Storage.DB.DSN,
		Credentials: creds,
		Logger:      log,
	})
	if err != nil {
		fatalf("%v", err)
	}
	defer writer.Close()

	p, err := pipeline.New(cfg, writer, log)
	if err != nil {
		fatalf("%v", err)
	}

	log.Info("starting run",
		zap.String("job", cfg.Job),
		zap.String("storage", cfg.Storage.Kind),
		zap.String("song_data", cfg.Input.SongData),
		zap.String("log_data", cfg.Input.LogData),
	)

	if err := p.Run(ctx); err != nil {
		log.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

// newLogger builds the process logger: production JSON output by default,
// human-readable development output with -v.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// setupMetrics resolves the metrics backend: flag, then environment, then
// disabled. An init failure downgrades to the nop backend rather than
// blocking the run.
func setupMetrics(log *zap.Logger, job, backendName, gatewayURL string) {
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		if gatewayURL == "" {
			gatewayURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gatewayURL == "" {
			gatewayURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(job, gatewayURL)
		if err != nil {
			log.Warn("metrics backend init failed, metrics disabled", zap.Error(err))
			return
		}
		metrics.SetBackend(b)
		log.Info("metrics enabled", zap.String("backend", backendName), zap.String("url", gatewayURL))
	case "", "none":
		// metrics disabled; nop backend remains
	default:
		log.Warn("unknown metrics backend, metrics disabled", zap.String("backend", backendName))
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
