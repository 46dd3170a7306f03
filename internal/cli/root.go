// Package cli provides the command-line interface for imgbatch.
package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phambaophuc/imgbatch/internal/config"
	"github.com/phambaophuc/imgbatch/internal/http/handlers"
	"github.com/phambaophuc/imgbatch/internal/http/server"
	"github.com/phambaophuc/imgbatch/internal/services/batch"
	"github.com/phambaophuc/imgbatch/internal/services/queue"
	"github.com/phambaophuc/imgbatch/internal/services/report"
	"github.com/phambaophuc/imgbatch/internal/services/storage"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// ErrItemsFailed is returned when the batch completed but some items
	// could not be converted or uploaded.
	ErrItemsFailed = errors.New("some items failed")
)

type flags struct {
	envFile    string
	source     string
	bucket     string
	driver     string
	workers    int
	keyMode    string
	keyPrefix  string
	statusAddr string
}

// NewRootCommand builds the imgbatch command.
func NewRootCommand() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "imgbatch",
		Short: "Convert a directory tree of images to WebP and upload them",
		Long: `imgbatch walks a source directory, converts every jpg/jpeg/png/gif file it
finds to WebP next to the original, and uploads each WebP file to an object
store bucket (S3, MinIO or Supabase Storage).

Settings come from the environment or a .env file; flags override them.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.envFile, "env-file", "", "env file to load instead of .env")
	cmd.Flags().StringVar(&f.source, "source", "", "source directory (SOURCE_PATH)")
	cmd.Flags().StringVar(&f.bucket, "bucket", "", "destination bucket (STORE_BUCKET)")
	cmd.Flags().StringVar(&f.driver, "driver", "", "store driver: s3, minio or supabase (STORE_DRIVER)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "concurrent units, 0 for unbounded (WORKERS)")
	cmd.Flags().StringVar(&f.keyMode, "key-mode", "", "object key derivation: flat or relative (KEY_MODE)")
	cmd.Flags().StringVar(&f.keyPrefix, "key-prefix", "", "prefix for every object key (KEY_PREFIX)")
	cmd.Flags().StringVar(&f.statusAddr, "status-addr", "", "serve live status on this address (STATUS_ADDR)")

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	var envFiles []string
	if f.envFile != "" {
		envFiles = append(envFiles, f.envFile)
	}

	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("source") {
		cfg.Source.Path = f.source
	}
	if changed("bucket") {
		cfg.Store.Bucket = f.bucket
	}
	if changed("driver") {
		cfg.Store.Driver = f.driver
	}
	if changed("workers") {
		cfg.Batch.Workers = f.workers
	}
	if changed("key-mode") {
		cfg.Batch.KeyMode = f.keyMode
	}
	if changed("key-prefix") {
		cfg.Batch.KeyPrefix = f.keyPrefix
	}
	if changed("status-addr") {
		cfg.Status.Addr = f.statusAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(cmd *cobra.Command, f *flags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewObjectStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	if !cfg.Store.SkipPreflight {
		if err := store.CheckBucket(ctx, cfg.Store.Bucket); err != nil {
			return fmt.Errorf("store is not reachable: %w", err)
		}
	}

	checks := map[string]handlers.HealthChecker{}
	var sinks []report.Sink
	if cfg.RabbitMQ.URL != "" {
		publisher, err := queue.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize queue publisher: %w", err)
		}
		defer publisher.Close()
		sinks = append(sinks, publisher)
		checks["rabbitmq"] = publisher.HealthCheck
	}

	b := batch.New(cfg, store, logger, sinks...)

	if cfg.Status.Addr != "" {
		statusServer, err := server.NewStatusServer(cfg.Status.Addr,
			handlers.NewStatusHandler(b.Reporter(), checks, logger), logger)
		if err != nil {
			return fmt.Errorf("failed to start status server: %w", err)
		}
		statusServer.Start()
		defer statusServer.Shutdown()
	}

	summary, err := b.Run(ctx)
	if err != nil {
		logger.Warn("Batch interrupted", zap.Error(err))
		return fmt.Errorf("batch interrupted: %w", err)
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrItemsFailed, summary.Failed, summary.Discovered)
	}
	return nil
}
