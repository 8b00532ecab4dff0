package commands

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/shelf/internal/logger"
	"github.com/marmos91/shelf/internal/telemetry"
	"github.com/marmos91/shelf/pkg/config"
	"github.com/marmos91/shelf/pkg/gateway"
	"github.com/marmos91/shelf/pkg/metrics"
	"github.com/marmos91/shelf/pkg/s3api"
)

var (
	serveHost      string
	servePort      int
	serveAccessKey string
	serveSecretKey string
	serveDomains   []string
)

var serveCmd = &cobra.Command{
	Use:   "serve ROOT",
	Short: "Serve the S3 API over a directory",
	Long: `Start the Shelf server with ROOT as the storage root. Buckets are
directories directly under ROOT; objects are the files inside them.

With --access-key and --secret-key every request must carry a valid AWS
Signature Version 4. Without them the server answers anonymously.

Each --domain enables virtual-host-style addressing for that domain:
a request for bucket.s3.example.com is served as /bucket.

Examples:
  # Anonymous server on the default port
  shelf serve /srv/shelf

  # Authenticated, custom port
  shelf serve /srv/shelf --port 9000 --access-key AKID --secret-key SECRET

  # Virtual-host addressing
  shelf serve /srv/shelf --domain s3.example.com

  # Environment variable overrides
  SHELF_DATASOURCE_DRIVER=sqlite SHELF_DATASOURCE_PATH=/srv/catalog.db shelf serve /srv/shelf`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen address (default: localhost)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default: 8014)")
	serveCmd.Flags().StringVar(&serveAccessKey, "access-key", "", "access key ID for SigV4 authentication")
	serveCmd.Flags().StringVar(&serveSecretKey, "secret-key", "", "secret access key for SigV4 authentication")
	serveCmd.Flags().StringArrayVar(&serveDomains, "domain", nil, "domain for virtual-host-style addressing (repeatable)")
}

func runServe(cmd *cobra.Command, args []string) error {
	root := args[0]

	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}
	applyServeFlags(cmd, cfg)

	if (cfg.Server.AccessKey == "") != (cfg.Server.SecretKey == "") {
		return fmt.Errorf("--access-key and --secret-key must be provided together")
	}
	for _, domain := range cfg.Server.Domains {
		if strings.Contains(domain, "/") {
			return fmt.Errorf("invalid domain %q: must not contain a path", domain)
		}
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Cancelled on SIGINT/SIGTERM; everything below shuts down off this.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "shelf",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Profiling.Enabled,
		ServiceName:    "shelf",
		ServiceVersion: Version,
		Endpoint:       cfg.Profiling.Endpoint,
		ProfileTypes:   cfg.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	cat, err := config.OpenCatalog(ctx, cfg.Datasource)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() {
		if err := cat.Close(); err != nil {
			logger.Error("catalog close error", logger.Err(err))
		}
	}()

	gw, err := gateway.New(root, cat)
	if err != nil {
		return fmt.Errorf("failed to initialize storage root: %w", err)
	}

	var s3Metrics *metrics.S3Metrics
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		metrics.RegisterCapacity(gw.Root())
		s3Metrics = metrics.NewS3Metrics()
		metricsServer = metrics.NewServer(cfg.Metrics.Listen)
	}

	logger.Info("Shelf starting",
		"version", Version,
		logger.Path(gw.Root()),
		logger.Driver(cfg.Datasource.Driver))

	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server error", logger.Err(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := metricsServer.Stop(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown error", logger.Err(err))
			}
		}()
	}

	server := s3api.NewServer(cfg.Server, gw, s3Metrics)
	if err := server.Start(ctx); err != nil {
		return err
	}

	logger.Info("Shelf stopped")
	return nil
}

// applyServeFlags overrides file/env configuration with explicitly set
// flags. Flags win over every other source.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("access-key") {
		cfg.Server.AccessKey = serveAccessKey
	}
	if cmd.Flags().Changed("secret-key") {
		cfg.Server.SecretKey = serveSecretKey
	}
	if cmd.Flags().Changed("domain") {
		cfg.Server.Domains = serveDomains
	}
}
