package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/devfolio-dev/folio/internal/config"
	"github.com/devfolio-dev/folio/pkg/devserver"
	"github.com/devfolio-dev/folio/pkg/likestore"
	"github.com/devfolio-dev/folio/pkg/metrics"
	"github.com/devfolio-dev/folio/pkg/upload"
)

func serveCmd(load func() (*config.Config, error)) *cobra.Command {
	var (
		port int
		host string
		db   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dev API server",
		Long: `Start a local stand-in for the portfolio API.

Likes are stored in SQLite, or in PostgreSQL or MySQL when server.db is a
postgres:// or mysql:// URL. Images go to S3 when s3.bucket is set and to
server.uploadDir otherwise.

Examples:
  folio serve
  folio serve --port=9090 --db=:memory:`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if db != "" {
				cfg.Server.DB = db
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().StringVar(&db, "db", "", "Likes database: SQLite path, postgres:// or mysql:// URL (default from config)")

	return cmd
}

func runServe(cfg *config.Config) error {
	logger := cfg.NewLogger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	likes, err := likestore.Open(ctx, cfg.Server.DB)
	if err != nil {
		return err
	}
	defer likes.Close()

	store, err := openUploadStore(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(metrics.WithRegistry(reg))

	uploadCfg := upload.DefaultConfig()
	uploadCfg.MaxFileSize = cfg.Server.MaxUploadSize
	uploadCfg.Targets = cfg.Server.UploadTargets

	srv, err := devserver.New(devserver.Config{
		Addr:           cfg.Address(),
		ImageTags:      cfg.Editor.ImageTags,
		RefAttr:        cfg.Editor.RefAttr,
		RecordedAttr:   cfg.Editor.RecordedAttr,
		FieldName:      cfg.Editor.FieldName,
		MaxAttachments: cfg.Editor.MaxAttachments,
		SessionCache:   cfg.Server.SessionCache,
		Upload:         uploadCfg,
		UploadMaxAge:   cfg.UploadMaxAge(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, likes, store,
		devserver.WithLogger(logger),
		devserver.WithMetrics(m, reg),
	)
	if err != nil {
		return err
	}

	success("Serving on http://%s", cfg.Address())
	info("likes:   %s", cfg.Server.DB)
	if cfg.S3.Bucket != "" {
		info("uploads: s3://%s/%s", cfg.S3.Bucket, cfg.S3.Prefix)
	} else {
		info("uploads: %s", cfg.Server.UploadDir)
	}

	return srv.ListenAndServe(ctx)
}

func openUploadStore(cfg *config.Config) (upload.Store, error) {
	if cfg.S3.Bucket != "" {
		client := upload.NewS3Client(upload.S3ClientConfig{
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		return upload.NewS3Store(client, cfg.S3.Bucket, cfg.S3.Prefix, cfg.Server.MaxUploadSize), nil
	}
	return upload.NewDiskStore(cfg.Server.UploadDir,
		"http://"+cfg.Address()+devserver.DefaultUploadPath, cfg.Server.MaxUploadSize)
}
