package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abduss/filestore/internal/auth"
	"github.com/abduss/filestore/internal/config"
	"github.com/abduss/filestore/internal/file"
	"github.com/abduss/filestore/internal/logger"
	"github.com/abduss/filestore/internal/server"
	"github.com/abduss/filestore/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var envFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "filestore",
		Short:         "Authenticated file storage API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is fine; the environment may already be populated.
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			_, err := logger.Init()
			return err
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading configuration")

	rootCmd.AddCommand(newServeCmd(), newMigrateCmd(), newFilesCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending migrations before serving")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			ctx := cmd.Context()
			pool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()

			return storage.Migrate(ctx, pool)
		},
	}
}

func runServe(migrate bool) error {
	log := zap.L()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer dbPool.Close()

	if migrate {
		if err := storage.Migrate(ctx, dbPool); err != nil {
			return err
		}
	}

	objects, err := newObjectStore(ctx, cfg.ObjectStore)
	if err != nil {
		return err
	}

	redisClient := storage.NewRedisClient(cfg.Redis)
	defer redisClient.Close()

	authService := auth.NewService(auth.NewRepository(dbPool), cfg.Auth)
	fileService := newFileService(dbPool, objects, cfg, log)

	router := server.NewRouter(server.Dependencies{
		Config:      cfg,
		Logger:      log,
		DB:          dbPool,
		Cache:       storage.NewRedisPinger(redisClient),
		ObjectStore: objects,
		AuthService: authService,
		FileService: fileService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("filestore API listening",
			zap.String("addr", cfg.Server.Address()),
			zap.String("object_store", cfg.ObjectStore.Driver))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown error", zap.Error(err))
	}
	return nil
}

type objectStore interface {
	file.ObjectStore
	server.Pinger
}

func newObjectStore(ctx context.Context, cfg config.ObjectStoreConfig) (objectStore, error) {
	switch cfg.Driver {
	case config.DriverS3:
		client, err := storage.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("connect s3: %w", err)
		}
		return file.NewS3Store(client, cfg.Bucket), nil
	default:
		client, err := storage.NewMinIOClient(cfg.MinIO)
		if err != nil {
			return nil, fmt.Errorf("connect minio: %w", err)
		}
		if err := storage.EnsureBucket(ctx, client, cfg.Bucket, cfg.MinIO.Region); err != nil {
			return nil, fmt.Errorf("ensure bucket: %w", err)
		}
		return file.NewMinIOStore(client, cfg.Bucket), nil
	}
}

func newFileService(pool *pgxpool.Pool, objects file.ObjectStore, cfg config.Config, log *zap.Logger) *file.Service {
	return file.NewService(file.NewRepository(pool), objects, cfg.ObjectStore.Bucket, file.Options{
		MaxFileSize:      cfg.Files.MaxUploadBytes,
		DefaultListLimit: cfg.Files.DefaultListLimit,
		Paths:            file.PathPolicy{RejectUnsafe: cfg.Files.RejectUnsafePaths},
		EnforceOwnership: cfg.Files.EnforceOwnership,
	}, log)
}
