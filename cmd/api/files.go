package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/abduss/filestore/internal/config"
	"github.com/abduss/filestore/internal/file"
	"github.com/abduss/filestore/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newFilesCmd() *cobra.Command {
	filesCmd := &cobra.Command{
		Use:   "files",
		Short: "Administer file records",
		Long: `Administer file records directly against the metadata store.

Examples:
  # Let the owner download file 42
  filestore files allow-download 42

  # Remove a record whose object write failed
  filestore files drop-record 42`,
	}

	filesCmd.AddCommand(&cobra.Command{
		Use:   "allow-download <id>",
		Short: "Mark a file as downloadable",
		Args:  cobra.ExactArgs(1),
		RunE: withFileService(func(ctx context.Context, svc *file.Service, id int64) error {
			f, err := svc.SetDownloadable(ctx, id, true)
			if err != nil {
				return err
			}
			fmt.Printf("%d\t%s\tdownloadable\n", f.ID, f.Path)
			return nil
		}),
	})

	filesCmd.AddCommand(&cobra.Command{
		Use:   "deny-download <id>",
		Short: "Mark a file as not downloadable",
		Args:  cobra.ExactArgs(1),
		RunE: withFileService(func(ctx context.Context, svc *file.Service, id int64) error {
			f, err := svc.SetDownloadable(ctx, id, false)
			if err != nil {
				return err
			}
			fmt.Printf("%d\t%s\tlocked\n", f.ID, f.Path)
			return nil
		}),
	})

	filesCmd.AddCommand(&cobra.Command{
		Use:     "drop-record <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a file record without touching the object store",
		Args:    cobra.ExactArgs(1),
		RunE: withFileService(func(ctx context.Context, svc *file.Service, id int64) error {
			f, err := svc.DropRecord(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("%d\t%s\tdropped\n", f.ID, f.Path)
			return nil
		}),
	})

	return filesCmd
}

// withFileService parses the id argument and hands the command a file service
// backed by postgres. Object store access is never needed by these commands.
func withFileService(fn func(ctx context.Context, svc *file.Service, id int64) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid file id %q", args[0])
		}

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

		return fn(ctx, newFileService(pool, nil, cfg, zap.L()), id)
	}
}
