package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rsheridan/inkwell/internal/config"
	"github.com/rsheridan/inkwell/internal/database"
	"github.com/rsheridan/inkwell/internal/export"
	"github.com/rsheridan/inkwell/internal/logging"
	"github.com/rsheridan/inkwell/internal/store"
)

func newExportCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write JSON snapshots of published content",
		Long: `Export writes one JSON file per entity table containing the published,
live rows, then resets the dirty flag. A run with a clean flag is a
no-op unless --force is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.Setup(cfg.LogLevel)

			db, err := database.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			state := store.NewExportStateStore(db)
			if force {
				if err := state.MarkDirty(); err != nil {
					return fmt.Errorf("force export: %w", err)
				}
			}

			var uploader export.Uploader
			s3cfg := export.S3Config{
				Endpoint:  cfg.S3Endpoint,
				Bucket:    cfg.S3Bucket,
				Region:    cfg.S3Region,
				AccessKey: cfg.S3AccessKey,
				SecretKey: cfg.S3SecretKey,
				Prefix:    cfg.S3Prefix,
			}
			if s3cfg.Configured() {
				uploader = export.NewS3Publisher(s3cfg)
			}

			exporter := export.NewExporter(
				store.NewBookStore(db),
				store.NewSeriesStore(db),
				store.NewWorldStore(db),
				store.NewCharacterStore(db),
				state,
				cfg.ExportDir,
				uploader,
				logger.With("component", "export"),
			)

			changed, err := exporter.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			if changed {
				logger.Info("export complete", "dir", cfg.ExportDir)
			} else {
				logger.Info("nothing to export")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "export even if the dirty flag is clean")
	return cmd
}
