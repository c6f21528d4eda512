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

func newImportCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load content from JSON snapshot files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.Setup(cfg.LogLevel)

			if dir == "" {
				dir = cfg.ExportDir
			}

			db, err := database.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			importer := export.NewImporter(
				store.NewBookStore(db),
				store.NewSeriesStore(db),
				store.NewWorldStore(db),
				store.NewCharacterStore(db),
				dir,
				logger.With("component", "import"),
			)

			n, err := importer.Run()
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			logger.Info("import complete", "rows", n, "dir", dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "snapshot directory (defaults to the export dir)")
	return cmd
}
