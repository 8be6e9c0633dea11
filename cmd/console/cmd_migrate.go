package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/technosupport/ts-console/internal/data"
	"github.com/technosupport/ts-console/internal/db"
	"github.com/technosupport/ts-console/internal/incidents"
)

var (
	migrateDown  bool
	migrateSteps int
	migrateSeed  bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long:  "Applies the embedded schema migrations (all up by default) and optionally\nseeds the incidents table from the built-in fixtures.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sqlDB, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		mg, err := db.NewMigrator(sqlDB, cfg.Database.Driver)
		if err != nil {
			return err
		}
		dir := db.Up
		if migrateDown {
			dir = db.Down
		}
		if err := mg.Run(dir, migrateSteps); err != nil {
			return err
		}
		v, dirty, err := mg.Version()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", v, dirty)

		if migrateSeed && !migrateDown {
			n, err := data.IncidentModel{DB: sqlDB}.Seed(cmd.Context(), incidents.MustLoadCatalog())
			if err != nil {
				return err
			}
			log.Info().Int("incidents", n).Msg("fixtures seeded")
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "roll back instead of applying")
	migrateCmd.Flags().IntVar(&migrateSteps, "steps", 0, "apply +/- n steps instead of all")
	migrateCmd.Flags().BoolVar(&migrateSeed, "seed", true, "seed incidents after migrating up")
}
