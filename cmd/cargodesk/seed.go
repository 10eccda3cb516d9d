package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/freightwise/cargodesk/internal/config"
	"github.com/freightwise/cargodesk/internal/seed"
	"github.com/freightwise/cargodesk/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo master data into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configDir)
		if err != nil {
			return err
		}
		ctx := context.Background()
		db, err := store.OpenSQLite(ctx, cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		return seed.Run(ctx, db)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
