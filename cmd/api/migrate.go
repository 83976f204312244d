package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the lead store's tables and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cfg.Store)
		if err != nil {
			return err
		}
		defer func() { _ = st.close(context.Background()) }()

		if st.schema == nil {
			zap.L().Info("store has no schema to migrate", zap.String("driver", cfg.Store.Driver))
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.Store.Timeout)
		defer cancel()
		if err := st.schema.EnsureSchema(ctx); err != nil {
			return eris.Wrap(err, "migrate")
		}
		zap.L().Info("schema ready", zap.String("driver", cfg.Store.Driver))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
