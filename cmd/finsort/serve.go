package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/finsort/finsort/internal/api"
	"github.com/finsort/finsort/internal/engine"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the categorization API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			addr, _ := cmd.Flags().GetString("address")
			if addr == "" {
				addr = viper.GetString("server.address")
			}

			server := api.NewServer(store, newAssigner(store), engine.NewAutoCategorizer(store))
			slog.Info("serving categorization API", "address", addr)
			return server.Run(addr)
		},
	}

	cmd.Flags().String("address", "", "listen address (default from server.address config)")

	return cmd
}
