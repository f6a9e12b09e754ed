/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/shiftnotes/apiserver/config"
	"github.com/shiftnotes/apiserver/internal/db"
	"github.com/shiftnotes/apiserver/internal/server"
	"github.com/shiftnotes/apiserver/internal/services"
	"github.com/shiftnotes/apiserver/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// janitorCmd runs the out-of-band cleanup worker that reclaims remote
// blobs whose delete failed during a user-facing operation.
var janitorCmd = &cobra.Command{
	Use:   "janitor",
	Short: "Consume the cleanup queue and reclaim orphaned blobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		if cfg.MQ.Backend == config.MQBackendNone {
			return errors.New("MQ_BACKEND must be configured for the janitor")
		}

		logger, err := zap.NewProduction()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		blobs, err := server.NewBlobStorage(cfg.Storage)
		if err != nil {
			return err
		}

		queue, err := server.NewCleanupQueue(cmd.Context(), cfg.MQ)
		if err != nil {
			return err
		}
		defer queue.Close()

		janitor := services.NewJanitor(
			store.NewUserRepository(dbConn),
			blobs,
			queue,
			cfg.MQ.CleanupChannel,
			logger,
		)

		logger.Info("janitor consuming", zap.String("channel", cfg.MQ.CleanupChannel))
		return janitor.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(janitorCmd)
}
