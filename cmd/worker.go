/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/config"
	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/internal/mq"
	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/internal/services"
	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/internal/storage"
	"github.com/spf13/cobra"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consumes post events and releases images of deleted posts",
	Long: `Subscribes to the post events channel and deletes the stored image
of every deleted post. Requires MQ_BACKEND to be set. Usage:

	connectsphere worker
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		queue, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return fmt.Errorf("open mq: %w", err)
		}
		if queue == nil {
			return errors.New("MQ_BACKEND is not configured")
		}
		defer queue.Close()

		objects, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}

		slog.Info("worker consuming post events", "channel", cfg.MQ.PostEventsChannel, "mq", cfg.MQ.Backend)
		err = queue.Subscribe(ctx, cfg.MQ.PostEventsChannel, services.ImageReleaser(objects))
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
