package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/dkeye/Classroom/internal/adapters/tui"
	"github.com/spf13/cobra"
)

var tuiLogPath string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Shows the classroom in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		room, err := buildClassroom(ctx, cfg)
		if err != nil {
			return err
		}
		defer room.Close(context.Background())

		return tui.Run(ctx, tui.Options{
			Sessions: room.sessions,
			Roster:   room.roster,
			Role:     room.role,
			LocalID:  room.localID,
			Channel:  room.channel,
		}, tuiLogPath)
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().StringVar(&tuiLogPath, "log-file", "classroom-debug.log", "where logs go while the terminal view is up")
}
