package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	router "github.com/dkeye/Classroom/internal/adapters/http"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the classroom view and controls over HTTP",
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

		opts := router.ClassroomOptions{
			Role:       room.role,
			LocalID:    room.localID,
			Channel:    room.channel,
			ReadLimit:  cfg.ReadLimit,
			PingPeriod: cfg.PingPeriod,
		}
		if room.store != nil {
			opts.Store = room.store
		}
		r := router.SetupRouter(ctx, cfg, router.NewClassroom(room.sessions, room.roster, opts))
		addr := fmt.Sprintf(":%d", cfg.Port)

		srv := &http.Server{
			Addr:    addr,
			Handler: r,
		}

		errc := make(chan error, 1)
		go func() {
			log.Info().Str("addr", addr).Str("channel", room.channel.String()).Msg("Classroom server started")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
		}()

		select {
		case <-ctx.Done():
		case err := <-errc:
			return err
		}
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		log.Info().Msg("Server exited gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
