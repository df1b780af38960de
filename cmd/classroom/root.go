package main

import (
	"os"

	"github.com/dkeye/Classroom/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	Channel  string
	User     uint32
	Identity string
	Provider string
}

var flags = rootFlags{}

var rootCmd = &cobra.Command{
	Use:   "classroom",
	Short: "Classroom video session with host, self and peer tiles",
	Long: `classroom joins an RTC channel as one participant, publishes the local
camera and microphone, and lays out the host, the self-view and the other
peers. Run "serve" for the HTTP view or "tui" for a terminal view.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.Channel, "channel", "", "channel to join, overrides channel_id")
	rootCmd.PersistentFlags().Uint32Var(&flags.User, "user", 0, "local user id, overrides user_id")
	rootCmd.PersistentFlags().StringVar(&flags.Identity, "identity", "", "host or guest, overrides identity")
	rootCmd.PersistentFlags().StringVar(&flags.Provider, "provider", "", "memory or pion, overrides rtc_provider")
}

// loadConfig reads the config and applies command line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	fs := cmd.Flags()
	if fs.Changed("channel") {
		cfg.ChannelID = flags.Channel
	}
	if fs.Changed("user") {
		cfg.UserID = flags.User
	}
	if fs.Changed("identity") {
		cfg.Identity = flags.Identity
	}
	if fs.Changed("provider") {
		cfg.RTCProvider = flags.Provider
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(cfg.Level())
	cfg.WatchLogLevel(zerolog.SetGlobalLevel)
	return cfg, nil
}
