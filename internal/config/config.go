package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dkeye/Classroom/internal/domain"
	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/pion/randutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	ProviderMemory = "memory"
	ProviderPion   = "pion"

	secretRunes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var (
	ErrUnknownProvider = errors.New("unknown rtc provider")
	ErrNoSignalURL     = errors.New("pion provider needs signal_url")
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`
	LogLevel   string        `mapstructure:"log_level"`

	AppID       string   `mapstructure:"app_id"`
	RTCProvider string   `mapstructure:"rtc_provider"`
	SignalURL   string   `mapstructure:"signal_url"`
	ICEServers  []string `mapstructure:"ice_servers"`

	CaptureVideo string `mapstructure:"capture_video"`
	CaptureAudio string `mapstructure:"capture_audio"`
	CaptureFPS   int    `mapstructure:"capture_fps"`

	UserID    uint32   `mapstructure:"user_id"`
	ChannelID string   `mapstructure:"channel_id"`
	Identity  string   `mapstructure:"identity"`
	Username  string   `mapstructure:"username"`
	DemoPeers []uint32 `mapstructure:"demo_peers"`

	DatabaseURL   string        `mapstructure:"database_url"`
	RosterRefresh time.Duration `mapstructure:"roster_refresh"`

	ActionLimit    int           `mapstructure:"action_limit"`
	ActionInterval time.Duration `mapstructure:"action_interval"`

	v *viper.Viper
}

// Load reads .env, then config/config.<CONFIG_ENV>.yaml, then CLASSROOM_*
// environment variables, each overriding the previous.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("module", "config").Msg("failed to read .env")
	}

	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("CLASSROOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("app_id", "")
	v.SetDefault("rtc_provider", ProviderMemory)
	v.SetDefault("signal_url", "")
	v.SetDefault("ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("capture_video", "")
	v.SetDefault("capture_audio", "")
	v.SetDefault("capture_fps", 30)
	v.SetDefault("user_id", 1)
	v.SetDefault("channel_id", "classroom")
	v.SetDefault("identity", string(domain.RoleGuest))
	v.SetDefault("username", "")
	v.SetDefault("demo_peers", []uint32{})
	v.SetDefault("database_url", "")
	v.SetDefault("roster_refresh", "30s")
	v.SetDefault("action_limit", 5)
	v.SetDefault("action_interval", "10s")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.v = v

	if cfg.Secret == "" {
		secret, err := randutil.GenerateCryptoRandomString(32, secretRunes)
		if err != nil {
			return nil, fmt.Errorf("generate secret: %w", err)
		}
		cfg.Secret = secret
		log.Warn().Str("module", "config").Msg("no secret configured, cookies will not survive a restart")
	}

	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("provider", cfg.RTCProvider).
		Str("channel", cfg.ChannelID).
		Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	if _, err := c.Role(); err != nil {
		return err
	}
	if _, err := c.Channel(); err != nil {
		return err
	}
	if _, err := c.LocalID(); err != nil {
		return err
	}
	switch c.RTCProvider {
	case ProviderMemory:
	case ProviderPion:
		if c.SignalURL == "" {
			return ErrNoSignalURL
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.RTCProvider)
	}
	return nil
}

func (c *Config) Role() (domain.Role, error) { return domain.ParseRole(c.Identity) }

func (c *Config) Channel() (domain.ChannelID, error) { return domain.NewChannelID(c.ChannelID) }

func (c *Config) LocalID() (domain.StreamID, error) {
	if c.UserID == 0 {
		return 0, domain.ErrStreamIDZero
	}
	return domain.StreamID(c.UserID), nil
}

// Level parses log_level; anything unparsable is info.
func (c *Config) Level() zerolog.Level {
	return parseLevel(c.LogLevel)
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// WatchLogLevel re-reads log_level whenever the config file changes.
func (c *Config) WatchLogLevel(apply func(zerolog.Level)) {
	if c.v == nil || c.v.ConfigFileUsed() == "" {
		return
	}
	c.v.OnConfigChange(func(e fsnotify.Event) {
		lvl := parseLevel(c.v.GetString("log_level"))
		log.Info().Str("module", "config").Str("file", e.Name).Str("level", lvl.String()).Msg("config changed")
		apply(lvl)
	})
	c.v.WatchConfig()
}
