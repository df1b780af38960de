package main

import (
	"context"
	"fmt"

	"github.com/dkeye/Classroom/internal/adapters/persistence/postgres"
	"github.com/dkeye/Classroom/internal/adapters/rtc/memory"
	"github.com/dkeye/Classroom/internal/adapters/rtc/pion"
	"github.com/dkeye/Classroom/internal/app/session"
	"github.com/dkeye/Classroom/internal/config"
	"github.com/dkeye/Classroom/internal/core"
	"github.com/dkeye/Classroom/internal/domain"
	"github.com/rs/zerolog/log"
)

// classroom is everything one participant needs, built from config.
type classroom struct {
	sessions *session.Controller
	roster   *core.Roster
	store    *postgres.RosterStore
	role     domain.Role
	localID  domain.StreamID
	channel  domain.ChannelID

	closers []func()
}

// Close releases the session first, then peers and the database.
func (c *classroom) Close(ctx context.Context) {
	if c.sessions != nil {
		if err := c.sessions.Close(ctx); err != nil {
			log.Warn().Err(err).Str("module", "main").Msg("session close")
		}
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func buildClassroom(ctx context.Context, cfg *config.Config) (*classroom, error) {
	role, _ := cfg.Role()
	localID, _ := cfg.LocalID()
	channel, _ := cfg.Channel()

	c := &classroom{
		roster:  core.NewRoster(domain.NewMember(localID, role, cfg.Username)),
		role:    role,
		localID: localID,
		channel: channel,
	}

	var provider core.RTCProvider
	switch cfg.RTCProvider {
	case config.ProviderPion:
		provider = pion.NewProvider(pion.Config{
			SignalURL:  cfg.SignalURL,
			ICEServers: cfg.ICEServers,
			PingPeriod: cfg.PingPeriod,
			Directory:  c.roster,
			Capture: pion.Capture{
				VideoFile: cfg.CaptureVideo,
				AudioFile: cfg.CaptureAudio,
				FPS:       cfg.CaptureFPS,
			},
		})
	default:
		mem := memory.NewProvider(cfg.AppID)
		if err := c.seedDemo(ctx, mem, cfg.DemoPeers); err != nil {
			c.Close(ctx)
			return nil, err
		}
		provider = mem
	}

	if cfg.DatabaseURL != "" {
		if err := c.attachStore(ctx, cfg); err != nil {
			c.Close(ctx)
			return nil, err
		}
	}

	c.sessions = session.NewController(provider, session.Options{
		AppID: cfg.AppID,
		OnReady: func(ready bool) {
			log.Info().Str("module", "main").Bool("ready", ready).Msg("rtc ready")
		},
	})
	return c, nil
}

// seedDemo puts simulated peers into the channel. The first one hosts
// unless the local user does.
func (c *classroom) seedDemo(ctx context.Context, p *memory.Provider, uids []uint32) error {
	for i, raw := range uids {
		uid := domain.StreamID(raw)
		if uid == 0 || uid == c.localID {
			continue
		}
		role := domain.RoleGuest
		if i == 0 && !c.role.IsHost() {
			role = domain.RoleHost
		}
		peer, err := p.JoinPeer(ctx, c.channel, uid)
		if err != nil {
			return fmt.Errorf("demo peer %d: %w", uid, err)
		}
		c.roster.Upsert(domain.NewMember(uid, role, "demo-"+uid.String()))
		c.closers = append(c.closers, func() { _ = peer.Leave(context.Background()) })
	}
	log.Info().Str("module", "main").Int("peers", len(uids)).Msg("demo peers joined")
	return nil
}

func (c *classroom) attachStore(ctx context.Context, cfg *config.Config) error {
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	c.closers = append(c.closers, pool.Close)

	store := postgres.NewRosterStore(pool)
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	c.store = store

	syncer := postgres.NewSyncer(store, c.roster, c.channel, cfg.RosterRefresh)
	if err := syncer.Sync(ctx); err != nil {
		log.Warn().Err(err).Str("module", "main").Msg("initial roster load failed")
	}
	syncCtx, cancel := context.WithCancel(context.Background())
	go syncer.Run(syncCtx)
	c.closers = append(c.closers, cancel)
	return nil
}
