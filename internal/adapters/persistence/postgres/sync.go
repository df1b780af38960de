package postgres

import (
	"context"
	"time"

	"github.com/dkeye/Classroom/internal/core"
	"github.com/dkeye/Classroom/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Loader interface {
	Load(ctx context.Context, channel domain.ChannelID) ([]domain.Member, error)
}

// Syncer merges a channel's stored roster into a MemberDirectory. Stored
// rows set identity and username; members only the live source knows
// about are kept.
type Syncer struct {
	loader  Loader
	roster  core.MemberDirectory
	channel domain.ChannelID
	every   time.Duration
	logger  zerolog.Logger
}

func NewSyncer(loader Loader, roster core.MemberDirectory, channel domain.ChannelID, every time.Duration) *Syncer {
	return &Syncer{
		loader:  loader,
		roster:  roster,
		channel: channel,
		every:   every,
		logger:  log.With().Str("module", "adapters.postgres").Str("channel", channel.String()).Logger(),
	}
}

// Sync loads once. On error the roster keeps its previous members.
func (s *Syncer) Sync(ctx context.Context) error {
	members, err := s.loader.Load(ctx, s.channel)
	if err != nil {
		return err
	}
	for _, m := range members {
		s.roster.Upsert(m)
	}
	s.logger.Debug().Int("members", len(members)).Msg("roster synced")
	return nil
}

// Run syncs now and then every period until ctx is done. A zero period
// syncs once.
func (s *Syncer) Run(ctx context.Context) {
	if err := s.Sync(ctx); err != nil {
		s.logger.Error().Err(err).Msg("roster sync failed")
	}
	if s.every <= 0 {
		return
	}
	t := time.NewTicker(s.every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("roster sync stopped")
			return
		case <-t.C:
			if err := s.Sync(ctx); err != nil {
				s.logger.Error().Err(err).Msg("roster sync failed")
			}
		}
	}
}
