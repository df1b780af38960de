// Package postgres persists classroom rosters in the classroom_members table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/dkeye/Classroom/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var ErrBadRow = errors.New("bad roster row")

const schema = `CREATE TABLE IF NOT EXISTS classroom_members (
	channel_id text   NOT NULL,
	user_id    bigint NOT NULL,
	identity   text   NOT NULL,
	username   text,
	PRIMARY KEY (channel_id, user_id)
)`

// DB is the part of pgxpool.Pool the store uses.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var _ DB = (*pgxpool.Pool)(nil)

// Connect opens a pool and checks it answers.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

type MemberRow struct {
	UserID   pgtype.Int8
	Identity pgtype.Text
	Username pgtype.Text
}

func (r MemberRow) Member() (domain.Member, error) {
	if !r.UserID.Valid || r.UserID.Int64 <= 0 || r.UserID.Int64 > math.MaxUint32 {
		return domain.Member{}, fmt.Errorf("%w: user id %d", ErrBadRow, r.UserID.Int64)
	}
	role, err := domain.ParseRole(r.Identity.String)
	if err != nil {
		return domain.Member{}, fmt.Errorf("%w: %w", ErrBadRow, err)
	}
	username := ""
	if r.Username.Valid {
		username = r.Username.String
	}
	return domain.NewMember(domain.StreamID(r.UserID.Int64), role, username), nil
}

func rowOf(m domain.Member) MemberRow {
	return MemberRow{
		UserID:   pgtype.Int8{Int64: int64(m.UserID), Valid: true},
		Identity: pgtype.Text{String: m.Identity.String(), Valid: true},
		Username: pgtype.Text{String: m.Username, Valid: m.Username != ""},
	}
}

type RosterStore struct {
	db DB
}

func NewRosterStore(db DB) *RosterStore {
	return &RosterStore{db: db}
}

func (s *RosterStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schema)
	return err
}

// Load returns the channel's members ordered by user id. Rows that do not
// make a valid member are logged and skipped.
func (s *RosterStore) Load(ctx context.Context, channel domain.ChannelID) ([]domain.Member, error) {
	rows, err := s.db.Query(ctx,
		`SELECT user_id, identity, username FROM classroom_members WHERE channel_id = $1 ORDER BY user_id`,
		channel.String())
	if err != nil {
		return nil, fmt.Errorf("query roster %s: %w", channel, err)
	}
	raw, err := pgx.CollectRows(rows, pgx.RowToStructByPos[MemberRow])
	if err != nil {
		return nil, fmt.Errorf("scan roster %s: %w", channel, err)
	}
	return membersOf(channel, raw), nil
}

func membersOf(channel domain.ChannelID, raw []MemberRow) []domain.Member {
	out := make([]domain.Member, 0, len(raw))
	for _, r := range raw {
		m, err := r.Member()
		if err != nil {
			log.Warn().Err(err).Str("module", "adapters.postgres").Str("channel", channel.String()).Msg("skip roster row")
			continue
		}
		out = append(out, m)
	}
	return out
}

func (s *RosterStore) Save(ctx context.Context, channel domain.ChannelID, m domain.Member) error {
	r := rowOf(m)
	_, err := s.db.Exec(ctx,
		`INSERT INTO classroom_members (channel_id, user_id, identity, username) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (channel_id, user_id) DO UPDATE SET identity = EXCLUDED.identity, username = EXCLUDED.username`,
		channel.String(), r.UserID, r.Identity, r.Username)
	if err != nil {
		return fmt.Errorf("save member %s/%s: %w", channel, m.UserID, err)
	}
	return nil
}

func (s *RosterStore) Delete(ctx context.Context, channel domain.ChannelID, id domain.StreamID) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM classroom_members WHERE channel_id = $1 AND user_id = $2`,
		channel.String(), int64(id))
	if err != nil {
		return fmt.Errorf("delete member %s/%s: %w", channel, id, err)
	}
	return nil
}
