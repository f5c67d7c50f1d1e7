package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"quizroom/internal/domain"
)

// LeaderboardMirror copies room broadcasts into Redis so external consoles can
// read standings without holding a websocket into the room.
// Keys:
//   - quizroom:leaderboard  ZSET nickname → score
//   - quizroom:ranks        HASH rank (1-based) → nickname, preserving tie order
//   - quizroom:status       STRING session status
//
// All keys carry a TTL and are rewritten on every update. The mirror is
// best-effort: a failed write is logged and the session never notices.
type LeaderboardMirror struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewLeaderboardMirror(client *redis.Client, ttl time.Duration, log zerolog.Logger) *LeaderboardMirror {
	return &LeaderboardMirror{client: client, ttl: ttl, log: log}
}

// Run consumes session events until the channel closes. Only leaderboard and
// status events are mirrored; everything else is dropped.
func (m *LeaderboardMirror) Run(events <-chan domain.Event) {
	for evt := range events {
		switch payload := evt.Payload.(type) {
		case []domain.LeaderboardEntry:
			m.writeLeaderboard(payload)
		case domain.StatusNotice:
			m.writeStatus(payload.Status)
		}
	}
}

func (m *LeaderboardMirror) writeLeaderboard(entries []domain.LeaderboardEntry) {
	ctx := context.Background()
	pipe := m.client.Pipeline()
	pipe.Del(ctx, keyLeaderboard, keyRanks)
	for i, entry := range entries {
		pipe.ZAdd(ctx, keyLeaderboard, redis.Z{Score: float64(entry.Score), Member: entry.Nickname})
		pipe.HSet(ctx, keyRanks, strconv.Itoa(i+1), entry.Nickname)
	}
	if m.ttl > 0 {
		pipe.Expire(ctx, keyLeaderboard, m.ttl)
		pipe.Expire(ctx, keyRanks, m.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		m.log.Warn().Err(err).Msg("leaderboard mirror write failed")
	}
}

func (m *LeaderboardMirror) writeStatus(status domain.SessionStatus) {
	if err := m.client.Set(context.Background(), keyStatus, string(status), m.ttl).Err(); err != nil {
		m.log.Warn().Err(err).Msg("status mirror write failed")
	}
}

const (
	keyLeaderboard = "quizroom:leaderboard"
	keyRanks       = "quizroom:ranks"
	keyStatus      = "quizroom:status"
)
