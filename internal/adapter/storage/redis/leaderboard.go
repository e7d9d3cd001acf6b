package redis

import (
	"context"
	"fmt"

	"loyalty-engine/internal/core/ports"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Leaderboard implements ports.LeaderboardCache on a Redis sorted set.
// The ledger updates it best-effort after each committed balance change;
// the postgres TopByPoints query stays authoritative.
type Leaderboard struct {
	client *goredis.Client
	key    string
}

// NewLeaderboard creates a Redis-backed leaderboard cache.
func NewLeaderboard(client *goredis.Client) *Leaderboard {
	return &Leaderboard{
		client: client,
		key:    "leaderboard:points",
	}
}

// IncrScore adjusts an account's cached score by delta.
func (l *Leaderboard) IncrScore(ctx context.Context, accountID uuid.UUID, delta int64) error {
	if err := l.client.ZIncrBy(ctx, l.key, float64(delta), accountID.String()).Err(); err != nil {
		return fmt.Errorf("redis leaderboard incr: %w", err)
	}
	return nil
}

// Top returns the n highest-scored accounts, best first.
func (l *Leaderboard) Top(ctx context.Context, n int) ([]ports.LeaderboardEntry, error) {
	zs, err := l.client.ZRevRangeWithScores(ctx, l.key, 0, int64(n)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis leaderboard top: %w", err)
	}

	entries := make([]ports.LeaderboardEntry, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(member)
		if err != nil {
			// Skip foreign members rather than failing the whole read.
			continue
		}
		entries = append(entries, ports.LeaderboardEntry{
			AccountID: id,
			Points:    int64(z.Score),
		})
	}
	return entries, nil
}
