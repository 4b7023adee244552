package leaderboard

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"connect-arena/internal/store"

	"github.com/redis/go-redis/v9"
)

const (
	keyWins   = "leaderboard:wins"
	keySeeded = "leaderboard:wins:seeded"
)

var ErrNotSeeded = errors.New("leaderboard_not_seeded")

// Cache keeps win counts in a redis sorted set so leaderboard reads do not
// aggregate the games table.
type Cache struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Cache { return &Cache{rdb: rdb} }

// RecordResult credits one win to winner. Draws are ignored.
func (c *Cache) RecordResult(ctx context.Context, winner string) error {
	winner = strings.TrimSpace(winner)
	if winner == "" || winner == store.DrawWinner {
		return nil
	}
	return c.rdb.ZIncrBy(ctx, keyWins, 1, winner).Err()
}

// SaveGame lets the cache sit behind arena.Sink next to the database.
func (c *Cache) SaveGame(ctx context.Context, g store.GameRecord) error {
	return c.RecordResult(ctx, g.Winner)
}

// Top returns the highest win counts, ties by username. ErrNotSeeded means
// Seed has not run and the caller should read the database.
func (c *Cache) Top(ctx context.Context, limit int) ([]store.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = store.DefaultLeaderboardLimit
	}
	if limit > store.MaxLeaderboardLimit {
		limit = store.MaxLeaderboardLimit
	}
	n, err := c.rdb.Exists(ctx, keySeeded).Result()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotSeeded
	}
	zs, err := c.rdb.ZRevRangeWithScores(ctx, keyWins, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}
	if len(zs) == limit {
		// Redis breaks score ties in reverse member order, so a tie at the
		// cutoff could drop a name that sorts first. Take the whole tied band.
		floor := strconv.FormatFloat(zs[len(zs)-1].Score, 'f', -1, 64)
		zs, err = c.rdb.ZRangeByScoreWithScores(ctx, keyWins, &redis.ZRangeBy{Min: floor, Max: "+inf"}).Result()
		if err != nil {
			return nil, err
		}
	}
	out := make([]store.LeaderboardEntry, 0, len(zs))
	for _, z := range zs {
		name, _ := z.Member.(string)
		out = append(out, store.LeaderboardEntry{Username: name, Wins: int64(z.Score)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].Username < out[j].Username
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Seed replaces the set with counts read from the database.
func (c *Cache) Seed(ctx context.Context, entries []store.LeaderboardEntry) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keyWins)
		if len(entries) > 0 {
			members := make([]redis.Z, 0, len(entries))
			for _, e := range entries {
				members = append(members, redis.Z{Score: float64(e.Wins), Member: e.Username})
			}
			pipe.ZAdd(ctx, keyWins, members...)
		}
		pipe.Set(ctx, keySeeded, "1", 0)
		return nil
	})
	return err
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
