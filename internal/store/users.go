// Package store is the persistence side of the server: user records keyed by
// nickname (credential + win count) and the win-count leaderboard, both kept
// in Redis. All writes are synchronous; handlers call through and wait.
package store

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/G4briel-Rodrigues/xadrez-novo/internal/obslog"
	"github.com/G4briel-Rodrigues/xadrez-novo/pkg/wire"
	"go.uber.org/zap"
)

type staticErr string

func (e staticErr) Error() string { return string(e) }

const (
	// ErrBadCredential means the nickname exists and the supplied password
	// does not match.
	ErrBadCredential = staticErr("bad credential")
)

const (
	keyUserPrefix = "xadrez:user:"
	keyRanking    = "xadrez:ranking"

	fieldPassword = "password"
	fieldWins     = "wins"
)

// Users owns the Redis client for the user/ranking store.
type Users struct {
	rdb *redis.Client
}

// Open connects to redisURL and verifies the connection. An empty database is
// a valid starting state; nothing is preloaded.
func Open(ctx context.Context, redisURL string) (*Users, error) {
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Users{rdb: rdb}, nil
}

func (u *Users) Close() error {
	if u == nil || u.rdb == nil {
		return nil
	}
	return u.rdb.Close()
}

// Authenticate registers nickname with password on first sight, otherwise
// checks the stored credential. Returns ErrBadCredential on mismatch.
func (u *Users) Authenticate(ctx context.Context, nickname, password string) error {
	key := keyUser(nickname)
	stored, err := u.rdb.HGet(ctx, key, fieldPassword).Result()
	if err == redis.Nil {
		if err := u.rdb.HSet(ctx, key, fieldPassword, password, fieldWins, 0).Err(); err != nil {
			return fmt.Errorf("register user: %w", err)
		}
		if err := u.rdb.ZAddNX(ctx, keyRanking, redis.Z{Score: 0, Member: nickname}).Err(); err != nil {
			return fmt.Errorf("register ranking: %w", err)
		}
		obslog.L().Info("user_registered", zap.String("nickname", nickname))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if stored != password {
		return ErrBadCredential
	}
	return nil
}

// IncrementWins bumps the win count for nickname and mirrors it into the
// ranking set. Returns the new count.
func (u *Users) IncrementWins(ctx context.Context, nickname string) (int64, error) {
	wins, err := u.rdb.HIncrBy(ctx, keyUser(nickname), fieldWins, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("increment wins: %w", err)
	}
	if err := u.rdb.ZAdd(ctx, keyRanking, redis.Z{Score: float64(wins), Member: nickname}).Err(); err != nil {
		return 0, fmt.Errorf("update ranking: %w", err)
	}
	return wins, nil
}

// Wins returns the current win count for nickname, zero when unknown.
func (u *Users) Wins(ctx context.Context, nickname string) (int64, error) {
	v, err := u.rdb.HGet(ctx, keyUser(nickname), fieldWins).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load wins: %w", err)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse wins: %w", err)
	}
	return n, nil
}

// TopN returns the leaderboard ordered by wins descending. n <= 0 returns the
// full ledger.
func (u *Users) TopN(ctx context.Context, n int) ([]wire.RankEntry, error) {
	stop := int64(-1)
	if n > 0 {
		stop = int64(n) - 1
	}
	rows, err := u.rdb.ZRevRangeWithScores(ctx, keyRanking, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("load ranking: %w", err)
	}
	out := make([]wire.RankEntry, 0, len(rows))
	for _, z := range rows {
		nick, _ := z.Member.(string)
		out = append(out, wire.RankEntry{Nickname: nick, Wins: int64(z.Score)})
	}
	return out, nil
}

func keyUser(nickname string) string { return keyUserPrefix + strings.TrimSpace(nickname) }

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
