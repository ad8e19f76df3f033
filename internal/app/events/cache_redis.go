package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gmpro/internal/app/roster"
	"gmpro/internal/pkg/logx"
)

const (
	redisKeyPrefix = "gmpro:roster:"
	redisRosterTTL = 24 * time.Hour
	redisMaxRetry  = 5
)

// RedisCache is a RosterCache shared between processes. Each conference is one JSON value
// updated with an optimistic WATCH transaction.
type RedisCache struct {
	cli *redis.Client
}

// NewRedisCache connects to url and verifies the connection.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}

	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisCache{cli: cli}, nil
}

func redisKey(conferenceRecord string) string {
	return redisKeyPrefix + NormalizeConferenceRecord(conferenceRecord)
}

func (c *RedisCache) Get(ctx context.Context, conferenceRecord string) ([]roster.Participant, error) {
	data, err := c.cli.Get(ctx, redisKey(conferenceRecord)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get roster: %w", err)
	}

	var participants []roster.Participant
	if err := json.Unmarshal(data, &participants); err != nil {
		return nil, fmt.Errorf("decode cached roster: %w", err)
	}
	return participants, nil
}

func (c *RedisCache) Apply(ctx context.Context, event Event) error {
	if NormalizeConferenceRecord(event.ConferenceRecord) == "" {
		return ErrNoConference
	}
	key := redisKey(event.ConferenceRecord)

	txf := func(tx *redis.Tx) error {
		var participants []roster.Participant

		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(data, &participants); err != nil {
				return fmt.Errorf("decode cached roster: %w", err)
			}
		}

		next, changed := Fold(participants, event)
		if !changed {
			return nil
		}

		encoded, err := json.Marshal(next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, redisRosterTTL)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < redisMaxRetry; attempt++ {
		err := c.cli.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return fmt.Errorf("redis apply event: %w", err)
		}
		logx.Debug("Roster cache transaction conflict, retrying", "key", key, "attempt", attempt+1)
	}

	return fmt.Errorf("redis apply event: %w after %d attempts", redis.TxFailedErr, redisMaxRetry)
}

func (c *RedisCache) Close() error {
	return c.cli.Close()
}
