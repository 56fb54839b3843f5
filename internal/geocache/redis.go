package geocache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"walkroute/internal/model"
)

// Redis stores entries in a shared Redis instance so multiple API replicas
// benefit from each other's lookups. Entries expire after 30 days; external
// addresses move rarely.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(url string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Redis{rdb: redis.NewClient(opt), ttl: 30 * 24 * time.Hour}, nil
}

func (s *Redis) Get(ctx context.Context, key string) (model.Coordinate, bool, error) {
	b, err := s.rdb.Get(ctx, "geocode:"+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Coordinate{}, false, nil
	}
	if err != nil {
		return model.Coordinate{}, false, err
	}
	var c model.Coordinate
	if err := json.Unmarshal(b, &c); err != nil {
		return model.Coordinate{}, false, err
	}
	return c, true, nil
}

func (s *Redis) Put(ctx context.Context, key string, c model.Coordinate) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	// SETNX keeps the first successful result.
	return s.rdb.SetNX(ctx, "geocode:"+key, b, s.ttl).Err()
}
