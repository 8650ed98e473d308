package sequence

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "safedesk:case_seq:"

// Redis counts with INCR, one key per year.
type Redis struct {
	client redis.Cmdable
}

func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client}
}

func (s *Redis) Next(ctx context.Context, year int) (int64, error) {
	v, err := s.client.Incr(ctx, keyPrefix+strconv.Itoa(year)).Result()
	if err != nil {
		return 0, fmt.Errorf("increment case sequence: %w", err)
	}
	return v, nil
}
