package analytics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gatedfm/model"

	"github.com/go-redis/redis/v8"
)

const (
	playDedupKey  = "plays:dedup:%s:%d:%s" // String: unix millis of the last counted play
	playCountsKey = "plays:product:%s"     // Hash: track index -> count, plus totalField
	totalField    = "total"
)

// countIfNewScript checks and increments in one step so concurrent servers
// sharing Redis cannot double count. The dedup key expires with the window.
var countIfNewScript = redis.NewScript(`
local last = redis.call('GET', KEYS[1])
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
if last and now - tonumber(last) < window then
  return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', window)
redis.call('HINCRBY', KEYS[2], ARGV[3], 1)
redis.call('HINCRBY', KEYS[2], 'total', 1)
return 1
`)

// RedisStore keeps plays in Redis so counts survive restarts and are shared
// between instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) CountIfNew(ctx context.Context, key Key, now time.Time, window time.Duration) (bool, error) {
	if s.client == nil {
		return false, fmt.Errorf("Redis client not initialized")
	}
	keys := []string{
		fmt.Sprintf(playDedupKey, key.ProductID, key.TrackIndex, key.SessionID),
		fmt.Sprintf(playCountsKey, key.ProductID),
	}
	n, err := countIfNewScript.Run(ctx, s.client, keys,
		now.UnixMilli(), window.Milliseconds(), strconv.Itoa(key.TrackIndex)).Int()
	if err != nil {
		return false, fmt.Errorf("play dedup script: %w", err)
	}
	return n == 1, nil
}

func (s *RedisStore) Counts(ctx context.Context, productID string) (*model.PlayCounts, error) {
	if s.client == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}
	fields, err := s.client.HGetAll(ctx, fmt.Sprintf(playCountsKey, productID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read play counts: %w", err)
	}
	out := &model.PlayCounts{ProductID: productID, Tracks: make(map[int]int64)}
	for field, val := range fields {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			continue
		}
		if field == totalField {
			out.Total = n
			continue
		}
		if idx, err := strconv.Atoi(field); err == nil {
			out.Tracks[idx] = n
		}
	}
	return out, nil
}
