package otpstore

import (
	"context"
	"fmt"
	"time"

	"village-sabha/internal/core/domain"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "otp:"

// expiredGrace keeps expired hashes around long enough for Consume to
// report them as expired rather than missing.
const expiredGrace = 10 * time.Minute

// consumeScript returns 0 none, 1 expired (deleted), 2 mismatch, 3 accepted (deleted)
var consumeScript = redis.NewScript(`
local code = redis.call('HGET', KEYS[1], 'code')
if not code then
  return 0
end
local exp = tonumber(redis.call('HGET', KEYS[1], 'exp'))
if tonumber(ARGV[2]) > exp then
  redis.call('DEL', KEYS[1])
  return 1
end
if code ~= ARGV[1] then
  return 2
end
redis.call('DEL', KEYS[1])
return 3
`)

// RedisStore shares entries between instances. Checks run as one Lua
// script so concurrent verifications of the same code cannot both succeed.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a redis backed store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Put replaces any entry for identifier
func (s *RedisStore) Put(ctx context.Context, identifier string, entry domain.OTPEntry) error {
	key := keyPrefix + identifier
	ttl := time.Until(entry.ExpiresAt) + expiredGrace
	if ttl <= 0 {
		ttl = expiredGrace
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "code", entry.Code, "exp", entry.ExpiresAt.UnixMilli())
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return nil
}

// Consume checks code and removes the entry when it is expired or accepted
func (s *RedisStore) Consume(ctx context.Context, identifier, code string, now time.Time) (domain.OTPOutcome, error) {
	n, err := consumeScript.Run(ctx, s.client, []string{keyPrefix + identifier}, code, now.UnixMilli()).Int()
	if err != nil {
		return domain.OTPNone, fmt.Errorf("consume otp: %w", err)
	}

	switch n {
	case 0:
		return domain.OTPNone, nil
	case 1:
		return domain.OTPExpired, nil
	case 2:
		return domain.OTPMismatch, nil
	case 3:
		return domain.OTPAccepted, nil
	}
	return domain.OTPNone, fmt.Errorf("consume otp: unexpected script result %d", n)
}

// Sweep is a no-op; redis drops entries through key expiry.
func (s *RedisStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}
