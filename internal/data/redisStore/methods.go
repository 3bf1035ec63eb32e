package redisStore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// casScript writes the fields only while the hash's version field still holds
// ARGV[2]. ARGV layout: versionField, expected, field, value, ..., expireAtMs
var casScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], ARGV[1]) or '0'
if current ~= ARGV[2] then
	return 0
end
for i = 3, #ARGV - 1, 2 do
	redis.call('HSET', KEYS[1], ARGV[i], ARGV[i + 1])
end
redis.call('PEXPIREAT', KEYS[1], ARGV[#ARGV])
return 1
`)

// bumpScript increments the version field and refreshes the key's expiry in one step.
var bumpScript = redis.NewScript(`
local version = redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
redis.call('PEXPIREAT', KEYS[1], ARGV[2])
return version
`)

func (s *Store) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	return s.client.HGetAll(ctx, key).Result()
}

// HashSetIfVersion sets fields when versionField equals expected (a missing
// field counts as 0) and expires the key at expireAt. Reports whether it wrote.
func (s *Store) HashSetIfVersion(ctx context.Context, key string, versionField string, expected int64, fields map[string]string, expireAt time.Time) (bool, error) {
	args := make([]any, 0, len(fields)*2+3)
	args = append(args, versionField, expected)
	for field, value := range fields {
		args = append(args, field, value)
	}
	args = append(args, expireAt.UnixMilli())
	written, err := casScript.Run(ctx, s.client, []string{key}, args...).Int()
	return written == 1, err
}

// HashBumpVersion increments versionField and returns the new version.
func (s *Store) HashBumpVersion(ctx context.Context, key string, versionField string, expireAt time.Time) (int64, error) {
	return bumpScript.Run(ctx, s.client, []string{key}, versionField, expireAt.UnixMilli()).Int64()
}
