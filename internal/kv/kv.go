// Package kv defines the store boundary: the hash, set, sorted-set, list and
// generic key primitives the repositories are written against, plus pipelined
// batch submission. Implementations live under internal/kv/<driver>/
// (redisrest for the remote REST store, memkv for tests and local runs).
package kv

import "context"

// ZMember is one sorted-set member with its score.
type ZMember struct {
	Member string
	Score  float64
}

// Store exposes the data-structure commands the repositories need. Every call
// is one request/response round trip against the backing store; there is no
// in-process locking and no cross-key transaction.
type Store interface {
	// Hashes.
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGet(ctx context.Context, key, field string) (string, bool, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error

	// Sets.
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SIsMember(ctx context.Context, key, member string) (bool, error)

	// Sorted sets.
	ZAdd(ctx context.Context, key string, members ...ZMember) error
	ZRem(ctx context.Context, key string, members ...string) error
	ZRangeWithScores(ctx context.Context, key string, start, stop int64) ([]ZMember, error)
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]ZMember, error)

	// Lists.
	RPush(ctx context.Context, key string, values ...string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	LLen(ctx context.Context, key string) (int64, error)

	// Plain string keys (secondary indexes).
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error

	// Generic keys.
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Scan enumerates keys matching a glob pattern. Used only by maintenance
	// and fallback paths; never on a hot path.
	Scan(ctx context.Context, pattern string) ([]string, error)

	// Pipeline returns a batch that queues mutations and submits them
	// together on Exec. The batch is transmitted as one unit but is NOT a
	// transaction: a mid-batch failure can leave some keys updated.
	Pipeline() Pipeline

	// Ping verifies connectivity.
	Ping(ctx context.Context) error
}

// Pipeline queues mutating commands for batched submission. Queue methods
// never touch the network; Exec submits everything in order and returns the
// first failure.
type Pipeline interface {
	HSet(key string, fields map[string]string)
	HDel(key string, fields ...string)
	SAdd(key string, members ...string)
	SRem(key string, members ...string)
	ZAdd(key string, members ...ZMember)
	ZRem(key string, members ...string)
	RPush(key string, values ...string)
	Set(key, value string)
	Del(keys ...string)

	// Len reports the number of queued commands.
	Len() int
	Exec(ctx context.Context) error
}
