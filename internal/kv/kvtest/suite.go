// Package kvtest provides a compliance suite shared by all kv.Store drivers.
package kvtest

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/contentdesk/contentdesk/internal/kv"
)

// Run exercises a compliance suite against a kv.Store implementation.
// Implementations should provide a clean, isolated store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) kv.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	// Unique key prefix so suites can share a store
	p := "kvtest:" + uuid.New().String() + ":"

	// Hashes
	hkey := p + "hash"
	if err := s.HSet(ctx, hkey, map[string]string{"a": "1", "b": "2"}); err != nil {
		t.Fatalf("HSet: %v", err)
	}
	if v, ok, err := s.HGet(ctx, hkey, "a"); err != nil || !ok || v != "1" {
		t.Fatalf("HGet: v=%q ok=%v err=%v", v, ok, err)
	}
	if _, ok, err := s.HGet(ctx, hkey, "missing"); err != nil || ok {
		t.Fatalf("HGet missing field: ok=%v err=%v", ok, err)
	}
	if all, err := s.HGetAll(ctx, hkey); err != nil || len(all) != 2 || all["b"] != "2" {
		t.Fatalf("HGetAll: %v err=%v", all, err)
	}
	if err := s.HDel(ctx, hkey, "a"); err != nil {
		t.Fatalf("HDel: %v", err)
	}
	if all, err := s.HGetAll(ctx, hkey); err != nil || len(all) != 1 {
		t.Fatalf("HGetAll after HDel: %v err=%v", all, err)
	}
	if all, err := s.HGetAll(ctx, p+"absent"); err != nil || len(all) != 0 {
		t.Fatalf("HGetAll absent key: %v err=%v", all, err)
	}

	// Sets
	skey := p + "set"
	if err := s.SAdd(ctx, skey, "x", "y", "x"); err != nil {
		t.Fatalf("SAdd: %v", err)
	}
	if members, err := s.SMembers(ctx, skey); err != nil || len(members) != 2 {
		t.Fatalf("SMembers: %v err=%v", members, err)
	}
	if ok, err := s.SIsMember(ctx, skey, "x"); err != nil || !ok {
		t.Fatalf("SIsMember x: ok=%v err=%v", ok, err)
	}
	if ok, err := s.SIsMember(ctx, skey, "z"); err != nil || ok {
		t.Fatalf("SIsMember z: ok=%v err=%v", ok, err)
	}
	if err := s.SRem(ctx, skey, "x"); err != nil {
		t.Fatalf("SRem: %v", err)
	}
	if members, err := s.SMembers(ctx, skey); err != nil || len(members) != 1 || members[0] != "y" {
		t.Fatalf("SMembers after SRem: %v err=%v", members, err)
	}
	// Removing an absent member is a no-op
	if err := s.SRem(ctx, skey, "never-there"); err != nil {
		t.Fatalf("SRem absent: %v", err)
	}

	// Sorted sets
	zkey := p + "zset"
	if err := s.ZAdd(ctx, zkey,
		kv.ZMember{Member: "viewer", Score: 1},
		kv.ZMember{Member: "owner", Score: 4},
		kv.ZMember{Member: "editor", Score: 2},
	); err != nil {
		t.Fatalf("ZAdd: %v", err)
	}
	asc, err := s.ZRangeWithScores(ctx, zkey, 0, -1)
	if err != nil || len(asc) != 3 {
		t.Fatalf("ZRangeWithScores: %v err=%v", asc, err)
	}
	if asc[0].Member != "viewer" || asc[2].Member != "owner" {
		t.Fatalf("ZRangeWithScores order: %v", asc)
	}
	desc, err := s.ZRevRangeWithScores(ctx, zkey, 0, -1)
	if err != nil || len(desc) != 3 || desc[0].Member != "owner" || desc[0].Score != 4 {
		t.Fatalf("ZRevRangeWithScores: %v err=%v", desc, err)
	}
	// Re-adding with a new score updates in place
	if err := s.ZAdd(ctx, zkey, kv.ZMember{Member: "viewer", Score: 3}); err != nil {
		t.Fatalf("ZAdd update: %v", err)
	}
	if desc, err = s.ZRevRangeWithScores(ctx, zkey, 0, -1); err != nil || len(desc) != 3 || desc[1].Member != "viewer" {
		t.Fatalf("ZRevRangeWithScores after update: %v err=%v", desc, err)
	}
	if err := s.ZRem(ctx, zkey, "editor"); err != nil {
		t.Fatalf("ZRem: %v", err)
	}
	if asc, err = s.ZRangeWithScores(ctx, zkey, 0, -1); err != nil || len(asc) != 2 {
		t.Fatalf("ZRangeWithScores after ZRem: %v err=%v", asc, err)
	}

	// Lists
	lkey := p + "list"
	if err := s.RPush(ctx, lkey, "one", "two", "three", "four", "five"); err != nil {
		t.Fatalf("RPush: %v", err)
	}
	if n, err := s.LLen(ctx, lkey); err != nil || n != 5 {
		t.Fatalf("LLen: n=%d err=%v", n, err)
	}
	if vals, err := s.LRange(ctx, lkey, 0, -1); err != nil || len(vals) != 5 || vals[0] != "one" {
		t.Fatalf("LRange full: %v err=%v", vals, err)
	}
	// Negative inclusive indices address from the tail
	if vals, err := s.LRange(ctx, lkey, -3, -1); err != nil || len(vals) != 3 || vals[0] != "three" {
		t.Fatalf("LRange tail: %v err=%v", vals, err)
	}
	// Start beyond the tail yields empty, not an error
	if vals, err := s.LRange(ctx, lkey, 10, 20); err != nil || len(vals) != 0 {
		t.Fatalf("LRange beyond tail: %v err=%v", vals, err)
	}
	// Oversized negative start clamps to the head
	if vals, err := s.LRange(ctx, lkey, -100, -1); err != nil || len(vals) != 5 {
		t.Fatalf("LRange clamped: %v err=%v", vals, err)
	}

	// Plain strings
	gkey := p + "str"
	if err := s.Set(ctx, gkey, "value"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok, err := s.Get(ctx, gkey); err != nil || !ok || v != "value" {
		t.Fatalf("Get: v=%q ok=%v err=%v", v, ok, err)
	}
	if _, ok, err := s.Get(ctx, p+"no-such"); err != nil || ok {
		t.Fatalf("Get absent: ok=%v err=%v", ok, err)
	}

	// Exists / Del / Scan
	if ok, err := s.Exists(ctx, gkey); err != nil || !ok {
		t.Fatalf("Exists: ok=%v err=%v", ok, err)
	}
	matched, err := s.Scan(ctx, p+"*")
	if err != nil || len(matched) == 0 {
		t.Fatalf("Scan: %v err=%v", matched, err)
	}
	if err := s.Del(ctx, gkey, lkey); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if ok, err := s.Exists(ctx, gkey); err != nil || ok {
		t.Fatalf("Exists after Del: ok=%v err=%v", ok, err)
	}
	if n, err := s.LLen(ctx, lkey); err != nil || n != 0 {
		t.Fatalf("LLen after Del: n=%d err=%v", n, err)
	}

	// Pipeline
	pkey1 := p + "pipe:h"
	pkey2 := p + "pipe:s"
	pipe := s.Pipeline()
	pipe.HSet(pkey1, map[string]string{"f": "v"})
	pipe.SAdd(pkey2, "m1", "m2")
	pipe.Set(p+"pipe:str", "pv")
	if pipe.Len() != 3 {
		t.Fatalf("Pipeline Len: %d", pipe.Len())
	}
	if err := pipe.Exec(ctx); err != nil {
		t.Fatalf("Pipeline Exec: %v", err)
	}
	if v, ok, err := s.HGet(ctx, pkey1, "f"); err != nil || !ok || v != "v" {
		t.Fatalf("HGet after pipeline: v=%q ok=%v err=%v", v, ok, err)
	}
	if members, err := s.SMembers(ctx, pkey2); err != nil || len(members) != 2 {
		t.Fatalf("SMembers after pipeline: %v err=%v", members, err)
	}

	// Ping
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
