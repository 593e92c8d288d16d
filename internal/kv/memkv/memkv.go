// Package memkv is an in-memory kv.Store used by tests and the "memory"
// build target. It mirrors the remote store's semantics, including negative
// list indices, score-ordered sorted-set ranges and glob key scans.
package memkv

import (
	"context"
	"fmt"
	"path"
	"sort"
	"sync"

	"github.com/contentdesk/contentdesk/internal/kv"
)

type valueType int

const (
	typeHash valueType = iota + 1
	typeSet
	typeZSet
	typeList
	typeString
)

// Store is a mutex-guarded in-memory implementation of kv.Store.
type Store struct {
	mu      sync.RWMutex
	types   map[string]valueType
	hashes  map[string]map[string]string
	sets    map[string]map[string]struct{}
	zsets   map[string]map[string]float64
	lists   map[string][]string
	strings map[string]string
}

// New returns an empty store.
func New() *Store {
	return &Store{
		types:   make(map[string]valueType),
		hashes:  make(map[string]map[string]string),
		sets:    make(map[string]map[string]struct{}),
		zsets:   make(map[string]map[string]float64),
		lists:   make(map[string][]string),
		strings: make(map[string]string),
	}
}

func (s *Store) checkType(key string, want valueType) error {
	if have, ok := s.types[key]; ok && have != want {
		return fmt.Errorf("memkv: key %q holds a value of the wrong type", key)
	}
	return nil
}

// --- Hashes ---

func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hset(key, fields)
}

func (s *Store) hset(key string, fields map[string]string) error {
	if err := s.checkType(key, typeHash); err != nil {
		return err
	}
	h := s.hashes[key]
	if h == nil {
		h = make(map[string]string, len(fields))
		s.hashes[key] = h
		s.types[key] = typeHash
	}
	for f, v := range fields {
		h[f] = v
	}
	return nil
}

func (s *Store) HGet(ctx context.Context, key, field string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkType(key, typeHash); err != nil {
		return "", false, err
	}
	v, ok := s.hashes[key][field]
	return v, ok, nil
}

func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkType(key, typeHash); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(s.hashes[key]))
	for f, v := range s.hashes[key] {
		out[f] = v
	}
	return out, nil
}

func (s *Store) HDel(ctx context.Context, key string, fields ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hdel(key, fields...)
}

func (s *Store) hdel(key string, fields ...string) error {
	if err := s.checkType(key, typeHash); err != nil {
		return err
	}
	h := s.hashes[key]
	for _, f := range fields {
		delete(h, f)
	}
	if len(h) == 0 {
		s.removeKey(key)
	}
	return nil
}

// --- Sets ---

func (s *Store) SAdd(ctx context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sadd(key, members...)
}

func (s *Store) sadd(key string, members ...string) error {
	if err := s.checkType(key, typeSet); err != nil {
		return err
	}
	set := s.sets[key]
	if set == nil {
		set = make(map[string]struct{}, len(members))
		s.sets[key] = set
		s.types[key] = typeSet
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

func (s *Store) SRem(ctx context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.srem(key, members...)
}

func (s *Store) srem(key string, members ...string) error {
	if err := s.checkType(key, typeSet); err != nil {
		return err
	}
	set := s.sets[key]
	for _, m := range members {
		delete(set, m)
	}
	if len(set) == 0 {
		s.removeKey(key)
	}
	return nil
}

func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkType(key, typeSet); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(s.sets[key]))
	for m := range s.sets[key] {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) SIsMember(ctx context.Context, key, member string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkType(key, typeSet); err != nil {
		return false, err
	}
	_, ok := s.sets[key][member]
	return ok, nil
}

// --- Sorted sets ---

func (s *Store) ZAdd(ctx context.Context, key string, members ...kv.ZMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zadd(key, members...)
}

func (s *Store) zadd(key string, members ...kv.ZMember) error {
	if err := s.checkType(key, typeZSet); err != nil {
		return err
	}
	z := s.zsets[key]
	if z == nil {
		z = make(map[string]float64, len(members))
		s.zsets[key] = z
		s.types[key] = typeZSet
	}
	for _, m := range members {
		z[m.Member] = m.Score
	}
	return nil
}

func (s *Store) ZRem(ctx context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zrem(key, members...)
}

func (s *Store) zrem(key string, members ...string) error {
	if err := s.checkType(key, typeZSet); err != nil {
		return err
	}
	z := s.zsets[key]
	for _, m := range members {
		delete(z, m)
	}
	if len(z) == 0 {
		s.removeKey(key)
	}
	return nil
}

func (s *Store) zsorted(key string) []kv.ZMember {
	out := make([]kv.ZMember, 0, len(s.zsets[key]))
	for m, sc := range s.zsets[key] {
		out = append(out, kv.ZMember{Member: m, Score: sc})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].Member < out[j].Member
	})
	return out
}

func (s *Store) ZRangeWithScores(ctx context.Context, key string, start, stop int64) ([]kv.ZMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkType(key, typeZSet); err != nil {
		return nil, err
	}
	all := s.zsorted(key)
	lo, hi, ok := normalizeRange(int64(len(all)), start, stop)
	if !ok {
		return nil, nil
	}
	return all[lo : hi+1], nil
}

func (s *Store) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]kv.ZMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkType(key, typeZSet); err != nil {
		return nil, err
	}
	all := s.zsorted(key)
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	lo, hi, ok := normalizeRange(int64(len(all)), start, stop)
	if !ok {
		return nil, nil
	}
	return all[lo : hi+1], nil
}

// --- Lists ---

func (s *Store) RPush(ctx context.Context, key string, values ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rpush(key, values...)
}

func (s *Store) rpush(key string, values ...string) error {
	if err := s.checkType(key, typeList); err != nil {
		return err
	}
	if _, ok := s.lists[key]; !ok {
		s.types[key] = typeList
	}
	s.lists[key] = append(s.lists[key], values...)
	return nil
}

func (s *Store) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkType(key, typeList); err != nil {
		return nil, err
	}
	list := s.lists[key]
	lo, hi, ok := normalizeRange(int64(len(list)), start, stop)
	if !ok {
		return nil, nil
	}
	out := make([]string, hi-lo+1)
	copy(out, list[lo:hi+1])
	return out, nil
}

func (s *Store) LLen(ctx context.Context, key string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkType(key, typeList); err != nil {
		return 0, err
	}
	return int64(len(s.lists[key])), nil
}

// --- Strings and generic keys ---

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkType(key, typeString); err != nil {
		return "", false, err
	}
	v, ok := s.strings[key]
	return v, ok, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(key, value)
}

func (s *Store) set(key, value string) error {
	if have, ok := s.types[key]; ok && have != typeString {
		s.removeKey(key)
	}
	s.strings[key] = value
	s.types[key] = typeString
	return nil
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.removeKey(k)
	}
	return nil
}

func (s *Store) removeKey(key string) {
	delete(s.types, key)
	delete(s.hashes, key)
	delete(s.sets, key)
	delete(s.zsets, key)
	delete(s.lists, key)
	delete(s.strings, key)
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.types[key]
	return ok, nil
}

func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for k := range s.types {
		ok, err := path.Match(pattern, k)
		if err != nil {
			return nil, fmt.Errorf("memkv: bad scan pattern %q: %w", pattern, err)
		}
		if ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }

// normalizeRange maps inclusive start/stop (negative = from the end) onto
// [0,n). ok is false when the resulting window is empty.
func normalizeRange(n, start, stop int64) (int64, int64, bool) {
	if n == 0 {
		return 0, 0, false
	}
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n || stop < 0 {
		return 0, 0, false
	}
	return start, stop, true
}

// --- Pipeline ---

type pipeline struct {
	store *Store
	ops   []func(*Store) error
}

// Pipeline returns a batch applied under one lock on Exec. Unlike the remote
// store this makes the batch fully atomic; callers must not rely on that.
func (s *Store) Pipeline() kv.Pipeline {
	return &pipeline{store: s}
}

func (p *pipeline) HSet(key string, fields map[string]string) {
	cp := make(map[string]string, len(fields))
	for f, v := range fields {
		cp[f] = v
	}
	p.ops = append(p.ops, func(s *Store) error { return s.hset(key, cp) })
}

func (p *pipeline) HDel(key string, fields ...string) {
	p.ops = append(p.ops, func(s *Store) error { return s.hdel(key, fields...) })
}

func (p *pipeline) SAdd(key string, members ...string) {
	p.ops = append(p.ops, func(s *Store) error { return s.sadd(key, members...) })
}

func (p *pipeline) SRem(key string, members ...string) {
	p.ops = append(p.ops, func(s *Store) error { return s.srem(key, members...) })
}

func (p *pipeline) ZAdd(key string, members ...kv.ZMember) {
	p.ops = append(p.ops, func(s *Store) error { return s.zadd(key, members...) })
}

func (p *pipeline) ZRem(key string, members ...string) {
	p.ops = append(p.ops, func(s *Store) error { return s.zrem(key, members...) })
}

func (p *pipeline) RPush(key string, values ...string) {
	p.ops = append(p.ops, func(s *Store) error { return s.rpush(key, values...) })
}

func (p *pipeline) Set(key, value string) {
	p.ops = append(p.ops, func(s *Store) error { return s.set(key, value) })
}

func (p *pipeline) Del(keys ...string) {
	p.ops = append(p.ops, func(s *Store) error {
		for _, k := range keys {
			s.removeKey(k)
		}
		return nil
	})
}

func (p *pipeline) Len() int { return len(p.ops) }

func (p *pipeline) Exec(ctx context.Context) error {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()
	for i, op := range p.ops {
		if err := op(p.store); err != nil {
			return fmt.Errorf("memkv: pipeline command %d: %w", i, err)
		}
	}
	p.ops = nil
	return nil
}
