package memkv

import (
	"context"
	"testing"

	"github.com/contentdesk/contentdesk/internal/kv"
	"github.com/contentdesk/contentdesk/internal/kv/kvtest"
)

func TestCompliance(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) kv.Store {
		return New()
	})
}

func TestWrongTypeRejected(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.HSet(ctx, "k", map[string]string{"f": "v"}); err != nil {
		t.Fatalf("HSet: %v", err)
	}
	if err := s.SAdd(ctx, "k", "m"); err == nil {
		t.Fatal("SAdd on a hash key should fail")
	}
	if _, err := s.LRange(ctx, "k", 0, -1); err == nil {
		t.Fatal("LRange on a hash key should fail")
	}

	// Set overwrites regardless of the previous type, like the remote store.
	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set over hash: %v", err)
	}
	if v, ok, err := s.Get(ctx, "k"); err != nil || !ok || v != "v" {
		t.Fatalf("Get after overwrite: v=%q ok=%v err=%v", v, ok, err)
	}
}

func TestEmptyCollectionRemovesKey(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.SAdd(ctx, "s", "only"); err != nil {
		t.Fatalf("SAdd: %v", err)
	}
	if err := s.SRem(ctx, "s", "only"); err != nil {
		t.Fatalf("SRem: %v", err)
	}
	if ok, err := s.Exists(ctx, "s"); err != nil || ok {
		t.Fatalf("empty set should be removed: ok=%v err=%v", ok, err)
	}

	if err := s.HSet(ctx, "h", map[string]string{"f": "v"}); err != nil {
		t.Fatalf("HSet: %v", err)
	}
	if err := s.HDel(ctx, "h", "f"); err != nil {
		t.Fatalf("HDel: %v", err)
	}
	if ok, err := s.Exists(ctx, "h"); err != nil || ok {
		t.Fatalf("empty hash should be removed: ok=%v err=%v", ok, err)
	}
}

func TestNormalizeRange(t *testing.T) {
	cases := []struct {
		name        string
		n           int64
		start, stop int64
		lo, hi      int64
		ok          bool
	}{
		{"full", 5, 0, -1, 0, 4, true},
		{"tail three", 5, -3, -1, 2, 4, true},
		{"clamped start", 5, -100, -1, 0, 4, true},
		{"clamped stop", 5, 0, 100, 0, 4, true},
		{"beyond tail", 5, 10, 20, 0, 0, false},
		{"inverted", 5, 3, 1, 0, 0, false},
		{"empty", 0, 0, -1, 0, 0, false},
		{"single negative", 5, -1, -1, 4, 4, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lo, hi, ok := normalizeRange(tc.n, tc.start, tc.stop)
			if ok != tc.ok {
				t.Fatalf("ok=%v want %v", ok, tc.ok)
			}
			if ok && (lo != tc.lo || hi != tc.hi) {
				t.Fatalf("lo=%d hi=%d want %d..%d", lo, hi, tc.lo, tc.hi)
			}
		})
	}
}

func TestScanPatterns(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, k := range []string{"ns:user:1", "ns:user:2", "ns:user:1:customers", "other:user:3"} {
		if err := s.Set(ctx, k, "x"); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}

	matched, err := s.Scan(ctx, "ns:*")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(matched) != 3 {
		t.Fatalf("Scan ns:* matched %v", matched)
	}
	for _, k := range matched {
		if k == "other:user:3" {
			t.Fatalf("Scan matched foreign namespace: %v", matched)
		}
	}
}

func TestPipelineStopsAtFirstError(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.SAdd(ctx, "taken", "m"); err != nil {
		t.Fatalf("SAdd: %v", err)
	}

	pipe := s.Pipeline()
	pipe.Set("a", "1")
	pipe.HSet("taken", map[string]string{"f": "v"}) // wrong type, fails
	pipe.Set("b", "2")
	if err := pipe.Exec(ctx); err == nil {
		t.Fatal("Exec should surface the wrong-type failure")
	}

	// Commands before the failure applied; commands after did not.
	if v, ok, _ := s.Get(ctx, "a"); !ok || v != "1" {
		t.Fatalf("command before failure should apply: v=%q ok=%v", v, ok)
	}
	if ok, _ := s.Exists(ctx, "b"); ok {
		t.Fatal("command after failure should not apply")
	}
}
