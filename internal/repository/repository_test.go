package repository

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/contentdesk/contentdesk/internal/keys"
	"github.com/contentdesk/contentdesk/internal/kv/memkv"
)

// newTestRepos returns repositories over a fresh in-memory store, plus the
// store itself for tests that need to corrupt records deliberately.
func newTestRepos(t *testing.T) (*Repositories, *memkv.Store) {
	t.Helper()
	st := memkv.New()
	return New(st, keys.NewScheme("test"), zerolog.Nop()), st
}

func strPtr(s string) *string { return &s }
