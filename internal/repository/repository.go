// Package repository implements the data-access layer: one repository per
// entity, all persisting into the key-value store through hashes, sets,
// sorted sets and lists, with hand-rolled secondary indexes where uniqueness
// must hold.
//
// Multi-key mutations are submitted as one pipelined batch. The batch is
// transmitted together but is not a transaction; every such method is
// best-effort atomic, and callers must not assume more.
package repository

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/contentdesk/contentdesk/internal/kv"
	"github.com/contentdesk/contentdesk/internal/keys"
	"github.com/contentdesk/contentdesk/internal/model"
)

// Repositories bundles one repository per entity over a shared store and key
// scheme. Construct once at process start and pass by reference.
type Repositories struct {
	Users         *UserRepository
	Subscriptions *SubscriptionRepository
	Customers     *CustomerRepository
	Projects      *ProjectRepository
	Conversations *ConversationRepository
	Posts         *PostRepository
	Superusers    *SuperuserRepository
}

// New wires all repositories to the given store.
func New(store kv.Store, scheme keys.Scheme, log zerolog.Logger) *Repositories {
	return &Repositories{
		Users:         &UserRepository{kv: store, ks: scheme, log: log},
		Subscriptions: &SubscriptionRepository{kv: store, ks: scheme, log: log},
		Customers:     &CustomerRepository{kv: store, ks: scheme, log: log},
		Projects:      &ProjectRepository{kv: store, ks: scheme, log: log},
		Conversations: &ConversationRepository{kv: store, ks: scheme, log: log},
		Posts:         &PostRepository{kv: store, ks: scheme, log: log},
		Superusers:    &SuperuserRepository{kv: store, ks: scheme},
	}
}

func requireID(name, id string) error {
	if id == "" {
		return fmt.Errorf("%w: %s is required", model.ErrInvalidArgument, name)
	}
	return nil
}

// notFound wraps model.ErrNotFound with the entity kind and id.
func notFound(kind keys.Kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, model.ErrNotFound)
}

func strPtrField(fields map[string]string, name string) *string {
	if v, ok := fields[name]; ok {
		return &v
	}
	return nil
}
