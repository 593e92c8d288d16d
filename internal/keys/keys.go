// Package keys defines the store key naming scheme. Keys are built from a
// stable ":" separator and an optional namespace prefix so test and
// production data can share one store without colliding.
package keys

import "strings"

// Kind names an entity family in the key space.
type Kind string

const (
	KindUser         Kind = "user"
	KindSubscription Kind = "subscription"
	KindCustomer     Kind = "customer"
	KindProject      Kind = "project"
	KindConversation Kind = "conversation"
	KindPost         Kind = "post"
)

// Relation names an auxiliary structure hanging off an entity.
type Relation string

const (
	RelPermissions   Relation = "permissions"
	RelProjects      Relation = "projects"
	RelConversations Relation = "conversations"
	RelPosts         Relation = "posts"
	RelMessages      Relation = "messages"
	RelMediaLinks    Relation = "media"
	RelImagePrompts  Relation = "imageprompts"
	RelCustomers     Relation = "customers"
)

const sep = ":"

// Scheme builds store keys under an optional namespace. The zero value is a
// scheme with no namespace.
type Scheme struct {
	namespace string
}

// NewScheme returns a scheme prefixing every key with namespace (may be empty).
func NewScheme(namespace string) Scheme {
	return Scheme{namespace: namespace}
}

// Namespace returns the configured prefix.
func (s Scheme) Namespace() string { return s.namespace }

func (s Scheme) join(parts ...string) string {
	if s.namespace != "" {
		parts = append([]string{s.namespace}, parts...)
	}
	return strings.Join(parts, sep)
}

// Entity returns the primary hash key for one record. Empty ids are a
// programming error and panic.
func (s Scheme) Entity(kind Kind, id string) string {
	mustID(kind, id)
	return s.join(string(kind), id)
}

// Relation returns the key of an auxiliary structure attached to an entity.
func (s Scheme) Relation(kind Kind, id string, rel Relation) string {
	mustID(kind, id)
	return s.join(string(kind), id, string(rel))
}

// EmailIndex returns the secondary-index key mapping a lower-cased email to a
// user id. Normalization happens here so write and lookup cannot diverge.
func (s Scheme) EmailIndex(email string) string {
	mustID(KindUser, email)
	return s.join("index", "user", "email", strings.ToLower(email))
}

// SubscriptionByUser returns the reverse-index key mapping a user id to its
// subscription id.
func (s Scheme) SubscriptionByUser(userID string) string {
	mustID(KindSubscription, userID)
	return s.join("index", "subscription", "user", userID)
}

// UserCustomers returns the key of the per-user sorted set of accessible
// customers, scored by role priority.
func (s Scheme) UserCustomers(userID string) string {
	mustID(KindUser, userID)
	return s.join(string(KindUser), userID, string(RelCustomers))
}

// Superusers returns the key of the global superuser set.
func (s Scheme) Superusers() string {
	return s.join("superusers")
}

// EntityPattern returns the glob pattern matching primary keys of a kind.
// Used only by maintenance scan paths; the pattern also matches relation
// keys, so callers must filter with ParseEntityID.
func (s Scheme) EntityPattern(kind Kind) string {
	return s.join(string(kind), "*")
}

// AllPattern matches every key under the scheme's namespace.
func (s Scheme) AllPattern() string {
	return s.join("*")
}

// ParseEntityID extracts the id from a primary entity key. It returns false
// for relation keys and keys of other kinds or namespaces.
func (s Scheme) ParseEntityID(kind Kind, key string) (string, bool) {
	parts := strings.Split(key, sep)
	if s.namespace != "" {
		if len(parts) == 0 || parts[0] != s.namespace {
			return "", false
		}
		parts = parts[1:]
	}
	if len(parts) != 2 || parts[0] != string(kind) || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func mustID(kind Kind, id string) {
	if id == "" {
		panic("keys: empty id for kind " + string(kind))
	}
}
