package model

import "time"

// Role is the closed set of access levels a user can hold on a customer.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// Priority returns the numeric rank used to score role-indexed sorted sets
// (owner=4 > admin=3 > editor=2 > viewer=1).
func (r Role) Priority() float64 {
	switch r {
	case RoleOwner:
		return 4
	case RoleAdmin:
		return 3
	case RoleEditor:
		return 2
	case RoleViewer:
		return 1
	}
	return 0
}

// RoleFromPriority is the inverse of Role.Priority. Unknown scores map to "".
func RoleFromPriority(score float64) Role {
	switch score {
	case 4:
		return RoleOwner
	case 3:
		return RoleAdmin
	case 2:
		return RoleEditor
	case 1:
		return RoleViewer
	}
	return ""
}

// WriteMode disambiguates upsert intent. Callers must choose; repositories
// never infer create-vs-update from id presence.
type WriteMode int

const (
	ModeCreate WriteMode = iota + 1
	ModeUpdate
)

// User is an account in the system.
type User struct {
	ID             string  `json:"id"`
	Email          string  `json:"email"`
	Name           string  `json:"name"`
	ExternalAuthID string  `json:"externalAuthId,omitempty"`
	SubscriptionID *string `json:"subscriptionId,omitempty"`
}

// Subscription links a plan to exactly one user.
type Subscription struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	PlanType string `json:"planType"`
	Status   string `json:"status"`
}

// Customer is a tenant workspace owned by a user and shared via permissions.
type Customer struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	OwnerUserID string         `json:"ownerUserId"`
	Industry    string         `json:"industry,omitempty"`
	AIContext   map[string]any `json:"aiContext,omitempty"`
}

// Project groups conversations and posts under a customer.
type Project struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	CustomerID string         `json:"customerId"`
	Objective  string         `json:"objective,omitempty"`
	AIContext  map[string]any `json:"aiContext,omitempty"`
}

// Conversation is a chat log attached to a project. Messages live in an
// append-only list alongside the metadata record.
type Conversation struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationWithMessages bundles metadata with the full message log.
type ConversationWithMessages struct {
	Conversation
	Messages []Message `json:"messages"`
}

// MessageRole identifies the author side of a chat message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// Valid reports whether r is a known message role.
func (r MessageRole) Valid() bool {
	switch r {
	case MessageRoleUser, MessageRoleAssistant, MessageRoleSystem:
		return true
	}
	return false
}

// Message is an element of a conversation's log. Messages are embedded in the
// conversation and never addressed individually.
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	AuthorID  string      `json:"authorId,omitempty"`
}

// Post is a social-media draft owned by a project. Media links and image
// prompts are kept in dedicated sets, not on the record itself.
type Post struct {
	ID             string   `json:"id"`
	ProjectID      string   `json:"projectId"`
	TargetPlatform string   `json:"targetPlatform"`
	PostType       string   `json:"postType"`
	ContentPieces  []string `json:"contentPieces,omitempty"`
}

// CustomerAccess is one entry of a user's role-ranked customer listing.
type CustomerAccess struct {
	CustomerID string `json:"customerId"`
	Role       Role   `json:"role"`
}

// CustomerWithRole pairs a customer record with the caller's role on it.
type CustomerWithRole struct {
	Customer
	Role Role `json:"role"`
}
