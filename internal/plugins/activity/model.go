// Package activity turns raw change records from the business dashboard's
// audit log into human-readable activity: one-line summaries for the feed,
// per-field change lists for detail panels, and CSV exports. Records are
// appended by the other dashboard surfaces (orders, customers, production,
// warranty, departments) and are never modified afterwards.
//
// The description engine is split into small pieces that are wired
// together by the service: label registries, an entity name resolver that
// fans out lookups per batch, a value formatter, a snapshot differ, and the
// describer that picks a narrative strategy per collection.
package activity

import "time"

// Action is the kind of mutation a change record captures. Terminal per
// record: a record never transitions from one action to another.
type Action string

const (
	// ActionCreate is recorded when an entity is added to a collection.
	ActionCreate Action = "CREATE"

	// ActionUpdate is recorded when an entity's fields change.
	ActionUpdate Action = "UPDATE"

	// ActionDelete is recorded when an entity is removed.
	ActionDelete Action = "DELETE"
)

// Valid reports whether a is one of the three known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Collection names the entity collection a change record belongs to.
type Collection string

// Known collections. Unrecognized values are accepted on write and fall
// back to generic handling when described.
const (
	CollectionTasks           Collection = "tasks"
	CollectionProjects        Collection = "projects"
	CollectionCustomers       Collection = "customers"
	CollectionOrders          Collection = "orders"
	CollectionProducts        Collection = "products"
	CollectionDepartments     Collection = "departments"
	CollectionWarranties      Collection = "warranties"
	CollectionProduction      Collection = "production"
	CollectionUsers           Collection = "users"
	CollectionUserLogins      Collection = "user_logins"
	CollectionSecurityEvents  Collection = "security_events"
	CollectionTaskAssignments Collection = "task_assignments"
	CollectionCustomerNotes   Collection = "customer_notes"
)

// EntityKind is the small fixed set of reference targets the name
// resolver knows how to look up.
type EntityKind string

const (
	KindTask       EntityKind = "task"
	KindProject    EntityKind = "project"
	KindCustomer   EntityKind = "customer"
	KindOrder      EntityKind = "order"
	KindProduct    EntityKind = "product"
	KindDepartment EntityKind = "department"
	KindUser       EntityKind = "user"
	KindWarranty   EntityKind = "warranty"
)

// ChangeRecord is one audit event. Snapshots are plain maps with no schema
// guarantee beyond "some keys hold ids referencing other collections".
type ChangeRecord struct {
	ID         string         `json:"id"`
	Collection Collection     `json:"collection"`
	Action     Action         `json:"action"`
	RecordID   string         `json:"recordId,omitempty"`
	Before     map[string]any `json:"beforeSnapshot,omitempty"`
	After      map[string]any `json:"afterSnapshot,omitempty"`
	ActorID    string         `json:"actorId,omitempty"`
	ActorName  string         `json:"actorDisplayName,omitempty"`
	ActorEmail string         `json:"actorEmail,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`

	// Metadata holds free-form context (login method, user agent, ip).
	// Shown in detail views only, never in the one-line summary.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// FieldChange is one changed field of an UPDATE record, rendered for
// display. Computed per render and never stored.
type FieldChange struct {
	Field    string `json:"field"`
	Label    string `json:"label"`
	OldValue string `json:"oldValue"`
	NewValue string `json:"newValue"`
}

// Description is the rendered form of a change record.
type Description struct {
	Summary      string        `json:"summary"`
	FieldChanges []FieldChange `json:"fieldChanges,omitempty"`
}

// FeedItem pairs a stored record with its rendered description and the
// display labels the list and CSV views need.
type FeedItem struct {
	Record          ChangeRecord `json:"record"`
	Description     Description  `json:"description"`
	Actor           string       `json:"actor"`
	ActionLabel     string       `json:"actionLabel"`
	CollectionLabel string       `json:"collectionLabel"`
	When            string       `json:"when"`
}

// RecordFilter narrows a store query. Zero values mean "no constraint".
type RecordFilter struct {
	Collection Collection
	Action     Action
	ActorID    string
	RecordID   string
	Since      *time.Time
	Until      *time.Time
	Limit      int
	Offset     int
}

// FeedFilter is the user-facing feed query. Query is a free-text filter
// applied to the rendered summaries after description.
type FeedFilter struct {
	Collection Collection
	Action     Action
	ActorID    string
	Query      string
	Since      *time.Time
	Until      *time.Time
	Page       int
}

// FeedPage is one page of the rendered activity feed.
type FeedPage struct {
	Items   []FeedItem `json:"items"`
	Total   int        `json:"total"`
	Page    int        `json:"page"`
	PerPage int        `json:"perPage"`
}

// RecordDetail is the expanded view of a single record.
type RecordDetail struct {
	Item     FeedItem          `json:"item"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
