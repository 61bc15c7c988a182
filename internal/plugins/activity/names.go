package activity

import (
	"errors"
	"strings"
)

// Length bounds of the id-shape heuristic. Document-store ids fall in this
// range while most free-text values do not. Values outside it are never
// treated as references by the scanner or the formatter.
const (
	minIDLength = 15
	maxIDLength = 30
)

// errUnresolved marks an index entry whose lookup returned no usable name.
var errUnresolved = errors.New("entity has no display name")

// EntityKey identifies one referenced entity.
type EntityKey struct {
	Kind EntityKind
	ID   string
}

// Resolution is the outcome of looking up one entity: either a name or the
// error that prevented it. A zero Name with a nil Err never occurs.
type Resolution struct {
	Name string
	Err  error
}

// OK reports whether the resolution produced a name.
func (r Resolution) OK() bool { return r.Err == nil && r.Name != "" }

// NameIndex is the per-batch lookup table from (kind, id) to display name.
// It is filled once by the resolver and only read afterwards. A nil
// *NameIndex behaves as an empty index.
type NameIndex struct {
	entries map[EntityKey]Resolution

	// parents maps a task id to the project id it belongs to.
	parents map[string]string
}

// NewNameIndex creates an empty index.
func NewNameIndex() *NameIndex {
	return &NameIndex{
		entries: make(map[EntityKey]Resolution),
		parents: make(map[string]string),
	}
}

// Add records a resolved name.
func (ix *NameIndex) Add(kind EntityKind, id, name string) {
	if name == "" {
		ix.entries[EntityKey{kind, id}] = Resolution{Err: errUnresolved}
		return
	}
	ix.entries[EntityKey{kind, id}] = Resolution{Name: name}
}

// Fail records a failed lookup.
func (ix *NameIndex) Fail(kind EntityKind, id string, err error) {
	if err == nil {
		err = errUnresolved
	}
	ix.entries[EntityKey{kind, id}] = Resolution{Err: err}
}

// SetParentProject records the project a task belongs to.
func (ix *NameIndex) SetParentProject(taskID, projectID string) {
	if projectID != "" {
		ix.parents[taskID] = projectID
	}
}

// Name returns the resolved display name. The boolean is false when the id
// was never looked up or the lookup failed; callers fall back to a generic
// label in that case.
func (ix *NameIndex) Name(kind EntityKind, id string) (string, bool) {
	if ix == nil || id == "" {
		return "", false
	}
	r, ok := ix.entries[EntityKey{kind, id}]
	if !ok || !r.OK() {
		return "", false
	}
	return r.Name, true
}

// Lookup returns the raw resolution for an id, including failures.
func (ix *NameIndex) Lookup(kind EntityKind, id string) (Resolution, bool) {
	if ix == nil {
		return Resolution{}, false
	}
	r, ok := ix.entries[EntityKey{kind, id}]
	return r, ok
}

// ParentProject returns the project id a task belongs to, if known.
func (ix *NameIndex) ParentProject(taskID string) (string, bool) {
	if ix == nil {
		return "", false
	}
	p, ok := ix.parents[taskID]
	return p, ok
}

// Len returns the number of looked-up entities, resolved or not.
func (ix *NameIndex) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.entries)
}

// Without returns a copy of the index with one entry removed.
func (ix *NameIndex) Without(kind EntityKind, id string) *NameIndex {
	out := NewNameIndex()
	if ix == nil {
		return out
	}
	for k, v := range ix.entries {
		if k.Kind == kind && k.ID == id {
			continue
		}
		out.entries[k] = v
	}
	for k, v := range ix.parents {
		out.parents[k] = v
	}
	return out
}

// looksLikeID applies the id-shape heuristic to a string value.
func looksLikeID(s string) bool {
	n := len(s)
	return n >= minIDLength && n <= maxIDLength
}

// fieldKinds maps well-known reference fields to the kind they point at.
var fieldKinds = map[string]EntityKind{
	"taskId":        KindTask,
	"projectId":     KindProject,
	"customerId":    KindCustomer,
	"orderId":       KindOrder,
	"productId":     KindProduct,
	"productIds":    KindProduct,
	"departmentId":  KindDepartment,
	"warrantyId":    KindWarranty,
	"userId":        KindUser,
	"userIds":       KindUser,
	"assignedTo":    KindUser,
	"assignedBy":    KindUser,
	"assignedUsers": KindUser,
	"createdBy":     KindUser,
	"updatedBy":     KindUser,
	"approvedBy":    KindUser,
	"deletedBy":     KindUser,
	"ownerId":       KindUser,
	"managerId":     KindUser,
	"members":       KindUser,
}

// kindSuffixes is checked in order against "...Id" / "...Ids" field names
// not listed in fieldKinds, e.g. "parentTaskId" or "responsibleUserId".
var kindSuffixes = []struct {
	suffix string
	kind   EntityKind
}{
	{"task", KindTask},
	{"project", KindProject},
	{"customer", KindCustomer},
	{"order", KindOrder},
	{"product", KindProduct},
	{"department", KindDepartment},
	{"warranty", KindWarranty},
	{"user", KindUser},
}

// kindForField returns the entity kind a snapshot field references.
func kindForField(field string) (EntityKind, bool) {
	if k, ok := fieldKinds[field]; ok {
		return k, true
	}
	lower := strings.ToLower(field)
	var stem string
	switch {
	case strings.HasSuffix(lower, "ids"):
		stem = strings.TrimSuffix(lower, "ids")
	case strings.HasSuffix(lower, "id"):
		stem = strings.TrimSuffix(lower, "id")
	default:
		return "", false
	}
	for _, ks := range kindSuffixes {
		if strings.HasSuffix(stem, ks.suffix) {
			return ks.kind, true
		}
	}
	return "", false
}

// collectionKinds maps a collection to the kind of its own record ids.
var collectionKinds = map[Collection]EntityKind{
	CollectionTasks:       KindTask,
	CollectionProjects:    KindProject,
	CollectionCustomers:   KindCustomer,
	CollectionOrders:      KindOrder,
	CollectionProducts:    KindProduct,
	CollectionDepartments: KindDepartment,
	CollectionWarranties:  KindWarranty,
	CollectionUsers:       KindUser,
}

// kindForCollection returns the kind of the records stored in c.
func kindForCollection(c Collection) (EntityKind, bool) {
	k, ok := collectionKinds[c]
	return k, ok
}
