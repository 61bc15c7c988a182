package activity

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// maxListedFields is how many changed field labels a multi-field summary
// names before collapsing the rest into "and N more".
const maxListedFields = 3

// strategy is the narrative recipe for one collection.
type strategy struct {
	// kind is the entity kind of the collection's own record ids.
	kind EntityKind

	// nameFields are snapshot fields that hold the entity's display name,
	// tried in order on the after snapshot and then the before snapshot.
	nameFields []string

	// important fields get a detailed old -> new sentence when they are
	// the only field that changed.
	important map[string]bool

	// compose overrides the generic per-action sentence. Returning ""
	// falls back to the generic sentence.
	compose func(d *Describer, rc *recordContext) string
}

// recordContext carries everything a strategy needs to write a sentence.
type recordContext struct {
	rec     *ChangeRecord
	ix      *NameIndex
	actor   string
	entity  string
	changed []string
}

func fieldSet(fields ...string) map[string]bool {
	m := make(map[string]bool, len(fields))
	for _, f := range fields {
		m[f] = true
	}
	return m
}

// builtinStrategies is the closed set of collections with their own
// narrative. Everything else is described by the fallback.
func builtinStrategies() map[Collection]strategy {
	return map[Collection]strategy{
		CollectionTasks: {
			kind:       KindTask,
			nameFields: []string{"title", "name"},
			important:  fieldSet("status", "priority", "assignedTo", "dueDate"),
			compose:    composeTask,
		},
		CollectionProjects: {
			kind:       KindProject,
			nameFields: []string{"name", "title"},
			important:  fieldSet("status", "dueDate", "managerId"),
		},
		CollectionCustomers: {
			kind:       KindCustomer,
			nameFields: []string{"name", "companyName"},
			important:  fieldSet("status"),
		},
		CollectionOrders: {
			kind:       KindOrder,
			nameFields: []string{"orderNumber", "title"},
			important:  fieldSet("status", "approvalStatus", "dueDate", "deliveryDate", "assignedTo"),
		},
		CollectionProducts: {
			kind:       KindProduct,
			nameFields: []string{"name"},
			important:  fieldSet("status"),
		},
		CollectionDepartments: {
			kind:       KindDepartment,
			nameFields: []string{"name"},
			important:  fieldSet("managerId"),
		},
		CollectionWarranties: {
			kind:       KindWarranty,
			nameFields: []string{"serialNumber", "productName", "customerName"},
			important:  fieldSet("status", "approvalStatus"),
		},
		CollectionProduction: {
			nameFields: []string{"orderNumber", "productName", "name"},
			important:  fieldSet("status", "priority", "assignedTo", "dueDate", "approvalStatus"),
		},
		CollectionUsers: {
			kind:       KindUser,
			nameFields: []string{"displayName", "name", "email"},
			important:  fieldSet("role", "isActive", "departmentId"),
		},
		CollectionUserLogins: {
			compose: composeLogin,
		},
		CollectionSecurityEvents: {
			compose: composeSecurityEvent,
		},
		CollectionTaskAssignments: {
			important: fieldSet("assignedTo", "status"),
			compose:   composeTaskAssignment,
		},
		CollectionCustomerNotes: {
			nameFields: []string{"title"},
			compose:    composeCustomerNote,
		},
	}
}

// Describer renders change records as sentences. It holds no mutable
// state; Describe is safe for concurrent use.
type Describer struct {
	labels     *Labels
	format     *Formatter
	strategies map[Collection]strategy
}

// NewDescriber creates a describer over the given labels and formatter.
func NewDescriber(labels *Labels, format *Formatter) *Describer {
	if labels == nil {
		labels = DefaultLabels()
	}
	if format == nil {
		format = NewFormatter(labels, FormatOptions{})
	}
	return &Describer{
		labels:     labels,
		format:     format,
		strategies: builtinStrategies(),
	}
}

// Labels returns the registries the describer renders with.
func (d *Describer) Labels() *Labels { return d.labels }

// Formatter returns the value formatter the describer renders with.
func (d *Describer) Formatter() *Formatter { return d.format }

// Describe renders one record. It is total: any missing name or value
// degrades to a placeholder and the summary is never empty.
func (d *Describer) Describe(rec ChangeRecord, ix *NameIndex) (desc Description) {
	defer func() {
		if p := recover(); p != nil {
			desc = Description{Summary: d.fallbackSentence(&rec, d.labels.Phrases.System)}
		}
	}()

	st, known := d.strategies[rec.Collection]
	rc := &recordContext{
		rec:   &rec,
		ix:    ix,
		actor: d.ActorName(&rec, ix),
	}
	if !known {
		return Description{Summary: d.fallbackSentence(&rec, rc.actor)}
	}

	rc.entity = d.entityName(st, &rec, ix)
	if rec.Action == ActionUpdate {
		rc.changed = ChangedFields(rec.Before, rec.After)
	}

	var summary string
	if st.compose != nil {
		summary = st.compose(d, rc)
	}
	if summary == "" {
		summary = d.genericSentence(st, rc)
	}

	desc.Summary = summary
	if rec.Collection != CollectionUserLogins {
		desc.FieldChanges = d.fieldChanges(rc)
	}
	return desc
}

// Item renders a record into a feed row.
func (d *Describer) Item(rec ChangeRecord, ix *NameIndex) FeedItem {
	return FeedItem{
		Record:          rec,
		Description:     d.Describe(rec, ix),
		Actor:           d.ActorName(&rec, ix),
		ActionLabel:     d.labels.Action(rec.Action),
		CollectionLabel: d.labels.Collection(rec.Collection),
		When:            d.format.FormatTime(rec.OccurredAt),
	}
}

// ActorName resolves who performed the action: the live user name, then
// the denormalized display name, then the email's local part, then the
// "System" label.
func (d *Describer) ActorName(rec *ChangeRecord, ix *NameIndex) string {
	if name, ok := ix.Name(KindUser, rec.ActorID); ok {
		return name
	}
	if name := strings.TrimSpace(rec.ActorName); name != "" {
		return name
	}
	if name := nameFromEmail(rec.ActorEmail); name != "" {
		return name
	}
	return d.labels.Phrases.System
}

// entityName picks the display name of the affected entity: the resolved
// name, then a name field from the snapshots, then the collection's noun.
// Raw ids are never returned.
func (d *Describer) entityName(st strategy, rec *ChangeRecord, ix *NameIndex) string {
	if st.kind != "" {
		if name, ok := ix.Name(st.kind, rec.RecordID); ok {
			return quote(name)
		}
	}
	for _, snap := range []map[string]any{rec.After, rec.Before} {
		for _, f := range st.nameFields {
			if name := stringValue(snap[f]); name != "" {
				return quote(name)
			}
		}
	}
	return d.labels.Noun(rec.Collection)
}

// genericSentence is the per-action sentence shared by most collections.
func (d *Describer) genericSentence(st strategy, rc *recordContext) string {
	switch rc.rec.Action {
	case ActionCreate:
		return fmt.Sprintf("%s created %s.", rc.actor, rc.entity)
	case ActionDelete:
		return fmt.Sprintf("%s deleted %s.", rc.actor, rc.entity)
	case ActionUpdate:
		return d.updateSentence(st, rc)
	}
	return d.fallbackSentence(rc.rec, rc.actor)
}

// updateSentence describes an UPDATE from its changed fields.
func (d *Describer) updateSentence(st strategy, rc *recordContext) string {
	switch n := len(rc.changed); {
	case n == 0:
		return fmt.Sprintf("%s updated %s.", rc.actor, rc.entity)
	case n == 1 && st.important[rc.changed[0]]:
		return d.detailedSentence(rc, rc.changed[0])
	default:
		return d.listSentence(rc)
	}
}

// detailedSentence names old and new values of a single important field.
func (d *Describer) detailedSentence(rc *recordContext, field string) string {
	rec := rc.rec
	oldVal := d.format.Format(rec.Collection, field, rec.Before[field], rc.ix)
	newVal := d.format.Format(rec.Collection, field, rec.After[field], rc.ix)

	if kind, ok := kindForField(field); ok && kind == KindUser {
		if isBlank(rec.Before[field]) {
			return fmt.Sprintf("%s assigned %s to %s.", rc.actor, rc.entity, newVal)
		}
		if isBlank(rec.After[field]) {
			return fmt.Sprintf("%s unassigned %s from %s.", rc.actor, oldVal, rc.entity)
		}
		return fmt.Sprintf("%s reassigned %s from %s to %s.", rc.actor, rc.entity, oldVal, newVal)
	}

	return fmt.Sprintf("%s changed %s of %s from %s to %s.",
		rc.actor, d.labels.Field(field), rc.entity, quote(oldVal), quote(newVal))
}

// listSentence names up to maxListedFields changed fields.
func (d *Describer) listSentence(rc *recordContext) string {
	shown := rc.changed
	if len(shown) > maxListedFields {
		shown = shown[:maxListedFields]
	}
	labels := make([]string, len(shown))
	for i, f := range shown {
		labels[i] = d.labels.Field(f)
	}

	var listed string
	switch extra := len(rc.changed) - len(shown); {
	case extra == 1:
		listed = strings.Join(labels, ", ") + " and 1 more field"
	case extra > 1:
		listed = fmt.Sprintf("%s and %d more fields", strings.Join(labels, ", "), extra)
	default:
		listed = joinLabels(labels)
	}

	return fmt.Sprintf("%s updated %s on %s.", rc.actor, listed, rc.entity)
}

// fallbackSentence describes a record of an unrecognized collection.
func (d *Describer) fallbackSentence(rec *ChangeRecord, actor string) string {
	return fmt.Sprintf("%s performed %s on %s.",
		actor, d.labels.Action(rec.Action), d.labels.Collection(rec.Collection))
}

// fieldChanges lists every changed field with formatted values.
func (d *Describer) fieldChanges(rc *recordContext) []FieldChange {
	if len(rc.changed) == 0 {
		return nil
	}
	rec := rc.rec
	out := make([]FieldChange, 0, len(rc.changed))
	for _, f := range rc.changed {
		out = append(out, FieldChange{
			Field:    f,
			Label:    d.labels.Field(f),
			OldValue: d.format.Format(rec.Collection, f, rec.Before[f], rc.ix),
			NewValue: d.format.Format(rec.Collection, f, rec.After[f], rc.ix),
		})
	}
	return out
}

// nameFromEmail turns "ayse.yilmaz@example.com" into "Ayse Yilmaz".
func nameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return ""
	}
	// Casers carry state, so each call gets its own.
	return cases.Title(language.Turkish).String(strings.Join(parts, " "))
}

// --- Collection-specific narratives ---

// composeTask mentions the assignee when a task is created already
// assigned.
func composeTask(d *Describer, rc *recordContext) string {
	if rc.rec.Action != ActionCreate {
		return ""
	}
	id := stringValue(rc.rec.After["assignedTo"])
	if id == "" {
		return ""
	}
	assignee, ok := rc.ix.Name(KindUser, id)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s created %s and assigned it to %s.", rc.actor, rc.entity, assignee)
}

// composeLogin renders login and logout events from metadata only.
func composeLogin(d *Describer, rc *recordContext) string {
	meta := rc.rec.Metadata
	switch strings.ToLower(stringValue(meta["action"])) {
	case "logout":
		return fmt.Sprintf("%s logged out.", rc.actor)
	case "failed_login", "login_failed":
		return fmt.Sprintf("%s failed to log in.", rc.actor)
	}

	switch method := strings.ToLower(stringValue(meta["method"])); method {
	case "":
		return fmt.Sprintf("%s logged in.", rc.actor)
	case "google":
		return fmt.Sprintf("%s logged in with Google.", rc.actor)
	case "password", "email":
		return fmt.Sprintf("%s logged in with email and password.", rc.actor)
	case "sso":
		return fmt.Sprintf("%s logged in via single sign-on.", rc.actor)
	default:
		return fmt.Sprintf("%s logged in via %s.", rc.actor, method)
	}
}

// composeSecurityEvent names the event type when one is recorded.
func composeSecurityEvent(d *Describer, rc *recordContext) string {
	eventType := stringValue(rc.rec.After["type"])
	if eventType == "" {
		eventType = stringValue(rc.rec.Metadata["type"])
	}
	if eventType == "" {
		return fmt.Sprintf("A security event was recorded for %s.", rc.actor)
	}
	return fmt.Sprintf("A security event (%s) was recorded for %s.", eventType, rc.actor)
}

// composeTaskAssignment covers assignment creation and removal.
func composeTaskAssignment(d *Describer, rc *recordContext) string {
	rec := rc.rec
	switch rec.Action {
	case ActionCreate:
		task, assignee, project := assignmentParts(d, rec.After, rc.ix)
		sentence := fmt.Sprintf("%s created task %s and assigned it to %s.", rc.actor, task, assignee)
		if project != "" {
			sentence = fmt.Sprintf("In project %s, %s", project, sentence)
		}
		return sentence
	case ActionDelete:
		task, assignee, _ := assignmentParts(d, rec.Before, rc.ix)
		return fmt.Sprintf("%s unassigned %s from task %s.", rc.actor, assignee, task)
	}
	return ""
}

// assignmentParts resolves the task, assignee and parent project of an
// assignment snapshot. The project is "" when it cannot be named.
func assignmentParts(d *Describer, snap map[string]any, ix *NameIndex) (task, assignee, project string) {
	taskID := stringValue(snap["taskId"])

	task = d.labels.Noun(CollectionTasks)
	if name, ok := ix.Name(KindTask, taskID); ok {
		task = quote(name)
	} else if title := stringValue(snap["taskTitle"]); title != "" {
		task = quote(title)
	}

	assignee = d.labels.Phrases.Unknown
	userID := stringValue(snap["assignedTo"])
	if userID == "" {
		userID = stringValue(snap["userId"])
	}
	if name, ok := ix.Name(KindUser, userID); ok {
		assignee = name
	} else if name := stringValue(snap["assignedToName"]); name != "" {
		assignee = name
	}

	projectID, ok := ix.ParentProject(taskID)
	if !ok {
		projectID = stringValue(snap["projectId"])
	}
	if name, ok := ix.Name(KindProject, projectID); ok {
		project = quote(name)
	} else if name := stringValue(snap["projectName"]); name != "" {
		project = quote(name)
	}
	return task, assignee, project
}

// composeCustomerNote describes notes in terms of the customer they
// belong to.
func composeCustomerNote(d *Describer, rc *recordContext) string {
	rec := rc.rec
	snap := rec.After
	if rec.Action == ActionDelete {
		snap = rec.Before
	}

	customer := d.labels.Noun(CollectionCustomers)
	if name, ok := rc.ix.Name(KindCustomer, stringValue(snap["customerId"])); ok {
		customer = quote(name)
	} else if name := stringValue(snap["customerName"]); name != "" {
		customer = quote(name)
	}

	switch rec.Action {
	case ActionCreate:
		return fmt.Sprintf("%s added a note to %s.", rc.actor, customer)
	case ActionUpdate:
		return fmt.Sprintf("%s edited a note on %s.", rc.actor, customer)
	case ActionDelete:
		return fmt.Sprintf("%s removed a note from %s.", rc.actor, customer)
	}
	return ""
}

// --- helpers ---

// stringValue reads a snapshot value as a trimmed string. Numbers are
// accepted so numeric order numbers still name their order.
// isBlank reports whether a reference field holds no entity: null, blank
// text or an empty list.
func isBlank(v any) bool {
	switch s := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(s) == ""
	case []any:
		return len(s) == 0
	case []string:
		return len(s) == 0
	}
	return false
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64, float32, int, int64:
		return scalarString(s)
	}
	return ""
}

func quote(s string) string {
	return `"` + s + `"`
}

// joinLabels joins labels as "a", "a and b", "a, b and c".
func joinLabels(labels []string) string {
	switch len(labels) {
	case 0:
		return ""
	case 1:
		return labels[0]
	}
	return strings.Join(labels[:len(labels)-1], ", ") + " and " + labels[len(labels)-1]
}
