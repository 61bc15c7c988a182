package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe_CreateUsesNameField(t *testing.T) {
	d := newTestDescriber()
	rec := ChangeRecord{
		Collection: CollectionCustomers,
		Action:     ActionCreate,
		After:      map[string]any{"name": "Acme Ltd"},
		ActorName:  "Ayşe",
	}

	desc := d.Describe(rec, NewNameIndex())
	assert.Equal(t, `Ayşe created "Acme Ltd".`, desc.Summary)
	assert.Empty(t, desc.FieldChanges)
}

func TestDescribe_SingleImportantFieldUsesStatusLabels(t *testing.T) {
	d := newTestDescriber()
	rec := ChangeRecord{
		Collection: CollectionTasks,
		Action:     ActionUpdate,
		Before:     map[string]any{"status": "pending"},
		After:      map[string]any{"status": "completed"},
		ActorName:  "Ayşe",
	}

	desc := d.Describe(rec, nil)
	assert.Equal(t, `Ayşe changed Status of a task from "Pending" to "Completed".`, desc.Summary)
	require.Len(t, desc.FieldChanges, 1)
	assert.Equal(t, FieldChange{Field: "status", Label: "Status", OldValue: "Pending", NewValue: "Completed"}, desc.FieldChanges[0])
}

func TestDescribe_ManyFieldsCollapse(t *testing.T) {
	d := newTestDescriber()
	rec := ChangeRecord{
		Collection: CollectionProducts,
		Action:     ActionUpdate,
		RecordID:   "prd1",
		Before:     map[string]any{"name": "Cable", "description": "a", "notes": "x", "unitPrice": 10.0, "quantity": 1.0},
		After:      map[string]any{"name": "Cable", "description": "b", "notes": "y", "unitPrice": 12.0, "quantity": 2.0},
		ActorName:  "Mehmet",
	}

	desc := d.Describe(rec, nil)
	assert.Equal(t, `Mehmet updated Description, Notes, Quantity and 1 more field on "Cable".`, desc.Summary)
	assert.Len(t, desc.FieldChanges, 4)
}

func TestDescribe_ManyFieldsPlural(t *testing.T) {
	d := newTestDescriber()
	rec := ChangeRecord{
		Collection: CollectionOrders,
		Action:     ActionUpdate,
		Before:     map[string]any{"a": 1.0, "b": 1.0, "c": 1.0, "d": 1.0, "e": 1.0},
		After:      map[string]any{"a": 2.0, "b": 2.0, "c": 2.0, "d": 2.0, "e": 2.0},
	}

	desc := d.Describe(rec, nil)
	assert.Equal(t, `System updated a, b, c and 2 more fields on an order.`, desc.Summary)
}

func TestDescribe_TwoFields(t *testing.T) {
	d := newTestDescriber()
	rec := ChangeRecord{
		Collection: CollectionTasks,
		Action:     ActionUpdate,
		Before:     map[string]any{"title": "Wire", "status": "pending", "priority": "low"},
		After:      map[string]any{"title": "Wire", "status": "in_progress", "priority": "high"},
		ActorName:  "Ayşe",
	}

	desc := d.Describe(rec, nil)
	assert.Equal(t, `Ayşe updated Priority and Status on "Wire".`, desc.Summary)
}

func TestDescribe_UpdateWithoutChanges(t *testing.T) {
	d := newTestDescriber()
	rec := ChangeRecord{
		Collection: CollectionProjects,
		Action:     ActionUpdate,
		Before:     map[string]any{"name": "Plant B"},
		After:      map[string]any{"name": "Plant B"},
		ActorName:  "Ayşe",
	}

	assert.Equal(t, `Ayşe updated "Plant B".`, d.Describe(rec, nil).Summary)
}

func TestDescribe_TaskAssignmentCreate(t *testing.T) {
	d := newTestDescriber()
	ix := NewNameIndex()
	ix.Add(KindTask, "t1", "Install wiring")
	ix.Add(KindUser, "u1", "Mehmet")

	rec := ChangeRecord{
		Collection: CollectionTaskAssignments,
		Action:     ActionCreate,
		After:      map[string]any{"taskId": "t1", "assignedTo": "u1"},
		ActorName:  "Ayşe",
	}

	assert.Equal(t, `Ayşe created task "Install wiring" and assigned it to Mehmet.`, d.Describe(rec, ix).Summary)
}

func TestDescribe_TaskAssignmentWithProject(t *testing.T) {
	d := newTestDescriber()
	ix := NewNameIndex()
	ix.Add(KindTask, idTask, "Install wiring")
	ix.Add(KindUser, idMehmet, "Mehmet")
	ix.Add(KindProject, idProject, "Plant B")
	ix.SetParentProject(idTask, idProject)

	rec := ChangeRecord{
		Collection: CollectionTaskAssignments,
		Action:     ActionCreate,
		After:      map[string]any{"taskId": idTask, "assignedTo": idMehmet},
		ActorName:  "Ayşe",
	}

	assert.Equal(t, `In project "Plant B", Ayşe created task "Install wiring" and assigned it to Mehmet.`,
		d.Describe(rec, ix).Summary)
}

func TestDescribe_TaskAssignmentDelete(t *testing.T) {
	d := newTestDescriber()
	rec := ChangeRecord{
		Collection: CollectionTaskAssignments,
		Action:     ActionDelete,
		Before:     map[string]any{"taskId": idTask, "taskTitle": "Install wiring", "assignedToName": "Mehmet"},
		ActorName:  "Ayşe",
	}

	assert.Equal(t, `Ayşe unassigned Mehmet from task "Install wiring".`, d.Describe(rec, nil).Summary)
}

func TestDescribe_UnresolvedRecordIDUsesNoun(t *testing.T) {
	d := newTestDescriber()

	for c := range builtinStrategies() {
		for _, action := range []Action{ActionCreate, ActionUpdate, ActionDelete} {
			rec := ChangeRecord{
				Collection: c,
				Action:     action,
				RecordID:   idOrder,
				Before:     map[string]any{"status": "pending"},
				After:      map[string]any{"status": "completed"},
			}
			summary := d.Describe(rec, NewNameIndex()).Summary
			assert.NotContains(t, summary, idOrder, "%s %s", c, action)
			assert.NotEmpty(t, summary)
		}
	}
}

func TestDescribe_ResolvedRecordIDWinsOverSnapshot(t *testing.T) {
	d := newTestDescriber()
	ix := NewNameIndex()
	ix.Add(KindCustomer, idCustomer, "Acme Holding")

	rec := ChangeRecord{
		Collection: CollectionCustomers,
		Action:     ActionDelete,
		RecordID:   idCustomer,
		Before:     map[string]any{"name": "Acme Ltd"},
		ActorName:  "Ayşe",
	}

	assert.Equal(t, `Ayşe deleted "Acme Holding".`, d.Describe(rec, ix).Summary)
}

func TestDescribe_Assignment(t *testing.T) {
	d := newTestDescriber()
	ix := NewNameIndex()
	ix.Add(KindUser, idAyse, "Ayşe")
	ix.Add(KindUser, idMehmet, "Mehmet")

	base := ChangeRecord{
		Collection: CollectionTasks,
		Action:     ActionUpdate,
		ActorID:    idAyse,
	}

	assigned := base
	assigned.Before = map[string]any{"title": "Wire", "assignedTo": nil}
	assigned.After = map[string]any{"title": "Wire", "assignedTo": idMehmet}
	assert.Equal(t, `Ayşe assigned "Wire" to Mehmet.`, d.Describe(assigned, ix).Summary)

	unassigned := base
	unassigned.Before = map[string]any{"title": "Wire", "assignedTo": idMehmet}
	unassigned.After = map[string]any{"title": "Wire", "assignedTo": nil}
	assert.Equal(t, `Ayşe unassigned Mehmet from "Wire".`, d.Describe(unassigned, ix).Summary)

	reassigned := base
	reassigned.Before = map[string]any{"title": "Wire", "assignedTo": idAyse}
	reassigned.After = map[string]any{"title": "Wire", "assignedTo": idMehmet}
	assert.Equal(t, `Ayşe reassigned "Wire" from Ayşe to Mehmet.`, d.Describe(reassigned, ix).Summary)

	fromBlank := base
	fromBlank.Before = map[string]any{"title": "Wire", "assignedTo": ""}
	fromBlank.After = map[string]any{"title": "Wire", "assignedTo": idMehmet}
	assert.Equal(t, `Ayşe assigned "Wire" to Mehmet.`, d.Describe(fromBlank, ix).Summary)

	toBlank := base
	toBlank.Before = map[string]any{"title": "Wire", "assignedTo": idMehmet}
	toBlank.After = map[string]any{"title": "Wire", "assignedTo": "  "}
	assert.Equal(t, `Ayşe unassigned Mehmet from "Wire".`, d.Describe(toBlank, ix).Summary)
}

func TestDescribe_TaskCreatedAssigned(t *testing.T) {
	d := newTestDescriber()
	ix := NewNameIndex()
	ix.Add(KindUser, idMehmet, "Mehmet")

	rec := ChangeRecord{
		Collection: CollectionTasks,
		Action:     ActionCreate,
		After:      map[string]any{"title": "Install wiring", "assignedTo": idMehmet},
		ActorName:  "Ayşe",
	}
	assert.Equal(t, `Ayşe created "Install wiring" and assigned it to Mehmet.`, d.Describe(rec, ix).Summary)

	// Without a resolvable assignee the plain sentence is used.
	assert.Equal(t, `Ayşe created "Install wiring".`, d.Describe(rec, nil).Summary)
}

func TestDescribe_Logins(t *testing.T) {
	d := newTestDescriber()
	tests := []struct {
		meta map[string]any
		want string
	}{
		{nil, "Ayşe logged in."},
		{map[string]any{"method": "google"}, "Ayşe logged in with Google."},
		{map[string]any{"method": "password"}, "Ayşe logged in with email and password."},
		{map[string]any{"method": "sso"}, "Ayşe logged in via single sign-on."},
		{map[string]any{"method": "passkey"}, "Ayşe logged in via passkey."},
		{map[string]any{"action": "logout"}, "Ayşe logged out."},
		{map[string]any{"action": "failed_login"}, "Ayşe failed to log in."},
	}
	for _, tt := range tests {
		rec := ChangeRecord{
			Collection: CollectionUserLogins,
			Action:     ActionCreate,
			ActorName:  "Ayşe",
			Metadata:   tt.meta,
		}
		desc := d.Describe(rec, nil)
		assert.Equal(t, tt.want, desc.Summary)
		assert.Empty(t, desc.FieldChanges)
	}
}

func TestDescribe_SecurityEvent(t *testing.T) {
	d := newTestDescriber()
	rec := ChangeRecord{
		Collection: CollectionSecurityEvents,
		Action:     ActionCreate,
		ActorEmail: "ayse.yilmaz@example.com",
		After:      map[string]any{"type": "password_reset"},
	}
	assert.Equal(t, "A security event (password_reset) was recorded for Ayse Yilmaz.", d.Describe(rec, nil).Summary)

	rec.After = nil
	assert.Equal(t, "A security event was recorded for Ayse Yilmaz.", d.Describe(rec, nil).Summary)
}

func TestDescribe_CustomerNotes(t *testing.T) {
	d := newTestDescriber()
	ix := NewNameIndex()
	ix.Add(KindCustomer, idCustomer, "Acme Ltd")

	snap := map[string]any{"customerId": idCustomer, "note": "Called"}
	create := ChangeRecord{Collection: CollectionCustomerNotes, Action: ActionCreate, After: snap, ActorName: "Ayşe"}
	del := ChangeRecord{Collection: CollectionCustomerNotes, Action: ActionDelete, Before: snap, ActorName: "Ayşe"}

	assert.Equal(t, `Ayşe added a note to "Acme Ltd".`, d.Describe(create, ix).Summary)
	assert.Equal(t, `Ayşe removed a note from "Acme Ltd".`, d.Describe(del, ix).Summary)
	assert.Equal(t, `Ayşe removed a note from a customer.`, d.Describe(del, nil).Summary)
}

func TestDescribe_UnknownCollectionFallback(t *testing.T) {
	d := newTestDescriber()
	rec := ChangeRecord{
		Collection: "stock_movements",
		Action:     ActionDelete,
		ActorName:  "Ayşe",
	}
	assert.Equal(t, "Ayşe performed Delete on Stock Movements.", d.Describe(rec, nil).Summary)

	rec.Collection = "mystery_table"
	assert.Equal(t, "Ayşe performed Delete on mystery_table.", d.Describe(rec, nil).Summary)
}

func TestActorName_Fallbacks(t *testing.T) {
	d := newTestDescriber()
	ix := NewNameIndex()
	ix.Add(KindUser, idAyse, "Ayşe Yılmaz")

	rec := ChangeRecord{ActorID: idAyse, ActorName: "old name", ActorEmail: "x@example.com"}
	assert.Equal(t, "Ayşe Yılmaz", d.ActorName(&rec, ix))

	rec.ActorID = idMehmet
	assert.Equal(t, "old name", d.ActorName(&rec, ix))

	rec.ActorName = "  "
	rec.ActorEmail = "mehmet_demir@example.com"
	assert.Equal(t, "Mehmet Demir", d.ActorName(&rec, ix))

	rec.ActorEmail = ""
	assert.Equal(t, "System", d.ActorName(&rec, ix))
}

func TestNameFromEmail_TurkishCasing(t *testing.T) {
	assert.Equal(t, "İlker Işık", nameFromEmail("ilker.ışık@example.com"))
	assert.Equal(t, "", nameFromEmail(""))
	assert.Equal(t, "", nameFromEmail("@example.com"))
}

func TestItem(t *testing.T) {
	d := newTestDescriber()
	rec := ChangeRecord{
		ID:         "rec-1",
		Collection: CollectionCustomers,
		Action:     ActionCreate,
		After:      map[string]any{"name": "Acme Ltd"},
		ActorName:  "Ayşe",
		OccurredAt: time.Date(2024, 3, 5, 6, 30, 0, 0, time.UTC),
	}

	item := d.Item(rec, nil)
	assert.Equal(t, "Ayşe", item.Actor)
	assert.Equal(t, "Create", item.ActionLabel)
	assert.Equal(t, "Customers", item.CollectionLabel)
	assert.Equal(t, "05.03.2024 06:30", item.When)
	assert.Equal(t, `Ayşe created "Acme Ltd".`, item.Description.Summary)
}

// describeFixtures covers every collection and action with well-formed
// and deliberately malformed snapshots.
func describeFixtures() []ChangeRecord {
	snapshots := []map[string]any{
		nil,
		{},
		{"status": nil, "assignedTo": 42.0, "members": []any{nil, idAyse}},
		{"title": "", "name": []any{"x"}, "taskId": idTask, "customerId": map[string]any{"bad": true}},
		{"dueDate": map[string]any{"seconds": "soon"}, "address": map[string]any{"city": "Izmir"}},
	}
	collections := []Collection{"unknown"}
	for c := range builtinStrategies() {
		collections = append(collections, c)
	}

	var out []ChangeRecord
	for _, c := range collections {
		for _, a := range []Action{ActionCreate, ActionUpdate, ActionDelete, "ARCHIVE"} {
			for i, before := range snapshots {
				after := snapshots[(i+1)%len(snapshots)]
				out = append(out, ChangeRecord{
					Collection: c,
					Action:     a,
					RecordID:   idTask,
					ActorID:    idAyse,
					Before:     before,
					After:      after,
					Metadata:   after,
				})
			}
		}
	}
	return out
}

func TestDescribe_TotalAndIdempotent(t *testing.T) {
	d := newTestDescriber()
	ix := NewNameIndex()
	ix.Add(KindUser, idAyse, "Ayşe")
	ix.Add(KindTask, idTask, "Install wiring")

	for _, rec := range describeFixtures() {
		for _, index := range []*NameIndex{nil, NewNameIndex(), ix} {
			first := d.Describe(rec, index)
			second := d.Describe(rec, index)
			assert.NotEmpty(t, first.Summary, "%s %s", rec.Collection, rec.Action)
			assert.Equal(t, first, second)
		}
	}
}

func TestDescribe_RemovingNamesOnlyDegrades(t *testing.T) {
	d := newTestDescriber()
	ix := NewNameIndex()
	ix.Add(KindUser, idAyse, "Ayşe")
	ix.Add(KindTask, idTask, "Install wiring")

	for _, rec := range describeFixtures() {
		for _, key := range []EntityKey{{KindUser, idAyse}, {KindTask, idTask}} {
			reduced := ix.Without(key.Kind, key.ID)
			assert.NotPanics(t, func() {
				summary := d.Describe(rec, reduced).Summary
				assert.NotEmpty(t, summary)
			})
		}
	}
}
