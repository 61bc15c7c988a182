package activity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFormatter(t *testing.T) *Formatter {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Istanbul")
	require.NoError(t, err)
	return NewFormatter(DefaultLabels(), FormatOptions{Location: loc})
}

func TestFormat_Scalars(t *testing.T) {
	f := newTestFormatter(t)

	tests := []struct {
		name  string
		field string
		value any
		want  string
	}{
		{"nil", "notes", nil, "None"},
		{"true", "isActive", true, "Yes"},
		{"false", "isActive", false, "No"},
		{"plain string", "notes", "call back", "call back"},
		{"status label", "status", "in_progress", "In Progress"},
		{"priority label", "priority", "urgent", "Urgent"},
		{"unknown status", "status", "archived", "archived"},
		{"status word outside status field", "notes", "pending", "pending"},
		{"integer float", "quantity", 12.0, "12"},
		{"fraction", "unitPrice", 19.95, "19.95"},
		{"large number without exponent", "totalAmount", 1250000.0, "1250000"},
		{"json number", "quantity", json.Number("7"), "7"},
		{"int", "quantity", 3, "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Format(CollectionOrders, tt.field, tt.value, nil))
		})
	}
}

func TestFormat_Times(t *testing.T) {
	f := newTestFormatter(t)
	ts := time.Date(2024, 3, 5, 6, 30, 0, 0, time.UTC)

	assert.Equal(t, "05.03.2024 09:30", f.Format(CollectionTasks, "dueDate", ts, nil))
	assert.Equal(t, "05.03.2024 09:30", f.Format(CollectionTasks, "dueDate", &ts, nil))
	assert.Equal(t, "05.03.2024 09:30", f.Format(CollectionTasks, "dueDate", "2024-03-05T06:30:00Z", nil))
	assert.Equal(t, "05.03.2024 09:30", f.Format(CollectionTasks, "dueDate",
		map[string]any{"seconds": float64(ts.Unix()), "nanoseconds": 0.0}, nil))
	assert.Equal(t, "05.03.2024 09:30", f.Format(CollectionTasks, "dueDate",
		map[string]any{"_seconds": float64(ts.Unix()), "_nanoseconds": 0.0}, nil))

	// Zone-less dates are read in the display zone.
	assert.Equal(t, "01.05.2024 00:00", f.Format(CollectionTasks, "dueDate", "2024-05-01", nil))
	assert.Equal(t, "01.05.2024 10:30", f.Format(CollectionTasks, "deliveryDate", "2024-05-01 10:30:00", nil))
	assert.Equal(t, "01.05.2024 10:30", f.Format(CollectionTasks, "dueDate", "2024-05-01T10:30:00", nil))
	assert.Equal(t, "01.05.2024 10:30", f.Format(CollectionWarranties, "warrantyEndDate", "2024-05-01T10:30", nil))

	// Date-like text that does not parse stays as typed.
	assert.Equal(t, "2024-13-45", f.Format(CollectionTasks, "dueDate", "2024-13-45", nil))
	assert.Equal(t, "2024-05-01 and later", f.Format(CollectionTasks, "notes", "2024-05-01 and later", nil))
}

func TestFormat_CustomLayout(t *testing.T) {
	f := NewFormatter(nil, FormatOptions{DateLayout: time.DateOnly})
	ts := time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-12-31", f.FormatTime(ts))
}

func TestFormat_References(t *testing.T) {
	f := newTestFormatter(t)
	ix := NewNameIndex()
	ix.Add(KindUser, idMehmet, "Mehmet")
	ix.Add(KindCustomer, idCustomer, "Acme Ltd")

	assert.Equal(t, "Mehmet", f.Format(CollectionTasks, "assignedTo", idMehmet, ix))
	assert.Equal(t, "Acme Ltd", f.Format(CollectionOrders, "customerId", idCustomer, ix))

	// Unresolved ids in scalar fields are shown as stored.
	assert.Equal(t, idAyse, f.Format(CollectionTasks, "assignedTo", idAyse, ix))

	// A resolved id under a field of another kind is not substituted.
	assert.Equal(t, idMehmet, f.Format(CollectionOrders, "customerId", idMehmet, ix))
}

func TestFormat_Lists(t *testing.T) {
	f := newTestFormatter(t)
	ix := NewNameIndex()
	ix.Add(KindUser, idAyse, "Ayşe")
	ix.Add(KindUser, idMehmet, "Mehmet")

	tests := []struct {
		name  string
		field string
		value any
		want  string
	}{
		{"empty", "members", []any{}, "Empty"},
		{"resolved ids", "members", []any{idAyse, idMehmet}, "Ayşe, Mehmet"},
		{"string slice", "assignedUsers", []string{idMehmet}, "Mehmet"},
		{"unresolved id truncated", "members", []any{idAyse, idTask}, "Ayşe, tsk4Fg6H…"},
		{"ids under unknown field truncated", "related", []any{idAyse}, "usr7Hq2L…"},
		{"non-id items counted", "tags", []any{"red", "blue", "green"}, "3 items"},
		{"mixed items counted", "members", []any{idAyse, 4.0}, "2 items"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Format(CollectionProjects, tt.field, tt.value, ix))
		})
	}
}

func TestFormat_NestedObjectIsCanonicalJSON(t *testing.T) {
	f := newTestFormatter(t)
	got := f.Format(CollectionCustomers, "address", map[string]any{"zip": "35000", "city": "Izmir"}, nil)
	assert.Equal(t, `{"city":"Izmir","zip":"35000"}`, got)
}

func TestTruncateID_ShortIDUnchanged(t *testing.T) {
	assert.Equal(t, "abc", truncateID("abc"))
	assert.Equal(t, "abcdefgh", truncateID("abcdefgh"))
	assert.Equal(t, "abcdefgh…", truncateID("abcdefghi"))
}

func TestFormat_RichTextFieldsArePlain(t *testing.T) {
	f := newTestFormatter(t)
	got := f.Format(CollectionCustomerNotes, "content", "<p>Called <b>Acme</b></p><p>Ship on Monday</p>", nil)
	assert.Equal(t, "Called Acme Ship on Monday", got)

	// Other fields keep their text as stored.
	assert.Equal(t, "<b>x</b>", f.Format(CollectionTasks, "title", "<b>x</b>", nil))
}
