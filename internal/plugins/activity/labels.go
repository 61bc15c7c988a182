package activity

import (
	"fmt"
	"maps"
)

// Registry maps internal identifiers to display strings. Lookups of
// unknown keys return the key itself so the result is always printable.
type Registry map[string]string

// Get returns the display string for key, or key when none is registered.
func (r Registry) Get(key string) string {
	if v, ok := r[key]; ok && v != "" {
		return v
	}
	return key
}

// Has reports whether key has a registered label.
func (r Registry) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Phrases are the fixed placeholder words used when a value or name is
// missing.
type Phrases struct {
	None    string
	Yes     string
	No      string
	Empty   string
	Items   string // fmt pattern taking the item count
	System  string
	Unknown string
	Record  string
}

// ItemCount renders the "N items" phrase.
func (p Phrases) ItemCount(n int) string {
	return fmt.Sprintf(p.Items, n)
}

// Labels bundles every registry the formatter and describer read. It is
// passed in explicitly and treated as read-only once built.
type Labels struct {
	Actions     Registry
	Collections Registry
	Fields      Registry
	Statuses    Registry

	// Nouns is the indefinite phrase used for an entity whose name could
	// not be resolved ("a customer", "a task").
	Nouns Registry

	Phrases Phrases
}

// Action returns the display label of an action.
func (l *Labels) Action(a Action) string { return l.Actions.Get(string(a)) }

// Collection returns the display label of a collection.
func (l *Labels) Collection(c Collection) string { return l.Collections.Get(string(c)) }

// Field returns the display label of a snapshot field.
func (l *Labels) Field(name string) string { return l.Fields.Get(name) }

// Status returns the display label of a status value.
func (l *Labels) Status(v string) string { return l.Statuses.Get(v) }

// Noun returns the generic entity phrase for a collection.
func (l *Labels) Noun(c Collection) string {
	if v, ok := l.Nouns[string(c)]; ok {
		return v
	}
	return l.Phrases.Record
}

// DefaultLabels returns a fresh copy of the built-in English labels.
// Callers may modify the copy without affecting other users.
func DefaultLabels() *Labels {
	return &Labels{
		Actions:     maps.Clone(defaultActions),
		Collections: maps.Clone(defaultCollections),
		Fields:      maps.Clone(defaultFields),
		Statuses:    maps.Clone(defaultStatuses),
		Nouns:       maps.Clone(defaultNouns),
		Phrases: Phrases{
			None:    "None",
			Yes:     "Yes",
			No:      "No",
			Empty:   "Empty",
			Items:   "%d items",
			System:  "System",
			Unknown: "Unknown",
			Record:  "a record",
		},
	}
}

var defaultActions = Registry{
	string(ActionCreate): "Create",
	string(ActionUpdate): "Update",
	string(ActionDelete): "Delete",
}

var defaultCollections = Registry{
	"tasks":            "Tasks",
	"projects":         "Projects",
	"customers":        "Customers",
	"orders":           "Orders",
	"products":         "Products",
	"departments":      "Departments",
	"warranties":       "Warranty",
	"production":       "Production",
	"users":            "Users",
	"user_logins":      "User Logins",
	"security_events":  "Security Events",
	"task_assignments": "Task Assignments",
	"customer_notes":   "Customer Notes",
	"order_items":      "Order Items",
	"invoices":         "Invoices",
	"payments":         "Payments",
	"suppliers":        "Suppliers",
	"stock_movements":  "Stock Movements",
	"settings":         "Settings",
	"notifications":    "Notifications",
}

var defaultNouns = Registry{
	"tasks":            "a task",
	"projects":         "a project",
	"customers":        "a customer",
	"orders":           "an order",
	"products":         "a product",
	"departments":      "a department",
	"warranties":       "a warranty record",
	"production":       "a production order",
	"users":            "a user",
	"task_assignments": "a task assignment",
	"customer_notes":   "a customer note",
}

var defaultFields = Registry{
	"name":            "Name",
	"title":           "Title",
	"description":     "Description",
	"status":          "Status",
	"priority":        "Priority",
	"approvalStatus":  "Approval Status",
	"assignedTo":      "Assignee",
	"assignedUsers":   "Assigned Users",
	"assignedBy":      "Assigned By",
	"dueDate":         "Due Date",
	"startDate":       "Start Date",
	"endDate":         "End Date",
	"deliveryDate":    "Delivery Date",
	"completedAt":     "Completed At",
	"createdAt":       "Created At",
	"updatedAt":       "Updated At",
	"createdBy":       "Created By",
	"updatedBy":       "Updated By",
	"approvedBy":      "Approved By",
	"taskId":          "Task",
	"projectId":       "Project",
	"customerId":      "Customer",
	"orderId":         "Order",
	"productId":       "Product",
	"productIds":      "Products",
	"departmentId":    "Department",
	"warrantyId":      "Warranty",
	"managerId":       "Manager",
	"members":         "Members",
	"orderNumber":     "Order Number",
	"quantity":        "Quantity",
	"unitPrice":       "Unit Price",
	"totalAmount":     "Total Amount",
	"currency":        "Currency",
	"email":           "Email",
	"phone":           "Phone",
	"address":         "Address",
	"city":            "City",
	"taxNumber":       "Tax Number",
	"notes":           "Notes",
	"note":            "Note",
	"role":            "Role",
	"isActive":        "Active",
	"serialNumber":    "Serial Number",
	"warrantyEndDate": "Warranty End Date",
	"progress":        "Progress",
}

var defaultStatuses = Registry{
	"pending":       "Pending",
	"in_progress":   "In Progress",
	"completed":     "Completed",
	"cancelled":     "Cancelled",
	"on_hold":       "On Hold",
	"draft":         "Draft",
	"active":        "Active",
	"inactive":      "Inactive",
	"approved":      "Approved",
	"rejected":      "Rejected",
	"awaiting":      "Awaiting Approval",
	"shipped":       "Shipped",
	"delivered":     "Delivered",
	"returned":      "Returned",
	"planned":       "Planned",
	"in_production": "In Production",
	"quality_check": "Quality Check",
	"open":          "Open",
	"closed":        "Closed",
	"expired":       "Expired",
	"low":           "Low",
	"medium":        "Medium",
	"high":          "High",
	"urgent":        "Urgent",
}
