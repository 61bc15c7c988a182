package activity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keyxmakerx/bizledger/internal/apperror"
)

// lookupRepository implements EntityLookup by reading display columns
// straight from the dashboard's business tables.
type lookupRepository struct {
	db *sql.DB
}

// NewLookupRepository creates an EntityLookup backed by the given DB pool.
func NewLookupRepository(db *sql.DB) EntityLookup {
	return &lookupRepository{db: db}
}

// FindTask returns a task's title and the project it belongs to.
func (r *lookupRepository) FindTask(ctx context.Context, id string) (*TaskRef, error) {
	var t TaskRef
	var projectID sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, project_id FROM tasks WHERE id = ?`, id,
	).Scan(&t.ID, &t.Title, &projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("task not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying task %s: %w", id, err)
	}
	t.ProjectID = projectID.String
	return &t, nil
}

// FindProject returns a project's name.
func (r *lookupRepository) FindProject(ctx context.Context, id string) (*NamedRef, error) {
	return r.findNamed(ctx, `SELECT id, name FROM projects WHERE id = ?`, id, "project")
}

// FindCustomer returns a customer's name.
func (r *lookupRepository) FindCustomer(ctx context.Context, id string) (*NamedRef, error) {
	return r.findNamed(ctx, `SELECT id, name FROM customers WHERE id = ?`, id, "customer")
}

// FindOrder returns an order's number as its display name.
func (r *lookupRepository) FindOrder(ctx context.Context, id string) (*NamedRef, error) {
	return r.findNamed(ctx, `SELECT id, order_number FROM orders WHERE id = ?`, id, "order")
}

// FindProduct returns a product's name.
func (r *lookupRepository) FindProduct(ctx context.Context, id string) (*NamedRef, error) {
	return r.findNamed(ctx, `SELECT id, name FROM products WHERE id = ?`, id, "product")
}

// FindDepartment returns a department's name.
func (r *lookupRepository) FindDepartment(ctx context.Context, id string) (*NamedRef, error) {
	return r.findNamed(ctx, `SELECT id, name FROM departments WHERE id = ?`, id, "department")
}

// FindWarranty names a warranty record after its serial number.
func (r *lookupRepository) FindWarranty(ctx context.Context, id string) (*NamedRef, error) {
	return r.findNamed(ctx, `SELECT id, serial_number FROM warranties WHERE id = ?`, id, "warranty")
}

// ListUsers returns the whole user directory. The dashboard has a small
// user base, so one listing is cheaper than a query per actor.
func (r *lookupRepository) ListUsers(ctx context.Context) ([]UserRef, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, display_name, email FROM users`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []UserRef
	for rows.Next() {
		var u UserRef
		var name, email sql.NullString
		if err := rows.Scan(&u.ID, &name, &email); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		u.DisplayName = name.String
		u.Email = email.String
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

// findNamed runs a two-column (id, name) lookup query.
func (r *lookupRepository) findNamed(ctx context.Context, query, id, what string) (*NamedRef, error) {
	var ref NamedRef
	var name sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(&ref.ID, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound(what + " not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying %s %s: %w", what, id, err)
	}
	ref.Name = name.String
	return &ref, nil
}
