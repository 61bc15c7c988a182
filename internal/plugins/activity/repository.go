package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/keyxmakerx/bizledger/internal/apperror"
)

// ActivityRepository defines the data access contract for the activity
// log. All SQL lives in the concrete implementation -- no SQL leaks out.
type ActivityRepository interface {
	// Create inserts a change record. Records are never updated.
	Create(ctx context.Context, rec *ChangeRecord) error

	// FindByID returns one record or a not-found AppError.
	FindByID(ctx context.Context, id string) (*ChangeRecord, error)

	// List returns records matching the filter, most recent first, plus
	// the total count of matches for pagination.
	List(ctx context.Context, filter RecordFilter) ([]ChangeRecord, int, error)

	// ListByRecord returns the most recent records for one entity.
	ListByRecord(ctx context.Context, collection Collection, recordID string, limit int) ([]ChangeRecord, error)

	// PurgeBefore deletes records older than cutoff and returns how many
	// were removed.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// activityRepository implements ActivityRepository with MariaDB queries.
type activityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new repository backed by the given DB pool.
func NewActivityRepository(db *sql.DB) ActivityRepository {
	return &activityRepository{db: db}
}

const selectColumns = `SELECT id, collection, action, record_id,
	                          before_data, after_data, metadata,
	                          actor_id, actor_name, actor_email, occurred_at
	                   FROM activity_log`

// Create inserts a change record. Snapshot and metadata maps are stored as
// JSON; nil maps are stored as SQL NULL.
func (r *activityRepository) Create(ctx context.Context, rec *ChangeRecord) error {
	query := `INSERT INTO activity_log (id, collection, action, record_id,
	                                    before_data, after_data, metadata,
	                                    actor_id, actor_name, actor_email, occurred_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	before, err := marshalJSON(rec.Before)
	if err != nil {
		return fmt.Errorf("marshaling before snapshot: %w", err)
	}
	after, err := marshalJSON(rec.After)
	if err != nil {
		return fmt.Errorf("marshaling after snapshot: %w", err)
	}
	meta, err := marshalJSON(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query,
		rec.ID, string(rec.Collection), string(rec.Action), nullString(rec.RecordID),
		before, after, meta,
		nullString(rec.ActorID), rec.ActorName, rec.ActorEmail, rec.OccurredAt,
	); err != nil {
		return fmt.Errorf("inserting activity record: %w", err)
	}
	return nil
}

// FindByID returns a single record.
func (r *activityRepository) FindByID(ctx context.Context, id string) (*ChangeRecord, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("activity record not found")
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns filtered records ordered by most recent first.
func (r *activityRepository) List(ctx context.Context, filter RecordFilter) ([]ChangeRecord, int, error) {
	where, args := filterClause(filter)

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activity_log`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting activity records: %w", err)
	}

	query := selectColumns + where + ` ORDER BY occurred_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing activity records: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListByRecord returns the change history of one entity.
func (r *activityRepository) ListByRecord(ctx context.Context, collection Collection, recordID string, limit int) ([]ChangeRecord, error) {
	query := selectColumns + ` WHERE collection = ? AND record_id = ?
	          ORDER BY occurred_at DESC, id DESC
	          LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, string(collection), recordID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing record history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// PurgeBefore deletes records older than cutoff.
func (r *activityRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM activity_log WHERE occurred_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging activity records: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged records: %w", err)
	}
	return n, nil
}

// filterClause builds the WHERE clause for a filter. Only fixed column
// names are interpolated; every value is a bind parameter.
func filterClause(f RecordFilter) (string, []any) {
	var conds []string
	var args []any

	if f.Collection != "" {
		conds = append(conds, "collection = ?")
		args = append(args, string(f.Collection))
	}
	if f.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, string(f.Action))
	}
	if f.ActorID != "" {
		conds = append(conds, "actor_id = ?")
		args = append(args, f.ActorID)
	}
	if f.RecordID != "" {
		conds = append(conds, "record_id = ?")
		args = append(args, f.RecordID)
	}
	if f.Since != nil {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, *f.Since)
	}
	if f.Until != nil {
		conds = append(conds, "occurred_at < ?")
		args = append(args, *f.Until)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one activity_log row. Expects the columns of
// selectColumns in order.
func scanRecord(row rowScanner) (*ChangeRecord, error) {
	var rec ChangeRecord
	var collection, action string
	var recordID, actorID sql.NullString
	var before, after, meta sql.NullString

	if err := row.Scan(
		&rec.ID, &collection, &action, &recordID,
		&before, &after, &meta,
		&actorID, &rec.ActorName, &rec.ActorEmail, &rec.OccurredAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning activity record: %w", err)
	}

	rec.Collection = Collection(collection)
	rec.Action = Action(action)
	rec.RecordID = recordID.String
	rec.ActorID = actorID.String
	rec.Before = unmarshalJSON(before)
	rec.After = unmarshalJSON(after)
	rec.Metadata = unmarshalJSON(meta)
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]ChangeRecord, error) {
	var records []ChangeRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity rows: %w", err)
	}
	return records, nil
}

func marshalJSON(m map[string]any) (any, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// unmarshalJSON decodes a JSON column. Invalid JSON is non-fatal so one
// bad row never breaks a feed.
func unmarshalJSON(s sql.NullString) map[string]any {
	if !s.Valid || s.String == "" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s.String), &m); err != nil {
		return map[string]any{"_parse_error": "invalid JSON"}
	}
	return m
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
