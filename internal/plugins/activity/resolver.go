package activity

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/keyxmakerx/bizledger/internal/metrics"
)

// defaultLookupConcurrency bounds the lookup fan-out when no limit is set.
const defaultLookupConcurrency = 8

// TaskRef is what the resolver needs to know about a task.
type TaskRef struct {
	ID        string
	Title     string
	ProjectID string
}

// NamedRef is a referenced entity reduced to its display name.
type NamedRef struct {
	ID   string
	Name string
}

// UserRef is a dashboard user as seen by the resolver.
type UserRef struct {
	ID          string
	DisplayName string
	Email       string
}

// EntityLookup fetches single entities by id from the collections change
// records point into. Any error means "unresolved"; the resolver never
// propagates it.
type EntityLookup interface {
	FindTask(ctx context.Context, id string) (*TaskRef, error)
	FindProject(ctx context.Context, id string) (*NamedRef, error)
	FindCustomer(ctx context.Context, id string) (*NamedRef, error)
	FindOrder(ctx context.Context, id string) (*NamedRef, error)
	FindProduct(ctx context.Context, id string) (*NamedRef, error)
	FindDepartment(ctx context.Context, id string) (*NamedRef, error)
	FindWarranty(ctx context.Context, id string) (*NamedRef, error)
	ListUsers(ctx context.Context) ([]UserRef, error)
}

// ResolverOptions tunes a Resolver.
type ResolverOptions struct {
	// Concurrency caps in-flight lookups per batch. Zero means the default.
	Concurrency int

	// DebugLookups logs every failed lookup at debug level.
	DebugLookups bool
}

// Resolver builds a NameIndex for a batch of change records.
type Resolver struct {
	lookup      EntityLookup
	concurrency int
	debug       bool
}

// NewResolver creates a resolver backed by the given lookup.
func NewResolver(lookup EntityLookup, opts ResolverOptions) *Resolver {
	n := opts.Concurrency
	if n <= 0 {
		n = defaultLookupConcurrency
	}
	return &Resolver{lookup: lookup, concurrency: n, debug: opts.DebugLookups}
}

// lookupResult is written by exactly one goroutine and merged into the
// index after the round completes.
type lookupResult struct {
	key       EntityKey
	name      string
	projectID string
	err       error
}

// Resolve scans records for referenced ids and looks each one up at most
// once. Individual failures leave the entry unresolved; the returned index
// is never nil.
func (r *Resolver) Resolve(ctx context.Context, records []ChangeRecord) *NameIndex {
	ix := NewNameIndex()
	refs := collectRefs(records)
	if len(refs) == 0 {
		return ix
	}

	var users []string
	var keys []EntityKey
	for _, k := range sortedKeys(refs) {
		if k.Kind == KindUser {
			users = append(users, k.ID)
			continue
		}
		keys = append(keys, k)
	}

	// First round: every non-user id plus the user directory.
	results := r.lookupAll(ctx, keys, users)
	r.merge(ix, results)

	// Second round: projects discovered through tasks.
	var projects []EntityKey
	seen := make(map[EntityKey]struct{})
	for _, res := range results {
		if res.projectID == "" {
			continue
		}
		pk := EntityKey{KindProject, res.projectID}
		if _, done := ix.Lookup(KindProject, res.projectID); done {
			continue
		}
		if _, dup := seen[pk]; dup {
			continue
		}
		seen[pk] = struct{}{}
		projects = append(projects, pk)
	}
	if len(projects) > 0 {
		r.merge(ix, r.lookupAll(ctx, projects, nil))
	}

	return ix
}

// lookupAll runs one bounded fan-out round. Goroutines never return an
// error to the group so a failure cannot cancel its siblings.
func (r *Resolver) lookupAll(ctx context.Context, keys []EntityKey, users []string) []lookupResult {
	results := make([]lookupResult, len(keys))

	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i, k := range keys {
		g.Go(func() error {
			name, projectID, err := r.lookupOne(ctx, k)
			results[i] = lookupResult{key: k, name: name, projectID: projectID, err: err}
			return nil
		})
	}

	var userResults []lookupResult
	if len(users) > 0 {
		g.Go(func() error {
			userResults = r.lookupUsers(ctx, users)
			return nil
		})
	}

	_ = g.Wait()
	return append(results, userResults...)
}

// lookupOne fetches one non-user entity.
func (r *Resolver) lookupOne(ctx context.Context, k EntityKey) (name, projectID string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("lookup panicked: %v", p)
		}
	}()

	var ref *NamedRef
	switch k.Kind {
	case KindTask:
		t, err := r.lookup.FindTask(ctx, k.ID)
		if err != nil {
			return "", "", err
		}
		if t == nil {
			return "", "", errUnresolved
		}
		return t.Title, t.ProjectID, nil
	case KindProject:
		ref, err = r.lookup.FindProject(ctx, k.ID)
	case KindCustomer:
		ref, err = r.lookup.FindCustomer(ctx, k.ID)
	case KindOrder:
		ref, err = r.lookup.FindOrder(ctx, k.ID)
	case KindProduct:
		ref, err = r.lookup.FindProduct(ctx, k.ID)
	case KindDepartment:
		ref, err = r.lookup.FindDepartment(ctx, k.ID)
	case KindWarranty:
		ref, err = r.lookup.FindWarranty(ctx, k.ID)
	default:
		return "", "", fmt.Errorf("no lookup for kind %q", k.Kind)
	}
	if err != nil {
		return "", "", err
	}
	if ref == nil {
		return "", "", errUnresolved
	}
	return ref.Name, "", nil
}

// lookupUsers resolves user ids against one directory listing. A listing
// failure leaves every requested user unresolved.
func (r *Resolver) lookupUsers(ctx context.Context, ids []string) (out []lookupResult) {
	defer func() {
		if p := recover(); p != nil {
			out = failAll(ids, fmt.Errorf("user listing panicked: %v", p))
		}
	}()

	users, err := r.lookup.ListUsers(ctx)
	if err != nil {
		return failAll(ids, err)
	}

	byID := make(map[string]UserRef, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out = make([]lookupResult, 0, len(ids))
	for _, id := range ids {
		key := EntityKey{KindUser, id}
		u, ok := byID[id]
		if !ok {
			out = append(out, lookupResult{key: key, err: errUnresolved})
			continue
		}
		name := u.DisplayName
		if name == "" {
			name = nameFromEmail(u.Email)
		}
		out = append(out, lookupResult{key: key, name: name})
	}
	return out
}

func failAll(ids []string, err error) []lookupResult {
	out := make([]lookupResult, len(ids))
	for i, id := range ids {
		out[i] = lookupResult{key: EntityKey{KindUser, id}, err: err}
	}
	return out
}

// merge writes a finished round into the index.
func (r *Resolver) merge(ix *NameIndex, results []lookupResult) {
	for _, res := range results {
		if res.err != nil {
			if r.debug {
				slog.Debug("entity name lookup failed",
					slog.String("kind", string(res.key.Kind)),
					slog.String("id", res.key.ID),
					slog.Any("error", res.err),
				)
			}
			metrics.NameLookups.WithLabelValues(string(res.key.Kind), "unresolved").Inc()
			ix.Fail(res.key.Kind, res.key.ID, res.err)
			continue
		}
		metrics.NameLookups.WithLabelValues(string(res.key.Kind), "resolved").Inc()
		ix.Add(res.key.Kind, res.key.ID, res.name)
		if res.key.Kind == KindTask {
			ix.SetParentProject(res.key.ID, res.projectID)
		}
	}
}

// collectRefs walks every record once and returns the distinct entity
// references it mentions.
func collectRefs(records []ChangeRecord) map[EntityKey]struct{} {
	refs := make(map[EntityKey]struct{})
	add := func(kind EntityKind, id string) {
		if id != "" {
			refs[EntityKey{kind, id}] = struct{}{}
		}
	}

	for i := range records {
		rec := &records[i]

		// The actor id is authoritative for the live display name.
		add(KindUser, rec.ActorID)

		if kind, ok := kindForCollection(rec.Collection); ok && rec.RecordID != "" {
			add(kind, rec.RecordID)
		}

		for _, snap := range []map[string]any{rec.Before, rec.After} {
			for field, v := range snap {
				kind, ok := kindForField(field)
				if !ok {
					continue
				}
				switch val := v.(type) {
				case string:
					if looksLikeID(val) {
						add(kind, val)
					}
				case []any:
					for _, item := range val {
						if s, ok := item.(string); ok && looksLikeID(s) {
							add(kind, s)
						}
					}
				case []string:
					for _, s := range val {
						if looksLikeID(s) {
							add(kind, s)
						}
					}
				}
			}
		}
	}
	return refs
}

// sortedKeys returns refs in a stable order so lookups are issued
// deterministically.
func sortedKeys(refs map[EntityKey]struct{}) []EntityKey {
	keys := make([]EntityKey, 0, len(refs))
	for k := range refs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].ID < keys[j].ID
	})
	return keys
}
