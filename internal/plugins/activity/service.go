package activity

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/keyxmakerx/bizledger/internal/apperror"
	"github.com/keyxmakerx/bizledger/internal/metrics"
)

// perPage is the number of records shown per page in the activity feed.
const perPage = 50

// maxHistoryEntries caps the history returned for a single entity.
const maxHistoryEntries = 100

// maxScanRows caps how many records are described when a free-text query
// or an export has to look past a single page.
const maxScanRows = 5000

// collectionPattern restricts collection names to what the dashboard
// writes: lowercase words joined by underscores.
var collectionPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// ActivityService handles business logic for the activity log: it
// validates writes and renders stored records into readable activity.
type ActivityService interface {
	// Log validates and persists a change record, assigning an id and a
	// timestamp when the caller left them empty.
	Log(ctx context.Context, rec *ChangeRecord) error

	// Feed returns one rendered page of the activity feed.
	Feed(ctx context.Context, filter FeedFilter) (*FeedPage, error)

	// Detail returns one rendered record with its metadata.
	Detail(ctx context.Context, id string) (*RecordDetail, error)

	// History returns the rendered change history of one entity.
	History(ctx context.Context, collection Collection, recordID string) ([]FeedItem, error)

	// Export writes the filtered feed as CSV and returns the row count.
	Export(ctx context.Context, filter FeedFilter, w io.Writer) (int, error)

	// Purge deletes records older than the retention window.
	Purge(ctx context.Context, retention time.Duration) (int64, error)
}

// activityService implements ActivityService.
type activityService struct {
	repo      ActivityRepository
	resolver  *Resolver
	describer *Describer
	now       func() time.Time
}

// NewActivityService creates a new activity service.
func NewActivityService(repo ActivityRepository, resolver *Resolver, describer *Describer) ActivityService {
	return &activityService{
		repo:      repo,
		resolver:  resolver,
		describer: describer,
		now:       time.Now,
	}
}

// Log validates and persists a change record.
func (s *activityService) Log(ctx context.Context, rec *ChangeRecord) error {
	if err := validateRecord(rec); err != nil {
		return err
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = s.now().UTC()
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		metrics.RecordsWritten.WithLabelValues("error").Inc()
		slog.Error("failed to write activity record",
			slog.String("collection", string(rec.Collection)),
			slog.String("action", string(rec.Action)),
			slog.Any("error", err),
		)
		return apperror.NewInternal(fmt.Errorf("writing activity record: %w", err))
	}
	metrics.RecordsWritten.WithLabelValues("ok").Inc()
	return nil
}

// Feed loads a page, resolves names once for the whole batch and renders
// every record. With a free-text query the filter runs over rendered
// summaries, so a wider window is scanned and paginated in memory.
func (s *activityService) Feed(ctx context.Context, filter FeedFilter) (*FeedPage, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}

	rf := recordFilter(filter)
	query := strings.TrimSpace(filter.Query)
	if query == "" {
		rf.Limit = perPage
		rf.Offset = (page - 1) * perPage
	} else {
		rf.Limit = maxScanRows
	}

	records, total, err := s.repo.List(ctx, rf)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing activity feed: %w", err))
	}

	items := s.render(ctx, records)
	if query != "" {
		items = filterItems(items, query)
		total = len(items)
		items = pageOf(items, page)
	}

	return &FeedPage{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

// Detail returns one record with its field changes and metadata.
func (s *activityService) Detail(ctx context.Context, id string) (*RecordDetail, error) {
	if id == "" {
		return nil, apperror.NewBadRequest("record ID is required")
	}

	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ix := s.resolver.Resolve(ctx, []ChangeRecord{*rec})
	detail := &RecordDetail{Item: s.describer.Item(*rec, ix)}
	if len(rec.Metadata) > 0 {
		detail.Metadata = make(map[string]string, len(rec.Metadata))
		for k, v := range rec.Metadata {
			detail.Metadata[k] = s.describer.Formatter().Format(rec.Collection, k, v, ix)
		}
	}
	return detail, nil
}

// History returns the change history of one entity, most recent first.
func (s *activityService) History(ctx context.Context, collection Collection, recordID string) ([]FeedItem, error) {
	if collection == "" || recordID == "" {
		return nil, apperror.NewBadRequest("collection and record ID are required")
	}

	records, err := s.repo.ListByRecord(ctx, collection, recordID, maxHistoryEntries)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing record history: %w", err))
	}
	return s.render(ctx, records), nil
}

// Export writes the filtered feed, without pagination, as CSV.
func (s *activityService) Export(ctx context.Context, filter FeedFilter, w io.Writer) (int, error) {
	rf := recordFilter(filter)
	rf.Limit = maxScanRows

	records, _, err := s.repo.List(ctx, rf)
	if err != nil {
		return 0, apperror.NewInternal(fmt.Errorf("listing activity for export: %w", err))
	}

	items := s.render(ctx, records)
	if q := strings.TrimSpace(filter.Query); q != "" {
		items = filterItems(items, q)
	}

	if err := WriteCSV(w, items); err != nil {
		return 0, apperror.NewInternal(fmt.Errorf("writing activity export: %w", err))
	}
	return len(items), nil
}

// Purge deletes records older than the retention window.
func (s *activityService) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, apperror.NewBadRequest("retention must be positive")
	}

	cutoff := s.now().UTC().Add(-retention)
	n, err := s.repo.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, apperror.NewInternal(fmt.Errorf("purging activity: %w", err))
	}

	metrics.RecordsPurged.Add(float64(n))
	slog.Info("activity purged",
		slog.Time("cutoff", cutoff),
		slog.Int64("deleted", n),
	)
	return n, nil
}

// validateRecord normalizes and checks the caller-supplied fields of a
// change record.
func validateRecord(rec *ChangeRecord) error {
	if rec == nil {
		return apperror.NewBadRequest("change record is required")
	}
	rec.Collection = Collection(strings.TrimSpace(string(rec.Collection)))
	if rec.Collection == "" {
		return apperror.NewBadRequest("collection is required")
	}
	if !collectionPattern.MatchString(string(rec.Collection)) {
		return apperror.NewValidation("collection must be lowercase letters, digits and underscores")
	}
	rec.Action = Action(strings.ToUpper(strings.TrimSpace(string(rec.Action))))
	if !rec.Action.Valid() {
		return apperror.NewValidation("action must be CREATE, UPDATE or DELETE")
	}
	if len(rec.ID) > 64 || len(rec.RecordID) > 64 || len(rec.ActorID) > 64 {
		return apperror.NewValidation("ids must be 64 characters or less")
	}
	return nil
}

// render resolves names for the batch and describes every record.
func (s *activityService) render(ctx context.Context, records []ChangeRecord) []FeedItem {
	ix := s.resolver.Resolve(ctx, records)
	items := make([]FeedItem, len(records))
	for i, rec := range records {
		items[i] = s.describer.Item(rec, ix)
	}
	return items
}

func recordFilter(f FeedFilter) RecordFilter {
	return RecordFilter{
		Collection: f.Collection,
		Action:     f.Action,
		ActorID:    f.ActorID,
		Since:      f.Since,
		Until:      f.Until,
	}
}

// filterItems keeps items whose summary, actor or collection label
// contains the query. Matching folds case with Turkish rules so "İ" and
// "i" match.
func filterItems(items []FeedItem, query string) []FeedItem {
	lower := cases.Lower(language.Turkish)
	needle := lower.String(query)

	var out []FeedItem
	for _, it := range items {
		haystack := lower.String(it.Description.Summary + "\n" + it.Actor + "\n" + it.CollectionLabel)
		if strings.Contains(haystack, needle) {
			out = append(out, it)
		}
	}
	return out
}

func pageOf(items []FeedItem, page int) []FeedItem {
	start := (page - 1) * perPage
	if start >= len(items) {
		return []FeedItem{}
	}
	end := min(start+perPage, len(items))
	return items[start:end]
}
