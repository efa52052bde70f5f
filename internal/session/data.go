// Package session holds the application state stores sitting between the
// view layer and the services. Every session receives its collaborators
// through its constructor; nothing here is a package global.
package session

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"bidwatch/internal/format"
	"bidwatch/internal/logging"
	"bidwatch/internal/store"
)

// DefaultPageSize is the result-page size when the caller does not choose.
const DefaultPageSize = 20

// DataSession owns the loaded-dataset state: the active filter, the current
// result page, and the aggregate views recomputed after each load or filter
// change.
type DataSession struct {
	mu       sync.RWMutex
	store    *store.Store
	pageSize int

	filter store.Filter // Limit/Offset are derived from page, not set here
	page   int

	results    []store.Contract
	total      int
	stats      store.Stats
	byArea     []store.Bucket
	byCategory []store.Bucket

	datasetPath string
	loadedRows  int
}

// NewDataSession creates a session over an opened store. pageSize <= 0 uses
// the default.
func NewDataSession(st *store.Store, pageSize int) *DataSession {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &DataSession{store: st, pageSize: pageSize, page: 1}
}

// Load ingests a dataset file, resets the filter, and recomputes every view.
// Returns the number of rows stored.
func (d *DataSession) Load(ctx context.Context, path string) (int, error) {
	rows, err := d.store.LoadDataset(path)
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	d.datasetPath = path
	d.loadedRows = rows
	d.filter = store.Filter{}
	d.page = 1
	d.mu.Unlock()

	if err := d.Refresh(ctx); err != nil {
		return rows, err
	}
	logging.Store("dataset session refreshed after load: %d rows", rows)
	return rows, nil
}

// Refresh recomputes summary statistics, both breakdowns, and the current
// result page. The four queries run concurrently.
func (d *DataSession) Refresh(ctx context.Context) error {
	d.mu.RLock()
	filter := d.effectiveFilter()
	d.mu.RUnlock()

	var (
		stats      store.Stats
		byArea     []store.Bucket
		byCategory []store.Bucket
		results    []store.Contract
		total      int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = d.store.Stats(gctx)
		return err
	})
	g.Go(func() (err error) {
		byArea, err = d.store.AggregateByArea(gctx, store.Filter{})
		return err
	})
	g.Go(func() (err error) {
		byCategory, err = d.store.AggregateByCategory(gctx, store.Filter{})
		return err
	})
	g.Go(func() (err error) {
		results, err = d.store.Search(gctx, filter)
		if err != nil {
			return err
		}
		total, err = d.store.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	d.mu.Lock()
	d.stats = stats
	d.byArea = byArea
	d.byCategory = byCategory
	d.results = results
	d.total = total
	d.mu.Unlock()
	return nil
}

// effectiveFilter renders the stored filter with pagination applied. Caller
// holds at least a read lock.
func (d *DataSession) effectiveFilter() store.Filter {
	f := d.filter
	f.Limit = d.pageSize
	f.Offset = (d.page - 1) * d.pageSize
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// requery re-runs the result page and total for the current filter.
func (d *DataSession) requery(ctx context.Context) error {
	d.mu.RLock()
	filter := d.effectiveFilter()
	d.mu.RUnlock()

	results, err := d.store.Search(ctx, filter)
	if err != nil {
		return err
	}
	total, err := d.store.Count(ctx, filter)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.results = results
	d.total = total
	d.mu.Unlock()
	return nil
}

// SetQuery updates the keyword filter. Any change resets pagination to the
// first page and re-queries.
func (d *DataSession) SetQuery(ctx context.Context, query string) error {
	return d.updateFilter(ctx, func(f *store.Filter) { f.Query = query })
}

// SetArea updates the delivery-area filter.
func (d *DataSession) SetArea(ctx context.Context, area string) error {
	return d.updateFilter(ctx, func(f *store.Filter) { f.Area = area })
}

// SetCategory updates the business-category filter.
func (d *DataSession) SetCategory(ctx context.Context, category string) error {
	return d.updateFilter(ctx, func(f *store.Filter) { f.Category = category })
}

// SetSort updates sort key and direction. Sorting is a filter change: the
// page resets to 1.
func (d *DataSession) SetSort(ctx context.Context, key string, asc bool) error {
	return d.updateFilter(ctx, func(f *store.Filter) {
		f.SortKey = key
		f.SortAsc = asc
	})
}

func (d *DataSession) updateFilter(ctx context.Context, apply func(*store.Filter)) error {
	d.mu.Lock()
	before := d.filter
	apply(&d.filter)
	changed := d.filter != before
	if changed {
		d.page = 1
	}
	d.mu.Unlock()

	if !changed {
		return nil
	}
	return d.requery(ctx)
}

// SetPage moves to the given 1-based page, clamped to the valid range, and
// re-queries.
func (d *DataSession) SetPage(ctx context.Context, page int) error {
	d.mu.Lock()
	p := format.Paginate(d.total, page, d.pageSize)
	d.page = p.Number
	d.mu.Unlock()
	return d.requery(ctx)
}

// NextPage advances one page (no-op past the last page).
func (d *DataSession) NextPage(ctx context.Context) error {
	d.mu.RLock()
	page := d.page + 1
	d.mu.RUnlock()
	return d.SetPage(ctx, page)
}

// PrevPage steps back one page (no-op on the first page).
func (d *DataSession) PrevPage(ctx context.Context) error {
	d.mu.RLock()
	page := d.page - 1
	d.mu.RUnlock()
	return d.SetPage(ctx, page)
}

// Results returns the current result page.
func (d *DataSession) Results() []store.Contract {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]store.Contract(nil), d.results...)
}

// Total returns the number of rows matching the current filter.
func (d *DataSession) Total() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.total
}

// Page describes the current pagination state.
func (d *DataSession) Page() format.Page {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return format.Paginate(d.total, d.page, d.pageSize)
}

// Stats returns the dataset-wide summary statistics.
func (d *DataSession) Stats() store.Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stats
}

// AreaBreakdown returns the per-area aggregate view.
func (d *DataSession) AreaBreakdown() []store.Bucket {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]store.Bucket(nil), d.byArea...)
}

// CategoryBreakdown returns the per-category aggregate view.
func (d *DataSession) CategoryBreakdown() []store.Bucket {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]store.Bucket(nil), d.byCategory...)
}

// Filter returns the active filter without pagination fields.
func (d *DataSession) Filter() store.Filter {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.filter
}

// DatasetPath returns the path of the last loaded dataset file.
func (d *DataSession) DatasetPath() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.datasetPath
}

// Stale reports whether the loaded dataset file changed on disk.
func (d *DataSession) Stale() bool {
	return d.store.Stale()
}
