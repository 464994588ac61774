package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gradeflow/internal/models"
)

// ErrUnknownItem is returned for review actions on keys the store does not
// hold.
var ErrUnknownItem = errors.New("no result item with that key")

// SyncFunc persists a review action remotely. The store commits a local
// transition only after the sync succeeds.
type SyncFunc func(ctx context.Context, key, content string, status models.ReviewStatus) error

// ResultStore holds the generated results of the current batch and their
// review state. Edits to different keys may run concurrently; edits to the
// same key are ordered by a per-key sequence number, and a response for a
// superseded edit is discarded rather than raced.
type ResultStore struct {
	sync   SyncFunc
	logger *slog.Logger

	mu    sync.Mutex
	order []string
	items map[string]*models.ResultItem
	seq   map[string]uint64
}

func newResultStore(sync SyncFunc, logger *slog.Logger) *ResultStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultStore{
		sync:   sync,
		logger: logger,
		items:  make(map[string]*models.ResultItem),
		seq:    make(map[string]uint64),
	}
}

// Hydrate bulk-replaces the store's contents on batch completion.
func (st *ResultStore) Hydrate(items []models.ResultItem) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.order = st.order[:0]
	st.items = make(map[string]*models.ResultItem, len(items))
	st.seq = make(map[string]uint64, len(items))
	for i := range items {
		it := items[i]
		if _, ok := st.items[it.Key]; ok {
			st.logger.Warn("duplicate result key in batch, keeping first", "key", it.Key)
			continue
		}
		st.order = append(st.order, it.Key)
		st.items[it.Key] = &it
	}
}

// Approve signs off on an item. If finalContent differs from the generated
// text the item becomes edited, otherwise approved. The remote sync runs
// first; on failure the item keeps its prior status and content.
func (st *ResultStore) Approve(ctx context.Context, key, finalContent string) error {
	key = models.NormalizeKey(key)
	st.mu.Lock()
	it, ok := st.items[key]
	if !ok {
		st.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownItem, key)
	}
	target := models.StatusApproved
	if finalContent != it.Generated {
		target = models.StatusEdited
	}
	st.seq[key]++
	mySeq := st.seq[key]
	st.mu.Unlock()

	return st.commit(ctx, key, finalContent, target, mySeq)
}

// Flag marks an item as needing attention, with the same sync-then-commit
// discipline as Approve.
func (st *ResultStore) Flag(ctx context.Context, key, content string) error {
	key = models.NormalizeKey(key)
	st.mu.Lock()
	if _, ok := st.items[key]; !ok {
		st.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownItem, key)
	}
	st.seq[key]++
	mySeq := st.seq[key]
	st.mu.Unlock()

	return st.commit(ctx, key, content, models.StatusNeedsAttention, mySeq)
}

// commit syncs remotely and applies the transition locally unless a newer
// edit for the same key was issued meanwhile.
func (st *ResultStore) commit(ctx context.Context, key, content string, target models.ReviewStatus, mySeq uint64) error {
	if err := st.sync(ctx, key, content, target); err != nil {
		st.logger.Warn("review sync failed, keeping prior state",
			"key", key, "target", target, "error", err)
		return fmt.Errorf("sync review action: %w", err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.seq[key] != mySeq {
		// A later edit superseded this one while its sync was in flight.
		st.logger.Debug("stale review response discarded", "key", key)
		return nil
	}
	it, ok := st.items[key]
	if !ok {
		return nil
	}
	it.Content = content
	it.Status = target
	it.WordCount = models.CountWords(content)
	it.UpdatedAt = time.Now()
	return nil
}

// Len returns the number of items held.
func (st *ResultStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.order)
}

// Get returns a copy of one item.
func (st *ResultStore) Get(key string) (models.ResultItem, bool) {
	key = models.NormalizeKey(key)
	st.mu.Lock()
	defer st.mu.Unlock()
	it, ok := st.items[key]
	if !ok {
		return models.ResultItem{}, false
	}
	return *it, true
}

// Items returns copies of all items in hydration order.
func (st *ResultStore) Items() []models.ResultItem {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]models.ResultItem, 0, len(st.order))
	for _, k := range st.order {
		out = append(out, *st.items[k])
	}
	return out
}

// ByStatus returns copies of items holding any of the given statuses, in
// hydration order.
func (st *ResultStore) ByStatus(statuses ...models.ReviewStatus) []models.ResultItem {
	st.mu.Lock()
	defer st.mu.Unlock()
	var out []models.ResultItem
	for _, k := range st.order {
		it := st.items[k]
		for _, s := range statuses {
			if it.Status == s {
				out = append(out, *it)
				break
			}
		}
	}
	return out
}

// Counts tallies items per review status, for review-step tab counts.
func (st *ResultStore) Counts() map[models.ReviewStatus]int {
	st.mu.Lock()
	defer st.mu.Unlock()
	counts := make(map[models.ReviewStatus]int)
	for _, it := range st.items {
		counts[it.Status]++
	}
	return counts
}

func (st *ResultStore) countOf(status models.ReviewStatus) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for _, it := range st.items {
		if it.Status == status {
			n++
		}
	}
	return n
}

func (st *ResultStore) clear() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.order = nil
	st.items = make(map[string]*models.ResultItem)
	st.seq = make(map[string]uint64)
}
