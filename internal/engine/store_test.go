package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradeflow/internal/models"
)

func hydratedStore(sync SyncFunc) *ResultStore {
	if sync == nil {
		sync = func(context.Context, string, string, models.ReviewStatus) error { return nil }
	}
	st := newResultStore(sync, testLogger())
	st.Hydrate([]models.ResultItem{
		{Key: "AB", Content: "generated ab", Generated: "generated ab", Status: models.StatusReadyForReview},
		{Key: "CD", Content: "generated cd", Generated: "generated cd", Status: models.StatusReadyForReview},
	})
	return st
}

func TestApproveUnchangedContent(t *testing.T) {
	var synced []updateCall
	st := hydratedStore(func(_ context.Context, key, content string, status models.ReviewStatus) error {
		synced = append(synced, updateCall{key: key, content: content, status: status})
		return nil
	})

	require.NoError(t, st.Approve(t.Context(), "ab", "generated ab"))

	it, ok := st.Get("AB")
	require.True(t, ok)
	assert.Equal(t, models.StatusApproved, it.Status)
	require.Len(t, synced, 1)
	assert.Equal(t, models.StatusApproved, synced[0].status)
}

func TestApproveEditedContent(t *testing.T) {
	st := hydratedStore(nil)

	require.NoError(t, st.Approve(t.Context(), "AB", "Great work"))

	it, _ := st.Get("AB")
	assert.Equal(t, models.StatusEdited, it.Status)
	assert.Equal(t, "Great work", it.Content)
	assert.Equal(t, 2, it.WordCount)
	assert.Equal(t, "generated ab", it.Generated, "generated text retained")
}

func TestFlagNeedsAttention(t *testing.T) {
	st := hydratedStore(nil)

	require.NoError(t, st.Flag(t.Context(), "CD", "generated cd"))
	it, _ := st.Get("CD")
	assert.Equal(t, models.StatusNeedsAttention, it.Status)
}

func TestSyncFailureLeavesItemUntouched(t *testing.T) {
	st := hydratedStore(func(context.Context, string, string, models.ReviewStatus) error {
		return errors.New("backend down")
	})

	err := st.Approve(t.Context(), "AB", "Great work")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")

	it, _ := st.Get("AB")
	assert.Equal(t, models.StatusReadyForReview, it.Status, "transition not committed")
	assert.Equal(t, "generated ab", it.Content)

	other, _ := st.Get("CD")
	assert.Equal(t, models.StatusReadyForReview, other.Status, "other items unaffected")
}

func TestUnknownKeyRejected(t *testing.T) {
	st := hydratedStore(nil)
	assert.ErrorIs(t, st.Approve(t.Context(), "ZZ", "x"), ErrUnknownItem)
	assert.ErrorIs(t, st.Flag(t.Context(), "ZZ", "x"), ErrUnknownItem)
}

func TestStaleEditDiscarded(t *testing.T) {
	// The first edit's sync stalls until the second edit has fully
	// committed; its late response must not overwrite the newer edit.
	firstBlocked := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex

	st := hydratedStore(func(_ context.Context, _, content string, _ models.ReviewStatus) error {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(firstBlocked)
			<-release
		}
		return nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = st.Approve(context.Background(), "AB", "first version")
	}()

	<-firstBlocked
	require.NoError(t, st.Approve(context.Background(), "AB", "second version"))

	close(release)
	wg.Wait()

	it, _ := st.Get("AB")
	assert.Equal(t, "second version", it.Content, "last submitted edit wins")
	assert.Equal(t, models.StatusEdited, it.Status)
}

func TestConcurrentEditsToDifferentKeys(t *testing.T) {
	st := hydratedStore(func(context.Context, string, string, models.ReviewStatus) error {
		time.Sleep(2 * time.Millisecond)
		return nil
	})

	var wg sync.WaitGroup
	for _, key := range []string{"AB", "CD"} {
		wg.Add(1)
		go func(k string) {
			defer wg.Done()
			assert.NoError(t, st.Approve(context.Background(), k, "ok "+k))
		}(key)
	}
	wg.Wait()

	for _, key := range []string{"AB", "CD"} {
		it, _ := st.Get(key)
		assert.Equal(t, models.StatusEdited, it.Status)
	}
}

func TestStatusFiltering(t *testing.T) {
	st := hydratedStore(nil)
	require.NoError(t, st.Approve(t.Context(), "AB", "generated ab"))

	ready := st.ByStatus(models.StatusReadyForReview)
	require.Len(t, ready, 1)
	assert.Equal(t, "CD", ready[0].Key)

	signed := st.ByStatus(models.StatusApproved, models.StatusEdited)
	require.Len(t, signed, 1)
	assert.Equal(t, "AB", signed[0].Key)

	counts := st.Counts()
	assert.Equal(t, 1, counts[models.StatusApproved])
	assert.Equal(t, 1, counts[models.StatusReadyForReview])

	// Read accessors do not mutate.
	assert.Equal(t, 2, st.Len())
}

func TestHydrateReplacesContents(t *testing.T) {
	st := hydratedStore(nil)
	require.NoError(t, st.Approve(t.Context(), "AB", "edited"))

	st.Hydrate([]models.ResultItem{
		{Key: "EF", Content: "new batch", Generated: "new batch", Status: models.StatusReadyForReview},
	})

	assert.Equal(t, 1, st.Len())
	_, ok := st.Get("AB")
	assert.False(t, ok, "previous batch fully replaced")
}
