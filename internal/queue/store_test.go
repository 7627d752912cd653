package queue

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"morsel/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "queue.db"), DefaultCanonicalPolicy())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestEnqueueDedupesWithinDay(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	receivedAt := time.Date(2026, time.August, 20, 9, 30, 0, 0, time.UTC)

	canonical, added, err := store.Enqueue(ctx, "https://a.example/1", receivedAt)
	require.NoError(t, err)
	require.True(t, added)
	require.Equal(t, "https://a.example/1", canonical)

	_, added, err = store.Enqueue(ctx, "https://a.example/1", receivedAt.Add(2*time.Hour))
	require.NoError(t, err)
	require.False(t, added)

	// Tracking parameters collapse onto the same record.
	_, added, err = store.Enqueue(ctx, "https://a.example/1?utm_source=x", receivedAt.Add(3*time.Hour))
	require.NoError(t, err)
	require.False(t, added)

	articles, err := store.ArticlesFor(ctx, domain.DayOf(receivedAt))
	require.NoError(t, err)
	require.Len(t, articles, 1)
}

func TestEnqueueSeparateDays(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	_, added, err := store.Enqueue(ctx, "https://a.example/1", time.Date(2026, time.August, 20, 23, 50, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, added)

	_, added, err = store.Enqueue(ctx, "https://a.example/1", time.Date(2026, time.August, 21, 0, 10, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, added)

	days, err := store.Days(ctx)
	require.NoError(t, err)
	require.Len(t, days, 2)
	require.True(t, days[0].Before(days[1]))
}

func TestArticlesForOrdersBySubmission(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.August, 20, 8, 0, 0, 0, time.UTC)

	for i, url := range []string{"https://c.example/3", "https://a.example/1", "https://b.example/2"} {
		_, _, err := store.Enqueue(ctx, url, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	articles, err := store.ArticlesFor(ctx, domain.DayOf(base))
	require.NoError(t, err)
	require.Len(t, articles, 3)
	require.Equal(t, "https://c.example/3", articles[0].URL)
	require.Equal(t, "https://a.example/1", articles[1].URL)
	require.Equal(t, "https://b.example/2", articles[2].URL)
}

func TestArticlesForOrdersMixedPrecisionTimestamps(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.August, 20, 12, 0, 0, 0, time.UTC)

	// Whole-second and fractional timestamps within the same second must
	// still sort by submission time.
	_, _, err := store.Enqueue(ctx, "https://a.example/early", base)
	require.NoError(t, err)
	_, _, err = store.Enqueue(ctx, "https://b.example/late", base.Add(500*time.Millisecond))
	require.NoError(t, err)
	_, _, err = store.Enqueue(ctx, "https://c.example/next", base.Add(time.Second))
	require.NoError(t, err)

	articles, err := store.ArticlesFor(ctx, domain.DayOf(base))
	require.NoError(t, err)
	require.Len(t, articles, 3)
	require.Equal(t, "https://a.example/early", articles[0].URL)
	require.Equal(t, "https://b.example/late", articles[1].URL)
	require.Equal(t, "https://c.example/next", articles[2].URL)

	require.True(t, articles[0].ReceivedAt.Equal(base))
	require.True(t, articles[1].ReceivedAt.Equal(base.Add(500*time.Millisecond)))
}

func TestMarkExtractedTransition(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	receivedAt := time.Date(2026, time.August, 20, 8, 0, 0, 0, time.UTC)
	day := domain.DayOf(receivedAt)

	_, _, err := store.Enqueue(ctx, "https://a.example/1", receivedAt)
	require.NoError(t, err)

	require.NoError(t, store.MarkExtracted(ctx, day, "https://a.example/1", "A Title", "body text"))

	articles, err := store.ArticlesFor(ctx, day)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	require.Equal(t, domain.StatusExtracted, articles[0].Status)
	require.Equal(t, "A Title", articles[0].Title)
	require.Equal(t, "body text", articles[0].Text)
	require.True(t, articles[0].Extracted())
}

func TestMarkExtractionFailedKeepsRecordVisible(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	receivedAt := time.Date(2026, time.August, 20, 8, 0, 0, 0, time.UTC)
	day := domain.DayOf(receivedAt)

	_, _, err := store.Enqueue(ctx, "https://a.example/broken", receivedAt)
	require.NoError(t, err)
	require.NoError(t, store.MarkExtractionFailed(ctx, day, "https://a.example/broken"))

	articles, err := store.ArticlesFor(ctx, day)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	require.Equal(t, domain.StatusExtractionFailed, articles[0].Status)
	require.False(t, articles[0].Extracted())
}

func TestMarkUnknownRecordIsIntegrityError(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	day := domain.DayOf(time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC))

	err := store.MarkExtracted(ctx, day, "https://a.example/never-queued", "t", "x")
	require.ErrorIs(t, err, ErrNotQueued)

	err = store.MarkExtractionFailed(ctx, day, "https://a.example/never-queued")
	require.ErrorIs(t, err, ErrNotQueued)
}

func TestStats(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	receivedAt := time.Date(2026, time.August, 20, 8, 0, 0, 0, time.UTC)
	day := domain.DayOf(receivedAt)

	for _, url := range []string{"https://a.example/1", "https://a.example/2", "https://a.example/3"} {
		_, _, err := store.Enqueue(ctx, url, receivedAt)
		require.NoError(t, err)
	}
	require.NoError(t, store.MarkExtracted(ctx, day, "https://a.example/1", "t", "x"))
	require.NoError(t, store.MarkExtractionFailed(ctx, day, "https://a.example/2"))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats[domain.StatusQueued])
	require.Equal(t, 1, stats[domain.StatusExtracted])
	require.Equal(t, 1, stats[domain.StatusExtractionFailed])
}
