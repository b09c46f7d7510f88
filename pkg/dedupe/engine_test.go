package dedupe

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atlasjobs/harvester/pkg/jobs"
	"github.com/atlasjobs/harvester/pkg/jobstore"
)

func openTestStore(t *testing.T) *jobstore.Store {
	t.Helper()
	store, err := jobstore.Open(context.Background(), jobstore.Config{
		Path: filepath.Join(t.TempDir(), "jobs.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func completeRecord(url string) *jobs.Record {
	return &jobs.Record{
		SourceURL:      url,
		Title:          "Engineer",
		Company:        "Acme",
		Location:       "San Francisco, CA",
		EmploymentType: "Full time",
		AboutJob:       strings.Repeat("Build reliable systems at scale. ", 10),
		Employer:       "Acme",
		SourcePlatform: "greenhouse",
		ScrapedAt:      time.Now().UTC(),
	}
}

func TestResolveInsertsNewURL(t *testing.T) {
	store := openTestStore(t)
	engine := New(store, zap.NewNop())

	res, err := engine.Resolve(context.Background(), completeRecord("https://a.com/job1"))
	require.NoError(t, err)
	assert.Equal(t, Inserted, res.Outcome)
	assert.True(t, res.Forwarded())

	stored, err := store.FindByURL(context.Background(), "https://a.com/job1")
	require.NoError(t, err)
	assert.Equal(t, "Engineer", stored.Title)
}

func TestResolveSkipsCompleteRecord(t *testing.T) {
	store := openTestStore(t)
	engine := New(store, zap.NewNop())
	ctx := context.Background()

	first, err := engine.Resolve(ctx, completeRecord("https://b.com/job2"))
	require.NoError(t, err)
	require.Equal(t, Inserted, first.Outcome)

	second, err := engine.Resolve(ctx, completeRecord("https://b.com/job2"))
	require.NoError(t, err)
	assert.Equal(t, Skipped, second.Outcome)
	assert.False(t, second.Forwarded())
}

func TestResolveUpdatesIncompleteRecord(t *testing.T) {
	store := openTestStore(t)
	engine := New(store, zap.NewNop())
	ctx := context.Background()

	incomplete := &jobs.Record{
		SourceURL: "https://a.com/job1",
		Title:     "Engineer",
		AboutJob:  "short",
		Employer:  "Acme",
		ScrapedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Insert(ctx, incomplete))

	candidate := &jobs.Record{
		SourceURL:      "https://a.com/job1",
		Title:          "Engineer",
		Location:       "San Francisco, CA",
		EmploymentType: "Full time",
		AboutJob:       strings.Repeat("x", 230),
		Employer:       "Acme",
		ScrapedAt:      time.Now().UTC(),
	}
	res, err := engine.Resolve(ctx, candidate)
	require.NoError(t, err)
	assert.Equal(t, Updated, res.Outcome)
	assert.True(t, res.Forwarded())

	stored, err := store.FindByURL(ctx, "https://a.com/job1")
	require.NoError(t, err)
	assert.Equal(t, "San Francisco, CA", stored.Location)
	assert.Equal(t, "Full time", stored.EmploymentType)
	assert.True(t, stored.Complete())
}

func TestResolveSkipsLessCompleteCandidate(t *testing.T) {
	store := openTestStore(t)
	engine := New(store, zap.NewNop())
	ctx := context.Background()

	stored := &jobs.Record{
		SourceURL: "https://a.com/job1",
		Title:     "Engineer",
		Location:  "Denver, CO",
		AboutJob:  "a medium length description of the role",
		Employer:  "Acme",
		ScrapedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Insert(ctx, stored))

	candidate := &jobs.Record{
		SourceURL: "https://a.com/job1",
		Title:     "Engineer",
		AboutJob:  "short",
		Employer:  "Acme",
		ScrapedAt: time.Now().UTC(),
	}
	res, err := engine.Resolve(ctx, candidate)
	require.NoError(t, err)
	assert.Equal(t, Skipped, res.Outcome)

	after, err := store.FindByURL(ctx, "https://a.com/job1")
	require.NoError(t, err)
	assert.Equal(t, "Denver, CO", after.Location)
}

func TestUpdateNeverErasesStoredFields(t *testing.T) {
	store := openTestStore(t)
	engine := New(store, zap.NewNop())
	ctx := context.Background()

	stored := &jobs.Record{
		SourceURL: "https://a.com/job1",
		Title:     "Engineer",
		Benefits:  "401k, health insurance",
		AboutJob:  "short",
		Employer:  "Acme",
		ScrapedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Insert(ctx, stored))

	candidate := &jobs.Record{
		SourceURL:      "https://a.com/job1",
		Title:          "Engineer",
		Location:       "Austin, TX",
		EmploymentType: "Full time",
		AboutJob:       strings.Repeat("y", 250),
		Employer:       "Acme",
		ScrapedAt:      time.Now().UTC(),
	}
	res, err := engine.Resolve(ctx, candidate)
	require.NoError(t, err)
	require.Equal(t, Updated, res.Outcome)

	after, err := store.FindByURL(ctx, "https://a.com/job1")
	require.NoError(t, err)
	assert.Equal(t, "401k, health insurance", after.Benefits)
	assert.Equal(t, "Austin, TX", after.Location)
}

func TestResolveIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	engine := New(store, zap.NewNop())
	ctx := context.Background()

	urls := []string{"https://a.com/job1", "https://a.com/job2", "https://a.com/job3"}
	for _, u := range urls {
		res, err := engine.Resolve(ctx, completeRecord(u))
		require.NoError(t, err)
		assert.True(t, res.Forwarded())
	}

	// Second pass over identical candidates forwards nothing.
	for _, u := range urls {
		res, err := engine.Resolve(ctx, completeRecord(u))
		require.NoError(t, err)
		assert.Equal(t, Skipped, res.Outcome)
		assert.False(t, res.Forwarded())
	}
}

func TestResolveSerializesPerURL(t *testing.T) {
	store := openTestStore(t)
	engine := New(store, zap.NewNop())
	ctx := context.Background()

	done := make(chan Resolution, 8)
	for i := 0; i < 8; i++ {
		go func() {
			res, err := engine.Resolve(ctx, completeRecord("https://a.com/race"))
			require.NoError(t, err)
			done <- res
		}()
	}

	inserts := 0
	for i := 0; i < 8; i++ {
		if res := <-done; res.Outcome == Inserted {
			inserts++
		}
	}
	assert.Equal(t, 1, inserts)
}
