// Package integration_test verifies the article store against a real
// PostgreSQL instance.
package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressrun/pressrun/internal/database"
	"github.com/pressrun/pressrun/internal/domain"
	"github.com/pressrun/pressrun/tests/helpers"
)

func record(url, title string, publishedAt, discoveredAt time.Time) domain.ArticleRecord {
	return domain.NewArticleRecord(domain.ArticleSummary{
		URL:          url,
		Title:        title,
		Author:       "Test Author",
		PublishedAt:  publishedAt,
		DiscoveredAt: discoveredAt,
	}, "Body text for "+title+".")
}

func TestIntegration_ArticleRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := helpers.StartPostgres(ctx)
	require.NoError(t, err, "failed to start PostgreSQL container")
	defer func() {
		_ = pgContainer.Stop(ctx)
	}()

	db, err := pgContainer.Connect()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, helpers.ApplyMigrations(db))

	repo := database.NewArticleRepository(db)
	now := time.Now().UTC().Truncate(time.Second)

	// First batch inserts everything.
	first := []domain.ArticleRecord{
		record("https://news.example.com/a", "First", now.Add(-2*time.Hour), now.Add(-time.Minute)),
		record("https://news.example.com/b", "Second", now.Add(-time.Hour), now),
	}
	result, err := repo.UpsertBatch(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, domain.UpsertResult{Inserted: 2}, result)

	// Replaying a batch with one known and one new URL only inserts the new one.
	second := []domain.ArticleRecord{
		first[0],
		record("https://news.example.com/c", "Third", now.Add(-30*time.Minute), now),
	}
	result, err = repo.UpsertBatch(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, domain.UpsertResult{Inserted: 1, Duplicates: 1}, result)

	// Known URLs come back most recently discovered first.
	urls, err := repo.ListKnownURLs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, urls, 2)
	assert.NotContains(t, urls, "https://news.example.com/a")

	all, err := repo.ListKnownURLs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// ListAll returns every row for the dedupe scan.
	rows, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.NotEmpty(t, row.ID)
		assert.NotEmpty(t, row.Content)
	}

	// DeleteByIDs removes exactly the requested rows.
	deleted, err := repo.DeleteByIDs(ctx, []string{rows[0].ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

func TestIntegration_EmptyStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := helpers.StartPostgres(ctx)
	require.NoError(t, err, "failed to start PostgreSQL container")
	defer func() {
		_ = pgContainer.Stop(ctx)
	}()

	db, err := pgContainer.Connect()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, helpers.ApplyMigrations(db))

	repo := database.NewArticleRepository(db)

	urls, err := repo.ListKnownURLs(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, urls)

	result, err := repo.UpsertBatch(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, result.Inserted)
}
