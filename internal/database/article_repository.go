package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pressrun/pressrun/internal/domain"
)

// StoredArticle is one persisted article row. Content is included so the
// dedupe tool can compare bodies without a second query.
type StoredArticle struct {
	ID          string    `db:"id"`
	URL         string    `db:"url"`
	Title       string    `db:"title"`
	Content     string    `db:"content"`
	PublishedAt time.Time `db:"published_at"`
	CreatedAt   time.Time `db:"created_at"`
}

// ArticleRepository handles database operations for articles.
type ArticleRepository struct {
	db *sqlx.DB
}

// NewArticleRepository creates a new article repository.
func NewArticleRepository(db *sqlx.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

const upsertArticleQuery = `
	INSERT INTO articles (
		id, url, title, author, author_url, category, image_url,
		source_post_id, source, published_at, content, content_length, discovered_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (url) DO NOTHING
`

// UpsertBatch inserts the records in one transaction. Rows whose URL already
// exists are left untouched and counted as duplicates, so replaying a batch
// never creates a second row for the same URL.
func (r *ArticleRepository) UpsertBatch(ctx context.Context, records []domain.ArticleRecord) (domain.UpsertResult, error) {
	var result domain.UpsertResult
	if len(records) == 0 {
		return result, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin upsert transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	for i := range records {
		rec := &records[i]
		res, execErr := tx.ExecContext(
			ctx, upsertArticleQuery,
			uuid.New().String(), rec.URL, rec.Title, rec.Author, rec.AuthorURL,
			rec.Category, rec.ImageURL, rec.SourcePostID, sourceFromURL(rec.URL),
			rec.PublishedAt, rec.Content, rec.ContentLength, rec.DiscoveredAt,
		)
		if execErr != nil {
			return domain.UpsertResult{}, fmt.Errorf("failed to upsert article %s: %w", rec.URL, execErr)
		}

		affected, affErr := res.RowsAffected()
		if affErr != nil {
			return domain.UpsertResult{}, fmt.Errorf("failed to read rows affected for %s: %w", rec.URL, affErr)
		}
		if affected == 0 {
			result.Duplicates++
		} else {
			result.Inserted++
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return domain.UpsertResult{}, fmt.Errorf("failed to commit upsert transaction: %w", commitErr)
	}

	return result, nil
}

// ListKnownURLs returns stored article URLs, most recently discovered first.
// A non-positive limit returns all URLs.
func (r *ArticleRepository) ListKnownURLs(ctx context.Context, limit int) ([]string, error) {
	query := `SELECT url FROM articles ORDER BY discovered_at DESC NULLS LAST, created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	urls := []string{}
	if err := r.db.SelectContext(ctx, &urls, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list known urls: %w", err)
	}
	return urls, nil
}

// ListAll returns every stored article, oldest row first so duplicate groups
// keep their earliest member.
func (r *ArticleRepository) ListAll(ctx context.Context) ([]StoredArticle, error) {
	query := `
		SELECT id, url, title, content, published_at, created_at
		FROM articles
		ORDER BY created_at ASC, id ASC
	`

	articles := []StoredArticle{}
	if err := r.db.SelectContext(ctx, &articles, query); err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	return articles, nil
}

// DeleteByIDs removes the given rows and returns how many were deleted.
func (r *ArticleRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`DELETE FROM articles WHERE id IN (?)`, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to build delete query: %w", err)
	}
	query = r.db.Rebind(query)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete articles: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return deleted, nil
}

// sourceFromURL derives the source label from the article URL host.
func sourceFromURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return raw
	}
	return parsed.Host
}
