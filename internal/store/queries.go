package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	sqlite "github.com/mattn/go-sqlite3"

	"conspectus/internal/domain"
)

var recordColumns = []string{
	"id",
	"url",
	"source",
	"title",
	"author",
	"published_date",
	"github_description",
	"github_stars",
	"github_language",
	"content",
	"summary",
	"model_used",
	"requested_by",
	"processed_at",
}

// Exists reports whether a record for the URL is already stored.
func (s *Store) Exists(ctx context.Context, url string) (bool, error) {
	query, args, err := sq.Select("1").
		From("articles").
		Where(sq.Eq{"url": strings.TrimSpace(url)}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("execute query: %w", err)
	}

	return true, nil
}

// Get returns the stored record for the URL or domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, url string) (*domain.SummaryRecord, error) {
	query, args, err := sq.Select(recordColumns...).
		From("articles").
		Where(sq.Eq{"url": strings.TrimSpace(url)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	record, err := s.scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}

	return record, nil
}

// GetByID returns the stored record by its row ID or domain.ErrNotFound.
// Callback payloads reference records by ID; URLs do not fit there.
func (s *Store) GetByID(ctx context.Context, id int64) (*domain.SummaryRecord, error) {
	query, args, err := sq.Select(recordColumns...).
		From("articles").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	record, err := s.scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}

	return record, nil
}

// Insert stores a new record. A concurrent insert for the same URL loses
// with domain.ErrDuplicateKey; the unique constraint decides the winner.
func (s *Store) Insert(
	ctx context.Context,
	article *domain.Article,
	summary string,
	model string,
	requestedBy *int64,
) (*domain.SummaryRecord, error) {
	processedAt := time.Now().UTC()

	query, args, err := sq.Insert("articles").
		Columns(
			"url", "source", "title", "author", "published_date",
			"github_description", "github_stars", "github_language",
			"content", "summary", "model_used", "requested_by", "processed_at",
		).
		Values(
			article.URL,
			string(article.Source),
			article.Title,
			nullableString(article.Author),
			nullableString(article.PublishedDate),
			nullableString(article.Description),
			nullableString(article.Stars),
			nullableString(article.Language),
			article.Content,
			summary,
			model,
			nullableInt(requestedBy),
			processedAt,
		).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	if _, err = s.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateKey
		}
		return nil, fmt.Errorf("execute insert: %w", err)
	}

	return s.Get(ctx, article.URL)
}

// Update replaces the summary, model and timestamp of an existing record,
// preserving everything extracted. Returns domain.ErrNotFound when the URL
// has never been stored.
func (s *Store) Update(
	ctx context.Context,
	url string,
	summary string,
	model string,
) (*domain.SummaryRecord, error) {
	query, args, err := sq.Update("articles").
		Set("summary", summary).
		Set("model_used", model).
		Set("processed_at", time.Now().UTC()).
		Where(sq.Eq{"url": strings.TrimSpace(url)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("execute update: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("count affected rows: %w", err)
	}
	if affected == 0 {
		return nil, domain.ErrNotFound
	}

	return s.Get(ctx, url)
}

// ListByRequester returns the most recent records saved for a caller.
func (s *Store) ListByRequester(
	ctx context.Context,
	requestedBy int64,
	limit uint64,
) ([]domain.SummaryRecord, error) {
	query, args, err := sq.Select(recordColumns...).
		From("articles").
		Where(sq.Eq{"requested_by": requestedBy}).
		OrderBy("processed_at desc").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return s.queryRecords(ctx, query, args...)
}

// ListProcessedSince returns records processed at or after the given time,
// newest first. The daily digest is built from it.
func (s *Store) ListProcessedSince(
	ctx context.Context,
	since time.Time,
) ([]domain.SummaryRecord, error) {
	query, args, err := sq.Select(recordColumns...).
		From("articles").
		Where(sq.GtOrEq{"processed_at": since.UTC()}).
		OrderBy("processed_at desc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return s.queryRecords(ctx, query, args...)
}

func (s *Store) queryRecords(
	ctx context.Context,
	query string,
	args ...any,
) ([]domain.SummaryRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			s.log.ErrorContext(ctx, "Failed to close rows",
				"error", err)
		}
	}()

	var records []domain.SummaryRecord
	for rows.Next() {
		record, err := s.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, *record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanRecord(row rowScanner) (*domain.SummaryRecord, error) {
	var (
		record        domain.SummaryRecord
		source        string
		author        sql.NullString
		publishedDate sql.NullString
		description   sql.NullString
		stars         sql.NullString
		language      sql.NullString
		requestedBy   sql.NullInt64
	)

	err := row.Scan(
		&record.ID,
		&record.URL,
		&source,
		&record.Title,
		&author,
		&publishedDate,
		&description,
		&stars,
		&language,
		&record.Content,
		&record.Summary,
		&record.ModelUsed,
		&requestedBy,
		&record.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Source = domain.Source(source)
	record.Author = author.String
	record.PublishedDate = publishedDate.String
	record.Description = description.String
	record.Stars = stars.String
	record.Language = language.String

	if requestedBy.Valid {
		record.RequestedBy = &requestedBy.Int64
	}

	return &record, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	return sqliteErr.ExtendedCode == sqlite.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite.ErrConstraintPrimaryKey
}

func nullableString(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func nullableInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
