// Package queue persists the deduplicated, day-bucketed record of submitted
// article links. It is the handoff point between inbox polling and digest
// generation.
package queue

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"morsel/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotQueued indicates a status transition was requested for a (day, url)
// pair that was never enqueued. This is an invariant violation, not a
// transient condition; callers must not retry it.
var ErrNotQueued = errors.New("article not queued")

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// receivedAtLayout pads fractional seconds to a fixed width so stored
// timestamps sort lexicographically in submission order. RFC3339Nano drops
// trailing zeros, which would sort "...00.5Z" before "...00Z".
const receivedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages article queue persistence backed by SQLite.
type Store struct {
	db     *sql.DB
	policy CanonicalPolicy
}

// Open initializes or connects to the queue database at path and applies the
// schema. The canonicalization policy is fixed for the store's lifetime.
func Open(path string, policy CanonicalPolicy) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure queue dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, policy: policy}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Canonicalize exposes the store's URL normalization so callers can derive
// the key a raw URL will be stored under.
func (s *Store) Canonicalize(raw string) (string, error) {
	return s.policy.Canonicalize(raw)
}

// Enqueue canonicalizes raw and inserts a queued record into the day bucket
// of receivedAt. Re-submitting the same URL on the same day is a no-op.
// Returns the canonical URL and whether a new record was added.
func (s *Store) Enqueue(ctx context.Context, raw string, receivedAt time.Time) (string, bool, error) {
	canonical, err := s.policy.Canonicalize(raw)
	if err != nil {
		return "", false, err
	}

	day := domain.DayOf(receivedAt)
	query, args, err := builder.
		Insert("articles").
		Columns("day", "url", "status", "received_at").
		Values(domain.FormatDay(day), canonical, string(domain.StatusQueued), receivedAt.UTC().Format(receivedAtLayout)).
		Suffix("ON CONFLICT (day, url) DO NOTHING").
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build insert: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return "", false, fmt.Errorf("insert article: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("rows affected: %w", err)
	}

	return canonical, affected > 0, nil
}

// MarkExtracted records successful content extraction for an enqueued URL.
func (s *Store) MarkExtracted(ctx context.Context, day time.Time, rawURL, title, text string) error {
	return s.transition(ctx, day, rawURL, func(b sq.UpdateBuilder) sq.UpdateBuilder {
		return b.
			Set("status", string(domain.StatusExtracted)).
			Set("title", title).
			Set("extracted_text", text)
	})
}

// MarkExtractionFailed records a terminal scrape failure for an enqueued URL.
// The record stays visible so the digest can report the skip.
func (s *Store) MarkExtractionFailed(ctx context.Context, day time.Time, rawURL string) error {
	return s.transition(ctx, day, rawURL, func(b sq.UpdateBuilder) sq.UpdateBuilder {
		return b.Set("status", string(domain.StatusExtractionFailed))
	})
}

func (s *Store) transition(ctx context.Context, day time.Time, rawURL string, mutate func(sq.UpdateBuilder) sq.UpdateBuilder) error {
	canonical, err := s.policy.Canonicalize(rawURL)
	if err != nil {
		return err
	}

	query, args, err := mutate(builder.Update("articles")).
		Where(sq.Eq{"day": domain.FormatDay(day), "url": canonical}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s on %s", ErrNotQueued, canonical, domain.FormatDay(day))
	}

	return nil
}

// ArticlesFor returns the day's records ordered by submission time (ties
// broken by URL for determinism), including extraction failures.
func (s *Store) ArticlesFor(ctx context.Context, day time.Time) ([]domain.ArticleRecord, error) {
	query, args, err := builder.
		Select("day", "url", "title", "extracted_text", "status", "received_at").
		From("articles").
		Where(sq.Eq{"day": domain.FormatDay(day)}).
		OrderBy("received_at ASC", "url ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var records []domain.ArticleRecord
	for rows.Next() {
		record, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return records, nil
}

// Days returns the distinct day buckets that hold at least one record,
// oldest first.
func (s *Store) Days(ctx context.Context) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT day FROM articles ORDER BY day ASC")
	if err != nil {
		return nil, fmt.Errorf("query days: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		day, err := domain.ParseDay(value)
		if err != nil {
			return nil, fmt.Errorf("parse stored day %q: %w", value, err)
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return days, nil
}

// Stats returns record counts per status across all days.
func (s *Store) Stats(ctx context.Context) (map[domain.ArticleStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM articles GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := map[domain.ArticleStatus]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stat: %w", err)
		}
		stats[domain.ArticleStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return stats, nil
}

func scanArticle(rows *sql.Rows) (domain.ArticleRecord, error) {
	var (
		record     domain.ArticleRecord
		dayValue   string
		text       sql.NullString
		status     string
		receivedAt string
	)

	if err := rows.Scan(&dayValue, &record.URL, &record.Title, &text, &status, &receivedAt); err != nil {
		return domain.ArticleRecord{}, fmt.Errorf("scan article: %w", err)
	}

	day, err := domain.ParseDay(dayValue)
	if err != nil {
		return domain.ArticleRecord{}, fmt.Errorf("parse stored day %q: %w", dayValue, err)
	}
	record.Day = day

	received, err := time.Parse(receivedAtLayout, receivedAt)
	if err != nil {
		return domain.ArticleRecord{}, fmt.Errorf("parse received_at %q: %w", receivedAt, err)
	}
	record.ReceivedAt = received

	record.Text = text.String
	record.Status = domain.ArticleStatus(status)
	return record, nil
}
