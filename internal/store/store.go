package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no source has the requested id.
var ErrNotFound = errors.New("source not found")

// ErrDuplicateURL is returned when a source with the same URL already exists.
var ErrDuplicateURL = errors.New("source url already exists")

// Source categories.
const (
	CategoryCompetitor  = "competitor"
	CategoryPartner     = "partner"
	CategoryInspiration = "inspiration"
)

// Source statuses.
const (
	StatusPending   = "pending"
	StatusNewUpdate = "new_update"
	StatusNoUpdates = "no_updates"
	StatusLimited   = "limited"
	StatusError     = "error"
)

type Store struct {
	db *sql.DB
}

// Source is a monitored URL and the last persisted result of checking it.
type Source struct {
	ID            int64
	Name          string
	Category      string
	URL           string
	LastChecked   time.Time
	LastUpdateURL string
	LastUpdateAt  time.Time
	LastContent   string
	LastSummary   string
	ErrorKind     string
	ErrorMessage  string
	Status        string
	CreatedAt     time.Time
}

type SourceInput struct {
	Name      string
	Category  string
	URL       string
	CreatedAt time.Time
}

// CheckRecord is the result of one check, as applied to a stored source.
type CheckRecord struct {
	CheckedAt       time.Time
	Status          string
	HasNewContent   bool
	ContentIdentity string
	ContentText     string
	Summary         string
	ErrorKind       string
	ErrorMessage    string
}

// ValidCategory reports whether c is a known source category.
func ValidCategory(c string) bool {
	switch c {
	case CategoryCompetitor, CategoryPartner, CategoryInspiration:
		return true
	}
	return false
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; refresh workers share this handle.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AddSource inserts a new source in the pending state.
func (s *Store) AddSource(ctx context.Context, in SourceInput) (Source, error) {
	if s == nil || s.db == nil {
		return Source{}, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rawURL := strings.TrimSpace(in.URL)
	if rawURL == "" {
		return Source{}, errors.New("url is required")
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = CategoryCompetitor
	}
	if !ValidCategory(category) {
		return Source{}, fmt.Errorf("unknown category %q", category)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = rawURL
	}
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sources WHERE url = ?", rawURL).Scan(&exists)
	if err != nil {
		return Source{}, fmt.Errorf("check existing url: %w", err)
	}
	if exists > 0 {
		return Source{}, fmt.Errorf("%w: %s", ErrDuplicateURL, rawURL)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sources (name, category, url, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, name, category, rawURL, StatusPending, formatTime(createdAt))
	if err != nil {
		return Source{}, fmt.Errorf("insert source: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Source{}, fmt.Errorf("read source id: %w", err)
	}

	return s.GetSource(ctx, id)
}

func (s *Store) RemoveSource(ctx context.Context, id int64) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM sources WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

func (s *Store) GetSource(ctx context.Context, id int64) (Source, error) {
	if s == nil || s.db == nil {
		return Source{}, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+sourceColumns+`
		FROM sources
		WHERE id = ?
	`, id)

	src, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Source{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return Source{}, err
	}
	return src, nil
}

// ListSources returns stored sources ordered by id. An empty category
// returns every source.
func (s *Store) ListSources(ctx context.Context, category string) ([]Source, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	query := "SELECT " + sourceColumns + " FROM sources"
	var args []any
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var sources []Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}

	return sources, nil
}

// RecordCheck applies a check result to a stored source. The last-checked
// time, status and error fields are always written. The update URL, content
// and summary only change when the check found new content.
func (s *Store) RecordCheck(ctx context.Context, id int64, rec CheckRecord) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if rec.Status == "" {
		return errors.New("status is required")
	}
	if rec.HasNewContent && strings.TrimSpace(rec.ContentIdentity) == "" {
		return errors.New("content identity is required for new content")
	}

	checkedAt := rec.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = time.Now()
	}

	var (
		res sql.Result
		err error
	)
	if rec.HasNewContent {
		res, err = s.db.ExecContext(ctx, `
			UPDATE sources SET
				last_checked = ?,
				status = ?,
				error_kind = ?,
				error_message = ?,
				last_update_url = ?,
				last_update_at = ?,
				last_content = ?,
				last_summary = ?
			WHERE id = ?
		`,
			formatTime(checkedAt),
			rec.Status,
			nullString(rec.ErrorKind),
			nullString(rec.ErrorMessage),
			rec.ContentIdentity,
			formatTime(checkedAt),
			nullString(rec.ContentText),
			nullString(rec.Summary),
			id,
		)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE sources SET
				last_checked = ?,
				status = ?,
				error_kind = ?,
				error_message = ?
			WHERE id = ?
		`,
			formatTime(checkedAt),
			rec.Status,
			nullString(rec.ErrorKind),
			nullString(rec.ErrorMessage),
			id,
		)
	}
	if err != nil {
		return fmt.Errorf("record check: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record check: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

// StatusCounts returns the number of sources per status.
func (s *Store) StatusCounts(ctx context.Context) (map[string]int, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM sources GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count statuses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}

	return counts, nil
}

const sourceColumns = `id, name, category, url, last_checked, last_update_url, last_update_at,
		last_content, last_summary, error_kind, error_message, status, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(scanner rowScanner) (Source, error) {
	var (
		src                        Source
		lastChecked, lastUpdateAt  sql.NullString
		lastUpdateURL, lastContent sql.NullString
		lastSummary                sql.NullString
		errorKind, errorMessage    sql.NullString
		createdAt                  string
	)

	if err := scanner.Scan(
		&src.ID,
		&src.Name,
		&src.Category,
		&src.URL,
		&lastChecked,
		&lastUpdateURL,
		&lastUpdateAt,
		&lastContent,
		&lastSummary,
		&errorKind,
		&errorMessage,
		&src.Status,
		&createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Source{}, err
		}
		return Source{}, fmt.Errorf("scan source: %w", err)
	}

	src.LastUpdateURL = lastUpdateURL.String
	src.LastContent = lastContent.String
	src.LastSummary = lastSummary.String
	src.ErrorKind = errorKind.String
	src.ErrorMessage = errorMessage.String

	var err error
	src.LastChecked, err = parseTime(lastChecked.String)
	if err != nil {
		return Source{}, fmt.Errorf("parse last_checked: %w", err)
	}
	src.LastUpdateAt, err = parseTime(lastUpdateAt.String)
	if err != nil {
		return Source{}, fmt.Errorf("parse last_update_at: %w", err)
	}
	src.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return Source{}, fmt.Errorf("parse created_at: %w", err)
	}

	return src, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return time.Time{}.UTC().Format(time.RFC3339Nano)
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, value)
}
