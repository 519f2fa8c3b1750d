package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"newsdesk/internal/apperr"
	"newsdesk/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps articles in a single table. Writes go through a
// one-connection pool so per-article mutations are serialized.
type SQLiteStore struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

const articleColumns = `id, headline, summary, link, source, ai_summary, sentiment, created_at, updated_at`

// OpenSQLite opens (and creates if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	writeDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &SQLiteStore{readDB: readDB, writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS articles (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			headline    TEXT NOT NULL,
			summary     TEXT NOT NULL DEFAULT '',
			link        TEXT NOT NULL UNIQUE,
			source      TEXT NOT NULL DEFAULT '',
			ai_summary  TEXT NOT NULL DEFAULT '',
			sentiment   TEXT NOT NULL DEFAULT '',
			created_at  INTEGER NOT NULL,
			updated_at  INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_articles_recency ON articles(created_at DESC, id DESC);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	return errors.Join(errs...)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(r rowScanner) (model.Article, error) {
	var (
		a                model.Article
		created, updated int64
	)
	if err := r.Scan(&a.ID, &a.Headline, &a.Summary, &a.Link, &a.Source, &a.AISummary, &a.Sentiment, &created, &updated); err != nil {
		return model.Article{}, err
	}
	a.CreatedAt = time.UnixMicro(created).UTC()
	a.UpdatedAt = time.UnixMicro(updated).UTC()
	return a, nil
}

func (s *SQLiteStore) Create(ctx context.Context, in model.Article) (model.Article, error) {
	const op = "create article"
	a, err := prepareNew(in)
	if err != nil {
		return model.Article{}, err
	}
	tx, err := s.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return model.Article{}, storageErr(op, err)
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM articles WHERE link = ?`, a.Link).Scan(&existing)
	if err == nil {
		return model.Article{}, linkTaken(op, a.Link)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Article{}, storageErr(op, err)
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO articles (headline, summary, link, source, ai_summary, sentiment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Headline, a.Summary, a.Link, a.Source, a.AISummary, a.Sentiment,
		a.CreatedAt.UnixMicro(), a.UpdatedAt.UnixMicro())
	if err != nil {
		return model.Article{}, storageErr(op, err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return model.Article{}, storageErr(op, err)
	}
	if err := tx.Commit(); err != nil {
		return model.Article{}, storageErr(op, err)
	}
	return a, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (model.Article, error) {
	row := s.readDB.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = ?`, id)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Article{}, notFound("get article", id)
	}
	if err != nil {
		return model.Article{}, storageErr("get article", err)
	}
	return a, nil
}

func (s *SQLiteStore) GetMany(ctx context.Context, ids []int64) ([]model.Article, error) {
	out := make([]model.Article, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	rows, err := s.readDB.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id IN (`+strings.Join(placeholders, ",")+`)`, args...) //nolint:gosec
	if err != nil {
		return nil, storageErr("get articles", err)
	}
	defer rows.Close()

	byID := make(map[int64]model.Article, len(ids))
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, storageErr("get articles", err)
		}
		byID[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("get articles", err)
	}
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *SQLiteStore) GetByLink(ctx context.Context, link string) (model.Article, error) {
	const op = "get article by link"
	link = model.CanonicalLink(link)
	row := s.readDB.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE link = ?`, link)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Article{}, apperr.Newf(apperr.NotFound, op, "no article with link %s", link)
	}
	if err != nil {
		return model.Article{}, storageErr(op, err)
	}
	return a, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id int64, u model.ArticleUpdate) (model.Article, error) {
	const op = "update article"
	tx, err := s.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return model.Article{}, storageErr(op, err)
	}
	defer tx.Rollback()

	cur, err := scanArticle(tx.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Article{}, notFound(op, id)
	}
	if err != nil {
		return model.Article{}, storageErr(op, err)
	}
	next, changed, err := prepareUpdate(cur, u)
	if err != nil {
		return model.Article{}, err
	}
	if !changed {
		return cur, nil
	}
	if next.Link != cur.Link {
		var owner int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM articles WHERE link = ? AND id <> ?`, next.Link, id).Scan(&owner)
		if err == nil {
			return model.Article{}, linkTaken(op, next.Link)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return model.Article{}, storageErr(op, err)
		}
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE articles SET headline = ?, summary = ?, link = ?, ai_summary = ?, sentiment = ?, updated_at = ?
		WHERE id = ?`,
		next.Headline, next.Summary, next.Link, next.AISummary, next.Sentiment, next.UpdatedAt.UnixMicro(), id)
	if err != nil {
		return model.Article{}, storageErr(op, err)
	}
	if err := tx.Commit(); err != nil {
		return model.Article{}, storageErr(op, err)
	}
	return next, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	const op = "delete article"
	res, err := s.writeDB.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return storageErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(op, err)
	}
	if n == 0 {
		return notFound(op, id)
	}
	return nil
}

func (s *SQLiteStore) ListOrderedByRecency(ctx context.Context, offset, limit int) ([]model.Article, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.readDB.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, storageErr("list articles", err)
	}
	defer rows.Close()

	out := make([]model.Article, 0)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, storageErr("list articles", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list articles", err)
	}
	return out, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.readDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&n); err != nil {
		return 0, storageErr("count articles", err)
	}
	return n, nil
}
