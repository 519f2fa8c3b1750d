// Package storage persists articles. Two backends share the Store contract:
// Redis for networked deployments and SQLite for a single binary.
package storage

import (
	"context"
	"fmt"
	"time"

	"newsdesk/internal/apperr"
	"newsdesk/internal/config"
	"newsdesk/internal/model"
	"newsdesk/internal/redisclient"
)

// Store is the durable article corpus.
type Store interface {
	Create(ctx context.Context, a model.Article) (model.Article, error)
	Get(ctx context.Context, id int64) (model.Article, error)
	// GetMany returns the articles in the order of ids, skipping missing ones.
	GetMany(ctx context.Context, ids []int64) ([]model.Article, error)
	GetByLink(ctx context.Context, link string) (model.Article, error)
	Update(ctx context.Context, id int64, u model.ArticleUpdate) (model.Article, error)
	Delete(ctx context.Context, id int64) error
	// ListOrderedByRecency returns created_at desc, id desc. limit <= 0 means all.
	ListOrderedByRecency(ctx context.Context, offset, limit int) ([]model.Article, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Open builds the store selected by cfg.Store.Driver.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.Store.Driver {
	case "redis":
		rdb := redisclient.New(cfg.Redis)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, apperr.Wrap(apperr.Storage, "open store", "redis unreachable", err)
		}
		return NewRedisStore(rdb), nil
	case "sqlite", "":
		return OpenSQLite(cfg.Store.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// prepareNew normalizes and validates an article about to be created.
func prepareNew(a model.Article) (model.Article, error) {
	a.ID = 0
	a.Normalize()
	if err := a.Validate(); err != nil {
		return model.Article{}, err
	}
	ts := now()
	if a.CreatedAt.IsZero() || a.CreatedAt.After(ts) {
		a.CreatedAt = ts
	} else {
		a.CreatedAt = a.CreatedAt.UTC().Truncate(time.Microsecond)
	}
	a.UpdatedAt = ts
	return a, nil
}

// prepareUpdate applies u onto cur. It reports false when nothing changed
// and u is not a touch. updated_at strictly increases on every write.
func prepareUpdate(cur model.Article, u model.ArticleUpdate) (model.Article, bool, error) {
	next := cur
	if !next.Apply(u) && !u.Touch {
		return cur, false, nil
	}
	if err := next.Validate(); err != nil {
		return model.Article{}, false, err
	}
	ts := now()
	if !ts.After(cur.UpdatedAt) {
		ts = cur.UpdatedAt.Add(time.Microsecond)
	}
	next.UpdatedAt = ts
	return next, true, nil
}

func notFound(op string, id int64) error {
	return apperr.Newf(apperr.NotFound, op, "article %d not found", id)
}

func linkTaken(op, link string) error {
	return apperr.Newf(apperr.Conflict, op, "link %s already exists", link)
}

// storageErr wraps backend failures that are not already classified.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperr.KindOf(err) != apperr.Unknown {
		return err
	}
	return apperr.Wrap(apperr.Storage, op, "storage failure", err)
}
