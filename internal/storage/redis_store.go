package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"newsdesk/internal/apperr"
	"newsdesk/internal/model"

	"github.com/redis/go-redis/v9"
)

const (
	seqKey        = "news:article:seq"
	recencyKey    = "news:recency"
	articlePrefix = "news:article:"
	maxTxRetries  = 8
)

// RedisStore keeps articles as JSON strings, a link index and a recency ZSET.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func articleKey(id int64) string {
	return articlePrefix + strconv.FormatInt(id, 10)
}

func linkKey(link string) string {
	sum := sha1.Sum([]byte(link))
	return "news:link:" + hex.EncodeToString(sum[:])
}

// recencyMember pads ids so ZREVRANGE breaks score ties by id desc.
func recencyMember(id int64) string {
	return fmt.Sprintf("%020d", id)
}

func recencyScore(a model.Article) float64 {
	return float64(a.CreatedAt.UnixMicro())
}

// listScript reads a ZSET window and the matching documents atomically.
var listScript = redis.NewScript(`
local members = redis.call('ZREVRANGE', KEYS[1], ARGV[1], ARGV[2])
local out = {}
for _, m in ipairs(members) do
  local id = string.gsub(m, '^0+', '')
  local v = redis.call('GET', ARGV[3] .. id)
  if v then
    table.insert(out, v)
  end
end
return out
`)

// watch runs fn as an optimistic transaction, retrying when a watched key
// changed underneath it.
func (s *RedisStore) watch(ctx context.Context, op string, fn func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, fn, keys...)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return storageErr(op, err)
	}
	return apperr.New(apperr.Conflict, op, "too many concurrent modifications, try again")
}

func decodeArticle(b []byte) (model.Article, error) {
	var a model.Article
	if err := json.Unmarshal(b, &a); err != nil {
		return model.Article{}, fmt.Errorf("decode article: %w", err)
	}
	return a, nil
}

func (s *RedisStore) Create(ctx context.Context, in model.Article) (model.Article, error) {
	const op = "create article"
	a, err := prepareNew(in)
	if err != nil {
		return model.Article{}, err
	}
	lk := linkKey(a.Link)
	// Cheap early check so a conflicting create does not burn a sequence value.
	if n, err := s.rdb.Exists(ctx, lk).Result(); err != nil {
		return model.Article{}, storageErr(op, err)
	} else if n > 0 {
		return model.Article{}, linkTaken(op, a.Link)
	}
	id, err := s.rdb.Incr(ctx, seqKey).Result()
	if err != nil {
		return model.Article{}, storageErr(op, err)
	}
	a.ID = id
	b, err := json.Marshal(a)
	if err != nil {
		return model.Article{}, err
	}
	err = s.watch(ctx, op, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, lk).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return linkTaken(op, a.Link)
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, articleKey(id), b, 0)
			p.Set(ctx, lk, id, 0)
			p.ZAdd(ctx, recencyKey, redis.Z{Score: recencyScore(a), Member: recencyMember(id)})
			return nil
		})
		return err
	}, lk)
	if err != nil {
		return model.Article{}, err
	}
	return a, nil
}

func (s *RedisStore) Get(ctx context.Context, id int64) (model.Article, error) {
	b, err := s.rdb.Get(ctx, articleKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Article{}, notFound("get article", id)
	}
	if err != nil {
		return model.Article{}, storageErr("get article", err)
	}
	return decodeArticle(b)
}

func (s *RedisStore) GetMany(ctx context.Context, ids []int64) ([]model.Article, error) {
	out := make([]model.Article, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = articleKey(id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, storageErr("get articles", err)
	}
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		a, err := decodeArticle([]byte(str))
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *RedisStore) GetByLink(ctx context.Context, link string) (model.Article, error) {
	const op = "get article by link"
	link = model.CanonicalLink(link)
	id, err := s.rdb.Get(ctx, linkKey(link)).Int64()
	if errors.Is(err, redis.Nil) {
		return model.Article{}, apperr.Newf(apperr.NotFound, op, "no article with link %s", link)
	}
	if err != nil {
		return model.Article{}, storageErr(op, err)
	}
	a, err := s.Get(ctx, id)
	if apperr.Is(err, apperr.NotFound) {
		return model.Article{}, apperr.Newf(apperr.NotFound, op, "no article with link %s", link)
	}
	return a, err
}

func (s *RedisStore) Update(ctx context.Context, id int64, u model.ArticleUpdate) (model.Article, error) {
	const op = "update article"
	keys := []string{articleKey(id)}
	if u.Link != nil {
		keys = append(keys, linkKey(model.CanonicalLink(*u.Link)))
	}
	var out model.Article
	err := s.watch(ctx, op, func(tx *redis.Tx) error {
		b, err := tx.Get(ctx, articleKey(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			return notFound(op, id)
		}
		if err != nil {
			return err
		}
		cur, err := decodeArticle(b)
		if err != nil {
			return err
		}
		next, changed, err := prepareUpdate(cur, u)
		if err != nil {
			return err
		}
		if !changed {
			out = cur
			return nil
		}
		relink := next.Link != cur.Link
		if relink {
			owner, err := tx.Get(ctx, linkKey(next.Link)).Int64()
			if err == nil && owner != id {
				return linkTaken(op, next.Link)
			}
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
		}
		nb, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, articleKey(id), nb, 0)
			if relink {
				p.Del(ctx, linkKey(cur.Link))
				p.Set(ctx, linkKey(next.Link), id, 0)
			}
			return nil
		})
		if err != nil {
			return err
		}
		out = next
		return nil
	}, keys...)
	if err != nil {
		return model.Article{}, err
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, id int64) error {
	const op = "delete article"
	return s.watch(ctx, op, func(tx *redis.Tx) error {
		b, err := tx.Get(ctx, articleKey(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			return notFound(op, id)
		}
		if err != nil {
			return err
		}
		cur, err := decodeArticle(b)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Del(ctx, articleKey(id), linkKey(cur.Link))
			p.ZRem(ctx, recencyKey, recencyMember(id))
			return nil
		})
		return err
	}, articleKey(id))
}

func (s *RedisStore) ListOrderedByRecency(ctx context.Context, offset, limit int) ([]model.Article, error) {
	if offset < 0 {
		offset = 0
	}
	stop := -1
	if limit > 0 {
		stop = offset + limit - 1
	}
	vals, err := listScript.Run(ctx, s.rdb, []string{recencyKey}, offset, stop, articlePrefix).StringSlice()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, storageErr("list articles", err)
	}
	out := make([]model.Article, 0, len(vals))
	for _, v := range vals {
		a, err := decodeArticle([]byte(v))
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := s.rdb.ZCard(ctx, recencyKey).Result()
	if err != nil {
		return 0, storageErr("count articles", err)
	}
	return int(n), nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
