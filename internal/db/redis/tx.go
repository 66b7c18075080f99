package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/firedoc/internal/db"
)

// maxTxAttempts bounds the WATCH/MULTI/EXEC retries of one rewrite.
const maxTxAttempts = 5

// rewriteFunc derives the new document from the stored one. found is false
// when the key does not exist; returning db.ErrKeyNotFound aborts the rewrite.
type rewriteFunc func(current map[string]any, found bool) (map[string]any, error)

// rewrite replaces the document at key with fn's result as a check-and-set:
// the key is watched while it is read, and EXEC fails if another writer
// touched it in between, in which case the rewrite starts over.
func (s *Store) rewrite(ctx context.Context, key string, fn rewriteFunc) error {
	for range maxTxAttempts {
		var committed bool
		err := s.client.Dedicated(func(c rueidis.DedicatedClient) error {
			var err error
			committed, err = rewriteOnce(ctx, c, key, fn)
			return err
		})
		if err != nil {
			return err
		}
		if committed {
			return nil
		}
	}
	return &db.Error{Op: db.OpExec, Err: fmt.Errorf("key %s: %w", key, db.ErrConflict)}
}

func rewriteOnce(ctx context.Context, c rueidis.DedicatedClient, key string, fn rewriteFunc) (bool, error) {
	if err := c.Do(ctx, c.B().Watch().Key(key).Build()).Error(); err != nil {
		return false, &db.Error{Op: db.OpWatch, Err: err}
	}

	current, found, err := readWatched(ctx, c, key)
	if err != nil {
		unwatch(ctx, c)
		return false, err
	}

	next, err := fn(current, found)
	if err != nil {
		unwatch(ctx, c)
		return false, err
	}
	if next == nil {
		next = map[string]any{}
	}
	raw, err := json.Marshal(next)
	if err != nil {
		unwatch(ctx, c)
		return false, fmt.Errorf("encode %s: %w", key, err)
	}

	res := c.DoMulti(ctx,
		c.B().Multi().Build(),
		c.B().Arbitrary("JSON.SET").Keys(key).Args("$", string(raw)).Build(),
		c.B().Exec().Build(),
	)
	for _, r := range res[:len(res)-1] {
		if err := r.Error(); err != nil {
			return false, &db.Error{Op: db.OpJSONSet, Err: jsonErr(err)}
		}
	}

	replies, err := res[len(res)-1].ToArray()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			// watched key changed
			return false, nil
		}
		return false, &db.Error{Op: db.OpExec, Err: jsonErr(err)}
	}
	for _, r := range replies {
		if err := r.Error(); err != nil {
			return false, &db.Error{Op: db.OpJSONSet, Err: jsonErr(err)}
		}
	}
	return true, nil
}

func readWatched(ctx context.Context, c rueidis.DedicatedClient, key string) (map[string]any, bool, error) {
	raw, err := c.Do(ctx, c.B().Arbitrary("JSON.GET").Keys(key).Build()).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return map[string]any{}, false, nil
		}
		return nil, false, &db.Error{Op: db.OpJSONGet, Err: jsonErr(err)}
	}
	if raw == "" {
		return map[string]any{}, false, nil
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", key, err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, true, nil
}

// unwatch releases the watch before the connection goes back to the pool.
func unwatch(ctx context.Context, c rueidis.DedicatedClient) {
	_ = c.Do(ctx, c.B().Unwatch().Build()).Error()
}
