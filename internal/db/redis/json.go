package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/firedoc/internal/db"
)

// errNoJSONModule is returned when the server rejects JSON.* commands.
var errNoJSONModule = errors.New("server has no JSON module")

// jsonGetBatch bounds the number of JSON.GET commands per pipeline.
const jsonGetBatch = 100

// JSONSet stores a JSON document at the given key and path.
func (s *Store) JSONSet(ctx context.Context, key, path string, data []byte) error {
	cmd := s.b().Arbitrary("JSON.SET").Keys(key).Args(path, string(data)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpJSONSet, Err: jsonErr(err)}
	}
	return nil
}

// JSONGet retrieves a JSON document by key and optional paths.
// Without paths the root value is returned as is.
func (s *Store) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	args := make([]string, len(paths))
	copy(args, paths)

	cmd := s.b().Arbitrary("JSON.GET").Keys(key).Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpJSONGet, Err: jsonErr(err)}
	}
	if raw == "" {
		return nil, db.ErrKeyNotFound
	}
	return []byte(raw), nil
}

// JSONGetMulti fetches the root value of several keys with pipelined JSON.GET.
// Missing keys yield a nil entry.
func (s *Store) JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	out := make([][]byte, 0, len(keys))
	for start := 0; start < len(keys); start += jsonGetBatch {
		end := min(start+jsonGetBatch, len(keys))
		chunk := keys[start:end]

		cmds := make([]rueidis.Completed, len(chunk))
		for i, key := range chunk {
			cmds[i] = s.b().Arbitrary("JSON.GET").Keys(key).Build()
		}

		for i, res := range s.client.DoMulti(ctx, cmds...) {
			raw, err := res.ToString()
			if err != nil {
				if rueidis.IsRedisNil(err) {
					out = append(out, nil)
					continue
				}
				return nil, &db.Error{Op: db.OpJSONGet, Err: fmt.Errorf("key %s: %w", chunk[i], jsonErr(err))}
			}
			out = append(out, []byte(raw))
		}
	}
	return out, nil
}

func jsonErr(err error) error {
	if isRedisErr(err, "unknown command") {
		return fmt.Errorf("%w: %w", errNoJSONModule, err)
	}
	return err
}
