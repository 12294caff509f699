package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

// mgetBatch bounds the number of keys fetched per MGET.
const mgetBatch = 256

// Redis stores entries as plain string keys. Put runs in MULTI/EXEC so a
// batch lands atomically.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Put(ctx context.Context, entries ...KV) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range entries {
			pipe.Set(ctx, e.Key, e.Value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing batch: %w", err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return v, nil
}

func (r *Redis) List(ctx context.Context, prefix string) ([]KV, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, globEscape(prefix)+"*", 512).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", prefix, err)
	}
	sort.Strings(keys)

	out := make([]KV, 0, len(keys))
	for start := 0; start < len(keys); start += mgetBatch {
		batch := keys[start:min(start+mgetBatch, len(keys))]
		values, err := r.client.MGet(ctx, batch...).Result()
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", prefix, err)
		}
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				// Deleted between SCAN and MGET.
				continue
			}
			out = append(out, KV{Key: batch[i], Value: []byte(s)})
		}
	}
	return out, nil
}

// Check pings the server.
func (r *Redis) Check(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func globEscape(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
