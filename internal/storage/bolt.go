package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var kvBucket = []byte("kv")

// Bolt stores entries in a single bbolt bucket. Keys are kept in byte order,
// so List is a cursor seek.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the bbolt file at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(kvBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

func (b *Bolt) Put(_ context.Context, entries ...KV) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(kvBucket)
		for _, e := range entries {
			if err := bucket.Put([]byte(e.Key), e.Value); err != nil {
				return fmt.Errorf("writing %s: %w", e.Key, err)
			}
		}
		return nil
	})
}

func (b *Bolt) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		// A cursor tells an empty value apart from a missing key.
		k, v := tx.Bucket(kvBucket).Cursor().Seek([]byte(key))
		if k == nil || string(k) != key {
			return ErrNotFound
		}
		out = bytes.Clone(v)
		return nil
	})
	return out, err
}

func (b *Bolt) List(_ context.Context, prefix string) ([]KV, error) {
	var out []KV
	p := []byte(prefix)
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(kvBucket).Cursor()
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			out = append(out, KV{Key: string(k), Value: bytes.Clone(v)})
		}
		return nil
	})
	return out, err
}

// Check verifies the bucket can be read.
func (b *Bolt) Check(_ context.Context) error {
	return b.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(kvBucket) == nil {
			return fmt.Errorf("bucket %s missing", kvBucket)
		}
		return nil
	})
}
