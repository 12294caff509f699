// Package storage is the durable keyed store sessions persist into. Every
// driver offers the same three operations: an atomic multi-key Put, Get, and
// an ordered prefix List.
package storage

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("not found")

// KV is one stored entry.
type KV struct {
	Key   string
	Value []byte
}

// Store is the storage contract. Put writes all entries or none. List returns
// entries whose key starts with prefix, in ascending key order.
type Store interface {
	Put(ctx context.Context, entries ...KV) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]KV, error)
}

// Namespace scopes store to keys under prefix. Keys passed in and returned
// are relative to prefix.
func Namespace(store Store, prefix string) Store {
	return &namespaced{store: store, prefix: prefix}
}

type namespaced struct {
	store  Store
	prefix string
}

func (n *namespaced) Put(ctx context.Context, entries ...KV) error {
	scoped := make([]KV, len(entries))
	for i, e := range entries {
		scoped[i] = KV{Key: n.prefix + e.Key, Value: e.Value}
	}
	return n.store.Put(ctx, scoped...)
}

func (n *namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return n.store.Get(ctx, n.prefix+key)
}

func (n *namespaced) List(ctx context.Context, prefix string) ([]KV, error) {
	entries, err := n.store.List(ctx, n.prefix+prefix)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Key = strings.TrimPrefix(entries[i].Key, n.prefix)
	}
	return entries, nil
}
