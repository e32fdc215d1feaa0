package cache

import (
	"context"
	"fmt"
)

// Namespace is a typed view over a Store whose keys share one prefix.
// Invalidate drops every key of the namespace at once.
type Namespace[V any] struct {
	store  *Store
	prefix string
}

func NewNamespace[V any](store *Store, prefix string) Namespace[V] {
	return Namespace[V]{store: store, prefix: prefix}
}

// GetOrLoad returns the cached value under key or stores what load returns.
// clone, when set, is applied on the way in and out so callers never share
// the cached copy.
func (n Namespace[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error), clone func(V) V) (V, error) {
	v, err := n.store.GetOrLoad(ctx, n.prefix+key, func(ctx context.Context) (any, error) {
		loaded, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if clone != nil {
			loaded = clone(loaded)
		}
		return loaded, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	typed, ok := v.(V)
	if !ok {
		var zero V
		return zero, fmt.Errorf("cache key %q holds %T", n.prefix+key, v)
	}
	if clone != nil {
		typed = clone(typed)
	}
	return typed, nil
}

func (n Namespace[V]) Invalidate(ctx context.Context) {
	n.store.DeletePrefix(ctx, n.prefix)
}
