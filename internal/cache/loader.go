package cache

import (
	"golang.org/x/sync/singleflight"
)

// Loader fronts a Cache and collapses concurrent misses for the same key into
// a single call of the load function.
type Loader[T any] struct {
	cache Cache[T]
	group singleflight.Group
}

func NewLoader[T any](c Cache[T]) *Loader[T] {
	return &Loader[T]{cache: c}
}

// Get returns the cached value for key, or runs load once for all waiting
// callers and caches a successful result. hit reports a cache hit.
func (l *Loader[T]) Get(key string, load func() (T, error)) (value T, hit bool, err error) {
	if v, ok := l.cache.Get(key); ok {
		return v, true, nil
	}
	res, err, _ := l.group.Do(key, func() (any, error) {
		if v, ok := l.cache.Get(key); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return v, err
		}
		l.cache.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return res.(T), false, nil
}

func (l *Loader[T]) Cache() Cache[T] {
	return l.cache
}
