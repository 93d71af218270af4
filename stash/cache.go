package stash

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/metafates/gache"
	"github.com/samber/mo"
	"github.com/stashsurf-cli/stashsurf/filesystem"
	"github.com/stashsurf-cli/stashsurf/where"
)

// cacheData defines the structured format for persisting cached server records to disk.
type cacheData[K comparable, T any] struct {
	Records map[K]T `json:"records"`
}

// cacher provides a generic, thread-safe wrapper for high-level caching operations.
type cacher[K comparable, T any] struct {
	internal *gache.Cache[*cacheData[K, T]]
	mu       sync.RWMutex
}

// Get retrieves a value from the cache associated with the specified key.
func (c *cacher[K, T]) Get(key K) mo.Option[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, expired, err := c.internal.Get()
	if err != nil || expired || data == nil {
		return mo.None[T]()
	}

	record, ok := data.Records[key]
	if ok {
		return mo.Some(record)
	}

	return mo.None[T]()
}

// Set persists a key-value pair to the cache.
func (c *cacher[K, T]) Set(key K, t T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, expired, err := c.internal.Get()
	if err != nil {
		return err
	}

	if !expired && data != nil {
		data.Records[key] = t
		return c.internal.Set(data)
	}

	internal := &cacheData[K, T]{Records: make(map[K]T)}
	internal.Records[key] = t
	return c.internal.Set(internal)
}

// Delete removes the entry associated with the specified key from the cache.
func (c *cacher[K, T]) Delete(key K) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, expired, err := c.internal.Get()
	if err != nil {
		return err
	}

	if !expired && data != nil {
		delete(data.Records, key)
		return c.internal.Set(data)
	}

	return nil
}

const allTagsCacheKey = "all"

// sceneCacher provides local persistence for scene metadata lookups.
var sceneCacher = &cacher[string, *Scene]{
	internal: gache.New[*cacheData[string, *Scene]](
		&gache.Options{
			Path:       filepath.Join(where.Cache(), "stash_scene_cache.json"),
			Lifetime:   time.Hour * 24,
			FileSystem: &filesystem.GacheFs{},
		},
	),
}

// tagCacher persists the server's tag registry for offline closest-match lookups.
var tagCacher = &cacher[string, []*Tag]{
	internal: gache.New[*cacheData[string, []*Tag]](
		&gache.Options{
			Path:       filepath.Join(where.Cache(), "stash_tag_cache.json"),
			Lifetime:   time.Hour * 24 * 7,
			FileSystem: &filesystem.GacheFs{},
		},
	),
}

// failCacher serves as short-term persistence for failed search queries to mitigate redundant API pressure.
var failCacher = &cacher[string, bool]{
	internal: gache.New[*cacheData[string, bool]](
		&gache.Options{
			Path:       filepath.Join(where.Cache(), "stash_fail_cache.json"),
			Lifetime:   time.Minute,
			FileSystem: &filesystem.GacheFs{},
		},
	),
}
