package main

import (
	"crypto/md5"
	"fmt"
	"sort"
	"time"

	"github.com/golang/snappy"
)

// Cache is the interface for the supported caching fabrics
// When making new cache types, Retrieve() must return an error on cache miss
type Cache interface {
	Connect() error
	Store(cacheKey string, data string, ttl time.Duration) error
	Retrieve(cacheKey string) (string, error)
	Reap()
	Close() error
}

func getCache(t *LeadScoutHandler) Cache {

	switch t.Config.Caching.CacheType {
	case ctFilesystem:
		return &FilesystemCache{Config: t.Config.Caching, Logger: t.Logger}

	case ctBoltDB:
		return &BoltDBCache{Config: t.Config.Caching, Logger: t.Logger}

	case ctRedis:
		return &RedisCache{Config: t.Config.Caching, Logger: t.Logger}
	}

	// Default to MemoryCache
	return &MemoryCache{Config: t.Config.Caching, Logger: t.Logger}
}

// deriveCacheKey hashes the namespace and identity parts into a stable cache key,
// keeping different lookup types from colliding while bounding key length.
func deriveCacheKey(namespace string, parts ...string) string {
	sorted := make([]string, len(parts))
	copy(sorted, parts)
	sort.Strings(sorted)

	hash := md5.New()
	for _, p := range sorted {
		fmt.Fprint(hash, p)
	}

	return fmt.Sprintf("%s:%x", namespace, hash.Sum(nil))
}

// encodeCachePayload optionally snappy-compresses a JSON payload before it is cached.
func encodeCachePayload(compress bool, data []byte) string {
	if compress {
		return string(snappy.Encode(nil, data))
	}
	return string(data)
}

// decodeCachePayload returns the JSON payload for a cached value, decompressing when needed.
// We probe the first byte instead of checking the Compression config bit because if someone
// turns compression on or off when using the filesystem or redis cache, we will have no idea
// if what is already in the cache was compressed or not based on previous settings.
func decodeCachePayload(data string) []byte {
	b := []byte(data)
	if len(b) == 0 || b[0] == '{' || b[0] == '[' {
		return b
	}
	if d, err := snappy.Decode(nil, b); err == nil {
		return d
	}
	return b
}
