package syntax

import (
	"context"
	"crypto/sha256"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 128

type cacheEntry struct {
	hash [sha256.Size]byte
	tree *Tree
}

// Cache memoises parse results per document URI, invalidated by content
// hash. Safe for concurrent use.
type Cache struct {
	entries *lru.Cache[string, cacheEntry]
}

func NewCache(size int) *Cache {
	if size <= 0 {
		size = defaultCacheSize
	}
	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		panic(err) // only fails for non-positive sizes
	}
	return &Cache{entries: entries}
}

// Parse returns the cached tree for uri when the content is unchanged,
// otherwise parses and stores the result.
func (c *Cache) Parse(ctx context.Context, uri string, src []byte) (*Tree, error) {
	hash := sha256.Sum256(src)
	if entry, ok := c.entries.Get(uri); ok && entry.hash == hash {
		return entry.tree, nil
	}
	tree, err := Parse(ctx, src)
	if err != nil {
		return nil, err
	}
	c.entries.Add(uri, cacheEntry{hash: hash, tree: tree})
	return tree, nil
}

// Remove drops the cached tree for uri.
func (c *Cache) Remove(uri string) {
	c.entries.Remove(uri)
}

// Purge drops every cached tree (used when the reference set changes).
func (c *Cache) Purge() {
	c.entries.Purge()
}
