// Package objcache wraps a ristretto cache in front of a
// repo.BlobStore, caching encoded packfile base items and delta
// instruction chunks to absorb repeat reads within a request, grounded
// on pkg/serve/odb/cache.go's cacheKey/SetWithTTL tiering pattern.
package objcache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/zetaforge/gitwire/pkg/gitwire/objid"
	"github.com/zetaforge/gitwire/pkg/gitwire/repo"
	"github.com/zetaforge/gitwire/pkg/gitwire/types"
)

const (
	baseItemTTL   = 24 * time.Hour
	deltaChunkTTL = 4 * time.Hour
)

// Cache wraps repo.BlobStore, caching encoded base items and delta
// instruction chunks in a ristretto.Cache.
type Cache struct {
	inner repo.BlobStore
	c     *ristretto.Cache[string, any]
}

// New builds a Cache with the given ristretto sizing knobs, mirroring
// NewCacheDB's constructor shape (numCounters, maxCost, bufferItems).
func New(inner repo.BlobStore, numCounters, maxCost, bufferItems int64) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: bufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("objcache: creating ristretto cache: %w", err)
	}
	return &Cache{inner: inner, c: c}, nil
}

func baseItemKey(oid objid.GitObjectId) string {
	return "base:" + oid.String()
}

func deltaChunksKey(cs objid.ChangesetId, path string, origin types.DeltaOrigin) string {
	return fmt.Sprintf("delta:%s:%s:%s", cs, path, origin)
}

func (c *Cache) FetchGitObjectBytes(ctx context.Context, rich objid.RichGitObjectId) ([]byte, error) {
	return c.inner.FetchGitObjectBytes(ctx, rich)
}

func (c *Cache) FetchNonBlobGitObjectBytes(ctx context.Context, oid objid.GitObjectId) ([]byte, error) {
	return c.inner.FetchNonBlobGitObjectBytes(ctx, oid)
}

func (c *Cache) FetchPackfileBaseItemIfExists(ctx context.Context, oid objid.GitObjectId) ([]byte, bool, error) {
	if v, ok := c.c.Get(baseItemKey(oid)); ok {
		return v.([]byte), true, nil
	}
	encoded, ok, err := c.inner.FetchPackfileBaseItemIfExists(ctx, oid)
	if err != nil || !ok {
		return encoded, ok, err
	}
	c.c.SetWithTTL(baseItemKey(oid), encoded, int64(len(encoded)), baseItemTTL)
	return encoded, true, nil
}

func (c *Cache) UploadPackfileBaseItem(ctx context.Context, oid objid.GitObjectId, encoded []byte) error {
	if err := c.inner.UploadPackfileBaseItem(ctx, oid, encoded); err != nil {
		return err
	}
	c.c.SetWithTTL(baseItemKey(oid), encoded, int64(len(encoded)), baseItemTTL)
	return nil
}

func (c *Cache) FetchDeltaInstructions(ctx context.Context, cs objid.ChangesetId, path string, origin types.DeltaOrigin, chunkCount int) ([][]byte, error) {
	key := deltaChunksKey(cs, path, origin)
	if v, ok := c.c.Get(key); ok {
		return v.([][]byte), nil
	}
	chunks, err := c.inner.FetchDeltaInstructions(ctx, cs, path, origin, chunkCount)
	if err != nil {
		return nil, err
	}
	var cost int64
	for _, chunk := range chunks {
		cost += int64(len(chunk))
	}
	c.c.SetWithTTL(key, chunks, cost, deltaChunkTTL)
	return chunks, nil
}

var _ repo.BlobStore = (*Cache)(nil)
