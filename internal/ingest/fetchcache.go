package ingest

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/quakestream/quakestream/internal/domain"
)

// FetchCache tracks the last seen payload hash per source, so a run can tell
// whether an upstream feed returned byte-identical data since the previous
// poll. Adapted from the geocoder result cache this service used to carry;
// same LRU eviction, different key/value shape.
type FetchCache struct {
	hashes *lru.Cache[domain.Source, string]
}

func NewFetchCache(maxEntries int) *FetchCache {
	c, err := lru.New[domain.Source, string](maxEntries)
	if err != nil {
		panic(err)
	}
	return &FetchCache{hashes: c}
}

// SeenBefore reports whether body's hash matches the last one recorded for
// source, then records the current hash regardless of the outcome.
func (c *FetchCache) SeenBefore(source domain.Source, body []byte) bool {
	sum := sha256.Sum256(body)
	digest := hex.EncodeToString(sum[:])

	prev, ok := c.hashes.Get(source)
	c.hashes.Add(source, digest)
	return ok && prev == digest
}
