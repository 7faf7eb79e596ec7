// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

// The authz service.
package main

import (
	"context"
	"encoding/base32"
	"errors"
	"expvar"
	"strconv"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

var (
	cacheHits       *expvar.Int
	cacheStaleHits  *expvar.Int
	cacheMisses     *expvar.Int
	cacheKeyEncoder = base32.StdEncoding.WithPadding(base32.NoPadding)
)

func init() {
	cacheHits = expvar.NewInt("cache_hits")
	cacheStaleHits = expvar.NewInt("cache_stale_hits")
	cacheMisses = expvar.NewInt("cache_misses")
}

// INatsKeyValue is the NATS KV interface needed by the decision cache.
type INatsKeyValue interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(context.Context, string, []byte) (uint64, error)
	PutString(context.Context, string, string) (uint64, error)
}

// decisionCache caches permission-check decisions in a JetStream KV
// bucket. Entries are not deleted on tuple changes; instead a single
// invalidation marker is bumped and entries older than it are treated
// as misses. The bucket's TTL bounds how long anything survives.
type decisionCache struct {
	bucket INatsKeyValue
}

// decisionKey builds the cache key for one check request. Base32 without
// padding keeps the key within the characters NATS allows.
func decisionKey(orgID, userID, method, object, role string) string {
	raw := orgID + "\t" + userID + "\t" + method + "\t" + object + "\t" + role
	return "dec." + cacheKeyEncoder.EncodeToString([]byte(raw))
}

// lastInvalidation returns the timestamp of the most recent cache
// invalidation, or the zero time when none is recorded.
func (c *decisionCache) lastInvalidation(ctx context.Context) (time.Time, error) {
	entry, err := c.bucket.Get(ctx, "inv")
	switch {
	case errors.Is(err, jetstream.ErrKeyNotFound):
		// No invalidation within the bucket TTL; all entries are valid.
		return time.Time{}, nil
	case err != nil:
		return time.Time{}, err
	default:
		return entry.Created(), nil
	}
}

// lookup returns the cached decision for key. ok is false on a miss or
// a stale hit.
func (c *decisionCache) lookup(ctx context.Context, key string, lastInvalidation time.Time) (allowed, ok bool) {
	entry, err := c.bucket.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		cacheMisses.Add(1)
		return false, false
	}
	if err != nil {
		logger.With(errKey, err).ErrorContext(ctx, "cache error; treating as miss")
		cacheMisses.Add(1)
		return false, false
	}
	if lastInvalidation.After(entry.Created()) {
		cacheStaleHits.Add(1)
		return false, false
	}
	cacheHits.Add(1)
	return string(entry.Value()) == "true", true
}

// store caches a decision asynchronously; failures are not surfaced.
func (c *decisionCache) store(ctx context.Context, key string, allowed bool) {
	go func() {
		timeoutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		//nolint:errcheck // This happens asynchronously so we are not checking for errors.
		_, _ = c.bucket.PutString(timeoutCtx, key, strconv.FormatBool(allowed))
	}()
}

// invalidate bumps the invalidation marker. Any value works: staleness
// is judged by the record's native timestamp, not its content.
func (c *decisionCache) invalidate(ctx context.Context) {
	if _, err := c.bucket.Put(ctx, "inv", []byte("1")); err != nil {
		logger.With(errKey, err).ErrorContext(ctx, "failed to write cache invalidation marker")
	}
}
