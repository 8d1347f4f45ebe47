package collector

import (
	"bytes"
	"context"
	"encoding/gob"
	"time"

	"github.com/rs/zerolog"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/cache"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
)

// CachedSource serves repeated requests from a cache. Cache failures fall
// through to the wrapped source.
type CachedSource struct {
	src   Source
	cache cache.Cache
	ttl   time.Duration
	log   zerolog.Logger
}

func NewCachedSource(src Source, c cache.Cache, ttl time.Duration, log zerolog.Logger) *CachedSource {
	return &CachedSource{src: src, cache: c, ttl: ttl, log: log}
}

func (c *CachedSource) Name() string { return c.src.Name() + "+cache" }

func (c *CachedSource) FetchBars(ctx context.Context, req Request) ([]model.RawBar, error) {
	key := req.CacheKey()
	if b, ok := c.cache.Get(ctx, key); ok {
		var bars []model.RawBar
		if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&bars); err == nil {
			return bars, nil
		}
		c.log.Warn().Str("key", key).Msg("dropping undecodable cache entry")
		_ = c.cache.Delete(ctx, key)
	}

	bars, err := c.src.FetchBars(ctx, req)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(bars); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("encode cache entry")
		return bars, nil
	}
	if err := c.cache.Set(ctx, key, buf.Bytes(), c.ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache set")
	}
	return bars, nil
}
