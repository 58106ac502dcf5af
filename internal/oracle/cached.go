package oracle

import (
	"context"
	"encoding/json"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "oracle:quote:"

// CachedSource wraps another Source with a short-TTL redis cache so bursts of
// payments against the same token do not hammer the upstream feed. The TTL
// must stay well below the freshness window enforced by the caller.
type CachedSource struct {
	inner Source
	rdb   *redis.Client
	ttl   time.Duration
	log   *zap.Logger
}

func NewCachedSource(inner Source, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *CachedSource {
	return &CachedSource{inner: inner, rdb: rdb, ttl: ttl, log: log}
}

type cachedQuote struct {
	Value  string    `json:"value"`
	Scale  uint8     `json:"scale"`
	AsOf   time.Time `json:"as_of"`
	Source string    `json:"source"`
}

func (s *CachedSource) Latest(ctx context.Context, ref string) (Quote, error) {
	key := cacheKeyPrefix + ref

	if raw, err := s.rdb.Get(ctx, key).Result(); err == nil && raw != "" {
		var cq cachedQuote
		if err := json.Unmarshal([]byte(raw), &cq); err == nil {
			if value, ok := new(big.Int).SetString(cq.Value, 10); ok {
				return Quote{Value: value, Scale: cq.Scale, AsOf: cq.AsOf, Source: cq.Source}, nil
			}
		}
	}

	quote, err := s.inner.Latest(ctx, ref)
	if err != nil {
		return Quote{}, err
	}

	raw, err := json.Marshal(cachedQuote{
		Value:  quote.Value.String(),
		Scale:  quote.Scale,
		AsOf:   quote.AsOf,
		Source: quote.Source,
	})
	if err == nil {
		if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
			s.log.Warn("failed to cache quote", zap.String("ref", ref), zap.Error(err))
		}
	}

	return quote, nil
}
