package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"storecore/internal/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// PreviewStore is the byte cache behind tax previews.
type PreviewStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ErrCacheMiss is returned by a PreviewStore when key is absent.
var ErrCacheMiss = errors.New("cache miss")

type redisPreviewStore struct {
	rdb *redis.Client
}

func NewRedisPreviewStore(rdb *redis.Client) PreviewStore {
	return &redisPreviewStore{rdb: rdb}
}

func (s *redisPreviewStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (s *redisPreviewStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

// cachedTaxService memoises previews for a short TTL. Any cache failure falls
// through to the inner resolver.
type cachedTaxService struct {
	inner  TaxService
	store  PreviewStore
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedTaxService(inner TaxService, store PreviewStore, ttl time.Duration, logger *zap.Logger) TaxService {
	return &cachedTaxService{inner: inner, store: store, ttl: ttl, logger: logger.Named("tax_cache")}
}

func (c *cachedTaxService) Calculate(ctx context.Context, req TaxCalculationRequest) (TaxResult, error) {
	return cached(ctx, c, "tax:calc:", req, func() (TaxResult, error) {
		return c.inner.Calculate(ctx, req)
	})
}

func (c *cachedTaxService) CalculateIncludedTax(ctx context.Context, req IncludedTaxRequest) (IncludedTaxResult, error) {
	return cached(ctx, c, "tax:incl:", req, func() (IncludedTaxResult, error) {
		return c.inner.CalculateIncludedTax(ctx, req)
	})
}

func cached[Req, Res any](ctx context.Context, c *cachedTaxService, prefix string, req Req, load func() (Res, error)) (Res, error) {
	key, err := previewKey(prefix, req)
	if err != nil {
		return load()
	}

	if raw, err := c.store.Get(ctx, key); err == nil {
		var res Res
		if jsonErr := json.Unmarshal(raw, &res); jsonErr == nil {
			metrics.TaxPreviewCache.WithLabelValues("hit").Inc()
			return res, nil
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		metrics.TaxPreviewCache.WithLabelValues("error").Inc()
		c.logger.Warn("preview cache read failed", zap.Error(err))
	} else {
		metrics.TaxPreviewCache.WithLabelValues("miss").Inc()
	}

	res, err := load()
	if err != nil {
		return res, err
	}

	if raw, err := json.Marshal(res); err == nil {
		if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
			c.logger.Warn("preview cache write failed", zap.Error(err))
		}
	}
	return res, nil
}

func previewKey(prefix string, req any) (string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return prefix + hex.EncodeToString(sum[:]), nil
}
