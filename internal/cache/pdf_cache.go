package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/terra-energy/inspecciones/internal/config"
)

const keyPrefix = "informe:pdf:"

// PDFCache keeps rendered certificates in Redis keyed by the canonical hash
// of their input. A nil *PDFCache is a valid cache that never hits.
type PDFCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// New returns nil when no Redis address is configured.
func New(cfg config.RedisConfig, log *zap.Logger) *PDFCache {
	if cfg.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewWithClient(rdb, cfg.TTL, log)
}

func NewWithClient(client *redis.Client, ttl time.Duration, log *zap.Logger) *PDFCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &PDFCache{client: client, ttl: ttl, log: log}
}

// Key hashes the RFC 8785 canonical JSON of v, so field order and
// whitespace never change the key.
func Key(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal cache key: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize cache key: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Get returns the cached PDF. Redis errors are logged and reported as a miss.
func (c *PDFCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("pdf cache get failed", zap.Error(err))
		}
		return nil, false
	}
	return data, true
}

func (c *PDFCache) Set(ctx context.Context, key string, pdf []byte) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+key, pdf, c.ttl).Err(); err != nil {
		c.log.Warn("pdf cache set failed", zap.Error(err))
	}
}

func (c *PDFCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
