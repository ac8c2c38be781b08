package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-energy/inspecciones/internal/config"
)

func newTestCache(t *testing.T) (*PDFCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewWithClient(client, time.Hour, nil), mr
}

func TestPDFCacheRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, ok := c.Get(ctx, "abc")
	assert.False(t, ok)

	c.Set(ctx, "abc", []byte("%PDF"))
	got, ok := c.Get(ctx, "abc")
	require.True(t, ok)
	assert.Equal(t, []byte("%PDF"), got)

	mr.FastForward(2 * time.Hour)
	_, ok = c.Get(ctx, "abc")
	assert.False(t, ok, "entry should expire after the TTL")
}

func TestPDFCacheRedisDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	c := NewWithClient(client, time.Hour, nil)

	c.Set(context.Background(), "abc", []byte("%PDF"))
	_, ok := c.Get(context.Background(), "abc")
	assert.False(t, ok)
}

func TestNilPDFCache(t *testing.T) {
	var c *PDFCache
	c.Set(context.Background(), "k", []byte("x"))
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
	assert.NoError(t, c.Close())

	assert.Nil(t, New(config.RedisConfig{}, nil))
}

func TestKeyIsCanonical(t *testing.T) {
	a := map[string]interface{}{"numeroDocumento": "INF-2024-0001", "resultado": "aprobado"}
	b := struct {
		Resultado string `json:"resultado"`
		Numero    string `json:"numeroDocumento"`
	}{"aprobado", "INF-2024-0001"}

	ka, err := Key(a)
	require.NoError(t, err)
	kb, err := Key(b)
	require.NoError(t, err)
	assert.Equal(t, ka, kb, "field order must not change the key")
	assert.Len(t, ka, 64)

	kc, _ := Key(map[string]string{"resultado": "rechazado"})
	assert.NotEqual(t, ka, kc)
}
