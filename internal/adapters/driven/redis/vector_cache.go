package redis

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"github.com/custodia-labs/truthscope/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorCache = (*VectorCache)(nil)

const vectorPrefix = "truthscope:vec:"

// VectorCache shares embeddings between processes through Redis.
// Vectors are stored as little-endian float32 bytes under a hashed key.
type VectorCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewVectorCache creates a Redis-backed vector cache. Entries expire after ttl (default 24h).
func NewVectorCache(client *redis.Client, ttl time.Duration) *VectorCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &VectorCache{client: client, ttl: ttl}
}

// vectorKey hashes model and text so arbitrary documents map to short keys
func vectorKey(model, text string) string {
	sum := blake2b.Sum256([]byte(model + "\x00" + text))
	return vectorPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached vector and whether it was found
func (c *VectorCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	data, err := c.client.Get(ctx, vectorKey(model, text)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get vector: %w", err)
	}
	vector, err := decodeVector(data)
	if err != nil {
		return nil, false, err
	}
	return vector, true, nil
}

// Set stores a vector with the cache TTL
func (c *VectorCache) Set(ctx context.Context, model, text string, vector []float32) error {
	if len(vector) == 0 {
		return nil
	}
	if err := c.client.Set(ctx, vectorKey(model, text), encodeVector(vector), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set vector: %w", err)
	}
	return nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("corrupt vector: %d bytes", len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return v, nil
}
