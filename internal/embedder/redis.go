package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces embedding entries in a shared Redis database.
const redisKeyPrefix = "parley:emb:"

// RedisCache is a SharedCache backed by Redis. Vectors are stored as
// little-endian float32 bytes under a key derived from the model and text.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Compile-time check that RedisCache implements SharedCache
var _ SharedCache = (*RedisCache)(nil)

// NewRedisCache connects to the Redis server at rawURL and verifies the
// connection. A zero ttl keeps entries until evicted by Redis.
func NewRedisCache(ctx context.Context, rawURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

// Get returns the cached vector, or ok=false when the key is absent.
func (r *RedisCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	raw, err := r.client.Get(ctx, redisKey(model, text)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	vec, err := decodeVector(raw)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// Put stores a vector.
func (r *RedisCache) Put(ctx context.Context, model, text string, embedding []float32) error {
	return r.client.Set(ctx, redisKey(model, text), encodeVector(embedding), r.ttl).Err()
}

// Close releases the connection pool.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

func redisKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return redisKeyPrefix + model + ":" + hex.EncodeToString(sum[:])
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("corrupt cached vector: %d bytes", len(buf))
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec, nil
}
