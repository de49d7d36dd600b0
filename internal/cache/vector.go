package cache

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// VectorCache stores embedding vectors on top of a byte cache
type VectorCache struct {
	backend Cache
	ttl     time.Duration
}

// NewVectorCache wraps backend; ttl of zero uses the backend defaults
func NewVectorCache(backend Cache, ttl time.Duration) *VectorCache {
	return &VectorCache{backend: backend, ttl: ttl}
}

// Get returns the cached embedding of text for model
func (c *VectorCache) Get(model, text string) ([]float32, bool) {
	data, ok := c.backend.Get(CacheKey(model, text))
	if !ok {
		return nil, false
	}
	vec, err := DecodeVector(data)
	if err != nil {
		return nil, false
	}
	return vec, true
}

// Put stores the embedding of text for model
func (c *VectorCache) Put(model, text string, vec []float32) error {
	return c.backend.Set(CacheKey(model, text), EncodeVector(vec), c.ttl)
}

// EncodeVector serialises a vector as little-endian float32 values
func EncodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

// DecodeVector is the inverse of EncodeVector
func DecodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("vector payload of %d bytes is not a multiple of 4", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return vec, nil
}
