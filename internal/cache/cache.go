package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey generates a cache key for an embedding of text produced by model
func CacheKey(model, text string) string {
	hash := sha256.Sum256([]byte(model + "\x00" + text))
	return "themecheck:v1:" + hex.EncodeToString(hash[:])
}
