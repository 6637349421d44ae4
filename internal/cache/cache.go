// Package cache memoizes raw generative drafts so that repeated transcripts do
// not hit the provider again.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/ppiankov/intake/internal/model"
)

// KeyPrefix versions the key space; bump it when the prompt format changes
const KeyPrefix = "intake:v1:"

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// DraftKey derives the cache key of a draft from everything that changes the
// provider's answer: provider, model, prompt language and the transcript.
func DraftKey(provider, modelName, language, transcript string) string {
	h := sha256.New()
	for _, part := range []string{provider, modelName, language, strings.TrimSpace(transcript)} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return KeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// New builds the cache described by cfg: memory over disk when enabled, a
// no-op cache otherwise
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return NopCache{}
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

// NopCache never stores anything
type NopCache struct{}

func (NopCache) Get(key string) ([]byte, bool)                         { return nil, false }
func (NopCache) Set(key string, value []byte, ttl time.Duration) error { return nil }
func (NopCache) Delete(key string) error                               { return nil }
func (NopCache) Clear() error                                          { return nil }
