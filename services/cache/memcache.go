package cache

import (
	"errors"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	crawlerrors "github.com/Rezanikmanesh-79/Karamoozi/pkg/errors"
)

// memcached keys are limited to 250 bytes without spaces or control characters
const maxKeyLength = 250

// memcached reads relative expirations above 30 days as a Unix timestamp
const maxRelativeExpiration = 30 * 24 * time.Hour

// MemcacheService implements CacheService using memcache
type MemcacheService struct {
	client    *memcache.Client
	keyPrefix string
}

// NewMemcacheService creates a new memcache service. keyPrefix namespaces every key.
func NewMemcacheService(serverAddr, keyPrefix string) *MemcacheService {
	client := memcache.New(serverAddr)
	client.Timeout = 500 * time.Millisecond
	return &MemcacheService{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Ping checks that every configured server answers
func (m *MemcacheService) Ping() error {
	if err := m.client.Ping(); err != nil {
		return crawlerrors.NewCache("memcache", "ping failed", err)
	}
	return nil
}

// Get retrieves a value from memcache
func (m *MemcacheService) Get(key string) ([]byte, error) {
	item, err := m.client.Get(m.key(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, crawlerrors.NewCache("memcache", "get "+key, err)
	}
	return item.Value, nil
}

// Set stores a value in memcache with an expiration time
func (m *MemcacheService) Set(key string, value []byte, expiration time.Duration) error {
	err := m.client.Set(&memcache.Item{
		Key:        m.key(key),
		Value:      value,
		Expiration: expirationSeconds(expiration, time.Now()),
	})
	if err != nil {
		return crawlerrors.NewCache("memcache", "set "+key, err)
	}
	return nil
}

// Delete removes a value from memcache
func (m *MemcacheService) Delete(key string) error {
	err := m.client.Delete(m.key(key))
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return crawlerrors.NewCache("memcache", "delete "+key, err)
	}
	return nil
}

// expirationSeconds converts a TTL to memcached's expiration field. Zero never
// expires; TTLs past the relative limit become an absolute Unix time.
func expirationSeconds(ttl time.Duration, now time.Time) int32 {
	if ttl <= 0 {
		return 0
	}
	if ttl > maxRelativeExpiration {
		return int32(now.Add(ttl).Unix())
	}
	secs := int32(ttl / time.Second)
	if secs == 0 {
		secs = 1
	}
	return secs
}

// key applies the prefix and replaces characters memcached rejects
func (m *MemcacheService) key(key string) string {
	k := strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return '_'
		}
		return r
	}, m.keyPrefix+key)
	if len(k) > maxKeyLength {
		k = k[:maxKeyLength]
	}
	return k
}
