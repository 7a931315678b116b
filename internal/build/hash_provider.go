// Package build turns a source tree into an output tree.
//
// HashProvider computes xxhash64 content hashes with a metadata-keyed cache:
// a file whose path, modification time and size are unchanged since it was
// last hashed is not read again. Writer uses it to skip writes whose content
// already matches the destination, and Builder drives full and incremental
// builds on top of Writer.
package build

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// HashCache maps metadata keys to content hashes.
type HashCache struct {
	entries map[string]string
	mu      sync.RWMutex
	hits    int64
	misses  int64
}

// NewHashCache creates an empty cache.
func NewHashCache() *HashCache {
	return &HashCache{entries: make(map[string]string)}
}

// GetHash returns the hash stored under key.
func (c *HashCache) GetHash(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return hash, ok
}

// SetHash stores hash under key.
func (c *HashCache) SetHash(key, hash string) {
	c.mu.Lock()
	c.entries[key] = hash
	c.mu.Unlock()
}

// Forget drops every entry recorded for path or for anything below it.
func (c *HashCache) Forget(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if strings.HasPrefix(key, path+":") || strings.HasPrefix(key, path+string(os.PathSeparator)) {
			delete(c.entries, key)
		}
	}
}

// Stats returns the hit and miss counters.
func (c *HashCache) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// HashProvider generates content hashes for files and byte slices.
type HashProvider struct {
	cache *HashCache
}

// NewHashProvider creates a hash provider backed by cache.
func NewHashProvider(cache *HashCache) *HashProvider {
	if cache == nil {
		cache = NewHashCache()
	}
	return &HashProvider{cache: cache}
}

// HashBytes hashes content.
func (hp *HashProvider) HashBytes(content []byte) string {
	return strconv.FormatUint(xxhash.Sum64(content), 16)
}

// HashFile hashes the file at path, trusting the metadata cache. Use it for
// files only this process writes.
func (hp *HashProvider) HashFile(path string) (string, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	key := metadataKey(path, stat)
	if hash, ok := hp.cache.GetHash(key); ok {
		return hash, nil
	}

	hash, err := hp.hashContent(path)
	if err != nil {
		return "", err
	}
	hp.cache.SetHash(key, hash)
	return hash, nil
}

// HashFileFresh hashes the file at path without consulting the cache.
func (hp *HashProvider) HashFileFresh(path string) (string, error) {
	return hp.hashContent(path)
}

// Remember records hash for the current metadata of path, so a file just
// written is not read back on the next comparison.
func (hp *HashProvider) Remember(path, hash string) {
	stat, err := os.Stat(path)
	if err != nil {
		return
	}
	hp.cache.Forget(path)
	hp.cache.SetHash(metadataKey(path, stat), hash)
}

// Forget drops cached hashes for path.
func (hp *HashProvider) Forget(path string) {
	hp.cache.Forget(path)
}

func (hp *HashProvider) hashContent(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	digest := xxhash.New()
	if _, err := io.Copy(digest, file); err != nil {
		return "", err
	}
	return strconv.FormatUint(digest.Sum64(), 16), nil
}

func metadataKey(path string, stat os.FileInfo) string {
	return fmt.Sprintf("%s:%d:%d", path, stat.ModTime().UnixNano(), stat.Size())
}
