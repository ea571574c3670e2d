package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dshills/shieldscan/internal/client"
)

// DefaultPath is the cache file used when none is configured.
const DefaultPath = ".cache_shieldscan"

// FoundSecret is one finding recorded during the last scan.
type FoundSecret struct {
	Name  string `json:"name"`
	Match string `json:"match"`
}

type fileState struct {
	LastFoundSecrets []FoundSecret `json:"last_found_secrets"`
}

// Cache holds the findings of the current run and persists them.
type Cache struct {
	path    string
	enabled bool
	log     *slog.Logger

	mu        sync.Mutex
	lastFound []FoundSecret
	seen      map[FoundSecret]struct{}
}

// New creates a Cache backed by path and loads its current content. If path
// is empty, DefaultPath is used. A disabled cache never touches the disk.
func New(enabled bool, path string, logger *slog.Logger) *Cache {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Cache{
		path:    path,
		enabled: enabled,
		log:     logger,
		seen:    make(map[FoundSecret]struct{}),
	}
	if enabled {
		c.load()
	}
	return c
}

func (c *Cache) load() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.Warn("cannot read cache", "path", c.path, "error", err)
		}
		return
	}
	var st fileState
	if err := json.Unmarshal(data, &st); err != nil {
		c.log.Warn("ignoring corrupt cache", "path", c.path, "error", err)
		return
	}
	for _, s := range st.LastFoundSecrets {
		c.addLocked(s)
	}
}

// Purge forgets the findings of previous runs.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastFound = nil
	c.seen = make(map[FoundSecret]struct{})
}

// AddFoundPolicyBreak records that pb was found in filename. Only secret
// findings are recorded. Recording the same finding twice for the same file
// is a no-op.
func (c *Cache) AddFoundPolicyBreak(pb client.PolicyBreak, filename string) {
	if !pb.IsSecret() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addLocked(FoundSecret{
		Name:  fmt.Sprintf("%s - %s", pb.Type, filename),
		Match: pb.Fingerprint(),
	})
}

func (c *Cache) addLocked(s FoundSecret) {
	if _, ok := c.seen[s]; ok {
		return
	}
	c.seen[s] = struct{}{}
	c.lastFound = append(c.lastFound, s)
}

// LastFound returns the recorded findings in insertion order.
func (c *Cache) LastFound() []FoundSecret {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]FoundSecret, len(c.lastFound))
	copy(out, c.lastFound)
	return out
}

// Save writes the cache to disk. The file is replaced atomically: readers
// see either the previous or the new content.
func (c *Cache) Save() error {
	if !c.enabled {
		return nil
	}
	c.mu.Lock()
	st := fileState{LastFoundSecrets: c.lastFound}
	if st.LastFoundSecrets == nil {
		st.LastFoundSecrets = []FoundSecret{}
	}
	data, err := json.MarshalIndent(st, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}
	return writeAtomic(c.path, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing cache: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing cache: %w", err)
	}
	return nil
}

// Clear deletes the cache file and forgets all findings.
func (c *Cache) Clear() error {
	c.Purge()
	if !c.enabled {
		return nil
	}
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cache: %w", err)
	}
	return nil
}

// Stats describes the cache file.
type Stats struct {
	Path       string `json:"path"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"totalBytes"`
}

// GetStats returns information about the cache.
func (c *Cache) GetStats() (Stats, error) {
	stats := Stats{Path: c.path, Entries: len(c.LastFound())}
	if !c.enabled {
		return stats, nil
	}
	info, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("reading cache file: %w", err)
	}
	stats.TotalBytes = info.Size()
	return stats, nil
}

// Path returns the cache file path.
func (c *Cache) Path() string {
	return c.path
}
