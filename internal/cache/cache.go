package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/sonroyaalmerol/auria/internal/logging"
	"github.com/sonroyaalmerol/auria/internal/repository"
)

const (
	// KeyLen is the number of hex characters of the sha256 digest used as the
	// file stem.
	KeyLen = 16
	Ext    = ".mp3"

	lockName = ".lock"
)

var ErrEmptyPayload = errors.New("cache: refusing to store empty payload")

// Index records sizes and access times so the cache can be bounded. The
// filesystem remains the authority on whether an entry exists.
type Index interface {
	CacheTouch(ctx context.Context, hash, locator string, size int64, created bool) error
	CacheRemove(ctx context.Context, hash string) error
	CacheTotalBytes(ctx context.Context) (int64, error)
	CacheOldest(ctx context.Context) (string, error)
	CacheList(ctx context.Context) ([]repository.CacheEntry, error)
}

type FileCache struct {
	dir    string
	limit  int64
	index  Index
	logger *slog.Logger
	mu     sync.Mutex
}

type Stats struct {
	Dir        string
	Entries    int
	TotalBytes int64
	LimitBytes int64
}

// NewFileCache returns a cache rooted at dir. index may be nil, in which case
// eviction falls back to file modification times. limit <= 0 disables
// automatic eviction.
func NewFileCache(dir string, limit int64, index Index, logger *slog.Logger) *FileCache {
	return &FileCache{
		dir:    dir,
		limit:  limit,
		index:  index,
		logger: logging.Component(logger, "cache"),
	}
}

func HashKey(locator string) string {
	sum := sha256.Sum256([]byte(locator))
	return hex.EncodeToString(sum[:])
}

// Key is the truncated digest used to name a locator's cache file.
func Key(locator string) string {
	return HashKey(locator)[:KeyLen]
}

func (c *FileCache) Dir() string { return c.dir }

func (c *FileCache) PathFor(locator string) string {
	return c.pathForKey(Key(locator))
}

func (c *FileCache) pathForKey(key string) string {
	return filepath.Join(c.dir, key+Ext)
}

func (c *FileCache) Exists(locator string) bool {
	info, err := os.Stat(c.PathFor(locator))
	return err == nil && info.Mode().IsRegular()
}

// Read returns the cached bytes for locator and refreshes its access time.
func (c *FileCache) Read(ctx context.Context, locator string) ([]byte, error) {
	key := Key(locator)
	p := c.pathForKey(key)
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && c.index != nil {
			_ = c.index.CacheRemove(ctx, key)
		}
		return nil, err
	}
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	if c.index != nil {
		if err := c.index.CacheTouch(ctx, key, locator, 0, false); err != nil {
			c.logger.Debug("cache index touch failed", "key", key, "err", err)
		}
	}
	return data, nil
}

// Write stores data for locator via a temp file and rename, creating the cache
// directory on first use, then evicts down to the configured limit.
func (c *FileCache) Write(ctx context.Context, locator string, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyPayload
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	lock := flock.New(filepath.Join(c.dir, lockName))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock cache dir: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	key := Key(locator)
	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpPath, c.pathForKey(key)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("commit: %w", err)
	}

	if c.index != nil {
		if err := c.index.CacheTouch(ctx, key, locator, int64(len(data)), true); err != nil {
			c.logger.Warn("cache index update failed", "key", key, "err", err)
		}
	}
	c.logger.Debug("cached audio", "key", key, "bytes", len(data))

	if c.limit > 0 {
		if _, err := c.evictLocked(ctx, c.limit); err != nil {
			c.logger.Warn("cache eviction failed", "err", err)
		}
	}
	return nil
}

// Prune removes least recently used entries until the cache holds at most
// limit bytes. A limit of zero empties the cache. Prune works from the files
// on disk, so entries the index never saw are counted too.
func (c *FileCache) Prune(ctx context.Context, limit int64) (int, error) {
	if _, err := os.Stat(c.dir); errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	lock := flock.New(filepath.Join(c.dir, lockName))
	if err := lock.Lock(); err != nil {
		return 0, fmt.Errorf("lock cache dir: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	return c.evictByModTime(ctx, limit)
}

func (c *FileCache) evictLocked(ctx context.Context, limit int64) (int, error) {
	if c.index == nil {
		return c.evictByModTime(ctx, limit)
	}

	removed := 0
	total, err := c.index.CacheTotalBytes(ctx)
	if err != nil {
		return removed, err
	}
	for total > limit {
		oldest, err := c.index.CacheOldest(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			break
		}
		if err != nil {
			return removed, err
		}
		if err := os.Remove(c.pathForKey(oldest)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, err
		}
		if err := c.index.CacheRemove(ctx, oldest); err != nil {
			return removed, err
		}
		removed++
		c.logger.Info("evicted cached audio", "key", oldest)
		total, err = c.index.CacheTotalBytes(ctx)
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}

type fileEntry struct {
	key     string
	size    int64
	modTime time.Time
}

func (c *FileCache) scan() ([]fileEntry, error) {
	des, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]fileEntry, 0, len(des))
	for _, de := range des {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, Ext) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		out = append(out, fileEntry{
			key:     strings.TrimSuffix(name, Ext),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}
	return out, nil
}

func (c *FileCache) evictByModTime(ctx context.Context, limit int64) (int, error) {
	entries, err := c.scan()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		total += e.size
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].modTime.Before(entries[j].modTime) })

	removed := 0
	for _, e := range entries {
		if total <= limit {
			break
		}
		if err := os.Remove(c.pathForKey(e.key)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, err
		}
		if c.index != nil {
			if err := c.index.CacheRemove(ctx, e.key); err != nil {
				c.logger.Debug("cache index remove failed", "key", e.key, "err", err)
			}
		}
		total -= e.size
		removed++
		c.logger.Info("evicted cached audio", "key", e.key)
	}
	return removed, nil
}

// Stats reports what is on disk right now.
func (c *FileCache) Stats() (Stats, error) {
	entries, err := c.scan()
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Dir: c.dir, Entries: len(entries), LimitBytes: c.limit}
	for _, e := range entries {
		st.TotalBytes += e.size
	}
	return st, nil
}

// Entries lists indexed entries whose files still exist, most recent first.
func (c *FileCache) Entries(ctx context.Context) ([]repository.CacheEntry, error) {
	if c.index == nil {
		return nil, nil
	}
	all, err := c.index.CacheList(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, e := range all {
		if _, err := os.Stat(c.pathForKey(e.Hash)); err == nil {
			out = append(out, e)
		}
	}
	return out, nil
}
