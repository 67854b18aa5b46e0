package fingerprint

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/jamesainslie/tidy/pkg/tidy/logging"
)

var logger = logging.Get("fingerprint")

// Schema versions:
// 1 - path -> {size, mtime, digest}
const CurrentSchemaVersion = 1

const (
	schemaKey   = "m:__schema__"
	entryPrefix = "f:"
)

// ErrNotCached is returned when no entry exists for a path.
var ErrNotCached = errors.New("fingerprint not cached")

// Schema records the on-disk format of the cache.
type Schema struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// entry is the gob-encoded cache value. An entry is valid while the file's
// size and modification time still match.
type entry struct {
	Size   int64
	Mtime  int64
	Digest uint64
}

func (e *entry) encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *entry) decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

// Cache is a Hasher backed by a badger store keyed by absolute path.
type Cache struct {
	db     *badger.DB
	hits   atomic.Int64
	misses atomic.Int64
}

// OpenCache opens or creates a cache at dir. A cache written with a
// different schema version is discarded.
func OpenCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening fingerprint cache: %w", err)
	}

	c := &Cache{db: db}
	if err := c.checkSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the underlying store.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) checkSchema() error {
	schema := c.schema()
	if schema != nil && schema.Version == CurrentSchemaVersion {
		return nil
	}

	if schema != nil {
		logger.Info("discarding fingerprint cache", "version", schema.Version, "want", CurrentSchemaVersion)
		if err := c.db.DropAll(); err != nil {
			return fmt.Errorf("dropping stale cache: %w", err)
		}
	}

	data, err := json.Marshal(Schema{Version: CurrentSchemaVersion, UpdatedAt: time.Now()})
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(schemaKey), data)
	})
}

func (c *Cache) schema() *Schema {
	var schema *Schema
	_ = c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(schemaKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			schema = &Schema{}
			return json.Unmarshal(val, schema)
		})
	})
	return schema
}

func entryKey(path string) []byte {
	return []byte(entryPrefix + path)
}

// Hash returns the cached fingerprint when the file is unchanged, otherwise
// computes and stores a fresh one.
func (c *Cache) Hash(path string) (Fingerprint, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Fingerprint{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Compute(abs)
	}
	mtime := info.ModTime().UnixNano()

	if e, err := c.get(abs); err == nil && e.Size == info.Size() && e.Mtime == mtime {
		c.hits.Add(1)
		return Fingerprint{Digest: e.Digest, Size: e.Size}, nil
	}
	c.misses.Add(1)

	fp, err := Compute(abs)
	if err != nil {
		return Fingerprint{}, err
	}

	if err := c.put(abs, &entry{Size: fp.Size, Mtime: mtime, Digest: fp.Digest}); err != nil {
		logger.Warn("failed to cache fingerprint", "path", abs, "error", err)
	}
	return fp, nil
}

func (c *Cache) get(path string) (*entry, error) {
	var e entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotCached
		}
		if err != nil {
			return err
		}
		return item.Value(e.decode)
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Cache) put(path string, e *entry) error {
	value, err := e.encode()
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(path), value)
	})
}

// Invalidate forgets the entry for path.
func (c *Cache) Invalidate(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(entryKey(abs))
	})
}

// Stats reports hit and miss counts since the cache was opened.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len counts cached entries.
func (c *Cache) Len() (int, error) {
	var n int
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(entryPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Prune deletes entries whose files no longer exist and returns how many
// were removed.
func (c *Cache) Prune(ctx context.Context) (int, error) {
	var stale [][]byte
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(entryPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := it.Item().KeyCopy(nil)
			if _, err := os.Stat(string(key[len(entryPrefix):])); os.IsNotExist(err) {
				stale = append(stale, key)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	wb := c.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range stale {
		if err := wb.Delete(key); err != nil {
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}

	if len(stale) > 0 {
		logger.Info("pruned fingerprint cache", "removed", len(stale))
	}
	return len(stale), nil
}
