package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ukidney/docchat/internal/db"
)

// Store is a two-layer read-through cache: an in-memory layer for hot
// lookups and a SQLite layer that survives restarts, mirroring the
// product's persistent browser-storage caches.
//
// Keys are namespaced by a version tag; bumping the version orphans every
// prior entry, which is how stale cache formats are retired.
type Store struct {
	mem     *gocache.Cache
	db      *db.DB
	version string
	now     func() time.Time
}

// NewStore creates a cache backed by database, namespaced under version
// (e.g. "v3"). database may be nil for a memory-only cache.
func NewStore(database *db.DB, version string) *Store {
	return &Store{
		mem:     gocache.New(gocache.NoExpiration, 10*time.Minute),
		db:      database,
		version: version,
		now:     time.Now,
	}
}

func (s *Store) fullKey(key string) string {
	return "docchat-cache-" + s.version + ":" + key
}

type entry struct {
	payload  []byte
	storedAt time.Time
}

// Get loads the value stored under key into out if it exists and is younger
// than ttl. Entries past their TTL are treated as absent.
func (s *Store) Get(key string, ttl time.Duration, out any) bool {
	fk := s.fullKey(key)

	if v, ok := s.mem.Get(fk); ok {
		e := v.(entry)
		if s.now().Sub(e.storedAt) <= ttl {
			if err := json.Unmarshal(e.payload, out); err == nil {
				return true
			}
		}
		s.mem.Delete(fk)
	}

	if s.db == nil {
		return false
	}

	var payload string
	var storedUnix int64
	err := s.db.QueryRow(`SELECT payload, stored_at FROM cache_entries WHERE key = ?`, fk).
		Scan(&payload, &storedUnix)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("cache: reading %s: %v", key, err)
		}
		return false
	}

	storedAt := time.Unix(storedUnix, 0)
	if s.now().Sub(storedAt) > ttl {
		return false
	}

	if err := json.Unmarshal([]byte(payload), out); err != nil {
		log.Printf("cache: decoding %s: %v", key, err)
		return false
	}

	s.mem.Set(fk, entry{payload: []byte(payload), storedAt: storedAt}, gocache.NoExpiration)
	return true
}

// Put stores value under key with the current timestamp, replacing any
// previous entry.
func (s *Store) Put(key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", key, err)
	}

	fk := s.fullKey(key)
	storedAt := s.now()
	s.mem.Set(fk, entry{payload: payload, storedAt: storedAt}, gocache.NoExpiration)

	if s.db == nil {
		return nil
	}
	_, err = s.db.Exec(
		`INSERT INTO cache_entries (key, payload, stored_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, stored_at = excluded.stored_at`,
		fk, string(payload), storedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("persisting cache entry %s: %w", key, err)
	}
	return nil
}

// Invalidate removes the entry stored under key, if any. Used after edits so
// the next read refetches.
func (s *Store) Invalidate(key string) {
	fk := s.fullKey(key)
	s.mem.Delete(fk)
	if s.db != nil {
		if _, err := s.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, fk); err != nil {
			log.Printf("cache: invalidating %s: %v", key, err)
		}
	}
}

// InvalidatePrefix removes every entry whose key starts with prefix.
func (s *Store) InvalidatePrefix(prefix string) {
	fp := s.fullKey(prefix)
	for k := range s.mem.Items() {
		if len(k) >= len(fp) && k[:len(fp)] == fp {
			s.mem.Delete(k)
		}
	}
	if s.db != nil {
		if _, err := s.db.Exec(`DELETE FROM cache_entries WHERE key LIKE ? || '%'`, fp); err != nil {
			log.Printf("cache: invalidating prefix %s: %v", prefix, err)
		}
	}
}
