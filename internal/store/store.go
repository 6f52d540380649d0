package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/cinelog/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketDetails = []byte("details")
	bucketLists   = []byte("lists")
)

var allBuckets = [][]byte{bucketDetails, bucketLists}

// LocalStore implements domain.Store using BoltDB.
type LocalStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// NewLocalStore opens the store under baseDir, scoped per server URL.
// An empty baseDir gives a memory-only store.
func NewLocalStore(baseDir, serverURL string) (*LocalStore, error) {
	if baseDir == "" {
		return &LocalStore{cache: make(map[string][]byte)}, nil
	}

	dir := baseDir
	if serverURL != "" {
		dir = filepath.Join(baseDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "cinelog.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &LocalStore{db: db, cache: make(map[string][]byte)}, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *LocalStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func cacheKey(bucket []byte, key string) string {
	return string(bucket) + ":" + key
}

func (s *LocalStore) get(bucket []byte, key string, dest any) bool {
	ck := cacheKey(bucket, key)

	s.mu.RLock()
	if data, ok := s.cache[ck]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[ck] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *LocalStore) set(bucket []byte, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[cacheKey(bucket, key)] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

func (s *LocalStore) delete(bucket []byte, key string) error {
	s.mu.Lock()
	delete(s.cache, cacheKey(bucket, key))
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

// clearBucket drops every key of a bucket from memory and disk
func (s *LocalStore) clearBucket(bucket []byte) {
	prefix := string(bucket) + ":"
	s.mu.Lock()
	for k := range s.cache {
		if strings.HasPrefix(k, prefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// keys returns the keys of a bucket. In memory-only mode the cache is the source.
func (s *LocalStore) keys(bucket []byte) []string {
	var out []string
	if s.db == nil {
		prefix := string(bucket) + ":"
		s.mu.RLock()
		for k := range s.cache {
			if name, ok := strings.CutPrefix(k, prefix); ok {
				out = append(out, name)
			}
		}
		s.mu.RUnlock()
		sort.Strings(out)
		return out
	}

	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	return out
}

// === Content details ===

func (s *LocalStore) GetDetail(ref domain.ContentRef) (*domain.ContentDetail, bool) {
	var detail domain.ContentDetail
	if !s.get(bucketDetails, ref.Key(), &detail) {
		return nil, false
	}
	return &detail, true
}

func (s *LocalStore) SaveDetail(detail *domain.ContentDetail) error {
	return s.set(bucketDetails, detail.Ref.Key(), detail)
}

func (s *LocalStore) InvalidateDetail(ref domain.ContentRef) {
	s.delete(bucketDetails, ref.Key())
}

func (s *LocalStore) InvalidateDetails() {
	s.clearBucket(bucketDetails)
}

// === Draft lists ===

func (s *LocalStore) GetList(name string) (*domain.DraftList, bool) {
	var list domain.DraftList
	if !s.get(bucketLists, name, &list) {
		return nil, false
	}
	return &list, true
}

func (s *LocalStore) SaveList(list *domain.DraftList) error {
	if list.Name == "" {
		return fmt.Errorf("list name is required")
	}
	return s.set(bucketLists, list.Name, list)
}

func (s *LocalStore) DeleteList(name string) error {
	return s.delete(bucketLists, name)
}

// ListNames returns saved list names in sorted order
func (s *LocalStore) ListNames() []string {
	return s.keys(bucketLists)
}
