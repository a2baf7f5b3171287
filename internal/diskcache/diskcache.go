package diskcache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wonny/intrinsic/pkg/logger"
)

// envelope is the on-disk entry format: write timestamp plus raw payload.
// The timestamp is unix seconds so entries stay readable with plain tools.
type envelope struct {
	TS   float64         `json:"_ts"`
	Data json.RawMessage `json:"data"`
}

// Store is a file-per-key JSON cache with a fixed TTL.
// ⭐ SSOT: 응답 캐시 파일 IO는 이 패키지에서만
//
// Reads and writes never fail the caller: corrupt files, serialization
// problems and filesystem errors all degrade to a cache miss or a dropped
// write. The pipeline must work, just slower, with this directory unusable.
type Store struct {
	dir    string
	ttl    time.Duration
	logger *logger.Logger

	now func() time.Time
}

// NewStore creates a cache store rooted at dir with the given TTL
func NewStore(dir string, ttl time.Duration, log *logger.Logger) *Store {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.WithError(err).WithField("dir", dir).Warn("Cache directory unavailable, running without cache")
	}

	return &Store{
		dir:    dir,
		ttl:    ttl,
		logger: log,
		now:    time.Now,
	}
}

// Path returns the file backing a key
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get loads a non-expired entry into v. Returns false on miss, expiry,
// or any read/decode failure.
func (s *Store) Get(key string, v interface{}) bool {
	raw, err := os.ReadFile(s.Path(key))
	if err != nil {
		return false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.logger.WithField("key", key).Debug("Corrupt cache entry, treating as miss")
		return false
	}

	age := s.now().Sub(time.Unix(int64(env.TS), 0))
	if age > s.ttl {
		return false
	}

	if err := json.Unmarshal(env.Data, v); err != nil {
		s.logger.WithField("key", key).Debug("Unreadable cache payload, treating as miss")
		return false
	}

	return true
}

// Put stores v under key, best effort. A failed write is logged and dropped.
func (s *Store) Put(key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache serialization failed, skipping write")
		return
	}

	entry, err := json.Marshal(envelope{
		TS:   float64(s.now().UnixNano()) / float64(time.Second),
		Data: data,
	})
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache serialization failed, skipping write")
		return
	}

	if err := os.WriteFile(s.Path(key), entry, 0o644); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache write failed, skipping")
	}
}

// Stats reports entry count and total bytes under the store directory
func (s *Store) Stats() (entries int, bytes int64) {
	items, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, 0
	}

	for _, item := range items {
		if item.IsDir() || !strings.HasSuffix(item.Name(), ".json") {
			continue
		}
		entries++
		if info, err := item.Info(); err == nil {
			bytes += info.Size()
		}
	}

	return entries, bytes
}

// PruneExpired removes entries past their TTL and returns the number
// removed. Get already treats them as misses; pruning reclaims the disk.
func (s *Store) PruneExpired() int {
	items, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}

	removed := 0
	for _, item := range items {
		if item.IsDir() || !strings.HasSuffix(item.Name(), ".json") {
			continue
		}

		path := filepath.Join(s.dir, item.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			// 읽을 수 없는 엔트리도 정리 대상
			if os.Remove(path) == nil {
				removed++
			}
			continue
		}

		if s.now().Sub(time.Unix(int64(env.TS), 0)) > s.ttl {
			if os.Remove(path) == nil {
				removed++
			}
		}
	}

	return removed
}

// Clear removes every entry under the store directory and returns the
// number of files removed. Used by the cache command, not the pipeline.
func (s *Store) Clear() (int, error) {
	items, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, item := range items {
		if item.IsDir() || !strings.HasSuffix(item.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, item.Name())); err != nil {
			return removed, err
		}
		removed++
	}

	return removed, nil
}
