package session

import (
	"time"

	"github.com/patrickmn/go-cache"

	"supportagent/internal/domain"
	"supportagent/internal/port"
)

// CacheStore keeps sessions in memory and forgets them after ttl without a
// write. Sessions are copied in and out.
type CacheStore struct {
	cache *cache.Cache
}

var _ port.SessionStore = (*CacheStore)(nil)

// NewCacheStore creates a store whose sessions expire after ttl of
// inactivity. A ttl <= 0 keeps sessions until deleted.
func NewCacheStore(ttl time.Duration) *CacheStore {
	if ttl <= 0 {
		return &CacheStore{cache: cache.New(cache.NoExpiration, 0)}
	}
	cleanup := ttl / 3
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &CacheStore{cache: cache.New(ttl, cleanup)}
}

func (s *CacheStore) Put(session *domain.Session) {
	s.cache.Set(session.ID, clone(session), cache.DefaultExpiration)
}

func (s *CacheStore) Get(id string) (*domain.Session, bool) {
	if x, found := s.cache.Get(id); found {
		return clone(x.(*domain.Session)), true
	}
	return nil, false
}

func (s *CacheStore) Delete(id string) bool {
	if _, found := s.cache.Get(id); !found {
		return false
	}
	s.cache.Delete(id)
	return true
}

func (s *CacheStore) Count() int {
	return s.cache.ItemCount()
}

// IDs lists the live session ids.
func (s *CacheStore) IDs() []string {
	items := s.cache.Items()
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	return ids
}

func clone(s *domain.Session) *domain.Session {
	c := *s
	c.Turns = append([]domain.Turn(nil), s.Turns...)
	return &c
}
