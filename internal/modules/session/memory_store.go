// README: In-process session store backed by go-cache (local runs and tests).
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

type MemoryStore struct {
	cache    *cache.Cache
	ttl      time.Duration
	lockWait time.Duration

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock is dropped from the map once no holder or waiter refers to it.
type sessionLock struct {
	ch   chan struct{}
	refs int
}

func NewMemoryStore(ttl, lockWait time.Duration) *MemoryStore {
	return &MemoryStore{
		cache:    cache.New(ttl, ttl),
		ttl:      ttl,
		lockWait: lockWait,
		locks:    make(map[string]*sessionLock),
	}
}

// Get returns a deep copy so callers can mutate freely until Save.
func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	var sess Session
	if err := json.Unmarshal(v.([]byte), &sess); err != nil {
		return nil, err
	}
	if sess.Fields == nil {
		sess.Fields = map[string]string{}
	}
	return &sess, nil
}

func (s *MemoryStore) Save(_ context.Context, sess *Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	s.cache.Set(sess.ID, b, s.ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.cache.Delete(id)
	return nil
}

func (s *MemoryStore) Lock(ctx context.Context, id string) (func(), error) {
	l := s.retain(id)

	timer := time.NewTimer(s.lockWait)
	defer timer.Stop()
	select {
	case l.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-l.ch
				s.release(id, l)
			})
		}, nil
	case <-timer.C:
		s.release(id, l)
		return nil, ErrBusy
	case <-ctx.Done():
		s.release(id, l)
		return nil, ctx.Err()
	}
}

func (s *MemoryStore) retain(id string) *sessionLock {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{ch: make(chan struct{}, 1)}
		s.locks[id] = l
	}
	l.refs++
	return l
}

func (s *MemoryStore) release(id string, l *sessionLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, id)
	}
}
