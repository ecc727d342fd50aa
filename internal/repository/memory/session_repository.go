package memory

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/segovia241/ia-erp-universal/pkg/nlu"
)

// SessionRepository is the in-process session store. Entries live in a
// go-cache instance with per-item TTL; the janitor is disabled in favour of an
// explicitly owned sweep goroutine so the lifecycle is start/stop rather than
// finalizer-driven. A striped per-key mutex table serializes read-modify-write
// cycles on one session without serializing unrelated sessions.
type SessionRepository struct {
	cache *cache.Cache
	ttl   time.Duration

	locks [64]sync.Mutex

	stop     chan struct{}
	stopOnce sync.Once
}

func NewSessionRepository(ttl, sweepInterval time.Duration) *SessionRepository {
	r := &SessionRepository{
		// cleanupInterval 0 disables the built-in janitor.
		cache: cache.New(ttl, 0),
		ttl:   ttl,
		stop:  make(chan struct{}),
	}
	go r.sweep(sweepInterval)
	return r
}

func (r *SessionRepository) Get(_ context.Context, id string) (*nlu.Session, bool, error) {
	if x, found := r.cache.Get(id); found {
		return x.(*nlu.Session), true, nil
	}
	return nil, false, nil
}

func (r *SessionRepository) Put(_ context.Context, session *nlu.Session, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.ttl
	}
	r.cache.Set(session.ID, session, ttl)
	return nil
}

func (r *SessionRepository) Delete(_ context.Context, id string) error {
	r.cache.Delete(id)
	return nil
}

// Update applies fn under the id's lock. The fn error is returned unchanged so
// callers can match on their own sentinels. The sweep cannot interleave with
// an in-flight update: go-cache re-checks expiry on Get, and a swept entry
// simply reports found=false.
func (r *SessionRepository) Update(_ context.Context, id string, fn func(session *nlu.Session) (keep bool, err error)) (bool, error) {
	mu := &r.locks[stripe(id)]
	mu.Lock()
	defer mu.Unlock()

	x, found := r.cache.Get(id)
	if !found {
		return false, nil
	}
	session := x.(*nlu.Session)

	keep, err := fn(session)
	if err != nil {
		return true, err
	}
	if !keep {
		r.cache.Delete(id)
		return true, nil
	}
	// TTL stays anchored at the original creation, never refreshed.
	remaining := r.ttl - time.Since(session.CreatedAt)
	if remaining <= 0 {
		r.cache.Delete(id)
		return false, nil
	}
	r.cache.Set(id, session, remaining)
	return true, nil
}

// Close stops the background sweep.
func (r *SessionRepository) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *SessionRepository) sweep(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.cache.DeleteExpired()
		case <-r.stop:
			return
		}
	}
}

func stripe(id string) int {
	h := 0
	for i := 0; i < len(id); i++ {
		h = h*31 + int(id[i])
	}
	if h < 0 {
		h = -h
	}
	return h % 64
}
