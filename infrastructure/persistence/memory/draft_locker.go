package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sakettamrakar/eatclub/application/ports"
	"github.com/sakettamrakar/eatclub/domain/core/valueobjects"
	pkgerrors "github.com/sakettamrakar/eatclub/pkg/errors"
)

// DraftLocker serializes work per draft ID inside a single process.
// Each draft ID gets its own semaphore; locks on different IDs never
// contend with each other.
type DraftLocker struct {
	mu      sync.Mutex
	locks   map[string]*keyLock
	timeout time.Duration
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

// NewDraftLocker creates a per-draft locker with an acquisition timeout
func NewDraftLocker(timeout time.Duration) *DraftLocker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DraftLocker{
		locks:   make(map[string]*keyLock),
		timeout: timeout,
	}
}

var _ ports.DraftLocker = (*DraftLocker)(nil)

// Acquire blocks until the per-draft lock is held, the context is
// cancelled, or the timeout elapses
func (l *DraftLocker) Acquire(ctx context.Context, draftID valueobjects.DraftID) (ports.Lock, error) {
	key := draftID.String()

	l.mu.Lock()
	kl, exists := l.locks[key]
	if !exists {
		kl = &keyLock{sem: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case kl.sem <- struct{}{}:
		return &memoryLock{locker: l, key: key, kl: kl}, nil
	case <-ctx.Done():
		l.unref(key, kl)
		return nil, pkgerrors.NewStorageError("acquire draft lock", ctx.Err())
	case <-timer.C:
		l.unref(key, kl)
		return nil, pkgerrors.NewTimeoutError("acquire draft lock")
	}
}

func (l *DraftLocker) unref(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

type memoryLock struct {
	locker *DraftLocker
	key    string
	kl     *keyLock
	once   sync.Once
}

// Release releases the lock. Repeated release is a no-op.
func (m *memoryLock) Release(ctx context.Context) error {
	m.once.Do(func() {
		<-m.kl.sem
		m.locker.unref(m.key, m.kl)
	})
	return nil
}
