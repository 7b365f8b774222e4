package testfixtures

import (
	"context"
	"fmt"
	"sync"
	"time"

	"appointment-booking/internal/data/repository"
	"appointment-booking/internal/scheduling"
)

// keyLocks mimics pg advisory locks: one holder per key, bounded wait.
type keyLocks struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newKeyLocks() *keyLocks {
	return &keyLocks{slots: make(map[string]chan struct{})}
}

func (l *keyLocks) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

func (l *keyLocks) acquire(ctx context.Context, keys []repository.LockKey, timeout time.Duration) (func(), error) {
	var held []chan struct{}
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}

	for _, key := range repository.SortLockKeys(keys) {
		ch := l.slot(key.String())
		var wait <-chan time.Time
		if timeout > 0 {
			timer := time.NewTimer(timeout)
			defer timer.Stop()
			wait = timer.C
		}
		select {
		case ch <- struct{}{}:
			held = append(held, ch)
		case <-wait:
			release()
			return nil, fmt.Errorf("acquire lock %s: %w", key, scheduling.ErrReservationTimeout)
		case <-ctx.Done():
			release()
			return nil, fmt.Errorf("acquire lock %s: %w: %w", key, scheduling.ErrReservationTimeout, ctx.Err())
		}
	}
	return release, nil
}
