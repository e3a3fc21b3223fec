// Package cache holds small in-process caches for derived HTTP payloads.
package cache

import (
	"context"
	"time"

	"tracker/internal/log"
)

// Cache is a keyed store of derived values.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// Purge drops every entry, used when the views they were built from change.
	Purge()
	Len() int
}

// Expirer is implemented by caches whose entries expire.
type Expirer interface {
	CleanExpired() int
}

// Janitor periodically removes expired entries from registered caches.
type Janitor struct {
	caches []Expirer
	logger *log.Logger
	stop   chan struct{}
	done   chan struct{}
}

func NewJanitor(logger *log.Logger, caches ...Expirer) *Janitor {
	if logger == nil {
		logger = log.Discard()
	}
	return &Janitor{
		caches: caches,
		logger: logger.WithComponent(log.ComponentCache),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start runs the cleanup loop until Stop is called or ctx is done.
func (j *Janitor) Start(ctx context.Context, interval time.Duration) {
	go j.loop(ctx, interval)
}

func (j *Janitor) loop(ctx context.Context, interval time.Duration) {
	defer close(j.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := 0
			for _, c := range j.caches {
				removed += c.CleanExpired()
			}
			if removed > 0 {
				j.logger.Debug("Expired cache entries removed", log.FieldCount, removed)
			}
		case <-j.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop ends the cleanup loop and waits for it to exit. It must be called
// at most once, after Start.
func (j *Janitor) Stop() {
	close(j.stop)
	<-j.done
}
