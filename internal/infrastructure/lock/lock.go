// Package lock serialises work on one record across goroutines and, with
// Redis configured, across replicas.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrNotObtained is returned when the lock stays held past the wait budget
var ErrNotObtained = errors.New("could not obtain lock")

// RedisLocker holds a redislock lease per key. Waiters poll until the
// lease frees up or the wait budget runs out.
type RedisLocker struct {
	locker *redislock.Client
	ttl    time.Duration
	retry  time.Duration
	logger *logrus.Logger
}

// NewRedisLocker creates a locker over rdb. ttl bounds both how long a
// crashed holder keeps the key and how long a waiter polls. A live holder
// refreshes its lease until it releases.
func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration, logger *logrus.Logger) *RedisLocker {
	return &RedisLocker{
		locker: redislock.New(rdb),
		ttl:    ttl,
		retry:  100 * time.Millisecond,
		logger: logger,
	}
}

// Lock blocks until key is held and returns its release func
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	lockKey := fmt.Sprintf("lock:%s", key)
	lock, err := l.locker.Obtain(waitCtx, lockKey, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(l.retry),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrNotObtained, key)
	}
	if err != nil {
		if ctx.Err() == nil && waitCtx.Err() != nil {
			return nil, fmt.Errorf("%w: %s", ErrNotObtained, key)
		}
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		keepAlive(lock, l.ttl, stop, l.logger.WithField("key", lockKey))
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			// the caller's ctx may already be cancelled; release regardless
			if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				l.logger.WithFields(logrus.Fields{"key": lockKey}).WithError(err).Warn("failed to release redis lock")
			}
		})
	}, nil
}

// leaseRefresher is the part of a redislock lease keepAlive needs
type leaseRefresher interface {
	Refresh(ctx context.Context, ttl time.Duration, opt *redislock.Options) error
}

// keepAlive extends the lease every half ttl until stop is closed, so work
// running longer than ttl keeps the key. It gives up once a refresh fails.
func keepAlive(lease leaseRefresher, ttl time.Duration, stop <-chan struct{}, log *logrus.Entry) {
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), ttl/2)
			err := lease.Refresh(ctx, ttl, nil)
			cancel()
			if err != nil {
				log.WithError(err).Warn("failed to refresh redis lock, lease may expire")
				return
			}
		}
	}
}

type localEntry struct {
	held chan struct{}
	refs int
}

// LocalLocker is an in-process keyed mutex used when Redis is not
// configured. It only serialises within one replica.
type LocalLocker struct {
	mu      sync.Mutex
	entries map[string]*localEntry
}

// NewLocalLocker creates an in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{entries: make(map[string]*localEntry)}
}

// Lock blocks until key is free or ctx is done
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &localEntry{held: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.held <- struct{}{}:
	case <-ctx.Done():
		l.drop(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.held
			l.drop(key, e)
		})
	}, nil
}

func (l *LocalLocker) drop(key string, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}
