package redis

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// AdmissionLock serializes admission per event id. Capacity checks and the
// registration insert run under it, so two requests racing for the last
// seat are ordered instead of both passing the count check.
type AdmissionLock struct {
	Client *redis.Client
}

const (
	lockKeyPrefix = "event_admission_lock:"
	lockRetries   = 5
	lockRetryWait = 50 * time.Millisecond
)

func NewAdmissionLock(client *redis.Client) *AdmissionLock {
	return &AdmissionLock{Client: client}
}

// lockTTL guards against a crashed holder wedging the event; normal flow
// releases the lock explicitly.
func lockTTL() time.Duration {
	ttlStr := os.Getenv("ADMISSION_LOCK_TTL_SECONDS")
	if ttlStr == "" {
		return 10 * time.Second
	}
	ttlSec, err := strconv.Atoi(ttlStr)
	if err != nil || ttlSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(ttlSec) * time.Second
}

// Lock acquires the per-event lock, retrying briefly while another admission
// is in flight. Returns false when the lock stayed contended.
func (l *AdmissionLock) Lock(ctx context.Context, eventID, token string) (bool, error) {
	key := lockKeyPrefix + eventID
	ttl := lockTTL()

	for attempt := 0; attempt < lockRetries; attempt++ {
		ok, err := l.Client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(lockRetryWait):
		}
	}
	return false, nil
}

// Unlock releases the lock only if this caller still holds it.
func (l *AdmissionLock) Unlock(ctx context.Context, eventID, token string) error {
	key := lockKeyPrefix + eventID
	val, err := l.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // expired or already released
	}
	if err != nil {
		return err
	}
	if val == token {
		_, err = l.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}
