package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockPrefix = "carching:lock:"

// Lock is a SETNX lock whose value identifies the holder, so one process
// can never release a lock another process took.
type Lock struct {
	client  *redis.Client
	ownerID string
}

func NewLock(client *redis.Client) *Lock {
	return &Lock{
		client:  client,
		ownerID: uuid.NewString(),
	}
}

// Acquire reports false without error when somebody else holds name.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockPrefix+name, l.ownerID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s failed: %w", name, err)
	}
	return ok, nil
}

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Release is a no-op when the lock expired or belongs to another owner.
func (l *Lock) Release(ctx context.Context, name string) error {
	_, err := releaseScript.Run(ctx, l.client, []string{lockPrefix + name}, l.ownerID).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s failed: %w", name, err)
	}
	return nil
}

func (l *Lock) OwnerID() string {
	return l.ownerID
}
