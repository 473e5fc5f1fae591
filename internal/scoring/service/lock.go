package service

import (
	"context"
	"sync"
	"time"

	id "talaty/pkg/domain"
	dErrors "talaty/pkg/domain-errors"
)

// numUserShards spreads per-user serialization across a fixed set of
// mutexes. Two users may share a shard; one user always maps to the same one.
const numUserShards = 128

// defaultLockTimeout bounds a calculation when the caller set no deadline.
const defaultLockTimeout = 5 * time.Second

type userLocks struct {
	shards  [numUserShards]sync.Mutex
	timeout time.Duration
}

// withUser runs fn while holding the user's shard. Calculations for the
// same user never interleave their read-compute-upsert cycles.
func (l *userLocks) withUser(ctx context.Context, userID id.UserID, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "score calculation aborted: context cancelled")
	}

	timeout := l.timeout
	if timeout == 0 {
		timeout = defaultLockTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := &l.shards[shardFor(userID)]
	shard.Lock()
	defer shard.Unlock()

	// the wait for the shard may have outlived the deadline
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "score calculation aborted: context cancelled")
	}
	return fn(ctx)
}

// shardFor hashes the raw id bytes with FNV-1a.
func shardFor(userID id.UserID) int {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for _, b := range userID {
		h ^= uint32(b)
		h *= fnvPrime
	}
	return int(h % numUserShards)
}
