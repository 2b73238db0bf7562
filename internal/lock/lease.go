// Package lock guards the sync invocation boundary. Two overlapping runs for
// the same firm could both observe "no CMS id yet" and create duplicate
// entries; the lease makes the second run fail fast instead.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "firmsync/internal/common/errors"
	"firmsync/internal/common/logger"
)

const keyPrefix = "firmsync:lease:"

// Deletes only when the stored token still belongs to this holder.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

type FirmLease struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewFirmLease(client *redis.Client, ttl time.Duration, log logger.Logger) *FirmLease {
	return &FirmLease{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "firm-lease"}),
	}
}

// Acquire takes the per-firm lease and returns its release func. A lease
// already held yields a SYNC_LOCK_HELD error. The TTL bounds how long a
// crashed run can block the firm.
func (l *FirmLease) Acquire(ctx context.Context, firmID int64) (func(), error) {
	key := fmt.Sprintf("%s%d", keyPrefix, firmID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, apperrors.NewStoreWriteError(fmt.Errorf("lease acquire: %w", err))
	}
	if !ok {
		return nil, apperrors.NewSyncLockHeldError(firmID)
	}

	release := func() {
		if err := l.client.Eval(context.Background(), releaseScript, []string{key}, token).Err(); err != nil && err != redis.Nil {
			l.logger.Warn("lease release failed; ttl will reclaim it", map[string]interface{}{
				"firmId": firmID,
				"error":  err.Error(),
			})
		}
	}
	return release, nil
}
