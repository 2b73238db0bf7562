package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "firmsync/internal/common/errors"
	"firmsync/internal/common/logger"
)

func newTestLease(t *testing.T) (*FirmLease, *miniredis.Miniredis) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewFirmLease(client, time.Minute, logger.NewTestLogger(t)), srv
}

func TestAcquire(t *testing.T) {
	lease, srv := newTestLease(t)

	release, err := lease.Acquire(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, release)
	assert.True(t, srv.Exists("firmsync:lease:42"))

	release()
	assert.False(t, srv.Exists("firmsync:lease:42"))
}

func TestAcquire_HeldByAnotherRun(t *testing.T) {
	lease, _ := newTestLease(t)

	release, err := lease.Acquire(context.Background(), 42)
	require.NoError(t, err)
	defer release()

	_, err = lease.Acquire(context.Background(), 42)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSyncLockHeld))
}

func TestAcquire_DistinctFirmsDoNotContend(t *testing.T) {
	lease, _ := newTestLease(t)

	releaseA, err := lease.Acquire(context.Background(), 1)
	require.NoError(t, err)
	defer releaseA()

	releaseB, err := lease.Acquire(context.Background(), 2)
	require.NoError(t, err)
	defer releaseB()
}

func TestAcquire_ReleaseThenReacquire(t *testing.T) {
	lease, _ := newTestLease(t)

	release, err := lease.Acquire(context.Background(), 7)
	require.NoError(t, err)
	release()

	release, err = lease.Acquire(context.Background(), 7)
	require.NoError(t, err)
	release()
}

func TestAcquire_TTLReclaimsCrashedRun(t *testing.T) {
	lease, srv := newTestLease(t)

	_, err := lease.Acquire(context.Background(), 9)
	require.NoError(t, err)

	// A crashed run never calls release; the TTL frees the firm.
	srv.FastForward(2 * time.Minute)

	release, err := lease.Acquire(context.Background(), 9)
	require.NoError(t, err)
	release()
}

func TestRelease_DoesNotStealSuccessorLease(t *testing.T) {
	lease, srv := newTestLease(t)

	staleRelease, err := lease.Acquire(context.Background(), 3)
	require.NoError(t, err)

	// Simulate expiry followed by another run taking the lease.
	srv.FastForward(2 * time.Minute)
	_, err = lease.Acquire(context.Background(), 3)
	require.NoError(t, err)

	staleRelease()
	assert.True(t, srv.Exists("firmsync:lease:3"), "stale release must not delete the successor's lease")
}
