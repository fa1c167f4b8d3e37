package execution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInFlightDeduperRejectsDuplicateWithinTTL(t *testing.T) {
	d := NewInFlightDeduper(50*time.Millisecond, 4)

	require.NoError(t, d.TryAcquire("order-1"))
	require.ErrorIs(t, d.TryAcquire("order-1"), ErrDuplicateInFlight)
	require.NoError(t, d.TryAcquire("order-2"), "a distinct key must never be blocked by another key's reservation")
}

func TestInFlightDeduperReleaseAllowsImmediateReacquire(t *testing.T) {
	d := NewInFlightDeduper(time.Hour, 4)

	require.NoError(t, d.TryAcquire("order-1"))
	d.Release("order-1")
	require.NoError(t, d.TryAcquire("order-1"))
}

func TestInFlightDeduperExpiresAfterTTL(t *testing.T) {
	d := NewInFlightDeduper(10*time.Millisecond, 4)

	require.NoError(t, d.TryAcquire("order-1"))
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, d.TryAcquire("order-1"), "an expired reservation must not block a fresh TryAcquire")
}

func TestInFlightDeduperNilReceiverIsNoop(t *testing.T) {
	var d *InFlightDeduper
	require.NoError(t, d.TryAcquire("order-1"))
	d.Release("order-1")
}
