package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"streampool/internal/core/domain"
	apperrors "streampool/pkg/errors"
)

// newTestPool wires the allocator with an inline spawn so background
// replenishment runs synchronously inside the test.
func newTestPool(t *testing.T, api *fakeStreamAPI, cfg PoolConfig) *poolService {
	t.Helper()
	svc := NewPoolService(api, cfg, zaptest.NewLogger(t).Sugar(), nil).(*poolService)
	svc.spawn = func(f func()) { f() }
	return svc
}

func TestAcquireReturnsFirstStoppedWithoutQueryingTheRest(t *testing.T) {
	api := &fakeStreamAPI{
		listIDs: []domain.StreamID{"A", "B", "C"},
		stateByID: map[domain.StreamID]domain.StreamState{
			"A": domain.StateStarted,
			"B": domain.StateStopped,
			"C": domain.StateStopped,
		},
	}
	svc := newTestPool(t, api, PoolConfig{StartingSize: 1, ThresholdPercent: 70})

	id, err := svc.Acquire(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StreamID("B"), id)
	assert.Equal(t, []domain.StreamID{"A", "B"}, api.fetchOrder, "C must never be queried")
}

func TestAcquireEmptyPoolCreatesWithoutStateFetch(t *testing.T) {
	api := &fakeStreamAPI{listIDs: nil}
	svc := newTestPool(t, api, PoolConfig{StartingSize: 3, ThresholdPercent: 70})

	id, err := svc.Acquire(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StreamID("new-stream-id"), id)
	assert.Empty(t, api.fetchOrder)
	require.Len(t, api.created, 1)
	assert.Equal(t, "Stream-1", api.created[0].Name)
}

func TestAcquireExhaustedPoolCreatesSynchronously(t *testing.T) {
	api := &fakeStreamAPI{
		listIDs: []domain.StreamID{"A", "B"},
		stateByID: map[domain.StreamID]domain.StreamState{
			"A": domain.StateStarted,
			"B": domain.StateStarting,
		},
	}
	svc := newTestPool(t, api, PoolConfig{StartingSize: 1, ThresholdPercent: 70})

	id, err := svc.Acquire(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StreamID("new-stream-id"), id)
	require.Len(t, api.created, 1)
	assert.Equal(t, "Stream-3", api.created[0].Name)
}

func TestAcquireReplenishesWhenPoolBelowStartingSize(t *testing.T) {
	api := &fakeStreamAPI{
		listIDs: []domain.StreamID{"A", "B"},
		stateByID: map[domain.StreamID]domain.StreamState{
			"A": domain.StateStarted,
			"B": domain.StateStopped,
		},
	}
	svc := newTestPool(t, api, PoolConfig{StartingSize: 5, ThresholdPercent: 70})

	id, err := svc.Acquire(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StreamID("B"), id)
	require.Len(t, api.created, 1, "a background replacement must be provisioned")
	assert.Equal(t, "Stream-3", api.created[0].Name)
}

func TestAcquireReplenishesAboveUtilizationThreshold(t *testing.T) {
	api := &fakeStreamAPI{
		listIDs: []domain.StreamID{"A", "B", "C"},
		stateByID: map[domain.StreamID]domain.StreamState{
			"A": domain.StateStarted,
			"B": domain.StateStarted,
			"C": domain.StateStopped,
		},
	}
	svc := newTestPool(t, api, PoolConfig{StartingSize: 1, ThresholdPercent: 50})

	id, err := svc.Acquire(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StreamID("C"), id)
	require.Len(t, api.created, 1, "2 of 3 busy is above the 50% threshold")
}

func TestAcquireSkipsReplenishmentWhenPoolHealthy(t *testing.T) {
	api := &fakeStreamAPI{
		listIDs: []domain.StreamID{"A"},
		stateByID: map[domain.StreamID]domain.StreamState{
			"A": domain.StateStopped,
		},
	}
	svc := newTestPool(t, api, PoolConfig{StartingSize: 1, ThresholdPercent: 70})

	id, err := svc.Acquire(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StreamID("A"), id)
	assert.Empty(t, api.created)
}

func TestAcquireAbortsOnTransportFailureDuringWalk(t *testing.T) {
	transportErr := apperrors.NewTransportFailureError(assert.AnError)
	api := &fakeStreamAPI{
		listIDs: []domain.StreamID{"A", "B"},
		stateByID: map[domain.StreamID]domain.StreamState{
			"A": domain.StateStarted,
		},
		stateErrBy: map[domain.StreamID]error{
			"B": transportErr,
		},
	}
	svc := newTestPool(t, api, PoolConfig{StartingSize: 1, ThresholdPercent: 70})

	_, err := svc.Acquire(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeTransportFailure))
	assert.Empty(t, api.created, "no partial success after a failed walk")
}

func TestAcquireAbortsWhenListFails(t *testing.T) {
	api := &fakeStreamAPI{listErr: apperrors.NewUnauthorizedError("bad key")}
	svc := newTestPool(t, api, PoolConfig{StartingSize: 1, ThresholdPercent: 70})

	_, err := svc.Acquire(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthorized))
}

func TestAcquireRejectsInvalidParamsBeforeListing(t *testing.T) {
	api := &fakeStreamAPI{}
	svc := newTestPool(t, api, PoolConfig{StartingSize: 1, ThresholdPercent: 70})

	params := domain.DefaultStreamParams()
	params.AspectRatioWidth = 1001
	_, err := svc.Acquire(context.Background(), &params)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
	assert.Empty(t, api.fetchOrder)
}

func TestAcquireUsesDefaultParamsWhenNil(t *testing.T) {
	api := &fakeStreamAPI{listIDs: nil}
	svc := newTestPool(t, api, PoolConfig{StartingSize: 1, ThresholdPercent: 70})

	_, err := svc.Acquire(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, api.created, 1)
	created := api.created[0]
	assert.Equal(t, "wowza_gocoder", created.Encoder)
	assert.NotNil(t, created.Recording)
}
