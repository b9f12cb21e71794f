package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"lane-pilot/internal/domain/entity"
	"lane-pilot/internal/infrastructure/storage"
)

func TestTelemetryService_RecordFrameAndFailures(t *testing.T) {
	svc := NewTelemetryService(storage.NewMemoryTelemetryRepository())
	ctx := context.Background()

	require.NoError(t, svc.RecordFrame(ctx, entity.FrameResult{Index: 1, SmoothedAngle: 4}))
	require.NoError(t, svc.FrameFailed(ctx, errBoom))
	require.NoError(t, svc.SendFailed(ctx, errBoom))

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), snap.Frames)
	require.Equal(t, int64(1), snap.FrameFailures)
	require.Equal(t, int64(1), snap.SendFailures)
	require.Equal(t, 4.0, snap.LastResult.SmoothedAngle)
}

func TestTelemetryService_DeviceResponse(t *testing.T) {
	svc := NewTelemetryService(storage.NewMemoryTelemetryRepository())
	ctx := context.Background()

	require.NoError(t, svc.DeviceResponse(ctx, "A:73", nil))
	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, "A:73", snap.LastDevice.Raw)
	require.Empty(t, snap.LastDevice.Fail)

	require.NoError(t, svc.DeviceResponse(ctx, "E:len", errBoom))
	snap, err = svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, "boom", snap.LastDevice.Fail)
}
