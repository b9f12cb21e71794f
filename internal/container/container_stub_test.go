//go:build !gocv

package container

import (
	"testing"

	"github.com/stretchr/testify/require"

	"lane-pilot/config"
	"lane-pilot/internal/infrastructure/controller"
	"lane-pilot/internal/infrastructure/storage"
)

func TestContainer_GoCVBackendWithoutTag(t *testing.T) {
	cfg := testConfig()
	cfg.Backend = config.BackendGoCV
	_, err := New(cfg, controller.NewEmulator(), storage.NewMemoryTelemetryRepository())
	require.ErrorContains(t, err, "gocv build tag is not enabled")

	cfg = testConfig()
	cfg.Pathfinder = config.PathfinderHough
	_, err = New(cfg, controller.NewEmulator(), storage.NewMemoryTelemetryRepository())
	require.ErrorContains(t, err, "gocv build tag is not enabled")
}
