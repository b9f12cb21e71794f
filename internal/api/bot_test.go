package telegram

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lane-pilot/internal/domain/entity"
)

func TestFormatStatus_NoFrames(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	text := FormatStatus(entity.Telemetry{StartedAt: start}, start.Add(90*time.Second))

	require.Contains(t, text, "1m30s")
	require.Contains(t, text, "Кадров: 0, с ошибкой: 0")
	require.Contains(t, text, msgNoFrames)
	require.NotContains(t, text, "Контроллер")
}

func TestFormatStatus_WithResult(t *testing.T) {
	now := time.Now()
	snap := entity.Telemetry{
		StartedAt:     now,
		Frames:        12,
		FrameFailures: 1,
		SendFailures:  2,
		LastResult: &entity.FrameResult{
			Index:        12,
			Strategy:     "tracked",
			LeftDetected: true,
			Geometry: entity.LaneGeometry{
				CurvatureAvailable: true,
				RadiusMeters:       math.Inf(1),
				OffsetMeters:       entity.OffsetUnavailable,
			},
			RawAngle:      -4.2,
			SmoothedAngle: -3,
			Command:       entity.NewSteeringCommand(-3, 50, entity.ModeAuto),
		},
		LastError:  "send \"a87\": port unavailable",
		LastDevice: &entity.DeviceEvent{Raw: "E:len", Fail: "device rejected command: too long"},
	}

	text := FormatStatus(snap, now)
	require.Contains(t, text, "Кадр #12 (tracked)")
	require.Contains(t, text, "Линии: левая ✅, правая ❌")
	require.Contains(t, text, "Радиус: прямая")
	require.Contains(t, text, "Смещение: нет данных")
	require.Contains(t, text, "Команда: угол -3°, скорость 50, режим auto")
	require.Contains(t, text, "Контроллер: E:len (device rejected command: too long)")
	require.Contains(t, text, "port unavailable")
}

func TestFormatRadius(t *testing.T) {
	require.Equal(t, "нет данных", formatRadius(entity.LaneGeometry{}))
	require.Equal(t, "250 м", formatRadius(entity.LaneGeometry{CurvatureAvailable: true, RadiusMeters: 250.2}))
}
