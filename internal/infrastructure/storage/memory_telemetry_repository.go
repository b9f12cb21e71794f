package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lane-pilot/internal/domain/entity"
	"lane-pilot/internal/domain/port"
)

// MemoryTelemetryRepository in-memory хранилище телеметрии
type MemoryTelemetryRepository struct {
	mu    sync.RWMutex
	state entity.Telemetry
}

// NewMemoryTelemetryRepository создаёт новое in-memory хранилище
func NewMemoryTelemetryRepository() *MemoryTelemetryRepository {
	return &MemoryTelemetryRepository{
		state: entity.Telemetry{StartedAt: time.Now()},
	}
}

// RecordFrame сохраняет итог кадра
func (r *MemoryTelemetryRepository) RecordFrame(ctx context.Context, result entity.FrameResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.Frames++
	r.state.LastResult = &result
	return nil
}

// RecordFailure увеличивает счётчик ошибок нужного вида
func (r *MemoryTelemetryRepository) RecordFailure(ctx context.Context, kind port.FailureKind, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch kind {
	case port.FailureFrame:
		r.state.Frames++
		r.state.FrameFailures++
	case port.FailureSend:
		r.state.SendFailures++
	default:
		return fmt.Errorf("unknown failure kind %q", kind)
	}
	if err != nil {
		r.state.LastError = err.Error()
	}
	return nil
}

// RecordDevice сохраняет ответ контроллера
func (r *MemoryTelemetryRepository) RecordDevice(ctx context.Context, event entity.DeviceEvent) error {
	r.mu.Lock()
	r.state.LastDevice = &event
	r.mu.Unlock()

	return nil
}

// Snapshot возвращает копию состояния
func (r *MemoryTelemetryRepository) Snapshot(ctx context.Context) (entity.Telemetry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := r.state
	if r.state.LastResult != nil {
		res := *r.state.LastResult
		snap.LastResult = &res
	}
	if r.state.LastDevice != nil {
		dev := *r.state.LastDevice
		snap.LastDevice = &dev
	}
	return snap, nil
}

// Проверка реализации интерфейса
var _ port.TelemetryRepository = (*MemoryTelemetryRepository)(nil)
