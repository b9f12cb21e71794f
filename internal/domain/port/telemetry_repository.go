package port

import (
	"context"

	"lane-pilot/internal/domain/entity"
)

// TelemetryRepository интерфейс хранилища телеметрии
type TelemetryRepository interface {
	// RecordFrame сохраняет итог обработки кадра
	RecordFrame(ctx context.Context, result entity.FrameResult) error

	// RecordFailure учитывает ошибку кадра или отправки
	RecordFailure(ctx context.Context, kind FailureKind, err error) error

	// RecordDevice сохраняет последний ответ контроллера
	RecordDevice(ctx context.Context, event entity.DeviceEvent) error

	// Snapshot возвращает копию текущей сводки
	Snapshot(ctx context.Context) (entity.Telemetry, error)
}

// FailureKind вид ошибки для счётчиков
type FailureKind string

const (
	FailureFrame FailureKind = "frame" // ошибка обработки кадра
	FailureSend  FailureKind = "send"  // команда не ушла в порт
)
