package app

import (
	"context"
	"time"

	"lane-pilot/internal/domain/entity"
	"lane-pilot/internal/domain/port"
)

type TelemetryService struct {
	repo port.TelemetryRepository
}

func NewTelemetryService(repo port.TelemetryRepository) *TelemetryService {
	return &TelemetryService{repo: repo}
}

func (s *TelemetryService) RecordFrame(ctx context.Context, result entity.FrameResult) error {
	return s.repo.RecordFrame(ctx, result)
}

func (s *TelemetryService) FrameFailed(ctx context.Context, err error) error {
	return s.repo.RecordFailure(ctx, port.FailureFrame, err)
}

func (s *TelemetryService) SendFailed(ctx context.Context, err error) error {
	return s.repo.RecordFailure(ctx, port.FailureSend, err)
}

// DeviceResponse запоминает ответ контроллера; protoErr: ошибка протокола, если была
func (s *TelemetryService) DeviceResponse(ctx context.Context, raw string, protoErr error) error {
	event := entity.DeviceEvent{Raw: raw, At: time.Now()}
	if protoErr != nil {
		event.Fail = protoErr.Error()
	}
	return s.repo.RecordDevice(ctx, event)
}

func (s *TelemetryService) Snapshot(ctx context.Context) (entity.Telemetry, error) {
	return s.repo.Snapshot(ctx)
}
