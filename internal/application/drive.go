package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"lane-pilot/internal/domain/entity"
	"lane-pilot/internal/domain/port"
)

// DriveService цикл по кадрам: конвейер -> телеметрия -> команда контроллеру
type DriveService struct {
	pipeline  *Pipeline
	commands  port.CommandSink
	telemetry *TelemetryService
}

// NewDriveService создаёт сервис движения.
func NewDriveService(pipeline *Pipeline, commands port.CommandSink, telemetry *TelemetryService) *DriveService {
	return &DriveService{
		pipeline:  pipeline,
		commands:  commands,
		telemetry: telemetry,
	}
}

// Run обрабатывает кадры, пока источник не вернёт io.EOF или не отменят контекст.
// Ошибки отдельного кадра или отправки не прерывают цикл.
func (s *DriveService) Run(ctx context.Context, source port.FrameSource) error {
	for {
		frame, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			return fmt.Errorf("next frame: %w", err)
		}

		s.Step(ctx, frame)
	}
}

// Step обрабатывает один кадр.
func (s *DriveService) Step(ctx context.Context, frame *entity.Frame) {
	result, err := s.pipeline.ProcessFrame(ctx, frame)
	if err != nil {
		log.Printf("Frame %d failed: %v", result.Index, err)
		_ = s.telemetry.FrameFailed(ctx, err)
		return
	}
	if err := s.telemetry.RecordFrame(ctx, result); err != nil {
		log.Printf("Error recording frame %d: %v", result.Index, err)
	}

	if err := s.commands.Submit(ctx, result.Command); err != nil {
		log.Printf("Command for frame %d dropped: %v", result.Index, err)
		_ = s.telemetry.SendFailed(ctx, err)
	}
}
