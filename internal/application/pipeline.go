package app

import (
	"context"
	"errors"
	"fmt"

	"lane-pilot/internal/domain/entity"
	"lane-pilot/internal/domain/port"
)

// PipelineConfig параметры команды, которую конвейер выдаёт на каждый кадр
type PipelineConfig struct {
	Speed        int         // скорость в единицах контроллера
	Mode         entity.Mode // режим управления
	AngleHistory int         // глубина окна сглаживания угла
}

// DefaultPipelineConfig скорость 50, автоматический режим, окно 5 кадров
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Speed:        50,
		Mode:         entity.ModeAuto,
		AngleHistory: entity.DefaultAngleHistory,
	}
}

// Pipeline контекст конвейера: стадии, сглаживание и счётчик кадров.
// Один экземпляр обрабатывает кадры строго последовательно.
type Pipeline struct {
	binarizer  port.Binarizer
	rectifier  port.Rectifier
	pathfinder port.Pathfinder
	smoother   *entity.AngleHistory
	cfg        PipelineConfig
	frames     int64
}

// NewPipeline собирает конвейер
func NewPipeline(binarizer port.Binarizer, rectifier port.Rectifier, pathfinder port.Pathfinder, cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		binarizer:  binarizer,
		rectifier:  rectifier,
		pathfinder: pathfinder,
		smoother:   entity.NewAngleHistory(cfg.AngleHistory),
		cfg:        cfg,
	}
}

// ProcessFrame прогоняет кадр через все стадии и возвращает команду.
// Без линий в кадре угол не добавляется в окно, команда строится по текущему среднему.
func (p *Pipeline) ProcessFrame(ctx context.Context, frame *entity.Frame) (entity.FrameResult, error) {
	p.frames++
	result := entity.FrameResult{Index: p.frames}

	mask, err := p.binarizer.Binarize(frame)
	if err != nil {
		return result, fmt.Errorf("binarize frame %d: %w", p.frames, err)
	}

	warped, _, err := p.rectifier.Rectify(mask)
	if err != nil {
		return result, fmt.Errorf("rectify frame %d: %w", p.frames, err)
	}

	angle, err := p.pathfinder.ComputeAngle(ctx, warped)
	switch {
	case err == nil:
		result.RawAngle = angle
		result.SmoothedAngle = p.smoother.Push(angle)
	case errors.Is(err, ErrNoLaneFit):
		result.SmoothedAngle = p.smoother.Mean()
	default:
		return result, fmt.Errorf("compute angle frame %d: %w", p.frames, err)
	}

	if reporter, ok := p.pathfinder.(port.GeometryReporter); ok {
		result.Geometry = reporter.LastGeometry()
		result.LeftDetected, result.RightDetected = reporter.LanesDetected()
		result.Strategy = reporter.LastStrategy()
	} else {
		result.Geometry = entity.LaneGeometry{
			OffsetMeters:     entity.OffsetUnavailable,
			AngleAvailable:   err == nil,
			TurnAngleDegrees: angle,
		}
	}

	result.Command = entity.NewSteeringCommand(result.SmoothedAngle, p.cfg.Speed, p.cfg.Mode)
	return result, nil
}

// Frames количество кадров, поданных в конвейер
func (p *Pipeline) Frames() int64 {
	return p.frames
}
