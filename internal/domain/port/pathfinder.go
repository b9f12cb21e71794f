package port

import (
	"context"

	"lane-pilot/internal/domain/entity"
)

// Pathfinder стратегия расчёта угла поворота по маске вида сверху
type Pathfinder interface {
	// ComputeAngle возвращает угол в градусах [-90, 90], минус влево
	ComputeAngle(ctx context.Context, mask *entity.Frame) (float64, error)
}

// GeometryReporter стратегия, которая умеет отдать полную геометрию последнего кадра
type GeometryReporter interface {
	LastGeometry() entity.LaneGeometry
	LanesDetected() (left, right bool)
	LastStrategy() string
}
