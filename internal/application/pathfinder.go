package app

import (
	"context"
	"errors"

	"lane-pilot/internal/domain/entity"
	"lane-pilot/internal/domain/port"
)

// ErrNoLaneFit ни одной аппроксимации нет, угол не из чего считать
var ErrNoLaneFit = errors.New("no lane fit available")

// CurveFitPathfinder угол по аппроксимации линий параболами.
// Владеет состоянием обеих линий между кадрами.
type CurveFitPathfinder struct {
	fitter    *LaneFitter
	estimator *GeometryEstimator
	keepState bool

	left     *entity.LaneLine
	right    *entity.LaneLine
	last     entity.LaneGeometry
	strategy FitStrategy

	width  int // размер маски прошлого кадра
	height int
}

// NewCurveFitPathfinder создаёт стратегию; keepState разрешает слежение за прошлой аппроксимацией
func NewCurveFitPathfinder(fitter *LaneFitter, estimator *GeometryEstimator, historyDepth int, keepState bool) *CurveFitPathfinder {
	return &CurveFitPathfinder{
		fitter:    fitter,
		estimator: estimator,
		keepState: keepState,
		left:      entity.NewLaneLine(entity.SideLeft, historyDepth),
		right:     entity.NewLaneLine(entity.SideRight, historyDepth),
		last:      entity.LaneGeometry{OffsetMeters: entity.OffsetUnavailable},
	}
}

// ComputeAngle обновляет линии по маске и возвращает угол поворота
func (p *CurveFitPathfinder) ComputeAngle(ctx context.Context, mask *entity.Frame) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if mask.Width != p.width || mask.Height != p.height {
		// Аппроксимации в пикселях старого размера неприменимы
		p.left.Reset()
		p.right.Reset()
		p.width, p.height = mask.Width, mask.Height
	}

	strategy := SelectStrategy(p.keepState, p.left, p.right)
	used, err := p.fitter.Fit(mask, p.left, p.right, strategy)
	if err != nil {
		return 0, err
	}
	p.strategy = used

	p.last = p.estimator.Estimate(p.left, p.right, mask.Width, mask.Height)
	if !p.last.AngleAvailable {
		return 0, ErrNoLaneFit
	}
	return p.last.TurnAngleDegrees, nil
}

// LastGeometry геометрия последнего кадра
func (p *CurveFitPathfinder) LastGeometry() entity.LaneGeometry {
	return p.last
}

// LanesDetected найдены ли линии на последнем кадре
func (p *CurveFitPathfinder) LanesDetected() (left, right bool) {
	return p.left.Detected, p.right.Detected
}

// LastStrategy стратегия поиска последнего кадра
func (p *CurveFitPathfinder) LastStrategy() string {
	if p.strategy == 0 {
		return ""
	}
	return p.strategy.String()
}

// Lanes отдаёт линии для отладки и тестов
func (p *CurveFitPathfinder) Lanes() (left, right *entity.LaneLine) {
	return p.left, p.right
}

// Проверка реализации интерфейсов
var (
	_ port.Pathfinder       = (*CurveFitPathfinder)(nil)
	_ port.GeometryReporter = (*CurveFitPathfinder)(nil)
)
