package app

import (
	"math"

	"lane-pilot/internal/domain/entity"
)

// GeometryConfig масштабы вида сверху и точки оценки
type GeometryConfig struct {
	XMPerPix          float64 // метров в пикселе по горизонтали
	YMPerPix          float64 // метров в пикселе по вертикали
	BottomFraction    float64 // доля нижних строк для положения линии
	LookaheadFraction float64 // насколько далеко вверх смотреть при расчёте курса
}

// DefaultGeometryConfig возвращает масштабы для полосы 3.7 м и 30 м в кадре
func DefaultGeometryConfig() GeometryConfig {
	return GeometryConfig{
		XMPerPix:          3.7 / 700,
		YMPerPix:          30.0 / 720,
		BottomFraction:    0.05,
		LookaheadFraction: 1.0,
	}
}

// GeometryEstimator переводит аппроксимации в кривизну, смещение и угол
type GeometryEstimator struct {
	cfg GeometryConfig
}

// NewGeometryEstimator создаёт оценщик
func NewGeometryEstimator(cfg GeometryConfig) *GeometryEstimator {
	if cfg.XMPerPix <= 0 || cfg.YMPerPix <= 0 {
		def := DefaultGeometryConfig()
		cfg.XMPerPix, cfg.YMPerPix = def.XMPerPix, def.YMPerPix
	}
	if cfg.BottomFraction <= 0 || cfg.BottomFraction > 1 {
		cfg.BottomFraction = DefaultGeometryConfig().BottomFraction
	}
	if cfg.LookaheadFraction <= 0 || cfg.LookaheadFraction > 1 {
		cfg.LookaheadFraction = DefaultGeometryConfig().LookaheadFraction
	}
	return &GeometryEstimator{cfg: cfg}
}

// Estimate считает геометрию по двум линиям кадра шириной width и высотой height.
func (g *GeometryEstimator) Estimate(left, right *entity.LaneLine, width, height int) entity.LaneGeometry {
	geom := entity.LaneGeometry{
		RadiusMeters: math.Inf(1),
		OffsetMeters: entity.OffsetUnavailable,
	}
	if width <= 0 || height <= 0 {
		return geom
	}

	bottom := float64(height - 1)
	yEval := bottom * g.cfg.YMPerPix

	var radii, curvatures []float64
	for _, lane := range []*entity.LaneLine{left, right} {
		if !lane.HasFit() {
			continue
		}
		fit := lane.AverageFit().Scale(g.cfg.XMPerPix, g.cfg.YMPerPix)
		lane.CurvatureMeters = fit.RadiusAt(yEval)
		radii = append(radii, lane.CurvatureMeters)
		curvatures = append(curvatures, fit.CurvatureAt(yEval))
	}
	if len(radii) > 0 {
		geom.CurvatureAvailable = true
		geom.RadiusMeters = mean(radii)
		geom.Curvature = mean(curvatures)
	}

	if left.Detected && right.Detected {
		l := g.baseX(left, height)
		r := g.baseX(right, height)
		mid := (l + r) / 2
		geom.OffsetMeters = math.Abs(mid-float64(width)/2) * g.cfg.XMPerPix
	}

	angle, ok := g.turnAngle(left, right, width, height)
	geom.AngleAvailable = ok
	geom.TurnAngleDegrees = angle
	return geom
}

// baseX среднее x опорных пикселей в нижних строках; без них значение аппроксимации
func (g *GeometryEstimator) baseX(lane *entity.LaneLine, height int) float64 {
	minY := int(math.Ceil(float64(height) * (1 - g.cfg.BottomFraction)))
	sum, n := 0, 0
	for i, y := range lane.PixelsY {
		if y >= minY {
			sum += lane.PixelsX[i]
			n++
		}
	}
	if n == 0 {
		return lane.AverageFit().Eval(float64(height - 1))
	}
	return float64(sum) / float64(n)
}

// turnAngle курс от машины (низ-центр кадра) на точку осевой впереди.
// С одной линией берётся её собственное направление.
func (g *GeometryEstimator) turnAngle(left, right *entity.LaneLine, width, height int) (float64, bool) {
	bottom := float64(height - 1)
	ahead := bottom * (1 - g.cfg.LookaheadFraction)
	dy := (bottom - ahead) * g.cfg.YMPerPix
	if dy <= 0 {
		return 0, false
	}

	var dx float64
	switch {
	case left.HasFit() && right.HasFit():
		l := left.AverageFit()
		r := right.AverageFit()
		center := (l.Eval(ahead) + r.Eval(ahead)) / 2
		dx = (center - float64(width)/2) * g.cfg.XMPerPix
	case left.HasFit():
		fit := left.AverageFit()
		dx = (fit.Eval(ahead) - fit.Eval(bottom)) * g.cfg.XMPerPix
	case right.HasFit():
		fit := right.AverageFit()
		dx = (fit.Eval(ahead) - fit.Eval(bottom)) * g.cfg.XMPerPix
	default:
		return 0, false
	}

	deg := math.Atan2(dx, dy) * 180 / math.Pi
	return entity.ClampAngle(deg), true
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
