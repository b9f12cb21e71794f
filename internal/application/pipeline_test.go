package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"lane-pilot/internal/domain/entity"
)

func TestPipeline_SmoothsAngles(t *testing.T) {
	pf := &scriptedPathfinder{angles: []float64{10, 20, 30}}
	p := NewPipeline(&passBinarizer{}, passRectifier{}, pf, DefaultPipelineConfig())
	ctx := context.Background()

	var got []float64
	for i := 0; i < 3; i++ {
		res, err := p.ProcessFrame(ctx, entity.NewFrame(8, 6, 3))
		require.NoError(t, err)
		got = append(got, res.SmoothedAngle)
	}
	require.Equal(t, []float64{10, 15, 20}, got)
	require.Equal(t, int64(3), p.Frames())
}

func TestPipeline_NoLaneFitUsesCurrentMean(t *testing.T) {
	pf := &scriptedPathfinder{
		angles: []float64{12, 0, 24},
		errs:   []error{nil, ErrNoLaneFit, nil},
	}
	p := NewPipeline(&passBinarizer{}, passRectifier{}, pf, DefaultPipelineConfig())
	ctx := context.Background()

	res, err := p.ProcessFrame(ctx, entity.NewFrame(8, 6, 3))
	require.NoError(t, err)
	require.Equal(t, 12.0, res.SmoothedAngle)

	res, err = p.ProcessFrame(ctx, entity.NewFrame(8, 6, 3))
	require.NoError(t, err)
	require.Equal(t, 12.0, res.SmoothedAngle)
	require.Equal(t, 12, res.Command.AngleDegrees)
	require.False(t, res.Geometry.AngleAvailable)

	// пропущенный кадр не попал в окно
	res, err = p.ProcessFrame(ctx, entity.NewFrame(8, 6, 3))
	require.NoError(t, err)
	require.Equal(t, 18.0, res.SmoothedAngle)
}

func TestPipeline_CommandFromConfig(t *testing.T) {
	pf := &scriptedPathfinder{angles: []float64{-44.6}}
	cfg := PipelineConfig{Speed: 35, Mode: entity.ModeManual, AngleHistory: 1}
	p := NewPipeline(&passBinarizer{}, passRectifier{}, pf, cfg)

	res, err := p.ProcessFrame(context.Background(), entity.NewFrame(8, 6, 3))
	require.NoError(t, err)
	require.Equal(t, entity.SteeringCommand{AngleDegrees: -45, Speed: 35, Mode: entity.ModeManual}, res.Command)
	require.Equal(t, -44.6, res.RawAngle)
	require.Equal(t, entity.OffsetUnavailable, res.Geometry.OffsetMeters)
}

func TestPipeline_StageErrors(t *testing.T) {
	p := NewPipeline(&passBinarizer{err: errBoom}, passRectifier{}, &scriptedPathfinder{}, DefaultPipelineConfig())
	res, err := p.ProcessFrame(context.Background(), entity.NewFrame(8, 6, 3))
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, int64(1), res.Index)

	pf := &scriptedPathfinder{angles: []float64{0}, errs: []error{errBoom}}
	p = NewPipeline(&passBinarizer{}, passRectifier{}, pf, DefaultPipelineConfig())
	_, err = p.ProcessFrame(context.Background(), entity.NewFrame(8, 6, 3))
	require.ErrorIs(t, err, errBoom)
}

func TestPipeline_CurveFitReportsGeometry(t *testing.T) {
	fitter := newTestFitter(t)
	pf := NewCurveFitPathfinder(fitter, NewGeometryEstimator(DefaultGeometryConfig()), 0, true)
	p := NewPipeline(maskBinarizer{bandMask(600, 400, 100, 500)}, passRectifier{}, pf, DefaultPipelineConfig())

	res, err := p.ProcessFrame(context.Background(), entity.NewFrame(600, 400, 3))
	require.NoError(t, err)
	require.True(t, res.LeftDetected)
	require.True(t, res.RightDetected)
	require.Equal(t, "blind", res.Strategy)
	require.InDelta(t, 0, res.RawAngle, 0.5)

	res, err = p.ProcessFrame(context.Background(), entity.NewFrame(600, 400, 3))
	require.NoError(t, err)
	require.Equal(t, "tracked", res.Strategy)
}

type maskBinarizer struct {
	mask *entity.Frame
}

func (b maskBinarizer) Binarize(frame *entity.Frame) (*entity.Frame, error) {
	return b.mask.Clone(), nil
}
