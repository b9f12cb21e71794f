package app

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"lane-pilot/internal/domain/entity"
)

// bandMask маска с вертикальными полосами шириной 9 пикселей с центрами centers
func bandMask(width, height int, centers ...int) *entity.Frame {
	mask := entity.NewFrame(width, height, 1)
	for _, c := range centers {
		for y := 0; y < height; y++ {
			for x := c - 4; x <= c+4; x++ {
				if x >= 0 && x < width {
					mask.Set(x, y, 0, 255)
				}
			}
		}
	}
	return mask
}

func newTestFitter(t *testing.T) *LaneFitter {
	t.Helper()
	f, err := NewLaneFitter(DefaultFitterConfig())
	require.NoError(t, err)
	return f
}

func TestLaneFitter_BlindFindsTwoBands(t *testing.T) {
	f := newTestFitter(t)
	left := entity.NewLaneLine(entity.SideLeft, 0)
	right := entity.NewLaneLine(entity.SideRight, 0)

	used, err := f.Fit(bandMask(600, 400, 100, 500), left, right, FitBlind)
	require.NoError(t, err)
	require.Equal(t, FitBlind, used)

	require.True(t, left.Detected)
	require.True(t, right.Detected)
	for _, y := range []float64{0, 200, 399} {
		require.InDelta(t, 100, left.Fit.Eval(y), 0.5)
		require.InDelta(t, 500, right.Fit.Eval(y), 0.5)
	}
}

func TestLaneFitter_EmptyMaskKeepsFit(t *testing.T) {
	f := newTestFitter(t)
	left := entity.NewLaneLine(entity.SideLeft, 0)
	right := entity.NewLaneLine(entity.SideRight, 0)

	_, err := f.Fit(bandMask(600, 400, 100, 500), left, right, FitBlind)
	require.NoError(t, err)
	prevLeft, prevRight := left.Fit, right.Fit

	_, err = f.Fit(entity.NewFrame(600, 400, 1), left, right, FitBlind)
	require.NoError(t, err)

	require.False(t, left.Detected)
	require.False(t, right.Detected)
	require.Equal(t, prevLeft, left.Fit)
	require.Equal(t, prevRight, right.Fit)
	require.True(t, left.HasFit())
}

func TestLaneFitter_TrackedFollowsPreviousFit(t *testing.T) {
	f := newTestFitter(t)
	left := entity.NewLaneLine(entity.SideLeft, 0)
	right := entity.NewLaneLine(entity.SideRight, 0)

	_, err := f.Fit(bandMask(600, 400, 100, 500), left, right, FitBlind)
	require.NoError(t, err)

	used, err := f.Fit(bandMask(600, 400, 130, 470), left, right, FitTracked)
	require.NoError(t, err)
	require.Equal(t, FitTracked, used)
	require.InDelta(t, 130, left.Fit.Eval(200), 0.5)
	require.InDelta(t, 470, right.Fit.Eval(200), 0.5)
}

func TestLaneFitter_TrackedWithoutFitFallsBackToBlind(t *testing.T) {
	f := newTestFitter(t)
	left := entity.NewLaneLine(entity.SideLeft, 0)
	right := entity.NewLaneLine(entity.SideRight, 0)

	used, err := f.Fit(bandMask(600, 400, 100, 500), left, right, FitTracked)
	require.NoError(t, err)
	require.Equal(t, FitBlind, used)
	require.True(t, left.Detected)
}

func TestLaneFitter_TooFewPixels(t *testing.T) {
	f := newTestFitter(t)
	left := entity.NewLaneLine(entity.SideLeft, 0)
	right := entity.NewLaneLine(entity.SideRight, 0)

	mask := entity.NewFrame(600, 400, 1)
	for y := 390; y < 400; y++ {
		mask.Set(100, y, 0, 255)
	}

	_, err := f.Fit(mask, left, right, FitBlind)
	require.NoError(t, err)
	require.False(t, left.Detected)
	require.False(t, left.HasFit())
	require.Len(t, left.PixelsX, 10)
}

func TestLaneFitter_RejectsColorFrame(t *testing.T) {
	f := newTestFitter(t)
	_, err := f.Fit(entity.NewFrame(10, 10, 3), entity.NewLaneLine(entity.SideLeft, 0), entity.NewLaneLine(entity.SideRight, 0), FitBlind)
	require.Error(t, err)
}

func TestNewLaneFitter_InvalidConfig(t *testing.T) {
	cfg := DefaultFitterConfig()
	cfg.Windows = 0
	_, err := NewLaneFitter(cfg)
	require.Error(t, err)
}

func TestSelectStrategy(t *testing.T) {
	left := entity.NewLaneLine(entity.SideLeft, 0)
	right := entity.NewLaneLine(entity.SideRight, 0)
	require.Equal(t, FitBlind, SelectStrategy(true, left, right))

	left.Accept(entity.Poly2{C: 1}, nil, nil)
	right.Accept(entity.Poly2{C: 2}, nil, nil)
	require.Equal(t, FitTracked, SelectStrategy(true, left, right))
	require.Equal(t, FitBlind, SelectStrategy(false, left, right))
}

func TestPolyfit2_RecoversParabola(t *testing.T) {
	var xs, ys []int
	for y := 0; y <= 300; y += 10 {
		ys = append(ys, y)
		// x = 0.01*y^2 + 2*y + 5
		xs = append(xs, y*y/100+2*y+5)
	}

	fit, err := Polyfit2(xs, ys)
	require.NoError(t, err)
	want := entity.Poly2{A: 0.01, B: 2, C: 5}
	if diff := cmp.Diff(want, fit, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Fatalf("fit mismatch (-want +got):\n%s", diff)
	}
}

func TestPolyfit2_NotEnoughPoints(t *testing.T) {
	_, err := Polyfit2([]int{1, 2}, []int{1, 2})
	require.ErrorIs(t, err, ErrNotEnoughPoints)
}
