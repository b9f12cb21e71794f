package entity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoly2_StraightLine(t *testing.T) {
	p := Poly2{C: 120}
	require.Equal(t, 120.0, p.Eval(300))
	require.Equal(t, 0.0, p.CurvatureAt(300))
	require.True(t, math.IsInf(p.RadiusAt(300), 1))
}

func TestPoly2_Curvature(t *testing.T) {
	// x = y^2/200: в вершине радиус 100
	p := Poly2{A: 1.0 / 200}
	require.InDelta(t, 100, p.RadiusAt(0), 1e-9)
	require.InDelta(t, 0.01, p.CurvatureAt(0), 1e-12)
}

func TestPoly2_Scale(t *testing.T) {
	p := Poly2{A: 2, B: 3, C: 4}
	s := p.Scale(0.5, 0.25)

	// x_m = 0.5 * x_px, y_px = y_m / 0.25
	yM := 1.0
	require.InDelta(t, 0.5*p.Eval(yM/0.25), s.Eval(yM), 1e-9)
}

func TestLaneLine_AcceptAndReject(t *testing.T) {
	l := NewLaneLine(SideLeft, 3)
	require.False(t, l.HasFit())
	require.True(t, math.IsInf(l.CurvatureMeters, 1))

	fit := Poly2{A: 0.001, B: 0.1, C: 100}
	l.Accept(fit, []int{1}, []int{2})
	require.True(t, l.Detected)
	require.True(t, l.HasFit())

	l.Reject(nil, nil)
	require.False(t, l.Detected)
	require.True(t, l.HasFit())
	require.Equal(t, fit, l.Fit)
}

func TestLaneLine_HistoryRing(t *testing.T) {
	l := NewLaneLine(SideRight, 3)
	for i := 1; i <= 5; i++ {
		l.Accept(Poly2{C: float64(i * 10)}, nil, nil)
	}

	hist := l.History()
	require.Len(t, hist, 3)
	require.Equal(t, []float64{30, 40, 50}, []float64{hist[0].C, hist[1].C, hist[2].C})
	require.InDelta(t, 40, l.AverageFit().C, 1e-9)
}

func TestLaneLine_Reset(t *testing.T) {
	l := NewLaneLine(SideLeft, 0)
	l.Accept(Poly2{C: 1}, nil, nil)
	l.Reset()

	require.False(t, l.HasFit())
	require.Empty(t, l.History())
	require.Equal(t, Poly2{}, l.AverageFit())
}
