package app

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"lane-pilot/internal/domain/entity"
)

// ErrNotEnoughPoints для аппроксимации нужно минимум три точки
var ErrNotEnoughPoints = errors.New("not enough points for quadratic fit")

// FitStrategy стратегия поиска пикселей линий
type FitStrategy int

const (
	FitBlind   FitStrategy = iota + 1 // скользящие окна по гистограмме
	FitTracked                        // полоса вокруг прошлой аппроксимации
)

func (s FitStrategy) String() string {
	switch s {
	case FitBlind:
		return "blind"
	case FitTracked:
		return "tracked"
	default:
		return fmt.Sprintf("FitStrategy(%d)", int(s))
	}
}

// SelectStrategy выбирает слежение только если оно разрешено и обе линии были найдены
func SelectStrategy(keepState bool, left, right *entity.LaneLine) FitStrategy {
	if keepState && left.Detected && right.Detected {
		return FitTracked
	}
	return FitBlind
}

// FitterConfig параметры поиска линий
type FitterConfig struct {
	Windows       int // количество окон по высоте
	Margin        int // полуширина окна и полосы слежения, пиксели
	MinPix        int // сколько пикселей нужно, чтобы сдвинуть окно
	MinLanePixels int // меньше, и линия не найдена
	HistoryDepth  int // глубина истории аппроксимаций
}

// DefaultFitterConfig возвращает параметры по умолчанию
func DefaultFitterConfig() FitterConfig {
	return FitterConfig{
		Windows:       9,
		Margin:        100,
		MinPix:        50,
		MinLanePixels: 300,
		HistoryDepth:  entity.DefaultHistoryDepth,
	}
}

// LaneFitter ищет пиксели левой и правой линий и аппроксимирует их параболой
type LaneFitter struct {
	cfg FitterConfig
}

// NewLaneFitter создаёт аппроксиматор
func NewLaneFitter(cfg FitterConfig) (*LaneFitter, error) {
	if cfg.Windows < 1 || cfg.Margin < 1 || cfg.MinPix < 0 || cfg.MinLanePixels < 3 {
		return nil, fmt.Errorf("invalid fitter config: %+v", cfg)
	}
	return &LaneFitter{cfg: cfg}, nil
}

// Fit обновляет обе линии по маске вида сверху.
// Если прошлых аппроксимаций нет, слежение заменяется слепым поиском.
func (f *LaneFitter) Fit(mask *entity.Frame, left, right *entity.LaneLine, strategy FitStrategy) (FitStrategy, error) {
	if mask == nil || mask.Channels != 1 {
		return strategy, errors.New("lane fitter expects a single channel mask")
	}

	xs, ys := mask.NonZero()

	if strategy == FitTracked && (!left.HasFit() || !right.HasFit()) {
		strategy = FitBlind
	}

	var lx, ly, rx, ry []int
	switch strategy {
	case FitTracked:
		lx, ly = f.trackedSearch(xs, ys, left.Fit)
		rx, ry = f.trackedSearch(xs, ys, right.Fit)
	default:
		strategy = FitBlind
		lx, ly, rx, ry = f.slidingWindow(mask.Width, mask.Height, xs, ys)
	}

	f.update(left, lx, ly)
	f.update(right, rx, ry)
	return strategy, nil
}

func (f *LaneFitter) update(lane *entity.LaneLine, xs, ys []int) {
	if len(xs) < f.cfg.MinLanePixels {
		lane.Reject(xs, ys)
		return
	}
	fit, err := Polyfit2(xs, ys)
	if err != nil {
		lane.Reject(xs, ys)
		return
	}
	lane.Accept(fit, xs, ys)
}

// slidingWindow слепой поиск: пики гистограммы нижней половины и окна снизу вверх
func (f *LaneFitter) slidingWindow(width, height int, xs, ys []int) (lx, ly, rx, ry []int) {
	if width == 0 || height == 0 {
		return nil, nil, nil, nil
	}

	hist := make([]int, width)
	for i, y := range ys {
		if y >= height/2 {
			hist[xs[i]]++
		}
	}
	mid := width / 2
	leftCur := argmax(hist, 0, mid)
	rightCur := argmax(hist, mid, width)

	winH := height / f.cfg.Windows
	if winH == 0 {
		winH = 1
	}

	for w := 0; w < f.cfg.Windows; w++ {
		yLow := height - (w+1)*winH
		yHigh := height - w*winH

		var lSum, lCount, rSum, rCount int
		for i, y := range ys {
			if y < yLow || y >= yHigh {
				continue
			}
			x := xs[i]
			if x >= leftCur-f.cfg.Margin && x < leftCur+f.cfg.Margin {
				lx = append(lx, x)
				ly = append(ly, y)
				lSum += x
				lCount++
			}
			if x >= rightCur-f.cfg.Margin && x < rightCur+f.cfg.Margin {
				rx = append(rx, x)
				ry = append(ry, y)
				rSum += x
				rCount++
			}
		}
		if lCount > f.cfg.MinPix {
			leftCur = lSum / lCount
		}
		if rCount > f.cfg.MinPix {
			rightCur = rSum / rCount
		}
	}
	return lx, ly, rx, ry
}

// trackedSearch собирает пиксели в полосе ±Margin вокруг прошлой аппроксимации
func (f *LaneFitter) trackedSearch(xs, ys []int, prev entity.Poly2) (outX, outY []int) {
	margin := float64(f.cfg.Margin)
	for i, y := range ys {
		center := prev.Eval(float64(y))
		x := float64(xs[i])
		if x > center-margin && x < center+margin {
			outX = append(outX, xs[i])
			outY = append(outY, y)
		}
	}
	return outX, outY
}

// Polyfit2 МНК-аппроксимация x = A*y^2 + B*y + C
func Polyfit2(xs, ys []int) (entity.Poly2, error) {
	n := len(xs)
	if n < 3 || len(ys) != n {
		return entity.Poly2{}, ErrNotEnoughPoints
	}

	a := mat.NewDense(n, 3, nil)
	b := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		y := float64(ys[i])
		a.SetRow(i, []float64{y * y, y, 1})
		b.SetVec(i, float64(xs[i]))
	}

	var coef mat.VecDense
	if err := coef.SolveVec(a, b); err != nil {
		return entity.Poly2{}, fmt.Errorf("polyfit: %w", err)
	}
	return entity.Poly2{A: coef.AtVec(0), B: coef.AtVec(1), C: coef.AtVec(2)}, nil
}

// argmax индекс максимума на [from, to); при равенстве первый
func argmax(values []int, from, to int) int {
	best := from
	for i := from; i < to; i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}
