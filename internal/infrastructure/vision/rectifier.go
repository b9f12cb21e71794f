package vision

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"lane-pilot/internal/domain/entity"
	"lane-pilot/internal/domain/port"
)

// ErrDegenerateROI вершины ROI лежат на одной прямой или самопересекаются
var ErrDegenerateROI = errors.New("degenerate region of interest")

// Interpolation способ выборки пикселя при деформации
type Interpolation int

const (
	InterpolationNearest Interpolation = iota // маска остаётся бинарной
	InterpolationLinear
)

// RectifierConfig параметры вида сверху
type RectifierConfig struct {
	ROI           entity.ROIConfig
	Interpolation Interpolation
}

// DefaultRectifierConfig возвращает ROI по умолчанию и ближайшего соседа
func DefaultRectifierConfig() RectifierConfig {
	return RectifierConfig{
		ROI:           entity.DefaultROIConfig(),
		Interpolation: InterpolationNearest,
	}
}

// ValidateROI проверяет ROI на вырожденность; ошибка настройки, а не кадра.
func ValidateROI(roi entity.ROIConfig) error {
	if roi.HeightFactor < 0 || roi.HeightFactor >= 1 {
		return fmt.Errorf("%w: height factor %.3f must be in [0, 1)", ErrDegenerateROI, roi.HeightFactor)
	}
	if !roi.Quad(1000, 1000).Convex() {
		return fmt.Errorf("%w: ratios h=%.3f w=%.3f lower=%.3f do not form a convex quad",
			ErrDegenerateROI, roi.HeightFactor, roi.WidthFactor, roi.LowerWidthFactor)
	}
	return nil
}

// Rectifier строит вид сверху без OpenCV; гомография кэшируется по размеру кадра
type Rectifier struct {
	cfg    RectifierConfig
	width  int
	height int
	cached *entity.Homography
}

// NewRectifier создаёт ректификатор и проверяет ROI
func NewRectifier(cfg RectifierConfig) (*Rectifier, error) {
	if err := ValidateROI(cfg.ROI); err != nil {
		return nil, err
	}
	return &Rectifier{cfg: cfg}, nil
}

// Homography возвращает преобразование для кадра заданного размера.
func (r *Rectifier) Homography(width, height int) (entity.Homography, error) {
	if r.cached != nil && r.width == width && r.height == height {
		return *r.cached, nil
	}
	h, err := ComputeHomography(r.cfg.ROI, width, height)
	if err != nil {
		return entity.Homography{}, err
	}
	r.width, r.height = width, height
	r.cached = &h
	return h, nil
}

// Rectify переводит кадр в вид сверху того же размера
func (r *Rectifier) Rectify(frame *entity.Frame) (*entity.Frame, entity.Homography, error) {
	if frame == nil {
		return nil, entity.Homography{}, fmt.Errorf("%w: nil frame", ErrUnsupportedFrame)
	}
	if frame.Empty() {
		return entity.NewFrame(frame.Width, frame.Height, frame.Channels), entity.Homography{}, nil
	}
	h, err := r.Homography(frame.Width, frame.Height)
	if err != nil {
		return nil, entity.Homography{}, err
	}
	return warp(frame, h, r.cfg.Interpolation), h, nil
}

// ComputeHomography решает систему getPerspectiveTransform для ROI и полного кадра.
func ComputeHomography(roi entity.ROIConfig, width, height int) (entity.Homography, error) {
	if width <= 0 || height <= 0 {
		return entity.Homography{}, fmt.Errorf("%w: frame size %dx%d", ErrDegenerateROI, width, height)
	}
	src := roi.Quad(width, height)
	if !src.Convex() {
		return entity.Homography{}, fmt.Errorf("%w: quad %v", ErrDegenerateROI, src)
	}
	dst := entity.Rect(width, height)

	forward, err := perspectiveTransform(src, dst)
	if err != nil {
		return entity.Homography{}, err
	}
	inverse, err := perspectiveTransform(dst, src)
	if err != nil {
		return entity.Homography{}, err
	}
	return entity.Homography{Forward: forward, Inverse: inverse}, nil
}

// perspectiveTransform находит матрицу, переводящую src в dst (h33 = 1)
func perspectiveTransform(src, dst entity.Quad) ([9]float64, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -x * u, -y * u})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -x * v, -y * v})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		return [9]float64{}, fmt.Errorf("%w: %v", ErrDegenerateROI, err)
	}

	var m [9]float64
	for i := 0; i < 8; i++ {
		m[i] = h.AtVec(i)
	}
	m[8] = 1
	return m, nil
}

// warp для каждого пикселя результата берёт пиксель исходника по обратной матрице
func warp(frame *entity.Frame, h entity.Homography, interp Interpolation) *entity.Frame {
	w, ht, ch := frame.Width, frame.Height, frame.Channels
	out := entity.NewFrame(w, ht, ch)
	for y := 0; y < ht; y++ {
		for x := 0; x < w; x++ {
			p := h.ApplyInverse(entity.Point{X: float64(x), Y: float64(y)})
			switch interp {
			case InterpolationLinear:
				sampleLinear(frame, out, x, y, p)
			default:
				sx := int(math.Round(p.X))
				sy := int(math.Round(p.Y))
				if sx < 0 || sy < 0 || sx >= w || sy >= ht {
					continue
				}
				copy(out.Pix[(y*w+x)*ch:(y*w+x+1)*ch], frame.Pix[(sy*w+sx)*ch:(sy*w+sx+1)*ch])
			}
		}
	}
	return out
}

func sampleLinear(src, dst *entity.Frame, x, y int, p entity.Point) {
	x0 := int(math.Floor(p.X))
	y0 := int(math.Floor(p.Y))
	fx := p.X - float64(x0)
	fy := p.Y - float64(y0)
	if x0 < -1 || y0 < -1 || x0 >= src.Width || y0 >= src.Height {
		return
	}
	at := func(xx, yy, c int) float64 {
		if xx < 0 || yy < 0 || xx >= src.Width || yy >= src.Height {
			return 0
		}
		return float64(src.At(xx, yy, c))
	}
	for c := 0; c < src.Channels; c++ {
		v := at(x0, y0, c)*(1-fx)*(1-fy) +
			at(x0+1, y0, c)*fx*(1-fy) +
			at(x0, y0+1, c)*(1-fx)*fy +
			at(x0+1, y0+1, c)*fx*fy
		dst.Set(x, y, c, saturate(math.Round(v)))
	}
}

// Проверка реализации интерфейса
var _ port.Rectifier = (*Rectifier)(nil)
