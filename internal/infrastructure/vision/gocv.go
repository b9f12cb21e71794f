//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"gocv.io/x/gocv"

	"lane-pilot/internal/domain/entity"
	"lane-pilot/internal/domain/port"
)

// DefaultBackend в сборке с OpenCV обработка идёт через gocv
const DefaultBackend = BackendGoCV

// Параметры поиска отрезков Хафа
const (
	HoughThreshold     = 20
	HoughMinLineLength = 50
	HoughMaxLineGap    = 5
)

// GoCVBinarizer тот же алгоритм бинаризации на OpenCV
type GoCVBinarizer struct {
	cfg BinarizerConfig
}

// NewGoCVBinarizer создаёт бинаризатор на OpenCV.
func NewGoCVBinarizer(cfg BinarizerConfig) (*GoCVBinarizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("binarizer config: %w", err)
	}
	return &GoCVBinarizer{cfg: cfg}, nil
}

// Binarize строит маску разметки.
func (b *GoCVBinarizer) Binarize(frame *entity.Frame) (*entity.Frame, error) {
	if frame == nil {
		return nil, fmt.Errorf("%w: nil frame", ErrUnsupportedFrame)
	}
	if frame.Empty() {
		return entity.NewFrame(frame.Width, frame.Height, 1), nil
	}
	if frame.Channels != 3 {
		return nil, fmt.Errorf("%w: expected 3 channels, got %d", ErrUnsupportedFrame, frame.Channels)
	}
	if uniform(frame) {
		return entity.NewFrame(frame.Width, frame.Height, 1), nil
	}

	src, err := frameToMat(frame)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	if b.cfg.Blur {
		gocv.GaussianBlur(src, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)
	} else {
		src.CopyTo(&blurred)
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(blurred, &hsv, gocv.ColorBGRToHSV)

	yellow := gocv.NewMat()
	defer yellow.Close()
	gocv.InRangeWithScalar(hsv, scalar(b.cfg.Yellow.Min), scalar(b.cfg.Yellow.Max), &yellow)

	orange := gocv.NewMat()
	defer orange.Close()
	gocv.InRangeWithScalar(hsv, scalar(b.cfg.Orange.Min), scalar(b.cfg.Orange.Max), &orange)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(blurred, &gray, gocv.ColorBGRToGray)

	equalized := gocv.NewMat()
	defer equalized.Close()
	gocv.EqualizeHist(gray, &equalized)

	white := gocv.NewMat()
	defer white.Close()
	gocv.Threshold(equalized, &white, float32(b.cfg.WhiteThreshold), 255, gocv.ThresholdBinary)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.BitwiseOr(yellow, orange, &mask)
	gocv.BitwiseOr(mask, white, &mask)

	for _, op := range b.cfg.Morphology {
		kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(op.Kernel, op.Kernel))
		for i := 0; i < op.Iterations; i++ {
			next := gocv.NewMat()
			switch op.Kind {
			case MorphOpen:
				gocv.MorphologyEx(mask, &next, gocv.MorphOpen, kernel)
			case MorphClose:
				gocv.MorphologyEx(mask, &next, gocv.MorphClose, kernel)
			case MorphErode:
				gocv.Erode(mask, &next, kernel)
			case MorphDilate:
				gocv.Dilate(mask, &next, kernel)
			}
			mask.Close()
			mask = next
		}
		kernel.Close()
	}

	return matToFrame(mask)
}

// GoCVRectifier вид сверху через cv::warpPerspective
type GoCVRectifier struct {
	cfg    RectifierConfig
	width  int
	height int
	cached *entity.Homography
	matrix gocv.Mat
}

// NewGoCVRectifier создаёт ректификатор на OpenCV.
func NewGoCVRectifier(cfg RectifierConfig) (*GoCVRectifier, error) {
	if err := ValidateROI(cfg.ROI); err != nil {
		return nil, err
	}
	return &GoCVRectifier{cfg: cfg, matrix: gocv.NewMat()}, nil
}

// Rectify переводит кадр в вид сверху.
func (r *GoCVRectifier) Rectify(frame *entity.Frame) (*entity.Frame, entity.Homography, error) {
	if frame == nil {
		return nil, entity.Homography{}, fmt.Errorf("%w: nil frame", ErrUnsupportedFrame)
	}
	if frame.Empty() {
		return entity.NewFrame(frame.Width, frame.Height, frame.Channels), entity.Homography{}, nil
	}
	if r.cached == nil || r.width != frame.Width || r.height != frame.Height {
		if err := r.prepare(frame.Width, frame.Height); err != nil {
			return nil, entity.Homography{}, err
		}
	}

	src, err := frameToMat(frame)
	if err != nil {
		return nil, entity.Homography{}, err
	}
	defer src.Close()

	flags := gocv.InterpolationNearestNeighbor
	if r.cfg.Interpolation == InterpolationLinear {
		flags = gocv.InterpolationLinear
	}
	warped := gocv.NewMat()
	defer warped.Close()
	gocv.WarpPerspectiveWithParams(src, &warped, r.matrix, image.Pt(frame.Width, frame.Height),
		flags, gocv.BorderConstant, color.RGBA{})

	out, err := matToFrame(warped)
	if err != nil {
		return nil, entity.Homography{}, err
	}
	return out, *r.cached, nil
}

// Close освобождает матрицу преобразования
func (r *GoCVRectifier) Close() error {
	return r.matrix.Close()
}

func (r *GoCVRectifier) prepare(width, height int) error {
	h, err := ComputeHomography(r.cfg.ROI, width, height)
	if err != nil {
		return err
	}
	src := r.cfg.ROI.Quad(width, height)
	dst := entity.Rect(width, height)

	srcVec := gocv.NewPoint2fVectorFromPoints(toPoint2f(src))
	defer srcVec.Close()
	dstVec := gocv.NewPoint2fVectorFromPoints(toPoint2f(dst))
	defer dstVec.Close()

	m := gocv.GetPerspectiveTransform2f(srcVec, dstVec)
	r.matrix.Close()
	r.matrix = m
	r.width, r.height = width, height
	r.cached = &h
	return nil
}

// HoughPathfinder угол по среднему направлению отрезков Хафа
type HoughPathfinder struct{}

// NewHoughPathfinder создаёт стратегию на отрезках Хафа.
func NewHoughPathfinder() (*HoughPathfinder, error) {
	return &HoughPathfinder{}, nil
}

// ComputeAngle усредняет наклон отрезков относительно вертикали.
func (p *HoughPathfinder) ComputeAngle(ctx context.Context, mask *entity.Frame) (float64, error) {
	_ = ctx
	if mask == nil || mask.Empty() {
		return 0, fmt.Errorf("%w: empty mask", ErrUnsupportedFrame)
	}
	src, err := frameToMat(mask)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(src, &edges, 50, 100)

	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLinesPWithParams(edges, &lines, 1, math.Pi/180, HoughThreshold, HoughMinLineLength, HoughMaxLineGap)

	var sum, weight float64
	for i := 0; i < lines.Rows(); i++ {
		l := lines.GetVeciAt(i, 0)
		dx := float64(l[2] - l[0])
		dy := float64(l[3] - l[1])
		if dy > 0 {
			dx, dy = -dx, -dy
		}
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		// отрезок направлен вверх по кадру: dy < 0
		sum += math.Atan2(dx, -dy) * 180 / math.Pi * length
		weight += length
	}
	if weight == 0 {
		return 0, nil
	}
	return entity.ClampAngle(sum / weight), nil
}

// CaptureSource кадры с камеры или из видеофайла
type CaptureSource struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
}

// OpenCaptureSource открывает устройство (номер) или файл (путь).
func OpenCaptureSource(device string) (*CaptureSource, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open capture %q: %w", device, err)
	}
	return &CaptureSource{capture: capture, mat: gocv.NewMat()}, nil
}

// Next читает следующий кадр.
func (s *CaptureSource) Next(ctx context.Context) (*entity.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, io.EOF
	}
	return matToFrame(s.mat)
}

// Close освобождает камеру.
func (s *CaptureSource) Close() error {
	s.mat.Close()
	return s.capture.Close()
}

func frameToMat(frame *entity.Frame) (gocv.Mat, error) {
	mt := gocv.MatTypeCV8UC3
	if frame.Channels == 1 {
		mt = gocv.MatTypeCV8UC1
	}
	return gocv.NewMatFromBytes(frame.Height, frame.Width, mt, frame.Pix)
}

func matToFrame(m gocv.Mat) (*entity.Frame, error) {
	if m.Empty() {
		return nil, errors.New("empty mat")
	}
	return entity.NewFrameFromBytes(m.Cols(), m.Rows(), m.Channels(), m.ToBytes())
}

func scalar(v [3]uint8) gocv.Scalar {
	return gocv.NewScalar(float64(v[0]), float64(v[1]), float64(v[2]), 0)
}

func toPoint2f(q entity.Quad) []gocv.Point2f {
	out := make([]gocv.Point2f, 0, len(q))
	for _, p := range q {
		out = append(out, gocv.Point2f{X: float32(p.X), Y: float32(p.Y)})
	}
	return out
}

// Проверка реализации интерфейсов
var (
	_ port.Binarizer   = (*GoCVBinarizer)(nil)
	_ port.Rectifier   = (*GoCVRectifier)(nil)
	_ port.Pathfinder  = (*HoughPathfinder)(nil)
	_ port.FrameSource = (*CaptureSource)(nil)
)
