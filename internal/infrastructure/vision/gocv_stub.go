//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"

	"lane-pilot/internal/domain/entity"
)

// DefaultBackend без OpenCV доступна только собственная реализация
const DefaultBackend = BackendNative

var errGoCVDisabled = errors.New("gocv build tag is not enabled")

// GoCVBinarizer заглушка без OpenCV
type GoCVBinarizer struct{}

// NewGoCVBinarizer возвращает ошибку, если сборка без тега gocv.
func NewGoCVBinarizer(cfg BinarizerConfig) (*GoCVBinarizer, error) {
	_ = cfg
	return nil, errGoCVDisabled
}

// Binarize возвращает ошибку, если сборка без тега gocv.
func (b *GoCVBinarizer) Binarize(frame *entity.Frame) (*entity.Frame, error) {
	_ = frame
	return nil, errGoCVDisabled
}

// GoCVRectifier заглушка без OpenCV
type GoCVRectifier struct{}

// NewGoCVRectifier возвращает ошибку, если сборка без тега gocv.
func NewGoCVRectifier(cfg RectifierConfig) (*GoCVRectifier, error) {
	_ = cfg
	return nil, errGoCVDisabled
}

// Rectify возвращает ошибку, если сборка без тега gocv.
func (r *GoCVRectifier) Rectify(frame *entity.Frame) (*entity.Frame, entity.Homography, error) {
	_ = frame
	return nil, entity.Homography{}, errGoCVDisabled
}

// Close ничего не делает.
func (r *GoCVRectifier) Close() error {
	return nil
}

// HoughPathfinder заглушка без OpenCV
type HoughPathfinder struct{}

// NewHoughPathfinder возвращает ошибку, если сборка без тега gocv.
func NewHoughPathfinder() (*HoughPathfinder, error) {
	return nil, errGoCVDisabled
}

// ComputeAngle возвращает ошибку, если сборка без тега gocv.
func (p *HoughPathfinder) ComputeAngle(ctx context.Context, mask *entity.Frame) (float64, error) {
	_ = ctx
	_ = mask
	return 0, errGoCVDisabled
}

// CaptureSource заглушка без OpenCV
type CaptureSource struct{}

// OpenCaptureSource возвращает ошибку, если сборка без тега gocv.
func OpenCaptureSource(device string) (*CaptureSource, error) {
	_ = device
	return nil, errGoCVDisabled
}

// Next возвращает ошибку, если сборка без тега gocv.
func (s *CaptureSource) Next(ctx context.Context) (*entity.Frame, error) {
	_ = ctx
	return nil, errGoCVDisabled
}

// Close ничего не делает.
func (s *CaptureSource) Close() error {
	return nil
}
