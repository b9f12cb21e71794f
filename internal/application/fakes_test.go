package app

import (
	"context"
	"errors"
	"io"
	"sync"

	"lane-pilot/internal/domain/entity"
)

type passBinarizer struct {
	err error
}

func (b *passBinarizer) Binarize(frame *entity.Frame) (*entity.Frame, error) {
	if b.err != nil {
		return nil, b.err
	}
	return entity.NewFrame(frame.Width, frame.Height, 1), nil
}

type passRectifier struct{}

func (passRectifier) Rectify(frame *entity.Frame) (*entity.Frame, entity.Homography, error) {
	return frame, entity.Homography{}, nil
}

// scriptedPathfinder отдаёт углы и ошибки по очереди
type scriptedPathfinder struct {
	angles []float64
	errs   []error
	calls  int
}

func (p *scriptedPathfinder) ComputeAngle(ctx context.Context, mask *entity.Frame) (float64, error) {
	i := p.calls
	p.calls++
	var err error
	if i < len(p.errs) {
		err = p.errs[i]
	}
	if err != nil {
		return 0, err
	}
	return p.angles[i], nil
}

type sliceSource struct {
	frames int
	served int
	err    error
}

func (s *sliceSource) Next(ctx context.Context) (*entity.Frame, error) {
	if s.served >= s.frames {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	s.served++
	return entity.NewFrame(8, 6, 3), nil
}

func (s *sliceSource) Close() error { return nil }

type recordingSink struct {
	mu   sync.Mutex
	cmds []entity.SteeringCommand
	err  error
}

func (s *recordingSink) Submit(ctx context.Context, cmd entity.SteeringCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.cmds = append(s.cmds, cmd)
	return nil
}

var errBoom = errors.New("boom")
