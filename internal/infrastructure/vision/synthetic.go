package vision

import (
	"context"
	"fmt"
	"io"
	"math"

	"lane-pilot/internal/domain/entity"
	"lane-pilot/internal/domain/port"
)

// SyntheticRoadConfig параметры искусственной дороги
type SyntheticRoadConfig struct {
	Width     int
	Height    int
	ROI       entity.ROIConfig
	LeftX     float64 // доля ширины, левая линия в виде сверху
	RightX    float64 // доля ширины, правая линия в виде сверху
	Bend      float64 // изгиб: сдвиг линий вверху кадра, доля ширины
	LineWidth float64 // толщина линии в виде сверху, пиксели
	Frames    int     // сколько кадров отдать; 0 значит бесконечно
	Asphalt   [3]uint8
	LineColor [3]uint8
}

// DefaultSyntheticRoadConfig прямая дорога 640x480 с жёлтыми линиями
func DefaultSyntheticRoadConfig() SyntheticRoadConfig {
	return SyntheticRoadConfig{
		Width:     640,
		Height:    480,
		ROI:       entity.DefaultROIConfig(),
		LeftX:     0.25,
		RightX:    0.75,
		LineWidth: 16,
		Asphalt:   [3]uint8{60, 60, 60},
		LineColor: [3]uint8{30, 220, 230},
	}
}

// SyntheticRoad источник кадров без камеры: линии нарисованы в перспективе ROI
type SyntheticRoad struct {
	cfg    SyntheticRoadConfig
	h      entity.Homography
	served int
}

// NewSyntheticRoad создаёт источник
func NewSyntheticRoad(cfg SyntheticRoadConfig) (*SyntheticRoad, error) {
	h, err := ComputeHomography(cfg.ROI, cfg.Width, cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("synthetic road: %w", err)
	}
	return &SyntheticRoad{cfg: cfg, h: h}, nil
}

// Next рисует очередной кадр
func (s *SyntheticRoad) Next(ctx context.Context) (*entity.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.cfg.Frames > 0 && s.served >= s.cfg.Frames {
		return nil, io.EOF
	}
	s.served++
	return s.Render(), nil
}

// Close ничего не освобождает
func (s *SyntheticRoad) Close() error {
	return nil
}

// Render рисует кадр дороги.
func (s *SyntheticRoad) Render() *entity.Frame {
	c := s.cfg
	frame := entity.NewFrame(c.Width, c.Height, 3)
	w := float64(c.Width)
	h := float64(c.Height)
	top := c.ROI.HeightFactor * h
	half := c.LineWidth / 2

	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			color := c.Asphalt
			if float64(y) >= top {
				p := s.h.Apply(entity.Point{X: float64(x), Y: float64(y)})
				// 0 внизу кадра, 1 вверху
				t := 1 - p.Y/h
				shift := c.Bend * w * t * t
				if math.Abs(p.X-(c.LeftX*w+shift)) <= half || math.Abs(p.X-(c.RightX*w+shift)) <= half {
					color = c.LineColor
				}
			}
			frame.SetBGR(x, y, color[0], color[1], color[2])
		}
	}
	return frame
}

// Проверка реализации интерфейса
var _ port.FrameSource = (*SyntheticRoad)(nil)
