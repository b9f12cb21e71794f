package vision

import (
	"errors"
	"fmt"

	"lane-pilot/internal/domain/entity"
	"lane-pilot/internal/domain/port"
)

// ErrUnsupportedFrame кадр не того формата, что ожидает стадия
var ErrUnsupportedFrame = errors.New("unsupported frame")

// BinarizerConfig пороги цвета и порядок морфологии
type BinarizerConfig struct {
	Blur           bool      // размыть кадр 5x5 перед порогами
	Yellow         HSVRange  // жёлтая разметка
	Orange         HSVRange  // оранжевые конусы и маркеры
	WhiteThreshold uint8     // порог после выравнивания гистограммы
	Morphology     []MorphOp // шаги очистки маски по порядку
}

// DefaultBinarizerConfig возвращает пороги, подобранные на трассе
func DefaultBinarizerConfig() BinarizerConfig {
	return BinarizerConfig{
		Blur: true,
		Yellow: HSVRange{
			Min: [3]uint8{0, 70, 70},
			Max: [3]uint8{50, 255, 255},
		},
		Orange: HSVRange{
			Min: [3]uint8{5, 150, 150},
			Max: [3]uint8{25, 255, 255},
		},
		WhiteThreshold: 250,
		Morphology:     DefaultMorphology(),
	}
}

// Validate проверяет конфигурацию
func (c BinarizerConfig) Validate() error {
	for _, r := range []HSVRange{c.Yellow, c.Orange} {
		if r.Min[0] > 179 || r.Max[0] > 179 {
			return fmt.Errorf("hue bounds must be within 0..179, got %v-%v", r.Min, r.Max)
		}
		for i := 0; i < 3; i++ {
			if r.Min[i] > r.Max[i] {
				return fmt.Errorf("hsv lower bound %v exceeds upper bound %v", r.Min, r.Max)
			}
		}
	}
	for _, op := range c.Morphology {
		if err := op.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Binarizer выделяет разметку без OpenCV
type Binarizer struct {
	cfg BinarizerConfig
}

// NewBinarizer создаёт бинаризатор с проверенной конфигурацией
func NewBinarizer(cfg BinarizerConfig) (*Binarizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("binarizer config: %w", err)
	}
	return &Binarizer{cfg: cfg}, nil
}

// Binarize строит маску: жёлтый | оранжевый | яркий белый, затем морфология.
func (b *Binarizer) Binarize(frame *entity.Frame) (*entity.Frame, error) {
	if frame == nil {
		return nil, fmt.Errorf("%w: nil frame", ErrUnsupportedFrame)
	}
	if frame.Empty() {
		return entity.NewFrame(frame.Width, frame.Height, 1), nil
	}
	if frame.Channels != 3 {
		return nil, fmt.Errorf("%w: expected 3 channels, got %d", ErrUnsupportedFrame, frame.Channels)
	}
	// Однородный кадр не несёт признаков; выравнивание гистограммы сделало бы его белым.
	if uniform(frame) {
		return entity.NewFrame(frame.Width, frame.Height, 1), nil
	}

	src := frame
	if b.cfg.Blur {
		src = gaussianBlur5(frame)
	}

	yellow := hsvMask(src, b.cfg.Yellow)
	orange := hsvMask(src, b.cfg.Orange)
	white := threshold(equalizeHist(grayscale(src)), b.cfg.WhiteThreshold)

	mask := entity.NewFrame(frame.Width, frame.Height, 1)
	orMasks(mask, yellow, orange, white)

	return applyMorphology(mask, b.cfg.Morphology), nil
}

func uniform(frame *entity.Frame) bool {
	first := frame.Pix[:frame.Channels]
	for i := frame.Channels; i < len(frame.Pix); i += frame.Channels {
		for c := 0; c < frame.Channels; c++ {
			if frame.Pix[i+c] != first[c] {
				return false
			}
		}
	}
	return true
}

// Проверка реализации интерфейса
var _ port.Binarizer = (*Binarizer)(nil)
