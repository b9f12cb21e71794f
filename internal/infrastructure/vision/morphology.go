package vision

import (
	"fmt"

	"lane-pilot/internal/domain/entity"
)

// MorphKind вид морфологической операции
type MorphKind string

const (
	MorphOpen   MorphKind = "open"
	MorphClose  MorphKind = "close"
	MorphErode  MorphKind = "erode"
	MorphDilate MorphKind = "dilate"
)

// MorphOp один шаг очистки маски: квадратное ядро Kernel x Kernel, Iterations повторов
type MorphOp struct {
	Kind       MorphKind
	Kernel     int
	Iterations int
}

// DefaultMorphology порядок open -> erode -> erode -> close -> dilate -> close -> close
func DefaultMorphology() []MorphOp {
	return []MorphOp{
		{Kind: MorphOpen, Kernel: 5, Iterations: 1},
		{Kind: MorphErode, Kernel: 5, Iterations: 1},
		{Kind: MorphErode, Kernel: 3, Iterations: 1},
		{Kind: MorphClose, Kernel: 5, Iterations: 1},
		{Kind: MorphDilate, Kernel: 3, Iterations: 5},
		{Kind: MorphClose, Kernel: 5, Iterations: 1},
		{Kind: MorphClose, Kernel: 3, Iterations: 1},
	}
}

// Validate проверяет параметры шага
func (op MorphOp) Validate() error {
	switch op.Kind {
	case MorphOpen, MorphClose, MorphErode, MorphDilate:
	default:
		return fmt.Errorf("unknown morphology op %q", op.Kind)
	}
	if op.Kernel < 1 || op.Kernel%2 == 0 {
		return fmt.Errorf("morphology %s: kernel size must be odd and positive, got %d", op.Kind, op.Kernel)
	}
	if op.Iterations < 1 {
		return fmt.Errorf("morphology %s: iterations must be positive, got %d", op.Kind, op.Iterations)
	}
	return nil
}

// applyMorphology прогоняет маску через все шаги по порядку
func applyMorphology(mask *entity.Frame, ops []MorphOp) *entity.Frame {
	out := mask
	for _, op := range ops {
		for i := 0; i < op.Iterations; i++ {
			switch op.Kind {
			case MorphErode:
				out = erode(out, op.Kernel)
			case MorphDilate:
				out = dilate(out, op.Kernel)
			case MorphOpen:
				out = dilate(erode(out, op.Kernel), op.Kernel)
			case MorphClose:
				out = erode(dilate(out, op.Kernel), op.Kernel)
			}
		}
	}
	return out
}

// erode минимум по квадратному окну; пиксели за границей кадра не учитываются
func erode(mask *entity.Frame, k int) *entity.Frame {
	return rankFilter(mask, k, func(a, b uint8) uint8 {
		if a < b {
			return a
		}
		return b
	}, 255)
}

// dilate максимум по квадратному окну
func dilate(mask *entity.Frame, k int) *entity.Frame {
	return rankFilter(mask, k, func(a, b uint8) uint8 {
		if a > b {
			return a
		}
		return b
	}, 0)
}

// rankFilter сепарабельный фильтр: сначала по строкам, затем по столбцам.
func rankFilter(mask *entity.Frame, k int, pick func(a, b uint8) uint8, identity uint8) *entity.Frame {
	w, h := mask.Width, mask.Height
	r := k / 2

	rows := entity.NewFrame(w, h, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			acc := identity
			for dx := -r; dx <= r; dx++ {
				xx := x + dx
				if xx < 0 || xx >= w {
					continue
				}
				acc = pick(acc, mask.Pix[y*w+xx])
			}
			rows.Pix[y*w+x] = acc
		}
	}

	out := entity.NewFrame(w, h, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			acc := identity
			for dy := -r; dy <= r; dy++ {
				yy := y + dy
				if yy < 0 || yy >= h {
					continue
				}
				acc = pick(acc, rows.Pix[yy*w+x])
			}
			out.Pix[y*w+x] = acc
		}
	}
	return out
}
