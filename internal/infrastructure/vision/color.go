package vision

import (
	"math"

	"lane-pilot/internal/domain/entity"
)

// HSVRange диапазон цвета в HSV по соглашениям OpenCV (H 0..179, S и V 0..255), границы включены
type HSVRange struct {
	Min [3]uint8
	Max [3]uint8
}

// Contains проверяет попадание пикселя в диапазон
func (r HSVRange) Contains(h, s, v uint8) bool {
	return h >= r.Min[0] && h <= r.Max[0] &&
		s >= r.Min[1] && s <= r.Max[1] &&
		v >= r.Min[2] && v <= r.Max[2]
}

// bgrToHSV переводит пиксель в HSV так же, как COLOR_BGR2HSV для 8 бит.
func bgrToHSV(b, g, r uint8) (h, s, v uint8) {
	bf, gf, rf := float64(b), float64(g), float64(r)
	maxV := math.Max(bf, math.Max(gf, rf))
	minV := math.Min(bf, math.Min(gf, rf))
	delta := maxV - minV

	v = uint8(maxV)
	if maxV == 0 {
		return 0, 0, v
	}
	s = uint8(math.Round(delta * 255 / maxV))
	if delta == 0 {
		return 0, s, v
	}

	var hue float64
	switch maxV {
	case rf:
		hue = 60 * (gf - bf) / delta
	case gf:
		hue = 120 + 60*(bf-rf)/delta
	default:
		hue = 240 + 60*(rf-gf)/delta
	}
	if hue < 0 {
		hue += 360
	}
	hv := math.Round(hue / 2)
	if hv >= 180 {
		hv -= 180
	}
	return uint8(hv), s, v
}

// bgrToGray яркость по формуле COLOR_BGR2GRAY
func bgrToGray(b, g, r uint8) uint8 {
	return uint8(math.Round(0.114*float64(b) + 0.587*float64(g) + 0.299*float64(r)))
}

// grayscale строит одноканальную копию цветного кадра
func grayscale(frame *entity.Frame) *entity.Frame {
	out := entity.NewFrame(frame.Width, frame.Height, 1)
	for i := 0; i < frame.Width*frame.Height; i++ {
		p := frame.Pix[i*3 : i*3+3]
		out.Pix[i] = bgrToGray(p[0], p[1], p[2])
	}
	return out
}

// hsvMask отмечает 255 пиксели, попавшие в диапазон
func hsvMask(frame *entity.Frame, r HSVRange) *entity.Frame {
	out := entity.NewFrame(frame.Width, frame.Height, 1)
	for i := 0; i < frame.Width*frame.Height; i++ {
		p := frame.Pix[i*3 : i*3+3]
		h, s, v := bgrToHSV(p[0], p[1], p[2])
		if r.Contains(h, s, v) {
			out.Pix[i] = 255
		}
	}
	return out
}

// equalizeHist выравнивание гистограммы по алгоритму cv::equalizeHist
func equalizeHist(gray *entity.Frame) *entity.Frame {
	out := entity.NewFrame(gray.Width, gray.Height, 1)
	total := len(gray.Pix)
	if total == 0 {
		return out
	}

	var hist [256]int
	for _, v := range gray.Pix {
		hist[v]++
	}

	first := 0
	for first < 255 && hist[first] == 0 {
		first++
	}
	if hist[first] == total {
		for i := range out.Pix {
			out.Pix[i] = uint8(first)
		}
		return out
	}

	var lut [256]uint8
	scale := 255.0 / float64(total-hist[first])
	sum := 0
	for i := first + 1; i < 256; i++ {
		sum += hist[i]
		lut[i] = saturate(math.Round(float64(sum) * scale))
	}

	for i, v := range gray.Pix {
		out.Pix[i] = lut[v]
	}
	return out
}

// threshold бинарный порог: 255 там, где значение строго больше thresh
func threshold(gray *entity.Frame, thresh uint8) *entity.Frame {
	out := entity.NewFrame(gray.Width, gray.Height, 1)
	for i, v := range gray.Pix {
		if v > thresh {
			out.Pix[i] = 255
		}
	}
	return out
}

// gaussianBlur5 размытие ядром 5x5 (1 4 6 4 1)/16 с отражением на границах
func gaussianBlur5(frame *entity.Frame) *entity.Frame {
	kernel := [5]int{1, 4, 6, 4, 1}
	w, h, ch := frame.Width, frame.Height, frame.Channels

	tmp := make([]int, len(frame.Pix))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < ch; c++ {
				acc := 0
				for k := -2; k <= 2; k++ {
					xx := reflect101(x+k, w)
					acc += kernel[k+2] * int(frame.Pix[(y*w+xx)*ch+c])
				}
				tmp[(y*w+x)*ch+c] = acc
			}
		}
	}

	out := entity.NewFrame(w, h, ch)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < ch; c++ {
				acc := 0
				for k := -2; k <= 2; k++ {
					yy := reflect101(y+k, h)
					acc += kernel[k+2] * tmp[(yy*w+x)*ch+c]
				}
				out.Pix[(y*w+x)*ch+c] = uint8((acc + 128) / 256)
			}
		}
	}
	return out
}

// reflect101 индекс с отражением без повтора крайнего пикселя (BORDER_REFLECT_101)
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

func saturate(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// orMasks объединяет маски логическим ИЛИ
func orMasks(dst *entity.Frame, masks ...*entity.Frame) {
	for _, m := range masks {
		for i, v := range m.Pix {
			if v != 0 {
				dst.Pix[i] = 255
			}
		}
	}
}
