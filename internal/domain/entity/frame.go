package entity

import "fmt"

// Frame кадр фиксированного размера: BGR (3 канала) или gray/бинарный (1 канал)
type Frame struct {
	Width    int     // ширина в пикселях
	Height   int     // высота в пикселях
	Channels int     // 1 или 3
	Pix      []uint8 // построчно, каналы подряд (B, G, R)
}

// NewFrame создаёт чёрный кадр заданного размера
func NewFrame(width, height, channels int) *Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Frame{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// NewFrameFromBytes оборачивает готовый буфер пикселей в кадр.
func NewFrameFromBytes(width, height, channels int, pix []uint8) (*Frame, error) {
	if channels != 1 && channels != 3 {
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}
	if len(pix) != width*height*channels {
		return nil, fmt.Errorf("pixel buffer size %d does not match %dx%dx%d", len(pix), width, height, channels)
	}
	return &Frame{Width: width, Height: height, Channels: channels, Pix: pix}, nil
}

// Empty сообщает, что у кадра нет ни одного пикселя
func (f *Frame) Empty() bool {
	return f == nil || f.Width == 0 || f.Height == 0
}

// At возвращает значение канала c в точке (x, y)
func (f *Frame) At(x, y, c int) uint8 {
	return f.Pix[(y*f.Width+x)*f.Channels+c]
}

// Set записывает значение канала c в точке (x, y)
func (f *Frame) Set(x, y, c int, v uint8) {
	f.Pix[(y*f.Width+x)*f.Channels+c] = v
}

// SetBGR закрашивает пиксель цветного кадра
func (f *Frame) SetBGR(x, y int, b, g, r uint8) {
	i := (y*f.Width + x) * f.Channels
	f.Pix[i] = b
	f.Pix[i+1] = g
	f.Pix[i+2] = r
}

// Clone возвращает независимую копию кадра
func (f *Frame) Clone() *Frame {
	pix := make([]uint8, len(f.Pix))
	copy(pix, f.Pix)
	return &Frame{Width: f.Width, Height: f.Height, Channels: f.Channels, Pix: pix}
}

// SameSize сообщает, совпадают ли размеры кадров
func (f *Frame) SameSize(other *Frame) bool {
	return f.Width == other.Width && f.Height == other.Height
}

// CountNonZero считает ненулевые пиксели одноканального кадра
func (f *Frame) CountNonZero() int {
	n := 0
	for _, v := range f.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// NonZero возвращает координаты всех ненулевых пикселей маски
func (f *Frame) NonZero() (xs, ys []int) {
	for y := 0; y < f.Height; y++ {
		row := f.Pix[y*f.Width : (y+1)*f.Width]
		for x, v := range row {
			if v != 0 {
				xs = append(xs, x)
				ys = append(ys, y)
			}
		}
	}
	return xs, ys
}
