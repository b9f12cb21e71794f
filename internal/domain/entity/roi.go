package entity

// Point точка на плоскости изображения
type Point struct {
	X float64
	Y float64
}

// ROIConfig параметры трапеции "дорога впереди" в долях размера кадра
type ROIConfig struct {
	HeightFactor     float64 // на какой доле высоты начинается дорога
	WidthFactor      float64 // полуширина верхней стороны трапеции
	LowerWidthFactor float64 // расширение нижней стороны за края кадра
}

// DefaultROIConfig возвращает параметры, подобранные на трассе
func DefaultROIConfig() ROIConfig {
	return ROIConfig{
		HeightFactor:     0.4,
		WidthFactor:      0.1,
		LowerWidthFactor: 0,
	}
}

// Quad четырёхугольник ROI: верх-право, низ-право, низ-лево, верх-лево
type Quad [4]Point

// Quad строит трапецию для кадра заданного размера.
func (c ROIConfig) Quad(width, height int) Quad {
	w := float64(width)
	h := float64(height)
	top := c.HeightFactor * h
	return Quad{
		{X: (0.5 + c.WidthFactor) * w, Y: top},
		{X: (1 + c.LowerWidthFactor) * w, Y: h},
		{X: -c.LowerWidthFactor * w, Y: h},
		{X: (0.5 - c.WidthFactor) * w, Y: top},
	}
}

// Rect возвращает прямоугольник во весь кадр в том же порядке вершин
func Rect(width, height int) Quad {
	w := float64(width)
	h := float64(height)
	return Quad{
		{X: w, Y: 0},
		{X: w, Y: h},
		{X: 0, Y: h},
		{X: 0, Y: 0},
	}
}

// Convex проверяет, что вершины образуют строго выпуклый четырёхугольник.
func (q Quad) Convex() bool {
	sign := 0
	for i := 0; i < 4; i++ {
		a := q[i]
		b := q[(i+1)%4]
		c := q[(i+2)%4]
		cross := (b.X-a.X)*(c.Y-b.Y) - (b.Y-a.Y)*(c.X-b.X)
		if cross > -1e-9 && cross < 1e-9 {
			return false
		}
		s := 1
		if cross < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if s != sign {
			return false
		}
	}
	return true
}

// Homography проективное преобразование 3x3 (построчно) и обратное к нему
type Homography struct {
	Forward [9]float64
	Inverse [9]float64
}

// Apply переводит точку прямым преобразованием
func (h Homography) Apply(p Point) Point {
	return project(h.Forward, p)
}

// ApplyInverse переводит точку обратным преобразованием
func (h Homography) ApplyInverse(p Point) Point {
	return project(h.Inverse, p)
}

func project(m [9]float64, p Point) Point {
	w := m[6]*p.X + m[7]*p.Y + m[8]
	if w == 0 {
		return Point{}
	}
	return Point{
		X: (m[0]*p.X + m[1]*p.Y + m[2]) / w,
		Y: (m[3]*p.X + m[4]*p.Y + m[5]) / w,
	}
}
