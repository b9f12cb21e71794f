package entity

import "math"

// Side сторона полосы
type Side string

const (
	SideLeft  Side = "left"  // левая граница
	SideRight Side = "right" // правая граница
)

// DefaultHistoryDepth глубина истории аппроксимаций по умолчанию
const DefaultHistoryDepth = 10

// Poly2 квадратичная модель линии x = A*y^2 + B*y + C в координатах вида сверху
type Poly2 struct {
	A float64
	B float64
	C float64
}

// Eval вычисляет x для строки y
func (p Poly2) Eval(y float64) float64 {
	return p.A*y*y + p.B*y + p.C
}

// Slope возвращает dx/dy в строке y
func (p Poly2) Slope(y float64) float64 {
	return 2*p.A*y + p.B
}

// Scale переводит коэффициенты из пикселей в метры.
func (p Poly2) Scale(xPerPix, yPerPix float64) Poly2 {
	return Poly2{
		A: p.A * xPerPix / (yPerPix * yPerPix),
		B: p.B * xPerPix / yPerPix,
		C: p.C * xPerPix,
	}
}

// RadiusAt радиус кривизны в точке y; для прямой +Inf
func (p Poly2) RadiusAt(y float64) float64 {
	k := p.CurvatureAt(y)
	if k == 0 {
		return math.Inf(1)
	}
	return 1 / k
}

// CurvatureAt кривизна (1/радиус) в точке y
func (p Poly2) CurvatureAt(y float64) float64 {
	d := p.Slope(y)
	return math.Abs(2*p.A) / math.Pow(1+d*d, 1.5)
}

// LaneLine одна граница полосы; живёт всё время работы конвейера
type LaneLine struct {
	Side            Side
	Detected        bool    // найдена ли линия на последнем кадре
	Fit             Poly2   // последняя удачная аппроксимация
	PixelsX         []int   // пиксели, на которых построена аппроксимация
	PixelsY         []int
	CurvatureMeters float64 // радиус кривизны, м

	hasFit  bool
	history []Poly2
	next    int
	size    int
}

// NewLaneLine создаёт линию с историей заданной глубины
func NewLaneLine(side Side, historyDepth int) *LaneLine {
	if historyDepth <= 0 {
		historyDepth = DefaultHistoryDepth
	}
	return &LaneLine{
		Side:            side,
		CurvatureMeters: math.Inf(1),
		history:         make([]Poly2, historyDepth),
	}
}

// HasFit сообщает, была ли хоть одна удачная аппроксимация
func (l *LaneLine) HasFit() bool {
	return l.hasFit
}

// Accept принимает новую аппроксимацию и кладёт её в историю.
func (l *LaneLine) Accept(fit Poly2, xs, ys []int) {
	l.Detected = true
	l.Fit = fit
	l.PixelsX = xs
	l.PixelsY = ys
	l.hasFit = true

	l.history[l.next] = fit
	l.next = (l.next + 1) % len(l.history)
	if l.size < len(l.history) {
		l.size++
	}
}

// Reject отмечает линию ненайденной; прежняя аппроксимация сохраняется.
func (l *LaneLine) Reject(xs, ys []int) {
	l.Detected = false
	l.PixelsX = xs
	l.PixelsY = ys
}

// History возвращает аппроксимации от самой старой к самой новой
func (l *LaneLine) History() []Poly2 {
	out := make([]Poly2, 0, l.size)
	start := (l.next - l.size + len(l.history)) % len(l.history)
	for i := 0; i < l.size; i++ {
		out = append(out, l.history[(start+i)%len(l.history)])
	}
	return out
}

// AverageFit усредняет коэффициенты по истории; без истории возвращает текущую
func (l *LaneLine) AverageFit() Poly2 {
	if l.size == 0 {
		return l.Fit
	}
	var sum Poly2
	for _, p := range l.History() {
		sum.A += p.A
		sum.B += p.B
		sum.C += p.C
	}
	n := float64(l.size)
	return Poly2{A: sum.A / n, B: sum.B / n, C: sum.C / n}
}

// Reset забывает аппроксимации (например, после смены размера кадра)
func (l *LaneLine) Reset() {
	l.Detected = false
	l.Fit = Poly2{}
	l.PixelsX = nil
	l.PixelsY = nil
	l.CurvatureMeters = math.Inf(1)
	l.hasFit = false
	l.next = 0
	l.size = 0
}
