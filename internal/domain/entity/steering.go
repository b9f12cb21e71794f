package entity

import (
	"fmt"
	"math"
)

// Пределы угла поворота, градусы
const (
	MaxTurnAngle = 90
	MinTurnAngle = -90
)

// DefaultAngleHistory глубина окна сглаживания угла
const DefaultAngleHistory = 5

// Mode режим управления машиной
type Mode int

const (
	ModeManual Mode = iota + 1
	ModeAuto
)

func (m Mode) String() string {
	switch m {
	case ModeManual:
		return "manual"
	case ModeAuto:
		return "auto"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// SteeringCommand команда на один кадр: угол, скорость, режим
type SteeringCommand struct {
	AngleDegrees int  // [-90, 90], минус влево
	Speed        int  // единицы контроллера
	Mode         Mode // manual или auto
}

// NewSteeringCommand собирает команду: угол насыщается и округляется до градуса
func NewSteeringCommand(angle float64, speed int, mode Mode) SteeringCommand {
	return SteeringCommand{
		AngleDegrees: int(math.Round(ClampAngle(angle))),
		Speed:        speed,
		Mode:         mode,
	}
}

// ClampAngle насыщает угол до [-90, 90] без переполнения
func ClampAngle(angle float64) float64 {
	if angle != angle {
		return 0
	}
	if angle > MaxTurnAngle {
		return MaxTurnAngle
	}
	if angle < MinTurnAngle {
		return MinTurnAngle
	}
	return angle
}

// AngleHistory кольцевой буфер последних углов со средним значением
type AngleHistory struct {
	buf  []float64
	next int
	size int
}

// NewAngleHistory создаёт буфер заданной ёмкости
func NewAngleHistory(capacity int) *AngleHistory {
	if capacity <= 0 {
		capacity = DefaultAngleHistory
	}
	return &AngleHistory{buf: make([]float64, capacity)}
}

// Push добавляет угол (вытесняя самый старый) и возвращает среднее
func (h *AngleHistory) Push(angle float64) float64 {
	if h.size < len(h.buf) {
		h.size++
	}
	h.buf[h.next] = angle
	h.next = (h.next + 1) % len(h.buf)
	return h.Mean()
}

// Mean среднее по имеющимся значениям; пустой буфер даёт 0
func (h *AngleHistory) Mean() float64 {
	if h.size == 0 {
		return 0
	}
	start := (h.next - h.size + len(h.buf)) % len(h.buf)
	sum := 0.0
	for i := 0; i < h.size; i++ {
		sum += h.buf[(start+i)%len(h.buf)]
	}
	return sum / float64(h.size)
}

// Len текущее количество значений
func (h *AngleHistory) Len() int {
	return h.size
}

// Cap ёмкость буфера
func (h *AngleHistory) Cap() int {
	return len(h.buf)
}
