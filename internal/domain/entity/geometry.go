package entity

// OffsetUnavailable значение смещения, когда одна из линий не найдена
const OffsetUnavailable = -1.0

// LaneGeometry результат оценки геометрии полосы за кадр
type LaneGeometry struct {
	CurvatureAvailable bool    // есть хотя бы одна аппроксимация
	RadiusMeters       float64 // средний радиус кривизны, +Inf для прямой
	Curvature          float64 // средняя кривизна, 1/м
	OffsetMeters       float64 // отклонение от центра полосы или -1
	AngleAvailable     bool    // угол посчитан по реальным линиям
	TurnAngleDegrees   float64 // [-90, 90], минус влево
}

// OffsetAvailable сообщает, посчитано ли смещение
func (g LaneGeometry) OffsetAvailable() bool {
	return g.OffsetMeters != OffsetUnavailable
}
