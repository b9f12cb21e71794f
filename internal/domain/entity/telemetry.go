package entity

import "time"

// FrameResult итог обработки одного кадра
type FrameResult struct {
	Index         int64           // номер кадра с начала работы
	Strategy      string          // стратегия поиска линий
	LeftDetected  bool            // найдена левая линия
	RightDetected bool            // найдена правая линия
	Geometry      LaneGeometry    // кривизна, смещение, угол
	RawAngle      float64         // угол до сглаживания
	SmoothedAngle float64         // угол после сглаживания
	Command       SteeringCommand // итоговая команда
}

// DeviceEvent последний ответ контроллера
type DeviceEvent struct {
	Raw  string    // строка ответа как есть
	At   time.Time // время получения
	Fail string    // текст ошибки протокола, если была
}

// Telemetry сводка состояния для удалённого просмотра
type Telemetry struct {
	StartedAt     time.Time
	Frames        int64        // обработано кадров
	FrameFailures int64        // кадры с ошибкой обработки
	SendFailures  int64        // неотправленные команды
	LastResult    *FrameResult // последний кадр
	LastError     string       // последняя ошибка
	LastDevice    *DeviceEvent // последний ответ контроллера
}
