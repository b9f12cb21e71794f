package port

import (
	"context"

	"lane-pilot/internal/domain/entity"
)

// Binarizer превращает цветной кадр в маску признаков разметки
type Binarizer interface {
	// Binarize возвращает одноканальную маску {0, 255} того же размера
	Binarize(frame *entity.Frame) (*entity.Frame, error)
}

// Rectifier переводит кадр в вид сверху
type Rectifier interface {
	// Rectify возвращает кадр вида сверху и использованное преобразование
	Rectify(frame *entity.Frame) (*entity.Frame, entity.Homography, error)
}

// FrameSource поставщик уже исправленных от дисторсии кадров
type FrameSource interface {
	// Next возвращает следующий кадр; io.EOF, если кадры закончились
	Next(ctx context.Context) (*entity.Frame, error)

	// Close освобождает камеру или файл
	Close() error
}
