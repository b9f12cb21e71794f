package port

import "errors"

// ErrPortUnavailable порт не открылся или пропал; ошибка не фатальна для конвейера
var ErrPortUnavailable = errors.New("port unavailable")

// Transport байтовый канал до контроллера моторов
type Transport interface {
	// Open открывает канал
	Open() error

	// Write пишет байты в открытый канал
	Write(p []byte) (int, error)

	// Close закрывает канал
	Close() error

	// ReadAvailable возвращает уже пришедшие байты или пустой срез
	ReadAvailable() ([]byte, error)
}
