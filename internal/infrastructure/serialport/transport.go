package serialport

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"

	"lane-pilot/internal/domain/port"
)

// maxReadChunk сколько байт ReadAvailable забирает за один вызов
const maxReadChunk = 4096

// SerialPorter минимальный интерфейс порта; позволяет тестировать без железа
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// TimeoutSerialPorter порт с настраиваемым таймаутом чтения
type TimeoutSerialPorter interface {
	SerialPorter
	SetReadTimeout(timeout time.Duration) error
}

// Opener открывает порт по пути и режиму
type Opener func(path string, mode *serial.Mode) (SerialPorter, error)

// OpenReal открывает настоящий порт через go.bug.st/serial
func OpenReal(path string, mode *serial.Mode) (SerialPorter, error) {
	return serial.Open(path, mode)
}

// ListPorts перечисляет доступные последовательные порты
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}

// Transport порт контроллера: открывается на время одной операции и закрывается
type Transport struct {
	path        string
	mode        *serial.Mode
	opener      Opener
	readTimeout time.Duration
	port        SerialPorter
}

// NewTransport создаёт транспорт; порт при этом не открывается
func NewTransport(path string, opts PortOptions, opener Opener) (*Transport, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, fmt.Errorf("serial options: %w", err)
	}
	if opener == nil {
		opener = OpenReal
	}
	return &Transport{
		path:        path,
		mode:        mode,
		opener:      opener,
		readTimeout: 20 * time.Millisecond,
	}, nil
}

// Open открывает порт; повторный вызов ничего не делает
func (t *Transport) Open() error {
	if t.port != nil {
		return nil
	}
	p, err := t.opener(t.path, t.mode)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", port.ErrPortUnavailable, t.path, err)
	}
	if tp, ok := p.(TimeoutSerialPorter); ok {
		if err := tp.SetReadTimeout(t.readTimeout); err != nil {
			_ = p.Close()
			return fmt.Errorf("%w: set read timeout on %s: %v", port.ErrPortUnavailable, t.path, err)
		}
	}
	t.port = p
	return nil
}

// Write пишет в открытый порт
func (t *Transport) Write(p []byte) (int, error) {
	if t.port == nil {
		return 0, fmt.Errorf("%w: %s is not open", port.ErrPortUnavailable, t.path)
	}
	n, err := t.port.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: write %s: %v", port.ErrPortUnavailable, t.path, err)
	}
	if n != len(p) {
		return n, fmt.Errorf("%w: short write to %s (%d of %d bytes)", port.ErrPortUnavailable, t.path, n, len(p))
	}
	return n, nil
}

// Close закрывает порт
func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	if err != nil {
		return fmt.Errorf("close %s: %w", t.path, err)
	}
	return nil
}

// ReadAvailable забирает всё, что пришло до таймаута чтения
func (t *Transport) ReadAvailable() ([]byte, error) {
	if t.port == nil {
		return nil, fmt.Errorf("%w: %s is not open", port.ErrPortUnavailable, t.path)
	}
	var out []byte
	buf := make([]byte, 256)
	for len(out) < maxReadChunk {
		n, err := t.port.Read(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("%w: read %s: %v", port.ErrPortUnavailable, t.path, err)
		}
	}
	return out, nil
}

// Проверка реализации интерфейса
var _ port.Transport = (*Transport)(nil)
