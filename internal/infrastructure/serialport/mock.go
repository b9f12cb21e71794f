package serialport

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"go.bug.st/serial"
)

// TestableSerialPort реализует SerialPorter с управляемым поведением для тестов.
type TestableSerialPort struct {
	mu sync.Mutex

	// ReadBuffer данные для Read
	ReadBuffer *bytes.Buffer

	// WriteBuffer всё, что записали в порт
	WriteBuffer *bytes.Buffer

	// ReadError вернётся следующим Read
	ReadError error

	// WriteError вернётся следующим Write
	WriteError error

	// Closed был ли вызван Close
	Closed bool

	ReadCalls  int
	WriteCalls int
	CloseCalls int

	// ReadTimeout последний выставленный таймаут
	ReadTimeout time.Duration
}

// NewTestableSerialPort создаёт порт для тестов
func NewTestableSerialPort() *TestableSerialPort {
	return &TestableSerialPort{
		ReadBuffer:  bytes.NewBuffer(nil),
		WriteBuffer: bytes.NewBuffer(nil),
	}
}

func (t *TestableSerialPort) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadCalls++
	if t.Closed {
		return 0, errors.New("serial port closed")
	}
	if t.ReadError != nil {
		err := t.ReadError
		t.ReadError = nil
		return 0, err
	}
	return t.ReadBuffer.Read(p)
}

func (t *TestableSerialPort) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.WriteCalls++
	if t.Closed {
		return 0, errors.New("serial port closed")
	}
	if t.WriteError != nil {
		err := t.WriteError
		t.WriteError = nil
		return 0, err
	}
	return t.WriteBuffer.Write(p)
}

// Close помечает порт закрытым; следующий Open через MockOpener его переоткроет
func (t *TestableSerialPort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.CloseCalls++
	t.Closed = true
	return nil
}

func (t *TestableSerialPort) SetReadTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadTimeout = timeout
	return nil
}

// AddReadData добавляет данные для следующих Read
func (t *TestableSerialPort) AddReadData(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadBuffer.Write(data)
}

// GetWrittenData возвращает всё записанное
func (t *TestableSerialPort) GetWrittenData() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]byte(nil), t.WriteBuffer.Bytes()...)
}

func (t *TestableSerialPort) reopen() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Closed = false
}

// MockOpener Opener для тестов: отдаёт один и тот же порт или ошибку
type MockOpener struct {
	mu sync.Mutex

	Port  *TestableSerialPort
	Error error

	Paths []string
	Modes []*serial.Mode
}

// NewMockOpener создаёт Opener поверх порта
func NewMockOpener(p *TestableSerialPort) *MockOpener {
	return &MockOpener{Port: p}
}

// Open записывает вызов и возвращает порт
func (m *MockOpener) Open(path string, mode *serial.Mode) (SerialPorter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Paths = append(m.Paths, path)
	m.Modes = append(m.Modes, mode)
	if m.Error != nil {
		return nil, m.Error
	}
	m.Port.reopen()
	return m.Port, nil
}

// OpenCalls количество вызовов Open
func (m *MockOpener) OpenCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.Paths)
}
