package controller

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"lane-pilot/internal/domain/entity"
	"lane-pilot/internal/domain/port"
)

// Emulator транспорт, ведущий себя как прошивка контроллера
type Emulator struct {
	mu sync.Mutex

	open        bool
	unavailable bool
	pending     []byte

	angle int
	speed int
	mode  entity.Mode

	received []string
	opens    int
	closes   int
}

// NewEmulator создаёт эмулятор в начальном состоянии прошивки
func NewEmulator() *Emulator {
	return &Emulator{angle: 90, mode: entity.ModeManual}
}

// SetUnavailable имитирует отключённый порт
func (e *Emulator) SetUnavailable(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.unavailable = v
}

func (e *Emulator) Open() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.unavailable {
		return fmt.Errorf("%w: emulator unplugged", port.ErrPortUnavailable)
	}
	if e.open {
		return errors.New("emulator: port already open")
	}
	e.open = true
	e.opens++
	return nil
}

func (e *Emulator) Write(p []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return 0, fmt.Errorf("%w: emulator is not open", port.ErrPortUnavailable)
	}
	if len(p) == 0 {
		return 0, nil
	}
	cmd := string(p)
	e.received = append(e.received, cmd)
	if resp := e.handle(cmd); resp != "" {
		e.pending = append(e.pending, resp+"\r\n"...)
	}
	return len(p), nil
}

func (e *Emulator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.open {
		e.closes++
	}
	e.open = false
	return nil
}

func (e *Emulator) ReadAvailable() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return nil, fmt.Errorf("%w: emulator is not open", port.ErrPortUnavailable)
	}
	out := e.pending
	e.pending = nil
	return out, nil
}

func (e *Emulator) handle(cmd string) string {
	if len(cmd) > MaxMessageLen {
		return "E:len"
	}

	switch cmd[0] {
	case TagAngle, TagSpeed:
		v, err := parseDigits(cmd[1:])
		if err != nil {
			return "E:" + cmd + "-"
		}
		if cmd[0] == TagAngle {
			e.angle = v
			return "A:" + strconv.Itoa(v)
		}
		e.speed = v
		return "S:" + strconv.Itoa(v)
	case TagMode:
		switch cmd {
		case "mm":
			e.mode = entity.ModeManual
			return "M:man"
		case "ma":
			e.mode = entity.ModeAuto
			return "M:auto"
		default:
			return "E:" + cmd + "-"
		}
	case TagReset:
		if cmd != "r" {
			return "E:" + cmd + "-"
		}
		e.angle, e.speed, e.mode = 90, 0, entity.ModeManual
		return ""
	default:
		return "E:" + cmd + "-"
	}
}

// State текущие угол, скорость и режим
func (e *Emulator) State() (angle, speed int, mode entity.Mode) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.angle, e.speed, e.mode
}

// Received все принятые команды по порядку
func (e *Emulator) Received() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]string(nil), e.received...)
}

// Counts сколько раз порт открывали и закрывали
func (e *Emulator) Counts() (opens, closes int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.opens, e.closes
}

// IsOpen открыт ли порт сейчас
func (e *Emulator) IsOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.open
}

// Проверка реализации интерфейса
var _ port.Transport = (*Emulator)(nil)
