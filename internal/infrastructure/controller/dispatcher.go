package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"lane-pilot/internal/domain/entity"
	"lane-pilot/internal/domain/port"
)

// Dispatcher синхронно отправляет команды кадра контроллеру.
// Режим и скорость шлются только при изменении, угол на каждый кадр.
type Dispatcher struct {
	link    *Link
	mapping AngleMapping

	mu        sync.Mutex
	lastMode  entity.Mode
	lastSpeed int
	speedSent bool
}

// NewDispatcher создаёт отправителя
func NewDispatcher(link *Link, mapping AngleMapping) *Dispatcher {
	return &Dispatcher{link: link, mapping: mapping}
}

// Submit отправляет команду. Первая же ошибка прерывает отправку, повторов нет.
func (d *Dispatcher) Submit(ctx context.Context, cmd entity.SteeringCommand) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	frame, err := Encode(cmd, d.mapping)
	if err != nil {
		return err
	}
	angle, speed := frame[0], frame[1]

	if cmd.Mode != d.lastMode {
		mode, err := EncodeMode(cmd.Mode)
		if err != nil {
			return err
		}
		if err := d.send(ctx, mode); err != nil {
			return err
		}
		d.lastMode = cmd.Mode
	}

	if !d.speedSent || cmd.Speed != d.lastSpeed {
		if err := d.send(ctx, speed); err != nil {
			return err
		}
		d.lastSpeed, d.speedSent = cmd.Speed, true
	}

	return d.send(ctx, angle)
}

// Halt останавливает машину: скорость 0, руль по центру, сброс
func (d *Dispatcher) Halt(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	stop, _ := EncodeSpeed(0)
	center, err := EncodeAngle(d.mapping.Units(0))
	if err != nil {
		return err
	}

	var errs []error
	for _, msg := range []Message{stop, center, EncodeReset()} {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := d.link.Send(msg); err != nil {
			errs = append(errs, fmt.Errorf("send %q: %w", msg, err))
		}
	}
	d.lastMode, d.speedSent = 0, false
	return errors.Join(errs...)
}

func (d *Dispatcher) send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.link.Send(msg); err != nil {
		return fmt.Errorf("send %q: %w", msg, err)
	}
	return nil
}

// Проверка реализации интерфейса
var _ port.CommandSink = (*Dispatcher)(nil)
