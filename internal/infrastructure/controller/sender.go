package controller

import (
	"context"
	"sync/atomic"

	"lane-pilot/internal/domain/entity"
	"lane-pilot/internal/domain/port"
)

// Sender отправляет команды в фоновой горутине.
// Почтовый ящик на одну команду: новая вытесняет неотправленную старую.
type Sender struct {
	dispatcher *Dispatcher
	mailbox    chan entity.SteeringCommand
	onFailure  func(error)

	replaced atomic.Int64
	sent     atomic.Int64
}

// NewSender создаёт асинхронного отправителя; onFailure вызывается на каждую неудачную отправку
func NewSender(dispatcher *Dispatcher, onFailure func(error)) *Sender {
	return &Sender{
		dispatcher: dispatcher,
		mailbox:    make(chan entity.SteeringCommand, 1),
		onFailure:  onFailure,
	}
}

// Submit кладёт команду в ящик и сразу возвращается
func (s *Sender) Submit(ctx context.Context, cmd entity.SteeringCommand) error {
	for {
		select {
		case s.mailbox <- cmd:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		select {
		case <-s.mailbox:
			s.replaced.Add(1)
		default:
		}
	}
}

// Run отправляет команды до отмены контекста
func (s *Sender) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-s.mailbox:
			if err := s.dispatcher.Submit(ctx, cmd); err != nil {
				Logf("Send failed: %v", err)
				if s.onFailure != nil {
					s.onFailure(err)
				}
				continue
			}
			s.sent.Add(1)
		}
	}
}

// Replaced сколько команд вытеснено до отправки
func (s *Sender) Replaced() int64 {
	return s.replaced.Load()
}

// Sent сколько команд отправлено полностью
func (s *Sender) Sent() int64 {
	return s.sent.Load()
}

// Проверка реализации интерфейса
var _ port.CommandSink = (*Sender)(nil)
