package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lane-pilot/internal/domain/port"
)

// Link единственная точка доступа к транспорту.
// Каждая операция: захват -> Open -> Write|ReadAvailable -> Close -> освобождение.
type Link struct {
	mu        sync.Mutex
	transport port.Transport
}

// NewLink создаёт канал поверх транспорта
func NewLink(transport port.Transport) *Link {
	return &Link{transport: transport}
}

// Send пишет одно сообщение
func (l *Link) Send(msg Message) error {
	return l.Write([]byte(msg))
}

// Write пишет сырые байты; нужен самопроверке, которая шлёт заведомо неверные команды
func (l *Link) Write(payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.transport.Open(); err != nil {
		return err
	}
	_, err := l.transport.Write(payload)
	return errors.Join(err, l.close())
}

// Poll забирает пришедшие байты
func (l *Link) Poll() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.transport.Open(); err != nil {
		return nil, err
	}
	data, err := l.transport.ReadAvailable()
	return data, errors.Join(err, l.close())
}

// Exchange пишет payload и до attempts раз с паузой delay читает ответ,
// не отпуская порт. Возвращает первые полученные строки; если перевода строки
// так и не пришло, после последней попытки возвращает накопленный хвост.
func (l *Link) Exchange(ctx context.Context, payload []byte, attempts int, delay time.Duration) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.transport.Open(); err != nil {
		return nil, err
	}
	lines, err := l.exchange(ctx, payload, attempts, delay)
	return lines, errors.Join(err, l.close())
}

func (l *Link) exchange(ctx context.Context, payload []byte, attempts int, delay time.Duration) ([]string, error) {
	if _, err := l.transport.Write(payload); err != nil {
		return nil, err
	}

	var framer Framer
	for i := 0; i < attempts; i++ {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		data, err := l.transport.ReadAvailable()
		if err != nil {
			return nil, err
		}
		if lines := framer.Feed(data); len(lines) > 0 {
			return lines, nil
		}
	}
	// Ответ без перевода строки тоже ответ
	return framer.Flush(), nil
}

func (l *Link) close() error {
	if err := l.transport.Close(); err != nil {
		return fmt.Errorf("close transport: %w", err)
	}
	return nil
}
