package controller

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// Inbound одна строка от контроллера после разбора
type Inbound struct {
	Raw      string
	Response Response
	Err      error
	At       time.Time
}

type readerSignal int

const signalStop readerSignal = iota + 1

// Reader опрашивает порт с интервалом, режет ответ на строки и разбирает их.
// Выходной канал ограничен: при переполнении новая строка отбрасывается.
type Reader struct {
	link     *Link
	interval time.Duration
	framer   Framer

	out     chan Inbound
	control chan readerSignal
	ack     chan struct{}

	dropped  atomic.Int64
	portDown bool
}

// NewReader создаёт читателя; capacity ёмкость выходного канала
func NewReader(link *Link, interval time.Duration, capacity int) *Reader {
	if capacity < 1 {
		capacity = 1
	}
	return &Reader{
		link:     link,
		interval: interval,
		out:      make(chan Inbound, capacity),
		control:  make(chan readerSignal),
		ack:      make(chan struct{}),
	}
}

// Responses канал разобранных ответов; закрывается при остановке
func (r *Reader) Responses() <-chan Inbound {
	return r.out
}

// Run цикл опроса. Завершается по Stop (nil) или по отмене контекста.
func (r *Reader) Run(ctx context.Context) error {
	defer close(r.ack)
	defer close(r.out)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig := <-r.control:
			if sig == signalStop {
				r.poll(true)
				return nil
			}
		case <-ticker.C:
			r.poll(false)
		}
	}
}

// Stop просит цикл завершиться и ждёт подтверждения
func (r *Reader) Stop(ctx context.Context) error {
	select {
	case r.control <- signalStop:
	case <-r.ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-r.ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dropped сколько строк отброшено из-за полного канала
func (r *Reader) Dropped() int64 {
	return r.dropped.Load()
}

// poll читает порт; final отдаёт и хвост без перевода строки
func (r *Reader) poll(final bool) {
	data, err := r.link.Poll()
	if err != nil {
		if !r.portDown {
			Logf("Reader poll failed: %v", err)
		}
		r.portDown = true
		if len(data) == 0 && !final {
			return
		}
	} else if r.portDown {
		Logf("Reader port is back")
		r.portDown = false
	}

	now := time.Now()
	lines := r.framer.Feed(data)
	if final {
		lines = append(lines, r.framer.Flush()...)
	}
	for _, line := range lines {
		resp, err := Decode(line)
		var devErr *DeviceError
		if err != nil && !errors.As(err, &devErr) {
			Logf("Reader got malformed line %q", line)
		}
		r.forward(Inbound{Raw: line, Response: resp, Err: err, At: now})
	}
}

func (r *Reader) forward(in Inbound) {
	select {
	case r.out <- in:
	default:
		r.dropped.Add(1)
	}
}
