package controller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lane-pilot/internal/domain/entity"
)

// scriptTransport отдаёт заранее заданные байты при чтении
type scriptTransport struct {
	mu    sync.Mutex
	reads [][]byte
	open  bool
}

func (s *scriptTransport) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	return nil
}

func (s *scriptTransport) Write(p []byte) (int, error) { return len(p), nil }

func (s *scriptTransport) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	return nil
}

func (s *scriptTransport) ReadAvailable() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.reads) == 0 {
		return nil, nil
	}
	out := s.reads[0]
	s.reads = s.reads[1:]
	return out, nil
}

func TestReader_ForwardsDecodedResponses(t *testing.T) {
	emu := NewEmulator()
	link := NewLink(emu)
	require.NoError(t, link.Send("a73"))
	require.NoError(t, link.Send("mm"))

	r := NewReader(link, time.Millisecond, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	first := <-r.Responses()
	require.NoError(t, first.Err)
	require.Equal(t, ResponseAngle, first.Response.Kind)
	require.Equal(t, 73, first.Response.Value)
	require.NoError(t, Match("a73", first.Response))

	second := <-r.Responses()
	require.Equal(t, entity.ModeManual, second.Response.Mode)

	require.NoError(t, r.Stop(context.Background()))
	_, ok := <-r.Responses()
	require.False(t, ok)
}

func TestReader_StopDrainsAndAcknowledges(t *testing.T) {
	tr := &scriptTransport{reads: [][]byte{[]byte("A:1\r\nE:len\r\nbogus\r\n")}}
	r := NewReader(NewLink(tr), time.Hour, 8)

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	require.NoError(t, r.Stop(context.Background()))
	require.NoError(t, <-done)

	var got []Inbound
	for in := range r.Responses() {
		got = append(got, in)
	}
	require.Len(t, got, 3)
	require.Equal(t, 1, got[0].Response.Value)
	require.ErrorIs(t, got[1].Err, ErrDeviceLength)
	require.ErrorIs(t, got[2].Err, ErrMalformedResponse)
}

func TestReader_DropsNewestWhenFull(t *testing.T) {
	tr := &scriptTransport{reads: [][]byte{[]byte("A:1\nA:2\nA:3\n")}}
	r := NewReader(NewLink(tr), time.Hour, 1)

	go func() { _ = r.Run(context.Background()) }()
	require.NoError(t, r.Stop(context.Background()))

	var values []int
	for in := range r.Responses() {
		values = append(values, in.Response.Value)
	}
	require.Equal(t, []int{1}, values)
	require.Equal(t, int64(2), r.Dropped())
}

func TestReader_LinesSplitAcrossPolls(t *testing.T) {
	tr := &scriptTransport{reads: [][]byte{[]byte("S:5"), []byte("0\r\n")}}
	r := NewReader(NewLink(tr), time.Millisecond, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	select {
	case in := <-r.Responses():
		require.Equal(t, ResponseSpeed, in.Response.Kind)
		require.Equal(t, 50, in.Response.Value)
	case <-time.After(time.Second):
		t.Fatal("no response")
	}
}

func TestReader_PortUnavailableKeepsPolling(t *testing.T) {
	emu := NewEmulator()
	emu.SetUnavailable(true)
	link := NewLink(emu)
	r := NewReader(link, time.Millisecond, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	emu.SetUnavailable(false)
	require.NoError(t, link.Send("s7"))

	select {
	case in := <-r.Responses():
		require.Equal(t, 7, in.Response.Value)
	case <-time.After(time.Second):
		t.Fatal("reader did not recover")
	}
}

func TestReader_StopAfterCancel(t *testing.T) {
	r := NewReader(NewLink(NewEmulator()), time.Hour, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	require.NoError(t, r.Stop(context.Background()))
}

func TestReader_StopFlushesUnterminatedTail(t *testing.T) {
	tr := &scriptTransport{reads: [][]byte{[]byte("A:1\nS:5"), []byte("0")}}
	r := NewReader(NewLink(tr), time.Millisecond, 8)

	go func() { _ = r.Run(context.Background()) }()
	first := <-r.Responses()
	require.Equal(t, "A:1", first.Raw)

	require.Eventually(t, func() bool {
		tr.mu.Lock()
		defer tr.mu.Unlock()
		return len(tr.reads) == 0
	}, time.Second, time.Millisecond)
	require.NoError(t, r.Stop(context.Background()))

	var rest []Inbound
	for in := range r.Responses() {
		rest = append(rest, in)
	}
	require.Len(t, rest, 1)
	require.Equal(t, "S:50", rest[0].Raw)
	require.NoError(t, rest[0].Err)
	require.Equal(t, 50, rest[0].Response.Value)
}

func TestLink_ExchangeUnterminatedReply(t *testing.T) {
	tr := &scriptTransport{reads: [][]byte{[]byte("A:7"), []byte("3")}}
	lines, err := NewLink(tr).Exchange(context.Background(), []byte("a73"), 3, time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, []string{"A:73"}, lines)

	tr = &scriptTransport{}
	lines, err = NewLink(tr).Exchange(context.Background(), []byte("r"), 2, time.Millisecond)
	require.NoError(t, err)
	require.Empty(t, lines)
}
