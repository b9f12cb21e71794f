package controller

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"lane-pilot/internal/domain/entity"
	"lane-pilot/internal/domain/port"
	"lane-pilot/internal/infrastructure/serialport"
)

func newEmulatedDispatcher() (*Dispatcher, *Emulator) {
	emu := NewEmulator()
	return NewDispatcher(NewLink(emu), DefaultAngleMapping()), emu
}

func TestDispatcher_SendsModeSpeedAngle(t *testing.T) {
	d, emu := newEmulatedDispatcher()
	ctx := context.Background()

	require.NoError(t, d.Submit(ctx, entity.NewSteeringCommand(-17, 50, entity.ModeAuto)))
	require.Equal(t, []string{"ma", "s50", "a73"}, emu.Received())

	require.NoError(t, d.Submit(ctx, entity.NewSteeringCommand(5, 50, entity.ModeAuto)))
	require.Equal(t, []string{"ma", "s50", "a73", "a95"}, emu.Received())

	angle, speed, mode := emu.State()
	require.Equal(t, 95, angle)
	require.Equal(t, 50, speed)
	require.Equal(t, entity.ModeAuto, mode)
}

func TestDispatcher_ScopedPortAccess(t *testing.T) {
	d, emu := newEmulatedDispatcher()
	ctx := context.Background()

	require.NoError(t, d.Submit(ctx, entity.NewSteeringCommand(0, 40, entity.ModeManual)))
	require.False(t, emu.IsOpen())

	opens, closes := emu.Counts()
	require.Equal(t, 3, opens)
	require.Equal(t, opens, closes)
}

func TestDispatcher_PortUnavailable(t *testing.T) {
	d, emu := newEmulatedDispatcher()
	ctx := context.Background()
	emu.SetUnavailable(true)

	err := d.Submit(ctx, entity.NewSteeringCommand(10, 50, entity.ModeAuto))
	require.ErrorIs(t, err, port.ErrPortUnavailable)
	require.Empty(t, emu.Received())

	// после возврата порта режим и скорость уходят заново
	emu.SetUnavailable(false)
	require.NoError(t, d.Submit(ctx, entity.NewSteeringCommand(10, 50, entity.ModeAuto)))
	require.Equal(t, []string{"ma", "s50", "a100"}, emu.Received())
}

func TestDispatcher_Halt(t *testing.T) {
	d, emu := newEmulatedDispatcher()
	ctx := context.Background()

	require.NoError(t, d.Submit(ctx, entity.NewSteeringCommand(30, 60, entity.ModeAuto)))
	require.NoError(t, d.Halt(ctx))
	require.Equal(t, []string{"ma", "s60", "a120", "s0", "a90", "r"}, emu.Received())

	angle, speed, mode := emu.State()
	require.Equal(t, 90, angle)
	require.Zero(t, speed)
	require.Equal(t, entity.ModeManual, mode)

	// после остановки режим отправляется снова
	require.NoError(t, d.Submit(ctx, entity.NewSteeringCommand(0, 60, entity.ModeAuto)))
	require.Equal(t, []string{"ma", "s60", "a90"}, emu.Received()[6:])
}

func TestDispatcher_CanceledContext(t *testing.T) {
	d, emu := newEmulatedDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, d.Submit(ctx, entity.NewSteeringCommand(0, 1, entity.ModeAuto)), context.Canceled)
	require.Empty(t, emu.Received())
}

func TestDispatcher_OverSerialTransport(t *testing.T) {
	mock := serialport.NewTestableSerialPort()
	opener := serialport.NewMockOpener(mock)
	transport, err := serialport.NewTransport("/dev/ttyACM0", serialport.DefaultPortOptions(), opener.Open)
	require.NoError(t, err)

	d := NewDispatcher(NewLink(transport), DefaultAngleMapping())
	require.NoError(t, d.Submit(context.Background(), entity.NewSteeringCommand(-17, 50, entity.ModeAuto)))

	require.Equal(t, "mas50a73", string(mock.GetWrittenData()))
	require.Equal(t, 3, opener.OpenCalls())
	require.Equal(t, 3, mock.CloseCalls)
	require.True(t, mock.Closed)
	require.Equal(t, 9600, opener.Modes[0].BaudRate)
}
