package serialport

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lane-pilot/internal/domain/port"
)

func newMockTransport(t *testing.T) (*Transport, *TestableSerialPort, *MockOpener) {
	t.Helper()
	mock := NewTestableSerialPort()
	opener := NewMockOpener(mock)
	tr, err := NewTransport("/dev/ttyACM0", DefaultPortOptions(), opener.Open)
	require.NoError(t, err)
	return tr, mock, opener
}

func TestTransport_WriteAndRead(t *testing.T) {
	tr, mock, opener := newMockTransport(t)

	require.NoError(t, tr.Open())
	require.Equal(t, 20*time.Millisecond, mock.ReadTimeout)

	n, err := tr.Write([]byte("a73"))
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, "a73", string(mock.GetWrittenData()))

	mock.AddReadData([]byte("A:73\r\n"))
	data, err := tr.ReadAvailable()
	require.NoError(t, err)
	require.Equal(t, "A:73\r\n", string(data))

	data, err = tr.ReadAvailable()
	require.NoError(t, err)
	require.Empty(t, data)

	require.NoError(t, tr.Close())
	require.True(t, mock.Closed)
	require.Equal(t, []string{"/dev/ttyACM0"}, opener.Paths)
}

func TestTransport_NotOpen(t *testing.T) {
	tr, _, _ := newMockTransport(t)

	_, err := tr.Write([]byte("a1"))
	require.ErrorIs(t, err, port.ErrPortUnavailable)

	_, err = tr.ReadAvailable()
	require.ErrorIs(t, err, port.ErrPortUnavailable)

	require.NoError(t, tr.Close())
}

func TestTransport_OpenFailure(t *testing.T) {
	tr, _, opener := newMockTransport(t)
	opener.Error = errors.New("no such file or directory")

	err := tr.Open()
	require.ErrorIs(t, err, port.ErrPortUnavailable)
	require.Contains(t, err.Error(), "no such file")
}

func TestTransport_WriteAndReadErrors(t *testing.T) {
	tr, mock, _ := newMockTransport(t)
	require.NoError(t, tr.Open())

	mock.WriteError = errors.New("device unplugged")
	_, err := tr.Write([]byte("s1"))
	require.ErrorIs(t, err, port.ErrPortUnavailable)

	mock.ReadError = errors.New("device unplugged")
	_, err = tr.ReadAvailable()
	require.ErrorIs(t, err, port.ErrPortUnavailable)
}

func TestNewTransport_InvalidOptions(t *testing.T) {
	_, err := NewTransport("/dev/ttyACM0", PortOptions{Parity: "x"}, nil)
	require.Error(t, err)
}
