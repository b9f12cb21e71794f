package controller

import (
	"testing"

	"github.com/stretchr/testify/require"

	"lane-pilot/internal/domain/port"
)

func TestEmulator_RequiresOpen(t *testing.T) {
	emu := NewEmulator()

	_, err := emu.Write([]byte("a1"))
	require.ErrorIs(t, err, port.ErrPortUnavailable)
	_, err = emu.ReadAvailable()
	require.ErrorIs(t, err, port.ErrPortUnavailable)

	require.NoError(t, emu.Open())
	require.Error(t, emu.Open())
	require.NoError(t, emu.Close())
}

func TestEmulator_Responses(t *testing.T) {
	emu := NewEmulator()
	require.NoError(t, emu.Open())
	defer emu.Close()

	for _, cmd := range []string{"a73", "s999", "ma", "x", "a1234", "sq", "rr"} {
		_, err := emu.Write([]byte(cmd))
		require.NoError(t, err)
	}
	data, err := emu.ReadAvailable()
	require.NoError(t, err)

	var f Framer
	require.Equal(t, []string{"A:73", "S:999", "M:auto", "E:x-", "E:len", "E:sq-", "E:rr-"}, f.Feed(data))

	data, err = emu.ReadAvailable()
	require.NoError(t, err)
	require.Empty(t, data)
}

func TestLink_ExchangeKeepsPortOpenOnce(t *testing.T) {
	emu := NewEmulator()
	link := NewLink(emu)

	lines, err := link.Exchange(t.Context(), []byte("s12"), 3, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"S:12"}, lines)

	opens, closes := emu.Counts()
	require.Equal(t, 1, opens)
	require.Equal(t, 1, closes)
	require.False(t, emu.IsOpen())
}
