package memory

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegionCursorAdvancesByWriteLength(t *testing.T) {
	a := NewArena(0x80000000, 0x1000)
	r, err := a.Region(0x80000100)
	require.NoError(t, err)
	require.Equal(t, uint64(0x80000100), r.Cursor())
	require.Equal(t, uint64(0xf00), r.Limit())

	var total uint64
	for _, n := range []int{1, 0, 17, 300} {
		w, err := r.Write(bytes.Repeat([]byte{byte(n)}, n))
		require.NoError(t, err)
		require.Equal(t, n, w)
		total += uint64(n)
		require.Equal(t, r.Base()+total, r.Cursor())
		require.Equal(t, total, r.Len())
	}
}

func TestRegionRejectsOverflow(t *testing.T) {
	a := NewArena(0x1000, 16)
	r, err := a.Region(0x1008)
	require.NoError(t, err)

	_, err = r.Write(make([]byte, 6))
	require.NoError(t, err)
	n, err := r.Write([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrRegionFull)
	require.Zero(t, n)
	require.Equal(t, uint64(6), r.Len())

	_, err = r.Write([]byte{9, 9})
	require.NoError(t, err)
	require.Equal(t, uint64(0x1010), r.Cursor())
}

func TestArenaRegionBounds(t *testing.T) {
	a := NewArena(0x1000, 0x100)
	for _, addr := range []uint64{0, 0xfff, 0x1100, 0xffffffffffffffff} {
		_, err := a.Region(addr)
		require.ErrorIs(t, err, ErrOutOfRange, "addr 0x%x", addr)
	}
	_, err := a.Region(0x10ff)
	require.NoError(t, err)
}

func TestArenaLoad(t *testing.T) {
	a := NewArena(0x1000, 0x100)
	r1, _ := a.Region(0x1000)
	_, _ = r1.Write([]byte("aaaaaaaa"))
	r2, _ := a.Region(0x1004)
	_, _ = r2.Write([]byte("bb"))

	got, err := a.Load(0x1000, 10)
	require.NoError(t, err)
	require.Equal(t, []byte("aaaabbaa\x00\x00"), got)

	_, err = a.Load(0x10f0, 0x20)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = a.Load(0x0, 1)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestArenaAtTopOfAddressSpace(t *testing.T) {
	a := NewArena(0xffffffffffff0000, 0x10000)
	require.Equal(t, uint64(0x10000), a.Size())
	r, err := a.Region(0xffffffffffff0100)
	require.NoError(t, err)
	require.Equal(t, uint64(0xff00), r.Limit())
	_, err = a.Region(0xfffffffffffeffff)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = a.Region(0x10)
	require.ErrorIs(t, err, ErrOutOfRange)

	// a window past the top is clamped instead of wrapping around
	a = NewArena(math.MaxUint64-0xff, 0x1000)
	require.Equal(t, uint64(0x100), a.Size())
	_, err = a.Region(0x80000000)
	require.ErrorIs(t, err, ErrOutOfRange)
	top, err := a.Region(math.MaxUint64)
	require.NoError(t, err)
	require.Equal(t, uint64(1), top.Limit())
	_, err = top.Write([]byte{0x5a})
	require.NoError(t, err)
	_, err = top.Write([]byte{0x5b})
	require.ErrorIs(t, err, ErrRegionFull)

	got, err := a.Load(math.MaxUint64-1, 2)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0x5a}, got)
}
