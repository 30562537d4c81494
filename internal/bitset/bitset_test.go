package bitset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSliding_setAndTest(t *testing.T) {
	s := NewSliding(128)

	require.False(t, s.Test(0))

	s.Set(0)
	s.Set(63)
	s.Set(64)
	s.Set(127)
	s.Set(128)
	s.Set(1000)

	for _, pos := range []int64{0, 63, 64, 127, 128, 1000} {
		require.True(t, s.Test(pos), "position %d must be set", pos)
	}
	for _, pos := range []int64{1, 62, 65, 126, 129, 999, 1001} {
		require.False(t, s.Test(pos), "position %d must not be set", pos)
	}
}

func TestSliding_chunkSizeRounding(t *testing.T) {
	for _, tc := range []struct {
		requested int
		effective int64
	}{
		{requested: 1, effective: 64},
		{requested: 64, effective: 64},
		{requested: 65, effective: 128},
		{requested: 1024, effective: 1024},
	} {
		s := NewSliding(tc.requested)
		require.Equal(t, tc.effective, s.chunkBits)
	}
}

func TestSliding_trimBelow(t *testing.T) {
	s := NewSliding(64)

	for pos := int64(0); pos < 256; pos++ {
		s.Set(pos)
	}
	require.Equal(t, 4, s.Retained())

	// Trimming mid-chunk keeps the chunk containing the position.
	s.TrimBelow(63)
	require.Equal(t, 4, s.Retained())
	require.True(t, s.Test(63))

	s.TrimBelow(64)
	require.Equal(t, 3, s.Retained())
	require.False(t, s.Test(63))
	require.True(t, s.Test(64))

	s.TrimBelow(250)
	require.Equal(t, 1, s.Retained())
	require.True(t, s.Test(250))
	require.True(t, s.Test(255))

	// Set below the window is a no-op instead of resurrecting chunks.
	s.Set(10)
	require.False(t, s.Test(10))
}

func TestSliding_trimBelowEmpty(t *testing.T) {
	s := NewSliding(64)

	s.TrimBelow(1000)
	require.Equal(t, 0, s.Retained())

	// The base realigns so a later Set allocates a single chunk.
	s.Set(1000)
	require.True(t, s.Test(1000))
	require.Equal(t, 1, s.Retained())
}

func TestSliding_boundedBySlidingWindow(t *testing.T) {
	s := NewSliding(64)

	// Marking positions in lockstep with trimming must keep a constant
	// number of chunks regardless of volume.
	for pos := int64(0); pos < 100000; pos++ {
		s.Set(pos)
		s.TrimBelow(pos + 1)
		require.LessOrEqual(t, s.Retained(), 1)
	}
}
