package memprotect

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterLookupUnregister(t *testing.T) {
	var r Registry

	length := uint64(65536)
	require.NoError(t, r.Register(0x1000, 0x2000, &length, 0, 0))
	require.Equal(t, 1, r.Count())

	seg, ok := r.Lookup(0x1500)
	require.True(t, ok)
	require.Equal(t, uintptr(0x1000), seg.Begin)
	require.Equal(t, uintptr(0x2000), seg.End)
	require.Same(t, &length, seg.LengthPtr)

	_, ok = r.Lookup(0x2500)
	require.False(t, ok)

	require.True(t, r.Unregister(0x1000, 0x2000))
	require.Equal(t, 0, r.Count())
	require.False(t, r.Unregister(0x1000, 0x2000))
}

func TestRegistry_RegisterRejectsInvertedRange(t *testing.T) {
	var r Registry
	err := r.Register(0x2000, 0x1000, nil, 0, 0)
	require.Error(t, err)
}

func TestRegistry_LookupPicksContainingRange(t *testing.T) {
	var r Registry
	require.NoError(t, r.Register(0x1000, 0x3000, nil, 0, 0))
	require.NoError(t, r.Register(0x4000, 0x5000, nil, 1, 0))

	seg, ok := r.Lookup(0x4500)
	require.True(t, ok)
	require.Equal(t, uint32(1), seg.MemoryIndex)
}
