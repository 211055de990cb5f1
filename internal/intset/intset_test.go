package intset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddAscendingAndNarrowestEncoding(t *testing.T) {
	s := New()
	require.True(t, s.Add(5))
	require.True(t, s.Add(-3))
	require.True(t, s.Add(100000)) // forces upgrade to i32
	require.False(t, s.Add(5))     // duplicate

	members := s.Members()
	for i := 1; i < len(members); i++ {
		require.Less(t, members[i-1], members[i])
	}
	require.Equal(t, Enc32, s.Encoding())
	require.True(t, s.Contains(100000))
}

func TestRemove(t *testing.T) {
	s := New()
	s.Add(1)
	s.Add(2)
	s.Add(3)
	require.True(t, s.Remove(2))
	require.False(t, s.Contains(2))
	require.Equal(t, []int64{1, 3}, s.Members())
}

func TestUpgradeToInt64(t *testing.T) {
	s := New()
	s.Add(1)
	s.Add(1 << 40)
	require.Equal(t, Enc64, s.Encoding())
	require.Equal(t, []int64{1, 1 << 40}, s.Members())
}
