package grammar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvScoping(t *testing.T) {
	root := NewEnv(nil)
	root.Define("floors", 3)

	child := NewEnv(root)
	v, ok := child.Lookup("floors")
	require.True(t, ok)
	require.Equal(t, 3.0, v)

	child.Define("floors", 5)
	v, _ = child.Lookup("floors")
	require.Equal(t, 5.0, v)

	// Writes never reach the parent frame.
	v, _ = root.Lookup("floors")
	require.Equal(t, 3.0, v)

	_, ok = root.Lookup("missing")
	require.False(t, ok)

	require.Equal(t, []string{"floors"}, child.Names())
	require.Empty(t, NewEnv(nil).Names())
}
