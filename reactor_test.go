//go:build linux || darwin

package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReactorAddRemoveRecyclesKey(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	pr, _ := testPipe(t)
	src, err := r.Add(int(pr.Fd()))
	require.NoError(t, err)
	firstKey := src.key

	require.NoError(t, r.Remove(src))

	pr2, _ := testPipe(t)
	src2, err := r.Add(int(pr2.Fd()))
	require.NoError(t, err)
	require.Equal(t, firstKey, src2.key, "freed key should be reused before allocating a new one")
}

func TestReactorDefaultIsSingleton(t *testing.T) {
	r1, err := Default()
	require.NoError(t, err)
	r2, err := Default()
	require.NoError(t, err)
	require.Same(t, r1, r2)
}

func TestReactorDriveStopsOnContextCancel(t *testing.T) {
	r, err := New(WithIdleTimeout(10 * time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	driveForTest(t, r)
	// t.Cleanup cancels and waits; reaching here without hanging is the
	// assertion.
}
