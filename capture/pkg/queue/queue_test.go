package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_PushReturnsNewLength(t *testing.T) {
	q := New("dataLayer")

	assert.Equal(t, 1, q.Push("a"))
	assert.Equal(t, 3, q.Push("b", "c"))
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, []interface{}{"a", "b", "c"}, q.Snapshot())
}

func TestQueue_SnapshotIsACopy(t *testing.T) {
	q := New("dataLayer")
	q.Push("a")

	snap := q.Snapshot()
	snap[0] = "mutated"
	assert.Equal(t, []interface{}{"a"}, q.Snapshot())
}

func TestQueue_WrapObservesWithoutAltering(t *testing.T) {
	q := New("dataLayer")
	q.Push("before")

	var seen []interface{}
	prev, err := q.Wrap(func(original PushFunc) PushFunc {
		return func(items ...interface{}) int {
			n := original(items...)
			seen = append(seen, items...)
			return n
		}
	})
	require.NoError(t, err)
	require.NotNil(t, prev)

	// Return value and stored items match unwrapped behavior.
	assert.Equal(t, 3, q.Push("x", "y"))
	assert.Equal(t, []interface{}{"x", "y"}, seen)
	assert.Equal(t, []interface{}{"before", "x", "y"}, q.Snapshot())

	// Restoring the previous operation stops observation.
	_, err = q.SwapPush(prev)
	require.NoError(t, err)
	assert.Equal(t, 4, q.Push("z"))
	assert.Len(t, seen, 2)
}

func TestQueue_SealBlocksHooks(t *testing.T) {
	q := New("dataLayer")
	q.Seal()

	_, err := q.SwapPush(func(items ...interface{}) int { return 0 })
	assert.ErrorIs(t, err, ErrSealed)

	_, err = q.Wrap(func(original PushFunc) PushFunc { return original })
	assert.ErrorIs(t, err, ErrSealed)

	// Pushing still works on a sealed queue.
	assert.Equal(t, 1, q.Push("a"))
}

func TestRegistry_EnsureAndOrder(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Get("dataLayer")
	assert.False(t, ok)

	q1 := r.Ensure("dataLayer")
	q2 := r.Ensure("digitalData")
	assert.Same(t, q1, r.Ensure("dataLayer"))

	got, ok := r.Get("digitalData")
	require.True(t, ok)
	assert.Same(t, q2, got)

	assert.Equal(t, []string{"dataLayer", "digitalData"}, r.Names())
}
