package host

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())

	resumed := NewClockAt(41)
	assert.Equal(t, int64(42), resumed.Next())
}

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()

	id, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b, "v7 ids sort by creation time")
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("s1", "s2")
	assert.Equal(t, "s1", gen.Generate())
	assert.Equal(t, "s2", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestHostError(t *testing.T) {
	err := NewQuotaError("s1", 11, 10)
	assert.Equal(t, "QUOTA_EXCEEDED: drain exceeded max steps (11 > 10) (session=s1)", err.Error())
	assert.Equal(t, "10", err.Details["max_steps"])

	wrapped := fmt.Errorf("running scenario: %w", err)
	assert.True(t, IsQuotaError(wrapped))
	assert.False(t, IsTargetError(wrapped))
	assert.False(t, IsStoppedError(fmt.Errorf("plain")))

	bare := &HostError{Code: ErrCodeStopped, Message: "app is stopped"}
	assert.Equal(t, "STOPPED: app is stopped", bare.Error())
}

func TestStepQueue(t *testing.T) {
	q := newStepQueue()
	q.push(step{payload: 1})
	q.push(step{payload: 2})
	assert.Equal(t, 2, q.len())

	s, ok := q.pop()
	require.True(t, ok)
	assert.Equal(t, 1, s.payload)

	q.reset()
	_, ok = q.pop()
	assert.False(t, ok)
}
