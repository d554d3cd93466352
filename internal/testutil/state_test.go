package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjAndGet(t *testing.T) {
	s := Obj("foo", Obj("foo", 2, "baz", 1), "bar", 5)

	assert.Equal(t, 2, Get(s, "foo", "foo"))
	assert.Equal(t, 5, Get(s, "bar"))
	assert.Nil(t, Get(s, "missing", "deeper"))
	assert.Nil(t, Get(s, "bar", "baz"), "non-map intermediate reads as nil")
	assert.Equal(t, s, Get(s))

	assert.Panics(t, func() { Obj("odd") })
}

func TestFixedSession(t *testing.T) {
	gen := NewFixedSession("s-1")
	assert.Equal(t, "s-1", gen.Generate())
	assert.Equal(t, "s-1", gen.Generate())
	assert.Equal(t, "test-session-default", NewFixedSession("").Generate())
}
