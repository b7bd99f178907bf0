package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRegistryExpiresIdleChats(t *testing.T) {
	r := newChatRegistry(100 * time.Millisecond)
	r.add(chat{ID: "a", Customer: "Ann", CreatedAt: time.Now()})
	r.add(chat{ID: "b", Customer: "Bob", CreatedAt: time.Now()})
	require.Equal(t, 2, r.count())

	time.Sleep(60 * time.Millisecond)
	b, ok := r.get("b")
	require.True(t, ok)
	r.touch(b)
	time.Sleep(60 * time.Millisecond)

	_, ok = r.get("a")
	assert.False(t, ok, "idle chat should expire")
	_, ok = r.get("b")
	assert.True(t, ok, "touched chat should stay")
	assert.Equal(t, 1, r.count())
	require.Len(t, r.list(), 1)
	assert.Equal(t, "b", r.list()[0].ID)
}

func TestChatRegistryWithoutTimeoutKeepsChats(t *testing.T) {
	r := newChatRegistry(0)
	r.add(chat{ID: "a", CreatedAt: time.Now()})
	time.Sleep(10 * time.Millisecond)
	_, ok := r.get("a")
	assert.True(t, ok)
}
