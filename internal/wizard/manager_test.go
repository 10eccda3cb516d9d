package wizard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerCreateGetRemove(t *testing.T) {
	m := NewManager(time.Hour, time.Hour)
	s := m.Create(testDefinition(), ModeCreate, "")
	require.NotEmpty(t, s.ID)
	assert.Equal(t, 1, m.Len())

	got := m.Get(s.ID)
	require.NotNil(t, got)
	assert.Equal(t, s.ID, got.ID)

	assert.Nil(t, m.Get("no-such-id"))

	m.Remove(s.ID)
	assert.Nil(t, m.Get(s.ID))
	assert.Equal(t, 0, m.Len())
}

func TestManagerExpiry(t *testing.T) {
	m := NewManager(time.Hour, time.Nanosecond)
	s := m.Create(testDefinition(), ModeCreate, "")
	time.Sleep(time.Millisecond)

	// Idle-expired sessions vanish on access.
	assert.Nil(t, m.Get(s.ID))
	assert.Equal(t, 0, m.Len())
}

func TestManagerCleanup(t *testing.T) {
	m := NewManager(time.Hour, time.Nanosecond)
	m.Create(testDefinition(), ModeCreate, "")
	m.Create(testDefinition(), ModeCreate, "")
	time.Sleep(time.Millisecond)

	m.Cleanup()
	assert.Equal(t, 0, m.Len())
}
