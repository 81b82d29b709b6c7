package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishSubscribe(t *testing.T) {
	h := NewHub(4)
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(EntityTransaction, OpCreated, 7)

	c := <-ch
	assert.Equal(t, EntityTransaction, c.Entity)
	assert.Equal(t, OpCreated, c.Op)
	assert.Equal(t, int64(7), c.ID)
	assert.False(t, c.At.IsZero())
}

func TestHubDropsWhenFull(t *testing.T) {
	h := NewHub(1)
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(EntityBudget, OpUpdated, 1)
	h.Publish(EntityBudget, OpUpdated, 2) // dropped, buffer full

	require.Len(t, ch, 1)
	assert.Equal(t, int64(1), (<-ch).ID)
}

func TestHubCancelClosesChannel(t *testing.T) {
	h := NewHub(1)
	ch, cancel := h.Subscribe()
	require.Equal(t, 1, h.Subscribers())

	cancel()
	cancel() // idempotent

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, h.Subscribers())
	h.Publish(EntityChat, OpDeleted, 0) // must not panic on closed subscriber
}
