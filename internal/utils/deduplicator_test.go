package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeduplicator(t *testing.T) {
	d := NewDeduplicator(5 * time.Minute)
	clock := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return clock }

	assert.False(t, d.IsDuplicate(""), "empty ids are never duplicates")
	assert.False(t, d.IsDuplicate("msg-1"), "first sighting is not a duplicate")
	assert.True(t, d.IsDuplicate("msg-1"), "second sighting within the window is a duplicate")

	clock = clock.Add(6 * time.Minute)
	assert.False(t, d.IsDuplicate("msg-1"), "sighting after the window is not a duplicate")
}

func TestDeduplicatorForget(t *testing.T) {
	d := NewDeduplicator(5 * time.Minute)

	assert.False(t, d.IsDuplicate("msg-2"))
	d.Forget("msg-2")
	assert.False(t, d.IsDuplicate("msg-2"), "a forgotten id is processed again")
	assert.True(t, d.IsDuplicate("msg-2"))

	d.Forget("never-seen")
	d.Forget("")
	assert.False(t, d.IsDuplicate("msg-3"))
}
