package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRestoreDelayBacksOff(t *testing.T) {
	assert.Zero(t, restoreDelay(0))
	assert.Equal(t, 50*time.Millisecond, restoreDelay(1))
	assert.Equal(t, 100*time.Millisecond, restoreDelay(2))
	assert.Equal(t, 400*time.Millisecond, restoreDelay(4))
	assert.Equal(t, 1600*time.Millisecond, restoreDelay(6))
	assert.Equal(t, maxRestoreDelay, restoreDelay(7))
	assert.Equal(t, maxRestoreDelay, restoreDelay(1000), "capped without overflowing")
}
