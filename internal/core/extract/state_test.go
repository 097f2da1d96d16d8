package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StateIdle, StateReadingTextLayer))
	assert.True(t, CanTransition(StateIdle, StateRunningOCR))
	assert.True(t, CanTransition(StateReadingTextLayer, StateDone))
	assert.True(t, CanTransition(StateRasterizing, StateFailed))

	assert.False(t, CanTransition(StateIdle, StateDone))
	assert.False(t, CanTransition(StateIdle, StateRasterizing))
	assert.False(t, CanTransition(StateRunningOCR, StateRasterizing))
	assert.False(t, CanTransition(StateDone, StateFailed))
}

func TestMachinePanicsOnIllegalTransition(t *testing.T) {
	m := newMachine()
	assert.Panics(t, func() { m.to(StateDone) })
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "RunningOcr", StateRunningOCR.String())
	assert.Equal(t, "Unknown", State(42).String())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateRasterizing.Terminal())
}
