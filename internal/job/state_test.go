package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegalTransitions(t *testing.T) {
	cases := []struct {
		from, to State
	}{
		{Queued, Started},
		{Queued, Cancelled},
		{Started, Succeeded},
		{Started, Failed},
		{Started, Cancelled},
	}
	for _, c := range cases {
		assert.NoError(t, Transition(c.from, c.to), "%s -> %s", c.from, c.to)
		assert.True(t, CanTransition(c.from, c.to))
	}
}

func TestIllegalTransitions(t *testing.T) {
	cases := []struct {
		from, to State
	}{
		{Queued, Succeeded},
		{Queued, Failed},
		{Succeeded, Failed},
		{Failed, Started},
		{Cancelled, Queued},
		{Started, Queued},
		{Succeeded, Queued},
		{Succeeded, Succeeded},
	}
	for _, c := range cases {
		err := Transition(c.from, c.to)
		require.Error(t, err, "%s -> %s should be rejected", c.from, c.to)
		assert.True(t, IsError(err, CodeInvalidTransition))
		assert.False(t, CanTransition(c.from, c.to))
	}
}

func TestScenarioFQueuedToSucceededRejected(t *testing.T) {
	err := Transition(Queued, Succeeded)
	assert.Error(t, err)
}

func TestScenarioFSucceededToFailedRejected(t *testing.T) {
	err := Transition(Succeeded, Failed)
	assert.Error(t, err)
}

func TestScenarioFStartedToCancelledAccepted(t *testing.T) {
	err := Transition(Started, Cancelled)
	assert.NoError(t, err)
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(Succeeded))
	assert.True(t, IsTerminal(Failed))
	assert.True(t, IsTerminal(Cancelled))
	assert.False(t, IsTerminal(Queued))
	assert.False(t, IsTerminal(Started))
}

func TestNoTransitionOutOfTerminalState(t *testing.T) {
	for _, terminal := range []State{Succeeded, Failed, Cancelled} {
		for _, to := range []State{Queued, Started, Succeeded, Failed, Cancelled} {
			assert.False(t, CanTransition(terminal, to), "%s -> %s must be illegal", terminal, to)
		}
	}
}
