package conversation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineFireMovesState(t *testing.T) {
	m, err := NewFlow(StateIdle)
	require.NoError(t, err)

	require.NoError(t, m.Fire(TriggerStartPhoto))
	assert.Equal(t, StateAwaitingPhoto, m.State())

	require.NoError(t, m.Fire(TriggerPhotoReceived))
	assert.Equal(t, StateConfirm, m.State())
}

func TestMachineRejectsUnknownTransition(t *testing.T) {
	m, err := NewFlow(StateIdle)
	require.NoError(t, err)

	err = m.Fire(TriggerPhotoReceived)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, StateIdle, m.State(), "state must not move on a rejected trigger")
}

func TestMachineRejectsUnknownInitialState(t *testing.T) {
	_, err := NewFlow(State("NO_SUCH"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState))
}

func TestCanFire(t *testing.T) {
	m, err := NewFlow(StateConfirm)
	require.NoError(t, err)

	assert.True(t, m.CanFire(TriggerAccept))
	assert.True(t, m.CanFire(TriggerReject))
	assert.False(t, m.CanFire(TriggerPhotoReceived))
}

func TestCancelPermittedFromEveryNonIdleState(t *testing.T) {
	for _, s := range States() {
		if s == StateIdle {
			continue
		}
		m, err := NewFlow(s)
		require.NoError(t, err)

		require.NoError(t, m.Fire(TriggerCancel), "cancel from %s", s)
		assert.Equal(t, StateIdle, m.State())
	}
}

func TestCancelNotPermittedWhenIdle(t *testing.T) {
	m, err := NewFlow(StateIdle)
	require.NoError(t, err)

	assert.False(t, m.CanFire(TriggerCancel))
}

func TestManualEntryChain(t *testing.T) {
	steps := []struct {
		trigger Trigger
		want    State
	}{
		{TriggerStartManual, StateManualAmount},
		{TriggerNext, StateManualDateChoice},
		{TriggerNext, StateManualDateValue},
		{TriggerNext, StateManualTimeChoice},
		{TriggerNext, StateManualTimeValue},
		{TriggerNext, StateManualPlace},
		{TriggerNext, StateManualCategory},
		{TriggerNext, StateConfirm},
		{TriggerAccept, StateIdle},
	}

	m, err := NewFlow(StateIdle)
	require.NoError(t, err)

	for _, step := range steps {
		require.NoError(t, m.Fire(step.trigger))
		assert.Equal(t, step.want, m.State())
	}
}

func TestManualChainUseCurrentSkipsValueStep(t *testing.T) {
	m, err := NewFlow(StateManualDateChoice)
	require.NoError(t, err)

	require.NoError(t, m.Fire(TriggerUseCurrent))
	assert.Equal(t, StateManualTimeChoice, m.State())

	require.NoError(t, m.Fire(TriggerUseCurrent))
	assert.Equal(t, StateManualPlace, m.State())
}

func TestEditLoopReturnsToConfirm(t *testing.T) {
	m, err := NewFlow(StateConfirm)
	require.NoError(t, err)

	require.NoError(t, m.Fire(TriggerReject))
	assert.Equal(t, StateChoosingField, m.State())

	require.NoError(t, m.Fire(TriggerSelectField))
	assert.Equal(t, StateEditingField, m.State())

	require.NoError(t, m.Fire(TriggerSubmitValue))
	assert.Equal(t, StateConfirm, m.State())
}

func TestPermittedTriggers(t *testing.T) {
	m, err := NewFlow(StateManualDateChoice)
	require.NoError(t, err)

	triggers := m.PermittedTriggers()
	assert.ElementsMatch(t,
		[]Trigger{TriggerUseCurrent, TriggerNext, TriggerCancel},
		triggers)
}
