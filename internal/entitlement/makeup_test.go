package entitlement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/dance-studio-admin/internal/model"
)

func TestMakeupTransitionTable(t *testing.T) {
	allowed := [][2]string{
		{model.MakeupPending, model.MakeupApproved},
		{model.MakeupPending, model.MakeupRejected},
		{model.MakeupPending, model.MakeupCancelled},
		{model.MakeupApproved, model.MakeupCompleted},
		{model.MakeupApproved, model.MakeupCancelled},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	denied := [][2]string{
		{model.MakeupPending, model.MakeupCompleted},
		{model.MakeupApproved, model.MakeupRejected},
		{model.MakeupCompleted, model.MakeupCancelled},
		{model.MakeupRejected, model.MakeupApproved},
		{model.MakeupCancelled, model.MakeupPending},
		{model.MakeupCompleted, model.MakeupCompleted},
	}
	for _, tr := range denied {
		assert.False(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
}

func TestTerminalMakeupStates(t *testing.T) {
	assert.True(t, TerminalMakeupState(model.MakeupCompleted))
	assert.True(t, TerminalMakeupState(model.MakeupRejected))
	assert.True(t, TerminalMakeupState(model.MakeupCancelled))
	assert.False(t, TerminalMakeupState(model.MakeupPending))
	assert.False(t, TerminalMakeupState(model.MakeupApproved))
}

func TestTransitionMakeupDoesNotMutateOnFailure(t *testing.T) {
	m := &model.MakeupRequest{Status: model.MakeupCompleted}
	err := TransitionMakeup(m, model.MakeupCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, model.MakeupCompleted, m.Status)

	m.Status = model.MakeupPending
	assert.NoError(t, TransitionMakeup(m, model.MakeupApproved))
	assert.Equal(t, model.MakeupApproved, m.Status)
	assert.NoError(t, TransitionMakeup(m, model.MakeupCompleted))
	// Second completion must fail and leave the state alone.
	assert.ErrorIs(t, TransitionMakeup(m, model.MakeupCompleted), ErrInvalidTransition)
	assert.Equal(t, model.MakeupCompleted, m.Status)
}
