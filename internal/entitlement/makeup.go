package entitlement

import "github.com/iliyamo/dance-studio-admin/internal/model"

// makeupTransitions enumerates every legal state change of a makeup
// request.  Anything absent from this table is rejected.
var makeupTransitions = map[[2]string]bool{
	{model.MakeupPending, model.MakeupApproved}:   true,
	{model.MakeupPending, model.MakeupRejected}:   true,
	{model.MakeupPending, model.MakeupCancelled}:  true,
	{model.MakeupApproved, model.MakeupCompleted}: true,
	{model.MakeupApproved, model.MakeupCancelled}: true,
}

// CanTransition reports whether a makeup request in state from may
// move to state to.
func CanTransition(from, to string) bool {
	return makeupTransitions[[2]string{from, to}]
}

// TerminalMakeupState reports whether s permits no further
// transitions.
func TerminalMakeupState(s string) bool {
	switch s {
	case model.MakeupCompleted, model.MakeupRejected, model.MakeupCancelled:
		return true
	}
	return false
}

// TransitionMakeup moves the request to the target state, or returns
// ErrInvalidTransition and leaves the request untouched.
func TransitionMakeup(m *model.MakeupRequest, to string) error {
	if !CanTransition(m.Status, to) {
		return ErrInvalidTransition
	}
	m.Status = to
	return nil
}
