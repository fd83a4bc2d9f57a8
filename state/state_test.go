package state

import (
	"errors"
	"testing"
)

// MockState is a test double for the State interface.
// It helps us track which methods have been called.
type MockState struct {
	ID            string
	OnEnterCalled bool
	OnExitCalled  bool
}

func (m *MockState) OnEnter() {
	m.OnEnterCalled = true
}

func (m *MockState) OnExit() {
	m.OnExitCalled = true
}

func (m *MockState) GetID() string {
	return m.ID
}

// reset clears the call tracking flags.
func (m *MockState) reset() {
	m.OnEnterCalled = false
	m.OnExitCalled = false
}

func TestStateMachine_InitialState(t *testing.T) {
	initialState := &MockState{ID: "initial"}
	sm := NewBaseStateMachine(initialState)

	if !initialState.OnEnterCalled {
		t.Error("Expected OnEnter to be called on the initial state")
	}

	if sm.GetCurrentState() != initialState {
		t.Error("GetCurrentState should return the initial state")
	}
}

func TestStateMachine_ChangeState(t *testing.T) {
	initialState := &MockState{ID: "initial"}
	nextState := &MockState{ID: "next"}

	sm := NewBaseStateMachine(initialState)
	initialState.reset() // Reset after initialization

	err := sm.ChangeState(nextState)
	if err != nil {
		t.Fatalf("ChangeState should not return an error, but got: %v", err)
	}

	if !initialState.OnExitCalled {
		t.Error("Expected OnExit to be called on the old state")
	}

	if !nextState.OnEnterCalled {
		t.Error("Expected OnEnter to be called on the new state")
	}

	if sm.GetCurrentState() != nextState {
		t.Error("GetCurrentState should return the new state")
	}
}

func TestStateMachine_AddAndUseTransition(t *testing.T) {
	stateA := &MockState{ID: "A"}
	stateB := &MockState{ID: "B"}
	stateC := &MockState{ID: "C"}

	sm := NewBaseStateMachine(stateA)

	// Add a valid transition from A to B
	err := sm.AddTransition(stateA, stateB, func() bool { return true })
	if err != nil {
		t.Fatalf("AddTransition failed: %v", err)
	}

	// Add a blocked transition from B to C
	err = sm.AddTransition(stateB, stateC, func() bool { return false })
	if err != nil {
		t.Fatalf("AddTransition failed: %v", err)
	}

	// --- Test valid transition ---
	stateA.reset()
	err = sm.ChangeState(stateB)
	if err != nil {
		t.Errorf("Expected transition from A to B to be allowed, but got error: %v", err)
	}
	if sm.GetCurrentState().GetID() != "B" {
		t.Errorf("Expected current state to be B, but got %s", sm.GetCurrentState().GetID())
	}

	// --- Test blocked transition ---
	stateB.reset()
	err = sm.ChangeState(stateC)
	if err != ErrTransitionNotAllowed {
		t.Errorf("Expected ErrTransitionNotAllowed, but got: %v", err)
	}
	if sm.GetCurrentState().GetID() != "B" {
		t.Errorf("Expected current state to remain B after a blocked transition, but got %s", sm.GetCurrentState().GetID())
	}
	if stateB.OnExitCalled {
		t.Error("OnExit should not be called on the current state if transition is blocked")
	}
	if stateC.OnEnterCalled {
		t.Error("OnEnter should not be called on the new state if transition is blocked")
	}
}

func TestStrictStateMachine_RejectsUnknownTransition(t *testing.T) {
	stateA := &MockState{ID: "A"}
	stateB := &MockState{ID: "B"}
	stateC := &MockState{ID: "C"}

	sm := NewStrictStateMachine(stateA)
	sm.AddTransition(stateA, stateB, nil)

	if err := sm.ChangeState(stateC); err != ErrTransitionNotAllowed {
		t.Errorf("Expected ErrTransitionNotAllowed for an unregistered transition, got: %v", err)
	}
	if err := sm.ChangeState(stateB); err != nil {
		t.Errorf("Expected registered transition with nil condition to pass, got: %v", err)
	}
}

func TestLifecycle_HappyPath(t *testing.T) {
	seated := 0
	l := NewLifecycle(func() bool { return seated >= 2 })

	if l.Phase() != Uninitialized {
		t.Fatalf("Expected uninitialized, got %s", l.Phase())
	}
	if err := l.To(Initialized); err != nil {
		t.Fatalf("To(Initialized): %v", err)
	}

	if err := l.To(Starting); !errors.Is(err, ErrTransitionNotAllowed) {
		t.Errorf("Expected start to be refused with one seat, got %v", err)
	}

	seated = 2
	for _, p := range []Phase{Starting, Running, Initialized, Running, Stopped} {
		if err := l.To(p); err != nil {
			t.Fatalf("To(%s): %v", p, err)
		}
	}
	if l.Phase() != Stopped {
		t.Errorf("Expected stopped, got %s", l.Phase())
	}
}

func TestLifecycle_StoppedIsTerminal(t *testing.T) {
	l := NewLifecycle(nil)
	if err := l.To(Stopped); err != nil {
		t.Fatalf("To(Stopped): %v", err)
	}
	for _, p := range []Phase{Uninitialized, Initialized, Running, Stopped} {
		if err := l.To(p); !errors.Is(err, ErrTransitionNotAllowed) {
			t.Errorf("Expected %s to be refused after stop, got %v", p, err)
		}
	}
}

func TestLifecycle_StartingNeedsInitialized(t *testing.T) {
	l := NewLifecycle(nil)
	if err := l.To(Running); !errors.Is(err, ErrTransitionNotAllowed) {
		t.Errorf("Expected uninitialized -> running to be refused, got %v", err)
	}
	l.To(Initialized)
	l.To(Starting)
	if err := l.To(Initialized); !errors.Is(err, ErrTransitionNotAllowed) {
		t.Errorf("Expected starting -> initialized to be refused, got %v", err)
	}
}

func TestLifecycle_OnEnterHook(t *testing.T) {
	l := NewLifecycle(nil)
	entered := 0
	l.OnEnter(Initialized, func() { entered++ })

	l.To(Initialized)
	l.To(Running)
	l.To(Initialized)
	if entered != 2 {
		t.Errorf("Expected the hook to run twice, ran %d times", entered)
	}
}
