package state

import (
	"fmt"

	"github.com/wfunc/monopoly/logger"
)

// Phase is a game lifecycle state.
type Phase string

const (
	Uninitialized Phase = "uninitialized"
	Initialized   Phase = "initialized"
	Starting      Phase = "starting"
	Running       Phase = "running"
	Stopped       Phase = "stopped"
)

// PhaseState adapts a Phase to the State interface. Enter and Exit are
// optional hooks.
type PhaseState struct {
	ID    Phase
	Enter func()
	Exit  func()
}

func (s *PhaseState) GetID() string { return string(s.ID) }

func (s *PhaseState) OnEnter() {
	if s.Enter != nil {
		s.Enter()
	}
}

func (s *PhaseState) OnExit() {
	if s.Exit != nil {
		s.Exit()
	}
}

// Lifecycle is the game's strict phase machine:
//
//	uninitialized -> initialized -> starting -> running -> initialized
//	initialized -> running                 (preset)
//	any -> stopped                         (terminal)
type Lifecycle struct {
	machine *BaseStateMachine
	states  map[Phase]*PhaseState
}

// NewLifecycle builds the machine in Uninitialized. canStart guards
// initialized -> starting; nil allows it unconditionally.
func NewLifecycle(canStart func() bool) *Lifecycle {
	l := &Lifecycle{states: make(map[Phase]*PhaseState)}
	for _, p := range []Phase{Uninitialized, Initialized, Starting, Running, Stopped} {
		l.states[p] = &PhaseState{ID: p}
	}
	l.machine = NewStrictStateMachine(l.states[Uninitialized])

	l.allow(Uninitialized, Initialized, nil)
	l.allow(Initialized, Starting, canStart)
	l.allow(Starting, Running, nil)
	l.allow(Initialized, Running, nil)
	l.allow(Running, Initialized, nil)
	for _, p := range []Phase{Uninitialized, Initialized, Starting, Running} {
		l.allow(p, Stopped, nil)
	}
	return l
}

func (l *Lifecycle) allow(from, to Phase, condition func() bool) {
	l.machine.AddTransition(l.states[from], l.states[to], condition)
}

// Phase returns the current phase.
func (l *Lifecycle) Phase() Phase {
	return Phase(l.machine.GetCurrentState().GetID())
}

// To moves the machine to p. Errors wrap ErrTransitionNotAllowed.
func (l *Lifecycle) To(p Phase) error {
	from := l.Phase()
	next, ok := l.states[p]
	if !ok {
		return fmt.Errorf("%w: unknown phase %q", ErrTransitionNotAllowed, p)
	}
	if err := l.machine.ChangeState(next); err != nil {
		return fmt.Errorf("%w: %s -> %s", err, from, p)
	}
	logger.Log.Debugf("lifecycle %s -> %s", from, p)
	return nil
}

// OnEnter installs a hook run every time p is entered.
func (l *Lifecycle) OnEnter(p Phase, fn func()) {
	if s, ok := l.states[p]; ok {
		s.Enter = fn
	}
}
