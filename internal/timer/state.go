package timer

// CounterState is an exported snapshot of one hardware timer.
type CounterState struct {
	Value  uint32
	Mode   uint32
	Target uint32
	Div8   uint32
}

// State is an exported snapshot of all three timers, used by
// internal/system's save-state support.
type State struct {
	Counters [3]CounterState
	Vblank   bool
	Hblank   bool
}

// State returns a snapshot of the timers.
func (t *Timers) State() State {
	var s State
	for i, c := range t.counters {
		s.Counters[i] = CounterState{Value: c.value, Mode: c.mode, Target: c.target, Div8: c.div8}
	}
	s.Vblank = t.vblank
	s.Hblank = t.hblank
	return s
}

// SetState restores a previously captured snapshot.
func (t *Timers) SetState(s State) {
	for i, c := range s.Counters {
		t.counters[i] = counter{value: c.Value, mode: c.Mode, target: c.Target, div8: c.Div8}
	}
	t.vblank = s.Vblank
	t.hblank = s.Hblank
}
