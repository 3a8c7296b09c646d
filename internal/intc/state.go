package intc

// State is an exported snapshot of the interrupt controller's status
// and mask latches, used by internal/system's save-state support.
type State struct {
	Status  uint16
	Mask    uint16
	Pending bool
}

// State returns a snapshot of the controller.
func (i *Intc) State() State {
	return State{Status: i.status, Mask: i.mask, Pending: i.pending}
}

// SetState restores a previously captured snapshot.
func (i *Intc) SetState(s State) {
	i.status = s.Status
	i.mask = s.Mask
	i.pending = s.Pending
}
