package dma

// ChannelState is an exported snapshot of one DMA channel's registers.
type ChannelState struct {
	BaseAddress     uint32
	BlockSize       uint16
	BlockAmount     uint16
	ChoppingEnabled bool
	Trigger         bool
	Enable          bool
	Sync            int
	Step            int
	Direction       int
}

// State is an exported snapshot of the DMA controller, used by
// internal/system's save-state support.
type State struct {
	Channels  [7]ChannelState
	Control   uint32
	Interrupt uint32
}

// State returns a snapshot of the controller.
func (d *Dmac) State() State {
	var s State
	for i, c := range d.channels {
		s.Channels[i] = ChannelState{
			BaseAddress:     c.baseAddress,
			BlockSize:       c.blockSize,
			BlockAmount:     c.blockAmount,
			ChoppingEnabled: c.choppingEnabled,
			Trigger:         c.trigger,
			Enable:          c.enable,
			Sync:            int(c.sync),
			Step:            int(c.step),
			Direction:       int(c.direction),
		}
	}
	s.Control = d.control
	s.Interrupt = d.interrupt
	return s
}

// SetState restores a previously captured snapshot.
func (d *Dmac) SetState(s State) {
	for i, c := range s.Channels {
		d.channels[i] = channel{
			baseAddress:     c.BaseAddress,
			blockSize:       c.BlockSize,
			blockAmount:     c.BlockAmount,
			choppingEnabled: c.ChoppingEnabled,
			trigger:         c.Trigger,
			enable:          c.Enable,
			sync:            syncMode(c.Sync),
			step:            step(c.Step),
			direction:       direction(c.Direction),
		}
	}
	d.control = s.Control
	d.interrupt = s.Interrupt
}
