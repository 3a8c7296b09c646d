package system

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"psx-core/internal/cdrom"
	"psx-core/internal/cpu"
	"psx-core/internal/dma"
	"psx-core/internal/gpu"
	"psx-core/internal/gte"
	"psx-core/internal/intc"
	"psx-core/internal/mdec"
	"psx-core/internal/sio0"
	"psx-core/internal/spu"
	"psx-core/internal/timer"
)

const saveStateVersion = 1

func init() {
	gob.Register(SaveState{})
}

// SaveState is a complete snapshot of the running machine, excluding
// the loaded BIOS image (reloaded from the configured path on restore)
// and the memory card (persisted separately to its own file).
type SaveState struct {
	Version uint16

	RAM        [ramSize]byte
	Scratchpad [scratchpadSize]byte

	CPU    cpu.State
	GTE    gte.State
	INTC   intc.State
	Timers timer.State
	DMA    dma.State
	GPU    gpu.State
	CDROM  cdrom.State
	SPU    spu.State
	MDEC   mdec.State
	SIO0   sio0.State
}

const (
	ramSize        = 2 * 1024 * 1024
	scratchpadSize = 1024
)

// SaveState captures every device's state and gob-encodes the result.
func (s *System) SaveState() ([]byte, error) {
	state := SaveState{
		Version:    saveStateVersion,
		RAM:        s.Bus.RAM,
		Scratchpad: s.Bus.Scratchpad,
		CPU:        s.CPU.State(),
		GTE:        s.GTE.State(),
		INTC:       s.INTC.State(),
		Timers:     s.Timers.State(),
		DMA:        s.DMA.State(),
		GPU:        s.GPU.State(),
		CDROM:      s.CDROM.State(),
		SPU:        s.SPU.State(),
		MDEC:       s.MDEC.State(),
		SIO0:       s.SIO0.State(),
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return nil, fmt.Errorf("system: failed to encode save state: %w", err)
	}
	return buf.Bytes(), nil
}

// LoadState decodes data and restores every device to the snapshot it
// describes.
func (s *System) LoadState(data []byte) error {
	var state SaveState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return fmt.Errorf("system: failed to decode save state: %w", err)
	}
	if state.Version != saveStateVersion {
		return fmt.Errorf("system: unsupported save state version %d (expected %d)", state.Version, saveStateVersion)
	}

	s.Bus.RAM = state.RAM
	s.Bus.Scratchpad = state.Scratchpad
	s.CPU.SetState(state.CPU)
	s.GTE.SetState(state.GTE)
	s.INTC.SetState(state.INTC)
	s.Timers.SetState(state.Timers)
	s.DMA.SetState(state.DMA)
	s.GPU.SetState(state.GPU)
	s.CDROM.SetState(state.CDROM)
	s.SPU.SetState(state.SPU)
	s.MDEC.SetState(state.MDEC)
	s.SIO0.SetState(state.SIO0)

	return nil
}
