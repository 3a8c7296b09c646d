package system

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSystem(t *testing.T) *System {
	t.Helper()

	dir := t.TempDir()
	biosPath := filepath.Join(dir, "bios.bin")
	bios := make([]byte, 512*1024)
	require.NoError(t, os.WriteFile(biosPath, bios, 0o644))

	cfg := DefaultConfig()
	cfg.BIOSPath = biosPath
	cfg.MemoryCardPath = filepath.Join(dir, "card.mcr")
	cfg.StatesDir = filepath.Join(dir, "states")

	sys, err := New(cfg)
	require.NoError(t, err)
	sys.Reset()
	return sys
}

func TestNewWiresEveryDevice(t *testing.T) {
	sys := newTestSystem(t)

	assert.NotNil(t, sys.Bus)
	assert.NotNil(t, sys.CPU)
	assert.NotNil(t, sys.GTE)
	assert.NotNil(t, sys.INTC)
	assert.NotNil(t, sys.Timers)
	assert.NotNil(t, sys.DMA)
	assert.NotNil(t, sys.GPU)
	assert.NotNil(t, sys.CDROM)
	assert.NotNil(t, sys.SPU)
	assert.NotNil(t, sys.MDEC)
	assert.NotNil(t, sys.SIO0)
	assert.NotNil(t, sys.Clock)
}

// TestSaveLoadStateRoundTrip mirrors the teacher's save/load coverage:
// mutate visible state across several devices, snapshot it, mutate it
// again, then restore and check the mutations were undone.
func TestSaveLoadStateRoundTrip(t *testing.T) {
	sys := newTestSystem(t)

	sys.Bus.RAM[0x1000] = 0xAB
	sys.Controller().ButtonCross = true

	data, err := sys.SaveState()
	require.NoError(t, err)
	require.NotEmpty(t, data)

	sys.Bus.RAM[0x1000] = 0xFF
	sys.Controller().ButtonCross = false

	require.NoError(t, sys.LoadState(data))

	assert.Equal(t, byte(0xAB), sys.Bus.RAM[0x1000])
	assert.True(t, sys.Controller().ButtonCross)
}

func TestLoadStateRejectsWrongVersion(t *testing.T) {
	sys := newTestSystem(t)

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(SaveState{Version: saveStateVersion + 1}))

	assert.Error(t, sys.LoadState(buf.Bytes()))
}
