package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psx-core/internal/intc"
)

func TestTargetIRQAndReset(t *testing.T) {
	ic := intc.New()
	ic.WriteMask(0x7ff)
	tm := New()

	tm.Write(0x08, 10)            // target = 10
	tm.Write(0x04, 0x8|0x10|0x400) // reset-on-target, irq-on-target, irq-request

	tm.Tick(ic, 10)

	assert.True(t, ic.Pending())
	assert.Equal(t, uint32(0), tm.Read(0x00), "counter resets to 0 on hitting target")
}

func TestWrapSetsReachedWrapBit(t *testing.T) {
	ic := intc.New()
	tm := New()

	tm.Write(0x00, 0xfffe)
	tm.Tick(ic, 4)

	mode := tm.Read(0x04)
	require.NotZero(t, mode&modeReachedWrap)
}

func TestCounter1FreezesUntilVblank(t *testing.T) {
	ic := intc.New()
	tm := New()

	tm.Write(0x00+0x10, 0)
	tm.Write(0x04+0x10, 0x7) // sync enable + sync mode 3 -> freeze until vblank

	tm.Tick(ic, 100)
	assert.Equal(t, uint32(0), tm.Read(0x00+0x10), "frozen counter does not advance")

	tm.SetVblank(true)
	tm.Tick(ic, 100)
	assert.Equal(t, uint32(100), tm.Read(0x00+0x10), "counter advances once vblank releases the freeze")
}

func TestCounter2Source1Freeze(t *testing.T) {
	ic := intc.New()
	tm := New()

	tm.Write(0x00+0x20, 0)
	tm.Write(0x04+0x20, 0x1) // sync enable with source-1 -> freeze

	tm.Tick(ic, 100)
	assert.Equal(t, uint32(0), tm.Read(0x00+0x20))
}
