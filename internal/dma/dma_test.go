package dma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psx-core/internal/intc"
)

// fakeRAM is a small word-addressed memory window standing in for the
// 2 MiB of system RAM.
type fakeRAM struct {
	words map[uint32]uint32
}

func newFakeRAM() *fakeRAM { return &fakeRAM{words: map[uint32]uint32{}} }

func (r *fakeRAM) ReadRAMWord(addr uint32) uint32         { return r.words[addr&0x1ffffc] }
func (r *fakeRAM) WriteRAMWord(addr uint32, value uint32) { r.words[addr&0x1ffffc] = value }

// fakeGPU records GP0 pushes and replays canned GPUREAD words.
type fakeGPU struct {
	gp0  []uint32
	read []uint32
}

func (g *fakeGPU) GP0Write(value uint32) { g.gp0 = append(g.gp0, value) }

func (g *fakeGPU) GPURead() uint32 {
	if len(g.read) == 0 {
		return 0
	}
	v := g.read[0]
	g.read = g.read[1:]
	return v
}

type fakeSPU struct {
	written []uint32
}

func (s *fakeSPU) DMARead() uint32       { return 0 }
func (s *fakeSPU) DMAWrite(value uint32) { s.written = append(s.written, value) }

type fakeCDROM struct{}

func (fakeCDROM) DMARead() uint32 { return 0 }

type fakeMDEC struct{}

func (fakeMDEC) DMARead() uint32   { return 0 }
func (fakeMDEC) DMAWrite(_ uint32) {}

func newTestDmac() (*Dmac, *fakeRAM, *fakeGPU, *fakeSPU, *intc.Intc) {
	ram := newFakeRAM()
	gpu := &fakeGPU{}
	spu := &fakeSPU{}
	ic := intc.New()
	d := New(ram, gpu, fakeCDROM{}, spu, fakeMDEC{}, ic)
	d.Write32(0x70, 0xffffffff) // enable every channel in DPCR
	return d, ram, gpu, spu, ic
}

const (
	ctrlEnable  = 1 << 24
	ctrlTrigger = 1 << 28
	ctrlFromRAM = 1 << 0
	ctrlRequest = 1 << 9
	ctrlLinked  = 2 << 9
)

func TestOTCBuildsTerminatorChain(t *testing.T) {
	d, ram, _, _, _ := newTestDmac()

	d.Write32(0x60, 0x200) // OTC base
	d.Write32(0x64, 4)     // block size
	d.Write32(0x68, ctrlEnable|ctrlTrigger)

	assert.Equal(t, uint32(0x1fc), ram.words[0x200])
	assert.Equal(t, uint32(0x1f8), ram.words[0x1fc])
	assert.Equal(t, uint32(0x1f4), ram.words[0x1f8])
	assert.Equal(t, uint32(0xffffff), ram.words[0x1f4], "chain ends in the terminator sentinel")
}

func TestOTCChannelControlForcesBackwardStep(t *testing.T) {
	d, _, _, _, _ := newTestDmac()

	d.Write32(0x68, 0)
	assert.NotZero(t, d.Read32(0x68)&0x2, "OTC always reads step=backward")
}

func TestManualGPUFromRAMPushesWords(t *testing.T) {
	d, ram, gpu, _, _ := newTestDmac()

	ram.words[0x100] = 0x11111111
	ram.words[0x104] = 0x22222222
	ram.words[0x108] = 0x33333333

	d.Write32(0x20, 0x100) // GPU channel base
	d.Write32(0x24, 3)
	d.Write32(0x28, ctrlEnable|ctrlTrigger|ctrlFromRAM)

	require.Equal(t, []uint32{0x11111111, 0x22222222, 0x33333333}, gpu.gp0)

	ctrl := d.Read32(0x28)
	assert.Zero(t, ctrl&ctrlEnable, "enable clears on completion")
	assert.Zero(t, ctrl&ctrlTrigger, "trigger clears on completion")
}

func TestRequestSyncTransfersBlockCountTimesBlockSize(t *testing.T) {
	d, ram, _, spu, _ := newTestDmac()

	for i := uint32(0); i < 6; i++ {
		ram.words[0x300+i*4] = 0xa0 + i
	}

	d.Write32(0x40, 0x300)     // SPU channel base
	d.Write32(0x44, 3<<16|2)   // 3 blocks of 2 words
	d.Write32(0x48, ctrlEnable|ctrlRequest|ctrlFromRAM)

	assert.Equal(t, []uint32{0xa0, 0xa1, 0xa2, 0xa3, 0xa4, 0xa5}, spu.written)
}

func TestLinkedListWalksChainToTerminator(t *testing.T) {
	d, ram, gpu, _, _ := newTestDmac()

	// Node A: two payload words, then node B; node B: one word, end.
	ram.words[0x100] = 2<<24 | 0x180
	ram.words[0x104] = 0xaaaaaaaa
	ram.words[0x108] = 0xbbbbbbbb
	ram.words[0x180] = 1<<24 | 0xffffff
	ram.words[0x184] = 0xcccccccc

	d.Write32(0x20, 0x100)
	d.Write32(0x28, ctrlEnable|ctrlLinked|ctrlFromRAM)

	assert.Equal(t, []uint32{0xaaaaaaaa, 0xbbbbbbbb, 0xcccccccc}, gpu.gp0)
}

func TestCompletionSetsChannelFlagAndMasterEdgeAssertsINTC(t *testing.T) {
	d, _, _, _, ic := newTestDmac()
	ic.WriteMask(1 << uint(intc.DMA))

	// DICR: master enable + channel-6 IRQ enable.
	d.Write32(0x74, 1<<23|1<<(16+6))

	d.Write32(0x60, 0x40)
	d.Write32(0x64, 2)
	d.Write32(0x68, ctrlEnable|ctrlTrigger)

	interrupt := d.Read32(0x74)
	assert.NotZero(t, interrupt&(1<<(24+6)), "channel-6 IRQ flag")
	assert.NotZero(t, interrupt&(1<<31), "master flag")
	assert.True(t, ic.Pending())
}

func TestCompletionWithoutEnableLeavesFlagClear(t *testing.T) {
	d, _, _, _, ic := newTestDmac()
	ic.WriteMask(1 << uint(intc.DMA))

	d.Write32(0x60, 0x40)
	d.Write32(0x64, 2)
	d.Write32(0x68, ctrlEnable|ctrlTrigger)

	assert.Zero(t, d.Read32(0x74)&(1<<(24+6)))
	assert.False(t, ic.Pending())
}

func TestInterruptFlagsAreWriteOneToClear(t *testing.T) {
	d, _, _, _, _ := newTestDmac()

	d.Write32(0x74, 1<<23|1<<(16+6))
	d.Write32(0x60, 0x40)
	d.Write32(0x64, 1)
	d.Write32(0x68, ctrlEnable|ctrlTrigger)
	require.NotZero(t, d.Read32(0x74)&(1<<(24+6)))

	// Acknowledge by writing the flag bit back.
	d.Write32(0x74, 1<<23|1<<(16+6)|1<<(24+6))
	interrupt := d.Read32(0x74)
	assert.Zero(t, interrupt&(1<<(24+6)))
	assert.Zero(t, interrupt&(1<<31), "master flag drops once no flag survives")
}

func TestDisabledChannelDoesNotRun(t *testing.T) {
	ram := newFakeRAM()
	gpu := &fakeGPU{}
	d := New(ram, gpu, fakeCDROM{}, &fakeSPU{}, fakeMDEC{}, intc.New())

	// Power-on DPCR leaves the GPU channel master-disabled.
	d.Write32(0x70, 0)

	ram.words[0x100] = 0x12345678
	d.Write32(0x20, 0x100)
	d.Write32(0x24, 1)
	d.Write32(0x28, ctrlEnable|ctrlTrigger|ctrlFromRAM)

	assert.Empty(t, gpu.gp0)
	assert.NotZero(t, d.Read32(0x28)&ctrlEnable, "channel stays armed")
}
