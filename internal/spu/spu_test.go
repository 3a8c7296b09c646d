package spu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psx-core/internal/debug"
	"psx-core/internal/intc"
)

func TestADSRAttackRampsTowardFullScale(t *testing.T) {
	a := &Adsr{State: AdsrAttack, Config: 0x7f00_0000} // fast linear attack
	for i := 0; i < 200000 && a.State == AdsrAttack; i++ {
		a.Update()
	}
	assert.Equal(t, AdsrDecay, a.State)
}

func TestKeyOnResetsEnvelopeAndAddress(t *testing.T) {
	v := &Voice{startAddress: 0x100}
	v.KeyOn()
	assert.Equal(t, AdsrAttack, v.adsr.State)
	assert.Equal(t, uint32(0x100), v.currentAddress)
	assert.Equal(t, uint32(0x100), v.repeatAddress)
}

func TestVoiceRegisterRoundTrip(t *testing.T) {
	v := &Voice{}
	v.Write16(0x4, 0x1234)
	assert.Equal(t, uint16(0x1234), v.Read16(0x4))

	v.Write16(0x6, 0x10)
	assert.Equal(t, uint32(0x80), v.startAddress)
}

func TestSpuRegisterWriteReadMainVolume(t *testing.T) {
	s := New(debug.NewLogger(128))
	s.Write16(0x1f801d80-base, 0x4000)
	assert.Equal(t, uint16(0x4000), s.Read16(0x1f801d80-base))
}

func TestSpuTickProducesOutputSamples(t *testing.T) {
	s := New(debug.NewLogger(128))
	ic := intc.New()

	s.Tick(ic)
	out := s.DrainSamples()
	require.Len(t, out, 2)
}

func TestCDPushFeedsMixer(t *testing.T) {
	s := New(debug.NewLogger(128))
	ic := intc.New()

	s.control.cdEnable = true
	s.cdVolume = Volume{Left: 0x7fff, Right: 0x7fff}

	s.CDPush(1000, -1000)
	s.Tick(ic)

	assert.Empty(t, s.cdLeftBuffer)
}

func TestCaptureIndexWrapsEvery0x200Samples(t *testing.T) {
	s := New(debug.NewLogger(128))
	ic := intc.New()

	for i := 0; i < 0x1ff; i++ {
		s.Tick(ic)
	}
	assert.Equal(t, uint32(0x3fe), s.captureIndex)

	s.Tick(ic)
	assert.Equal(t, uint32(0), s.captureIndex)
}

func TestDMARoundTrip(t *testing.T) {
	s := New(debug.NewLogger(128))
	s.dataTransfer.current = 0

	s.DMAWrite(0x12345678)
	s.dataTransfer.current = 0
	assert.Equal(t, uint32(0x12345678), s.DMARead())
}
