package cdrom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psx-core/internal/debug"
	"psx-core/internal/intc"
)

type fakeSPU struct {
	pushed [][2]int16
}

func (f *fakeSPU) CDPush(l, r int16)  { f.pushed = append(f.pushed, [2]int16{l, r}) }
func (f *fakeSPU) CDPushLeft(s int16) { f.pushed = append(f.pushed, [2]int16{s, 0}) }
func (f *fakeSPU) CDPushRight(s int16) { f.pushed = append(f.pushed, [2]int16{0, s}) }

func newTestCdrom() *Cdrom {
	return New(NoDiskContainer{}, debug.NewLogger(256))
}

func TestIndexWriteSelectsRegisterBank(t *testing.T) {
	c := newTestCdrom()
	c.Write(0, 1)
	assert.Equal(t, index1, c.idx)
}

func TestParameterAndCommandFIFO(t *testing.T) {
	c := newTestCdrom()
	c.Write(0, 0) // index 0
	c.Write(2, 0x01)
	require.False(t, c.parameterBuffer.isEmpty())

	c.Write(1, 0x19) // Test command
	require.True(t, c.hasCommand)
	assert.Equal(t, uint8(0x19), c.command)
}

func TestGetStatCommandPushesStatByte(t *testing.T) {
	c := newTestCdrom()
	ic := intc.New()
	spu := &fakeSPU{}

	c.Write(0, 0)
	c.Write(1, 0x01) // GetStat

	for i := 0; i < 64; i++ {
		c.Tick(ic, spu, 8448)
	}

	assert.True(t, c.responseBuffer.hasData() || c.controllerResponseBuffer.hasData() || c.interruptFlags != 0)
}

// runCommand issues one controller command, ticks until its interrupt
// latches, then reads out the response and acknowledges.
func runCommand(t *testing.T, c *Cdrom, cmd uint8, params ...uint8) []uint8 {
	t.Helper()
	ic := intc.New()
	spu := &fakeSPU{}

	c.Write(0, 0)
	for _, p := range params {
		c.Write(2, p)
	}
	c.Write(1, cmd)

	for i := 0; i < 256 && c.interruptFlags == 0; i++ {
		c.Tick(ic, spu, 8448)
	}
	require.NotZero(t, c.interruptFlags, "command %#x never interrupted", cmd)

	var resp []uint8
	for c.responseBuffer.hasData() {
		resp = append(resp, c.Read(1))
	}

	c.Write(0, 1)
	c.Write(3, 0x1f)
	c.Write(0, 0)
	return resp
}

// settle ticks the controller/drive until no further interrupt fires,
// acknowledging (and discarding) everything delivered.
func settle(c *Cdrom) {
	ic := intc.New()
	spu := &fakeSPU{}
	for i := 0; i < 256; i++ {
		c.Tick(ic, spu, 8448)
		if c.interruptFlags != 0 {
			for c.responseBuffer.hasData() {
				c.Read(1)
			}
			c.Write(0, 1)
			c.Write(3, 0x1f)
			c.Write(0, 0)
		}
	}
}

func TestSetLocPushesStatByte(t *testing.T) {
	c := newTestCdrom()

	resp := runCommand(t, c, 0x02, 0x00, 0x02, 0x00)
	require.Len(t, resp, 1)
	assert.Equal(t, uint8(0x02), resp[0])
}

func TestSetLocSeekGetLocPRoundTrip(t *testing.T) {
	c := newTestCdrom()

	runCommand(t, c, 0x02, 0x12, 0x34, 0x56) // Setloc 12:34:56 BCD
	runCommand(t, c, 0x15)                   // SeekL
	settle(c)

	resp := runCommand(t, c, 0x11) // GetlocP
	require.Len(t, resp, 8)

	assert.Equal(t, uint8(0x12), resp[5], "absolute minute round-trips in BCD")
	assert.Equal(t, uint8(0x34), resp[6], "absolute second round-trips in BCD")
	assert.Equal(t, uint8(0x56), resp[7], "absolute sector round-trips in BCD")
}

func TestSetModeConfiguresDrive(t *testing.T) {
	c := newTestCdrom()

	runCommand(t, c, 0x0e, 0x80|0x40|0x20)
	assert.True(t, c.modeDoubleSpeed)
	assert.True(t, c.modeADPCM)
	assert.True(t, c.modeSectorSize)
}

func TestZigzagInterpolateClips(t *testing.T) {
	c := newTestCdrom()
	var buf [0x20]int16
	for i := range buf {
		buf[i] = 0x7fff
	}
	var table [29]int32
	for i := range table {
		table[i] = 0x8000
	}
	out := c.zigzagInterpolate(10, buf, table)
	assert.Equal(t, int16(0x7fff), out)
}

func TestBCDRoundTrip(t *testing.T) {
	assert.Equal(t, byte(59), bcdToU8(u8ToBCD(59)))
	assert.Equal(t, byte(0), bcdToU8(u8ToBCD(0)))
}
