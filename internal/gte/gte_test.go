package gte

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ctrlRT11RT12 = 0
	ctrlRT22RT23 = 2
	ctrlRT33     = 4
	ctrlOFX      = 24
	ctrlOFY      = 25
	ctrlH        = 26
	ctrlDQA      = 27
	ctrlDQB      = 28
	ctrlFLAG     = 31

	dataVXY0 = 0
	dataVZ0  = 1
	dataIR1  = 9
	dataIR2  = 10
	dataIR3  = 11
	dataSXY0 = 12
	dataSXY1 = 13
	dataSXY2 = 14
	dataSZ3  = 19
	dataMAC0 = 24
	dataLZCS = 30
	dataLZCR = 31
)

// loadIdentityRotation sets R to the 1.0 fixed-point identity matrix.
func loadIdentityRotation(g *GTE) {
	g.WriteControl(ctrlRT11RT12, 0x1000)
	g.WriteControl(ctrlRT22RT23, 0x1000)
	g.WriteControl(ctrlRT33, 0x1000)
}

func TestRTPSIdentityTransform(t *testing.T) {
	g := New()
	loadIdentityRotation(g)
	g.WriteControl(ctrlH, 0x4000)
	g.WriteControl(ctrlDQB, 0x800000)

	g.WriteData(dataVXY0, 0)
	g.WriteData(dataVZ0, 0x4000)

	g.Command(0x00080001) // RTPS, sf=12

	assert.Equal(t, uint32(0x4000), g.ReadData(dataSZ3))
	assert.Equal(t, uint32(0), g.ReadData(dataIR1))
	assert.Equal(t, uint32(0), g.ReadData(dataIR2))
	assert.Equal(t, uint32(0x4000), g.ReadData(dataIR3))
	assert.Equal(t, uint32(0x800000), g.ReadData(dataMAC0), "MAC0 = DQB when DQA is zero")
	assert.Equal(t, uint32(0), g.ReadData(dataSXY2), "screen XY at the offset origin")
	assert.Equal(t, uint32(0), g.ReadControl(ctrlFLAG), "no saturation on the clean path")
}

func TestRTPSDivideOverflowFlagsAndClamps(t *testing.T) {
	g := New()
	loadIdentityRotation(g)
	g.WriteControl(ctrlH, 0x4000)

	g.WriteData(dataVXY0, 0)
	g.WriteData(dataVZ0, 0x1000) // SZ3 <= H/2 overflows the UNR divide

	g.Command(0x00080001)

	flags := g.ReadControl(ctrlFLAG)
	assert.NotZero(t, flags&0x20000, "divide-overflow bit 17")
	assert.NotZero(t, flags&0x80000000, "bit 31 mirrors the error subset")
}

func TestRTPSPushesScreenFIFOs(t *testing.T) {
	g := New()
	loadIdentityRotation(g)
	g.WriteControl(ctrlH, 0x1000)
	g.WriteControl(ctrlOFX, 100<<16)
	g.WriteControl(ctrlOFY, 200<<16)

	g.WriteData(dataVXY0, 0)
	g.WriteData(dataVZ0, 0x1000)
	g.Command(0x00080001)

	g.WriteData(dataVXY0, uint32(uint16(0x100)))
	g.Command(0x00080001)

	// Two transforms: SXY1 and SXY2 hold them in order.
	assert.Equal(t, uint32(200<<16|100), g.ReadData(dataSXY1))
	sxy2 := g.ReadData(dataSXY2)
	assert.Equal(t, uint32(200), sxy2>>16)
	assert.Equal(t, uint32(100+0x100), sxy2&0xffff)
}

func TestNCLIPCrossProduct(t *testing.T) {
	g := New()
	g.WriteData(dataSXY0, 0)     // (0, 0)
	g.WriteData(dataSXY1, 1)     // (1, 0)
	g.WriteData(dataSXY2, 1<<16) // (0, 1)

	g.Command(0x06)

	assert.Equal(t, uint32(1), g.ReadData(dataMAC0))
	assert.Equal(t, uint32(0), g.ReadControl(ctrlFLAG))
}

func TestAVSZ3AveragesZFIFO(t *testing.T) {
	g := New()
	g.WriteControl(29, 0x155) // ZSF3 ~ 1/12 in 1.12 fixed point
	g.WriteData(17, 0x1000)
	g.WriteData(18, 0x1000)
	g.WriteData(19, 0x1000)

	g.Command(0x2d)

	// 0x155 * 0x3000 = 0x3ff000; OTZ = MAC0 >> 12.
	assert.Equal(t, uint32(0x3ff000), g.ReadData(dataMAC0))
	assert.Equal(t, uint32(0x3ff), g.ReadData(7))
}

func TestFlagBit31IsORofErrorSubset(t *testing.T) {
	g := New()

	g.WriteControl(ctrlFLAG, 0x00400000) // outside the 0x7f87e000 subset
	assert.Zero(t, g.ReadControl(ctrlFLAG)&0x80000000)

	g.WriteControl(ctrlFLAG, 0x00800000) // IR2-saturated, inside the subset
	assert.NotZero(t, g.ReadControl(ctrlFLAG)&0x80000000)
}

func TestSQRSquaresIRVector(t *testing.T) {
	g := New()
	g.WriteData(dataIR1, 3)
	g.WriteData(dataIR2, 4)
	g.WriteData(dataIR3, 5)

	g.Command(0x28) // SQR, sf=0

	assert.Equal(t, uint32(9), g.ReadData(dataIR1))
	assert.Equal(t, uint32(16), g.ReadData(dataIR2))
	assert.Equal(t, uint32(25), g.ReadData(dataIR3))
}

func TestLZCRCountsLeadingBits(t *testing.T) {
	g := New()

	cases := []struct {
		input uint32
		count uint32
	}{
		{0x00000000, 32},
		{0xffffffff, 32},
		{0x00000001, 31},
		{0x80000000, 1},
		{0x40000000, 1},
		{0xc0000000, 2},
	}
	for _, tc := range cases {
		g.WriteData(dataLZCS, tc.input)
		assert.Equal(t, tc.count, g.ReadData(dataLZCR), "lzcs=%#x", tc.input)
	}
}

func TestControlRegisterRoundTrip(t *testing.T) {
	g := New()

	g.WriteControl(ctrlRT11RT12, 0xdead1000)
	require.Equal(t, uint32(0xdead1000), g.ReadControl(ctrlRT11RT12))

	g.WriteControl(ctrlH, 0x1234)
	assert.Equal(t, uint32(0x1234), g.ReadControl(ctrlH))

	// H reads back sign-extended as the hardware does.
	g.WriteControl(ctrlH, 0x8000)
	assert.Equal(t, uint32(0xffff8000), g.ReadControl(ctrlH))
}

func TestDataRegisterVXYRoundTrip(t *testing.T) {
	g := New()
	g.WriteData(dataVXY0, 0x7fff8000)
	assert.Equal(t, uint32(0x7fff8000), g.ReadData(dataVXY0))

	g.WriteData(dataVZ0, 0xffffffff)
	assert.Equal(t, uint32(0xffffffff), g.ReadData(dataVZ0), "VZ reads back sign-extended")
}
