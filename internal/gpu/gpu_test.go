package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColourRoundTripsThrough16Bit(t *testing.T) {
	c := colourFromU32(0x00f08020)
	pixel := c.toU16()
	back := colourFromU16(pixel)

	assert.Equal(t, c.R&0xf8, back.R)
	assert.Equal(t, c.G&0xf8, back.G)
	assert.Equal(t, c.B&0xf8, back.B)
	assert.False(t, back.A)
}

func TestMaskBitSurvivesRoundTrip(t *testing.T) {
	c := colourFromU16(0x8000)
	assert.True(t, c.A)
	assert.Equal(t, uint16(0x8000), c.toU16())
}

func TestResetRestoresPowerOnDefaults(t *testing.T) {
	g := New()
	g.WriteGP1(0x08000003) // change resolution away from defaults
	g.Reset()

	assert.Equal(t, uint32(320), g.hres)
	assert.Equal(t, uint32(240), g.vres)
	assert.True(t, g.cmdReady)
}

func TestFillRectangleWritesVRAM(t *testing.T) {
	g := New()

	g.Write(0x02ff0000) // fill colour: blue-ish
	g.Write(0x00000000) // x=0, y=0
	g.Write(0x00020002) // w=2, h=2

	pixel := g.readVRAM16(vramAddress(0, 0))
	require.NotEqual(t, uint16(0), pixel)

	other := g.readVRAM16(vramAddress(1, 1))
	assert.Equal(t, pixel, other)
}

func TestGP0CommandBufferDispatchesOnLastWord(t *testing.T) {
	g := New()

	// GP0(0xE1) texpage: single-word command, should apply immediately.
	g.Write(0xe1000080)
	assert.Equal(t, tp8Bit, g.texpage.colourDepth)
	assert.Equal(t, 0, g.commandBufferIndex)
}

func TestVRAMToVRAMCopyMovesPixels(t *testing.T) {
	g := New()

	g.writeVRAM16(vramAddress(5, 5), 0x1234)

	g.Write(0x80000000)
	g.Write(0x00050005) // src x=5,y=5
	g.Write(0x00000000) // dest x=0,y=0
	g.Write(0x00010001) // w=1,h=1

	assert.Equal(t, uint16(0x1234), g.readVRAM16(vramAddress(0, 0)))
}

func TestVRAMTransferRoundTrip(t *testing.T) {
	g := New()

	g.Write(0xa0000000) // CPU->VRAM
	g.Write(0x00000000) // x=0, y=0
	g.Write(0x00010002) // w=2, h=1
	g.Write(0x56781234)

	g.Write(0xc0000000) // VRAM->CPU
	g.Write(0x00000000)
	g.Write(0x00010002)

	assert.Equal(t, uint32(0x56781234), g.Read())
}

func TestMaskSkipPreservesMaskedPixels(t *testing.T) {
	g := New()
	g.drawXEnd, g.drawYEnd = 100, 100

	g.writeVRAM16(vramAddress(5, 5), 0x9234)
	g.skipMaskedPixels = true

	g.renderPixel(vector2i{x: 5, y: 5}, Colour{R: 255}, false, true)

	assert.Equal(t, uint16(0x9234), g.readVRAM16(vramAddress(5, 5)))
}

func TestSetMaskBitForcesBit15OnWrite(t *testing.T) {
	g := New()
	g.drawXEnd, g.drawYEnd = 100, 100
	g.setMaskBit = true

	g.renderPixel(vector2i{x: 3, y: 3}, Colour{R: 255}, false, true)

	assert.NotZero(t, g.readVRAM16(vramAddress(3, 3))&0x8000)
}

func TestRasteriseTriangleFillsInteriorPixel(t *testing.T) {
	g := New()
	g.drawXEnd = 200
	g.drawYEnd = 200

	v := []vector2i{{x: 10, y: 10}, {x: 100, y: 10}, {x: 10, y: 100}}
	c := []Colour{{R: 200, G: 0, B: 0}, {R: 200, G: 0, B: 0}, {R: 200, G: 0, B: 0}}
	t2 := []vector2i{{}, {}, {}}

	g.rasteriseTriangle(v, c, t2, vector2i{}, false, false, false, false)

	pixel := g.readVRAM16(vramAddress(30, 30))
	assert.NotEqual(t, uint16(0), pixel)
}
