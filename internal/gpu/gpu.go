// Package gpu implements the GPU command processor: the GP0 drawing-command
// FIFO, the GP1 control-register interface, a 1 MiB VRAM framebuffer, and a
// software rasterizer for the polygon/line/rectangle primitives the command
// stream decodes into.
package gpu

import (
	"encoding/binary"

	"psx-core/internal/intc"
	"psx-core/internal/timer"
)

type dmaDirection int

const (
	dmaOff dmaDirection = iota
	dmaFifo
	dmaCPUToGP0
	dmaGPUREADToCPU
)

type texColourDepth int

const (
	tp4Bit texColourDepth = iota
	tp8Bit
	tp15Bit
	tpReserved
)

type semiTransparency int

const (
	stHalf semiTransparency = iota
	stAdd
	stSubtract
	stAddQuarter
)

type texpage struct {
	flipY, flipX          bool
	textureDisable        bool
	displayAreaEnable     bool
	ditheringEnable       bool
	colourDepth           texColourDepth
	semiTransparency      semiTransparency
	xBase, yBase          uint32
}

func texpageFromU32(value uint32) texpage {
	tp := value >> 16
	return texpage{
		flipY:             tp&0x2000 != 0,
		flipX:             tp&0x1000 != 0,
		textureDisable:    tp&0x800 != 0,
		displayAreaEnable: tp&0x400 != 0,
		ditheringEnable:   tp&0x200 != 0,
		colourDepth:       texColourDepth((tp & 0x180) >> 7),
		semiTransparency:  semiTransparency((tp & 0x60) >> 5),
		yBase:             (tp & 0x10) * 16,
		xBase:             (tp & 0xf) * 64,
	}
}

type transfer struct {
	x, y, w, h uint32
	rx, ry     uint32
	active     bool
}

type cacheEntry struct {
	tag  int32
	data [8]uint8
}

// GPU is the command processor and rasterizer sitting behind GP0/GP1/GPUREAD.
type GPU struct {
	vram [0x100000]uint8

	textureCache [256]cacheEntry
	clutCache    [256]uint16
	clutCacheTag int32

	scanline    uint32
	videoCycle  uint32
	lines       uint32
	dotclockCycle uint32

	gpuread uint32

	commandBuffer      [16]uint32
	commandBufferIndex int
	commandWordsLeft   int

	cpuToGPU transfer
	gpuToCPU transfer

	interlaceLine bool
	dmaDirection  dmaDirection

	dmaReady, vramReady, cmdReady bool

	irq bool

	displayDisable, verticalInterlace, interlaceField bool
	colourDepth24, videoModePAL                       bool

	vres, hres uint32
	reverse    bool

	skipMaskedPixels, setMaskBit bool

	texpage texpage

	commandTPX, commandTPY       uint32
	commandDepth                 texColourDepth
	commandClutX, commandClutY   int32

	polyline           bool
	polylineShaded     bool
	polylineCoord      vector2i
	polylineColour     Colour
	polylineRemaining  int

	drawXBegin, drawYBegin int32
	drawXEnd, drawYEnd     int32
	drawXOffset, drawYOffset int32

	textureWindowMaskX, textureWindowMaskY     int32
	textureWindowOffsetX, textureWindowOffsetY int32

	displayAreaX, displayAreaY uint32

	hDisplayStart, hDisplayEnd uint32
	vDisplayStart, vDisplayEnd uint32

	frameComplete bool
}

// New returns a GPU in its power-on state.
func New() *GPU {
	g := &GPU{}
	g.Reset()
	return g
}

// Reset restores power-on VRAM-undefined, register-defined state.
func (g *GPU) Reset() {
	*g = GPU{}
	g.lines = 263
	g.dmaReady, g.vramReady, g.cmdReady = true, true, true
	g.vres, g.hres = 240, 320
	g.commandDepth = tp4Bit
	g.clutCacheTag = -1
	for i := range g.textureCache {
		g.textureCache[i].tag = -1
	}
	g.hDisplayStart, g.hDisplayEnd = 512, 3072
	g.vDisplayStart, g.vDisplayEnd = 16, 256
}

func vramAddress(x, y uint32) uint32 {
	return 2 * ((x & 0x3ff) + 1024*(y&0x1ff))
}

func vramAddress24Bit(x, y uint32) uint32 {
	return 3*(x&0x3ff) + 2048*(y&0x1ff)
}

func (g *GPU) readVRAM16(addr uint32) uint16 {
	return binary.LittleEndian.Uint16(g.vram[addr:])
}

func (g *GPU) writeVRAM16(addr uint32, value uint16) {
	binary.LittleEndian.PutUint16(g.vram[addr:], value)
}

// GPURead services both the GPUREAD port and an in-progress VRAM->CPU
// transfer; it is also the DMA engine's read source for port 2 ToRAM.
func (g *GPU) GPURead() uint32 {
	return g.Read()
}

func (g *GPU) Read() uint32 {
	if g.gpuToCPU.active {
		lo := uint32(g.vramReadTransfer())
		hi := uint32(g.vramReadTransfer())
		return hi<<16 | lo
	}
	return g.gpuread
}

// Stat returns the GPUSTAT register.
func (g *GPU) Stat() uint32 {
	var value uint32

	interlaceLine := g.interlaceLine
	if g.inVblank() {
		interlaceLine = false
	}

	if interlaceLine {
		value |= 1 << 31
	}
	value |= uint32(g.dmaDirection) << 29
	if g.dmaReady {
		value |= 1 << 28
	}
	if g.vramReady {
		value |= 1 << 27
	}
	if g.cmdReady {
		value |= 1 << 26
	}

	var dmaRequest uint32
	switch g.dmaDirection {
	case dmaOff:
		dmaRequest = 0
	case dmaFifo:
		dmaRequest = 1
	case dmaCPUToGP0:
		if g.dmaReady {
			dmaRequest = 1
		}
	case dmaGPUREADToCPU:
		if g.vramReady {
			dmaRequest = 1
		}
	}
	value |= dmaRequest << 25

	if g.irq {
		value |= 1 << 24
	}
	if g.displayDisable {
		value |= 1 << 23
	}
	if g.verticalInterlace {
		value |= 1 << 22
	}
	if g.colourDepth24 {
		value |= 1 << 21
	}
	if g.videoModePAL {
		value |= 1 << 20
	}
	if g.vres == 480 {
		value |= 1 << 19
	}
	switch g.hres {
	case 256:
		value |= 0x00 << 16
	case 320:
		value |= 0x02 << 16
	case 512:
		value |= 0x04 << 16
	case 640:
		value |= 0x06 << 16
	case 368:
		value |= 0x01 << 16
	}
	if g.texpage.textureDisable {
		value |= 1 << 15
	}
	if g.reverse {
		value |= 1 << 14
	}
	var field uint32 = 1
	if g.verticalInterlace {
		if g.interlaceField {
			field = 1
		} else {
			field = 0
		}
	}
	value |= field << 13
	if g.skipMaskedPixels {
		value |= 1 << 12
	}
	if g.setMaskBit {
		value |= 1 << 11
	}
	if g.texpage.displayAreaEnable {
		value |= 1 << 10
	}
	if g.texpage.ditheringEnable {
		value |= 1 << 9
	}
	value |= uint32(g.texpage.colourDepth) << 7
	value |= uint32(g.texpage.semiTransparency) << 5
	value |= g.texpage.yBase / 16
	value |= g.texpage.xBase / 64

	return value
}

func (g *GPU) horizontalLength() uint32 {
	if g.videoModePAL {
		return 3406
	}
	return 3413
}

func (g *GPU) inHblank() bool {
	return g.videoCycle < g.hDisplayStart || g.videoCycle >= g.hDisplayEnd
}

func (g *GPU) inVblank() bool {
	return g.scanline >= g.lines-20
}

func (g *GPU) dotclock() uint32 {
	switch g.hres {
	case 320:
		return 8
	case 640:
		return 4
	case 256:
		return 10
	case 512:
		return 5
	case 368:
		return 7
	}
	return 8
}

// Tick advances the scanline/dotclock counters by clocks PSX-clock cycles,
// ticking the hblank/vblank-gated timers and raising Vblank/Gpu interrupts.
func (g *GPU) Tick(ic *intc.Intc, timers *timer.Timers, clocks uint32) {
	cycles := g.horizontalLength()
	dotclock := g.dotclock()

	oldHblank := g.inHblank()
	oldVblank := g.inVblank()

	g.videoCycle += clocks
	g.dotclockCycle += clocks

	timers.TickDotclock(ic, g.dotclockCycle/dotclock)
	g.dotclockCycle %= dotclock

	if g.videoCycle >= cycles {
		g.videoCycle -= cycles

		timers.TickHblank(ic)

		if g.vres == 240 && g.verticalInterlace {
			g.interlaceLine = !g.interlaceLine
		}

		g.scanline++

		if g.scanline == g.lines-20 {
			g.frameComplete = true
			ic.Assert(intc.Vblank)
		}

		if g.scanline == g.lines {
			if g.lines == 263 {
				g.lines = 262
			} else {
				g.lines = 263
			}
			g.scanline = 0

			if g.vres == 480 && g.verticalInterlace {
				g.interlaceLine = !g.interlaceLine
			}
			g.interlaceField = !g.interlaceField
		}
	}

	if g.inHblank() != oldHblank {
		timers.SetHblank(g.inHblank())
	}
	if g.inVblank() != oldVblank {
		timers.SetVblank(g.inVblank())
	}

	if g.irq {
		ic.Assert(intc.GPU)
	}
}

// DisplayOrigin returns the CRTC display-area start in VRAM coordinates.
func (g *GPU) DisplayOrigin() (uint32, uint32) { return g.displayAreaX, g.displayAreaY }

// DisplaySize returns the active display resolution computed from the
// horizontal/vertical CRTC timing registers.
func (g *GPU) DisplaySize() (uint32, uint32) {
	xstart, xend := g.hDisplayStart, g.hDisplayEnd
	dotclock := g.dotclock()

	ystart, yend := g.vDisplayStart, g.vDisplayEnd

	var xdiff uint32
	if xstart <= xend {
		xdiff = xend - xstart
	} else {
		xdiff = 50
	}

	x := ((xdiff / dotclock) + 2) &^ 0x3
	y := yend - ystart
	if g.verticalInterlace {
		y *= 2
	}

	return x, y
}

// FrameComplete reports and clears the end-of-frame latch the Vblank
// transition sets; a host render loop polls this once per Tick cycle.
func (g *GPU) FrameComplete() bool {
	if g.frameComplete {
		g.frameComplete = false
		return true
	}
	return false
}

// Framebuffer renders the visible display area (or the full VRAM, if
// fullVRAM is set) into an RGB24 buffer for presentation.
func (g *GPU) Framebuffer(fullVRAM bool) []byte {
	var xs, ys, w, h uint32
	if fullVRAM {
		w, h = 1024, 512
	} else {
		xs, ys = g.DisplayOrigin()
		xs += (g.hDisplayStart - 608) / g.dotclock()
		ys += (g.vDisplayStart - 16) * 2
		w, h = g.DisplaySize()
	}

	buf := make([]byte, w*h*3)
	idx := 0
	for y := ys; y < ys+h; y++ {
		for x := xs; x < xs+w; x++ {
			var col Colour
			if !fullVRAM && g.colourDepth24 {
				addr := vramAddress24Bit(x, y)
				col = Colour{R: g.vram[addr], G: g.vram[addr+1], B: g.vram[addr+2]}
			} else {
				col = colourFromU16(g.readVRAM16(vramAddress(x, y)))
			}
			buf[idx] = col.R
			buf[idx+1] = col.G
			buf[idx+2] = col.B
			idx += 3
		}
	}
	return buf
}
