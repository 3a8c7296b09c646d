package gpu

// State is an exported snapshot of the GPU, used by internal/system's
// save-state support. The texture/CLUT caches are not part of the
// snapshot; SetState invalidates them the same way Reset does, since
// they are pure speed caches over VRAM.
type State struct {
	VRAM [0x100000]uint8

	Scanline      uint32
	VideoCycle    uint32
	Lines         uint32
	DotclockCycle uint32

	GPURead uint32

	CommandBuffer      [16]uint32
	CommandBufferIndex int
	CommandWordsLeft   int

	CPUToGPU TransferState
	GPUToCPU TransferState

	InterlaceLine bool
	DMADirection  int

	DMAReady, VRAMReady, CmdReady bool

	IRQ bool

	DisplayDisable, VerticalInterlace, InterlaceField bool
	ColourDepth24, VideoModePAL                        bool

	Vres, Hres uint32
	Reverse    bool

	SkipMaskedPixels, SetMaskBit bool

	Texpage TexpageState

	CommandTPX, CommandTPY     uint32
	CommandDepth               int
	CommandClutX, CommandClutY int32

	Polyline          bool
	PolylineShaded    bool
	PolylineCoordX    int32
	PolylineCoordY    int32
	PolylineColour    Colour
	PolylineRemaining int

	DrawXBegin, DrawYBegin int32
	DrawXEnd, DrawYEnd     int32
	DrawXOffset, DrawYOffset int32

	TextureWindowMaskX, TextureWindowMaskY     int32
	TextureWindowOffsetX, TextureWindowOffsetY int32

	DisplayAreaX, DisplayAreaY uint32

	HDisplayStart, HDisplayEnd uint32
	VDisplayStart, VDisplayEnd uint32

	FrameComplete bool
}

// TransferState is an exported snapshot of an in-progress VRAM
// rectangle transfer.
type TransferState struct {
	X, Y, W, H uint32
	RX, RY     uint32
	Active     bool
}

// TexpageState is an exported snapshot of a decoded texpage register.
type TexpageState struct {
	FlipY, FlipX      bool
	TextureDisable    bool
	DisplayAreaEnable bool
	DitheringEnable   bool
	ColourDepth       int
	SemiTransparency  int
	XBase, YBase      uint32
}

func transferToState(t transfer) TransferState {
	return TransferState{X: t.x, Y: t.y, W: t.w, H: t.h, RX: t.rx, RY: t.ry, Active: t.active}
}

func stateToTransfer(s TransferState) transfer {
	return transfer{x: s.X, y: s.Y, w: s.W, h: s.H, rx: s.RX, ry: s.RY, active: s.Active}
}

func texpageToState(t texpage) TexpageState {
	return TexpageState{
		FlipY: t.flipY, FlipX: t.flipX,
		TextureDisable:    t.textureDisable,
		DisplayAreaEnable: t.displayAreaEnable,
		DitheringEnable:   t.ditheringEnable,
		ColourDepth:       int(t.colourDepth),
		SemiTransparency:  int(t.semiTransparency),
		XBase:             t.xBase,
		YBase:             t.yBase,
	}
}

func stateToTexpage(s TexpageState) texpage {
	return texpage{
		flipY: s.FlipY, flipX: s.FlipX,
		textureDisable:    s.TextureDisable,
		displayAreaEnable: s.DisplayAreaEnable,
		ditheringEnable:   s.DitheringEnable,
		colourDepth:       texColourDepth(s.ColourDepth),
		semiTransparency:  semiTransparency(s.SemiTransparency),
		xBase:             s.XBase,
		yBase:             s.YBase,
	}
}

// State returns a snapshot of the GPU.
func (g *GPU) State() State {
	var s State
	s.VRAM = g.vram
	s.Scanline, s.VideoCycle, s.Lines, s.DotclockCycle = g.scanline, g.videoCycle, g.lines, g.dotclockCycle
	s.GPURead = g.gpuread
	s.CommandBuffer = g.commandBuffer
	s.CommandBufferIndex = g.commandBufferIndex
	s.CommandWordsLeft = g.commandWordsLeft
	s.CPUToGPU = transferToState(g.cpuToGPU)
	s.GPUToCPU = transferToState(g.gpuToCPU)
	s.InterlaceLine = g.interlaceLine
	s.DMADirection = int(g.dmaDirection)
	s.DMAReady, s.VRAMReady, s.CmdReady = g.dmaReady, g.vramReady, g.cmdReady
	s.IRQ = g.irq
	s.DisplayDisable, s.VerticalInterlace, s.InterlaceField = g.displayDisable, g.verticalInterlace, g.interlaceField
	s.ColourDepth24, s.VideoModePAL = g.colourDepth24, g.videoModePAL
	s.Vres, s.Hres = g.vres, g.hres
	s.Reverse = g.reverse
	s.SkipMaskedPixels, s.SetMaskBit = g.skipMaskedPixels, g.setMaskBit
	s.Texpage = texpageToState(g.texpage)
	s.CommandTPX, s.CommandTPY = g.commandTPX, g.commandTPY
	s.CommandDepth = int(g.commandDepth)
	s.CommandClutX, s.CommandClutY = g.commandClutX, g.commandClutY
	s.Polyline = g.polyline
	s.PolylineShaded = g.polylineShaded
	s.PolylineCoordX, s.PolylineCoordY = g.polylineCoord.x, g.polylineCoord.y
	s.PolylineColour = g.polylineColour
	s.PolylineRemaining = g.polylineRemaining
	s.DrawXBegin, s.DrawYBegin = g.drawXBegin, g.drawYBegin
	s.DrawXEnd, s.DrawYEnd = g.drawXEnd, g.drawYEnd
	s.DrawXOffset, s.DrawYOffset = g.drawXOffset, g.drawYOffset
	s.TextureWindowMaskX, s.TextureWindowMaskY = g.textureWindowMaskX, g.textureWindowMaskY
	s.TextureWindowOffsetX, s.TextureWindowOffsetY = g.textureWindowOffsetX, g.textureWindowOffsetY
	s.DisplayAreaX, s.DisplayAreaY = g.displayAreaX, g.displayAreaY
	s.HDisplayStart, s.HDisplayEnd = g.hDisplayStart, g.hDisplayEnd
	s.VDisplayStart, s.VDisplayEnd = g.vDisplayStart, g.vDisplayEnd
	s.FrameComplete = g.frameComplete
	return s
}

// SetState restores a previously captured snapshot. The texture/CLUT
// caches are invalidated rather than restored.
func (g *GPU) SetState(s State) {
	g.vram = s.VRAM
	g.scanline, g.videoCycle, g.lines, g.dotclockCycle = s.Scanline, s.VideoCycle, s.Lines, s.DotclockCycle
	g.gpuread = s.GPURead
	g.commandBuffer = s.CommandBuffer
	g.commandBufferIndex = s.CommandBufferIndex
	g.commandWordsLeft = s.CommandWordsLeft
	g.cpuToGPU = stateToTransfer(s.CPUToGPU)
	g.gpuToCPU = stateToTransfer(s.GPUToCPU)
	g.interlaceLine = s.InterlaceLine
	g.dmaDirection = dmaDirection(s.DMADirection)
	g.dmaReady, g.vramReady, g.cmdReady = s.DMAReady, s.VRAMReady, s.CmdReady
	g.irq = s.IRQ
	g.displayDisable, g.verticalInterlace, g.interlaceField = s.DisplayDisable, s.VerticalInterlace, s.InterlaceField
	g.colourDepth24, g.videoModePAL = s.ColourDepth24, s.VideoModePAL
	g.vres, g.hres = s.Vres, s.Hres
	g.reverse = s.Reverse
	g.skipMaskedPixels, g.setMaskBit = s.SkipMaskedPixels, s.SetMaskBit
	g.texpage = stateToTexpage(s.Texpage)
	g.commandTPX, g.commandTPY = s.CommandTPX, s.CommandTPY
	g.commandDepth = texColourDepth(s.CommandDepth)
	g.commandClutX, g.commandClutY = s.CommandClutX, s.CommandClutY
	g.polyline = s.Polyline
	g.polylineShaded = s.PolylineShaded
	g.polylineCoord = vector2i{x: s.PolylineCoordX, y: s.PolylineCoordY}
	g.polylineColour = s.PolylineColour
	g.polylineRemaining = s.PolylineRemaining
	g.drawXBegin, g.drawYBegin = s.DrawXBegin, s.DrawYBegin
	g.drawXEnd, g.drawYEnd = s.DrawXEnd, s.DrawYEnd
	g.drawXOffset, g.drawYOffset = s.DrawXOffset, s.DrawYOffset
	g.textureWindowMaskX, g.textureWindowMaskY = s.TextureWindowMaskX, s.TextureWindowMaskY
	g.textureWindowOffsetX, g.textureWindowOffsetY = s.TextureWindowOffsetX, s.TextureWindowOffsetY
	g.displayAreaX, g.displayAreaY = s.DisplayAreaX, s.DisplayAreaY
	g.hDisplayStart, g.hDisplayEnd = s.HDisplayStart, s.HDisplayEnd
	g.vDisplayStart, g.vDisplayEnd = s.VDisplayStart, s.VDisplayEnd
	g.frameComplete = s.FrameComplete

	g.clutCacheTag = -1
	for i := range g.textureCache {
		g.textureCache[i].tag = -1
	}
}
