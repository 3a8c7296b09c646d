package gpu

var cmdSize = [256]int{
	1, 1, 3, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	4, 4, 4, 4, 7, 7, 7, 7, 5, 5, 5, 5, 9, 9, 9, 9, 6, 6, 6, 6, 9, 9, 9, 9, 8, 8, 8, 8, 12, 12, 12,
	12, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
	4, 4, 3, 1, 3, 1, 4, 4, 4, 4, 2, 1, 2, 1, 3, 3, 3, 3, 2, 1, 2, 1, 3, 3, 3, 3, 2, 1, 2, 1, 3, 3,
	3, 3, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
	4, 4, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3,
	3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3,
	3, 3, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1,
}

// GP0Write feeds one command word into the GP0 FIFO; it is also the DMA
// engine's write sink for the GPU channel (port 2) FromRAM.
func (g *GPU) GP0Write(value uint32) { g.Write(value) }

// Write processes a GP0 command word: either the next two pixels of an
// in-progress CPU->VRAM transfer, the next vertex of a polyline, or the
// next word of a buffered drawing command.
func (g *GPU) Write(word uint32) {
	if g.cpuToGPU.active {
		g.vramWriteTransfer(uint16(word))
		if g.cpuToGPU.active {
			g.vramWriteTransfer(uint16(word >> 16))
		}
		return
	}

	if g.polyline {
		if word&0x50005000 == 0x50005000 {
			g.polyline = false
			return
		}

		g.commandBuffer[g.commandBufferIndex] = word
		g.commandBufferIndex++
		g.polylineRemaining--

		if g.polylineRemaining == 0 {
			colours := [2]Colour{g.polylineColour, g.polylineColour}
			if g.polylineShaded {
				colours[1] = colourFromU32(g.commandBuffer[0])
			}

			coord2 := g.toCoord(g.commandBuffer[1])
			g.rasteriseLine(g.polylineCoord, coord2, colours[0], colours[1])

			g.polylineCoord = coord2
			g.polylineColour = colours[1]

			if g.polylineShaded {
				g.polylineRemaining = 2
			} else {
				g.polylineRemaining = 1
			}

			g.commandBufferIndex = 0
		}
		return
	}

	g.pushGP0Command(word)
}

func (g *GPU) vramReadTransfer() uint16 {
	t := &g.gpuToCPU
	x := t.x + t.rx
	y := t.y + t.ry

	t.rx++
	if t.rx == t.w {
		t.rx = 0
		t.ry++
		if t.ry == t.h {
			t.ry = 0
			t.active = false
		}
	}

	return g.readVRAM16(vramAddress(x, y))
}

func (g *GPU) vramWriteTransfer(data uint16) {
	t := &g.cpuToGPU
	x := t.x + t.rx
	y := t.y + t.ry

	addr := vramAddress(x&0x3ff, y&0x1ff)

	t.rx++
	if t.rx == t.w {
		t.rx = 0
		t.ry++
		if t.ry == t.h {
			t.ry = 0
			t.active = false
		}
	}

	if g.skipMaskedPixels && g.readVRAM16(addr)&0x8000 != 0 {
		return
	}
	if g.setMaskBit {
		data |= 0x8000
	}
	g.writeVRAM16(addr, data)
}

func (g *GPU) pushGP0Command(word uint32) {
	if g.commandBufferIndex < 16 {
		g.commandBuffer[g.commandBufferIndex] = word
		g.commandBufferIndex++
	}
	if g.commandBufferIndex >= 16 {
		g.cmdReady = false
	}

	if g.commandWordsLeft == 0 {
		g.commandWordsLeft = cmdSize[word>>24]
	}

	if g.commandWordsLeft == 1 {
		g.executeGP0Command()
		g.commandBufferIndex = 0
		g.cmdReady = true
	}

	g.commandWordsLeft--
}

func (g *GPU) executeGP0Command() {
	word := g.commandBuffer[0]
	command := word >> 24

	switch {
	case command == 0x00:
	case command == 0x01:
		g.invalidateCache()
	case command == 0x02:
		destination := g.commandBuffer[1]
		size := g.commandBuffer[2]

		pixel := colourFromU32(word).toU16()

		xStart := destination & 0x3f0
		yStart := (destination >> 16) & 0x3ff

		w := (size&0x3ff + 0xf) &^ 0xf
		h := (size >> 16) & 0x1ff

		for y := uint32(0); y < h; y++ {
			for x := uint32(0); x < w; x++ {
				g.writeVRAM16(vramAddress((xStart+x)&0x3ff, (yStart+y)&0x1ff), pixel)
			}
		}
	case command <= 0x1e:
	case command == 0x1f:
		g.irq = true
	case command <= 0x3f:
		g.drawPolygon()
	case command <= 0x5f:
		g.drawLine()
	case command <= 0x7f:
		g.drawRectangle()
	case command <= 0x9f:
		g.copyVRAMToVRAM()
	case command <= 0xbf:
		g.beginCPUToVRAM()
	case command <= 0xdf:
		g.beginVRAMToCPU()
	case command == 0xe0:
	case command == 0xe1:
		g.setTexpage(word)
	case command == 0xe2:
		g.setTextureWindow(word)
	case command == 0xe3:
		x := word & 0x3ff
		y := (word & 0x7fc00) >> 10
		g.drawXBegin = int32(x)
		g.drawYBegin = int32(y)
	case command == 0xe4:
		x := word & 0x3ff
		y := (word & 0x7fc00) >> 10
		g.drawXEnd = int32(x)
		g.drawYEnd = int32(y)
	case command == 0xe5:
		dyo := (word >> 11) & 0x7ff
		dxo := word & 0x7ff
		g.drawYOffset = signExtend(int32(dyo), 11)
		g.drawXOffset = signExtend(int32(dxo), 11)
	case command == 0xe6:
		g.skipMaskedPixels = word&0x2 != 0
		g.setMaskBit = word&0x1 != 0
	default:
	}
}

func (g *GPU) setTexpage(word uint32) {
	g.texpage.flipY = word&0x2000 != 0
	g.texpage.flipX = word&0x1000 != 0
	g.texpage.textureDisable = word&0x800 != 0
	g.texpage.displayAreaEnable = word&0x400 != 0
	g.texpage.ditheringEnable = word&0x200 != 0
	g.texpage.colourDepth = texColourDepth((word & 0x180) >> 7)
	g.texpage.semiTransparency = semiTransparency((word & 0x60) >> 5)
	g.texpage.yBase = (word & 0x10) * 16
	g.texpage.xBase = (word & 0xf) * 64
}

func (g *GPU) setTextureWindow(word uint32) {
	g.textureWindowOffsetY = int32(((word & 0xf8000) >> 15) * 8)
	g.textureWindowOffsetX = int32(((word & 0x7c00) >> 10) * 8)
	g.textureWindowMaskY = int32(((word & 0x3e0) >> 5) * 8)
	g.textureWindowMaskX = int32((word & 0x1f) * 8)
}

func (g *GPU) copyVRAMToVRAM() {
	src := g.commandBuffer[1]
	dest := g.commandBuffer[2]
	size := g.commandBuffer[3]

	srcX, srcY := src&0x3ff, (src>>16)&0x3ff
	destX, destY := dest&0x3ff, (dest>>16)&0x3ff
	w, h := size&0x3ff, (size>>16)&0x1ff
	if w == 0 {
		w = 0x400
	}
	if h == 0 {
		h = 0x200
	}

	for y := uint32(0); y < h; y++ {
		for x := uint32(0); x < w; x++ {
			srcAddr := vramAddress((srcX+x)&0x3ff, (srcY+y)&0x1ff)
			destAddr := vramAddress((destX+x)&0x3ff, (destY+y)&0x1ff)

			data := g.readVRAM16(srcAddr)

			if g.skipMaskedPixels && g.readVRAM16(destAddr)&0x8000 != 0 {
				continue
			}
			if g.setMaskBit {
				data |= 0x8000
			}
			g.writeVRAM16(destAddr, data)
		}
	}
}

func (g *GPU) beginCPUToVRAM() {
	destination := g.commandBuffer[1]
	size := g.commandBuffer[2]

	g.cpuToGPU.x = destination & 0x3ff
	g.cpuToGPU.y = (destination >> 16) & 0x3ff
	g.cpuToGPU.w = size & 0x3ff
	g.cpuToGPU.h = (size >> 16) & 0x1ff
	if g.cpuToGPU.w == 0 {
		g.cpuToGPU.w = 0x400
	}
	if g.cpuToGPU.h == 0 {
		g.cpuToGPU.h = 0x200
	}
	g.cpuToGPU.rx, g.cpuToGPU.ry = 0, 0
	g.cpuToGPU.active = true
}

func (g *GPU) beginVRAMToCPU() {
	destination := g.commandBuffer[1]
	size := g.commandBuffer[2]

	g.gpuToCPU.x = destination & 0x3ff
	g.gpuToCPU.y = (destination >> 16) & 0x1ff
	g.gpuToCPU.w = size & 0x3ff
	g.gpuToCPU.h = (size >> 16) & 0x1ff
	g.gpuToCPU.rx, g.gpuToCPU.ry = 0, 0
	g.gpuToCPU.active = true
}

// WriteGP1 processes a GP1 control command.
func (g *GPU) WriteGP1(word uint32) {
	command := word >> 24

	switch {
	case command == 0x00:
		g.WriteGP1(0x01000000)
		g.WriteGP1(0x02000000)
		g.WriteGP1(0x03000001)
		g.WriteGP1(0x04000000)
		g.WriteGP1(0x05000000)
		g.WriteGP1(0x06000000)
		g.WriteGP1(0x07000000)
		g.WriteGP1(0x08000000)

		g.texpage = texpage{}
		g.textureWindowMaskX, g.textureWindowMaskY = 0, 0
		g.textureWindowOffsetX, g.textureWindowOffsetY = 0, 0
		g.drawXBegin, g.drawYBegin = 0, 0
		g.drawXEnd, g.drawYEnd = 0, 0
		g.drawXOffset, g.drawYOffset = 0, 0
		g.hDisplayStart, g.hDisplayEnd = 512, 3072
		g.vDisplayStart, g.vDisplayEnd = 16, 256
		g.videoModePAL = false
		g.hres, g.vres = 320, 240
		g.verticalInterlace = false
		g.interlaceField = false
		g.skipMaskedPixels, g.setMaskBit = false, false
	case command == 0x01:
		g.commandBufferIndex = 0
	case command == 0x02:
		g.irq = false
	case command == 0x03:
		g.displayDisable = word&0x1 != 0
	case command == 0x04:
		g.dmaDirection = dmaDirection(word & 0x3)
	case command == 0x05:
		g.displayAreaY = (word & 0x7fc00) >> 10
		g.displayAreaX = word & 0x3ff
	case command == 0x06:
		g.hDisplayEnd = (word & 0xfff000) >> 12
		g.hDisplayStart = word & 0xfff
	case command == 0x07:
		g.vDisplayEnd = (word & 0xffc00) >> 10
		g.vDisplayStart = word & 0x3ff
	case command == 0x08:
		g.reverse = word&0x80 != 0
		g.verticalInterlace = word&0x20 != 0
		g.colourDepth24 = word&0x10 != 0
		g.videoModePAL = word&0x8 != 0

		if g.verticalInterlace && word&0x4 != 0 {
			g.vres = 480
		} else {
			g.vres = 240
		}

		switch {
		case word&0x40 != 0:
			g.hres = 368
		case word&0x3 == 0:
			g.hres = 256
		case word&0x3 == 1:
			g.hres = 320
		case word&0x3 == 2:
			g.hres = 512
		default:
			g.hres = 640
		}
	case command == 0x09:
	case command >= 0x10 && command <= 0x1f:
		switch word & 0x7 {
		case 0x02:
			g.gpuread = g.textureWindowWord()
		case 0x03:
			g.gpuread = uint32(g.drawXBegin) | uint32(g.drawYBegin)<<10
		case 0x04:
			g.gpuread = uint32(g.drawXEnd) | uint32(g.drawYEnd)<<10
		case 0x05:
			g.gpuread = g.drawingOffsetWord()
		}
	case command == 0x20:
	default:
	}
}

func (g *GPU) textureWindowWord() uint32 {
	return uint32(g.textureWindowMaskX)/8 |
		(uint32(g.textureWindowMaskY)/8)<<5 |
		(uint32(g.textureWindowOffsetX)/8)<<10 |
		(uint32(g.textureWindowOffsetY)/8)<<15
}

func (g *GPU) drawingOffsetWord() uint32 {
	return uint32(g.drawXOffset)&0x7ff | (uint32(g.drawYOffset)&0x7ff)<<11
}

func (g *GPU) toCoord(value uint32) vector2i {
	x := signExtend(int32(value&0xffff), 11)
	y := signExtend(int32(value>>16), 11)
	return vector2i{x: x + g.drawXOffset, y: y + g.drawYOffset}
}

func (g *GPU) toTexcoord(value uint32) vector2i {
	return vector2i{x: int32(value & 0xff), y: int32((value & 0xff00) >> 8)}
}

func (g *GPU) maskTexcoord(uv vector2i) vector2i {
	uv.x = (uv.x &^ g.textureWindowMaskX) | (g.textureWindowOffsetX & g.textureWindowMaskX)
	uv.y = (uv.y &^ g.textureWindowMaskY) | (g.textureWindowOffsetY & g.textureWindowMaskY)
	return uv
}

func toClut(value uint32) vector2i {
	x := ((value >> 16) & 0x3f) << 4
	y := ((value >> 16) & 0x7fc0) >> 6
	return vector2i{x: int32(x), y: int32(y)}
}

func (g *GPU) cacheInvalidatingTextureChange(tp texpage, clut vector2i) {
	if tp.xBase != g.commandTPX || tp.yBase != g.commandTPY ||
		tp.colourDepth != g.commandDepth ||
		clut.x != g.commandClutX || clut.y != g.commandClutY {
		g.invalidateCache()
	}
	g.commandTPX, g.commandTPY = tp.xBase, tp.yBase
	g.commandDepth = tp.colourDepth
	g.commandClutX, g.commandClutY = clut.x, clut.y
}

func (g *GPU) drawPolygon() {
	command := g.commandBuffer[0] >> 24

	var vertices, texcoords [4]vector2i
	var colours [4]Colour
	var clut vector2i
	tp := g.texpage

	shaded := command&0x10 != 0
	points := 3
	if command&0x8 != 0 {
		points = 4
	}
	textured := command&0x4 != 0
	transparency := command&0x2 != 0
	blend := command&0x1 == 0

	pos := 0
	for i := 0; i < points; i++ {
		if shaded || i == 0 {
			colours[i] = colourFromU32(g.commandBuffer[pos])
			pos++
		}

		vertices[i] = g.toCoord(g.commandBuffer[pos])
		pos++

		if textured {
			texcoords[i] = g.toTexcoord(g.commandBuffer[pos])
			switch i {
			case 0:
				clut = toClut(g.commandBuffer[pos])
			case 1:
				tp = texpageFromU32(g.commandBuffer[pos])
			}
			pos++
		}
	}

	if textured {
		g.cacheInvalidatingTextureChange(tp, clut)
		g.texpage = tp
	}

	colours[0] = colourFromU32(g.commandBuffer[0])

	g.rasteriseTriangle(vertices[0:3], colours[0:3], texcoords[0:3], clut, shaded, textured, blend, transparency)
	if points == 4 {
		g.rasteriseTriangle(vertices[1:4], colours[1:4], texcoords[1:4], clut, shaded, textured, blend, transparency)
	}
}

func (g *GPU) drawLine() {
	command := g.commandBuffer[0] >> 24

	shaded := command&0x10 != 0
	polyline := command&0x8 != 0

	g.polyline = polyline
	g.polylineShaded = shaded
	if shaded {
		g.polylineRemaining = 2
	} else {
		g.polylineRemaining = 1
	}

	if !polyline {
		var v0, v1 vector2i
		var c0, c1 Colour

		pos := 0
		c0 = colourFromU32(g.commandBuffer[pos])
		if shaded {
			pos++
		}
		v0 = g.toCoord(g.commandBuffer[pos])
		pos++
		if shaded {
			c1 = colourFromU32(g.commandBuffer[pos])
			pos++
		} else {
			c1 = c0
		}
		v1 = g.toCoord(g.commandBuffer[pos])

		g.rasteriseLine(v0, v1, c0, c1)
		g.polyline = false
	} else {
		g.polylineColour = colourFromU32(g.commandBuffer[0])
		g.polylineCoord = g.toCoord(g.commandBuffer[1])
	}
}

func (g *GPU) drawRectangle() {
	command := g.commandBuffer[0] >> 24

	rectSize := (command & 0x18) >> 3
	textured := command&0x4 != 0
	transparency := command&0x2 != 0
	blend := command&0x1 == 0

	colour := colourFromU32(g.commandBuffer[0])
	vertex := g.toCoord(g.commandBuffer[1])

	tp := g.texpage
	var texcoord, clut vector2i
	pos := 2

	if textured {
		texcoord = g.toTexcoord(g.commandBuffer[pos])
		clut = toClut(g.commandBuffer[pos])
		g.cacheInvalidatingTextureChange(tp, clut)
		pos++
	}

	var size vector2i
	switch rectSize {
	case 0:
		tmp := g.commandBuffer[pos]
		size = vector2i{x: int32(tmp & 0x3ff), y: int32((tmp >> 16) & 0x1ff)}
	case 1:
		size = vector2i{x: 1, y: 1}
	case 2:
		size = vector2i{x: 8, y: 8}
	default:
		size = vector2i{x: 16, y: 16}
	}

	for y := int32(0); y < size.y; y++ {
		for x := int32(0); x < size.x; x++ {
			p := vector2i{x: vertex.x + x, y: vertex.y + y}

			if p.x < g.drawXBegin || p.x > g.drawXEnd || p.y < g.drawYBegin || p.y > g.drawYEnd {
				continue
			}

			output := colour

			if textured {
				uv := vector2i{x: texcoord.x + (x & 0xff), y: texcoord.y + (y & 0xff)}
				uv = g.maskTexcoord(uv)

				texture, skip := g.getTexture(uv, clut)
				if skip {
					continue
				}

				if blend {
					texture.R = uint8(clip((texture.r()*colour.r())>>7, 0, 255))
					texture.G = uint8(clip((texture.g()*colour.g())>>7, 0, 255))
					texture.B = uint8(clip((texture.b()*colour.b())>>7, 0, 255))
				}

				output = texture
			}

			g.renderPixel(p, output, transparency, !textured)
		}
	}
}
