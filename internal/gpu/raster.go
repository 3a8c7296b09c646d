package gpu

// rasteriseTriangle fills one triangle using the standard top-left-rule
// half-space edge-function scan, matching the original's fixed-point
// orient2d accumulation instead of a float barycentric scheme.
func (g *GPU) rasteriseTriangle(vertices []vector2i, colours []Colour, texcoords []vector2i, clut vector2i, shaded, textured, blend, transparency bool) {
	v := [3]vector2i{vertices[0], vertices[1], vertices[2]}
	c := [3]Colour{colours[0], colours[1], colours[2]}
	t := [3]vector2i{texcoords[0], texcoords[1], texcoords[2]}

	area := orient2d(v[0], v[1], v[2])
	if area < 0 {
		v[1], v[2] = v[2], v[1]
		c[1], c[2] = c[2], c[1]
		t[1], t[2] = t[2], t[1]
		area = -area
	} else if area == 0 {
		return
	}

	minx := min3(v[0].x, v[1].x, v[2].x)
	miny := min3(v[0].y, v[1].y, v[2].y)
	maxx := max3(v[0].x, v[1].x, v[2].x)
	maxy := max3(v[0].y, v[1].y, v[2].y)

	if (maxx >= 1024 && minx >= 1024) || (maxx < 0 && minx < 0) {
		return
	}
	if (maxy >= 512 && miny >= 512) || (maxy < 0 && miny < 0) {
		return
	}
	if maxx-minx >= 1024 || maxy-miny >= 512 {
		return
	}

	if minx < g.drawXBegin {
		minx = g.drawXBegin
	}
	if miny < g.drawYBegin {
		miny = g.drawYBegin
	}
	if maxx > g.drawXEnd {
		maxx = g.drawXEnd
	}
	if maxy > g.drawYEnd {
		maxy = g.drawYEnd
	}

	a01, b01 := v[0].y-v[1].y, v[1].x-v[0].x
	a12, b12 := v[1].y-v[2].y, v[2].x-v[1].x
	a20, b20 := v[2].y-v[0].y, v[0].x-v[2].x

	p := vector2i{x: minx, y: miny}

	w0Row := orient2d(v[1], v[2], p)
	w1Row := orient2d(v[2], v[0], p)
	w2Row := orient2d(v[0], v[1], p)

	w0Bias := topLeftBias(b12, a12)
	w1Bias := topLeftBias(b20, a20)
	w2Bias := topLeftBias(b01, a01)

	colour := c[0]

	for p.y = miny; p.y < maxy; p.y++ {
		w0, w1, w2 := w0Row, w1Row, w2Row
		for p.x = minx; p.x < maxx; p.x++ {
			if (w0+w0Bias)|(w1+w1Bias)|(w2+w2Bias) >= 0 {
				w := vector3i{x: w0, y: w1, z: w2}

				if shaded {
					colour = interpolateColour(area, w, c[0], c[1], c[2])
				}

				output := colour

				if textured {
					uv := interpolateTexcoord(area, w, t[0], t[1], t[2])
					uv = g.maskTexcoord(uv)

					texture, skip := g.getTexture(uv, clut)
					if !skip {
						if blend {
							texture.R = uint8(clip((texture.r()*colour.r())>>7, 0, 255))
							texture.G = uint8(clip((texture.g()*colour.g())>>7, 0, 255))
							texture.B = uint8(clip((texture.b()*colour.b())>>7, 0, 255))
						}
						output = texture
						g.renderPixel(p, output, transparency, false)
					}
				} else {
					g.renderPixel(p, output, transparency, true)
				}
			}

			w0 += a12
			w1 += a20
			w2 += a01
		}

		w0Row += b12
		w1Row += b20
		w2Row += b01
	}
}

// rasteriseLine draws a single line segment with a Bresenham-style DDA and
// linear colour interpolation; the original leaves polyline rasterisation
// unimplemented, so this is new behaviour built from its vertex/colour
// bookkeeping rather than a port of an existing body.
func (g *GPU) rasteriseLine(v0, v1 vector2i, c0, c1 Colour) {
	dx := v1.x - v0.x
	dy := v1.y - v0.y

	adx, ady := dx, dy
	if adx < 0 {
		adx = -adx
	}
	if ady < 0 {
		ady = -ady
	}
	steps := adx
	if ady > steps {
		steps = ady
	}
	if steps == 0 {
		g.renderPixel(v0, c0, false, true)
		return
	}

	for i := int32(0); i <= steps; i++ {
		t := float64(i) / float64(steps)
		p := vector2i{
			x: v0.x + int32(float64(dx)*t),
			y: v0.y + int32(float64(dy)*t),
		}

		if p.x < g.drawXBegin || p.x > g.drawXEnd || p.y < g.drawYBegin || p.y > g.drawYEnd {
			continue
		}

		col := Colour{
			R: uint8(float64(c0.R) + (float64(c1.R)-float64(c0.R))*t),
			G: uint8(float64(c0.G) + (float64(c1.G)-float64(c0.G))*t),
			B: uint8(float64(c0.B) + (float64(c1.B)-float64(c0.B))*t),
		}
		g.renderPixel(p, col, false, true)
	}
}

func topLeftBias(edgeX, edgeY int32) int32 {
	if isTopLeft(edgeX, edgeY) {
		return -1
	}
	return 0
}

func isTopLeft(x, y int32) bool {
	return y < 0 || (x < 0 && y == 0)
}

func interpolateColour(area int32, w vector3i, c0, c1, c2 Colour) Colour {
	r := (w.x*c0.r() + w.y*c1.r() + w.z*c2.r()) / area
	g := (w.x*c0.g() + w.y*c1.g() + w.z*c2.g()) / area
	b := (w.x*c0.b() + w.y*c1.b() + w.z*c2.b()) / area
	return Colour{R: uint8(r), G: uint8(g), B: uint8(b)}
}

func interpolateTexcoord(area int32, w vector3i, t0, t1, t2 vector2i) vector2i {
	u := (w.x*t0.x + w.y*t1.x + w.z*t2.x) / area
	v := (w.x*t0.y + w.y*t1.y + w.z*t2.y) / area
	return vector2i{x: u, y: v}
}

func (g *GPU) renderPixel(p vector2i, c Colour, transparency bool, forceBlend bool) {
	addr := vramAddress(uint32(p.x), uint32(p.y))
	back := colourFromU16(g.readVRAM16(addr))

	colour := c

	if g.skipMaskedPixels && back.A {
		return
	}

	if (forceBlend || c.A) && transparency {
		var r, g32, b int32

		switch g.texpage.semiTransparency {
		case stHalf:
			r = (back.r() + c.r()) / 2
			g32 = (back.g() + c.g()) / 2
			b = (back.b() + c.b()) / 2
		case stAdd:
			r = back.r() + c.r()
			g32 = back.g() + c.g()
			b = back.b() + c.b()
		case stSubtract:
			r = back.r() - c.r()
			g32 = back.g() - c.g()
			b = back.b() - c.b()
		case stAddQuarter:
			r = back.r() + c.r()/4
			g32 = back.g() + c.g()/4
			b = back.b() + c.b()/4
		}

		colour.R = uint8(clip(r, 0, 255))
		colour.G = uint8(clip(g32, 0, 255))
		colour.B = uint8(clip(b, 0, 255))
	}

	if g.setMaskBit {
		colour.A = true
	}

	g.writeVRAM16(addr, colour.toU16())
}

func (g *GPU) getTexture(uv, clut vector2i) (Colour, bool) {
	switch g.texpage.colourDepth {
	case tp4Bit:
		return g.readClut4Bit(uv, clut)
	case tp8Bit:
		return g.readClut8Bit(uv, clut)
	default:
		return g.readTexture(uv)
	}
}

func (g *GPU) invalidateCache() {
	for i := range g.textureCache {
		g.textureCache[i].tag = -1
	}
	g.clutCacheTag = -1
}

func (g *GPU) readClut4Bit(uv, clut vector2i) (Colour, bool) {
	addressX := 2*g.texpage.xBase + uint32(uv.x/2)&0xff
	addressY := g.texpage.yBase + uint32(uv.y)&0xff
	textureAddress := addressX + 2048*addressY

	block := int32(((uv.y >> 6) << 2) + (uv.x >> 6))
	entry := int32(((uv.y & 0x3f) << 2) + ((uv.x & 0x3f) >> 4))
	index := (uv.x >> 1) & 0x7

	centry := &g.textureCache[entry]
	if centry.tag != block {
		base := textureAddress &^ 0x7
		copy(centry.data[:], g.vram[base:base+8])
		centry.tag = block
	}

	clutEntry := int32(centry.data[index])
	if uv.x&0x1 != 0 {
		clutEntry >>= 4
	} else {
		clutEntry &= 0xf
	}

	clutAddress := int32(2*clut.x + 2048*clut.y)
	if g.clutCacheTag != clutAddress {
		for i := 0; i < 16; i++ {
			addr := uint32(clutAddress) + uint32(2*i)
			g.clutCache[i] = g.readVRAM16(addr)
		}
		g.clutCacheTag = clutAddress
	}

	texture := g.clutCache[clutEntry]
	return colourFromU16(texture), texture == 0
}

func (g *GPU) readClut8Bit(uv, clut vector2i) (Colour, bool) {
	addressX := 2*g.texpage.xBase + uint32(uv.x)&0xff
	addressY := g.texpage.yBase + uint32(uv.y)&0xff
	textureAddress := addressX + 2048*addressY

	block := int32(((uv.y >> 6) << 3) + (uv.x >> 5))
	entry := int32(((uv.y & 0x3f) << 2) + ((uv.x & 0x1f) >> 3))
	index := uv.x & 0x7

	centry := &g.textureCache[entry]
	if centry.tag != block {
		base := textureAddress &^ 0x7
		copy(centry.data[:], g.vram[base:base+8])
		centry.tag = block
	}

	clutEntry := int32(centry.data[index])

	clutAddress := int32(2*clut.x + 2048*clut.y)
	if g.clutCacheTag != clutAddress {
		for i := 0; i < 256; i++ {
			addr := uint32(clutAddress) + uint32(2*i)
			g.clutCache[i] = g.readVRAM16(addr)
		}
		g.clutCacheTag = clutAddress
	}

	texture := g.clutCache[clutEntry]
	return colourFromU16(texture), texture == 0
}

func (g *GPU) readTexture(uv vector2i) (Colour, bool) {
	addressX := g.texpage.xBase + uint32(uv.x)&0xff
	addressY := g.texpage.yBase + uint32(uv.y)&0xff
	textureAddress := 2 * (addressX + 1024*addressY)

	block := int32(((uv.y >> 5) << 3) + (uv.x >> 5))
	entry := int32(((uv.y & 0x1f) << 3) + ((uv.x & 0x1f) >> 2))
	index := (uv.x * 2) & 0x7

	centry := &g.textureCache[entry]
	if centry.tag != block {
		base := textureAddress &^ 0x7
		copy(centry.data[:], g.vram[base:base+8])
		centry.tag = block
	}

	texture := uint16(centry.data[index]) | uint16(centry.data[index+1])<<8
	return colourFromU16(texture), texture == 0
}
