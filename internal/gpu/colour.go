package gpu

// Colour is a 24-bit RGB triple plus the VRAM mask/semi-transparency bit,
// stored and math'd as the PSX does: 8 bits per channel, truncating instead
// of rounding on every blend.
type Colour struct {
	R, G, B uint8
	A       bool
}

func colourFromU32(value uint32) Colour {
	return Colour{
		R: uint8(value),
		G: uint8(value >> 8),
		B: uint8(value >> 16),
	}
}

func colourFromU16(value uint16) Colour {
	return Colour{
		R: uint8(value<<3) & 0xf8,
		G: uint8(value>>2) & 0xf8,
		B: uint8(value>>7) & 0xf8,
		A: (value >> 15) != 0,
	}
}

func (c Colour) toU16() uint16 {
	pixel := uint16(0)
	pixel |= (uint16(c.R) & 0xf8) >> 3
	pixel |= (uint16(c.G) & 0xf8) << 2
	pixel |= (uint16(c.B) & 0xf8) << 7
	if c.A {
		pixel |= 0x8000
	}
	return pixel
}

func (c Colour) r() int32 { return int32(c.R) }
func (c Colour) g() int32 { return int32(c.G) }
func (c Colour) b() int32 { return int32(c.B) }

func clip(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
