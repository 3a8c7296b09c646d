// Package gte implements the Geometry Transformation Engine, the
// fixed-point COP2 coprocessor the CPU dispatches MFC2/MTC2/CFC2/CTC2
// and GTE command words to. All arithmetic is integer, matching the
// hardware's lack of a floating-point unit.
package gte

// matrix3 is a 3x3 signed 16-bit fixed-point matrix, used for the
// rotation, light, and colour-matrix control register banks.
type matrix3 struct {
	m11, m12, m13 int16
	m21, m22, m23 int16
	m31, m32, m33 int16
}

type vector2 struct{ x, y int16 }
type vector3 struct{ x, y, z int16 }
type vector3w struct{ x, y, z int32 }

type colour struct{ r, g, b, c uint8 }

// unrTable drives the Newton-Raphson reciprocal approximation used by
// the perspective-divide step of RTPS/RTPT.
var unrTable = [0x101]uint8{
	0xFF, 0xFD, 0xFB, 0xF9, 0xF7, 0xF5, 0xF3, 0xF1, 0xEF, 0xEE, 0xEC, 0xEA, 0xE8, 0xE6, 0xE4, 0xE3,
	0xE1, 0xDF, 0xDD, 0xDC, 0xDA, 0xD8, 0xD6, 0xD5, 0xD3, 0xD1, 0xD0, 0xCE, 0xCD, 0xCB, 0xC9, 0xC8,
	0xC6, 0xC5, 0xC3, 0xC1, 0xC0, 0xBE, 0xBD, 0xBB, 0xBA, 0xB8, 0xB7, 0xB5, 0xB4, 0xB2, 0xB1, 0xB0,
	0xAE, 0xAD, 0xAB, 0xAA, 0xA9, 0xA7, 0xA6, 0xA4, 0xA3, 0xA2, 0xA0, 0x9F, 0x9E, 0x9C, 0x9B, 0x9A,
	0x99, 0x97, 0x96, 0x95, 0x94, 0x92, 0x91, 0x90, 0x8F, 0x8D, 0x8C, 0x8B, 0x8A, 0x89, 0x87, 0x86,
	0x85, 0x84, 0x83, 0x82, 0x81, 0x7F, 0x7E, 0x7D, 0x7C, 0x7B, 0x7A, 0x79, 0x78, 0x77, 0x75, 0x74,
	0x73, 0x72, 0x71, 0x70, 0x6F, 0x6E, 0x6D, 0x6C, 0x6B, 0x6A, 0x69, 0x68, 0x67, 0x66, 0x65, 0x64,
	0x63, 0x62, 0x61, 0x60, 0x5F, 0x5E, 0x5D, 0x5D, 0x5C, 0x5B, 0x5A, 0x59, 0x58, 0x57, 0x56, 0x55,
	0x54, 0x53, 0x53, 0x52, 0x51, 0x50, 0x4F, 0x4E, 0x4D, 0x4D, 0x4C, 0x4B, 0x4A, 0x49, 0x48, 0x48,
	0x47, 0x46, 0x45, 0x44, 0x43, 0x43, 0x42, 0x41, 0x40, 0x3F, 0x3F, 0x3E, 0x3D, 0x3C, 0x3C, 0x3B,
	0x3A, 0x39, 0x39, 0x38, 0x37, 0x36, 0x36, 0x35, 0x34, 0x33, 0x33, 0x32, 0x31, 0x31, 0x30, 0x2F,
	0x2E, 0x2E, 0x2D, 0x2C, 0x2C, 0x2B, 0x2A, 0x2A, 0x29, 0x28, 0x28, 0x27, 0x26, 0x26, 0x25, 0x24,
	0x24, 0x23, 0x22, 0x22, 0x21, 0x20, 0x20, 0x1F, 0x1E, 0x1E, 0x1D, 0x1D, 0x1C, 0x1B, 0x1B, 0x1A,
	0x19, 0x19, 0x18, 0x18, 0x17, 0x16, 0x16, 0x15, 0x15, 0x14, 0x14, 0x13, 0x12, 0x12, 0x11, 0x11,
	0x10, 0x0F, 0x0F, 0x0E, 0x0E, 0x0D, 0x0D, 0x0C, 0x0C, 0x0B, 0x0A, 0x0A, 0x09, 0x09, 0x08, 0x08,
	0x07, 0x07, 0x06, 0x06, 0x05, 0x05, 0x04, 0x04, 0x03, 0x03, 0x02, 0x02, 0x01, 0x01, 0x00, 0x00,
	0x00,
}

// GTE holds the control and data register banks. Command decodes its
// sf/mx/sv/cv/lm fields into these for the duration of one Command
// call.
type GTE struct {
	sf int
	mx int
	sv int
	cv int
	lm bool

	rotation matrix3
	tr       vector3w
	light    matrix3
	bk       vector3w
	colour   matrix3
	fc       vector3w

	ofx, ofy int32
	h        uint16
	dqa      int16
	dqb      int32
	zsf3     int16
	zsf4     int16

	flags uint32

	v   [3]vector3
	rgb colour
	otz uint16

	ir [4]int16

	sxyFifo [3]vector2
	szFifo  [4]uint16
	rgbFifo [3]colour

	res1 uint32

	mac [4]int32

	lzcs int32
	lzcr int32
}

// New returns a GTE with all registers zeroed.
func New() *GTE {
	g := &GTE{}
	g.Reset()
	return g
}

// Reset zeroes every register; the real chip has no defined power-on
// state but all known BIOSes and games initialize before first use.
func (g *GTE) Reset() {
	*g = GTE{}
}

// Command decodes sf/mx/sv/cv/lm and the 6-bit opcode from word and
// executes the matching GTE function, updating the error-flag register.
func (g *GTE) Command(word uint32) {
	if word&0x80000 != 0 {
		g.sf = 12
	} else {
		g.sf = 0
	}
	g.mx = int((word >> 17) & 0x3)
	g.sv = int((word >> 15) & 0x3)
	g.cv = int((word >> 13) & 0x3)
	g.lm = word&0x400 != 0

	opcode := word & 0x3f
	g.flags = 0

	switch opcode {
	case 0x01:
		g.commandRTPS()
	case 0x06:
		g.commandNCLIP()
	case 0x0c:
		g.commandOP()
	case 0x10:
		g.commandDPCS()
	case 0x11:
		g.commandINTPL()
	case 0x12:
		g.commandMVMVA()
	case 0x13:
		g.commandNCDS()
	case 0x14:
		g.commandCDP()
	case 0x16:
		g.commandNCDT()
	case 0x1b:
		g.commandNCCS()
	case 0x1c:
		g.commandCC()
	case 0x1e:
		g.commandNCS()
	case 0x20:
		g.commandNCT()
	case 0x28:
		g.commandSQR()
	case 0x29:
		g.commandDCPL()
	case 0x2a:
		g.commandDPCT()
	case 0x2d:
		g.commandAVSZ3()
	case 0x2e:
		g.commandAVSZ4()
	case 0x30:
		g.commandRTPT()
	case 0x3d:
		g.commandGPF()
	case 0x3e:
		g.commandGPL()
	case 0x3f:
		g.commandNCCT()
	default:
		// Unrecognized GTE opcodes are silently ignored on real hardware
		// in most emulated cases; no game is known to issue one.
	}

	if g.flags&0x7f87e000 != 0 {
		g.flags |= 0x80000000
	}
}

// ReadControl reads control register cop2c<index> (CFC2).
func (g *GTE) ReadControl(index uint32) uint32 {
	switch index {
	case 0:
		return uint32(uint16(g.rotation.m12))<<16 | uint32(uint16(g.rotation.m11))
	case 1:
		return uint32(uint16(g.rotation.m21))<<16 | uint32(uint16(g.rotation.m13))
	case 2:
		return uint32(uint16(g.rotation.m23))<<16 | uint32(uint16(g.rotation.m22))
	case 3:
		return uint32(uint16(g.rotation.m32))<<16 | uint32(uint16(g.rotation.m31))
	case 4:
		return uint32(uint16(g.rotation.m33))
	case 5:
		return uint32(g.tr.x)
	case 6:
		return uint32(g.tr.y)
	case 7:
		return uint32(g.tr.z)
	case 8:
		return uint32(uint16(g.light.m12))<<16 | uint32(uint16(g.light.m11))
	case 9:
		return uint32(uint16(g.light.m21))<<16 | uint32(uint16(g.light.m13))
	case 10:
		return uint32(uint16(g.light.m23))<<16 | uint32(uint16(g.light.m22))
	case 11:
		return uint32(uint16(g.light.m32))<<16 | uint32(uint16(g.light.m31))
	case 12:
		return uint32(uint16(g.light.m33))
	case 13:
		return uint32(g.bk.x)
	case 14:
		return uint32(g.bk.y)
	case 15:
		return uint32(g.bk.z)
	case 16:
		return uint32(uint16(g.colour.m12))<<16 | uint32(uint16(g.colour.m11))
	case 17:
		return uint32(uint16(g.colour.m21))<<16 | uint32(uint16(g.colour.m13))
	case 18:
		return uint32(uint16(g.colour.m23))<<16 | uint32(uint16(g.colour.m22))
	case 19:
		return uint32(uint16(g.colour.m32))<<16 | uint32(uint16(g.colour.m31))
	case 20:
		return uint32(uint16(g.colour.m33))
	case 21:
		return uint32(g.fc.x)
	case 22:
		return uint32(g.fc.y)
	case 23:
		return uint32(g.fc.z)
	case 24:
		return uint32(g.ofx)
	case 25:
		return uint32(g.ofy)
	case 26:
		return uint32(int32(int16(g.h)))
	case 27:
		return uint32(g.dqa)
	case 28:
		return uint32(g.dqb)
	case 29:
		return uint32(g.zsf3)
	case 30:
		return uint32(g.zsf4)
	case 31:
		return g.flags
	default:
		return 0
	}
}

// WriteControl writes control register cop2c<index> (CTC2).
func (g *GTE) WriteControl(index uint32, value uint32) {
	switch index {
	case 0:
		g.rotation.m11 = int16(value)
		g.rotation.m12 = int16(value >> 16)
	case 1:
		g.rotation.m13 = int16(value)
		g.rotation.m21 = int16(value >> 16)
	case 2:
		g.rotation.m22 = int16(value)
		g.rotation.m23 = int16(value >> 16)
	case 3:
		g.rotation.m31 = int16(value)
		g.rotation.m32 = int16(value >> 16)
	case 4:
		g.rotation.m33 = int16(value)
	case 5:
		g.tr.x = int32(value)
	case 6:
		g.tr.y = int32(value)
	case 7:
		g.tr.z = int32(value)
	case 8:
		g.light.m11 = int16(value)
		g.light.m12 = int16(value >> 16)
	case 9:
		g.light.m13 = int16(value)
		g.light.m21 = int16(value >> 16)
	case 10:
		g.light.m22 = int16(value)
		g.light.m23 = int16(value >> 16)
	case 11:
		g.light.m31 = int16(value)
		g.light.m32 = int16(value >> 16)
	case 12:
		g.light.m33 = int16(value)
	case 13:
		g.bk.x = int32(value)
	case 14:
		g.bk.y = int32(value)
	case 15:
		g.bk.z = int32(value)
	case 16:
		g.colour.m11 = int16(value)
		g.colour.m12 = int16(value >> 16)
	case 17:
		g.colour.m13 = int16(value)
		g.colour.m21 = int16(value >> 16)
	case 18:
		g.colour.m22 = int16(value)
		g.colour.m23 = int16(value >> 16)
	case 19:
		g.colour.m31 = int16(value)
		g.colour.m32 = int16(value >> 16)
	case 20:
		g.colour.m33 = int16(value)
	case 21:
		g.fc.x = int32(value)
	case 22:
		g.fc.y = int32(value)
	case 23:
		g.fc.z = int32(value)
	case 24:
		g.ofx = int32(value)
	case 25:
		g.ofy = int32(value)
	case 26:
		g.h = uint16(value)
	case 27:
		g.dqa = int16(value)
	case 28:
		g.dqb = int32(value)
	case 29:
		g.zsf3 = int16(value)
	case 30:
		g.zsf4 = int16(value)
	case 31:
		g.flags = value & 0x7fff_f000
		if value&0x7f87e000 != 0 {
			g.flags |= 0x80000000
		}
	}
}

// ReadData reads data register cop2r<index> (MFC2).
func (g *GTE) ReadData(index uint32) uint32 {
	switch index {
	case 0:
		return uint32(uint16(g.v[0].x)) | uint32(uint16(g.v[0].y))<<16
	case 1:
		return uint32(g.v[0].z)
	case 2:
		return uint32(uint16(g.v[1].x)) | uint32(uint16(g.v[1].y))<<16
	case 3:
		return uint32(g.v[1].z)
	case 4:
		return uint32(uint16(g.v[2].x)) | uint32(uint16(g.v[2].y))<<16
	case 5:
		return uint32(g.v[2].z)
	case 6:
		return uint32(g.rgb.r) | uint32(g.rgb.g)<<8 | uint32(g.rgb.b)<<16 | uint32(g.rgb.c)<<24
	case 7:
		return uint32(g.otz)
	case 8:
		return uint32(int32(g.ir[0]))
	case 9:
		return uint32(int32(g.ir[1]))
	case 10:
		return uint32(int32(g.ir[2]))
	case 11:
		return uint32(int32(g.ir[3]))
	case 12:
		return uint32(uint16(g.sxyFifo[0].x)) | uint32(uint16(g.sxyFifo[0].y))<<16
	case 13:
		return uint32(uint16(g.sxyFifo[1].x)) | uint32(uint16(g.sxyFifo[1].y))<<16
	case 14, 15:
		return uint32(uint16(g.sxyFifo[2].x)) | uint32(uint16(g.sxyFifo[2].y))<<16
	case 16:
		return uint32(g.szFifo[0])
	case 17:
		return uint32(g.szFifo[1])
	case 18:
		return uint32(g.szFifo[2])
	case 19:
		return uint32(g.szFifo[3])
	case 20, 21, 22:
		f := g.rgbFifo[index-20]
		return uint32(f.c)<<24 | uint32(f.b)<<16 | uint32(f.g)<<8 | uint32(f.r)
	case 23:
		return g.res1
	case 24:
		return uint32(g.mac[0])
	case 25:
		return uint32(g.mac[1])
	case 26:
		return uint32(g.mac[2])
	case 27:
		return uint32(g.mac[3])
	case 28, 29:
		r := uint32(saturate16to5(g.ir[1] >> 7))
		gg := uint32(saturate16to5(g.ir[2] >> 7))
		b := uint32(saturate16to5(g.ir[3] >> 7))
		return r | gg<<5 | b<<10
	case 30:
		return uint32(g.lzcs)
	case 31:
		return uint32(g.lzcr)
	default:
		return 0
	}
}

// WriteData writes data register cop2r<index> (MTC2).
func (g *GTE) WriteData(index uint32, value uint32) {
	switch index {
	case 0:
		g.v[0].x = int16(value)
		g.v[0].y = int16(value >> 16)
	case 1:
		g.v[0].z = int16(value)
	case 2:
		g.v[1].x = int16(value)
		g.v[1].y = int16(value >> 16)
	case 3:
		g.v[1].z = int16(value)
	case 4:
		g.v[2].x = int16(value)
		g.v[2].y = int16(value >> 16)
	case 5:
		g.v[2].z = int16(value)
	case 6:
		g.rgb.r = uint8(value)
		g.rgb.g = uint8(value >> 8)
		g.rgb.b = uint8(value >> 16)
		g.rgb.c = uint8(value >> 24)
	case 7:
		g.otz = uint16(value)
	case 8:
		g.ir[0] = int16(value)
	case 9:
		g.ir[1] = int16(value)
	case 10:
		g.ir[2] = int16(value)
	case 11:
		g.ir[3] = int16(value)
	case 12:
		g.sxyFifo[0].x = int16(value)
		g.sxyFifo[0].y = int16(value >> 16)
	case 13:
		g.sxyFifo[1].x = int16(value)
		g.sxyFifo[1].y = int16(value >> 16)
	case 14:
		g.sxyFifo[2].x = int16(value)
		g.sxyFifo[2].y = int16(value >> 16)
	case 15:
		g.pushSX(int16(value))
		g.pushSY(int16(value >> 16))
	case 16:
		g.szFifo[0] = uint16(value)
	case 17:
		g.szFifo[1] = uint16(value)
	case 18:
		g.szFifo[2] = uint16(value)
	case 19:
		g.szFifo[3] = uint16(value)
	case 20, 21, 22:
		f := &g.rgbFifo[index-20]
		f.r = uint8(value)
		f.g = uint8(value >> 8)
		f.b = uint8(value >> 16)
		f.c = uint8(value >> 24)
	case 23:
		g.res1 = value
	case 24:
		g.mac[0] = int32(value)
	case 25:
		g.mac[1] = int32(value)
	case 26:
		g.mac[2] = int32(value)
	case 27:
		g.mac[3] = int32(value)
	case 28:
		g.ir[1] = int16((value & 0x1f) << 7)
		g.ir[2] = int16(((value >> 5) & 0x1f) << 7)
		g.ir[3] = int16(((value >> 10) & 0x1f) << 7)
	case 29:
		// read-only
	case 30:
		g.lzcs = int32(value)
		g.lzcr = leadingCount(g.lzcs)
	case 31:
		// read-only
	}
}

func leadingCount(lzcs int32) int32 {
	u := uint32(lzcs)
	leadingBit := u >> 31
	count := int32(1)
	for i := uint(1); i < 32; i++ {
		if (u>>(31-i))&1 == leadingBit {
			count++
		} else {
			break
		}
	}
	return count
}

func saturate16to5(value int16) uint8 {
	if value > 0x1f {
		return 0x1f
	}
	if value < 0 {
		return 0
	}
	return uint8(value)
}
