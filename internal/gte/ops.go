package gte

// saturate44 wraps value into the 44-bit MAC1-3 accumulator range by
// sign-extending from bit 43.
func saturate44(value int64) int64 {
	return (value << 20) >> 20
}

// a applies the MAC1-3 44-bit saturation, flagging over/underflow into
// bit (27-(index-1)) / (30-(index-1)).
func (g *GTE) a(index int, value int64) int64 {
	if value < -0x80000000000 {
		g.flags |= 0x8000000 >> uint(index-1)
	}
	if value > 0x7ffffffffff {
		g.flags |= 0x40000000 >> uint(index-1)
	}
	return saturate44(value)
}

// lmB saturates an IR1-3 candidate to i16 (or [0,0x7fff] when lm is
// set), flagging saturation.
func (g *GTE) lmB(index int, value int32, lm bool) int16 {
	if lm && value < 0 {
		g.flags |= 0x1000000 >> uint(index-1)
		return 0
	}
	if !lm && value < -0x8000 {
		g.flags |= 0x1000000 >> uint(index-1)
		return -0x8000
	}
	if value > 0x7fff {
		g.flags |= 0x1000000 >> uint(index-1)
		return 0x7fff
	}
	return int16(value)
}

// lmBZ is the IR3 variant used by rtp(): flag bit 22 tracks saturation
// of the pre-shift MAC3 value (old) independent of the lm-narrowed result.
func (g *GTE) lmBZ(value int32, old int64, lm bool) int16 {
	if old < -0x8000 || old > 0x7fff {
		g.flags |= 0x400000
	}
	if lm && value < 0 {
		return 0
	}
	if !lm && value < -0x8000 {
		return -0x8000
	}
	if value > 0x7fff {
		return 0x7fff
	}
	return int16(value)
}

// lmC saturates an RGB output channel to u8.
func (g *GTE) lmC(index int, value int32) uint8 {
	if value < 0 {
		g.flags |= 0x200000 >> uint(index-1)
		return 0
	}
	if value > 0xff {
		g.flags |= 0x200000 >> uint(index-1)
		return 0xff
	}
	return uint8(value)
}

// lmD saturates the OTZ/average-Z result to u16.
func (g *GTE) lmD(value int64) uint16 {
	if value < 0 {
		g.flags |= 0x40000
		return 0
	}
	if value > 0xffff {
		g.flags |= 0x40000
		return 0xffff
	}
	return uint16(value)
}

// f flags MAC0 overflow past the 32-bit range without narrowing value.
func (g *GTE) f(value int64) int64 {
	if value < -0x80000000 {
		g.flags |= 0x8000
	} else if value > 0x7fffffff {
		g.flags |= 0x10000
	}
	return value
}

// lmG saturates an SXY screen coordinate to the 11-bit signed range.
func (g *GTE) lmG(index int, value int32) int16 {
	if value < -0x400 {
		g.flags |= 0x4000 >> uint(index-1)
		return -0x400
	}
	if value > 0x3ff {
		g.flags |= 0x4000 >> uint(index-1)
		return 0x3ff
	}
	return int16(value)
}

// lmH saturates the interpolated depth-cue IR0 to [0, 0x1000].
func (g *GTE) lmH(value int64) int16 {
	if value < 0 {
		g.flags |= 0x1000
		return 0
	}
	if value > 0x1000 {
		g.flags |= 0x1000
		return 0x1000
	}
	return int16(value)
}

// divide approximates numerator/divisor via the hardware's UNR-table
// Newton-Raphson reciprocal, clamped to 0x1ffff.
func divide(numerator, divisor uint16) uint32 {
	z := leadingZeros16(divisor)
	n := uint64(numerator) << z
	d := uint64(divisor) << z
	u := uint64(unrTable[(d-0x7fc0)>>7]) + 0x101
	d2 := (0x2000080 - (d * u)) >> 8
	d3 := (0x80 + (d2 * u)) >> 8
	result := ((n * d3) + 0x8000) >> 16
	if result > 0x1ffff {
		return 0x1ffff
	}
	return uint32(result)
}

func leadingZeros16(v uint16) uint {
	if v == 0 {
		return 16
	}
	n := uint(0)
	for v&0x8000 == 0 {
		v <<= 1
		n++
	}
	return n
}

func (g *GTE) pushSX(sx int16) {
	g.sxyFifo[0].x = g.sxyFifo[1].x
	g.sxyFifo[1].x = g.sxyFifo[2].x
	g.sxyFifo[2].x = sx
}

func (g *GTE) pushSY(sy int16) {
	g.sxyFifo[0].y = g.sxyFifo[1].y
	g.sxyFifo[1].y = g.sxyFifo[2].y
	g.sxyFifo[2].y = sy
}

func (g *GTE) pushSZ(sz uint16) {
	g.szFifo[0] = g.szFifo[1]
	g.szFifo[1] = g.szFifo[2]
	g.szFifo[2] = g.szFifo[3]
	g.szFifo[3] = sz
}

func (g *GTE) pushRGB(r, gg, b, c uint8) {
	g.rgbFifo[0] = g.rgbFifo[1]
	g.rgbFifo[1] = g.rgbFifo[2]
	g.rgbFifo[2] = colour{r: r, g: gg, b: b, c: c}
}

func (g *GTE) commandRTPS() { g.rtp(0, true) }

func (g *GTE) commandRTPT() {
	g.rtp(0, false)
	g.rtp(1, false)
	g.rtp(2, true)
}

// rtp perspective-transforms vertex index through the rotation matrix
// and translation vector, then (when dq) computes the interpolated
// depth-cue factor. Division by SZ3 uses the UNR reciprocal table; a
// too-small SZ3 raises flag bit 17 and clamps the quotient.
func (g *GTE) rtp(index int, dq bool) {
	sf := g.sf
	lm := g.lm

	trX := int64(g.tr.x) << 12
	trY := int64(g.tr.y) << 12
	trZ := int64(g.tr.z) << 12

	r11, r12, r13 := int64(g.rotation.m11), int64(g.rotation.m12), int64(g.rotation.m13)
	r21, r22, r23 := int64(g.rotation.m21), int64(g.rotation.m22), int64(g.rotation.m23)
	r31, r32, r33 := int64(g.rotation.m31), int64(g.rotation.m32), int64(g.rotation.m33)

	vx := int64(g.v[index].x)
	vy := int64(g.v[index].y)
	vz := int64(g.v[index].z)

	var temp [3]int64
	temp[0] = g.a(1, trX+r11*vx)
	temp[1] = g.a(2, trY+r21*vx)
	temp[2] = g.a(3, trZ+r31*vx)

	temp[0] = g.a(1, temp[0]+r12*vy)
	temp[1] = g.a(2, temp[1]+r22*vy)
	temp[2] = g.a(3, temp[2]+r32*vy)

	temp[0] = g.a(1, temp[0]+r13*vz)
	temp[1] = g.a(2, temp[1]+r23*vz)
	temp[2] = g.a(3, temp[2]+r33*vz)

	g.mac[1] = int32(temp[0] >> sf)
	g.mac[2] = int32(temp[1] >> sf)
	trZ = temp[2]
	g.mac[3] = int32(trZ >> sf)

	zs := trZ >> 12

	g.ir[1] = g.lmB(1, g.mac[1], lm)
	g.ir[2] = g.lmB(2, g.mac[2], lm)
	g.ir[3] = g.lmBZ(g.mac[3], zs, lm)

	sz3 := g.lmD(zs)
	g.pushSZ(sz3)

	var hDivSz uint32
	if sz3 > g.h/2 {
		hDivSz = divide(g.h, sz3)
	} else {
		g.flags |= 0x20000
		hDivSz = 0x1ffff
	}

	ir1 := int64(g.ir[1])
	ir2 := int64(g.ir[2])

	sx2 := int64(g.ofx) + ir1*int64(hDivSz)
	sx2f := g.f(sx2) >> 16
	g.pushSX(g.lmG(1, int32(sx2f)))

	sy2 := int64(g.ofy) + ir2*int64(hDivSz)
	sy2f := g.f(sy2) >> 16
	g.pushSY(g.lmG(2, int32(sy2f)))

	if dq {
		depth := int64(g.dqb) + int64(g.dqa)*int64(hDivSz)
		g.mac[0] = int32(g.f(depth))
		g.ir[0] = g.lmH(depth >> 12)
	}
}

func (g *GTE) commandNCLIP() {
	p := int64(g.sxyFifo[0].x)*int64(g.sxyFifo[1].y) +
		int64(g.sxyFifo[1].x)*int64(g.sxyFifo[2].y) +
		int64(g.sxyFifo[2].x)*int64(g.sxyFifo[0].y) -
		int64(g.sxyFifo[0].x)*int64(g.sxyFifo[2].y) -
		int64(g.sxyFifo[1].x)*int64(g.sxyFifo[0].y) -
		int64(g.sxyFifo[2].x)*int64(g.sxyFifo[1].y)
	g.mac[0] = int32(g.f(p))
}

func (g *GTE) commandOP() {
	lm := g.lm
	ir1, ir2, ir3 := int64(g.ir[1]), int64(g.ir[2]), int64(g.ir[3])
	d1, d2, d3 := int64(g.rotation.m11), int64(g.rotation.m22), int64(g.rotation.m33)

	g.mac[1] = int32(g.a(1, ir3*d2-ir2*d3) >> g.sf)
	g.mac[2] = int32(g.a(2, ir1*d3-ir3*d1) >> g.sf)
	g.mac[3] = int32(g.a(3, ir2*d1-ir1*d2) >> g.sf)

	g.ir[1] = g.lmB(1, g.mac[1], lm)
	g.ir[2] = g.lmB(2, g.mac[2], lm)
	g.ir[3] = g.lmB(3, g.mac[3], lm)
}

func (g *GTE) commandDPCS() { g.dpc(false) }

func (g *GTE) commandDPCT() {
	g.dpc(true)
	g.dpc(true)
	g.dpc(true)
}

func (g *GTE) commandINTPL() {
	lm := g.lm

	prevIR1 := int64(g.ir[1]) << 12
	prevIR2 := int64(g.ir[2]) << 12
	prevIR3 := int64(g.ir[3]) << 12

	rfc := int64(g.fc.x) << 12
	gfc := int64(g.fc.y) << 12
	bfc := int64(g.fc.z) << 12

	g.mac[1] = int32(g.a(1, rfc-prevIR1) >> g.sf)
	g.mac[2] = int32(g.a(2, gfc-prevIR2) >> g.sf)
	g.mac[3] = int32(g.a(3, bfc-prevIR3) >> g.sf)

	g.ir[1] = g.lmB(1, g.mac[1], false)
	g.ir[2] = g.lmB(2, g.mac[2], false)
	g.ir[3] = g.lmB(3, g.mac[3], false)

	ir0 := int64(g.ir[0])
	ir1 := int64(g.ir[1])
	ir2 := int64(g.ir[2])
	ir3 := int64(g.ir[3])

	g.mac[1] = int32(g.a(1, prevIR1+ir1*ir0) >> g.sf)
	g.mac[2] = int32(g.a(2, prevIR2+ir2*ir0) >> g.sf)
	g.mac[3] = int32(g.a(3, prevIR3+ir3*ir0) >> g.sf)

	g.ir[1] = g.lmB(1, g.mac[1], lm)
	g.ir[2] = g.lmB(2, g.mac[2], lm)
	g.ir[3] = g.lmB(3, g.mac[3], lm)

	r := g.lmC(1, g.mac[1]>>4)
	gg := g.lmC(2, g.mac[2]>>4)
	b := g.lmC(3, g.mac[3]>>4)
	g.pushRGB(r, gg, b, g.rgb.c)
}

func (g *GTE) commandMVMVA() {
	sf := g.sf
	lm := g.lm

	var mx matrix3
	switch g.mx {
	case 0:
		mx = g.rotation
	case 1:
		mx = g.light
	case 2:
		mx = g.colour
	case 3:
		mx = matrix3{
			m11: -(int16(g.rgb.r) << 4),
			m12: int16(g.rgb.r) << 4,
			m13: g.ir[0],
			m21: g.rotation.m13,
			m22: g.rotation.m13,
			m23: g.rotation.m13,
			m31: g.rotation.m22,
			m32: g.rotation.m22,
			m33: g.rotation.m22,
		}
	}

	mx11, mx12, mx13 := int64(mx.m11), int64(mx.m12), int64(mx.m13)
	mx21, mx22, mx23 := int64(mx.m21), int64(mx.m22), int64(mx.m23)
	mx31, mx32, mx33 := int64(mx.m31), int64(mx.m32), int64(mx.m33)

	var v1, v2, v3 int16
	switch g.sv {
	case 0:
		v1, v2, v3 = g.v[0].x, g.v[0].y, g.v[0].z
	case 1:
		v1, v2, v3 = g.v[1].x, g.v[1].y, g.v[1].z
	case 2:
		v1, v2, v3 = g.v[2].x, g.v[2].y, g.v[2].z
	case 3:
		v1, v2, v3 = g.ir[1], g.ir[2], g.ir[3]
	}
	vx, vy, vz := int64(v1), int64(v2), int64(v3)

	var tx, ty, tz int32
	switch g.cv {
	case 0:
		tx, ty, tz = g.tr.x, g.tr.y, g.tr.z
	case 1:
		tx, ty, tz = g.bk.x, g.bk.y, g.bk.z
	case 2:
		tx, ty, tz = g.fc.x, g.fc.y, g.fc.z
	case 3:
		tx, ty, tz = 0, 0, 0
	}

	trX := int64(tx) << 12
	trY := int64(ty) << 12
	trZ := int64(tz) << 12

	var temp [3]int64
	temp[0] = g.a(1, trX+mx11*vx)
	temp[1] = g.a(2, trY+mx21*vx)
	temp[2] = g.a(3, trZ+mx31*vx)

	if g.cv == 2 {
		g.lmB(1, int32(temp[0]>>sf), false)
		g.lmB(2, int32(temp[1]>>sf), false)
		g.lmB(3, int32(temp[2]>>sf), false)
		temp[0], temp[1], temp[2] = 0, 0, 0
	}

	temp[0] = g.a(1, temp[0]+mx12*vy)
	temp[1] = g.a(2, temp[1]+mx22*vy)
	temp[2] = g.a(3, temp[2]+mx32*vy)

	temp[0] = g.a(1, temp[0]+mx13*vz)
	temp[1] = g.a(2, temp[1]+mx23*vz)
	temp[2] = g.a(3, temp[2]+mx33*vz)

	g.mac[1] = int32(temp[0] >> sf)
	g.mac[2] = int32(temp[1] >> sf)
	g.mac[3] = int32(temp[2] >> sf)

	g.ir[1] = g.lmB(1, g.mac[1], lm)
	g.ir[2] = g.lmB(2, g.mac[2], lm)
	g.ir[3] = g.lmB(3, g.mac[3], lm)
}

func (g *GTE) commandNCDS() { g.ncd(0) }
func (g *GTE) commandNCCS() { g.ncc(0) }
func (g *GTE) commandNCS()  { g.nc(0) }
func (g *GTE) commandNCT() {
	g.nc(0)
	g.nc(1)
	g.nc(2)
}
func (g *GTE) commandNCDT() {
	g.ncd(0)
	g.ncd(1)
	g.ncd(2)
}
func (g *GTE) commandNCCT() {
	g.ncc(0)
	g.ncc(1)
	g.ncc(2)
}

func (g *GTE) commandCC() {
	lm := g.lm
	c11, c12, c13 := int64(g.colour.m11), int64(g.colour.m12), int64(g.colour.m13)
	c21, c22, c23 := int64(g.colour.m21), int64(g.colour.m22), int64(g.colour.m23)
	c31, c32, c33 := int64(g.colour.m31), int64(g.colour.m32), int64(g.colour.m33)

	rbk := int64(g.bk.x) << 12
	gbk := int64(g.bk.y) << 12
	bbk := int64(g.bk.z) << 12

	ir1, ir2, ir3 := int64(g.ir[1]), int64(g.ir[2]), int64(g.ir[3])

	var temp [3]int64
	temp[0] = g.a(1, rbk+c11*ir1)
	temp[1] = g.a(2, gbk+c21*ir1)
	temp[2] = g.a(3, bbk+c31*ir1)

	temp[0] = g.a(1, temp[0]+c12*ir2)
	temp[1] = g.a(2, temp[1]+c22*ir2)
	temp[2] = g.a(3, temp[2]+c32*ir2)

	temp[0] = g.a(1, temp[0]+c13*ir3)
	temp[1] = g.a(2, temp[1]+c23*ir3)
	temp[2] = g.a(3, temp[2]+c33*ir3)

	g.mac[1] = int32(temp[0] >> g.sf)
	g.mac[2] = int32(temp[1] >> g.sf)
	g.mac[3] = int32(temp[2] >> g.sf)

	g.ir[1] = g.lmB(1, g.mac[1], lm)
	g.ir[2] = g.lmB(2, g.mac[2], lm)
	g.ir[3] = g.lmB(3, g.mac[3], lm)

	r := int64(g.rgb.r) << 4
	gg := int64(g.rgb.g) << 4
	b := int64(g.rgb.b) << 4

	ir1, ir2, ir3 = int64(g.ir[1]), int64(g.ir[2]), int64(g.ir[3])

	g.mac[1] = int32(g.a(1, r*ir1) >> g.sf)
	g.mac[2] = int32(g.a(2, gg*ir2) >> g.sf)
	g.mac[3] = int32(g.a(3, b*ir3) >> g.sf)

	g.ir[1] = g.lmB(1, g.mac[1], lm)
	g.ir[2] = g.lmB(2, g.mac[2], lm)
	g.ir[3] = g.lmB(3, g.mac[3], lm)

	outR := g.lmC(1, g.mac[1]>>4)
	outG := g.lmC(2, g.mac[2]>>4)
	outB := g.lmC(3, g.mac[3]>>4)
	g.pushRGB(outR, outG, outB, g.rgb.c)
}

func (g *GTE) commandCDP() {
	lm := g.lm
	c11, c12, c13 := int64(g.colour.m11), int64(g.colour.m12), int64(g.colour.m13)
	c21, c22, c23 := int64(g.colour.m21), int64(g.colour.m22), int64(g.colour.m23)
	c31, c32, c33 := int64(g.colour.m31), int64(g.colour.m32), int64(g.colour.m33)

	rbk := int64(g.bk.x) << 12
	gbk := int64(g.bk.y) << 12
	bbk := int64(g.bk.z) << 12

	ir0 := int64(g.ir[0])
	ir1, ir2, ir3 := int64(g.ir[1]), int64(g.ir[2]), int64(g.ir[3])

	var temp [3]int64
	temp[0] = g.a(1, rbk+c11*ir1)
	temp[1] = g.a(2, gbk+c21*ir1)
	temp[2] = g.a(3, bbk+c31*ir1)

	temp[0] = g.a(1, temp[0]+c12*ir2)
	temp[1] = g.a(2, temp[1]+c22*ir2)
	temp[2] = g.a(3, temp[2]+c32*ir2)

	temp[0] = g.a(1, temp[0]+c13*ir3)
	temp[1] = g.a(2, temp[1]+c23*ir3)
	temp[2] = g.a(3, temp[2]+c33*ir3)

	g.mac[1] = int32(temp[0] >> g.sf)
	g.mac[2] = int32(temp[1] >> g.sf)
	g.mac[3] = int32(temp[2] >> g.sf)

	g.ir[1] = g.lmB(1, g.mac[1], lm)
	g.ir[2] = g.lmB(2, g.mac[2], lm)
	g.ir[3] = g.lmB(3, g.mac[3], lm)

	lm2 := g.lm
	ir1, ir2, ir3 = int64(g.ir[1]), int64(g.ir[2]), int64(g.ir[3])

	rfc := int64(g.fc.x) << 12
	gfc := int64(g.fc.y) << 12
	bfc := int64(g.fc.z) << 12

	r := int64(g.rgb.r) << 4
	gg := int64(g.rgb.g) << 4
	b := int64(g.rgb.b) << 4

	g.mac[1] = int32(g.a(1, rfc-r*ir1) >> g.sf)
	g.mac[2] = int32(g.a(2, gfc-gg*ir2) >> g.sf)
	g.mac[3] = int32(g.a(3, bfc-b*ir3) >> g.sf)

	lmV1 := int64(g.lmB(1, g.mac[1], false))
	lmV2 := int64(g.lmB(2, g.mac[2], false))
	lmV3 := int64(g.lmB(3, g.mac[3], false))

	g.mac[1] = int32(g.a(1, r*ir1+ir0*lmV1) >> g.sf)
	g.mac[2] = int32(g.a(2, gg*ir2+ir0*lmV2) >> g.sf)
	g.mac[3] = int32(g.a(3, b*ir3+ir0*lmV3) >> g.sf)

	g.ir[1] = g.lmB(1, g.mac[1], lm2)
	g.ir[2] = g.lmB(2, g.mac[2], lm2)
	g.ir[3] = g.lmB(3, g.mac[3], lm2)

	outR := g.lmC(1, g.mac[1]>>4)
	outG := g.lmC(2, g.mac[2]>>4)
	outB := g.lmC(3, g.mac[3]>>4)
	g.pushRGB(outR, outG, outB, g.rgb.c)
}

func (g *GTE) commandSQR() {
	lm := g.lm
	ir1, ir2, ir3 := int64(g.ir[1]), int64(g.ir[2]), int64(g.ir[3])

	g.mac[1] = int32(g.a(1, ir1*ir1) >> g.sf)
	g.mac[2] = int32(g.a(2, ir2*ir2) >> g.sf)
	g.mac[3] = int32(g.a(3, ir3*ir3) >> g.sf)

	g.ir[1] = g.lmB(1, g.mac[1], lm)
	g.ir[2] = g.lmB(2, g.mac[2], lm)
	g.ir[3] = g.lmB(3, g.mac[3], lm)
}

func (g *GTE) commandDCPL() {
	lm := g.lm
	ir0 := int64(g.ir[0])
	ir1, ir2, ir3 := int64(g.ir[1]), int64(g.ir[2]), int64(g.ir[3])

	rfc := int64(g.fc.x) << 12
	gfc := int64(g.fc.y) << 12
	bfc := int64(g.fc.z) << 12

	r := int64(g.rgb.r) << 4
	gg := int64(g.rgb.g) << 4
	b := int64(g.rgb.b) << 4

	g.mac[1] = int32(g.a(1, rfc-r*ir1) >> g.sf)
	g.mac[2] = int32(g.a(2, gfc-gg*ir2) >> g.sf)
	g.mac[3] = int32(g.a(3, bfc-b*ir3) >> g.sf)

	lmV1 := int64(g.lmB(1, g.mac[1], false))
	lmV2 := int64(g.lmB(2, g.mac[2], false))
	lmV3 := int64(g.lmB(3, g.mac[3], false))

	g.mac[1] = int32(g.a(1, r*ir1+ir0*lmV1) >> g.sf)
	g.mac[2] = int32(g.a(2, gg*ir2+ir0*lmV2) >> g.sf)
	g.mac[3] = int32(g.a(3, b*ir3+ir0*lmV3) >> g.sf)

	g.ir[1] = g.lmB(1, g.mac[1], lm)
	g.ir[2] = g.lmB(2, g.mac[2], lm)
	g.ir[3] = g.lmB(3, g.mac[3], lm)

	outR := g.lmC(1, g.mac[1]>>4)
	outG := g.lmC(2, g.mac[2]>>4)
	outB := g.lmC(3, g.mac[3]>>4)
	g.pushRGB(outR, outG, outB, g.rgb.c)
}

func (g *GTE) commandAVSZ3() {
	sz1, sz2, sz3 := int64(g.szFifo[1]), int64(g.szFifo[2]), int64(g.szFifo[3])
	average := int64(g.zsf3) * (sz1 + sz2 + sz3)
	g.mac[0] = int32(g.f(average))
	g.otz = g.lmD(average >> 12)
}

func (g *GTE) commandAVSZ4() {
	sz0, sz1, sz2, sz3 := int64(g.szFifo[0]), int64(g.szFifo[1]), int64(g.szFifo[2]), int64(g.szFifo[3])
	average := int64(g.zsf4) * (sz0 + sz1 + sz2 + sz3)
	g.mac[0] = int32(g.f(average))
	g.otz = g.lmD(average >> 12)
}

func (g *GTE) commandGPF() {
	lm := g.lm
	ir0, ir1, ir2, ir3 := int64(g.ir[0]), int64(g.ir[1]), int64(g.ir[2]), int64(g.ir[3])

	g.mac[1] = int32(g.a(1, ir0*ir1)) >> g.sf
	g.mac[2] = int32(g.a(2, ir0*ir2)) >> g.sf
	g.mac[3] = int32(g.a(3, ir0*ir3)) >> g.sf

	g.ir[1] = g.lmB(1, g.mac[1], lm)
	g.ir[2] = g.lmB(2, g.mac[2], lm)
	g.ir[3] = g.lmB(3, g.mac[3], lm)

	r := g.lmC(1, g.mac[1]>>4)
	gg := g.lmC(2, g.mac[2]>>4)
	b := g.lmC(3, g.mac[3]>>4)
	g.pushRGB(r, gg, b, g.rgb.c)
}

func (g *GTE) commandGPL() {
	lm := g.lm
	mac1 := int64(g.mac[1]) << g.sf
	mac2 := int64(g.mac[2]) << g.sf
	mac3 := int64(g.mac[3]) << g.sf

	ir0, ir1, ir2, ir3 := int64(g.ir[0]), int64(g.ir[1]), int64(g.ir[2]), int64(g.ir[3])

	g.mac[1] = int32(g.a(1, ir0*ir1+mac1) >> g.sf)
	g.mac[2] = int32(g.a(2, ir0*ir2+mac2) >> g.sf)
	g.mac[3] = int32(g.a(3, ir0*ir3+mac3) >> g.sf)

	g.ir[1] = g.lmB(1, g.mac[1], lm)
	g.ir[2] = g.lmB(2, g.mac[2], lm)
	g.ir[3] = g.lmB(3, g.mac[3], lm)

	r := g.lmC(1, g.mac[1]>>4)
	gg := g.lmC(2, g.mac[2]>>4)
	b := g.lmC(3, g.mac[3]>>4)
	g.pushRGB(r, gg, b, g.rgb.c)
}

// dpc is the depth-cue blend shared by DPCS/DPCT; useFIFO selects
// whether the source color is the CODE/RGB register or rgbFifo[0].
func (g *GTE) dpc(useFIFO bool) {
	lm := g.lm
	var r, gg, b int64
	if useFIFO {
		r = int64(g.rgbFifo[0].r) << 16
		gg = int64(g.rgbFifo[0].g) << 16
		b = int64(g.rgbFifo[0].b) << 16
	} else {
		r = int64(g.rgb.r) << 16
		gg = int64(g.rgb.g) << 16
		b = int64(g.rgb.b) << 16
	}

	rfc := int64(g.fc.x) << 12
	gfc := int64(g.fc.y) << 12
	bfc := int64(g.fc.z) << 12

	g.mac[1] = int32(g.a(1, rfc-r) >> g.sf)
	g.mac[2] = int32(g.a(2, gfc-gg) >> g.sf)
	g.mac[3] = int32(g.a(3, bfc-b) >> g.sf)

	g.ir[1] = g.lmB(1, g.mac[1], false)
	g.ir[2] = g.lmB(2, g.mac[2], false)
	g.ir[3] = g.lmB(3, g.mac[3], false)

	ir0 := int64(g.ir[0])
	ir1 := int64(g.ir[1])
	ir2 := int64(g.ir[2])
	ir3 := int64(g.ir[3])

	g.mac[1] = int32(g.a(1, r+ir1*ir0) >> g.sf)
	g.mac[2] = int32(g.a(2, gg+ir2*ir0) >> g.sf)
	g.mac[3] = int32(g.a(3, b+ir3*ir0) >> g.sf)

	g.ir[1] = g.lmB(1, g.mac[1], lm)
	g.ir[2] = g.lmB(2, g.mac[2], lm)
	g.ir[3] = g.lmB(3, g.mac[3], lm)

	outR := g.lmC(1, g.mac[1]>>4)
	outG := g.lmC(2, g.mac[2]>>4)
	outB := g.lmC(3, g.mac[3]>>4)
	g.pushRGB(outR, outG, outB, g.rgb.c)
}

// nc is the plain normal-color lighting pipeline shared by NCS/NCT:
// light-matrix * normal, then colour-matrix * result + background.
func (g *GTE) nc(index int) {
	lm := g.lm
	l11, l12, l13 := int64(g.light.m11), int64(g.light.m12), int64(g.light.m13)
	l21, l22, l23 := int64(g.light.m21), int64(g.light.m22), int64(g.light.m23)
	l31, l32, l33 := int64(g.light.m31), int64(g.light.m32), int64(g.light.m33)

	vx, vy, vz := int64(g.v[index].x), int64(g.v[index].y), int64(g.v[index].z)

	var temp [3]int64
	temp[0] = g.a(1, l11*vx)
	temp[1] = g.a(2, l21*vx)
	temp[2] = g.a(3, l31*vx)

	temp[0] = g.a(1, temp[0]+l12*vy)
	temp[1] = g.a(2, temp[1]+l22*vy)
	temp[2] = g.a(3, temp[2]+l32*vy)

	temp[0] = g.a(1, temp[0]+l13*vz)
	temp[1] = g.a(2, temp[1]+l23*vz)
	temp[2] = g.a(3, temp[2]+l33*vz)

	g.mac[1] = int32(temp[0] >> g.sf)
	g.mac[2] = int32(temp[1] >> g.sf)
	g.mac[3] = int32(temp[2] >> g.sf)

	g.ir[1] = g.lmB(1, g.mac[1], lm)
	g.ir[2] = g.lmB(2, g.mac[2], lm)
	g.ir[3] = g.lmB(3, g.mac[3], lm)

	rbk := int64(g.bk.x) << 12
	gbk := int64(g.bk.y) << 12
	bbk := int64(g.bk.z) << 12

	ir1, ir2, ir3 := int64(g.ir[1]), int64(g.ir[2]), int64(g.ir[3])

	c11, c12, c13 := int64(g.colour.m11), int64(g.colour.m12), int64(g.colour.m13)
	c21, c22, c23 := int64(g.colour.m21), int64(g.colour.m22), int64(g.colour.m23)
	c31, c32, c33 := int64(g.colour.m31), int64(g.colour.m32), int64(g.colour.m33)

	temp[0] = g.a(1, rbk+c11*ir1)
	temp[1] = g.a(2, gbk+c21*ir1)
	temp[2] = g.a(3, bbk+c31*ir1)

	temp[0] = g.a(1, temp[0]+c12*ir2)
	temp[1] = g.a(2, temp[1]+c22*ir2)
	temp[2] = g.a(3, temp[2]+c32*ir2)

	temp[0] = g.a(1, temp[0]+c13*ir3)
	temp[1] = g.a(2, temp[1]+c23*ir3)
	temp[2] = g.a(3, temp[2]+c33*ir3)

	g.mac[1] = int32(temp[0] >> g.sf)
	g.mac[2] = int32(temp[1] >> g.sf)
	g.mac[3] = int32(temp[2] >> g.sf)

	g.ir[1] = g.lmB(1, g.mac[1], lm)
	g.ir[2] = g.lmB(2, g.mac[2], lm)
	g.ir[3] = g.lmB(3, g.mac[3], lm)

	r := g.lmC(1, g.mac[1]>>4)
	gg := g.lmC(2, g.mac[2]>>4)
	b := g.lmC(3, g.mac[3]>>4)
	g.pushRGB(r, gg, b, g.rgb.c)
}

// ncc is nc() followed by a modulation of the result against the CODE
// register's RGB, used by NCCS/NCCT.
func (g *GTE) ncc(index int) {
	lm := g.lm
	l11, l12, l13 := int64(g.light.m11), int64(g.light.m12), int64(g.light.m13)
	l21, l22, l23 := int64(g.light.m21), int64(g.light.m22), int64(g.light.m23)
	l31, l32, l33 := int64(g.light.m31), int64(g.light.m32), int64(g.light.m33)

	vx, vy, vz := int64(g.v[index].x), int64(g.v[index].y), int64(g.v[index].z)

	var temp [3]int64
	temp[0] = g.a(1, l11*vx)
	temp[1] = g.a(2, l21*vx)
	temp[2] = g.a(3, l31*vx)

	temp[0] = g.a(1, temp[0]+l12*vy)
	temp[1] = g.a(2, temp[1]+l22*vy)
	temp[2] = g.a(3, temp[2]+l32*vy)

	temp[0] = g.a(1, temp[0]+l13*vz)
	temp[1] = g.a(2, temp[1]+l23*vz)
	temp[2] = g.a(3, temp[2]+l33*vz)

	g.mac[1] = int32(temp[0] >> g.sf)
	g.mac[2] = int32(temp[1] >> g.sf)
	g.mac[3] = int32(temp[2] >> g.sf)

	g.ir[1] = g.lmB(1, g.mac[1], lm)
	g.ir[2] = g.lmB(2, g.mac[2], lm)
	g.ir[3] = g.lmB(3, g.mac[3], lm)

	rbk := int64(g.bk.x) << 12
	gbk := int64(g.bk.y) << 12
	bbk := int64(g.bk.z) << 12

	ir1, ir2, ir3 := int64(g.ir[1]), int64(g.ir[2]), int64(g.ir[3])

	c11, c12, c13 := int64(g.colour.m11), int64(g.colour.m12), int64(g.colour.m13)
	c21, c22, c23 := int64(g.colour.m21), int64(g.colour.m22), int64(g.colour.m23)
	c31, c32, c33 := int64(g.colour.m31), int64(g.colour.m32), int64(g.colour.m33)

	temp[0] = g.a(1, rbk+c11*ir1)
	temp[1] = g.a(2, gbk+c21*ir1)
	temp[2] = g.a(3, bbk+c31*ir1)

	temp[0] = g.a(1, temp[0]+c12*ir2)
	temp[1] = g.a(2, temp[1]+c22*ir2)
	temp[2] = g.a(3, temp[2]+c32*ir2)

	temp[0] = g.a(1, temp[0]+c13*ir3)
	temp[1] = g.a(2, temp[1]+c23*ir3)
	temp[2] = g.a(3, temp[2]+c33*ir3)

	g.mac[1] = int32(temp[0] >> g.sf)
	g.mac[2] = int32(temp[1] >> g.sf)
	g.mac[3] = int32(temp[2] >> g.sf)

	g.ir[1] = g.lmB(1, g.mac[1], lm)
	g.ir[2] = g.lmB(2, g.mac[2], lm)
	g.ir[3] = g.lmB(3, g.mac[3], lm)

	r := int64(g.rgb.r) << 4
	gg := int64(g.rgb.g) << 4
	b := int64(g.rgb.b) << 4

	ir1, ir2, ir3 = int64(g.ir[1]), int64(g.ir[2]), int64(g.ir[3])

	g.mac[1] = int32(g.a(1, r*ir1) >> g.sf)
	g.mac[2] = int32(g.a(2, gg*ir2) >> g.sf)
	g.mac[3] = int32(g.a(3, b*ir3) >> g.sf)

	g.ir[1] = g.lmB(1, g.mac[1], lm)
	g.ir[2] = g.lmB(2, g.mac[2], lm)
	g.ir[3] = g.lmB(3, g.mac[3], lm)

	outR := g.lmC(1, g.mac[1]>>4)
	outG := g.lmC(2, g.mac[2]>>4)
	outB := g.lmC(3, g.mac[3]>>4)
	g.pushRGB(outR, outG, outB, g.rgb.c)
}

// ncd is ncc() followed by a far-color depth-cue blend, used by NCDS/NCDT.
func (g *GTE) ncd(index int) {
	lm := g.lm
	l11, l12, l13 := int64(g.light.m11), int64(g.light.m12), int64(g.light.m13)
	l21, l22, l23 := int64(g.light.m21), int64(g.light.m22), int64(g.light.m23)
	l31, l32, l33 := int64(g.light.m31), int64(g.light.m32), int64(g.light.m33)

	vx, vy, vz := int64(g.v[index].x), int64(g.v[index].y), int64(g.v[index].z)

	var temp [3]int64
	temp[0] = g.a(1, l11*vx)
	temp[1] = g.a(2, l21*vx)
	temp[2] = g.a(3, l31*vx)

	temp[0] = g.a(1, temp[0]+l12*vy)
	temp[1] = g.a(2, temp[1]+l22*vy)
	temp[2] = g.a(3, temp[2]+l32*vy)

	temp[0] = g.a(1, temp[0]+l13*vz)
	temp[1] = g.a(2, temp[1]+l23*vz)
	temp[2] = g.a(3, temp[2]+l33*vz)

	g.mac[1] = int32(temp[0] >> g.sf)
	g.mac[2] = int32(temp[1] >> g.sf)
	g.mac[3] = int32(temp[2] >> g.sf)

	g.ir[1] = g.lmB(1, g.mac[1], lm)
	g.ir[2] = g.lmB(2, g.mac[2], lm)
	g.ir[3] = g.lmB(3, g.mac[3], lm)

	rbk := int64(g.bk.x) << 12
	gbk := int64(g.bk.y) << 12
	bbk := int64(g.bk.z) << 12

	ir1, ir2, ir3 := int64(g.ir[1]), int64(g.ir[2]), int64(g.ir[3])

	c11, c12, c13 := int64(g.colour.m11), int64(g.colour.m12), int64(g.colour.m13)
	c21, c22, c23 := int64(g.colour.m21), int64(g.colour.m22), int64(g.colour.m23)
	c31, c32, c33 := int64(g.colour.m31), int64(g.colour.m32), int64(g.colour.m33)

	temp[0] = g.a(1, rbk+c11*ir1)
	temp[1] = g.a(2, gbk+c21*ir1)
	temp[2] = g.a(3, bbk+c31*ir1)

	temp[0] = g.a(1, temp[0]+c12*ir2)
	temp[1] = g.a(2, temp[1]+c22*ir2)
	temp[2] = g.a(3, temp[2]+c32*ir2)

	temp[0] = g.a(1, temp[0]+c13*ir3)
	temp[1] = g.a(2, temp[1]+c23*ir3)
	temp[2] = g.a(3, temp[2]+c33*ir3)

	g.mac[1] = int32(temp[0] >> g.sf)
	g.mac[2] = int32(temp[1] >> g.sf)
	g.mac[3] = int32(temp[2] >> g.sf)

	g.ir[1] = g.lmB(1, g.mac[1], lm)
	g.ir[2] = g.lmB(2, g.mac[2], lm)
	g.ir[3] = g.lmB(3, g.mac[3], lm)

	prevIR1 := int64(g.ir[1])
	prevIR2 := int64(g.ir[2])
	prevIR3 := int64(g.ir[3])

	r := int64(g.rgb.r) << 4
	gg := int64(g.rgb.g) << 4
	b := int64(g.rgb.b) << 4

	rfc := int64(g.fc.x) << 12
	gfc := int64(g.fc.y) << 12
	bfc := int64(g.fc.z) << 12

	g.mac[1] = int32(g.a(1, rfc-r*prevIR1) >> g.sf)
	g.mac[2] = int32(g.a(2, gfc-gg*prevIR2) >> g.sf)
	g.mac[3] = int32(g.a(3, bfc-b*prevIR3) >> g.sf)

	g.ir[1] = g.lmB(1, g.mac[1], false)
	g.ir[2] = g.lmB(2, g.mac[2], false)
	g.ir[3] = g.lmB(3, g.mac[3], false)

	ir0 := int64(g.ir[0])
	ir1 = int64(g.ir[1])
	ir2 = int64(g.ir[2])
	ir3 = int64(g.ir[3])

	g.mac[1] = int32(g.a(1, (r*prevIR1)+ir0*ir1) >> g.sf)
	g.mac[2] = int32(g.a(2, (gg*prevIR2)+ir0*ir2) >> g.sf)
	g.mac[3] = int32(g.a(3, (b*prevIR3)+ir0*ir3) >> g.sf)

	g.ir[1] = g.lmB(1, g.mac[1], lm)
	g.ir[2] = g.lmB(2, g.mac[2], lm)
	g.ir[3] = g.lmB(3, g.mac[3], lm)

	outR := g.lmC(1, g.mac[1]>>4)
	outG := g.lmC(2, g.mac[2]>>4)
	outB := g.lmC(3, g.mac[3]>>4)
	g.pushRGB(outR, outG, outB, g.rgb.c)
}
