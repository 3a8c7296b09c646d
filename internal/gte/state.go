package gte

// State is an exported snapshot of every GTE control and data
// register, used by internal/system's save-state support. The
// command-decode fields (sf/mx/sv/cv/lm) are included since they are
// only valid for the duration of one Command call but are cheap to
// carry and keep the snapshot exact.
type State struct {
	SF int
	MX int
	SV int
	CV int
	LM bool

	Rotation [9]int16
	TR       [3]int32
	Light    [9]int16
	BK       [3]int32
	Colour   [9]int16
	FC       [3]int32

	OFX, OFY int32
	H        uint16
	DQA      int16
	DQB      int32
	ZSF3     int16
	ZSF4     int16

	Flags uint32

	V   [3][3]int16
	RGB [4]uint8
	OTZ uint16

	IR [4]int16

	SXYFifo [3][2]int16
	SZFifo  [4]uint16
	RGBFifo [3][4]uint8

	Res1 uint32

	MAC [4]int32

	LZCS int32
	LZCR int32
}

func matrixToArray(m matrix3) [9]int16 {
	return [9]int16{m.m11, m.m12, m.m13, m.m21, m.m22, m.m23, m.m31, m.m32, m.m33}
}

func arrayToMatrix(a [9]int16) matrix3 {
	return matrix3{m11: a[0], m12: a[1], m13: a[2], m21: a[3], m22: a[4], m23: a[5], m31: a[6], m32: a[7], m33: a[8]}
}

func vec3wToArray(v vector3w) [3]int32   { return [3]int32{v.x, v.y, v.z} }
func arrayToVec3w(a [3]int32) vector3w   { return vector3w{x: a[0], y: a[1], z: a[2]} }
func vec3ToArray(v vector3) [3]int16     { return [3]int16{v.x, v.y, v.z} }
func arrayToVec3(a [3]int16) vector3     { return vector3{x: a[0], y: a[1], z: a[2]} }
func vec2ToArray(v vector2) [2]int16     { return [2]int16{v.x, v.y} }
func arrayToVec2(a [2]int16) vector2     { return vector2{x: a[0], y: a[1]} }
func colourToArray(c colour) [4]uint8    { return [4]uint8{c.r, c.g, c.b, c.c} }
func arrayToColour(a [4]uint8) colour    { return colour{r: a[0], g: a[1], b: a[2], c: a[3]} }

// State returns a snapshot of every GTE register.
func (g *GTE) State() State {
	var s State
	s.SF, s.MX, s.SV, s.CV, s.LM = g.sf, g.mx, g.sv, g.cv, g.lm
	s.Rotation = matrixToArray(g.rotation)
	s.TR = vec3wToArray(g.tr)
	s.Light = matrixToArray(g.light)
	s.BK = vec3wToArray(g.bk)
	s.Colour = matrixToArray(g.colour)
	s.FC = vec3wToArray(g.fc)
	s.OFX, s.OFY, s.H = g.ofx, g.ofy, g.h
	s.DQA, s.DQB, s.ZSF3, s.ZSF4 = g.dqa, g.dqb, g.zsf3, g.zsf4
	s.Flags = g.flags
	for i, v := range g.v {
		s.V[i] = vec3ToArray(v)
	}
	s.RGB = colourToArray(g.rgb)
	s.OTZ = g.otz
	s.IR = g.ir
	for i, v := range g.sxyFifo {
		s.SXYFifo[i] = vec2ToArray(v)
	}
	s.SZFifo = g.szFifo
	for i, c := range g.rgbFifo {
		s.RGBFifo[i] = colourToArray(c)
	}
	s.Res1 = g.res1
	s.MAC = g.mac
	s.LZCS, s.LZCR = g.lzcs, g.lzcr
	return s
}

// SetState restores a previously captured snapshot.
func (g *GTE) SetState(s State) {
	g.sf, g.mx, g.sv, g.cv, g.lm = s.SF, s.MX, s.SV, s.CV, s.LM
	g.rotation = arrayToMatrix(s.Rotation)
	g.tr = arrayToVec3w(s.TR)
	g.light = arrayToMatrix(s.Light)
	g.bk = arrayToVec3w(s.BK)
	g.colour = arrayToMatrix(s.Colour)
	g.fc = arrayToVec3w(s.FC)
	g.ofx, g.ofy, g.h = s.OFX, s.OFY, s.H
	g.dqa, g.dqb, g.zsf3, g.zsf4 = s.DQA, s.DQB, s.ZSF3, s.ZSF4
	g.flags = s.Flags
	for i, a := range s.V {
		g.v[i] = arrayToVec3(a)
	}
	g.rgb = arrayToColour(s.RGB)
	g.otz = s.OTZ
	g.ir = s.IR
	for i, a := range s.SXYFifo {
		g.sxyFifo[i] = arrayToVec2(a)
	}
	g.szFifo = s.SZFifo
	for i, a := range s.RGBFifo {
		g.rgbFifo[i] = arrayToColour(a)
	}
	g.res1 = s.Res1
	g.mac = s.MAC
	g.lzcs, g.lzcr = s.LZCS, s.LZCR
}
