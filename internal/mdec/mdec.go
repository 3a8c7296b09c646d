// Package mdec implements the motion decoder: the run-length/Huffman
// macroblock bitstream consumer, separable 8x8 IDCT, and YCbCr->RGB
// conversion that turns compressed STR/FMV frame data into displayable
// pixels.
package mdec

import "psx-core/internal/debug"

const (
	blkCR = 0
	blkCB = 1
	blkY  = 2

	qtUV = 0
	qtY  = 1
)

var zagzig = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

type quantTable [64]uint8
type block [64]int16

// Mdec is the MDEC macroblock decoder: command FIFO, quantization and
// IDCT scale tables, and the 3-block (Y/Cb/Cr) working set for one
// macroblock.
type Mdec struct {
	dataOut []uint8
	dataIn  []uint16

	quantTables [2]quantTable
	scaleTable  [64]int16

	blocks [3]block

	processingCommand bool
	command           int

	currentBlock int

	wordsRemaining  uint16
	lastWordRecvd   bool

	dma0Enable bool
	dma1Enable bool

	outputDepth  uint32
	outputSigned bool
	outputBit15  bool

	sendColour bool

	logger *debug.Logger
}

// New returns a freshly reset MDEC.
func New(logger *debug.Logger) *Mdec {
	m := &Mdec{logger: logger}
	m.Reset()
	return m
}

// Reset aborts any in-flight command and idles the block cursor.
func (m *Mdec) Reset() {
	m.processingCommand = false
	m.currentBlock = 4
	m.wordsRemaining = 0
}

func signExtend10(v uint16) int16 {
	if v&0x200 != 0 {
		return int16(v | 0xfc00)
	}
	return int16(v)
}

func clip16(v, lo, hi int16) int16 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// decodeBlock drains run-length coded coefficients for one block from
// the input FIFO, dequantizes and de-zigzags them, then runs the IDCT.
// It returns false if the FIFO ran dry before a complete block was
// decoded (the caller resumes on the next WriteCommand call).
func (m *Mdec) decodeBlock(blk, qt int) bool {
	quant := m.quantTables[qt]
	m.blocks[blk] = block{}

	if len(m.dataIn) == 0 {
		return false
	}

	pop := func() uint16 {
		v := m.dataIn[0]
		m.dataIn = m.dataIn[1:]
		return v
	}

	data := pop()
	k := 0

	for data == 0xfe00 {
		if len(m.dataIn) == 0 {
			return false
		}
		data = pop()
	}

	quantFactor := data >> 10
	dc := signExtend10(data&0x3ff) * int16(quant[k])

	for {
		if quantFactor == 0 {
			dc = signExtend10(data&0x3ff) * 2
		}

		dc = clip16(dc, -0x400, 0x3ff)

		if quantFactor > 0 {
			m.blocks[blk][zagzig[k]] = dc
		} else if quantFactor == 0 {
			m.blocks[blk][k] = dc
		}

		if len(m.dataIn) == 0 {
			return false
		}
		data = pop()

		k += int(data>>10) + 1
		if k <= 63 {
			dc = (signExtend10(data&0x3ff)*int16(quant[k])*int16(quantFactor) + 4) >> 3
			continue
		}
		break
	}

	m.idct(blk)
	return true
}

// idct runs the separable two-pass 8x8 inverse DCT used by both
// passes (row then column), matching the fixed-point scale-table
// approach the PSX's own MDEC hardware uses.
func (m *Mdec) idct(blk int) {
	src := &m.blocks[blk]

	for pass := 0; pass < 2; pass++ {
		var dst block
		for x := 0; x < 8; x++ {
			for y := 0; y < 8; y++ {
				var sum int32
				for z := 0; z < 8; z++ {
					sum += int32(src[y+z*8]) * (int32(m.scaleTable[x+z*8]) >> 3)
				}
				dst[x+y*8] = int16((sum + 0xfff) >> 13)
			}
		}
		*src = dst
	}
}

func (m *Mdec) yuvToRGB(output []uint8, xx, yy int) {
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			r := m.blocks[blkCR][((x+xx)>>1)+((y+yy)>>1)*8]
			b := m.blocks[blkCB][((x+xx)>>1)+((y+yy)>>1)*8]
			g := int16((-0.3437 * float32(b)) + (-0.7143 * float32(r)))

			r = int16(1.402 * float32(r))
			b = int16(1.772 * float32(b))

			l := m.blocks[blkY][x+y*8]

			r = clip16(l+r, -128, 127)
			g = clip16(l+g, -128, 127)
			b = clip16(l+b, -128, 127)

			if !m.outputSigned {
				r ^= 0x80
				g ^= 0x80
				b ^= 0x80
			}

			switch m.outputDepth {
			case 3:
				r5 := uint16(uint8(r)) >> 3
				g5 := uint16(uint8(g)) >> 3
				b5 := uint16(uint8(b)) >> 3

				data := b5<<10 | g5<<5 | r5
				if m.outputBit15 {
					data |= 0x8000
				}

				idx := ((x + xx) + (y+yy)*16) * 2
				output[idx] = uint8(data)
				output[idx+1] = uint8(data >> 8)
			case 2:
				idx := ((x + xx) + (y+yy)*16) * 3
				output[idx] = uint8(r)
				output[idx+1] = uint8(g)
				output[idx+2] = uint8(b)
			}
		}
	}
}

func (m *Mdec) processCommand(value uint32) {
	m.dataIn = append(m.dataIn, uint16(value), uint16(value>>16))
	m.wordsRemaining--

	var output [768]uint8

	if m.wordsRemaining != 0 {
		return
	}

	switch m.command {
	case 1:
		for len(m.dataIn) != 0 {
			var finished bool
			switch m.currentBlock {
			case 0:
				finished = m.decodeBlock(blkY, qtY)
				m.yuvToRGB(output[:], 0, 0)
			case 1:
				finished = m.decodeBlock(blkY, qtY)
				m.yuvToRGB(output[:], 8, 0)
			case 2:
				finished = m.decodeBlock(blkY, qtY)
				m.yuvToRGB(output[:], 0, 8)
			case 3:
				finished = m.decodeBlock(blkY, qtY)
				m.yuvToRGB(output[:], 8, 8)

				switch m.outputDepth {
				case 2:
					m.dataOut = append(m.dataOut, output[:768]...)
				case 3:
					m.dataOut = append(m.dataOut, output[:512]...)
				}
			case 4:
				finished = m.decodeBlock(blkCR, qtUV)
			case 5:
				finished = m.decodeBlock(blkCB, qtUV)
			}

			if finished {
				m.currentBlock++
				if m.currentBlock >= 6 {
					m.currentBlock = 0
				}
			}
		}
	case 2:
		pop := func() uint16 {
			v := m.dataIn[0]
			m.dataIn = m.dataIn[1:]
			return v
		}
		for i := 0; i < 32; i++ {
			half := pop()
			m.quantTables[qtY][i*2] = uint8(half)
			m.quantTables[qtY][i*2+1] = uint8(half >> 8)
		}
		if m.sendColour {
			for i := 0; i < 32; i++ {
				half := pop()
				m.quantTables[qtUV][i*2] = uint8(half)
				m.quantTables[qtUV][i*2+1] = uint8(half >> 8)
			}
		}
	case 3:
		for i := 0; i < 64; i++ {
			half := m.dataIn[0]
			m.dataIn = m.dataIn[1:]
			m.scaleTable[i] = int16(half)
		}
	}

	m.processingCommand = false
	m.lastWordRecvd = true
}

// ReadData drains 4 bytes of decoded macroblock output as a
// little-endian word, satisfying dma.MDEC.
func (m *Mdec) ReadData() uint32 {
	pop := func() uint32 {
		if len(m.dataOut) == 0 {
			return 0
		}
		v := uint32(m.dataOut[0])
		m.dataOut = m.dataOut[1:]
		return v
	}
	b0, b1, b2, b3 := pop(), pop(), pop(), pop()
	return b0 | b1<<8 | b2<<16 | b3<<24
}

// DMARead satisfies dma.MDEC.
func (m *Mdec) DMARead() uint32 { return m.ReadData() }

// WriteCommand writes a word into the MDEC command FIFO (0x1F801820),
// satisfying dma.MDEC.
func (m *Mdec) WriteCommand(value uint32) {
	if m.processingCommand {
		m.processCommand(value)
		return
	}

	m.command = int(value >> 29)
	m.processingCommand = true
	m.lastWordRecvd = false

	switch m.command {
	case 0:
		m.wordsRemaining = 0
		m.processingCommand = false
		m.lastWordRecvd = true
	case 1:
		m.wordsRemaining = uint16(value)
		m.outputDepth = (value & 0x18000000) >> 27
		m.outputSigned = value&0x4000000 != 0
		m.outputBit15 = value&0x2000000 != 0
	case 2:
		m.sendColour = value&0x1 != 0
		if m.sendColour {
			m.wordsRemaining = 32
		} else {
			m.wordsRemaining = 16
		}
	case 3:
		m.wordsRemaining = 32
	default:
		if m.logger != nil {
			m.logger.Logf(debug.ComponentMDEC, debug.LogLevelWarning, "unknown MDEC command %d", m.command)
		}
		m.processingCommand = false
	}
}

// DMAWrite satisfies dma.MDEC.
func (m *Mdec) DMAWrite(value uint32) { m.WriteCommand(value) }

// ReadStatus reads the status register (0x1F801824).
func (m *Mdec) ReadStatus() uint32 {
	var status uint32

	if len(m.dataOut) == 0 {
		status |= 1 << 31
	}
	if len(m.dataIn) != 0 {
		status |= 1 << 30
	}
	if m.processingCommand {
		status |= 1 << 29
	}
	status |= m.outputDepth << 25
	if m.outputSigned {
		status |= 1 << 24
	}
	if m.outputBit15 {
		status |= 1 << 23
	}
	status |= uint32(m.currentBlock) << 16

	status |= uint32(m.wordsRemaining - 1)

	return status
}

// WriteControl writes the control register (0x1F801824).
func (m *Mdec) WriteControl(value uint32) {
	if value&0x80000000 != 0 {
		m.Reset()
	}
	m.dma0Enable = value&0x40000000 != 0
	m.dma1Enable = value&0x20000000 != 0
}
