// Package spu implements the 24-voice sound processing unit: per-voice
// ADPCM decode, Gaussian resampling and ADSR envelopes, the four
// capture buffers, the IIR/comb/allpass reverb network, and the final
// stereo mixdown consumed by a host audio sink.
package spu

import (
	"psx-core/internal/debug"
	"psx-core/internal/intc"
)

const (
	bufferSize = 32768
	fifoSize   = 32
	ramSize    = 0x80000 / 2 // in 16-bit words
	voiceCount = 24
)

var noiseWaveTable = [64]int{
	1, 0, 0, 1, 0, 1, 1, 0, 1, 0, 0, 1, 0, 1, 1, 0, 1, 0, 0, 1, 0, 1, 1, 0, 1, 0, 0, 1, 0, 1, 1, 0,
	0, 1, 1, 0, 1, 0, 0, 1, 0, 1, 1, 0, 1, 0, 0, 1, 0, 1, 1, 0, 1, 0, 0, 1, 0, 1, 1, 0, 1, 0, 0, 1,
}

var noiseFreqTable = [5]int{0, 84, 140, 180, 210}

type transferMode int

const (
	transferStop transferMode = iota
	transferManualWrite
	transferDMAWrite
	transferDMARead
)

func transferModeFrom(v uint16) transferMode { return transferMode(v & 0x3) }

type control struct {
	enable         bool
	mute           bool
	noiseClock     uint16
	reverbEnable   bool
	irq9Enable     bool
	transferMode   transferMode
	externalReverb bool
	cdReverb       bool
	externalEnable bool
	cdEnable       bool
}

func (c *control) read() uint16 {
	var v uint16
	if c.enable {
		v |= 1 << 15
	}
	if c.mute {
		v |= 1 << 14
	}
	v |= (c.noiseClock & 0x3f) << 8
	if c.reverbEnable {
		v |= 1 << 7
	}
	if c.irq9Enable {
		v |= 1 << 6
	}
	v |= uint16(c.transferMode) << 4
	if c.externalReverb {
		v |= 1 << 3
	}
	if c.cdReverb {
		v |= 1 << 2
	}
	if c.externalEnable {
		v |= 1 << 1
	}
	if c.cdEnable {
		v |= 1
	}
	return v
}

// write applies a CTRL register write and reports whether IRQ9 is
// disabled after it (in which case the pending IRQ status clears).
func (c *control) write(value uint16) (irq9Disabled bool) {
	c.enable = value&0x8000 != 0
	c.mute = value&0x4000 != 0
	c.noiseClock = (value & 0x3f00) >> 8
	c.reverbEnable = value&0x80 != 0
	c.irq9Enable = value&0x40 != 0
	c.transferMode = transferModeFrom((value & 0x30) >> 4)
	c.externalReverb = value&0x8 != 0
	c.cdReverb = value&0x4 != 0
	c.externalEnable = value&0x2 != 0
	c.cdEnable = value&0x1 != 0
	return !c.irq9Enable
}

type dataTransfer struct {
	address uint32
	current uint32

	fifo []uint16

	control uint16
}

// SpuRam is the SPU's dedicated 512 KiB sound RAM, addressed in 16-bit
// words, with an edge-triggered IRQ-address watchpoint.
type SpuRam struct {
	data [ramSize]uint16

	irqAddress uint32
	irqPending bool
}

// IRQ reads and clears the sticky IRQ-address-hit flag.
func (r *SpuRam) IRQ() bool {
	v := r.irqPending
	r.irqPending = false
	return v
}

// MemoryRead16 reads one sample word, latching the IRQ watchpoint if
// the address matches.
func (r *SpuRam) MemoryRead16(address uint32) uint16 {
	index := (address & 0x7fffe) / 2
	if (address & 0x7fffe) == r.irqAddress {
		r.irqPending = true
	}
	return r.data[index]
}

// MemoryWrite16 writes one sample word, latching the IRQ watchpoint if
// either byte of the word matches.
func (r *SpuRam) MemoryWrite16(address uint32, value uint16) {
	index := (address & 0x7fffe) / 2
	if (address & 0x7ffff) == r.irqAddress {
		r.irqPending = true
	}
	if ((address + 1) & 0x7ffff) == r.irqAddress {
		r.irqPending = true
	}
	r.data[index] = value
}

// Spu is the sound processing unit: 24 voices, reverb, the CD audio
// input stream, and the data-transfer FIFO feeding sound RAM from the
// CPU or DMA.
type Spu struct {
	outputBuffer []int16

	cdLeftBuffer, cdRightBuffer []int16

	captureIndex uint32

	soundRAM SpuRam

	voice [voiceCount]Voice

	mainVolume, reverbVolume Volume

	keyOn, keyOff, endx, echoOn uint32

	modulateOn uint32

	noiseOn    uint32
	noiseTimer int
	noiseLevel int16

	control control

	reverb Reverb

	dataTransfer dataTransfer

	irqStatus bool

	writingToCaptureBufferHalf bool
	dataTransferBusy           bool
	dataTransferDMARead        bool
	dataTransferDMAWrite       bool

	cdVolume, externVolume, currentVolume Volume

	logger *debug.Logger
}

// New returns a freshly reset SPU.
func New(logger *debug.Logger) *Spu {
	s := &Spu{logger: logger}
	s.noiseLevel = 1
	return s
}

// Reset performs a hard reset, clearing every voice, the reverb
// network, and sound RAM.
func (s *Spu) Reset() {
	logger := s.logger
	*s = Spu{logger: logger}
	s.noiseLevel = 1
}

func (s *Spu) updateKeyOn() {
	for i := 0; i < voiceCount; i++ {
		if s.keyOn&(1<<uint(i)) != 0 {
			s.voice[i].KeyOn()
		}
	}
	s.keyOn = 0
}

func (s *Spu) updateKeyOff() {
	for i := 0; i < voiceCount; i++ {
		if s.keyOff&(1<<uint(i)) != 0 {
			s.voice[i].KeyOff()
		}
	}
	s.keyOff = 0
}

func (s *Spu) updateEcho() {
	for i := 0; i < voiceCount; i++ {
		if s.echoOn&(1<<uint(i)) != 0 {
			s.voice[i].EchoOn()
		}
	}
}

func (s *Spu) updateEndx() {
	s.endx = 0
	for i := 0; i < voiceCount; i++ {
		if s.voice[i].EndX() {
			s.endx |= 1 << uint(i)
		}
	}
}

func (s *Spu) updateNoise() {
	for i := 0; i < voiceCount; i++ {
		s.voice[i].SetNoise(s.noiseOn&(1<<uint(i)) != 0)
	}

	noiseClock := int(s.control.noiseClock & 0x3)

	level := 0x8000 >> (s.control.noiseClock >> 2)
	levelI := int(level) << 16

	s.noiseTimer += 0x10000
	s.noiseTimer += noiseFreqTable[noiseClock]

	if s.noiseTimer&0xffff >= noiseFreqTable[4] {
		s.noiseTimer += 0x10000
		s.noiseTimer -= noiseFreqTable[noiseClock]
	}

	if s.noiseTimer >= levelI {
		s.noiseTimer %= levelI

		bit := int16(noiseWaveTable[(s.noiseLevel>>10)&0x3f])
		s.noiseLevel = (s.noiseLevel << 1) | bit
	}
}

// Tick runs one SPU sample period: voice mixing, reverb, capture
// buffers, and output-buffer accumulation. Call at the SPU's
// granularity from the timekeeper.
func (s *Spu) Tick(ic *intc.Intc) {
	var left, right float32
	var cdLeft, cdRight float32
	var reverbInLeft, reverbInRight float32

	if len(s.cdLeftBuffer) > 0 {
		cdLeft = i16ToF32(s.cdLeftBuffer[0])
		s.cdLeftBuffer = s.cdLeftBuffer[1:]
	}
	if len(s.cdRightBuffer) > 0 {
		cdRight = i16ToF32(s.cdRightBuffer[0])
		s.cdRightBuffer = s.cdRightBuffer[1:]
	}

	s.updateKeyOn()
	s.updateKeyOff()
	s.updateEndx()
	s.updateEcho()
	s.updateNoise()

	var modulator int16
	noiseLevel := i16ToF32(s.noiseLevel)

	var voice1Sample, voice3Sample float32

	for i := 0; i < voiceCount; i++ {
		v := &s.voice[i]
		modulate := i != 0 && s.modulateOn&(1<<uint(i)) != 0
		noise := s.noiseOn&(1<<uint(i)) != 0

		if v.Disabled() {
			v.Update(&s.soundRAM, modulate, modulator)
			modulator = v.Modulator
			continue
		}

		sampleLeft, sampleRight := v.GetSamples(noise, noiseLevel)

		left += sampleLeft
		right += sampleRight

		if i == 1 {
			voice1Sample = sampleLeft + sampleRight
		}
		if i == 3 {
			voice3Sample = sampleLeft + sampleRight
		}

		if v.ReverbEnabled() {
			reverbInLeft += sampleLeft
			reverbInRight += sampleRight
		}

		v.Update(&s.soundRAM, modulate, modulator)
		modulator = v.Modulator
	}

	left *= s.mainVolume.L()
	right *= s.mainVolume.R()

	if s.control.reverbEnable {
		left += s.reverb.OutputL() * s.reverbVolume.L()
		right += s.reverb.OutputR() * s.reverbVolume.R()
	}

	if s.control.cdEnable {
		left += cdLeft * s.cdVolume.L()
		right += cdRight * s.cdVolume.R()
	}

	if s.control.cdReverb {
		reverbInLeft += cdLeft * s.cdVolume.L()
		reverbInRight += cdRight * s.cdVolume.R()
	}

	left = clipF32(left, -1.0, 1.0)
	right = clipF32(right, -1.0, 1.0)
	reverbInLeft = clipF32(reverbInLeft, -1.0, 1.0)
	reverbInRight = clipF32(reverbInRight, -1.0, 1.0)

	if s.control.reverbEnable {
		s.reverb.Calculate(&s.soundRAM, [2]float32{reverbInLeft, reverbInRight})
	}

	s.soundRAM.MemoryWrite16(0x000+s.captureIndex, uint16(f32ToI16(cdLeft)))
	s.soundRAM.MemoryWrite16(0x400+s.captureIndex, uint16(f32ToI16(cdRight)))

	// Voice 1 and voice 3 pre-mix samples into their capture windows:
	// real hardware exposes these so a guest can sample a single
	// voice's output for custom mixing (common in XA-free music
	// engines); a zero-filled capture buffer breaks that use case.
	s.soundRAM.MemoryWrite16(0x800+s.captureIndex, uint16(f32ToI16(clipF32(voice1Sample, -1.0, 1.0))))
	s.soundRAM.MemoryWrite16(0xc00+s.captureIndex, uint16(f32ToI16(clipF32(voice3Sample, -1.0, 1.0))))

	s.captureIndex = (s.captureIndex + 2) & 0x3ff
	s.writingToCaptureBufferHalf = s.captureIndex >= 0x200

	if s.soundRAM.IRQ() && s.control.irq9Enable {
		ic.Assert(intc.SPU)
		s.irqStatus = true
	}

	s.outputBuffer = append(s.outputBuffer, f32ToI16(left), f32ToI16(right))
}

// DrainSamples removes and returns every interleaved stereo sample
// accumulated since the last call.
func (s *Spu) DrainSamples() []int16 {
	out := s.outputBuffer
	s.outputBuffer = nil
	return out
}

func (s *Spu) readStatus() uint16 {
	var value uint16
	ctl := s.control.read()

	if s.writingToCaptureBufferHalf {
		value |= 1 << 11
	}
	if s.dataTransferBusy {
		value |= 1 << 10
	}
	if s.dataTransferDMARead {
		value |= 1 << 9
	}
	if s.dataTransferDMAWrite {
		value |= 1 << 8
	}
	value |= (ctl & 0x20) << 2
	if s.irqStatus {
		value |= 1 << 6
	}
	value |= ctl & 0x3f
	return value
}

func (s *Spu) pushFIFO(value uint16) {
	if len(s.dataTransfer.fifo) < fifoSize {
		s.dataTransfer.fifo = append(s.dataTransfer.fifo, value)
	}
}

// registerRead16 reads one of the SPU's registers at full bus address addr
// (0x1F801C00-0x1F801FFF).
func (s *Spu) registerRead16(addr uint32) uint16 {
	switch {
	case addr >= 0x1f801c00 && addr <= 0x1f801d7f:
		voice, offset := VoiceIndexFromAddress(addr - 0x1f801c00)
		return s.voice[voice].Read16(offset)
	case addr == 0x1f801d80:
		return uint16(s.mainVolume.Left)
	case addr == 0x1f801d82:
		return uint16(s.mainVolume.Right)
	case addr == 0x1f801d84:
		return uint16(s.reverbVolume.Left)
	case addr == 0x1f801d86:
		return uint16(s.reverbVolume.Right)
	case addr == 0x1f801d88:
		return uint16(s.keyOn)
	case addr == 0x1f801d8a:
		return uint16(s.keyOn >> 16)
	case addr == 0x1f801d8c:
		return uint16(s.keyOff)
	case addr == 0x1f801d8e:
		return uint16(s.keyOff >> 16)
	case addr == 0x1f801d90:
		return uint16(s.modulateOn)
	case addr == 0x1f801d92:
		return uint16(s.modulateOn >> 16)
	case addr == 0x1f801d94:
		return uint16(s.noiseOn)
	case addr == 0x1f801d96:
		return uint16(s.noiseOn >> 16)
	case addr == 0x1f801d98:
		return uint16(s.echoOn)
	case addr == 0x1f801d9a:
		return uint16(s.echoOn >> 16)
	case addr == 0x1f801d9c:
		return uint16(s.endx)
	case addr == 0x1f801d9e:
		return uint16(s.endx >> 16)
	case addr == 0x1f801da2:
		return s.reverb.Base()
	case addr == 0x1f801da6:
		return uint16(s.dataTransfer.address / 8)
	case addr == 0x1f801da8:
		return 0
	case addr == 0x1f801daa:
		return s.control.read()
	case addr == 0x1f801dac:
		return s.dataTransfer.control
	case addr == 0x1f801dae:
		return s.readStatus()
	case addr == 0x1f801db0:
		return uint16(s.cdVolume.Left)
	case addr == 0x1f801db2:
		return uint16(s.cdVolume.Right)
	case addr == 0x1f801db4:
		return uint16(s.externVolume.Left)
	case addr == 0x1f801db6:
		return uint16(s.externVolume.Right)
	case addr == 0x1f801db8:
		return uint16(s.currentVolume.Left)
	case addr == 0x1f801dba:
		return uint16(s.currentVolume.Right)
	case addr >= 0x1f801dc0 && addr <= 0x1f801dff:
		return 0
	case addr >= 0x1f801e00 && addr <= 0x1f801fff:
		return 0xffff
	default:
		s.logger.Logf(debug.ComponentSPU, debug.LogLevelWarning, "read from unimplemented register %#x", addr)
		return 0
	}
}

func (s *Spu) registerRead32(addr uint32) uint32 {
	return uint32(s.registerRead16(addr+2))<<16 | uint32(s.registerRead16(addr))
}

// registerWrite16 writes one of the SPU's registers at full bus address addr.
func (s *Spu) registerWrite16(addr uint32, value uint16) {
	switch {
	case addr >= 0x1f801c00 && addr <= 0x1f801d7f:
		voice, offset := VoiceIndexFromAddress(addr - 0x1f801c00)
		s.voice[voice].Write16(offset, value)
	case addr == 0x1f801d80:
		s.mainVolume.Left = int16(value)
	case addr == 0x1f801d82:
		s.mainVolume.Right = int16(value)
	case addr == 0x1f801d84:
		s.reverbVolume.Left = int16(value)
	case addr == 0x1f801d86:
		s.reverbVolume.Right = int16(value)
	case addr == 0x1f801d88:
		s.keyOn = s.keyOn&0xffff0000 | uint32(value)
	case addr == 0x1f801d8a:
		s.keyOn = s.keyOn&0xffff | uint32(value)<<16
	case addr == 0x1f801d8c:
		s.keyOff = s.keyOff&0xffff0000 | uint32(value)
	case addr == 0x1f801d8e:
		s.keyOff = s.keyOff&0xffff | uint32(value)<<16
	case addr == 0x1f801d90:
		s.modulateOn = s.modulateOn&0xffff0000 | uint32(value)
	case addr == 0x1f801d92:
		s.modulateOn = s.modulateOn&0xffff | uint32(value)<<16
	case addr == 0x1f801d94:
		s.noiseOn = s.noiseOn&0xffff0000 | uint32(value)
	case addr == 0x1f801d96:
		s.noiseOn = s.noiseOn&0xffff | uint32(value)<<16
	case addr == 0x1f801d98:
		s.echoOn = s.echoOn&0xffff0000 | uint32(value)
	case addr == 0x1f801d9a:
		s.echoOn = s.echoOn&0xffff | uint32(value)<<16
	case addr == 0x1f801d9c, addr == 0x1f801d9e:
	case addr == 0x1f801da2:
		s.reverb.SetBase(value)
	case addr == 0x1f801da4:
		s.soundRAM.irqAddress = uint32(value) * 8
	case addr == 0x1f801da6:
		s.dataTransfer.address = uint32(value) * 8
		s.dataTransfer.current = uint32(value) * 8
	case addr == 0x1f801da8:
		s.pushFIFO(value)
	case addr == 0x1f801daa:
		if s.control.write(value) {
			s.irqStatus = false
		}
		if s.control.transferMode == transferManualWrite {
			for len(s.dataTransfer.fifo) > 0 {
				data := s.dataTransfer.fifo[0]
				s.dataTransfer.fifo = s.dataTransfer.fifo[1:]

				s.soundRAM.MemoryWrite16(s.dataTransfer.current, data)
				s.dataTransfer.current = (s.dataTransfer.current + 2) & 0x7ffff
			}
		}
	case addr == 0x1f801dac:
		s.dataTransfer.control = value
	case addr == 0x1f801dae:
	case addr == 0x1f801db0:
		s.cdVolume.Left = int16(value)
	case addr == 0x1f801db2:
		s.cdVolume.Right = int16(value)
	case addr == 0x1f801db4:
		s.externVolume.Left = int16(value)
	case addr == 0x1f801db6:
		s.externVolume.Right = int16(value)
	case addr == 0x1f801db8:
		s.currentVolume.Left = int16(value)
	case addr == 0x1f801dba:
		s.currentVolume.Right = int16(value)
	case addr >= 0x1f801dc0 && addr <= 0x1f801dff:
		s.reverb.Write16(addr, value)
	default:
		s.logger.Logf(debug.ComponentSPU, debug.LogLevelWarning, "write to unimplemented register %#x = %#x", addr, value)
	}
}

func (s *Spu) registerWrite32(addr uint32, value uint32) {
	s.registerWrite16(addr, uint16(value))
	s.registerWrite16(addr+2, uint16(value>>16))
}

// CDPush feeds one decoded stereo CDDA/XA-ADPCM sample pair into the
// CD audio input stream.
func (s *Spu) CDPush(left, right int16) {
	s.cdLeftBuffer = append(s.cdLeftBuffer, left)
	s.cdRightBuffer = append(s.cdRightBuffer, right)
}

// CDPushLeft feeds one mono XA-ADPCM sample into the left CD channel.
func (s *Spu) CDPushLeft(sample int16) { s.cdLeftBuffer = append(s.cdLeftBuffer, sample) }

// CDPushRight feeds one mono XA-ADPCM sample into the right CD channel.
func (s *Spu) CDPushRight(sample int16) { s.cdRightBuffer = append(s.cdRightBuffer, sample) }

// DMARead drains one word from sound RAM at the data-transfer cursor,
// satisfying dma.SPU.
func (s *Spu) DMARead() uint32 {
	address := s.dataTransfer.current
	lo := uint32(s.soundRAM.MemoryRead16(address))
	hi := uint32(s.soundRAM.MemoryRead16(address + 2))
	s.dataTransfer.current = (s.dataTransfer.current + 4) & 0x7ffff
	return hi<<16 | lo
}

// DMAWrite writes one word into sound RAM at the data-transfer cursor,
// satisfying dma.SPU.
func (s *Spu) DMAWrite(value uint32) {
	address := s.dataTransfer.current
	s.soundRAM.MemoryWrite16(address, uint16(value))
	s.soundRAM.MemoryWrite16(address+2, uint16(value>>16))
	s.dataTransfer.current = (s.dataTransfer.current + 4) & 0x7ffff
}
