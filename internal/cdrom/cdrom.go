// Package cdrom implements the CD-ROM controller: the byte-wide
// command/parameter/response FIFO state machine, the drive's
// seek/read/play timing, and XA-ADPCM decode into the SPU's CD input.
package cdrom

import (
	"fmt"

	"psx-core/internal/debug"
	"psx-core/internal/intc"
)

const (
	sectorsPerSecond = 75
	sectorsPerMinute = 60 * sectorsPerSecond
	bytesPerSector   = 2352
	leadInSectors    = 2 * sectorsPerSecond

	addressOffset = 12
	dataOffset    = 24
)

// SPU is the CD-ROM's view of the SPU: the CD audio input stream it
// pushes decoded samples (XA-ADPCM or raw CDDA) into.
type SPU interface {
	CDPush(left, right int16)
	CDPushLeft(sample int16)
	CDPushRight(sample int16)
}

type controllerPhase int

const (
	phaseIdle controllerPhase = iota
	phaseParameterTransfer
	phaseCommandTransfer
	phaseCommandExecute
	phaseResponseClear
	phaseResponseTransfer
	phaseInterruptTransfer
)

type driveMode int

const (
	driveIdle driveMode = iota
	driveGetStat
	driveSeek
	driveRead
	drivePlay
)

type secondResponseMode int

const (
	secondIdle secondResponseMode = iota
	secondGetID
	secondGetStat
)

type sectorMode int

const (
	sectorModeADPCM sectorMode = iota
	sectorModeData
	sectorModeIgnore
)

type index int

const (
	index0 index = iota
	index1
	index2
	index3
)

type header struct {
	minute, second, sector, mode byte
}

func headerFromSlice(b []byte) header {
	return header{
		minute: bcdToU8(b[0]),
		second: bcdToU8(b[1]),
		sector: bcdToU8(b[2]),
		mode:   b[3],
	}
}

type subheaderMode int

const (
	subheaderVideo subheaderMode = iota
	subheaderAudio
	subheaderData
	subheaderInvalid
)

type subheader struct {
	file, channel, submode, codinginfo byte
}

func subheaderFromSlice(b []byte) subheader {
	return subheader{file: b[0], channel: b[1] & 0x1f, submode: b[2], codinginfo: b[3]}
}

func (s subheader) mode() subheaderMode {
	switch s.submode & 0xe {
	case 0x2:
		return subheaderVideo
	case 0x4:
		return subheaderAudio
	case 0x0, 0x8:
		return subheaderData
	default:
		return subheaderInvalid
	}
}

func (s subheader) realtime() bool { return s.submode&0x40 != 0 }

func (s subheader) channels() int {
	switch s.codinginfo & 0x3 {
	case 0:
		return 1
	default:
		return 2
	}
}

func (s subheader) samplingRate() int {
	switch s.codinginfo & 0xc {
	case 0x0:
		return 37800
	case 0x4:
		return 18900
	default:
		return 0
	}
}

func (s subheader) bitDepth() int {
	switch s.codinginfo & 0x30 {
	case 0x0:
		return 4
	case 0x10:
		return 8
	default:
		return 0
	}
}

type subchannelQ struct {
	track, idx                byte
	mm, ss, ff                byte
	amm, ass, aff             byte
}

// byteQueue is a small FIFO, mirroring the original's Queue<u8> with
// push/pop/clear/has_data semantics. hasSpace reports fewer than 16
// entries; push itself does not enforce that limit.
type byteQueue struct {
	buf []byte
}

func (q *byteQueue) push(v byte)   { q.buf = append(q.buf, v) }
func (q *byteQueue) hasData() bool { return len(q.buf) > 0 }
func (q *byteQueue) isEmpty() bool { return len(q.buf) == 0 }
func (q *byteQueue) hasSpace() bool { return len(q.buf) < 16 }
func (q *byteQueue) clear()        { q.buf = q.buf[:0] }
func (q *byteQueue) pop() byte {
	if len(q.buf) == 0 {
		return 0
	}
	v := q.buf[0]
	q.buf = q.buf[1:]
	return v
}

// Cdrom is the CD-ROM controller + drive state machine.
type Cdrom struct {
	disc Container

	idx index

	interruptEnable uint8
	interruptFlags  uint8

	command     uint8
	hasCommand  bool

	playing, seeking, reading bool

	parameterBuffer byteQueue
	responseBuffer  byteQueue
	dataBuffer      [0x930]byte
	dataBufferPtr   int

	wantData bool
	dataBusy bool

	seekUnprocessed              bool
	seekMinute, seekSecond, seekSector byte

	filterFile, filterChannel byte

	sectorHeader    header
	sectorSubheader subheader
	sector          [0x930]byte

	adpcmBuffers      [2][]int16
	adpcmPrevSamples  [2][2]int16

	modeDoubleSpeed bool
	modeADPCM       bool
	modeSectorSize  bool
	modeFilter      bool
	modeReport      bool

	controllerCounter int64
	controllerPhase   controllerPhase

	controllerInterruptFlags uint8
	controllerCommand        uint8

	controllerParameterBuffer byteQueue
	controllerResponseBuffer  byteQueue

	driveCounter   int64
	driveMode      driveMode
	nextDriveMode  driveMode

	driveInterruptPending bool
	drivePendingStat      uint8

	secondResponseCounter int64
	secondResponseMode    secondResponseMode

	driveSeekMinute, driveSeekSecond, driveSeekSector byte

	lastSubQ subchannelQ

	sixstep int
	ringbuf [2][0x20]int16

	logger *debug.Logger
}

// New returns a CD-ROM controller reading sectors from disc.
func New(disc Container, logger *debug.Logger) *Cdrom {
	return &Cdrom{disc: disc, logger: logger}
}

// Reset clears transient controller/drive state; the loaded disc stays
// inserted.
func (c *Cdrom) Reset() {
	logger := c.logger
	disc := c.disc
	*c = Cdrom{disc: disc, logger: logger}
}

// Tick advances the controller, drive and second-response state
// machines by cycles SPU-granularity ticks, asserting the CD-ROM
// interrupt when any enabled flag is latched.
func (c *Cdrom) Tick(ic *intc.Intc, spu SPU, cycles uint64) {
	c.tickSecondResponse(cycles)
	c.tickDrive(spu, cycles)
	c.tickController(cycles)

	if c.interruptEnable&c.interruptFlags&0x1f != 0 {
		ic.Assert(intc.CDROM)
	}
}

func (c *Cdrom) tickController(cycles uint64) {
	c.controllerCounter -= int64(cycles)
	if c.controllerCounter > 0 {
		return
	}

	switch c.controllerPhase {
	case phaseIdle:
		if c.hasCommand {
			if c.parameterBuffer.hasData() {
				c.controllerPhase = phaseParameterTransfer
			} else {
				c.controllerPhase = phaseCommandTransfer
			}
		}
		c.controllerCounter += int64(cycles)

	case phaseParameterTransfer:
		if c.parameterBuffer.hasData() {
			c.controllerParameterBuffer.push(c.parameterBuffer.pop())
		} else {
			c.controllerPhase = phaseCommandTransfer
		}
		c.controllerCounter += 10

	case phaseCommandTransfer:
		c.controllerCommand = c.command
		c.hasCommand = false
		c.controllerPhase = phaseCommandExecute
		c.controllerCounter += 10

	case phaseCommandExecute:
		c.controllerCounter += 10
		c.controllerResponseBuffer.clear()
		c.executeCommand(c.controllerCommand)
		c.controllerParameterBuffer.clear()
		c.controllerPhase = phaseResponseClear

	case phaseResponseClear:
		if c.responseBuffer.hasData() {
			c.responseBuffer.pop()
		} else {
			c.controllerPhase = phaseResponseTransfer
		}
		c.controllerCounter += 10

	case phaseResponseTransfer:
		if c.controllerResponseBuffer.hasData() {
			c.responseBuffer.push(c.controllerResponseBuffer.pop())
		} else {
			c.controllerPhase = phaseInterruptTransfer
		}
		c.controllerCounter += 10

	case phaseInterruptTransfer:
		if c.interruptFlags == 0 {
			c.interruptFlags = c.controllerInterruptFlags
			c.controllerPhase = phaseIdle
			c.controllerCounter += 10
		} else {
			c.controllerCounter++
		}
	}
}

func (c *Cdrom) tickSecondResponse(cycles uint64) {
	c.secondResponseCounter -= int64(cycles)
	if c.secondResponseCounter > 0 {
		return
	}

	switch c.secondResponseMode {
	case secondIdle:
		c.secondResponseCounter += int64(cycles)

	case secondGetID:
		if c.interruptFlags == 0 {
			c.controllerResponseBuffer.push(0x02)
			c.controllerResponseBuffer.push(0x00)
			c.controllerResponseBuffer.push(0x20)
			c.controllerResponseBuffer.push(0x00)
			c.controllerResponseBuffer.push('S')
			c.controllerResponseBuffer.push('C')
			c.controllerResponseBuffer.push('E')
			c.controllerResponseBuffer.push('A')

			c.controllerInterruptFlags = 0x2
			c.controllerPhase = phaseResponseClear
			c.controllerCounter += 10
			c.secondResponseMode = secondIdle
		}
		c.secondResponseCounter++

	case secondGetStat:
		if c.interruptFlags == 0 {
			c.pushStat()
			c.controllerInterruptFlags = 0x2
			c.controllerPhase = phaseResponseClear
			c.controllerCounter += 10
			c.secondResponseMode = secondIdle
		}
		c.secondResponseCounter++
	}
}

func (c *Cdrom) speedDivisor() int64 {
	if c.modeDoubleSpeed {
		return 150
	}
	return 75
}

func (c *Cdrom) tickDrive(spu SPU, cycles uint64) {
	c.driveCounter -= int64(cycles)
	if c.driveCounter > 0 {
		return
	}

	switch c.driveMode {
	case driveIdle:
		c.driveCounter += int64(cycles)

	case driveGetStat:
		if c.interruptFlags == 0 {
			c.pushStat()
			c.controllerInterruptFlags = 0x2
			c.controllerPhase = phaseResponseClear
			c.controllerCounter += 10
			c.driveMode = driveIdle
		}
		c.driveCounter++

	case driveSeek:
		c.seekUnprocessed = false

		c.driveSeekMinute = c.seekMinute
		c.driveSeekSecond = c.seekSecond
		c.driveSeekSector = c.seekSector

		c.lastSubQ = subchannelQ{
			track: 1, idx: 1,
			mm: c.seekMinute, ss: c.seekSecond - 2, ff: c.seekSector,
			amm: c.seekMinute, ass: c.seekSecond, aff: c.seekSector,
		}

		c.reading, c.seeking, c.playing = false, false, false

		switch c.nextDriveMode {
		case driveRead:
			c.reading = true
			c.driveCounter += 44100 / c.speedDivisor()
		case drivePlay:
			c.playing = true
			c.driveCounter += 44100 / c.speedDivisor()
		default:
			c.driveCounter += 10
		}

		c.driveMode = c.nextDriveMode

	case drivePlay:
		if !c.playing {
			c.driveMode = driveIdle
			c.driveCounter++
			return
		}

		var data [0x930]byte
		if err := c.readSector(c.seekLocationLBA(), data[:]); err != nil {
			c.logger.Logf(debug.ComponentCDROM, debug.LogLevelWarning, "play read: %v", err)
		}

		for i := 0; i < 0x24c; i++ {
			left := int16(uint16(data[i*4]) | uint16(data[i*4+1])<<8)
			right := int16(uint16(data[i*4+2]) | uint16(data[i*4+3])<<8)
			spu.CDPush(left, right)
		}

		if c.modeReport {
			c.reportPlayPosition()
		}

		c.advanceDriveSeekPosition()
		c.driveCounter += 44100 / c.speedDivisor()

	case driveRead:
		if !c.reading {
			c.driveMode = driveIdle
			c.driveCounter++
			return
		}
		c.tickReadSector(spu)
		c.driveCounter += 44100 / c.speedDivisor()
	}
}

func (c *Cdrom) reportPlayPosition() {
	amm := u8ToBCD(c.driveSeekMinute)
	ass := u8ToBCD(c.driveSeekSecond)
	aff := u8ToBCD(c.driveSeekSector)

	switch aff {
	case 0x00, 0x20, 0x40, 0x60:
		c.pushStat()
		c.controllerResponseBuffer.push(1)
		c.controllerResponseBuffer.push(1)
		c.controllerResponseBuffer.push(amm)
		c.controllerResponseBuffer.push(ass)
		c.controllerResponseBuffer.push(aff)
		c.controllerResponseBuffer.push(0)
		c.controllerResponseBuffer.push(0)
		c.controllerInterruptFlags = 0x1
		c.controllerPhase = phaseResponseClear
		c.controllerCounter += 10
	case 0x10, 0x30, 0x50, 0x70:
		c.pushStat()
		c.controllerResponseBuffer.push(1)
		c.controllerResponseBuffer.push(1)
		c.controllerResponseBuffer.push(amm)
		c.controllerResponseBuffer.push(ass + 0x80)
		c.controllerResponseBuffer.push(aff)
		c.controllerResponseBuffer.push(0)
		c.controllerResponseBuffer.push(0)
		c.controllerInterruptFlags = 0x1
		c.controllerPhase = phaseResponseClear
		c.controllerCounter += 10
	}
}

func (c *Cdrom) advanceDriveSeekPosition() {
	c.driveSeekSector++
	if c.driveSeekSector >= 75 {
		c.driveSeekSector = 0
		c.driveSeekSecond++
	}
	if c.driveSeekSecond >= 60 {
		c.driveSeekSecond = 0
		c.driveSeekMinute++
	}
}

func (c *Cdrom) tickReadSector(spu SPU) {
	c.pushStat()
	c.dataBusy = true

	lba := c.seekLocationLBA()

	var info [0x18]byte
	if err := c.readSector(lba, info[:]); err != nil {
		c.logger.Logf(debug.ComponentCDROM, debug.LogLevelWarning, "read: %v", err)
	}

	hdr := headerFromSlice(info[0xc:])
	sub := subheaderFromSlice(info[0x10:])

	c.sectorHeader = hdr
	c.sectorSubheader = sub

	c.lastSubQ = subchannelQ{
		track: 1, idx: 1,
		mm: hdr.minute, ss: hdr.second - 2, ff: hdr.sector,
		amm: hdr.minute, ass: hdr.second, aff: hdr.sector,
	}

	mode := sectorModeADPCM
	if !c.modeADPCM || sub.mode() != subheaderAudio || !sub.realtime() {
		mode = sectorModeData
	}
	if mode == sectorModeADPCM && c.modeFilter && (c.filterFile != sub.file || c.filterChannel != sub.channel) {
		mode = sectorModeIgnore
	}

	if hdr.minute != c.driveSeekMinute || hdr.second != c.driveSeekSecond || hdr.sector != c.driveSeekSector {
		c.logger.Logf(debug.ComponentCDROM, debug.LogLevelWarning, "sector header mismatch: expected %d:%d:%d found %d:%d:%d",
			c.driveSeekMinute, c.driveSeekSecond, c.driveSeekSector, hdr.minute, hdr.second, hdr.sector)
	}

	c.advanceDriveSeekPosition()

	switch mode {
	case sectorModeADPCM:
		c.decodeADPCMSector(lba, sub, spu)
	case sectorModeData:
		var full [2352]byte
		if err := c.disc.Read(lba, &full); err != nil {
			c.logger.Logf(debug.ComponentCDROM, debug.LogLevelWarning, "data read: %v", err)
		}
		copy(c.sector[:], full[:])

		if c.driveInterruptPending {
			c.logger.Log(debug.ComponentCDROM, debug.LogLevelWarning, "drive interrupt already pending", nil)
		}
		if c.interruptFlags == 0 {
			c.interruptFlags = 0x1
			c.responseBuffer.push(c.stat())
		} else {
			c.driveInterruptPending = true
			c.drivePendingStat = c.stat()
		}
	case sectorModeIgnore:
	}
}

func (c *Cdrom) decodeADPCMSector(lba uint32, sub subheader, spu SPU) {
	if sub.bitDepth() != 4 {
		panic("cdrom: unsupported ADPCM bit depth")
	}

	channels := sub.channels()
	samplingRate := sub.samplingRate()

	var sector [SectorSize]byte
	if err := c.disc.Read(lba, &sector); err != nil {
		c.logger.Logf(debug.ComponentCDROM, debug.LogLevelWarning, "adpcm read: %v", err)
	}
	var data [0x914]byte
	copy(data[:], sector[0x18:])

	for i := 0; i < 0x12; i++ {
		c.decodeADPCMBlocks(data[i*0x80:], channels)
	}

	times := 1
	if samplingRate == 18900 {
		times = 2
	}

	for ch := 0; ch < channels; ch++ {
		for t := 0; t < times; t++ {
			for i := range c.adpcmBuffers[ch] {
				c.ringbuf[ch][i&0x1f] = c.adpcmBuffers[ch][i]
				c.sixstep++

				if c.sixstep == 6 {
					c.sixstep = 0
					for j := 0; j < 7; j++ {
						sample := c.zigzagInterpolate(i+1, c.ringbuf[ch], adpcmZigzagTable[j])
						switch {
						case channels == 1:
							spu.CDPush(sample, sample)
						case ch == 0:
							spu.CDPushLeft(sample)
						default:
							spu.CDPushRight(sample)
						}
					}
				}
			}
		}
	}

	c.adpcmBuffers[0] = c.adpcmBuffers[0][:0]
	c.adpcmBuffers[1] = c.adpcmBuffers[1][:0]
}

// seekLocationLBA converts the drive's current MM:SS:FF position to a
// container LBA, discounting the two-second lead-in.
func (c *Cdrom) seekLocationLBA() uint32 {
	sector := uint64(c.driveSeekMinute)*sectorsPerMinute + uint64(c.driveSeekSecond)*sectorsPerSecond + uint64(c.driveSeekSector)
	if sector >= leadInSectors {
		sector -= leadInSectors
	}
	return uint32(sector)
}

func (c *Cdrom) readSector(lba uint32, dst []byte) error {
	var buf [SectorSize]byte
	err := c.disc.Read(lba, &buf)
	copy(dst, buf[:])
	return err
}

func (c *Cdrom) zigzagInterpolate(index int, buffer [0x20]int16, table [29]int32) int16 {
	var sum int32
	for i := 1; i < 30; i++ {
		sum += int32(buffer[(index-i)&0x1f]) * table[i-1] / 0x8000
	}
	return int16(clip(sum, -0x8000, 0x7fff))
}

func (c *Cdrom) decodeADPCMBlocks(data []byte, channels int) {
	for i := 0; i < 8; i++ {
		ch := 0
		if channels == 2 {
			ch = i & 0x1
		}
		c.decodeADPCMBlock(data, ch, i)
	}
}

func (c *Cdrom) decodeADPCMBlock(src []byte, channel, block int) {
	hdr := src[0x4+block]

	filter := int((hdr & 0x30) >> 4)
	shift := hdr & 0xf
	if shift > 12 {
		shift = 9
	}

	for i := 0; i < 28; i++ {
		raw := uint16(src[0x10+(i*4)+(block/2)])
		if block&0x1 != 0 {
			raw >>= 4
		}
		raw &= 0xf

		sample := int32(int16(raw << 12))
		sample >>= shift

		quant := int32(32)
		quant += int32(c.adpcmPrevSamples[channel][0]) * int32(adpcmFilters[filter][0])
		quant -= int32(c.adpcmPrevSamples[channel][1]) * int32(adpcmFilters[filter][1])

		sample = clip(sample+quant/64, -0x8000, 0x7fff)

		c.adpcmBuffers[channel] = append(c.adpcmBuffers[channel], int16(sample))
		c.adpcmPrevSamples[channel][1] = c.adpcmPrevSamples[channel][0]
		c.adpcmPrevSamples[channel][0] = int16(sample)
	}
}

func clip(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func bcdToU8(v byte) byte { return (v>>4)*10 + (v & 0xf) }
func u8ToBCD(v byte) byte { return ((v / 10) << 4) | (v % 10) }

func (c *Cdrom) executeCommand(command uint8) {
	if command >= 0x20 {
		panic(fmt.Sprintf("cdrom: invalid command %#x", command))
	}

	interrupt := uint8(0x3)

	switch command {
	case 0x01: // GetStat
		c.pushStat()
	case 0x02: // Setloc
		c.pushStat()
		mm := c.controllerParameterBuffer.pop()
		ss := c.controllerParameterBuffer.pop()
		ff := c.controllerParameterBuffer.pop()
		c.seekUnprocessed = true
		c.seekMinute, c.seekSecond, c.seekSector = bcdToU8(mm), bcdToU8(ss), bcdToU8(ff)
	case 0x03: // Play
		c.controllerParameterBuffer.pop()
		if c.seekUnprocessed {
			c.seeking = true
			c.driveMode = driveSeek
			c.nextDriveMode = drivePlay
			c.driveCounter += map[bool]int64{false: 28, true: 14}[c.modeDoubleSpeed]
		} else {
			c.playing = true
			c.driveMode = drivePlay
			c.driveCounter += 44100 / c.speedDivisor()
		}
		c.pushStat()
	case 0x06: // ReadN
		if c.seekUnprocessed {
			c.seeking = true
			c.driveMode = driveSeek
			c.nextDriveMode = driveRead
			c.driveCounter += map[bool]int64{false: 280, true: 140}[c.modeDoubleSpeed]
		} else {
			c.reading = true
			c.driveMode = driveRead
			c.driveCounter += 44100 / c.speedDivisor()
		}
		c.pushStat()
	case 0x07: // Standby
		c.pushStat()
		c.controllerResponseBuffer.push(0x20)
		interrupt = 0x5
	case 0x09: // Pause
		c.pushStat()
		if !c.playing && !c.reading && !c.seeking {
			c.secondResponseCounter += 10
		} else {
			c.secondResponseCounter += map[bool]int64{false: 2800, true: 1400}[c.modeDoubleSpeed]
		}
		c.playing, c.reading, c.seeking = false, false, false
		c.secondResponseMode = secondGetStat
	case 0x0a: // Init
		c.pushStat()
		c.modeDoubleSpeed, c.modeSectorSize = false, false
		c.reading, c.playing, c.seeking = false, false, false
		c.secondResponseMode = secondGetStat
		c.secondResponseCounter += 10
	case 0x0b: // Mute
		c.pushStat()
	case 0x0c: // Demute
		c.pushStat()
	case 0x0d: // Setfilter
		file := c.controllerParameterBuffer.pop()
		channel := c.controllerParameterBuffer.pop()
		c.filterFile, c.filterChannel = file, channel&0x1f
		c.pushStat()
	case 0x0e: // Setmode
		c.pushStat()
		mode := c.controllerParameterBuffer.pop()
		c.modeDoubleSpeed = mode&0x80 != 0
		c.modeADPCM = mode&0x40 != 0
		c.modeSectorSize = mode&0x20 != 0
		c.modeFilter = mode&0x8 != 0
		c.modeReport = mode&0x4 != 0
	case 0x10: // GetlocL
		h := c.sectorHeader
		s := c.sectorSubheader
		c.controllerResponseBuffer.push(u8ToBCD(h.minute))
		c.controllerResponseBuffer.push(u8ToBCD(h.second))
		c.controllerResponseBuffer.push(u8ToBCD(h.sector))
		c.controllerResponseBuffer.push(h.mode)
		c.controllerResponseBuffer.push(s.file)
		c.controllerResponseBuffer.push(s.channel)
		c.controllerResponseBuffer.push(s.submode)
		c.controllerResponseBuffer.push(s.codinginfo)
	case 0x11: // GetlocP
		q := c.lastSubQ
		c.controllerResponseBuffer.push(q.track)
		c.controllerResponseBuffer.push(q.idx)
		c.controllerResponseBuffer.push(u8ToBCD(q.mm))
		c.controllerResponseBuffer.push(u8ToBCD(q.ss))
		c.controllerResponseBuffer.push(u8ToBCD(q.ff))
		c.controllerResponseBuffer.push(u8ToBCD(q.amm))
		c.controllerResponseBuffer.push(u8ToBCD(q.ass))
		c.controllerResponseBuffer.push(u8ToBCD(q.aff))
	case 0x13: // GetTN
		c.pushStat()
		c.controllerResponseBuffer.push(1)
		c.controllerResponseBuffer.push(1)
	case 0x14: // GetTD
		c.pushStat()
		c.controllerResponseBuffer.push(0)
		c.controllerResponseBuffer.push(0)
	case 0x15, 0x16: // SeekL, SeekP
		c.seeking = true
		c.pushStat()
		c.dataBusy = false
		c.driveMode = driveSeek
		c.nextDriveMode = driveGetStat
		c.driveCounter += map[bool]int64{false: 28, true: 14}[c.modeDoubleSpeed]
	case 0x19: // Test
		c.executeTestCommand()
	case 0x1a: // GetID
		c.pushStat()
		c.secondResponseMode = secondGetID
		c.secondResponseCounter += 50
	case 0x1b: // ReadS
		if c.seekUnprocessed {
			c.seeking = true
			c.driveMode = driveSeek
			c.nextDriveMode = driveRead
			c.driveCounter += map[bool]int64{false: 28, true: 14}[c.modeDoubleSpeed]
		} else {
			c.reading = true
			c.driveMode = driveRead
			c.driveCounter += 44100 / c.speedDivisor()
		}
		c.pushStat()
	case 0x1e: // GetTOC
		c.pushStat()
		c.secondResponseMode = secondGetStat
		c.secondResponseCounter += 44100
	default:
		panic(fmt.Sprintf("cdrom: unknown command %#x", command))
	}

	c.controllerInterruptFlags = interrupt
}

func (c *Cdrom) executeTestCommand() {
	sub := c.controllerParameterBuffer.pop()
	switch sub {
	case 0x20:
		c.controllerResponseBuffer.push(0x97)
		c.controllerResponseBuffer.push(0x01)
		c.controllerResponseBuffer.push(0x10)
		c.controllerResponseBuffer.push(0xc2)
	default:
		panic(fmt.Sprintf("cdrom: unknown test subcommand %#x", sub))
	}
}

func (c *Cdrom) stat() uint8 {
	var s uint8
	if c.playing {
		s |= 1 << 7
	}
	if c.seeking {
		s |= 1 << 6
	}
	if c.reading {
		s |= 1 << 5
	}
	s |= 0x2
	return s
}

func (c *Cdrom) pushStat() { c.controllerResponseBuffer.push(c.stat()) }

func (c *Cdrom) busy() bool { return c.controllerPhase != phaseIdle }

func (c *Cdrom) dataBufferEmpty() bool {
	max := 0x800
	if c.modeSectorSize {
		max = 0x924
	}
	return c.dataBufferPtr >= max
}

// Read reads the byte-wide register at CD-ROM address-space offset
// addr (0x1F801800 + addr&3).
func (c *Cdrom) Read(addr uint32) uint8 {
	switch addr & 0x3 {
	case 0:
		var v uint8
		if c.busy() {
			v |= 1 << 7
		}
		if !c.dataBufferEmpty() {
			v |= 1 << 6
		}
		if c.responseBuffer.hasData() {
			v |= 1 << 5
		}
		if c.parameterBuffer.hasSpace() {
			v |= 1 << 4
		}
		if c.parameterBuffer.isEmpty() {
			v |= 1 << 3
		}
		v |= uint8(c.idx)
		return v
	case 1:
		return c.responseBuffer.pop()
	case 2:
		return c.readData()
	case 3:
		switch c.idx {
		case index0:
			return 0xe0 | c.interruptEnable
		case index1:
			return 0xe0 | c.interruptFlags
		default:
			c.logger.Logf(debug.ComponentCDROM, debug.LogLevelWarning, "read reg3 index %d", c.idx)
			return 0
		}
	default:
		return 0
	}
}

func (c *Cdrom) readData() uint8 {
	offset := dataOffset
	if c.modeSectorSize {
		offset = addressOffset
	}

	if c.dataBufferEmpty() {
		c.logger.Log(debug.ComponentCDROM, debug.LogLevelWarning, "reading from empty data buffer", nil)
		idx := 0x810
		if c.modeSectorSize {
			idx = 0x92c
		}
		data := c.dataBuffer[idx]
		c.dataBufferPtr++
		return data
	}

	data := c.dataBuffer[c.dataBufferPtr+offset]
	c.dataBufferPtr++
	return data
}

// DMARead drains 4 bytes from the data buffer as a little-endian word,
// satisfying dma.CDROM.
func (c *Cdrom) DMARead() uint32 {
	b0 := uint32(c.readData())
	b1 := uint32(c.readData())
	b2 := uint32(c.readData())
	b3 := uint32(c.readData())
	return b3<<24 | b2<<16 | b1<<8 | b0
}

// Write writes the byte-wide register at CD-ROM address-space offset addr.
func (c *Cdrom) Write(addr uint32, value uint8) {
	switch addr & 0x3 {
	case 0:
		c.idx = index(value & 0x3)
	case 1:
		switch c.idx {
		case index0:
			c.command = value
			c.hasCommand = true
		case index3:
		default:
			c.logger.Logf(debug.ComponentCDROM, debug.LogLevelWarning, "write reg1 index %d", c.idx)
		}
	case 2:
		switch c.idx {
		case index0:
			c.parameterBuffer.push(value)
		case index1:
			c.interruptEnable = value & 0x1f
		case index2, index3:
		}
	case 3:
		switch c.idx {
		case index0:
			c.wantData = value&0x80 != 0
			if !c.wantData {
				c.dataBufferPtr = 0x930
			} else if c.dataBufferEmpty() {
				c.dataBufferPtr = 0
				c.dataBuffer = c.sector
			}
		case index1:
			c.interruptFlags &^= value & 0x1f
			if c.interruptFlags == 0 && c.driveInterruptPending {
				c.interruptFlags = 0x1
				c.driveInterruptPending = false
				c.responseBuffer.push(c.drivePendingStat)
			}
			c.responseBuffer.clear()
			if value&0x40 != 0 {
				c.parameterBuffer.clear()
			}
		case index2, index3:
		}
	}
}
