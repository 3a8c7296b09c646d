// Package dma implements the 7-channel DMA controller bridging system
// RAM to the GPU, CD-ROM, SPU, and MDEC FIFOs, plus the OTC
// (ordering-table-clear) linked-list terminator generator.
package dma

import "psx-core/internal/intc"

type syncMode int

const (
	syncManual syncMode = iota
	syncRequest
	syncLinkedList
)

type step int

const (
	stepForward step = iota
	stepBackward
)

type direction int

const (
	dirToRAM direction = iota
	dirFromRAM
)

// Port identifies one of the 7 DMA channels by PSX convention.
type Port int

const (
	PortMDECIn Port = iota
	PortMDECOut
	PortGPU
	PortCDROM
	PortSPU
	PortPIO
	PortOTC
)

// RAM is the subset of the memory interconnect the DMA engine reads
// and writes directly (bypassing the CPU's address decoder, since DMA
// only ever targets system RAM).
type RAM interface {
	ReadRAMWord(addr uint32) uint32
	WriteRAMWord(addr uint32, value uint32)
}

// GPU is the DMA-visible slice of the GPU's GP0/GPUREAD ports.
type GPU interface {
	GP0Write(value uint32)
	GPURead() uint32
}

// CDROM is the DMA-visible slice of the CD-ROM controller's data FIFO.
type CDROM interface {
	DMARead() uint32
}

// SPU is the DMA-visible slice of the SPU's sound-RAM transfer port.
type SPU interface {
	DMARead() uint32
	DMAWrite(value uint32)
}

// MDEC is the DMA-visible slice of the MDEC command/data FIFOs.
type MDEC interface {
	DMARead() uint32
	DMAWrite(value uint32)
}

type channel struct {
	baseAddress uint32

	blockSize   uint16
	blockAmount uint16

	choppingEnabled bool

	trigger   bool
	enable    bool
	sync      syncMode
	step      step
	direction direction
}

func (c *channel) effectiveBaseAddress() uint32 { return c.baseAddress & 0xfffffc }

func (c *channel) effectiveBlockSize() uint32 {
	if c.blockSize == 0 {
		return 0x10000
	}
	return uint32(c.blockSize)
}

func (c *channel) active() bool {
	trigger := c.trigger
	if c.sync != syncManual {
		trigger = true
	}
	return c.enable && trigger
}

func (c *channel) finish() {
	c.trigger = false
	c.enable = false
}

func (c *channel) blockControlRead() uint32 {
	return uint32(c.blockAmount)<<16 | uint32(c.blockSize)
}

func (c *channel) blockControlWrite(value uint32) {
	c.blockSize = uint16(value)
	c.blockAmount = uint16(value >> 16)
}

func (c *channel) channelControlRead() uint32 {
	var v uint32
	if c.trigger {
		v |= 1 << 28
	}
	if c.enable {
		v |= 1 << 24
	}
	switch c.sync {
	case syncManual:
		v |= 0x000
	case syncRequest:
		v |= 0x200
	case syncLinkedList:
		v |= 0x400
	}
	if c.step == stepBackward {
		v |= 0x2
	}
	if c.direction == dirFromRAM {
		v |= 0x1
	}
	return v
}

func (c *channel) channelControlWrite(value uint32) {
	c.trigger = value&0x10000000 != 0
	c.enable = value&0x01000000 != 0
	switch (value & 0x600) >> 9 {
	case 0:
		c.sync = syncManual
	case 1:
		c.sync = syncRequest
	default:
		c.sync = syncLinkedList
	}
	c.choppingEnabled = value&0x100 != 0
	if value&0x2 != 0 {
		c.step = stepBackward
	} else {
		c.step = stepForward
	}
	if value&0x1 != 0 {
		c.direction = dirFromRAM
	} else {
		c.direction = dirToRAM
	}
}

// Dmac is the DMA controller: 7 channels, the global control/interrupt
// registers, and the devices each channel's active port can reach.
type Dmac struct {
	channels  [7]channel
	control   uint32
	interrupt uint32

	ram   RAM
	gpu   GPU
	cdrom CDROM
	spu   SPU
	mdec  MDEC
	intc  *intc.Intc
}

// New returns a Dmac wired to the devices its channels transfer
// to/from and the INTC it raises DMA completion interrupts into.
func New(ram RAM, gpu GPU, cdrom CDROM, spu SPU, mdec MDEC, ic *intc.Intc) *Dmac {
	d := &Dmac{ram: ram, gpu: gpu, cdrom: cdrom, spu: spu, mdec: mdec, intc: ic}
	d.Reset()
	return d
}

// Reset restores the power-on DPCR priority ladder and clears all
// channel/interrupt state.
func (d *Dmac) Reset() {
	d.channels = [7]channel{}
	d.control = 0x07654321
	d.interrupt = 0
}

func (d *Dmac) dmaEnabled(p Port) bool {
	return d.control&(1<<(uint(p)*4+3)) != 0
}

// run executes an armed channel's transfer to completion inline, per
// the spec's "DMA bursts run to completion" scheduling model.
func (d *Dmac) run(p Port) {
	ch := &d.channels[p]

	switch ch.sync {
	case syncManual:
		d.runBlock(p, ch, ch.effectiveBlockSize())
	case syncRequest:
		for ch.blockAmount > 0 {
			d.runBlock(p, ch, ch.effectiveBlockSize())
			ch.blockAmount--
			ch.baseAddress += ch.effectiveBlockSize() * 4
		}
	case syncLinkedList:
		d.runLinkedList(p, ch)
	}

	ch.finish()
	d.finishSetInterrupt(p)
}

func (d *Dmac) runBlock(p Port, ch *channel, words uint32) {
	addr := ch.effectiveBaseAddress() & 0x1ffffc

	for i := uint32(0); i < words; i++ {
		switch ch.direction {
		case dirToRAM:
			var value uint32
			switch p {
			case PortCDROM:
				value = d.cdrom.DMARead()
			case PortOTC:
				if i == words-1 {
					value = 0xffffff
				} else {
					value = (addr - 4) & 0x1ffffc
				}
			case PortMDECOut:
				value = d.mdec.DMARead()
			case PortGPU:
				value = d.gpu.GPURead()
			case PortSPU:
				value = d.spu.DMARead()
			}
			d.ram.WriteRAMWord(addr, value)
		case dirFromRAM:
			value := d.ram.ReadRAMWord(addr)
			switch p {
			case PortMDECIn:
				d.mdec.DMAWrite(value)
			case PortGPU:
				d.gpu.GP0Write(value)
			case PortSPU:
				d.spu.DMAWrite(value)
			}
		}

		if ch.step == stepForward {
			addr = (addr + 4) & 0x1ffffc
		} else {
			addr = (addr - 4) & 0x1ffffc
		}
	}

	if ch.sync == syncManual {
		ch.baseAddress = addr
	}
}

func (d *Dmac) runLinkedList(p Port, ch *channel) {
	if ch.direction != dirFromRAM || p != PortGPU {
		return
	}

	addr := ch.effectiveBaseAddress() & 0x1ffffc

	for {
		header := d.ram.ReadRAMWord(addr)
		payloadLen := header >> 24

		for i := uint32(0); i < payloadLen; i++ {
			addr = (addr + 4) & 0x1ffffc
			d.gpu.GP0Write(d.ram.ReadRAMWord(addr))
		}

		addr = header & 0x1ffffc
		ch.baseAddress = addr

		if header&0x800000 != 0 {
			break
		}
	}
}

func (d *Dmac) finishSetInterrupt(p Port) {
	bit := uint(p)
	mask := uint32(1) << (16 + bit)
	status := uint32(1) << (24 + bit)

	if d.interrupt&mask != 0 {
		d.interrupt |= status
	}
	d.updateMasterFlag()
}

func (d *Dmac) updateMasterFlag() {
	prevMaster := d.interrupt&0x80000000 != 0

	force := d.interrupt&(1<<15) != 0
	masterEnable := d.interrupt&(1<<23) != 0
	flag := (d.interrupt & 0x7f000000) >> 24
	enable := (d.interrupt & 0x007f0000) >> 16

	interruptEnable := flag&enable != 0

	d.interrupt &^= 0x80000000

	if force || (masterEnable && interruptEnable) {
		d.interrupt |= 0x80000000
		if !prevMaster {
			d.intc.Assert(intc.DMA)
		}
	}
}

func portFor(section uint32) Port {
	if section > 6 {
		return PortOTC
	}
	return Port(section)
}

// Read32 dispatches a word read at offset into the DMA register
// window (0x1F801080-0x1F8010FF relative).
func (d *Dmac) Read32(offset uint32) uint32 {
	section := (offset & 0x70) >> 4
	register := offset & 0xf

	if section == 7 {
		switch register {
		case 0:
			return d.control
		case 4:
			return d.interrupt
		case 6:
			return d.interrupt >> 16
		default:
			return 0
		}
	}

	ch := &d.channels[portFor(section)]
	switch register {
	case 0:
		return ch.baseAddress
	case 4:
		return ch.blockControlRead()
	case 8:
		v := ch.channelControlRead()
		if section == 6 {
			v |= 0x2
		}
		return v
	default:
		return 0
	}
}

// Write32 dispatches a word write at offset into the DMA register
// window. A channel that becomes active (enable & trigger/sync-implied)
// runs its transfer to completion before returning.
func (d *Dmac) Write32(offset uint32, value uint32) {
	section := (offset & 0x70) >> 4
	register := offset & 0xf

	if section == 7 {
		switch register {
		case 0:
			d.control = value
		case 4:
			d.interrupt &= 0xff000000
			d.interrupt &^= value & 0x7f000000
			d.interrupt |= value & 0xff803f
			d.updateMasterFlag()
		case 6:
			d.interrupt &= 0xff000000
			d.interrupt &^= (value << 16) & 0x7f000000
			d.interrupt |= (value << 16) & 0xff0000
			d.updateMasterFlag()
		}
		return
	}

	p := portFor(section)
	ch := &d.channels[p]
	switch register {
	case 0:
		ch.baseAddress = value & 0xfffffc
	case 4:
		ch.blockControlWrite(value)
	case 8:
		if section == 6 {
			ch.channelControlWrite((value & 0x51000000) | 0x2)
		} else {
			ch.channelControlWrite(value)
		}
	}

	if ch.active() && d.dmaEnabled(p) {
		d.run(p)
	}
}

func (d *Dmac) Read16(offset uint32) uint16   { return uint16(d.Read32(offset &^ 3)) }
func (d *Dmac) Write16(offset uint32, v uint16) {
	word := d.Read32(offset &^ 3)
	shift := (offset & 2) * 8
	word = (word &^ (0xffff << shift)) | uint32(v)<<shift
	d.Write32(offset&^3, word)
}
func (d *Dmac) Read8(offset uint32) uint8 {
	return uint8(d.Read32(offset &^ 3) >> ((offset & 3) * 8))
}
func (d *Dmac) Write8(offset uint32, v uint8) {
	word := d.Read32(offset &^ 3)
	shift := (offset & 3) * 8
	word = (word &^ (0xff << shift)) | uint32(v)<<shift
	d.Write32(offset&^3, word)
}
