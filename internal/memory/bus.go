// Package memory implements the PlayStation address decoder and
// interconnect: KUSEG/KSEG0/KSEG1/KSEG2 virtual-to-physical
// translation and the physical range dispatch table routing RAM,
// BIOS, scratchpad, and device I/O ports.
package memory

import (
	"fmt"

	"psx-core/internal/debug"
)

// IOPort is a small, consumer-defined interface implemented by each
// device that owns a slice of the I/O address space. Using one
// interface per device (rather than importing every device package
// here) keeps memory free of import cycles with cpu/gpu/spu/etc.
type IOPort interface {
	Read32(offset uint32) uint32
	Write32(offset uint32, value uint32)
	Read16(offset uint32) uint16
	Write16(offset uint32, value uint16)
	Read8(offset uint32) uint8
	Write8(offset uint32, value uint8)
}

const (
	ramSize        = 2 * 1024 * 1024
	biosSize       = 512 * 1024
	scratchpadSize = 1024
)

// region masks collapsing KUSEG/KSEG0/KSEG1 to the same physical space;
// KSEG2 is passed through untranslated (only the cache-control
// register lives there).
var regionMask = [8]uint32{
	0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff, // KUSEG
	0x7fffffff, // KSEG0
	0x1fffffff, // KSEG1
	0xffffffff, 0xffffffff, // KSEG2
}

func translate(addr uint32) uint32 {
	return addr & regionMask[addr>>29]
}

// Bus is the system interconnect. It owns RAM, BIOS, and the
// scratchpad directly, and routes everything else to the device that
// registered an IOPort for that range.
type Bus struct {
	RAM        [ramSize]byte
	BIOS       [biosSize]byte
	Scratchpad [scratchpadSize]byte

	SIO0     IOPort
	INTC     IOPort
	DMA      IOPort
	Timers   IOPort
	CDROM    IOPort
	GPU      IOPort
	MDEC     IOPort
	SPU      IOPort
	TextSink func(b byte) // Expansion-2 DUART THRA text sink

	memctrl      [9]uint32
	cacheControl uint32

	logger *debug.Logger
}

// memControlReset holds the power-on MEMCTRL register values. The
// whole range is otherwise functionally ignored (writes never affect
// bus timing here); register index 4 (offset 0x10) is the one
// software-observable reset value: the Expansion-1 base address.
var memControlReset = [9]uint32{
	0x0013243f, 0x1f802000, 0x0013243f, 0x00003022,
	0x1f000000, 0x200931e1, 0x00020843, 0x00070777,
	0x00031125,
}

// New returns an interconnect with no BIOS loaded and no devices wired.
func New() *Bus {
	b := &Bus{}
	b.memctrl = memControlReset
	return b
}

// SetLogger attaches the shared logger.
func (b *Bus) SetLogger(l *debug.Logger) {
	b.logger = l
}

// LoadBIOS copies a 512 KiB BIOS image into place. It is an error for
// data to be any other size.
func (b *Bus) LoadBIOS(data []byte) error {
	if len(data) != biosSize {
		return fmt.Errorf("memory: BIOS image must be exactly %d bytes, got %d", biosSize, len(data))
	}
	copy(b.BIOS[:], data)
	return nil
}

// Fault describes a host-fatal memory access: a store to BIOS, or any
// other access the spec's error taxonomy treats as unrecoverable.
type Fault struct {
	Addr uint32
	Msg  string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("memory: fatal fault at %#08x: %s", f.Addr, f.Msg)
}

// Read32 reads a naturally-aligned word from physical/virtual address addr.
func (b *Bus) Read32(addr uint32) uint32 {
	p := translate(addr)

	switch {
	case p < ramSize:
		return le32(b.RAM[p : p+4])
	case p >= 0x1f000000 && p < 0x1f800000:
		return 0xffffffff // Expansion-1: unmapped, reads as all-ones
	case p >= 0x1f800000 && p < 0x1f800400:
		return le32(b.Scratchpad[p-0x1f800000 : p-0x1f800000+4])
	case p >= 0x1f801000 && p < 0x1f801024:
		return b.memctrl[(p-0x1f801000)/4]
	case p >= 0x1f801040 && p < 0x1f801050:
		return b.port(b.SIO0, "SIO0").Read32(p - 0x1f801040)
	case p >= 0x1f801070 && p < 0x1f801078:
		return b.port(b.INTC, "INTC").Read32(p - 0x1f801070)
	case p >= 0x1f801080 && p < 0x1f801100:
		return b.port(b.DMA, "DMA").Read32(p - 0x1f801080)
	case p >= 0x1f801100 && p < 0x1f80112c:
		return b.port(b.Timers, "Timers").Read32(p - 0x1f801100)
	case p >= 0x1f801800 && p < 0x1f801804:
		return b.port(b.CDROM, "CDROM").Read32(p - 0x1f801800)
	case p >= 0x1f801810 && p < 0x1f801818:
		return b.port(b.GPU, "GPU").Read32(p - 0x1f801810)
	case p >= 0x1f801820 && p < 0x1f801828:
		return b.port(b.MDEC, "MDEC").Read32(p - 0x1f801820)
	case p >= 0x1f801c00 && p < 0x1f802000:
		return uint32(b.port(b.SPU, "SPU").Read16(p - 0x1f801c00))
	case p >= 0x1fc00000 && p < 0x1fc00000+biosSize:
		return le32(b.BIOS[p-0x1fc00000 : p-0x1fc00000+4])
	case p == 0xfffe0130:
		return b.cacheControl
	default:
		b.logUnmapped("Read32", p)
		return 0
	}
}

// Write32 writes a naturally-aligned word.
func (b *Bus) Write32(addr, value uint32) {
	p := translate(addr)

	switch {
	case p < ramSize:
		putLE32(b.RAM[p:p+4], value)
	case p >= 0x1f000000 && p < 0x1f800000:
		// Expansion-1 writes ignored.
	case p >= 0x1f800000 && p < 0x1f800400:
		putLE32(b.Scratchpad[p-0x1f800000:p-0x1f800000+4], value)
	case p >= 0x1f801000 && p < 0x1f801024:
		b.memctrl[(p-0x1f801000)/4] = value
	case p >= 0x1f801040 && p < 0x1f801050:
		b.port(b.SIO0, "SIO0").Write32(p-0x1f801040, value)
	case p >= 0x1f801070 && p < 0x1f801078:
		b.port(b.INTC, "INTC").Write32(p-0x1f801070, value)
	case p >= 0x1f801080 && p < 0x1f801100:
		b.port(b.DMA, "DMA").Write32(p-0x1f801080, value)
	case p >= 0x1f801100 && p < 0x1f80112c:
		b.port(b.Timers, "Timers").Write32(p-0x1f801100, value)
	case p >= 0x1f801800 && p < 0x1f801804:
		b.port(b.CDROM, "CDROM").Write32(p-0x1f801800, value)
	case p >= 0x1f801810 && p < 0x1f801818:
		b.port(b.GPU, "GPU").Write32(p-0x1f801810, value)
	case p >= 0x1f801820 && p < 0x1f801828:
		b.port(b.MDEC, "MDEC").Write32(p-0x1f801820, value)
	case p >= 0x1f801c00 && p < 0x1f802000:
		b.port(b.SPU, "SPU").Write16(p-0x1f801c00, uint16(value))
	case p >= 0x1fc00000 && p < 0x1fc00000+biosSize:
		panic((&Fault{Addr: addr, Msg: "store to BIOS"}).Error())
	case p == 0xfffe0130:
		b.cacheControl = value
	default:
		b.logUnmapped("Write32", p)
	}
}

// Read16 reads a naturally-aligned halfword.
func (b *Bus) Read16(addr uint32) uint16 {
	p := translate(addr)

	switch {
	case p < ramSize:
		return le16(b.RAM[p : p+2])
	case p >= 0x1f800000 && p < 0x1f800400:
		return le16(b.Scratchpad[p-0x1f800000 : p-0x1f800000+2])
	case p >= 0x1f801040 && p < 0x1f801050:
		return b.port(b.SIO0, "SIO0").Read16(p - 0x1f801040)
	case p >= 0x1f801070 && p < 0x1f801078:
		return b.port(b.INTC, "INTC").Read16(p - 0x1f801070)
	case p >= 0x1f801100 && p < 0x1f80112c:
		return b.port(b.Timers, "Timers").Read16(p - 0x1f801100)
	case p >= 0x1f801c00 && p < 0x1f802000:
		return b.port(b.SPU, "SPU").Read16(p - 0x1f801c00)
	case p >= 0x1fc00000 && p < 0x1fc00000+biosSize:
		return le16(b.BIOS[p-0x1fc00000 : p-0x1fc00000+2])
	default:
		return uint16(b.Read32(addr &^ 3) >> ((addr & 2) * 8))
	}
}

// Write16 writes a naturally-aligned halfword.
func (b *Bus) Write16(addr uint32, value uint16) {
	p := translate(addr)

	switch {
	case p < ramSize:
		putLE16(b.RAM[p:p+2], value)
	case p >= 0x1f800000 && p < 0x1f800400:
		putLE16(b.Scratchpad[p-0x1f800000:p-0x1f800000+2], value)
	case p >= 0x1f801040 && p < 0x1f801050:
		b.port(b.SIO0, "SIO0").Write16(p-0x1f801040, value)
	case p >= 0x1f801070 && p < 0x1f801078:
		b.port(b.INTC, "INTC").Write16(p-0x1f801070, value)
	case p >= 0x1f801100 && p < 0x1f80112c:
		b.port(b.Timers, "Timers").Write16(p-0x1f801100, value)
	case p >= 0x1f801c00 && p < 0x1f802000:
		b.port(b.SPU, "SPU").Write16(p-0x1f801c00, value)
	case p >= 0x1fc00000 && p < 0x1fc00000+biosSize:
		panic((&Fault{Addr: addr, Msg: "store to BIOS"}).Error())
	default:
		b.logUnmapped("Write16", p)
	}
}

// Read8 reads a single byte.
func (b *Bus) Read8(addr uint32) uint8 {
	p := translate(addr)

	switch {
	case p < ramSize:
		return b.RAM[p]
	case p >= 0x1f000000 && p < 0x1f800000:
		return 0xff
	case p >= 0x1f800000 && p < 0x1f800400:
		return b.Scratchpad[p-0x1f800000]
	case p >= 0x1f801800 && p < 0x1f801804:
		return b.port(b.CDROM, "CDROM").Read8(p - 0x1f801800)
	case p >= 0x1fc00000 && p < 0x1fc00000+biosSize:
		return b.BIOS[p-0x1fc00000]
	default:
		return uint8(b.Read32(addr &^ 3) >> ((addr & 3) * 8))
	}
}

// Write8 writes a single byte.
func (b *Bus) Write8(addr uint32, value uint8) {
	p := translate(addr)

	switch {
	case p < ramSize:
		b.RAM[p] = value
	case p >= 0x1f800000 && p < 0x1f800400:
		b.Scratchpad[p-0x1f800000] = value
	case p >= 0x1f801040 && p < 0x1f801050:
		b.port(b.SIO0, "SIO0").Write8(p-0x1f801040, value)
	case p >= 0x1f801800 && p < 0x1f801804:
		b.port(b.CDROM, "CDROM").Write8(p-0x1f801800, value)
	case p == 0x1f802023:
		if b.TextSink != nil {
			b.TextSink(value)
		}
	case p >= 0x1fc00000 && p < 0x1fc00000+biosSize:
		panic((&Fault{Addr: addr, Msg: "store to BIOS"}).Error())
	default:
		b.logUnmapped("Write8", p)
	}
}

// ReadRAMWord reads a naturally-aligned word directly out of system
// RAM, bypassing the region-mask/device decoder. The DMA engine uses
// this: every DMA transfer's RAM side targets system RAM only.
func (b *Bus) ReadRAMWord(addr uint32) uint32 {
	addr &= 0x1ffffc
	return le32(b.RAM[addr : addr+4])
}

// WriteRAMWord writes a naturally-aligned word directly into system RAM.
func (b *Bus) WriteRAMWord(addr uint32, value uint32) {
	addr &= 0x1ffffc
	putLE32(b.RAM[addr:addr+4], value)
}

func (b *Bus) port(p IOPort, name string) IOPort {
	if p != nil {
		return p
	}
	return nullPort{name: name, bus: b}
}

func (b *Bus) logUnmapped(op string, addr uint32) {
	if b.logger != nil {
		b.logger.Logf(debug.ComponentMemory, debug.LogLevelWarning, "%s unmapped address %#08x", op, addr)
	}
}

// nullPort backs any device range that hasn't been wired yet: reads
// return 0, writes are dropped, matching the "unimplemented I/O"
// taxonomy entry rather than panicking.
type nullPort struct {
	name string
	bus  *Bus
}

func (n nullPort) Read32(uint32) uint32          { n.warn(); return 0 }
func (n nullPort) Write32(uint32, uint32)        { n.warn() }
func (n nullPort) Read16(uint32) uint16          { n.warn(); return 0 }
func (n nullPort) Write16(uint32, uint16)        { n.warn() }
func (n nullPort) Read8(uint32) uint8            { n.warn(); return 0 }
func (n nullPort) Write8(uint32, uint8)          { n.warn() }

func (n nullPort) warn() {
	if n.bus.logger != nil {
		n.bus.logger.Logf(debug.ComponentMemory, debug.LogLevelWarning, "access to unwired %s port", n.name)
	}
}

func le16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
func putLE16(b []byte, v uint16) { b[0] = byte(v); b[1] = byte(v >> 8) }
func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
