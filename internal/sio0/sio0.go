// Package sio0 implements the serial I/O port the PlayStation uses to
// talk to controllers and memory cards: a byte-wide shift register
// with a software-visible baud rate divider and a tiny request/
// response protocol multiplexed across whichever device currently
// holds the bus.
package sio0

import (
	"fmt"

	"psx-core/internal/debug"
	"psx-core/internal/intc"
)

// byteFIFO is a small fixed-capacity queue, mirroring the original's
// ring-buffer-backed Queue<u8>.
type byteFIFO struct {
	buf []byte
	cap int
}

func newByteFIFO(capacity int) byteFIFO { return byteFIFO{cap: capacity} }

func (q *byteFIFO) push(v byte) {
	if len(q.buf) >= q.cap {
		q.buf = q.buf[1:]
	}
	q.buf = append(q.buf, v)
}
func (q *byteFIFO) hasData() bool { return len(q.buf) > 0 }
func (q *byteFIFO) clear()        { q.buf = q.buf[:0] }
func (q *byteFIFO) pop() byte {
	if len(q.buf) == 0 {
		return 0
	}
	v := q.buf[0]
	q.buf = q.buf[1:]
	return v
}

type mode struct {
	clkOutputPolarity bool
	parityType        bool
	parityEnable      bool
	baudReloadFactor  int
	raw               uint16
}

func newMode() mode { return mode{baudReloadFactor: 1} }

func (m *mode) read() uint16 { return m.raw }

func (m *mode) write(value uint16) {
	m.raw = value
	m.clkOutputPolarity = value&0x100 != 0
	m.parityType = value&0x20 != 0
	m.parityEnable = value&0x10 != 0
	switch value & 0x3 {
	case 0, 1:
		m.baudReloadFactor = 1
	case 2:
		m.baudReloadFactor = 16
	case 3:
		m.baudReloadFactor = 64
	}
}

type control struct {
	slot               bool
	ackInterruptEnable bool
	rxInterruptEnable  bool
	txInterruptEnable  bool
	rxInterruptCount   int
	rxEnable           bool
	joyNOutput         bool
	txEnable           bool
}

func newControl() control { return control{rxInterruptCount: 1} }

func (c *control) read() uint16 {
	var v uint16
	v |= boolBit16(c.slot, 13)
	v |= boolBit16(c.ackInterruptEnable, 12)
	v |= boolBit16(c.rxInterruptEnable, 11)
	v |= boolBit16(c.txInterruptEnable, 10)

	var countBits uint16
	switch c.rxInterruptCount {
	case 1:
		countBits = 0
	case 2:
		countBits = 1
	case 4:
		countBits = 2
	case 8:
		countBits = 3
	}
	v |= countBits << 8

	v |= boolBit16(c.rxEnable, 2)
	v |= boolBit16(c.joyNOutput, 1)
	v |= boolBit16(c.txEnable, 0)
	return v
}

func (c *control) write(value uint16) {
	c.slot = value&0x2000 != 0
	c.ackInterruptEnable = value&0x1000 != 0
	c.rxInterruptEnable = value&0x800 != 0
	c.txInterruptEnable = value&0x400 != 0
	c.rxInterruptCount = 1 << ((value & 0x300) >> 8)
	c.rxEnable = value&0x4 != 0
	c.joyNOutput = value&0x2 != 0
	c.txEnable = value&0x1 != 0
}

func boolBit16(b bool, shift uint) uint16 {
	if b {
		return 1 << shift
	}
	return 0
}

type device int

const (
	deviceNone device = iota
	deviceController
	deviceMemoryCard
)

// Sio0 is the controller/memory-card serial port. One Controller and
// one MemoryCard are wired to slot 1; writes to the TX FIFO start a
// transfer that resolves after a baud-rate-scaled delay, at which
// point the addressed device's response is pushed to the RX FIFO and,
// if it asked to be acknowledged, an /ACK-driven Controller interrupt
// follows a further fixed delay.
type Sio0 struct {
	controller *Controller
	memCard1   *MemoryCard

	activeDevice device

	baudrate  int
	ticksLeft int64

	inTransfer    bool
	inAcknowledge bool

	interruptRequest bool
	ackInputLevel    bool
	rxParityError    bool
	txReady2         bool
	txReady1         bool

	mode    mode
	control control

	rxFIFO byteFIFO
	txFIFO byteFIFO

	logger *debug.Logger
}

// New returns a Sio0 with a fresh controller and the memory card image
// at cardPath (created if absent).
func New(cardPath string, logger *debug.Logger) (*Sio0, error) {
	card, err := OpenMemoryCard(cardPath, logger)
	if err != nil {
		return nil, fmt.Errorf("sio0: %w", err)
	}

	s := &Sio0{
		controller: NewController(),
		memCard1:   card,

		mode:    newMode(),
		control: newControl(),

		rxFIFO: newByteFIFO(8),
		txFIFO: newByteFIFO(1),

		logger: logger,
	}
	return s, nil
}

// Reset restores the memory card's directory-unread flag on power-on.
func (s *Sio0) Reset() {
	s.memCard1.Reset()
}

// ResetDeviceStates drops device selection, used whenever JOYn_OUTPUT
// is cleared or a hard transfer reset occurs.
func (s *Sio0) ResetDeviceStates() {
	s.activeDevice = deviceNone
	s.inTransfer = false
	s.inAcknowledge = false
	s.controller.ResetDeviceState()
	s.memCard1.ResetDeviceState()
}

// Controller returns the attached gamepad for button-state updates.
func (s *Sio0) Controller() *Controller { return s.controller }

// Sync flushes any pending memory-card writes to disk.
func (s *Sio0) Sync() { s.memCard1.Sync() }

// Tick advances the transfer and acknowledge-delay counters by the
// given number of SIO0-granularity clocks, resolving a transfer and
// raising the Controller interrupt once its delays elapse.
func (s *Sio0) Tick(ic *intc.Intc, clocks uint64) {
	if s.inTransfer {
		s.ticksLeft -= int64(clocks)
		if s.ticksLeft > 0 {
			return
		}
		s.inTransfer = false

		command := s.txFIFO.pop()

		if s.control.slot {
			s.rxFIFO.push(0xff)
			return
		}

		if s.activeDevice == deviceNone {
			switch command {
			case 0x01:
				s.activeDevice = deviceController
			case 0x81:
				s.activeDevice = deviceMemoryCard
			}
		}

		response := uint8(0xff)
		var ack, enable bool

		switch s.activeDevice {
		case deviceController:
			response = s.controller.response(command)
			ack = s.controller.ack()
			enable = s.controller.enable()
		case deviceMemoryCard:
			response = s.memCard1.response(command)
			ack = s.memCard1.ack()
			enable = s.memCard1.enable()
		}

		if ack {
			s.ticksLeft += 338
			s.inAcknowledge = true
		}

		if !enable {
			s.activeDevice = deviceNone
		}

		s.rxFIFO.push(response)
		s.ackInputLevel = ack
		s.txReady2 = true
	} else if s.inAcknowledge {
		s.ticksLeft -= int64(clocks)
		if s.ticksLeft < 0 {
			s.inAcknowledge = false
			s.ackInputLevel = false
			ic.Assert(intc.Controller)
		}
	}
}

// RxData pops one byte from the receive FIFO (0x1F801040).
func (s *Sio0) RxData() uint32 {
	return uint32(s.rxFIFO.pop())
}

// TxData pushes one byte into the transmit FIFO, starting a transfer
// scaled by the current baud rate (0x1F801040 write).
func (s *Sio0) TxData(value uint32) {
	s.txFIFO.push(uint8(value))

	s.txReady1 = true
	s.txReady2 = false

	if s.inTransfer || s.inAcknowledge {
		if s.logger != nil {
			s.logger.Log(debug.ComponentSIO0, debug.LogLevelWarning, "tx write while transfer in flight", nil)
		}
	}

	s.ticksLeft = int64(s.baudrate) &^ 1 * 8
	s.inTransfer = true
}

// Status reads the status register (0x1F801044).
func (s *Sio0) Status() uint32 {
	var v uint32
	v |= uint32(s.baudrate) << 11
	v |= boolBit32(s.interruptRequest, 9)
	v |= boolBit32(s.ackInputLevel, 7)
	v |= boolBit32(s.rxParityError, 3)
	v |= boolBit32(s.txReady2, 2)
	v |= boolBit32(s.rxFIFO.hasData(), 1)
	v |= boolBit32(s.txReady1, 0)
	return v
}

func boolBit32(b bool, shift uint) uint32 {
	if b {
		return 1 << shift
	}
	return 0
}

// WriteMode writes the mode register (0x1F801048).
func (s *Sio0) WriteMode(value uint16) { s.mode.write(value) }

// ReadControl reads the control register (0x1F80104A).
func (s *Sio0) ReadControl() uint32 { return uint32(s.control.read()) }

// WriteControl writes the control register (0x1F80104A).
func (s *Sio0) WriteControl(value uint16) {
	s.control.write(value)

	if !s.control.joyNOutput {
		s.ResetDeviceStates()
	}

	if value&0x40 != 0 {
		s.WriteMode(0)
		s.WriteControl(0)
		s.WriteBaud(0)

		s.rxFIFO.clear()
		s.txFIFO.clear()

		s.txReady1 = true
		s.txReady2 = true
	}

	if value&0x10 != 0 && !s.ackInputLevel {
		s.interruptRequest = false
		s.rxParityError = false
	}
}

// WriteBaud writes the baud rate reload register (0x1F80104E).
func (s *Sio0) WriteBaud(value uint16) { s.baudrate = int(value) }

// ReadBaud reads the baud rate reload register (0x1F80104E).
func (s *Sio0) ReadBaud() uint32 { return uint32(s.baudrate) }
