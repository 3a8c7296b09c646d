package sio0

import (
	"fmt"
	"os"
	"path/filepath"

	"psx-core/internal/debug"
)

// CardSize is the flat size of a memory card image: 16 blocks of 8KiB.
const CardSize = 0x20000

const sectorBytes = 0x80

// MemoryCard is a flash memory card backed by a flat .mcd image file,
// exposed through the same byte-at-a-time request/response protocol as
// Controller. Reads and writes address the image through a cache that
// is flushed to disk whenever a write transfer completes.
type MemoryCard struct {
	path  string
	file  *os.File
	cache [CardSize]byte
	dirty bool

	ackFlag bool
	state   int

	sector        uint16
	sectorCounter int

	flag     uint8
	previous uint8

	checksum      uint8
	checksumMatch bool

	logger *debug.Logger
}

// OpenMemoryCard opens (creating if necessary) a .mcd image at path
// and loads its contents into the in-memory cache.
func OpenMemoryCard(path string, logger *debug.Logger) (*MemoryCard, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sio0: creating memory card directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("sio0: opening memory card image: %w", err)
	}

	m := &MemoryCard{path: path, file: f, logger: logger}
	m.loadCache()
	return m, nil
}

func (m *MemoryCard) loadCache() {
	info, err := m.file.Stat()
	if err != nil || info.Size() < CardSize {
		return
	}
	if _, err := m.file.ReadAt(m.cache[:], 0); err != nil {
		if m.logger != nil {
			m.logger.Logf(debug.ComponentSIO0, debug.LogLevelWarning, "failed to load memory card image: %v", err)
		}
		return
	}
	m.dirty = false
}

func (m *MemoryCard) flushCache() {
	if _, err := m.file.WriteAt(m.cache[:], 0); err != nil {
		if m.logger != nil {
			m.logger.Logf(debug.ComponentSIO0, debug.LogLevelWarning, "failed to flush memory card image: %v", err)
		}
		return
	}
	m.file.Sync()
	m.dirty = false
}

// Sync flushes the cache to disk if it has pending writes.
func (m *MemoryCard) Sync() {
	if m.dirty {
		m.flushCache()
	}
}

// Reset sets the directory-unread flag on power-on/hard reset.
func (m *MemoryCard) Reset() {
	m.flag = 0x08
}

// ResetDeviceState idles the transfer cursor between polls.
func (m *MemoryCard) ResetDeviceState() {
	m.ackFlag = false
	m.state = 0
}

func (m *MemoryCard) response(command uint8) uint8 {
	m.ackFlag = true
	reply := uint8(0xff)

	switch m.state {
	case 0:
		m.state = 1
	case 1:
		reply = m.flag
		m.sectorCounter = 0

		switch command {
		case 0x52:
			m.state = 10
		case 0x53:
			m.state = 2
		case 0x57:
			m.state = 21
		default:
			if m.logger != nil {
				m.logger.Logf(debug.ComponentSIO0, debug.LogLevelWarning, "memory card: unrecognised command %#x", command)
			}
			m.state = 0
			m.ackFlag = false
		}
	case 2:
		reply = 0x5a
		m.state = 3
	case 3:
		reply = 0x5d
		m.state = 4
	case 4:
		reply = 0x5c
		m.state = 5
	case 5:
		reply = 0x5d
		m.state = 6
	case 6:
		reply = 0x04
		m.state = 7
	case 7:
		reply = 0x00
		m.state = 8
	case 8:
		reply = 0x00
		m.state = 9
	case 9:
		reply = 0x80
		m.state = 0
	case 10:
		reply = 0x5a
		m.state = 11
	case 11:
		reply = 0x5d
		m.state = 12
	case 12:
		reply = 0x00
		m.sector = (m.sector & 0xff) | uint16(command)<<8
		m.previous = command
		m.checksum = command
		m.state = 13
	case 13:
		reply = m.previous
		m.sector = (m.sector & 0xff00) | uint16(command)
		m.checksum ^= command

		if m.sector > 0x3ff {
			m.sector = 0xffff
		}
		m.state = 14
	case 14:
		reply = 0x5c
		m.state = 15
	case 15:
		reply = 0x5d
		m.state = 16
	case 16:
		reply = uint8(m.sector >> 8)
		m.state = 17
	case 17:
		reply = uint8(m.sector)
		if m.sector == 0xffff {
			m.state = 0
			m.ackFlag = false
		} else {
			m.state = 18
		}
	case 18:
		addr := int(m.sector)*sectorBytes + m.sectorCounter
		reply = m.cache[addr]
		m.checksum ^= reply

		m.sectorCounter++
		if m.sectorCounter == sectorBytes {
			m.state = 19
		}
	case 19:
		reply = m.checksum
		m.state = 20
	case 20:
		reply = 0x47
		m.state = 0
		m.ackFlag = false
	case 21:
		m.flag &^= 0x08

		reply = 0x5a
		m.state = 22
	case 22:
		reply = 0x5d
		m.state = 23
	case 23:
		reply = 0x00
		m.sector = (m.sector & 0xff) | uint16(command)<<8
		m.previous = command
		m.checksum = command
		m.state = 24
	case 24:
		reply = m.previous
		m.sector = (m.sector & 0xff00) | uint16(command)
		m.previous = command
		m.checksum ^= command

		if m.sector > 0x3ff {
			m.state = 0
			m.ackFlag = false
		} else {
			m.state = 25
		}
	case 25:
		reply = m.previous

		addr := int(m.sector)*sectorBytes + m.sectorCounter
		m.cache[addr] = command
		m.dirty = true

		m.previous = command
		m.checksum ^= command

		m.sectorCounter++
		if m.sectorCounter == sectorBytes {
			m.state = 26
		}
	case 26:
		reply = m.previous
		m.Sync()

		m.checksumMatch = m.checksum == command
		m.state = 27
	case 27:
		reply = 0x5c
		m.state = 28
	case 28:
		reply = 0x5d
		m.state = 29
	case 29:
		if m.checksumMatch {
			reply = 0x47
		} else {
			if m.logger != nil {
				m.logger.Logf(debug.ComponentSIO0, debug.LogLevelWarning, "memory card: checksum mismatch %#x", m.checksum)
			}
			reply = 0x4e
		}
		m.ackFlag = false
		m.state = 0
	default:
		m.state = 0
		m.ackFlag = false
	}

	return reply
}

func (m *MemoryCard) ack() bool { return m.ackFlag }

func (m *MemoryCard) enable() bool { return m.state != 0 }
