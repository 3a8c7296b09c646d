package sio0

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psx-core/internal/intc"
)

func newTestSio0(t *testing.T) (*Sio0, *intc.Intc) {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "card.mcr"), nil)
	require.NoError(t, err)
	s.Reset()

	ic := intc.New()
	ic.WriteMask(1 << uint(intc.Controller))

	s.WriteBaud(0x88)
	s.WriteControl(0x1003) // tx enable, JOYn output, ack interrupt enable
	return s, ic
}

// exchange clocks one byte through the serial line: TX, the transfer
// delay, then the ACK delay.
func exchange(s *Sio0, ic *intc.Intc, value uint8) uint8 {
	s.TxData(uint32(value))
	s.Tick(ic, 2048) // resolve the transfer
	s.Tick(ic, 512)  // resolve a pending /ACK pulse, if any
	return uint8(s.RxData())
}

func TestControllerDigitalPoll(t *testing.T) {
	s, ic := newTestSio0(t)
	s.Controller().DigitalMode = true
	s.Controller().ButtonCross = true
	s.Controller().ButtonStart = true

	assert.Equal(t, uint8(0xff), exchange(s, ic, 0x01), "address byte")
	assert.Equal(t, uint8(0x41), exchange(s, ic, 0x42), "digital pad ID")
	assert.Equal(t, uint8(0x5a), exchange(s, ic, 0x00))
	assert.Equal(t, uint8(0xf7), exchange(s, ic, 0x00), "switch-lo with start held")
	assert.Equal(t, uint8(0xbf), exchange(s, ic, 0x00), "switch-hi with cross held")
}

func TestControllerAnalogPollAppendsAxes(t *testing.T) {
	s, ic := newTestSio0(t)
	pad := s.Controller()
	pad.DigitalMode = false
	pad.AxisLX = 0x20
	pad.AxisLY = 0x30
	pad.AxisRX = 0x40
	pad.AxisRY = 0x50

	exchange(s, ic, 0x01)
	assert.Equal(t, uint8(0x73), exchange(s, ic, 0x42), "analog pad ID")
	exchange(s, ic, 0x00) // 0x5a
	exchange(s, ic, 0x00) // switch-lo
	exchange(s, ic, 0x00) // switch-hi

	assert.Equal(t, uint8(0x40), exchange(s, ic, 0x00))
	assert.Equal(t, uint8(0x50), exchange(s, ic, 0x00))
	assert.Equal(t, uint8(0x20), exchange(s, ic, 0x00))
	assert.Equal(t, uint8(0x30), exchange(s, ic, 0x00))
}

func TestTransferRaisesControllerInterruptViaAck(t *testing.T) {
	s, ic := newTestSio0(t)

	s.TxData(0x01)
	s.Tick(ic, 2048)
	require.False(t, ic.Pending(), "ACK pulse still in flight")

	s.Tick(ic, 512)
	assert.True(t, ic.Pending())
}

func TestSelectedSlot2RespondsHighZ(t *testing.T) {
	s, ic := newTestSio0(t)
	s.WriteControl(0x1003 | 1<<13) // select slot 2 (nothing attached)

	got := exchange(s, ic, 0x01)
	assert.Equal(t, uint8(0xff), got)
	assert.False(t, ic.Pending(), "no device, no ACK")
}

// writeSector drives the full 0x57 write handshake for a 128-byte
// sector, returning the end code. checksumDelta is XORed into the
// transmitted checksum to provoke a mismatch.
func writeSector(s *Sio0, ic *intc.Intc, sector uint16, data *[128]byte, checksumDelta uint8) uint8 {
	exchange(s, ic, 0x81)
	exchange(s, ic, 0x57)
	exchange(s, ic, 0x00) // 0x5a
	exchange(s, ic, 0x00) // 0x5d

	msb := uint8(sector >> 8)
	lsb := uint8(sector)
	exchange(s, ic, msb)
	exchange(s, ic, lsb)

	checksum := msb ^ lsb
	for _, b := range data {
		exchange(s, ic, b)
		checksum ^= b
	}

	exchange(s, ic, checksum^checksumDelta)
	exchange(s, ic, 0x00) // 0x5c
	exchange(s, ic, 0x00) // 0x5d
	return exchange(s, ic, 0x00)
}

// readSector drives the 0x52 read handshake, returning the payload,
// the card's checksum byte, and the end code.
func readSector(s *Sio0, ic *intc.Intc, sector uint16) (data [128]byte, checksum, end uint8) {
	exchange(s, ic, 0x81)
	exchange(s, ic, 0x52)
	exchange(s, ic, 0x00) // 0x5a
	exchange(s, ic, 0x00) // 0x5d

	exchange(s, ic, uint8(sector>>8))
	exchange(s, ic, uint8(sector))
	exchange(s, ic, 0x00) // 0x5c
	exchange(s, ic, 0x00) // 0x5d
	exchange(s, ic, 0x00) // confirmed MSB
	exchange(s, ic, 0x00) // confirmed LSB

	for i := range data {
		data[i] = exchange(s, ic, 0x00)
	}
	checksum = exchange(s, ic, 0x00)
	end = exchange(s, ic, 0x00)
	return data, checksum, end
}

func TestMemoryCardSectorWriteReadRoundTrip(t *testing.T) {
	s, ic := newTestSio0(t)

	var payload [128]byte
	for i := range payload {
		payload[i] = uint8(i * 3)
	}

	end := writeSector(s, ic, 0x0042, &payload, 0)
	require.Equal(t, uint8(0x47), end, "good end code on matching checksum")

	got, checksum, end := readSector(s, ic, 0x0042)
	assert.Equal(t, payload, got)
	assert.Equal(t, uint8(0x47), end)

	expected := uint8(0x42)
	for _, b := range payload {
		expected ^= b
	}
	assert.Equal(t, expected, checksum, "read checksum covers sector address and data")
}

func TestMemoryCardChecksumMismatchEndsWith4E(t *testing.T) {
	s, ic := newTestSio0(t)

	var payload [128]byte
	end := writeSector(s, ic, 0x0001, &payload, 0xa5)
	assert.Equal(t, uint8(0x4e), end)
}

func TestMemoryCardOutOfRangeSectorAborts(t *testing.T) {
	s, ic := newTestSio0(t)

	exchange(s, ic, 0x81)
	exchange(s, ic, 0x52)
	exchange(s, ic, 0x00)
	exchange(s, ic, 0x00)
	exchange(s, ic, 0x04) // sector 0x400 is past the last sector
	exchange(s, ic, 0x00)
	exchange(s, ic, 0x00) // 0x5c
	exchange(s, ic, 0x00) // 0x5d
	assert.Equal(t, uint8(0xff), exchange(s, ic, 0x00), "confirmed MSB reads back 0xff")
	assert.Equal(t, uint8(0xff), exchange(s, ic, 0x00), "confirmed LSB reads back 0xff")
}

func TestMemoryCardWritePersistsToImageFile(t *testing.T) {
	dir := t.TempDir()
	cardPath := filepath.Join(dir, "card.mcr")
	s, err := New(cardPath, nil)
	require.NoError(t, err)
	s.Reset()
	s.WriteBaud(0x88)
	s.WriteControl(0x1003)
	ic := intc.New()

	var payload [128]byte
	payload[0] = 0xde
	payload[127] = 0xad
	require.Equal(t, uint8(0x47), writeSector(s, ic, 0x0010, &payload, 0))

	image, err := os.ReadFile(cardPath)
	require.NoError(t, err)
	require.Len(t, image, CardSize)
	assert.Equal(t, uint8(0xde), image[0x10*0x80])
	assert.Equal(t, uint8(0xad), image[0x10*0x80+127])
}

func TestMemoryCardFirstWriteClearsDirectoryUnreadFlag(t *testing.T) {
	s, ic := newTestSio0(t)

	exchange(s, ic, 0x81)
	flag := exchange(s, ic, 0x52)
	assert.Equal(t, uint8(0x08), flag, "power-on flag reports directory unread")

	// Abort the read, then issue a write; the next command sees the
	// flag cleared.
	s.WriteControl(0x0000) // drop JOYn to deselect
	s.WriteControl(0x1003)

	var payload [128]byte
	writeSector(s, ic, 0x0000, &payload, 0)

	exchange(s, ic, 0x81)
	flag = exchange(s, ic, 0x52)
	assert.Equal(t, uint8(0x00), flag)
}
