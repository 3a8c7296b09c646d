package mdec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psx-core/internal/debug"
)

func TestResetIdlesBlockCursor(t *testing.T) {
	m := New(debug.NewLogger(128))
	m.currentBlock = 2
	m.Reset()
	assert.Equal(t, 4, m.currentBlock)
}

func TestWriteControlResetRestoresIdleCursor(t *testing.T) {
	m := New(debug.NewLogger(128))
	m.currentBlock = 0
	m.WriteControl(0x80000000)
	assert.Equal(t, 4, m.currentBlock)
}

func TestWriteControlSetsDMAEnables(t *testing.T) {
	m := New(debug.NewLogger(128))
	m.WriteControl(0x60000000)
	assert.True(t, m.dma0Enable)
	assert.True(t, m.dma1Enable)
}

func TestDecodeQuantTableCommand(t *testing.T) {
	m := New(debug.NewLogger(128))
	m.WriteCommand(0x40000000) // command 2, monochrome quant table
	require.True(t, m.processingCommand)
	require.Equal(t, uint16(16), m.wordsRemaining)

	for i := 0; i < 16; i++ {
		m.WriteCommand(0x01010101)
	}

	assert.False(t, m.processingCommand)
	assert.Equal(t, uint8(1), m.quantTables[qtY][0])
}

func TestDecodeScaleTableCommand(t *testing.T) {
	m := New(debug.NewLogger(128))
	m.WriteCommand(0x60000000) // command 3, IDCT scale table

	for i := 0; i < 32; i++ {
		m.WriteCommand(0x00020001)
	}

	assert.False(t, m.processingCommand)
	assert.Equal(t, int16(1), m.scaleTable[0])
	assert.Equal(t, int16(2), m.scaleTable[1])
}

func TestSignExtend10(t *testing.T) {
	assert.Equal(t, int16(-1), signExtend10(0x3ff))
	assert.Equal(t, int16(1), signExtend10(0x001))
}

func TestReadStatusReflectsFIFOState(t *testing.T) {
	m := New(debug.NewLogger(128))
	status := m.ReadStatus()
	assert.NotEqual(t, uint32(0), status&(1<<31))
}

func TestDMARoundTripNoopOnEmptyOutput(t *testing.T) {
	m := New(debug.NewLogger(128))
	assert.Equal(t, uint32(0), m.DMARead())
}
