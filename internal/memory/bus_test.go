package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKUSEGKSEG0KSEG1AliasSameRAM(t *testing.T) {
	b := New()

	b.Write32(0x00001000, 0xdeadbeef)

	assert.Equal(t, uint32(0xdeadbeef), b.Read32(0x00001000), "KUSEG")
	assert.Equal(t, uint32(0xdeadbeef), b.Read32(0x80001000), "KSEG0")
	assert.Equal(t, uint32(0xdeadbeef), b.Read32(0xa0001000), "KSEG1")

	b.Write32(0xa0001004, 0x11223344)
	assert.Equal(t, uint32(0x11223344), b.Read32(0x00001004))
}

func TestMemCtrlReadsExpansion1BaseResetValue(t *testing.T) {
	b := New()
	// LUI $2,0x1F80 ; ORI $2,$2,0x1010 ; LW $3,0($2)
	got := b.Read32(0x1f801010)
	assert.Equal(t, uint32(0x1f000000), got)
}

func TestStoreToBIOSPanics(t *testing.T) {
	b := New()
	assert.Panics(t, func() {
		b.Write32(0x1fc00000, 0)
	})
}

func TestExpansion1ReadsAllOnes(t *testing.T) {
	b := New()
	assert.Equal(t, uint32(0xffffffff), b.Read32(0x1f000000))
}
