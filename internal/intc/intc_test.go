package intc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingMatchesStatusAndMask(t *testing.T) {
	i := New()
	require.False(t, i.Pending())

	i.Assert(CDROM)
	assert.True(t, i.Pending() == false, "CDROM bit set but not yet masked in")

	i.WriteMask(1 << uint(CDROM))
	assert.Equal(t, (i.Status()&i.Mask()) != 0, i.Pending())
	assert.True(t, i.Pending())
}

func TestWriteStatusClearsOnlyZeroBits(t *testing.T) {
	i := New()
	i.Assert(Vblank)
	i.Assert(GPU)

	// write-1-to-clear-zero: writing all bits except Vblank clears Vblank.
	i.WriteStatus(^uint16(1 << uint(Vblank)))

	assert.Equal(t, uint16(1<<uint(GPU)), i.Status())
}

func TestAssertIsIdempotentOnStatus(t *testing.T) {
	i := New()
	i.Assert(Timer0)
	i.Assert(Timer0)
	assert.Equal(t, uint16(1<<uint(Timer0)), i.Status())
}

func TestResetClearsState(t *testing.T) {
	i := New()
	i.Assert(SPU)
	i.WriteMask(0x7ff)
	require.True(t, i.Pending())

	i.Reset()
	assert.False(t, i.Pending())
	assert.Equal(t, uint16(0), i.Status())
	assert.Equal(t, uint16(0), i.Mask())
}
