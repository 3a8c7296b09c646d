package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncDeviceRetainsRemainder(t *testing.T) {
	tk := New()

	var cdromTicks uint64
	tk.SetDevice(DeviceCDROM, func(cycles uint64) { cdromTicks += cycles })

	// 767 CPU cycles = 8437 PSX-clock units, one short of the CD-ROM
	// granularity.
	tk.Tick(767)
	tk.SyncDevice(DeviceCDROM)
	assert.Equal(t, uint64(0), cdromTicks)

	tk.Tick(1)
	tk.SyncDevice(DeviceCDROM)
	assert.Equal(t, uint64(1), cdromTicks, "remainder carried across syncs")
}

func TestSyncDeviceConvertsToDeviceGranularity(t *testing.T) {
	tk := New()

	var timerTicks uint64
	tk.SetDevice(DeviceTimers, func(cycles uint64) { timerTicks += cycles })

	tk.Tick(100) // 1100 PSX-clock units at granularity 11
	tk.SyncDevice(DeviceTimers)
	assert.Equal(t, uint64(100), timerTicks)
}

func TestSyncAllCatchesUpEveryDevice(t *testing.T) {
	tk := New()

	calls := map[Device]uint64{}
	for _, d := range []Device{DeviceGPU, DeviceCDROM, DeviceSPU, DeviceTimers, DeviceSIO0} {
		dev := d
		tk.SetDevice(dev, func(cycles uint64) { calls[dev] += cycles })
	}

	tk.Tick(768) // 8448 PSX-clock units
	tk.SyncAll()

	assert.Equal(t, uint64(8448/7), calls[DeviceGPU])
	assert.Equal(t, uint64(1), calls[DeviceCDROM])
	assert.Equal(t, uint64(1), calls[DeviceSPU])
	assert.Equal(t, uint64(768), calls[DeviceTimers])
	assert.Equal(t, uint64(768), calls[DeviceSIO0])
	assert.Equal(t, uint64(0), tk.Elapsed(), "SyncAll marks the sync point")
}

func TestSyncDMACReturnsElapsedDMACycles(t *testing.T) {
	tk := New()

	tk.Tick(3) // 33 PSX-clock units at granularity 11
	assert.Equal(t, uint64(3), tk.SyncDMAC())
	assert.Equal(t, uint64(0), tk.SyncDMAC(), "cursor advanced")

	tk.Tick(1)
	assert.Equal(t, uint64(1), tk.SyncDMAC())
}

func TestResetPreservesCallbacks(t *testing.T) {
	tk := New()

	var n uint64
	tk.SetDevice(DeviceTimers, func(cycles uint64) { n += cycles })

	tk.Tick(10)
	tk.Reset()
	assert.Equal(t, uint64(0), tk.Elapsed())

	tk.Tick(1)
	tk.SyncDevice(DeviceTimers)
	assert.Equal(t, uint64(1), n, "callback survives Reset")
}
