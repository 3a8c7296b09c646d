// Package clock implements the Timekeeper: a single master cycle counter
// with per-device catch-up granularities, so each device only re-syncs
// when enough PSX-clock units have accumulated to matter.
package clock

// Device identifies one of the catch-up-scheduled peripherals.
type Device int

const (
	DeviceGPU Device = iota
	DeviceCDROM
	DeviceSPU
	DeviceTimers
	DeviceSIO0
	deviceCount
)

var granularity = [deviceCount]uint64{
	DeviceGPU:    7,
	DeviceCDROM:  8448,
	DeviceSPU:    8448,
	DeviceTimers: 11,
	DeviceSIO0:   11,
}

const dmacGranularity = 11

// Timekeeper is the master PSX-clock counter driving every device's tick
// callback at its own granularity.
type Timekeeper struct {
	now      uint64
	lastSync uint64

	deviceTime [deviceCount]uint64
	dmacTime   uint64

	step [deviceCount]func(cycles uint64)
}

// New returns a Timekeeper with all device callbacks unset; wire each with
// SetDevice before the first Tick.
func New() *Timekeeper {
	return &Timekeeper{}
}

// SetDevice registers the catch-up callback for a device. fn is called
// with the number of that device's own cycles to run, not PSX-clock units.
func (tk *Timekeeper) SetDevice(d Device, fn func(cycles uint64)) {
	tk.step[d] = fn
}

// Reset zeroes the master counter and every device's catch-up cursor.
func (tk *Timekeeper) Reset() {
	*tk = Timekeeper{step: tk.step}
}

// Tick advances the master counter by cycles CPU cycles (11 PSX-clock
// units each).
func (tk *Timekeeper) Tick(cycles uint64) {
	tk.now += cycles * 11
}

// SyncAll catches up every device to the current master cycle and marks
// this instant as the last full sync point.
func (tk *Timekeeper) SyncAll() {
	tk.lastSync = tk.now
	for d := Device(0); d < deviceCount; d++ {
		tk.SyncDevice(d)
	}
}

// SyncDevice catches up a single device to the current master cycle.
func (tk *Timekeeper) SyncDevice(d Device) {
	elapsed := tk.now - tk.deviceTime[d]
	cycles := elapsed / granularity[d]

	tk.deviceTime[d] += cycles * granularity[d]

	if tk.step[d] != nil {
		tk.step[d](cycles)
	}
}

// SyncDMAC returns the number of DMA-granularity cycles that have elapsed
// since the DMA engine was last caught up, advancing its cursor in turn.
func (tk *Timekeeper) SyncDMAC() uint64 {
	elapsed := tk.now - tk.dmacTime
	cycles := elapsed / dmacGranularity

	tk.dmacTime += cycles * dmacGranularity
	return cycles
}

// Elapsed returns the number of CPU cycles since the last SyncAll.
func (tk *Timekeeper) Elapsed() uint64 {
	return (tk.now - tk.lastSync) / 11
}
