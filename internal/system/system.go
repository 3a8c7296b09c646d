// Package system wires every device into one emulated PlayStation:
// the memory interconnect, CPU+GTE, interrupt controller, timers,
// DMA, GPU, CD-ROM, SPU, MDEC, and SIO0, all driven by the
// timekeeper's per-device catch-up schedule. It owns the single
// instruction-stepping loop and the host-facing accessors (framebuffer,
// audio, controller, text sink) spec.md §6 describes.
package system

import (
	"fmt"
	"time"

	"psx-core/internal/cdrom"
	"psx-core/internal/clock"
	"psx-core/internal/cpu"
	"psx-core/internal/debug"
	"psx-core/internal/dma"
	"psx-core/internal/gpu"
	"psx-core/internal/gte"
	"psx-core/internal/intc"
	"psx-core/internal/mdec"
	"psx-core/internal/memory"
	"psx-core/internal/sio0"
	"psx-core/internal/spu"
	"psx-core/internal/timer"
)

// System is the top-level emulator: every device it owns, wired
// together, plus the frame-pacing and performance bookkeeping a host
// loop needs.
type System struct {
	Bus    *memory.Bus
	CPU    *cpu.CPU
	GTE    *gte.GTE
	INTC   *intc.Intc
	Timers *timer.Timers
	DMA    *dma.Dmac
	GPU    *gpu.GPU
	CDROM  *cdrom.Cdrom
	SPU    *spu.Spu
	MDEC   *mdec.Mdec
	SIO0   *sio0.Sio0

	Clock  *clock.Timekeeper
	Logger *debug.Logger

	FrameLimitEnabled bool
	TargetFPS         float64
	frameTime         time.Duration
	lastFrameTime     time.Time

	FPS           float64
	frameCount    uint64
	fpsUpdateTime time.Time

	textLine []byte
}

// New assembles a System per cfg: it loads the BIOS, opens (or stubs)
// the disc container, opens the memory card, and wires every device's
// IOPort and interrupt/DMA/timekeeper connections.
func New(cfg Config) (*System, error) {
	logger := debug.NewLogger(10000)
	for _, c := range cfg.LogComponents {
		logger.SetComponentEnabled(c, true)
	}
	logger.SetMinLevel(cfg.LogLevel)

	s := &System{Logger: logger}

	bus := memory.New()
	bus.SetLogger(logger)

	bios, err := readFile(cfg.BIOSPath)
	if err != nil {
		return nil, fmt.Errorf("system: %w", err)
	}
	if err := bus.LoadBIOS(bios); err != nil {
		return nil, fmt.Errorf("system: %w", err)
	}

	var disc cdrom.Container
	if cfg.DiscPath != "" {
		bin, err := cdrom.OpenBin(cfg.DiscPath)
		if err != nil {
			logger.Logf(debug.ComponentSystem, debug.LogLevelWarning, "failed to open disc %q: %v; running with no disk", cfg.DiscPath, err)
			disc = cdrom.NoDiskContainer{}
		} else {
			disc = bin
		}
	} else {
		disc = cdrom.NoDiskContainer{}
	}

	ic := intc.New()
	timers := timer.New()
	gpuDev := gpu.New()
	cdromDev := cdrom.New(disc, logger)
	spuDev := spu.New(logger)
	mdecDev := mdec.New(logger)
	gteDev := gte.New()

	memCardPath := cfg.MemoryCardPath
	if memCardPath == "" {
		memCardPath = "memcard1.mcr"
	}
	sio0Dev, err := sio0.New(memCardPath, logger)
	if err != nil {
		return nil, fmt.Errorf("system: %w", err)
	}

	dmac := dma.New(bus, gpuDev, cdromDev, spuDev, mdecDev, ic)
	cpuDev := cpu.New(bus, gteDev, logger)

	bus.INTC = ic
	bus.Timers = timers
	bus.DMA = dmac
	bus.GPU = gpuDev
	bus.CDROM = cdromDev
	bus.SPU = spuDev
	bus.MDEC = mdecDev
	bus.SIO0 = sio0Dev
	bus.TextSink = s.writeTextSink

	tk := clock.New()
	tk.SetDevice(clock.DeviceGPU, func(cycles uint64) {
		gpuDev.Tick(ic, timers, uint32(cycles))
	})
	tk.SetDevice(clock.DeviceCDROM, func(cycles uint64) {
		cdromDev.Tick(ic, spuDev, cycles)
	})
	tk.SetDevice(clock.DeviceSPU, func(cycles uint64) {
		for i := uint64(0); i < cycles; i++ {
			spuDev.Tick(ic)
		}
	})
	tk.SetDevice(clock.DeviceTimers, func(cycles uint64) {
		timers.Tick(ic, uint32(cycles))
	})
	tk.SetDevice(clock.DeviceSIO0, func(cycles uint64) {
		sio0Dev.Tick(ic, cycles)
	})

	s.Bus = bus
	s.CPU = cpuDev
	s.GTE = gteDev
	s.INTC = ic
	s.Timers = timers
	s.DMA = dmac
	s.GPU = gpuDev
	s.CDROM = cdromDev
	s.SPU = spuDev
	s.MDEC = mdecDev
	s.SIO0 = sio0Dev
	s.Clock = tk

	s.FrameLimitEnabled = true
	s.TargetFPS = 60.0
	s.frameTime = time.Second / 60
	s.lastFrameTime = time.Now()
	s.fpsUpdateTime = time.Now()

	return s, nil
}

// Reset performs a hard reset: every FIFO clears, PC returns to the
// BIOS entry point, and COP0 resets to BEV=1/TS=1 (spec.md §5,
// "Cancellation").
func (s *System) Reset() {
	s.CPU.Reset()
	s.GTE.Reset()
	s.INTC.Reset()
	s.Timers.Reset()
	s.DMA.Reset()
	s.GPU.Reset()
	s.CDROM.Reset()
	s.SPU.Reset()
	s.MDEC.Reset()
	s.SIO0.Reset()
	s.Clock.Reset()
}

// Step executes exactly one CPU instruction and catches every device
// up to the resulting cycle count, per spec.md §5's per-instruction
// ordering: execute, bus effects (including any inline DMA burst the
// store armed), then timekeeper catch-up, then the next step observes
// any newly-pending interrupt.
func (s *System) Step() error {
	if err := s.CPU.Step(); err != nil {
		return err
	}

	s.Clock.Tick(1)
	s.Clock.SyncAll()
	s.Clock.SyncDMAC()

	s.CPU.SetHardwareInterrupt(s.INTC.Pending())
	return nil
}

// RunFrame steps the CPU until the GPU reports a completed frame (a
// Vblank edge), then flushes the memory card and paces the host to
// TargetFPS if frame limiting is enabled.
func (s *System) RunFrame() error {
	for {
		if err := s.Step(); err != nil {
			return fmt.Errorf("system: %w", err)
		}
		if s.GPU.FrameComplete() {
			break
		}
	}

	s.SIO0.Sync()

	s.frameCount++
	now := time.Now()
	if now.Sub(s.fpsUpdateTime) >= time.Second {
		s.FPS = float64(s.frameCount) / now.Sub(s.fpsUpdateTime).Seconds()
		s.frameCount = 0
		s.fpsUpdateTime = now
	}

	if s.FrameLimitEnabled {
		elapsed := now.Sub(s.lastFrameTime)
		if elapsed < s.frameTime {
			time.Sleep(s.frameTime - elapsed)
		}
	}
	s.lastFrameTime = time.Now()

	return nil
}

// Framebuffer returns the RGB24 display-area (or full-VRAM, for
// debugging) framebuffer for the host to present.
func (s *System) Framebuffer(fullVRAM bool) []byte {
	return s.GPU.Framebuffer(fullVRAM)
}

// DrainSamples returns, and clears, the interleaved L/R 16-bit PCM
// samples accumulated since the last call.
func (s *System) DrainSamples() []int16 {
	return s.SPU.DrainSamples()
}

// Controller returns the attached gamepad for the host to write
// per-frame button/axis state into.
func (s *System) Controller() *sio0.Controller {
	return s.SIO0.Controller()
}

// SetFrameLimit toggles host-side frame pacing.
func (s *System) SetFrameLimit(enabled bool) {
	s.FrameLimitEnabled = enabled
}

// writeTextSink line-buffers Expansion-2 DUART THRA writes and emits
// completed lines to the logger, per spec.md §6's "persisted text
// sink".
func (s *System) writeTextSink(b byte) {
	if b == '\n' {
		s.Logger.Log(debug.ComponentSystem, debug.LogLevelInfo, string(s.textLine), nil)
		s.textLine = s.textLine[:0]
		return
	}
	s.textLine = append(s.textLine, b)
}
