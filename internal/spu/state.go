package spu

// State is an exported snapshot of the SPU, used by internal/system's
// save-state support.
type State struct {
	CDLeftBuffer, CDRightBuffer []int16

	CaptureIndex uint32

	SoundRAM SpuRamState

	Voices [voiceCount]VoiceState

	MainVolume, ReverbVolume Volume

	KeyOn, KeyOff, Endx, EchoOn uint32

	ModulateOn uint32

	NoiseOn    uint32
	NoiseTimer int
	NoiseLevel int16

	Control ControlState

	Reverb ReverbState

	DataTransfer DataTransferState

	IRQStatus bool

	WritingToCaptureBufferHalf bool
	DataTransferBusy           bool
	DataTransferDMARead        bool
	DataTransferDMAWrite       bool

	CDVolume, ExternVolume, CurrentVolume Volume
}

// SpuRamState mirrors the dedicated sound-RAM bank and its IRQ
// watchpoint.
type SpuRamState struct {
	Data       [ramSize]uint16
	IRQAddress uint32
	IRQPending bool
}

// VoiceState mirrors one playback voice, including its ADSR envelope.
type VoiceState struct {
	Counter uint32
	Volume  Volume

	Pitch     uint16
	Modulator int16

	StartAddress   uint32
	RepeatAddress  uint32
	CurrentAddress uint32

	RepeatAddressWritten bool

	EndxFlag bool
	Reverb   bool
	Noise    bool

	Adsr Adsr

	Samples     [nrSamples]int16
	PrevSamples [2]int16
	LastSamples [4]int16
}

// ControlState mirrors the SPU's main control register.
type ControlState struct {
	Enable         bool
	Mute           bool
	NoiseClock     uint16
	ReverbEnable   bool
	IRQ9Enable     bool
	TransferMode   int
	ExternalReverb bool
	CDReverb       bool
	ExternalEnable bool
	CDEnable       bool
}

// ReverbState mirrors the reverb network's working registers.
type ReverbState struct {
	Counter       int
	Output        [2]float32
	BufferAddress uint32
	Mbase         uint32
	Dapf1, Dapf2  uint32

	Viir, Vcomb1, Vcomb2, Vcomb3, Vcomb4, Vwall, Vapf1, Vapf2 int16

	Msame, Mcomb1, Mcomb2 [2]uint32
	Dsame                 [2]uint32

	Mdiff, Mcomb3, Mcomb4 [2]uint32
	Ddiff                 [2]uint32

	Mapf1, Mapf2 [2]uint32

	Vin [2]int16
}

// DataTransferState mirrors the CPU/DMA sound-RAM transfer cursor and FIFO.
type DataTransferState struct {
	Address uint32
	Current uint32
	FIFO    []uint16
	Control uint16
}

func copyUint16Slice(src []uint16) []uint16 {
	out := make([]uint16, len(src))
	copy(out, src)
	return out
}

func voiceToState(v *Voice) VoiceState {
	return VoiceState{
		Counter: v.counter, Volume: v.volume,
		Pitch: v.pitch, Modulator: v.Modulator,
		StartAddress: v.startAddress, RepeatAddress: v.repeatAddress, CurrentAddress: v.currentAddress,
		RepeatAddressWritten: v.repeatAddressWritten,
		EndxFlag:             v.endxFlag, Reverb: v.reverb, Noise: v.noise,
		Adsr:        v.adsr,
		Samples:     v.samples,
		PrevSamples: v.prevSamples,
		LastSamples: v.lastSamples,
	}
}

func stateToVoice(s VoiceState) Voice {
	return Voice{
		counter: s.Counter, volume: s.Volume,
		pitch: s.Pitch, Modulator: s.Modulator,
		startAddress: s.StartAddress, repeatAddress: s.RepeatAddress, currentAddress: s.CurrentAddress,
		repeatAddressWritten: s.RepeatAddressWritten,
		endxFlag:             s.EndxFlag, reverb: s.Reverb, noise: s.Noise,
		adsr:        s.Adsr,
		samples:     s.Samples,
		prevSamples: s.PrevSamples,
		lastSamples: s.LastSamples,
	}
}

func controlToState(c control) ControlState {
	return ControlState{
		Enable: c.enable, Mute: c.mute, NoiseClock: c.noiseClock,
		ReverbEnable: c.reverbEnable, IRQ9Enable: c.irq9Enable,
		TransferMode:   int(c.transferMode),
		ExternalReverb: c.externalReverb, CDReverb: c.cdReverb,
		ExternalEnable: c.externalEnable, CDEnable: c.cdEnable,
	}
}

func stateToControl(s ControlState) control {
	return control{
		enable: s.Enable, mute: s.Mute, noiseClock: s.NoiseClock,
		reverbEnable: s.ReverbEnable, irq9Enable: s.IRQ9Enable,
		transferMode:   transferMode(s.TransferMode),
		externalReverb: s.ExternalReverb, cdReverb: s.CDReverb,
		externalEnable: s.ExternalEnable, cdEnable: s.CDEnable,
	}
}

func reverbToState(r *Reverb) ReverbState {
	return ReverbState{
		Counter: r.counter, Output: r.output,
		BufferAddress: r.bufferAddress, Mbase: r.mbase,
		Dapf1: r.dapf1, Dapf2: r.dapf2,
		Viir: r.viir, Vcomb1: r.vcomb1, Vcomb2: r.vcomb2, Vcomb3: r.vcomb3, Vcomb4: r.vcomb4,
		Vwall: r.vwall, Vapf1: r.vapf1, Vapf2: r.vapf2,
		Msame: r.msame, Mcomb1: r.mcomb1, Mcomb2: r.mcomb2, Dsame: r.dsame,
		Mdiff: r.mdiff, Mcomb3: r.mcomb3, Mcomb4: r.mcomb4, Ddiff: r.ddiff,
		Mapf1: r.mapf1, Mapf2: r.mapf2,
		Vin: r.vin,
	}
}

func stateToReverb(s ReverbState) Reverb {
	return Reverb{
		counter: s.Counter, output: s.Output,
		bufferAddress: s.BufferAddress, mbase: s.Mbase,
		dapf1: s.Dapf1, dapf2: s.Dapf2,
		viir: s.Viir, vcomb1: s.Vcomb1, vcomb2: s.Vcomb2, vcomb3: s.Vcomb3, vcomb4: s.Vcomb4,
		vwall: s.Vwall, vapf1: s.Vapf1, vapf2: s.Vapf2,
		msame: s.Msame, mcomb1: s.Mcomb1, mcomb2: s.Mcomb2, dsame: s.Dsame,
		mdiff: s.Mdiff, mcomb3: s.Mcomb3, mcomb4: s.Mcomb4, ddiff: s.Ddiff,
		mapf1: s.Mapf1, mapf2: s.Mapf2,
		vin: s.Vin,
	}
}

// State returns a snapshot of the SPU.
func (s *Spu) State() State {
	var st State
	st.CDLeftBuffer = copyInt16Slice(s.cdLeftBuffer)
	st.CDRightBuffer = copyInt16Slice(s.cdRightBuffer)
	st.CaptureIndex = s.captureIndex
	st.SoundRAM = SpuRamState{Data: s.soundRAM.data, IRQAddress: s.soundRAM.irqAddress, IRQPending: s.soundRAM.irqPending}
	for i := range s.voice {
		st.Voices[i] = voiceToState(&s.voice[i])
	}
	st.MainVolume, st.ReverbVolume = s.mainVolume, s.reverbVolume
	st.KeyOn, st.KeyOff, st.Endx, st.EchoOn = s.keyOn, s.keyOff, s.endx, s.echoOn
	st.ModulateOn = s.modulateOn
	st.NoiseOn, st.NoiseTimer, st.NoiseLevel = s.noiseOn, s.noiseTimer, s.noiseLevel
	st.Control = controlToState(s.control)
	st.Reverb = reverbToState(&s.reverb)
	st.DataTransfer = DataTransferState{
		Address: s.dataTransfer.address, Current: s.dataTransfer.current,
		FIFO: copyUint16Slice(s.dataTransfer.fifo), Control: s.dataTransfer.control,
	}
	st.IRQStatus = s.irqStatus
	st.WritingToCaptureBufferHalf = s.writingToCaptureBufferHalf
	st.DataTransferBusy = s.dataTransferBusy
	st.DataTransferDMARead = s.dataTransferDMARead
	st.DataTransferDMAWrite = s.dataTransferDMAWrite
	st.CDVolume, st.ExternVolume, st.CurrentVolume = s.cdVolume, s.externVolume, s.currentVolume
	return st
}

// SetState restores a previously captured snapshot.
func (s *Spu) SetState(st State) {
	s.cdLeftBuffer = copyInt16Slice(st.CDLeftBuffer)
	s.cdRightBuffer = copyInt16Slice(st.CDRightBuffer)
	s.captureIndex = st.CaptureIndex
	s.soundRAM = SpuRam{data: st.SoundRAM.Data, irqAddress: st.SoundRAM.IRQAddress, irqPending: st.SoundRAM.IRQPending}
	for i := range st.Voices {
		s.voice[i] = stateToVoice(st.Voices[i])
	}
	s.mainVolume, s.reverbVolume = st.MainVolume, st.ReverbVolume
	s.keyOn, s.keyOff, s.endx, s.echoOn = st.KeyOn, st.KeyOff, st.Endx, st.EchoOn
	s.modulateOn = st.ModulateOn
	s.noiseOn, s.noiseTimer, s.noiseLevel = st.NoiseOn, st.NoiseTimer, st.NoiseLevel
	s.control = stateToControl(st.Control)
	s.reverb = stateToReverb(st.Reverb)
	s.dataTransfer = dataTransfer{
		address: st.DataTransfer.Address, current: st.DataTransfer.Current,
		fifo: copyUint16Slice(st.DataTransfer.FIFO), control: st.DataTransfer.Control,
	}
	s.irqStatus = st.IRQStatus
	s.writingToCaptureBufferHalf = st.WritingToCaptureBufferHalf
	s.dataTransferBusy = st.DataTransferBusy
	s.dataTransferDMARead = st.DataTransferDMARead
	s.dataTransferDMAWrite = st.DataTransferDMAWrite
	s.cdVolume, s.externVolume, s.currentVolume = st.CDVolume, st.ExternVolume, st.CurrentVolume
}

func copyInt16Slice(src []int16) []int16 {
	out := make([]int16, len(src))
	copy(out, src)
	return out
}
