package spu

// VoiceRegSize is the byte span of one voice's register block.
const VoiceRegSize = 0x10

// nrSamples is the number of PCM samples one decoded ADPCM block yields.
const nrSamples = 28

// Voice is one of the SPU's 24 sample-playback channels: ADPCM
// decoder, Gaussian-interpolated resampler, and ADSR envelope.
type Voice struct {
	counter uint32

	volume Volume

	pitch     uint16
	Modulator int16

	startAddress   uint32
	repeatAddress  uint32
	currentAddress uint32

	repeatAddressWritten bool

	endxFlag bool
	reverb   bool
	noise    bool

	adsr Adsr

	samples     [nrSamples]int16
	prevSamples [2]int16
	lastSamples [4]int16
}

// VoiceIndexFromAddress splits a voice-register-space address into
// (voice index, byte offset within the voice).
func VoiceIndexFromAddress(address uint32) (voice int, offset int) {
	return int((address & 0x1f0) >> 4), int(address & 0xf)
}

// Disabled reports whether the envelope has fully released.
func (v *Voice) Disabled() bool { return v.adsr.State == AdsrDisabled }

// ReverbEnabled reports whether this voice's last sample should be
// routed into the reverb input mix.
func (v *Voice) ReverbEnabled() bool { return v.reverb }

// KeyOn restarts playback from the start address and begins the
// attack phase.
func (v *Voice) KeyOn() {
	v.adsr.State = AdsrAttack
	v.adsr.Volume = 0
	v.adsr.Cycles = 0

	v.currentAddress = v.startAddress

	if !v.repeatAddressWritten {
		v.repeatAddress = v.startAddress
	}
	v.repeatAddressWritten = false
}

// KeyOff begins the release phase.
func (v *Voice) KeyOff() {
	v.adsr.State = AdsrRelease
	v.adsr.Cycles = 0
}

// EndX reads and clears the loop-end-reached sticky flag.
func (v *Voice) EndX() bool {
	e := v.endxFlag
	v.endxFlag = false
	return e
}

// SetNoise enables or disables noise-generator substitution for this voice.
func (v *Voice) SetNoise(state bool) { v.noise = state }

// EchoOn marks this voice's output as reverb-routed for the current sample.
func (v *Voice) EchoOn() { v.reverb = true }

func (v *Voice) sampleIndex() int { return int(v.counter >> 12) }

func (v *Voice) gaussIndex() int { return int((v.counter & 0xff0) >> 4) }

func (v *Voice) getSample(index int) int16 {
	if index < 0 {
		return v.lastSamples[index+4]
	}
	return v.samples[index]
}

func (v *Voice) interpolate(index int) float32 {
	gaussIndex := v.gaussIndex()

	s1 := int32(v.getSample(index - 3))
	s2 := int32(v.getSample(index - 2))
	s3 := int32(v.getSample(index - 1))
	s4 := int32(v.getSample(index - 0))

	var out int32
	out += (gaussTable[0x0ff-gaussIndex] * s1) >> 15
	out += (gaussTable[0x1ff-gaussIndex] * s2) >> 15
	out += (gaussTable[0x100+gaussIndex] * s3) >> 15
	out += (gaussTable[0x000+gaussIndex] * s4) >> 15

	return i16ToF32(int16(out))
}

// GetSamples returns this voice's left/right contribution for the
// current sample tick, advancing its envelope.
func (v *Voice) GetSamples(noise bool, noiseLevel float32) (left, right float32) {
	index := v.sampleIndex()

	v.adsr.Update()

	var sample float32
	if noise {
		sample = noiseLevel
	} else {
		sample = v.interpolate(index)
	}

	sample *= i16ToF32(v.adsr.Volume)

	v.Modulator = f32ToI16(sample)

	return sample * v.volume.L(), sample * v.volume.R()
}

func (v *Voice) updateSampleIndex() {
	newIndex := v.sampleIndex() - nrSamples
	v.counter &= 0xfff
	v.counter |= uint32(newIndex) << 12
}

func (v *Voice) decodeSamples(ram *SpuRam) {
	header := ram.MemoryRead16(v.currentAddress)
	flags := header >> 8
	filter := int((header & 0xf0) >> 4)
	shift := header & 0xf
	if shift > 12 {
		shift = 8
	}

	if filter > 4 {
		filter = 0
	}

	if flags&0x4 != 0 {
		v.repeatAddress = v.currentAddress
	}

	for i := 0; i < 7; i++ {
		v.currentAddress += 2
		v.currentAddress &= 0x7ffff

		samples := ram.MemoryRead16(v.currentAddress)

		for j := 0; j < 4; j++ {
			sample := int32(int16(samples << 12))
			sample >>= shift

			quant := int32(32)
			quant += int32(v.prevSamples[0]) * int32(adpcmFilters[filter][0])
			quant -= int32(v.prevSamples[1]) * int32(adpcmFilters[filter][1])

			sample = clip32(sample+quant/64, -0x8000, 0x7fff)

			v.samples[i*4+j] = int16(sample)
			v.prevSamples[1] = v.prevSamples[0]
			v.prevSamples[0] = int16(sample)

			samples >>= 4
		}
	}

	v.currentAddress += 2
	v.currentAddress &= 0x7ffff

	if flags&0x1 != 0 {
		v.endxFlag = true
		v.currentAddress = v.repeatAddress

		if flags&0x2 == 0 && !v.noise {
			v.KeyOff()
			v.adsr.Volume = 0
		}
	}
}

// Update advances the voice's resample counter by one SPU sample
// tick, pulling fresh ADPCM blocks from ram as the sample buffer runs
// dry. modulate/modulator implement pitch-modulation-by-previous-voice
// (PMON).
func (v *Voice) Update(ram *SpuRam, modulate bool, modulator int16) {
	step := uint32(v.pitch)

	if modulate {
		factor := uint32(int32(modulator) + 0x8000)
		step = uint32(int16(step))
		step = (step * factor) >> 15
		step &= 0xffff
	}

	if step > 0x4000 {
		step = 0x4000
	}
	v.counter += step

	v.reverb = false

	if v.sampleIndex() >= nrSamples {
		v.updateSampleIndex()

		v.lastSamples[0] = v.samples[24]
		v.lastSamples[1] = v.samples[25]
		v.lastSamples[2] = v.samples[26]
		v.lastSamples[3] = v.samples[27]

		v.decodeSamples(ram)
	}
}

// Read16 reads one of the voice's 8 half-word registers at offset (0..0xe).
func (v *Voice) Read16(offset int) uint16 {
	switch offset {
	case 0x0:
		return uint16(v.volume.Left) >> 1
	case 0x2:
		return uint16(v.volume.Right) >> 1
	case 0x4:
		return v.pitch
	case 0x6:
		return uint16(v.startAddress / 8)
	case 0x8:
		return uint16(v.adsr.Config)
	case 0xa:
		return uint16(v.adsr.Config >> 16)
	case 0xc:
		return uint16(v.adsr.Volume)
	case 0xe:
		return uint16(v.repeatAddress / 8)
	default:
		return 0
	}
}

// Write16 writes one of the voice's 8 half-word registers at offset (0..0xe).
func (v *Voice) Write16(offset int, value uint16) {
	switch offset {
	case 0x0:
		v.volume.Left = int16(value << 1)
	case 0x2:
		v.volume.Right = int16(value << 1)
	case 0x4:
		v.pitch = value
	case 0x6:
		v.startAddress = uint32(value) * 8
	case 0x8:
		v.adsr.Config &= 0xffff0000
		v.adsr.Config |= uint32(value)
	case 0xa:
		v.adsr.Config &= 0xffff
		v.adsr.Config |= uint32(value) << 16
	case 0xc:
		v.adsr.Volume = int16(value)
	case 0xe:
		v.repeatAddress = uint32(value) * 8
		v.repeatAddressWritten = true
	}
}

func clip32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
