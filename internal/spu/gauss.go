package spu

// gaussTable holds the 512-entry fixed-point Gaussian interpolation
// kernel used by Voice.interpolate: gaussTable[0x1ff-i] and
// gaussTable[0x100+i] are the two middle taps, gaussTable[0x0ff-i] and
// gaussTable[0x000+i] the two outer taps, for fractional position i/256.
//
// The original_source retrieval for this spec did not include the file
// defining this table, so it is generated here rather than ported: a
// symmetric raised-cosine kernel scaled to Q15 and split into the same
// four interleaved quadrants the real hardware table uses. The lobe is
// zero beyond 2/3 of a sample, so the two outer taps are always zero
// and only the two middle samples contribute. This reproduces the
// qualitative rolloff (smooth fractional-position resampling, unity DC
// gain since the taps sum to 1) without claiming
// bit-exactness with the ROM table PSX hardware actually ships.
var gaussTable [512]int32

func init() {
	const n = 256
	for i := 0; i < n; i++ {
		frac := float64(i) / float64(n)

		w := func(x float64) float64 {
			// raised-cosine shaped lobe, height 1 at x=0.
			t := x * 1.5
			if t < -1 || t > 1 {
				return 0
			}
			return 0.5 * (1 + cosApprox(3.14159265358979*t))
		}

		t1 := w(-1 - frac)
		t2 := w(0 - frac)
		t3 := w(1 - frac)
		t4 := w(2 - frac)

		sum := t1 + t2 + t3 + t4
		if sum != 0 {
			t1, t2, t3, t4 = t1/sum, t2/sum, t3/sum, t4/sum
		}

		gaussTable[0x0ff-i] = int32(t1 * 0x8000)
		gaussTable[0x1ff-i] = int32(t2 * 0x8000)
		gaussTable[0x100+i] = int32(t3 * 0x8000)
		gaussTable[0x000+i] = int32(t4 * 0x8000)
	}
}

// cosApprox is a small-order Taylor cosine, adequate for the smooth
// envelope shaping above; this isn't on any hot path (table build is
// one-time, at package init).
func cosApprox(x float64) float64 {
	x2 := x * x
	return 1 - x2/2 + x2*x2/24 - x2*x2*x2/720
}
