// Package mixer combines the primary PSG and Super Game Module PSG's
// per-cycle samples into a single host-rate audio stream. It mixes at the
// chips' native 224010 Hz tick rate and resamples once per frame using a
// cycle-accumulator/linear-interpolation technique, the same shape jeebie's
// APU uses to downsample its own generators to a host rate, substituted
// for the original implementation's speex resampler (no pure-Go speex
// binding exists in the dependency pack).
package mixer

import "fmt"

// NativeRate is the rate, in Hz, at which both PSGs are ticked (one tick
// per 16 Z80 cycles at the ColecoVision's ~3.58 MHz clock).
const NativeRate = 224010

// maxSamplesPerFrame bounds the per-frame native-rate buffers, matching the
// original implementation's fixed PSG sample buffer size.
const maxSamplesPerFrame = 4600

var validRates = map[int]bool{44100: true, 48000: true, 96000: true, 192000: true}

// Mixer accumulates one frame's worth of native-rate PSG samples, then
// mixes and resamples them to the configured output rate on EndFrame.
type Mixer struct {
	sampleRate int
	frameRate  int
	quality    int

	psgBuf [maxSamplesPerFrame]int16
	sgmBuf [maxSamplesPerFrame]int16
	count  int
	sgmN   int

	acc   float64
	ratio float64

	out []int16
}

// New creates a Mixer defaulting to 48000 Hz output, a 60 Hz frame rate,
// and resample quality 3 (matching the configuration defaults).
func New() *Mixer {
	m := &Mixer{sampleRate: 48000, frameRate: 60, quality: 3}
	m.updateRatio()
	return m
}

func (m *Mixer) updateRatio() {
	m.ratio = float64(NativeRate) / float64(m.sampleRate)
}

// SetSampleRate configures the output sample rate. Only 44100, 48000,
// 96000, and 192000 are accepted, matching the hardware-faithful rate
// set; anything else is rejected rather than silently clamped.
func (m *Mixer) SetSampleRate(rate int) error {
	if !validRates[rate] {
		return fmt.Errorf("mixer: unsupported sample rate %d", rate)
	}
	m.sampleRate = rate
	m.updateRatio()
	return nil
}

// SetQuality configures the resample quality knob, 0-10. This
// implementation always resamples with linear interpolation regardless of
// quality (see the package doc comment); the knob is retained so callers
// migrating a configuration file don't need special-casing, and is
// rejected outside its original valid range.
func (m *Mixer) SetQuality(q int) error {
	if q < 0 || q > 10 {
		return fmt.Errorf("mixer: quality %d out of range", q)
	}
	m.quality = q
	return nil
}

// SetFrameRate configures the frame rate used to size the resampled
// output, 50 (PAL) or 60 (NTSC).
func (m *Mixer) SetFrameRate(rate int) {
	m.frameRate = rate
}

// BeginFrame resets the per-frame sample counters. It must be called once
// at the start of every frame, before any PushPSG/PushSGM calls.
func (m *Mixer) BeginFrame() {
	m.count = 0
	m.sgmN = 0
}

// PushPSG appends one native-rate sample from the primary PSG.
func (m *Mixer) PushPSG(sample int16) {
	if m.count >= maxSamplesPerFrame {
		return
	}
	m.psgBuf[m.count] = sample
	m.count++
}

// PushSGM appends one native-rate sample from the Super Game Module PSG,
// at the same native-rate cadence as PushPSG (the scheduler ticks both
// PSGs together, so calls to PushPSG and PushSGM are always paired). The
// console pushes an SGM sample on every tick, whether or not the
// cartridge uses the Super Game Module.
func (m *Mixer) PushSGM(sample int16) {
	if m.sgmN >= maxSamplesPerFrame {
		return
	}
	m.sgmBuf[m.sgmN] = sample
	m.sgmN++
}

// PSGSampleCount reports how many native-rate samples have been pushed
// from the primary PSG so far this frame.
func (m *Mixer) PSGSampleCount() int { return m.count }

// SGMSampleCount reports how many native-rate samples have been pushed
// from the Super Game Module PSG so far this frame.
func (m *Mixer) SGMSampleCount() int { return m.sgmN }

// EndFrame mixes the frame's accumulated samples and resamples them to
// the configured output rate, returning interleaved-mono (single channel)
// int16 PCM. The mix is bounded by the primary PSG's sample count even
// when the SGM PSG produced more or fewer samples, matching the original
// mixing routine's length convention.
func (m *Mixer) EndFrame() []int16 {
	n := m.count
	mixed := make([]int16, n)
	for i := 0; i < n; i++ {
		sum := int32(m.psgBuf[i])
		if i < m.sgmN {
			sum += int32(m.sgmBuf[i])
		}
		mixed[i] = clampInt16(sum)
	}

	outSamps := m.sampleRate / m.frameRate
	m.out = m.out[:0]
	if cap(m.out) < outSamps {
		m.out = make([]int16, 0, outSamps)
	}

	for i := 0; i < outSamps; i++ {
		pos := m.acc
		idx := int(pos)
		frac := pos - float64(idx)

		var s0, s1 int16
		if idx < n {
			s0 = mixed[idx]
		} else if n > 0 {
			s0 = mixed[n-1]
		}
		if idx+1 < n {
			s1 = mixed[idx+1]
		} else {
			s1 = s0
		}

		v := float64(s0) + (float64(s1)-float64(s0))*frac
		m.out = append(m.out, int16(v))
		m.acc += m.ratio
	}
	if n > 0 {
		m.acc -= float64(n)
		if m.acc < 0 {
			m.acc = 0
		}
	}

	return m.out
}

func clampInt16(v int32) int16 {
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	default:
		return int16(v)
	}
}
