// Package psg implements the ColecoVision's primary sound generator, an
// SN76489: three tone channels and one LFSR-driven noise channel.
package psg

import "github.com/tanagra/coleco/serial"

// volumeTable is the attenuator-to-amplitude lookup, taken from the
// smspower attenuation table and divided by 4, so the sum of all four
// channels fits in an int16. Index 15 is silence.
var volumeTable = [16]int16{
	0x1FFF, 0x196B, 0x1431, 0x100A, 0x0CBD, 0x0A1F, 0x080A, 0x066A,
	0x0512, 0x0407, 0x0333, 0x028B, 0x0205, 0x019B, 0x0146, 0x0000,
}

const lfsrSeed = 1 << 14

// PSG is an SN76489 sound generator. Tick must be called once per 16 Z80
// cycles by the scheduler; Write accepts bytes from the bus's PSG port.
type PSG struct {
	latchedChannel uint8 // 0..3, last LATCH/DATA byte's channel select
	latchedIsVol   bool  // true if the latch selected an attenuator write

	attenuator [4]uint8  // 0..15, 15 = silence
	frequency  [3]uint16 // 10-bit tone periods
	noise      uint8     // 3-bit noise register (feedback bit + rate)

	lfsr uint16

	counter [4]uint16
	output  [4]int16
	freqff  uint8 // per-channel polarity flip-flop, one bit per channel

	mute [4]bool // debug-only channel mask; not part of the save state
}

// New creates an SN76489 in its post-reset state: silent, LFSR seeded.
func New() *PSG {
	p := &PSG{}
	p.Reset()
	return p
}

// Reset restores power-on state: all channels silenced, LFSR reseeded.
func (p *PSG) Reset() {
	for i := range p.attenuator {
		p.attenuator[i] = 0x0F
	}
	p.lfsr = lfsrSeed
	p.latchedChannel = 0
	p.latchedIsVol = false
}

// Write handles one byte sent to the PSG's write port, implementing the
// two-byte LATCH/DATA protocol.
func (p *PSG) Write(data uint8) {
	if data&0x80 != 0 {
		// LATCH/DATA byte: bits 6-5 channel, bit 4 attenuator-vs-tone,
		// bits 3-0 immediate data.
		p.latchedChannel = (data >> 5) & 0x03
		p.latchedIsVol = data&0x10 != 0

		if p.latchedIsVol {
			p.attenuator[p.latchedChannel] = data & 0x0F
		} else if p.latchedChannel < 3 {
			p.frequency[p.latchedChannel] = (p.frequency[p.latchedChannel] & 0x3F0) | uint16(data&0x0F)
		} else {
			p.noise = data & 0x07
			p.lfsr = lfsrSeed
		}
		return
	}

	// DATA byte: upper 6 bits of the latched frequency register, or
	// (channel 3) a repeat write to the noise register.
	if p.latchedIsVol {
		p.attenuator[p.latchedChannel] = data & 0x0F
		return
	}
	if p.latchedChannel < 3 {
		p.frequency[p.latchedChannel] = (p.frequency[p.latchedChannel] & 0x0F) | (uint16(data&0x3F) << 4)
	} else {
		p.noise = data & 0x07
		p.lfsr = lfsrSeed
	}
}

// Tick advances the PSG by one 16-cycle step, emitting one sample per
// channel into the internal output state. Call Sample to read the mixed
// result afterward.
func (p *PSG) Tick() {
	for ch := 0; ch < 3; ch++ {
		if p.counter[ch] > 0 {
			p.counter[ch]--
		}
		if p.counter[ch] == 0 {
			p.counter[ch] = p.frequency[ch]
			p.freqff ^= 1 << ch
			if p.freqff&(1<<ch) == 0 {
				p.output[ch] = volumeTable[p.attenuator[ch]]
			} else {
				p.output[ch] = 0
			}
		}
	}

	if p.lfsr&1 != 0 {
		p.output[3] = volumeTable[p.attenuator[3]]
	} else {
		p.output[3] = 0
	}

	if p.counter[3] > 0 {
		p.counter[3]--
	}
	if p.counter[3] == 0 {
		if p.noise&0x03 == 3 {
			p.counter[3] = p.frequency[2]
		} else {
			p.counter[3] = 0x10 << (p.noise & 0x03)
		}
		prevPolarity := p.freqff & (1 << 3)
		p.freqff ^= 1 << 3
		if prevPolarity == 0 && p.freqff&(1<<3) != 0 {
			if p.noise&0x04 != 0 {
				bit := (p.lfsr & 1) ^ ((p.lfsr >> 1) & 1)
				p.lfsr = (p.lfsr >> 1) | (bit << 14)
			} else {
				p.lfsr = (p.lfsr >> 1) | ((p.lfsr & 1) << 14)
			}
		}
	}
}

// Sample returns the sum of the four channels' current output levels,
// excluding any channel silenced by SetChannelMute.
func (p *PSG) Sample() int16 {
	var sum int16
	for ch, out := range p.output {
		if !p.mute[ch] {
			sum += out
		}
	}
	return sum
}

// SetChannelMute silences or restores one of the four channels (0-2
// tone, 3 noise). This is a debug-only control: it is not part of the
// saved state.
func (p *PSG) SetChannelMute(channel int, muted bool) {
	if channel >= 0 && channel < len(p.mute) {
		p.mute[channel] = muted
	}
}

// ChannelMuted reports whether the given channel is currently silenced.
func (p *PSG) ChannelMuted(channel int) bool {
	if channel >= 0 && channel < len(p.mute) {
		return p.mute[channel]
	}
	return false
}

// SaveState pushes the PSG's fields onto w in the canonical snapshot
// order: latch, attenuators, frequencies, noise register, LFSR, counters,
// outputs, polarity flip-flops.
func (p *PSG) SaveState(w *serial.Writer) {
	clatch := p.latchedChannel << 5
	if p.latchedIsVol {
		clatch |= 0x10
	}
	w.Push8(clatch | 0x80)
	for _, a := range p.attenuator {
		w.Push8(a)
	}
	for _, f := range p.frequency {
		w.Push16(f)
	}
	w.Push8(p.noise)
	w.Push16(p.lfsr)
	for _, c := range p.counter {
		w.Push16(c)
	}
	for _, o := range p.output {
		w.Push16(uint16(o))
	}
	w.Push8(p.freqff)
}

// LoadState restores a PSG's fields from r, written by a prior SaveState.
func (p *PSG) LoadState(r *serial.Reader) {
	clatch := r.Pop8()
	p.latchedChannel = (clatch >> 5) & 0x03
	p.latchedIsVol = clatch&0x10 != 0
	for i := range p.attenuator {
		p.attenuator[i] = r.Pop8()
	}
	for i := range p.frequency {
		p.frequency[i] = r.Pop16()
	}
	p.noise = r.Pop8()
	p.lfsr = r.Pop16()
	for i := range p.counter {
		p.counter[i] = r.Pop16()
	}
	for i := range p.output {
		p.output[i] = int16(r.Pop16())
	}
	p.freqff = r.Pop8()
}

// StateSize is the fixed byte length of a PSG snapshot: 1 (latch) + 4
// (attenuators) + 6 (frequencies) + 1 (noise) + 2 (lfsr) + 8 (counters) +
// 8 (outputs) + 1 (freqff).
const StateSize = 1 + 4 + 6 + 1 + 2 + 8 + 8 + 1
