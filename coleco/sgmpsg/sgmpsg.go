// Package sgmpsg implements the Super Game Module's expansion sound
// generator, an AY-3-8910: three tone channels, one noise channel shared
// across them, and a 16-shape envelope generator.
package sgmpsg

import (
	"github.com/tanagra/coleco/bit"
	"github.com/tanagra/coleco/serial"
)

// dontCareMask holds, per register index, the bits that are meaningful on
// write; the rest are cleared before the value is stored, so they read
// back as 0.
var dontCareMask = [16]uint8{
	0xFF, 0x0F, 0xFF, 0x0F, 0xFF, 0x0F, 0x1F, 0xFF,
	0x1F, 0x1F, 0x1F, 0xFF, 0xFF, 0x0F, 0xFF, 0xFF,
}

// volumeTable is the logarithmic 16-step amplitude table used for both
// fixed channel amplitude and the envelope generator's current volume.
var volumeTable = [16]int16{
	0, 40, 60, 86, 124, 186, 264, 440,
	518, 840, 1196, 1526, 2016, 2602, 3300, 4096,
}

const lfsrSeed uint32 = 1

// SGMPSG is an AY-3-8910 sound generator as wired into the Super Game
// Module. Tick advances it by one PSG cycle (called once per 16 Z80
// cycles by the scheduler, same cadence as the primary PSG); Write/Read
// operate on the register file exposed at IO ports 0x50/0x51/0x52.
type SGMPSG struct {
	reg    [16]uint8
	rlatch uint8

	tperiod [3]uint16
	tcounter [3]uint16
	sign    [3]uint8

	amplitude [3]uint8 // low nibble = fixed level
	emode     [3]bool  // envelope-mode flag (bit 4 of the amplitude reg)
	rawAmp    [3]uint8 // masked raw register byte, for the non-zero gate

	tdisable [3]uint8
	ndisable [3]uint8

	nperiod uint8
	ncounter uint16
	nshift  uint32 // 17-bit logical LFSR

	eperiod uint16
	ecounter uint16
	eseg    uint8
	estep   uint8
	evol    uint8

	mute [3]bool // debug-only channel mask; not part of the save state
}

// New creates an AY-3-8910 in its post-reset state.
func New() *SGMPSG {
	s := &SGMPSG{}
	s.Reset()
	return s
}

// Reset restores power-on state.
func (s *SGMPSG) Reset() {
	*s = SGMPSG{}
	s.nshift = lfsrSeed
	s.tperiod[0], s.tperiod[1], s.tperiod[2] = 1, 1, 1
	s.nperiod = 1
}

// SelectRegister latches the register index future Write/Read calls
// target (port 0x50, data & 0x0F).
func (s *SGMPSG) SelectRegister(index uint8) {
	s.rlatch = index & 0x0F
}

// Read returns the contents of the currently latched register (port
// 0x52). Ports 14/15 are pure data storage here: on real hardware they
// are IO port registers, but this module treats them as inert storage.
func (s *SGMPSG) Read() uint8 {
	return s.reg[s.rlatch]
}

// Write stores data into the currently latched register (port 0x51) and
// re-derives whatever internal state that register drives.
func (s *SGMPSG) Write(data uint8) {
	idx := s.rlatch
	data &= dontCareMask[idx]
	s.reg[idx] = data

	switch idx {
	case 0, 1:
		s.tperiod[0] = bit.Combine(s.reg[1], s.reg[0]) & 0x0FFF
		if s.tperiod[0] == 0 {
			s.tperiod[0] = 1
		}
	case 2, 3:
		s.tperiod[1] = bit.Combine(s.reg[3], s.reg[2]) & 0x0FFF
		if s.tperiod[1] == 0 {
			s.tperiod[1] = 1
		}
	case 4, 5:
		s.tperiod[2] = bit.Combine(s.reg[5], s.reg[4]) & 0x0FFF
		if s.tperiod[2] == 0 {
			s.tperiod[2] = 1
		}
	case 6:
		s.nperiod = data & 0x1F
		if s.nperiod == 0 {
			s.nperiod = 1
		}
	case 7:
		for i := 0; i < 3; i++ {
			s.tdisable[i] = bit.GetBitValue(uint8(i), data)
			s.ndisable[i] = bit.GetBitValue(uint8(i+3), data)
		}
	case 8, 9, 10:
		ch := int(idx - 8)
		s.rawAmp[ch] = data
		s.amplitude[ch] = data & 0x0F
		s.emode[ch] = data&0x10 != 0
	case 11, 12:
		s.eperiod = bit.Combine(s.reg[12], s.reg[11])
	case 13:
		s.ecounter = 0
		s.eseg = 0
		s.estep = 0
		s.evol = envelopeStart(data, 0)
	case 14, 15:
		// IO port data storage only; no side effects.
	}
}

// envelopeStart computes the volume an envelope generator resumes at for
// the given shape (register 13's value) and segment (0 or 1).
func envelopeStart(shape uint8, seg uint8) uint8 {
	if seg == 0 {
		if shape&0x04 == 0 {
			return 15
		}
		return 0
	}
	switch shape {
	case 8, 11, 13, 14:
		return 15
	default:
		return 0
	}
}

// Tick advances tone, noise, and envelope generators by one PSG cycle.
func (s *SGMPSG) Tick() {
	for i := 0; i < 3; i++ {
		s.tcounter[i]++
		if s.tcounter[i] >= s.tperiod[i] {
			s.tcounter[i] = 0
			s.sign[i] ^= 1
		}
	}

	s.ncounter++
	if s.ncounter >= uint16(s.nperiod)<<1 {
		s.ncounter = 0
		bit := uint32((s.nshift ^ (s.nshift >> 3)) & 1)
		s.nshift = (s.nshift >> 1) | (bit << 16)
	}

	s.ecounter++
	if uint32(s.ecounter) >= uint32(s.eperiod)<<1 {
		s.ecounter = 0
		shape := s.reg[13]
		if s.estep > 0 {
			switch {
			case s.eseg == 1 && (shape == 10 || shape == 12):
				if s.evol < 15 {
					s.evol++
				}
			case s.eseg == 1 && (shape == 8 || shape == 14):
				if s.evol > 0 {
					s.evol--
				}
			case s.eseg == 0 && shape&0x04 != 0:
				if s.evol < 15 {
					s.evol++
				}
			case s.eseg == 0:
				if s.evol > 0 {
					s.evol--
				}
			}
		}
		s.estep++
		if s.estep >= 16 {
			s.estep = 0
			if shape == 8 {
				s.eseg ^= 1
			} else {
				s.eseg = 1
			}
			s.evol = envelopeStart(shape, s.eseg)
		}
	}
}

// Sample returns the accumulated signed sum of the three channels'
// current output.
func (s *SGMPSG) Sample() int16 {
	var sum int16
	noiseBit := uint8(s.nshift & 1)
	for i := 0; i < 3; i++ {
		if s.mute[i] {
			continue
		}
		out := (s.tdisable[i] | s.sign[i]) & (s.ndisable[i] | noiseBit)
		if out != 0 && s.rawAmp[i] != 0 {
			if s.emode[i] {
				sum += volumeTable[s.evol]
			} else {
				sum += volumeTable[s.amplitude[i]]
			}
		}
	}
	return sum
}

// SetChannelMute silences or restores one of the three tone channels.
// This is a debug-only control: it is not part of the saved state.
func (s *SGMPSG) SetChannelMute(channel int, muted bool) {
	if channel >= 0 && channel < len(s.mute) {
		s.mute[channel] = muted
	}
}

// ChannelMuted reports whether the given channel is currently silenced.
func (s *SGMPSG) ChannelMuted(channel int) bool {
	if channel >= 0 && channel < len(s.mute) {
		return s.mute[channel]
	}
	return false
}

// SaveState pushes the SGM PSG's fields onto w in the canonical snapshot
// order matching the original implementation's field layout.
func (s *SGMPSG) SaveState(w *serial.Writer) {
	w.PushBytes(s.reg[:])
	w.Push8(s.rlatch)
	for _, v := range s.tperiod {
		w.Push16(v)
	}
	for _, v := range s.tcounter {
		w.Push16(v)
	}
	for _, v := range s.amplitude {
		w.Push8(v)
	}
	w.Push8(s.nperiod)
	w.Push16(s.ncounter)
	w.Push32(s.nshift)
	w.Push16(s.eperiod)
	w.Push16(s.ecounter)
	w.Push8(s.eseg)
	w.Push8(s.estep)
	w.Push8(s.evol)
	for _, v := range s.tdisable {
		w.Push8(v)
	}
	for _, v := range s.ndisable {
		w.Push8(v)
	}
	for _, v := range s.emode {
		w.PushBool(v)
	}
	for _, v := range s.sign {
		w.Push8(v)
	}
}

// LoadState restores an SGM PSG's fields from r, written by a prior
// SaveState.
func (s *SGMPSG) LoadState(r *serial.Reader) {
	copy(s.reg[:], r.PopBytes(16))
	s.rlatch = r.Pop8()
	for i := range s.tperiod {
		s.tperiod[i] = r.Pop16()
	}
	for i := range s.tcounter {
		s.tcounter[i] = r.Pop16()
	}
	for i := range s.amplitude {
		s.amplitude[i] = r.Pop8()
	}
	s.nperiod = r.Pop8()
	s.ncounter = r.Pop16()
	s.nshift = r.Pop32()
	s.eperiod = r.Pop16()
	s.ecounter = r.Pop16()
	s.eseg = r.Pop8()
	s.estep = r.Pop8()
	s.evol = r.Pop8()
	for i := range s.tdisable {
		s.tdisable[i] = r.Pop8()
	}
	for i := range s.ndisable {
		s.ndisable[i] = r.Pop8()
	}
	for i := range s.emode {
		s.emode[i] = r.PopBool()
	}
	for i := range s.sign {
		s.sign[i] = r.Pop8()
	}
	for i := 0; i < 3; i++ {
		s.rawAmp[i] = s.reg[8+i]
	}
}

// StateSize is the fixed byte length of an SGM PSG snapshot.
const StateSize = 16 + 1 + 6 + 6 + 3 + 1 + 2 + 4 + 2 + 2 + 1 + 1 + 1 + 3 + 3 + 3 + 3
