package sgmpsg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tanagra/coleco/serial"
)

func TestToneRegisterWriteCoercesPeriodToAtLeastOne(t *testing.T) {
	s := New()
	s.SelectRegister(0)
	s.Write(0)
	s.SelectRegister(1)
	s.Write(0)

	assert.Equal(t, uint16(1), s.tperiod[0])
}

func TestNoiseRegisterWriteCoercesPeriodToAtLeastOne(t *testing.T) {
	s := New()
	s.SelectRegister(6)
	s.Write(0)

	assert.Equal(t, uint8(1), s.nperiod)
}

func TestEnvelopeShapeWriteResetsCounterSegmentAndStep(t *testing.T) {
	s := New()
	s.ecounter = 5
	s.eseg = 1
	s.estep = 9

	s.SelectRegister(13)
	s.Write(0x08) // attack bit clear, segment 0 -> volume starts at 15

	assert.Equal(t, uint16(0), s.ecounter)
	assert.Equal(t, uint8(0), s.eseg)
	assert.Equal(t, uint8(0), s.estep)
	assert.Equal(t, uint8(15), s.evol)
}

func TestEnableRegisterSplitsIntoToneAndNoiseDisableBits(t *testing.T) {
	s := New()
	s.SelectRegister(7)
	s.Write(0b00_111_111) // all tone + noise bits set (disabled)

	for i := 0; i < 3; i++ {
		assert.Equal(t, uint8(1), s.tdisable[i])
		assert.Equal(t, uint8(1), s.ndisable[i])
	}
}

func TestChannelMuteSilencesSampleContribution(t *testing.T) {
	s := New()
	s.SelectRegister(7)
	s.Write(0) // enable tone and noise on all channels (0 = enabled)
	s.SelectRegister(8)
	s.Write(0x0F) // channel 0 fixed amplitude, max
	s.sign[0] = 1

	unmuted := s.Sample()
	assert.NotZero(t, unmuted)

	s.SetChannelMute(0, true)
	assert.True(t, s.ChannelMuted(0))
	assert.Zero(t, s.Sample())

	s.SetChannelMute(0, false)
	assert.Equal(t, unmuted, s.Sample())
}

func TestSaveLoadStateRoundTrip(t *testing.T) {
	s := New()
	s.SelectRegister(0)
	s.Write(0x34)
	s.SelectRegister(8)
	s.Write(0x0A)
	s.nshift = 0x1FFFF

	w := serial.NewWriter(StateSize)
	s.SaveState(w)
	assert.Equal(t, StateSize, len(w.Bytes()))

	s2 := New()
	s2.LoadState(serial.NewReader(w.Bytes()))

	assert.Equal(t, s.tperiod, s2.tperiod)
	assert.Equal(t, s.amplitude, s2.amplitude)
	assert.Equal(t, s.nshift, s2.nshift)
}
