package psg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tanagra/coleco/serial"
)

func TestWriteLatchesFrequencyAcrossLatchAndDataBytes(t *testing.T) {
	p := New()

	// Latch channel 0 frequency, low nibble 0x0F.
	p.Write(0x80 | 0x0F)
	// DATA byte with upper 6 bits = 0x10.
	p.Write(0x10)

	assert.Equal(t, uint16(0x0F|0x10<<4)&0x03FF, p.frequency[0])
}

func TestNoiseRegisterWriteReseedsLFSR(t *testing.T) {
	p := New()
	p.lfsr = 0x1234

	p.Write(0x80 | 0x60 | 0x05) // channel 3, noise register write
	assert.Equal(t, uint16(lfsrSeed), p.lfsr)
}

func TestToneCounterReloadTogglesPolarity(t *testing.T) {
	p := New()
	p.frequency[0] = 4
	p.attenuator[0] = 0 // loudest

	// Drain the counter to zero across successive ticks.
	seenLoud := false
	for i := 0; i < 20; i++ {
		p.Tick()
		if p.output[0] == volumeTable[0] {
			seenLoud = true
		}
	}
	assert.True(t, seenLoud, "expected channel 0 to reach full volume at least once")
}

func TestChannelMuteSilencesSampleContribution(t *testing.T) {
	p := New()
	p.attenuator[0] = 0
	p.output[0] = volumeTable[0]
	p.attenuator[3] = 0
	p.output[3] = volumeTable[0]

	unmuted := p.Sample()
	assert.Equal(t, volumeTable[0]*2, unmuted)

	p.SetChannelMute(0, true)
	assert.True(t, p.ChannelMuted(0))
	assert.Equal(t, volumeTable[0], p.Sample())

	p.SetChannelMute(0, false)
	assert.Equal(t, unmuted, p.Sample())
}

func TestSaveLoadStateRoundTrip(t *testing.T) {
	p := New()
	p.Write(0x80 | 0x20 | 0x05)
	p.Write(0x06)
	p.attenuator[2] = 3
	p.lfsr = 0x55
	p.counter[1] = 42

	w := serial.NewWriter(StateSize)
	p.SaveState(w)
	assert.Equal(t, StateSize, len(w.Bytes()))

	p2 := New()
	p2.LoadState(serial.NewReader(w.Bytes()))

	assert.Equal(t, p.frequency, p2.frequency)
	assert.Equal(t, p.attenuator, p2.attenuator)
	assert.Equal(t, p.lfsr, p2.lfsr)
	assert.Equal(t, p.counter, p2.counter)
}
