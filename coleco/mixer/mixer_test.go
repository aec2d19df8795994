package mixer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetSampleRateRejectsUnsupportedValues(t *testing.T) {
	m := New()
	assert.Error(t, m.SetSampleRate(22050))
	require.NoError(t, m.SetSampleRate(96000))
}

func TestSetQualityRejectsOutOfRange(t *testing.T) {
	m := New()
	assert.Error(t, m.SetQuality(11))
	assert.Error(t, m.SetQuality(-1))
	require.NoError(t, m.SetQuality(5))
}

func TestBeginFrameResetsSampleCounts(t *testing.T) {
	m := New()
	m.BeginFrame()
	m.PushPSG(100)
	m.PushSGM(50)
	assert.Equal(t, 1, m.PSGSampleCount())
	assert.Equal(t, 1, m.SGMSampleCount())

	m.BeginFrame()
	assert.Equal(t, 0, m.PSGSampleCount())
	assert.Equal(t, 0, m.SGMSampleCount())
}

func TestEndFrameProducesConfiguredSampleCount(t *testing.T) {
	m := New()
	require.NoError(t, m.SetSampleRate(48000))
	m.SetFrameRate(60)

	m.BeginFrame()
	for i := 0; i < 4000; i++ {
		m.PushPSG(1000)
		m.PushSGM(500)
	}

	out := m.EndFrame()
	assert.Equal(t, 48000/60, len(out))
}

func TestEndFrameMixesBothChannels(t *testing.T) {
	m := New()
	require.NoError(t, m.SetSampleRate(44100))
	m.SetFrameRate(60)

	m.BeginFrame()
	for i := 0; i < 4000; i++ {
		m.PushPSG(100)
		m.PushSGM(200)
	}

	out := m.EndFrame()
	require.NotEmpty(t, out)
	// Every mixed sample should reflect the sum of both chips, not just
	// one: a pure single-chip mix would plateau near 100, not 300.
	assert.InDelta(t, 300, out[0], 5)
}

func TestEndFrameWithoutSGMSamplesUsesPSGOnly(t *testing.T) {
	m := New()
	require.NoError(t, m.SetSampleRate(44100))
	m.SetFrameRate(60)

	m.BeginFrame()
	for i := 0; i < 4000; i++ {
		m.PushPSG(250)
	}

	out := m.EndFrame()
	require.NotEmpty(t, out)
	assert.InDelta(t, 250, out[0], 5)
}
