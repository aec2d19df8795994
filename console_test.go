package coleco

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanagra/coleco/z80"
)

// fakeCPU is a minimal z80.CPU stand-in: every Step consumes a fixed
// number of cycles and never actually decodes an opcode. It lets the
// scheduler's cycle accounting and PSG/VDP cadence be exercised without a
// real Z80 interpreter.
type fakeCPU struct {
	stepCycles uint32
	delayed    uint32
	leftover   uint32
	nmiCount   int
	irqCount   int
	resetCount int
	regs       z80.Registers
}

func newFakeCPU() *fakeCPU {
	return &fakeCPU{stepCycles: 4}
}

func (f *fakeCPU) Init()            {}
func (f *fakeCPU) Reset(hard bool)  { f.resetCount++ }
func (f *fakeCPU) PulseIRQ(d uint8) { f.irqCount++ }
func (f *fakeCPU) PulseNMI()        { f.nmiCount++ }
func (f *fakeCPU) ClearIRQ()        {}

func (f *fakeCPU) Step() uint32 {
	if f.delayed > 0 {
		c := f.delayed
		f.delayed = 0
		return c
	}
	return f.stepCycles
}

func (f *fakeCPU) Run(cycles uint32) uint32 {
	var total uint32
	for total < cycles {
		total += f.Step()
	}
	return total
}

func (f *fakeCPU) Delay(cycles uint32) { f.delayed += cycles }

func (f *fakeCPU) CycleStore(cycles uint32) { f.leftover = cycles }
func (f *fakeCPU) CycleRestore() uint32 {
	v := f.leftover
	f.leftover = 0
	return v
}

func (f *fakeCPU) StateSave() z80.Registers  { return f.regs }
func (f *fakeCPU) StateLoad(r z80.Registers) { f.regs = r }

func newTestConsole(t *testing.T) (*Console, *fakeCPU) {
	t.Helper()
	cpu := newFakeCPU()
	c, err := New(cpu, Config{
		Region: RegionNTSC,
		Poller: func(port int) uint16 { return 0 },
	})
	require.NoError(t, err)
	return c, cpu
}

func TestNewRejectsNilPoller(t *testing.T) {
	_, err := New(newFakeCPU(), Config{Region: RegionNTSC})
	assert.ErrorIs(t, err, ErrUnsupportedConfig)
}

func TestRunFrameAdvancesFrameCount(t *testing.T) {
	c, _ := newTestConsole(t)
	c.RunFrame()
	assert.Equal(t, uint64(1), c.FrameCount())
	c.RunFrame()
	assert.Equal(t, uint64(2), c.FrameCount())
}

func TestRunFrameRaisesVBLStatusBit(t *testing.T) {
	c, _ := newTestConsole(t)

	// Enable interrupt generation (GINT). The status INT bit is set on the
	// transition into line 192 either way; GINT only gates the NMI.
	c.VDP().WriteControl(0x20) // value latched for the register write
	c.VDP().WriteControl(0x81) // register 1 = 0x20 (GINT set)

	c.RunFrame()
	assert.True(t, c.VDP().IntFlag())
}

func TestRunFramePSGSampleCountInvariant(t *testing.T) {
	c, _ := newTestConsole(t)

	c.RunFrame()
	lines := c.region.ScanlinesPerFrame()
	totalCycles := uint32(lines * cyclesPerScanline)

	// psgCycleCounter starts at zero and persists across frames; after
	// exactly one frame from a fresh console, the number of PSG ticks is
	// floor(total consumed cycles / 16), and both PSGs are pushed once
	// per tick.
	expectedTicks := int(totalCycles / psgTickDivisor)
	assert.Equal(t, expectedTicks, c.PSGSampleCount())
	assert.Equal(t, expectedTicks, c.SGMSampleCount())
}

func TestStateSaveLoadRoundTrip(t *testing.T) {
	c, cpu := newTestConsole(t)
	c.RunFrame()
	cpu.regs.PC = 0x1234
	cpu.regs.A = 0x56

	snap := c.StateSave()
	require.Equal(t, StateSize, len(snap))

	c.RunFrame()
	c.RunFrame()

	require.NoError(t, c.StateLoad(snap))
	snap2 := c.StateSave()
	assert.Equal(t, snap, snap2)
}

func TestStateLoadRejectsWrongSize(t *testing.T) {
	c, _ := newTestConsole(t)
	err := c.StateLoad(make([]byte, 4))
	assert.Error(t, err)
}

func TestToggleChannelMutesAcrossBothPSGs(t *testing.T) {
	c, _ := newTestConsole(t)

	assert.True(t, c.ChannelStatus()[ChannelPSGNoise])
	c.ToggleChannel(ChannelPSGNoise)
	assert.False(t, c.ChannelStatus()[ChannelPSGNoise])
	c.ToggleChannel(ChannelPSGNoise)
	assert.True(t, c.ChannelStatus()[ChannelPSGNoise])

	assert.True(t, c.ChannelStatus()[ChannelSGMTone1])
	c.ToggleChannel(ChannelSGMTone1)
	assert.False(t, c.ChannelStatus()[ChannelSGMTone1])
}

func TestSoloChannelMutesEveryOtherChannel(t *testing.T) {
	c, _ := newTestConsole(t)

	c.SoloChannel(ChannelSGMTone0)
	status := c.ChannelStatus()
	for ch := 0; ch < channelCount; ch++ {
		assert.Equal(t, ch == ChannelSGMTone0, status[ch], "channel %d", ch)
	}
}

func TestResetPulsesCPUReset(t *testing.T) {
	c, cpu := newTestConsole(t)
	c.Reset(false)
	assert.Equal(t, 1, cpu.resetCount)
}
