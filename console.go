// Package coleco is the root package of a ColecoVision console emulator
// core: a per-frame scheduler that coordinates an externally-supplied Z80
// interpreter, a TMS9928A VDP, an SN76489 PSG, an AY-3-8910 Super Game
// Module PSG, and the memory/IO bus connecting them.
package coleco

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/tanagra/coleco/input"
	"github.com/tanagra/coleco/memory"
	"github.com/tanagra/coleco/mixer"
	"github.com/tanagra/coleco/psg"
	"github.com/tanagra/coleco/serial"
	"github.com/tanagra/coleco/sgmpsg"
	"github.com/tanagra/coleco/vdp"
	"github.com/tanagra/coleco/z80"
)

// Region selects the television standard a Console emulates, which fixes
// both its scanline count and its frame rate.
type Region int

const (
	RegionNTSC Region = iota
	RegionPAL
)

// ScanlinesPerFrame returns the region's scanline count: 262 for NTSC, 313
// for PAL.
func (r Region) ScanlinesPerFrame() int {
	if r == RegionPAL {
		return 313
	}
	return 262
}

// FrameRate returns the region's nominal frame rate: 60 for NTSC, 50 for
// PAL.
func (r Region) FrameRate() int {
	if r == RegionPAL {
		return 50
	}
	return 60
}

// cyclesPerScanline is the fixed per-scanline Z80 budget: an approximation
// of the hardware's 227.998... cycles, with the fractional remainder
// absorbed by the leftover-cycle carry described in RunFrame.
const cyclesPerScanline = 228

// psgTickDivisor ticks both PSGs once per this many consumed Z80 cycles.
const psgTickDivisor = 16

// defaultWriteDelay is the PSG write-port load latency, in Z80 cycles. The
// datasheet states roughly 32 cycles; some references suggest up to 54;
// this value is a configurable middle ground rather than a hardware fact.
const defaultWriteDelay = 48

var (
	// ErrUnsupportedConfig is returned when a sample rate or resample
	// quality outside the supported set is requested, or when no input
	// poller is supplied. An out-of-range palette index is not an error:
	// it silently selects teatime.
	ErrUnsupportedConfig = fmt.Errorf("unsupported configuration value")
)

// Config configures a Console at construction time.
type Config struct {
	Region      Region
	SampleRate  int // 44100, 48000, 96000, or 192000; 0 selects the default
	Palette     int // 0 = teatime, 1 = syoung
	Quality     int // 1..10 resample quality; 0 keeps the mixer default (3)
	WriteDelay  uint32
	Poller      input.Poller
	AudioReady  func(n int)
}

// Console owns the entire emulated ColecoVision: bus, VDP, both PSGs, the
// injected Z80 interpreter, and the mixer. A Console is single-threaded;
// RunFrame must not be called re-entrantly, including from its own
// callbacks.
type Console struct {
	cpu    z80.CPU
	bus    *memory.Bus
	vdp    *vdp.VDP
	psg    *psg.PSG
	sgmPSG *sgmpsg.SGMPSG
	mixer  *mixer.Mixer

	region     Region
	audioReady func(n int)

	psgCycleCounter uint32 // persists across frames, never reset by RunFrame
	frameCount      uint64
	lastSamples     []int16
}

// New creates a Console wired to the given Z80 interpreter. cfg.Poller
// must be non-nil; cfg.AudioReady may be nil if the caller pulls mixed
// samples without a completion callback.
func New(cpu z80.CPU, cfg Config) (*Console, error) {
	if cfg.Poller == nil {
		return nil, fmt.Errorf("%w: nil input poller", ErrUnsupportedConfig)
	}

	writeDelay := cfg.WriteDelay
	if writeDelay == 0 {
		writeDelay = defaultWriteDelay
	}

	fb := vdp.NewFrameBuffer()
	v := vdp.New(fb, uint16(cfg.Region.ScanlinesPerFrame()), func() { cpu.PulseNMI() })
	v.SetPalette(cfg.Palette)

	c := &Console{
		cpu:        cpu,
		vdp:        v,
		psg:        psg.New(),
		sgmPSG:     sgmpsg.New(),
		mixer:      mixer.New(),
		region:     cfg.Region,
		audioReady: cfg.AudioReady,
	}

	c.bus = memory.New(v, c.psg, c.sgmPSG, cfg.Poller, cpu, writeDelay)

	c.mixer.SetFrameRate(cfg.Region.FrameRate())
	if cfg.SampleRate != 0 {
		if err := c.mixer.SetSampleRate(cfg.SampleRate); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedConfig, err)
		}
	}
	if cfg.Quality != 0 {
		if err := c.mixer.SetQuality(cfg.Quality); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedConfig, err)
		}
	}

	cpu.Init()
	slog.Info("console initialized", "region", cfg.Region)

	return c, nil
}

// LoadBIOSFile loads a BIOS image from disk.
func (c *Console) LoadBIOSFile(path string) error {
	if err := c.bus.LoadBIOSFile(path); err != nil {
		return err
	}
	slog.Info("bios loaded", "path", path)
	return nil
}

// LoadBIOSBytes installs a caller-owned BIOS image.
func (c *Console) LoadBIOSBytes(data []byte) error {
	return c.bus.LoadBIOSBytes(data)
}

// LoadROMFile loads a cartridge ROM image from disk.
func (c *Console) LoadROMFile(path string) error {
	if err := c.bus.LoadROMFile(path); err != nil {
		return err
	}
	slog.Info("rom loaded", "path", path)
	return nil
}

// LoadROMBytes installs a caller-owned cartridge ROM image.
func (c *Console) LoadROMBytes(data []byte) error {
	return c.bus.LoadROM(data)
}

// Reset pulses a console reset: the bus RAM/SGM-RAM/strobe state is
// reinitialized, both PSGs return to their power-on state, and the CPU is
// reset. hard is accepted but unused, matching the reserved reset
// parameter the scheduler contract leaves unspecified.
func (c *Console) Reset(hard bool) {
	c.bus.Reset()
	c.vdp.Reset()
	c.psg.Reset()
	c.sgmPSG.Reset()
	c.cpu.Reset(hard)
	slog.Info("console reset", "hard", hard)
}

// FrameBuffer returns the console's current 272x208 ARGB8888 framebuffer.
func (c *Console) FrameBuffer() *vdp.FrameBuffer {
	return c.vdp.FrameBuffer()
}

// FrameRate reports the console's nominal frame rate (60 for NTSC, 50 for
// PAL), for callers that pace RunFrame against wall-clock time.
func (c *Console) FrameRate() int {
	return c.region.FrameRate()
}

// VDP exposes the console's video display processor for debug tooling
// (terminal/PNG renderers) and tests; it is not part of the emulation
// callback surface itself.
func (c *Console) VDP() *vdp.VDP {
	return c.vdp
}

// RunFrame runs exactly one display frame: region_lines scanlines of
// interleaved CPU execution, PSG ticking, and VDP rastering, followed by a
// single mixer resample pass.
//
// Within a scanline all CPU cycles are consumed before the VDP rasters
// that line, so a register write that takes effect on line L is visible
// to the render of line L, not L+1. The PSG tick divider persists across
// frames; only the per-frame sample counts reset at the top of RunFrame.
func (c *Console) RunFrame() {
	leftover := c.cpu.CycleRestore()

	c.mixer.BeginFrame()

	lines := c.region.ScanlinesPerFrame()
	for line := 0; line < lines; line++ {
		required := uint32(cyclesPerScanline)
		if leftover < required {
			required -= leftover
		} else {
			required = 0
		}

		var consumed uint32
		for consumed < required {
			consumed += c.cpu.Step()
		}
		leftover = consumed - required

		for i := uint32(0); i < consumed; i++ {
			c.psgCycleCounter++
			if c.psgCycleCounter >= psgTickDivisor {
				c.psgCycleCounter = 0
				c.psg.Tick()
				c.sgmPSG.Tick()
				c.mixer.PushPSG(c.psg.Sample())
				c.mixer.PushSGM(c.sgmPSG.Sample())
			}
		}

		c.vdp.Exec()
	}

	c.cpu.CycleStore(leftover)

	c.lastSamples = c.mixer.EndFrame()
	if c.audioReady != nil {
		c.audioReady(len(c.lastSamples))
	}

	c.frameCount++
	if c.frameCount%60 == 0 {
		slog.Debug("frame completed", "frame", c.frameCount)
	}
}

// AudioSamples returns the most recently mixed frame's output samples.
// Call this after RunFrame, typically from the audio-ready callback.
func (c *Console) AudioSamples() []int16 {
	return c.lastSamples
}

// FrameCount reports how many frames RunFrame has completed.
func (c *Console) FrameCount() uint64 {
	return c.frameCount
}

// PSGSampleCount reports how many native-rate samples the primary PSG
// produced during the most recently completed frame.
func (c *Console) PSGSampleCount() int {
	return c.mixer.PSGSampleCount()
}

// SGMSampleCount reports how many native-rate samples the Super Game
// Module PSG produced during the most recently completed frame.
func (c *Console) SGMSampleCount() int {
	return c.mixer.SGMSampleCount()
}

// Debug audio channel indices: 0-2 and 4-6 are tone channels, 3 is the
// primary PSG's noise channel. The SGM PSG has no independent noise
// output to toggle (its noise generator feeds all three tone channels).
const (
	ChannelPSGTone0 = 0
	ChannelPSGTone1 = 1
	ChannelPSGTone2 = 2
	ChannelPSGNoise = 3
	ChannelSGMTone0 = 4
	ChannelSGMTone1 = 5
	ChannelSGMTone2 = 6
	channelCount    = 7
)

// ToggleChannel flips one audio channel's mute state, for debug tooling.
func (c *Console) ToggleChannel(channel int) {
	if channel < 4 {
		c.psg.SetChannelMute(channel, !c.psg.ChannelMuted(channel))
		return
	}
	sgmCh := channel - 4
	c.sgmPSG.SetChannelMute(sgmCh, !c.sgmPSG.ChannelMuted(sgmCh))
}

// SoloChannel mutes every channel except the given one.
func (c *Console) SoloChannel(channel int) {
	for ch := 0; ch < 4; ch++ {
		c.psg.SetChannelMute(ch, ch != channel)
	}
	for ch := 0; ch < 3; ch++ {
		c.sgmPSG.SetChannelMute(ch, ch+4 != channel)
	}
}

// ChannelStatus reports, for each of the seven debug audio channels,
// whether it is currently audible (true) or muted (false).
func (c *Console) ChannelStatus() [channelCount]bool {
	var status [channelCount]bool
	for ch := 0; ch < 4; ch++ {
		status[ch] = !c.psg.ChannelMuted(ch)
	}
	for ch := 0; ch < 3; ch++ {
		status[ch+4] = !c.sgmPSG.ChannelMuted(ch)
	}
	return status
}

// StateSize is the fixed byte length of a Console snapshot: the bus, both
// PSGs, the VDP, and the Z80 register set, in that order.
const StateSize = memory.StateSize + psg.StateSize + sgmpsg.StateSize + vdp.StateSize + z80.RegistersStateSize

// StateSave serializes the entire console into a fixed-size opaque
// buffer: bus, PSG, SGM PSG, VDP, then Z80 registers.
func (c *Console) StateSave() []byte {
	w := serial.NewWriter(StateSize)
	c.bus.SaveState(w)
	c.psg.SaveState(w)
	c.sgmPSG.SaveState(w)
	c.vdp.SaveState(w)
	c.cpu.StateSave().SaveState(w)
	return w.Bytes()
}

// StateLoad restores the entire console from a buffer previously produced
// by StateSave. The buffer carries no version header, so a size mismatch
// is rejected outright.
func (c *Console) StateLoad(buf []byte) error {
	if err := serial.CheckSize(buf, StateSize); err != nil {
		return err
	}

	r := serial.NewReader(buf)
	c.bus.LoadState(r)
	c.psg.LoadState(r)
	c.sgmPSG.LoadState(r)
	c.vdp.LoadState(r)
	c.cpu.StateLoad(z80.LoadRegistersState(r))
	return nil
}

// StateSaveFile writes a state snapshot to disk.
func (c *Console) StateSaveFile(path string) error {
	if err := os.WriteFile(path, c.StateSave(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", memory.ErrIoFailure, err)
	}
	return nil
}

// StateLoadFile restores a state snapshot from disk.
func (c *Console) StateLoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", memory.ErrIoFailure, err)
	}
	return c.StateLoad(data)
}
