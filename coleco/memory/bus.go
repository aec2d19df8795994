// Package memory implements the ColecoVision memory/IO bus: address decode
// across BIOS, system RAM, the Super Game Module's RAM overlay, and
// cartridge ROM (including Mega Cart bank switching), plus the IO port
// dispatch to the VDP, both PSGs, and the controller strobe.
package memory

import (
	"errors"
	"fmt"
	"math/rand"
	"os"

	"github.com/tanagra/coleco/input"
	"github.com/tanagra/coleco/psg"
	"github.com/tanagra/coleco/serial"
	"github.com/tanagra/coleco/sgmpsg"
	"github.com/tanagra/coleco/vdp"
)

// Sizes of the fixed-size regions of the address space.
const (
	RAMSize    = 0x400    // 1 KiB system RAM, mirrored every 1 KiB
	SGMRAMSize = 0x8000    // 32 KiB Super Game Module RAM
	BIOSSize   = 0x2000    // 8 KiB BIOS ROM
	pageSize8K = 0x2000
)

// Error kinds surfaced by the loader entry points. Runtime emulation never
// errors past this boundary (see package coleco's error handling design).
var (
	ErrInvalidRom   = errors.New("invalid rom header")
	ErrInvalidBios  = errors.New("invalid bios size")
	ErrIoFailure    = errors.New("io failure")
)

// Delayer is the subset of the z80.CPU contract the bus needs to model the
// PSG's write-load latency.
type Delayer interface {
	Delay(cycles uint32)
}

// Bus is the ColecoVision's memory/IO bus, wired to a VDP, the two PSGs, a
// controller input poller, and the CPU it delays on PSG writes.
type Bus struct {
	ram    [RAMSize]byte
	sgmRAM [SGMRAMSize]byte

	strobe   input.Segment
	ctrlWord [2]uint16

	bios []byte
	rom  []byte

	pages    [4]uint32
	megaCart bool

	sgmLower bool
	sgmUpper bool

	vdp    *vdp.VDP
	psg    *psg.PSG
	sgmpsg *sgmpsg.SGMPSG
	poller input.Poller
	cpu    Delayer

	writeDelay uint32
}

// New creates a Bus wired to the given components. poller is called on
// every controller strobe IO read; writeDelay is the number of CPU cycles
// a PSG write stalls the CPU for (see PSG write-delay in the configuration
// surface).
func New(v *vdp.VDP, p *psg.PSG, s *sgmpsg.SGMPSG, poller input.Poller, cpu Delayer, writeDelay uint32) *Bus {
	b := &Bus{
		vdp:        v,
		psg:        p,
		sgmpsg:     s,
		poller:     poller,
		cpu:        cpu,
		writeDelay: writeDelay,
	}
	b.Reset()
	return b
}

// Reset fills system RAM with pseudo-random bytes (some titles depend on
// non-zero power-on RAM), fills SGM RAM with 0xFF, and clears the strobe
// segment and both SGM overlay flags.
func (b *Bus) Reset() {
	for i := range b.ram {
		b.ram[i] = uint8(rand.Intn(256))
	}
	for i := range b.sgmRAM {
		b.sgmRAM[i] = 0xFF
	}
	b.strobe = input.SegmentNumpad
	b.ctrlWord[0] = 0
	b.ctrlWord[1] = 0
	b.sgmLower = false
	b.sgmUpper = false
}

// LoadBIOSBytes installs a caller-owned BIOS image. size must be exactly
// BIOSSize.
func (b *Bus) LoadBIOSBytes(data []byte) error {
	if len(data) != BIOSSize {
		return fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidBios, BIOSSize, len(data))
	}
	b.bios = data
	return nil
}

// LoadBIOSFile reads a BIOS image from disk; the core allocates and owns
// the resulting buffer.
func (b *Bus) LoadBIOSFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIoFailure, err)
	}
	return b.LoadBIOSBytes(data)
}

// LoadROM installs a caller-owned ROM image (pointer+length semantics: the
// slice is kept by reference, not copied). Detects Mega Cart layouts
// (size > 32 KiB) and validates the boot header word at the appropriate
// offset.
func (b *Bus) LoadROM(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty rom", ErrInvalidRom)
	}

	mega := len(data) > 0x8000
	headerOff := 0
	if mega {
		headerOff = len(data) - 0x4000
	}
	if headerOff < 0 || headerOff+1 >= len(data) {
		return fmt.Errorf("%w: rom too small", ErrInvalidRom)
	}

	word := uint16(data[headerOff])<<8 | uint16(data[headerOff+1])
	if word != 0xAA55 && word != 0x55AA {
		return fmt.Errorf("%w: bad header word %#04x", ErrInvalidRom, word)
	}

	b.rom = data
	b.megaCart = mega

	if mega {
		b.pages[0] = uint32(len(data) - 0x4000)
		b.pages[1] = b.pages[0] + pageSize8K
		b.pages[2] = 0
		b.pages[3] = pageSize8K
		return nil
	}

	pages8k := page8kCount(len(data))
	if pages8k > 4 {
		pages8k = 4
	}
	for i := uint32(0); i < pages8k; i++ {
		b.pages[i] = i * pageSize8K
	}
	return nil
}

// LoadROMFile reads a ROM image from disk; the core allocates and owns the
// resulting buffer.
func (b *Bus) LoadROMFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIoFailure, err)
	}
	return b.LoadROM(data)
}

func page8kCount(size int) uint32 {
	n := uint32(size) / pageSize8K
	if uint32(size)%pageSize8K != 0 {
		n++
	}
	return n
}

// ReadByte implements the z80.Bus memory read contract.
func (b *Bus) ReadByte(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		if b.sgmLower {
			return b.sgmRAM[addr]
		}
		if int(addr) < len(b.bios) {
			return b.bios[addr]
		}
		return 0xFF
	case addr < 0x8000:
		if b.sgmUpper {
			return b.sgmRAM[addr]
		}
		if addr >= 0x6000 {
			return b.ram[addr&0x3FF]
		}
		return 0xFF
	default:
		return b.readCart(addr)
	}
}

func (b *Bus) readCart(addr uint16) uint8 {
	if len(b.rom) == 0 {
		return 0xFF
	}

	if b.megaCart && addr >= 0xFFC0 {
		mask := (page8kCount(len(b.rom)) >> 1) - 1
		sel := uint32(addr) & mask
		b.pages[2] = sel << 14
		b.pages[3] = b.pages[2] + pageSize8K
	}

	offset := int(addr) - 0x8000
	if offset >= len(b.rom) {
		return 0xFF
	}

	window := (addr >> 13) - 4
	return b.rom[b.pages[window]+uint32(addr&0x1FFF)]
}

// WriteByte implements the z80.Bus memory write contract. Only RAM regions
// honour writes; everything else is silently dropped.
func (b *Bus) WriteByte(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		if b.sgmLower {
			b.sgmRAM[addr] = value
		}
	case addr < 0x8000:
		if b.sgmUpper {
			b.sgmRAM[addr] = value
		} else if addr >= 0x6000 {
			b.ram[addr&0x3FF] = value
		}
	}
}

// ReadPort implements the z80.Bus IO read contract.
func (b *Bus) ReadPort(port uint8) uint8 {
	switch {
	case port == 0x52:
		return b.sgmpsg.Read()
	case port&0xE0 == 0xA0:
		if port&0x01 != 0 {
			return b.vdp.ReadStatus()
		}
		return b.vdp.ReadData()
	case port&0xE0 == 0xE0:
		idx := int((port >> 1) & 1)
		word := b.poller(idx)
		b.ctrlWord[idx] = word
		return ^input.Select(word, b.strobe)
	default:
		return 0xFF
	}
}

// WritePort implements the z80.Bus IO write contract.
func (b *Bus) WritePort(port uint8, data uint8) {
	switch {
	case port == 0x50:
		b.sgmpsg.SelectRegister(data & 0x0F)
	case port == 0x51:
		b.sgmpsg.Write(data)
	case port == 0x53:
		b.sgmUpper = true
	case port == 0x7F:
		b.sgmLower = (^data)&0x02 != 0
	case port&0xE0 == 0x80:
		b.strobe = input.SegmentNumpad
	case port&0xE0 == 0xA0:
		if port&0x01 != 0 {
			b.vdp.WriteControl(data)
		} else {
			b.vdp.WriteData(data)
		}
	case port&0xE0 == 0xC0:
		b.strobe = input.SegmentJoystick
	case port&0xE0 == 0xE0:
		b.cpu.Delay(b.writeDelay)
		b.psg.Write(data)
	}
}

// SaveState pushes the bus's own fields (not the components it owns) onto
// w, in the canonical snapshot order: RAM, SGM RAM, strobe segment, the two
// cached controller words, then the four ROM page offsets.
func (b *Bus) SaveState(w *serial.Writer) {
	w.PushBytes(b.ram[:])
	w.PushBytes(b.sgmRAM[:])
	w.Push8(uint8(b.strobe))
	w.Push16(b.ctrlWord[0])
	w.Push16(b.ctrlWord[1])
	for _, p := range b.pages {
		w.Push32(p)
	}
}

// LoadState restores the bus's own fields from r, written by a prior
// SaveState. ROM/BIOS buffers and the SGM overlay/Mega Cart flags are not
// part of the snapshot (matching the source implementation this module is
// grounded on): a loader must have already loaded the same ROM/BIOS and
// toggled the same overlays before calling LoadState.
func (b *Bus) LoadState(r *serial.Reader) {
	copy(b.ram[:], r.PopBytes(len(b.ram)))
	copy(b.sgmRAM[:], r.PopBytes(len(b.sgmRAM)))
	b.strobe = input.Segment(r.Pop8())
	b.ctrlWord[0] = r.Pop16()
	b.ctrlWord[1] = r.Pop16()
	for i := range b.pages {
		b.pages[i] = r.Pop32()
	}
}

// StateSize is the fixed byte length of a Bus snapshot.
const StateSize = RAMSize + SGMRAMSize + 1 + 2 + 2 + 4*4
