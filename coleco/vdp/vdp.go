// Package vdp implements the ColecoVision's TMS9928A video display
// processor: its two-byte control-port latch protocol, eight control
// registers and one status register, the four background screen modes,
// and the sprite rasterizer with fifth-sprite and collision status.
package vdp

import "github.com/tanagra/coleco/serial"

// Screen modes, encoded exactly as the M1/M2/M3 control bits combine:
// bit 0 from M1 (text), bit 1 from M3 (graphics 2), bit 2 from M2
// (multicolor).
const (
	ModeGraphics1 = 0
	ModeText      = 1
	ModeGraphics2 = 2
	ModeMulticolor = 4
)

// Control register bit positions of interest.
const (
	ctrl0M2 = 0x02

	ctrl1MAG  = 0x01
	ctrl1SI   = 0x02
	ctrl1M3   = 0x08
	ctrl1M1   = 0x10
	ctrl1GINT = 0x20
	ctrl1BL   = 0x40
)

const (
	statINT = 0x80
	stat5S  = 0x40
	statC   = 0x20
)

var regWriteMask = [8]uint8{0x03, 0xFB, 0x0F, 0xFF, 0x07, 0x7F, 0x07, 0xFF}

// VDP is a TMS9928A as wired into a ColecoVision. NMI is a callback to the
// CPU's non-maskable interrupt pulse; it is invoked synchronously from
// Exec or WriteControl.
type VDP struct {
	line, dot uint16
	vram      [0x4000]byte
	addr      uint16
	dlatch    uint8
	wlatch    bool
	ctrl      [8]uint8
	stat      uint8

	tblCol, tblPgen, tblPname, tblSattr, tblSpgen uint16

	scanlines uint16
	palette   Palette
	fb        *FrameBuffer
	cbuf      [Width]bool

	nmi func()
}

// New creates a TMS9928A wired to fb for output and nmi for VBL/GINT
// interrupt delivery. scanlines should be ScanlinesNTSC or ScanlinesPAL.
func New(fb *FrameBuffer, scanlines uint16, nmi func()) *VDP {
	v := &VDP{
		fb:        fb,
		scanlines: scanlines,
		palette:   PaletteTeatime,
		nmi:       nmi,
	}
	return v
}

// SetScanlines changes the region's frame height (e.g. on a region
// switch); it takes effect from the next Exec call.
func (v *VDP) SetScanlines(n uint16) {
	v.scanlines = n
}

// SetPalette selects one of the two built-in palettes.
func (v *VDP) SetPalette(index int) {
	v.palette = ByIndex(index)
}

// FrameBuffer returns the raster this VDP paints into.
func (v *VDP) FrameBuffer() *FrameBuffer { return v.fb }

// Reset returns the VDP to its power-on state: VRAM, control registers,
// the address latch, and the line/dot counters are cleared. The
// framebuffer, scanline count, palette, and NMI callback are untouched,
// since those are owned by the surrounding console, not the chip itself.
func (v *VDP) Reset() {
	v.line, v.dot = 0, 0
	v.vram = [0x4000]byte{}
	v.addr = 0
	v.dlatch = 0
	v.wlatch = false
	v.ctrl = [8]uint8{}
	v.stat = 0
	v.tblCol, v.tblPgen, v.tblPname, v.tblSattr, v.tblSpgen = 0, 0, 0, 0, 0
	v.cbuf = [Width]bool{}
}

func (v *VDP) Rendering() bool { return v.ctrl[1]&ctrl1BL != 0 }
func (v *VDP) GINT() bool      { return v.ctrl[1]&ctrl1GINT != 0 }
func (v *VDP) IntFlag() bool   { return v.stat&statINT != 0 }

func (v *VDP) mode() int {
	m1 := v.ctrl[1]&ctrl1M1 != 0
	m2 := v.ctrl[0]&ctrl0M2 != 0
	m3 := v.ctrl[1]&ctrl1M3 != 0
	mode := 0
	if m1 {
		mode |= 1
	}
	if m3 {
		mode |= 2
	}
	if m2 {
		mode |= 4
	}
	return mode
}

// WriteControl handles one byte written to the control port, implementing
// the two-write address/register latch protocol.
func (v *VDP) WriteControl(data uint8) {
	if !v.wlatch {
		v.dlatch = data
		v.wlatch = true
		return
	}
	v.wlatch = false
	v.addr = (uint16(data&0x3F)<<8 | uint16(v.dlatch)) & 0x3FFF

	switch data & 0xC0 {
	case 0x00:
		v.dlatch = v.vram[v.addr]
		v.addr = (v.addr + 1) & 0x3FFF
	case 0x80:
		v.writeRegister(data&0x07, v.dlatch)
	}
}

// ReadStatus returns the status register and clears the INT/5S/C bits,
// keeping the fifth-sprite index bits.
func (v *VDP) ReadStatus() uint8 {
	old := v.stat
	v.stat &= 0x1F
	return old
}

// WriteData stores a byte at the current VRAM address and advances it.
func (v *VDP) WriteData(data uint8) {
	v.dlatch = data
	v.vram[v.addr] = data
	v.addr = (v.addr + 1) & 0x3FFF
}

// ReadData returns the prefetched latch and refills it from the new
// address.
func (v *VDP) ReadData() uint8 {
	val := v.dlatch
	v.dlatch = v.vram[v.addr]
	v.addr = (v.addr + 1) & 0x3FFF
	return val
}

func (v *VDP) writeRegister(index, value uint8) {
	value &= regWriteMask[index]
	old := v.ctrl[index]
	v.ctrl[index] = value

	switch index {
	case 1:
		wasGint := old&ctrl1GINT != 0
		nowGint := value&ctrl1GINT != 0
		if !wasGint && nowGint && v.IntFlag() {
			v.pulseNMI()
		}
	case 2:
		v.tblPname = uint16(value) << 10
	case 3:
		v.tblCol = uint16(value) << 6
	case 4:
		v.tblPgen = uint16(value) << 11
	case 5:
		v.tblSattr = uint16(value) << 7
	case 6:
		v.tblSpgen = uint16(value) << 11
	}
}

func (v *VDP) pulseNMI() {
	if v.nmi != nil {
		v.nmi()
	}
}

// Exec renders one scanline and advances the line counter, raising the
// VBL status bit and NMI on the transition into the vertical blank
// period, then wraps and repaints the overscan bands at the end of the
// frame.
func (v *VDP) Exec() {
	if v.line < Height {
		if v.Rendering() {
			v.drawBackgroundLine(int(v.line))
			v.drawSpriteLine(int(v.line))
		} else {
			v.drawBackdropRow(int(v.line))
		}
	}

	v.line++
	if v.line == Height {
		wasSet := v.IntFlag()
		v.stat |= statINT
		if v.GINT() && !wasSet {
			v.pulseNMI()
		}
	}
	if v.line >= v.scanlines {
		v.line = 0
		v.paintOverscanBands()
	}
}

func (v *VDP) backdropColour() uint32 {
	return v.palette[v.ctrl[7]&0x0F]
}

func (v *VDP) drawBackdropRow(line int) {
	fbY := line + Overscan
	backdrop := v.backdropColour()
	for x := 0; x < FrameWidth; x++ {
		v.fb.Set(x, fbY, backdrop)
	}
}

func (v *VDP) paintOverscanBands() {
	backdrop := v.backdropColour()
	for y := 0; y < Overscan; y++ {
		for x := 0; x < FrameWidth; x++ {
			v.fb.Set(x, y, backdrop)
			v.fb.Set(x, FrameHeight-1-y, backdrop)
		}
	}
}

func (v *VDP) drawBackgroundLine(line int) {
	r := line >> 3
	y := uint16(line & 7)
	fbY := line + Overscan
	backdrop := v.backdropColour()

	for x := 0; x < FrameWidth; x++ {
		v.fb.Set(x, fbY, backdrop)
	}

	switch v.mode() {
	case ModeText:
		v.drawTextLine(r, y, fbY)
	case ModeGraphics2:
		v.drawGraphics2Line(r, y, fbY)
	case ModeMulticolor:
		v.drawMulticolorLine(line, r, fbY)
	default:
		v.drawGraphics1Line(r, y, fbY)
	}
}

func (v *VDP) drawGraphics1Line(r int, y uint16, fbY int) {
	for i := 0; i < 32; i++ {
		name := v.vram[v.tblPname+uint16(r*32+i)]
		pat := v.vram[v.tblPgen+uint16(name)*8+y]
		col := v.vram[v.tblCol+uint16(name)>>3]
		fg, bg := col>>4, col&0x0F

		for b := 0; b < 8; b++ {
			idx := bg
			if pat&(0x80>>uint(b)) != 0 {
				idx = fg
			}
			if idx == 0 {
				continue
			}
			v.fb.Set(Overscan+i*8+b, fbY, v.palette[idx])
		}
	}
}

func (v *VDP) drawTextLine(r int, y uint16, fbY int) {
	fg := v.ctrl[7] >> 4
	for i := 0; i < 40; i++ {
		name := v.vram[v.tblPname+uint16(r*40+i)]
		pat := v.vram[v.tblPgen+uint16(name)*8+y]

		for b := 0; b < 6; b++ {
			if pat&(0x80>>uint(b)) == 0 {
				continue
			}
			x := 8 + i*6 + b
			v.fb.Set(Overscan+x, fbY, v.palette[fg])
		}
	}
}

func (v *VDP) drawGraphics2Line(r int, y uint16, fbY int) {
	patMask := uint16(v.ctrl[4]&0x03)<<8 | 0xFF
	patBase := uint16(v.ctrl[4]&0x04) << 11
	colMask := uint16(v.ctrl[3]&0x7F)<<3 | 0x07
	colBase := uint16((v.ctrl[3]>>7)&1) << 13

	for i := 0; i < 32; i++ {
		name := v.vram[v.tblPname+uint16(r*32+i)]
		nameIdx := uint16(name) + uint16(r&0x18)<<5

		pat := v.vram[patBase+(nameIdx&patMask)*8+y]
		col := v.vram[colBase+(nameIdx&colMask)*8+y]
		fg, bg := col>>4, col&0x0F

		for b := 0; b < 8; b++ {
			idx := bg
			if pat&(0x80>>uint(b)) != 0 {
				idx = fg
			}
			if idx == 0 {
				continue
			}
			v.fb.Set(Overscan+i*8+b, fbY, v.palette[idx])
		}
	}
}

func (v *VDP) drawMulticolorLine(line, r, fbY int) {
	half := 0
	if line&4 != 0 {
		half = 1
	}
	for i := 0; i < 32; i++ {
		name := v.vram[v.tblPname+uint16(r*32+i)]
		addr := uint16(name)<<3 + uint16(r&3)<<1 + uint16(half)
		b := v.vram[v.tblPgen+addr]
		hi, lo := b>>4, b&0x0F

		if hi != 0 {
			for x := 0; x < 4; x++ {
				v.fb.Set(Overscan+i*8+x, fbY, v.palette[hi])
			}
		}
		if lo != 0 {
			for x := 0; x < 4; x++ {
				v.fb.Set(Overscan+i*8+4+x, fbY, v.palette[lo])
			}
		}
	}
}

func (v *VDP) drawSpriteLine(line int) {
	for i := range v.cbuf {
		v.cbuf[i] = false
	}

	mag := int(v.ctrl[1] & ctrl1MAG)
	sprSize := 8
	if v.ctrl[1]&ctrl1SI != 0 {
		sprSize = 16
	}
	span := sprSize << mag
	numSpr := 0

	for i := 0; i < 32; i++ {
		base := v.tblSattr + uint16(i)*4
		y := v.vram[base]
		if y == 208 {
			break
		}

		effY := int(y)
		if y >= 225 {
			effY = int(y) - 256
		}
		effY++

		v.stat = (v.stat &^ 0x1F) | uint8(i&0x1F)

		if line < effY || line >= effY+span {
			continue
		}

		x := int(v.vram[base+1])
		pname := v.vram[base+2]
		colourByte := v.vram[base+3]
		if colourByte&0x80 != 0 {
			x -= 32
		}
		colour := colourByte & 0x0F

		numSpr++
		if numSpr == 5 {
			v.stat |= stat5S
			break
		}

		row := (line - effY) >> uint(mag)
		patBase := v.tblSpgen + uint16(pname&spritePatternMask(sprSize))*8

		halves := 1
		if sprSize == 16 {
			halves = 2
		}
		for half := 0; half < halves; half++ {
			patByte := v.vram[patBase+uint16(half)*0x10+uint16(row)]
			for b := 0; b < 8; b++ {
				if patByte&(0x80>>uint(b)) == 0 {
					continue
				}
				col := half*8 + b
				for m := 0; m <= mag; m++ {
					v.drawSpritePixel(x+col*(mag+1)+m, line, colour)
				}
			}
		}
	}
}

func spritePatternMask(size int) uint8 {
	if size == 16 {
		return 0xFC
	}
	return 0xFF
}

func (v *VDP) drawSpritePixel(x, line int, colour uint8) {
	if x < 0 || x >= Width {
		return
	}
	if v.cbuf[x] {
		v.stat |= statC
		return
	}
	v.cbuf[x] = true
	if colour != 0 {
		v.fb.Set(Overscan+x, line+Overscan, v.palette[colour])
	}
}

// SaveState pushes the VDP's fields onto w in the canonical snapshot
// order: line, dot, VRAM, address, data latch, write latch, control
// registers, status, then the five cached table bases.
func (v *VDP) SaveState(w *serial.Writer) {
	w.Push16(v.line)
	w.Push16(v.dot)
	w.PushBytes(v.vram[:])
	w.Push16(v.addr)
	w.Push8(v.dlatch)
	w.PushBool(v.wlatch)
	w.PushBytes(v.ctrl[:])
	w.Push8(v.stat)
	w.Push16(v.tblCol)
	w.Push16(v.tblPgen)
	w.Push16(v.tblPname)
	w.Push16(v.tblSattr)
	w.Push16(v.tblSpgen)
}

// LoadState restores a VDP's fields from r, written by a prior SaveState.
func (v *VDP) LoadState(r *serial.Reader) {
	v.line = r.Pop16()
	v.dot = r.Pop16()
	copy(v.vram[:], r.PopBytes(len(v.vram)))
	v.addr = r.Pop16()
	v.dlatch = r.Pop8()
	v.wlatch = r.PopBool()
	copy(v.ctrl[:], r.PopBytes(len(v.ctrl)))
	v.stat = r.Pop8()
	v.tblCol = r.Pop16()
	v.tblPgen = r.Pop16()
	v.tblPname = r.Pop16()
	v.tblSattr = r.Pop16()
	v.tblSpgen = r.Pop16()
}

// StateSize is the fixed byte length of a VDP snapshot.
const StateSize = 2 + 2 + 0x4000 + 2 + 1 + 1 + 8 + 1 + 2 + 2 + 2 + 2 + 2
