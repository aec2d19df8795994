package vdp

// Palette is the sixteen ARGB8888 colour entries a TMS9928A can paint.
// Index 0 is "transparent" for sprite/pattern colour codes but still has
// a concrete backdrop colour when used as reg 7's low nibble.
type Palette [16]uint32

// PaletteTeatime is a hand-tuned variant of the standard TMS9918 palette.
var PaletteTeatime = Palette{
	0x00000000, 0xFF000000, 0xFF3EB849, 0xFF74D07D,
	0xFF5955E0, 0xFF8076F1, 0xFFB95E51, 0xFF65DBEF,
	0xFFDB6559, 0xFFFF897D, 0xFFCCC35E, 0xFFDED087,
	0xFF3AA241, 0xFFB766B5, 0xFFCCCCCC, 0xFFFFFFFF,
}

// PaletteSYoung is transcribed from Sean Young's tms9918a.txt reference
// notes.
var PaletteSYoung = Palette{
	0x00000000, 0xFF000000, 0xFF21C842, 0xFF5EDC78,
	0xFF5455ED, 0xFF7D76FC, 0xFFD4524D, 0xFF42EBF5,
	0xFFFC5554, 0xFFFF7978, 0xFFD4C154, 0xFFE6CE80,
	0xFF21B03B, 0xFFC95BBA, 0xFFCCCCCC, 0xFFFFFFFF,
}

// Index 0 for Palette selection, per the configuration surface.
const (
	PaletteIndexTeatime = 0
	PaletteIndexSYoung  = 1
)

// ByIndex resolves the configuration surface's palette selector, silently
// defaulting to Teatime for any value other than 0/1.
func ByIndex(index int) Palette {
	if index == PaletteIndexSYoung {
		return PaletteSYoung
	}
	return PaletteTeatime
}
