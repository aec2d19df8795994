package vdp

// Active display and overscan geometry.
const (
	Width          = 256
	Height         = 192
	Overscan       = 8
	FrameWidth     = Width + 2*Overscan
	FrameHeight    = Height + 2*Overscan
	ScanlinesNTSC  = 262
	ScanlinesPAL   = 313
)

// FrameBuffer is a caller-owned 272x208 ARGB8888 raster, matching the
// configuration surface's framebuffer pointer contract.
type FrameBuffer struct {
	pixels [FrameWidth * FrameHeight]uint32
}

// NewFrameBuffer allocates a zeroed framebuffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Set writes one ARGB8888 pixel at (x, y) in framebuffer coordinates
// (0,0 is the top-left of the overscan border, not the active display).
func (f *FrameBuffer) Set(x, y int, colour uint32) {
	if x < 0 || x >= FrameWidth || y < 0 || y >= FrameHeight {
		return
	}
	f.pixels[y*FrameWidth+x] = colour
}

// Pixels exposes the raw raster for presentation or PNG export.
func (f *FrameBuffer) Pixels() []uint32 {
	return f.pixels[:]
}
