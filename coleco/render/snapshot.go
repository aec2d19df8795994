// Package render provides headless debug views of a Console's
// framebuffer: a PNG snapshot exporter and a tcell-backed terminal
// renderer.
package render

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tanagra/coleco/vdp"
)

// SaveFramePNGToDir encodes fb as a PNG named "<baseName>_<timestamp>.png"
// under directory (the current working directory if empty).
func SaveFramePNGToDir(fb *vdp.FrameBuffer, baseName, directory string) error {
	img := image.NewRGBA(image.Rect(0, 0, vdp.FrameWidth, vdp.FrameHeight))
	for i, px := range fb.Pixels() {
		r, g, b, a := argbComponents(px)
		idx := i * 4
		img.Pix[idx] = r
		img.Pix[idx+1] = g
		img.Pix[idx+2] = b
		img.Pix[idx+3] = a
	}

	outputDir := directory
	if outputDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %v", err)
		}
		outputDir = cwd
	}

	timestamp := time.Now().Format("20060102_150405")
	filePath := filepath.Join(outputDir, fmt.Sprintf("%s_%s.png", baseName, timestamp))

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %v", filePath, err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %v", err)
	}

	slog.Info("snapshot saved", "path", filePath, "size", fmt.Sprintf("%dx%d", vdp.FrameWidth, vdp.FrameHeight))
	return nil
}

// argbComponents splits a packed ARGB8888 pixel into its four 8-bit
// components, as Go's image.RGBA (which is byte-order RGBA, not ARGB)
// expects them.
func argbComponents(px uint32) (r, g, b, a uint8) {
	a = uint8(px >> 24)
	r = uint8(px >> 16)
	g = uint8(px >> 8)
	b = uint8(px)
	return r, g, b, a
}
