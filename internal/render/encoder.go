package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/makeworld-the-better-one/dither/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/bmp"
)

// Encoder converts a raster screenshot into the 2-level dithered BMP
// the panel expects. Every call works inside a freshly created scratch
// directory that is removed unconditionally, success or failure.
type Encoder struct {
	// ScratchBase overrides the parent of scratch directories; empty
	// means the system temp dir.
	ScratchBase string
}

var monoPalette = []color.Color{color.Black, color.White}

// Encode decodes the raster, quantizes it to black and white with
// ordered (Bayer) dithering and returns the BMP container bytes.
func (e *Encoder) Encode(raster []byte) ([]byte, error) {
	if len(raster) == 0 {
		return nil, errors.New("encode: empty raster input")
	}

	scratch, err := os.MkdirTemp(e.ScratchBase, "inkwell-screen-")
	if err != nil {
		return nil, fmt.Errorf("encode: create scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			log.Error().Err(err).Str("dir", scratch).Msg("[render] failed to remove scratch dir")
		}
	}()

	src, _, err := image.Decode(bytes.NewReader(raster))
	if err != nil {
		return nil, fmt.Errorf("encode: decode raster: %w", err)
	}

	gray := image.NewGray(src.Bounds())
	draw.Draw(gray, gray.Bounds(), src, src.Bounds().Min, draw.Src)

	// Ordered dithering keeps perceived detail that plain thresholding
	// destroys on a 1-bit panel.
	d := dither.NewDitherer(monoPalette)
	d.Mapper = dither.Bayer(4, 4, 1.0)
	mono := toPaletted(d.Dither(gray))

	path := filepath.Join(scratch, "screen.bmp")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("encode: create bitmap file: %w", err)
	}
	if err := bmp.Encode(f, mono); err != nil {
		f.Close()
		return nil, fmt.Errorf("encode: write bitmap: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("encode: close bitmap file: %w", err)
	}

	out, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("encode: read bitmap back: %w", err)
	}
	return out, nil
}

func toPaletted(img image.Image) *image.Paletted {
	if p, ok := img.(*image.Paletted); ok {
		return p
	}
	p := image.NewPaletted(img.Bounds(), monoPalette)
	draw.Draw(p, p.Bounds(), img, img.Bounds().Min, draw.Src)
	return p
}
