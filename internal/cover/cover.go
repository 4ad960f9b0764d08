// Package cover normalizes uploaded listing covers: the format is sniffed
// from the bytes, the image is fitted into a portrait box and re-encoded as
// JPEG on a white background.
package cover

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/erazemk/menjava/internal/model"
)

// Bounds for stored covers.
const (
	MaxWidth  = 600
	MaxHeight = 900
	MaxUpload = 8 << 20
	Quality   = 85
)

// MIME is the type of every stored cover.
const MIME = "image/jpeg"

var accepted = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Image is a normalized cover.
type Image struct {
	Data   []byte
	Width  int
	Height int
}

// Normalize reads at most MaxUpload bytes from r and returns the re-encoded
// cover. Unsupported, oversized or corrupt input fails with
// model.ErrInvalidRequest.
func Normalize(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("reading cover: %w", err)
	}
	if len(data) > MaxUpload {
		return nil, fmt.Errorf("%w: cover larger than %d bytes", model.ErrInvalidRequest, MaxUpload)
	}

	if kind := http.DetectContentType(data); !accepted[kind] {
		return nil, fmt.Errorf("%w: unsupported cover format %s", model.ErrInvalidRequest, kind)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding cover: %v", model.ErrInvalidRequest, err)
	}

	b := src.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), MaxWidth, MaxHeight)

	// Transparent regions end up white rather than black in the JPEG.
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("encoding cover: %w", err)
	}
	return &Image{Data: buf.Bytes(), Width: w, Height: h}, nil
}

// Fit scales w x h down to fit within maxW x maxH, keeping the aspect ratio.
// Images already inside the box keep their size. Neither side drops below 1.
func Fit(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	// Compare w/maxW against h/maxH without floats.
	if w*maxH >= h*maxW {
		return maxW, max(1, h*maxW/w)
	}
	return max(1, w*maxH/h), maxH
}
