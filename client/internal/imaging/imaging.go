// Package imaging shrinks captured photos before they are stored or sent for
// analysis.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// MaxDimension bounds the longer edge of the output.
	MaxDimension = 800
	// Quality is the JPEG quality of the output.
	Quality = 70
	// DataURLPrefix starts every value returned by Compress.
	DataURLPrefix = "data:image/jpeg;base64,"
)

// ErrDecode matches every *DecodeError.
var ErrDecode = errors.New("imaging: undecodable image")

// DecodeError reports input that is not a supported image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("imaging: decode: %v", e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// Compress decodes JPEG, PNG, GIF or WebP data, scales it so neither edge
// exceeds MaxDimension and returns a JPEG data URL.
func Compress(data []byte) (string, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", &DecodeError{Err: err}
	}

	b := src.Bounds()
	w, h := TargetSize(b.Dx(), b.Dy())

	var out image.Image = src
	if w != b.Dx() || h != b.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: Quality}); err != nil {
		return "", fmt.Errorf("imaging: encode: %w", err)
	}
	return DataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// TargetSize returns the output dimensions for a w×h input. The longer edge
// is clamped to MaxDimension and the other edge scales with it.
func TargetSize(w, h int) (int, int) {
	switch {
	case w >= h && w > MaxDimension:
		h = max(1, h*MaxDimension/w)
		w = MaxDimension
	case h > w && h > MaxDimension:
		w = max(1, w*MaxDimension/h)
		h = MaxDimension
	}
	return w, h
}
