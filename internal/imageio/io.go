// Package imageio decodes source photographs and LUT atlases into
// premultiplied RGBA and writes rendered canvases back to disk.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif" // register GIF
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP
)

// I/O errors.
var (
	// ErrUnsupportedFormat is returned when the output extension has no encoder.
	ErrUnsupportedFormat = errors.New("imageio: unsupported format")

	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("imageio: empty data")
)

// DefaultJPEGQuality is used by Save for .jpg and .jpeg paths.
const DefaultJPEGQuality = 90

// Decode decodes an image from r, auto-detecting the format, and returns
// it as premultiplied RGBA anchored at the origin together with the
// format name.
func Decode(r io.Reader) (*image.RGBA, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("imageio: decode: %w", err)
	}
	return ToRGBA(img), format, nil
}

// DecodeBytes decodes an image from a byte slice.
func DecodeBytes(data []byte) (*image.RGBA, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	img, _, err := Decode(bytes.NewReader(data))
	return img, err
}

// DecodeFile loads an image from the given path.
func DecodeFile(path string) (*image.RGBA, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("imageio: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, _, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// ToRGBA converts img to premultiplied RGBA with bounds starting at (0, 0).
// An *image.RGBA already at the origin is returned as is.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Encode writes img to w in the named format ("png" or "jpeg").
func Encode(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "png":
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("imageio: encode PNG: %w", err)
		}
	case "jpg", "jpeg":
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: DefaultJPEGQuality}); err != nil {
			return fmt.Errorf("imageio: encode JPEG: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return nil
}

// FormatFromPath returns the encoder name for the path's extension.
func FormatFromPath(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return "png", nil
	case ".jpg", ".jpeg":
		return "jpeg", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Save writes img to path, choosing the encoder from the extension.
func Save(path string, img image.Image) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("imageio: create file: %w", err)
	}
	if err := Encode(f, img, format); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
