package collage

import (
	"fmt"
	"image"
	"reflect"

	"github.com/gogpu/collage/internal/imageio"
	"github.com/gogpu/collage/mask"
	"github.com/gogpu/collage/render"
)

// Entry is one registered photograph with its placement profile.
type Entry struct {
	Texture *render.Texture
	Profile mask.Profile
}

// AddImage appends img with the placement profile [minRatio, maxRatio].
// The ratios are validated before the image is copied into the registry.
// A nil image, including a nil pointer of a concrete image type, is
// rejected with ErrNilImage.
func (c *Collager) AddImage(img image.Image, minRatio, maxRatio float64) error {
	profile, err := mask.NewProfile(minRatio, maxRatio)
	if err != nil {
		return err
	}
	if isNil(img) {
		return ErrNilImage
	}
	return c.add(img, profile)
}

// AddImageFile decodes the image at path and appends it.
func (c *Collager) AddImageFile(path string, minRatio, maxRatio float64) error {
	profile, err := mask.NewProfile(minRatio, maxRatio)
	if err != nil {
		return err
	}
	img, err := imageio.DecodeFile(path)
	if err != nil {
		return err
	}
	return c.add(img, profile)
}

// AddImageBytes decodes an encoded image and appends it.
func (c *Collager) AddImageBytes(data []byte, minRatio, maxRatio float64) error {
	profile, err := mask.NewProfile(minRatio, maxRatio)
	if err != nil {
		return err
	}
	img, err := imageio.DecodeBytes(data)
	if err != nil {
		return err
	}
	return c.add(img, profile)
}

func (c *Collager) add(img image.Image, profile mask.Profile) error {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("%w: image %dx%d", ErrInvalidSize, b.Dx(), b.Dy())
	}
	c.images = append(c.images, Entry{
		Texture: render.NewTexture(img, render.ClampLinear),
		Profile: profile,
	})
	c.log.Debug("collage: image added",
		"index", len(c.images)-1,
		"size", b.Size(),
		"min_ratio", profile.MinRatio,
		"max_ratio", profile.MaxRatio)
	return nil
}

// isNil reports whether img is nil or wraps a nil pointer.
func isNil(img image.Image) bool {
	if img == nil {
		return true
	}
	v := reflect.ValueOf(img)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// ClearImages empties the registry. Buffers and parameters are unaffected.
func (c *Collager) ClearImages() {
	c.images = nil
}

// Len returns the number of registered images.
func (c *Collager) Len() int {
	return len(c.images)
}

// Entry returns the registered image at index i.
func (c *Collager) Entry(i int) (Entry, error) {
	if i < 0 || i >= len(c.images) {
		return Entry{}, fmt.Errorf("%w: %d of %d", ErrImageIndex, i, len(c.images))
	}
	return c.images[i], nil
}

// pick resolves an image index. DefaultImage selects uniformly at random.
func (c *Collager) pick(index int) (int, error) {
	if index == DefaultImage {
		if len(c.images) == 0 {
			return 0, ErrEmptyRegistry
		}
		return c.rng.Intn(len(c.images)), nil
	}
	if index < 0 || index >= len(c.images) {
		return 0, fmt.Errorf("%w: %d of %d", ErrImageIndex, index, len(c.images))
	}
	return index, nil
}
