package collage

import (
	"errors"

	"github.com/gogpu/collage/effect"
	"github.com/gogpu/collage/mask"
	"github.com/gogpu/collage/render"
)

// Configuration errors. They are returned by the call that violated the
// contract, before any buffer is touched.
var (
	// ErrEmptyRegistry is returned when a random image is requested from
	// an empty registry.
	ErrEmptyRegistry = errors.New("collage: image registry is empty")

	// ErrImageIndex is returned for an image index outside the registry.
	ErrImageIndex = errors.New("collage: image index out of range")

	// ErrInvalidProfile is returned for placement ratios outside (0, 1] or
	// with min > max.
	ErrInvalidProfile = mask.ErrInvalidProfile

	// ErrInvalidSize is returned for piece or canvas sizes that are not
	// positive or exceed render.MaxSize.
	ErrInvalidSize = render.ErrInvalidSize

	// ErrInvalidParams is returned for out-of-range pipeline parameters.
	ErrInvalidParams = effect.ErrInvalidParams
)

// Resource errors. They fail New or AddImage.
var (
	// ErrMissingCanvas is returned by New when Resources has no canvas.
	ErrMissingCanvas = errors.New("collage: resources have no canvas")

	// ErrNilImage is returned by AddImage for a nil image.
	ErrNilImage = errors.New("collage: nil image")
)
