package raster

import (
	"fmt"
	"image"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// Resampler scales src to fill dst. Implementations must be deterministic.
type Resampler interface {
	Resample(dst *image.RGBA, src image.Image)
}

// Filter names accepted by NewResampler.
const (
	FilterArea     = "area"
	FilterNearest  = "nearest"
	FilterBilinear = "bilinear"
	FilterLanczos  = "lanczos"
)

// boxKernel weights every source pixel inside the destination pixel's footprint
// equally. For an integer reduction factor this is an exact block average.
var boxKernel = &draw.Kernel{
	Support: 0.5,
	At: func(t float64) float64 {
		if t >= -0.5 && t < 0.5 {
			return 1
		}
		return 0
	},
}

type scalerResampler struct {
	scaler draw.Scaler
}

func (r scalerResampler) Resample(dst *image.RGBA, src image.Image) {
	r.scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
}

type lanczosResampler struct{}

func (lanczosResampler) Resample(dst *image.RGBA, src image.Image) {
	b := dst.Bounds()
	resized := resize.Resize(uint(b.Dx()), uint(b.Dy()), src, resize.Lanczos3)
	draw.Draw(dst, b, resized, resized.Bounds().Min, draw.Src)
}

// Area averages each block of source pixels.
func Area() Resampler { return scalerResampler{scaler: boxKernel} }

// Nearest samples the source pixel under each destination pixel centre.
func Nearest() Resampler { return scalerResampler{scaler: draw.NearestNeighbor} }

// Bilinear applies a tent filter widened to the reduction factor.
func Bilinear() Resampler { return scalerResampler{scaler: draw.BiLinear} }

// Lanczos applies a Lanczos-3 filter.
func Lanczos() Resampler { return lanczosResampler{} }

// NewResampler returns the resampler registered under name.
func NewResampler(name string) (Resampler, error) {
	switch name {
	case FilterArea, "":
		return Area(), nil
	case FilterNearest:
		return Nearest(), nil
	case FilterBilinear:
		return Bilinear(), nil
	case FilterLanczos:
		return Lanczos(), nil
	default:
		return nil, fmt.Errorf("unknown resample filter %q", name)
	}
}
