// Package raster turns a drawn surface into the model's input tensor.
package raster

import "image"

// Side is the width and height of the model input in pixels.
const Side = 28

const TensorLen = Side * Side

// InputShape is the logical NCHW shape of an input tensor.
var InputShape = []int64{1, 1, Side, Side}

// Rasterize downsamples src to Side×Side with rs and returns the inverted red
// channel, (255 - R) / 255, in row-major order. Black ink maps to 1 and white
// to 0. The other channels are ignored. A nil src yields an all-zero tensor.
func Rasterize(src image.Image, rs Resampler) []float32 {
	out := make([]float32, TensorLen)
	if src == nil || src.Bounds().Empty() {
		return out
	}

	scratch := image.NewRGBA(image.Rect(0, 0, Side, Side))
	rs.Resample(scratch, src)

	for i := range out {
		red := scratch.Pix[i*4]
		out[i] = float32(255-red) / 255
	}
	return out
}
