package model

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Fit scales and centre-crops img to ImageSize x ImageSize with a Lanczos
// filter. The aspect ratio is kept: the excess along the longer side is
// cropped away, the image is never stretched.
func Fit(img image.Image) *image.NRGBA {
	return imaging.Fill(img, ImageSize, ImageSize, imaging.Center, imaging.Lanczos)
}

// Normalize maps every RGB sample v of a fitted image to v/127.5 - 1 and
// packs the result as a batch of one in NHWC order. Alpha is dropped
// without compositing.
func Normalize(img image.Image) (Tensor, error) {
	src := imaging.Clone(img)
	b := src.Bounds()
	if b.Dx() != ImageSize || b.Dy() != ImageSize {
		return Tensor{}, fmt.Errorf("%w: image is %dx%d, want %dx%d", ErrShape, b.Dx(), b.Dy(), ImageSize, ImageSize)
	}

	data := make([]float32, ImageSize*ImageSize*Channels)
	i := 0
	for y := 0; y < ImageSize; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+ImageSize*4]
		for x := 0; x < ImageSize; x++ {
			px := row[x*4 : x*4+4]
			data[i] = float32(px[0])/127.5 - 1
			data[i+1] = float32(px[1])/127.5 - 1
			data[i+2] = float32(px[2])/127.5 - 1
			i += Channels
		}
	}

	return Tensor{
		Shape: append([]int64(nil), InputShape...),
		Data:  data,
	}, nil
}

// toRGB copies img into an opaque NRGBA image. The colour channels are
// kept as stored and alpha is forced to 255, so transparency never reaches
// the resampling filter.
func toRGB(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// Preprocess converts an arbitrary decoded image into the model input.
func Preprocess(img image.Image) (Tensor, error) {
	if img == nil || img.Bounds().Empty() {
		return Tensor{}, fmt.Errorf("%w: empty image", ErrDecode)
	}

	t, err := Normalize(Fit(toRGB(img)))
	if err != nil {
		return Tensor{}, err
	}
	if err := checkShape(t); err != nil {
		return Tensor{}, err
	}
	return t, nil
}

func checkShape(t Tensor) error {
	if len(t.Shape) != len(InputShape) {
		return fmt.Errorf("%w: got %v, want %v", ErrShape, t.Shape, InputShape)
	}
	for i, d := range InputShape {
		if t.Shape[i] != d {
			return fmt.Errorf("%w: got %v, want %v", ErrShape, t.Shape, InputShape)
		}
	}
	if len(t.Data) != t.Size() {
		return fmt.Errorf("%w: %d values for shape %v", ErrShape, len(t.Data), t.Shape)
	}
	return nil
}
