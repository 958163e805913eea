package model

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func noiseImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 13), B: uint8(x*y + 31), A: 255})
		}
	}
	return img
}

func TestPreprocess(t *testing.T) {
	sizes := []struct {
		name string
		w, h int
	}{
		{"single pixel", 1, 1},
		{"small", 17, 9},
		{"wide", 640, 120},
		{"tall", 90, 480},
		{"exact", ImageSize, ImageSize},
		{"large", 1024, 768},
	}

	for _, tc := range sizes {
		t.Run(tc.name, func(t *testing.T) {
			tensor, err := Preprocess(noiseImage(tc.w, tc.h))

			require.NoError(t, err)
			assert.Equal(t, []int64{1, 224, 224, 3}, tensor.Shape)
			require.Len(t, tensor.Data, 224*224*3)
			for _, v := range tensor.Data {
				if v < -1 || v > 1 {
					t.Fatalf("value %v out of range", v)
				}
			}
		})
	}

	t.Run("black image maps to -1", func(t *testing.T) {
		tensor, err := Preprocess(solidImage(300, 200, color.RGBA{A: 255}))

		require.NoError(t, err)
		for _, v := range tensor.Data {
			if v != -1 {
				t.Fatalf("expected -1, got %v", v)
			}
		}
	})

	t.Run("white image maps to 255/127.5 - 1", func(t *testing.T) {
		tensor, err := Preprocess(solidImage(200, 300, color.RGBA{R: 255, G: 255, B: 255, A: 255}))

		require.NoError(t, err)
		want := float32(255)/127.5 - 1
		for _, v := range tensor.Data {
			if v != want {
				t.Fatalf("expected %v, got %v", want, v)
			}
		}
	})

	t.Run("drops alpha whatever the input size", func(t *testing.T) {
		want := float32(255)/127.5 - 1
		for _, size := range []int{300, ImageSize, 97} {
			img := image.NewNRGBA(image.Rect(0, 0, size, size))
			for i := 0; i < len(img.Pix); i += 4 {
				copy(img.Pix[i:i+4], []uint8{255, 255, 255, 0})
			}

			tensor, err := Preprocess(img)

			require.NoError(t, err)
			for _, v := range tensor.Data {
				if v != want {
					t.Fatalf("%dx%d transparent white: expected %v, got %v", size, size, want, v)
				}
			}
		}
	})

	t.Run("keeps the colour of half transparent pixels", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 400, 300))
		for i := 0; i < len(img.Pix); i += 4 {
			copy(img.Pix[i:i+4], []uint8{51, 255, 0, 128})
		}

		tensor, err := Preprocess(img)

		require.NoError(t, err)
		assert.InDelta(t, -0.6, tensor.Data[0], 1e-6)
		assert.InDelta(t, 1.0, tensor.Data[1], 1e-6)
		assert.InDelta(t, -1.0, tensor.Data[2], 1e-6)
	})

	t.Run("rejects an empty image", func(t *testing.T) {
		_, err := Preprocess(image.NewRGBA(image.Rect(0, 0, 0, 0)))

		assert.ErrorIs(t, err, ErrDecode)
	})
}

func TestNormalize(t *testing.T) {
	t.Run("keeps RGB order per pixel", func(t *testing.T) {
		tensor, err := Normalize(solidImage(ImageSize, ImageSize, color.RGBA{R: 255, G: 0, B: 51, A: 255}))

		require.NoError(t, err)
		assert.Equal(t, float32(1), tensor.Data[0])
		assert.Equal(t, float32(-1), tensor.Data[1])
		assert.InDelta(t, -0.6, tensor.Data[2], 1e-6)
	})

	t.Run("rejects an unfitted image", func(t *testing.T) {
		_, err := Normalize(solidImage(100, 100, color.Black))

		assert.ErrorIs(t, err, ErrShape)
	})
}

func TestFit(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}

	assertRed := func(t *testing.T, img *image.NRGBA) {
		t.Helper()
		require.Equal(t, image.Rect(0, 0, ImageSize, ImageSize), img.Bounds())
		for y := 0; y < ImageSize; y++ {
			for x := 0; x < ImageSize; x++ {
				c := img.NRGBAAt(x, y)
				if c.R < 250 || c.B > 5 {
					t.Fatalf("pixel (%d,%d) = %v, expected red", x, y, c)
				}
			}
		}
	}

	t.Run("crops the sides of a wide image", func(t *testing.T) {
		img := solidImage(300, 100, blue)
		for y := 0; y < 100; y++ {
			for x := 100; x < 200; x++ {
				img.Set(x, y, red)
			}
		}

		assertRed(t, Fit(img))
	})

	t.Run("crops the top and bottom of a tall image", func(t *testing.T) {
		img := solidImage(100, 300, blue)
		for y := 100; y < 200; y++ {
			for x := 0; x < 100; x++ {
				img.Set(x, y, red)
			}
		}

		assertRed(t, Fit(img))
	})
}
