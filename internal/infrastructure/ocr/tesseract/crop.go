package tesseract

import (
	"fmt"
	"image"
	"image/png"
	"os"
)

// cropTopHalf writes the upper 50% of a rasterized page to dst.
func cropTopHalf(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open raster: %w", err)
	}
	defer in.Close()

	img, err := png.Decode(in)
	if err != nil {
		return fmt.Errorf("decode raster: %w", err)
	}

	bounds := img.Bounds()
	top := image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Min.Y+bounds.Dy()/2)

	sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		return fmt.Errorf("raster image type %T does not support cropping", img)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create cropped raster: %w", err)
	}
	defer out.Close()

	if err := png.Encode(out, sub.SubImage(top)); err != nil {
		return fmt.Errorf("encode cropped raster: %w", err)
	}
	return nil
}
