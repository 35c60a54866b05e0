package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	ErrDecode      = errors.New("failed to decode image")
	ErrEmptyRegion = errors.New("face region is outside the image")
)

// Decode decodes any of the registered formats (jpeg, png, gif, bmp, webp).
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, format, nil
}

// Size returns the pixel dimensions without decoding the full image.
func Size(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return cfg.Width, cfg.Height, nil
}

// CropFace cuts region out of the image, scales it to a size x size square
// and returns it PNG encoded. The region is clipped to the image bounds.
func CropFace(data []byte, region image.Rectangle, size int) ([]byte, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}

	region = region.Canon().Intersect(img.Bounds())
	if region.Empty() {
		return nil, ErrEmptyRegion
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, region, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode face crop: %w", err)
	}
	return buf.Bytes(), nil
}
