package avdec

import "fmt"

// Picture is caller-owned image storage with per-plane buffers and
// strides. Decoded native pictures and resampler scratch buffers share
// this representation.
type Picture struct {
	Planes   [][]byte
	Linesize []int
	Width    int
	Height   int
	Format   PixelFormat
}

// AllocPicture allocates plane buffers for the given format and geometry.
func AllocPicture(format PixelFormat, width, height int) (*Picture, error) {
	if width <= 0 || height <= 0 || !format.Valid() {
		return nil, fmt.Errorf("%w: %dx%d %s", ErrPictureAlloc, width, height, format)
	}

	pic := &Picture{
		Width:  width,
		Height: height,
		Format: format,
	}

	switch format {
	case PixelFormatYUV420P:
		ySize := width * height
		uvSize := (width / 2) * (height / 2)
		pic.Planes = [][]byte{make([]byte, ySize), make([]byte, uvSize), make([]byte, uvSize)}
		pic.Linesize = []int{width, width / 2, width / 2}
	case PixelFormatNV12:
		ySize := width * height
		uvSize := (width / 2) * (height / 2) * 2
		pic.Planes = [][]byte{make([]byte, ySize), make([]byte, uvSize)}
		pic.Linesize = []int{width, width}
	default:
		bpp := format.BytesPerPixel()
		pic.Planes = [][]byte{make([]byte, width*height*bpp)}
		pic.Linesize = []int{width * bpp}
	}

	return pic, nil
}

// PictureFormat returns the format triple describing this picture.
func (p *Picture) PictureFormat() PictureFormat {
	return PictureFormat{Width: p.Width, Height: p.Height, PixelFormat: p.Format}
}
