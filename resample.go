package avdec

import (
	"errors"
	"fmt"
)

// ErrResamplerClosed is returned by Resample before Open or after Close.
var ErrResamplerClosed = errors.New("resampler is not open")

// PictureResampler converts pictures between two picture formats,
// covering both pixel format and geometry changes. It is bound to exactly
// one src/dst pair per Open and owns the scratch buffers it needs.
type PictureResampler struct {
	src    PictureFormat
	dst    PictureFormat
	opened bool

	// Interleaved RGB working buffers at source and destination geometry.
	srcRGB []byte
	dstRGB []byte
}

// NewPictureResampler creates an unbound resampler; Open binds it.
func NewPictureResampler() *PictureResampler {
	return &PictureResampler{}
}

// Open binds the resampler for exactly this format pair.
func (r *PictureResampler) Open(src, dst PictureFormat) error {
	if !src.Valid() {
		return fmt.Errorf("invalid source picture format: %s", src)
	}
	if !dst.Valid() {
		return fmt.Errorf("invalid destination picture format: %s", dst)
	}

	r.src = src
	r.dst = dst
	r.srcRGB = make([]byte, src.Width*src.Height*3)
	if src.Width == dst.Width && src.Height == dst.Height {
		r.dstRGB = r.srcRGB
	} else {
		r.dstRGB = make([]byte, dst.Width*dst.Height*3)
	}
	r.opened = true
	return nil
}

// Resample converts src into the caller-owned dst picture, which must
// already be sized for the destination format.
func (r *PictureResampler) Resample(src, dst *Picture) error {
	if !r.opened {
		return ErrResamplerClosed
	}
	if src.Width != r.src.Width || src.Height != r.src.Height || src.Format != r.src.PixelFormat {
		return fmt.Errorf("source picture is %s, resampler is bound to %s", src.PictureFormat(), r.src)
	}
	if dst.Width != r.dst.Width || dst.Height != r.dst.Height || dst.Format != r.dst.PixelFormat {
		return fmt.Errorf("destination picture is %s, resampler is bound to %s", dst.PictureFormat(), r.dst)
	}

	if err := toRGB(src, r.srcRGB); err != nil {
		return err
	}

	if r.src.Width != r.dst.Width || r.src.Height != r.dst.Height {
		scaleRGB(r.srcRGB, r.src.Width, r.src.Height, r.dstRGB, r.dst.Width, r.dst.Height)
	}

	return fromRGB(r.dstRGB, dst)
}

// Close releases the scratch buffers. Idempotent.
func (r *PictureResampler) Close() {
	r.srcRGB = nil
	r.dstRGB = nil
	r.opened = false
}

func clampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// yuvToRGB converts one BT.601 full-range YUV sample to packed RGB.
func yuvToRGB(y, u, v int) (byte, byte, byte) {
	cr := v - 128
	cb := u - 128
	rr := y + (91881*cr)>>16
	gg := y - (22554*cb)>>16 - (46802*cr)>>16
	bb := y + (116130*cb)>>16
	return clampByte(rr), clampByte(gg), clampByte(bb)
}

// rgbToYUV converts one packed RGB pixel to BT.601 full-range YUV.
func rgbToYUV(rr, gg, bb int) (byte, byte, byte) {
	y := (19595*rr + 38470*gg + 7471*bb) >> 16
	u := ((-11056*rr-21712*gg+32768*bb)>>16 + 128)
	v := ((32768*rr-27440*gg-5328*bb)>>16 + 128)
	return clampByte(y), clampByte(u), clampByte(v)
}

// toRGB converts a picture of any supported format into an interleaved
// RGB24 buffer at the same geometry.
func toRGB(src *Picture, out []byte) error {
	w, h := src.Width, src.Height

	switch src.Format {
	case PixelFormatRGB24:
		copyRows(out, w*3, src.Planes[0], src.Linesize[0], w*3, h)

	case PixelFormatBGR24:
		for row := 0; row < h; row++ {
			s := src.Planes[0][row*src.Linesize[0]:]
			d := out[row*w*3:]
			for x := 0; x < w; x++ {
				d[x*3+0] = s[x*3+2]
				d[x*3+1] = s[x*3+1]
				d[x*3+2] = s[x*3+0]
			}
		}

	case PixelFormatRGBA32:
		for row := 0; row < h; row++ {
			s := src.Planes[0][row*src.Linesize[0]:]
			d := out[row*w*3:]
			for x := 0; x < w; x++ {
				d[x*3+0] = s[x*4+0]
				d[x*3+1] = s[x*4+1]
				d[x*3+2] = s[x*4+2]
			}
		}

	case PixelFormatBGRA32:
		for row := 0; row < h; row++ {
			s := src.Planes[0][row*src.Linesize[0]:]
			d := out[row*w*3:]
			for x := 0; x < w; x++ {
				d[x*3+0] = s[x*4+2]
				d[x*3+1] = s[x*4+1]
				d[x*3+2] = s[x*4+0]
			}
		}

	case PixelFormatGray8:
		for row := 0; row < h; row++ {
			s := src.Planes[0][row*src.Linesize[0]:]
			d := out[row*w*3:]
			for x := 0; x < w; x++ {
				d[x*3+0] = s[x]
				d[x*3+1] = s[x]
				d[x*3+2] = s[x]
			}
		}

	case PixelFormatYUV420P:
		for row := 0; row < h; row++ {
			ys := src.Planes[0][row*src.Linesize[0]:]
			us := src.Planes[1][(row/2)*src.Linesize[1]:]
			vs := src.Planes[2][(row/2)*src.Linesize[2]:]
			d := out[row*w*3:]
			for x := 0; x < w; x++ {
				rr, gg, bb := yuvToRGB(int(ys[x]), int(us[x/2]), int(vs[x/2]))
				d[x*3+0] = rr
				d[x*3+1] = gg
				d[x*3+2] = bb
			}
		}

	case PixelFormatNV12:
		for row := 0; row < h; row++ {
			ys := src.Planes[0][row*src.Linesize[0]:]
			uvs := src.Planes[1][(row/2)*src.Linesize[1]:]
			d := out[row*w*3:]
			for x := 0; x < w; x++ {
				rr, gg, bb := yuvToRGB(int(ys[x]), int(uvs[(x/2)*2]), int(uvs[(x/2)*2+1]))
				d[x*3+0] = rr
				d[x*3+1] = gg
				d[x*3+2] = bb
			}
		}

	default:
		return fmt.Errorf("unsupported source pixel format: %s", src.Format)
	}

	return nil
}

// fromRGB converts an interleaved RGB24 buffer into the destination
// picture's format at the same geometry.
func fromRGB(in []byte, dst *Picture) error {
	w, h := dst.Width, dst.Height

	switch dst.Format {
	case PixelFormatRGB24:
		copyRows(dst.Planes[0], dst.Linesize[0], in, w*3, w*3, h)

	case PixelFormatBGR24:
		for row := 0; row < h; row++ {
			s := in[row*w*3:]
			d := dst.Planes[0][row*dst.Linesize[0]:]
			for x := 0; x < w; x++ {
				d[x*3+0] = s[x*3+2]
				d[x*3+1] = s[x*3+1]
				d[x*3+2] = s[x*3+0]
			}
		}

	case PixelFormatRGBA32:
		for row := 0; row < h; row++ {
			s := in[row*w*3:]
			d := dst.Planes[0][row*dst.Linesize[0]:]
			for x := 0; x < w; x++ {
				d[x*4+0] = s[x*3+0]
				d[x*4+1] = s[x*3+1]
				d[x*4+2] = s[x*3+2]
				d[x*4+3] = 0xff
			}
		}

	case PixelFormatBGRA32:
		for row := 0; row < h; row++ {
			s := in[row*w*3:]
			d := dst.Planes[0][row*dst.Linesize[0]:]
			for x := 0; x < w; x++ {
				d[x*4+0] = s[x*3+2]
				d[x*4+1] = s[x*3+1]
				d[x*4+2] = s[x*3+0]
				d[x*4+3] = 0xff
			}
		}

	case PixelFormatGray8:
		for row := 0; row < h; row++ {
			s := in[row*w*3:]
			d := dst.Planes[0][row*dst.Linesize[0]:]
			for x := 0; x < w; x++ {
				y, _, _ := rgbToYUV(int(s[x*3+0]), int(s[x*3+1]), int(s[x*3+2]))
				d[x] = y
			}
		}

	case PixelFormatYUV420P:
		for row := 0; row < h; row++ {
			s := in[row*w*3:]
			yd := dst.Planes[0][row*dst.Linesize[0]:]
			ud := dst.Planes[1][(row/2)*dst.Linesize[1]:]
			vd := dst.Planes[2][(row/2)*dst.Linesize[2]:]
			for x := 0; x < w; x++ {
				y, u, v := rgbToYUV(int(s[x*3+0]), int(s[x*3+1]), int(s[x*3+2]))
				yd[x] = y
				if row%2 == 0 && x%2 == 0 {
					ud[x/2] = u
					vd[x/2] = v
				}
			}
		}

	case PixelFormatNV12:
		for row := 0; row < h; row++ {
			s := in[row*w*3:]
			yd := dst.Planes[0][row*dst.Linesize[0]:]
			uvd := dst.Planes[1][(row/2)*dst.Linesize[1]:]
			for x := 0; x < w; x++ {
				y, u, v := rgbToYUV(int(s[x*3+0]), int(s[x*3+1]), int(s[x*3+2]))
				yd[x] = y
				if row%2 == 0 && x%2 == 0 {
					uvd[(x/2)*2] = u
					uvd[(x/2)*2+1] = v
				}
			}
		}

	default:
		return fmt.Errorf("unsupported destination pixel format: %s", dst.Format)
	}

	return nil
}

func copyRows(dst []byte, dstStride int, src []byte, srcStride, rowBytes, rows int) {
	for row := 0; row < rows; row++ {
		copy(dst[row*dstStride:row*dstStride+rowBytes], src[row*srcStride:])
	}
}

// scaleRGB scales an interleaved RGB buffer with fixed-point bilinear
// interpolation (16.16).
func scaleRGB(src []byte, srcW, srcH int, dst []byte, dstW, dstH int) {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return
	}

	xRatio := (srcW << 16) / dstW
	yRatio := (srcH << 16) / dstH

	for y := 0; y < dstH; y++ {
		srcYFP := y * yRatio
		y0 := srcYFP >> 16
		yWeight := srcYFP & 0xFFFF

		y1 := y0 + 1
		if y1 >= srcH {
			y1 = y0
		}

		for x := 0; x < dstW; x++ {
			srcXFP := x * xRatio
			x0 := srcXFP >> 16
			xWeight := srcXFP & 0xFFFF

			x1 := x0 + 1
			if x1 >= srcW {
				x1 = x0
			}

			for c := 0; c < 3; c++ {
				p00 := int(src[(y0*srcW+x0)*3+c])
				p10 := int(src[(y0*srcW+x1)*3+c])
				p01 := int(src[(y1*srcW+x0)*3+c])
				p11 := int(src[(y1*srcW+x1)*3+c])

				top := (p00*(0x10000-xWeight) + p10*xWeight) >> 16
				bottom := (p01*(0x10000-xWeight) + p11*xWeight) >> 16

				dst[(y*dstW+x)*3+c] = byte((top*(0x10000-yWeight) + bottom*yWeight) >> 16)
			}
		}
	}
}
