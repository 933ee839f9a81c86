package sampler

import (
	"errors"
	"image"
	"math"

	"golang.org/x/image/draw"
)

const (
	DefaultMaxSampleDim = 512

	// sobelMax is the response of a full-contrast, axis-aligned step edge.
	sobelMax = 4.0

	// transparentCutoff is one 8-bit alpha step.
	transparentCutoff = 1.0 / 255.0
)

var ErrNilImage = errors.New("sampler: nil source image")

// Options controls grid sampling.
type Options struct {
	// SampleStep is the grid stride in sampled pixels. Values below 1 mean 1.
	SampleStep int
	// MaxSampleDim bounds the longer side of the sampled image. 0 means
	// DefaultMaxSampleDim.
	MaxSampleDim int
	// AspectRatio overrides the horizontal position scale. 0 means the
	// sampled image's own width/height.
	AspectRatio float32
	// SkipTransparent drops pixels whose alpha is below one 8-bit step.
	// Pure optimization: those pixels never pass any alpha threshold.
	SkipTransparent bool
}

func (o Options) normalized() Options {
	if o.SampleStep < 1 {
		o.SampleStep = 1
	}
	if o.MaxSampleDim <= 0 {
		o.MaxSampleDim = DefaultMaxSampleDim
	}
	return o
}

// Extract samples img on a regular grid and returns the feature table.
// depth may be nil, in which case luminance doubles as depth.
func Extract(img image.Image, depth image.Image, opts Options) (*PixelFeatures, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	opts = opts.normalized()

	w, h := sampledSize(img.Bounds(), opts.MaxSampleDim)
	src := resample(img, w, h)

	var depthPix *image.NRGBA
	if depth != nil {
		depthPix = resample(depth, w, h)
	}

	luma := lumaGrid(src)

	aspect := opts.AspectRatio
	if aspect <= 0 {
		aspect = float32(w) / float32(h)
	}

	gridW := (w + opts.SampleStep - 1) / opts.SampleStep
	gridH := (h + opts.SampleStep - 1) / opts.SampleStep
	out := newPixelFeatures(gridW * gridH)
	out.Width = w
	out.Height = h
	out.Aspect = aspect
	out.HasDepth = depthPix != nil

	for py := 0; py < h; py += opts.SampleStep {
		for px := 0; px < w; px += opts.SampleStep {
			off := py*src.Stride + px*4
			a := float32(src.Pix[off+3]) / 255
			if opts.SkipTransparent && a < transparentCutoff {
				continue
			}
			idx := py*w + px
			l := luma[idx]

			d := l
			if depthPix != nil {
				d = float32(depthPix.Pix[py*depthPix.Stride+px*4]) / 255
			}

			out.push(pixelRow{
				x:     ((float32(px)/float32(w))*2 - 1) * aspect,
				y:     -((float32(py)/float32(h))*2 - 1),
				depth: d,
				luma:  l,
				alpha: a,
				edge:  sobel(luma, w, h, px, py),
				r:     float32(src.Pix[off]) / 255,
				g:     float32(src.Pix[off+1]) / 255,
				b:     float32(src.Pix[off+2]) / 255,
				index: int32(idx),
			})
		}
	}
	return out, nil
}

// sampledSize scales b so that its longer side does not exceed maxDim.
func sampledSize(b image.Rectangle, maxDim int) (int, int) {
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return 1, 1
	}
	longer := w
	if h > longer {
		longer = h
	}
	if longer <= maxDim {
		return w, h
	}
	scale := float64(maxDim) / float64(longer)
	sw := int(math.Round(float64(w) * scale))
	sh := int(math.Round(float64(h) * scale))
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}
	return sw, sh
}

// resample converts src into a non-premultiplied w×h image.
func resample(src image.Image, w, h int) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) && n.Rect.Dx() == w && n.Rect.Dy() == h {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	sb := src.Bounds()
	if sb.Dx() == w && sb.Dy() == h {
		draw.Draw(dst, dst.Rect, src, sb.Min, draw.Src)
		return dst
	}
	draw.ApproxBiLinear.Scale(dst, dst.Rect, src, sb, draw.Src, nil)
	return dst
}

// Luminance returns the perceptual luminance of 8-bit channels in [0,1].
func Luminance(r, g, b uint8) float32 {
	return (0.299*float32(r) + 0.587*float32(g) + 0.114*float32(b)) / 255
}

func lumaGrid(img *image.NRGBA) []float32 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := make([]float32, w*h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			out[y*w+x] = Luminance(row[x*4], row[x*4+1], row[x*4+2])
		}
	}
	return out
}

// sobel returns the normalized 3×3 gradient magnitude at (x,y). Border
// pixels have no full neighbourhood and score 0.
func sobel(l []float32, w, h, x, y int) float32 {
	if x <= 0 || y <= 0 || x >= w-1 || y >= h-1 {
		return 0
	}
	at := func(dx, dy int) float32 { return l[(y+dy)*w+x+dx] }

	gx := (at(1, -1) + 2*at(1, 0) + at(1, 1)) - (at(-1, -1) + 2*at(-1, 0) + at(-1, 1))
	gy := (at(-1, 1) + 2*at(0, 1) + at(1, 1)) - (at(-1, -1) + 2*at(0, -1) + at(1, -1))

	mag := float32(math.Sqrt(float64(gx*gx+gy*gy))) / sobelMax
	if mag > 1 {
		return 1
	}
	return mag
}
