// Package imaging normalizes uploaded photos before they are stored.
package imaging

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// DefaultQuality is used when Processor.Quality is zero.
const DefaultQuality = 85

// ErrUnsupported is returned for uploads that are not a JPEG or PNG image.
var ErrUnsupported = errors.New("unsupported image format")

var accepted = map[string]bool{"jpeg": true, "png": true}

// Processor re-encodes photos as JPEG, shrinking them so neither side
// exceeds MaxDimension. A zero MaxDimension keeps the original size.
type Processor struct {
	MaxDimension int
	Quality      int
}

// Process decodes a JPEG or PNG photo from r and returns it as JPEG bytes.
func (p *Processor) Process(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading photo")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(ErrUnsupported, "only JPEG and PNG photos are accepted (%v)", err)
	}
	if !accepted[format] {
		return nil, errors.Wrapf(ErrUnsupported, "only JPEG and PNG photos are accepted (got %s)", format)
	}

	if w, h, ok := fit(img.Bounds(), p.MaxDimension); ok {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
		img = dst
	}

	quality := p.Quality
	if quality == 0 {
		quality = DefaultQuality
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, errors.Wrap(err, "encoding photo")
	}
	return out.Bytes(), nil
}

// JPEGName swaps the extension of name for .jpg, matching Process output.
func JPEGName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
}

// fit returns the size b must shrink to so its longer side is limit.
// ok is false when b already fits.
func fit(b image.Rectangle, limit int) (w, h int, ok bool) {
	w, h = b.Dx(), b.Dy()
	if limit <= 0 || (w <= limit && h <= limit) {
		return w, h, false
	}
	if w >= h {
		return limit, max(h*limit/w, 1), true
	}
	return max(w*limit/h, 1), limit, true
}
