package sampler

import (
	"bufio"
	"fmt"
	"image"
	"io"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Role names which input of an extraction failed.
type Role string

const (
	RoleImage Role = "image"
	RoleDepth Role = "depth"
)

// DecodeError reports that a source could not be fetched or decoded.
type DecodeError struct {
	Role Role
	Key  string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("sampler: decode %s %q: %v", e.Role, e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode reads one image in any registered format (png, jpeg, gif, bmp,
// tiff, webp).
func Decode(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(bufio.NewReader(r))
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Empty() {
		return nil, fmt.Errorf("empty %s image", format)
	}
	return img, nil
}
