package blob

import (
	"image"
	"strconv"

	"github.com/pkg/errors"

	"go.viam.com/colorblob/rimage"
)

// DrawBoundingBoxes outlines every blob of bl in frame. See DrawBlobs.
func DrawBoundingBoxes(bl *BlobList, thickness int, c rimage.YUV, frame *rimage.YUVFrame) error {
	if bl.closed {
		return ErrClosed
	}
	return DrawBlobs(bl.Blobs(), thickness, c, frame)
}

// DrawBlobs draws an outline thickness pixels wide just inside each blob's bounding box, clipped
// to the frame. A box thinner than twice the thickness is filled.
func DrawBlobs(blobs []Blob, thickness int, c rimage.YUV, frame *rimage.YUVFrame) error {
	if thickness < 1 {
		return errors.Errorf("box thickness must be positive, got %d", thickness)
	}
	if err := frame.Validate(); err != nil {
		return err
	}
	for _, b := range blobs {
		drawOutline(frame, b.Rect(), thickness, c)
	}
	return nil
}

func drawOutline(frame *rimage.YUVFrame, r image.Rectangle, thickness int, c rimage.YUV) {
	top := min(r.Min.Y+thickness, r.Max.Y)
	bottom := max(r.Max.Y-thickness, r.Min.Y)
	left := min(r.Min.X+thickness, r.Max.X)
	right := max(r.Max.X-thickness, r.Min.X)

	frame.FillRect(image.Rect(r.Min.X, r.Min.Y, r.Max.X, top), c)
	frame.FillRect(image.Rect(r.Min.X, bottom, r.Max.X, r.Max.Y), c)
	frame.FillRect(image.Rect(r.Min.X, top, left, bottom), c)
	frame.FillRect(image.Rect(right, top, r.Max.X, bottom), c)
}

// Annotations labels each blob's bounding box with its area, for rimage.DrawOverlay.
func Annotations(blobs []Blob) []rimage.Annotation {
	out := make([]rimage.Annotation, 0, len(blobs))
	for _, b := range blobs {
		out = append(out, rimage.Annotation{Box: b.Rect(), Label: strconv.Itoa(b.Area)})
	}
	return out
}
