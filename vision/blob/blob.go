// Package blob finds connected regions of color in planar YUV frames.
//
// Detection classifies every pixel against inclusive per-channel thresholds, encodes each row
// into maximal horizontal runs, links runs that overlap a run of the previous row with a
// union-find over a flat run table, and finally turns the surviving roots into a ranked list of
// blobs. All memory is allocated once when a BlobList is constructed; detecting a frame only
// overwrites it.
//
// Runs merge only when their column spans overlap (4-connectivity). Two runs that merely touch
// diagonally remain separate blobs.
package blob

import (
	"image"

	"github.com/pkg/errors"

	"go.viam.com/colorblob/rimage"
)

var (
	// ErrInvalidGeometry is returned when a frame has a non-positive width or height.
	ErrInvalidGeometry = rimage.ErrInvalidGeometry
	// ErrShortBuffer is returned when a frame buffer is smaller than its geometry requires.
	ErrShortBuffer = rimage.ErrShortBuffer
	// ErrClosed is returned when a BlobList is used after Close.
	ErrClosed = errors.New("blob list is closed")
	// ErrCapacityExceeded is matched by the *OverflowError returned when a frame had more runs or
	// blobs than the BlobList can hold.
	ErrCapacityExceeded = errors.New("blob list capacity exceeded")
)

// Thresholds are inclusive bounds on each channel. Callers clamp them; Match never does.
type Thresholds struct {
	YLow  uint8 `json:"y_low"`
	YHigh uint8 `json:"y_high"`
	ULow  uint8 `json:"u_low"`
	UHigh uint8 `json:"u_high"`
	VLow  uint8 `json:"v_low"`
	VHigh uint8 `json:"v_high"`
}

// MatchAll accepts every pixel.
var MatchAll = Thresholds{YHigh: 255, UHigh: 255, VHigh: 255}

// Match reports whether the pixel lies within every bound.
func (t Thresholds) Match(y, u, v uint8) bool {
	return y >= t.YLow && y <= t.YHigh &&
		u >= t.ULow && u <= t.UHigh &&
		v >= t.VLow && v <= t.VHigh
}

// Valid reports whether every low bound is at most its high bound. Inverted bounds are legal
// but match nothing.
func (t Thresholds) Valid() bool {
	return t.YLow <= t.YHigh && t.ULow <= t.UHigh && t.VLow <= t.VHigh
}

// DetectParams is the immutable per-call input to Detect.
type DetectParams struct {
	Thresholds
	// MergeRows links overlapping runs of adjacent rows. Without it every run is its own blob.
	MergeRows bool
	// MinArea excludes blobs whose area is not strictly greater than it. Zero accepts all.
	MinArea int
}

// Blob is a connected region. Row and column bounds are inclusive.
type Blob struct {
	MinRow int `json:"min_row"`
	MaxRow int `json:"max_row"`
	MinCol int `json:"min_col"`
	MaxCol int `json:"max_col"`
	Area   int `json:"area"`

	// Area-weighted centroid.
	CentroidRow float64 `json:"centroid_row"`
	CentroidCol float64 `json:"centroid_col"`
}

// Rect returns the blob's bounding box as a half-open image rectangle.
func (b Blob) Rect() image.Rectangle {
	return image.Rect(b.MinCol, b.MinRow, b.MaxCol+1, b.MaxRow+1)
}

// Width returns the number of columns the blob spans.
func (b Blob) Width() int {
	return b.MaxCol - b.MinCol + 1
}

// Height returns the number of rows the blob spans.
func (b Blob) Height() int {
	return b.MaxRow - b.MinRow + 1
}
