package blob

import (
	"go.viam.com/colorblob/rimage"
)

// Detect finds the blobs of frame matching params and returns how many it found. On success the
// blobs are available from Blobs until the next call.
//
// A frame with a non-positive size fails with ErrInvalidGeometry and one whose buffer is too
// short fails with ErrShortBuffer; in both cases -1 is returned and the previous results are
// left untouched. When the frame has more runs or blobs than the list can hold, the kept
// results are still returned together with an *OverflowError.
func (bl *BlobList) Detect(params DetectParams, frame *rimage.YUVFrame) (int, error) {
	if bl.closed {
		return -1, ErrClosed
	}
	if err := frame.Validate(); err != nil {
		return -1, err
	}
	bl.reset()

	xShift, _ := frame.Layout.ChromaShift()
	prevStart, prevEnd := 0, 0
	for row := 0; row < frame.Height; row++ {
		y, u, v := frame.Rows(row)
		curStart := bl.numRuns
		bl.stats.RunsDropped += bl.encodeRow(params.Thresholds, row, y, u, v, xShift)
		if params.MergeRows {
			bl.mergeRows(prevStart, prevEnd, curStart, bl.numRuns)
		}
		prevStart, prevEnd = curStart, bl.numRuns
	}
	bl.stats.Runs = bl.numRuns
	bl.stats.BlobsDropped = bl.finalize(params.MinArea)

	if bl.stats.RunsDropped > 0 || bl.stats.BlobsDropped > 0 {
		bl.overflow = OverflowError{
			RunsDropped:  bl.stats.RunsDropped,
			BlobsDropped: bl.stats.BlobsDropped,
		}
		return bl.numBlobs, &bl.overflow
	}
	return bl.numBlobs, nil
}
