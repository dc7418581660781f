package capture

import (
	"fmt"

	"github.com/samber/lo"

	"go.viam.com/colorblob/logging"
	"go.viam.com/colorblob/vision/blob"
)

// Consumer receives the blobs of each detected frame. It is called synchronously from the capture
// loop; blobs is only valid for the duration of the call and must be copied to be kept.
type Consumer interface {
	ConsumeBlobs(seq int64, blobs []blob.Blob)
}

// ConsumerFunc adapts a function to a Consumer.
type ConsumerFunc func(seq int64, blobs []blob.Blob)

// ConsumeBlobs calls f.
func (f ConsumerFunc) ConsumeBlobs(seq int64, blobs []blob.Blob) {
	f(seq, blobs)
}

// LogConsumer logs a summary of every nth frame's blobs at debug level.
type LogConsumer struct {
	Logger logging.Logger
	Every  int64
	// Top limits how many blobs are described per line.
	Top int
}

// ConsumeBlobs implements Consumer.
func (lc *LogConsumer) ConsumeBlobs(seq int64, blobs []blob.Blob) {
	if lc.Logger.GetLevel() > logging.DEBUG {
		return
	}
	if lc.Every > 1 && seq%lc.Every != 0 {
		return
	}
	top := blobs
	if lc.Top > 0 && len(top) > lc.Top {
		top = top[:lc.Top]
	}
	lc.Logger.Debugw("blobs",
		"seq", seq,
		"count", len(blobs),
		"total_area", lo.SumBy(blobs, func(b blob.Blob) int { return b.Area }),
		"largest", lo.Map(top, func(b blob.Blob, _ int) string {
			return fmt.Sprintf("%dpx@(%.1f,%.1f)", b.Area, b.CentroidCol, b.CentroidRow)
		}),
	)
}
