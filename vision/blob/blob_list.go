package blob

import (
	"fmt"

	"github.com/pkg/errors"
)

// Stats describes the last detection.
type Stats struct {
	// Runs is the number of runs recorded in the run table.
	Runs int
	// RunsDropped counts runs that did not fit in the run table.
	RunsDropped int
	// Candidates counts blobs that passed the area filter.
	Candidates int
	// BlobsDropped counts candidates that did not fit in the blob array.
	BlobsDropped int
}

// OverflowError reports a frame whose results were truncated. It is owned by its BlobList and
// rewritten by the next Detect.
type OverflowError struct {
	RunsDropped  int
	BlobsDropped int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("%s: dropped %d runs and %d blobs", ErrCapacityExceeded, e.RunsDropped, e.BlobsDropped)
}

// Is makes errors.Is(err, ErrCapacityExceeded) hold.
func (e *OverflowError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

// BlobList owns the fixed run table and blob array used by Detect. It supports one detection at
// a time; results stay valid until the next Detect or Close.
type BlobList struct {
	maxRuns  int
	maxBlobs int

	runs    []run
	numRuns int

	blobs []Blob
	// order in which each heap entry's root was encountered, for tie breaking.
	seqs     []int
	numBlobs int

	stats    Stats
	overflow OverflowError
	closed   bool
}

// NewBlobList allocates a BlobList holding at most maxRuns runs and maxBlobs blobs per frame.
func NewBlobList(maxRuns, maxBlobs int) (*BlobList, error) {
	if maxRuns <= 0 {
		return nil, errors.Errorf("max runs must be positive, got %d", maxRuns)
	}
	if maxBlobs <= 0 {
		return nil, errors.Errorf("max blobs must be positive, got %d", maxBlobs)
	}
	return &BlobList{
		maxRuns:  maxRuns,
		maxBlobs: maxBlobs,
		runs:     make([]run, maxRuns),
		blobs:    make([]Blob, maxBlobs),
		seqs:     make([]int, maxBlobs),
	}, nil
}

// MaxRuns returns the run table capacity.
func (bl *BlobList) MaxRuns() int {
	return bl.maxRuns
}

// MaxBlobs returns the blob capacity.
func (bl *BlobList) MaxBlobs() int {
	return bl.maxBlobs
}

// Blobs returns the blobs of the last detection ranked by descending area. The slice aliases the
// BlobList's memory and must not be modified or retained past the next Detect.
func (bl *BlobList) Blobs() []Blob {
	return bl.blobs[:bl.numBlobs]
}

// Len returns the number of blobs from the last detection.
func (bl *BlobList) Len() int {
	return bl.numBlobs
}

// Stats returns counters from the last detection.
func (bl *BlobList) Stats() Stats {
	return bl.stats
}

// Close releases the run table and blob array. Detect fails with ErrClosed afterwards.
func (bl *BlobList) Close() error {
	if bl.closed {
		return nil
	}
	bl.closed = true
	bl.runs = nil
	bl.blobs = nil
	bl.seqs = nil
	bl.numRuns = 0
	bl.numBlobs = 0
	return nil
}

func (bl *BlobList) reset() {
	bl.numRuns = 0
	bl.numBlobs = 0
	bl.stats = Stats{}
}
