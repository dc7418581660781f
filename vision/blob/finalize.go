package blob

// The blob array doubles as a bounded min-heap while roots are collected, so the largest
// MaxBlobs candidates survive without any extra memory. Entry i has scan order seqs[i].

// heapLess orders entries so the root of the heap is the first one to evict: the smallest area,
// and among equal areas the one found last.
func (bl *BlobList) heapLess(i, j int) bool {
	ai, aj := bl.blobs[i].Area, bl.blobs[j].Area
	return ai < aj || (ai == aj && bl.seqs[i] > bl.seqs[j])
}

func (bl *BlobList) heapSwap(i, j int) {
	bl.blobs[i], bl.blobs[j] = bl.blobs[j], bl.blobs[i]
	bl.seqs[i], bl.seqs[j] = bl.seqs[j], bl.seqs[i]
}

func (bl *BlobList) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !bl.heapLess(i, parent) {
			return
		}
		bl.heapSwap(i, parent)
		i = parent
	}
}

func (bl *BlobList) siftDown(i, n int) {
	for {
		smallest := i
		if l := 2*i + 1; l < n && bl.heapLess(l, smallest) {
			smallest = l
		}
		if r := 2*i + 2; r < n && bl.heapLess(r, smallest) {
			smallest = r
		}
		if smallest == i {
			return
		}
		bl.heapSwap(i, smallest)
		i = smallest
	}
}

func (r *run) toBlob() Blob {
	return Blob{
		MinRow:      r.minRow,
		MaxRow:      r.maxRow,
		MinCol:      r.minCol,
		MaxCol:      r.maxCol,
		Area:        r.area,
		CentroidRow: float64(r.sumRow) / float64(r.area),
		CentroidCol: float64(r.sumCol2) / float64(2*r.area),
	}
}

// finalize turns every root with an area above minArea into a blob, keeping the largest
// MaxBlobs of them ranked by descending area with ties in scan order. It returns how many
// candidates were dropped for lack of room.
func (bl *BlobList) finalize(minArea int) int {
	dropped := 0
	for i := 0; i < bl.numRuns; i++ {
		r := &bl.runs[i]
		if r.parent != i || r.area <= minArea {
			continue
		}
		bl.stats.Candidates++
		if bl.numBlobs < bl.maxBlobs {
			n := bl.numBlobs
			bl.blobs[n] = r.toBlob()
			bl.seqs[n] = r.first
			bl.numBlobs++
			bl.siftUp(n)
			continue
		}
		dropped++
		top := &bl.blobs[0]
		if r.area < top.Area || (r.area == top.Area && r.first > bl.seqs[0]) {
			continue
		}
		*top = r.toBlob()
		bl.seqs[0] = r.first
		bl.siftDown(0, bl.numBlobs)
	}

	// heap sort: repeatedly moving the minimum to the back leaves the array in descending order.
	for end := bl.numBlobs - 1; end > 0; end-- {
		bl.heapSwap(0, end)
		bl.siftDown(0, end)
	}
	return dropped
}
