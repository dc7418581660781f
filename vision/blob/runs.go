package blob

// run is a maximal horizontal span of matching pixels in one row, covering columns
// [start, end). Every run is an entry of the union-find forest; the summary fields are only
// meaningful at roots, where they describe the whole component.
type run struct {
	row   int
	start int
	end   int

	parent int
	// index of the earliest run in the component, which fixes its scan order.
	first int

	area           int
	minRow, maxRow int
	minCol, maxCol int
	sumRow         int64
	// sum of twice each pixel's column, so midpoints stay integral.
	sumCol2 int64
}

// addRun appends a run covering [start, end) of row. It reports false when the run table is
// full.
func (bl *BlobList) addRun(row, start, end int) bool {
	if bl.numRuns == bl.maxRuns {
		return false
	}
	idx := bl.numRuns
	area := end - start
	bl.runs[idx] = run{
		row:     row,
		start:   start,
		end:     end,
		parent:  idx,
		first:   idx,
		area:    area,
		minRow:  row,
		maxRow:  row,
		minCol:  start,
		maxCol:  end - 1,
		sumRow:  int64(area) * int64(row),
		sumCol2: int64(area) * int64(start+end-1),
	}
	bl.numRuns++
	return true
}

// encodeRow appends the runs of one row to the run table and returns how many runs it had to
// drop. The whole row is scanned even after the table fills up so the count is exact.
func (bl *BlobList) encodeRow(t Thresholds, row int, y, u, v []byte, xShift uint) int {
	dropped := 0
	start := -1
	for col, luma := range y {
		c := col >> xShift
		if t.Match(luma, u[c], v[c]) {
			if start < 0 {
				start = col
			}
			continue
		}
		if start >= 0 {
			if !bl.addRun(row, start, col) {
				dropped++
			}
			start = -1
		}
	}
	if start >= 0 && !bl.addRun(row, start, len(y)) {
		dropped++
	}
	return dropped
}
