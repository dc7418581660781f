package blob

// find returns the root of i, halving the path on the way.
func (bl *BlobList) find(i int) int {
	runs := bl.runs
	for runs[i].parent != i {
		runs[i].parent = runs[runs[i].parent].parent
		i = runs[i].parent
	}
	return i
}

// union joins the components of a and b. The component with the larger area becomes the root;
// on equal areas the earlier root wins.
func (bl *BlobList) union(a, b int) {
	ra, rb := bl.find(a), bl.find(b)
	if ra == rb {
		return
	}
	runs := bl.runs
	if runs[ra].area < runs[rb].area || (runs[ra].area == runs[rb].area && rb < ra) {
		ra, rb = rb, ra
	}
	root, child := &runs[ra], &runs[rb]
	child.parent = ra
	root.area += child.area
	root.sumRow += child.sumRow
	root.sumCol2 += child.sumCol2
	root.minRow = min(root.minRow, child.minRow)
	root.maxRow = max(root.maxRow, child.maxRow)
	root.minCol = min(root.minCol, child.minCol)
	root.maxCol = max(root.maxCol, child.maxCol)
	root.first = min(root.first, child.first)
}

// mergeRows unions every run in [curStart, curEnd) with the runs in [prevStart, prevEnd) whose
// columns overlap it. Both ranges are sorted by column, so one sweep visits every overlapping
// pair.
func (bl *BlobList) mergeRows(prevStart, prevEnd, curStart, curEnd int) {
	i, j := prevStart, curStart
	for i < prevEnd && j < curEnd {
		a, b := &bl.runs[i], &bl.runs[j]
		if a.start < b.end && b.start < a.end {
			bl.union(i, j)
		}
		switch {
		case a.end < b.end:
			i++
		case b.end < a.end:
			j++
		default:
			i++
			j++
		}
	}
}
