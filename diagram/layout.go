package diagram

const (
	layoutLeftMargin = 50
	layoutTopMargin  = 30
	layoutColWidth   = 160
	layoutRowHeight  = 60
)

func blockSize(blockType string) (w, h int) {
	switch blockType {
	case "Inport", "Outport":
		return 30, 14
	case "SubSystem":
		return 120, 80
	case "Sum":
		return 36, 36
	case "Gain":
		return 40, 36
	default:
		return 50, 36
	}
}

// autoLayout assigns positions column by column: Inports on the left,
// every block one column right of its furthest source, Outports on the
// far right.
func autoLayout(blocks []Block, conns []Connection) {
	cols := map[int]int{}

	for i := range blocks {
		if blocks[i].Type == "Inport" {
			cols[blocks[i].SID] = 0
		}
	}

	// Propagate until stable. The pass count bounds feedback loops.
	for pass := 0; pass <= len(blocks); pass++ {
		for _, c := range conns {
			srcCol, ok := cols[c.SrcSID]
			if !ok {
				continue
			}
			if dstCol, ok := cols[c.DstSID]; !ok || dstCol < srcCol+1 {
				cols[c.DstSID] = srcCol + 1
			}
		}
	}

	maxCol := 0
	for i := range blocks {
		if blocks[i].Type == "Outport" {
			continue
		}
		if _, ok := cols[blocks[i].SID]; !ok {
			cols[blocks[i].SID] = 1
		}
		if cols[blocks[i].SID] > maxCol {
			maxCol = cols[blocks[i].SID]
		}
	}
	for i := range blocks {
		if blocks[i].Type == "Outport" {
			cols[blocks[i].SID] = maxCol + 1
		}
	}

	rows := map[int]int{}
	for i := range blocks {
		col := cols[blocks[i].SID]
		row := rows[col]
		rows[col] = row + 1

		w, h := blockSize(blocks[i].Type)
		x := layoutLeftMargin + col*layoutColWidth
		y := layoutTopMargin + row*layoutRowHeight
		blocks[i].Position = []int{x, y, x + w, y + h}
	}
}
