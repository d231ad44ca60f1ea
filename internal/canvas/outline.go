package canvas

import (
	"fmt"
	"image"
	"image/color"
)

type PositionClass int

const (
	ClassCorner PositionClass = iota
	ClassEdge
	ClassCenter
)

// Segments is the number of border segments drawn for the class: one per side
// shared with a neighbouring cell.
func (that PositionClass) Segments() int {
	switch that {
	case ClassCorner:
		return 2
	case ClassEdge:
		return 3
	default:
		return 4
	}
}

func ClassOf(cell int) PositionClass {
	switch cell {
	case 0, 2, 6, 8:
		return ClassCorner
	case 1, 3, 5, 7:
		return ClassEdge
	case 4:
		return ClassCenter
	default:
		panic(fmt.Sprintf("canvas: no position class for cell %d", cell))
	}
}

func rect(x, y, w, h int) image.Rectangle {
	return image.Rect(x, y, x+w, y+h)
}

// outlineSegments lists, per cell, the divider pieces that frame it. Pieces meeting
// at a divider crossing are cut so no pixel is painted twice.
var outlineSegments = [9][]image.Rectangle{
	// corners
	0: {rect(98, 0, 4, 102), rect(0, 98, 98, 4)},
	2: {rect(198, 98, 102, 4), rect(198, 0, 4, 98)},
	6: {rect(0, 198, 102, 4), rect(98, 202, 4, 98)},
	8: {rect(198, 198, 102, 4), rect(198, 202, 4, 98)},

	// edges
	1: {rect(198, 0, 4, 102), rect(98, 98, 100, 4), rect(98, 0, 4, 98)},
	3: {rect(0, 98, 102, 4), rect(98, 102, 4, 100), rect(0, 198, 98, 4)},
	5: {rect(198, 98, 102, 4), rect(198, 198, 102, 4), rect(198, 102, 4, 96)},
	7: {rect(98, 198, 104, 4), rect(198, 202, 4, 98), rect(98, 202, 4, 98)},

	// center
	4: {rect(98, 98, 104, 4), rect(198, 102, 4, 100), rect(98, 198, 100, 4), rect(98, 102, 4, 96)},
}

// OutlineSegments returns the border pieces for the cursor cell.
func OutlineSegments(cell int) []image.Rectangle {
	if cell < 0 || cell >= len(outlineSegments) {
		panic(fmt.Sprintf("canvas: no outline for cell %d", cell))
	}
	return outlineSegments[cell]
}

// DrawSelectionOutline paints the border of the cursor cell over the dividers. It
// is meant for a disposable copy of the board.
func DrawSelectionOutline(dst *image.RGBA, cell int, c color.RGBA) {
	for _, segment := range OutlineSegments(cell) {
		fill(dst, segment, c)
	}
}
