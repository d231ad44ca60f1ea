package canvas

import (
	"fmt"
	"image"
	"math"

	"github.com/rocketscienceinc/tictactoe-canvas/internal/entity"
)

// BlitMark copies an opaque 80x80 sprite into the cell, inset 10px on every side.
func BlitMark(dst *image.RGBA, cell int, sprite *image.RGBA) {
	if !entity.ValidCell(cell) {
		panic(fmt.Sprintf("canvas: blit into cell %d", cell))
	}

	at := CellOrigin(cell).Add(image.Pt(SpriteInset, SpriteInset))
	src := sprite.Rect.Min
	rowBytes := SpriteSize * 4

	for y := 0; y < SpriteSize; y++ {
		dstOff := dst.PixOffset(at.X, at.Y+y)
		srcOff := sprite.PixOffset(src.X, src.Y+y)
		copy(dst.Pix[dstOff:dstOff+rowBytes], sprite.Pix[srcOff:srcOff+rowBytes])
	}
}

// OverlayRegion is the part of the canvas a strike overlay may touch for a line:
// the row's band, the column's band or, for diagonals, the whole board.
func OverlayRegion(line entity.Line) image.Rectangle {
	switch {
	case line.IsRow():
		top := int(line-entity.LineTopRow) * CellSize
		return image.Rect(0, top, Size, top+CellSize)
	case line.IsColumn():
		left := int(line-entity.LineLeftColumn) * CellSize
		return image.Rect(left, 0, left+CellSize, Size)
	case line.IsDiagonal():
		return Bounds
	default:
		panic(fmt.Sprintf("canvas: no overlay region for line %d", line))
	}
}

// BlendOverlay alpha-composites the overlay onto dst inside the line's region.
// The overlay shares the board's coordinate space.
func BlendOverlay(dst *image.RGBA, overlay *image.NRGBA, line entity.Line) {
	region := OverlayRegion(line).Intersect(overlay.Rect).Intersect(dst.Rect)

	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			bg := dst.Pix[dst.PixOffset(x, y):]
			fg := overlay.Pix[overlay.PixOffset(x, y):]

			alpha := fg[3]
			if alpha == 0 {
				continue
			}

			for i := 0; i < 3; i++ {
				bg[i] = BlendChannel(bg[i], fg[i], alpha)
			}
		}
	}
}

// BlendChannel computes bg*(1-a) + fg*a on channels normalised to [0,1].
func BlendChannel(bg, fg, alpha uint8) uint8 {
	a := float64(alpha) / 255
	out := (float64(bg)/255*(1-a) + float64(fg)/255*a) * 255

	return uint8(math.Round(math.Max(0, math.Min(255, out))))
}
