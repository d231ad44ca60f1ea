// Package canvas renders the board: the empty template, mark sprites, strike
// overlays and the selection outline. All functions are stateless and operate on a
// 300x300 opaque RGBA image.
package canvas

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/rocketscienceinc/tictactoe-canvas/internal/entity"
)

const (
	Size         = 300
	CellSize     = 100
	DividerWidth = 4
	SpriteSize   = 80
	SpriteInset  = 10
)

var (
	BackgroundColor = color.RGBA{R: 42, G: 44, B: 47, A: 255}
	DividerColor    = color.RGBA{R: 232, G: 232, B: 232, A: 255}
	HighlightColor  = color.RGBA{R: 196, G: 57, B: 57, A: 255}
)

// Bounds of the board image.
var Bounds = image.Rect(0, 0, Size, Size)

// NewBoard draws the empty board: background and the two dividers on each axis,
// centered on the cell boundaries at 100 and 200.
func NewBoard() *image.RGBA {
	board := image.NewRGBA(Bounds)
	fill(board, Bounds, BackgroundColor)

	for _, at := range []int{CellSize, 2 * CellSize} {
		from := at - DividerWidth/2
		fill(board, image.Rect(from, 0, from+DividerWidth, Size), DividerColor)
		fill(board, image.Rect(0, from, Size, from+DividerWidth), DividerColor)
	}

	return board
}

// CellOrigin returns the top-left pixel of a cell.
func CellOrigin(cell int) image.Point {
	return image.Pt(cell%entity.BoardSide*CellSize, cell/entity.BoardSide*CellSize)
}

// CellRect returns the full 100x100 area of a cell.
func CellRect(cell int) image.Rectangle {
	origin := CellOrigin(cell)
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(CellSize, CellSize))}
}

// Clone returns an independent copy of src.
func Clone(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}

// EncodePNG encodes the canvas. An opaque canvas is written as 8-bit RGB.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer

	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}

	return buf.Bytes(), nil
}

func fill(dst *image.RGBA, rect image.Rectangle, c color.RGBA) {
	draw.Draw(dst, rect, &image.Uniform{C: c}, image.Point{}, draw.Src)
}
