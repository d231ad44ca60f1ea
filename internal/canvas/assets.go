package canvas

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/rocketscienceinc/tictactoe-canvas/internal/entity"
)

const (
	firstMarkFile   = "x.png"
	secondMarkFile  = "o.png"
	horizontalFile  = "1.png"
	verticalFile    = "2.png"
	mainDiagFile    = "3.png"
	antiDiagFile    = "4.png"
	strikeWidth     = 10
	strikeMargin    = 12
	glyphLineWidth  = 8
	glyphMargin     = 16
	glyphRingRadius = 26
)

var StrikeColor = color.NRGBA{R: 196, G: 57, B: 57, A: 220}

// Sprites are the read-only images shared by every session. Mark glyphs are opaque
// 80x80 images; strike sheets are 300x300 and carry one stroke per row, column or
// diagonal so that the region picked for a line selects the right stroke.
type Sprites struct {
	First  *image.RGBA
	Second *image.RGBA

	Horizontal   *image.NRGBA
	Vertical     *image.NRGBA
	MainDiagonal *image.NRGBA
	AntiDiagonal *image.NRGBA
}

// Mark returns the glyph for a placed mark.
func (that *Sprites) Mark(mark entity.Mark) *image.RGBA {
	switch mark {
	case entity.MarkFirst:
		return that.First
	case entity.MarkSecond:
		return that.Second
	default:
		panic("canvas: no sprite for an empty mark")
	}
}

// Overlay returns the strike sheet for a winning line.
func (that *Sprites) Overlay(line entity.Line) *image.NRGBA {
	switch {
	case line.IsRow():
		return that.Horizontal
	case line.IsColumn():
		return that.Vertical
	case line == entity.LineMainDiagonal:
		return that.MainDiagonal
	case line == entity.LineAntiDiagonal:
		return that.AntiDiagonal
	default:
		panic(fmt.Sprintf("canvas: no overlay for line %d", line))
	}
}

// LoadSprites reads the six sprite files from dir. Images of another size are
// rescaled to the board geometry.
func LoadSprites(dir string) (*Sprites, error) {
	first, err := loadMark(filepath.Join(dir, firstMarkFile))
	if err != nil {
		return nil, err
	}

	second, err := loadMark(filepath.Join(dir, secondMarkFile))
	if err != nil {
		return nil, err
	}

	overlays := make([]*image.NRGBA, 0, 4)
	for _, name := range []string{horizontalFile, verticalFile, mainDiagFile, antiDiagFile} {
		overlay, err := loadOverlay(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}

		overlays = append(overlays, overlay)
	}

	return &Sprites{
		First:        first,
		Second:       second,
		Horizontal:   overlays[0],
		Vertical:     overlays[1],
		MainDiagonal: overlays[2],
		AntiDiagonal: overlays[3],
	}, nil
}

// DefaultSprites draws the built-in glyphs and strike sheets.
func DefaultSprites() *Sprites {
	return &Sprites{
		First:        toOpaque(drawCross()),
		Second:       toOpaque(drawRing()),
		Horizontal:   toOverlay(drawStrikes(horizontalStrikes())),
		Vertical:     toOverlay(drawStrikes(verticalStrikes())),
		MainDiagonal: toOverlay(drawStrikes([][4]float64{{strikeMargin, strikeMargin, Size - strikeMargin, Size - strikeMargin}})),
		AntiDiagonal: toOverlay(drawStrikes([][4]float64{{Size - strikeMargin, strikeMargin, strikeMargin, Size - strikeMargin}})),
	}
}

func loadMark(path string) (*image.RGBA, error) {
	img, err := gg.LoadPNG(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load mark sprite %s: %w", path, err)
	}

	return toOpaque(img), nil
}

func loadOverlay(path string) (*image.NRGBA, error) {
	img, err := gg.LoadPNG(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load overlay %s: %w", path, err)
	}

	return toOverlay(img), nil
}

// toOpaque flattens a glyph onto the board background at sprite size.
func toOpaque(src image.Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, SpriteSize, SpriteSize))
	fill(dst, dst.Rect, BackgroundColor)
	scaleInto(dst, src, xdraw.Over)

	return dst
}

// toOverlay converts a strike sheet to straight alpha at board size.
func toOverlay(src image.Image) *image.NRGBA {
	dst := image.NewNRGBA(Bounds)
	scaleInto(dst, src, xdraw.Src)

	return dst
}

func scaleInto(dst xdraw.Image, src image.Image, op xdraw.Op) {
	if src.Bounds().Size() == dst.Bounds().Size() {
		xdraw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, op)
		return
	}

	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), op, nil)
}

func drawCross() image.Image {
	dc := glyphContext()
	dc.DrawLine(glyphMargin, glyphMargin, SpriteSize-glyphMargin, SpriteSize-glyphMargin)
	dc.DrawLine(SpriteSize-glyphMargin, glyphMargin, glyphMargin, SpriteSize-glyphMargin)
	dc.Stroke()

	return dc.Image()
}

func drawRing() image.Image {
	dc := glyphContext()
	dc.DrawCircle(SpriteSize/2, SpriteSize/2, glyphRingRadius)
	dc.Stroke()

	return dc.Image()
}

func glyphContext() *gg.Context {
	dc := gg.NewContext(SpriteSize, SpriteSize)
	dc.SetColor(BackgroundColor)
	dc.Clear()
	dc.SetColor(DividerColor)
	dc.SetLineWidth(glyphLineWidth)
	dc.SetLineCap(gg.LineCapRound)

	return dc
}

func horizontalStrikes() [][4]float64 {
	strikes := make([][4]float64, 0, entity.BoardSide)
	for i := 0; i < entity.BoardSide; i++ {
		y := float64(i*CellSize + CellSize/2)
		strikes = append(strikes, [4]float64{strikeMargin, y, Size - strikeMargin, y})
	}

	return strikes
}

func verticalStrikes() [][4]float64 {
	strikes := make([][4]float64, 0, entity.BoardSide)
	for i := 0; i < entity.BoardSide; i++ {
		x := float64(i*CellSize + CellSize/2)
		strikes = append(strikes, [4]float64{x, strikeMargin, x, Size - strikeMargin})
	}

	return strikes
}

func drawStrikes(strikes [][4]float64) image.Image {
	dc := gg.NewContext(Size, Size)
	dc.SetColor(StrikeColor)
	dc.SetLineWidth(strikeWidth)
	dc.SetLineCap(gg.LineCapRound)

	for _, s := range strikes {
		dc.DrawLine(s[0], s[1], s[2], s[3])
	}
	dc.Stroke()

	return dc.Image()
}
