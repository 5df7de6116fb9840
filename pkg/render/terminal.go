package render

import (
	"image"
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
	"golang.org/x/image/draw"
)

// Color is an alias for color.RGBA for convenience.
type Color = color.RGBA

// Colors used by the scene and the debug overlay.
var (
	ColorBlack   = color.RGBA{0, 0, 0, 255}
	ColorWhite   = color.RGBA{255, 255, 255, 255}
	ColorRed     = color.RGBA{255, 0, 0, 255}
	ColorGreen   = color.RGBA{0, 255, 0, 255}
	ColorCyan    = color.RGBA{0, 255, 255, 255}
	ColorYellow  = color.RGBA{255, 255, 0, 255}
	ColorMagenta = color.RGBA{255, 0, 255, 255}
	ColorHotPink = color.RGBA{255, 105, 180, 255}
)

// RGB creates a color from RGB values.
func RGB(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Add sums two colors channel by channel, saturating at 255.
func Add(a, b Color) Color {
	return Color{R: sat(a.R, b.R), G: sat(a.G, b.G), B: sat(a.B, b.B), A: sat(a.A, b.A)}
}

func sat(a, b uint8) uint8 {
	if s := uint16(a) + uint16(b); s < 255 {
		return uint8(s)
	}
	return 255
}

// Preview shows a downscaled rendered frame in the terminal. Each cell holds
// two vertically stacked pixels drawn with an upper half block.
type Preview struct {
	buf *image.RGBA
}

// Draw scales src to fit area and draws it on the screen.
func (p *Preview) Draw(scr uv.Screen, area uv.Rectangle, src image.Image) {
	w, h := area.Dx(), area.Dy()*2
	if w <= 0 || h <= 0 {
		return
	}
	if p.buf == nil || p.buf.Rect.Dx() != w || p.buf.Rect.Dy() != h {
		p.buf = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	draw.ApproxBiLinear.Scale(p.buf, p.buf.Rect, src, src.Bounds(), draw.Src, nil)
	drawHalfBlocks(scr, area, p.buf)
}

// DrawSwatch lays colors out row by row across area, two LEDs per cell
// vertically. Alpha is ignored. LEDs that do not fit are not shown.
func DrawSwatch(scr uv.Screen, area uv.Rectangle, colors []Color) {
	cols := area.Dx()
	if cols <= 0 || len(colors) == 0 {
		return
	}
	rows := (len(colors) + cols - 1) / cols
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))
	for i, c := range colors {
		c.A = 255
		img.SetRGBA(i%cols, i/cols, c)
	}
	drawHalfBlocks(scr, area, img)
}

// drawHalfBlocks converts img to terminal cells, one cell per two rows.
func drawHalfBlocks(scr uv.Screen, area uv.Rectangle, img *image.RGBA) {
	b := img.Bounds()
	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := b.Min.Y + (row-area.Min.Y)*2
		botY := topY + 1

		for col := area.Min.X; col < area.Max.X; col++ {
			x := b.Min.X + col - area.Min.X
			if x >= b.Max.X {
				break
			}
			cell := &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: rgbaToColor(pixel(img, x, topY)),
					Bg: rgbaToColor(pixel(img, x, botY)),
				},
			}
			scr.SetCell(col, row, cell)
		}
	}
}

func pixel(img *image.RGBA, x, y int) color.RGBA {
	if !(image.Point{x, y}).In(img.Rect) {
		return color.RGBA{}
	}
	return img.RGBAAt(x, y)
}

// rgbaToColor converts color.RGBA to Go's color.Color interface.
func rgbaToColor(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil // Transparent = no color
	}
	return c
}
