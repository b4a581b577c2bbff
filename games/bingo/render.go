/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package bingo

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	tileSize    = 140
	tileGap     = 8
	tileInset   = 8
	cardMargin  = 20
	headerSize  = 40
	exportInset = 40
	lineSpacing = 3
)

var (
	background  = color.RGBA{0x0f, 0x17, 0x2a, 0xff}
	tileOff     = color.RGBA{0x1e, 0x29, 0x3b, 0xff}
	tileOn      = color.RGBA{0x30, 0x69, 0x98, 0xff}
	tileCenter  = color.RGBA{0xff, 0xd4, 0x3b, 0xff}
	tileWinning = color.RGBA{0x22, 0xc5, 0x5e, 0xff}
	textLight   = color.RGBA{0xf8, 0xfa, 0xfc, 0xff}
	textDark    = color.RGBA{0x0f, 0x17, 0x2a, 0xff}
)

// wrap breaks s into lines of at most width runes, splitting words only when
// a single word is longer than width.
func wrap(s string, width int) []string {
	var (
		lines   []string
		current string
	)

	for _, word := range strings.Fields(s) {
		for utf8.RuneCountInString(word) > width {
			if current != "" {
				lines = append(lines, current)
				current = ""
			}

			r := []rune(word)
			lines = append(lines, string(r[:width]))
			word = string(r[width:])
		}

		switch {
		case current == "":
			current = word
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}

	if current != "" {
		lines = append(lines, current)
	}

	return lines
}

func fill(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func drawCentered(dst draw.Image, face font.Face, lines []string, area image.Rectangle, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
	}

	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil() + lineSpacing
	blockHeight := len(lines)*lineHeight - lineSpacing

	y := area.Min.Y + (area.Dy()-blockHeight)/2 + metrics.Ascent.Ceil()

	for _, line := range lines {
		width := d.MeasureString(line).Ceil()
		d.Dot = fixed.P(area.Min.X+(area.Dx()-width)/2, y)
		d.DrawString(line)
		y += lineHeight
	}
}

// Render draws b as a square image: the card with a header line, centered
// on a padded background.
func Render(b Board) *image.RGBA {
	face := basicfont.Face7x13

	grid := Size*tileSize + (Size-1)*tileGap
	cardWidth := grid + 2*cardMargin
	cardHeight := headerSize + grid + 2*cardMargin

	dim := max(cardWidth, cardHeight) + 2*exportInset

	img := image.NewRGBA(image.Rect(0, 0, dim, dim))
	fill(img, img.Bounds(), background)

	origin := image.Pt((dim-cardWidth)/2, (dim-cardHeight)/2)

	title := "Python Community Bingo"
	if HasBingo(b) {
		title += " - BINGO!"
	}
	header := image.Rect(origin.X, origin.Y+cardMargin, origin.X+cardWidth, origin.Y+cardMargin+headerSize)
	drawCentered(img, face, []string{title}, header, textLight)

	winning := make(map[int]bool)
	for _, l := range WinningLines(b) {
		for _, i := range Lines[l] {
			winning[i] = true
		}
	}

	maxChars := (tileSize - 2*tileInset) / font.MeasureString(face, "M").Ceil()

	top := header.Max.Y
	for i := range Cells {
		row, col := i/Size, i%Size
		x := origin.X + cardMargin + col*(tileSize+tileGap)
		y := top + row*(tileSize+tileGap)
		tile := image.Rect(x, y, x+tileSize, y+tileSize)

		bg, fg := tileOff, textLight
		switch {
		case i == Center:
			bg, fg = tileCenter, textDark
		case winning[i]:
			bg, fg = tileWinning, textDark
		case b[i]:
			bg = tileOn
		}

		fill(img, tile, bg)
		drawCentered(img, face, wrap(Squares[i], maxChars), tile.Inset(tileInset), fg)
	}

	return img
}

// RenderPNG writes the PNG encoding of Render(b) to w.
func RenderPNG(w io.Writer, b Board) error {
	return png.Encode(w, Render(b))
}
