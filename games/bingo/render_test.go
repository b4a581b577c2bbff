/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package bingo

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"Love for Python"}, wrap("Love for Python", 17))
	assert.Equal(t, []string{"Expressed public", "thanks to someone", "in the community"},
		wrap("Expressed public thanks to someone in the community", 17))
	assert.Equal(t, []string{"abcd", "efgh", "ij x"}, wrap("abcdefghij x", 4))
	assert.Empty(t, wrap("   ", 10))
}

func TestWrapFitsTiles(t *testing.T) {
	for _, label := range Squares {
		for _, line := range wrap(label, 17) {
			assert.LessOrEqual(t, len(line), 17, label)
		}
	}
}

func TestRenderIsSquare(t *testing.T) {
	img := Render(DefaultBoard())

	bounds := img.Bounds()
	assert.Equal(t, bounds.Dx(), bounds.Dy())
	assert.Equal(t, background, img.RGBAAt(0, 0))
	assert.Equal(t, background, img.RGBAAt(exportInset-1, exportInset-1))
}

func TestRenderHighlightsSquares(t *testing.T) {
	plain := Render(DefaultBoard())
	checked := Render(boardWith(0))
	won := Render(boardWith(0, 1, 2, 3, 4))

	// top-left pixel inside square 0
	bounds := plain.Bounds()
	grid := Size*tileSize + (Size-1)*tileGap
	cardWidth := grid + 2*cardMargin
	cardHeight := headerSize + grid + 2*cardMargin
	x := (bounds.Dx()-cardWidth)/2 + cardMargin + 1
	y := (bounds.Dy()-cardHeight)/2 + cardMargin + headerSize + 1

	assert.Equal(t, tileOff, plain.RGBAAt(x, y))
	assert.Equal(t, tileOn, checked.RGBAAt(x, y))
	assert.Equal(t, tileWinning, won.RGBAAt(x, y))
}

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPNG(&buf, boardWith(0, 6, 18, 24)))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, Render(DefaultBoard()).Bounds(), img.Bounds())
}
