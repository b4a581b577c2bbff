/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package bingo holds the card model for the community bingo game: the
// 25-square board, win detection over its 12 lines, persistence of a board
// into a key-value slot, share helpers, and PNG export.
package bingo

import (
	"errors"
	"fmt"
)

const (
	// Size is the width and height of the card.
	Size = 5

	// Cells is the number of squares on the card.
	Cells = Size * Size

	// Center is the index of the permanent freebie square.
	Center = Cells / 2
)

var ErrInvalidSquare = errors.New("invalid square index")

// Board is the check state of every square, row-major.
type Board [Cells]bool

// Line is one set of indices whose squares must all be checked for a bingo.
type Line [Size]int

// Lines holds the 5 rows, then the 5 columns, then the main and anti diagonals.
var Lines = buildLines()

func buildLines() [2*Size + 2]Line {
	var lines [2*Size + 2]Line

	for r := range Size {
		for c := range Size {
			lines[r][c] = r*Size + c
		}
	}

	for c := range Size {
		for r := range Size {
			lines[Size+c][r] = r*Size + c
		}
	}

	for i := range Size {
		lines[2*Size][i] = i * (Size + 1)
		lines[2*Size+1][i] = (i + 1) * (Size - 1)
	}

	return lines
}

// DefaultBoard returns a board with only the center checked.
func DefaultBoard() Board {
	var b Board
	b[Center] = true

	return b
}

func validIndex(index int) error {
	if index < 0 || index >= Cells {
		return fmt.Errorf("%w: %d", ErrInvalidSquare, index)
	}

	return nil
}

// Flip returns b with square index toggled. The center is never changed.
func Flip(b Board, index int) (Board, error) {
	if err := validIndex(index); err != nil {
		return b, err
	}

	if index == Center {
		return b, nil
	}

	b[index] = !b[index]

	return b, nil
}

func (b Board) complete(l Line) bool {
	for _, i := range l {
		if !b[i] {
			return false
		}
	}

	return true
}

// HasBingo reports whether any line of b is fully checked.
func HasBingo(b Board) bool {
	for _, l := range Lines {
		if b.complete(l) {
			return true
		}
	}

	return false
}

// WinningLines returns the positions in Lines of every complete line.
func WinningLines(b Board) []int {
	won := []int{}

	for i, l := range Lines {
		if b.complete(l) {
			won = append(won, i)
		}
	}

	return won
}

// Checked returns the number of checked squares, the center included.
func (b Board) Checked() int {
	n := 0

	for _, v := range b {
		if v {
			n++
		}
	}

	return n
}
