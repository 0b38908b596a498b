package host

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"storj.io/vcalc/bitfield"
)

// RowSize is the number of cells in a grid row.
const RowSize = 8

// Cell is one visible bit position of the grid.
type Cell struct {
	Pos int  `json:"pos"`
	Set bool `json:"set"`
}

// Grid lays out the visible positions of f in rows of RowSize, most
// significant first.
func Grid(f *bitfield.Field) [][]Cell {
	pos := f.VisiblePositions()
	rows := make([][]Cell, 0, (len(pos)+RowSize-1)/RowSize)
	for len(pos) > 0 {
		n := min(RowSize, len(pos))
		row := make([]Cell, n)
		for i, p := range pos[:n] {
			row[i] = Cell{Pos: p, Set: f.Has(p)}
		}
		rows = append(rows, row)
		pos = pos[n:]
	}
	return rows
}

var (
	setColor   = color.New(color.FgHiWhite, color.Bold)
	clearColor = color.New(color.FgHiBlack)
	labelColor = color.New(color.FgWhite, color.Faint)
)

// WriteGrid renders the grid of f with every row of cells followed by a row
// of position labels.
func WriteGrid(w io.Writer, f *bitfield.Field) error {
	var b strings.Builder
	for _, row := range Grid(f) {
		for i, c := range row {
			if i > 0 {
				b.WriteByte(' ')
			}
			if c.Set {
				b.WriteString(setColor.Sprint("  1"))
			} else {
				b.WriteString(clearColor.Sprint("  0"))
			}
		}
		b.WriteByte('\n')
		for i, c := range row {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(labelColor.Sprintf("%3d", c.Pos))
		}
		b.WriteByte('\n')
	}
	_, err := fmt.Fprint(w, b.String())
	return err
}
