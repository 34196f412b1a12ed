// Package seating holds the static table of named seating patterns and
// the grid walk that turns a pattern into seat positions.
package seating

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownPattern is returned by Lookup for names not in the table.
var ErrUnknownPattern = errors.New("unknown seating pattern")

// Pattern is a row-major grid; true marks a cell holding a physical seat.
type Pattern [][]bool

// Cell is one seat-bearing cell of a pattern, zero-indexed.
type Cell struct {
	Row      int
	Col      int
	Position string
}

// Position formats the 1-indexed "row, col" label of a grid cell.
func Position(row, col int) string {
	return fmt.Sprintf("%d, %d", row+1, col+1)
}

// Rows is the number of grid rows.
func (p Pattern) Rows() int { return len(p) }

// Cols is the width of the widest row.
func (p Pattern) Cols() int {
	w := 0
	for _, row := range p {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// Seats counts the true cells.
func (p Pattern) Seats() int {
	n := 0
	for _, row := range p {
		for _, ok := range row {
			if ok {
				n++
			}
		}
	}
	return n
}

// Cells walks rows top to bottom and columns left to right and returns
// every seat-bearing cell in that order.
func (p Pattern) Cells() []Cell {
	out := make([]Cell, 0, p.Seats())
	for r, row := range p {
		for c, ok := range row {
			if ok {
				out = append(out, Cell{Row: r, Col: c, Position: Position(r, c)})
			}
		}
	}
	return out
}

func (p Pattern) clone() Pattern {
	out := make(Pattern, len(p))
	for i, row := range p {
		out[i] = append([]bool(nil), row...)
	}
	return out
}

// table is read-only after package init.
var table = map[string]Pattern{
	"studio": grid(
		"XXXXXX",
		"XXXXXX",
		"XXXXXX",
		"XXXXXX",
	),
	"compact": grid(
		"XXXXXXXX",
		"XXXXXXXX",
		"XXXXXXXX",
		"XXXXXXXX",
		".XXXXXX.",
	),
	"classic": grid(
		"XXXX.XXXX.XXXX",
		"XXXX.XXXX.XXXX",
		"XXXX.XXXX.XXXX",
		"XXXX.XXXX.XXXX",
		"XXXX.XXXX.XXXX",
		"XXXX.XXXX.XXXX",
		"XXXX.XXXX.XXXX",
		"..XX.XXXX.XX..",
	),
	"wide": grid(
		"XXXXXXX..XXXXXXX",
		"XXXXXXX..XXXXXXX",
		"XXXXXXX..XXXXXXX",
		"XXXXXXX..XXXXXXX",
		"XXXXXXX..XXXXXXX",
		"XXXXXXX..XXXXXXX",
	),
	"stadium": grid(
		"...XXXXXXXX...",
		"..XXXXXXXXXX..",
		".XXXXXXXXXXXX.",
		"XXXXXXXXXXXXXX",
		"XXXXXXXXXXXXXX",
		"XXXXXXXXXXXXXX",
		"XXXXXXXXXXXXXX",
		"XXXXXXXXXXXXXX",
		"XXXXXX..XXXXXX",
		"XXXXXX..XXXXXX",
	),
}

// grid builds a pattern from rows where 'X' is a seat and any other rune
// is empty floor.
func grid(rows ...string) Pattern {
	p := make(Pattern, len(rows))
	for i, row := range rows {
		p[i] = make([]bool, 0, len(row))
		for _, r := range row {
			p[i] = append(p[i], r == 'X')
		}
	}
	return p
}

// Lookup returns a copy of the named pattern.
func Lookup(name string) (Pattern, error) {
	p, ok := table[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPattern, name)
	}
	return p.clone(), nil
}

// Known reports whether name is in the table.
func Known(name string) bool {
	_, ok := table[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Names lists the pattern names in sorted order.
func Names() []string {
	out := make([]string, 0, len(table))
	for name := range table {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
