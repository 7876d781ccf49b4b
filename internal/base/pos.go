package base

import "fmt"

// Pos is a (row, col) location in a text buffer. Inside the tree a Pos is
// usually stored relative to some base position, see Relative.
type Pos struct {
	Row int
	Col int
}

// Less reports whether p sorts strictly before o.
func (p Pos) Less(o Pos) bool {
	if p.Row != o.Row {
		return p.Row < o.Row
	}
	return p.Col < o.Col
}

// Leq reports whether p sorts before or at o.
func (p Pos) Leq(o Pos) bool {
	return !o.Less(p)
}

// Compare returns -1, 0 or 1.
func (p Pos) Compare(o Pos) int {
	switch {
	case p.Less(o):
		return -1
	case o.Less(p):
		return 1
	}
	return 0
}

// IsZero reports whether p is the origin.
func (p Pos) IsZero() bool {
	return p.Row == 0 && p.Col == 0
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Relative rewrites pos as an offset from base. base must not be after pos.
// On the same row the result keeps row 0 and the column delta, otherwise the
// row delta and the absolute column.
func Relative(base, pos Pos) Pos {
	if pos.Row == base.Row {
		return Pos{Row: 0, Col: pos.Col - base.Col}
	}
	return Pos{Row: pos.Row - base.Row, Col: pos.Col}
}

// Unrelative is the inverse of Relative.
func Unrelative(base, rel Pos) Pos {
	if rel.Row == 0 {
		return Pos{Row: base.Row, Col: base.Col + rel.Col}
	}
	return Pos{Row: base.Row + rel.Row, Col: rel.Col}
}

// Compose accumulates delta onto a running base.
func Compose(base, delta Pos) Pos {
	if delta.Row == 0 {
		base.Col += delta.Col
	} else {
		base.Row += delta.Row
		base.Col = delta.Col
	}
	return base
}
