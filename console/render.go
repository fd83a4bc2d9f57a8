package console

import (
	"bufio"
	"io"

	"github.com/wfunc/monopoly/board"
	"github.com/wfunc/monopoly/player"
)

var kindGlyph = map[board.Kind]byte{
	board.KindStart:     'S',
	board.KindItemShop:  'T',
	board.KindGiftShop:  'G',
	board.KindMagicShop: 'M',
	board.KindHospital:  'H',
	board.KindPrison:    'P',
	board.KindPark:      'P',
	board.KindMine:      '$',
}

// RingPos maps a cell of the width x height frame to a node index, walking
// clockwise from the top-left corner. Interior cells return -1.
func RingPos(b *board.Board, line, col int) int {
	w, h, n := b.Width(), b.Height(), b.Size()
	switch {
	case line == 0:
		return col
	case line == h-1:
		return n - (h - 1) - col
	case col == 0:
		return n - line
	case col == w-1:
		return w + line - 1
	}
	return -1
}

// Glyph is the character shown for one node: the first occupant, then a
// resting item, then the estate level or the node kind.
func Glyph(b *board.Board, pos int) byte {
	n := b.Node(pos)
	if n == nil {
		return '?'
	}
	if occ := n.Occupants(); len(occ) > 0 {
		return player.IdentityID(occ[0])[0]
	}
	switch h, _ := n.Hazard(); h {
	case board.HazardBlock:
		return '#'
	case board.HazardBomb:
		return '@'
	}
	if e := n.Estate(); e != nil {
		return byte('0' + e.Level)
	}
	if g, ok := kindGlyph[n.Kind()]; ok {
		return g
	}
	return '?'
}

// Render draws the ring as a rectangle.
func Render(w io.Writer, b *board.Board) error {
	bw := bufio.NewWriter(w)
	for line := 0; line < b.Height(); line++ {
		for col := 0; col < b.Width(); col++ {
			c := byte(' ')
			if pos := RingPos(b, line, col); pos >= 0 {
				c = Glyph(b, pos)
			}
			bw.WriteByte(c)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
