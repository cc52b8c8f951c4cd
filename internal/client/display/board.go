package display

import (
	"fmt"
	"io"
	"strings"
)

// Square is a board coordinate as sent by the server
type Square struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// RenderBoard writes the board rows (row y=0 first) with x/y labels on all
// sides. Squares in marks are drawn as '*' when empty and highlighted when
// occupied.
func RenderBoard(w io.Writer, rows [8]string, marks []Square) {
	hot := make(map[Square]bool, len(marks))
	for _, sq := range marks {
		hot[sq] = true
	}

	header := "  " + label("0 1 2 3 4 5 6 7")
	fmt.Fprintln(w, header)
	for y, row := range rows {
		var sb strings.Builder
		sb.WriteString(label(fmt.Sprint(y)))
		for x := 0; x < 8; x++ {
			ch := byte('.')
			if x < len(row) {
				ch = row[x]
			}
			sb.WriteByte(' ')
			sb.WriteString(square(ch, hot[Square{X: x, Y: y}]))
		}
		sb.WriteByte(' ')
		sb.WriteString(label(fmt.Sprint(y)))
		fmt.Fprintln(w, sb.String())
	}
	fmt.Fprintln(w, header)
}

func square(ch byte, isMarked bool) string {
	switch {
	case isMarked && ch == '.':
		return marked("*")
	case isMarked:
		return marked(string(ch))
	case ch >= 'A' && ch <= 'Z':
		return whitePiece(string(ch))
	case ch >= 'a' && ch <= 'z':
		return blackPiece(string(ch))
	default:
		return string(ch)
	}
}
