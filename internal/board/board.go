package board

import (
	"encoding/json"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Square is one cell in FEN letter form: uppercase for white, lowercase for
// black. A vacant square is the zero value and marshals as JSON null, which
// is the marker clients use for empty cells.
type Square string

func (s Square) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

// Grid is an 8x8 piece matrix. Row 0 is white's back rank.
type Grid [][]Square

// Default returns the standard initial layout. It is derived from the
// library's start position rather than spelled out as literals, so the
// letters cannot drift from real chess.
func Default() Grid {
	ranks := []nchess.Rank{nchess.Rank1, nchess.Rank2, nchess.Rank3, nchess.Rank4, nchess.Rank5, nchess.Rank6, nchess.Rank7, nchess.Rank8}
	files := []nchess.File{nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD, nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH}

	squares := nchess.NewGame().Position().Board().SquareMap()
	g := make(Grid, len(ranks))
	for row, rank := range ranks {
		line := make([]Square, len(files))
		for col, file := range files {
			line[col] = letter(squares[nchess.NewSquare(file, rank)])
		}
		g[row] = line
	}
	return g
}

func letter(p nchess.Piece) Square {
	var s string
	switch p.Type() {
	case nchess.King:
		s = "k"
	case nchess.Queen:
		s = "q"
	case nchess.Rook:
		s = "r"
	case nchess.Bishop:
		s = "b"
	case nchess.Knight:
		s = "n"
	case nchess.Pawn:
		s = "p"
	default:
		return ""
	}
	if p.Color() == nchess.White {
		return Square(strings.ToUpper(s))
	}
	return Square(s)
}
