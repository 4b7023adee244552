package game

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	DefaultRows   = 6
	DefaultCols   = 7
	ConnectLength = 4
)

var (
	ErrInvalidColumn = errors.New("invalid_column")
	ErrColumnFull    = errors.New("column_full")
)

type Token int8

const (
	Empty  Token = 0
	TokenA Token = 1
	TokenB Token = 2
)

func (t Token) Opponent() Token {
	switch t {
	case TokenA:
		return TokenB
	case TokenB:
		return TokenA
	default:
		return Empty
	}
}

func (t Token) Valid() bool {
	return t == TokenA || t == TokenB
}

// Directions lists the four line orientations in scan order:
// horizontal, vertical, diagonal down-right, diagonal up-right.
var Directions = [4][2]int{
	{0, 1},
	{1, 0},
	{1, 1},
	{-1, 1},
}

// Cell is a board coordinate; row 0 is the top row.
type Cell struct {
	Row int
	Col int
}

func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.Row, c.Col})
}

func (c *Cell) UnmarshalJSON(b []byte) error {
	var pair [2]int
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	c.Row, c.Col = pair[0], pair[1]
	return nil
}

// Board is a gravity grid. A cell above an empty cell in the same column is
// always empty; only Apply writes cells.
type Board struct {
	rows  int
	cols  int
	cells []Token
}

func NewBoard() *Board {
	return NewBoardSize(DefaultRows, DefaultCols)
}

func NewBoardSize(rows, cols int) *Board {
	if rows < ConnectLength {
		rows = ConnectLength
	}
	if cols < ConnectLength {
		cols = ConnectLength
	}
	return &Board{rows: rows, cols: cols, cells: make([]Token, rows*cols)}
}

// BoardFromGrid rebuilds a board from its row-major integer form and rejects
// grids that break gravity or hold unknown tokens.
func BoardFromGrid(grid [][]int) (*Board, error) {
	if len(grid) < ConnectLength || len(grid[0]) < ConnectLength {
		return nil, fmt.Errorf("grid too small: %d rows", len(grid))
	}
	b := NewBoardSize(len(grid), len(grid[0]))
	for r, row := range grid {
		if len(row) != b.cols {
			return nil, fmt.Errorf("row %d has %d cells, want %d", r, len(row), b.cols)
		}
		for c, v := range row {
			t := Token(v)
			if t != Empty && !t.Valid() {
				return nil, fmt.Errorf("cell (%d,%d): unknown token %d", r, c, v)
			}
			b.cells[r*b.cols+c] = t
		}
	}
	for c := 0; c < b.cols; c++ {
		for r := 0; r < b.rows-1; r++ {
			if b.At(r, c) != Empty && b.At(r+1, c) == Empty {
				return nil, fmt.Errorf("column %d: floating token at row %d", c, r)
			}
		}
	}
	return b, nil
}

func (b *Board) Rows() int { return b.rows }
func (b *Board) Cols() int { return b.cols }

func (b *Board) At(row, col int) Token {
	if !b.inBounds(row, col) {
		return Empty
	}
	return b.cells[row*b.cols+col]
}

func (b *Board) Clone() *Board {
	cells := make([]Token, len(b.cells))
	copy(cells, b.cells)
	return &Board{rows: b.rows, cols: b.cols, cells: cells}
}

// Apply drops t into col and returns the landing row. The board is mutated in
// place; speculative callers must Clone first.
func (b *Board) Apply(col int, t Token) (int, error) {
	if col < 0 || col >= b.cols {
		return -1, ErrInvalidColumn
	}
	for r := b.rows - 1; r >= 0; r-- {
		if b.cells[r*b.cols+col] == Empty {
			b.cells[r*b.cols+col] = t
			return r, nil
		}
	}
	return -1, ErrColumnFull
}

func (b *Board) CanPlay(col int) bool {
	return col >= 0 && col < b.cols && b.cells[col] == Empty
}

// CheckWin reports the first run of ConnectLength cells holding t.
func (b *Board) CheckWin(t Token) ([]Cell, bool) {
	if !t.Valid() {
		return nil, false
	}
	for _, d := range Directions {
		for r := 0; r < b.rows; r++ {
			for c := 0; c < b.cols; c++ {
				if line, ok := b.runFrom(r, c, d, t); ok {
					return line, true
				}
			}
		}
	}
	return nil, false
}

func (b *Board) runFrom(r, c int, d [2]int, t Token) ([]Cell, bool) {
	endR := r + d[0]*(ConnectLength-1)
	endC := c + d[1]*(ConnectLength-1)
	if !b.inBounds(endR, endC) {
		return nil, false
	}
	line := make([]Cell, 0, ConnectLength)
	for k := 0; k < ConnectLength; k++ {
		rr, cc := r+d[0]*k, c+d[1]*k
		if b.cells[rr*b.cols+cc] != t {
			return nil, false
		}
		line = append(line, Cell{Row: rr, Col: cc})
	}
	return line, true
}

// CheckDraw is true once no empty cell remains. Callers check for a win first:
// a full board can still hold a winning line.
func (b *Board) CheckDraw() bool {
	for _, v := range b.cells {
		if v == Empty {
			return false
		}
	}
	return true
}

// Window returns the ConnectLength tokens starting at (r, c) along d, or false
// when the window leaves the board.
func (b *Board) Window(r, c int, d [2]int) ([ConnectLength]Token, bool) {
	var out [ConnectLength]Token
	if !b.inBounds(r, c) || !b.inBounds(r+d[0]*(ConnectLength-1), c+d[1]*(ConnectLength-1)) {
		return out, false
	}
	for k := 0; k < ConnectLength; k++ {
		out[k] = b.cells[(r+d[0]*k)*b.cols+c+d[1]*k]
	}
	return out, true
}

// Grid returns a row-major copy suitable for JSON and storage.
func (b *Board) Grid() [][]int {
	out := make([][]int, b.rows)
	for r := 0; r < b.rows; r++ {
		row := make([]int, b.cols)
		for c := 0; c < b.cols; c++ {
			row[c] = int(b.cells[r*b.cols+c])
		}
		out[r] = row
	}
	return out
}

func (b *Board) inBounds(r, c int) bool {
	return r >= 0 && r < b.rows && c >= 0 && c < b.cols
}
