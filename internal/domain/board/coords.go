package board

import (
	"fmt"
	"strconv"
	"strings"

	errs "leela_client/internal/errors"
)

const DefaultSize = 19

// Alphabet is the column alphabet of board notation. The letter I is skipped.
const Alphabet = "ABCDEFGHJKLMNOPQRST"

// Cartesian is the human-facing coordinate: X is the row number counted from
// the bottom edge, Y selects the column letter. Both are 1-indexed.
type Cartesian struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ArrayPosition indexes stored board state. Row 0 is the top edge.
type ArrayPosition struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Cartesian) Valid(size int) bool {
	return c.X >= 1 && c.X <= size && c.Y >= 1 && c.Y <= size
}

func (p ArrayPosition) Valid(size int) bool {
	return p.Row >= 0 && p.Row < size && p.Col >= 0 && p.Col < size
}

func CartesianToArray(c Cartesian, size int) ArrayPosition {
	return ArrayPosition{Row: size - c.X, Col: c.Y - 1}
}

func ArrayToCartesian(p ArrayPosition, size int) Cartesian {
	return Cartesian{X: size - p.Row, Y: p.Col + 1}
}

func CartesianToString(c Cartesian) (string, error) {
	if c.Y < 1 || c.Y > len(Alphabet) || c.X < 1 {
		return "", fmt.Errorf("%w: (%d,%d)", errs.ErrInvalidCoordinate, c.X, c.Y)
	}
	return string(Alphabet[c.Y-1]) + strconv.Itoa(c.X), nil
}

// StringToCartesian parses notation such as "D4" or "q16".
func StringToCartesian(coord string) (Cartesian, error) {
	coord = strings.TrimSpace(coord)
	if len(coord) < 2 {
		return Cartesian{}, fmt.Errorf("%w: %q", errs.ErrInvalidCoordinate, coord)
	}

	y := strings.IndexByte(Alphabet, upper(coord[0])) + 1
	if y == 0 {
		return Cartesian{}, fmt.Errorf("%w: unknown column in %q", errs.ErrInvalidCoordinate, coord)
	}

	row := coord[1:]
	if row[0] == '0' || strings.Trim(row, "0123456789") != "" {
		return Cartesian{}, fmt.Errorf("%w: bad row in %q", errs.ErrInvalidCoordinate, coord)
	}
	x, err := strconv.Atoi(row)
	if err != nil {
		return Cartesian{}, fmt.Errorf("%w: bad row in %q", errs.ErrInvalidCoordinate, coord)
	}

	return Cartesian{X: x, Y: y}, nil
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
