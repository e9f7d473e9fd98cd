package board

import (
	"fmt"

	errs "leela_client/internal/errors"
)

// SGFToCartesian converts a two-letter SGF point ("dd") on a board of the
// given size. Columns and rows both start at 'a' from the top-left corner.
func SGFToCartesian(point string, size int) (Cartesian, error) {
	if len(point) != 2 {
		return Cartesian{}, fmt.Errorf("%w: sgf point %q", errs.ErrInvalidCoordinate, point)
	}
	col := int(point[0]) - 'a'
	row := int(point[1]) - 'a'
	if col < 0 || col >= size || row < 0 || row >= size {
		return Cartesian{}, fmt.Errorf("%w: sgf point %q is off a %dx%d board", errs.ErrInvalidCoordinate, point, size, size)
	}
	return ArrayToCartesian(ArrayPosition{Row: row, Col: col}, size), nil
}

func CartesianToSGF(c Cartesian, size int) (string, error) {
	if !c.Valid(size) {
		return "", fmt.Errorf("%w: (%d,%d) on %dx%d board", errs.ErrInvalidCoordinate, c.X, c.Y, size, size)
	}
	p := CartesianToArray(c, size)
	return string([]byte{byte('a' + p.Col), byte('a' + p.Row)}), nil
}
