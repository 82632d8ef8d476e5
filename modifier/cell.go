package modifier

import "context"

// Cell describes where the value handed to a Func came from.
type Cell struct {
	// Row is the 1-based data row number, not counting the header.
	Row int
	// Line is the input line the row started on, zero when unknown.
	Line int
	// Column is the header name of the cell's column.
	Column string
}

type cellKey struct{}

// WithCell attaches the cell position to ctx.
func WithCell(ctx context.Context, cell Cell) context.Context {
	return context.WithValue(ctx, cellKey{}, cell)
}

// CellFrom returns the cell position attached by WithCell.
func CellFrom(ctx context.Context) (Cell, bool) {
	cell, ok := ctx.Value(cellKey{}).(Cell)
	return cell, ok
}
