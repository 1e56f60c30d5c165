package api

const maxColumns = 4

// Columns is the number of grid columns used for total cards:
// ceil(total/2) clamped to [1, 4].
func Columns(total int) int {
	cols := (total + 1) / 2
	if cols < 1 {
		cols = 1
	}
	if cols > maxColumns {
		cols = maxColumns
	}
	return cols
}

// Arrange splits items into rows of Columns(len(items)). Item i lands in
// column i%cols of row i/cols.
func Arrange[T any](items []T) [][]T {
	if len(items) == 0 {
		return nil
	}
	cols := Columns(len(items))
	rows := make([][]T, 0, (len(items)+cols-1)/cols)
	for i, it := range items {
		if i%cols == 0 {
			rows = append(rows, make([]T, 0, cols))
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], it)
	}
	return rows
}
