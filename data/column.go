package data

import "strings"

// Column is a case-preserving column name. Two columns are the same
// column when their names match case-insensitively.
type Column string

// Name returns the column name as created.
func (c Column) Name() string { return string(c) }

// EqualTo reports case-insensitive identity with another column.
func (c Column) EqualTo(other Column) bool {
	return strings.EqualFold(string(c), string(other))
}

// IndexOfColumn returns the position of col within cols, or -1.
func IndexOfColumn(cols []Column, col Column) int {
	for i, c := range cols {
		if c.EqualTo(col) {
			return i
		}
	}
	return -1
}

// ColumnsContain reports whether cols contains col.
func ColumnsContain(cols []Column, col Column) bool {
	return IndexOfColumn(cols, col) >= 0
}
