package export

import "errors"

// ErrNoColumns is returned when a dataset declares no columns.
var ErrNoColumns = errors.New("export: dataset has no columns")

// Column describes one output column. Key is the machine name used as the CSV
// header; Title is the human label printed in PDFs. Weight sizes the PDF column
// relative to its siblings and defaults to 1.
type Column struct {
	Key    string
	Title  string
	Weight float64
}

// Dataset is an ordered table. Every row must have one cell per column.
type Dataset struct {
	Columns []Column
	Rows    [][]string
	// Note is printed under the PDF table, for example to flag truncation.
	Note string
}

// Keys returns the column keys in order.
func (d Dataset) Keys() []string {
	keys := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		keys[i] = col.Key
	}
	return keys
}

func (d Dataset) cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
