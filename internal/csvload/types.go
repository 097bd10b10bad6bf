package csvload

// ColumnType is the SQL storage class inferred for a CSV column.
type ColumnType int

const (
	// ColumnTypeText stores the cell verbatim.
	ColumnTypeText ColumnType = iota
	// ColumnTypeInteger stores cells as int64.
	ColumnTypeInteger
	// ColumnTypeReal stores cells as float64.
	ColumnTypeReal
)

// String returns the SQL column type.
func (ct ColumnType) String() string {
	switch ct {
	case ColumnTypeInteger:
		return "INTEGER"
	case ColumnTypeReal:
		return "REAL"
	default:
		return "TEXT"
	}
}

// Column is a named, typed column of a Frame.
type Column struct {
	Name string
	Type ColumnType
}

// Frame is a parsed CSV table. Each row holds one value per column:
// int64, float64, string, or nil for a missing cell.
type Frame struct {
	Columns []Column
	Rows    [][]any
}

// ColumnNames returns the column names in file order.
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = c.Name
	}
	return names
}
