package csvload

import (
	"fmt"
	"unicode/utf8"

	wdberrors "github.com/nan-gameware/wowdb/internal/errors"
)

// Options controls how a CSV export is parsed. The YAML keys follow the
// read_csv names used by existing schema files.
type Options struct {
	// Sep is the field delimiter, a single character. Defaults to ",".
	Sep string `yaml:"sep"`
	// UseCols keeps only the listed columns, in file order.
	UseCols []string `yaml:"usecols"`
	// DType forces a column type: int, float or str.
	DType map[string]string `yaml:"dtype"`
	// NAValues are additional cell values read as NULL.
	NAValues []string `yaml:"na_values"`
	// SkipRows drops this many data rows after the header.
	SkipRows int `yaml:"skiprows"`
	// NRows limits the number of data rows read. Zero means all.
	NRows int `yaml:"nrows"`
}

var dtypes = map[string]ColumnType{
	"int":   ColumnTypeInteger,
	"float": ColumnTypeReal,
	"str":   ColumnTypeText,
}

// Validate checks the options without reading any data.
func (o Options) Validate() error {
	if o.Sep != "" && utf8.RuneCountInString(o.Sep) != 1 {
		return wdberrors.NewConfigError("sep", o.Sep, "must be a single character")
	}
	for col, dt := range o.DType {
		if _, ok := dtypes[dt]; !ok {
			return wdberrors.NewConfigError("dtype", fmt.Sprintf("%s=%s", col, dt), "expected int, float or str")
		}
	}
	if o.SkipRows < 0 {
		return wdberrors.NewConfigError("skiprows", fmt.Sprint(o.SkipRows), "must not be negative")
	}
	if o.NRows < 0 {
		return wdberrors.NewConfigError("nrows", fmt.Sprint(o.NRows), "must not be negative")
	}
	return nil
}

func (o Options) comma() rune {
	if o.Sep == "" {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(o.Sep)
	return r
}
