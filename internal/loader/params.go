package loader

import (
	"strings"
	"unicode/utf8"

	"analysis-backend/internal/errs"
)

// Params holds the reader options supplied with an upload. Options that do not
// apply to the uploaded format are ignored.
type Params struct {
	Sep       string `schema:"sep"`
	Thousands string `schema:"thousands"`
	Decimal   string `schema:"decimal"`
	SheetName string `schema:"sheet_name"`
	TableName string `schema:"table_name"`
}

func (p Params) Validate() error {
	for _, opt := range [][2]string{{"thousands", p.Thousands}, {"decimal", p.Decimal}} {
		if opt[1] != "" && utf8.RuneCountInString(opt[1]) != 1 {
			return &errs.ParameterError{Parameter: opt[0], Value: opt[1], Expected: "a single character"}
		}
	}
	if p.Thousands != "" && p.Thousands == p.Decimal {
		return &errs.ParameterError{Parameter: "thousands", Value: p.Thousands, Expected: "a character different from decimal"}
	}
	if _, err := p.separator(); err != nil {
		return err
	}
	return nil
}

func (p Params) separator() (rune, error) {
	switch p.Sep {
	case "":
		return ',', nil
	case `\t`, "\t", "tab":
		return '\t', nil
	}
	if utf8.RuneCountInString(p.Sep) != 1 || strings.ContainsAny(p.Sep, "\"\r\n") {
		return 0, &errs.ParameterError{Parameter: "sep", Value: p.Sep, Expected: "a single delimiter character"}
	}
	r, _ := utf8.DecodeRuneInString(p.Sep)
	return r, nil
}
