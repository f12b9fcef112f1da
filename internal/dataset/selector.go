package dataset

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"analysis-backend/internal/errs"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

/*
Column selectors are parsed from request parameters with the grammar:

Selector := "*" | "[" NameList? "]" | NameList
NameList := Name ( "," Name )*
Name     := <quoted string> | <bare name>

Bare names may contain inner spaces; surrounding whitespace is ignored.
*/

var (
	selectorLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "String", Pattern: `"(?:\\.|[^"\\])*"|'(?:\\.|[^'\\])*'`},
		{Name: "Star", Pattern: `\*`},
		{Name: "Punct", Pattern: `[\[\],]`},
		{Name: "Name", Pattern: `[^\s\[\],"'*](?:[^\[\],"]*[^\s\[\],"])?`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	selectorParser = participle.MustBuild[selectorExpr](
		participle.Lexer(selectorLexer),
		participle.Map(unquoteName, "String"),
		participle.Elide("Whitespace"),
	)
)

type selectorExpr struct {
	All   bool      `  @Star`
	List  *nameList `| "[" @@ "]"`
	Names []string  `| @(String | Name) ( "," @(String | Name) )*`
}

type nameList struct {
	Names []string `( @(String | Name) ( "," @(String | Name) )* )?`
}

func unquoteName(tok lexer.Token) (lexer.Token, error) {
	v := tok.Value
	if strings.HasPrefix(v, "'") {
		v = `"` + strings.ReplaceAll(strings.ReplaceAll(v[1:len(v)-1], `\'`, `'`), `"`, `\"`) + `"`
	}
	s, err := strconv.Unquote(v)
	if err != nil {
		return tok, fmt.Errorf("invalid quoted name %s: %w", tok.Value, err)
	}
	tok.Value = s
	return tok, nil
}

type selectorMode int

const (
	selectNone selectorMode = iota
	selectAll
	selectNames
)

// Selector designates a set of columns: every column, one column or an
// ordered list of columns. The zero value selects nothing and disables the
// step it configures.
type Selector struct {
	mode  selectorMode
	names []string
}

func AllColumns() Selector {
	return Selector{mode: selectAll}
}

func Columns(names ...string) Selector {
	if len(names) == 0 {
		return Selector{}
	}
	return Selector{mode: selectNames, names: slices.Clone(names)}
}

func (s Selector) Enabled() bool {
	return s.mode != selectNone
}

func (s Selector) All() bool {
	return s.mode == selectAll
}

func (s Selector) Names() []string {
	return slices.Clone(s.names)
}

func (s Selector) String() string {
	switch s.mode {
	case selectAll:
		return "*"
	case selectNames:
		quoted := make([]string, len(s.names))
		for i, n := range s.names {
			quoted[i] = strconv.Quote(n)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	}
	return "[]"
}

// ParseSelector parses the textual form of a selector. Empty input yields the
// zero Selector.
func ParseSelector(raw string) (Selector, error) {
	if strings.TrimSpace(raw) == "" {
		return Selector{}, nil
	}

	expr, err := selectorParser.ParseString("", raw)
	if err != nil {
		return Selector{}, fmt.Errorf("error parsing column selector '%s': %w", raw, err)
	}

	switch {
	case expr.All:
		return AllColumns(), nil
	case expr.List != nil:
		return Columns(expr.List.Names...), nil
	default:
		return Columns(expr.Names...), nil
	}
}

// Resolve turns a selector into concrete column names. "*" yields every
// available column in dataset order and a name list is returned unchanged.
// If any requested name is absent the whole resolution fails.
func Resolve(sel Selector, available []string) ([]string, error) {
	switch sel.mode {
	case selectAll:
		return slices.Clone(available), nil
	case selectNames:
		var missing []string
		for _, n := range sel.names {
			if !slices.Contains(available, n) {
				missing = append(missing, n)
			}
		}
		if len(missing) > 0 {
			return nil, &errs.ColumnNotFound{Missing: missing, Available: slices.Clone(available)}
		}
		return slices.Clone(sel.names), nil
	}
	return nil, nil
}
