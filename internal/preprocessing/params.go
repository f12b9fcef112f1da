package preprocessing

import (
	"encoding/json"
	"strings"

	"analysis-backend/internal/core/utils"
	"analysis-backend/internal/dataset"
	"analysis-backend/internal/errs"
)

// RawParams is the form representation of the preprocessing options as they
// arrive on the wire. Every field is optional.
type RawParams struct {
	MakeCopy               string `schema:"make_copy"`
	CaseInsensitiveColumns string `schema:"case_insensitive_columns"`
	ClearPunctColumns      string `schema:"clear_punct_columns"`
	ClearDigitsColumns     string `schema:"clear_digits_columns"`
	RowRangeStart          string `schema:"row_range_start"`
	RowRangeEnd            string `schema:"row_range_end"`
	RowRangeStep           string `schema:"row_range_step"`
	IndexCols              string `schema:"index_cols"`
	FillNaValues           string `schema:"fill_na_values"`
	MFill                  string `schema:"mfill"`
	FFill                  string `schema:"ffill"`
	BFill                  string `schema:"bfill"`
	DropNa                 string `schema:"drop_na"`
	DropOutliers           string `schema:"drop_outliers"`
	OutliersThreshold      string `schema:"outliers_threshold"`
	DropDuplicates         string `schema:"drop_duplicates"`
	DuplicateSubset        string `schema:"duplicate_subset"`
	DuplicateKeep          string `schema:"duplicate_keep"`
	DatetimeColumns        string `schema:"datetime_columns"`
	CategoryColumns        string `schema:"category_columns"`
	JoinSmallCat           string `schema:"join_small_cat"`
	JoinedCategoryName     string `schema:"joined_category_name"`
	CategoriesThreshold    string `schema:"categories_threshold"`
	ScaleNumeric           string `schema:"scale_numeric"`
	ScalingMethod          string `schema:"scaling_method"`
}

type Axis string

const (
	AxisRows    Axis = "rows"
	AxisColumns Axis = "columns"
)

type KeepPolicy string

const (
	KeepFirst KeepPolicy = "first"
	KeepLast  KeepPolicy = "last"
	KeepNone  KeepPolicy = "none"
)

type ScalingMethod string

const (
	MaxAbsScaling ScalingMethod = "max_abs_scaling"
	MinMaxScaling ScalingMethod = "min_max_scaling"
	ZScore        ScalingMethod = "z_score"
)

var scalingMethods = []string{string(MaxAbsScaling), string(MinMaxScaling), string(ZScore)}

// FillValue is either one scalar applied to every column or a mapping from
// column name to the scalar used for that column.
type FillValue struct {
	Scalar    any
	PerColumn map[string]any
}

// Params is the validated preprocessing configuration. Each field drives one
// step of the pipeline; zero values disable the step.
type Params struct {
	MakeCopy bool

	LowercaseColumns   dataset.Selector
	PunctuationColumns dataset.Selector
	DigitsColumns      dataset.Selector

	RowStart, RowStop, RowStep *int

	IndexColumns dataset.Selector

	Fill           *FillValue
	FillStatistic  bool
	ForwardFill    bool
	BackwardFill   bool
	DropMissing    Axis
	DropOutliers   bool
	OutlierZ       float64
	DropDuplicates bool
	DuplicateCols  dataset.Selector
	DuplicateKeep  KeepPolicy

	DatetimeColumns dataset.Selector
	CategoryColumns dataset.Selector

	MergeRareCategories bool
	MergedCategoryLabel string
	CategoryThreshold   *float64

	ScaleNumeric  bool
	ScalingMethod ScalingMethod
}

func DefaultParams() Params {
	return Params{
		OutlierZ:            3.0,
		DuplicateKeep:       KeepFirst,
		MergedCategoryLabel: "Other",
		ScalingMethod:       ZScore,
	}
}

// ParseParams validates raw form values. The first invalid value aborts with
// a ParameterError naming it.
func ParseParams(raw RawParams) (Params, error) {
	p := DefaultParams()
	var err error

	bools := []struct {
		param string
		raw   string
		dst   *bool
	}{
		{"make_copy", raw.MakeCopy, &p.MakeCopy},
		{"mfill", raw.MFill, &p.FillStatistic},
		{"ffill", raw.FFill, &p.ForwardFill},
		{"bfill", raw.BFill, &p.BackwardFill},
		{"drop_outliers", raw.DropOutliers, &p.DropOutliers},
		{"drop_duplicates", raw.DropDuplicates, &p.DropDuplicates},
		{"join_small_cat", raw.JoinSmallCat, &p.MergeRareCategories},
		{"scale_numeric", raw.ScaleNumeric, &p.ScaleNumeric},
	}
	for _, b := range bools {
		if *b.dst, err = utils.ParseBool(b.param, b.raw, *b.dst); err != nil {
			return p, err
		}
	}

	selectors := []struct {
		param string
		raw   string
		dst   *dataset.Selector
	}{
		{"case_insensitive_columns", raw.CaseInsensitiveColumns, &p.LowercaseColumns},
		{"clear_punct_columns", raw.ClearPunctColumns, &p.PunctuationColumns},
		{"clear_digits_columns", raw.ClearDigitsColumns, &p.DigitsColumns},
		{"index_cols", raw.IndexCols, &p.IndexColumns},
		{"duplicate_subset", raw.DuplicateSubset, &p.DuplicateCols},
		{"datetime_columns", raw.DatetimeColumns, &p.DatetimeColumns},
		{"category_columns", raw.CategoryColumns, &p.CategoryColumns},
	}
	for _, s := range selectors {
		sel, err := dataset.ParseSelector(s.raw)
		if err != nil {
			return p, &errs.ParameterError{Parameter: s.param, Value: s.raw, Expected: `"*", a column name or a list of column names`}
		}
		*s.dst = sel
	}

	if p.RowStart, err = utils.ParsePositiveInt("row_range_start", raw.RowRangeStart); err != nil {
		return p, err
	}
	if p.RowStop, err = utils.ParsePositiveInt("row_range_end", raw.RowRangeEnd); err != nil {
		return p, err
	}
	if p.RowStep, err = utils.ParsePositiveInt("row_range_step", raw.RowRangeStep); err != nil {
		return p, err
	}

	if p.Fill, err = parseFillValue(raw.FillNaValues); err != nil {
		return p, err
	}

	if strings.TrimSpace(raw.DropNa) != "" {
		axis, err := utils.ParseChoice("drop_na", raw.DropNa, []string{string(AxisRows), string(AxisColumns)})
		if err != nil {
			return p, err
		}
		p.DropMissing = Axis(axis)
	}

	threshold, err := utils.ParseFloat("outliers_threshold", raw.OutliersThreshold, "positive number", func(f float64) bool { return f > 0 })
	if err != nil {
		return p, err
	}
	if threshold != nil {
		p.OutlierZ = *threshold
	}

	if strings.TrimSpace(raw.DuplicateKeep) != "" {
		keep, err := utils.ParseChoice("duplicate_keep", raw.DuplicateKeep, []string{"first", "last", "false", "none"})
		if err != nil {
			return p, err
		}
		switch keep {
		case "first":
			p.DuplicateKeep = KeepFirst
		case "last":
			p.DuplicateKeep = KeepLast
		default:
			p.DuplicateKeep = KeepNone
		}
	}

	if name := strings.TrimSpace(raw.JoinedCategoryName); name != "" {
		p.MergedCategoryLabel = name
	}

	p.CategoryThreshold, err = utils.ParseFloat("categories_threshold", raw.CategoriesThreshold, "number between 0 and 1 (exclusive)",
		func(f float64) bool { return f > 0 && f < 1 })
	if err != nil {
		return p, err
	}

	if strings.TrimSpace(raw.ScalingMethod) != "" {
		method, err := utils.ParseChoice("scaling_method", raw.ScalingMethod, scalingMethods)
		if err != nil {
			return p, err
		}
		p.ScalingMethod = ScalingMethod(method)
	}

	return p, nil
}

// parseFillValue accepts a JSON scalar, a JSON object keyed by column name or
// plain text, which is used as a string scalar.
func parseFillValue(raw string) (*FillValue, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return &FillValue{Scalar: raw}, nil
	}

	switch v := decoded.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		if len(v) == 0 {
			return nil, nil
		}
		for col, value := range v {
			switch value.(type) {
			case map[string]any, []any:
				return nil, &errs.ParameterError{Parameter: "fill_na_values", Value: raw, Expected: "scalar fill value for column " + col}
			}
		}
		return &FillValue{PerColumn: v}, nil
	case []any:
		return nil, &errs.ParameterError{Parameter: "fill_na_values", Value: raw, Expected: []string{"JSON object", "string", "number", "boolean"}}
	default:
		return &FillValue{Scalar: v}, nil
	}
}
