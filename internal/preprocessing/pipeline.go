// Package preprocessing cleans and reshapes a dataset through a fixed
// sequence of optional steps driven by Params.
package preprocessing

import (
	"errors"
	"fmt"
	"log/slog"

	"analysis-backend/internal/dataset"
	"analysis-backend/internal/errs"
)

// Step is one stage of the pipeline. Param names the request parameter that
// configures it and is attached to column lookup failures.
type Step struct {
	Name    string
	Param   string
	Enabled func(p Params) bool
	Apply   func(ds *dataset.Dataset, p Params) error
}

type Pipeline struct {
	steps []Step
}

func NewPipeline() *Pipeline {
	return &Pipeline{steps: []Step{
		{
			Name:    "lowercase",
			Param:   "case_insensitive_columns",
			Enabled: func(p Params) bool { return p.LowercaseColumns.Enabled() },
			Apply:   func(ds *dataset.Dataset, p Params) error { return Lowercase(ds, p.LowercaseColumns) },
		},
		{
			Name:    "strip punctuation",
			Param:   "clear_punct_columns",
			Enabled: func(p Params) bool { return p.PunctuationColumns.Enabled() },
			Apply:   func(ds *dataset.Dataset, p Params) error { return StripPunctuation(ds, p.PunctuationColumns) },
		},
		{
			Name:    "strip digits",
			Param:   "clear_digits_columns",
			Enabled: func(p Params) bool { return p.DigitsColumns.Enabled() },
			Apply:   func(ds *dataset.Dataset, p Params) error { return StripDigits(ds, p.DigitsColumns) },
		},
		{
			Name:    "row selection",
			Param:   "row_range_start",
			Enabled: func(p Params) bool { return p.RowStart != nil || p.RowStop != nil || p.RowStep != nil },
			Apply: func(ds *dataset.Dataset, p Params) error {
				return SelectRows(ds, p.RowStart, p.RowStop, p.RowStep)
			},
		},
		{
			Name:    "set index",
			Param:   "index_cols",
			Enabled: func(p Params) bool { return p.IndexColumns.Enabled() },
			Apply:   func(ds *dataset.Dataset, p Params) error { return SetIndex(ds, p.IndexColumns) },
		},
		{
			Name:    "fill missing values",
			Param:   "fill_na_values",
			Enabled: func(p Params) bool { return p.Fill != nil },
			Apply:   func(ds *dataset.Dataset, p Params) error { return FillValues(ds, *p.Fill) },
		},
		{
			Name:    "fill missing with statistic",
			Param:   "mfill",
			Enabled: func(p Params) bool { return p.FillStatistic },
			Apply:   func(ds *dataset.Dataset, _ Params) error { return FillStatistic(ds) },
		},
		{
			Name:    "forward fill",
			Param:   "ffill",
			Enabled: func(p Params) bool { return p.ForwardFill },
			Apply:   func(ds *dataset.Dataset, _ Params) error { return ForwardFill(ds) },
		},
		{
			Name:    "backward fill",
			Param:   "bfill",
			Enabled: func(p Params) bool { return p.BackwardFill },
			Apply:   func(ds *dataset.Dataset, _ Params) error { return BackwardFill(ds) },
		},
		{
			Name:    "drop missing values",
			Param:   "drop_na",
			Enabled: func(p Params) bool { return p.DropMissing != "" },
			Apply:   func(ds *dataset.Dataset, p Params) error { return DropMissing(ds, p.DropMissing) },
		},
		{
			Name:    "drop outliers",
			Param:   "drop_outliers",
			Enabled: func(p Params) bool { return p.DropOutliers },
			Apply:   func(ds *dataset.Dataset, p Params) error { return DropOutliers(ds, p.OutlierZ) },
		},
		{
			Name:    "drop duplicates",
			Param:   "duplicate_subset",
			Enabled: func(p Params) bool { return p.DropDuplicates },
			Apply: func(ds *dataset.Dataset, p Params) error {
				return DropDuplicates(ds, p.DuplicateCols, p.DuplicateKeep)
			},
		},
		{
			Name:    "datetime conversion",
			Param:   "datetime_columns",
			Enabled: func(p Params) bool { return p.DatetimeColumns.Enabled() },
			Apply:   func(ds *dataset.Dataset, p Params) error { return CastDatetime(ds, p.DatetimeColumns) },
		},
		{
			Name:    "category conversion",
			Param:   "category_columns",
			Enabled: func(p Params) bool { return p.CategoryColumns.Enabled() },
			Apply:   func(ds *dataset.Dataset, p Params) error { return CastCategory(ds, p.CategoryColumns) },
		},
		{
			Name:    "merge rare categories",
			Param:   "join_small_cat",
			Enabled: func(p Params) bool { return p.MergeRareCategories },
			Apply: func(ds *dataset.Dataset, p Params) error {
				return MergeRareCategories(ds, p.MergedCategoryLabel, p.CategoryThreshold)
			},
		},
		{
			Name:    "scale numeric",
			Param:   "scaling_method",
			Enabled: func(p Params) bool { return p.ScaleNumeric },
			Apply:   func(ds *dataset.Dataset, p Params) error { return ScaleNumeric(ds, p.ScalingMethod) },
		},
	}}
}

func (p *Pipeline) Steps() []Step {
	return p.steps
}

// Plan lists the names of the steps params enables, in execution order.
func (p *Pipeline) Plan(params Params) []string {
	var names []string
	for _, s := range p.steps {
		if s.Enabled(params) {
			names = append(names, s.Name)
		}
	}
	return names
}

// Run applies the enabled steps to ds in place. The first failing step aborts
// the run and leaves ds as the previous steps left it.
func (p *Pipeline) Run(ds *dataset.Dataset, params Params) error {
	for _, s := range p.steps {
		if !s.Enabled(params) {
			continue
		}

		slog.Debug("running preprocessing step", "step", s.Name, "rows", ds.NumRows(), "columns", ds.NumColumns())

		if err := s.Apply(ds, params); err != nil {
			var notFound *errs.ColumnNotFound
			if errors.As(err, &notFound) && notFound.Parameter == "" {
				notFound.Parameter = s.Param
			}
			return fmt.Errorf("preprocessing step '%s' failed: %w", s.Name, err)
		}
	}
	return nil
}

// Preprocess runs the default pipeline.
func Preprocess(ds *dataset.Dataset, params Params) error {
	return NewPipeline().Run(ds, params)
}
