package analysis

import (
	"strings"

	"analysis-backend/internal/core/utils"
	"analysis-backend/internal/errs"
	"analysis-backend/internal/report"
)

type Task string

const (
	Regression     Task = "regression"
	Classification Task = "classification"
	Clusterization Task = "clusterization"
)

var tasks = []string{string(Regression), string(Classification), string(Clusterization)}

// Title is the capitalized task name used in report headings.
func (t Task) Title() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

const DefaultClusterLabel = "Cluster"

type RawParams struct {
	AnalysisTask string `schema:"analysis_task"`
	TargetCol    string `schema:"target_col"`
	Visualize    string `schema:"visualize"`
	BasicStats   string `schema:"basic_stats"`
	Theme        string `schema:"theme"`
	ShowTime     string `schema:"show_time"`
}

type Params struct {
	Task       Task
	Target     string
	Visualize  bool
	BasicStats bool
	Theme      report.Theme
	ShowTime   bool
}

// ParseParams validates the analysis options. A clusterization request
// without a target labels its placeholder column "Cluster".
func ParseParams(raw RawParams) (Params, error) {
	p := Params{Visualize: true, BasicStats: true, Theme: report.ThemeLight, ShowTime: true}

	if strings.TrimSpace(raw.AnalysisTask) == "" {
		return p, &errs.ParameterMissing{Parameter: "analysis_task"}
	}
	task, err := utils.ParseChoice("analysis_task", raw.AnalysisTask, tasks)
	if err != nil {
		return p, err
	}
	p.Task = Task(task)

	p.Target = strings.TrimSpace(raw.TargetCol)
	if p.Task == Clusterization && p.Target == "" {
		p.Target = DefaultClusterLabel
	}

	if p.Visualize, err = utils.ParseBool("visualize", raw.Visualize, p.Visualize); err != nil {
		return p, err
	}
	if p.BasicStats, err = utils.ParseBool("basic_stats", raw.BasicStats, p.BasicStats); err != nil {
		return p, err
	}
	if p.ShowTime, err = utils.ParseBool("show_time", raw.ShowTime, p.ShowTime); err != nil {
		return p, err
	}

	if strings.TrimSpace(raw.Theme) != "" {
		theme, err := utils.ParseChoice("theme", raw.Theme, []string{string(report.ThemeLight), string(report.ThemeDark)})
		if err != nil {
			return p, err
		}
		p.Theme = report.Theme(theme)
	}

	return p, nil
}

// ReportOptions returns the document options these params select.
func (p Params) ReportOptions(dpi int) report.Options {
	return report.Options{DPI: dpi, Theme: p.Theme, ShowTime: p.ShowTime}
}
