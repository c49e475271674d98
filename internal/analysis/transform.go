// Package analysis computes keyword opportunity metrics over a keyword
// research export and partitions the keywords into category views.
package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// DegeneratePolicy selects what happens when a normalizer is zero.
type DegeneratePolicy string

const (
	// DegenerateZero treats a term with a zero normalizer as 0.
	DegenerateZero DegeneratePolicy = "zero"
	// DegenerateReject fails the transform with ErrDegenerateInput.
	DegenerateReject DegeneratePolicy = "reject"
)

// Options configures a Transformer.
type Options struct {
	Columns       Columns
	Sentinel      string  // marks unbounded growth in the change columns
	SentinelValue float64 // numeric proxy for Sentinel
	ChangeFloor   float64 // lower bound for the change-term normalizer
	Degenerate    DegeneratePolicy
}

// DefaultOptions returns the options matching Keyword Planner exports.
func DefaultOptions() Options {
	return Options{
		Columns:       DefaultColumns(),
		Sentinel:      "∞",
		SentinelValue: 1,
		ChangeFloor:   0.01,
		Degenerate:    DegenerateZero,
	}
}

// Transformer cleans a keyword frame and derives the metric columns.
type Transformer struct {
	opts Options
}

// NewTransformer creates a transformer. Zero-valued options fall back to defaults.
func NewTransformer(opts Options) *Transformer {
	def := DefaultOptions()
	if opts.Columns == (Columns{}) {
		opts.Columns = def.Columns
	}
	if opts.Sentinel == "" {
		opts.Sentinel = def.Sentinel
		opts.SentinelValue = def.SentinelValue
	}
	if opts.ChangeFloor <= 0 {
		opts.ChangeFloor = def.ChangeFloor
	}
	if opts.Degenerate == "" {
		opts.Degenerate = def.Degenerate
	}
	return &Transformer{opts: opts}
}

// CoerceNumber parses a numeric cell. Anything that does not parse, NaN and
// the textual infinities accepted by ParseFloat become 0.
func CoerceNumber(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// CoerceChange parses a percentage-change cell, mapping the sentinel to its proxy value.
func (t *Transformer) CoerceChange(raw string) float64 {
	if strings.TrimSpace(raw) == t.opts.Sentinel {
		return t.opts.SentinelValue
	}
	return CoerceNumber(raw)
}

// Result holds the computed frame and its category views.
type Result struct {
	Frame      dataframe.DataFrame
	Categories []Category
}

// Rows returns the number of keywords in the computed frame.
func (r *Result) Rows() int {
	return r.Frame.Nrow()
}

// Process computes the metric columns and derives the category views.
func (t *Transformer) Process(df dataframe.DataFrame) (*Result, error) {
	computed, err := t.ComputeMetrics(df)
	if err != nil {
		return nil, err
	}
	cats, err := t.Categorize(computed)
	if err != nil {
		return nil, err
	}
	return &Result{Frame: computed, Categories: cats}, nil
}

// ComputeMetrics coerces the input columns and appends the ratio, trend flags
// and opportunity index. The returned frame has every original column.
func (t *Transformer) ComputeMetrics(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if df.Err != nil {
		return df, df.Err
	}
	cols := t.opts.Columns
	if missing := cols.Missing(df.Names()); len(missing) > 0 {
		return df, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	searches := coerceColumn(df.Col(cols.Searches), CoerceNumber)
	competition := coerceColumn(df.Col(cols.Competition), CoerceNumber)
	threeMonth := coerceColumn(df.Col(cols.ThreeMonthChange), t.CoerceChange)
	yoy := coerceColumn(df.Col(cols.YoYChange), t.CoerceChange)

	maxSearches := columnMax(searches)
	maxCompetition := columnMax(competition)
	if t.opts.Degenerate == DegenerateReject && (len(searches) == 0 || maxSearches == 0 || maxCompetition == 0) {
		return df, ErrDegenerateInput
	}
	maxChange := math.Max(columnMax(threeMonth), t.opts.ChangeFloor)

	n := len(searches)
	ratio := make([]float64, n)
	trending := make([]bool, n)
	seasonal := make([]bool, n)
	stable := make([]bool, n)
	opportunity := make([]float64, n)
	for i := range n {
		ratio[i] = searches[i] / (competition[i] + 1)
		trending[i] = threeMonth[i] > 0
		seasonal[i] = yoy[i] > 0
		stable[i] = threeMonth[i] == 0 && yoy[i] == 0
		opportunity[i] = (normalize(searches[i], maxSearches) +
			(1 - normalize(competition[i], maxCompetition)) +
			threeMonth[i]/maxChange) / 3
	}

	out := df.
		Mutate(countSeries(searches, cols.Searches)).
		Mutate(countSeries(competition, cols.Competition)).
		Mutate(series.New(threeMonth, series.Float, cols.ThreeMonthChange)).
		Mutate(series.New(yoy, series.Float, cols.YoYChange)).
		Mutate(series.New(ratio, series.Float, ColRatio)).
		Mutate(series.New(trending, series.Bool, ColTrending)).
		Mutate(series.New(seasonal, series.Bool, ColSeasonal)).
		Mutate(series.New(stable, series.Bool, ColStable)).
		Mutate(series.New(opportunity, series.Float, ColOpportunity))
	if out.Err != nil {
		return df, fmt.Errorf("compute metrics: %w", out.Err)
	}
	return out, nil
}

func coerceColumn(s series.Series, coerce func(string) float64) []float64 {
	records := s.Records()
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = coerce(r)
	}
	return out
}

// countSeries keeps a column integral when every value is a whole number,
// so stored tables type it INTEGER rather than REAL.
func countSeries(values []float64, name string) series.Series {
	if len(values) == 0 {
		return series.New(values, series.Float, name)
	}
	ints := make([]int, len(values))
	for i, v := range values {
		if v != math.Trunc(v) || math.Abs(v) > 1<<53 {
			return series.New(values, series.Float, name)
		}
		ints[i] = int(v)
	}
	return series.New(ints, series.Int, name)
}

// columnMax returns the largest value, or 0 for an empty column.
func columnMax(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// normalize divides v by peak; a zero peak contributes 0.
func normalize(v, peak float64) float64 {
	if peak == 0 {
		return 0
	}
	return v / peak
}
