package analysis

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Category is a named view over the computed keyword frame.
type Category struct {
	Name  string
	Frame dataframe.DataFrame
}

// Rows returns the number of keywords in the view.
func (c Category) Rows() int {
	return c.Frame.Nrow()
}

// Categorize derives the five category views from a frame produced by
// ComputeMetrics. Sorting is stable and descending, with NaN last.
func (t *Transformer) Categorize(df dataframe.DataFrame) ([]Category, error) {
	cols := t.opts.Columns
	cats := []Category{
		{Name: HighPotentialKeywords, Frame: sortDesc(df, ColRatio)},
		{Name: TrendingKeywords, Frame: sortDesc(whereTrue(df, ColTrending), cols.ThreeMonthChange)},
		{Name: SeasonalLongTermTrends, Frame: sortDesc(whereTrue(df, ColSeasonal), cols.YoYChange)},
		{Name: TopOpportunityKeywords, Frame: sortDesc(df, ColOpportunity)},
		{Name: StableKeywords, Frame: whereTrue(df, ColStable)},
	}
	for _, c := range cats {
		if c.Frame.Err != nil {
			return nil, fmt.Errorf("categorize %s: %w", c.Name, c.Frame.Err)
		}
	}
	return cats, nil
}

func sortDesc(df dataframe.DataFrame, col string) dataframe.DataFrame {
	if df.Nrow() == 0 {
		return df
	}
	return df.Arrange(dataframe.RevSort(col))
}

func whereTrue(df dataframe.DataFrame, col string) dataframe.DataFrame {
	if df.Nrow() == 0 {
		return df
	}
	return df.Filter(dataframe.F{
		Colname:    col,
		Comparator: series.Eq,
		Comparando: true,
	})
}
