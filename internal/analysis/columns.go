package analysis

import "errors"

// Derived columns appended to every category table.
const (
	ColRatio       = "Search Volume to Competition Ratio"
	ColTrending    = "Trending"
	ColSeasonal    = "Seasonal/Long-term Trend"
	ColStable      = "Stable"
	ColOpportunity = "Keyword Opportunity Index"
)

// Category table names, in the order they are produced and persisted.
const (
	HighPotentialKeywords  = "High_Potential_Keywords"
	TrendingKeywords       = "Trending_Keywords"
	SeasonalLongTermTrends = "Seasonal_Long_Term_Trends"
	TopOpportunityKeywords = "Top_Opportunity_Keywords"
	StableKeywords         = "Stable_Keywords"
)

// CategoryNames lists the five category tables in persistence order.
func CategoryNames() []string {
	return []string{
		HighPotentialKeywords,
		TrendingKeywords,
		SeasonalLongTermTrends,
		TopOpportunityKeywords,
		StableKeywords,
	}
}

var (
	ErrMissingColumns  = errors.New("missing required columns")
	ErrDegenerateInput = errors.New("cannot normalize metrics: maximum search volume or competition is zero")
	ErrEmptyInput      = errors.New("input file is empty")
	ErrMalformedCSV    = errors.New("malformed csv")
)

// Columns maps the transformer's inputs to header names in the export.
type Columns struct {
	Searches         string
	Competition      string
	ThreeMonthChange string
	YoYChange        string
}

// DefaultColumns returns the header names used by Google Keyword Planner exports.
func DefaultColumns() Columns {
	return Columns{
		Searches:         "Avg. monthly searches",
		Competition:      "Competition (indexed value)",
		ThreeMonthChange: "Three month change",
		YoYChange:        "YoY change",
	}
}

// Required returns the configured header names.
func (c Columns) Required() []string {
	return []string{c.Searches, c.Competition, c.ThreeMonthChange, c.YoYChange}
}

// Missing returns the required headers that are not present in names.
func (c Columns) Missing(names []string) []string {
	present := make(map[string]struct{}, len(names))
	for _, n := range names {
		present[n] = struct{}{}
	}
	var missing []string
	for _, r := range c.Required() {
		if _, ok := present[r]; !ok {
			missing = append(missing, r)
		}
	}
	return missing
}
