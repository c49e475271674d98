package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"kwmetrics/internal/analysis"
)

// ProfileEnvPrefix prefixes environment overrides for the ingest profile.
// Nested keys use a double underscore, e.g. KWM_PROFILE__COLUMNS__SEARCHES.
const ProfileEnvPrefix = "KWM_PROFILE__"

// Profile describes the shape of the keyword export and how it is scored.
// Complex per-export settings are easier to keep in YAML than env vars.
type Profile struct {
	Columns     ColumnsConfig  `koanf:"columns"`
	Infinity    InfinityConfig `koanf:"infinity"`
	ChangeFloor float64        `koanf:"change_floor"`
	CSV         CSVConfig      `koanf:"csv"`
	Degenerate  string         `koanf:"degenerate"` // zero|reject
}

// ColumnsConfig maps the required inputs to export headers.
type ColumnsConfig struct {
	Searches         string `koanf:"searches"`
	Competition      string `koanf:"competition"`
	ThreeMonthChange string `koanf:"three_month_change"`
	YoYChange        string `koanf:"yoy_change"`
}

// InfinityConfig defines the unbounded-growth marker and its numeric proxy.
type InfinityConfig struct {
	Sentinel string  `koanf:"sentinel"`
	Value    float64 `koanf:"value"`
}

// CSVConfig describes the export dialect.
type CSVConfig struct {
	Delimiter string `koanf:"delimiter"` // "", ",", ";", "\t" or "tab"
	SkipRows  int    `koanf:"skip_rows"`
}

// DefaultProfile returns the profile for a plain Keyword Planner CSV.
func DefaultProfile() Profile {
	def := analysis.DefaultOptions()
	return Profile{
		Columns: ColumnsConfig{
			Searches:         def.Columns.Searches,
			Competition:      def.Columns.Competition,
			ThreeMonthChange: def.Columns.ThreeMonthChange,
			YoYChange:        def.Columns.YoYChange,
		},
		Infinity: InfinityConfig{
			Sentinel: def.Sentinel,
			Value:    def.SentinelValue,
		},
		ChangeFloor: def.ChangeFloor,
		Degenerate:  string(def.Degenerate),
	}
}

// LoadProfile merges the YAML file at path (if present) and KWM_PROFILE__
// environment overrides over the defaults.
func LoadProfile(path string) (*Profile, error) {
	k := koanf.New(".")
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load profile %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider(ProfileEnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, ProfileEnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load profile env: %w", err)
	}

	p := DefaultProfile()
	if err := k.Unmarshal("", &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Profile) validate() error {
	switch analysis.DegeneratePolicy(p.Degenerate) {
	case analysis.DegenerateZero, analysis.DegenerateReject:
	default:
		return fmt.Errorf("profile degenerate %q not supported (want zero or reject)", p.Degenerate)
	}
	if p.ChangeFloor <= 0 {
		return fmt.Errorf("profile change_floor must be positive, got %v", p.ChangeFloor)
	}
	if p.CSV.SkipRows < 0 {
		return fmt.Errorf("profile csv.skip_rows must not be negative, got %d", p.CSV.SkipRows)
	}
	if _, err := p.delimiter(); err != nil {
		return err
	}
	cols := p.Columns
	if cols.Searches == "" || cols.Competition == "" || cols.ThreeMonthChange == "" || cols.YoYChange == "" {
		return fmt.Errorf("profile columns must all be set")
	}
	return nil
}

func (p *Profile) delimiter() (rune, error) {
	switch p.CSV.Delimiter {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	}
	r := []rune(p.CSV.Delimiter)
	if len(r) != 1 {
		return 0, fmt.Errorf("profile csv.delimiter %q must be a single character", p.CSV.Delimiter)
	}
	return r[0], nil
}

func (p *Profile) columns() analysis.Columns {
	return analysis.Columns{
		Searches:         p.Columns.Searches,
		Competition:      p.Columns.Competition,
		ThreeMonthChange: p.Columns.ThreeMonthChange,
		YoYChange:        p.Columns.YoYChange,
	}
}

// TransformOptions returns the transformer options for this profile.
func (p *Profile) TransformOptions() analysis.Options {
	return analysis.Options{
		Columns:       p.columns(),
		Sentinel:      p.Infinity.Sentinel,
		SentinelValue: p.Infinity.Value,
		ChangeFloor:   p.ChangeFloor,
		Degenerate:    analysis.DegeneratePolicy(p.Degenerate),
	}
}

// ReadOptions returns the CSV reader options for this profile.
func (p *Profile) ReadOptions() analysis.ReadOptions {
	d, _ := p.delimiter()
	return analysis.ReadOptions{
		Delimiter: d,
		SkipRows:  p.CSV.SkipRows,
		Columns:   p.columns(),
	}
}
