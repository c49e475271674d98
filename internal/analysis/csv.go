package analysis

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadOptions controls how an export is parsed into a frame.
type ReadOptions struct {
	// Delimiter separates fields. Zero detects one of ',', '\t' or ';' from the header.
	Delimiter rune
	// SkipRows drops leading title lines before the header.
	SkipRows int
	// Columns are loaded as text so the transformer owns their coercion.
	Columns Columns
}

// ReadCSV parses a keyword export. UTF-8 and BOM-marked UTF-16 input are accepted.
func ReadCSV(r io.Reader, opts ReadOptions) (dataframe.DataFrame, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	raw, err := io.ReadAll(decoded)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read input: %w", err)
	}

	body := skipLines(raw, opts.SkipRows)
	if len(bytes.TrimSpace(body)) == 0 {
		return dataframe.DataFrame{}, ErrEmptyInput
	}

	delim := opts.Delimiter
	if delim == 0 {
		delim = detectDelimiter(firstLine(body))
	}

	if opts.Columns == (Columns{}) {
		opts.Columns = DefaultColumns()
	}
	types := make(map[string]series.Type, 4)
	for _, c := range opts.Columns.Required() {
		types[c] = series.String
	}

	// gota refuses a header without rows; keep the columns so empty tables are still written.
	if bytes.IndexByte(bytes.TrimSpace(body), '\n') < 0 {
		return headerOnlyFrame(body, delim)
	}

	df := dataframe.ReadCSV(bytes.NewReader(body),
		dataframe.WithDelimiter(delim),
		dataframe.WithTypes(types),
		dataframe.DetectTypes(true),
	)
	if df.Err != nil {
		return df, fmt.Errorf("%w: %v", ErrMalformedCSV, df.Err)
	}
	return df, nil
}

func headerOnlyFrame(body []byte, delim rune) (dataframe.DataFrame, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.Comma = delim
	header, err := r.Read()
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: header: %v", ErrMalformedCSV, err)
	}
	cols := make([]series.Series, len(header))
	for i, name := range header {
		cols[i] = series.New([]string{}, series.String, name)
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return df, fmt.Errorf("%w: %v", ErrMalformedCSV, df.Err)
	}
	return df, nil
}

func skipLines(b []byte, n int) []byte {
	for ; n > 0; n-- {
		i := bytes.IndexByte(b, '\n')
		if i < 0 {
			return nil
		}
		b = b[i+1:]
	}
	return b
}

func firstLine(b []byte) []byte {
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		return b[:i]
	}
	return b
}

func detectDelimiter(header []byte) rune {
	best, bestCount := ',', bytes.Count(header, []byte{','})
	for _, d := range []rune{'\t', ';'} {
		if n := bytes.Count(header, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
