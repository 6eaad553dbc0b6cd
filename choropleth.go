package folium

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrInvalidScale is returned for an explicit threshold scale that is
// too short, too long, or not strictly increasing.
var ErrInvalidScale = errors.New("invalid threshold scale")

// Table is a small column-labeled table of strings, the shape a CSV
// file loads into. Choropleth binding reads a key column and a value
// column from one.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// NewTable builds a table from a header and rows. Column names must be
// unique and every row as wide as the header.
func NewTable(columns []string, rows [][]string) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, ok := index[c]; ok {
			return nil, fmt.Errorf("duplicate column %q: %w", c, ErrConfiguration)
		}
		index[c] = i
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d: %w", i, len(row), len(columns), ErrConfiguration)
		}
	}
	return &Table{
		columns: slices.Clone(columns),
		index:   index,
		rows:    rows,
	}, nil
}

// ReadTable loads a table from CSV, first record as the header.
func ReadTable(r io.Reader) (*Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("table needs a header record: %w", ErrConfiguration)
	}
	return NewTable(records[0], records[1:])
}

// ReadTableFile loads a table from a CSV file.
func ReadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()
	return ReadTable(f)
}

// Columns returns the column names in table order.
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Column returns the named column's values in row order.
func (t *Table) Column(name string) ([]string, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("no column %q: %w", name, ErrConfiguration)
	}
	out := make([]string, len(t.rows))
	for j, row := range t.rows {
		out[j] = row[i]
	}
	return out, nil
}

// Floats returns the named column parsed as numbers. Blank and
// unparseable cells come back as NaN.
func (t *Table) Floats(name string) ([]float64, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(col))
	for i, s := range col {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = v
	}
	return out, nil
}

// FillForward returns a copy of the table with blank cells in the
// named column filled with the nearest non-blank value above them. The
// receiver is left untouched.
func (t *Table) FillForward(name string) (*Table, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("no column %q: %w", name, ErrConfiguration)
	}
	rows := make([][]string, len(t.rows))
	last := ""
	for j, row := range t.rows {
		rows[j] = slices.Clone(row)
		if strings.TrimSpace(rows[j][i]) == "" {
			rows[j][i] = last
			continue
		}
		last = rows[j][i]
	}
	return &Table{
		columns: slices.Clone(t.columns),
		index:   maps.Clone(t.index),
		rows:    rows,
	}, nil
}

// ChoroplethOptions configure BindChoropleth.
type ChoroplethOptions struct {
	// Data holds the values to color by.
	Data *Table

	// Columns names exactly two columns of Data: the join key and the
	// value.
	Columns []string

	// KeyOn is the dotted path to the join key inside each feature:
	// "feature.id", or "feature.properties.<name>" with further dots
	// descending into nested properties.
	KeyOn string

	// FillColor is a ColorBrewer sequential scheme code such as
	// "YlGnBu". Plain colors are rejected.
	FillColor string

	// FillOpacity defaults to 0.6.
	FillOpacity float64

	// LineColor defaults to "black".
	LineColor string

	// LineWeight defaults to 1.
	LineWeight float64

	// LineOpacity defaults to 1.
	LineOpacity float64

	// ThresholdScale sets the bin boundaries explicitly: 2 to 6
	// strictly increasing values. Nil derives boundaries from the
	// data.
	ThresholdScale []float64

	// LegendName captions the legend. Defaults to the value column
	// name.
	LegendName string

	// NoDataColor fills features without a matching row. Empty leaves
	// them unstyled.
	NoDataColor string
}

// BindChoropleth joins a data table onto fc's features and writes each
// matched feature's bin color into its reserved "style" properties
// entry. It returns the legend describing the binning. Features
// without a matching row are left unstyled unless NoDataColor is set.
// Neither the table nor an explicit threshold scale is modified.
func BindChoropleth(ctx context.Context, fc *geojson.FeatureCollection, opts ChoroplethOptions) (*ColorScale, error) {
	ctx, span := tracer.Start(ctx, "folium.BindChoropleth")
	defer span.End()

	fail := func(err error) (*ColorScale, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if fc == nil {
		return fail(fmt.Errorf("binding needs a feature collection: %w", ErrConfiguration))
	}
	if opts.Data == nil {
		return fail(fmt.Errorf("binding needs a data table: %w", ErrConfiguration))
	}
	if len(opts.Columns) != 2 {
		return fail(fmt.Errorf("binding needs exactly 2 columns (key, value), got %d: %w", len(opts.Columns), ErrConfiguration))
	}
	if opts.KeyOn == "" {
		return fail(fmt.Errorf("binding needs a key path: %w", ErrConfiguration))
	}

	if opts.FillOpacity == 0 {
		opts.FillOpacity = 0.6
	}
	if opts.LineColor == "" {
		opts.LineColor = "black"
	}
	if opts.LineWeight == 0 {
		opts.LineWeight = 1
	}
	if opts.LineOpacity == 0 {
		opts.LineOpacity = 1
	}
	if opts.LegendName == "" {
		opts.LegendName = opts.Columns[1]
	}

	palette, err := ColorBrewer(opts.FillColor)
	if err != nil {
		return fail(err)
	}

	path, err := parseKeyPath(opts.KeyOn)
	if err != nil {
		return fail(err)
	}

	keys, err := opts.Data.Column(opts.Columns[0])
	if err != nil {
		return fail(err)
	}
	values, err := opts.Data.Floats(opts.Columns[1])
	if err != nil {
		return fail(err)
	}

	domain, err := thresholdScale(opts.ThresholdScale, values)
	if err != nil {
		return fail(err)
	}
	colors := palette[:len(domain)+2]

	lookup := make(map[string]float64, len(keys))
	for i, k := range keys {
		if k == "" || math.IsNaN(values[i]) {
			continue
		}
		lookup[k] = values[i]
	}

	matched, missing := 0, 0
	for _, f := range fc.Features {
		v, ok := lookup[evalKeyPath(f, path)]
		if !ok {
			missing++
			if opts.NoDataColor != "" {
				writeStyle(f, opts, opts.NoDataColor)
			}
			continue
		}
		matched++
		writeStyle(f, opts, colors[binIndex(domain, v)])
	}

	scale, err := NewColorScale(domain, colors, opts.LegendName)
	if err != nil {
		return fail(err)
	}

	span.SetAttributes(
		attribute.Int("folium.features", len(fc.Features)),
		attribute.Int("folium.rows", opts.Data.Len()),
		attribute.Int("folium.matched", matched),
	)
	logger(ctx).DebugContext(ctx, "bound choropleth",
		slog.Int("features", len(fc.Features)),
		slog.Int("matched", matched),
		slog.Int("missing", missing),
		slog.Int("bins", len(colors)))
	return scale, nil
}

// Choropleth binds opts onto layer's features, then attaches the layer
// and its legend to the map as siblings.
func (m *Map) Choropleth(ctx context.Context, layer *GeoJSON, opts ChoroplethOptions) (*ColorScale, error) {
	if layer == nil {
		return nil, fmt.Errorf("choropleth needs a layer: %w", ErrConfiguration)
	}
	scale, err := BindChoropleth(ctx, layer.FeatureCollection(), opts)
	if err != nil {
		return nil, err
	}
	if err := m.Add(layer); err != nil {
		return nil, err
	}
	if err := m.Add(scale); err != nil {
		return nil, err
	}
	return scale, nil
}

// thresholdScale validates an explicit scale, or derives one from the
// data: percentiles 0, 50, 75, 85, and 90 of the finite values, each
// rounded to its order of magnitude. The derived boundaries of heavily
// skewed data may repeat; binning handles that.
func thresholdScale(explicit, values []float64) ([]float64, error) {
	if explicit != nil {
		if len(explicit) < 2 || len(explicit) > 6 {
			return nil, fmt.Errorf("threshold scale needs 2 to 6 boundaries, got %d: %w", len(explicit), ErrInvalidScale)
		}
		for i := 1; i < len(explicit); i++ {
			if explicit[i] <= explicit[i-1] {
				return nil, fmt.Errorf("threshold scale must be strictly increasing: %w", ErrInvalidScale)
			}
		}
		return slices.Clone(explicit), nil
	}

	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return nil, fmt.Errorf("no numeric values to derive a threshold scale from: %w", ErrInvalidScale)
	}

	quants := []float64{0, 50, 75, 85, 90}
	domain := make([]float64, len(quants))
	for i, q := range quants {
		domain[i] = roundToMagnitude(percentile(finite, q))
	}
	return domain, nil
}

// binIndex maps v onto a color index for domain: 0 below the first
// boundary, i between boundaries i-1 and i, and len(domain)+1 at or
// above the last boundary. Index len(domain) is never produced.
func binIndex(domain []float64, v float64) int {
	if v >= domain[len(domain)-1] {
		return len(domain) + 1
	}
	i := 0
	for v >= domain[i] {
		i++
	}
	return i
}

// keyPath addresses the join key inside a feature: its id, or a
// possibly nested property.
type keyPath struct {
	id    bool
	props []string
}

func parseKeyPath(keyOn string) (keyPath, error) {
	parts := strings.Split(keyOn, ".")
	if parts[0] != "feature" {
		return keyPath{}, fmt.Errorf("key path %q must start with %q: %w", keyOn, "feature", ErrConfiguration)
	}
	rest := parts[1:]
	if len(rest) == 1 && rest[0] == "id" {
		return keyPath{id: true}, nil
	}
	if len(rest) < 2 || rest[0] != "properties" {
		return keyPath{}, fmt.Errorf("key path %q must address the feature id or a property: %w", keyOn, ErrConfiguration)
	}
	return keyPath{props: rest[1:]}, nil
}

// evalKeyPath extracts the join key from f, or "" when the path leads
// nowhere. An empty key never matches a row.
func evalKeyPath(f *geojson.Feature, path keyPath) string {
	if path.id {
		return joinKey(f.ID)
	}
	var cur any = map[string]any(f.Properties)
	for _, p := range path.props {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur, ok = m[p]
		if !ok {
			return ""
		}
	}
	return joinKey(cur)
}

// writeStyle fills the reserved "style" entry of f's properties. Only
// that entry is written; geometry and other properties stay untouched.
func writeStyle(f *geojson.Feature, opts ChoroplethOptions, fillColor string) {
	if f.Properties == nil {
		f.Properties = geojson.Properties{}
	}
	style := FeatureStyle{
		Color:       opts.LineColor,
		Weight:      opts.LineWeight,
		Opacity:     opts.LineOpacity,
		FillColor:   fillColor,
		FillOpacity: opts.FillOpacity,
	}
	f.Properties["style"] = style.properties()
}
