package folium

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON renders a feature collection as a Leaflet layer. Features
// carry their display style in a reserved "style" entry of their
// properties, which the rendered layer reads back per feature.
type GeoJSON struct {
	*Element

	fc *geojson.FeatureCollection
}

// NewGeoJSON parses raw as a GeoJSON feature collection.
func NewGeoJSON(raw []byte) (*GeoJSON, error) {
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing feature collection: %w", err)
	}
	return NewGeoJSONFeatures(fc), nil
}

// NewGeoJSONFeatures wraps an already-parsed feature collection.
func NewGeoJSONFeatures(fc *geojson.FeatureCollection) *GeoJSON {
	return &GeoJSON{
		Element: NewElement("GeoJson"),
		fc:      fc,
	}
}

// GeoJSONFromFile reads and parses a feature collection from path.
func GeoJSONFromFile(path string) (*GeoJSON, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return NewGeoJSON(raw)
}

// FeatureCollection returns the wrapped collection. Mutating it
// changes what the layer renders.
func (g *GeoJSON) FeatureCollection() *geojson.FeatureCollection { return g.fc }

// Data returns the collection marshaled back to JSON, as embedded in
// the rendered page.
func (g *GeoJSON) Data() (string, error) {
	b, err := json.Marshal(g.fc)
	if err != nil {
		return "", fmt.Errorf("marshaling feature collection: %w", err)
	}
	return string(b), nil
}

// FeatureStyle is the per-feature display style stored under the
// reserved "style" key of a feature's properties.
type FeatureStyle struct {
	Color       string
	Weight      float64
	Opacity     float64
	FillColor   string
	FillOpacity float64
}

func (s FeatureStyle) properties() map[string]any {
	return map[string]any{
		"color":       s.Color,
		"weight":      s.Weight,
		"opacity":     s.Opacity,
		"fillColor":   s.FillColor,
		"fillOpacity": s.FillOpacity,
	}
}

// ApplyStyle writes style into every feature's reserved "style"
// properties entry. Other properties are left alone.
func (g *GeoJSON) ApplyStyle(style FeatureStyle) {
	for _, f := range g.fc.Features {
		if f.Properties == nil {
			f.Properties = geojson.Properties{}
		}
		f.Properties["style"] = style.properties()
	}
}

// Bounds returns the collection's bounding box as
// [[min lat, min lon], [max lat, max lon]].
func (g *GeoJSON) Bounds() [2][2]float64 {
	var bound orb.Bound
	first := true
	for _, f := range g.fc.Features {
		if f.Geometry == nil {
			continue
		}
		b := f.Geometry.Bound()
		if first {
			bound = b
			first = false
		} else {
			bound = bound.Union(b)
		}
	}
	if first {
		return [2][2]float64{}
	}
	return [2][2]float64{
		{bound.Min.Lat(), bound.Min.Lon()},
		{bound.Max.Lat(), bound.Max.Lon()},
	}
}

// TopoJSON renders a TopoJSON topology as a Leaflet layer. The
// topology is kept opaque; objectPath points at the object to unpack
// client-side, e.g. "objects.or_counties_geo".
type TopoJSON struct {
	*Element

	ObjectPath string

	data string
}

// NewTopoJSON wraps a raw topology.
func NewTopoJSON(raw []byte, objectPath string) (*TopoJSON, error) {
	if !json.Valid(raw) {
		return nil, fmt.Errorf("malformed topology: %w", ErrConfiguration)
	}
	if objectPath == "" {
		return nil, fmt.Errorf("topology needs an object path: %w", ErrConfiguration)
	}
	return &TopoJSON{
		Element:    NewElement("TopoJson"),
		ObjectPath: objectPath,
		data:       string(raw),
	}, nil
}

// TopoJSONFromFile reads and wraps a topology from path.
func TopoJSONFromFile(path, objectPath string) (*TopoJSON, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return NewTopoJSON(raw, objectPath)
}

// Data returns the raw topology as embedded in the rendered page.
func (t *TopoJSON) Data() string { return t.data }

// WMSTileLayerOptions configure NewWMSTileLayer.
type WMSTileLayerOptions struct {
	// Layers is the comma-separated WMS layer list.
	Layers string

	// Format is the requested image format. Defaults to "image/jpeg".
	Format string

	// Transparent requests tiles with transparency.
	Transparent bool

	// Attr is the attribution shown for the layer.
	Attr string

	// Name is the display name a LayerControl lists the layer by.
	// Defaults to the service URL.
	Name string
}

// WMSTileLayer is a tile layer served by a WMS endpoint.
type WMSTileLayer struct {
	*Element

	URL         string
	Layers      string
	Format      string
	Transparent bool
	Attr        string
	LayerName   string
}

// NewWMSTileLayer returns a WMS layer for the service at url.
func NewWMSTileLayer(url string, opts WMSTileLayerOptions) (*WMSTileLayer, error) {
	if url == "" {
		return nil, fmt.Errorf("WMS layer needs a service URL: %w", ErrConfiguration)
	}
	if opts.Format == "" {
		opts.Format = "image/jpeg"
	}
	if opts.Name == "" {
		opts.Name = url
	}
	return &WMSTileLayer{
		Element:     NewElement("WmsTileLayer"),
		URL:         url,
		Layers:      opts.Layers,
		Format:      opts.Format,
		Transparent: opts.Transparent,
		Attr:        opts.Attr,
		LayerName:   opts.Name,
	}, nil
}

// CircleMarkerOptions configure NewCircleMarker.
type CircleMarkerOptions struct {
	// Radius is in meters. Defaults to 500.
	Radius float64

	// Color is the outline color. Defaults to "black".
	Color string

	// FillColor defaults to "black".
	FillColor string

	// FillOpacity defaults to 0.6.
	FillOpacity float64

	// Popup opens when the circle is clicked.
	Popup *Popup
}

// CircleMarker is a circle of fixed ground radius.
type CircleMarker struct {
	*Element

	Location    [2]float64
	Radius      float64
	Color       string
	FillColor   string
	FillOpacity float64
}

// NewCircleMarker returns a circle marker centered on location.
func NewCircleMarker(location [2]float64, opts CircleMarkerOptions) *CircleMarker {
	if opts.Radius == 0 {
		opts.Radius = 500
	}
	if opts.Color == "" {
		opts.Color = "black"
	}
	if opts.FillColor == "" {
		opts.FillColor = "black"
	}
	if opts.FillOpacity == 0 {
		opts.FillOpacity = 0.6
	}
	c := &CircleMarker{
		Element:     NewElement("CircleMarker"),
		Location:    location,
		Radius:      opts.Radius,
		Color:       opts.Color,
		FillColor:   opts.FillColor,
		FillOpacity: opts.FillOpacity,
	}
	if opts.Popup != nil {
		_ = c.Add(opts.Popup)
	}
	return c
}

// RegularPolygonMarkerOptions configure NewRegularPolygonMarker.
type RegularPolygonMarkerOptions struct {
	// Color is the outline color. Defaults to "black".
	Color string

	// Opacity is the outline opacity. Defaults to 1.
	Opacity float64

	// Weight is the outline width in pixels. Defaults to 2.
	Weight float64

	// FillColor defaults to "blue".
	FillColor string

	// FillOpacity defaults to 1.
	FillOpacity float64

	// NumberOfSides defaults to 4.
	NumberOfSides int

	// Rotation is in degrees.
	Rotation int

	// Radius is in pixels. Defaults to 15.
	Radius float64

	// Popup opens when the marker is clicked.
	Popup *Popup
}

// RegularPolygonMarker is a polygon marker of fixed pixel radius,
// drawn by the Leaflet DVF plugin.
type RegularPolygonMarker struct {
	*Element

	Location      [2]float64
	Color         string
	Opacity       float64
	Weight        float64
	FillColor     string
	FillOpacity   float64
	NumberOfSides int
	Rotation      int
	Radius        float64
}

// NewRegularPolygonMarker returns a polygon marker at location.
func NewRegularPolygonMarker(location [2]float64, opts RegularPolygonMarkerOptions) *RegularPolygonMarker {
	if opts.Color == "" {
		opts.Color = "black"
	}
	if opts.Opacity == 0 {
		opts.Opacity = 1
	}
	if opts.Weight == 0 {
		opts.Weight = 2
	}
	if opts.FillColor == "" {
		opts.FillColor = "blue"
	}
	if opts.FillOpacity == 0 {
		opts.FillOpacity = 1
	}
	if opts.NumberOfSides == 0 {
		opts.NumberOfSides = 4
	}
	if opts.Radius == 0 {
		opts.Radius = 15
	}
	m := &RegularPolygonMarker{
		Element:       NewElement("RegularPolygonMarker"),
		Location:      location,
		Color:         opts.Color,
		Opacity:       opts.Opacity,
		Weight:        opts.Weight,
		FillColor:     opts.FillColor,
		FillOpacity:   opts.FillOpacity,
		NumberOfSides: opts.NumberOfSides,
		Rotation:      opts.Rotation,
		Radius:        opts.Radius,
	}
	if opts.Popup != nil {
		_ = m.Add(opts.Popup)
	}
	return m
}

// LineOptions style PolyLine and MultiPolyLine. Zero-valued fields are
// left out of the rendered options object.
type LineOptions struct {
	Color   string
	Weight  float64
	Opacity float64

	// Popup opens when the line is clicked.
	Popup *Popup
}

func lineOptionsJSON(opts LineOptions) (string, error) {
	m := map[string]any{}
	if opts.Color != "" {
		m["color"] = opts.Color
	}
	if opts.Weight != 0 {
		m["weight"] = opts.Weight
	}
	if opts.Opacity != 0 {
		m["opacity"] = opts.Opacity
	}
	return marshalJSON(m)
}

// PolyLine is a line through a sequence of latitude, longitude points.
type PolyLine struct {
	*Element

	Locations [][2]float64

	opts LineOptions
}

// NewPolyLine returns a line through locations.
func NewPolyLine(locations [][2]float64, opts LineOptions) *PolyLine {
	p := &PolyLine{
		Element:   NewElement("PolyLine"),
		Locations: locations,
		opts:      opts,
	}
	if opts.Popup != nil {
		_ = p.Add(opts.Popup)
	}
	return p
}

// OptionsJSON returns the non-zero line options as a JSON object with
// deterministically ordered keys.
func (p *PolyLine) OptionsJSON() (string, error) { return lineOptionsJSON(p.opts) }

// MultiPolyLine is a set of lines sharing one style.
type MultiPolyLine struct {
	*Element

	Locations [][][2]float64

	opts LineOptions
}

// NewMultiPolyLine returns a multi-line through each sequence in
// locations.
func NewMultiPolyLine(locations [][][2]float64, opts LineOptions) *MultiPolyLine {
	m := &MultiPolyLine{
		Element:   NewElement("MultiPolyLine"),
		Locations: locations,
		opts:      opts,
	}
	if opts.Popup != nil {
		_ = m.Add(opts.Popup)
	}
	return m
}

// OptionsJSON returns the non-zero line options as a JSON object with
// deterministically ordered keys.
func (m *MultiPolyLine) OptionsJSON() (string, error) { return lineOptionsJSON(m.opts) }

// LatLngPopup opens a popup with the coordinates of wherever its
// parent map is clicked.
type LatLngPopup struct {
	*Element
}

// NewLatLngPopup returns a coordinate popup.
func NewLatLngPopup() *LatLngPopup {
	return &LatLngPopup{Element: NewElement("LatLngPopup")}
}

// ClickForMarker drops a draggable marker wherever its parent map is
// clicked. Double-clicking a dropped marker removes it.
type ClickForMarker struct {
	*Element

	popup string
}

// NewClickForMarker returns a click handler. popup is the text bound
// to dropped markers; empty shows the click coordinates.
func NewClickForMarker(popup string) *ClickForMarker {
	return &ClickForMarker{
		Element: NewElement("ClickForMarker"),
		popup:   popup,
	}
}

// Popup returns the JavaScript expression for the dropped marker's
// popup content.
func (c *ClickForMarker) Popup() string {
	if c.popup == "" {
		return `"Latitude: " + lat + "<br>Longitude: " + lng `
	}
	return `"` + c.popup + `"`
}

// Vega embeds a Vega chart: a div in the body and a parse call in the
// script block.
type Vega struct {
	*Element

	spec string
}

// NewVega wraps a raw Vega chart definition.
func NewVega(spec []byte) (*Vega, error) {
	if !json.Valid(spec) {
		return nil, fmt.Errorf("malformed chart definition: %w", ErrConfiguration)
	}
	return &Vega{
		Element: NewElement("Vega"),
		spec:    string(spec),
	}, nil
}

// Spec returns the chart definition as embedded in the rendered page.
func (v *Vega) Spec() string { return v.spec }

// CssLink adds a stylesheet link to the document head.
type CssLink struct {
	*Element

	URL string
}

// NewCssLink returns a stylesheet link.
func NewCssLink(url string) *CssLink {
	return &CssLink{Element: NewElement("CssLink"), URL: url}
}

// JavascriptLink adds a script tag to the document head.
type JavascriptLink struct {
	*Element

	URL string
}

// NewJavascriptLink returns a script link.
func NewJavascriptLink(url string) *JavascriptLink {
	return &JavascriptLink{Element: NewElement("JavascriptLink"), URL: url}
}

// ColorScale is a threshold legend: bin boundaries and one color per
// bin. Values below the first boundary and at or above the last have
// bins of their own; n boundaries make n+2 bins.
type ColorScale struct {
	*Element

	Domain  []float64
	Colors  []string
	Caption string
}

// NewColorScale returns a legend for domain. The domain must hold 2 to
// 6 boundaries, and colors exactly len(domain)+2 entries. Repeated
// boundaries are accepted.
func NewColorScale(domain []float64, colors []string, caption string) (*ColorScale, error) {
	if len(domain) < 2 || len(domain) > 6 {
		return nil, fmt.Errorf("scale needs 2 to 6 boundaries, got %d: %w", len(domain), ErrInvalidScale)
	}
	if len(colors) != len(domain)+2 {
		return nil, fmt.Errorf("scale with %d boundaries needs %d colors, got %d: %w",
			len(domain), len(domain)+2, len(colors), ErrConfiguration)
	}
	return &ColorScale{
		Element: NewElement("ColorScale"),
		Domain:  slices.Clone(domain),
		Colors:  slices.Clone(colors),
		Caption: caption,
	}, nil
}

// MinDomain returns the first boundary.
func (c *ColorScale) MinDomain() float64 { return c.Domain[0] }

// MaxDomain returns the last boundary.
func (c *ColorScale) MaxDomain() float64 { return c.Domain[len(c.Domain)-1] }
