package folium

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MapOptions configure NewMap. The zero value produces a full-page map
// of the world: OpenStreetMap tiles, zoom 10, 100% width and height.
type MapOptions struct {
	// Location is the initial center as latitude, longitude.
	Location [2]float64

	// ZoomStart is the initial zoom level. Defaults to 10.
	ZoomStart int

	// Width, Height, Left, and Top size and place the map element.
	// They default to Percent(100), Percent(100), Percent(0), and
	// Percent(0).
	Width  Size
	Height Size
	Left   Size
	Top    Size

	// Position is the CSS position of the map element. Defaults to
	// "relative".
	Position string

	// Tiles is a built-in tile set name ("OpenStreetMap", "Mapbox
	// Bright", ...) or a custom URL template containing {z}/{x}/{y}
	// placeholders. Defaults to "OpenStreetMap".
	Tiles string

	// Attr is the tile attribution. Optional for built-in tile sets,
	// required for custom URLs.
	Attr string

	// APIKey is the access key some tile sets (Cloudmade, Mapbox)
	// require.
	APIKey string

	// MinZoom and MaxZoom bound the tile layer. Default 1 and 18.
	MinZoom int
	MaxZoom int

	// MinLat, MaxLat, MinLon, and MaxLon bound panning. They default
	// to the whole world.
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64

	// DetectRetina asks the tile layer for high-DPI tiles.
	DetectRetina bool

	// CRS is the Leaflet coordinate reference system name. Defaults to
	// "EPSG3857".
	CRS string

	// Environment overrides the template set the document renders
	// with. Defaults to DefaultEnvironment.
	Environment *Environment
}

// Map is a Leaflet map. NewMap roots it under a Figure, so a freshly
// built map is a complete, saveable document.
type Map struct {
	*Element

	Location  [2]float64
	ZoomStart int
	Width     Size
	Height    Size
	Left      Size
	Top       Size
	Position  string
	MinZoom   int
	MaxZoom   int
	MinLat    float64
	MaxLat    float64
	MinLon    float64
	MaxLon    float64
	CRS       string

	fig *Figure
}

// NewMap builds a map with an initial tile layer and attaches both to
// a fresh Figure. It fails with ErrConfiguration when the tile input
// is unusable: a custom URL without an attribution, or a built-in set
// that requires an API key given none.
func NewMap(opts MapOptions) (*Map, error) {
	if opts.ZoomStart == 0 {
		opts.ZoomStart = 10
	}
	if opts.Width.IsZero() {
		opts.Width = Percent(100)
	}
	if opts.Height.IsZero() {
		opts.Height = Percent(100)
	}
	if opts.Left.IsZero() {
		opts.Left = Percent(0)
	}
	if opts.Top.IsZero() {
		opts.Top = Percent(0)
	}
	if opts.Position == "" {
		opts.Position = "relative"
	}
	if opts.Tiles == "" {
		opts.Tiles = "OpenStreetMap"
	}
	if opts.MinZoom == 0 {
		opts.MinZoom = 1
	}
	if opts.MaxZoom == 0 {
		opts.MaxZoom = 18
	}
	if opts.MinLat == 0 {
		opts.MinLat = -90
	}
	if opts.MaxLat == 0 {
		opts.MaxLat = 90
	}
	if opts.MinLon == 0 {
		opts.MinLon = -180
	}
	if opts.MaxLon == 0 {
		opts.MaxLon = 180
	}
	if opts.CRS == "" {
		opts.CRS = "EPSG3857"
	}

	fig := NewFigure()
	if opts.Environment != nil {
		fig.WithEnvironment(opts.Environment)
	}

	m := &Map{
		Element:   NewElement("Map"),
		Location:  opts.Location,
		ZoomStart: opts.ZoomStart,
		Width:     opts.Width,
		Height:    opts.Height,
		Left:      opts.Left,
		Top:       opts.Top,
		Position:  opts.Position,
		MinZoom:   opts.MinZoom,
		MaxZoom:   opts.MaxZoom,
		MinLat:    opts.MinLat,
		MaxLat:    opts.MaxLat,
		MinLon:    opts.MinLon,
		MaxLon:    opts.MaxLon,
		CRS:       opts.CRS,
		fig:       fig,
	}
	if err := fig.Add(m); err != nil {
		return nil, err
	}

	_, err := m.AddTileLayer(TileLayerOptions{
		Tiles:        opts.Tiles,
		Attr:         opts.Attr,
		APIKey:       opts.APIKey,
		MinZoom:      opts.MinZoom,
		MaxZoom:      opts.MaxZoom,
		DetectRetina: opts.DetectRetina,
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Figure returns the document the map is rooted under.
func (m *Map) Figure() *Figure { return m.fig }

// Render renders the whole document the map belongs to.
func (m *Map) Render(ctx context.Context) (string, error) {
	return m.fig.Render(ctx)
}

// Save renders the document and writes it to path.
func (m *Map) Save(ctx context.Context, path string) error {
	return m.fig.Save(ctx, path)
}

// AddTileLayer resolves a tile layer and attaches it to the map. The
// layer's Environment defaults to the document's, and its zoom bounds
// default to the map's.
func (m *Map) AddTileLayer(opts TileLayerOptions) (*TileLayer, error) {
	if opts.Environment == nil {
		opts.Environment = m.fig.Environment()
	}
	if opts.MinZoom == 0 {
		opts.MinZoom = m.MinZoom
	}
	if opts.MaxZoom == 0 {
		opts.MaxZoom = m.MaxZoom
	}
	layer, err := NewTileLayer(opts)
	if err != nil {
		return nil, err
	}
	if err := m.AddNamed(layer.key, layer); err != nil {
		return nil, err
	}
	return layer, nil
}

// FitBounds zooms and pans the map to contain bounds, given as
// [[south-west lat, lon], [north-east lat, lon]].
func (m *Map) FitBounds(bounds [2][2]float64, opts FitBoundsOptions) (*FitBounds, error) {
	fb := NewFitBounds(bounds, opts)
	if err := m.Add(fb); err != nil {
		return nil, err
	}
	return fb, nil
}

// TileLayerOptions configure NewTileLayer.
type TileLayerOptions struct {
	// Tiles is a built-in tile set name or a custom URL template. It
	// defaults to "OpenStreetMap".
	Tiles string

	// Name overrides the key the layer is stored under and the name a
	// LayerControl lists it by. Built-in sets default to their
	// flattened name, custom URLs to the URL itself.
	Name string

	// Attr is the attribution. Required for custom URLs; built-in sets
	// fall back to their catalogue attribution.
	Attr string

	// APIKey fills the access-key placeholder of tile sets that carry
	// one.
	APIKey string

	MinZoom      int
	MaxZoom      int
	DetectRetina bool

	// Environment supplies the tile catalogue. Defaults to
	// DefaultEnvironment.
	Environment *Environment
}

// TileLayer is a basemap layer. Its URL and attribution are resolved
// at construction, so a TileLayer in hand always has final values.
type TileLayer struct {
	*Element

	Tiles        string
	Attr         string
	LayerName    string
	MinZoom      int
	MaxZoom      int
	DetectRetina bool

	key string
}

// tileData is the data tile catalogue templates execute with.
type tileData struct {
	APIKey string
}

// requiresAPIKey reports whether a built-in tile set cannot be used
// without an access key.
func requiresAPIKey(flat string) bool {
	return flat == "cloudmade" || flat == "mapbox"
}

// NewTileLayer resolves opts against the tile catalogue. A name found
// in the catalogue yields that set's URL and attribution; anything
// else is treated as a custom URL template and must come with an
// attribution of its own.
func NewTileLayer(opts TileLayerOptions) (*TileLayer, error) {
	env := opts.Environment
	if env == nil {
		env = DefaultEnvironment()
	}
	if opts.Tiles == "" {
		opts.Tiles = "OpenStreetMap"
	}
	if opts.MinZoom == 0 {
		opts.MinZoom = 1
	}
	if opts.MaxZoom == 0 {
		opts.MaxZoom = 18
	}

	flat := flattenTileName(opts.Tiles)
	data := tileData{APIKey: opts.APIKey}

	var url, attr, key string
	resolved, err := env.Render("tiles/"+flat+"/url.tmpl", data)
	switch {
	case err == nil:
		if requiresAPIKey(flat) && opts.APIKey == "" {
			return nil, fmt.Errorf("tile set %q needs an API key: %w", opts.Tiles, ErrConfiguration)
		}
		url = strings.TrimSpace(resolved)
		attr = opts.Attr
		if attr == "" {
			rendered, err := env.Render("tiles/"+flat+"/attr.tmpl", data)
			if err != nil {
				return nil, err
			}
			attr = strings.TrimSpace(rendered)
		}
		key = flat
	case errors.Is(err, ErrTemplateNotFound):
		// Not in the catalogue: a custom URL template.
		if opts.Attr == "" {
			return nil, fmt.Errorf("custom tiles %q need an attribution: %w", opts.Tiles, ErrConfiguration)
		}
		url = opts.Tiles
		attr = opts.Attr
		key = opts.Tiles
	default:
		return nil, err
	}
	if opts.Name != "" {
		key = opts.Name
	}

	return &TileLayer{
		Element:      NewElement("TileLayer"),
		Tiles:        url,
		Attr:         attr,
		LayerName:    key,
		MinZoom:      opts.MinZoom,
		MaxZoom:      opts.MaxZoom,
		DetectRetina: opts.DetectRetina,
		key:          key,
	}, nil
}

// Key returns the child key the layer attaches under: the flattened
// catalogue name, the custom URL, or the Name override.
func (t *TileLayer) Key() string { return t.key }

// IconOptions configure NewIcon.
type IconOptions struct {
	// Color is the marker color. Defaults to "blue".
	Color string

	// Icon is the glyph name. Defaults to "info-sign".
	Icon string

	// Prefix selects the glyph font, "glyphicon" or "fa". Defaults to
	// "glyphicon".
	Prefix string

	// Angle rotates the glyph, in degrees.
	Angle int
}

// Icon styles the Marker it is attached to with an Awesome Markers
// pin.
type Icon struct {
	*Element

	Color  string
	Icon   string
	Prefix string
	Angle  int
}

// NewIcon returns a marker icon.
func NewIcon(opts IconOptions) *Icon {
	if opts.Color == "" {
		opts.Color = "blue"
	}
	if opts.Icon == "" {
		opts.Icon = "info-sign"
	}
	if opts.Prefix == "" {
		opts.Prefix = "glyphicon"
	}
	return &Icon{
		Element: NewElement("Icon"),
		Color:   opts.Color,
		Icon:    opts.Icon,
		Prefix:  opts.Prefix,
		Angle:   opts.Angle,
	}
}

// CustomIconOptions configure NewCustomIcon. Sizes and anchors are
// pixel pairs; leaving one nil omits it from the icon definition.
type CustomIconOptions struct {
	IconSize     []int
	IconAnchor   []int
	ShadowURL    string
	ShadowSize   []int
	ShadowAnchor []int
	PopupAnchor  []int
}

// CustomIcon styles the Marker it is attached to with an image of the
// caller's choosing.
type CustomIcon struct {
	*Element

	IconURL      string
	IconSize     []int
	IconAnchor   []int
	ShadowURL    string
	ShadowSize   []int
	ShadowAnchor []int
	PopupAnchor  []int
}

// NewCustomIcon returns an image icon. The image URL is required.
func NewCustomIcon(iconURL string, opts CustomIconOptions) (*CustomIcon, error) {
	if iconURL == "" {
		return nil, fmt.Errorf("custom icon needs an image URL: %w", ErrConfiguration)
	}
	return &CustomIcon{
		Element:      NewElement("CustomIcon"),
		IconURL:      iconURL,
		IconSize:     opts.IconSize,
		IconAnchor:   opts.IconAnchor,
		ShadowURL:    opts.ShadowURL,
		ShadowSize:   opts.ShadowSize,
		ShadowAnchor: opts.ShadowAnchor,
		PopupAnchor:  opts.PopupAnchor,
	}, nil
}

// MarkerOptions configure NewMarker.
type MarkerOptions struct {
	// Popup opens when the marker is clicked.
	Popup *Popup

	// Icon replaces the default pin; an *Icon or a *CustomIcon.
	Icon Node
}

// Marker is a simple point marker.
type Marker struct {
	*Element

	Location [2]float64
}

// NewMarker returns a marker at location, with the popup and icon from
// opts already attached.
func NewMarker(location [2]float64, opts MarkerOptions) *Marker {
	m := &Marker{
		Element:  NewElement("Marker"),
		Location: location,
	}
	// Fresh children under distinct type tags cannot collide.
	if opts.Icon != nil {
		_ = m.Add(opts.Icon)
	}
	if opts.Popup != nil {
		_ = m.Add(opts.Popup)
	}
	return m
}

// PopupOptions configure NewPopup.
type PopupOptions struct {
	// MaxWidth is the popup's maximum width in pixels. Defaults to
	// 300.
	MaxWidth int
}

// Popup is click-triggered content bound to its parent element. The
// content div is rendered by the popup itself, so Html here is a plain
// field rather than a child.
type Popup struct {
	*Element

	Html     *Html
	MaxWidth int
}

// NewPopup returns a popup wrapping content.
func NewPopup(content string, opts PopupOptions) *Popup {
	if opts.MaxWidth == 0 {
		opts.MaxWidth = 300
	}
	return &Popup{
		Element:  NewElement("Popup"),
		Html:     NewHtml(content),
		MaxWidth: opts.MaxWidth,
	}
}

// Html is a raw markup fragment. On its own it renders a full-size
// div into the document body.
type Html struct {
	*Element

	Content string
}

// NewHtml returns a markup fragment.
func NewHtml(content string) *Html {
	return &Html{
		Element: NewElement("Html"),
		Content: content,
	}
}

// FitBoundsOptions configure NewFitBounds. Zero-valued fields are left
// out of the rendered options object.
type FitBoundsOptions struct {
	MaxZoom            int
	Padding            [2]int
	PaddingTopLeft     [2]int
	PaddingBottomRight [2]int
}

// FitBounds pans and zooms its parent map to contain a bounding box.
type FitBounds struct {
	*Element

	Bounds [2][2]float64

	opts FitBoundsOptions
}

// NewFitBounds returns a fit-bounds directive for bounds, given as
// [[south-west lat, lon], [north-east lat, lon]].
func NewFitBounds(bounds [2][2]float64, opts FitBoundsOptions) *FitBounds {
	return &FitBounds{
		Element: NewElement("FitBounds"),
		Bounds:  bounds,
		opts:    opts,
	}
}

// OptionsJSON returns the non-zero options as a JSON object with
// deterministically ordered keys.
func (b *FitBounds) OptionsJSON() (string, error) {
	opts := map[string]any{}
	if b.opts.MaxZoom != 0 {
		opts["maxZoom"] = b.opts.MaxZoom
	}
	if b.opts.Padding != [2]int{} {
		opts["padding"] = b.opts.Padding
	}
	if b.opts.PaddingTopLeft != [2]int{} {
		opts["paddingTopLeft"] = b.opts.PaddingTopLeft
	}
	if b.opts.PaddingBottomRight != [2]int{} {
		opts["paddingBottomRight"] = b.opts.PaddingBottomRight
	}
	return marshalJSON(opts)
}

// FeatureGroup groups overlay layers so a LayerControl can toggle them
// together.
type FeatureGroup struct {
	*Element

	LayerName string
}

// NewFeatureGroup returns a named overlay group.
func NewFeatureGroup(name string) *FeatureGroup {
	if name == "" {
		name = "feature_group"
	}
	return &FeatureGroup{
		Element:   NewElement("FeatureGroup"),
		LayerName: name,
	}
}

// LayerEntry is one row of a LayerControl: the display name and the
// JavaScript variable of a layer.
type LayerEntry struct {
	Name string
	Var  string
}

// LayerControl adds the Leaflet layers control. It lists its siblings
// at render time, so layers added after the control still show up.
type LayerControl struct {
	*Element
}

// NewLayerControl returns a layers control.
func NewLayerControl() *LayerControl {
	return &LayerControl{Element: NewElement("LayerControl")}
}

// BaseLayers lists the sibling tile layers.
func (c *LayerControl) BaseLayers() []LayerEntry {
	parent := c.Parent()
	if parent == nil {
		return nil
	}
	var out []LayerEntry
	for _, sib := range parent.Children() {
		if tl, ok := sib.(*TileLayer); ok {
			out = append(out, LayerEntry{Name: tl.LayerName, Var: tl.Ref()})
		}
	}
	return out
}

// Overlays lists the sibling toggleable overlays.
func (c *LayerControl) Overlays() []LayerEntry {
	parent := c.Parent()
	if parent == nil {
		return nil
	}
	var out []LayerEntry
	for _, sib := range parent.Children() {
		switch layer := sib.(type) {
		case *FeatureGroup:
			out = append(out, LayerEntry{Name: layer.LayerName, Var: layer.Ref()})
		case *WMSTileLayer:
			out = append(out, LayerEntry{Name: layer.LayerName, Var: layer.Ref()})
		}
	}
	return out
}
