package folium_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Madongmingming/folium"
)

const pointsGeoJSON = `{"type":"FeatureCollection","features":[
{"type":"Feature","id":"A","properties":{"name":"alpha"},"geometry":{"type":"Point","coordinates":[20,10]}},
{"type":"Feature","id":"B","properties":{"name":"beta"},"geometry":{"type":"Point","coordinates":[40,-5]}}]}`

func renderOnMap(t *testing.T, child folium.Node) string {
	t.Helper()
	m, err := folium.NewMap(folium.MapOptions{})
	if err != nil {
		t.Fatalf("NewMap: unexpected error: %v", err)
	}
	if err := m.Add(child); err != nil {
		t.Fatalf("Add: unexpected error: %v", err)
	}
	out, err := m.Render(context.Background())
	if err != nil {
		t.Fatalf("Render: unexpected error: %v", err)
	}
	return out
}

func TestGeoJSONRender(t *testing.T) {
	g, err := folium.NewGeoJSON([]byte(pointsGeoJSON))
	if err != nil {
		t.Fatalf("NewGeoJSON: unexpected error: %v", err)
	}
	out := renderOnMap(t, g)
	mustContain(t, out, fmt.Sprintf("var %s = L.geoJson(", g.Ref()))
	mustContain(t, out, fmt.Sprintf(
		"%s.setStyle(function(feature) {return feature.properties.style;});", g.Ref()))
	mustContain(t, out, `"name":"alpha"`)
}

func TestGeoJSONInvalid(t *testing.T) {
	if _, err := folium.NewGeoJSON([]byte("{not json")); err == nil {
		t.Fatal("NewGeoJSON accepted malformed input")
	}
}

func TestGeoJSONApplyStyle(t *testing.T) {
	g, err := folium.NewGeoJSON([]byte(pointsGeoJSON))
	if err != nil {
		t.Fatalf("NewGeoJSON: unexpected error: %v", err)
	}
	g.ApplyStyle(folium.FeatureStyle{
		Color:       "black",
		Weight:      1,
		Opacity:     1,
		FillColor:   "#1D91C0",
		FillOpacity: 0.6,
	})
	for _, f := range g.FeatureCollection().Features {
		style, ok := f.Properties["style"].(map[string]any)
		if !ok {
			t.Fatalf("feature %v has no style map", f.ID)
		}
		if style["fillColor"] != "#1D91C0" {
			t.Errorf("fillColor = %v, want #1D91C0", style["fillColor"])
		}
		if f.Properties["name"] == nil {
			t.Errorf("feature %v lost its own properties", f.ID)
		}
	}
}

func TestGeoJSONBounds(t *testing.T) {
	g, err := folium.NewGeoJSON([]byte(pointsGeoJSON))
	if err != nil {
		t.Fatalf("NewGeoJSON: unexpected error: %v", err)
	}
	got := g.Bounds()
	want := [2][2]float64{{-5, 20}, {10, 40}}
	if got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
}

func TestTopoJSON(t *testing.T) {
	raw := []byte(`{"type":"Topology","objects":{"counties":{"type":"GeometryCollection","geometries":[]}},"arcs":[]}`)

	topo, err := folium.NewTopoJSON(raw, "objects.counties")
	if err != nil {
		t.Fatalf("NewTopoJSON: unexpected error: %v", err)
	}
	out := renderOnMap(t, topo)
	mustContain(t, out, "topojson/1.6.9/topojson.min.js")
	mustContain(t, out, fmt.Sprintf("topojson.feature(%s_data, %s_data.objects.counties)", topo.Ref(), topo.Ref()))
	mustContain(t, out, fmt.Sprintf("var %s_layer = L.geoJson(%s).addTo(", topo.Ref(), topo.Ref()))

	if _, err := folium.NewTopoJSON(raw, ""); !errors.Is(err, folium.ErrConfiguration) {
		t.Errorf("empty object path returned %v, want ErrConfiguration", err)
	}
	if _, err := folium.NewTopoJSON([]byte("{oops"), "objects.counties"); !errors.Is(err, folium.ErrConfiguration) {
		t.Errorf("malformed topology returned %v, want ErrConfiguration", err)
	}
}

func TestWMSTileLayer(t *testing.T) {
	wms, err := folium.NewWMSTileLayer("http://this.wms.server/ncWMS/wms", folium.WMSTileLayerOptions{
		Layers:      "test_layer",
		Format:      "image/png",
		Transparent: true,
		Attr:        "Weather data",
	})
	if err != nil {
		t.Fatalf("NewWMSTileLayer: unexpected error: %v", err)
	}
	out := renderOnMap(t, wms)
	mustContain(t, out, fmt.Sprintf("var %s = L.tileLayer.wms('http://this.wms.server/ncWMS/wms', {", wms.Ref()))
	mustContain(t, out, "format: 'image/png'")
	mustContain(t, out, "transparent: true")
	mustContain(t, out, "layers: 'test_layer'")
	mustContain(t, out, "attribution: 'Weather data'")

	plain, err := folium.NewWMSTileLayer("http://this.wms.server/ncWMS/wms", folium.WMSTileLayerOptions{})
	if err != nil {
		t.Fatalf("NewWMSTileLayer: unexpected error: %v", err)
	}
	if plain.Format != "image/jpeg" {
		t.Errorf("default format = %q, want image/jpeg", plain.Format)
	}

	if _, err := folium.NewWMSTileLayer("", folium.WMSTileLayerOptions{}); !errors.Is(err, folium.ErrConfiguration) {
		t.Errorf("empty URL returned %v, want ErrConfiguration", err)
	}
}

func TestCircleMarker(t *testing.T) {
	c := folium.NewCircleMarker([2]float64{45.5, -122.3}, folium.CircleMarkerOptions{})
	if c.Radius != 500 || c.Color != "black" || c.FillColor != "black" || c.FillOpacity != 0.6 {
		t.Errorf("defaults = %v/%v/%v/%v, want 500/black/black/0.6",
			c.Radius, c.Color, c.FillColor, c.FillOpacity)
	}
	out := renderOnMap(t, c)
	mustContain(t, out, fmt.Sprintf("var %s = L.circle([45.5, -122.3], 500, {", c.Ref()))
	mustContain(t, out, "fillOpacity: 0.6")
}

func TestRegularPolygonMarker(t *testing.T) {
	p := folium.NewRegularPolygonMarker([2]float64{45.5, -122.3}, folium.RegularPolygonMarkerOptions{})
	out := renderOnMap(t, p)
	mustContain(t, out, "leaflet-dvf/0.3.0/leaflet-dvf.markers.min.js")
	mustContain(t, out, fmt.Sprintf("var %s = new L.RegularPolygonMarker(new L.LatLng(45.5, -122.3), {", p.Ref()))
	mustContain(t, out, "icon: new L.Icon.Default()")
	mustContain(t, out, "numberOfSides: 4")
	mustContain(t, out, "radius: 15")
}

func TestPolyLine(t *testing.T) {
	line := folium.NewPolyLine([][2]float64{{45.5236, -122.675}, {45.5236, -122.675}}, folium.LineOptions{
		Color:   "blue",
		Weight:  2,
		Opacity: 1,
	})
	opts, err := line.OptionsJSON()
	if err != nil {
		t.Fatalf("OptionsJSON: unexpected error: %v", err)
	}
	if want := `{"color":"blue","opacity":1,"weight":2}`; opts != want {
		t.Errorf("OptionsJSON() = %s, want %s", opts, want)
	}

	out := renderOnMap(t, line)
	mustContain(t, out, fmt.Sprintf("var %s = L.polyline([[45.5236,-122.675],[45.5236,-122.675]], %s);", line.Ref(), opts))
	mustContain(t, out, fmt.Sprintf(".addLayer(%s);", line.Ref()))

	bare := folium.NewPolyLine(nil, folium.LineOptions{})
	opts, err = bare.OptionsJSON()
	if err != nil {
		t.Fatalf("OptionsJSON: unexpected error: %v", err)
	}
	if opts != "{}" {
		t.Errorf("zero OptionsJSON() = %s, want {}", opts)
	}
}

func TestMultiPolyLine(t *testing.T) {
	lines := folium.NewMultiPolyLine([][][2]float64{
		{{45.5236, -122.675}, {45.5237, -122.675}},
		{{45.5237, -122.675}, {45.5238, -122.675}},
	}, folium.LineOptions{Color: "red"})
	out := renderOnMap(t, lines)
	mustContain(t, out, fmt.Sprintf("var %s = L.multiPolyline(", lines.Ref()))
	mustContain(t, out, `{"color":"red"}`)
}

func TestVega(t *testing.T) {
	v, err := folium.NewVega([]byte(`{"width":400,"height":200}`))
	if err != nil {
		t.Fatalf("NewVega: unexpected error: %v", err)
	}
	out := renderOnMap(t, v)
	mustContain(t, out, "vega/1.4.3/vega.min.js")
	mustContain(t, out, "d3/3.5.5/d3.min.js")
	mustContain(t, out, fmt.Sprintf(`<div id="%s"></div>`, v.Ref()))
	mustContain(t, out, fmt.Sprintf(`vega_parse({"width":400,"height":200}, '#%s');`, v.Ref()))

	if _, err := folium.NewVega([]byte("{oops")); !errors.Is(err, folium.ErrConfiguration) {
		t.Errorf("malformed spec returned %v, want ErrConfiguration", err)
	}
}

func TestCustomIcon(t *testing.T) {
	icon, err := folium.NewCustomIcon("http://leafletjs.com/docs/images/leaf-green.png", folium.CustomIconOptions{
		IconSize:     []int{38, 95},
		IconAnchor:   []int{22, 94},
		ShadowURL:    "http://leafletjs.com/docs/images/leaf-shadow.png",
		ShadowSize:   []int{50, 64},
		ShadowAnchor: []int{4, 62},
		PopupAnchor:  []int{-3, -76},
	})
	if err != nil {
		t.Fatalf("NewCustomIcon: unexpected error: %v", err)
	}
	marker := folium.NewMarker([2]float64{45.5, -122.3}, folium.MarkerOptions{Icon: icon})
	out := renderOnMap(t, marker)
	mustContain(t, out, "iconUrl: 'http://leafletjs.com/docs/images/leaf-green.png'")
	mustContain(t, out, "iconSize: [38,95]")
	mustContain(t, out, "iconAnchor: [22,94]")
	mustContain(t, out, "shadowUrl: 'http://leafletjs.com/docs/images/leaf-shadow.png'")
	mustContain(t, out, "shadowAnchor: [4,62]")
	mustContain(t, out, "popupAnchor: [-3,-76]")
	mustContain(t, out, fmt.Sprintf("%s.setIcon(%s);", marker.Ref(), icon.Ref()))

	plain, err := folium.NewCustomIcon("http://example.org/pin.png", folium.CustomIconOptions{})
	if err != nil {
		t.Fatalf("NewCustomIcon: unexpected error: %v", err)
	}
	out = renderOnMap(t, folium.NewMarker([2]float64{0, 0}, folium.MarkerOptions{Icon: plain}))
	if strings.Contains(out, "shadowUrl") {
		t.Errorf("bare icon rendered a shadow block")
	}
	if strings.Contains(out, "iconSize") {
		t.Errorf("bare icon rendered a size block")
	}

	if _, err := folium.NewCustomIcon("", folium.CustomIconOptions{}); !errors.Is(err, folium.ErrConfiguration) {
		t.Errorf("empty URL returned %v, want ErrConfiguration", err)
	}
}

func TestLinkElements(t *testing.T) {
	m, err := folium.NewMap(folium.MapOptions{})
	if err != nil {
		t.Fatalf("NewMap: unexpected error: %v", err)
	}
	if err := m.Add(folium.NewCssLink("https://example.org/extra.css")); err != nil {
		t.Fatalf("Add: unexpected error: %v", err)
	}
	if err := m.Add(folium.NewJavascriptLink("https://example.org/extra.js")); err != nil {
		t.Fatalf("Add: unexpected error: %v", err)
	}
	out, err := m.Render(context.Background())
	if err != nil {
		t.Fatalf("Render: unexpected error: %v", err)
	}
	head := out[:strings.Index(out, "</head>")]
	mustContain(t, head, `<link rel="stylesheet" href="https://example.org/extra.css">`)
	mustContain(t, head, `<script src="https://example.org/extra.js"></script>`)
}

func TestColorScaleValidation(t *testing.T) {
	colors := []string{"#a", "#b", "#c", "#d"}

	if _, err := folium.NewColorScale([]float64{1}, colors, ""); !errors.Is(err, folium.ErrInvalidScale) {
		t.Errorf("1 boundary returned %v, want ErrInvalidScale", err)
	}
	long := []float64{1, 2, 3, 4, 5, 6, 7}
	if _, err := folium.NewColorScale(long, make([]string, 9), ""); !errors.Is(err, folium.ErrInvalidScale) {
		t.Errorf("7 boundaries returned %v, want ErrInvalidScale", err)
	}
	if _, err := folium.NewColorScale([]float64{1, 2}, colors[:3], ""); !errors.Is(err, folium.ErrConfiguration) {
		t.Errorf("3 colors for 2 boundaries returned %v, want ErrConfiguration", err)
	}

	domain := []float64{1, 2}
	scale, err := folium.NewColorScale(domain, colors, "Rate (%)")
	if err != nil {
		t.Fatalf("NewColorScale: unexpected error: %v", err)
	}
	if scale.MinDomain() != 1 || scale.MaxDomain() != 2 {
		t.Errorf("domain ends = %v..%v, want 1..2", scale.MinDomain(), scale.MaxDomain())
	}
	domain[0] = 99
	colors[0] = "#z"
	if scale.Domain[0] != 1 || scale.Colors[0] != "#a" {
		t.Errorf("scale shares backing arrays with its inputs")
	}
}

func TestColorScaleRender(t *testing.T) {
	scale, err := folium.NewColorScale([]float64{4, 1000, 3000}, []string{"#a", "#b", "#c", "#d", "#e"}, "Unemployment")
	if err != nil {
		t.Fatalf("NewColorScale: unexpected error: %v", err)
	}
	out := renderOnMap(t, scale)
	mustContain(t, out, "d3/3.5.5/d3.min.js")
	mustContain(t, out, "d3.scale.threshold()")
	mustContain(t, out, ".domain([4,1000,3000])")
	mustContain(t, out, `.range(["#a","#b","#c","#d","#e"])`)
	mustContain(t, out, ".text('Unemployment');")
}
