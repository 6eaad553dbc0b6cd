package plugins_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/Madongmingming/folium"
	"github.com/Madongmingming/folium/plugins"
)

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

func mustContain(t *testing.T, haystack, needle string) {
	t.Helper()
	squash := func(s string) string { return strings.Join(strings.Fields(s), "") }
	if !strings.Contains(squash(haystack), squash(needle)) {
		t.Errorf("output does not contain %q", needle)
	}
}

func TestImageOverlayRender(t *testing.T) {
	overlay := plugins.NewImageOverlay("https://example.org/overlay.png", plugins.Options{})
	out := renderOnMap(t, overlay)
	mustContain(t, out, fmt.Sprintf(
		"var %s = L.imageOverlay('https://example.org/overlay.png', [[-90,-180],[90,180]], {opacity: 0.25}).addTo(",
		overlay.Ref()))
}

func TestImageOverlayBounds(t *testing.T) {
	overlay := plugins.NewImageOverlay("https://example.org/overlay.png", plugins.Options{
		Bounds:  [2][2]float64{{0, -60}, {60, 60}},
		Opacity: 0.5,
	})
	out := renderOnMap(t, overlay)
	mustContain(t, out, "[[0,-60],[60,60]]")
	mustContain(t, out, "{opacity: 0.5}")
}

// rowImage builds an image whose rows carry their own index in the red
// channel, so a decoded overlay reveals which source row each output
// row came from.
func rowImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(y * 20), A: 255})
		}
	}
	return img
}

func decodeOverlay(t *testing.T, overlay *plugins.ImageOverlay) image.Image {
	t.Helper()
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(overlay.URL, prefix) {
		t.Fatalf("overlay URL is not a PNG data URI: %.40q", overlay.URL)
	}
	raw, err := base64.StdEncoding.DecodeString(overlay.URL[len(prefix):])
	if err != nil {
		t.Fatalf("decoding URI payload: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decoding PNG: %v", err)
	}
	return img
}

func sourceRowOf(img image.Image, y int) int {
	r, _, _, _ := img.At(img.Bounds().Min.X, img.Bounds().Min.Y+y).RGBA()
	return int(r/257) / 20
}

func TestImageOverlayFromImage(t *testing.T) {
	overlay, err := plugins.NewImageOverlayFromImage(rowImage(2, 8), plugins.Options{})
	if err != nil {
		t.Fatalf("NewImageOverlayFromImage: unexpected error: %v", err)
	}
	decoded := decodeOverlay(t, overlay)
	if got := decoded.Bounds(); got.Dx() != 2 || got.Dy() != 8 {
		t.Fatalf("decoded image is %dx%d, want 2x8", got.Dx(), got.Dy())
	}
	for y := 0; y < 8; y++ {
		if sourceRowOf(decoded, y) != y {
			t.Errorf("row %d moved to %d without reprojection", y, sourceRowOf(decoded, y))
		}
	}

	again, err := plugins.NewImageOverlayFromImage(rowImage(2, 8), plugins.Options{})
	if err != nil {
		t.Fatalf("NewImageOverlayFromImage: unexpected error: %v", err)
	}
	if overlay.URL != again.URL {
		t.Errorf("the same image produced two different URIs")
	}
}

func TestImageOverlayMercator(t *testing.T) {
	overlay, err := plugins.NewImageOverlayFromImage(rowImage(2, 8), plugins.Options{
		Bounds:   [2][2]float64{{-85, -180}, {85, 180}},
		Mercator: true,
	})
	if err != nil {
		t.Fatalf("NewImageOverlayFromImage: unexpected error: %v", err)
	}
	decoded := decodeOverlay(t, overlay)

	if got := sourceRowOf(decoded, 0); got != 0 {
		t.Errorf("top row came from source row %d, want 0", got)
	}
	if got := sourceRowOf(decoded, 7); got != 7 {
		t.Errorf("bottom row came from source row %d, want 7", got)
	}
	prev := 0
	for y := 0; y < 8; y++ {
		src := sourceRowOf(decoded, y)
		if src < prev {
			t.Errorf("row %d came from source row %d, above row %d", y, src, prev)
		}
		prev = src
	}

	flat, err := plugins.NewImageOverlayFromImage(rowImage(2, 8), plugins.Options{
		Bounds: [2][2]float64{{-85, -180}, {85, 180}},
	})
	if err != nil {
		t.Fatalf("NewImageOverlayFromImage: unexpected error: %v", err)
	}
	if flat.URL == overlay.URL {
		t.Errorf("reprojection did not change the image")
	}
}

func TestImageOverlayMercatorSingleRow(t *testing.T) {
	projected, err := plugins.NewImageOverlayFromImage(rowImage(2, 1), plugins.Options{Mercator: true})
	if err != nil {
		t.Fatalf("NewImageOverlayFromImage: unexpected error: %v", err)
	}
	plain, err := plugins.NewImageOverlayFromImage(rowImage(2, 1), plugins.Options{})
	if err != nil {
		t.Fatalf("NewImageOverlayFromImage: unexpected error: %v", err)
	}
	if projected.URL != plain.URL {
		t.Errorf("a single-row image was reprojected")
	}
}
