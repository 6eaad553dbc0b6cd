// Package plugins holds map elements built on Leaflet plugins and
// other extras beyond the core element set.
package plugins

import (
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"math"
	"strings"

	"golang.org/x/image/draw"

	"github.com/Madongmingming/folium"
)

// Options configure an ImageOverlay.
type Options struct {
	// Opacity defaults to 0.25.
	Opacity float64

	// Bounds pins the image corners as [[south-west lat, lon],
	// [north-east lat, lon]]. Defaults to the whole world.
	Bounds [2][2]float64

	// Mercator resamples the image rows from an evenly spaced latitude
	// grid onto the Web Mercator grid before embedding, so gridded
	// data lines up with the basemap.
	Mercator bool
}

// ImageOverlay pins an image to a bounding box on the map.
type ImageOverlay struct {
	*folium.Element

	URL     string
	Bounds  [2][2]float64
	Opacity float64
}

func applyDefaults(opts Options) Options {
	if opts.Opacity == 0 {
		opts.Opacity = 0.25
	}
	if opts.Bounds == ([2][2]float64{}) {
		opts.Bounds = [2][2]float64{{-90, -180}, {90, 180}}
	}
	return opts
}

// NewImageOverlay pins the image at url to the bounds in opts.
func NewImageOverlay(url string, opts Options) *ImageOverlay {
	opts = applyDefaults(opts)
	return &ImageOverlay{
		Element: folium.NewElement("ImageOverlay"),
		URL:     url,
		Bounds:  opts.Bounds,
		Opacity: opts.Opacity,
	}
}

// NewImageOverlayFromImage embeds img as a PNG data URI, so the saved
// document needs no side files. With opts.Mercator set the rows are
// reprojected first. The same image and options always produce the
// same URI.
func NewImageOverlayFromImage(img image.Image, opts Options) (*ImageOverlay, error) {
	opts = applyDefaults(opts)
	if opts.Mercator {
		img = mercatorResample(img, opts.Bounds[0][0], opts.Bounds[1][0])
	}

	var sb strings.Builder
	sb.WriteString("data:image/png;base64,")
	enc := base64.NewEncoder(base64.StdEncoding, &sb)
	if err := png.Encode(enc, img); err != nil {
		return nil, fmt.Errorf("encoding overlay image: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding overlay image: %w", err)
	}
	return NewImageOverlay(sb.String(), opts), nil
}

// mercator projects a latitude in degrees onto the Web Mercator y
// axis, scaled so the poles approach ±infinity and 0° stays 0.
func mercator(lat float64) float64 {
	return math.Asinh(math.Tan(lat*math.Pi/180)) * 180 / math.Pi
}

// invMercator is the inverse of mercator.
func invMercator(y float64) float64 {
	return math.Atan(math.Sinh(y*math.Pi/180)) * 180 / math.Pi
}

// mercatorResample stretches an image's rows from an evenly spaced
// latitude grid between south and north onto the Web Mercator grid.
// Every output row takes the nearest input row; columns are untouched.
func mercatorResample(img image.Image, south, north float64) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if h < 2 {
		return img
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	top, bottom := mercator(north), mercator(south)
	for y := 0; y < h; y++ {
		frac := float64(y) / float64(h-1)
		lat := invMercator(top + (bottom-top)*frac)
		srcY := sourceRow(h, (north-lat)/(north-south))
		sr := image.Rect(b.Min.X, b.Min.Y+srcY, b.Min.X+w, b.Min.Y+srcY+1)
		draw.Copy(out, image.Pt(0, y), img, sr, draw.Src, nil)
	}
	return out
}

// sourceRow converts a 0..1 fraction of the image height to the
// nearest row index.
func sourceRow(height int, frac float64) int {
	row := int(math.Round(frac*float64(height) - 0.5))
	if row < 0 {
		return 0
	}
	if row > height-1 {
		return height - 1
	}
	return row
}
