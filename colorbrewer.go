package folium

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidPalette is returned when a fill color is not a known
// ColorBrewer sequential scheme.
var ErrInvalidPalette = errors.New("invalid palette")

// brewerSchemes holds the 9-class sequential ColorBrewer schemes.
// Shorter ramps are taken as prefixes of these.
var brewerSchemes = map[string][]string{
	"BuGn":   {"#F7FCFD", "#E5F5F9", "#CCECE6", "#99D8C9", "#66C2A4", "#41AE76", "#238B45", "#006D2C", "#00441B"},
	"BuPu":   {"#F7FCFD", "#E0ECF4", "#BFD3E6", "#9EBCDA", "#8C96C6", "#8C6BB1", "#88419D", "#810F7C", "#4D004B"},
	"GnBu":   {"#F7FCF0", "#E0F3DB", "#CCEBC5", "#A8DDB5", "#7BCCC4", "#4EB3D3", "#2B8CBE", "#0868AC", "#084081"},
	"OrRd":   {"#FFF7EC", "#FEE8C8", "#FDD49E", "#FDBB84", "#FC8D59", "#EF6548", "#D7301F", "#B30000", "#7F0000"},
	"PuBu":   {"#FFF7FB", "#ECE7F2", "#D0D1E6", "#A6BDDB", "#74A9CF", "#3690C0", "#0570B0", "#045A8D", "#023858"},
	"PuBuGn": {"#FFF7FB", "#ECE2F0", "#D0D1E6", "#A6BDDB", "#67A9CF", "#3690C0", "#02818A", "#016C59", "#014636"},
	"PuRd":   {"#F7F4F9", "#E7E1EF", "#D4B9DA", "#C994C7", "#DF65B0", "#E7298A", "#CE1256", "#980043", "#67001F"},
	"RdPu":   {"#FFF7F3", "#FDE0DD", "#FCC5C0", "#FA9FB5", "#F768A1", "#DD3497", "#AE017E", "#7A0177", "#49006A"},
	"YlGn":   {"#FFFFE5", "#F7FCB9", "#D9F0A3", "#ADDD8E", "#78C679", "#41AB5D", "#238443", "#006837", "#004529"},
	"YlGnBu": {"#FFFFD9", "#EDF8B1", "#C7E9B4", "#7FCDBB", "#41B6C4", "#1D91C0", "#225EA8", "#253494", "#081D58"},
	"YlOrBr": {"#FFFFE5", "#FFF7BC", "#FEE391", "#FEC44F", "#FE9929", "#EC7014", "#CC4C02", "#993404", "#662506"},
	"YlOrRd": {"#FFFFCC", "#FFEDA0", "#FED976", "#FEB24C", "#FD8D3C", "#FC4E2A", "#E31A1C", "#BD0026", "#800026"},
}

// ColorBrewer returns the 9-class ramp for a sequential scheme code
// like "YlGnBu". Plain color names are not schemes and fail with
// ErrInvalidPalette.
func ColorBrewer(code string) ([]string, error) {
	scheme, ok := brewerSchemes[code]
	if !ok {
		return nil, fmt.Errorf("color brewer scheme %q: %w", code, ErrInvalidPalette)
	}
	return slices.Clone(scheme), nil
}

// Palettes returns the known scheme codes, sorted.
func Palettes() []string {
	codes := make([]string, 0, len(brewerSchemes))
	for code := range brewerSchemes {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}
