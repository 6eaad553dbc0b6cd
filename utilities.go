package folium

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// snakeCase converts a CamelCase type tag to its snake_case form, the
// shape used for template file names and markup references: "TileLayer"
// becomes "tile_layer".
func snakeCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// flattenTileName normalizes a built-in tile set name for catalogue
// lookup: lowercased with all whitespace removed, so "Stamen Terrain"
// becomes "stamenterrain".
func flattenTileName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "")
}

// Size is a CSS dimension: a numeric value plus a unit.
type Size struct {
	Value float64
	Unit  string
}

// Px returns a pixel Size.
func Px(v float64) Size { return Size{Value: v, Unit: "px"} }

// Percent returns a percentage Size.
func Percent(v float64) Size { return Size{Value: v, Unit: "%"} }

// IsZero reports whether the Size was left unset.
func (s Size) IsZero() bool { return s.Value == 0 && s.Unit == "" }

func (s Size) String() string {
	return strconv.FormatFloat(s.Value, 'f', -1, 64) + s.Unit
}

// percentile returns the p-th percentile (0-100) of values, linearly
// interpolated between closest ranks. values must be non-empty; it is
// not modified.
func percentile(values []float64, p float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// roundToMagnitude rounds x to its order of magnitude: 1234 becomes
// 1000, 867 becomes 900, 0.023 becomes 0.02. Non-positive values
// collapse to zero.
func roundToMagnitude(x float64) float64 {
	if x <= 0 {
		return 0
	}
	base := math.Pow(10, math.Floor(math.Log10(x)))
	return math.Round(x/base) * base
}

// joinKey renders a join value as a comparable string. Numbers arriving
// through JSON decode as float64; integral ones must match their string
// form in the table ("1001", never "1001.0").
func joinKey(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
