// Package folium builds Leaflet map pages as self-contained HTML
// documents.
//
// folium is organized around Elements and a Figure. An Element is one
// piece of the map, such as a tile layer, a marker, or a GeoJSON
// overlay, and Elements compose into a tree: a Marker holds its Popup,
// a Map holds its layers. The Figure is the root of the tree and owns
// the Environment the document renders with.
//
// Most programs start with NewMap, which builds a Map, gives it a tile
// layer, and roots it under a fresh Figure. Elements attach to the map
// with Add, in the order they should appear; rendering walks the tree
// in that order, gathers each element's template fragments, and
// assembles one HTML page with the stylesheets and script links in the
// head, the markup in the body, and all the JavaScript in a single
// script block at the end. Save writes the page to disk.
//
// Every element carries a stable identifier assigned at construction.
// Its Ref, the identifier prefixed with its type, names the JavaScript
// variable and markup id the element answers to. Identifier generation
// can be replaced with SetIDSource when output needs to be
// reproducible, in tests for example.
//
// Elements render with text templates rather than html/template: the
// bulk of the output is JavaScript, which contextual autoescaping
// would corrupt. Templates marshal values explicitly with the json
// template function instead.
package folium
