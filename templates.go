package folium

import (
	"embed"
	"io/fs"
	"sync"
)

//go:embed templates
var templateFiles embed.FS

var (
	defaultEnvOnce sync.Once
	defaultEnv     *Environment
)

// DefaultEnvironment returns the shared Environment backed by the
// embedded template set. Documents built with NewMap and NewFigure use
// it unless an Environment of their own is supplied.
func DefaultEnvironment() *Environment {
	defaultEnvOnce.Do(func() {
		sub, err := fs.Sub(templateFiles, "templates")
		if err != nil {
			panic("folium: embedded templates missing: " + err.Error())
		}
		defaultEnv = NewEnvironment(sub)
	})
	return defaultEnv
}
