package folium

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"text/template"
)

// ErrTemplateNotFound is returned when a template cannot be resolved
// for an element taking part in a render. The whole render fails; no
// partial document is produced.
var ErrTemplateNotFound = errors.New("template not found")

// Environment resolves and caches the templates a document renders
// with. The zero value is not usable; construct one with
// NewEnvironment, or use DefaultEnvironment for the embedded set.
//
// Templates are plain text templates, not HTML-escaping ones: most of
// what they produce is JavaScript, and contextual autoescaping would
// mangle it. Values that must be JSON go through the "json" template
// function instead.
type Environment struct {
	fsys  fs.FS
	funcs template.FuncMap

	mu    sync.RWMutex
	cache map[string]*template.Template
}

// NewEnvironment returns an Environment reading templates from fsys.
// The "json" function is always available to templates; more can be
// added with Funcs.
func NewEnvironment(fsys fs.FS) *Environment {
	return &Environment{
		fsys: fsys,
		funcs: template.FuncMap{
			"json": marshalJSON,
		},
		cache: map[string]*template.Template{},
	}
}

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Funcs merges fm into the functions templates are parsed with and
// returns the Environment. Already-cached templates are dropped so the
// next lookup reparses them with the merged set.
func (e *Environment) Funcs(fm template.FuncMap) *Environment {
	e.mu.Lock()
	defer e.mu.Unlock()
	for name, fn := range fm {
		e.funcs[name] = fn
	}
	e.cache = map[string]*template.Template{}
	return e
}

// Template returns the parsed template stored under name, loading and
// caching it on first use. A template that cannot be read, whatever
// the underlying reason, reports ErrTemplateNotFound.
func (e *Environment) Template(name string) (*template.Template, error) {
	e.mu.RLock()
	cached, ok := e.cache[name]
	e.mu.RUnlock()
	if ok {
		return cached, nil
	}

	raw, err := fs.ReadFile(e.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", name, ErrTemplateNotFound)
	}
	parsed, err := template.New(name).Funcs(e.funcs).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing template %q: %w", name, err)
	}

	e.mu.Lock()
	e.cache[name] = parsed
	e.mu.Unlock()
	return parsed, nil
}

// Render executes the template stored under name with data and returns
// the output.
func (e *Environment) Render(name string, data any) (string, error) {
	t, err := e.Template(name)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering template %q: %w", name, err)
	}
	return sb.String(), nil
}

// renderSection executes one named section of the template stored
// under name. A template that does not define the section contributes
// nothing, which is how most element types skip the streams they have
// no content for.
func (e *Environment) renderSection(name, section string, data any) (string, error) {
	t, err := e.Template(name)
	if err != nil {
		return "", err
	}
	sub := t.Lookup(section)
	if sub == nil {
		return "", nil
	}
	var sb strings.Builder
	if err := sub.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering template %q section %q: %w", name, section, err)
	}
	return sb.String(), nil
}

// templateFor maps an element's type tag to the template file that
// renders it: a Node named "TileLayer" renders with "tile_layer.tmpl".
func templateFor(node Node) string {
	return snakeCase(node.Name()) + ".tmpl"
}
