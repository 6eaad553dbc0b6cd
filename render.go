package folium

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Figure is the root of a document tree. It owns the Environment the
// tree renders with and produces the final HTML page. Every element
// below it contributes fragments to three streams: resource links for
// the head, markup for the body, and JavaScript for a single script
// block at the end of the body.
type Figure struct {
	*Element

	env *Environment
}

// NewFigure returns an empty document backed by the embedded template
// set.
func NewFigure() *Figure {
	return &Figure{
		Element: NewElement("Figure"),
		env:     DefaultEnvironment(),
	}
}

// WithEnvironment swaps the Environment the document renders with and
// returns the Figure.
func (f *Figure) WithEnvironment(env *Environment) *Figure {
	f.env = env
	return f
}

// Environment returns the Environment the document renders with.
func (f *Figure) Environment() *Environment { return f.env }

// nodeContext is the data an element's template sections execute with.
type nodeContext struct {
	This Node
}

// figureContext is the data the document skeleton executes with.
type figureContext struct {
	This   Node
	Head   string
	Html   string
	Script string
}

type fragments struct {
	head   strings.Builder
	html   strings.Builder
	script strings.Builder
}

// Render walks the tree in insertion order, collects every element's
// fragments, and assembles the final page. It does not modify the
// tree: rendering the same tree twice produces identical output. Any
// element whose template cannot be resolved fails the whole render
// with ErrTemplateNotFound.
func (f *Figure) Render(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "folium.Render")
	defer span.End()

	start := time.Now()
	var frags fragments
	elements := 0
	for _, child := range f.Children() {
		n, err := f.collect(child, &frags)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return "", err
		}
		elements += n
	}

	out, err := f.env.Render("figure.tmpl", figureContext{
		This:   f,
		Head:   frags.head.String(),
		Html:   frags.html.String(),
		Script: frags.script.String(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.Int("folium.elements", elements))
	logger(ctx).DebugContext(ctx, "rendered document",
		slog.Int("elements", elements),
		slog.Int("bytes", len(out)),
		slog.Duration("elapsed", time.Since(start)))
	return out, nil
}

// collect renders node's fragment sections into frags, then descends
// into its children in insertion order. It returns how many elements
// it visited.
func (f *Figure) collect(node Node, frags *fragments) (int, error) {
	name := templateFor(node)
	data := nodeContext{This: node}

	head, err := f.env.renderSection(name, "header", data)
	if err != nil {
		return 0, err
	}
	frags.head.WriteString(head)

	html, err := f.env.renderSection(name, "html", data)
	if err != nil {
		return 0, err
	}
	frags.html.WriteString(html)

	script, err := f.env.renderSection(name, "script", data)
	if err != nil {
		return 0, err
	}
	frags.script.WriteString(script)

	visited := 1
	for _, child := range node.Children() {
		n, err := f.collect(child, frags)
		if err != nil {
			return 0, err
		}
		visited += n
	}
	return visited, nil
}

// WriteHTML renders the document and writes it to w.
func (f *Figure) WriteHTML(ctx context.Context, w io.Writer) error {
	out, err := f.Render(ctx)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}

// Save renders the document and writes it to path.
func (f *Figure) Save(ctx context.Context, path string) error {
	out, err := f.Render(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	logger(ctx).DebugContext(ctx, "saved document",
		slog.String("path", path),
		slog.Int("bytes", len(out)))
	return nil
}
