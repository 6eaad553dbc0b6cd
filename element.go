package folium

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrDuplicateKey is returned when a child is added under a key
	// already taken by one of its new siblings.
	ErrDuplicateKey = errors.New("duplicate child key")

	// ErrConfiguration is returned for malformed caller input that can
	// be detected before any real work happens: wrong column counts,
	// custom tile URLs without an attribution, attaching an element to
	// its own subtree, and the like.
	ErrConfiguration = errors.New("invalid configuration")
)

// Node is the interface shared by everything that can live in a
// document tree. Concrete element types embed *Element, which
// implements it; they are built through their constructors, never as
// zero values.
type Node interface {
	// ID returns the stable identifier assigned at construction.
	ID() string

	// Name returns the type tag templates are resolved by.
	Name() string

	// Ref returns the document-unique reference "<snake(name)>_<id>",
	// usable as a markup id or a JavaScript variable name.
	Ref() string

	// Parent returns the node this one is attached to, or nil for a
	// detached node and for the document root.
	Parent() Node

	// Root follows parent links to the top of the tree.
	Root() Node

	// Children returns the direct children in insertion order.
	Children() []Node

	// Keys returns the direct children's keys in insertion order.
	Keys() []string

	// Child looks up a direct child by its key.
	Child(key string) (Node, bool)

	// Add attaches child at the end of the children order under the
	// child's Ref.
	Add(child Node) error

	// AddNamed attaches child at the end of the children order under
	// an explicit key.
	AddNamed(key string, child Node) error

	// Remove detaches the child under key together with its whole
	// subtree, reporting whether anything was removed.
	Remove(key string) bool

	// Summary returns an order-preserving snapshot of the subtree.
	Summary() *Summary

	base() *Element
}

// Element is the composition primitive every visual type is built on.
// It owns an ordered set of named children, carries a non-owning
// reference to its parent, and knows the type tag its template is
// resolved by. The children order is insertion order and is preserved
// through every operation, including rendering.
//
// An Element is not safe for concurrent mutation; callers sharing a
// document under construction across goroutines must serialize access.
// A finished tree may be read, and rendered, concurrently.
type Element struct {
	id   string
	name string

	parent   *Element
	keys     []string
	children map[string]Node
}

var _ Node = (*Element)(nil)

// NewElement returns a detached element with the given type tag. The
// tag decides which template renders the element: "TileLayer" resolves
// to "tile_layer.tmpl". An element whose tag has no template fails the
// render it takes part in.
func NewElement(name string) *Element {
	return &Element{
		id:       newID(),
		name:     name,
		children: map[string]Node{},
	}
}

func (e *Element) base() *Element { return e }

// ID returns the identifier assigned at construction. It never changes.
func (e *Element) ID() string { return e.id }

// Name returns the type tag templates are resolved by.
func (e *Element) Name() string { return e.name }

// Ref returns "<snake(name)>_<id>", the reference scripts and markup
// address the element by.
func (e *Element) Ref() string { return snakeCase(e.name) + "_" + e.id }

// Parent returns the node this element is attached to, or nil.
func (e *Element) Parent() Node {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

// Root follows parent links to the top of the tree.
func (e *Element) Root() Node {
	root := e
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// Add attaches child at the end of the children order under the child's
// Ref. Since refs are unique, adding the same node twice fails with
// ErrDuplicateKey.
func (e *Element) Add(child Node) error {
	if child == nil {
		return fmt.Errorf("adding nil child: %w", ErrConfiguration)
	}
	return e.AddNamed(child.Ref(), child)
}

// AddNamed attaches child at the end of the children order under key.
// The key must not be taken by a sibling, or the tree is left untouched
// and ErrDuplicateKey returned. Attaching a node to itself or to its
// own subtree is rejected. Attaching a node that already sits elsewhere
// records the new parent without detaching the old association.
func (e *Element) AddNamed(key string, child Node) error {
	if child == nil {
		return fmt.Errorf("adding nil child: %w", ErrConfiguration)
	}
	for a := e; a != nil; a = a.parent {
		if a == child.base() {
			return fmt.Errorf("adding %s to its own subtree: %w", child.Ref(), ErrConfiguration)
		}
	}
	if _, ok := e.children[key]; ok {
		return fmt.Errorf("child key %q: %w", key, ErrDuplicateKey)
	}
	e.keys = append(e.keys, key)
	e.children[key] = child
	child.base().parent = e
	return nil
}

// Remove detaches the child stored under key along with its entire
// subtree. It reports whether a child was removed.
func (e *Element) Remove(key string) bool {
	child, ok := e.children[key]
	if !ok {
		return false
	}
	delete(e.children, key)
	for i, k := range e.keys {
		if k == key {
			e.keys = append(e.keys[:i], e.keys[i+1:]...)
			break
		}
	}
	child.base().parent = nil
	return true
}

// Children returns the direct children in insertion order.
func (e *Element) Children() []Node {
	out := make([]Node, 0, len(e.keys))
	for _, key := range e.keys {
		out = append(out, e.children[key])
	}
	return out
}

// Keys returns the direct children's keys in insertion order.
func (e *Element) Keys() []string {
	return slices.Clone(e.keys)
}

// Child looks up a direct child by its key.
func (e *Element) Child(key string) (Node, bool) {
	child, ok := e.children[key]
	return child, ok
}

// Summary is a read-only snapshot of an element subtree: type tag,
// identifier, and the children in insertion order. Its JSON form keeps
// that order.
type Summary struct {
	Name     string
	ID       string
	Children []SummaryChild
}

// SummaryChild pairs a child's key with the child's own snapshot.
type SummaryChild struct {
	Key     string
	Summary *Summary
}

// Summary returns the snapshot of the subtree rooted at this element.
func (e *Element) Summary() *Summary {
	s := &Summary{
		Name:     e.name,
		ID:       e.id,
		Children: make([]SummaryChild, 0, len(e.keys)),
	}
	for _, key := range e.keys {
		s.Children = append(s.Children, SummaryChild{
			Key:     key,
			Summary: e.children[key].Summary(),
		})
	}
	return s
}

// MarshalJSON emits {"name": ..., "id": ..., "children": {...}} with
// the children object in insertion order.
func (s *Summary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"name":`)
	name, err := json.Marshal(s.Name)
	if err != nil {
		return nil, err
	}
	buf.Write(name)
	buf.WriteString(`,"id":`)
	id, err := json.Marshal(s.ID)
	if err != nil {
		return nil, err
	}
	buf.Write(id)
	buf.WriteString(`,"children":{`)
	for i, child := range s.Children {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(child.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		sub, err := json.Marshal(child.Summary)
		if err != nil {
			return nil, err
		}
		buf.Write(sub)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}
