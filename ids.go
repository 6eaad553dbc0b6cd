package folium

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// IDSource produces identifiers for new elements. An identifier must be
// unique within a document and usable as part of a markup id or a
// JavaScript variable name; the production source emits 32 lowercase
// hex characters.
type IDSource func() string

var newID IDSource = randomID

func randomID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// SetIDSource replaces the generator that assigns element identifiers
// and returns a function restoring the previous one. The production
// path is random; tests install a deterministic source so rendered
// documents are repeatable.
//
// The source is package state: swap it before building elements, not
// concurrently with them.
func SetIDSource(src IDSource) (restore func()) {
	prev := newID
	newID = src
	return func() { newID = prev }
}

// StaticIDSource returns a source that hands out the same identifier
// for every element, for tests that compare whole documents.
func StaticIDSource(id string) IDSource {
	return func() string { return id }
}

// SequentialIDSource returns a source producing zero-padded counters of
// the same width as production identifiers.
func SequentialIDSource() IDSource {
	var n uint64
	return func() string {
		n++
		return fmt.Sprintf("%032d", n)
	}
}
