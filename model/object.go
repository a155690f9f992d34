package model

import (
	"fmt"
	"strings"
)

// Object represents a bounding box in an image with its aliases.
// SynsetNames holds the unresolved names until synset resolution fills Synsets.
type Object struct {
	ID          int       `json:"id"`
	X           int       `json:"x"`
	Y           int       `json:"y"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Names       []string  `json:"names"`
	SynsetNames []string  `json:"synset_names,omitempty"`
	Synsets     []*Synset `json:"synsets,omitempty"`
	Attributes  []string  `json:"attributes,omitempty"`
}

// NewObject builds an Object, names must hold at least one alias.
func NewObject(id, x, y, width, height int, names []string, synsetNames []string) (*Object, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: object %d has no names", ErrMalformedRecord, id)
	}
	return &Object{
		ID:          id,
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		Names:       names,
		SynsetNames: synsetNames,
	}, nil
}

func (o *Object) String() string {
	return strings.Join(o.Names, ", ")
}

// Attribute attaches a string to an Object it does not own.
type Attribute struct {
	ID          int       `json:"id"`
	Object      *Object   `json:"-"`
	Attribute   string    `json:"attribute"`
	SynsetNames []string  `json:"synset_names,omitempty"`
	Synsets     []*Synset `json:"synsets,omitempty"`
}

func (a *Attribute) String() string {
	return fmt.Sprintf("%d: %s is %s", a.ID, a.Object, a.Attribute)
}
