package model

import "fmt"

// Graph is the scene graph of one image. Objects is the arena every
// Relationship and Attribute points into.
type Graph struct {
	ImageID       int             `json:"image_id"`
	Image         *Image          `json:"image,omitempty"`
	Objects       []*Object       `json:"objects"`
	Relationships []*Relationship `json:"relationships"`
	Attributes    []*Attribute    `json:"attributes"`
}

func (g *Graph) String() string {
	return fmt.Sprintf("image: %d, objects: %d, relationships: %d, attributes: %d",
		g.ImageID, len(g.Objects), len(g.Relationships), len(g.Attributes))
}

// ObjectByID returns the arena object with the given id.
func (g *Graph) ObjectByID(id int) (*Object, bool) {
	for _, o := range g.Objects {
		if o.ID == id {
			return o, true
		}
	}
	return nil, false
}

// Validate checks that object and attribute ids are unique and that every
// object referenced by a relationship or attribute is the arena instance.
// The parsers call it on every graph they build.
func (g *Graph) Validate() error {
	arena := make(map[int]*Object, len(g.Objects))
	for _, o := range g.Objects {
		if _, exists := arena[o.ID]; exists {
			return fmt.Errorf("%w: duplicate object id %d in image %d", ErrMalformedRecord, o.ID, g.ImageID)
		}
		arena[o.ID] = o
	}

	inArena := func(o *Object) bool {
		return o != nil && arena[o.ID] == o
	}

	for _, r := range g.Relationships {
		if !inArena(r.Subject) || !inArena(r.Object) {
			return fmt.Errorf("%w: relationship %d references an object outside image %d", ErrMalformedRecord, r.ID, g.ImageID)
		}
	}
	attributeIDs := make(map[int]bool, len(g.Attributes))
	for _, a := range g.Attributes {
		if !inArena(a.Object) {
			return fmt.Errorf("%w: attribute %d references an object outside image %d", ErrMalformedRecord, a.ID, g.ImageID)
		}
		if attributeIDs[a.ID] {
			return fmt.Errorf("%w: duplicate attribute id %d in image %d", ErrMalformedRecord, a.ID, g.ImageID)
		}
		attributeIDs[a.ID] = true
	}
	return nil
}
