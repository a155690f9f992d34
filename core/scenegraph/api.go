package scenegraph

import (
	"fmt"

	"github.com/siherrmann/visualgenome/model"
)

// ParseAPI builds a graph from the remote API schema. Boxes carry their
// aliases and canonical synsets inline, relationships and attributes
// address boxes by id. Synsets are resolved while parsing, one shared
// record per name.
func ParseAPI(raw RawAPIGraph, image *model.Image) (*model.Graph, error) {
	if image == nil {
		return nil, fmt.Errorf("%w: api graph without image", model.ErrMalformedRecord)
	}

	synsets := model.SynsetMap{}
	canon := func(c []RawAPICanon) []*model.Synset {
		// Only the first canonical entry is meaningful.
		if len(c) == 0 {
			return nil
		}
		s, ok := synsets[c[0].Name]
		if !ok {
			s = &model.Synset{Name: c[0].Name, Definition: c[0].Definition}
			synsets[s.Name] = s
		}
		return []*model.Synset{s}
	}

	graph := &model.Graph{
		ImageID:       image.ID,
		Image:         image,
		Objects:       make([]*model.Object, 0, len(raw.BoundingBoxes)),
		Relationships: make([]*model.Relationship, 0, len(raw.Relationships)),
		Attributes:    make([]*model.Attribute, 0, len(raw.Attributes)),
	}
	byID := make(map[int]*model.Object, len(raw.BoundingBoxes))

	for i, box := range raw.BoundingBoxes {
		if box.ID == nil {
			return nil, fmt.Errorf("%w: bounding box %d of image %d without id", model.ErrMalformedRecord, i, image.ID)
		}
		if _, exists := byID[*box.ID]; exists {
			continue
		}

		var names []string
		var objectSynsets []*model.Synset
		for _, boxed := range box.BoxedObjects {
			names = append(names, boxed.Name)
			objectSynsets = append(objectSynsets, canon(boxed.ObjectCanon)...)
		}

		object, err := model.NewObject(*box.ID, box.X, box.Y, box.Width, box.Height, names, model.SynsetNames(objectSynsets))
		if err != nil {
			return nil, err
		}
		object.Synsets = objectSynsets
		byID[object.ID] = object
		graph.Objects = append(graph.Objects, object)
	}

	lookup := func(id *int, kind string, ownID *int) (*model.Object, error) {
		if id == nil || ownID == nil {
			return nil, fmt.Errorf("%w: %s of image %d without id or subject", model.ErrMalformedRecord, kind, image.ID)
		}
		o, ok := byID[*id]
		if !ok {
			return nil, fmt.Errorf("%w: %s %d of image %d references missing object %d", model.ErrMalformedRecord, kind, *ownID, image.ID, *id)
		}
		return o, nil
	}

	for _, rel := range raw.Relationships {
		subject, err := lookup(rel.Subject, "relationship", rel.ID)
		if err != nil {
			return nil, err
		}
		object, err := lookup(rel.Object, "relationship", rel.ID)
		if err != nil {
			return nil, err
		}
		relSynsets := canon(rel.RelationshipCanon)
		graph.Relationships = append(graph.Relationships, &model.Relationship{
			ID:          *rel.ID,
			Subject:     subject,
			Predicate:   rel.Predicate,
			Object:      object,
			SynsetNames: model.SynsetNames(relSynsets),
			Synsets:     relSynsets,
		})
	}

	for _, attr := range raw.Attributes {
		object, err := lookup(attr.Subject, "attribute", attr.ID)
		if err != nil {
			return nil, err
		}
		attrSynsets := canon(attr.AttributeCanon)
		graph.Attributes = append(graph.Attributes, &model.Attribute{
			ID:          *attr.ID,
			Object:      object,
			Attribute:   attr.Attribute,
			SynsetNames: model.SynsetNames(attrSynsets),
			Synsets:     attrSynsets,
		})
	}

	err := graph.Validate()
	if err != nil {
		return nil, err
	}

	return graph, nil
}
