package scenegraph

import (
	"encoding/json"
	"fmt"

	"github.com/siherrmann/visualgenome/helper"
	"github.com/siherrmann/visualgenome/model"
)

// Parse builds the graph of one image from the native per image schema
// with the MergeFirstWins policy.
func Parse(raw RawGraph, imageID int) (*model.Graph, error) {
	return ParseWithPolicy(raw, imageID, model.MergeFirstWins)
}

// ParseWithPolicy builds the graph of one image. Objects are discovered
// through the relationships, then through the attribute records and the
// standalone object list. Synset names stay unresolved, see ResolveSynsets.
func ParseWithPolicy(raw RawGraph, imageID int, policy model.MergePolicy) (*model.Graph, error) {
	objects, err := NewObjectMap(policy)
	if err != nil {
		return nil, helper.NewError(fmt.Sprintf("parse image %d", imageID), err)
	}
	graph := &model.Graph{
		ImageID:       imageID,
		Relationships: make([]*model.Relationship, 0, len(raw.Relationships)),
		Attributes:    make([]*model.Attribute, 0, len(raw.Attributes)),
	}

	for i, rel := range raw.Relationships {
		if rel.RelationshipID == nil || rel.Predicate == nil || rel.Subject == nil || rel.Object == nil {
			return nil, fmt.Errorf("%w: relationship %d of image %d lacks relationship_id, predicate, subject or object", model.ErrMalformedRecord, i, imageID)
		}

		subject, err := objects.Resolve(*rel.Subject)
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("subject of relationship %d", *rel.RelationshipID), err)
		}
		object, err := objects.Resolve(*rel.Object)
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("object of relationship %d", *rel.RelationshipID), err)
		}

		graph.Relationships = append(graph.Relationships, &model.Relationship{
			ID:          *rel.RelationshipID,
			Subject:     subject,
			Predicate:   *rel.Predicate,
			Object:      object,
			SynsetNames: append([]string{}, rel.Synsets...),
		})
	}

	for i, attr := range raw.Attributes {
		if attr.AttributeID == nil || attr.Attribute == nil || attr.Object == nil {
			return nil, fmt.Errorf("%w: attribute %d of image %d lacks attribute_id, attribute or object", model.ErrMalformedRecord, i, imageID)
		}

		object, err := objects.Resolve(*attr.Object)
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("object of attribute %d", *attr.AttributeID), err)
		}

		graph.Attributes = append(graph.Attributes, &model.Attribute{
			ID:          *attr.AttributeID,
			Object:      object,
			Attribute:   *attr.Attribute,
			SynsetNames: append([]string{}, attr.Synsets...),
		})
	}

	for _, o := range raw.Objects {
		_, err := objects.Resolve(o)
		if err != nil {
			return nil, helper.NewError("standalone object", err)
		}
	}

	graph.Objects = objects.Objects()
	if graph.Objects == nil {
		graph.Objects = []*model.Object{}
	}

	err = graph.Validate()
	if err != nil {
		return nil, err
	}

	return graph, nil
}

// ParseJSON decodes a per image scene graph file and parses it.
func ParseJSON(data []byte, imageID int, policy model.MergePolicy) (*model.Graph, error) {
	var raw RawGraph
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return nil, helper.NewError("decode scene graph", fmt.Errorf("%w: %v", model.ErrMalformedRecord, err))
	}
	return ParseWithPolicy(raw, imageID, policy)
}

// Serialize maps a graph back to the per image schema. Objects are written
// with object_id, w, h and names, synsets are flattened to their names.
// Objects referenced by neither a relationship nor an attribute are kept
// in the objects list so nothing is lost on the next Parse.
func Serialize(graph *model.Graph) RawGraph {
	imageID := graph.ImageID
	raw := RawGraph{
		ImageID:       &imageID,
		Relationships: make([]RawRelationship, 0, len(graph.Relationships)),
	}

	referenced := make(map[*model.Object]bool, len(graph.Objects))

	for _, r := range graph.Relationships {
		id := r.ID
		predicate := r.Predicate
		raw.Relationships = append(raw.Relationships, RawRelationship{
			RelationshipID: &id,
			Predicate:      &predicate,
			Object:         serializeObject(r.Object),
			Subject:        serializeObject(r.Subject),
			Synsets:        synsetNames(r.Synsets, r.SynsetNames),
		})
		referenced[r.Subject] = true
		referenced[r.Object] = true
	}

	for _, a := range graph.Attributes {
		id := a.ID
		attribute := a.Attribute
		raw.Attributes = append(raw.Attributes, RawAttribute{
			AttributeID: &id,
			Attribute:   &attribute,
			Object:      serializeObject(a.Object),
			Synsets:     synsetNames(a.Synsets, a.SynsetNames),
		})
		referenced[a.Object] = true
	}

	for _, o := range graph.Objects {
		if !referenced[o] {
			raw.Objects = append(raw.Objects, *serializeObject(o))
		}
	}

	return raw
}

// SerializeJSON encodes Serialize(graph).
func SerializeJSON(graph *model.Graph) ([]byte, error) {
	data, err := json.Marshal(Serialize(graph))
	if err != nil {
		return nil, helper.NewError("encode scene graph", err)
	}
	return data, nil
}

func serializeObject(o *model.Object) *RawObject {
	id, x, y, w, h := o.ID, o.X, o.Y, o.Width, o.Height
	return &RawObject{
		ObjectID:   &id,
		X:          &x,
		Y:          &y,
		W:          &w,
		H:          &h,
		Names:      append([]string{}, o.Names...),
		Synsets:    synsetNames(o.Synsets, o.SynsetNames),
		Attributes: o.Attributes,
	}
}

// synsetNames prefers resolved records and falls back to the unresolved names.
func synsetNames(resolved []*model.Synset, names []string) []string {
	if len(resolved) > 0 {
		return model.SynsetNames(resolved)
	}
	return append([]string{}, names...)
}
