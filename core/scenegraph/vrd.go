package scenegraph

import (
	"encoding/json"
	"fmt"

	"github.com/siherrmann/visualgenome/helper"
	"github.com/siherrmann/visualgenome/model"
)

// ParseVRD builds the graph of one VRD image. Objects are already unique
// in the source and get their position as id, attributes are numbered
// across the image and relationships address objects by position. VRD
// carries no synsets.
func ParseVRD(raw RawVRDImage) (*model.Graph, error) {
	if raw.PhotoID == nil {
		return nil, fmt.Errorf("%w: vrd image without photo_id", model.ErrMalformedRecord)
	}

	image := &model.Image{
		ID:     *raw.PhotoID,
		URL:    raw.Filename,
		Width:  raw.Width,
		Height: raw.Height,
	}
	graph := &model.Graph{
		ImageID:       image.ID,
		Image:         image,
		Objects:       make([]*model.Object, 0, len(raw.Objects)),
		Relationships: make([]*model.Relationship, 0, len(raw.Relationships)),
		Attributes:    []*model.Attribute{},
	}

	for i, o := range raw.Objects {
		if o.BBox == nil {
			return nil, fmt.Errorf("%w: vrd object %d of image %d without bbox", model.ErrMalformedRecord, i, image.ID)
		}
		object, err := model.NewObject(i, o.BBox.X, o.BBox.Y, o.BBox.W, o.BBox.H, append([]string{}, o.Names...), []string{})
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("vrd object %d", i), err)
		}
		object.Attributes = []string{}
		graph.Objects = append(graph.Objects, object)

		for _, a := range o.Attributes {
			graph.Attributes = append(graph.Attributes, &model.Attribute{
				ID:          len(graph.Attributes),
				Object:      object,
				Attribute:   a.Attribute,
				SynsetNames: []string{},
			})
		}
	}

	for i, r := range raw.Relationships {
		if len(r.Objects) != 2 {
			return nil, fmt.Errorf("%w: vrd relationship %d of image %d needs two objects, got %d", model.ErrMalformedRecord, i, image.ID, len(r.Objects))
		}
		s, o := r.Objects[0], r.Objects[1]
		if s < 0 || s >= len(graph.Objects) || o < 0 || o >= len(graph.Objects) {
			return nil, fmt.Errorf("%w: vrd relationship %d of image %d references a missing object", model.ErrMalformedRecord, i, image.ID)
		}
		graph.Relationships = append(graph.Relationships, &model.Relationship{
			ID:          i,
			Subject:     graph.Objects[s],
			Predicate:   r.Relationship,
			Object:      graph.Objects[o],
			SynsetNames: []string{},
		})
	}

	err := graph.Validate()
	if err != nil {
		return nil, err
	}

	return graph, nil
}

// ParseVRDJSON decodes a VRD file, an array of images, and parses every image.
func ParseVRDJSON(data []byte) ([]*model.Graph, error) {
	var raw []RawVRDImage
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return nil, helper.NewError("decode vrd", fmt.Errorf("%w: %v", model.ErrMalformedRecord, err))
	}

	graphs := make([]*model.Graph, 0, len(raw))
	for _, image := range raw {
		g, err := ParseVRD(image)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, g)
	}
	return graphs, nil
}
