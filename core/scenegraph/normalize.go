package scenegraph

import (
	"fmt"

	"github.com/siherrmann/visualgenome/model"
)

// NormalizedObject is the canonical field set of an object fragment.
type NormalizedObject struct {
	ID          int
	X           int
	Y           int
	Width       int
	Height      int
	Names       []string
	SynsetNames []string
	Attributes  []string
}

// Normalize maps a raw fragment to the canonical field set:
// object_id becomes id, attributes are held separately, w/h become
// width/height and a singular name becomes a one element names list.
func Normalize(raw RawObject) (NormalizedObject, error) {
	n := NormalizedObject{}

	id, ok := fragmentID(raw)
	if !ok {
		return n, fmt.Errorf("%w: object fragment without object_id", model.ErrMalformedRecord)
	}
	n.ID = id

	n.Attributes = append([]string{}, raw.Attributes...)

	width, height := raw.Width, raw.Height
	if raw.W != nil {
		width = raw.W
	}
	if raw.H != nil {
		height = raw.H
	}
	if raw.X == nil || raw.Y == nil || width == nil || height == nil {
		return n, fmt.Errorf("%w: object %d without geometry", model.ErrMalformedRecord, id)
	}
	n.X, n.Y, n.Width, n.Height = *raw.X, *raw.Y, *width, *height

	if raw.Name != nil {
		n.Names = []string{*raw.Name}
	} else {
		n.Names = append([]string{}, raw.Names...)
	}
	if len(n.Names) == 0 {
		return n, fmt.Errorf("%w: object %d without name", model.ErrMalformedRecord, id)
	}

	n.SynsetNames = append([]string{}, raw.Synsets...)

	return n, nil
}

// fragmentID returns object_id, falling back to an already renamed id.
func fragmentID(raw RawObject) (int, bool) {
	if raw.ObjectID != nil {
		return *raw.ObjectID, true
	}
	if raw.ID != nil {
		return *raw.ID, true
	}
	return 0, false
}

// NewObject constructs the model object from a normalized fragment.
func (n NormalizedObject) NewObject() (*model.Object, error) {
	o, err := model.NewObject(n.ID, n.X, n.Y, n.Width, n.Height, n.Names, n.SynsetNames)
	if err != nil {
		return nil, err
	}
	o.Attributes = n.Attributes
	return o, nil
}
