package scenegraph

import (
	"fmt"

	"github.com/siherrmann/visualgenome/model"
)

// ObjectMap resolves object fragments of one image to a single canonical
// Object per external id. It is the only place objects are created while
// a graph is parsed and is dropped once the graph is built.
type ObjectMap struct {
	policy  model.MergePolicy
	byID    map[int]*model.Object
	objects []*model.Object
}

// NewObjectMap creates an empty map. An empty policy means MergeFirstWins,
// an unknown policy is model.ErrInvalidConfig.
func NewObjectMap(policy model.MergePolicy) (*ObjectMap, error) {
	err := policy.Validate()
	if err != nil {
		return nil, err
	}
	if policy == "" {
		policy = model.MergeFirstWins
	}
	return &ObjectMap{
		policy: policy,
		byID:   map[int]*model.Object{},
	}, nil
}

// Resolve returns the canonical object for the fragment's id, creating and
// recording it on first sight. With MergeFirstWins the fields of repeated
// fragments are ignored, with MergeUnion their unseen names, synset names
// and attributes are appended.
func (m *ObjectMap) Resolve(raw RawObject) (*model.Object, error) {
	id, ok := fragmentID(raw)
	if !ok {
		return nil, fmt.Errorf("%w: object fragment without object_id", model.ErrMalformedRecord)
	}

	if existing, ok := m.byID[id]; ok {
		if m.policy == model.MergeFirstWins {
			return existing, nil
		}
		n, err := Normalize(raw)
		if err != nil {
			return nil, err
		}
		existing.Names = appendUnseen(existing.Names, n.Names)
		existing.SynsetNames = appendUnseen(existing.SynsetNames, n.SynsetNames)
		existing.Attributes = appendUnseen(existing.Attributes, n.Attributes)
		return existing, nil
	}

	n, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	object, err := n.NewObject()
	if err != nil {
		return nil, err
	}

	m.byID[id] = object
	m.objects = append(m.objects, object)

	return object, nil
}

// Get returns the object already resolved for id.
func (m *ObjectMap) Get(id int) (*model.Object, bool) {
	o, ok := m.byID[id]
	return o, ok
}

// Objects returns the objects in order of first resolution.
func (m *ObjectMap) Objects() []*model.Object {
	return m.objects
}

// Len returns the number of distinct ids seen.
func (m *ObjectMap) Len() int {
	return len(m.objects)
}

func appendUnseen(dst []string, src []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, s := range dst {
		seen[s] = true
	}
	for _, s := range src {
		if !seen[s] {
			seen[s] = true
			dst = append(dst, s)
		}
	}
	return dst
}
