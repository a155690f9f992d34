package scenegraph

import (
	"fmt"

	"github.com/siherrmann/visualgenome/helper"
	"github.com/siherrmann/visualgenome/model"
)

// LoadSynsets reads a synset dictionary file, an array of
// {synset_name, synset_definition}, into one shared record per name.
func LoadSynsets(path string) (model.SynsetMap, error) {
	var entries []model.Synset
	err := helper.ReadJSONFile(path, &entries)
	if err != nil {
		return nil, helper.NewError("load synsets", err)
	}
	return NewSynsetMap(entries)
}

// NewSynsetMap builds the dictionary from decoded entries.
// A later entry with the same name replaces the earlier one.
func NewSynsetMap(entries []model.Synset) (model.SynsetMap, error) {
	synsets := make(model.SynsetMap, len(entries))
	for i := range entries {
		if entries[i].Name == "" {
			return nil, fmt.Errorf("%w: synset entry %d without synset_name", model.ErrMalformedRecord, i)
		}
		s := entries[i]
		synsets[s.Name] = &s
	}
	return synsets, nil
}

// ResolveSynsets replaces the synset names of every object, relationship
// and attribute of the graph with the shared dictionary records. Each
// entity is resolved from its own names. The graph is modified in place,
// object identity is kept.
func ResolveSynsets(graph *model.Graph, synsets model.SynsetMap) error {
	for _, o := range graph.Objects {
		resolved, err := synsets.Lookup(o.SynsetNames)
		if err != nil {
			return helper.NewError(fmt.Sprintf("resolve object %d", o.ID), err)
		}
		o.Synsets = resolved
	}

	for _, r := range graph.Relationships {
		resolved, err := synsets.Lookup(r.SynsetNames)
		if err != nil {
			return helper.NewError(fmt.Sprintf("resolve relationship %d", r.ID), err)
		}
		r.Synsets = resolved
	}

	for _, a := range graph.Attributes {
		resolved, err := synsets.Lookup(a.SynsetNames)
		if err != nil {
			return helper.NewError(fmt.Sprintf("resolve attribute %d", a.ID), err)
		}
		a.Synsets = resolved
	}

	return nil
}

// ResolveSynsetsFromFile loads the dictionary at path and resolves the graph against it.
func ResolveSynsetsFromFile(graph *model.Graph, path string) error {
	synsets, err := LoadSynsets(path)
	if err != nil {
		return err
	}
	return ResolveSynsets(graph, synsets)
}
