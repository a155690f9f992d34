package model

import "fmt"

// Relationship is a predicate between two objects of the same graph.
// Subject and Object point into the graph's object arena.
type Relationship struct {
	ID          int       `json:"id"`
	Subject     *Object   `json:"-"`
	Predicate   string    `json:"predicate"`
	Object      *Object   `json:"-"`
	SynsetNames []string  `json:"synset_names,omitempty"`
	Synsets     []*Synset `json:"synsets,omitempty"`
}

func (r *Relationship) String() string {
	return fmt.Sprintf("%d: %s %s %s", r.ID, r.Subject, r.Predicate, r.Object)
}
