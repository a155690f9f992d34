package model

import "sort"

// Synset is a named ontology entry shared by reference across a graph.
type Synset struct {
	Name       string `json:"synset_name"`
	Definition string `json:"synset_definition"`
}

func (s *Synset) String() string {
	return s.Name
}

// SynsetMap holds one Synset instance per name.
type SynsetMap map[string]*Synset

// Lookup returns the shared records for names in order.
// The first missing name fails with ErrUnknownSynset.
func (m SynsetMap) Lookup(names []string) ([]*Synset, error) {
	if len(names) == 0 {
		return nil, nil
	}
	synsets := make([]*Synset, 0, len(names))
	for _, name := range names {
		s, ok := m[name]
		if !ok {
			return nil, &SynsetError{Name: name}
		}
		synsets = append(synsets, s)
	}
	return synsets, nil
}

// Names returns the dictionary keys sorted.
func (m SynsetMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SynsetError names the synset that could not be resolved.
type SynsetError struct {
	Name string
}

func (e *SynsetError) Error() string {
	return "unknown synset " + e.Name
}

func (e *SynsetError) Unwrap() error {
	return ErrUnknownSynset
}

// SynsetNames flattens resolved synsets back to their names.
func SynsetNames(synsets []*Synset) []string {
	if len(synsets) == 0 {
		return nil
	}
	names := make([]string, 0, len(synsets))
	for _, s := range synsets {
		names = append(names, s.Name)
	}
	return names
}
