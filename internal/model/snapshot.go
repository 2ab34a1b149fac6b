package model

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"
)

var (
	ErrDuplicateClass   = errors.New("duplicate class name")
	ErrInheritanceCycle = errors.New("inheritance cycle")
)

// Snapshot is one complete, read-only copy of the documentation model.
// The parent to children index is computed once, when the snapshot is built.
type Snapshot struct {
	Version     uint64
	Diagnostics []ClassFailure

	classes  map[string]*ClassRecord
	names    []string
	parents  map[string]string
	children map[string][]string
}

// NewSnapshot indexes records by name and builds the inheritance graph.
// Duplicate names keep the first record; an inheritance edge that would close
// a cycle is dropped. Both are reported in Diagnostics.
func NewSnapshot(version uint64, records []*ClassRecord) *Snapshot {
	s := &Snapshot{
		Version:  version,
		classes:  make(map[string]*ClassRecord, len(records)),
		parents:  make(map[string]string),
		children: make(map[string][]string),
	}

	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())

	for _, rec := range records {
		if rec == nil {
			continue
		}
		if _, dup := s.classes[rec.Name]; dup {
			s.Diagnostics = append(s.Diagnostics, ClassFailure{Name: rec.Name, Err: ErrDuplicateClass})
			continue
		}
		s.classes[rec.Name] = rec
		s.names = append(s.names, rec.Name)
		_ = g.AddVertex(rec.Name)
	}
	sort.Strings(s.names)

	for _, name := range s.names {
		rec := s.classes[name]
		parent := rec.Inherits
		if parent == "" {
			continue
		}
		if _, ok := s.classes[parent]; !ok {
			// Unknown parents stay in the chain as plain names.
			s.parents[name] = parent
			continue
		}
		if err := g.AddEdge(parent, name); err != nil {
			if errors.Is(err, graph.ErrEdgeCreatesCycle) {
				s.Diagnostics = append(s.Diagnostics, ClassFailure{
					Name: name,
					Err:  fmt.Errorf("%w: %s inherits %s", ErrInheritanceCycle, name, parent),
				})
				continue
			}
			if !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				s.Diagnostics = append(s.Diagnostics, ClassFailure{Name: name, Err: err})
				continue
			}
		}
		s.parents[name] = parent
	}

	adj, err := g.AdjacencyMap()
	if err == nil {
		for parent, edges := range adj {
			if len(edges) == 0 {
				continue
			}
			kids := make([]string, 0, len(edges))
			for child := range edges {
				kids = append(kids, child)
			}
			sort.Strings(kids)
			s.children[parent] = kids
		}
	}

	return s
}

// Class returns the record for name.
func (s *Snapshot) Class(name string) (*ClassRecord, bool) {
	rec, ok := s.classes[name]
	return rec, ok
}

// Has reports whether the snapshot documents name.
func (s *Snapshot) Has(name string) bool {
	_, ok := s.classes[name]
	return ok
}

// Names returns all class names in sorted order.
func (s *Snapshot) Names() []string {
	return append([]string(nil), s.names...)
}

func (s *Snapshot) Len() int { return len(s.names) }

// Inherits returns the ancestor chain of name, nearest parent first.
func (s *Snapshot) Inherits(name string) []string {
	var chain []string
	seen := map[string]bool{name: true}
	for cur := name; ; {
		parent, ok := s.parents[cur]
		if !ok || seen[parent] {
			return chain
		}
		seen[parent] = true
		chain = append(chain, parent)
		cur = parent
	}
}

// InheritedBy returns the direct subclasses of name, sorted.
func (s *Snapshot) InheritedBy(name string) []string {
	return append([]string(nil), s.children[name]...)
}
