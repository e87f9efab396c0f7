package graph

import (
	"fmt"
	"time"
)

// Space is a node of the physical location tree. Units are the roots.
type Space struct {
	ID        string
	Name      string
	Level     int
	StartDate *time.Time
	EndDate   *time.Time

	Parent   *Space
	Children []*Space
}

// IsUnit reports whether the space is a root of the tree.
func (s *Space) IsUnit() bool { return s.Parent == nil }

// Root returns the unit this space belongs to.
func (s *Space) Root() *Space {
	for s.Parent != nil {
		s = s.Parent
	}
	return s
}

// Leaves returns the leaf spaces under s (s itself if it has no children),
// in depth-first child order.
func (s *Space) Leaves() []*Space {
	if len(s.Children) == 0 {
		return []*Space{s}
	}
	var out []*Space
	for _, c := range s.Children {
		out = append(out, c.Leaves()...)
	}
	return out
}

// Walk calls fn for s and every descendant, parents first.
func (s *Space) Walk(fn func(*Space)) {
	fn(s)
	for _, c := range s.Children {
		c.Walk(fn)
	}
}

// AddUnit appends a root space.
func (b *Building) AddUnit(id, name string) (*Space, error) {
	if err := b.checkID("space", id); err != nil {
		return nil, err
	}
	s := &Space{ID: id, Name: name, Level: 0}
	b.spaces[id] = s
	b.Units = append(b.Units, s)
	return s, nil
}

// AddChild appends a space at the end of the parent's child list.
func (b *Building) AddChild(parentID, id, name string) (*Space, error) {
	parent := b.spaces[parentID]
	if parent == nil {
		return nil, notFound("space", parentID)
	}
	if err := b.checkID("space", id); err != nil {
		return nil, err
	}
	s := &Space{ID: id, Name: name, Level: parent.Level + 1, Parent: parent}
	b.spaces[id] = s
	parent.Children = append(parent.Children, s)
	return s, nil
}

func (b *Building) spacePosition(s *Space) int {
	siblings := b.Units
	if s.Parent != nil {
		siblings = s.Parent.Children
	}
	for i, o := range siblings {
		if o == s {
			return i
		}
	}
	return -1
}

// RemoveSpace detaches the subtree rooted at id. Packages placed on any space
// of the subtree are removed with their links, and lines rooted at a removed
// unit are removed with their crews.
func (b *Building) RemoveSpace(id string) error {
	s := b.spaces[id]
	if s == nil {
		return notFound("space", id)
	}
	removed := make(map[*Space]bool)
	s.Walk(func(x *Space) { removed[x] = true })

	for _, p := range b.packages {
		if removed[p.Space] {
			b.removePackage(p)
		}
	}
	for _, l := range append([]*Line(nil), b.Lines...) {
		if removed[l.Space] {
			if err := b.RemoveLine(l.ID); err != nil {
				return fmt.Errorf("remove line %s: %w", l.ID, err)
			}
		}
	}
	if s.Parent == nil {
		b.Units = removeFrom(b.Units, s)
	} else {
		s.Parent.Children = removeFrom(s.Parent.Children, s)
	}
	for x := range removed {
		delete(b.spaces, x.ID)
	}
	return nil
}

func removeFrom[T comparable](list []T, v T) []T {
	for i, o := range list {
		if o == v {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}
