// SPDX-FileCopyrightText: 2025 Antoni Szymański
// SPDX-License-Identifier: MPL-2.0

package psmod

import (
	"fmt"
	"iter"
	"strings"

	"github.com/elliotchance/orderedmap/v3"
)

// Definition is one entry in a Section: the display-cased name, where it came
// from, the canonical text used for duplicate/collision comparison, and a
// category-specific payload.
type Definition[V any] struct {
	Name  string
	Pos   Position
	Text  string
	Value V
}

// Section is a keyed bucket of definitions for one statement category. Keys
// compare case-insensitively; insertion order is preserved for emission.
// Textually identical re-registrations are absorbed with an Omission, while
// differing ones are a Collision.
type Section[V any] struct {
	label string
	defs  *orderedmap.OrderedMap[string, *Definition[V]]
}

func NewSection[V any](label string) *Section[V] {
	return &Section[V]{
		label: label,
		defs:  orderedmap.NewOrderedMap[string, *Definition[V]](),
	}
}

func (s *Section[V]) Add(name string, pos Position, text string, value V) error {
	key := strings.ToLower(name)
	prev, ok := s.defs.Get(key)
	if !ok {
		s.defs.Set(key, &Definition[V]{Name: name, Pos: pos, Text: text, Value: value})
		return nil
	}
	if prev.Text == text {
		return &Omission{
			Pos:     pos,
			Msg:     fmt.Sprintf("duplicate %s %q already merged from %s", s.label, name, prev.Pos),
			Excerpt: excerpt(text),
		}
	}
	return &Collision{
		Pos:  pos,
		Prev: prev.Pos,
		Name: name,
		Msg:  fmt.Sprintf("%s %q redefined with different content", s.label, name),
	}
}

func (s *Section[V]) Get(name string) (*Definition[V], bool) {
	if s == nil {
		return nil, false
	}
	return s.defs.Get(strings.ToLower(name))
}

// Len is nil-safe: sections are created lazily and an absent section is
// simply empty.
func (s *Section[V]) Len() int {
	if s == nil {
		return 0
	}
	return s.defs.Len()
}

// All yields definitions in insertion order.
func (s *Section[V]) All() iter.Seq[*Definition[V]] {
	if s == nil {
		return func(yield func(*Definition[V]) bool) {}
	}
	return s.defs.Values()
}

// Names yields display-cased names in insertion order.
func (s *Section[V]) Names() []string {
	names := make([]string, 0, s.Len())
	for def := range s.All() {
		names = append(names, def.Name)
	}
	return names
}
