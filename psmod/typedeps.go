// SPDX-FileCopyrightText: 2025 Antoni Szymański
// SPDX-License-Identifier: MPL-2.0

package psmod

import (
	"fmt"
	"strings"

	"github.com/lindell/go-ordered-set/orderedset"
)

// canonicalEnum assigns an explicit integer value to every member and renders
// the canonical text that participates in duplicate/collision comparison. An
// explicit value resets the running counter, an omitted value continues from
// the previous value plus one.
func canonicalEnum(e *EnumType) string {
	width := 0
	for _, member := range e.Members {
		width = max(width, len(member.Name))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "enum %s {\n", e.Name)
	next := int64(0)
	for _, member := range e.Members {
		if member.Value != nil {
			next = *member.Value
		}
		fmt.Fprintf(&sb, "    %-*s = %d\n", width, member.Name, next)
		next++
	}
	sb.WriteString("}")
	return sb.String()
}

// localBases returns the declared base types of c that are themselves defined
// in the classes section, deduplicated in declaration order. Bases defined
// elsewhere are assumed already loaded and carry no ordering constraint.
func localBases(c *ClassType, classes *Section[*ClassType]) []string {
	bases := orderedset.New[string]()
	for _, base := range c.Bases {
		if def, ok := classes.Get(base); ok && !strings.EqualFold(def.Name, c.Name) {
			bases.Add(strings.ToLower(def.Name))
		}
	}
	return bases.Values()
}

// orderClasses produces an emission order in which every locally-defined base
// type precedes its dependents, falling back to input order for any subset
// the sort cannot resolve. Ordering is best effort, not a correctness gate.
func orderClasses(classes *Section[*ClassType]) []*Definition[*ClassType] {
	n := classes.Len()
	defs := make([]*Definition[*ClassType], 0, n)
	index := make(map[string]int, n)
	for def := range classes.All() {
		index[strings.ToLower(def.Name)] = len(defs)
		defs = append(defs, def)
	}

	// indeg counts unemitted locally-defined bases; dependents[i] lists the
	// classes waiting on defs[i].
	indeg := make([]int, n)
	dependents := make([][]int, n)
	for i, def := range defs {
		for _, base := range localBases(def.Value, classes) {
			j := index[base]
			indeg[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	ordered := make([]*Definition[*ClassType], 0, n)
	emitted := make([]bool, n)
	for range n {
		// Pick the earliest ready class so independent classes keep their
		// input order.
		next := -1
		for i := range n {
			if !emitted[i] && indeg[i] == 0 {
				next = i
				break
			}
		}
		if next == -1 {
			break
		}
		emitted[next] = true
		ordered = append(ordered, defs[next])
		for _, dep := range dependents[next] {
			indeg[dep]--
		}
	}

	// Anything left sits in a dependency cycle; degrade to input order for
	// just that subset.
	for i := range n {
		if !emitted[i] {
			ordered = append(ordered, defs[i])
		}
	}
	return ordered
}
