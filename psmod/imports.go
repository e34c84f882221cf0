// SPDX-FileCopyrightText: 2025 Antoni Szymański
// SPDX-License-Identifier: MPL-2.0

package psmod

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/elliotchance/orderedmap/v3"
	"github.com/hashicorp/go-set/v3"
	"github.com/vishalkuo/bimap"
)

// systemNamespaces maps lowercased well-known namespace names to their
// canonical casing. Namespaces not listed here are title-cased per segment.
var systemNamespaces = bimap.NewBiMap[string, string]()

func init() {
	for _, name := range []string{
		"System",
		"System.Collections",
		"System.Collections.Concurrent",
		"System.Collections.Generic",
		"System.Diagnostics",
		"System.Globalization",
		"System.IO",
		"System.Linq",
		"System.Management.Automation",
		"System.Net",
		"System.Net.Http",
		"System.Net.Sockets",
		"System.Reflection",
		"System.Runtime.InteropServices",
		"System.Security",
		"System.Security.Cryptography",
		"System.Security.Principal",
		"System.Text",
		"System.Text.RegularExpressions",
		"System.Threading",
		"System.Threading.Tasks",
		"System.Xml",
		"Microsoft.Win32",
		"Microsoft.PowerShell.Commands",
	} {
		systemNamespaces.Insert(strings.ToLower(name), name)
	}
}

// CanonicalNamespace normalizes a namespace identifier to its display form:
// the well-known casing when the name matches a system namespace
// case-insensitively, title case per dot-separated segment otherwise.
func CanonicalNamespace(name string) string {
	if canonical, ok := systemNamespaces.Get(strings.ToLower(name)); ok {
		return canonical
	}
	segments := strings.Split(name, ".")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		runes := []rune(seg)
		runes[0] = unicode.ToUpper(runes[0])
		segments[i] = string(runes)
	}
	return strings.Join(segments, ".")
}

// ImportMerger folds using directives into deduplicated namespace and
// assembly sets. Module imports are never stored.
type ImportMerger struct {
	namespaces *orderedmap.OrderedMap[string, string] // lowercased -> display
	assemblies *orderedmap.OrderedMap[string, string]
	rejected   *set.Set[string] // module names already reported
}

func NewImportMerger() *ImportMerger {
	return &ImportMerger{
		namespaces: orderedmap.NewOrderedMap[string, string](),
		assemblies: orderedmap.NewOrderedMap[string, string](),
		rejected:   set.New[string](0),
	}
}

func (m *ImportMerger) Add(imp *Import) error {
	switch imp.Kind {
	case ImportNamespace:
		display := CanonicalNamespace(imp.Name)
		m.namespaces.Set(strings.ToLower(display), display)
		return nil
	case ImportAssembly:
		display := normalizeAssemblyName(imp.Name)
		m.assemblies.Set(strings.ToLower(display), display)
		return nil
	case ImportModule:
		// Warn once per module name; later occurrences drop silently.
		if !m.rejected.Insert(strings.ToLower(imp.Name)) {
			return nil
		}
		return &Omission{
			Pos: imp.Pos,
			Msg: fmt.Sprintf(
				"module import %q dropped, declare it under RequiredModules in the module manifest",
				imp.Name,
			),
		}
	default:
		return &Omission{
			Pos:     imp.Pos,
			Msg:     "unrecognized using directive dropped",
			Excerpt: excerpt(imp.Name),
		}
	}
}

// normalizeAssemblyName sorts the trailing key=value detail clauses of a
// qualified assembly name by key, so clause lists that differ only in order
// merge into one entry.
func normalizeAssemblyName(name string) string {
	parts := strings.Split(name, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	if len(parts) < 3 {
		return strings.Join(parts, ", ")
	}
	clauses := parts[1:]
	slices.SortStableFunc(clauses, func(a, b string) int {
		ka, _, _ := strings.Cut(a, "=")
		kb, _, _ := strings.Cut(b, "=")
		return strings.Compare(strings.ToLower(ka), strings.ToLower(kb))
	})
	return strings.Join(parts, ", ")
}

func (m *ImportMerger) Empty() bool {
	return m.namespaces.Len() == 0 && m.assemblies.Len() == 0
}

func (m *ImportMerger) render(b *strings.Builder) {
	for ns := range m.namespaces.Values() {
		fmt.Fprintf(b, "using namespace %s\n", ns)
	}
	for asm := range m.assemblies.Values() {
		fmt.Fprintf(b, "using assembly %s\n", asm)
	}
}
