// SPDX-FileCopyrightText: 2025 Antoni Szymański
// SPDX-License-Identifier: MPL-2.0

package psmod

import (
	"fmt"
	"slices"
	"strings"

	"github.com/elliotchance/orderedmap/v3"
	goversion "github.com/hashicorp/go-version"
)

// RequirementMerger folds per-file #Requires directives into one aggregate.
// The version floor is monotonic, the edition set is exact-match only, module
// constraints merge per module name, and the elevation flag is sticky.
type RequirementMerger struct {
	minVersion *goversion.Version
	editions   []string // sorted, deduplicated
	editionPos Position
	modules    *orderedmap.OrderedMap[string, *moduleConstraint]
	elevated   bool
}

type moduleConstraint struct {
	ModuleConstraint
	Pos Position
}

func NewRequirementMerger() *RequirementMerger {
	return &RequirementMerger{
		modules: orderedmap.NewOrderedMap[string, *moduleConstraint](),
	}
}

func (m *RequirementMerger) Add(r *Requirement) error {
	if r.LegacyAssembly {
		return &StructuralError{
			Pos: r.Pos,
			Msg: "assembly requirements are no longer supported, reference the assembly from the module manifest instead",
		}
	}

	if r.MinVersion != nil {
		if m.minVersion == nil || r.MinVersion.GreaterThan(m.minVersion) {
			m.minVersion = r.MinVersion
		}
	}

	if len(r.Editions) > 0 {
		editions := normalizeEditions(r.Editions)
		if m.editions == nil {
			m.editions = editions
			m.editionPos = r.Pos
		} else if !slices.EqualFunc(m.editions, editions, strings.EqualFold) {
			return &Collision{
				Pos:  r.Pos,
				Prev: m.editionPos,
				Name: "PSEdition",
				Msg: fmt.Sprintf(
					"edition requirement %s conflicts with previously declared %s",
					strings.Join(editions, ","), strings.Join(m.editions, ","),
				),
			}
		}
	}

	for i := range r.Modules {
		if err := m.addModule(r.Pos, &r.Modules[i]); err != nil {
			return err
		}
	}

	m.elevated = m.elevated || r.Elevated
	return nil
}

func normalizeEditions(editions []string) []string {
	out := make([]string, len(editions))
	copy(out, editions)
	slices.SortFunc(out, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return slices.CompactFunc(out, strings.EqualFold)
}

func (m *RequirementMerger) addModule(pos Position, c *ModuleConstraint) error {
	key := strings.ToLower(c.Name)
	prev, ok := m.modules.Get(key)
	if !ok {
		m.modules.Set(key, &moduleConstraint{ModuleConstraint: *c, Pos: pos})
		return nil
	}

	collision := func(msg string) error {
		return &Collision{Pos: pos, Prev: prev.Pos, Name: c.Name, Msg: msg}
	}

	if c.GUID != "" {
		if prev.GUID == "" {
			prev.GUID = c.GUID
		} else if !strings.EqualFold(prev.GUID, c.GUID) {
			return collision(fmt.Sprintf(
				"module %q requires guid %s but %s was declared before", c.Name, c.GUID, prev.GUID,
			))
		}
	}

	if c.ExactVersion != nil {
		switch {
		case prev.MinVersion != nil || prev.MaxVersion != nil:
			return collision(fmt.Sprintf(
				"module %q pins version %s but a version bound was declared before", c.Name, c.ExactVersion,
			))
		case prev.ExactVersion == nil:
			prev.ExactVersion = c.ExactVersion
		case !prev.ExactVersion.Equal(c.ExactVersion):
			return collision(fmt.Sprintf(
				"module %q pins version %s but %s was pinned before", c.Name, c.ExactVersion, prev.ExactVersion,
			))
		}
	}

	if c.MinVersion != nil {
		if prev.ExactVersion != nil {
			return collision(fmt.Sprintf(
				"module %q declares a minimum version but version %s is pinned", c.Name, prev.ExactVersion,
			))
		}
		if prev.MinVersion == nil || c.MinVersion.GreaterThan(prev.MinVersion) {
			prev.MinVersion = c.MinVersion
		}
	}

	if c.MaxVersion != nil {
		if prev.ExactVersion != nil {
			return collision(fmt.Sprintf(
				"module %q declares a maximum version but version %s is pinned", c.Name, prev.ExactVersion,
			))
		}
		if prev.MaxVersion == nil || c.MaxVersion.LessThan(prev.MaxVersion) {
			prev.MaxVersion = c.MaxVersion
		}
	}

	return nil
}

func (m *RequirementMerger) Empty() bool {
	return m.minVersion == nil && m.editions == nil && m.modules.Len() == 0 && !m.elevated
}

// render writes the aggregate back out as #Requires directive lines.
func (m *RequirementMerger) render(b *strings.Builder) {
	if m.minVersion != nil {
		fmt.Fprintf(b, "#Requires -Version %s\n", formatVersion(m.minVersion))
	}
	if len(m.editions) > 0 {
		fmt.Fprintf(b, "#Requires -PSEdition %s\n", strings.Join(m.editions, ", "))
	}
	for c := range m.modules.Values() {
		fmt.Fprintf(b, "#Requires -Modules %s\n", formatModuleConstraint(&c.ModuleConstraint))
	}
	if m.elevated {
		b.WriteString("#Requires -RunAsAdministrator\n")
	}
}

func formatModuleConstraint(c *ModuleConstraint) string {
	if c.GUID == "" && c.MinVersion == nil && c.MaxVersion == nil && c.ExactVersion == nil {
		return c.Name
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "@{ ModuleName = '%s'", c.Name)
	if c.GUID != "" {
		fmt.Fprintf(&sb, "; Guid = '%s'", c.GUID)
	}
	switch {
	case c.ExactVersion != nil:
		fmt.Fprintf(&sb, "; RequiredVersion = '%s'", formatVersion(c.ExactVersion))
	default:
		if c.MinVersion != nil {
			fmt.Fprintf(&sb, "; ModuleVersion = '%s'", formatVersion(c.MinVersion))
		}
		if c.MaxVersion != nil {
			fmt.Fprintf(&sb, "; MaximumVersion = '%s'", formatVersion(c.MaxVersion))
		}
	}
	sb.WriteString(" }")
	return sb.String()
}

// formatVersion renders a version the way it is written in source, without
// the zero patch segment go-version would append.
func formatVersion(v *goversion.Version) string {
	segments := v.Segments()
	if len(segments) >= 3 && segments[2] == 0 && strings.Count(v.Original(), ".") < 2 {
		return fmt.Sprintf("%d.%d", segments[0], segments[1])
	}
	return v.Original()
}
