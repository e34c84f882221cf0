// SPDX-FileCopyrightText: 2025 Antoni Szymański
// SPDX-License-Identifier: MPL-2.0

package psmod

import goversion "github.com/hashicorp/go-version"

// Statement is a closed union of the classified top-level statements a source
// file can contribute. Entry-point files never produce statements; they are
// handled as one opaque unit (see EntryPoint).
type Statement interface {
	Position() Position
	statement()
}

// Requirement is a parsed #Requires directive line.
type Requirement struct {
	Pos            Position
	MinVersion     *goversion.Version
	Editions       []string
	Modules        []ModuleConstraint
	Elevated       bool
	LegacyAssembly bool // deprecated -Assembly field, always fatal
}

// ModuleConstraint constrains one required module. ExactVersion excludes the
// min/max bounds; the merger enforces that.
type ModuleConstraint struct {
	Name         string
	GUID         string
	MinVersion   *goversion.Version
	MaxVersion   *goversion.Version
	ExactVersion *goversion.Version
}

// ImportKind discriminates using-directive targets.
type ImportKind uint8

const (
	ImportNamespace ImportKind = iota
	ImportAssembly
	ImportModule
	ImportUnknown ImportKind = 255
)

func (k ImportKind) String() string {
	switch k {
	case ImportNamespace:
		return "namespace"
	case ImportAssembly:
		return "assembly"
	case ImportModule:
		return "module"
	}
	return "unknown"
}

// Import is a parsed using directive.
type Import struct {
	Pos  Position
	Kind ImportKind
	Name string
}

// EnumMember is one enum member; Value is nil when the source omitted an
// explicit value and the member continues from its predecessor.
type EnumMember struct {
	Name  string
	Value *int64
}

// EnumType is a top-level enum definition.
type EnumType struct {
	Pos     Position
	Name    string
	Members []EnumMember
}

// ClassType is a top-level class definition, kept as raw text plus the
// declared base type names used for dependency ordering.
type ClassType struct {
	Pos   Position
	Name  string
	Text  string
	Bases []string
}

// VariableAssignment is a top-level $Name = expression statement.
type VariableAssignment struct {
	Pos  Position
	Name string
	Expr string
}

// PrivateFunction is a top-level function definition in a non-entry-point
// file. It is emitted verbatim and never exported.
type PrivateFunction struct {
	Pos  Position
	Name string
	Text string
}

func (s *Requirement) Position() Position        { return s.Pos }
func (s *Import) Position() Position             { return s.Pos }
func (s *EnumType) Position() Position           { return s.Pos }
func (s *ClassType) Position() Position          { return s.Pos }
func (s *VariableAssignment) Position() Position { return s.Pos }
func (s *PrivateFunction) Position() Position    { return s.Pos }

func (*Requirement) statement()        {}
func (*Import) statement()             {}
func (*EnumType) statement()           {}
func (*ClassType) statement()          {}
func (*VariableAssignment) statement() {}
func (*PrivateFunction) statement()    {}
