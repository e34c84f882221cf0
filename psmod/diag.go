// SPDX-FileCopyrightText: 2025 Antoni Szymański
// SPDX-License-Identifier: MPL-2.0

package psmod

import (
	"fmt"
	"strings"
)

// Position locates a diagnostic in a source file. Line and Col are 1-based;
// zero values mean the location is unknown.
type Position struct {
	File string
	Line int
	Col  int
}

func (p Position) String() string {
	if p.File == "" {
		return "<unknown>"
	}
	if p.Line == 0 {
		return p.File
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Omission is a recognized statement that was intentionally dropped: an exact
// duplicate of an already merged definition, or a statement kind the module
// format disallows. Callers at the ingestion boundary log it and continue.
type Omission struct {
	Pos     Position
	Msg     string
	Excerpt string
}

func (e *Omission) Error() string {
	if e.Excerpt == "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Msg, e.Excerpt)
}

// Collision is a fatal conflict: two differing definitions compete for one
// identity. Prev points at the definition that won.
type Collision struct {
	Pos  Position
	Prev Position
	Name string
	Msg  string
}

func (e *Collision) Error() string {
	s := fmt.Sprintf("%s: collision: %s", e.Pos, e.Msg)
	if e.Prev.File != "" {
		s += fmt.Sprintf(" (first defined at %s)", e.Prev)
	}
	return s
}

// StructuralError is malformed input: unterminated alias syntax, an unknown
// statement kind, a deprecated directive. Always fatal.
type StructuralError struct {
	Pos     Position
	Msg     string
	Excerpt string
}

func (e *StructuralError) Error() string {
	if e.Excerpt == "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Msg, e.Excerpt)
}

const excerptLimit = 64

// excerpt collapses runs of whitespace and caps the result near excerptLimit
// visible characters for inclusion in diagnostics.
func excerpt(s string) string {
	fields := strings.Fields(s)
	joined := strings.Join(fields, " ")
	if len(joined) <= excerptLimit {
		return joined
	}
	cut := joined[:excerptLimit]
	if i := strings.LastIndexByte(cut, ' '); i > excerptLimit/2 {
		cut = cut[:i]
	}
	return cut + "…"
}
