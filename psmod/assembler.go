// SPDX-FileCopyrightText: 2025 Antoni Szymański
// SPDX-License-Identifier: MPL-2.0

package psmod

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/elliotchance/orderedmap/v3"
)

// Assembler owns the build state of one run: the requirement and import
// aggregates plus one keyed section per statement category. It is not safe
// for concurrent use; files must be folded in on one goroutine in their
// discovery order, which fixes which definition wins "first" in diagnostics.
type Assembler struct {
	logger *log.Logger

	requirements *RequirementMerger
	imports      *ImportMerger
	enums        *Section[*EnumType]
	classes      *Section[*ClassType]
	variables    *Section[string]
	functions    *Section[string]
	entryPoints  *Section[*EntryPoint]
	aliases      *Section[string] // alias name -> target entry point
	views        *Section[string] // view name -> resource file
	formatFiles  *orderedmap.OrderedMap[string, []string]
}

type Option func(a *Assembler)

func WithLogger(logger *log.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		logger:       log.New(io.Discard),
		requirements: NewRequirementMerger(),
		imports:      NewImportMerger(),
		formatFiles:  orderedmap.NewOrderedMap[string, []string](),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// section returns *field, creating it on first use.
func section[V any](field **Section[V], label string) *Section[V] {
	if *field == nil {
		*field = NewSection[V](label)
	}
	return *field
}

// AddFile folds one classified source file into the build state. Omissions
// raised by the ingestion are logged as warnings and do not stop the run;
// collisions and structural errors propagate.
func (a *Assembler) AddFile(f *SourceFile) error {
	if f.EntryPoint != nil {
		return a.intercept(a.AddEntryPoint(f.EntryPoint))
	}
	for _, stmt := range f.Statements {
		if err := a.intercept(a.AddStatement(stmt)); err != nil {
			return err
		}
	}
	return nil
}

// intercept converts an Omission into a logged warning.
func (a *Assembler) intercept(err error) error {
	var om *Omission
	if errors.As(err, &om) {
		if om.Excerpt != "" {
			a.logger.Warn(om.Msg, "location", om.Pos.String(), "source", om.Excerpt)
		} else {
			a.logger.Warn(om.Msg, "location", om.Pos.String())
		}
		return nil
	}
	return err
}

// AddStatement routes one classified statement to its merger or section.
func (a *Assembler) AddStatement(stmt Statement) error {
	switch stmt := stmt.(type) {
	case *Requirement:
		return a.requirements.Add(stmt)
	case *Import:
		return a.imports.Add(stmt)
	case *EnumType:
		return section(&a.enums, "enum").Add(stmt.Name, stmt.Pos, canonicalEnum(stmt), stmt)
	case *ClassType:
		return section(&a.classes, "class").Add(stmt.Name, stmt.Pos, stmt.Text, stmt)
	case *VariableAssignment:
		return section(&a.variables, "variable").Add(stmt.Name, stmt.Pos, stmt.Expr, stmt.Expr)
	case *PrivateFunction:
		return section(&a.functions, "function").Add(stmt.Name, stmt.Pos, stmt.Text, stmt.Text)
	default:
		return &StructuralError{
			Pos: stmt.Position(),
			Msg: fmt.Sprintf("unknown statement kind %T", stmt),
		}
	}
}

// AddEntryPoint registers one exported entry point, merges the directives
// elided from its body, and registers its harvested aliases.
func (a *Assembler) AddEntryPoint(ep *EntryPoint) error {
	if err := section(&a.entryPoints, "entry point").Add(ep.Name, ep.Pos, ep.Body, ep); err != nil {
		return err
	}
	for _, stmt := range ep.Directives {
		if err := a.intercept(a.AddStatement(stmt)); err != nil {
			return err
		}
	}
	for _, alias := range ep.Aliases {
		if def, ok := section(&a.entryPoints, "entry point").Get(alias); ok && !strings.EqualFold(def.Name, ep.Name) {
			a.logger.Warn(
				fmt.Sprintf("alias %q shadows the exported command of the same name", alias),
				"location", ep.Pos.String(),
			)
		}
		if err := a.intercept(section(&a.aliases, "alias").Add(alias, ep.Pos, ep.Name, ep.Name)); err != nil {
			return err
		}
	}
	return nil
}

// AddFormatResource registers every named view of one view-definition
// resource file. A view name claimed by two different resource files is
// fatal.
func (a *Assembler) AddFormatResource(path string, data []byte) error {
	views, err := parseFormatViews(path, data)
	if err != nil {
		return err
	}

	base := filepath.Base(path)
	pos := Position{File: path}
	for _, view := range views {
		err := section(&a.views, "format view").Add(view, pos, base, base)
		if err != nil {
			if err = a.intercept(err); err != nil {
				return err
			}
			continue
		}
		registered, _ := a.formatFiles.Get(base)
		a.formatFiles.Set(base, append(registered, view))
	}
	return nil
}

// Save renders the artifact fully in memory and writes it in one step. The
// write goes through a temporary file in the destination directory, so a
// failed run leaves any prior artifact untouched.
func (a *Assembler) Save(path string) error {
	data := a.Render()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err = tmp.Write(data); err == nil {
		err = tmp.Close()
	} else {
		tmp.Close() //nolint:errcheck
	}
	if err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return err
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return err
	}
	return nil
}
