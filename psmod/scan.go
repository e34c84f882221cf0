// SPDX-FileCopyrightText: 2025 Antoni Szymański
// SPDX-License-Identifier: MPL-2.0

package psmod

import (
	"fmt"
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// SourceFile is one classified source file: either a sequence of top-level
// statements, or one opaque entry-point unit when the file declares a
// script-level parameter block.
type SourceFile struct {
	Path       string
	Statements []Statement
	EntryPoint *EntryPoint
}

// ClassifyFile turns one source file's text into a SourceFile. The base name
// of path (without extension) becomes the entry-point name when a parameter
// block is present.
func ClassifyFile(path, name, src string) (*SourceFile, error) {
	src = strings.ReplaceAll(src, "\r\n", "\n")

	if hasScriptParamBlock(src) {
		ep, err := ExtractEntryPoint(path, name, src)
		if err != nil {
			return nil, err
		}
		return &SourceFile{Path: path, EntryPoint: ep}, nil
	}

	stmts, err := classifyStatements(path, src)
	if err != nil {
		return nil, err
	}
	return &SourceFile{Path: path, Statements: stmts}, nil
}

// depthScanner tracks brace/paren nesting across lines, ignoring string
// literals and comments.
type depthScanner struct {
	depth    int
	opens    int
	inSingle bool
	inDouble bool
	inBlock  bool
}

func (s *depthScanner) scan(line string) {
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case s.inBlock:
			if c == '>' && i > 0 && line[i-1] == '#' {
				s.inBlock = false
			}
		case s.inSingle:
			if c == '\'' {
				if i+1 < len(line) && line[i+1] == '\'' {
					i++ // escaped quote
				} else {
					s.inSingle = false
				}
			}
		case s.inDouble:
			if c == '`' {
				i++
			} else if c == '"' {
				s.inDouble = false
			}
		case c == '\'':
			s.inSingle = true
		case c == '"':
			s.inDouble = true
		case c == '<' && i+1 < len(line) && line[i+1] == '#':
			s.inBlock = true
			i++
		case c == '#':
			return // line comment
		case c == '{' || c == '(':
			s.depth++
			s.opens++
		case c == '}' || c == ')':
			s.depth--
		}
	}
}

// hasScriptParamBlock reports whether the file declares a parameter block at
// script level, outside any nested body.
func hasScriptParamBlock(src string) bool {
	var ds depthScanner
	for _, line := range strings.Split(src, "\n") {
		if ds.depth == 0 && !ds.inBlock && !ds.inSingle && !ds.inDouble &&
			hasParamKeyword(strings.TrimSpace(line)) {
			return true
		}
		ds.scan(line)
	}
	return false
}

func classifyStatements(path, src string) ([]Statement, error) {
	lines := strings.Split(src, "\n")
	var stmts []Statement

	pos := func(i int) Position { return Position{File: path, Line: i + 1, Col: 1} }

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		lower := strings.ToLower(trimmed)
		switch {
		case trimmed == "":
		case strings.HasPrefix(trimmed, "<#"):
			for i < len(lines) && !strings.Contains(lines[i], "#>") {
				i++
			}
		case strings.HasPrefix(lower, "#requires"):
			req, err := parseRequirement(pos(i), trimmed)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, req)
		case strings.HasPrefix(trimmed, "#"):
		case strings.HasPrefix(lower, "using "):
			imp, err := parseImport(pos(i), trimmed)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, imp)
		case strings.HasPrefix(lower, "enum "):
			end, err := blockEnd(lines, i, path)
			if err != nil {
				return nil, err
			}
			enum, err := parseEnum(pos(i), lines[i:end+1])
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, enum)
			i = end
		case strings.HasPrefix(lower, "class "):
			end, err := blockEnd(lines, i, path)
			if err != nil {
				return nil, err
			}
			class, err := parseClass(pos(i), lines[i:end+1])
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, class)
			i = end
		case strings.HasPrefix(lower, "function "):
			end, err := blockEnd(lines, i, path)
			if err != nil {
				return nil, err
			}
			name := functionName(trimmed)
			if name == "" {
				return nil, &StructuralError{Pos: pos(i), Msg: "malformed function definition", Excerpt: excerpt(trimmed)}
			}
			stmts = append(stmts, &PrivateFunction{
				Pos:  pos(i),
				Name: name,
				Text: strings.Join(trimTrailingBlank(lines[i:end+1]), "\n"),
			})
			i = end
		case strings.HasPrefix(trimmed, "$"):
			stmt, end, err := parseVariable(pos(i), lines, i)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, stmt)
			i = end
		default:
			return nil, &StructuralError{
				Pos:     pos(i),
				Msg:     "unrecognized top-level statement",
				Excerpt: excerpt(trimmed),
			}
		}
	}
	return stmts, nil
}

// blockEnd returns the index of the line on which the block opened at start
// closes, tracking nesting across lines.
func blockEnd(lines []string, start int, path string) (int, error) {
	var ds depthScanner
	for i := start; i < len(lines); i++ {
		ds.scan(lines[i])
		if ds.opens > 0 && ds.depth == 0 && !ds.inBlock && !ds.inSingle && !ds.inDouble {
			return i, nil
		}
	}
	return 0, &StructuralError{
		Pos: Position{File: path, Line: start + 1, Col: 1},
		Msg: "unterminated block",
	}
}

func trimTrailingBlank(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func parseImport(pos Position, line string) (*Import, error) {
	rest := strings.TrimSpace(line[len("using"):])
	kindWord, name, _ := strings.Cut(rest, " ")
	name = strings.TrimSpace(name)
	imp := &Import{Pos: pos, Name: name}
	switch strings.ToLower(kindWord) {
	case "namespace":
		imp.Kind = ImportNamespace
	case "assembly":
		imp.Kind = ImportAssembly
	case "module":
		imp.Kind = ImportModule
	default:
		imp.Kind = ImportUnknown
		imp.Name = rest
		return imp, nil
	}
	if name == "" {
		return nil, &StructuralError{
			Pos:     pos,
			Msg:     fmt.Sprintf("using %s directive lacks an operand", strings.ToLower(kindWord)),
			Excerpt: excerpt(line),
		}
	}
	return imp, nil
}

func parseEnum(pos Position, lines []string) (*EnumType, error) {
	header := strings.TrimSpace(lines[0])
	decl, inline, braced := strings.Cut(header, "{")
	name := strings.TrimSpace(decl[len("enum"):])
	if name == "" || strings.ContainsAny(name, " \t") {
		return nil, &StructuralError{Pos: pos, Msg: "malformed enum definition", Excerpt: excerpt(header)}
	}

	enum := &EnumType{Pos: pos, Name: name}
	var body []string
	if braced && strings.Contains(inline, "}") {
		body = []string{inline[:strings.IndexByte(inline, '}')]}
	} else {
		// The closing brace may share its line with the last member.
		body = append([]string(nil), lines[1:]...)
		if n := len(body) - 1; n >= 0 {
			if i := strings.IndexByte(body[n], '}'); i >= 0 {
				body[n] = body[n][:i]
			}
		}
	}
	for off, line := range body {
		line, _, _ = strings.Cut(line, "#")
		for _, part := range strings.Split(line, ";") {
			part = strings.TrimSpace(part)
			if part == "" || part == "{" {
				continue
			}
			member := EnumMember{Name: part}
			if name, val, ok := strings.Cut(part, "="); ok {
				v, err := strconv.ParseInt(strings.TrimSpace(val), 0, 64)
				if err != nil {
					return nil, &StructuralError{
						Pos:     Position{File: pos.File, Line: pos.Line + 1 + off, Col: 1},
						Msg:     fmt.Sprintf("invalid enum member value in %s", enum.Name),
						Excerpt: excerpt(part),
					}
				}
				member = EnumMember{Name: strings.TrimSpace(name), Value: &v}
			}
			enum.Members = append(enum.Members, member)
		}
	}
	return enum, nil
}

func parseClass(pos Position, lines []string) (*ClassType, error) {
	header := strings.TrimSpace(lines[0])
	decl, _, _ := strings.Cut(header[len("class"):], "{")
	decl = strings.TrimSpace(decl)

	name, basePart, hasBases := strings.Cut(decl, ":")
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, " \t") {
		return nil, &StructuralError{Pos: pos, Msg: "malformed class definition", Excerpt: excerpt(header)}
	}

	class := &ClassType{
		Pos:  pos,
		Name: name,
		Text: strings.Join(trimTrailingBlank(lines), "\n"),
	}
	if hasBases {
		for _, base := range strings.Split(basePart, ",") {
			if base = strings.TrimSpace(base); base != "" {
				class.Bases = append(class.Bases, base)
			}
		}
	}
	return class, nil
}

func functionName(header string) string {
	rest := strings.TrimSpace(header[len("function"):])
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case ' ', '\t', '(', '{':
			return rest[:i]
		}
	}
	return rest
}

func parseVariable(pos Position, lines []string, start int) (*VariableAssignment, int, error) {
	trimmed := strings.TrimSpace(lines[start])
	name, expr, ok := strings.Cut(trimmed, "=")
	name = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "$"))
	if !ok || name == "" || strings.ContainsAny(name, " \t") {
		return nil, 0, &StructuralError{
			Pos:     pos,
			Msg:     "unrecognized top-level statement",
			Excerpt: excerpt(trimmed),
		}
	}

	// The expression may continue across lines while nesting or a string
	// literal stays open, or a backtick continuation ends the line.
	var ds depthScanner
	ds.scan(lines[start])
	end := start
	exprLines := []string{strings.TrimSpace(expr)}
	for end+1 < len(lines) &&
		(ds.depth > 0 || ds.inBlock || ds.inSingle || ds.inDouble ||
			strings.HasSuffix(strings.TrimRight(lines[end], " \t"), "`")) {
		end++
		exprLines = append(exprLines, lines[end])
		ds.scan(lines[end])
	}
	return &VariableAssignment{
		Pos:  pos,
		Name: name,
		Expr: strings.Join(exprLines, "\n"),
	}, end, nil
}

func parseRequirement(pos Position, line string) (*Requirement, error) {
	req := &Requirement{Pos: pos}
	rest := strings.TrimSpace(line[len("#Requires"):])

	for rest != "" {
		if !strings.HasPrefix(rest, "-") {
			return nil, &StructuralError{Pos: pos, Msg: "malformed #Requires directive", Excerpt: excerpt(line)}
		}
		var flag string
		flag, rest = cutToken(rest[1:])
		var value string
		value, rest = cutFlagValue(rest)

		switch strings.ToLower(flag) {
		case "version":
			v, err := goversion.NewVersion(value)
			if err != nil {
				return nil, &StructuralError{Pos: pos, Msg: "invalid version in #Requires directive", Excerpt: excerpt(value)}
			}
			req.MinVersion = v
		case "psedition":
			for _, e := range strings.Split(value, ",") {
				if e = strings.TrimSpace(e); e != "" {
					req.Editions = append(req.Editions, e)
				}
			}
		case "modules":
			constraints, err := parseModuleConstraints(pos, value)
			if err != nil {
				return nil, err
			}
			req.Modules = append(req.Modules, constraints...)
		case "runasadministrator":
			req.Elevated = true
		case "assembly":
			req.LegacyAssembly = true
		default:
			return nil, &StructuralError{
				Pos:     pos,
				Msg:     fmt.Sprintf("unknown #Requires parameter -%s", flag),
				Excerpt: excerpt(line),
			}
		}
	}
	return req, nil
}

func cutToken(s string) (token, rest string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

// cutFlagValue consumes everything up to the next top-level -Flag token,
// so hashtable literals with embedded dashes survive intact.
func cutFlagValue(s string) (value, rest string) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
		case '-':
			atBoundary := i > 0 && (s[i-1] == ' ' || s[i-1] == '\t')
			if depth == 0 && atBoundary && i+1 < len(s) && isLetter(s[i+1]) {
				return strings.TrimSpace(s[:i]), s[i:]
			}
		}
	}
	return strings.TrimSpace(s), ""
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func parseModuleConstraints(pos Position, value string) ([]ModuleConstraint, error) {
	var out []ModuleConstraint
	for _, item := range splitTopLevel(value, ',') {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if !strings.HasPrefix(item, "@{") {
			out = append(out, ModuleConstraint{Name: unquote(item)})
			continue
		}

		body := strings.TrimSuffix(strings.TrimPrefix(item, "@{"), "}")
		var c ModuleConstraint
		for _, pair := range splitTopLevel(body, ';') {
			key, val, ok := strings.Cut(pair, "=")
			if !ok {
				return nil, &StructuralError{
					Pos:     pos,
					Msg:     "malformed module specification in #Requires directive",
					Excerpt: excerpt(item),
				}
			}
			key = strings.TrimSpace(key)
			val = unquote(strings.TrimSpace(val))
			var err error
			switch strings.ToLower(key) {
			case "modulename":
				c.Name = val
			case "guid":
				c.GUID = val
			case "moduleversion":
				c.MinVersion, err = goversion.NewVersion(val)
			case "maximumversion":
				c.MaxVersion, err = goversion.NewVersion(val)
			case "requiredversion":
				c.ExactVersion, err = goversion.NewVersion(val)
			default:
				return nil, &StructuralError{
					Pos:     pos,
					Msg:     fmt.Sprintf("unknown module specification key %q in #Requires directive", key),
					Excerpt: excerpt(item),
				}
			}
			if err != nil {
				return nil, &StructuralError{
					Pos:     pos,
					Msg:     fmt.Sprintf("invalid version for %s in #Requires directive", key),
					Excerpt: excerpt(val),
				}
			}
		}
		if c.Name == "" {
			return nil, &StructuralError{
				Pos:     pos,
				Msg:     "module specification in #Requires directive lacks a ModuleName",
				Excerpt: excerpt(item),
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func unquote(s string) string {
	if len(s) >= 2 {
		if c := s[0]; (c == '\'' || c == '"') && s[len(s)-1] == c {
			return s[1 : len(s)-1]
		}
	}
	return s
}
