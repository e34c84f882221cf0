// SPDX-FileCopyrightText: 2025 Antoni Szymański
// SPDX-License-Identifier: MPL-2.0

package psmod

import (
	"fmt"
	"strings"
	"unicode"
)

// EntryPoint is one exported command: a source file with a script-level
// parameter block, wrapped into a function named after the file. Directives
// holds the import and requirement statements elided from the body; the
// assembler merges them centrally instead of duplicating them per command.
type EntryPoint struct {
	Name       string
	Pos        Position
	Body       string
	Aliases    []string
	Directives []Statement
}

// ExtractEntryPoint rewrites an entry-point file into a wrapped function
// body. Import-directive lines and requirement-directive comment lines before
// the parameter block are elided, since the assembler merges those centrally.
// An [Alias(...)] attribute preceding the parameter block yields the exported
// alias names. Everything from the param keyword to the end of meaningful
// content is copied verbatim.
func ExtractEntryPoint(path, name, src string) (*EntryPoint, error) {
	ep := &EntryPoint{Name: name, Pos: Position{File: path, Line: 1, Col: 1}}

	lines := strings.Split(src, "\n")
	kept := make([]string, 0, len(lines))
	inParams := false
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if inParams {
			kept = append(kept, line)
			continue
		}

		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		linePos := Position{File: path, Line: i + 1, Col: 1}
		switch {
		case strings.HasPrefix(lower, "using "):
			imp, err := parseImport(linePos, trimmed)
			if err != nil {
				return nil, err
			}
			ep.Directives = append(ep.Directives, imp)
			continue
		case strings.HasPrefix(lower, "#requires"):
			req, err := parseRequirement(linePos, trimmed)
			if err != nil {
				return nil, err
			}
			ep.Directives = append(ep.Directives, req)
			continue
		case strings.HasPrefix(lower, "[alias(") || strings.HasPrefix(lower, "[alias ("):
			rest := strings.Join(lines[i:], "\n")
			names, consumed, err := parseAliasAttribute(rest, Position{File: path, Line: i + 1, Col: 1})
			if err != nil {
				return nil, err
			}
			ep.Aliases = append(ep.Aliases, names...)
			i += consumed - 1
			continue
		case hasParamKeyword(trimmed):
			inParams = true
			kept = append(kept, line)
		default:
			kept = append(kept, line)
		}
	}

	for len(kept) > 0 && strings.TrimSpace(kept[len(kept)-1]) == "" {
		kept = kept[:len(kept)-1]
	}
	for len(kept) > 0 && strings.TrimSpace(kept[0]) == "" {
		kept = kept[1:]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "function %s {\n", name)
	for _, line := range kept {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteString("}")
	ep.Body = sb.String()
	return ep, nil
}

// hasParamKeyword reports whether a line opens the script-level parameter
// block. Elision of directives stops there.
func hasParamKeyword(trimmed string) bool {
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "param") {
		return false
	}
	rest := strings.TrimSpace(trimmed[len("param"):])
	return rest == "" || strings.HasPrefix(rest, "(")
}

// parseAliasAttribute scans an [Alias(name, name, ...)] attribute starting at
// src and returns the declared names plus the number of source lines
// consumed. Names may be quoted or bare. Malformed syntax is fatal.
func parseAliasAttribute(src string, pos Position) ([]string, int, error) {
	structural := func(line, col int, msg string) error {
		return &StructuralError{
			Pos: Position{File: pos.File, Line: pos.Line + line, Col: col + 1},
			Msg: msg,
		}
	}

	open := strings.Index(src, "(")
	i := open + 1
	line, lineStart := 0, 0
	var names []string
	for {
		for i < len(src) {
			c := src[i]
			if c == '\n' {
				line++
				lineStart = i + 1
			} else if !unicode.IsSpace(rune(c)) && c != ',' {
				break
			}
			i++
		}
		if i >= len(src) {
			return nil, 0, structural(line, i-lineStart, "unterminated alias declaration")
		}

		switch c := src[i]; {
		case c == ')':
			i++
			if !strings.HasPrefix(src[i:], "]") {
				return nil, 0, structural(line, i-lineStart, "expected ']' after alias declaration")
			}
			return names, line + 1, nil
		case c == '\'' || c == '"':
			end := strings.IndexByte(src[i+1:], c)
			if end < 0 {
				return nil, 0, structural(line, i-lineStart, "unterminated string in alias declaration")
			}
			names = append(names, src[i+1:i+1+end])
			i += end + 2
		case isIdentByte(c):
			start := i
			for i < len(src) && isIdentByte(src[i]) {
				i++
			}
			names = append(names, src[start:i])
		default:
			return nil, 0, structural(line, i-lineStart, fmt.Sprintf("unexpected %q in alias declaration", c))
		}
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
