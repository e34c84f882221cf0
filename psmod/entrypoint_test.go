package psmod

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractEntryPointWrapsBody(t *testing.T) {
	src := strings.Join([]string{
		"using namespace System.Text",
		"#Requires -Version 5.1",
		"",
		"[CmdletBinding()]",
		"[Alias('gf', 'gfoo')]",
		"param(",
		"    [string]$Name",
		")",
		"",
		"\"foo: $Name\"",
		"",
		"",
	}, "\n")

	ep, err := ExtractEntryPoint("GetFoo.ps1", "GetFoo", src)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	want := strings.Join([]string{
		"function GetFoo {",
		"[CmdletBinding()]",
		"param(",
		"    [string]$Name",
		")",
		"",
		"\"foo: $Name\"",
		"}",
	}, "\n")
	if ep.Body != want {
		t.Fatalf("body mismatch:\ngot:\n%s\nwant:\n%s", ep.Body, want)
	}

	if len(ep.Aliases) != 2 || ep.Aliases[0] != "gf" || ep.Aliases[1] != "gfoo" {
		t.Fatalf("aliases = %v, want [gf gfoo]", ep.Aliases)
	}
	if len(ep.Directives) != 2 {
		t.Fatalf("elided directives not collected: %v", ep.Directives)
	}
}

func TestExtractEntryPointStopsElidingAtParam(t *testing.T) {
	// Directive-looking lines inside the body are copied verbatim.
	src := strings.Join([]string{
		"param()",
		"using namespace System.Text",
	}, "\n")

	ep, err := ExtractEntryPoint("X.ps1", "X", src)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(ep.Body, "using namespace System.Text") {
		t.Fatalf("body content after param was elided:\n%s", ep.Body)
	}
	if len(ep.Directives) != 0 {
		t.Fatalf("directives harvested past the param block: %v", ep.Directives)
	}
}

func TestExtractEntryPointMultilineAlias(t *testing.T) {
	src := strings.Join([]string{
		"[Alias(",
		"    'a1',",
		"    'a2'",
		")]",
		"param()",
	}, "\n")

	ep, err := ExtractEntryPoint("X.ps1", "X", src)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(ep.Aliases) != 2 || ep.Aliases[0] != "a1" || ep.Aliases[1] != "a2" {
		t.Fatalf("aliases = %v, want [a1 a2]", ep.Aliases)
	}
}

func TestExtractEntryPointUnterminatedAlias(t *testing.T) {
	_, err := ExtractEntryPoint("X.ps1", "X", "[Alias('gf'\nparam()")
	var se *StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("expected StructuralError, got %v", err)
	}
	if se.Pos.File != "X.ps1" || se.Pos.Line == 0 || se.Pos.Col == 0 {
		t.Fatalf("structural error lacks location: %s", se.Pos)
	}
}

func TestExtractEntryPointUnexpectedAliasToken(t *testing.T) {
	_, err := ExtractEntryPoint("X.ps1", "X", "[Alias('gf', $var)]\nparam()")
	var se *StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("expected StructuralError, got %v", err)
	}
}
