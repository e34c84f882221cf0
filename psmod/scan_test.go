package psmod

import (
	"errors"
	"strings"
	"testing"
)

func TestClassifyFileStatements(t *testing.T) {
	src := strings.Join([]string{
		"#Requires -Version 5.1 -PSEdition Core",
		"using namespace System.Text",
		"using module Az.Accounts",
		"",
		"# a stray comment",
		"enum Color {",
		"    Red",
		"    Green = 5",
		"}",
		"",
		"class Shape : Drawable, IDisposable {",
		"    [int]$Sides",
		"}",
		"",
		"$Default = @{",
		"    Retries = 3",
		"}",
		"",
		"function Helper {",
		"    'help'",
		"}",
	}, "\n")

	f, err := ClassifyFile("lib.ps1", "lib", src)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if f.EntryPoint != nil {
		t.Fatal("plain file classified as entry point")
	}
	if len(f.Statements) != 7 {
		t.Fatalf("statement count = %d, want 7", len(f.Statements))
	}

	req, ok := f.Statements[0].(*Requirement)
	if !ok || req.MinVersion == nil || req.MinVersion.Original() != "5.1" {
		t.Fatalf("requirement not parsed: %#v", f.Statements[0])
	}
	if len(req.Editions) != 1 || req.Editions[0] != "Core" {
		t.Fatalf("editions = %v", req.Editions)
	}

	if imp := f.Statements[1].(*Import); imp.Kind != ImportNamespace || imp.Name != "System.Text" {
		t.Fatalf("namespace import not parsed: %#v", imp)
	}
	if imp := f.Statements[2].(*Import); imp.Kind != ImportModule {
		t.Fatalf("module import not parsed: %#v", imp)
	}

	enum := f.Statements[3].(*EnumType)
	if enum.Name != "Color" || len(enum.Members) != 2 {
		t.Fatalf("enum not parsed: %#v", enum)
	}
	if enum.Members[1].Value == nil || *enum.Members[1].Value != 5 {
		t.Fatalf("explicit member value not parsed: %#v", enum.Members[1])
	}

	class := f.Statements[4].(*ClassType)
	if class.Name != "Shape" {
		t.Fatalf("class not parsed: %#v", class)
	}
	if len(class.Bases) != 2 || class.Bases[0] != "Drawable" || class.Bases[1] != "IDisposable" {
		t.Fatalf("bases = %v", class.Bases)
	}
	if !strings.HasPrefix(class.Text, "class Shape") || !strings.HasSuffix(class.Text, "}") {
		t.Fatalf("class text not captured:\n%s", class.Text)
	}

	variable := f.Statements[5].(*VariableAssignment)
	if variable.Name != "Default" || !strings.Contains(variable.Expr, "Retries = 3") {
		t.Fatalf("variable not parsed: %#v", variable)
	}

	fn := f.Statements[6].(*PrivateFunction)
	if fn.Name != "Helper" || !strings.Contains(fn.Text, "'help'") {
		t.Fatalf("function not parsed: %#v", fn)
	}
}

func TestClassifyFileDetectsEntryPoint(t *testing.T) {
	src := strings.Join([]string{
		"[Alias('gf')]",
		"param(",
		"    [string]$Name",
		")",
		"\"foo: $Name\"",
	}, "\n")

	f, err := ClassifyFile("GetFoo.ps1", "GetFoo", src)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if f.EntryPoint == nil {
		t.Fatal("file with a parameter block not treated as entry point")
	}
	if f.EntryPoint.Name != "GetFoo" {
		t.Fatalf("entry point name = %q", f.EntryPoint.Name)
	}
}

func TestClassifyFileParamInsideStringIsNotEntryPoint(t *testing.T) {
	src := strings.Join([]string{
		`$Banner = "usage:`,
		"param()",
		`end"`,
	}, "\n")

	f, err := ClassifyFile("v.ps1", "v", src)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if f.EntryPoint != nil {
		t.Fatal("param text inside a string promoted the file to entry point")
	}
	if len(f.Statements) != 1 {
		t.Fatalf("statement count = %d, want 1", len(f.Statements))
	}
	v, ok := f.Statements[0].(*VariableAssignment)
	if !ok || v.Name != "Banner" || !strings.Contains(v.Expr, "param()") {
		t.Fatalf("string assignment not kept whole: %#v", f.Statements[0])
	}
}

func TestClassifyFileEnumBraceSharesMemberLine(t *testing.T) {
	f, err := ClassifyFile("e.ps1", "e", "enum E {\n    A\n    B }\n")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	enum := f.Statements[0].(*EnumType)
	if len(enum.Members) != 2 || enum.Members[1].Name != "B" {
		t.Fatalf("member on the closing brace line lost: %#v", enum.Members)
	}
}

func TestClassifyFileUsingWithoutOperand(t *testing.T) {
	_, err := ClassifyFile("u.ps1", "u", "using namespace\n")
	var se *StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("expected StructuralError, got %v", err)
	}
	if !strings.Contains(se.Msg, "operand") {
		t.Fatalf("unexpected message: %s", se.Msg)
	}
}

func TestClassifyFileNestedParamIsNotEntryPoint(t *testing.T) {
	src := strings.Join([]string{
		"function Helper {",
		"    param([int]$N)",
		"    $N * 2",
		"}",
	}, "\n")

	f, err := ClassifyFile("Helper.ps1", "Helper", src)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if f.EntryPoint != nil {
		t.Fatal("nested param block promoted the file to entry point")
	}
}

func TestClassifyFileUnrecognizedStatement(t *testing.T) {
	_, err := ClassifyFile("bad.ps1", "bad", "Write-Host 'hello'")
	var se *StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("expected StructuralError, got %v", err)
	}
	if se.Pos.Line != 1 {
		t.Fatalf("wrong location: %s", se.Pos)
	}
}

func TestParseRequirementModules(t *testing.T) {
	req, err := parseRequirement(Position{File: "a.ps1", Line: 1, Col: 1},
		"#Requires -Modules Az.Storage, @{ ModuleName = 'Az'; ModuleVersion = '2.0'; Guid = 'deadbeef' } -RunAsAdministrator")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if len(req.Modules) != 2 {
		t.Fatalf("modules = %#v", req.Modules)
	}
	if req.Modules[0].Name != "Az.Storage" {
		t.Fatalf("bare module name = %q", req.Modules[0].Name)
	}
	c := req.Modules[1]
	if c.Name != "Az" || c.GUID != "deadbeef" || c.MinVersion == nil || c.MinVersion.Original() != "2.0" {
		t.Fatalf("hashtable constraint = %#v", c)
	}
	if !req.Elevated {
		t.Fatal("elevation flag not parsed")
	}
}

func TestParseRequirementRejectsUnknownParameter(t *testing.T) {
	_, err := parseRequirement(Position{}, "#Requires -Gibberish 1")
	var se *StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("expected StructuralError, got %v", err)
	}
}

func TestParseRequirementLegacyAssembly(t *testing.T) {
	req, err := parseRequirement(Position{}, "#Requires -Assembly 'Acme.dll'")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !req.LegacyAssembly {
		t.Fatal("legacy assembly flag not set")
	}
}
