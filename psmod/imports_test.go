package psmod

import (
	"errors"
	"strings"
	"testing"
)

func TestCanonicalNamespace(t *testing.T) {
	cases := []struct{ in, want string }{
		{"system.text", "System.Text"},
		{"SYSTEM.IO", "System.IO"},
		{"System.Management.Automation", "System.Management.Automation"},
		{"myLib.utils", "MyLib.Utils"},
		{"acme", "Acme"},
	}
	for _, tc := range cases {
		if got := CanonicalNamespace(tc.in); got != tc.want {
			t.Fatalf("CanonicalNamespace(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestImportMergerDeduplicatesNamespaces(t *testing.T) {
	m := NewImportMerger()
	for _, name := range []string{"system.text", "System.Text", "SYSTEM.TEXT"} {
		if err := m.Add(&Import{Kind: ImportNamespace, Name: name}); err != nil {
			t.Fatalf("add %q: %v", name, err)
		}
	}

	var sb strings.Builder
	m.render(&sb)
	got := sb.String()
	if got != "using namespace System.Text\n" {
		t.Fatalf("unexpected rendering:\n%s", got)
	}
}

func TestImportMergerNormalizesAssemblyClauseOrder(t *testing.T) {
	m := NewImportMerger()
	variants := []string{
		"Acme.Widgets, Version=1.0, Culture=neutral",
		"Acme.Widgets, Culture=neutral, Version=1.0",
	}
	for _, name := range variants {
		if err := m.Add(&Import{Kind: ImportAssembly, Name: name}); err != nil {
			t.Fatalf("add %q: %v", name, err)
		}
	}

	var sb strings.Builder
	m.render(&sb)
	got := sb.String()
	if got != "using assembly Acme.Widgets, Culture=neutral, Version=1.0\n" {
		t.Fatalf("clause order not normalized:\n%s", got)
	}
}

func TestImportMergerRejectsModuleImports(t *testing.T) {
	m := NewImportMerger()
	err := m.Add(&Import{Kind: ImportModule, Name: "Az.Accounts", Pos: Position{File: "a.ps1", Line: 1, Col: 1}})
	var om *Omission
	if !errors.As(err, &om) {
		t.Fatalf("expected Omission, got %v", err)
	}
	if !strings.Contains(om.Msg, "RequiredModules") {
		t.Fatalf("omission should recommend the manifest mechanism: %s", om.Msg)
	}
	if !m.Empty() {
		t.Fatal("module import was stored")
	}
}

func TestImportMergerWarnsOncePerModuleName(t *testing.T) {
	m := NewImportMerger()
	var om *Omission
	if err := m.Add(&Import{Kind: ImportModule, Name: "Az.Accounts"}); !errors.As(err, &om) {
		t.Fatalf("first module import should warn, got %v", err)
	}
	for _, name := range []string{"Az.Accounts", "az.accounts"} {
		if err := m.Add(&Import{Kind: ImportModule, Name: name}); err != nil {
			t.Fatalf("repeat module import %q warned again: %v", name, err)
		}
	}
}

func TestImportMergerDropsUnknownKinds(t *testing.T) {
	m := NewImportMerger()
	err := m.Add(&Import{Kind: ImportUnknown, Name: "type Foo = Bar"})
	var om *Omission
	if !errors.As(err, &om) {
		t.Fatalf("expected Omission, got %v", err)
	}
}
