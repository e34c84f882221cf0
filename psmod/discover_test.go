package psmod

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return root
}

func TestDiscoverSourcesOrderAndKinds(t *testing.T) {
	root := writeTree(t, map[string]string{
		"public/GetFoo.ps1":     "param()\n",
		"private/Helper.ps1":    "function Helper { 1 }\n",
		"views.format.ps1xml":   "<Configuration/>",
		"README.md":             "not a source",
		"private/skip_me.tmp":   "junk",
	})

	scripts, resources, err := DiscoverSources(root, 0, nil)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}

	if len(scripts) != 2 ||
		!strings.HasSuffix(scripts[0], filepath.FromSlash("private/Helper.ps1")) ||
		!strings.HasSuffix(scripts[1], filepath.FromSlash("public/GetFoo.ps1")) {
		t.Fatalf("scripts = %v", scripts)
	}
	if len(resources) != 1 || !strings.HasSuffix(resources[0], "views.format.ps1xml") {
		t.Fatalf("resources = %v", resources)
	}
}

func TestDiscoverSourcesDepthBound(t *testing.T) {
	root := writeTree(t, map[string]string{
		"top.ps1":             "function Top { 1 }\n",
		"a/mid.ps1":           "function Mid { 1 }\n",
		"a/b/deep.ps1":        "function Deep { 1 }\n",
	})

	scripts, _, err := DiscoverSources(root, 2, nil)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	for _, s := range scripts {
		if strings.Contains(s, "deep") {
			t.Fatalf("depth bound not applied: %v", scripts)
		}
	}
	if len(scripts) != 2 {
		t.Fatalf("scripts = %v", scripts)
	}
}

func TestDiscoverSourcesExclude(t *testing.T) {
	root := writeTree(t, map[string]string{
		"keep.ps1":       "function Keep { 1 }\n",
		"drop.tests.ps1": "function Drop { 1 }\n",
	})

	scripts, _, err := DiscoverSources(root, 0, []string{"*.tests.ps1"})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(scripts) != 1 || !strings.HasSuffix(scripts[0], "keep.ps1") {
		t.Fatalf("scripts = %v", scripts)
	}
}

func TestBuildEndToEnd(t *testing.T) {
	root := writeTree(t, map[string]string{
		"A.ps1":      "#Requires -Version 5.1\n",
		"GetFoo.ps1": "[Alias('gf')]\nparam()\n'foo'\n",
		"Helper.ps1": "function Helper {\n    'help'\n}\n",
	})

	a, err := Build(BuildOptions{SourcePath: root, Parallelism: 2})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	out := string(a.Render())
	for _, want := range []string{
		"#Requires -Version 5.1",
		"function GetFoo {",
		"function Helper {",
		"Set-Alias -Name gf -Value GetFoo",
		"Export-ModuleMember -Function GetFoo -Alias gf",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("artifact lacks %q:\n%s", want, out)
		}
	}
}
