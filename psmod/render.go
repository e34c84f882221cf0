// SPDX-FileCopyrightText: 2025 Antoni Szymański
// SPDX-License-Identifier: MPL-2.0

package psmod

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

type region struct {
	Name string
	Body string
}

const typeRegistryTmplSource = `$exportableTypes = @(
{{- range .}}
    [{{.}}]
{{- end}}
)
$typeAcceleratorsClass = [psobject].Assembly.GetType('System.Management.Automation.TypeAccelerators')
foreach ($type in $exportableTypes) {
    $typeAcceleratorsClass::Add($type.FullName, $type)
}
$MyInvocation.MyCommand.ScriptBlock.Module.OnRemove = {
    foreach ($type in $exportableTypes) {
        $typeAcceleratorsClass::Remove($type.FullName)
    }
}.GetNewClosure()`

var typeRegistryTmpl = template.Must(template.New("typeregistry").Parse(typeRegistryTmplSource))

// Render produces the artifact text: non-empty regions in fixed order, each
// delimited and separated from the next by one blank line.
func (a *Assembler) Render() []byte {
	var regions []region
	add := func(name, body string) {
		body = strings.TrimSuffix(body, "\n")
		if body != "" {
			regions = append(regions, region{Name: name, Body: body})
		}
	}

	if !a.requirements.Empty() {
		var sb strings.Builder
		a.requirements.render(&sb)
		add("Requirements", sb.String())
	}
	if !a.imports.Empty() {
		var sb strings.Builder
		a.imports.render(&sb)
		add("Using", sb.String())
	}
	if a.variables.Len() > 0 {
		add("Suppress", a.renderSuppression())
	}
	if a.enums.Len() > 0 {
		add("Enums", renderDefs(a.enums, func(d *Definition[*EnumType]) string {
			return d.Text
		}))
	}
	if a.classes.Len() > 0 {
		var parts []string
		for _, def := range orderClasses(a.classes) {
			parts = append(parts, def.Text)
		}
		add("Classes", strings.Join(parts, "\n\n"))
	}
	if a.variables.Len() > 0 {
		add("Variables", renderDefs(a.variables, func(d *Definition[string]) string {
			return fmt.Sprintf("$%s = %s", d.Name, d.Value)
		}))
	}
	if a.functions.Len() > 0 {
		add("Functions", renderDefs(a.functions, func(d *Definition[string]) string {
			return d.Text
		}))
	}
	if a.entryPoints.Len() > 0 {
		add("Commands", renderDefs(a.entryPoints, func(d *Definition[*EntryPoint]) string {
			return d.Text
		}))
	}
	if a.aliases.Len() > 0 {
		add("Aliases", a.renderAliases())
	}
	if a.formatFiles.Len() > 0 {
		add("Formats", a.renderFormats())
	}
	add("Export", a.renderExport())
	if a.enums.Len() > 0 || a.classes.Len() > 0 {
		add("Types", a.renderTypeRegistry())
	}

	var b []byte
	for i, r := range regions {
		if i > 0 {
			b = append(b, '\n')
		}
		b = append(b, "#region "...)
		b = append(b, r.Name...)
		b = append(b, '\n')
		b = append(b, r.Body...)
		b = append(b, "\n#endregion "...)
		b = append(b, r.Name...)
		b = append(b, '\n')
	}
	return b
}

func renderDefs[V any](s *Section[V], render func(*Definition[V]) string) string {
	var parts []string
	for def := range s.All() {
		parts = append(parts, render(def))
	}
	return strings.Join(parts, "\n\n")
}

// renderSuppression emits the no-op parameter block that keeps script
// analysis from flagging exported-but-locally-unused variables.
func (a *Assembler) renderSuppression() string {
	return "[Diagnostics.CodeAnalysis.SuppressMessageAttribute('PSUseDeclaredVarsMoreThanAssignments', '', " +
		"Scope = 'Script', Justification = 'Variables are exported from the module')]\nparam()"
}

// renderAliases emits one Set-Alias statement per alias, grouped by target
// entry point in entry-point order.
func (a *Assembler) renderAliases() string {
	var sb strings.Builder
	for ep := range a.entryPoints.All() {
		for alias := range a.aliases.All() {
			if strings.EqualFold(alias.Value, ep.Name) {
				fmt.Fprintf(&sb, "Set-Alias -Name %s -Value %s\n", alias.Name, alias.Value)
			}
		}
	}
	return sb.String()
}

// renderFormats emits one guarded registration per distinct resource file,
// skipped at load time when a same-named view is already known.
func (a *Assembler) renderFormats() string {
	var parts []string
	for base, views := range a.formatFiles.AllFromFront() {
		quoted := make([]string, len(views))
		for i, view := range views {
			quoted[i] = "'" + view + "'"
		}
		parts = append(parts, fmt.Sprintf(
			"if (-not (Get-FormatData -TypeName %s -ErrorAction Ignore)) {\n"+
				"    Update-FormatData -AppendPath (Join-Path $PSScriptRoot '%s')\n}",
			strings.Join(quoted, ", "), base,
		))
	}
	return strings.Join(parts, "\n")
}

// renderExport lists the exported surface explicitly. Private functions are
// never exported.
func (a *Assembler) renderExport() string {
	var sb strings.Builder
	sb.WriteString("Export-ModuleMember")
	writeList := func(flag string, names []string) {
		if len(names) > 0 {
			fmt.Fprintf(&sb, " -%s %s", flag, strings.Join(names, ", "))
		}
	}
	writeList("Function", a.entryPoints.Names())
	writeList("Alias", a.aliases.Names())
	writeList("Variable", a.variables.Names())
	return sb.String()
}

// renderTypeRegistry emits code registering every declared enum and class
// into the process-global type accelerator table at load time, with a
// closure-captured deregistration on unload.
func (a *Assembler) renderTypeRegistry() string {
	var names []string
	for def := range a.enums.All() {
		names = append(names, def.Name)
	}
	for _, def := range orderClasses(a.classes) {
		names = append(names, def.Name)
	}

	var buf bytes.Buffer
	if err := typeRegistryTmpl.Execute(&buf, names); err != nil {
		panic(err) // the template is static and the data a []string
	}
	return buf.String()
}
