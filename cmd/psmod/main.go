// SPDX-FileCopyrightText: 2025 Antoni Szymański
// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/alecthomas/kong"

var cli struct {
	Init    cmdInit    `cmd:""`
	Schema  cmdSchema  `cmd:""`
	Build   cmdBuild   `cmd:""`
	Version cmdVersion `cmd:""`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("psmod"),
		kong.Description("Assemble PowerShell sources into a single module file"),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
