// SPDX-FileCopyrightText: 2025 Antoni Szymański
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/alecthomas/kong"
)

type cmdVersion struct{}

func (cmdVersion) Run(ctx *kong.Context) error {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return errors.New("build info not found")
	}
	ctx.Printf("%s", versionLine(info))
	return nil
}

func versionLine(info *debug.BuildInfo) string {
	revision, when := "unknown", "unknown"
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if len(setting.Value) >= 12 {
				revision = setting.Value[:12]
			}
		case "vcs.time":
			when = setting.Value
		}
	}
	return fmt.Sprintf(
		"psmod %s (%s, rev %s, built %s)",
		info.Main.Version, info.GoVersion, revision, when,
	)
}
