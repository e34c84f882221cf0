// SPDX-FileCopyrightText: 2025 Antoni Szymański
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"encoding/json"
	"io"
	"os"

	jsonc "github.com/DisposaBoy/JsonConfigReader"
	"github.com/antoniszymanski/psmod-go/cmd/psmod/config"
	"github.com/antoniszymanski/psmod-go/psmod"
	"github.com/charmbracelet/log"
)

type cmdBuild struct {
	Path  string `arg:"" type:"path" default:"psmod.jsonc"`
	Quiet bool   `short:"q" help:"Suppress warnings about dropped statements."`
}

func (c *cmdBuild) Run() error {
	var f *os.File
	var err error
	if c.Path != "-" {
		f, err = os.Open(c.Path)
		if err != nil {
			return err
		}
		defer f.Close() //nolint:errcheck
	} else {
		f = os.Stdin
	}

	data, err := io.ReadAll(jsonc.New(f))
	if err != nil {
		return err
	}
	var cfg config.Config
	if err = json.Unmarshal(data, &cfg); err != nil {
		return err
	}

	logger := log.New(os.Stderr)
	logger.SetReportTimestamp(false)
	if c.Quiet {
		logger.SetLevel(log.ErrorLevel)
	}

	var exclude []string
	if cfg.Exclude != nil {
		exclude = cfg.Exclude.Slice()
	}
	asm, err := psmod.Build(psmod.BuildOptions{
		SourcePath:  cfg.SourcePath,
		MaxDepth:    cfg.MaxDepth,
		Exclude:     exclude,
		Parallelism: cfg.Parallel,
		Options:     []psmod.Option{psmod.WithLogger(logger)},
	})
	if err != nil {
		return err
	}
	return asm.Save(cfg.OutputPath)
}
