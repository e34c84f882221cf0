// SPDX-FileCopyrightText: 2025 Antoni Szymański
// SPDX-License-Identifier: MPL-2.0

package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"strings"
	"sync"

	"github.com/hashicorp/go-set/v3"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

type Config struct {
	Schema string `json:"$schema,omitzero"`
	// SourcePath is the root of the source tree to assemble.
	SourcePath string `json:"source_path" jsonschema:"required,minLength=1"`
	// OutputPath is the destination module file.
	OutputPath string `json:"output_path" jsonschema:"required,minLength=1"`
	// MaxDepth bounds directory traversal; 0 means unbounded.
	MaxDepth int `json:"max_depth"`
	// Parallel caps concurrent source parsing; 0 means one worker per file.
	Parallel int `json:"parallel"`
	// Exclude holds base-name glob patterns to skip during discovery.
	Exclude *set.Set[string] `json:"exclude"`
}

func (c *Config) UnmarshalJSON(data []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if err = sch.Validate(inst); err != nil {
		return err
	}
	type RawConfig Config
	return json.Unmarshal(data, (*RawConfig)(c))
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schema))
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err = compiler.AddResource("memory:", doc); err != nil {
		return nil, err
	}
	return compiler.Compile("memory:")
})

func Schema() string {
	return schema
}

//go:generate go run ../internal/schemagen

//go:embed schema.json
var schema string
