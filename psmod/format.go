// SPDX-FileCopyrightText: 2025 Antoni Szymański
// SPDX-License-Identifier: MPL-2.0

package psmod

import (
	"encoding/xml"
	"strings"
)

type formatDocument struct {
	XMLName xml.Name     `xml:"Configuration"`
	Views   []formatView `xml:"ViewDefinitions>View"`
}

type formatView struct {
	Name string `xml:"Name"`
}

// parseFormatViews extracts the named view entries from a view-definition
// resource document.
func parseFormatViews(path string, data []byte) ([]string, error) {
	var doc formatDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &StructuralError{
			Pos:     Position{File: path},
			Msg:     "malformed view-definition resource",
			Excerpt: excerpt(err.Error()),
		}
	}

	views := make([]string, 0, len(doc.Views))
	for _, view := range doc.Views {
		if name := strings.TrimSpace(view.Name); name != "" {
			views = append(views, name)
		}
	}
	return views, nil
}
