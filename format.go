// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package edfconv

import (
	"path/filepath"
	"strings"
)

// Format identifies an export output format.
type Format int

const (
	FormatUnknown Format = iota
	FormatTabular
	FormatStructured
	FormatStructuredYAML
	FormatArchive
)

func (f Format) String() string {
	switch f {
	case FormatTabular:
		return "tabular"
	case FormatStructured:
		return "structured"
	case FormatStructuredYAML:
		return "structured-yaml"
	case FormatArchive:
		return "archive"
	default:
		return "unknown"
	}
}

// DetectFormat detects the output format from the destination file
// extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatTabular
	case ".json":
		return FormatStructured
	case ".yaml", ".yml":
		return FormatStructuredYAML
	case ".npz", ".zip":
		return FormatArchive
	default:
		return FormatUnknown
	}
}

// ParseFormat parses an explicitly specified format name. "auto" and the
// empty string defer to extension detection.
func ParseFormat(name string) Format {
	switch strings.ToLower(name) {
	case "tabular", "csv":
		return FormatTabular
	case "structured", "json":
		return FormatStructured
	case "yaml", "yml":
		return FormatStructuredYAML
	case "archive", "npz", "zip":
		return FormatArchive
	default:
		return FormatUnknown
	}
}
