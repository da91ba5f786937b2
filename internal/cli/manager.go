// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package cli implements the edfconv command-line interface on top of the
// Orpheus framework.
package cli

import (
	"github.com/agilira/orpheus/pkg/orpheus"
)

// Manager wires the edfconv commands into an Orpheus application.
type Manager struct {
	app *orpheus.App
}

// NewManager builds the CLI command tree.
func NewManager() *Manager {
	app := orpheus.New("edfconv").
		SetDescription("Read EDF biosignal recordings and convert them for analysis").
		SetVersion("1.0.0")

	m := &Manager{app: app}
	m.setupCommands()
	return m
}

// Run executes the CLI application with the provided arguments.
func (m *Manager) Run(args []string) error {
	return m.app.Run(args)
}

func (m *Manager) setupCommands() {
	// info <path>
	infoCmd := orpheus.NewCommand("info", "Show recording metadata")
	infoCmd.SetHandler(m.handleInfo)
	infoCmd.AddFlag("journal", "j", "", "Journal path (.db for SQLite, else JSONL; default $EDFCONV_JOURNAL)")
	m.app.AddCommand(infoCmd)

	// convert <path> <output> [--format] [--channels]
	convertCmd := orpheus.NewCommand("convert", "Convert a recording to an analysis format")
	convertCmd.SetHandler(m.handleConvert)
	convertCmd.AddFlag("format", "f", "auto", "Output format (auto|tabular|structured|yaml|archive)")
	convertCmd.AddFlag("channels", "c", "", "Comma-separated channel labels (default: all channels)")
	convertCmd.AddFlag("journal", "j", "", "Journal path (.db for SQLite, else JSONL; default $EDFCONV_JOURNAL)")
	convertCmd.AddBoolFlag("verbose", "v", false, "Log decode diagnostics")
	m.app.AddCommand(convertCmd)

	// history [--limit]
	historyCmd := orpheus.NewCommand("history", "Show recent journal entries")
	historyCmd.SetHandler(m.handleHistory)
	historyCmd.AddIntFlag("limit", "l", 20, "Maximum entries to show")
	historyCmd.AddFlag("journal", "j", "", "Journal path (.db for SQLite, else JSONL; default $EDFCONV_JOURNAL)")
	m.app.AddCommand(historyCmd)
}
