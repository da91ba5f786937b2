// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/agilira/orpheus/pkg/orpheus"
	"github.com/dustin/go-humanize"

	"github.com/OpenPSG/edfconv"
)

// handleInfo prints the recording summary without decoding sample data.
func (m *Manager) handleInfo(ctx *orpheus.Context) error {
	path := ctx.GetArg(0)
	if path == "" {
		return fmt.Errorf("usage: edfconv info <path>")
	}

	info, err := edfconv.ReadFileInfo(path)
	m.journalRecord(ctx, "info", edfconv.ConversionRequest{Source: path}, err)
	if err != nil {
		return err
	}

	fmt.Printf("Patient:    %s\n", info.PatientID)
	fmt.Printf("Recording:  %s\n", info.RecordingID)
	fmt.Printf("Start time: %s\n", info.StartTime.Format("2006-01-02 15:04:05"))
	if info.DataRecords == edfconv.RecordsUnknown {
		fmt.Printf("Duration:   unknown (streaming recording)\n")
	} else {
		fmt.Printf("Duration:   %.3f s (%d data records)\n", info.DurationSeconds, info.DataRecords)
	}
	fmt.Printf("Channels:   %d\n", len(info.ChannelNames))
	for _, name := range info.ChannelNames {
		rate := info.SampleRates[name]
		samples := int64(rate * info.DurationSeconds)
		fmt.Printf("  %-16s %g Hz, %s samples\n", name, rate, humanize.Comma(samples))
	}
	return nil
}

// handleConvert runs one conversion request end to end.
func (m *Manager) handleConvert(ctx *orpheus.Context) error {
	src := ctx.GetArg(0)
	dst := ctx.GetArg(1)
	if src == "" || dst == "" {
		return fmt.Errorf("usage: edfconv convert <path> <output> [--format FORMAT] [--channels A,B,...]")
	}

	req := edfconv.ConversionRequest{
		Source:      src,
		Destination: dst,
		Format:      edfconv.ParseFormat(ctx.GetFlagString("format")),
		Channels:    splitChannels(ctx.GetFlagString("channels")),
	}

	if ctx.GetFlagBool("verbose") {
		if info, err := edfconv.ReadFileInfo(src); err == nil {
			slog.Info("decoding recording",
				"source", src,
				"channels", len(info.ChannelNames),
				"duration_seconds", info.DurationSeconds)
		}
	}

	err := edfconv.Convert(req)
	m.journalRecord(ctx, "convert", req, err)
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %s (%s)\n", dst, outputFormat(req).String())
	return nil
}

// handleHistory lists recent journal entries, newest first.
func (m *Manager) handleHistory(ctx *orpheus.Context) error {
	path := journalPath(ctx)
	if path == "" {
		return fmt.Errorf("no journal configured: pass --journal or set EDFCONV_JOURNAL")
	}

	journal, err := edfconv.OpenJournal(path)
	if err != nil {
		return err
	}
	defer journal.Close()

	entries, err := journal.Recent(ctx.GetFlagInt("limit"))
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No journal entries")
		return nil
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s  %-8s %-5s %s", e.Timestamp.Format("2006-01-02 15:04:05"), e.Operation, e.Status, e.Source)
		if e.Destination != "" {
			line += " -> " + e.Destination
		}
		if e.Detail != "" {
			line += "  (" + e.Detail + ")"
		}
		fmt.Println(line)
	}
	return nil
}

// journalRecord records an operation outcome when a journal is configured.
// Journal failures are reported on stderr but never fail the operation.
func (m *Manager) journalRecord(ctx *orpheus.Context, operation string, req edfconv.ConversionRequest, opErr error) {
	path := journalPath(ctx)
	if path == "" {
		return
	}

	journal, err := edfconv.OpenJournal(path)
	if err != nil {
		slog.Warn("journal unavailable", "path", path, "error", err)
		return
	}
	defer journal.Close()

	if err := journal.Record(operation, req, opErr); err != nil {
		slog.Warn("journal write failed", "path", path, "error", err)
	}
}

func journalPath(ctx *orpheus.Context) string {
	if path := ctx.GetFlagString("journal"); path != "" {
		return path
	}
	return os.Getenv("EDFCONV_JOURNAL")
}

func splitChannels(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	channels := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			channels = append(channels, p)
		}
	}
	return channels
}

func outputFormat(req edfconv.ConversionRequest) edfconv.Format {
	if req.Format != edfconv.FormatUnknown {
		return req.Format
	}
	return edfconv.DetectFormat(req.Destination)
}
