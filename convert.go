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
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/agilira/go-errors"
)

// ConversionRequest names the source recording, the channel subset (nil
// means all channels), the output format and the destination path. Requests
// are transient and wholly independent of one another.
type ConversionRequest struct {
	Source      string
	Destination string
	Format      Format
	Channels    []string
}

// OpenFileStore opens an EDF file, decodes it fully into a Store and closes
// the file. The handle never outlives the call, including on error paths.
func OpenFileStore(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeIOFailure, fmt.Sprintf("opening %q", path))
	}
	defer f.Close()

	er, err := Open(f)
	if err != nil {
		return nil, err
	}
	return ReadStore(er)
}

// ReadFileInfo returns the recording summary for an EDF file without
// decoding any sample data.
func ReadFileInfo(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, errors.Wrap(err, ErrCodeIOFailure, fmt.Sprintf("opening %q", path))
	}
	defer f.Close()

	er, err := Open(f)
	if err != nil {
		return Info{}, err
	}

	hdr := er.Header()
	names := make([]string, len(hdr.Signals))
	rates := make(map[string]float64, len(hdr.Signals))
	for i, sig := range hdr.Signals {
		names[i] = sig.Label
		rates[sig.Label] = sig.SampleRate(hdr.DataRecordDuration)
	}
	duration := 0.0
	if hdr.DataRecords != RecordsUnknown {
		duration = float64(hdr.DataRecords) * hdr.DataRecordDuration.Seconds()
	}
	return Info{
		PatientID:       hdr.PatientID,
		RecordingID:     hdr.RecordingID,
		StartTime:       hdr.StartTime,
		DurationSeconds: duration,
		DataRecords:     hdr.DataRecords,
		ChannelNames:    names,
		SampleRates:     rates,
	}, nil
}

// Convert decodes the source recording and writes one output file in the
// requested format. The output is written to a temporary file in the
// destination directory and renamed into place, so a failed request never
// leaves a partial file behind.
func Convert(req ConversionRequest) error {
	format := req.Format
	if format == FormatUnknown {
		format = DetectFormat(req.Destination)
	}
	if format == FormatUnknown {
		return errors.New(ErrCodeIOFailure,
			fmt.Sprintf("cannot determine output format from destination %q", req.Destination))
	}

	store, err := OpenFileStore(req.Source)
	if err != nil {
		return err
	}

	// Resolve the selection up front: an unknown channel or an incompatible
	// tabular selection must fail before any output exists on disk.
	if _, err := store.Select(req.Channels); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(req.Destination), ".edfconv-*")
	if err != nil {
		return errors.Wrap(err, ErrCodeIOFailure, fmt.Sprintf("creating output in %q", filepath.Dir(req.Destination)))
	}
	tmpName := tmp.Name()

	if err := exportTo(tmp, store, req.Channels, format); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, ErrCodeIOFailure, "closing output file")
	}
	if err := os.Rename(tmpName, req.Destination); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, ErrCodeIOFailure, fmt.Sprintf("renaming output to %q", req.Destination))
	}
	return nil
}

func exportTo(w io.Writer, store *Store, channels []string, format Format) error {
	switch format {
	case FormatTabular:
		return ExportTabular(w, store, channels)
	case FormatStructured, FormatStructuredYAML:
		return ExportStructured(w, store, channels, format)
	case FormatArchive:
		return ExportArchive(w, store, channels)
	default:
		return errors.New(ErrCodeIOFailure, fmt.Sprintf("unsupported output format %q", format))
	}
}
